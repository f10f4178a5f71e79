package workflow

// State is a stage of the analysis workflow.
type State int

const (
	Idle State = iota
	Analyzing
	Analyzed
	Committing
	ConflictPending
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Analyzing:
		return "analyzing"
	case Analyzed:
		return "analyzed"
	case Committing:
		return "committing"
	case ConflictPending:
		return "conflict_pending"
	default:
		return "unknown"
	}
}

// Busy reports whether a remote call is in flight.
func (s State) Busy() bool {
	return s == Analyzing || s == Committing
}

// HasDraft reports whether a draft is live in this state.
func (s State) HasDraft() bool {
	return s == Analyzed || s == ConflictPending || s == Committing
}
