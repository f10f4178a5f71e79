package failures

// Operation names a remote call for classification and logging.
type Operation string

const (
	OpLogin             Operation = "login"
	OpSignup            Operation = "signup"
	OpAnalyze           Operation = "analyze"
	OpCommit            Operation = "commit"
	OpListHistory       Operation = "list_history"
	OpLoadVersion       Operation = "load_version"
	OpDeactivateVersion Operation = "deactivate_version"
	OpSearch            Operation = "search"
	OpDashboard         Operation = "dashboard"
	OpAuditLogs         Operation = "audit_logs"
	OpSetEngineKey      Operation = "set_engine_key"
	OpSetStorageLink    Operation = "set_storage_link"
)

// Dependency is the workspace capability an operation needs configured.
type Dependency int

const (
	DependsOnNothing Dependency = iota
	DependsOnEngine
	DependsOnStorage
)

// Dependency reports which capability a 428 on this operation refers to
// when the response carries no marker.
func (o Operation) Dependency() Dependency {
	switch o {
	case OpAnalyze, OpSearch, OpDashboard:
		return DependsOnEngine
	case OpCommit, OpListHistory, OpLoadVersion, OpDeactivateVersion:
		return DependsOnStorage
	default:
		return DependsOnNothing
	}
}
