package workflow

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidState       = errors.New("operation not allowed in current state")
	ErrBusy               = errors.New("operation already in progress")
	ErrSuperseded         = errors.New("result discarded: workflow moved on")
	ErrHistoryDraft       = errors.New("drafts loaded from history cannot be committed")
	ErrConflictingOptions = errors.New("replace and save-as-new are mutually exclusive")
	ErrResolutionRequired = errors.New("conflict pending: choose replace or save-as-new")
)

func invalidState(op string, s State) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidState, op, s)
}
