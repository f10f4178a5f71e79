package history

import "errors"

var (
	ErrBusy        = errors.New("history operation already in progress")
	ErrSuperseded  = errors.New("history result discarded: session changed")
	ErrNoSelection = errors.New("no history version selected")
	ErrNoSink      = errors.New("no draft sink bound")
)
