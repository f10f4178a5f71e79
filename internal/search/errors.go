package search

import "errors"

var (
	ErrEmptyQuery   = errors.New("query text is required")
	ErrQueryTooLong = errors.New("query text is too long")
	ErrBusy         = errors.New("request already in progress")
	ErrSuperseded   = errors.New("result discarded: session changed")
)
