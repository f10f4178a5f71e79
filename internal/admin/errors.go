package admin

import "errors"

var (
	ErrBusy              = errors.New("admin request already in progress")
	ErrSuperseded        = errors.New("admin result discarded: session changed")
	ErrEngineKeyRequired = errors.New("engine key is required")
	ErrInvalidStorageURI = errors.New("invalid storage URI")
	ErrInvalidIndexName  = errors.New("invalid vector index name")
)
