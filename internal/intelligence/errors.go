package intelligence

import "errors"

var (
	ErrNoFile          = errors.New("no file selected")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrFileTooLarge    = errors.New("file exceeds maximum upload size")
	ErrInvalidFile     = errors.New("invalid file")
	ErrEmptyFile       = errors.New("file is empty")
)
