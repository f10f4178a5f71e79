package client

import "errors"

var (
	ErrResponseTooLarge  = errors.New("response exceeds maximum size")
	ErrMalformedResponse = errors.New("malformed response")
	ErrEmptyID           = errors.New("id must not be empty")
)
