package model

import "errors"

var (
	ErrNotFound          = errors.New("entity not found")
	ErrBadRequest        = errors.New("bad request")
	ErrUnsupportedDomain = errors.New("unsupported domain")
	ErrDispatchRejected  = errors.New("command rejected")
)
