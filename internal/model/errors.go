package model

import "errors"

// ErrForbidden is returned when the caller is authenticated but does not own the resource.
var ErrForbidden = errors.New("forbidden")
