package integration

import "errors"

var (
	ErrNotFound     = errors.New("integration not found")
	ErrNoCredential = errors.New("integration has no credential configured")
)
