// Package errs collects the user-visible error kinds shared by the
// namespace, open-file-table, and persistence layers (spec.md §7).
package errs

import "errors"

var (
	ErrAlreadyExists         = errors.New("already exists")
	ErrNotFound              = errors.New("not found")
	ErrNotADirectory         = errors.New("not a directory")
	ErrIsADirectory          = errors.New("is a directory")
	ErrNotEmpty              = errors.New("not empty")
	ErrNotOpen               = errors.New("not open")
	ErrAlreadyOpen           = errors.New("already open")
	ErrNoSpace               = errors.New("no space")
	ErrConfigurationMismatch = errors.New("configuration mismatch")
	ErrInvalidDestination    = errors.New("invalid destination")
	ErrInvalidCommand        = errors.New("invalid command")
)
