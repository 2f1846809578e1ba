// Package vfs provides the in-memory virtual filesystem engine.
//
// This file contains error types and error handling utilities.
package vfs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a path, file or directory is absent
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the path is already present. mkdir and nano
	// report this through their status message instead of returning it.
	ErrAlreadyExists = errors.New("already exists")

	// ErrIO indicates the backing archive could not be read or written
	ErrIO = errors.New("archive i/o failed")

	// ErrDecode indicates an archive member is not valid text or the archive
	// itself is corrupt
	ErrDecode = errors.New("archive decode failed")

	// ErrConfig indicates a malformed seed document
	ErrConfig = errors.New("invalid configuration")

	// ErrArgument indicates a malformed front-end command
	ErrArgument = errors.New("invalid arguments")
)

// Error wraps engine failures with the operation and the path the caller
// supplied.
type Error struct {
	Op   string // Operation that failed (e.g., "cd", "cat")
	Path string // Path as given by the caller
	Err  error  // Underlying error
}

// Error implements the error interface, providing a formatted error message
func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap implements error unwrapping for the errors.Is/As functions
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error with the given operation, path, and underlying error
func NewError(op string, path string, err error) *Error {
	vfsErr := &Error{
		Op:   op,
		Path: path,
		Err:  err,
	}
	logger.Debug("Created new error: %v", vfsErr)
	return vfsErr
}

// Operation names for consistent logging and error reporting
const (
	OpLoad  = "load"
	OpSeed  = "seed"
	OpPwd   = "pwd"
	OpLs    = "ls"
	OpCd    = "cd"
	OpCat   = "cat"
	OpMkdir = "mkdir"
	OpNano  = "nano"
	OpRm    = "rm"
	OpChmod = "chmod"
	OpSave  = "save"
)

// IsNotFound reports whether err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
