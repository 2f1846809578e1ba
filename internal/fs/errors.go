package fs

import (
	"errors"
	"os"
	"syscall"

	"vshell/internal/logging"
	"vshell/internal/vfs"
)

var (
	errLogger = logging.GetLogger().WithPrefix("error")

	// ErrDirectoryNotEmpty indicates attempt to remove non-empty directory
	ErrDirectoryNotEmpty = errors.New("directory not empty")
)

// Operation names for errors raised by the FUSE layer itself.
const (
	OpOpen   = "open"
	OpRemove = "remove"
)

// ToFuseError converts an engine error to the errno FUSE expects.
func ToFuseError(err error) error {
	if err == nil {
		return nil
	}

	errLogger.Trace("Converting error to FUSE error: %v", err)
	switch {
	case errors.Is(err, vfs.ErrNotFound), errors.Is(err, os.ErrNotExist):
		return syscall.ENOENT
	case errors.Is(err, vfs.ErrAlreadyExists):
		return syscall.EEXIST
	case errors.Is(err, ErrDirectoryNotEmpty):
		return syscall.ENOTEMPTY
	case errors.Is(err, vfs.ErrArgument):
		return syscall.EINVAL
	case errors.Is(err, os.ErrPermission):
		return syscall.EACCES
	default:
		errLogger.Debug("Unmapped error, returning EIO: %v", err)
		return syscall.EIO
	}
}
