// Package diskerr defines the error taxonomy shared by every layer of the
// FAT32 driver, from sector I/O up through the public mount API.
package diskerr

import "fmt"

// DiskoError is a sentinel error type, one value per entry in the FAT driver's
// error taxonomy. Comparing against one of the exported constants with
// errors.Is works even after a value has been wrapped with WithMessage.
// WrapError unwraps to the attached cause instead, so errors.Is matches that
// cause and no longer the constant.
type DiskoError string

const (
	// ErrReadFailed indicates the block device could not service a read.
	ErrReadFailed = DiskoError("read failed")
	// ErrWriteFailed indicates the block device could not service a write.
	ErrWriteFailed = DiskoError("write failed")
	// ErrInvalidPartition indicates the MBR or boot record failed validation.
	ErrInvalidPartition = DiskoError("invalid partition")
	// ErrPartitionNotFound indicates a requested partition index is out of range.
	ErrPartitionNotFound = DiskoError("partition not found")
	// ErrNoSpaceLeft indicates cluster allocation exhausted the volume.
	ErrNoSpaceLeft = DiskoError("no space left on device")
	// ErrFileExists indicates a create/rename target already exists.
	ErrFileExists = DiskoError("file exists")
	// ErrNotADirectory indicates an entry expected to be a directory is not.
	ErrNotADirectory = DiskoError("not a directory")
	// ErrNotAFile indicates an entry expected to be a file is a directory.
	ErrNotAFile = DiskoError("not a file")
	// ErrNotFound indicates a path component could not be resolved.
	ErrNotFound = DiskoError("no such file or directory")
	// ErrNotImplemented indicates the requested FAT variant isn't supported.
	ErrNotImplemented = DiskoError("not implemented")
)

// Error implements the error interface.
func (e DiskoError) Error() string {
	return string(e)
}

// WithMessage attaches additional context to the error without losing its
// identity for errors.Is/errors.As.
func (e DiskoError) WithMessage(message string) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", string(e), message),
		originalError: e,
	}
}

// WrapError attaches an underlying cause to the error.
func (e DiskoError) WrapError(err error) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", string(e), err.Error()),
		originalError: err,
	}
}

// DriverError is the common interface implemented by every error this
// package hands back: a regular Go error that also knows how to attach more
// context while preserving the original cause for errors.Unwrap.
type DriverError interface {
	error
	WithMessage(message string) DriverError
	WrapError(err error) DriverError
}

type customDriverError struct {
	message       string
	originalError error
}

func (e customDriverError) Error() string {
	return e.message
}

func (e customDriverError) WithMessage(message string) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.message, message),
		originalError: e,
	}
}

func (e customDriverError) WrapError(err error) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: err,
	}
}

func (e customDriverError) Unwrap() error {
	return e.originalError
}

// Custom builds the "escape hatch" error named in the spec for unsupported
// partition types and similar situations that don't map cleanly onto one of
// the named taxonomy entries.
func Custom(name string) DriverError {
	return customDriverError{message: name, originalError: nil}
}
