package pgvault

import (
	"errors"
	"fmt"
)

// Errno is a closed set of POSIX-style error symbols the Facade maps host
// filesystem failures onto. It is deliberately not syscall.Errno: the host
// filesystem is an arbitrary absfs.FileSystem (which may be backed by
// memfs, not a real OS file), so a platform syscall number would not be
// meaningful here.
type Errno uint8

const (
	EUNKNOWN Errno = iota
	EBADF
	ENOENT
	EISDIR
	ENOTDIR
	EEXIST
	EACCES
	EIO
)

func (e Errno) String() string {
	switch e {
	case EBADF:
		return "EBADF"
	case ENOENT:
		return "ENOENT"
	case EISDIR:
		return "EISDIR"
	case ENOTDIR:
		return "ENOTDIR"
	case EEXIST:
		return "EEXIST"
	case EACCES:
		return "EACCES"
	case EIO:
		return "EIO"
	default:
		return "EUNKNOWN"
	}
}

// ValidationError represents an invalid argument or configuration.
type ValidationError struct {
	Field   string
	Value   any
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError constructs a ValidationError.
func NewValidationError(field string, value any, message string) error {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// PosixError wraps a Facade operation failure with a POSIX error symbol,
// the form the VFS shim surfaces to the host database.
type PosixError struct {
	Op   string // "open", "read", "write", "stat", "rename", ...
	Path string
	Code Errno
	Err  error
}

func (e *PosixError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Path, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Code)
}

func (e *PosixError) Unwrap() error { return e.Err }

// NewPosixError constructs a PosixError, preserving err for Unwrap.
func NewPosixError(op, path string, code Errno, err error) error {
	return &PosixError{Op: op, Path: path, Code: code, Err: err}
}

// IOError represents a page-granularity I/O failure: a short read of an
// encrypted page, a payload not a multiple of EncryptedPageSize, or an
// authentication failure during a page read or write. It always maps to
// EIO at the Facade boundary.
type IOError struct {
	Op      string
	Path    string
	PageNo  int64 // -1 when not applicable
	Message string
	Err     error
}

func (e *IOError) Error() string {
	if e.PageNo >= 0 {
		return fmt.Sprintf("io error: %s %s (page %d): %s", e.Op, e.Path, e.PageNo, e.Message)
	}
	return fmt.Sprintf("io error: %s %s: %s", e.Op, e.Path, e.Message)
}

func (e *IOError) Unwrap() error { return e.Err }

// NewIOError constructs an IOError with no page locator.
func NewIOError(op, path, message string, err error) error {
	return &IOError{Op: op, Path: path, PageNo: -1, Message: message, Err: err}
}

// NewPageIOError constructs an IOError naming the offending page number.
// The message must never include key or passphrase material.
func NewPageIOError(op, path string, pageNo int64, message string, err error) error {
	return &IOError{Op: op, Path: path, PageNo: pageNo, Message: message, Err: err}
}

// RangeError reports a page number outside [0, maxPageNo].
type RangeError struct {
	PageNo int64
}

const maxPageNo = 1<<32 - 1

func (e *RangeError) Error() string {
	return fmt.Sprintf("page number %d out of range [0, %d]", e.PageNo, maxPageNo)
}

// NewRangeError constructs a RangeError.
func NewRangeError(pageNo int64) error {
	return &RangeError{PageNo: pageNo}
}

// invalidPassphraseMessage is the single, constant-text message surfaced
// for every InvalidPassphrase failure. It must never distinguish "wrong
// key" from "corrupted token" — both look identical to a caller.
const invalidPassphraseMessage = "Invalid passphrase or corrupted encryption keys"

// ErrInvalidPassphrase is returned by New and VerifyOrCreateToken when the
// supplied key fails to open the directory's verification token.
var ErrInvalidPassphrase = errors.New(invalidPassphraseMessage)

// ErrAuthFailed is the Page Codec's constant-text decryption failure. A bad
// tag, a bad IV, a bad AAD, and a wrong key are all reported identically.
var ErrAuthFailed = errors.New("authentication failed")

// ErrDestroyed is the cause a Vault operation that checks for teardown
// (see Vault.Teardown for which ones do) wraps into a *PosixError with code
// EIO (never returned bare), so a VFS shim can map it through the same
// IsPosixError path as any other failure.
var ErrDestroyed = errors.New("vault has been torn down")

// IsValidationError reports whether err is a *ValidationError.
func IsValidationError(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// IsPosixError reports whether err is a *PosixError and returns it.
func IsPosixError(err error) (*PosixError, bool) {
	var e *PosixError
	ok := errors.As(err, &e)
	return e, ok
}

// IsIOError reports whether err is an *IOError and returns it.
func IsIOError(err error) (*IOError, bool) {
	var e *IOError
	ok := errors.As(err, &e)
	return e, ok
}

// IsRangeError reports whether err is a *RangeError.
func IsRangeError(err error) bool {
	var e *RangeError
	return errors.As(err, &e)
}

// IsInvalidPassphrase reports whether err is the InvalidPassphrase failure.
func IsInvalidPassphrase(err error) bool {
	return errors.Is(err, ErrInvalidPassphrase)
}

// IsDestroyed reports whether err is (or wraps) ErrDestroyed.
func IsDestroyed(err error) bool {
	return errors.Is(err, ErrDestroyed)
}
