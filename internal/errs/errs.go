// Package errs defines the error-kind taxonomy shared across wapm's
// components and maps each kind to the process exit code it should
// produce at the top level.
package errs

import (
	"errors"
	"fmt"
)

// Kind identifies a class of failure. Every command-level error is expected
// to carry one so the top-level dispatcher can pick an exit code. Auth
// errors are raised by the registry client, which clears its in-memory
// token before returning them.
type Kind int

const (
	// Unknown is used only as a zero value; real errors always set a kind.
	Unknown Kind = iota
	Config
	Network
	Registry
	Auth
	Resolution
	Manifest
	Lockfile
	SignatureMissing
	SignatureMismatch
	KeyRevoked
	FilesystemIO
	RuntimeMissing
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case Config:
		return "Config"
	case Network:
		return "Network"
	case Registry:
		return "Registry"
	case Auth:
		return "Auth"
	case Resolution:
		return "Resolution"
	case Manifest:
		return "Manifest"
	case Lockfile:
		return "Lockfile"
	case SignatureMissing:
		return "SignatureMissing"
	case SignatureMismatch:
		return "SignatureMismatch"
	case KeyRevoked:
		return "KeyRevoked"
	case FilesystemIO:
		return "FilesystemIO"
	case RuntimeMissing:
		return "RuntimeMissing"
	case Cancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// ExitCode returns the process exit code associated with the kind. Codes
// start at 1 (0 is reserved for success) and follow the order the kinds are
// listed in spec.md §7.
func (k Kind) ExitCode() int {
	switch k {
	case Config:
		return 1
	case Network:
		return 2
	case Registry:
		return 3
	case Auth:
		return 4
	case Resolution:
		return 5
	case Manifest:
		return 6
	case Lockfile:
		return 7
	case SignatureMissing:
		return 8
	case SignatureMismatch:
		return 9
	case KeyRevoked:
		return 10
	case FilesystemIO:
		return 11
	case RuntimeMissing:
		return 12
	case Cancelled:
		return 13
	default:
		return 1
	}
}

// wrapped associates an underlying error with a Kind while preserving the
// wrap chain so errors.Is/errors.As continue to work against the cause.
type wrapped struct {
	kind Kind
	err  error
}

func (w *wrapped) Error() string {
	return fmt.Sprintf("%s: %v", w.kind, w.err)
}

func (w *wrapped) Unwrap() error {
	return w.err
}

// Wrap attaches kind to err. If err is nil, Wrap returns nil.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &wrapped{kind: kind, err: err}
}

// New creates a new error of the given kind with the given message.
func New(kind Kind, msg string) error {
	return &wrapped{kind: kind, err: errors.New(msg)}
}

// Newf creates a new error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) error {
	return &wrapped{kind: kind, err: fmt.Errorf(format, args...)}
}

// KindOf returns the Kind attached to err by Wrap/New, walking the wrap
// chain. If no wrapped kind is found, it returns Unknown.
func KindOf(err error) Kind {
	var w *wrapped
	if errors.As(err, &w) {
		return w.kind
	}
	return Unknown
}

// Is reports whether err (or something it wraps) was tagged with kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
