package transfer

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
)

// Kind classifies why a transfer failed
type Kind string

const (
	KindUsage           Kind = "usage"
	KindConnectivity    Kind = "connectivity"
	KindAuthentication  Kind = "authentication"
	KindRemoteCommand   Kind = "remote-command"
	KindLocalFilesystem Kind = "local-filesystem"
	KindUnknown         Kind = "unknown"
)

var (
	ErrUsage           = errors.New("invalid arguments")
	ErrConnectivity    = errors.New("connection failed")
	ErrAuthentication  = errors.New("authentication failed")
	ErrRemoteCommand   = errors.New("remote command failed")
	ErrLocalFilesystem = errors.New("local filesystem error")
)

var kindErrors = map[Kind]error{
	KindUsage:           ErrUsage,
	KindConnectivity:    ErrConnectivity,
	KindAuthentication:  ErrAuthentication,
	KindRemoteCommand:   ErrRemoteCommand,
	KindLocalFilesystem: ErrLocalFilesystem,
}

// Process exit codes per kind
const (
	ExitOK              = 0
	ExitFailure         = 1
	ExitUsage           = 2
	ExitConnectivity    = 3
	ExitAuthentication  = 4
	ExitRemoteCommand   = 5
	ExitLocalFilesystem = 6
)

// Error is a classified failure of one step of a transfer
type Error struct {
	Kind Kind
	// Step names what was running, e.g. "transfer" or "mkdir"
	Step string
	// ExitCode of the failed process, 0 when no process was involved
	ExitCode int
	// Detail is the last meaningful stderr line or a message
	Detail string
	Err    error
}

// NewError creates a classified error
func NewError(kind Kind, step string, err error) *Error {
	return &Error{Kind: kind, Step: step, Err: err}
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Step != "" {
		b.WriteString(e.Step)
		b.WriteString(": ")
	}
	if sentinel, ok := kindErrors[e.Kind]; ok {
		b.WriteString(sentinel.Error())
	} else {
		b.WriteString("failed")
	}
	if e.ExitCode != 0 {
		fmt.Fprintf(&b, " (exit status %d)", e.ExitCode)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the underlying cause
func (e *Error) Unwrap() []error {
	var errs []error
	if sentinel, ok := kindErrors[e.Kind]; ok {
		errs = append(errs, sentinel)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func usageErrorf(format string, args ...any) error {
	return &Error{Kind: KindUsage, Detail: fmt.Sprintf(format, args...)}
}

// UsageError marks err as caused by invalid arguments or configuration
func UsageError(err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindUsage, Err: err}
}

// Usagef creates a usage error from a message
func Usagef(format string, args ...any) error {
	return usageErrorf(format, args...)
}

// KindOf returns the kind of err, KindUnknown when it was never classified
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	for kind, sentinel := range kindErrors {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindUnknown
}

// IsUsage reports whether err was caused by invalid arguments
func IsUsage(err error) bool {
	return KindOf(err) == KindUsage
}

// ExitCode maps err to the process exit status
func ExitCode(err error) int {
	switch KindOf(err) {
	case "":
		return ExitOK
	case KindUsage:
		return ExitUsage
	case KindConnectivity:
		return ExitConnectivity
	case KindAuthentication:
		return ExitAuthentication
	case KindRemoteCommand:
		return ExitRemoteCommand
	case KindLocalFilesystem:
		return ExitLocalFilesystem
	default:
		return ExitFailure
	}
}

// ClassifyLocal wraps an error returned by a local filesystem operation.
// Errors that are not filesystem related are returned unchanged.
func ClassifyLocal(step string, err error) error {
	if err == nil {
		return nil
	}
	var pe *os.PathError
	switch {
	case errors.Is(err, syscall.EACCES),
		errors.Is(err, syscall.EPERM),
		errors.Is(err, syscall.EROFS),
		errors.Is(err, syscall.ENOSPC),
		errors.Is(err, syscall.ENOENT),
		errors.As(err, &pe):
		return &Error{Kind: KindLocalFilesystem, Step: step, Err: err, Detail: localHint(err)}
	}
	return err
}

func localHint(err error) string {
	switch {
	case errors.Is(err, syscall.EACCES), errors.Is(err, syscall.EPERM), errors.Is(err, syscall.EROFS):
		return err.Error() + " (no write permission)"
	case errors.Is(err, syscall.ENOSPC):
		return err.Error() + " (disk full)"
	case errors.Is(err, syscall.ENOENT):
		return err.Error() + " (path missing)"
	}
	return err.Error()
}
