// Package errs defines the structured error type shared by the reactor
// fleet and nexus packages, per spec.md §7.
package errs

import (
	"errors"
	"fmt"
	"syscall"
)

// ErrorCode represents a high-level error category, per spec.md §7.
type ErrorCode string

const (
	// CodeReactorConfigure corresponds to ReactorConfigureFailed(errno):
	// pinning a reactor's OS thread to a core failed, or the requested
	// core is not enabled.
	CodeReactorConfigure ErrorCode = "reactor configure failed"

	// CodeSpawnDispatch corresponds to SpawnAtDispatchFailed(errno): the
	// scheduling hook rejected a cross-thread spawn message.
	CodeSpawnDispatch ErrorCode = "spawn dispatch failed"

	// CodeChannelIO is an internal marker for ChannelIoHandleAcquire: it
	// never escapes a package boundary as a returned error. The channel
	// transitions the offending child to Faulted and continues instead.
	CodeChannelIO ErrorCode = "channel io handle acquire failed"

	// CodeChildIO corresponds to ChildIoError: a submission-time failure
	// reported by a caller above the channel, consumed by FaultDevice.
	CodeChildIO ErrorCode = "child io error"
)

// Error is a structured error carrying the operation, error category, and
// (when applicable) the kernel errno that caused it.
type Error struct {
	Op    string // operation that failed, e.g. "LaunchRemote"
	Core  int    // CPU core, -1 if not applicable
	Code  ErrorCode
	Errno syscall.Errno // 0 if not applicable
	Msg   string
	Inner error
}

func (e *Error) Error() string {
	var parts []string
	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}
	if e.Core >= 0 {
		parts = append(parts, fmt.Sprintf("core=%d", e.Core))
	}
	if e.Errno != 0 {
		parts = append(parts, fmt.Sprintf("errno=%d", e.Errno))
	}

	msg := string(e.Code)
	switch {
	case msg == "":
		msg = e.Msg
	case e.Msg != "":
		msg = msg + ": " + e.Msg
	}

	if len(parts) > 0 {
		detail := parts[0]
		for _, p := range parts[1:] {
			detail += " " + p
		}
		return fmt.Sprintf("ioengine: %s (%s)", msg, detail)
	}
	return fmt.Sprintf("ioengine: %s", msg)
}

// Unwrap supports errors.Is/As against the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Inner
}

// Is supports errors.Is comparison by error category.
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == te.Code
}

// NewError creates a structured error not tied to a particular core.
func NewError(op string, code ErrorCode, msg string) *Error {
	return &Error{Op: op, Core: -1, Code: code, Msg: msg}
}

// NewCoreError creates a structured error for a specific CPU core.
func NewCoreError(op string, core int, code ErrorCode, errno syscall.Errno) *Error {
	msg := ""
	if errno != 0 {
		msg = errno.Error()
	}
	return &Error{Op: op, Core: core, Code: code, Errno: errno, Msg: msg}
}

// IsCode reports whether err is an *Error carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
