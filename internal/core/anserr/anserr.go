// Package anserr defines the numeric error codes reported by the notification service.
package anserr

import (
	"errors"
	"fmt"
)

// Code is a numeric service error code. Zero means success.
type Code int32

const moduleBase Code = 0x4000000

// Error codes. InvalidParam and NonSystemApp are part of the public contract
// and must keep their values.
const (
	CodeOK                        Code = 0
	CodeServiceNotReady           Code = moduleBase + 1
	CodeInvalidParam              Code = moduleBase + 3
	CodeInvalidBundle             Code = moduleBase + 7
	CodeNotAllowed                Code = moduleBase + 8
	CodeNonSystemApp              Code = moduleBase + 13
	CodeNotificationNotExists     Code = moduleBase + 16
	CodeNotificationIsUnremovable Code = moduleBase + 17
	CodeOverMaxActiveCount        Code = moduleBase + 18
	CodeSlotNotExist              Code = moduleBase + 19
	CodeStorage                   Code = moduleBase + 20
)

var codeNames = map[Code]string{
	CodeOK:                        "OK",
	CodeServiceNotReady:           "ERR_ANS_SERVICE_NOT_READY",
	CodeInvalidParam:              "ERR_ANS_INVALID_PARAM",
	CodeInvalidBundle:             "ERR_ANS_INVALID_BUNDLE",
	CodeNotAllowed:                "ERR_ANS_NOT_ALLOWED",
	CodeNonSystemApp:              "ERR_ANS_NON_SYSTEM_APP",
	CodeNotificationNotExists:     "ERR_ANS_NOTIFICATION_NOT_EXISTS",
	CodeNotificationIsUnremovable: "ERR_ANS_NOTIFICATION_IS_UNREMOVABLE",
	CodeOverMaxActiveCount:        "ERR_ANS_OVER_MAX_ACTIVE_COUNT",
	CodeSlotNotExist:              "ERR_ANS_SLOT_NOT_EXIST",
	CodeStorage:                   "ERR_ANS_STORAGE",
}

// String returns the symbolic name of the code.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ERR_ANS_UNKNOWN(%d)", int32(c))
}

// Error is a service error carrying a numeric code. Two errors match under
// errors.Is when their codes are equal, so callers can compare against the
// sentinel values below regardless of the message.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s (%d): %s: %v", e.Code, int32(e.Code), e.Message, e.cause)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, int32(e.Code), e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinel errors for errors.Is comparisons.
var (
	ErrServiceNotReady           = &Error{Code: CodeServiceNotReady, Message: "service not ready"}
	ErrInvalidParam              = &Error{Code: CodeInvalidParam, Message: "invalid parameter"}
	ErrInvalidBundle             = &Error{Code: CodeInvalidBundle, Message: "invalid bundle"}
	ErrNotAllowed                = &Error{Code: CodeNotAllowed, Message: "not allowed"}
	ErrNonSystemApp              = &Error{Code: CodeNonSystemApp, Message: "caller is not a system application"}
	ErrNotificationNotExists     = &Error{Code: CodeNotificationNotExists, Message: "notification does not exist"}
	ErrNotificationIsUnremovable = &Error{Code: CodeNotificationIsUnremovable, Message: "notification is unremovable"}
	ErrOverMaxActiveCount        = &Error{Code: CodeOverMaxActiveCount, Message: "too many active notifications"}
	ErrSlotNotExist              = &Error{Code: CodeSlotNotExist, Message: "slot does not exist"}
	ErrStorage                   = &Error{Code: CodeStorage, Message: "storage failure"}
)

// New returns an error with the given code and formatted message.
func New(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// InvalidParam returns an ERR_ANS_INVALID_PARAM error with a formatted message.
func InvalidParam(format string, args ...any) error {
	return New(CodeInvalidParam, format, args...)
}

// Storage wraps an infrastructure failure. Errors that already carry a code
// are returned unchanged.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Code: CodeStorage, Message: op, cause: err}
}

// CodeOf extracts the code from err. Nil maps to CodeOK and errors without a
// code map to CodeStorage.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeStorage
}
