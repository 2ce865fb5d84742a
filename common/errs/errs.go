package errs

import (
	"github.com/pkg/errors"
)

// Caller-visible result codes of a session operation. Ok is the zero value
// so a freshly zeroed Error behaves as success.
const (
	CodeOk                  int32 = 0
	CodeInvalidParameter    int32 = 1001
	CodeNotSupported        int32 = 1002
	CodeMemory              int32 = 1003
	CodeIncompatibleVersion int32 = 1004
	CodeDecodingError       int32 = 1005
	CodeUnknown             int32 = 9999
)

var (
	ErrInvalidParameter    = New(CodeInvalidParameter, "invalid parameter")
	ErrNotSupported        = New(CodeNotSupported, "operation not supported")
	ErrMemory              = New(CodeMemory, "allocation failure")
	ErrIncompatibleVersion = New(CodeIncompatibleVersion, "incompatible version")
	ErrDecodingError       = New(CodeDecodingError, "decoding error")
)

const (
	Success = "success"
)

// Error is the session-wide error type. Parsing failures on a single NAL
// unit never surface as an Error — only allocation failures and version
// incompatibilities that block progress do.
type Error struct {
	Code int32
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func New(code int32, msg string) error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

func Code(e error) int32 {
	if e == nil {
		return CodeOk
	}
	err, ok := e.(*Error)
	if !ok {
		return CodeUnknown
	}

	if err == (*Error)(nil) {
		return CodeOk
	}
	return err.Code
}

func Msg(e error) string {
	if e == nil {
		return Success
	}
	err, ok := e.(*Error)
	if !ok {
		return "unknown error: " + e.Error()
	}

	if err == (*Error)(nil) {
		return Success
	}

	return err.Msg
}

func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}
