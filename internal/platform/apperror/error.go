package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError carries everything a transport needs to report a failure: a
// system category, a business reason, the HTTP status and optional details.
type AppError struct {
	Code         ErrorCode
	BusinessCode BusinessCode
	Message      string
	HTTPStatus   int
	Details      any // e.g. field validation errors
	Inner        error
}

func New(code ErrorCode, bizCode BusinessCode, message string, httpStatus int) *AppError {
	return &AppError{Code: code, BusinessCode: bizCode, Message: message, HTTPStatus: httpStatus}
}

func Wrap(inner error, code ErrorCode, bizCode BusinessCode, message string, httpStatus int) *AppError {
	return &AppError{Code: code, BusinessCode: bizCode, Message: message, HTTPStatus: httpStatus, Inner: inner}
}

func (e *AppError) Error() string { return e.Message }
func (e *AppError) Unwrap() error { return e.Inner }

// Is matches on Code and BusinessCode, so package-level sentinels work with
// errors.Is even after WithDetails.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.BusinessCode == t.BusinessCode
}

// WithDetails returns a copy of e carrying details; e itself is not modified.
func (e *AppError) WithDetails(details any) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// As finds the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// StatusOf is the HTTP status for err: the AppError's own status, or 500.
func StatusOf(err error) int {
	if appErr, ok := As(err); ok && appErr.HTTPStatus != 0 {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// Format prints the message for %s and %v; %+v adds codes, cause and details.
func (e *AppError) Format(f fmt.State, verb rune) {
	switch verb {
	case 'v':
		if !f.Flag('+') {
			_, _ = fmt.Fprint(f, e.Message)
			return
		}
		_, _ = fmt.Fprintf(f, "Code: %s, BusinessCode: %s, Message: %s, HTTPStatus: %d",
			e.Code, e.BusinessCode, e.Message, e.HTTPStatus)
		if e.Inner != nil {
			_, _ = fmt.Fprintf(f, "\nCaused by: %+v", e.Inner)
		}
		if e.Details != nil {
			_, _ = fmt.Fprintf(f, "\nDetails: %+v", e.Details)
		}
	case 's':
		_, _ = fmt.Fprint(f, e.Message)
	}
}
