package eventbus

import (
	"net/http"

	"github.com/philly/school-finance/backend/internal/platform/apperror"
)

// Failure is the reply payload a responder publishes instead of a domain value
// when it cannot satisfy a request. Code carries an HTTP status.
type Failure struct {
	Code         int
	Message      string
	BusinessCode apperror.BusinessCode
}

// NewFailure builds a failure with the general business code.
func NewFailure(code int, message string) Failure {
	return Failure{Code: code, Message: message, BusinessCode: apperror.BusinessCodeGeneral}
}

// FailureFrom converts a responder error into a reply payload. AppErrors keep
// their status, message and business code; anything else becomes a 500.
func FailureFrom(err error) Failure {
	if appErr, ok := apperror.As(err); ok {
		return Failure{
			Code:         appErr.HTTPStatus,
			Message:      appErr.Message,
			BusinessCode: appErr.BusinessCode,
		}
	}
	return Failure{
		Code:         http.StatusInternalServerError,
		Message:      "internal error",
		BusinessCode: apperror.BusinessCodeGeneral,
	}
}

// Err turns the failure back into a local application error.
func (f Failure) Err() *apperror.AppError {
	bizCode := f.BusinessCode
	if bizCode == "" {
		bizCode = apperror.BusinessCodeGeneral
	}
	status := f.Code
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return apperror.New(apperror.CodeForStatus(status), bizCode, f.Message, status)
}
