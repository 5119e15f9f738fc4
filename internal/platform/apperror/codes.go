package apperror

import "net/http"

// ErrorCode is the general system-level category of an error.
type ErrorCode string

const (
	CodeNotFound           ErrorCode = "NOT_FOUND"
	CodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	CodeConflict           ErrorCode = "CONFLICT"
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeTimeout            ErrorCode = "TIMEOUT"
	CodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	CodeInternalError      ErrorCode = "INTERNAL_ERROR"
)

// BusinessCode is the specific business reason behind an error.
type BusinessCode string

const (
	BusinessCodeGeneral          BusinessCode = "GENERAL"
	BusinessCodeInvalidFormat    BusinessCode = "INVALID_FORMAT"
	BusinessCodeInvalidEmail     BusinessCode = "INVALID_EMAIL"
	BusinessCodePermissionDenied BusinessCode = "PERMISSION_DENIED"
	BusinessCodeInvalidLogin     BusinessCode = "INVALID_CREDENTIALS"

	BusinessCodeInvalidStatusTransition BusinessCode = "INVALID_STATUS_TRANSITION"

	// Bus protocol
	BusinessCodeRequestTimeout    BusinessCode = "REQUEST_TIMEOUT"
	BusinessCodeRequestCancelled  BusinessCode = "REQUEST_CANCELLED"
	BusinessCodeMalformedPayload  BusinessCode = "MALFORMED_PAYLOAD"
	BusinessCodeUnexpectedPayload BusinessCode = "UNEXPECTED_PAYLOAD"

	// Staff
	BusinessCodeStaffNotFound      BusinessCode = "STAFF_NOT_FOUND"
	BusinessCodeStaffInactive      BusinessCode = "STAFF_INACTIVE"
	BusinessCodeEmailAlreadyExists BusinessCode = "EMAIL_ALREADY_EXISTS"

	// Payroll
	BusinessCodePayslipNotFound      BusinessCode = "PAYSLIP_NOT_FOUND"
	BusinessCodePayslipAlreadyExists BusinessCode = "PAYSLIP_ALREADY_EXISTS"

	// Funds
	BusinessCodeFundRequestNotFound BusinessCode = "FUND_REQUEST_NOT_FOUND"
	BusinessCodeFundsExceeded       BusinessCode = "FUNDS_EXCEEDED"

	// Enrollment
	BusinessCodeStudentNotFound BusinessCode = "STUDENT_NOT_FOUND"
	BusinessCodeNotEnrolled     BusinessCode = "STUDENT_NOT_ENROLLED"
	BusinessCodeAlreadyEnrolled BusinessCode = "STUDENT_ALREADY_ENROLLED"

	// Billing
	BusinessCodeBillNotFound        BusinessCode = "BILL_NOT_FOUND"
	BusinessCodePaymentNotFound     BusinessCode = "PAYMENT_NOT_FOUND"
	BusinessCodeOverpayment         BusinessCode = "OVERPAYMENT"
	BusinessCodeFeeScheduleNotFound BusinessCode = "FEE_SCHEDULE_NOT_FOUND"

	// Balance sheet
	BusinessCodeSnapshotNotFound BusinessCode = "SNAPSHOT_NOT_FOUND"
	BusinessCodeSnapshotExists   BusinessCode = "SNAPSHOT_EXISTS"
)

// CodeForStatus maps an HTTP status back to its system-level category.
// It is used when only a transport status survives a hop, e.g. a failure payload.
func CodeForStatus(status int) ErrorCode {
	switch status {
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return CodeValidationFailed
	case http.StatusConflict:
		return CodeConflict
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return CodeTimeout
	case http.StatusServiceUnavailable:
		return CodeServiceUnavailable
	default:
		return CodeInternalError
	}
}

// Internal is a shorthand for the generic 500 error services return when
// infrastructure fails and the cause has already been logged.
func Internal(message string) *AppError {
	return New(CodeInternalError, BusinessCodeGeneral, message, http.StatusInternalServerError)
}
