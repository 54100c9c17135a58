package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// ErrorCode classifies failures for API responses and bulk failure entries.
// validation: INVALID_QUANTITY, INVALID_DATE, INVALID_REQUEST
// conflict:   ALREADY_EXISTS, INSUFFICIENT_STOCK, ILLEGAL_TRANSITION
// not-found:  NOT_FOUND
type ErrorCode string

const (
	ErrCodeAlreadyExists     ErrorCode = "ALREADY_EXISTS"
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeInvalidQuantity   ErrorCode = "INVALID_QUANTITY"
	ErrCodeInvalidDate       ErrorCode = "INVALID_DATE"
	ErrCodeInvalidRequest    ErrorCode = "INVALID_REQUEST"
	ErrCodeInsufficientStock ErrorCode = "INSUFFICIENT_STOCK"
	ErrCodeIllegalTransition ErrorCode = "ILLEGAL_TRANSITION"
	ErrCodeInternal          ErrorCode = "INTERNAL"
)

type CodedError struct {
	Code    ErrorCode
	Message string
}

func (e *CodedError) Error() string {
	return e.Message
}

func NewCodedError(code ErrorCode, message string) error {
	return &CodedError{Code: code, Message: message}
}

// CodeOf extracts the ErrorCode from err, mapping the bare not-found sentinel
// as well. Unknown errors report INTERNAL.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code
	}
	if errors.Is(err, ErrorRecordNotFound) {
		return ErrCodeNotFound
	}
	return ErrCodeInternal
}
