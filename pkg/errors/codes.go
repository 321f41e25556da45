package errors

import "net/http"

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_007"
	ErrCodeValidation         ErrorCode = "COMMON_008"
	ErrCodeSerialization      ErrorCode = "COMMON_009"
	ErrCodeDatabaseError      ErrorCode = "COMMON_010"
	ErrCodeCacheError         ErrorCode = "COMMON_011"
	ErrCodeStorageError       ErrorCode = "COMMON_012"
	ErrCodeUnknown            ErrorCode = "COMMON_099"
	ErrCodeOK                 ErrorCode = "OK"
)

// Item module error codes.
const (
	ErrCodeItemNotFound       ErrorCode = "ITM_001"
	ErrCodeItemAlreadyClaimed ErrorCode = "ITM_002"
	ErrCodeItemInvalidStatus  ErrorCode = "ITM_003"
	ErrCodeDanglingClaims     ErrorCode = "ITM_004"
)

// Claim module error codes.
const (
	ErrCodeClaimNotFound         ErrorCode = "CLM_001"
	ErrCodeClaimAlreadyFinalized ErrorCode = "CLM_002"
	ErrCodeClaimInvalidAction    ErrorCode = "CLM_003"
	ErrCodePartialCascade        ErrorCode = "CLM_004"
)

// Delivery module error codes.
const (
	ErrCodeInvalidRegion   ErrorCode = "DLV_001"
	ErrCodeInvalidDistrict ErrorCode = "DLV_002"
)

// Messaging module error codes.
const (
	ErrCodeDispatchFailed       ErrorCode = "MSG_001"
	ErrCodeTemplateUnknown      ErrorCode = "MSG_002"
	ErrCodeNotificationNotFound ErrorCode = "MSG_003"
)

// errorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var errorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeStorageError:       http.StatusInternalServerError,

	ErrCodeItemNotFound:       http.StatusNotFound,
	ErrCodeItemAlreadyClaimed: http.StatusConflict,
	ErrCodeItemInvalidStatus:  http.StatusConflict,
	ErrCodeDanglingClaims:     http.StatusConflict,

	ErrCodeClaimNotFound:         http.StatusNotFound,
	ErrCodeClaimAlreadyFinalized: http.StatusConflict,
	ErrCodeClaimInvalidAction:    http.StatusBadRequest,
	ErrCodePartialCascade:        http.StatusMultiStatus,

	ErrCodeInvalidRegion:   http.StatusBadRequest,
	ErrCodeInvalidDistrict: http.StatusBadRequest,

	ErrCodeDispatchFailed:       http.StatusInternalServerError,
	ErrCodeTemplateUnknown:      http.StatusInternalServerError,
	ErrCodeNotificationNotFound: http.StatusNotFound,
}

// errorCodeMessage maps ErrorCodes to default messages.
var errorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeStorageError:       "object storage error",

	ErrCodeItemNotFound:       "item not found",
	ErrCodeItemAlreadyClaimed: "item already claimed",
	ErrCodeItemInvalidStatus:  "invalid item status",
	ErrCodeDanglingClaims:     "item still has live claims",

	ErrCodeClaimNotFound:         "claim not found",
	ErrCodeClaimAlreadyFinalized: "claim already finalized",
	ErrCodeClaimInvalidAction:    "action not allowed for claim status",
	ErrCodePartialCascade:        "claim approved but some sibling rejections failed",

	ErrCodeInvalidRegion:   "unrecognized delivery region",
	ErrCodeInvalidDistrict: "district does not belong to region",

	ErrCodeDispatchFailed:       "failed to dispatch message",
	ErrCodeTemplateUnknown:      "unknown message template",
	ErrCodeNotificationNotFound: "notification not found",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := errorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}
