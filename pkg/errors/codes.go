package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeNotImplemented     ErrorCode = "COMMON_016"
)

// Aliases used by the convenience constructors.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeRateLimit    = ErrCodeTooManyRequests
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("UNKNOWN")
)

// Molecule Module Error Codes
const (
	ErrCodeMoleculeInvalidFormat ErrorCode = "MOL_003"
	ErrCodeMoleculeNotFound      ErrorCode = "MOL_004"
	ErrCodeMoleculeAlreadyExists ErrorCode = "MOL_005"
	ErrCodeMoleculeParseFailed   ErrorCode = "MOL_006"
	ErrCodeMoleculeStorageFailed ErrorCode = "MOL_007"
)

// Substructure Module Error Codes
const (
	// ErrCodePatternContract marks a malformed pattern graph: bad primitive
	// combination, stereo descriptor with the wrong neighbour count, or a
	// nested reference that does not resolve.
	ErrCodePatternContract ErrorCode = "SUB_001"
	// ErrCodeTargetInconsistent marks a target graph whose bonds reference
	// missing atoms or are not registered on both endpoints.
	ErrCodeTargetInconsistent ErrorCode = "SUB_002"
	// ErrCodeRingProbeFailed is internal; perception skips the ring size.
	ErrCodeRingProbeFailed   ErrorCode = "SUB_003"
	ErrCodeSearchCancelled   ErrorCode = "SUB_004"
	ErrCodePatternDocument   ErrorCode = "SUB_005"
	ErrCodeSearchLimitExceed ErrorCode = "SUB_006"
)

// Screening Job Error Codes
const (
	ErrCodeJobNotFound      ErrorCode = "JOB_001"
	ErrCodeJobSubmitFailed  ErrorCode = "JOB_002"
	ErrCodeJobPayloadFailed ErrorCode = "JOB_003"
)

// ErrorCodeHTTPStatus maps each code to the HTTP status returned by the API.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeMoleculeInvalidFormat: http.StatusBadRequest,
	ErrCodeMoleculeNotFound:      http.StatusNotFound,
	ErrCodeMoleculeAlreadyExists: http.StatusConflict,
	ErrCodeMoleculeParseFailed:   http.StatusUnprocessableEntity,
	ErrCodeMoleculeStorageFailed: http.StatusInternalServerError,

	ErrCodePatternContract:    http.StatusUnprocessableEntity,
	ErrCodeTargetInconsistent: http.StatusUnprocessableEntity,
	ErrCodeRingProbeFailed:    http.StatusInternalServerError,
	ErrCodeSearchCancelled:    http.StatusRequestTimeout,
	ErrCodePatternDocument:    http.StatusBadRequest,
	ErrCodeSearchLimitExceed:  http.StatusRequestEntityTooLarge,

	ErrCodeJobNotFound:      http.StatusNotFound,
	ErrCodeJobSubmitFailed:  http.StatusServiceUnavailable,
	ErrCodeJobPayloadFailed: http.StatusBadRequest,
}

// ErrorCodeMessage holds the default message for each code.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeMoleculeInvalidFormat: "invalid molecule format",
	ErrCodeMoleculeNotFound:      "molecule not found",
	ErrCodeMoleculeAlreadyExists: "molecule already exists",
	ErrCodeMoleculeParseFailed:   "failed to parse molecule",
	ErrCodeMoleculeStorageFailed: "failed to store molecule",

	ErrCodePatternContract:    "invalid substructure pattern",
	ErrCodeTargetInconsistent: "inconsistent target molecule graph",
	ErrCodeRingProbeFailed:    "ring probe construction failed",
	ErrCodeSearchCancelled:    "substructure search cancelled",
	ErrCodePatternDocument:    "invalid pattern document",
	ErrCodeSearchLimitExceed:  "search limit exceeded",

	ErrCodeJobNotFound:      "screening job not found",
	ErrCodeJobSubmitFailed:  "failed to submit screening job",
	ErrCodeJobPayloadFailed: "invalid screening job payload",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
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

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
