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
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeFeatureDisabled    ErrorCode = "COMMON_015"
	ErrCodeStorageError       ErrorCode = "COMMON_017"
	ErrCodeMessagingError     ErrorCode = "COMMON_018"
)

// Aliases
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("UNKNOWN")
)

// Molecule input error codes
const (
	ErrCodeMoleculeInvalidSMILES ErrorCode = "MOL_001"
	ErrCodeMoleculeInvalidFormat ErrorCode = "MOL_003"
	ErrCodeMoleculeParsingFailed ErrorCode = "MOL_006"
	ErrCodeMoleculeNoInput       ErrorCode = "MOL_016"
	ErrCodeSDFReadFailed         ErrorCode = "MOL_017"
	ErrCodeSDFParseFailed        ErrorCode = "MOL_018"
	ErrCodeInvalidFileType       ErrorCode = "MOL_019"
	ErrCodeEditorPayloadInvalid  ErrorCode = "MOL_020"
	ErrCodePropertiesFailed      ErrorCode = "MOL_021"
)

// Prediction / AI collaborator error codes
const (
	ErrCodeAIModelNotAvailable  ErrorCode = "AI_001"
	ErrCodeAIInferenceFailed    ErrorCode = "AI_002"
	ErrCodeAIInputInvalid       ErrorCode = "AI_004"
	ErrCodeAIFeatures3DFailed   ErrorCode = "AI_006"
	ErrCodeAITimeout            ErrorCode = "AI_007"
	ErrCodeTargetUnsupported    ErrorCode = "AI_008"
	ErrCodeNoPrediction         ErrorCode = "AI_009"
	ErrCodeFeaturesNotAvailable ErrorCode = "AI_010"
)

// Session error codes
const (
	ErrCodeSessionNotFound ErrorCode = "SES_001"
	ErrCodeSessionCodec    ErrorCode = "SES_002"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeFeatureDisabled:    http.StatusForbidden,
	ErrCodeStorageError:       http.StatusInternalServerError,
	ErrCodeMessagingError:     http.StatusInternalServerError,

	ErrCodeMoleculeInvalidSMILES: http.StatusUnprocessableEntity,
	ErrCodeMoleculeInvalidFormat: http.StatusBadRequest,
	ErrCodeMoleculeParsingFailed: http.StatusUnprocessableEntity,
	ErrCodeMoleculeNoInput:       http.StatusUnprocessableEntity,
	ErrCodeSDFReadFailed:         http.StatusBadRequest,
	ErrCodeSDFParseFailed:        http.StatusUnprocessableEntity,
	ErrCodeInvalidFileType:       http.StatusBadRequest,
	ErrCodeEditorPayloadInvalid:  http.StatusBadRequest,
	ErrCodePropertiesFailed:      http.StatusUnprocessableEntity,

	ErrCodeAIModelNotAvailable:  http.StatusServiceUnavailable,
	ErrCodeAIInferenceFailed:    http.StatusBadGateway,
	ErrCodeAIInputInvalid:       http.StatusBadRequest,
	ErrCodeAIFeatures3DFailed:   http.StatusBadGateway,
	ErrCodeAITimeout:            http.StatusGatewayTimeout,
	ErrCodeTargetUnsupported:    http.StatusBadRequest,
	ErrCodeNoPrediction:         http.StatusConflict,
	ErrCodeFeaturesNotAvailable: http.StatusNotFound,

	ErrCodeSessionNotFound: http.StatusNotFound,
	ErrCodeSessionCodec:    http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeFeatureDisabled:    "feature disabled",
	ErrCodeStorageError:       "object storage error",
	ErrCodeMessagingError:     "message publication failed",

	ErrCodeMoleculeInvalidSMILES: "invalid SMILES",
	ErrCodeMoleculeInvalidFormat: "unsupported molecule format",
	ErrCodeMoleculeParsingFailed: "failed to parse molecule",
	ErrCodeMoleculeNoInput:       "Please enter a valid molecule",
	ErrCodeSDFReadFailed:         "Error reading SDF file",
	ErrCodeSDFParseFailed:        "Error processing SDF file",
	ErrCodeInvalidFileType:       "unsupported structure file type",
	ErrCodeEditorPayloadInvalid:  "Error processing molecule from editor",
	ErrCodePropertiesFailed:      "Could not calculate properties",

	ErrCodeAIModelNotAvailable:  "prediction service not available",
	ErrCodeAIInferenceFailed:    "Error performing prediction",
	ErrCodeAIInputInvalid:       "invalid input for prediction",
	ErrCodeAIFeatures3DFailed:   "Error calculating 3D features",
	ErrCodeAITimeout:            "prediction service timed out",
	ErrCodeTargetUnsupported:    "unsupported target property",
	ErrCodeNoPrediction:         "no prediction in session",
	ErrCodeFeaturesNotAvailable: "No features available for display",

	ErrCodeSessionNotFound: "session not found",
	ErrCodeSessionCodec:    "session state could not be decoded",
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
