package errors

// ErrorCode identifies an error category in API responses and logs.
type ErrorCode string

const (
	ErrorCode_INTERNAL             ErrorCode = "INTERNAL"
	ErrorCode_INVALID_ARGUMENT     ErrorCode = "INVALID_ARGUMENT"
	ErrorCode_VALIDATION_FAILED    ErrorCode = "VALIDATION_FAILED"
	ErrorCode_NOT_FOUND            ErrorCode = "NOT_FOUND"
	ErrorCode_ALREADY_EXISTS       ErrorCode = "ALREADY_EXISTS"
	ErrorCode_INVALID_PAYLOAD      ErrorCode = "INVALID_PAYLOAD"
	ErrorCode_PROCESSING_FAILED    ErrorCode = "PROCESSING_FAILED"
	ErrorCode_HARDWARE_UNAVAILABLE ErrorCode = "HARDWARE_UNAVAILABLE"
	ErrorCode_CAPTURE_BUSY         ErrorCode = "CAPTURE_BUSY"
	ErrorCode_CALIBRATION_REQUIRED ErrorCode = "CALIBRATION_REQUIRED"
	ErrorCode_SESSION_FINALIZED    ErrorCode = "SESSION_FINALIZED"

	ErrorCode_AI_TRANSCRIPTION_FAILED ErrorCode = "AI_TRANSCRIPTION_FAILED"
	ErrorCode_AI_REPLY_FAILED         ErrorCode = "AI_REPLY_FAILED"
	ErrorCode_AI_SERVICE_UNAVAILABLE  ErrorCode = "AI_SERVICE_UNAVAILABLE"

	ErrorCode_INTEGRATION_STORAGE_FAILED      ErrorCode = "INTEGRATION_STORAGE_FAILED"
	ErrorCode_INTEGRATION_CACHE_FAILED        ErrorCode = "INTEGRATION_CACHE_FAILED"
	ErrorCode_INTEGRATION_EXTERNAL_API_FAILED ErrorCode = "INTEGRATION_EXTERNAL_API_FAILED"

	ErrorCode_DB_CONNECTION_FAILED ErrorCode = "DB_CONNECTION_FAILED"
	ErrorCode_DB_QUERY_FAILED      ErrorCode = "DB_QUERY_FAILED"

	ErrorCode_HTTP_OK ErrorCode = "OK"
)

// String returns the code as a plain string.
func (c ErrorCode) String() string {
	return string(c)
}
