package constants

// Standard Response Field Keys
const (
	ResponseFieldStatusCode = "statusCode"
	ResponseFieldData       = "data"
	ResponseFieldMessage    = "message"
	ResponseFieldSuccess    = "success"
	ResponseFieldErrors     = "errors"
)

// Response Format Functions
//
// Every endpoint answers with the same envelope:
// success: {statusCode, data, message, success: true}
// failure: {statusCode, message, success: false, errors?}

func BuildSuccessResponse(statusCode int, data any, message string) map[string]any {
	return map[string]any{
		ResponseFieldStatusCode: statusCode,
		ResponseFieldData:       data,
		ResponseFieldMessage:    message,
		ResponseFieldSuccess:    true,
	}
}

func BuildErrorResponse(statusCode int, message string, errs any) map[string]any {
	response := map[string]any{
		ResponseFieldStatusCode: statusCode,
		ResponseFieldMessage:    message,
		ResponseFieldSuccess:    false,
	}

	if errs != nil {
		response[ResponseFieldErrors] = errs
	}

	return response
}
