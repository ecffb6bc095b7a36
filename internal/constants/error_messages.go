package constants

const (
	ErrCodeInsufficientFunds  = "INSUFFICIENT_FUNDS"
	ErrCodeJobNotFound        = "JOB_NOT_FOUND"
	ErrCodeEmptyBatch         = "EMPTY_BATCH"
	ErrCodeInvalidAmount      = "INVALID_AMOUNT"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeInvalidRequestBody = "INVALID_REQUEST_BODY"
)

const (
	ErrMsgInsufficientFunds  = "insufficient wallet balance"
	ErrMsgJobNotFound        = "job not found"
	ErrMsgEmptyBatch         = "no sendable recipients in batch"
	ErrMsgInvalidAmount      = "amount required"
	ErrMsgUnauthorized       = "unauthorized"
	ErrMsgInternalError      = "Internal server error"
	ErrMsgInvalidRequestBody = "failed to parse request body"
)

var errorMessages = map[string]string{
	ErrCodeInsufficientFunds:  ErrMsgInsufficientFunds,
	ErrCodeJobNotFound:        ErrMsgJobNotFound,
	ErrCodeEmptyBatch:         ErrMsgEmptyBatch,
	ErrCodeInvalidAmount:      ErrMsgInvalidAmount,
	ErrCodeUnauthorized:       ErrMsgUnauthorized,
	ErrCodeInternalError:      ErrMsgInternalError,
	ErrCodeInvalidRequestBody: ErrMsgInvalidRequestBody,
}

func GetErrorMessage(code string) string {
	if msg, exists := errorMessages[code]; exists {
		return msg
	}
	return ErrMsgInternalError
}

func GetHTTPStatus(code string) int {
	switch code {
	case ErrCodeInvalidRequestBody, ErrCodeEmptyBatch, ErrCodeInvalidAmount:
		return 400
	case ErrCodeUnauthorized:
		return 401
	case ErrCodeInsufficientFunds:
		return 402
	case ErrCodeJobNotFound:
		return 404
	case ErrCodeInternalError:
		return 500
	default:
		return 500
	}
}
