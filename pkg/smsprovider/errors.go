package smsprovider

const (
	ErrorCodeRateLimited   = "RATE_LIMITED"   // For 429 HTTP status
	ErrorCodeServerError   = "SERVER_ERROR"   // For 5xx HTTP status
	ErrorCodeTimeout       = "TIMEOUT"        // For context timeout
	ErrorCodeNetworkError  = "NETWORK_ERROR"  // For connection failures
	ErrorCodeInvalidNumber = "INVALID_NUMBER" // For 400/validation errors
	ErrorCodeNotConfigured = "NOT_CONFIGURED" // Provider disabled or missing credentials
)

// IsTransient reports whether a send error is expected to succeed on retry.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	switch err.Error() {
	case ErrorCodeRateLimited, ErrorCodeServerError, ErrorCodeTimeout, ErrorCodeNetworkError:
		return true
	default:
		return false
	}
}
