package chi

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the reply of POST /chat.
type ChatResponse struct {
	Response string `json:"response"`
}

// HealthResponse reports aggregated component health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ErrorCode is a machine-readable error class returned to clients.
type ErrorCode string

const (
	ErrorCodeBadRequest          ErrorCode = "bad_request"
	ErrorCodeValidationFailed    ErrorCode = "validation_failed"
	ErrorCodeDimensionMismatch   ErrorCode = "dimension_mismatch"
	ErrorCodeRateLimited         ErrorCode = "rate_limited"
	ErrorCodeProviderError       ErrorCode = "provider_error"
	ErrorCodeProviderTimeout     ErrorCode = "provider_timeout"
	ErrorCodeUpstreamUnavailable ErrorCode = "upstream_unavailable"
	ErrorCodeInternalError       ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error envelope for all non-2xx responses.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}
