package handler

// SuccessResponse is the envelope for successful API replies.
type SuccessResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is the envelope for failed API replies.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
