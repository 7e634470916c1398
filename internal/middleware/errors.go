package middleware

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Kinds produced by the transport itself, next to the pipeline kinds.
const (
	KindUnauthorized = "unauthorized"
	KindRateLimited  = "rate_limited"
	KindTooLarge     = "payload_too_large"
	KindInternal     = "internal_error"
)

// WriteError tulis error JSON dengan status code
func WriteError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorBody{Error: ErrorDetail{Kind: kind, Message: message}})
}
