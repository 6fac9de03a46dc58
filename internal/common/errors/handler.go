// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	"net/http"
)

// ErrorResponder turns errors into JSON error responses at the HTTP boundary.
type ErrorResponder struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorResponder(logger Logger) *ErrorResponder {
	return &ErrorResponder{logger: logger}
}

// Respond normalizes err, logs it and writes the matching status with a
// body of the form {"error": "<message>"}. Nothing is retried here.
func (h *ErrorResponder) Respond(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := Normalize(err)
	status := HTTPStatus(stdErr.Code)

	h.logger.Error("request failed", map[string]interface{}{
		"method":    r.Method,
		"path":      r.URL.Path,
		"errorCode": string(stdErr.Code),
		"message":   stdErr.Message,
		"details":   stdErr.Details,
		"status":    status,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": stdErr.Message})
}
