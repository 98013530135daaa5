// internal/middleware/validation.go
package middleware

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
)

// ValidationConfig holds request validation limits
type ValidationConfig struct {
	MaxJSONBytes   int64
	MaxUploadBytes int64
}

// DefaultValidationConfig returns default validation configuration
func DefaultValidationConfig() *ValidationConfig {
	return &ValidationConfig{
		MaxJSONBytes:   1 << 20,
		MaxUploadBytes: 10 << 20,
	}
}

// RequestValidator rejects write requests whose body is not JSON or
// multipart form data, and caps body sizes.
type RequestValidator struct {
	config *ValidationConfig
}

// NewRequestValidator creates a new request validator
func NewRequestValidator(config *ValidationConfig) *RequestValidator {
	if config == nil {
		config = DefaultValidationConfig()
	}
	return &RequestValidator{config: config}
}

// Handler wraps next with body validation.
func (v *RequestValidator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength == 0 {
			next.ServeHTTP(w, r)
			return
		}

		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil {
			writeValidationError(w, http.StatusUnsupportedMediaType, "missing or invalid Content-Type")
			return
		}

		var limit int64
		switch mediaType {
		case "application/json":
			limit = v.config.MaxJSONBytes
		case "multipart/form-data":
			// Multipart framing adds a little on top of the file itself.
			limit = v.config.MaxUploadBytes + 1<<20
		default:
			writeValidationError(w, http.StatusUnsupportedMediaType, fmt.Sprintf("unsupported Content-Type %s", mediaType))
			return
		}
		if r.ContentLength > limit {
			writeValidationError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, limit)
		next.ServeHTTP(w, r)
	})
}

func writeValidationError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"statusCode": status,
		"isSuccess":  false,
		"message":    message,
	})
}
