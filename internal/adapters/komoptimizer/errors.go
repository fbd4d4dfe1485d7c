package komoptimizer

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/samirrijal/crownbreaker/internal/core/domain"
)

// StatusError is a non-2xx (or success:false) optimizer response.
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: HTTP error! status: %d: %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: HTTP error! status: %d", e.Op, e.StatusCode)
}

// Unwrap maps the status onto the domain error taxonomy.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case 401, 403:
		return domain.ErrUnauthorized
	case 404:
		return domain.ErrNotFound
	default:
		return domain.ErrUpstream
	}
}

// maxErrorMessage bounds plain-text error bodies copied into StatusError.
const maxErrorMessage = 200

// errorMessage extracts the "message" (or "error") field of a JSON error
// body, falling back to a trimmed plain-text body.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		return payload.Error
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorMessage {
		cut := maxErrorMessage
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut]
	}
	return msg
}
