package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/msomdec/blogapp/internal/domain"
)

// ErrIllegalTransition is returned when an attempt is moved to a state the
// refresh machine does not allow from its current state.
var ErrIllegalTransition = errors.New("illegal attempt transition")

// Error is a non-2xx response from the remote API.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// Unwrap maps well-known statuses onto the domain sentinels.
func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrUnauthorized
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return domain.ErrInvalidInput
	}
	return nil
}

// StatusCode returns the upstream status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// MessageOf returns the upstream message carried by err, or "".
func MessageOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// IsTokenExpired reports whether err is a 401 carrying the default expiry
// marker.
func IsTokenExpired(err error) bool {
	return hasExpiryMarker(err, DefaultExpiredMessage)
}

func hasExpiryMarker(err error, marker string) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusUnauthorized && apiErr.Message == marker
}

// parseError builds an Error from a failed response body. The API reports
// messages as {"message": "..."}, {"message": ["...", ...]} or {"error": "..."}.
func parseError(status int, body []byte) *Error {
	e := &Error{Status: status}
	var payload struct {
		Message json.RawMessage `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		e.Message = strings.TrimSpace(string(body))
		e.Message = truncate(e.Message, maxRawMessage)
		return e
	}
	if len(payload.Message) > 0 {
		var s string
		if err := json.Unmarshal(payload.Message, &s); err == nil {
			e.Message = s
			return e
		}
		var list []string
		if err := json.Unmarshal(payload.Message, &list); err == nil {
			e.Message = strings.Join(list, "; ")
			return e
		}
	}
	e.Message = payload.Error
	return e
}

// maxRawMessage caps the bytes kept from a non-JSON error body.
const maxRawMessage = 200

// truncate cuts s to at most n bytes without splitting a character.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
