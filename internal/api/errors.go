package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
	ErrRateLimited  = errors.New("rate limited")
	ErrUnavailable  = errors.New("service unavailable")
)

// Error is a server-signalled failure (4xx/5xx) with its normalized detail.
type Error struct {
	Status    int
	Detail    string
	RequestID string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Detail)
}

// Is maps the status code onto the package sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrConflict:
		return e.Status == http.StatusConflict
	case ErrValidation:
		return e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity
	case ErrRateLimited:
		return e.Status == http.StatusTooManyRequests
	case ErrUnavailable:
		return e.Status >= 500
	}
	return false
}

// TransportError is a request that never produced a response.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ValidationError is a client-side rejection raised before any request is sent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Message normalizes any error produced by this package, or by callers'
// validation, into a single display line.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}

	var aerr *Error
	if errors.As(err, &aerr) {
		if aerr.Detail != "" {
			return aerr.Detail
		}
		return fmt.Sprintf("%d %s", aerr.Status, http.StatusText(aerr.Status))
	}

	var terr *TransportError
	if errors.As(err, &terr) {
		if errors.Is(terr.Err, context.DeadlineExceeded) {
			return "request timed out"
		}
		return fmt.Sprintf("network error: %v", terr.Err)
	}

	return err.Error()
}

// normalizeDetail extracts a human-readable message from an error body. It
// understands {"detail": "..."}, {"detail": {"msg": "..."}},
// {"detail": [{"msg": "..."}, ...]}, {"message": "..."}, bare JSON strings
// and plain text.
func normalizeDetail(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}

	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return trimmed
	}

	switch v := raw.(type) {
	case string:
		return v
	case map[string]any:
		if detail, ok := v["detail"]; ok && detail != nil {
			if msg := detailText(detail); msg != "" {
				return msg
			}
		}
		if msg, ok := v["message"].(string); ok && msg != "" {
			return msg
		}
		if msg, ok := v["error"].(string); ok && msg != "" {
			return msg
		}
	}
	return trimmed
}

func detailText(detail any) string {
	switch d := detail.(type) {
	case string:
		return d
	case []any:
		parts := make([]string, 0, len(d))
		for _, item := range d {
			if m, ok := item.(map[string]any); ok {
				if msg, ok := m["msg"].(string); ok {
					parts = append(parts, msg)
					continue
				}
			}
			encoded, _ := json.Marshal(item)
			parts = append(parts, string(encoded))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		if msg, ok := d["msg"].(string); ok {
			return msg
		}
		encoded, _ := json.Marshal(d)
		return string(encoded)
	}
	return ""
}
