package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func requestWithID(rid string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	return req.WithContext(WithRequestID(req.Context(), rid))
}

func TestValidationFailed_FieldDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	ValidationFailed(rr, requestWithID("rid-1"), map[string]string{"text": "This field is required."})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("unexpected content type %q", ct)
	}

	var resp struct {
		Error struct {
			Code      string `json:"code"`
			RequestID string `json:"request_id"`
			Details   struct {
				Fields map[string]string `json:"fields"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Code != CodeValidationFailed {
		t.Fatalf("expected VALIDATION_FAILED, got %q", resp.Error.Code)
	}
	if resp.Error.RequestID != "rid-1" {
		t.Fatalf("expected request id rid-1, got %q", resp.Error.RequestID)
	}
	if resp.Error.Details.Fields["text"] != "This field is required." {
		t.Fatalf("unexpected field details: %v", resp.Error.Details.Fields)
	}
}

func TestInternal_NilRequest(t *testing.T) {
	rr := httptest.NewRecorder()
	Internal(rr, nil)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Details != nil || resp.Error.RequestID != "" {
		t.Fatalf("expected bare error, got %+v", resp.Error)
	}
}

func TestRateLimited_RetryAfter(t *testing.T) {
	tests := []struct {
		name  string
		after time.Duration
		want  string
	}{
		{"zero rounds up", 0, "1"},
		{"sub second", 300 * time.Millisecond, "1"},
		{"seconds", 3 * time.Second, "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			RateLimited(rr, nil, tt.after)
			if rr.Code != http.StatusTooManyRequests {
				t.Fatalf("expected 429, got %d", rr.Code)
			}
			if got := rr.Header().Get("Retry-After"); got != tt.want {
				t.Fatalf("Retry-After = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnauthorized_Challenge(t *testing.T) {
	rr := httptest.NewRecorder()
	Unauthorized(rr, nil, CodeInvalidToken, "invalid or expired token")
	if rr.Header().Get("WWW-Authenticate") == "" {
		t.Fatal("expected WWW-Authenticate header")
	}
}
