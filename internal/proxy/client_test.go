package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testRequest() ChatRequest {
	return ChatRequest{
		Model:       "gpt-4o-mini",
		Messages:    []Message{{Role: "system", Content: "be brief"}, {Role: "user", Content: "hi"}},
		MaxTokens:   500,
		Temperature: 0.7,
	}
}

func TestComplete_Success(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q, want %q", auth, "Bearer test-key")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","choices":[{"message":{"role":"assistant","content":"  We have Dune.  "}}]}`)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test-key", srv.URL+"/")
	text, err := c.Complete(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if want := "  We have Dune.  "; text != want {
		t.Errorf("text = %q, want %q verbatim", text, want)
	}
	if got["model"] != "gpt-4o-mini" {
		t.Errorf("model = %v, want gpt-4o-mini", got["model"])
	}
	if got["max_tokens"] != float64(500) {
		t.Errorf("max_tokens = %v, want 500", got["max_tokens"])
	}
	if got["temperature"] != 0.7 {
		t.Errorf("temperature = %v, want 0.7", got["temperature"])
	}
	if msgs, _ := got["messages"].([]any); len(msgs) != 2 {
		t.Errorf("messages = %v, want 2 entries", got["messages"])
	}
}

func TestComplete_StatusErrors(t *testing.T) {
	tests := []struct {
		status      int
		kind        ErrorKind
		recoverable bool
	}{
		{http.StatusTooManyRequests, KindRateLimited, true},
		{http.StatusUnauthorized, KindUnauthorized, false},
		{http.StatusForbidden, KindForbidden, false},
		{http.StatusBadGateway, KindUpstream, true},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var attempts atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts.Add(1)
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			_, err := NewClientWithBaseURL("k", srv.URL).Complete(context.Background(), testRequest())
			se, ok := AsServiceError(err)
			if !ok {
				t.Fatalf("error = %v, want *ServiceError", err)
			}
			if se.Code != tt.status {
				t.Errorf("Code = %d, want %d", se.Code, tt.status)
			}
			if se.Kind != tt.kind {
				t.Errorf("Kind = %q, want %q", se.Kind, tt.kind)
			}
			if se.Recoverable() != tt.recoverable {
				t.Errorf("Recoverable() = %v, want %v", se.Recoverable(), tt.recoverable)
			}
			if n := attempts.Load(); n != 1 {
				t.Errorf("attempts = %d, want 1 (no retries)", n)
			}
		})
	}
}

func TestComplete_RateLimitMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClientWithBaseURL("k", srv.URL).Complete(context.Background(), testRequest())
	if err == nil || err.Error() != "rate limited (HTTP 429)" {
		t.Fatalf("error = %v, want %q", err, "rate limited (HTTP 429)")
	}
}

func TestComplete_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("k", srv.URL)
	c.SetTimeout(50 * time.Millisecond)

	start := time.Now()
	_, err := c.Complete(context.Background(), testRequest())
	se, ok := AsServiceError(err)
	if !ok {
		t.Fatalf("error = %v, want *ServiceError", err)
	}
	if se.Kind != KindTimeout {
		t.Errorf("Kind = %q, want %q", se.Kind, KindTimeout)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Complete took %v, want well under 1s", elapsed)
	}
}

func TestComplete_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClientWithBaseURL("k", url).Complete(context.Background(), testRequest())
	se, ok := AsServiceError(err)
	if !ok || se.Kind != KindTransport {
		t.Fatalf("error = %v, want transport ServiceError", err)
	}
	if se.Code != 0 {
		t.Errorf("Code = %d, want 0", se.Code)
	}
}

func TestComplete_EmptyAndMalformed(t *testing.T) {
	bodies := map[string]string{
		"empty content": `{"choices":[{"message":{"role":"assistant","content":"   "}}]}`,
		"no choices":    `{"choices":[]}`,
		"not json":      `<html>`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, body)
			}))
			defer srv.Close()

			_, err := NewClientWithBaseURL("k", srv.URL).Complete(context.Background(), testRequest())
			se, ok := AsServiceError(err)
			if !ok || se.Kind != KindMalformed {
				t.Fatalf("error = %v, want malformed ServiceError", err)
			}
		})
	}
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("path = %q, want /models", r.URL.Path)
		}
		fmt.Fprint(w, `{"object":"list","data":[{"id":"gpt-4o-mini","object":"model"}]}`)
	}))
	defer srv.Close()

	models, err := NewClientWithBaseURL("k", srv.URL).ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 1 || models[0].ID != "gpt-4o-mini" {
		t.Errorf("models = %+v, want one gpt-4o-mini", models)
	}
}

func TestListModels_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewClientWithBaseURL("bad", srv.URL).ListModels(context.Background())
	var se *ServiceError
	if !errors.As(err, &se) || se.Kind != KindUnauthorized {
		t.Fatalf("error = %v, want invalid credential", err)
	}
}
