package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/quinta-thw/librarymanager-ist4070/internal/dialogue"
	"github.com/quinta-thw/librarymanager-ist4070/internal/proxy"
)

func TestModels(t *testing.T) {
	env := newTestEnv(t, "")
	rr := env.do(t, http.MethodGet, "/v1/models", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	var list proxy.ModelList
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(list.Data) != 1 || list.Data[0].ID != ModelID {
		t.Errorf("models = %+v", list.Data)
	}
}

func TestChatCompletions_AnswersLastUserMessage(t *testing.T) {
	env := newTestEnv(t, "")
	if err := env.deps.Sessions.Configure("sk-test", ""); err != nil {
		t.Fatalf("Configure: %v", err)
	}

	body := `{"model":"librarybot","messages":[{"role":"system","content":"be nice"},{"role":"user","content":"first"},{"role":"assistant","content":"ok"},{"role":"user","content":"Is Dune available?"}]}`
	rr := env.do(t, http.MethodPost, "/v1/chat/completions", body, RoleHeader, "staff")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	var resp completionResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if resp.Object != "chat.completion" || resp.Model != ModelID {
		t.Errorf("object = %q, model = %q", resp.Object, resp.Model)
	}
	if len(resp.Choices) != 1 {
		t.Fatalf("choices = %d, want 1", len(resp.Choices))
	}
	if got := resp.Choices[0].Message.Content; got != dialogue.AIMarker+"Dune is on the shelf." {
		t.Errorf("content = %q", got)
	}
	if resp.Choices[0].Message.Role != "assistant" {
		t.Errorf("role = %q, want assistant", resp.Choices[0].Message.Role)
	}
	if env.gen.calls != 1 {
		t.Errorf("generator calls = %d, want 1", env.gen.calls)
	}
}

func TestChatCompletions_ClosesEphemeralSession(t *testing.T) {
	env := newTestEnv(t, "")
	body := `{"messages":[{"role":"user","content":"hello"}]}`
	rr := env.do(t, http.MethodPost, "/v1/chat/completions", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if n := env.deps.Sessions.Len(); n != 0 {
		t.Errorf("live sessions = %d, want 0", n)
	}
}

func TestChatCompletions_Validation(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		header []string
	}{
		{"invalid json", `{not json}`, nil},
		{"no messages", `{"model":"librarybot"}`, nil},
		{"empty messages", `{"messages":[]}`, nil},
		{"no user message", `{"messages":[{"role":"system","content":"hi"}]}`, nil},
		{"blank user message", `{"messages":[{"role":"user","content":"  "}]}`, nil},
		{"streaming", `{"stream":true,"messages":[{"role":"user","content":"hi"}]}`, nil},
		{"unknown role", `{"messages":[{"role":"user","content":"hi"}]}`, []string{RoleHeader, "wizard"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, "")
			rr := env.do(t, http.MethodPost, "/v1/chat/completions", tt.body, tt.header...)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestLastUserMessage(t *testing.T) {
	msgs := []proxy.Message{
		{Role: "user", Content: "one"},
		{Role: "assistant", Content: "two"},
		{Role: "user", Content: "three"},
		{Role: "user", Content: " "},
	}
	got, ok := lastUserMessage(msgs)
	if !ok || got != "three" {
		t.Errorf("lastUserMessage = %q, %v; want three, true", got, ok)
	}
	if _, ok := lastUserMessage(nil); ok {
		t.Error("expected no message for nil input")
	}
}
