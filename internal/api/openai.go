package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quinta-thw/librarymanager-ist4070/internal/catalog"
	"github.com/quinta-thw/librarymanager-ist4070/internal/proxy"
)

// RoleHeader selects the role of a chat completion request. Patron when absent.
const RoleHeader = "X-LibraryBot-Role"

// ModelID is the model name the chat completion endpoint answers as.
const ModelID = "librarybot"

type completionRequest struct {
	Model    string          `json:"model"`
	Messages []proxy.Message `json:"messages"`
	Stream   bool            `json:"stream,omitempty"`
	User     string          `json:"user,omitempty"`
}

type completionChoice struct {
	Index        int           `json:"index"`
	Message      proxy.Message `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type completionResponse struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []completionChoice `json:"choices"`
}

func handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, proxy.ModelList{
		Object: "list",
		Data:   []proxy.Model{{ID: ModelID, Object: "model", OwnedBy: "library"}},
	})
}

// handleChatCompletions answers the last user message in a throwaway
// session, so OpenAI-compatible clients can talk to the bot directly.
func handleChatCompletions(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req completionRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Stream {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "streaming is not supported")
			return
		}
		utterance, ok := lastUserMessage(req.Messages)
		if !ok {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "messages must contain a user message")
			return
		}
		role, err := catalog.ParseRole(r.Header.Get(RoleHeader))
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}

		s := deps.Sessions.Create(r.Context(), role, req.User)
		defer deps.Sessions.Close(r.Context(), s.ID())

		reply := s.Respond(r.Context(), utterance)
		writeJSON(w, http.StatusOK, completionResponse{
			ID:      "chatcmpl-" + uuid.NewString(),
			Object:  "chat.completion",
			Created: time.Now().Unix(),
			Model:   ModelID,
			Choices: []completionChoice{{
				Message:      proxy.Message{Role: "assistant", Content: reply.Text},
				FinishReason: "stop",
			}},
		})
	}
}

func lastUserMessage(msgs []proxy.Message) (string, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == "user" && strings.TrimSpace(msgs[i].Content) != "" {
			return msgs[i].Content, true
		}
	}
	return "", false
}
