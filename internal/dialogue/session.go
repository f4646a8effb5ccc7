// Package dialogue owns conversation state: the role a session was opened
// with, its transcript and its external generation mode. A turn tries the
// external generator first when it is enabled and falls back to the local
// responder otherwise.
package dialogue

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/quinta-thw/librarymanager-ist4070/internal/catalog"
	"github.com/quinta-thw/librarymanager-ist4070/internal/intent"
	"github.com/quinta-thw/librarymanager-ist4070/internal/proxy"
	"github.com/quinta-thw/librarymanager-ist4070/internal/resolver"
	"github.com/quinta-thw/librarymanager-ist4070/internal/responder"
)

const (
	// BlankReply answers an empty or whitespace-only utterance.
	BlankReply = "I didn't catch that. Could you please try again?"
	// AIMarker prefixes replies produced by the external generator.
	AIMarker = "🤖 "
)

// ExternalGenerator produces a catalog-grounded answer through a remote
// service. Implemented by composer.Generator.
type ExternalGenerator interface {
	Generate(ctx context.Context, utterance string, role catalog.Role, displayName string, books []catalog.Entry) (string, error)
}

// Catalog supplies the per-turn catalog snapshot. Implemented by
// catalog.View.
type Catalog interface {
	Snapshot(ctx context.Context) []catalog.Entry
}

// Source says which strategy produced a reply.
type Source string

const (
	SourceInput Source = "input"
	SourceLocal Source = "local"
	SourceAI    Source = "ai"
)

// Reply is the outcome of one turn.
type Reply struct {
	Text      string `json:"reply"`
	Source    Source `json:"source"`
	AIEnabled bool   `json:"ai_enabled"`
}

// Status is a point-in-time description of a session.
type Status struct {
	ID          string       `json:"id"`
	Role        catalog.Role `json:"role"`
	DisplayName string       `json:"display_name"`
	AIEnabled   bool         `json:"ai_enabled"`
	Mode        string       `json:"mode"`
	Model       string       `json:"model,omitempty"`
	Summary     string       `json:"summary"`
	Turns       int          `json:"turns"`
	CreatedAt   time.Time    `json:"created_at"`
}

// local is the rule-based half of the pipeline, shared by every session.
type local struct {
	classifier *intent.Classifier
	responder  *responder.Responder
}

func (l local) respond(utterance string, role catalog.Role, displayName string, books []catalog.Entry, aiEnabled bool) string {
	in := l.classifier.Classify(utterance)
	return l.responder.Respond(responder.Request{
		Intent:      in,
		Utterance:   utterance,
		Role:        role,
		DisplayName: displayName,
		Catalog:     books,
		Ref:         resolver.Lookup(in, utterance, books),
		AIEnabled:   aiEnabled,
	})
}

// Session is one conversation. Role and display name are fixed at
// creation. Turns on the same session are processed one at a time.
type Session struct {
	id          string
	role        catalog.Role
	displayName string
	createdAt   time.Time

	catalog Catalog
	local   local
	archive Archive

	turnMu sync.Mutex

	mu         sync.Mutex
	ai         aiState
	transcript *transcript
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Role returns the role the session was opened with.
func (s *Session) Role() catalog.Role { return s.role }

// DisplayName returns the name the session was opened with.
func (s *Session) DisplayName() string { return s.displayName }

// Handle answers utterance and returns only the reply text.
func (s *Session) Handle(ctx context.Context, utterance string) string {
	return s.Respond(ctx, utterance).Text
}

// Respond answers utterance. It never fails: external errors downgrade the
// session to local mode and the current turn is answered locally.
func (s *Session) Respond(ctx context.Context, utterance string) Reply {
	text := strings.TrimSpace(utterance)
	if text == "" {
		return Reply{Text: BlankReply, Source: SourceInput, AIEnabled: s.AIEnabled()}
	}

	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	s.record(ctx, SpeakerUser, text)
	books := s.catalog.Snapshot(ctx)

	s.mu.Lock()
	gen, epoch, ok := s.ai.active()
	s.mu.Unlock()

	if ok {
		answer, err := gen.Generate(ctx, text, s.role, s.displayName, books)
		if err == nil && strings.TrimSpace(answer) == "" {
			err = &proxy.ServiceError{Kind: proxy.KindMalformed, Message: "empty completion"}
		}
		if err == nil {
			s.record(ctx, SpeakerAI, answer)
			return Reply{Text: AIMarker + answer, Source: SourceAI, AIEnabled: true}
		}
		s.downgrade(ctx, epoch, err)
	}

	enabled := s.AIEnabled()
	reply := s.local.respond(text, s.role, s.displayName, books, enabled)
	s.record(ctx, SpeakerBot, reply)
	return Reply{Text: reply, Source: SourceLocal, AIEnabled: enabled}
}

// downgrade disables external generation after a failed turn. A turn
// cancelled by its caller says nothing about the service and is left alone.
func (s *Session) downgrade(ctx context.Context, epoch uint64, err error) {
	if ctx.Err() != nil && !errors.Is(err, context.DeadlineExceeded) {
		slog.Debug("external generation cancelled", "session", s.id, "error", err)
		return
	}

	s.mu.Lock()
	changed := s.ai.fail(epoch)
	s.mu.Unlock()
	if !changed {
		return
	}

	if se, ok := proxy.AsServiceError(err); ok && !se.Recoverable() {
		slog.Error("external generator rejected credential, switching session to local mode",
			"session", s.id, "code", se.Code, "kind", se.Kind, "error", err)
		return
	}
	slog.Warn("external generator failed, switching session to local mode", "session", s.id, "error", err)
}

func (s *Session) record(ctx context.Context, speaker Speaker, text string) {
	turn := Turn{Speaker: speaker, Text: text, At: time.Now().UTC()}
	s.mu.Lock()
	s.transcript.add(turn)
	s.mu.Unlock()

	if err := s.archive.AppendTurn(ctx, s.id, turn); err != nil {
		slog.Warn("transcript archive failed", "session", s.id, "error", err)
	}
}

// Configure enables external generation with gen. model is informational.
func (s *Session) Configure(gen ExternalGenerator, model string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == nil {
		s.ai.clear()
		return
	}
	s.ai.configure(gen, model)
}

// ClearExternal disables external generation and forgets the generator.
func (s *Session) ClearExternal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ai.clear()
}

// AIEnabled reports whether the next turn will try the external generator.
func (s *Session) AIEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ai.enabled()
}

// aiSummary describes the generation mode in one line. Callers hold s.mu.
func (s *Session) aiSummary() string {
	if s.ai.enabled() {
		if s.ai.model != "" {
			return "🤖 AI-Powered Mode: answers generated by " + s.ai.model + " from the library catalog"
		}
		return "🤖 AI-Powered Mode: answers generated from the library catalog"
	}
	return "🔧 Local Mode: rule-based answers (configure an API key to enable AI)"
}

// Transcript returns a copy of the retained turns, oldest first.
func (s *Session) Transcript() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.turns()
}

// ClearTranscript drops the in-memory transcript. Archived turns are kept.
func (s *Session) ClearTranscript() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript.reset()
}

// Status describes the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		ID:          s.id,
		Role:        s.role,
		DisplayName: s.displayName,
		AIEnabled:   s.ai.enabled(),
		Mode:        s.ai.mode.String(),
		Summary:     s.aiSummary(),
		Turns:       s.transcript.len(),
		CreatedAt:   s.createdAt,
	}
	if s.ai.gen != nil {
		st.Model = s.ai.model
	}
	return st
}
