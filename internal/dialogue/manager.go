package dialogue

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quinta-thw/librarymanager-ist4070/internal/catalog"
	"github.com/quinta-thw/librarymanager-ist4070/internal/intent"
	"github.com/quinta-thw/librarymanager-ist4070/internal/responder"
)

var (
	// ErrSessionNotFound is returned for an unknown session id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrMissingCredential is returned when configuring without a credential.
	ErrMissingCredential = errors.New("external service credential is empty")
)

// GeneratorFactory builds an ExternalGenerator for a credential and model.
// An empty model selects the factory's default.
type GeneratorFactory func(credential, model string) (ExternalGenerator, error)

// Options configures a Manager. Zero values select defaults.
type Options struct {
	Classifier    *intent.Classifier
	Responder     *responder.Responder
	Factory       GeneratorFactory
	Archive       Archive
	MaxTranscript int
}

// GlobalStatus describes the process-wide external service configuration.
type GlobalStatus struct {
	Configured bool   `json:"configured"`
	Model      string `json:"model,omitempty"`
	Sessions   int    `json:"sessions"`
}

// Manager is the session registry. It also holds the global external
// service configuration, which every live and future session inherits.
type Manager struct {
	catalog       Catalog
	local         local
	factory       GeneratorFactory
	archive       Archive
	maxTranscript int

	mu          sync.RWMutex
	sessions    map[string]*Session
	globalGen   ExternalGenerator
	globalModel string
}

// NewManager creates a Manager reading the catalog through cat.
func NewManager(cat Catalog, opts Options) *Manager {
	if opts.Classifier == nil {
		opts.Classifier = intent.New(nil)
	}
	if opts.Responder == nil {
		opts.Responder = responder.New(opts.Classifier, nil)
	}
	if opts.Archive == nil {
		opts.Archive = nopArchive{}
	}
	if opts.MaxTranscript == 0 {
		opts.MaxTranscript = DefaultMaxTranscript
	}
	return &Manager{
		catalog:       cat,
		local:         local{classifier: opts.Classifier, responder: opts.Responder},
		factory:       opts.Factory,
		archive:       opts.Archive,
		maxTranscript: opts.MaxTranscript,
		sessions:      make(map[string]*Session),
	}
}

// Create opens a session. It starts with external generation enabled iff a
// global credential is configured.
func (m *Manager) Create(ctx context.Context, role catalog.Role, displayName string) *Session {
	s := &Session{
		id:          uuid.NewString(),
		role:        role,
		displayName: strings.TrimSpace(displayName),
		createdAt:   time.Now().UTC(),
		catalog:     m.catalog,
		local:       m.local,
		archive:     m.archive,
		transcript:  newTranscript(m.maxTranscript),
	}

	m.mu.Lock()
	if m.globalGen != nil {
		s.ai.configure(m.globalGen, m.globalModel)
	}
	m.sessions[s.id] = s
	m.mu.Unlock()

	info := SessionInfo{ID: s.id, Role: role, DisplayName: s.displayName, CreatedAt: s.createdAt}
	if err := m.archive.StartSession(ctx, info); err != nil {
		slog.Warn("archiving session start failed", "session", s.id, "error", err)
	}
	slog.Debug("session created", "session", s.id, "role", role, "ai_enabled", s.AIEnabled())
	return s
}

// Get returns the session with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close ends and forgets the session with id.
func (m *Manager) Close(ctx context.Context, id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	if err := m.archive.EndSession(ctx, id); err != nil {
		slog.Warn("archiving session end failed", "session", id, "error", err)
	}
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Handle answers utterance on the session with id.
func (m *Manager) Handle(ctx context.Context, id, utterance string) (Reply, error) {
	s, err := m.Get(id)
	if err != nil {
		return Reply{}, err
	}
	return s.Respond(ctx, utterance), nil
}

func (m *Manager) build(credential, model string) (ExternalGenerator, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, ErrMissingCredential
	}
	if m.factory == nil {
		return nil, errors.New("no external generator factory configured")
	}
	return m.factory(credential, strings.TrimSpace(model))
}

// Configure sets the global credential and re-enables external generation
// on every live session. Sessions created later inherit it.
func (m *Manager) Configure(credential, model string) error {
	gen, err := m.build(credential, model)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.globalGen, m.globalModel = gen, model
	sessions := m.snapshotLocked()
	m.mu.Unlock()

	for _, s := range sessions {
		s.Configure(gen, model)
	}
	slog.Info("external service configured", "model", model, "sessions", len(sessions))
	return nil
}

// Clear removes the global credential and returns every live session to
// local mode.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.globalGen, m.globalModel = nil, ""
	sessions := m.snapshotLocked()
	m.mu.Unlock()

	for _, s := range sessions {
		s.ClearExternal()
	}
	slog.Info("external service cleared", "sessions", len(sessions))
}

// ConfigureSession enables external generation on one session only.
func (m *Manager) ConfigureSession(id, credential, model string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	gen, err := m.build(credential, model)
	if err != nil {
		return err
	}
	s.Configure(gen, model)
	return nil
}

// ClearSession returns one session to local mode.
func (m *Manager) ClearSession(id string) error {
	s, err := m.Get(id)
	if err != nil {
		return err
	}
	s.ClearExternal()
	return nil
}

// AIEnabled reports the generation mode of the session with id.
func (m *Manager) AIEnabled(id string) (bool, error) {
	s, err := m.Get(id)
	if err != nil {
		return false, err
	}
	return s.AIEnabled(), nil
}

// GlobalStatus describes the global configuration.
func (m *Manager) GlobalStatus() GlobalStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return GlobalStatus{
		Configured: m.globalGen != nil,
		Model:      m.globalModel,
		Sessions:   len(m.sessions),
	}
}

func (m *Manager) snapshotLocked() []*Session {
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}
