package dialogue

import (
	"context"
	"time"

	"github.com/quinta-thw/librarymanager-ist4070/internal/catalog"
)

// SessionInfo identifies an archived conversation.
type SessionInfo struct {
	ID          string       `json:"id"`
	Role        catalog.Role `json:"role"`
	DisplayName string       `json:"display_name"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Archive persists transcripts beyond the in-memory ring. Implemented by
// storage.Store and storage.RedisArchive. Failures are logged by the
// caller and never affect a reply.
type Archive interface {
	StartSession(ctx context.Context, info SessionInfo) error
	AppendTurn(ctx context.Context, sessionID string, turn Turn) error
	EndSession(ctx context.Context, sessionID string) error
}

type nopArchive struct{}

func (nopArchive) StartSession(context.Context, SessionInfo) error { return nil }
func (nopArchive) AppendTurn(context.Context, string, Turn) error { return nil }
func (nopArchive) EndSession(context.Context, string) error { return nil }
