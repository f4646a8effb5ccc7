package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/quinta-thw/librarymanager-ist4070/internal/dialogue"
)

// RedisArchive keeps transcripts in Redis lists that expire after ttl of
// inactivity. It implements dialogue.Archive.
type RedisArchive struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisArchive connects to addr. A ttl <= 0 defaults to 24h.
func NewRedisArchive(addr, password string, db int, ttl time.Duration) *RedisArchive {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisArchive{client: client, keyPrefix: "librarybot:session:", ttl: ttl}
}

func (a *RedisArchive) metaKey(id string) string { return a.keyPrefix + id }
func (a *RedisArchive) turnsKey(id string) string { return a.keyPrefix + id + ":turns" }

// Ping checks the server is reachable.
func (a *RedisArchive) Ping(ctx context.Context) error {
	return a.client.Ping(ctx).Err()
}

// Close closes the client.
func (a *RedisArchive) Close() error {
	return a.client.Close()
}

func (a *RedisArchive) StartSession(ctx context.Context, info dialogue.SessionInfo) error {
	key := a.metaKey(info.ID)
	pipe := a.client.TxPipeline()
	pipe.HSet(ctx, key,
		"role", info.Role.String(),
		"display_name", info.DisplayName,
		"created_at", info.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	pipe.Expire(ctx, key, a.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("archiving session %s: %w", info.ID, err)
	}
	return nil
}

func (a *RedisArchive) AppendTurn(ctx context.Context, sessionID string, turn dialogue.Turn) error {
	data, err := json.Marshal(turn)
	if err != nil {
		return err
	}
	key := a.turnsKey(sessionID)
	pipe := a.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, a.ttl)
	pipe.Expire(ctx, a.metaKey(sessionID), a.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("archiving turn for session %s: %w", sessionID, err)
	}
	return nil
}

func (a *RedisArchive) EndSession(ctx context.Context, sessionID string) error {
	return a.client.HSet(ctx, a.metaKey(sessionID), "ended_at", time.Now().UTC().Format(time.RFC3339Nano)).Err()
}

// Transcript returns up to limit archived turns, oldest first. limit <= 0
// returns all of them.
func (a *RedisArchive) Transcript(ctx context.Context, sessionID string, limit int) ([]dialogue.Turn, error) {
	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}
	raw, err := a.client.LRange(ctx, a.turnsKey(sessionID), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}
	out := make([]dialogue.Turn, 0, len(raw))
	for _, r := range raw {
		var t dialogue.Turn
		if err := json.Unmarshal([]byte(r), &t); err != nil {
			return nil, fmt.Errorf("decoding turn: %w", err)
		}
		out = append(out, t)
	}
	return out, nil
}
