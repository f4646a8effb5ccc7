package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/quinta-thw/librarymanager-ist4070/internal/dialogue"
)

// StartSession records a new conversation. It makes Store a
// dialogue.Archive.
func (s *Store) StartSession(ctx context.Context, info dialogue.SessionInfo) error {
	created := info.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, role, display_name, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		info.ID, info.Role.String(), info.DisplayName, formatTime(created),
	)
	if err != nil {
		return fmt.Errorf("archiving session %s: %w", info.ID, err)
	}
	return nil
}

// AppendTurn archives one transcript line.
func (s *Store) AppendTurn(ctx context.Context, sessionID string, turn dialogue.Turn) error {
	at := turn.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transcript_turns (session_id, speaker, text, created_at) VALUES (?, ?, ?, ?)`,
		sessionID, string(turn.Speaker), turn.Text, formatTime(at),
	)
	if err != nil {
		return fmt.Errorf("archiving turn for session %s: %w", sessionID, err)
	}
	return nil
}

// EndSession marks the conversation as finished.
func (s *Store) EndSession(ctx context.Context, sessionID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET ended_at = ? WHERE id = ?`, formatTime(time.Now()), sessionID)
	if err != nil {
		return err
	}
	return rowsAffected(res)
}

// GetSession returns the archived header of a conversation.
func (s *Store) GetSession(ctx context.Context, id string) (SessionRecord, error) {
	var r SessionRecord
	var created string
	var ended sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT id, role, display_name, created_at, ended_at FROM sessions WHERE id = ?`, id).
		Scan(&r.ID, &r.Role, &r.DisplayName, &created, &ended)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionRecord{}, ErrNotFound
	}
	if err != nil {
		return SessionRecord{}, err
	}
	if r.CreatedAt, err = parseTime(created); err != nil {
		return SessionRecord{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if ended.Valid {
		if r.EndedAt, err = parseTime(ended.String); err != nil {
			return SessionRecord{}, fmt.Errorf("parsing ended_at: %w", err)
		}
	}
	return r, nil
}

// Transcript returns up to limit archived turns of a session, oldest
// first. limit <= 0 returns all of them.
func (s *Store) Transcript(ctx context.Context, sessionID string, limit int) ([]dialogue.Turn, error) {
	query := `SELECT speaker, text, created_at FROM (
		SELECT id, speaker, text, created_at FROM transcript_turns
		WHERE session_id = ? ORDER BY id DESC LIMIT ?
	) ORDER BY id ASC`
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}
	defer rows.Close()

	var out []dialogue.Turn
	for rows.Next() {
		var t dialogue.Turn
		var speaker, at string
		if err := rows.Scan(&speaker, &t.Text, &at); err != nil {
			return nil, err
		}
		t.Speaker = dialogue.Speaker(speaker)
		if t.At, err = parseTime(at); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
