package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quinta-thw/librarymanager-ist4070/internal/catalog"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS library_books (
    id         BIGSERIAL PRIMARY KEY,
    book_key   TEXT NOT NULL UNIQUE,
    title      TEXT NOT NULL,
    author     TEXT NOT NULL,
    year       INTEGER NOT NULL DEFAULT 0,
    genre      TEXT NOT NULL DEFAULT '',
    status     TEXT NOT NULL DEFAULT 'Available',
    rating     INTEGER NOT NULL DEFAULT 0 CHECK (rating BETWEEN 0 AND 5),
    notes      TEXT NOT NULL DEFAULT '',
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresCatalog is a catalog.Source backed by a shared Postgres database,
// for deployments where the management layer writes the catalog there.
type PostgresCatalog struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

// OpenPostgresCatalog connects to dsn, verifies the connection and creates
// the books table if needed.
func OpenPostgresCatalog(ctx context.Context, dsn string) (*PostgresCatalog, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	c := &PostgresCatalog{db: pool, timeout: 5 * time.Second}
	if err := c.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return c, nil
}

func (c *PostgresCatalog) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

func (c *PostgresCatalog) ensureSchema(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	if _, err := c.db.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("creating postgres schema: %w", err)
	}
	return nil
}

// Close releases the pool.
func (c *PostgresCatalog) Close() {
	c.db.Close()
}

// List returns every book in insertion order.
func (c *PostgresCatalog) List(ctx context.Context) ([]catalog.Entry, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	rows, err := c.db.Query(ctx, `SELECT title, author, year, genre, status, rating, notes FROM library_books ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Entry, error) {
		var e catalog.Entry
		var status string
		err := row.Scan(&e.Title, &e.Author, &e.Year, &e.Genre, &status, &e.Rating, &e.Notes)
		e.Status = catalog.Status(status)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning books: %w", err)
	}
	return entries, nil
}

// PutBooks upserts entries in one transaction.
func (c *PostgresCatalog) PutBooks(ctx context.Context, entries []catalog.Entry) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	return pgx.BeginFunc(ctx, c.db, func(tx pgx.Tx) error {
		return upsertBooks(ctx, tx, entries)
	})
}

// ReplaceBooks swaps the whole table for entries in one transaction.
func (c *PostgresCatalog) ReplaceBooks(ctx context.Context, entries []catalog.Entry) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	return pgx.BeginFunc(ctx, c.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM library_books`); err != nil {
			return fmt.Errorf("clearing books: %w", err)
		}
		return upsertBooks(ctx, tx, entries)
	})
}

func upsertBooks(ctx context.Context, tx pgx.Tx, entries []catalog.Entry) error {
	for _, e := range entries {
		e = e.Normalize()
		if e.Title == "" || e.Author == "" {
			return fmt.Errorf("book needs a title and an author")
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO library_books (book_key, title, author, year, genre, status, rating, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (book_key) DO UPDATE SET
				title = EXCLUDED.title, author = EXCLUDED.author, year = EXCLUDED.year,
				genre = EXCLUDED.genre, status = EXCLUDED.status, rating = EXCLUDED.rating,
				notes = EXCLUDED.notes, updated_at = now()`,
			e.Key(), e.Title, e.Author, e.Year, e.Genre, string(e.Status), e.Rating, e.Notes,
		)
		if err != nil {
			return fmt.Errorf("saving book %q: %w", e.Title, err)
		}
	}
	return nil
}

// PutBook upserts one entry.
func (c *PostgresCatalog) PutBook(ctx context.Context, e catalog.Entry) error {
	return c.PutBooks(ctx, []catalog.Entry{e})
}
