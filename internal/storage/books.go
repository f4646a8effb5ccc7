package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/quinta-thw/librarymanager-ist4070/internal/catalog"
)

const bookColumns = `title, author, year, genre, status, rating, notes`

// List returns every book in insertion order. It makes Store a
// catalog.Source.
func (s *Store) List(ctx context.Context) ([]catalog.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+bookColumns+` FROM books ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}
	defer rows.Close()

	var out []catalog.Entry
	for rows.Next() {
		var e catalog.Entry
		var status string
		if err := rows.Scan(&e.Title, &e.Author, &e.Year, &e.Genre, &status, &e.Rating, &e.Notes); err != nil {
			return nil, err
		}
		e.Status = catalog.Status(status)
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetBook returns the book with the given title and author.
func (s *Store) GetBook(ctx context.Context, title, author string) (catalog.Entry, error) {
	key := catalog.Entry{Title: title, Author: author}.Normalize().Key()
	var e catalog.Entry
	var status string
	err := s.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE book_key = ?`, key).
		Scan(&e.Title, &e.Author, &e.Year, &e.Genre, &status, &e.Rating, &e.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Entry{}, ErrNotFound
	}
	if err != nil {
		return catalog.Entry{}, err
	}
	e.Status = catalog.Status(status)
	return e, nil
}

// PutBook inserts e or updates the book with the same title and author.
func (s *Store) PutBook(ctx context.Context, e catalog.Entry) error {
	return putBook(ctx, s.db, e)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func putBook(ctx context.Context, db execer, e catalog.Entry) error {
	e = e.Normalize()
	if e.Title == "" || e.Author == "" {
		return fmt.Errorf("book needs a title and an author")
	}
	now := formatTime(time.Now())
	_, err := db.ExecContext(ctx, `
		INSERT INTO books (book_key, title, author, year, genre, status, rating, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(book_key) DO UPDATE SET
			title = excluded.title, author = excluded.author, year = excluded.year,
			genre = excluded.genre, status = excluded.status, rating = excluded.rating,
			notes = excluded.notes, updated_at = excluded.updated_at`,
		e.Key(), e.Title, e.Author, e.Year, e.Genre, string(e.Status), e.Rating, e.Notes, now, now,
	)
	if err != nil {
		return fmt.Errorf("saving book %q: %w", e.Title, err)
	}
	return nil
}

// PutBooks saves entries in one transaction.
func (s *Store) PutBooks(ctx context.Context, entries []catalog.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning book transaction: %w", err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		if err := putBook(ctx, tx, e); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ReplaceBooks swaps the whole catalog for entries.
func (s *Store) ReplaceBooks(ctx context.Context, entries []catalog.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning book transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM books`); err != nil {
		return fmt.Errorf("clearing books: %w", err)
	}
	for _, e := range entries {
		if err := putBook(ctx, tx, e); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// DeleteBook removes the book with the given title and author.
func (s *Store) DeleteBook(ctx context.Context, title, author string) error {
	key := catalog.Entry{Title: title, Author: author}.Normalize().Key()
	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE book_key = ?`, key)
	if err != nil {
		return err
	}
	return rowsAffected(res)
}

// CountBooks returns the number of books in the catalog.
func (s *Store) CountBooks(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&n)
	return n, err
}
