package catalog

import (
	"context"
	"fmt"
	"sync"
)

// Memory is a mutable in-memory catalog. It is safe for concurrent use;
// readers always receive a copy.
type Memory struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemory creates a catalog holding the given entries.
func NewMemory(entries ...Entry) *Memory {
	m := &Memory{}
	for _, e := range entries {
		m.entries = append(m.entries, e.Normalize())
	}
	return m
}

func (m *Memory) List(_ context.Context) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneEntries(m.entries), nil
}

// Put inserts e, or replaces the entry with the same title and author.
func (m *Memory) Put(e Entry) error {
	e = e.Normalize()
	if e.Title == "" || e.Author == "" {
		return fmt.Errorf("entry needs a title and an author")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.entries {
		if m.entries[i].Key() == e.Key() {
			m.entries[i] = e
			return nil
		}
	}
	m.entries = append(m.entries, e)
	return nil
}

// Remove deletes the entry with the given title and author.
func (m *Memory) Remove(title, author string) bool {
	key := Entry{Title: title, Author: author}.Normalize().Key()
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.entries {
		if m.entries[i].Key() == key {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Replace swaps the whole catalog.
func (m *Memory) Replace(entries []Entry) {
	next := make([]Entry, 0, len(entries))
	for _, e := range entries {
		next = append(next, e.Normalize())
	}
	m.mu.Lock()
	m.entries = next
	m.mu.Unlock()
}

// Len returns the number of entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// PutBooks puts each entry in order, stopping at the first invalid one.
func (m *Memory) PutBooks(_ context.Context, entries []Entry) error {
	for _, e := range entries {
		if err := m.Put(e); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceBooks validates entries and then swaps the whole catalog.
func (m *Memory) ReplaceBooks(_ context.Context, entries []Entry) error {
	for _, e := range entries {
		e = e.Normalize()
		if e.Title == "" || e.Author == "" {
			return fmt.Errorf("entry needs a title and an author")
		}
	}
	m.Replace(entries)
	return nil
}
