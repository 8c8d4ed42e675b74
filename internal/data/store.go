// Package data provides the volatile, process-lifetime stores backing settlement runs.
package data

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// NewID returns prefix_<uuid v7>. v7 ids sort by creation time and are never reused.
func NewID(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return fmt.Sprintf("%s_%s", prefix, id.String())
}

// Store is a generic, thread-safe, in-memory store for records of type T.
type Store[T any] struct {
	mu     sync.RWMutex
	items  map[string]T
	order  []string // insertion order for deterministic listing
	prefix string
}

// NewStore creates a Store whose generated ids carry prefix.
func NewStore[T any](prefix string) *Store[T] {
	return &Store[T]{
		items:  make(map[string]T),
		order:  make([]string, 0),
		prefix: prefix,
	}
}

// Insert stores item under a fresh id and returns it.
func (s *Store[T]) Insert(item T) string {
	id := NewID(s.prefix)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = item
	s.order = append(s.order, id)
	return id
}

// Get retrieves an item by id.
func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	return item, ok
}

// Update applies fn to the item stored under id while holding the write lock.
// The item returned by fn replaces the stored one unless fn fails.
func (s *Store[T]) Update(id string, fn func(T) (T, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	next, err := fn(item)
	if err != nil {
		return item, err
	}
	s.items[id] = next
	return next, nil
}

// Entry pairs a stored item with its id.
type Entry[T any] struct {
	ID   string
	Item T
}

// List returns all entries in insertion order.
func (s *Store[T]) List() []Entry[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry[T], 0, len(s.order))
	for _, id := range s.order {
		out = append(out, Entry[T]{ID: id, Item: s.items[id]})
	}
	return out
}

// Count returns the number of stored items.
func (s *Store[T]) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
