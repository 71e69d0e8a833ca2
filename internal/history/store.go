// Package history keeps a bounded, persisted record of completed
// question/answer interactions.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/inseek/inseek/internal/models"
	"github.com/inseek/inseek/internal/storage"
)

const (
	// Key is the fixed, versioned storage key holding the serialized entry
	// sequence.
	Key = "search_history_v1"
	// Capacity bounds the stored entry count; inserting beyond it evicts the
	// oldest entry.
	Capacity = 50
)

// Store is an ordered sequence of HistoryEntry, newest first. Every mutation
// rewrites the full serialized sequence in durable storage before the
// operation is considered complete. Callers hold a Store reference and never
// reach into storage directly. Safe for concurrent use: the HTTP facade
// reaches the store from request goroutines while the CLI owns the main one.
type Store struct {
	storage storage.Store
	logger  *zap.Logger

	mu      sync.Mutex
	entries []models.HistoryEntry
	lastID  int64
}

// NewStore returns an empty store backed by st. Call Load before first use.
func NewStore(st storage.Store, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{storage: st, logger: logger}
}

// Load reads the persisted sequence. Missing or malformed data initializes an
// empty store; Load never surfaces an error to the caller.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.lastID = 0

	data, err := s.storage.Get(ctx, Key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("history load failed, starting empty", zap.Error(err))
		}
		return
	}

	var entries []models.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warn("history data malformed, starting empty", zap.Error(err))
		return
	}
	if len(entries) > Capacity {
		entries = entries[:Capacity]
	}
	s.entries = entries
	if len(entries) > 0 {
		s.lastID = entries[0].ID
	}
}

// Add prepends a new entry built from the given interaction, evicts beyond
// capacity, and persists the full sequence. The assigned ID is derived from
// the creation time and strictly increases across inserts.
func (s *Store) Add(ctx context.Context, question, answer string, citations []models.Citation) (models.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}

	entry := models.HistoryEntry{
		ID:        id,
		Question:  question,
		Answer:    answer,
		Citations: append([]models.Citation(nil), citations...),
		CreatedAt: now,
	}

	next := make([]models.HistoryEntry, 0, len(s.entries)+1)
	next = append(next, entry)
	next = append(next, s.entries...)
	if len(next) > Capacity {
		next = next[:Capacity]
	}

	if err := s.persist(ctx, next); err != nil {
		return models.HistoryEntry{}, err
	}
	s.entries = next
	s.lastID = id
	return entry, nil
}

// RemoveAt deletes the entry at index (0 = newest) and persists. An
// out-of-bounds index is a silent no-op.
func (s *Store) RemoveAt(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.entries) {
		return nil
	}
	next := make([]models.HistoryEntry, 0, len(s.entries)-1)
	next = append(next, s.entries[:index]...)
	next = append(next, s.entries[index+1:]...)

	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.entries = next
	return nil
}

// Entries returns a copy of the sequence, newest first.
func (s *Store) Entries() []models.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.HistoryEntry(nil), s.entries...)
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) persist(ctx context.Context, entries []models.HistoryEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return s.storage.Put(ctx, Key, data)
}
