// Package memory provides an in-memory country snapshot store used for tests
// and ephemeral runs.
package memory

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"countryview/pkg/domain"
)

var _ domain.CountryStore = (*Store)(nil)

var errClosed = errors.New("memory store closed")

// Snapshot is the full state held by the store.
type Snapshot struct {
	Countries []domain.Country
	UpdatedAt time.Time
}

// Store keeps the last written snapshot in process memory.
type Store struct {
	mu     sync.RWMutex
	state  Snapshot
	closed bool
	now    func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{now: func() time.Time { return time.Now().UTC() }}
}

// ReplaceCountries swaps the snapshot for a copy of countries.
func (s *Store) ReplaceCountries(ctx context.Context, countries []domain.Country) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	s.state = Snapshot{Countries: slices.Clone(countries), UpdatedAt: s.now()}
	return nil
}

// Countries returns a copy of the snapshot in write order.
func (s *Store) Countries(ctx context.Context) ([]domain.Country, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errClosed
	}
	return slices.Clone(s.state.Countries), nil
}

// ExportState returns a copy of the whole snapshot.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Countries: slices.Clone(s.state.Countries), UpdatedAt: s.state.UpdatedAt}
}

// ImportState replaces the snapshot verbatim.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Snapshot{Countries: slices.Clone(snapshot.Countries), UpdatedAt: snapshot.UpdatedAt}
}

// Close marks the store unusable.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
