package palacetest

import (
	"context"
	"sync"
)

// Store is an in-memory credential store. Set and remove are visible to
// reads immediately and become "durable" on Save.
type Store struct {
	mu      sync.Mutex
	staged  map[string]string
	durable map[string]string
	saves   int

	// SaveErr, when set, is returned by Save and nothing is committed.
	SaveErr error
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		staged:  make(map[string]string),
		durable: make(map[string]string),
	}
}

// AccountID returns the staged id for endpoint.
func (s *Store) AccountID(_ context.Context, endpoint string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.staged[endpoint]
	return id, ok, nil
}

// SetAccountID stages id for endpoint.
func (s *Store) SetAccountID(_ context.Context, endpoint, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged[endpoint] = accountID
	return nil
}

// RemoveAccountID stages removal of endpoint.
func (s *Store) RemoveAccountID(_ context.Context, endpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.staged, endpoint)
	return nil
}

// Save commits staged changes.
func (s *Store) Save(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.durable = make(map[string]string, len(s.staged))
	for endpoint, id := range s.staged {
		s.durable[endpoint] = id
	}
	return nil
}

// Durable returns the committed id for endpoint.
func (s *Store) Durable(endpoint string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.durable[endpoint]
	return id, ok
}

// Saves counts Save calls.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
