// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
)

// MemAssetStore is an in-memory asset store for tests. It records every Put
// and Delete so tests can assert on ordering and compensating cleanup.
type MemAssetStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	nextID  int

	// PutErr and DeleteErr, when set, are returned by the corresponding call.
	PutErr    error
	DeleteErr error

	// FailPutAfter fails the Nth+1 Put when >= 0, simulating a partial upload.
	FailPutAfter int

	Puts    []string
	Deletes []string
}

// NewMemAssetStore creates an empty in-memory asset store.
func NewMemAssetStore() *MemAssetStore {
	return &MemAssetStore{objects: make(map[string][]byte), FailPutAfter: -1}
}

func (s *MemAssetStore) Put(_ context.Context, content []byte, suggestedName string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PutErr != nil {
		return "", s.PutErr
	}
	if s.FailPutAfter >= 0 && len(s.Puts) >= s.FailPutAfter {
		return "", fmt.Errorf("simulated put failure for %s", suggestedName)
	}
	s.nextID++
	key := fmt.Sprintf("listings/test-%04d-%s", s.nextID, suggestedName)
	s.objects[key] = content
	s.Puts = append(s.Puts, key)
	return key, nil
}

func (s *MemAssetStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	delete(s.objects, path)
	s.Deletes = append(s.Deletes, path)
	return nil
}

// Has reports whether a stored object still exists under the given key.
func (s *MemAssetStore) Has(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[path]
	return ok
}

// Len returns the number of stored objects.
func (s *MemAssetStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
