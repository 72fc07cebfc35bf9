package kvstore

import (
	"context"
	"errors"
	"sync"
)

var _ Store = (*TestStore)(nil)

// TestStore is an in-memory Store double for engine and handler tests.
type TestStore struct {
	mu   sync.Mutex
	data map[string][]byte

	// FailGets / FailSets make the next operations return an error,
	// to exercise the collapse-to-defaults paths.
	FailGets bool
	FailSets bool
}

func NewTestStore() *TestStore {
	return &TestStore{
		data: map[string][]byte{},
	}
}

func (s *TestStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailGets {
		return nil, false, errors.New("test store: get failed")
	}

	raw, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return raw, true, nil
}

func (s *TestStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailSets {
		return errors.New("test store: set failed")
	}

	s.data[key] = value
	return nil
}
