package versionstore

import "context"

// MemStore is an in-memory Store for tests and dry runs.  Nothing survives
// the process.
type MemStore struct {
	value int
}

func NewMemStore() *MemStore {
	return &MemStore{}
}

func (s *MemStore) Current(_ context.Context) (int, error) {
	if s.value < 1 {
		return 1, nil
	}
	return s.value, nil
}

func (s *MemStore) Increment(ctx context.Context) (int, error) {
	current, err := s.Current(ctx)
	if err != nil {
		return 0, err
	}
	s.value = current + 1
	return s.value, nil
}

func (s *MemStore) Close() error {
	return nil
}
