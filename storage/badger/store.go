package badger

import (
	"github.com/poiesic/ipgest/storage"
)

// Store combines the table writer and run repository over one backend.
type Store struct {
	*TableWriter
	*RunRepository
	backend *Backend
}

var _ storage.Store = (*Store)(nil)

// OpenStore opens a BadgerDB store at path, or in memory when inMemory is set.
func OpenStore(path string, inMemory bool) (*Store, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}
	return &Store{
		TableWriter:   NewTableWriter(backend),
		RunRepository: NewRunRepository(backend),
		backend:       backend,
	}, nil
}

// Close closes the underlying database. Closing twice is a no-op.
func (s *Store) Close() error {
	if s.backend.IsClosed() {
		return nil
	}
	return s.backend.Close()
}
