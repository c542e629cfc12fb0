package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/ipgest/core"
	"github.com/poiesic/ipgest/storage"
)

// RunRepository implements storage.RunRepository for BadgerDB.
type RunRepository struct {
	backend *Backend
}

var _ storage.RunRepository = (*RunRepository)(nil)

// NewRunRepository creates a new RunRepository.
func NewRunRepository(backend *Backend) *RunRepository {
	return &RunRepository{
		backend: backend,
	}
}

// SaveRun persists a run summary and points the latest-run key at it.
func (r *RunRepository) SaveRun(ctx context.Context, summary *core.RunSummary) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	value := storage.MarshalRunSummary(summary)
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeRunKey(summary.Started), value); err != nil {
			return err
		}
		if err := tx.Set([]byte(lastRunKey), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LastRun retrieves the most recently saved run summary.
// Returns nil, nil if no run has been saved.
func (r *RunRepository) LastRun(ctx context.Context) (*core.RunSummary, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	var summary *core.RunSummary
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(lastRunKey))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			summary, unmarshalErr = storage.UnmarshalRunSummary(val)
			return unmarshalErr
		})
	}, false)

	return summary, err
}
