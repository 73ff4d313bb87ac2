package lottery

import (
	"context"

	"github.com/cockroachdb/cockroach/pkg/util/syncutil"
)

// Store persists committed rounds.
type Store interface {
	// Load returns the last saved round, or nil if nothing was saved.
	Load(ctx context.Context) (*Round, error)
	// Save durably records r. r must not be retained by the store.
	Save(ctx context.Context, r *Round) error
}

// MemStore is an in-memory implementation of Store
type MemStore struct {
	syncutil.Mutex
	round *Round
	saves int
}

var _ Store = &MemStore{}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Load implements Store.
func (m *MemStore) Load(ctx context.Context) (*Round, error) {
	m.Lock()
	defer m.Unlock()
	if m.round == nil {
		return nil, nil
	}
	return m.round.Clone(), nil
}

// Save implements Store.
func (m *MemStore) Save(ctx context.Context, r *Round) error {
	m.Lock()
	defer m.Unlock()
	m.round = r.Clone()
	m.saves++
	return nil
}

// Saves returns the number of successful calls to Save.
func (m *MemStore) Saves() int {
	m.Lock()
	defer m.Unlock()
	return m.saves
}
