package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"hiko-crawler/models"
)

// MemoryStore is a HotDealStore backed by maps. It mirrors the postgres
// semantics, including the live-row uniqueness of (source, source_id).
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]*models.HotDeal
	byKey map[string]string

	// FailOn, when set, is consulted before every write; a non-nil return
	// aborts the write. Tests use it to inject persistence failures.
	FailOn func(op string, deal *models.HotDeal) error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:  make(map[string]*models.HotDeal),
		byKey: make(map[string]string),
	}
}

func naturalKey(source models.Source, postID string) string {
	return string(source) + "\x00" + postID
}

func (m *MemoryStore) FindBySourceAndPostID(_ context.Context, source models.Source, postID string) (*models.HotDeal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byKey[naturalKey(source, postID)]
	if !ok {
		return nil, nil
	}
	return m.byID[id].Clone(), nil
}

func (m *MemoryStore) Create(_ context.Context, deal *models.HotDeal) (*models.HotDeal, error) {
	if err := m.fail("create", deal); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := naturalKey(deal.Source, deal.SourceID)
	if _, exists := m.byKey[key]; exists {
		return nil, ErrDuplicate
	}

	row := deal.Clone()
	row.ID = uuid.NewString()
	m.byID[row.ID] = row
	m.byKey[key] = row.ID
	return row.Clone(), nil
}

func (m *MemoryStore) Update(_ context.Context, id string, deal *models.HotDeal) (*models.HotDeal, error) {
	if err := m.fail("update", deal); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.byID[id]
	if !ok || cur.DeletedAt != nil {
		return nil, ErrNotFound
	}
	if !cur.Status.CanTransitionTo(deal.Status) {
		return nil, ErrInvalidTransition
	}

	row := deal.Clone()
	row.ID = id
	row.Source = cur.Source
	row.SourceID = cur.SourceID
	row.CreatedAt = cur.CreatedAt
	row.DeletedAt = nil
	m.byID[id] = row
	return row.Clone(), nil
}

func (m *MemoryStore) ExpireBefore(_ context.Context, now time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []string
	for id, row := range m.byID {
		if row.DeletedAt != nil || row.Status != models.StatusActive {
			continue
		}
		if row.EndDate.Before(now) {
			row.Status = models.StatusExpired
			row.UpdatedAt = now
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *MemoryStore) SoftDelete(_ context.Context, id string, now time.Time) (*models.HotDeal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	row, ok := m.byID[id]
	if !ok || row.DeletedAt != nil {
		return nil, ErrNotFound
	}
	at := now
	row.Status = models.StatusDeleted
	row.DeletedAt = &at
	row.UpdatedAt = now
	// deleted rows free the natural key for a later re-sighting
	delete(m.byKey, naturalKey(row.Source, row.SourceID))
	return row.Clone(), nil
}

func (m *MemoryStore) List(_ context.Context, filter ListFilter) ([]*models.HotDeal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.HotDeal
	for _, row := range m.byID {
		if filter.Source != "" && row.Source != filter.Source {
			continue
		}
		if filter.Status != "" && row.Status != filter.Status {
			continue
		}
		if filter.Status != models.StatusDeleted && row.DeletedAt != nil {
			continue
		}
		out = append(out, row.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit := effectiveLimit(filter.Limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Get returns the row with id, including soft-deleted rows.
func (m *MemoryStore) Get(id string) (*models.HotDeal, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.byID[id]
	if !ok {
		return nil, false
	}
	return row.Clone(), true
}

// Len returns the number of rows, deleted ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) fail(op string, deal *models.HotDeal) error {
	if m.FailOn == nil {
		return nil
	}
	return m.FailOn(op, deal)
}
