package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/pebble"

	"hiko-crawler/models"
)

const stateKeyPrefix = "crawl_state/"

func stateKey(source models.Source) []byte {
	return []byte(stateKeyPrefix + string(source))
}

// PebbleStateStore keeps crawl checkpoints in a local pebble database.
type PebbleStateStore struct {
	db *pebble.DB
}

func NewPebbleStateStore(dir string) (*PebbleStateStore, error) {
	d, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &PebbleStateStore{db: d}, nil
}

func (p *PebbleStateStore) SaveState(_ context.Context, state *models.CrawlState) error {
	b, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("pebble: encode state %s: %w", state.Source, err)
	}
	if err := p.db.Set(stateKey(state.Source), b, pebble.Sync); err != nil {
		return fmt.Errorf("pebble: save state %s: %w", state.Source, err)
	}
	return nil
}

func (p *PebbleStateStore) LoadState(_ context.Context, source models.Source) (*models.CrawlState, error) {
	v, closer, err := p.db.Get(stateKey(source))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pebble: load state %s: %w", source, err)
	}
	defer closer.Close()

	var st models.CrawlState
	if err := json.Unmarshal(v, &st); err != nil {
		return nil, fmt.Errorf("pebble: decode state %s: %w", source, err)
	}
	return &st, nil
}

// ListStates returns every stored checkpoint in key order.
func (p *PebbleStateStore) ListStates(_ context.Context) ([]*models.CrawlState, error) {
	it, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(stateKeyPrefix),
		UpperBound: []byte(stateKeyPrefix + "\xff"),
	})
	if err != nil {
		return nil, fmt.Errorf("pebble: iter: %w", err)
	}
	defer it.Close()

	var out []*models.CrawlState
	for it.First(); it.Valid(); it.Next() {
		var st models.CrawlState
		if err := json.Unmarshal(it.Value(), &st); err != nil {
			return nil, fmt.Errorf("pebble: decode %s: %w", it.Key(), err)
		}
		out = append(out, &st)
	}
	return out, nil
}

func (p *PebbleStateStore) Close() error { return p.db.Close() }

// MemoryStateStore is the StateStore used when no STATE_DIR is configured.
type MemoryStateStore struct {
	mu     sync.RWMutex
	states map[models.Source]models.CrawlState
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[models.Source]models.CrawlState)}
}

func (m *MemoryStateStore) SaveState(_ context.Context, state *models.CrawlState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state.Source] = *state
	return nil
}

func (m *MemoryStateStore) LoadState(_ context.Context, source models.Source) (*models.CrawlState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[source]
	if !ok {
		return nil, ErrNotFound
	}
	return &st, nil
}

func (m *MemoryStateStore) Close() error { return nil }
