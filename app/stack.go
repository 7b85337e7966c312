// Package app builds the backing services shared by the batch crawler and
// the admin server from a Config.
package app

import (
	"context"
	"fmt"
	"strings"

	"hiko-crawler/config"
	"hiko-crawler/events"
	"hiko-crawler/storage"
	"hiko-crawler/utils"
)

// Stack is the set of backing services picked by configuration.
type Stack struct {
	Store     storage.HotDealStore
	States    storage.StateStore
	Locker    storage.Locker
	Publisher events.Publisher

	closers []func() error
}

// Open connects every backing service. Optional services fall back to
// in-process implementations when their settings are empty.
func Open(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*Stack, error) {
	s := &Stack{}

	switch strings.ToLower(cfg.StoreDriver) {
	case "memory":
		s.Store = storage.NewMemoryStore()
		logger.Warn("[app] STORE_DRIVER=memory, hotdeals are not persisted")
	case "postgres", "":
		pg, err := storage.NewPostgresStore(cfg.DSN())
		if err != nil {
			return nil, err
		}
		s.Store = pg
	default:
		return nil, fmt.Errorf("app: unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	s.closers = append(s.closers, s.Store.Close)

	if cfg.StateDir != "" {
		states, err := storage.NewPebbleStateStore(cfg.StateDir)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.States = states
	} else {
		s.States = storage.NewMemoryStateStore()
	}
	s.closers = append(s.closers, s.States.Close)

	if cfg.RedisAddr != "" {
		client, err := storage.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Locker = storage.NewRedisLocker(client)
		s.closers = append(s.closers, client.Close)
	} else {
		s.Locker = storage.NewMemoryLocker()
	}

	if len(cfg.KafkaBrokers) > 0 {
		s.Publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		logger.Info("[app] publishing lifecycle events to %s", cfg.KafkaTopic)
	} else {
		s.Publisher = events.NopPublisher{}
	}
	s.closers = append(s.closers, s.Publisher.Close)

	return s, nil
}

// Close releases everything Open acquired, last opened first.
func (s *Stack) Close() error {
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.closers = nil
	return firstErr
}
