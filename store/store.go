// Package store provides the key/value persistence the session snapshot is
// written to. The engine does not depend on how values are stored.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tsiemens/psxtax/log"
)

var ErrNotFound = errors.New("key not found")

type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

const (
	BackendFile   = "file"
	BackendBolt   = "bolt"
	BackendMemory = "memory"
)

type Config struct {
	Backend string
	Path    string
}

// Open creates the KV backend named by cfg.Backend.
func Open(cfg Config, logger *log.Logger) (KV, error) {
	logger = log.OrSilent(logger)
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendFile:
		return NewFileStore(cfg.Path, logger)
	case BackendBolt:
		return NewBoltStore(cfg.Path, logger)
	case BackendMemory:
		return NewMemStore(), nil
	}
	return nil, fmt.Errorf("unknown storage backend '%s'", cfg.Backend)
}
