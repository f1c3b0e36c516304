package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/restprobe/internal/domain"
)

// Package storage provides the local alert/failure store.

// Store tracks which failures were already alerted and keeps a failure history.
type Store interface {
	Close() error
	SeenFailure(key string) (bool, error)
	MarkFailure(key string) error
	RecordFailure(rec domain.FailureRecord) error
	History(limit int) ([]domain.FailureRecord, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	AlertTTL        time.Duration
	CleanupInterval time.Duration
}

const (
	defaultAlertTTL        = 6 * time.Hour
	defaultCleanupInterval = time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.AlertTTL <= 0 {
		opts.AlertTTL = defaultAlertTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                                { return nil }
func (noopStore) SeenFailure(string) (bool, error)            { return false, nil }
func (noopStore) MarkFailure(string) error                    { return nil }
func (noopStore) RecordFailure(domain.FailureRecord) error    { return nil }
func (noopStore) History(int) ([]domain.FailureRecord, error) { return nil, nil }
