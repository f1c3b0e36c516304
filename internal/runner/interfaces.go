package runner

import (
	"context"

	"github.com/samvad-hq/restprobe/internal/domain"
	"github.com/samvad-hq/restprobe/pkg/publishers"
)

// EventPublisher fans failure events out to downstream sinks.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// AlertStore suppresses repeat alerts and keeps the failure history.
type AlertStore interface {
	SeenFailure(key string) (bool, error)
	MarkFailure(key string) error
	RecordFailure(rec domain.FailureRecord) error
}
