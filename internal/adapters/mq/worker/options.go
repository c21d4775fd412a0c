package worker

import (
	"github.com/okian/heartrobot/internal/domain/dedupe"
	"github.com/okian/heartrobot/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithDeduper lets a failed submission be retried by forgetting its mission id.
func WithDeduper(d dedupe.Deduper) Option {
	return func(w *InMemoryWorker) {
		w.deduper = d
	}
}
