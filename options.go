package sentiment

import (
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// An Observer is notified of service activity, typically to export metrics.
// Implementations must be safe for concurrent use.
type Observer interface {
	ObserveBatch(result BatchResult, elapsed time.Duration)
	ObserveError(kind ErrorKind)
	ObserveState(state ServiceState)
}

type nopObserver struct{}

func (nopObserver) ObserveBatch(BatchResult, time.Duration) {}
func (nopObserver) ObserveError(ErrorKind)                  {}
func (nopObserver) ObserveState(ServiceState)               {}

// A ServiceOpt represents a setting that changes the behavior of a Service.
type ServiceOpt func(opts *ServiceOpts)

// ServiceOpts controls the behavior of a Service.
type ServiceOpts struct {
	Logger   *zap.Logger
	Observer Observer
	Limits   Limits
	Clock    clockwork.Clock
}

// WithLogger sets the logger used for lifecycle and failure events.
func WithLogger(logger *zap.Logger) ServiceOpt {
	return func(opts *ServiceOpts) {
		if logger != nil {
			opts.Logger = logger
		}
	}
}

// WithObserver registers a hook notified of batches, errors and state changes.
func WithObserver(observer Observer) ServiceOpt {
	return func(opts *ServiceOpts) {
		if observer != nil {
			opts.Observer = observer
		}
	}
}

// WithLimits overrides the batch and text size limits.
func WithLimits(limits Limits) ServiceOpt {
	return func(opts *ServiceOpts) {
		opts.Limits = limits
	}
}

// WithClock sets the clock used to time batches.
func WithClock(clock clockwork.Clock) ServiceOpt {
	return func(opts *ServiceOpts) {
		if clock != nil {
			opts.Clock = clock
		}
	}
}

func defaultServiceOpts() ServiceOpts {
	return ServiceOpts{
		Logger:   zap.NewNop(),
		Observer: nopObserver{},
		Limits:   DefaultLimits(),
		Clock:    clockwork.NewRealClock(),
	}
}
