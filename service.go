package sentiment

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
)

// A Loader produces the artifact a Service serves.
type Loader func(ctx context.Context) (*Artifact, error)

// DirLoader loads the artifact saved in dir.
func DirLoader(dir string) Loader {
	return func(ctx context.Context) (*Artifact, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return Load(dir)
	}
}

// Service serves batch predictions once an artifact has been loaded.
//
// Its state moves from StateUninitialized through StateLoading to either
// StateReady or StateUnavailable. Predictions are only served in
// StateReady; a Service that failed to load may be loaded again.
type Service struct {
	opts      ServiceOpts
	state     atomic.Int32
	predictor atomic.Pointer[Predictor]
}

// NewService creates a Service with no artifact loaded.
func NewService(opts ...ServiceOpt) *Service {
	base := defaultServiceOpts()
	for _, applyOpt := range opts {
		applyOpt(&base)
	}
	s := &Service{opts: base}
	s.state.Store(int32(StateUninitialized))
	return s
}

// State returns the current lifecycle state.
func (s *Service) State() ServiceState {
	return ServiceState(s.state.Load())
}

// Ready reports whether predictions can be served.
func (s *Service) Ready() bool {
	return s.State() == StateReady
}

// Metadata returns the loaded artifact's metadata, if any.
func (s *Service) Metadata() (Metadata, bool) {
	p := s.predictor.Load()
	if p == nil {
		return Metadata{}, false
	}
	return p.Metadata(), true
}

// ErrAlreadyLoaded is returned when Load is called on a ready Service.
var ErrAlreadyLoaded = errors.New("artifact already loaded")

// ErrLoadInProgress is returned when Load is called while loading.
var ErrLoadInProgress = errors.New("artifact load in progress")

// Load runs loader and blocks until the artifact is ready or has failed.
// A failure leaves the Service unavailable and is returned as an
// ArtifactUnavailable error.
func (s *Service) Load(ctx context.Context, loader Loader) error {
	if !s.state.CompareAndSwap(int32(StateUninitialized), int32(StateLoading)) &&
		!s.state.CompareAndSwap(int32(StateUnavailable), int32(StateLoading)) {
		if s.State() == StateReady {
			return ErrAlreadyLoaded
		}
		return ErrLoadInProgress
	}
	s.opts.Observer.ObserveState(StateLoading)
	s.opts.Logger.Info("loading model artifacts")

	predictor, err := s.load(ctx, loader)
	if err != nil {
		s.setState(StateUnavailable)
		s.opts.Logger.Error("model artifacts unavailable", zap.Error(err))
		return ArtifactUnavailable(err)
	}

	s.predictor.Store(predictor)
	s.setState(StateReady)

	meta := predictor.Metadata()
	s.opts.Logger.Info("model artifacts loaded",
		zap.String("model_type", meta.ModelType),
		zap.Int("n_features", meta.NFeatures),
		zap.Float64("f1_score", meta.F1Score),
		zap.String("run_id", meta.RunID),
	)
	return nil
}

func (s *Service) load(ctx context.Context, loader Loader) (*Predictor, error) {
	if loader == nil {
		return nil, errors.New("no loader")
	}
	artifact, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	predictor, err := NewPredictorWithLimits(artifact, s.opts.Limits)
	if err != nil {
		return nil, fmt.Errorf("invalid artifact: %w", err)
	}
	return predictor, nil
}

func (s *Service) setState(state ServiceState) {
	s.state.Store(int32(state))
	s.opts.Observer.ObserveState(state)
}

// PredictBatch classifies items with the loaded artifact. It fails fast
// with an ArtifactUnavailable error unless the Service is ready.
func (s *Service) PredictBatch(ctx context.Context, items []RawDocument) (BatchResult, error) {
	predictor := s.predictor.Load()
	if !s.Ready() || predictor == nil {
		return BatchResult{}, s.fail(ArtifactUnavailable(nil))
	}
	if err := ctx.Err(); err != nil {
		return BatchResult{}, s.fail(RequestCanceled(err))
	}

	start := s.opts.Clock.Now()
	result, err := predictor.PredictBatch(items)
	if err != nil {
		return BatchResult{}, s.fail(err)
	}
	elapsed := s.opts.Clock.Since(start)

	s.opts.Observer.ObserveBatch(result, elapsed)
	s.opts.Logger.Debug("batch classified",
		zap.Int("comments", result.Total),
		zap.Duration("elapsed", elapsed),
	)
	return result, nil
}

func (s *Service) fail(err error) error {
	kind := KindOf(err)
	s.opts.Observer.ObserveError(kind)
	if kind == KindInference {
		s.opts.Logger.Error("inference failed", zap.Error(err))
	}
	return err
}
