// Package prediction provides the application-level gateway to the external
// fluoriclogppka collaborator.  Predict never fails: collaborator errors are
// folded into the result.  Compute3DFeatures returns a recoverable error.
package prediction

import (
	"context"
	"time"

	"github.com/turtacn/fluoriclogppka-studio/internal/config"
	"github.com/turtacn/fluoriclogppka-studio/internal/domain/molecule"
	domain "github.com/turtacn/fluoriclogppka-studio/internal/domain/prediction"
	"github.com/turtacn/fluoriclogppka-studio/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/fluoriclogppka-studio/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/fluoriclogppka-studio/internal/intelligence/fluoriclogppka"
	apperrors "github.com/turtacn/fluoriclogppka-studio/pkg/errors"
)

// User-facing failure prefixes.
const (
	MsgPredictionFailed = "Error performing prediction"
	MsgFeaturesFailed   = "Error calculating 3D features"
)

const (
	opPredict    = "predict"
	opFeatures3D = "features3d"

	publishTimeout = 5 * time.Second
	maxBackoff     = 10 * time.Second
)

// EventPublisher receives one event per gateway call.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.DomainEvent) error
}

// Gateway defines the prediction operations used by the session actions and
// the stateless HTTP endpoints.
type Gateway interface {
	Predict(ctx context.Context, id molecule.Identifier, target domain.Target) *domain.Result
	Compute3DFeatures(ctx context.Context, id molecule.Identifier, target domain.Target) (*domain.Features3D, error)
	Healthy(ctx context.Context) error
}

// Option configures the gateway.
type Option func(*gatewayImpl)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(g *gatewayImpl) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *prometheus.AppMetrics) Option {
	return func(g *gatewayImpl) {
		if m != nil {
			g.metrics = m
		}
	}
}

// WithPublisher enables event publication.
func WithPublisher(p EventPublisher) Option {
	return func(g *gatewayImpl) { g.publisher = p }
}

type gatewayImpl struct {
	client    fluoriclogppka.Client
	cfg       config.InferenceConfig
	logger    logging.Logger
	metrics   *prometheus.AppMetrics
	publisher EventPublisher
}

// NewGateway creates a gateway over client.  Zero timeout or backoff values in
// cfg fall back to the configuration defaults.
func NewGateway(client fluoriclogppka.Client, cfg config.InferenceConfig, opts ...Option) Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultInferenceTimeout
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = config.DefaultRetryBackoff
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	g := &gatewayImpl{
		client:  client,
		cfg:     cfg,
		logger:  logging.NewNopLogger(),
		metrics: prometheus.NewNoopMetrics(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *gatewayImpl) Predict(ctx context.Context, id molecule.Identifier, target domain.Target) *domain.Result {
	start := time.Now()
	req, err := domain.NewRequest(id, target, g.cfg.ModelType)
	if err != nil {
		res := domain.Failed(domain.Request{Identifier: id, Target: target}, failureMessage(MsgPredictionFailed, err))
		g.finishPredict(ctx, res, 0, start)
		return res
	}

	var raw domain.Value
	attempts, err := g.call(ctx, opPredict, func(callCtx context.Context) error {
		v, callErr := g.client.Predict(callCtx, &fluoriclogppka.PredictRequest{
			SMILES:      req.Identifier.String(),
			TargetValue: req.Target.String(),
			ModelType:   req.ModelType,
		})
		raw = v
		return callErr
	})

	var res *domain.Result
	if err != nil {
		res = domain.Failed(req, failureMessage(MsgPredictionFailed, err))
		g.logger.WithContext(ctx).Warn("prediction failed",
			logging.String("smiles", req.Identifier.String()),
			logging.String("target", req.Target.String()),
			logging.Int("attempts", attempts),
			logging.Err(err))
		prometheus.RecordError(g.metrics, "gateway", string(apperrors.GetCode(err)))
	} else {
		res = domain.Succeeded(req, raw)
	}
	g.finishPredict(ctx, res, attempts, start)
	return res
}

func (g *gatewayImpl) finishPredict(ctx context.Context, res *domain.Result, attempts int, start time.Time) {
	elapsed := time.Since(start)
	prometheus.RecordInferenceCall(g.metrics, opPredict, res.Target.String(), res.Success, attempts, elapsed)
	g.logger.WithContext(ctx).Info("prediction completed",
		logging.String("smiles", res.Identifier.String()),
		logging.String("target", res.Target.String()),
		logging.Bool("success", res.Success),
		logging.Duration("duration", elapsed))

	g.publish(ctx, domain.PredictionCompletedEvent{
		SMILES:     res.Identifier.String(),
		Target:     res.Target,
		ModelType:  g.cfg.ModelType,
		Success:    res.Success,
		Error:      res.ErrorMessage,
		Value:      res.RawValue,
		Duration:   elapsed,
		OccurredAt: res.CompletedAt,
	})
}

func (g *gatewayImpl) Compute3DFeatures(ctx context.Context, id molecule.Identifier, target domain.Target) (*domain.Features3D, error) {
	start := time.Now()
	req, err := domain.NewRequest(id, target, g.cfg.ModelType)
	if err != nil {
		return nil, err
	}

	var limit *int
	if g.cfg.ConformersLimit > 0 {
		n := g.cfg.ConformersLimit
		limit = &n
	}

	var features *domain.Features3D
	attempts, err := g.call(ctx, opFeatures3D, func(callCtx context.Context) error {
		f, callErr := g.client.Features3D(callCtx, &fluoriclogppka.Features3DRequest{
			SMILES:          req.Identifier.String(),
			TargetValue:     req.Target.String(),
			ConformersLimit: limit,
		})
		features = f
		return callErr
	})
	elapsed := time.Since(start)
	prometheus.RecordInferenceCall(g.metrics, opFeatures3D, req.Target.String(), err == nil, attempts, elapsed)

	event := domain.Features3DComputedEvent{
		SMILES:     req.Identifier.String(),
		Target:     req.Target,
		Success:    err == nil,
		Duration:   elapsed,
		OccurredAt: time.Now().UTC(),
	}
	if err != nil {
		wrapped := apperrors.Wrap(userText{err}, apperrors.ErrCodeAIFeatures3DFailed, MsgFeaturesFailed)
		event.Error = wrapped.UserMessage()
		g.logger.WithContext(ctx).Warn("3D feature calculation failed",
			logging.String("smiles", req.Identifier.String()),
			logging.Int("attempts", attempts),
			logging.Err(err))
		prometheus.RecordError(g.metrics, "gateway", string(apperrors.GetCode(err)))
		g.publish(ctx, event)
		return nil, wrapped
	}
	if features == nil {
		features = domain.NewMapping()
	}
	event.FeatureCount = features.Len()
	g.logger.WithContext(ctx).Info("3D features computed",
		logging.String("smiles", req.Identifier.String()),
		logging.Int("features", features.Len()),
		logging.Duration("duration", elapsed))
	g.publish(ctx, event)
	return features, nil
}

func (g *gatewayImpl) Healthy(ctx context.Context) error {
	return g.client.Healthy(ctx)
}

// call runs fn under the per-attempt timeout and retries transient failures
// up to MaxRetries times with exponential backoff.
func (g *gatewayImpl) call(ctx context.Context, op string, fn func(context.Context) error) (int, error) {
	backoff := g.cfg.RetryBackoff
	for attempt := 1; ; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
		err := fn(callCtx)
		cancel()
		if err == nil {
			return attempt, nil
		}
		if attempt > g.cfg.MaxRetries || !fluoriclogppka.IsTransient(err) || ctx.Err() != nil {
			return attempt, err
		}

		g.logger.WithContext(ctx).Warn("retrying inference call",
			logging.String("operation", op),
			logging.Int("attempt", attempt),
			logging.Duration("backoff", backoff),
			logging.Err(err))
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, err
		case <-timer.C:
		}
		if backoff *= 2; backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (g *gatewayImpl) publish(ctx context.Context, event domain.DomainEvent) {
	if g.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	err := g.publisher.Publish(pubCtx, event)
	prometheus.RecordEvent(g.metrics, event.EventType(), err)
	if err != nil {
		g.logger.WithContext(ctx).Warn("event publication failed",
			logging.String("event_type", event.EventType()),
			logging.Err(err))
	}
}

// failureMessage renders "<prefix>: <error text>".
func failureMessage(prefix string, err error) string {
	return prefix + ": " + fluoriclogppka.ErrorText(err)
}

// userText renders only the user-facing text of err while keeping it in the
// chain for errors.Is and IsCode.
type userText struct{ err error }

func (u userText) Error() string { return fluoriclogppka.ErrorText(u.err) }
func (u userText) Unwrap() error { return u.err }
