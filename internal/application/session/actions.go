// Package session implements the user actions of the studio.  Each action
// takes the caller's State, returns the next State plus an Outcome to show,
// and never touches storage: the HTTP layer loads the state, runs exactly
// one action and saves the result.
package session

import (
	"context"
	"time"

	"github.com/turtacn/fluoriclogppka-studio/internal/application/prediction"
	"github.com/turtacn/fluoriclogppka-studio/internal/domain/molecule"
	domain "github.com/turtacn/fluoriclogppka-studio/internal/domain/prediction"
	"github.com/turtacn/fluoriclogppka-studio/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/fluoriclogppka-studio/internal/infrastructure/monitoring/prometheus"
	apperrors "github.com/turtacn/fluoriclogppka-studio/pkg/errors"
)

// Messages produced by actions in addition to the domain ones.
const (
	MsgMoleculeFrom       = "Molecule from: "
	MsgNoPrediction       = "Run a prediction before calculating 3D features"
	MsgFeaturesCalculated = "3D features calculated successfully!"
)

// Level classifies an Outcome for display.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Outcome is the message an action wants shown.  Code is set for errors.
type Outcome struct {
	Level   Level               `json:"level" yaml:"level"`
	Message string              `json:"message" yaml:"message"`
	Code    apperrors.ErrorCode `json:"code,omitempty" yaml:"code,omitempty"`
	Err     error               `json:"-" yaml:"-"`
}

// OK reports whether the action succeeded.
func (o Outcome) OK() bool { return o.Level != LevelError }

func success(msg string) Outcome { return Outcome{Level: LevelSuccess, Message: msg} }

func info(msg string) Outcome { return Outcome{Level: LevelInfo, Message: msg} }

func failure(code apperrors.ErrorCode, msg string, err error) Outcome {
	return Outcome{Level: LevelError, Message: msg, Code: code, Err: err}
}

// failureFrom renders err the way inline errors are shown to the user.
func failureFrom(err error) Outcome {
	msg := err.Error()
	var ae *apperrors.AppError
	if apperrors.As(err, &ae) {
		msg = ae.UserMessage()
	}
	return failure(apperrors.GetCode(err), msg, err)
}

// Actions runs the three session actions against a normalizer and gateway.
type Actions struct {
	normalizer *molecule.Normalizer
	gateway    prediction.Gateway
	logger     logging.Logger
	metrics    *prometheus.AppMetrics
}

// Option configures Actions.
type Option func(*Actions)

func WithLogger(l logging.Logger) Option {
	return func(a *Actions) {
		if l != nil {
			a.logger = l
		}
	}
}

func WithMetrics(m *prometheus.AppMetrics) Option {
	return func(a *Actions) {
		if m != nil {
			a.metrics = m
		}
	}
}

// NewActions wires the action handlers.
func NewActions(normalizer *molecule.Normalizer, gateway prediction.Gateway, opts ...Option) *Actions {
	a := &Actions{
		normalizer: normalizer,
		gateway:    gateway,
		logger:     logging.NewNopLogger(),
		metrics:    prometheus.NewNoopMetrics(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.normalizer == nil {
		a.normalizer = molecule.NewNormalizer(molecule.WithLogger(a.logger))
	}
	return a
}

// Normalizer exposes the normalizer for stateless endpoints.
func (a *Actions) Normalizer() *molecule.Normalizer { return a.normalizer }

// Gateway exposes the gateway for stateless endpoints.
func (a *Actions) Gateway() prediction.Gateway { return a.gateway }

// SubmitMolecule normalizes in and records it as the session molecule.  Input
// that yields nothing clears the molecule but keeps the current prediction;
// an empty editor is reported as a hint rather than an error.  File problems
// leave the state as it was.
func (a *Actions) SubmitMolecule(ctx context.Context, state *domain.State, in molecule.Input) (*domain.State, Outcome) {
	method := molecule.Method("")
	if in != nil {
		method = in.Method()
	}
	id, ok, err := a.normalizer.Normalize(ctx, in)
	switch {
	case err != nil:
		prometheus.RecordNormalization(a.metrics, string(method), "error")
		a.logger.WithContext(ctx).Warn("molecule input rejected",
			logging.String("method", string(method)), logging.Err(err))
		return state.Clone(), failureFrom(err)
	case !ok:
		prometheus.RecordNormalization(a.metrics, string(method), "empty")
		next := state.WithMolecule("", method)
		if method == molecule.MethodEditor {
			return next, info(molecule.MsgDrawMolecule)
		}
		return next, failure(apperrors.ErrCodeMoleculeNoInput, molecule.MsgNoMolecule, nil)
	}
	prometheus.RecordNormalization(a.metrics, string(method), "ok")
	a.logger.WithContext(ctx).Debug("molecule accepted",
		logging.String("method", string(method)), logging.String("smiles", id.String()))
	return state.WithMolecule(id, method), success(MsgMoleculeFrom + method.Label())
}

// RunPrediction predicts target for the session molecule.  Only successful
// results replace the current prediction.
func (a *Actions) RunPrediction(ctx context.Context, state *domain.State, target domain.Target) (*domain.State, Outcome) {
	if !state.HasMolecule() {
		return state.Clone(), failure(apperrors.ErrCodeMoleculeNoInput, molecule.MsgNoMolecule, nil)
	}
	start := time.Now()
	res := a.gateway.Predict(ctx, state.Molecule, target)
	if !res.Success {
		return state.Clone(), failure(apperrors.ErrCodeAIInferenceFailed, res.ErrorMessage, nil)
	}
	logging.LogOperationDuration(a.logger.WithContext(ctx), "session.predict", start,
		logging.String("target", target.String()))
	return state.WithPrediction(res), success(domain.MsgPredictionSucceeded)
}

// Compute3DFeatures attaches descriptors to the current prediction, using the
// molecule and target the prediction was made for.  An empty mapping leaves
// the state unchanged.
func (a *Actions) Compute3DFeatures(ctx context.Context, state *domain.State) (*domain.State, Outcome) {
	if !state.HasPrediction() {
		return state.Clone(), failure(apperrors.ErrCodeNoPrediction, MsgNoPrediction, nil)
	}
	cur := state.Current
	f, err := a.gateway.Compute3DFeatures(ctx, cur.Identifier, cur.Target)
	if err != nil {
		return state.Clone(), failureFrom(err)
	}
	if f.Len() == 0 {
		return state.Clone(), info(domain.MsgNoFeatures)
	}
	next, err := state.WithFeatures(f)
	if err != nil {
		return next, failureFrom(err)
	}
	return next, success(MsgFeaturesCalculated)
}
