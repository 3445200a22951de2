// Package fluoriclogppka reaches the external fluoriclogppka service, which
// runs pKa/logP inference and computes 3D descriptors.  Two transports share
// one Client interface: JSON over HTTP and google.protobuf.Struct over gRPC.
package fluoriclogppka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/fluoriclogppka-studio/internal/config"
	"github.com/turtacn/fluoriclogppka-studio/internal/domain/prediction"
	"github.com/turtacn/fluoriclogppka-studio/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/fluoriclogppka-studio/pkg/errors"
)

// PredictRequest is the inference call payload.
type PredictRequest struct {
	SMILES      string `json:"SMILES"`
	TargetValue string `json:"target_value"`
	ModelType   string `json:"model_type"`
}

// Features3DRequest is the descriptor call payload.  A nil ConformersLimit is
// sent as null, meaning no limit.
type Features3DRequest struct {
	SMILES          string `json:"SMILES"`
	TargetValue     string `json:"target_value"`
	ConformersLimit *int   `json:"conformers_limit"`
}

func (r *PredictRequest) validate() error {
	if r == nil || r.SMILES == "" || r.TargetValue == "" {
		return ErrInvalidInput
	}
	return nil
}

func (r *Features3DRequest) validate() error {
	if r == nil || r.SMILES == "" || r.TargetValue == "" {
		return ErrInvalidInput
	}
	return nil
}

// Client calls the collaborator.  Implementations are safe for concurrent use.
type Client interface {
	// Predict returns the raw scalar or keyed mapping.
	Predict(ctx context.Context, req *PredictRequest) (prediction.Value, error)
	// Features3D returns the descriptor mapping in the order received.
	Features3D(ctx context.Context, req *Features3DRequest) (*prediction.Features3D, error)
	Healthy(ctx context.Context) error
	Close() error
}

var (
	ErrInvalidInput = apperrors.New(apperrors.ErrCodeAIInputInvalid, "SMILES and target_value are required")
	ErrClientClosed = apperrors.New(apperrors.ErrCodeAIModelNotAvailable, "inference client closed")
)

// IsTransient reports whether err is worth retrying: the service was
// unreachable, overloaded or too slow.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, ErrClientClosed) {
		return false
	}
	return apperrors.IsCode(err, apperrors.ErrCodeAIModelNotAvailable) ||
		apperrors.IsCode(err, apperrors.ErrCodeAITimeout) ||
		errors.Is(err, context.DeadlineExceeded)
}

// ErrorText returns the text appended to user-facing failure messages.
func ErrorText(err error) string {
	if err == nil {
		return ""
	}
	var ae *apperrors.AppError
	if errors.As(err, &ae) {
		return ae.UserMessage()
	}
	return err.Error()
}

// NewClient builds the transport selected by cfg.
func NewClient(cfg config.InferenceConfig, logger logging.Logger) (Client, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	switch cfg.Transport {
	case "", "http":
		return NewHTTPClient(cfg.Endpoint, logger,
			WithRequestTimeout(cfg.Timeout),
			WithUserAgent(cfg.UserAgent))
	case "grpc":
		return NewGRPCClient(cfg.Endpoint, logger, GRPCDialOptions(cfg.Insecure, 0)...)
	}
	return nil, apperrors.New(apperrors.ErrCodeValidation, "unknown inference transport").
		WithDetail(fmt.Sprintf("%q; expected http or grpc", cfg.Transport))
}

// requestID returns the request id carried in ctx, or a fresh one.
func requestID(ctx context.Context) string {
	for _, f := range logging.FieldsFromContext(ctx) {
		if f.Key == logging.FieldRequestID {
			if s, ok := f.Value.(string); ok && s != "" {
				return s
			}
		}
	}
	return uuid.New().String()
}

// deadlineError wraps a context failure in the matching code.
func deadlineError(ctx context.Context, err error, op string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.Wrap(err, apperrors.ErrCodeAITimeout, "inference service timed out").
			WithDetail(op)
	}
	return apperrors.Wrap(err, apperrors.ErrCodeAIModelNotAvailable, "inference service unreachable").
		WithDetail(op)
}

// defaultRequestTimeout bounds a single HTTP exchange when none is configured.
const defaultRequestTimeout = 60 * time.Second
