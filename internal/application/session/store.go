package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/turtacn/fluoriclogppka-studio/internal/domain/molecule"
	domain "github.com/turtacn/fluoriclogppka-studio/internal/domain/prediction"
	apperrors "github.com/turtacn/fluoriclogppka-studio/pkg/errors"
)

// ErrSessionNotFound is returned by Load for unknown or expired sessions.
var ErrSessionNotFound = apperrors.New(apperrors.ErrCodeSessionNotFound, "session not found")

// Store persists session states by id.
type Store interface {
	Load(ctx context.Context, id string) (*domain.State, error)
	Save(ctx context.Context, id string, state *domain.State) error
	Delete(ctx context.Context, id string) error
}

// Pinger is implemented by stores that depend on an external service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// LoadOrNew loads id, returning a fresh state when the session is unknown.
func LoadOrNew(ctx context.Context, s Store, id string) (*domain.State, error) {
	st, err := s.Load(ctx, id)
	if apperrors.IsCode(err, apperrors.ErrCodeSessionNotFound) {
		return domain.NewState(), nil
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

const recordVersion = 1

// stateRecord is the stored form of a State.  The current prediction is kept
// as its JSON document so key order and number literals survive either
// codec.
type stateRecord struct {
	Version   int             `json:"v" msgpack:"v"`
	Molecule  string          `json:"molecule,omitempty" msgpack:"molecule,omitempty"`
	Method    string          `json:"method,omitempty" msgpack:"method,omitempty"`
	Current   json.RawMessage `json:"current,omitempty" msgpack:"current,omitempty"`
	UpdatedAt time.Time       `json:"updated_at" msgpack:"updated_at"`
}

func toRecord(s *domain.State) (*stateRecord, error) {
	if s == nil {
		s = domain.NewState()
	}
	rec := &stateRecord{
		Version:   recordVersion,
		Molecule:  s.Molecule.String(),
		Method:    string(s.Method),
		UpdatedAt: s.UpdatedAt,
	}
	if s.Current != nil {
		data, err := json.Marshal(s.Current)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeSessionCodec, "failed to encode prediction")
		}
		rec.Current = data
	}
	return rec, nil
}

func fromRecord(rec *stateRecord) (*domain.State, error) {
	if rec.Version != recordVersion {
		return nil, apperrors.Newf(apperrors.ErrCodeSessionCodec, "unsupported session record version %d", rec.Version)
	}
	st := &domain.State{
		Molecule:  molecule.Identifier(rec.Molecule),
		Method:    molecule.Method(rec.Method),
		UpdatedAt: rec.UpdatedAt,
	}
	if len(rec.Current) > 0 {
		var r domain.Result
		if err := json.Unmarshal(rec.Current, &r); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeSessionCodec, "failed to decode prediction")
		}
		st.Current = &r
	}
	return st, nil
}
