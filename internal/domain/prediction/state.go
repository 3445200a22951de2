package prediction

import (
	"time"

	"github.com/turtacn/fluoriclogppka-studio/internal/domain/molecule"
	apperrors "github.com/turtacn/fluoriclogppka-studio/pkg/errors"
)

// State is one user's session slot: the molecule they last submitted and at
// most one current prediction.  Transitions return a new State and leave the
// receiver untouched.
type State struct {
	Molecule  molecule.Identifier `json:"molecule,omitempty"`
	Method    molecule.Method     `json:"method,omitempty"`
	Current   *Result             `json:"current,omitempty"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// NewState returns an empty session slot.
func NewState() *State {
	return &State{UpdatedAt: time.Now().UTC()}
}

// Clone returns a deep copy.  A nil receiver clones to an empty state.
func (s *State) Clone() *State {
	if s == nil {
		return NewState()
	}
	out := *s
	out.Current = s.Current.Clone()
	return &out
}

// HasMolecule reports whether a normalized molecule is present.
func (s *State) HasMolecule() bool { return s != nil && !s.Molecule.IsZero() }

// HasPrediction reports whether a current prediction is present.
func (s *State) HasPrediction() bool { return s != nil && s.Current != nil }

// WithMolecule records a newly normalized molecule.  The current prediction
// is kept; it still names its own molecule.
func (s *State) WithMolecule(id molecule.Identifier, method molecule.Method) *State {
	out := s.Clone()
	out.Molecule = id
	out.Method = method
	out.UpdatedAt = time.Now().UTC()
	return out
}

// WithPrediction replaces the current prediction wholesale.  Failed results
// are not stored; the receiver's copy is returned unchanged.
func (s *State) WithPrediction(r *Result) *State {
	out := s.Clone()
	if r == nil || !r.Success {
		return out
	}
	out.Current = r.Clone()
	out.UpdatedAt = time.Now().UTC()
	return out
}

// WithFeatures attaches descriptors to the current prediction.
func (s *State) WithFeatures(f *Features3D) (*State, error) {
	if !s.HasPrediction() {
		return s.Clone(), apperrors.New(apperrors.ErrCodeNoPrediction, "no prediction in session")
	}
	out := s.Clone()
	out.Current = out.Current.WithFeatures(f)
	out.UpdatedAt = time.Now().UTC()
	return out, nil
}
