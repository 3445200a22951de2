package prediction

import (
	"time"

	"github.com/turtacn/fluoriclogppka-studio/internal/domain/molecule"
)

// Result is the uniform record the gateway produces for every prediction
// attempt.  Failures are data: Success=false with ErrorMessage set.
type Result struct {
	Identifier   molecule.Identifier `json:"smiles"`
	Target       Target              `json:"target"`
	RawValue     Value               `json:"result"`
	Success      bool                `json:"success"`
	ErrorMessage string              `json:"error,omitempty"`
	Parameters   *Parameters         `json:"parameters,omitempty"`
	Features3D   *Features3D         `json:"3d_features,omitempty"`
	CompletedAt  time.Time           `json:"completed_at"`
}

// Succeeded builds a successful result.
func Succeeded(req Request, raw Value) *Result {
	params := req.Parameters()
	return &Result{
		Identifier:  req.Identifier,
		Target:      req.Target,
		RawValue:    raw,
		Success:     true,
		Parameters:  &params,
		CompletedAt: time.Now().UTC(),
	}
}

// Failed builds a failed result carrying msg.
func Failed(req Request, msg string) *Result {
	return &Result{
		Identifier:   req.Identifier,
		Target:       req.Target,
		Success:      false,
		ErrorMessage: msg,
		CompletedAt:  time.Now().UTC(),
	}
}

// HasFeatures reports whether descriptors are attached.
func (r *Result) HasFeatures() bool {
	return r != nil && r.Features3D.Len() > 0
}

// WithFeatures returns a copy of r with f attached.
func (r *Result) WithFeatures(f *Features3D) *Result {
	if r == nil {
		return nil
	}
	out := r.Clone()
	out.Features3D = f.Clone()
	return out
}

// Clone returns a deep copy.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	out := *r
	if r.Parameters != nil {
		p := *r.Parameters
		out.Parameters = &p
	}
	if r.RawValue.mapping != nil {
		out.RawValue = MappingValue(r.RawValue.mapping.Clone())
	}
	out.Features3D = r.Features3D.Clone()
	return &out
}
