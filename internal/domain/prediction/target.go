// Package prediction holds the records exchanged between the prediction
// gateway, the result formatter and the session: targets, raw results,
// 3D descriptor mappings and the per-session state slot.
package prediction

import (
	"strings"

	"github.com/turtacn/fluoriclogppka-studio/internal/domain/molecule"
	apperrors "github.com/turtacn/fluoriclogppka-studio/pkg/errors"
)

// Target is the property the collaborator predicts.
type Target string

const (
	TargetPKa  Target = "pKa"
	TargetLogP Target = "logP"
)

// DefaultModelType is the model variant requested when none is configured.
const DefaultModelType = "gnn"

// User-facing messages.
const (
	MsgPredictionSucceeded = "Prediction completed successfully!"
	MsgNoFeatures          = "No features available for display"
)

// String implements fmt.Stringer.
func (t Target) String() string { return string(t) }

// IsValid reports whether t is a supported target.
func (t Target) IsValid() bool {
	return t == TargetPKa || t == TargetLogP
}

// ParseTarget accepts a target name case-insensitively ("pka", "LOGP").
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pka":
		return TargetPKa, nil
	case "logp":
		return TargetLogP, nil
	}
	return "", apperrors.New(apperrors.ErrCodeTargetUnsupported, "unsupported target property").
		WithDetail(`"` + s + `"; expected pKa or logP`)
}

// AllTargets lists targets in selector order.
func AllTargets() []Target {
	return []Target{TargetPKa, TargetLogP}
}

// Request is one prediction or descriptor call.
type Request struct {
	Identifier molecule.Identifier
	Target     Target
	ModelType  string
	// ConformersLimit caps conformer generation for descriptors; 0 is unlimited.
	ConformersLimit int
}

// NewRequest validates its inputs and fills the default model type.
func NewRequest(id molecule.Identifier, target Target, modelType string) (Request, error) {
	if id.IsZero() {
		return Request{}, apperrors.New(apperrors.ErrCodeMoleculeNoInput, molecule.MsgNoMolecule)
	}
	if !target.IsValid() {
		return Request{}, apperrors.New(apperrors.ErrCodeTargetUnsupported, "unsupported target property").
			WithDetail(string(target))
	}
	if modelType == "" {
		modelType = DefaultModelType
	}
	return Request{Identifier: id, Target: target, ModelType: modelType}, nil
}

// Parameters echoes the request as it was sent to the collaborator.
type Parameters struct {
	SMILES      string `json:"SMILES" msgpack:"SMILES"`
	TargetValue Target `json:"target_value" msgpack:"target_value"`
	ModelType   string `json:"model_type" msgpack:"model_type"`
}

// Parameters returns the echo record for r.
func (r Request) Parameters() Parameters {
	return Parameters{SMILES: r.Identifier.String(), TargetValue: r.Target, ModelType: r.ModelType}
}
