package prediction

import "time"

// DomainEvent is a marker for events published after gateway calls.
type DomainEvent interface {
	EventType() string
}

// PredictionCompletedEvent is published after every prediction attempt.
type PredictionCompletedEvent struct {
	SMILES     string        `json:"smiles"`
	Target     Target        `json:"target"`
	ModelType  string        `json:"model_type"`
	Success    bool          `json:"success"`
	Error      string        `json:"error,omitempty"`
	Value      Value         `json:"value"`
	Duration   time.Duration `json:"duration_ns"`
	OccurredAt time.Time     `json:"occurred_at"`
}

func (e PredictionCompletedEvent) EventType() string { return "prediction.completed" }

// Features3DComputedEvent is published after every descriptor attempt.
type Features3DComputedEvent struct {
	SMILES       string        `json:"smiles"`
	Target       Target        `json:"target"`
	Success      bool          `json:"success"`
	Error        string        `json:"error,omitempty"`
	FeatureCount int           `json:"feature_count"`
	Duration     time.Duration `json:"duration_ns"`
	OccurredAt   time.Time     `json:"occurred_at"`
}

func (e Features3DComputedEvent) EventType() string { return "features3d.computed" }
