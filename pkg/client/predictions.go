package client

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Target properties.
const (
	TargetPKa  = "pKa"
	TargetLogP = "logP"
)

// PredictRequest is the body of the stateless prediction calls.  An empty
// Target means pKa.
type PredictRequest struct {
	SMILES string `json:"smiles"`
	Target string `json:"target,omitempty"`
}

// PredictionParameters echoes the request sent to the model.
type PredictionParameters struct {
	SMILES      string `json:"SMILES" yaml:"smiles"`
	TargetValue string `json:"target_value" yaml:"target_value"`
	ModelType   string `json:"model_type" yaml:"model_type"`
}

// PredictionResult is the raw prediction record.  Result is kept as
// received: a number, or an object keyed by target.
type PredictionResult struct {
	SMILES      string                `json:"smiles" yaml:"smiles"`
	Target      string                `json:"target" yaml:"target"`
	Result      json.RawMessage       `json:"result" yaml:"-"`
	Success     bool                  `json:"success" yaml:"success"`
	Error       string                `json:"error,omitempty" yaml:"error,omitempty"`
	Parameters  *PredictionParameters `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	CompletedAt time.Time             `json:"completed_at" yaml:"completed_at"`
}

// Prediction is a successful prediction with its display strings.
type Prediction struct {
	Result   PredictionResult `json:"result" yaml:"result"`
	Value    string           `json:"value" yaml:"value"`
	Headline string           `json:"headline" yaml:"headline"`
}

// FeatureItem is one labelled value in a feature panel.
type FeatureItem struct {
	Key   string `json:"key" yaml:"key"`
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// FeatureGroup is one of the fixed feature panels.
type FeatureGroup struct {
	Key   string        `json:"key" yaml:"key"`
	Title string        `json:"title" yaml:"title"`
	Items []FeatureItem `json:"items" yaml:"items"`
}

// FeatureRow is one line of the detailed table.
type FeatureRow struct {
	Key   string      `json:"key" yaml:"key"`
	Name  string      `json:"name" yaml:"name"`
	Value interface{} `json:"value" yaml:"value"`
	Type  string      `json:"type" yaml:"type"`
}

// FeatureTable is the detailed feature listing.
type FeatureTable struct {
	Rows    []FeatureRow `json:"rows" yaml:"rows"`
	Message string       `json:"message,omitempty" yaml:"message,omitempty"`
}

// Features is a descriptor set.  Raw preserves key order and number
// literals exactly as the model produced them.
type Features struct {
	SMILES string          `json:"smiles" yaml:"smiles"`
	Target string          `json:"target" yaml:"target"`
	Raw    json.RawMessage `json:"features" yaml:"-"`
	Groups []FeatureGroup  `json:"groups" yaml:"groups"`
	Table  FeatureTable    `json:"table" yaml:"table"`
}

// Predict runs a stateless prediction.
func (c *Client) Predict(ctx context.Context, req PredictRequest) (*Prediction, error) {
	r, err := jsonRequest(http.MethodPost, "/api/v1/predictions", req)
	if err != nil {
		return nil, err
	}
	var out Prediction
	if err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Features3D computes 3D descriptors without touching the session.
func (c *Client) Features3D(ctx context.Context, req PredictRequest) (*Features, error) {
	r, err := jsonRequest(http.MethodPost, "/api/v1/features3d", req)
	if err != nil {
		return nil, err
	}
	var out Features
	if err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
