package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

// SessionMolecule is the molecule panel of a session view.
type SessionMolecule struct {
	SMILES      string        `json:"smiles"`
	Method      string        `json:"method,omitempty"`
	MethodLabel string        `json:"method_label,omitempty"`
	Info        *MoleculeInfo `json:"info,omitempty"`
	InfoError   string        `json:"info_error,omitempty"`
}

// SessionPrediction is the prediction panel of a session view.
type SessionPrediction struct {
	Target      string                `json:"target"`
	Icon        string                `json:"icon"`
	Headline    string                `json:"headline"`
	Value       string                `json:"value"`
	Raw         json.RawMessage       `json:"raw"`
	Parameters  *PredictionParameters `json:"parameters,omitempty"`
	CompletedAt time.Time             `json:"completed_at"`
}

// SessionFeatures is the 3D feature panel of a session view.
type SessionFeatures struct {
	Groups         []FeatureGroup `json:"groups"`
	Table          FeatureTable   `json:"table"`
	ExportFileName string         `json:"export_file_name"`
}

// SessionView is what the server renders for a session.
type SessionView struct {
	Molecule   *SessionMolecule   `json:"molecule,omitempty"`
	Prediction *SessionPrediction `json:"prediction,omitempty"`
	Features   *SessionFeatures   `json:"features,omitempty"`
	Notice     string             `json:"notice,omitempty"`
	UpdatedAt  time.Time          `json:"updated_at,omitempty"`
}

// Outcome is the message a session action produced.
type Outcome struct {
	Level   string `json:"level"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ActionResult is returned by the session actions.
type ActionResult struct {
	Outcome Outcome     `json:"outcome"`
	View    SessionView `json:"view"`
}

// Artifact is an export stored on the server side.
type Artifact struct {
	Key         string    `json:"key"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int       `json:"size"`
	URL         string    `json:"url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Session returns the current session view.
func (c *Client) Session(ctx context.Context) (*SessionView, error) {
	var out SessionView
	if err := c.do(ctx, request{method: http.MethodGet, path: "/api/v1/session", session: true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearSession drops the session's molecule and prediction.
func (c *Client) ClearSession(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/api/v1/session", session: true}, nil)
}

// SubmitMolecule sets the session molecule.
func (c *Client) SubmitMolecule(ctx context.Context, req NormalizeRequest) (*ActionResult, error) {
	r, err := jsonRequest(http.MethodPost, "/api/v1/session/molecule", req)
	if err != nil {
		return nil, err
	}
	return c.action(ctx, r)
}

// SubmitSDF sets the session molecule from an SDF upload.
func (c *Client) SubmitSDF(ctx context.Context, fileName string, data io.Reader) (*ActionResult, error) {
	r, err := multipartRequest("/api/v1/session/molecule", fileName, data)
	if err != nil {
		return nil, err
	}
	return c.action(ctx, r)
}

// RunPrediction predicts target for the session molecule.
func (c *Client) RunPrediction(ctx context.Context, target string) (*ActionResult, error) {
	r, err := jsonRequest(http.MethodPost, "/api/v1/session/predictions", map[string]string{"target": target})
	if err != nil {
		return nil, err
	}
	return c.action(ctx, r)
}

// Compute3DFeatures attaches descriptors to the session prediction.
func (c *Client) Compute3DFeatures(ctx context.Context) (*ActionResult, error) {
	return c.action(ctx, request{method: http.MethodPost, path: "/api/v1/session/features3d"})
}

// ExportFeatures downloads the session's 3d_features.json.
func (c *Client) ExportFeatures(ctx context.Context) ([]byte, error) {
	body, _, err := c.doRaw(ctx, request{method: http.MethodGet, path: "/api/v1/session/features3d/export", session: true})
	return body, err
}

// StoreExport uploads the session's features to the server's object store
// and returns a download link.
func (c *Client) StoreExport(ctx context.Context) (*Artifact, error) {
	var out Artifact
	r := request{method: http.MethodGet, path: "/api/v1/session/features3d/export?store=true", session: true}
	if err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) action(ctx context.Context, r request) (*ActionResult, error) {
	r.session = true
	var out ActionResult
	if err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
