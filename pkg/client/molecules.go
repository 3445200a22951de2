package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

// Input methods accepted by Normalize.
const (
	MethodSMILES = "SMILES"
	MethodSDF    = "SDF"
	MethodEditor = "EDITOR"
)

// NormalizeRequest is a molecule submission.  Method may be left empty; the
// server infers it from the populated field.
type NormalizeRequest struct {
	Method   string          `json:"method,omitempty"`
	SMILES   string          `json:"smiles,omitempty"`
	Editor   json.RawMessage `json:"editor,omitempty"`
	SDF      string          `json:"sdf,omitempty"`
	FileName string          `json:"file_name,omitempty"`
}

// NormalizeResult is the canonical identifier for a submission.
type NormalizeResult struct {
	SMILES      string `json:"smiles"`
	Method      string `json:"method"`
	MethodLabel string `json:"method_label"`
}

// MoleculeInfo is the basic property panel for a molecule.
type MoleculeInfo struct {
	SMILES          string  `json:"smiles" yaml:"smiles"`
	Formula         string  `json:"formula" yaml:"formula"`
	MolecularWeight float64 `json:"molecular_weight" yaml:"molecular_weight"`
	WeightText      string  `json:"molecular_weight_text" yaml:"molecular_weight_text"`
	NumAtoms        int     `json:"num_atoms" yaml:"num_atoms"`
	NumBonds        int     `json:"num_bonds" yaml:"num_bonds"`
}

// Normalize validates a SMILES, editor or inline SDF submission.
func (c *Client) Normalize(ctx context.Context, req NormalizeRequest) (*NormalizeResult, error) {
	r, err := jsonRequest(http.MethodPost, "/api/v1/molecules/normalize", req)
	if err != nil {
		return nil, err
	}
	var out NormalizeResult
	if err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// NormalizeSDF uploads an SDF file and returns the first usable molecule.
func (c *Client) NormalizeSDF(ctx context.Context, fileName string, data io.Reader) (*NormalizeResult, error) {
	r, err := multipartRequest("/api/v1/molecules/normalize/sdf", fileName, data)
	if err != nil {
		return nil, err
	}
	var out NormalizeResult
	if err := c.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MoleculeInfo returns formula, weight and counts for smiles.
func (c *Client) MoleculeInfo(ctx context.Context, smiles string) (*MoleculeInfo, error) {
	if strings.TrimSpace(smiles) == "" {
		return nil, fmt.Errorf("smiles is required")
	}
	path := "/api/v1/molecules/" + url.PathEscape(smiles) + "/info"
	var out MoleculeInfo
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func multipartRequest(path, fileName string, data io.Reader) (request, error) {
	if data == nil {
		return request{}, fmt.Errorf("file data is required")
	}
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return request{}, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(fw, data); err != nil {
		return request{}, fmt.Errorf("failed to read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return request{}, fmt.Errorf("failed to build upload: %w", err)
	}
	return request{
		method:      http.MethodPost,
		path:        path,
		contentType: mw.FormDataContentType(),
		body:        buf.Bytes(),
	}, nil
}
