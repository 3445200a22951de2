// Package handlers implements the studio's HTTP endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/fluoriclogppka-studio/internal/domain/molecule"
	domain "github.com/turtacn/fluoriclogppka-studio/internal/domain/prediction"
	"github.com/turtacn/fluoriclogppka-studio/internal/interfaces/http/middleware"
	apperrors "github.com/turtacn/fluoriclogppka-studio/pkg/errors"
)

// DataEnvelope wraps successful responses as {"data": ...}.
type DataEnvelope struct {
	Data interface{} `json:"data"`
}

func writeData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, DataEnvelope{Data: data})
}

func writeError(c *gin.Context, err error) {
	middleware.WriteError(c, err)
}

var errBodyTooLarge = apperrors.New(apperrors.ErrCodeBadRequest, "request body too large")

// bindJSON decodes the body into dst.  An empty body leaves dst untouched.
func bindJSON(c *gin.Context, dst interface{}) error {
	dec := json.NewDecoder(c.Request.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return badBody(err)
	}
	return nil
}

func badBody(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errBodyTooLarge
	}
	return apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "malformed request body")
}

// parseTarget defaults to pKa, the first option of the property selector.
func parseTarget(s string) (domain.Target, error) {
	if strings.TrimSpace(s) == "" {
		return domain.TargetPKa, nil
	}
	return domain.ParseTarget(s)
}

// MoleculeRequest is the JSON form of a molecule submission.  Method may be
// omitted; it is inferred from which field is set.
type MoleculeRequest struct {
	Method   string          `json:"method,omitempty"`
	SMILES   string          `json:"smiles,omitempty"`
	Editor   json.RawMessage `json:"editor,omitempty"`
	SDF      string          `json:"sdf,omitempty"`
	FileName string          `json:"file_name,omitempty"`
}

// Input converts the request into the normalizer's input union.
func (r MoleculeRequest) Input() (molecule.Input, error) {
	method := molecule.MethodSMILES
	switch {
	case r.Method != "":
		m, err := molecule.ParseMethod(r.Method)
		if err != nil {
			return nil, err
		}
		method = m
	case len(r.Editor) > 0:
		method = molecule.MethodEditor
	case r.SDF != "":
		method = molecule.MethodSDF
	}

	switch method {
	case molecule.MethodSDF:
		return molecule.StructureFileInput{Name: r.FileName, Data: []byte(r.SDF)}, nil
	case molecule.MethodEditor:
		payload, err := molecule.DecodeEditorPayload(r.Editor)
		if err != nil {
			return nil, err
		}
		return molecule.EditorInput{Payload: payload}, nil
	}
	return molecule.TextInput{Raw: r.SMILES}, nil
}

// fileInput reads the multipart "file" field.
func fileInput(c *gin.Context) (molecule.Input, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, apperrors.New(apperrors.ErrCodeMoleculeNoInput, molecule.MsgNoMolecule).WithDetail("multipart field \"file\" is required")
		}
		return nil, badBody(err)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeSDFReadFailed, "Error reading SDF file")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, badBody(err)
	}
	return molecule.StructureFileInput{Name: fh.Filename, Data: data}, nil
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/")
}

// noMolecule is the error for a submission that yielded nothing.
func noMolecule(method molecule.Method) error {
	msg := molecule.MsgNoMolecule
	if method == molecule.MethodEditor {
		msg = molecule.MsgDrawMolecule
	}
	return apperrors.New(apperrors.ErrCodeMoleculeNoInput, msg)
}
