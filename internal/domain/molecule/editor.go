package molecule

import (
	"bytes"
	"encoding/json"

	"github.com/turtacn/fluoriclogppka-studio/pkg/chem"
	apperrors "github.com/turtacn/fluoriclogppka-studio/pkg/errors"
)

// EditorPayload is one of NotationAttr, EditorString or EditorMapping.
type EditorPayload interface {
	isEditorPayload()
}

// NotationAttr is an editor object that exposes its structure through a
// smiles attribute.
type NotationAttr struct {
	SMILES string
}

// EditorString is a bare notation string.
type EditorString string

// EditorMapping is a loosely structured object, typically carrying a
// "smiles" or a "molfile" key.
type EditorMapping map[string]interface{}

func (NotationAttr) isEditorPayload()  {}
func (EditorString) isEditorPayload()  {}
func (EditorMapping) isEditorPayload() {}

// DecodeEditorPayload maps the JSON the editor posts onto a payload variant.
//
//	"CCO"                           -> EditorString
//	{"molecule": {"smiles": "CCO"}} -> NotationAttr
//	{"smiles": ...} / {"molfile": ...} / any other object -> EditorMapping
//
// null, numbers, arrays and booleans decode to a nil payload.  Only malformed
// JSON is an error.
func DecodeEditorPayload(raw []byte) (EditorPayload, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeEditorPayloadInvalid, "Error processing molecule from editor")
	}
	return payloadFromValue(v), nil
}

func payloadFromValue(v interface{}) EditorPayload {
	switch t := v.(type) {
	case string:
		return EditorString(t)
	case map[string]interface{}:
		if inner, ok := t["molecule"].(map[string]interface{}); ok {
			if s, ok := inner["smiles"].(string); ok {
				return NotationAttr{SMILES: s}
			}
		}
		return EditorMapping(t)
	}
	return nil
}

// resolveEditorCandidate applies the ordered resolution rules and returns the
// candidate notation, which still has to pass Validate.
func resolveEditorCandidate(p EditorPayload) string {
	switch v := p.(type) {
	case NotationAttr:
		return v.SMILES
	case EditorString:
		if IsValid(string(v)) {
			return string(v)
		}
	case EditorMapping:
		if s, ok := v["smiles"]; ok {
			str, _ := s.(string)
			return str
		}
		if mf, ok := v["molfile"]; ok {
			block, _ := mf.(string)
			mol, err := chem.ParseMolBlock(block)
			if err != nil {
				return ""
			}
			return chem.CanonicalSMILES(mol)
		}
	}
	return ""
}
