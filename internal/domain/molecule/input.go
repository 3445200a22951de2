package molecule

import (
	"fmt"
	"strings"

	apperrors "github.com/turtacn/fluoriclogppka-studio/pkg/errors"
)

// Method names the channel a molecule came from.
type Method string

const (
	MethodSMILES Method = "SMILES"
	MethodSDF    Method = "SDF"
	MethodEditor Method = "EDITOR"
)

var methodLabels = map[Method]string{
	MethodSMILES: "📝 SMILES Input",
	MethodSDF:    "📁 SDF File Upload",
	MethodEditor: "🎨 Molecule Editor",
}

// Label returns the display label used by the input selector.
func (m Method) Label() string {
	if l, ok := methodLabels[m]; ok {
		return l
	}
	return string(m)
}

// IsValid reports whether m is a known method.
func (m Method) IsValid() bool {
	_, ok := methodLabels[m]
	return ok
}

// ParseMethod accepts a method name case-insensitively.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", apperrors.InvalidParam(fmt.Sprintf("unknown input method %q", s))
	}
	return m, nil
}

// AllMethods lists methods in selector order.
func AllMethods() []Method {
	return []Method{MethodSMILES, MethodSDF, MethodEditor}
}

// Input is one of TextInput, StructureFileInput or EditorInput.
type Input interface {
	Method() Method
	isInput()
}

// TextInput is free-form notation typed by the user.
type TextInput struct {
	Raw string
}

// StructureFileInput is an uploaded structure file.  Name is optional; when
// present its extension is checked.
type StructureFileInput struct {
	Name string
	Data []byte
}

// EditorInput is whatever the drawing editor handed back.
type EditorInput struct {
	Payload EditorPayload
}

func (TextInput) Method() Method          { return MethodSMILES }
func (StructureFileInput) Method() Method { return MethodSDF }
func (EditorInput) Method() Method        { return MethodEditor }

func (TextInput) isInput()          {}
func (StructureFileInput) isInput() {}
func (EditorInput) isInput()        {}
