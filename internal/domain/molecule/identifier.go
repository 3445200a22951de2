// Package molecule turns user-supplied molecule input (typed SMILES, an SDF
// upload, or a structure editor payload) into a validated canonical
// identifier.  Every entry point either yields an Identifier or nothing.
package molecule

import (
	"strings"

	"github.com/turtacn/fluoriclogppka-studio/pkg/chem"
)

// DefaultSMILES is the structure offered when the text input is first shown.
const DefaultSMILES = "FC1(F)CC(C(O)=O)C1"

// User-facing messages for missing input.
const (
	MsgNoMolecule   = "Please enter a valid molecule"
	MsgDrawMolecule = "Draw a molecule in the editor above"
)

// Identifier is a canonical SMILES that is known to survive a parse,
// canonicalize and reparse round trip with at least one atom.  Only the
// Normalizer creates non-empty values.
type Identifier string

// String implements fmt.Stringer.
func (id Identifier) String() string { return string(id) }

// IsZero reports whether the identifier is empty.
func (id Identifier) IsZero() bool { return id == "" }

// Molecule parses the identifier back into a structure.
func (id Identifier) Molecule() (*chem.Molecule, error) {
	return chem.ParseSMILES(string(id))
}

// Validate runs the shared round-trip check and returns the canonical form.
//
//  1. trim; empty input is rejected
//  2. parse; failure or zero atoms is rejected
//  3. canonicalize; an empty string is rejected
//  4. reparse the canonical form; failure is rejected
func Validate(raw string) (Identifier, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	mol, err := chem.ParseSMILES(raw)
	if err != nil || mol.NumAtoms() == 0 {
		return "", false
	}
	canonical := chem.CanonicalSMILES(mol)
	if canonical == "" {
		return "", false
	}
	again, err := chem.ParseSMILES(canonical)
	if err != nil || again.NumAtoms() == 0 {
		return "", false
	}
	return Identifier(canonical), true
}

// IsValid reports whether raw passes Validate.
func IsValid(raw string) bool {
	_, ok := Validate(raw)
	return ok
}
