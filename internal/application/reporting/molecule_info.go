package reporting

import (
	"github.com/turtacn/fluoriclogppka-studio/internal/domain/molecule"
	"github.com/turtacn/fluoriclogppka-studio/pkg/chem"
	apperrors "github.com/turtacn/fluoriclogppka-studio/pkg/errors"
)

// MsgPropertiesFailed prefixes property calculation failures.
const MsgPropertiesFailed = "Could not calculate properties"

// MoleculeSummary is the basic property panel shown next to a molecule.
type MoleculeSummary struct {
	SMILES          string  `json:"smiles" yaml:"smiles"`
	Formula         string  `json:"formula" yaml:"formula"`
	MolecularWeight float64 `json:"molecular_weight" yaml:"molecular_weight"`
	// WeightText is the weight rounded to two decimals for display.
	WeightText string `json:"molecular_weight_text" yaml:"molecular_weight_text"`
	NumAtoms   int    `json:"num_atoms" yaml:"num_atoms"`
	NumBonds   int    `json:"num_bonds" yaml:"num_bonds"`
}

// MoleculeInfo computes the property panel for id.
func MoleculeInfo(id molecule.Identifier) (*MoleculeSummary, error) {
	if id.IsZero() {
		return nil, apperrors.New(apperrors.ErrCodeMoleculeNoInput, molecule.MsgNoMolecule)
	}
	mol, err := id.Molecule()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodePropertiesFailed, MsgPropertiesFailed)
	}
	d := chem.Describe(mol)
	rounded := d.MolWt.Round(2)
	weight, _ := rounded.Float64()
	return &MoleculeSummary{
		SMILES:          id.String(),
		Formula:         chem.Formula(mol),
		MolecularWeight: weight,
		WeightText:      rounded.StringFixed(2),
		NumAtoms:        d.NumAtoms,
		NumBonds:        d.NumBonds,
	}, nil
}
