package reporting

import (
	"time"

	"github.com/turtacn/fluoriclogppka-studio/internal/domain/molecule"
	domain "github.com/turtacn/fluoriclogppka-studio/internal/domain/prediction"
	apperrors "github.com/turtacn/fluoriclogppka-studio/pkg/errors"
)

// MoleculePanel shows the molecule currently in use.
type MoleculePanel struct {
	SMILES      string           `json:"smiles" yaml:"smiles"`
	Method      molecule.Method  `json:"method,omitempty" yaml:"method,omitempty"`
	MethodLabel string           `json:"method_label,omitempty" yaml:"method_label,omitempty"`
	Info        *MoleculeSummary `json:"info,omitempty" yaml:"info,omitempty"`
	InfoError   string           `json:"info_error,omitempty" yaml:"info_error,omitempty"`
}

// PredictionPanel shows the latest successful prediction.
type PredictionPanel struct {
	Target      domain.Target      `json:"target" yaml:"target"`
	Icon        string             `json:"icon" yaml:"icon"`
	Headline    string             `json:"headline" yaml:"headline"`
	Value       string             `json:"value" yaml:"value"`
	Raw         domain.Value       `json:"raw" yaml:"-"`
	Parameters  *domain.Parameters `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	CompletedAt time.Time          `json:"completed_at" yaml:"completed_at"`
}

// FeaturesPanel shows the 3D descriptors attached to the prediction.
type FeaturesPanel struct {
	Groups         []FeatureGroup `json:"groups" yaml:"groups"`
	Table          Table          `json:"table" yaml:"table"`
	ExportFileName string         `json:"export_file_name" yaml:"export_file_name"`
}

// View is everything a front end needs to render a session.
type View struct {
	Molecule   *MoleculePanel   `json:"molecule,omitempty" yaml:"molecule,omitempty"`
	Prediction *PredictionPanel `json:"prediction,omitempty" yaml:"prediction,omitempty"`
	Features   *FeaturesPanel   `json:"features,omitempty" yaml:"features,omitempty"`
	Notice     string           `json:"notice,omitempty" yaml:"notice,omitempty"`
	UpdatedAt  time.Time        `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

var targetIcons = map[domain.Target]string{
	domain.TargetPKa:  "🧪",
	domain.TargetLogP: "🌊",
}

// BuildView assembles the view for state.  A nil state renders the empty
// page.
func BuildView(state *domain.State) View {
	if state == nil || (!state.HasMolecule() && !state.HasPrediction()) {
		return View{Notice: molecule.MsgNoMolecule}
	}
	v := View{UpdatedAt: state.UpdatedAt}

	if state.HasMolecule() {
		panel := &MoleculePanel{
			SMILES:      state.Molecule.String(),
			Method:      state.Method,
			MethodLabel: state.Method.Label(),
		}
		if info, err := MoleculeInfo(state.Molecule); err != nil {
			panel.InfoError = errorText(err)
		} else {
			panel.Info = info
		}
		v.Molecule = panel
	}

	if r := state.Current; r != nil {
		v.Prediction = &PredictionPanel{
			Target:      r.Target,
			Icon:        targetIcons[r.Target],
			Headline:    Headline(r),
			Value:       DisplayValue(r),
			Raw:         r.RawValue,
			Parameters:  r.Parameters,
			CompletedAt: r.CompletedAt,
		}
		if r.HasFeatures() {
			v.Features = &FeaturesPanel{
				Groups:         FeatureGroups(r.Features3D),
				Table:          DetailedTable(r.Features3D),
				ExportFileName: ExportFileName,
			}
		}
	}
	return v
}

func errorText(err error) string {
	var ae *apperrors.AppError
	if apperrors.As(err, &ae) {
		return ae.UserMessage()
	}
	return err.Error()
}
