// Package reporting turns prediction results and 3D descriptor mappings into
// display-ready values: headline strings, grouped feature panels, the
// detailed feature table and the JSON export.
package reporting

import (
	"encoding/json"
	"fmt"
	"strconv"

	domain "github.com/turtacn/fluoriclogppka-studio/internal/domain/prediction"
)

// Display precision.  Panels use FloatPrecision, the detailed table
// ExtendedPrecision.
const (
	FloatPrecision    = 4
	ExtendedPrecision = 6
)

// NotAvailable is shown when a result carries no usable value.
const NotAvailable = "N/A"

// GroupKey identifies one of the fixed feature panels.
type GroupKey string

const (
	GroupBasic     GroupKey = "BASIC"
	GroupAngles    GroupKey = "ANGLES"
	GroupDistances GroupKey = "DISTANCES"
)

type groupDef struct {
	key   GroupKey
	title string
	keys  []string
}

var featureGroups = []groupDef{
	{
		key:   GroupBasic,
		title: "Basic Properties",
		keys:  []string{"identificator", "dipole_moment", "mol_volume", "mol_weight", "sasa", "tpsa+f"},
	},
	{
		key:   GroupAngles,
		title: "Angles",
		keys:  []string{"angle_X1X2R2", "angle_X2X1R1", "angle_R2X2R1", "angle_R1X1R2", "dihedral_angle"},
	},
	{
		key:   GroupDistances,
		title: "Distances and Conformation",
		keys: []string{
			"f_to_fg", "f_freedom",
			"distance_between_atoms_in_cycle_and_f_group",
			"distance_between_atoms_in_f_group_centers",
			"cis/trans",
		},
	},
}

var featureNames = map[string]string{
	"identificator":    "Identifier",
	"dipole_moment":    "Dipole Moment",
	"mol_volume":       "Molecular Volume",
	"mol_weight":       "Molecular Weight",
	"sasa":             "SASA",
	"tpsa+f":           "TPSA+F",
	"angle_X1X2R2":     "Angle X1X2R2",
	"angle_X2X1R1":     "Angle X2X1R1",
	"angle_R2X2R1":     "Angle R2X2R1",
	"angle_R1X1R2":     "Angle R1X1R2",
	"dihedral_angle":   "Dihedral Angle",
	"f_to_fg":          "F to FG",
	"f_freedom":        "F Freedom",
	"cis/trans":        "Cis/Trans",
	"distance_between_atoms_in_cycle_and_f_group": "Distance Between Atoms in Cycle",
	"distance_between_atoms_in_f_group_centers":   "Distance Between F-Group Centers",
}

// DisplayName returns the human label for a feature key, or the key itself.
func DisplayName(key string) string {
	if name, ok := featureNames[key]; ok {
		return name
	}
	return key
}

// ─────────────────────────────────────────────────────────────────────────────
// Prediction headline
// ─────────────────────────────────────────────────────────────────────────────

// DisplayValue renders the predicted value for the result's target with
// FloatPrecision decimals, or NotAvailable when it is absent or not a number.
func DisplayValue(r *domain.Result) string {
	if r == nil {
		return NotAvailable
	}
	v, ok := r.RawValue.Select(r.Target)
	if !ok || v == nil {
		return NotAvailable
	}
	f, kind := domain.Numeric(v)
	if kind == domain.NotNumber {
		return NotAvailable
	}
	return strconv.FormatFloat(f, 'f', FloatPrecision, 64)
}

// Headline renders "pKa: 4.7562".
func Headline(r *domain.Result) string {
	if r == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%s: %s", r.Target, DisplayValue(r))
}

// ─────────────────────────────────────────────────────────────────────────────
// Feature panels
// ─────────────────────────────────────────────────────────────────────────────

// FeatureItem is one labelled value inside a panel.
type FeatureItem struct {
	Key   string `json:"key" yaml:"key"`
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// FeatureGroup is one fixed panel.  Items only holds features that are present
// and non-null.
type FeatureGroup struct {
	Key   GroupKey      `json:"key" yaml:"key"`
	Title string        `json:"title" yaml:"title"`
	Items []FeatureItem `json:"items" yaml:"items"`
}

// FeatureGroups returns the three panels in display order.  Zero, empty
// strings and false are shown; only absent or null features are skipped.
func FeatureGroups(f *domain.Features3D) []FeatureGroup {
	out := make([]FeatureGroup, 0, len(featureGroups))
	for _, def := range featureGroups {
		g := FeatureGroup{Key: def.key, Title: def.title, Items: []FeatureItem{}}
		for _, key := range def.keys {
			v, ok := f.Get(key)
			if !ok || v == nil {
				continue
			}
			g.Items = append(g.Items, FeatureItem{
				Key:   key,
				Name:  DisplayName(key),
				Value: panelValue(def.key, v),
			})
		}
		out = append(out, g)
	}
	return out
}

func panelValue(group GroupKey, v interface{}) string {
	f, kind := domain.Numeric(v)
	switch {
	case kind == domain.NotNumber:
		return stringForm(v)
	case group == GroupAngles:
		return strconv.FormatFloat(f, 'f', FloatPrecision, 64) + "°"
	case kind == domain.FloatNumber:
		return strconv.FormatFloat(f, 'f', FloatPrecision, 64)
	}
	return stringForm(v)
}

// ─────────────────────────────────────────────────────────────────────────────
// Detailed table
// ─────────────────────────────────────────────────────────────────────────────

// FeatureRow is one line of the detailed table.  Value holds a formatted
// string for floats and the raw value otherwise.
type FeatureRow struct {
	Key   string      `json:"key" yaml:"key"`
	Name  string      `json:"name" yaml:"name"`
	Value interface{} `json:"value" yaml:"value"`
	Type  string      `json:"type" yaml:"type"`
}

// Table is the detailed feature listing.  Message is set when there are no
// rows.
type Table struct {
	Rows    []FeatureRow `json:"rows" yaml:"rows"`
	Message string       `json:"message,omitempty" yaml:"message,omitempty"`
}

// DetailedTable lists every non-null feature in the order received.
func DetailedTable(f *domain.Features3D) Table {
	t := Table{Rows: []FeatureRow{}}
	f.Range(func(key string, v interface{}) bool {
		if v == nil {
			return true
		}
		row := FeatureRow{Key: key, Name: DisplayName(key), Value: v, Type: domain.TypeName(v)}
		if fv, kind := domain.Numeric(v); kind == domain.FloatNumber {
			row.Value = strconv.FormatFloat(fv, 'f', ExtendedPrecision, 64)
		}
		t.Rows = append(t.Rows, row)
		return true
	})
	if len(t.Rows) == 0 {
		t.Message = domain.MsgNoFeatures
	}
	return t
}

// stringForm renders a non-numeric value for display.  Booleans use the
// capitalised spelling the collaborator's clients expect; nested values are
// shown as compact JSON.
func stringForm(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case string:
		return t
	case bool:
		if t {
			return "True"
		}
		return "False"
	case json.Number:
		return t.String()
	case *domain.Mapping:
		if data, err := t.MarshalJSON(); err == nil {
			return string(data)
		}
	case []interface{}, map[string]interface{}:
		if data, err := json.Marshal(t); err == nil {
			return string(data)
		}
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}
