package reporting

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/turtacn/fluoriclogppka-studio/internal/domain/prediction"
)

func result(target domain.Target, raw domain.Value) *domain.Result {
	return &domain.Result{Identifier: "CCO", Target: target, RawValue: raw, Success: true}
}

func TestDisplayValue(t *testing.T) {
	mapping := domain.NewMapping()
	mapping.Set("pKa", json.Number("4.5"))
	mapping.Set("logP", json.Number("1.25"))
	mapping.Set("note", "estimated")

	textual := domain.NewMapping()
	textual.Set("pKa", "out of domain")

	tests := []struct {
		name string
		r    *domain.Result
		want string
	}{
		{"nil result", nil, NotAvailable},
		{"scalar float", result(domain.TargetPKa, domain.ScalarValue(4.756234)), "4.7562"},
		{"scalar int", result(domain.TargetLogP, domain.ScalarValue(3)), "3.0000"},
		{"scalar string", result(domain.TargetPKa, domain.ScalarValue("unstable")), NotAvailable},
		{"mapping pKa", result(domain.TargetPKa, domain.MappingValue(mapping)), "4.5000"},
		{"mapping logP", result(domain.TargetLogP, domain.MappingValue(mapping)), "1.2500"},
		{"mapping missing target", result(domain.TargetLogP, domain.MappingValue(textual)), NotAvailable},
		{"mapping non-numeric", result(domain.TargetPKa, domain.MappingValue(textual)), NotAvailable},
		{"scalar bool", result(domain.TargetPKa, domain.ScalarValue(true)), NotAvailable},
		{"empty value", result(domain.TargetPKa, domain.Value{}), NotAvailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DisplayValue(tt.r))
		})
	}
}

func TestDisplayValue_MappingPrecision(t *testing.T) {
	raw := domain.NewMapping()
	raw.Set("pKa", json.Number("4.756234"))
	r := result(domain.TargetPKa, domain.MappingValue(raw))

	assert.Equal(t, "4.7562", DisplayValue(r))
	assert.Equal(t, "pKa: 4.7562", Headline(r))

	table := DetailedTable(r.RawValue.Mapping())
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "pKa", table.Rows[0].Key)
	assert.Equal(t, "4.756234", table.Rows[0].Value)
	assert.Equal(t, "float", table.Rows[0].Type)
}

func TestHeadline(t *testing.T) {
	assert.Equal(t, "pKa: 4.7562", Headline(result(domain.TargetPKa, domain.ScalarValue(4.756234))))
	assert.Equal(t, "logP: N/A", Headline(result(domain.TargetLogP, domain.Value{})))
	assert.Equal(t, NotAvailable, Headline(nil))
}

func sampleFeatures() *domain.Features3D {
	f := domain.NewMapping()
	f.Set("sasa", json.Number("0"))
	f.Set("identificator", "mol-1")
	f.Set("dipole_moment", json.Number("2.123456"))
	f.Set("mol_volume", nil)
	f.Set("tpsa+f", false)
	f.Set("angle_X1X2R2", json.Number("109.5"))
	f.Set("angle_R1X1R2", json.Number("90"))
	f.Set("f_freedom", json.Number("2"))
	f.Set("cis/trans", "cis")
	f.Set("custom_metric", json.Number("0.5"))
	return f
}

func TestFeatureGroups(t *testing.T) {
	groups := FeatureGroups(sampleFeatures())
	require.Len(t, groups, 3)

	assert.Equal(t, "Basic Properties", groups[0].Title)
	assert.Equal(t, []FeatureItem{
		{Key: "identificator", Name: "Identifier", Value: "mol-1"},
		{Key: "dipole_moment", Name: "Dipole Moment", Value: "2.1235"},
		{Key: "sasa", Name: "SASA", Value: "0"},
		{Key: "tpsa+f", Name: "TPSA+F", Value: "False"},
	}, groups[0].Items)

	assert.Equal(t, GroupAngles, groups[1].Key)
	assert.Equal(t, []FeatureItem{
		{Key: "angle_X1X2R2", Name: "Angle X1X2R2", Value: "109.5000°"},
		{Key: "angle_R1X1R2", Name: "Angle R1X1R2", Value: "90.0000°"},
	}, groups[1].Items)

	assert.Equal(t, "Distances and Conformation", groups[2].Title)
	assert.Equal(t, []FeatureItem{
		{Key: "f_freedom", Name: "F Freedom", Value: "2"},
		{Key: "cis/trans", Name: "Cis/Trans", Value: "cis"},
	}, groups[2].Items)
}

func TestFeatureGroups_Empty(t *testing.T) {
	groups := FeatureGroups(nil)
	require.Len(t, groups, 3)
	for _, g := range groups {
		assert.Empty(t, g.Items)
		assert.NotNil(t, g.Items)
	}
}

func TestDetailedTable(t *testing.T) {
	table := DetailedTable(sampleFeatures())
	assert.Empty(t, table.Message)

	keys := make([]string, len(table.Rows))
	for i, r := range table.Rows {
		keys[i] = r.Key
	}
	assert.Equal(t, []string{
		"sasa", "identificator", "dipole_moment", "tpsa+f", "angle_X1X2R2",
		"angle_R1X1R2", "f_freedom", "cis/trans", "custom_metric",
	}, keys)

	byKey := map[string]FeatureRow{}
	for _, r := range table.Rows {
		byKey[r.Key] = r
	}
	assert.Equal(t, FeatureRow{Key: "dipole_moment", Name: "Dipole Moment", Value: "2.123456", Type: "float"}, byKey["dipole_moment"])
	assert.Equal(t, FeatureRow{Key: "angle_X1X2R2", Name: "Angle X1X2R2", Value: "109.500000", Type: "float"}, byKey["angle_X1X2R2"])
	assert.Equal(t, FeatureRow{Key: "f_freedom", Name: "F Freedom", Value: json.Number("2"), Type: "int"}, byKey["f_freedom"])
	assert.Equal(t, FeatureRow{Key: "tpsa+f", Name: "TPSA+F", Value: false, Type: "bool"}, byKey["tpsa+f"])
	assert.Equal(t, FeatureRow{Key: "custom_metric", Name: "custom_metric", Value: "0.500000", Type: "float"}, byKey["custom_metric"])
	assert.Equal(t, "str", byKey["cis/trans"].Type)
}

func TestDetailedTable_Empty(t *testing.T) {
	only := domain.NewMapping()
	only.Set("sasa", nil)
	for _, f := range []*domain.Features3D{nil, domain.NewMapping(), only} {
		table := DetailedTable(f)
		assert.Empty(t, table.Rows)
		assert.Equal(t, domain.MsgNoFeatures, table.Message)
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Distance Between F-Group Centers", DisplayName("distance_between_atoms_in_f_group_centers"))
	assert.Equal(t, "unknown_key", DisplayName("unknown_key"))
}

func TestStringForm(t *testing.T) {
	nested := domain.NewMapping()
	nested.Set("b", json.Number("1"))
	nested.Set("a", "<x>")
	assert.Equal(t, `{"b":1,"a":"<x>"}`, stringForm(nested))
	assert.Equal(t, `[1,"x"]`, stringForm([]interface{}{json.Number("1"), "x"}))
	assert.Equal(t, "True", stringForm(true))
	assert.Equal(t, "None", stringForm(nil))
}
