package prediction_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/fluoriclogppka-studio/internal/domain/prediction"
)

func TestValue_Scalar(t *testing.T) {
	v := prediction.ScalarValue(4.756234)
	assert.False(t, v.IsMapping())
	assert.Equal(t, json.Number("4.756234"), v.Scalar())

	got, ok := v.Select(prediction.TargetPKa)
	assert.True(t, ok)
	assert.Equal(t, json.Number("4.756234"), got)

	assert.Equal(t, json.Number("3.0"), prediction.ScalarValue(3.0).Scalar())
	assert.Equal(t, json.Number("3"), prediction.ScalarValue(3).Scalar())
	assert.Equal(t, "n/a", prediction.ScalarValue("n/a").Scalar())
}

func TestValue_Mapping(t *testing.T) {
	var v prediction.Value
	require.NoError(t, json.Unmarshal([]byte(`{"pKa": 4.756234, "logP": 1.2}`), &v))
	assert.True(t, v.IsMapping())

	got, ok := v.Select(prediction.TargetPKa)
	assert.True(t, ok)
	assert.Equal(t, json.Number("4.756234"), got)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"pKa": 4.756234, "logP": 1.2}`, string(out))

	_, ok = prediction.MappingValue(prediction.NewMapping()).Select(prediction.TargetLogP)
	assert.False(t, ok)
}

func TestValue_ZeroAndNull(t *testing.T) {
	var v prediction.Value
	assert.True(t, v.IsZero())
	_, ok := v.Select(prediction.TargetPKa)
	assert.False(t, ok)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))

	require.NoError(t, json.Unmarshal([]byte(`null`), &v))
	assert.True(t, v.IsZero())

	assert.True(t, prediction.ValueOf(nil).IsZero())
	assert.True(t, prediction.ValueOf(map[string]interface{}{"pKa": 1.0}).IsMapping())
}

func TestNumeric(t *testing.T) {
	tests := []struct {
		in   interface{}
		f    float64
		kind prediction.NumberKind
	}{
		{json.Number("12"), 12, prediction.IntNumber},
		{json.Number("1.5"), 1.5, prediction.FloatNumber},
		{json.Number("1e3"), 1000, prediction.FloatNumber},
		{2.25, 2.25, prediction.FloatNumber},
		{7, 7, prediction.IntNumber},
		{true, 0, prediction.NotNumber},
		{"1.0", 0, prediction.NotNumber},
		{nil, 0, prediction.NotNumber},
	}
	for _, tt := range tests {
		f, kind := prediction.Numeric(tt.in)
		assert.Equal(t, tt.kind, kind, "%#v", tt.in)
		assert.Equal(t, tt.f, f, "%#v", tt.in)
	}
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "float", prediction.TypeName(json.Number("0.5")))
	assert.Equal(t, "int", prediction.TypeName(json.Number("5")))
	assert.Equal(t, "str", prediction.TypeName("cis"))
	assert.Equal(t, "bool", prediction.TypeName(false))
	assert.Equal(t, "list", prediction.TypeName([]interface{}{1}))
	assert.Equal(t, "dict", prediction.TypeName(prediction.NewMapping()))
}
