package testutil_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/fluoriclogppka-studio/internal/domain/prediction"
	"github.com/turtacn/fluoriclogppka-studio/internal/intelligence/fluoriclogppka"
	"github.com/turtacn/fluoriclogppka-studio/internal/testutil"
)

func TestMockClient_Records(t *testing.T) {
	m := testutil.NewMockClient()
	m.PredictFunc = func(ctx context.Context, req *fluoriclogppka.PredictRequest) (prediction.Value, error) {
		return prediction.ScalarValue(1.5), nil
	}
	v, err := m.Predict(context.Background(), &fluoriclogppka.PredictRequest{SMILES: "C", TargetValue: "pKa"})
	require.NoError(t, err)
	assert.Equal(t, json.Number("1.5"), v.Scalar())
	assert.Len(t, m.PredictCalls(), 1)

	f, err := m.Features3D(context.Background(), &fluoriclogppka.Features3DRequest{SMILES: "C"})
	require.NoError(t, err)
	assert.Equal(t, 0, f.Len())
	assert.Len(t, m.Features3DCalls(), 1)

	require.NoError(t, m.Close())
	assert.True(t, m.Closed())
}
