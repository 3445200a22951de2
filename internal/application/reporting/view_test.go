package reporting

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/fluoriclogppka-studio/internal/domain/molecule"
	domain "github.com/turtacn/fluoriclogppka-studio/internal/domain/prediction"
	apperrors "github.com/turtacn/fluoriclogppka-studio/pkg/errors"
)

func TestMoleculeInfo(t *testing.T) {
	info, err := MoleculeInfo("CCO")
	require.NoError(t, err)
	assert.Equal(t, "46.07", info.WeightText)
	assert.InDelta(t, 46.07, info.MolecularWeight, 1e-9)
	assert.Equal(t, 3, info.NumAtoms)
	assert.Equal(t, 2, info.NumBonds)
	assert.Equal(t, "C2H6O", info.Formula)

	_, err = MoleculeInfo("")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeMoleculeNoInput))

	_, err = MoleculeInfo("C1CC")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodePropertiesFailed))
	assert.Contains(t, errorText(err), "Could not calculate properties: ")
}

func TestBuildView_Empty(t *testing.T) {
	v := BuildView(nil)
	assert.Equal(t, molecule.MsgNoMolecule, v.Notice)
	assert.Nil(t, v.Molecule)
	assert.Nil(t, v.Prediction)

	v = BuildView(domain.NewState())
	assert.Equal(t, molecule.MsgNoMolecule, v.Notice)
}

func TestBuildView_MoleculeOnly(t *testing.T) {
	state := domain.NewState().WithMolecule("CCO", molecule.MethodSDF)
	v := BuildView(state)
	require.NotNil(t, v.Molecule)
	assert.Empty(t, v.Notice)
	assert.Equal(t, "CCO", v.Molecule.SMILES)
	assert.Equal(t, "📁 SDF File Upload", v.Molecule.MethodLabel)
	require.NotNil(t, v.Molecule.Info)
	assert.Equal(t, 3, v.Molecule.Info.NumAtoms)
	assert.Nil(t, v.Prediction)
	assert.Nil(t, v.Features)
}

func TestBuildView_PredictionAndFeatures(t *testing.T) {
	req, err := domain.NewRequest("CCO", domain.TargetPKa, "")
	require.NoError(t, err)
	state := domain.NewState().
		WithMolecule("CCO", molecule.MethodSMILES).
		WithPrediction(domain.Succeeded(req, domain.ScalarValue(4.756234)))

	v := BuildView(state)
	require.NotNil(t, v.Prediction)
	assert.Equal(t, "pKa: 4.7562", v.Prediction.Headline)
	assert.Equal(t, "🧪", v.Prediction.Icon)
	assert.Equal(t, "gnn", v.Prediction.Parameters.ModelType)
	assert.Nil(t, v.Features)

	state, err = state.WithFeatures(sampleFeatures())
	require.NoError(t, err)
	v = BuildView(state)
	require.NotNil(t, v.Features)
	assert.Len(t, v.Features.Groups, 3)
	assert.Len(t, v.Features.Table.Rows, 9)
	assert.Equal(t, ExportFileName, v.Features.ExportFileName)

	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"raw":4.756234`)
}
