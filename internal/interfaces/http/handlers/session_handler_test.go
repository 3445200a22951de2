package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/fluoriclogppka-studio/internal/application/reporting"
	"github.com/turtacn/fluoriclogppka-studio/internal/application/session"
	"github.com/turtacn/fluoriclogppka-studio/internal/domain/molecule"
	domain "github.com/turtacn/fluoriclogppka-studio/internal/domain/prediction"
	"github.com/turtacn/fluoriclogppka-studio/internal/interfaces/http/middleware"
	"github.com/turtacn/fluoriclogppka-studio/pkg/chem"
	apperrors "github.com/turtacn/fluoriclogppka-studio/pkg/errors"
)

const sid = "session-1"

func (e *testEnv) predictedSession(t *testing.T) {
	t.Helper()
	e.predictReturns(4.2)
	w := e.do(http.MethodPost, "/session/molecule", sid, MoleculeRequest{SMILES: "OCC"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = e.do(http.MethodPost, "/session/predictions", sid, TargetRequest{Target: "pKa"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestSession_NewSessionIssuesID(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(http.MethodGet, "/session", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderSessionID))

	var view reporting.View
	decodeData(t, w, &view)
	assert.Equal(t, molecule.MsgNoMolecule, view.Notice)
	assert.Nil(t, view.Molecule)
}

func TestSession_SubmitMolecule(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(http.MethodPost, "/session/molecule", sid, MoleculeRequest{SMILES: " OCC "})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, sid, w.Header().Get(middleware.HeaderSessionID))

	var resp ActionResponse
	decodeData(t, w, &resp)
	assert.Equal(t, session.LevelSuccess, resp.Outcome.Level)
	assert.Equal(t, session.MsgMoleculeFrom+molecule.MethodSMILES.Label(), resp.Outcome.Message)
	require.NotNil(t, resp.View.Molecule)
	assert.Equal(t, "CCO", resp.View.Molecule.SMILES)

	st, err := env.store.Load(context.Background(), sid)
	require.NoError(t, err)
	assert.Equal(t, molecule.Identifier("CCO"), st.Molecule)
}

func TestSession_SubmitMoleculeMultipart(t *testing.T) {
	env := newTestEnv(t)
	sdf := chem.MolBlock(chem.MustParseSMILES("CCO"), "ethanol")
	req := multipartFile(t, "/session/molecule", "ethanol.sdf", []byte(sdf))
	req.Header.Set(middleware.HeaderSessionID, sid)
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	st, err := env.store.Load(context.Background(), sid)
	require.NoError(t, err)
	assert.Equal(t, molecule.MethodSDF, st.Method)
}

func TestSession_InvalidSubmissionClearsMolecule(t *testing.T) {
	env := newTestEnv(t)
	env.predictedSession(t)

	w := env.do(http.MethodPost, "/session/molecule", sid, MoleculeRequest{SMILES: "C1CC"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, molecule.MsgNoMolecule, decodeError(t, w).Message)

	st, err := env.store.Load(context.Background(), sid)
	require.NoError(t, err)
	assert.False(t, st.HasMolecule())
	assert.True(t, st.HasPrediction(), "prediction survives a rejected submission")
}

func TestSession_EmptyEditorIsInfo(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(http.MethodPost, "/session/molecule", sid, `{"method":"editor"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ActionResponse
	decodeData(t, w, &resp)
	assert.Equal(t, session.LevelInfo, resp.Outcome.Level)
	assert.Equal(t, molecule.MsgDrawMolecule, resp.Outcome.Message)
}

func TestSession_RunPrediction(t *testing.T) {
	env := newTestEnv(t)
	env.predictedSession(t)

	w := env.do(http.MethodGet, "/session", sid, nil)
	var view reporting.View
	decodeData(t, w, &view)
	require.NotNil(t, view.Prediction)
	assert.Equal(t, "pKa: 4.2000", view.Prediction.Headline)
	assert.Equal(t, "🧪", view.Prediction.Icon)
	assert.Nil(t, view.Features)
}

func TestSession_RunPredictionWithoutMolecule(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(http.MethodPost, "/session/predictions", sid, TargetRequest{Target: "logP"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, apperrors.ErrCodeMoleculeNoInput.String(), decodeError(t, w).Code)
	assert.Empty(t, env.client.PredictCalls())
}

func TestSession_FailedPredictionKeepsPrevious(t *testing.T) {
	env := newTestEnv(t)
	env.predictedSession(t)
	env.predictFails("model offline")

	w := env.do(http.MethodPost, "/session/predictions", sid, TargetRequest{Target: "logP"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, decodeError(t, w).Message, "model offline")

	st, err := env.store.Load(context.Background(), sid)
	require.NoError(t, err)
	require.True(t, st.HasPrediction())
	assert.Equal(t, domain.TargetPKa, st.Current.Target)
}

func TestSession_Compute3DFeatures(t *testing.T) {
	env := newTestEnv(t)
	env.predictedSession(t)
	env.featuresReturn(sampleFeatures())

	w := env.do(http.MethodPost, "/session/features3d", sid, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ActionResponse
	decodeData(t, w, &resp)
	assert.Equal(t, session.MsgFeaturesCalculated, resp.Outcome.Message)
	require.NotNil(t, resp.View.Features)
	assert.Len(t, resp.View.Features.Table.Rows, 3)
	assert.Equal(t, reporting.ExportFileName, resp.View.Features.ExportFileName)

	calls := env.client.Features3DCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "CCO", calls[0].SMILES)
	assert.Equal(t, "pKa", calls[0].TargetValue)
}

func TestSession_Compute3DFeaturesWithoutPrediction(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(http.MethodPost, "/session/features3d", sid, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, session.MsgNoPrediction, decodeError(t, w).Message)
}

func TestSession_Compute3DFeaturesEmpty(t *testing.T) {
	env := newTestEnv(t)
	env.predictedSession(t)
	env.featuresReturn(domain.NewMapping())

	w := env.do(http.MethodPost, "/session/features3d", sid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp ActionResponse
	decodeData(t, w, &resp)
	assert.Equal(t, session.LevelInfo, resp.Outcome.Level)
	assert.Equal(t, domain.MsgNoFeatures, resp.Outcome.Message)
	assert.Nil(t, resp.View.Features)
}

func TestSession_Delete(t *testing.T) {
	env := newTestEnv(t)
	env.predictedSession(t)

	w := env.do(http.MethodDelete, "/session", sid, nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, err := env.store.Load(context.Background(), sid)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSession_ExportAttachment(t *testing.T) {
	env := newTestEnv(t)
	env.predictedSession(t)
	env.featuresReturn(sampleFeatures())
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/session/features3d", sid, nil).Code)

	w := env.do(http.MethodGet, "/session/features3d/export", sid, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, `attachment; filename="3d_features.json"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), reporting.ExportContentType))
	assert.Equal(t, "{\n    \"dipole_moment\": 1.85,\n    \"sasa\": 120.5,\n    \"homo_energy\": -0.25\n}", w.Body.String())
}

func TestSession_ExportStored(t *testing.T) {
	env := newTestEnv(t)
	env.predictedSession(t)
	env.featuresReturn(sampleFeatures())
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/session/features3d", sid, nil).Code)

	w := env.do(http.MethodGet, "/session/features3d/export?store=true", sid, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var artifact reporting.Artifact
	decodeData(t, w, &artifact)
	assert.True(t, strings.HasPrefix(artifact.Key, "exports/"+sid+"/"))
	assert.Equal(t, "https://objects.test/"+artifact.Key, artifact.URL)
	require.Contains(t, env.artifacts.puts, artifact.Key)
	assert.True(t, json.Valid(env.artifacts.puts[artifact.Key]))
}

func TestSession_ExportStoreFailure(t *testing.T) {
	env := newTestEnv(t)
	env.predictedSession(t)
	env.featuresReturn(sampleFeatures())
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/session/features3d", sid, nil).Code)
	env.artifacts.putErr = apperrors.New(apperrors.ErrCodeStorageError, "bucket unavailable")

	w := env.do(http.MethodGet, "/session/features3d/export?store=1", sid, nil)
	assert.GreaterOrEqual(t, w.Code, 500)
	assert.Equal(t, "bucket unavailable", decodeError(t, w).Message)
}

func TestSession_ExportWithoutFeatures(t *testing.T) {
	env := newTestEnv(t)
	env.predictedSession(t)

	w := env.do(http.MethodGet, "/session/features3d/export", sid, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, domain.MsgNoFeatures, decodeError(t, w).Message)
}

type failingStore struct{ session.Store }

func (failingStore) Load(ctx context.Context, id string) (*domain.State, error) {
	return nil, errors.New("connection reset")
}

func TestSession_StoreFailureIsMasked(t *testing.T) {
	env := newTestEnv(t)
	sh := NewSessionHandler(nil, failingStore{}, nil, nil)
	env.engine.GET("/broken", sh.Get)

	w := env.do(http.MethodGet, "/broken", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, apperrors.ErrCodeInternal.String(), body.Code)
	assert.NotContains(t, body.Message, "connection reset")
}
