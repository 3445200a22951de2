package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/fluoriclogppka-studio/internal/application/prediction"
	"github.com/turtacn/fluoriclogppka-studio/internal/application/reporting"
	"github.com/turtacn/fluoriclogppka-studio/internal/domain/molecule"
	domain "github.com/turtacn/fluoriclogppka-studio/internal/domain/prediction"
	apperrors "github.com/turtacn/fluoriclogppka-studio/pkg/errors"
)

// PredictRequest is the body of the stateless prediction endpoints.
type PredictRequest struct {
	SMILES string `json:"smiles"`
	Target string `json:"target"`
}

// PredictResponse carries a successful result and its rendering.
type PredictResponse struct {
	Result   *domain.Result `json:"result"`
	Value    string         `json:"value"`
	Headline string         `json:"headline"`
}

// FeaturesResponse carries descriptors and their grouped and tabular forms.
type FeaturesResponse struct {
	SMILES   string                   `json:"smiles"`
	Target   domain.Target            `json:"target"`
	Features *domain.Features3D       `json:"features"`
	Groups   []reporting.FeatureGroup `json:"groups"`
	Table    reporting.Table          `json:"table"`
}

// PredictionHandler serves predictions that bypass the session.
type PredictionHandler struct {
	gateway prediction.Gateway
}

func NewPredictionHandler(gateway prediction.Gateway) *PredictionHandler {
	return &PredictionHandler{gateway: gateway}
}

func (h *PredictionHandler) parse(c *gin.Context) (molecule.Identifier, domain.Target, bool) {
	var req PredictRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return "", "", false
	}
	target, err := parseTarget(req.Target)
	if err != nil {
		writeError(c, err)
		return "", "", false
	}
	id, ok := molecule.Validate(req.SMILES)
	if !ok {
		writeError(c, apperrors.New(apperrors.ErrCodeMoleculeInvalidSMILES, molecule.MsgNoMolecule).WithDetail(req.SMILES))
		return "", "", false
	}
	return id, target, true
}

// Predict handles POST /api/v1/predictions.
func (h *PredictionHandler) Predict(c *gin.Context) {
	id, target, ok := h.parse(c)
	if !ok {
		return
	}
	res := h.gateway.Predict(c.Request.Context(), id, target)
	if !res.Success {
		writeError(c, apperrors.New(apperrors.ErrCodeAIInferenceFailed, res.ErrorMessage))
		return
	}
	writeData(c, http.StatusOK, PredictResponse{
		Result:   res,
		Value:    reporting.DisplayValue(res),
		Headline: reporting.Headline(res),
	})
}

// Features3D handles POST /api/v1/features3d.
func (h *PredictionHandler) Features3D(c *gin.Context) {
	id, target, ok := h.parse(c)
	if !ok {
		return
	}
	f, err := h.gateway.Compute3DFeatures(c.Request.Context(), id, target)
	if err != nil {
		writeError(c, err)
		return
	}
	if f == nil {
		f = domain.NewMapping()
	}
	writeData(c, http.StatusOK, FeaturesResponse{
		SMILES:   id.String(),
		Target:   target,
		Features: f,
		Groups:   reporting.FeatureGroups(f),
		Table:    reporting.DetailedTable(f),
	})
}
