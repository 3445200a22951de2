package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/fluoriclogppka-studio/internal/application/reporting"
	"github.com/turtacn/fluoriclogppka-studio/internal/domain/molecule"
	"github.com/turtacn/fluoriclogppka-studio/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/fluoriclogppka-studio/pkg/errors"
)

// NormalizeResponse is the identifier produced from a submission.
type NormalizeResponse struct {
	SMILES      string          `json:"smiles"`
	Method      molecule.Method `json:"method"`
	MethodLabel string          `json:"method_label"`
}

// MoleculeHandler serves stateless normalization and molecule info.
type MoleculeHandler struct {
	normalizer *molecule.Normalizer
	logger     logging.Logger
}

func NewMoleculeHandler(normalizer *molecule.Normalizer, logger logging.Logger) *MoleculeHandler {
	if normalizer == nil {
		normalizer = molecule.NewNormalizer()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &MoleculeHandler{normalizer: normalizer, logger: logger}
}

// Normalize handles POST /api/v1/molecules/normalize.
func (h *MoleculeHandler) Normalize(c *gin.Context) {
	var req MoleculeRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	in, err := req.Input()
	if err != nil {
		writeError(c, err)
		return
	}
	h.normalize(c, in)
}

// NormalizeSDF handles POST /api/v1/molecules/normalize/sdf.
func (h *MoleculeHandler) NormalizeSDF(c *gin.Context) {
	in, err := fileInput(c)
	if err != nil {
		writeError(c, err)
		return
	}
	h.normalize(c, in)
}

func (h *MoleculeHandler) normalize(c *gin.Context, in molecule.Input) {
	id, ok, err := h.normalizer.Normalize(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		writeError(c, noMolecule(in.Method()))
		return
	}
	writeData(c, http.StatusOK, NormalizeResponse{
		SMILES:      id.String(),
		Method:      in.Method(),
		MethodLabel: in.Method().Label(),
	})
}

// Info handles GET /api/v1/molecules/:smiles/info.
func (h *MoleculeHandler) Info(c *gin.Context) {
	raw := c.Param("smiles")
	id, ok := molecule.Validate(raw)
	if !ok {
		writeError(c, apperrors.New(apperrors.ErrCodeMoleculeInvalidSMILES, molecule.MsgNoMolecule).WithDetail(raw))
		return
	}
	summary, err := reporting.MoleculeInfo(id)
	if err != nil {
		writeError(c, err)
		return
	}
	writeData(c, http.StatusOK, summary)
}
