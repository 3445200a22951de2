package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/fluoriclogppka-studio/internal/application/reporting"
	"github.com/turtacn/fluoriclogppka-studio/internal/application/session"
	"github.com/turtacn/fluoriclogppka-studio/internal/domain/molecule"
	domain "github.com/turtacn/fluoriclogppka-studio/internal/domain/prediction"
	"github.com/turtacn/fluoriclogppka-studio/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/fluoriclogppka-studio/internal/interfaces/http/middleware"
	apperrors "github.com/turtacn/fluoriclogppka-studio/pkg/errors"
)

// ActionResponse is returned by the session actions.
type ActionResponse struct {
	Outcome session.Outcome `json:"outcome"`
	View    reporting.View  `json:"view"`
}

// TargetRequest selects the property to predict.
type TargetRequest struct {
	Target string `json:"target"`
}

// SessionHandler runs one action per request against the caller's session:
// load, act, save.
type SessionHandler struct {
	actions  *session.Actions
	store    session.Store
	exporter *reporting.Exporter
	logger   logging.Logger
}

func NewSessionHandler(actions *session.Actions, store session.Store, exporter *reporting.Exporter, logger logging.Logger) *SessionHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &SessionHandler{actions: actions, store: store, exporter: exporter, logger: logger}
}

func (h *SessionHandler) load(c *gin.Context) (*domain.State, bool) {
	st, err := session.LoadOrNew(c.Request.Context(), h.store, middleware.GetSessionID(c))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return st, true
}

// finish saves next and renders the outcome.  The state is saved even when
// the action failed, since a rejected submission clears the molecule.
func (h *SessionHandler) finish(c *gin.Context, next *domain.State, out session.Outcome) {
	if err := h.store.Save(c.Request.Context(), middleware.GetSessionID(c), next); err != nil {
		h.logger.WithContext(c.Request.Context()).Error("failed to save session", logging.Err(err))
		writeError(c, err)
		return
	}
	if !out.OK() {
		code := out.Code
		if code == "" {
			code = apperrors.ErrCodeInternal
		}
		writeError(c, apperrors.New(code, out.Message))
		return
	}
	writeData(c, http.StatusOK, ActionResponse{Outcome: out, View: reporting.BuildView(next)})
}

// SubmitMolecule handles POST /api/v1/session/molecule with either a JSON
// MoleculeRequest or a multipart "file" upload.
func (h *SessionHandler) SubmitMolecule(c *gin.Context) {
	st, ok := h.load(c)
	if !ok {
		return
	}
	var in molecule.Input
	if isMultipart(c) {
		f, err := fileInput(c)
		if err != nil {
			writeError(c, err)
			return
		}
		in = f
	} else {
		var req MoleculeRequest
		if err := bindJSON(c, &req); err != nil {
			writeError(c, err)
			return
		}
		r, err := req.Input()
		if err != nil {
			writeError(c, err)
			return
		}
		in = r
	}
	next, out := h.actions.SubmitMolecule(c.Request.Context(), st, in)
	h.finish(c, next, out)
}

// RunPrediction handles POST /api/v1/session/predictions.
func (h *SessionHandler) RunPrediction(c *gin.Context) {
	var req TargetRequest
	if err := bindJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}
	target, err := parseTarget(req.Target)
	if err != nil {
		writeError(c, err)
		return
	}
	st, ok := h.load(c)
	if !ok {
		return
	}
	next, out := h.actions.RunPrediction(c.Request.Context(), st, target)
	h.finish(c, next, out)
}

// Compute3DFeatures handles POST /api/v1/session/features3d.
func (h *SessionHandler) Compute3DFeatures(c *gin.Context) {
	st, ok := h.load(c)
	if !ok {
		return
	}
	next, out := h.actions.Compute3DFeatures(c.Request.Context(), st)
	h.finish(c, next, out)
}

// Get handles GET /api/v1/session.
func (h *SessionHandler) Get(c *gin.Context) {
	st, ok := h.load(c)
	if !ok {
		return
	}
	writeData(c, http.StatusOK, reporting.BuildView(st))
}

// Delete handles DELETE /api/v1/session.
func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), middleware.GetSessionID(c)); err != nil {
		writeError(c, err)
		return
	}
	writeData(c, http.StatusOK, reporting.BuildView(nil))
}

// Export handles GET /api/v1/session/features3d/export.  By default the file
// is returned as an attachment; with ?store=true it is uploaded to the
// object store and a download link is returned instead.
func (h *SessionHandler) Export(c *gin.Context) {
	st, ok := h.load(c)
	if !ok {
		return
	}
	if !st.HasPrediction() || !st.Current.HasFeatures() {
		writeError(c, apperrors.New(apperrors.ErrCodeFeaturesNotAvailable, domain.MsgNoFeatures))
		return
	}
	features := st.Current.Features3D

	store, _ := strconv.ParseBool(c.Query("store"))
	if store {
		artifact, err := h.exporter.Store(c.Request.Context(), middleware.GetSessionID(c), features)
		if err != nil {
			writeError(c, err)
			return
		}
		writeData(c, http.StatusCreated, artifact)
		return
	}

	data, err := reporting.ExportJSON(features)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", reporting.ExportFileName))
	c.Data(http.StatusOK, reporting.ExportContentType, data)
}
