package middleware

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/turtacn/fluoriclogppka-studio/pkg/errors"
)

// ErrorBody is the error half of the response envelope.
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorEnvelope wraps ErrorBody as {"error": {...}}.
type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// WriteError aborts c with err rendered as an ErrorEnvelope.  AppErrors keep
// their code and status; anything else is reported as an internal error
// without exposing its text.
func WriteError(c *gin.Context, err error) {
	_ = c.Error(err)

	body := ErrorBody{RequestID: GetRequestID(c)}
	var ae *apperrors.AppError
	if apperrors.As(err, &ae) {
		body.Code = ae.Code.String()
		body.Message = ae.Message
		body.Detail = ae.Detail
		if body.Detail == "" && ae.Cause != nil {
			body.Detail = ae.Cause.Error()
		}
	} else {
		body.Code = apperrors.ErrCodeInternal.String()
		body.Message = apperrors.DefaultMessageForCode(apperrors.ErrCodeInternal)
	}
	c.AbortWithStatusJSON(apperrors.HTTPStatusForCode(apperrors.ErrorCode(body.Code)), ErrorEnvelope{Error: body})
}
