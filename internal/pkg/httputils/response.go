// Package httputils writes the unified JSON envelope from gin handlers.
package httputils

import (
	stderrors "errors"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/sentinel-nlq/pkg/infra/middleware"
	"github.com/kart-io/sentinel-nlq/pkg/utils/errors"
	"github.com/kart-io/sentinel-nlq/pkg/utils/response"
)

// WriteResponse writes data on success or the error envelope otherwise.
// Causes of domain errors are appended to the message; internal errors keep
// their generic text and are only logged.
func WriteResponse(c *gin.Context, err error, data any) {
	rid := middleware.GetRequestID(c.Request.Context())

	if err != nil {
		e := errors.FromError(err)
		resp := response.Err(e).WithRequestID(rid)
		cause := stderrors.Unwrap(e)
		if cause != nil && !errors.IsCode(e, errors.ErrInternal.Code) {
			resp.Message = e.MessageEN + ": " + cause.Error()
		}
		if resp.HTTPStatus() >= 500 {
			logger.Errorw("Request failed", "path", c.FullPath(), "request_id", rid, "error", err)
		}
		c.JSON(resp.HTTPStatus(), resp)
		return
	}

	if resp, ok := data.(*response.Response); ok {
		c.JSON(resp.HTTPStatus(), resp.WithRequestID(rid))
		return
	}
	c.JSON(200, response.Success(data).WithRequestID(rid))
}

// WriteMessage writes a success envelope with a custom message.
func WriteMessage(c *gin.Context, message string, data any) {
	WriteResponse(c, nil, response.SuccessWithMessage(message, data))
}
