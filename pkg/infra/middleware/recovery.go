package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/sentinel-nlq/pkg/utils/errors"
	"github.com/kart-io/sentinel-nlq/pkg/utils/response"
)

// RecoveryConfig configures Recovery.
type RecoveryConfig struct {
	// EnableStackTrace includes the stack in the error message (development only).
	EnableStackTrace bool
}

// Recovery converts panics into an ErrPanic envelope.
func Recovery(cfg RecoveryConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			stack := debug.Stack()
			rid := GetRequestID(c.Request.Context())
			logger.Errorw("Panic recovered",
				"panic", r,
				"path", c.Request.URL.Path,
				"request_id", rid,
				"stack", string(stack),
			)

			msg := fmt.Sprintf("panic: %v", r)
			if cfg.EnableStackTrace {
				msg += "\n" + string(stack)
			}
			resp := response.Err(errors.ErrPanic.WithMessage(msg)).WithRequestID(rid)
			c.AbortWithStatusJSON(resp.HTTPStatus(), resp)
		}()
		c.Next()
	}
}
