// internal/middleware/recovery_middleware.go
package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Softbalance/equipment/internal/model"
	"github.com/Softbalance/equipment/internal/utils"
)

// RecoveryMiddleware turns a handler panic into a 500. Print server relay
// clients only understand the equipment response shape, so everything
// outside /api gets an INTERNAL_ERROR result instead of the API envelope.
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		path := c.Request.URL.Path
		utils.LoggerWithRequestID(logger, GetRequestID(c)).Error("Handler panicked",
			zap.Any("panic", recovered),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Stack("stacktrace"),
		)

		if strings.HasPrefix(path, "/api/") {
			utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error", fmt.Errorf("%v", recovered))
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			model.NewResponse(model.CodeInternalError, fmt.Sprintf("internal error: %v", recovered)))
	})
}
