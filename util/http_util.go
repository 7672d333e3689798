// api/util/http_util.go
package util

import (
	logger "github.com/dev-mohitbeniwal/warden/api/logging"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RespondWithError(c *gin.Context, code int, message string, err error) {
	logger.Error(message,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method))
	c.JSON(code, gin.H{"error": message})
}

func GetPrincipalIDFromContext(c *gin.Context) string {
	principalID, exists := c.Get("principalID")
	if !exists {
		return ""
	}
	return principalID.(string)
}
