package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	authorizationHeader = "Authorization"
	ctxUserID           = "userId"
)

// userIdMiddleware requires a valid "Bearer <jwt>" header and stores the operator id in the context.
func (h *Handler) userIdMiddleware(c *gin.Context) {
	header := c.GetHeader(authorizationHeader)
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing Authorization header",
		})
		return
	}

	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid Authorization header format",
		})
		return
	}

	userId, err := h.services.ParseToken(token)
	if err != nil {
		if h.log != nil {
			h.log.Debugw("auth_token_rejected", "err", err, "path", c.FullPath())
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid or expired token",
		})
		return
	}

	c.Set(ctxUserID, userId)
	c.Next()
}
