package httpapi

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/common"
	"storefront/internal/logging"
	"storefront/internal/server/models"
	"storefront/internal/server/services"
)

const (
	ctxUserKey  = "currentUser"
	ctxTokenKey = "token"
)

// requireAuth rejects requests without a valid bearer token, resolves
// the account behind it, and stores the user and the raw token on the
// request context. A token whose account has since disappeared is as
// good as no token.
func requireAuth(authSvc *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			writeAuthError(c, "missing_token", "authorization header required")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeAuthError(c, "token_malformed", "authorization header must be a bearer token")
			return
		}

		claims, err := authSvc.VerifyToken(c.Request.Context(), parts[1])
		if err != nil {
			writeError(c, err)
			return
		}

		user, err := authSvc.Profile(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				writeAuthError(c, "unknown_user", "account no longer exists")
				return
			}
			writeError(c, err)
			return
		}

		c.Set(ctxUserKey, user)
		c.Set(ctxTokenKey, parts[1])
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// requestLogger logs one line per request with method, path, status and
// latency.
func requestLogger(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
