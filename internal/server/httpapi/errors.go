package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/common"
)

// errorBody is the uniform error payload:
//
//	{"error": {"code": "email_exists", "message": "..."}}
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var errorCodes = []struct {
	sentinel error
	status   int
	code     string
}{
	{common.ErrValidation, http.StatusBadRequest, "validation_error"},
	{common.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{common.ErrTokenMalformed, http.StatusUnauthorized, "token_malformed"},
	{common.ErrTokenExpired, http.StatusUnauthorized, "token_expired"},
	{common.ErrTokenRevoked, http.StatusUnauthorized, "token_revoked"},
	{common.ErrEmailExists, http.StatusConflict, "email_exists"},
	{common.ErrNotFound, http.StatusNotFound, "not_found"},
}

// writeError maps a service error onto a stable HTTP status and error
// code. Anything unmapped becomes an opaque 500 so provider detail
// never leaks to clients.
func writeError(c *gin.Context, err error) {
	for _, m := range errorCodes {
		if errors.Is(err, m.sentinel) {
			c.AbortWithStatusJSON(m.status, errorBody{Error: errorDetail{Code: m.code, Message: err.Error()}})
			return
		}
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError,
		errorBody{Error: errorDetail{Code: "internal_error", Message: "internal error"}})
}

func writeAuthError(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: errorDetail{Code: code, Message: message}})
}
