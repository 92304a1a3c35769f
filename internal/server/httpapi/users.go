package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront/internal/common"
	"storefront/internal/server/repositories/users"
	"storefront/internal/server/services"
)

// UserHandler exposes account and session endpoints.
type UserHandler struct {
	auth *services.AuthService
}

func NewUserHandler(auth *services.AuthService) *UserHandler {
	return &UserHandler{auth: auth}
}

func (h *UserHandler) Register(c *gin.Context) {
	var in services.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, common.ErrValidation)
		return
	}

	user, err := h.auth.Register(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, common.ErrValidation)
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

func (h *UserHandler) Logout(c *gin.Context) {
	token := c.GetString(ctxTokenKey)

	revoked, err := h.auth.Logout(c.Request.Context(), token)
	if err != nil {
		writeError(c, err)
		return
	}
	// Degraded-cache revocations are not durable; the header lets
	// clients tell the difference without changing the status code.
	c.Header("X-Revocation-Durable", strconv.FormatBool(revoked))
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Profile(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

type updateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Phone     *string `json:"phone"`
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, common.ErrValidation)
		return
	}

	user, err := h.auth.UpdateProfile(c.Request.Context(), currentUser(c).ID, users.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, common.ErrValidation)
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), currentUser(c).ID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) List(c *gin.Context) {
	limit, offset := pageParams(c)

	list, err := h.auth.Users(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
