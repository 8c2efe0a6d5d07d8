package handler

import (
	"github.com/gin-gonic/gin"
	invoicingapp "github.com/invoicely/backend/internal/application/invoicing"
	"github.com/invoicely/backend/internal/interfaces/http/middleware"
)

// AuthHandler handles sign-in callbacks from the hosted auth provider.
// Credentials never reach this service; it only sees validated tokens.
type AuthHandler struct {
	BaseHandler
	userService *invoicingapp.UserService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userService *invoicingapp.UserService) *AuthHandler {
	return &AuthHandler{
		userService: userService,
	}
}

// Callback godoc
// @ID           authCallback
// @Summary      Complete sign-in
// @Description  Ensures a user record exists for the bearer token's subject and returns it
// @Tags         auth
// @Produce      json
// @Success      200 {object} APIResponse[invoicing.UserResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/callback [post]
func (h *AuthHandler) Callback(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	user, err := h.userService.EnsureUser(c.Request.Context(), invoicingapp.Identity{
		ID:    claims.UserID(),
		Email: claims.Email,
		Name:  claims.Name,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, user)
}
