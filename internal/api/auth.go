package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/recipehub/backend/internal/auth"
)

// IdentityGateway is the slice of the auth gateway the handlers need.
type IdentityGateway interface {
	Verify(ctx context.Context, credential string) (*auth.Principal, error)
	SignUp(ctx context.Context, email, password, name string) (*auth.Principal, error)
}

type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
}

type AuthHandler struct {
	gateway IdentityGateway
}

func NewAuthHandler(gateway IdentityGateway) *AuthHandler {
	return &AuthHandler{gateway: gateway}
}

func (h *AuthHandler) RegisterRoutes(router gin.IRouter) {
	router.POST("/signup", h.SignUp)
}

// SignUp creates a user at the identity provider. No credential is issued
// here; the client logs in against the provider directly.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email, password, and name are required"})
		return
	}

	user, err := h.gateway.SignUp(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
