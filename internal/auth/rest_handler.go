package auth

import (
	"net/http"

	"chatrelay/infrastructure"
	"chatrelay/internal/user"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type JSONHandler struct {
	authUseCase UseCase
	log         *zap.Logger
}

func NewJSONHandler(authUseCase UseCase, log *zap.Logger) *JSONHandler {
	return &JSONHandler{authUseCase: authUseCase, log: log}
}

type signInRequest struct {
	Email    string `json:"email" binding:"required"`
	Username string `json:"username" binding:"required"`
	Picture  string `json:"picture"`
}

// SignIn handles POST /auth/google with the profile the identity provider
// returned to the client.
func (h *JSONHandler) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user data"})
		return
	}

	token, u, err := h.authUseCase.SignIn(c.Request.Context(), user.Profile{
		Email:    req.Email,
		Username: req.Username,
		Picture:  req.Picture,
	})
	if err != nil {
		status := infrastructure.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			h.log.Error("sign-in failed", zap.Error(err))
		}
		c.JSON(status, gin.H{"error": infrastructure.PublicMessage(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": u})
}
