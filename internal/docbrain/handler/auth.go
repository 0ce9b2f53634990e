package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/docbrain/internal/docbrain/biz"
	"github.com/kart-io/docbrain/internal/model"
)

// AuthHandler handles authentication requests.
type AuthHandler struct {
	svc *biz.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *biz.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register handles user registration.
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, biz.ErrUsernameTaken) {
			writeError(c, http.StatusBadRequest, err.Error())
			return
		}
		logger.Errorf("Register failed: %v", err)
		writeError(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	c.JSON(http.StatusOK, model.AuthResponse{
		Success: true,
		Message: "Registration successful!",
		UserID:  result.UserID,
		Token:   result.Token,
		APIKey:  result.APIKey,
	})
}

// Login handles user login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		logger.Warnf("Login failed for %q: %v", req.Username, err)
		writeError(c, http.StatusUnauthorized, biz.ErrInvalidCredentials.Error())
		return
	}

	c.JSON(http.StatusOK, model.AuthResponse{
		Success: true,
		Message: "Login successful!",
		UserID:  result.UserID,
		Token:   result.Token,
		APIKey:  result.APIKey,
	})
}
