package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"student-api/internal/service"
)

const msgInvalidRegistration = "A valid email and password are required"

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, message(msgInvalidRegistration))
		return
	}

	err := h.auth.Register(c.Request.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, message("User registered successfully"))
	case errors.Is(err, service.ErrAlreadyExists):
		c.JSON(http.StatusConflict, message("User already exists"))
	case errors.Is(err, service.ErrPasswordTooLong):
		c.JSON(http.StatusBadRequest, message("Password must be at most 72 bytes"))
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, message(msgInvalidRegistration))
	default:
		h.internalError(c, "register", err)
	}
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnauthorized, message("Invalid email or password"))
		return
	}

	session, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{
			"access_token": session.AccessToken,
			"token_type":   "Bearer",
			"expires_at":   session.ExpiresAt.UTC().Format(timeLayout),
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, message("Invalid email or password"))
	default:
		h.internalError(c, "login", err)
	}
}
