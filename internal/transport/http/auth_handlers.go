package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/HieuNguyenGIT/alo-draft-app-BE/internal/auth"
	"github.com/HieuNguyenGIT/alo-draft-app-BE/internal/store"
)

// AuthHandlers provides HTTP handlers for authentication endpoints.
type AuthHandlers struct {
	authService *auth.Service
	log         *zerolog.Logger
}

// NewAuthHandlers creates a new auth handlers instance.
func NewAuthHandlers(authService *auth.Service, logger *zerolog.Logger) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		log:         logger,
	}
}

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthResponse represents the authentication response body.
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

func userResponse(u *store.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Register handles user registration.
// POST /api/auth/register
func (h *AuthHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid register request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	token, user, err := h.authService.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "user already exists"})
		case errors.Is(err, auth.ErrInvalidName):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "name must be between 2 and 64 characters"})
		case errors.Is(err, auth.ErrInvalidEmail):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid email address"})
		case errors.Is(err, auth.ErrInvalidPassword):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "password must be at least 6 characters"})
		default:
			h.log.Error().Err(err).Str("email", req.Email).Msg("failed to register user")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	h.log.Info().Str("email", user.Email).Int64("user_id", user.ID).Msg("user registered successfully")
	c.JSON(http.StatusCreated, AuthResponse{Token: token, User: userResponse(user)})
}

// Login handles user login.
// POST /api/auth/login
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid login request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
			return
		}
		h.log.Error().Err(err).Str("email", req.Email).Msg("failed to login user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("email", user.Email).Int64("user_id", user.ID).Msg("user logged in successfully")
	c.JSON(http.StatusOK, AuthResponse{Token: token, User: userResponse(user)})
}

// Me returns the authenticated user's identity from the token claims.
// GET /api/auth/me
func (h *AuthHandlers) Me(c *gin.Context) {
	uid, ok := currentUserID(c, h.log)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, UserResponse{
		ID:    uid,
		Name:  c.GetString(ContextKeyUserName),
		Email: c.GetString(ContextKeyUserEmail),
	})
}
