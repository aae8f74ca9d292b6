package handlers

import (
	"net/http"

	"learnapp/internal/observability"
	"learnapp/internal/services"

	"github.com/gin-gonic/gin"
)

// LoginRequest accepts a username or an email address in Username.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries the refresh token to rotate.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AuthHandler handles registration, login and token rotation
type AuthHandler struct {
	authService services.AuthServiceInterface
	userService services.UserServiceInterface
	logger      *observability.Logger
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(authService services.AuthServiceInterface, userService services.UserServiceInterface, logger *observability.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		logger:      logger,
	}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "register")
	defer observability.FinishSpan(span, nil)

	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	user, err := h.authService.Register(ctx, req)
	if err != nil {
		h.logger.Warn(ctx, "Registration failed", map[string]interface{}{"username": req.Username, "error": err.Error()})
		HandleAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "login")
	defer observability.FinishSpan(span, nil)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	pair, err := h.authService.Login(ctx, req.Username, req.Password)
	if err != nil {
		h.logger.Warn(ctx, "Login failed", map[string]interface{}{"username": req.Username})
		HandleAppError(c, err)
		return
	}

	h.logger.Info(ctx, "User logged in", map[string]interface{}{"user_id": pair.User.ID})
	c.JSON(http.StatusOK, pair)
}

// Refresh handles POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "refresh")
	defer observability.FinishSpan(span, nil)

	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	pair, err := h.authService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "logout")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.authService.Logout(ctx, userID); err != nil {
		h.logger.Error(ctx, "Logout failed", err, map[string]interface{}{"user_id": userID})
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "me")
	defer observability.FinishSpan(span, nil)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUserByID(ctx, userID)
	if err != nil {
		HandleAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
