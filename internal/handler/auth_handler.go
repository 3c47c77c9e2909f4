package handler

import (
	"net/http"

	"github.com/Baaaki/buy-sell-store/internal/middleware"
	"github.com/Baaaki/buy-sell-store/internal/service"
	"github.com/Baaaki/buy-sell-store/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// LoginRequest identifies the account by login or email.
type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates an account.
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	logger.Log.Info("User registration attempt",
		zap.String("login", req.Login),
		zap.String("role", string(req.Role)),
		zap.String("ip", c.ClientIP()),
	)

	user, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    service.NewUserProfile(user),
	})
}

// Login opens a session and sets it as an HttpOnly cookie.
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	logger.Log.Info("User login attempt",
		zap.String("login", req.Login),
		zap.String("ip", c.ClientIP()),
	)

	user, token, err := h.authService.Login(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		middleware.SessionCookie,
		token,
		int(h.authService.SessionTTL().Seconds()),
		"/",
		"",
		h.authService.IsProduction(), // secure: HTTPS-only in production
		true,                         // httpOnly
	)

	c.JSON(http.StatusOK, gin.H{
		"message": "Hello, " + user.Login + "!",
		"user":    service.NewUserProfile(user),
	})
}

// Logout invalidates the current session and clears the cookie.
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	if err := h.authService.Logout(c.Request.Context(), p); err != nil {
		respondError(c, err)
		return
	}

	clearSessionCookie(c, h.authService.IsProduction())

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func clearSessionCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", secure, true)
}

// Me returns the caller's own profile.
// GET /api/users/me
func (h *AuthHandler) Me(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	user, err := h.authService.CurrentUser(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, service.NewUserProfile(user))
}
