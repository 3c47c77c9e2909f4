package handler

import (
	"net/http"

	"github.com/Baaaki/buy-sell-store/internal/service"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService   *service.UserService
	secureCookies bool
}

func NewUserHandler(userService *service.UserService, secureCookies bool) *UserHandler {
	return &UserHandler{userService: userService, secureCookies: secureCookies}
}

// GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	profile, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// PATCH /api/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.UpdateProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	profile, err := h.userService.Update(c.Request.Context(), id, req, p)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// Delete removes the caller's account, revokes its sessions and clears the cookie.
// DELETE /api/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.userService.Delete(c.Request.Context(), id, p); err != nil {
		respondError(c, err)
		return
	}
	clearSessionCookie(c, h.secureCookies)

	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}
