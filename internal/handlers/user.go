package handlers

import (
	"errors"
	"net/http"

	"chessmistry-api/internal/apperrors"
	"chessmistry-api/internal/middleware"
	"chessmistry-api/internal/services"

	"github.com/gin-gonic/gin"
)

// UserHandler serves the profile endpoints under /api/user
type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

type themeRequest struct {
	Theme string `json:"theme"`
}

type displayNameRequest struct {
	DisplayName string `json:"displayName"`
}

// Profile returns the caller's full profile
func (h *UserHandler) Profile(c *gin.Context) {
	user, err := h.userService.Profile(c.Request.Context(), middleware.Username(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateTheme handles PUT /api/user/theme
func (h *UserHandler) UpdateTheme(c *gin.Context) {
	var req themeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	user, err := h.userService.UpdateTheme(c.Request.Context(), middleware.Username(c), req.Theme)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": user.ThemePreference, "message": "Theme updated!"})
}

// UpdateDisplayName handles PUT /api/user/display-name
func (h *UserHandler) UpdateDisplayName(c *gin.Context) {
	var req displayNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	user, err := h.userService.UpdateDisplayName(c.Request.Context(), middleware.Username(c), req.DisplayName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"displayName": user.DisplayName, "message": "Name updated!"})
}

// multipartOverhead is the room left for boundaries and part headers.
const multipartOverhead = 64 << 10

// UploadPhoto handles the multipart field "photo"
func (h *UserHandler) UploadPhoto(c *gin.Context) {
	limit := h.userService.MaxUploadBytes()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartOverhead)

	header, err := c.FormFile("photo")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, apperrors.Validation("photo must be at most %d bytes", limit))
			return
		}
		badRequest(c, "photo file is required")
		return
	}

	file, err := header.Open()
	if err != nil {
		badRequest(c, "photo file is unreadable")
		return
	}
	defer file.Close()

	photoURL, err := h.userService.UploadPhoto(c.Request.Context(), middleware.Username(c), header.Filename, file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"photoUrl": photoURL, "message": "Profile photo updated!"})
}
