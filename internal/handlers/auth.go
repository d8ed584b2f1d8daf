package handlers

import (
	"net/http"
	"time"

	"chessmistry-api/internal/services"

	"github.com/gin-gonic/gin"
)

const appVersion = "1.0.0"

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"displayName"`
	DeviceID    string `json:"deviceId"`
	DeviceName  string `json:"deviceName"`
}

// LoginRequest represents a user login request
type LoginRequest struct {
	Username   string `json:"username" binding:"required"`
	Password   string `json:"password" binding:"required"`
	DeviceID   string `json:"deviceId"`
	DeviceName string `json:"deviceName"`
}

// AuthResponse is the body returned by register and login
type AuthResponse struct {
	Token           string    `json:"token"`
	ExpiresAt       time.Time `json:"expiresAt"`
	Username        string    `json:"username"`
	DisplayName     string    `json:"displayName"`
	ProfilePhotoURL string    `json:"profilePhotoUrl"`
	Wins            int       `json:"wins"`
	Losses          int       `json:"losses"`
	Draws           int       `json:"draws"`
	GamesPlayed     int       `json:"gamesPlayed"`
	ThemePreference string    `json:"themePreference"`
	Message         string    `json:"message"`
}

func newAuthResponse(res *services.SessionResult) AuthResponse {
	u := res.User
	return AuthResponse{
		Token:           res.Token,
		ExpiresAt:       res.ExpiresAt,
		Username:        u.Username,
		DisplayName:     u.DisplayName,
		ProfilePhotoURL: u.ProfilePhotoURL,
		Wins:            u.Wins,
		Losses:          u.Losses,
		Draws:           u.Draws,
		GamesPlayed:     u.GamesPlayed,
		ThemePreference: u.ThemePreference,
		Message:         res.Message,
	}
}

// Ping reports that the API is up
func (h *AuthHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"app":     "rChessMistry",
		"by":      "TheRJHub",
		"version": appVersion,
	})
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "username and password are required")
		return
	}

	res, err := h.authService.Register(c.Request.Context(), services.RegisterInput{
		Username:    req.Username,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		DeviceID:    req.DeviceID,
		DeviceName:  req.DeviceName,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newAuthResponse(res))
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "username and password are required")
		return
	}

	res, err := h.authService.Login(c.Request.Context(), services.LoginInput{
		Username:   req.Username,
		Password:   req.Password,
		DeviceID:   req.DeviceID,
		DeviceName: req.DeviceName,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newAuthResponse(res))
}

// CheckUsername tells whether a username can still be registered
func (h *AuthHandler) CheckUsername(c *gin.Context) {
	username := c.Param("username")

	available, err := h.authService.UsernameAvailable(c.Request.Context(), username)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Username is taken. Try another. ❌"
	if available {
		message = "Username is available! ✅"
	}
	c.JSON(http.StatusOK, gin.H{
		"username":  username,
		"available": available,
		"message":   message,
	})
}
