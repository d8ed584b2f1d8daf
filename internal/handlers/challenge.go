package handlers

import (
	"net/http"

	"chessmistry-api/internal/services"

	"github.com/gin-gonic/gin"
)

type ChallengeHandler struct {
	challengeService *services.ChallengeService
}

func NewChallengeHandler(challengeService *services.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{challengeService: challengeService}
}

// Public lists every active challenge
func (h *ChallengeHandler) Public(c *gin.Context) {
	challenges, err := h.challengeService.ListActive(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, challenges)
}

// ByDifficulty lists the active challenges of :level
func (h *ChallengeHandler) ByDifficulty(c *gin.Context) {
	challenges, err := h.challengeService.ListByDifficulty(c.Request.Context(), c.Param("level"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, challenges)
}
