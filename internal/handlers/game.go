package handlers

import (
	"net/http"
	"strconv"

	"chessmistry-api/internal/middleware"
	"chessmistry-api/internal/models"
	"chessmistry-api/internal/services"

	"github.com/gin-gonic/gin"
)

// GameHandler serves game results, history and the leaderboard
type GameHandler struct {
	gameService *services.GameService
}

func NewGameHandler(gameService *services.GameService) *GameHandler {
	return &GameHandler{gameService: gameService}
}

// SaveGameRequest is a finished game as reported by the client
type SaveGameRequest struct {
	OpponentType    string  `json:"opponentType"`
	GameMode        string  `json:"gameMode"`
	Result          string  `json:"result"`
	TotalMoves      int     `json:"totalMoves"`
	DurationSeconds int     `json:"durationSeconds"`
	PGN             string  `json:"pgn"`
	BlunderCount    int     `json:"blunderCount"`
	AccuracyScore   float64 `json:"accuracyScore"`
}

func (r SaveGameRequest) toInput() (models.GameInput, error) {
	opponent, err := models.ParseOpponentType(r.OpponentType)
	if err != nil {
		return models.GameInput{}, err
	}
	mode, err := models.ParseGameMode(r.GameMode)
	if err != nil {
		return models.GameInput{}, err
	}
	result, err := models.ParseGameResult(r.Result)
	if err != nil {
		return models.GameInput{}, err
	}
	return models.GameInput{
		OpponentType:    opponent,
		GameMode:        mode,
		Result:          result,
		TotalMoves:      r.TotalMoves,
		DurationSeconds: r.DurationSeconds,
		PGN:             r.PGN,
		BlunderCount:    r.BlunderCount,
		AccuracyScore:   r.AccuracyScore,
	}, nil
}

// SaveGame records a finished game for the caller
func (h *GameHandler) SaveGame(c *gin.Context) {
	var req SaveGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	in, err := req.toInput()
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	record, err := h.gameService.RecordGame(c.Request.Context(), middleware.Username(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Game saved!", "gameId": record.ID})
}

// GameHistory returns the caller's games, newest first
func (h *GameHandler) GameHistory(c *gin.Context) {
	records, err := h.gameService.History(c.Request.Context(), middleware.Username(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// Leaderboard ranks users by wins. ?limit is optional.
func (h *GameHandler) Leaderboard(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := h.gameService.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
