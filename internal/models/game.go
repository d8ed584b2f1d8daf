package models

import (
	"fmt"
	"strings"
	"time"
)

// GameResult is the outcome of a finished game from the owner's side
type GameResult string

const (
	ResultWin  GameResult = "WIN"
	ResultLoss GameResult = "LOSS"
	ResultDraw GameResult = "DRAW"
)

// OpponentType tells whether the game was played against a person or the bot
type OpponentType string

const (
	OpponentHuman OpponentType = "HUMAN"
	OpponentBot   OpponentType = "BOT"
)

// GameMode is one of the supported play modes
type GameMode string

const (
	ModeManual     GameMode = "MANUAL"
	ModeEasy       GameMode = "EASY"
	ModeHard       GameMode = "HARD"
	ModeUnbeatable GameMode = "UNBEATABLE"
	ModeClassic    GameMode = "CLASSIC"
	ModeChallenge  GameMode = "CHALLENGE"
)

var (
	gameResults   = []GameResult{ResultWin, ResultLoss, ResultDraw}
	opponentTypes = []OpponentType{OpponentHuman, OpponentBot}
	gameModes     = []GameMode{ModeManual, ModeEasy, ModeHard, ModeUnbeatable, ModeClassic, ModeChallenge}
)

// ParseGameResult converts a wire value (case-insensitive) into a GameResult.
func ParseGameResult(s string) (GameResult, error) {
	return parseVariant(s, "result", gameResults)
}

// ParseOpponentType converts a wire value (case-insensitive) into an OpponentType.
func ParseOpponentType(s string) (OpponentType, error) {
	return parseVariant(s, "opponent type", opponentTypes)
}

// ParseGameMode converts a wire value (case-insensitive) into a GameMode.
func ParseGameMode(s string) (GameMode, error) {
	return parseVariant(s, "game mode", gameModes)
}

func (r GameResult) Valid() bool   { return contains(gameResults, r) }
func (o OpponentType) Valid() bool { return contains(opponentTypes, o) }
func (m GameMode) Valid() bool     { return contains(gameModes, m) }

func parseVariant[T ~string](s, what string, allowed []T) (T, error) {
	v := T(strings.ToUpper(strings.TrimSpace(s)))
	if contains(allowed, v) {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("unknown %s %q", what, s)
}

func contains[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// GameInput is the client's report of a finished game
type GameInput struct {
	OpponentType    OpponentType
	GameMode        GameMode
	Result          GameResult
	TotalMoves      int
	DurationSeconds int
	PGN             string
	BlunderCount    int
	AccuracyScore   float64
}

// GameRecord is an immutable entry of a user's game history
type GameRecord struct {
	ID              int64        `json:"id"`
	UserID          int64        `json:"userId"`
	OpponentType    OpponentType `json:"opponentType"`
	GameMode        GameMode     `json:"gameMode"`
	Result          GameResult   `json:"result"`
	TotalMoves      int          `json:"totalMoves"`
	DurationSeconds int          `json:"durationSeconds"`
	PGN             string       `json:"pgn"`
	BlunderCount    int          `json:"blunderCount"`
	AccuracyScore   float64      `json:"accuracyScore"`
	PlayedAt        time.Time    `json:"playedAt"`
}

// NewGameRecord snapshots in as a record owned by userID and played at now.
func NewGameRecord(userID int64, in GameInput, now time.Time) *GameRecord {
	return &GameRecord{
		UserID:          userID,
		OpponentType:    in.OpponentType,
		GameMode:        in.GameMode,
		Result:          in.Result,
		TotalMoves:      in.TotalMoves,
		DurationSeconds: in.DurationSeconds,
		PGN:             in.PGN,
		BlunderCount:    in.BlunderCount,
		AccuracyScore:   in.AccuracyScore,
		PlayedAt:        now.UTC(),
	}
}
