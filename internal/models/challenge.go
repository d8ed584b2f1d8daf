package models

import (
	"fmt"
	"strings"

	"github.com/corentings/chess/v2"
)

// Difficulty is the tier of a challenge
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "BEGINNER"
	DifficultyIntermediate Difficulty = "INTERMEDIATE"
	DifficultyAdvanced     Difficulty = "ADVANCED"
)

var difficulties = []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}

// ParseDifficulty converts a wire value (case-insensitive) into a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	return parseVariant(s, "difficulty", difficulties)
}

// Challenge is a static tactical puzzle. Solution moves are served verbatim.
type Challenge struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	FEN           string     `json:"fen"`
	SolutionMoves string     `json:"solutionMoves"`
	Difficulty    Difficulty `json:"difficulty"`
	Points        int        `json:"points"`
	Active        bool       `json:"active"`

	// Turn is the side to move in FEN, derived when served
	Turn string `json:"turn,omitempty"`
}

// SideToMove parses fen and returns "white" or "black".
func SideToMove(fen string) (string, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return "", fmt.Errorf("parse fen %q: %w", fen, err)
	}
	game := chess.NewGame(opt)
	if game.Position().Turn() == chess.Black {
		return "black", nil
	}
	return "white", nil
}

func newChallenge(title, desc, fen, solution string, difficulty Difficulty, points int) *Challenge {
	return &Challenge{
		Title:         title,
		Description:   desc,
		FEN:           strings.TrimSpace(fen),
		SolutionMoves: solution,
		Difficulty:    difficulty,
		Points:        points,
		Active:        true,
	}
}

// DefaultChallenges returns the built-in challenge set seeded into an empty store.
func DefaultChallenges() []*Challenge {
	return []*Challenge{
		newChallenge(
			"Fool's Mate",
			"Deliver checkmate in 2 moves as Black",
			"rnbqkbnr/pppp1ppp/8/4p3/6P1/5P2/PPPPP2P/RNBQKBNR b KQkq g3 0 2",
			"Qh4",
			DifficultyBeginner, 10,
		),
		newChallenge(
			"Scholar's Mate Defense",
			"Defend against the Scholar's Mate and counter-attack",
			"r1bqk2r/pppp1ppp/2n2n2/2b1p3/2B1P3/2N2N2/PPPP1PPP/R1BQK2R w KQkq - 4 4",
			"d3 d6 Bg5",
			DifficultyBeginner, 15,
		),
		newChallenge(
			"Pin and Win",
			"Use a pin to win material in 3 moves",
			"r3k2r/ppp2ppp/2n1bn2/3pp3/1b1PP3/2N1BN2/PPP2PPP/R2QKB1R w KQkq - 0 8",
			"Bb5 Bd7 Bxc6",
			DifficultyIntermediate, 20,
		),
		newChallenge(
			"Back Rank Checkmate",
			"Exploit the back rank weakness for checkmate",
			"6k1/5ppp/8/8/8/8/5PPP/3R2K1 w - - 0 1",
			"Rd8",
			DifficultyIntermediate, 25,
		),
		newChallenge(
			"Smothered Mate",
			"Deliver the legendary smothered mate with the knight",
			"6rk/6pp/7N/8/8/8/8/7K w - - 0 1",
			"Nf7 Rxf7 -- Ng5 -- Qh5",
			DifficultyAdvanced, 50,
		),
		newChallenge(
			"Windmill Combination",
			"Execute a windmill to win decisive material",
			"r4rk1/pp3p1p/2p3p1/4n3/8/2N5/PPP2PPP/R3R1K1 w - - 0 1",
			"Rxe5 Rf8 Re7 Rf7 Rxf7 Rxf7",
			DifficultyAdvanced, 60,
		),
		newChallenge(
			"Zwischenzug Tactics",
			"Find the intermediate move that changes everything",
			"r1bq1rk1/pp3ppp/2nbpn2/3p4/3P4/2NBPN2/PPQ2PPP/R1B2RK1 w - - 0 1",
			"Ne5 Nxe5 Nxe5 Nxd4",
			DifficultyAdvanced, 75,
		),
		newChallenge(
			"Endgame: King & Pawn",
			"Win this classic king and pawn endgame",
			"4k3/8/8/8/8/8/4P3/4K3 w - - 0 1",
			"Ke2 Ke7 Ke3 Ke6 Ke4 Ke7 Ke5 Ke8 Kf6 Kd7 e4 Ke8 e5 Kd8 e6 Ke8 e7 Kf7 Kd7",
			DifficultyBeginner, 20,
		),
	}
}
