package models

import (
	"time"
)

// DefaultTheme is the theme preference of a freshly registered user.
const DefaultTheme = "dark"

// User represents a player account and its lifetime running totals
type User struct {
	ID              int64  `json:"id"`
	Username        string `json:"username"`
	PasswordHash    string `json:"-"`
	DisplayName     string `json:"displayName"`
	ProfilePhotoURL string `json:"profilePhotoUrl,omitempty"`

	// Chess stats
	Wins          int `json:"wins"`
	Losses        int `json:"losses"`
	Draws         int `json:"draws"`
	GamesPlayed   int `json:"gamesPlayed"`
	TotalMoves    int `json:"totalMoves"`
	BestStreak    int `json:"bestStreak"`
	CurrentStreak int `json:"currentStreak"`

	// Device last seen
	DeviceID   string `json:"deviceId,omitempty"`
	DeviceName string `json:"deviceName,omitempty"`

	ThemePreference string `json:"themePreference"`

	// Timestamps
	JoinedAt  time.Time `json:"joinedAt"`
	LastLogin time.Time `json:"lastLogin"`
}

// NewUser creates a new user with default values
func NewUser(username, passwordHash, displayName string) *User {
	now := time.Now().UTC()
	if displayName == "" {
		displayName = username // Default to username
	}
	return &User{
		Username:        username,
		PasswordHash:    passwordHash,
		DisplayName:     displayName,
		ThemePreference: DefaultTheme,
		JoinedAt:        now,
		LastLogin:       now,
	}
}

// SetDevice records the device the user was last seen on. An empty id leaves
// the stored device untouched.
func (u *User) SetDevice(deviceID, deviceName string) {
	if deviceID == "" {
		return
	}
	u.DeviceID = deviceID
	u.DeviceName = deviceName
}

// Touch stamps the last activity time.
func (u *User) Touch(now time.Time) {
	u.LastLogin = now.UTC()
}

// ApplyResult folds one finished game into the running totals.
//
// Draws neither extend nor break the current streak.
func (u *User) ApplyResult(result GameResult, moves int) {
	u.GamesPlayed++
	u.TotalMoves += moves

	switch result {
	case ResultWin:
		u.Wins++
		u.CurrentStreak++
		if u.CurrentStreak > u.BestStreak {
			u.BestStreak = u.CurrentStreak
		}
	case ResultLoss:
		u.Losses++
		u.CurrentStreak = 0
	case ResultDraw:
		u.Draws++
	}
}

// LeaderboardEntry is the public ranking view of a user
type LeaderboardEntry struct {
	Rank            int    `json:"rank"`
	Username        string `json:"username"`
	DisplayName     string `json:"displayName"`
	ProfilePhotoURL string `json:"profilePhotoUrl,omitempty"`
	Wins            int    `json:"wins"`
	Losses          int    `json:"losses"`
	Draws           int    `json:"draws"`
	GamesPlayed     int    `json:"gamesPlayed"`
	BestStreak      int    `json:"bestStreak"`
}

// NewLeaderboardEntry builds the ranking view of u at the given 1-based rank.
func NewLeaderboardEntry(rank int, u *User) LeaderboardEntry {
	return LeaderboardEntry{
		Rank:            rank,
		Username:        u.Username,
		DisplayName:     u.DisplayName,
		ProfilePhotoURL: u.ProfilePhotoURL,
		Wins:            u.Wins,
		Losses:          u.Losses,
		Draws:           u.Draws,
		GamesPlayed:     u.GamesPlayed,
		BestStreak:      u.BestStreak,
	}
}
