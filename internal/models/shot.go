package models

import (
	"strings"
	"time"
)

const (
	// AICertaintyPending is the placeholder stored in every new shot.
	AICertaintyPending = "TBD"
	// DateLayout is the serialized form of DateOfGame.
	DateLayout     = "2006-01-02"
	MaxMatchMinute = 120
)

// ShotFields are the operator-supplied metadata of a shot.
type ShotFields struct {
	TeamShooting string `json:"team_shooting"`
	Opponent     string `json:"opponent"`
	DateOfGame   string `json:"date_of_game"`
	MatchMinute  int    `json:"match_minute"`
	ShotLocation string `json:"shot_location"`
	NeedsReview  bool   `json:"needs_review"`
}

type Shot struct {
	ShotID string `json:"shot_id"`
	ShotFields
	AICertainty string    `json:"ai_certainty"`
	Annotated   bool      `json:"annotated"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewShot(id string, fields ShotFields, now time.Time) *Shot {
	return &Shot{
		ShotID:      id,
		ShotFields:  fields.Normalize(),
		AICertainty: AICertaintyPending,
		Annotated:   false,
		CreatedAt:   now.UTC().Truncate(time.Second),
	}
}

// Normalize trims the free-text fields.
func (f ShotFields) Normalize() ShotFields {
	f.TeamShooting = strings.TrimSpace(f.TeamShooting)
	f.Opponent = strings.TrimSpace(f.Opponent)
	f.DateOfGame = strings.TrimSpace(f.DateOfGame)
	f.ShotLocation = strings.TrimSpace(f.ShotLocation)
	return f
}

// SameGame reports whether two submissions describe the same team, opponent
// and game date. It is the duplicate criterion for new shots.
func (f ShotFields) SameGame(other ShotFields) bool {
	a, b := f.Normalize(), other.Normalize()
	return a.TeamShooting == b.TeamShooting &&
		a.Opponent == b.Opponent &&
		a.DateOfGame == b.DateOfGame
}

// GameDate parses DateOfGame. The zero time is returned for unparseable values.
func (s Shot) GameDate() time.Time {
	t, err := time.Parse(DateLayout, s.DateOfGame)
	if err != nil {
		return time.Time{}
	}
	return t
}
