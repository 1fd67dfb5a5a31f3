package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShot(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 30, 15, 999, time.Local)
	shot := NewShot("shot_a1b2c3", ShotFields{
		TeamShooting: "  Arsenal ",
		Opponent:     "Chelsea",
		DateOfGame:   "2025-02-28",
		MatchMinute:  77,
	}, now)

	assert.Equal(t, "Arsenal", shot.TeamShooting)
	assert.Equal(t, AICertaintyPending, shot.AICertainty)
	assert.False(t, shot.Annotated)
	assert.Equal(t, time.UTC, shot.CreatedAt.Location())
	assert.Zero(t, shot.CreatedAt.Nanosecond())
}

func TestShotJSONIsFlat(t *testing.T) {
	shot := NewShot("shot_a1b2c3", ShotFields{TeamShooting: "A", Opponent: "B", DateOfGame: "2025-01-01"}, time.Now())
	data, err := json.Marshal(shot)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "A", raw["team_shooting"])
	assert.Equal(t, "TBD", raw["ai_certainty"])
	assert.Equal(t, false, raw["annotated"])
}

func TestSameGame(t *testing.T) {
	a := ShotFields{TeamShooting: "A", Opponent: "B", DateOfGame: "2025-01-01", MatchMinute: 3}
	assert.True(t, a.SameGame(ShotFields{TeamShooting: "A ", Opponent: "B", DateOfGame: "2025-01-01", MatchMinute: 90}))
	assert.False(t, a.SameGame(ShotFields{TeamShooting: "A", Opponent: "C", DateOfGame: "2025-01-01"}))
	assert.False(t, a.SameGame(ShotFields{TeamShooting: "A", Opponent: "B", DateOfGame: "2025-01-02"}))
}

func TestDefaultAnnotation(t *testing.T) {
	a := DefaultAnnotation("shot_42")
	assert.Equal(t, "shot_42", a.ShotID)
	assert.True(t, a.LooksGood)
	assert.Equal(t, BodyPartLeftFoot, a.BodyPart)
	assert.Equal(t, ExecutionFirstTime, a.ExecutionType)
	assert.Empty(t, a.GoalkeeperPosition)
	assert.NotNil(t, a.GoalkeeperPosition)
	assert.Equal(t, AssistThroughBall, a.AssistType)
	assert.Equal(t, TrajectoryGround, a.PassTrajectory)
	assert.Zero(t, a.Touches)
	assert.Equal(t, SetPieceLiveBall, a.LastSetPiece)
	assert.Empty(t, a.Notes)
	assert.Empty(t, a.InvalidFields())
}

func TestAnnotationNormalize(t *testing.T) {
	a := DefaultAnnotation("shot_1")
	a.GoalkeeperPosition = []GoalkeeperPosition{GoalkeeperScreened, GoalkeeperOnLine, GoalkeeperScreened}
	a.Notes = "  deflected  "

	n := a.Normalize()
	assert.Equal(t, []GoalkeeperPosition{GoalkeeperOnLine, GoalkeeperScreened}, n.GoalkeeperPosition)
	assert.Equal(t, "deflected", n.Notes)
}

func TestAnnotationInvalidFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Annotation)
		want   []string
	}{
		{"touches above bound", func(a *Annotation) { a.Touches = MaxTouches + 1 }, []string{"touches"}},
		{"negative touches", func(a *Annotation) { a.Touches = -1 }, []string{"touches"}},
		{"touches at bound", func(a *Annotation) { a.Touches = MaxTouches }, nil},
		{"unknown body part", func(a *Annotation) { a.BodyPart = "Knee" }, []string{"body_part"}},
		{"unknown keeper position", func(a *Annotation) {
			a.GoalkeeperPosition = []GoalkeeperPosition{GoalkeeperOnLine, "Sleeping"}
		}, []string{"goalkeeper_position"}},
		{"several", func(a *Annotation) {
			a.AssistType = ""
			a.LastSetPiece = "Free Kick"
		}, []string{"assist_type", "last_set_piece"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := DefaultAnnotation("shot_1")
			tt.mutate(&a)
			assert.Equal(t, tt.want, a.InvalidFields())
		})
	}
}
