package models

import (
	"slices"
	"strings"
	"time"
)

// MaxTouches bounds Annotation.Touches (inclusive).
const MaxTouches = 10

type BodyPart string

const (
	BodyPartLeftFoot  BodyPart = "Left Foot"
	BodyPartRightFoot BodyPart = "Right Foot"
	BodyPartHeader    BodyPart = "Header"
	BodyPartOther     BodyPart = "Other"
)

var BodyParts = []BodyPart{BodyPartLeftFoot, BodyPartRightFoot, BodyPartHeader, BodyPartOther}

type ExecutionType string

const (
	ExecutionFirstTime        ExecutionType = "First-Time"
	ExecutionControlledStatic ExecutionType = "Controlled - Static"
	ExecutionControlledOnRun  ExecutionType = "Controlled - on Run"
	ExecutionVolley           ExecutionType = "Volley"
	ExecutionHalfVolley       ExecutionType = "Half-Volley"
)

var ExecutionTypes = []ExecutionType{
	ExecutionFirstTime, ExecutionControlledStatic, ExecutionControlledOnRun,
	ExecutionVolley, ExecutionHalfVolley,
}

type GoalkeeperPosition string

const (
	GoalkeeperOutOfPosition GoalkeeperPosition = "Out of Position"
	GoalkeeperOnLine        GoalkeeperPosition = "On Line"
	GoalkeeperRushing       GoalkeeperPosition = "Rushing"
	GoalkeeperScreened      GoalkeeperPosition = "Screened"
)

var GoalkeeperPositions = []GoalkeeperPosition{
	GoalkeeperOutOfPosition, GoalkeeperOnLine, GoalkeeperRushing, GoalkeeperScreened,
}

type AssistType string

const (
	AssistThroughBall AssistType = "Through Ball"
	AssistCutBack     AssistType = "Cut-Back"
	AssistCross       AssistType = "Cross"
	AssistRebound     AssistType = "Rebound"
	AssistSetPiece    AssistType = "Shot from Set Piece"
)

var AssistTypes = []AssistType{AssistThroughBall, AssistCutBack, AssistCross, AssistRebound, AssistSetPiece}

type PassTrajectory string

const (
	TrajectoryGround   PassTrajectory = "Ground Pass"
	TrajectoryLofted   PassTrajectory = "Lofted"
	TrajectoryBouncing PassTrajectory = "Bouncing"
	TrajectoryDriven   PassTrajectory = "Driven Cross"
)

var PassTrajectories = []PassTrajectory{TrajectoryGround, TrajectoryLofted, TrajectoryBouncing, TrajectoryDriven}

type SetPiece string

const (
	SetPieceLiveBall   SetPiece = "Live Ball"
	SetPieceCorner     SetPiece = "Corner"
	SetPieceDirectFK   SetPiece = "Direct FK"
	SetPieceIndirectFK SetPiece = "Indirect FK"
	SetPiecePenalty    SetPiece = "Penalty"
	SetPieceThrow      SetPiece = "Throw"
)

var SetPieces = []SetPiece{
	SetPieceLiveBall, SetPieceCorner, SetPieceDirectFK, SetPieceIndirectFK, SetPiecePenalty, SetPieceThrow,
}

// Annotation holds the human-applied tags for exactly one shot.
type Annotation struct {
	ShotID             string               `json:"shot_id"`
	LooksGood          bool                 `json:"looks_good"`
	BodyPart           BodyPart             `json:"body_part"`
	ExecutionType      ExecutionType        `json:"execution_type"`
	GoalkeeperPosition []GoalkeeperPosition `json:"goalkeeper_position"`
	AssistType         AssistType           `json:"assist_type"`
	PassTrajectory     PassTrajectory       `json:"pass_trajectory"`
	Touches            int                  `json:"touches"`
	LastSetPiece       SetPiece             `json:"last_set_piece"`
	Notes              string               `json:"notes"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

// DefaultAnnotation is the form used for a shot that has never been annotated.
func DefaultAnnotation(shotID string) Annotation {
	return Annotation{
		ShotID:             shotID,
		LooksGood:          true,
		BodyPart:           BodyParts[0],
		ExecutionType:      ExecutionTypes[0],
		GoalkeeperPosition: []GoalkeeperPosition{},
		AssistType:         AssistTypes[0],
		PassTrajectory:     PassTrajectories[0],
		Touches:            0,
		LastSetPiece:       SetPieces[0],
		Notes:              "",
	}
}

// Normalize deduplicates the goalkeeper set into option order and trims notes.
func (a Annotation) Normalize() Annotation {
	set := make([]GoalkeeperPosition, 0, len(a.GoalkeeperPosition))
	for _, opt := range GoalkeeperPositions {
		if slices.Contains(a.GoalkeeperPosition, opt) {
			set = append(set, opt)
		}
	}
	for _, p := range a.GoalkeeperPosition {
		if !slices.Contains(GoalkeeperPositions, p) && !slices.Contains(set, p) {
			set = append(set, p)
		}
	}
	a.GoalkeeperPosition = set
	a.Notes = strings.TrimSpace(a.Notes)
	return a
}

// InvalidFields returns the JSON names of fields holding values outside
// their option lists or bounds.
func (a Annotation) InvalidFields() []string {
	var bad []string
	if !slices.Contains(BodyParts, a.BodyPart) {
		bad = append(bad, "body_part")
	}
	if !slices.Contains(ExecutionTypes, a.ExecutionType) {
		bad = append(bad, "execution_type")
	}
	for _, p := range a.GoalkeeperPosition {
		if !slices.Contains(GoalkeeperPositions, p) {
			bad = append(bad, "goalkeeper_position")
			break
		}
	}
	if !slices.Contains(AssistTypes, a.AssistType) {
		bad = append(bad, "assist_type")
	}
	if !slices.Contains(PassTrajectories, a.PassTrajectory) {
		bad = append(bad, "pass_trajectory")
	}
	if a.Touches < 0 || a.Touches > MaxTouches {
		bad = append(bad, "touches")
	}
	if !slices.Contains(SetPieces, a.LastSetPiece) {
		bad = append(bad, "last_set_piece")
	}
	return bad
}
