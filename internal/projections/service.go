package projections

import (
	"context"
	"net/url"
	"sort"

	"github.com/kdimtricp/xgtag/internal/models"
	"github.com/kdimtricp/xgtag/internal/records"
)

const EditPath = "/annotate"

type Queue struct {
	Shots    []models.Shot     `json:"shots"`
	Warnings []records.Warning `json:"warnings,omitempty"`
}

type SummaryRow struct {
	models.Annotation
	EditLink string `json:"edit_link"`
}

type Summary struct {
	Rows     []SummaryRow      `json:"rows"`
	Warnings []records.Warning `json:"warnings,omitempty"`
}

type Service struct {
	repo *records.Repository
}

func NewService(repo *records.Repository) *Service {
	return &Service{repo: repo}
}

// Unannotated lists shots still waiting for an annotation, newest game first.
func (s *Service) Unannotated(ctx context.Context) (Queue, error) {
	shots, warnings, err := s.repo.Shots(ctx)
	if err != nil {
		return Queue{}, err
	}

	queue := make([]models.Shot, 0, len(shots))
	for _, shot := range shots {
		if !shot.Annotated {
			queue = append(queue, shot)
		}
	}
	sort.SliceStable(queue, func(i, j int) bool {
		di, dj := queue[i].GameDate(), queue[j].GameDate()
		if !di.Equal(dj) {
			return di.After(dj)
		}
		return queue[i].ShotID > queue[j].ShotID
	})

	return Queue{Shots: queue, Warnings: warnings}, nil
}

// Summary lists every annotation, highest shot id first, each with a link
// back to its edit view.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	annotations, warnings, err := s.repo.Annotations(ctx)
	if err != nil {
		return Summary{}, err
	}

	sort.SliceStable(annotations, func(i, j int) bool {
		return annotations[i].ShotID > annotations[j].ShotID
	})

	rows := make([]SummaryRow, 0, len(annotations))
	for _, a := range annotations {
		rows = append(rows, SummaryRow{Annotation: a, EditLink: EditLink(a.ShotID)})
	}
	return Summary{Rows: rows, Warnings: warnings}, nil
}

func EditLink(shotID string) string {
	return EditPath + "?" + url.Values{"shot_id": {shotID}}.Encode()
}
