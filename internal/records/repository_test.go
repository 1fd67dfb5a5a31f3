package records_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdimtricp/xgtag/internal/logger"
	"github.com/kdimtricp/xgtag/internal/models"
	"github.com/kdimtricp/xgtag/internal/records"
)

func newRepository(t *testing.T) (*records.Repository, *records.FileStore) {
	t.Helper()
	s := newFileStore(t)
	return records.NewRepository(s, logger.Nop()), s
}

func TestRepository_ShotRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepository(t)

	shot := models.NewShot("shot_abc123", models.ShotFields{
		TeamShooting: "Arsenal",
		Opponent:     "Chelsea",
		DateOfGame:   "2025-02-28",
		MatchMinute:  12,
		ShotLocation: "Penalty Box",
		NeedsReview:  true,
	}, time.Now())
	require.NoError(t, repo.PutShot(ctx, shot))

	got, err := repo.Shot(ctx, "shot_abc123")
	require.NoError(t, err)
	assert.Equal(t, shot, got)
}

func TestRepository_SkipsCorruptUnits(t *testing.T) {
	ctx := context.Background()
	repo, s := newRepository(t)

	good := models.NewShot("shot_aaaaaa", models.ShotFields{TeamShooting: "A", Opponent: "B", DateOfGame: "2025-01-01"}, time.Now())
	require.NoError(t, repo.PutShot(ctx, good))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "shot_bad000.json"), []byte(`{"shot_id": "shot_bad0`), 0644))

	shots, warnings, err := repo.Shots(ctx)
	require.NoError(t, err)
	require.Len(t, shots, 1)
	assert.Equal(t, "shot_aaaaaa", shots[0].ShotID)
	require.Len(t, warnings, 1)
	assert.Equal(t, "shot_bad000", warnings[0].Unit)
	assert.Contains(t, warnings[0].String(), "shot_bad000")
}

func TestRepository_RejectsMismatchedIDs(t *testing.T) {
	ctx := context.Background()
	repo, s := newRepository(t)

	require.NoError(t, s.Put(ctx, records.KindAnnotation, "shot_aaaaaa", []byte(`{"shot_id":"shot_bbbbbb"}`)))
	require.NoError(t, s.Put(ctx, records.KindAnnotation, "shot_cccccc", []byte(`null`)))

	annotations, warnings, err := repo.Annotations(ctx)
	require.NoError(t, err)
	assert.Empty(t, annotations)
	require.Len(t, warnings, 2)
	assert.Equal(t, "annotation_shot_aaaaaa", warnings[0].Unit)
	assert.Equal(t, "annotation_shot_cccccc", warnings[1].Unit)
}

func TestRepository_CorruptLookupIsNotFound(t *testing.T) {
	ctx := context.Background()
	repo, s := newRepository(t)

	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "shot_bad000.json"), []byte(`not json`), 0644))

	_, err := repo.Shot(ctx, "shot_bad000")
	assert.True(t, errors.Is(err, records.ErrNotFound))

	exists, err := repo.Exists(ctx, records.KindShot, "shot_bad000")
	require.NoError(t, err)
	assert.True(t, exists, "an unreadable unit still occupies its id")
}

func TestRepository_AnnotationUpsert(t *testing.T) {
	ctx := context.Background()
	repo, _ := newRepository(t)

	a := models.DefaultAnnotation("shot_abc123")
	a.Touches = 3
	require.NoError(t, repo.PutAnnotation(ctx, &a))
	a.Touches = 5
	require.NoError(t, repo.PutAnnotation(ctx, &a))

	all, _, err := repo.Annotations(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 5, all[0].Touches)

	_, err = repo.Annotation(ctx, "shot_zzzzzz")
	assert.True(t, errors.Is(err, records.ErrNotFound))
}
