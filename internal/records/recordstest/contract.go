// Package recordstest holds the behaviour every records.Store backend must
// share. Backend tests call Run with a constructor for an empty store.
package recordstest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdimtricp/xgtag/internal/records"
)

func Run(t *testing.T, newStore func(t *testing.T) records.Store) {
	ctx := context.Background()

	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, records.KindShot, "shot_000000")
		require.Error(t, err)
		assert.True(t, errors.Is(err, records.ErrNotFound))
	})

	t.Run("PutThenGet", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, records.KindShot, "shot_aaaaaa", []byte(`{"shot_id":"shot_aaaaaa"}`)))

		u, err := s.Get(ctx, records.KindShot, "shot_aaaaaa")
		require.NoError(t, err)
		assert.Equal(t, records.KindShot, u.Kind)
		assert.Equal(t, "shot_aaaaaa", u.ID)
		assert.JSONEq(t, `{"shot_id":"shot_aaaaaa"}`, string(u.Data))
	})

	t.Run("PutOverwrites", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, records.KindAnnotation, "shot_aaaaaa", []byte(`{"touches":3}`)))
		require.NoError(t, s.Put(ctx, records.KindAnnotation, "shot_aaaaaa", []byte(`{"touches":5}`)))

		units, warnings, err := s.List(ctx, records.KindAnnotation)
		require.NoError(t, err)
		assert.Empty(t, warnings)
		require.Len(t, units, 1)
		assert.JSONEq(t, `{"touches":5}`, string(units[0].Data))
	})

	t.Run("KindsDoNotCollide", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, records.KindShot, "shot_aaaaaa", []byte(`{"kind":"shot"}`)))
		require.NoError(t, s.Put(ctx, records.KindAnnotation, "shot_aaaaaa", []byte(`{"kind":"annotation"}`)))

		shots, _, err := s.List(ctx, records.KindShot)
		require.NoError(t, err)
		require.Len(t, shots, 1)
		assert.JSONEq(t, `{"kind":"shot"}`, string(shots[0].Data))

		annotations, _, err := s.List(ctx, records.KindAnnotation)
		require.NoError(t, err)
		require.Len(t, annotations, 1)
		assert.Equal(t, "shot_aaaaaa", annotations[0].ID)
		assert.JSONEq(t, `{"kind":"annotation"}`, string(annotations[0].Data))
	})

	t.Run("ListIsSortedByID", func(t *testing.T) {
		s := newStore(t)
		for _, id := range []string{"shot_cccccc", "shot_aaaaaa", "shot_bbbbbb"} {
			require.NoError(t, s.Put(ctx, records.KindShot, id, []byte(`{}`)))
		}
		units, _, err := s.List(ctx, records.KindShot)
		require.NoError(t, err)
		require.Len(t, units, 3)
		assert.Equal(t, "shot_aaaaaa", units[0].ID)
		assert.Equal(t, "shot_bbbbbb", units[1].ID)
		assert.Equal(t, "shot_cccccc", units[2].ID)
	})

	t.Run("DeleteAll", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, records.KindShot, "shot_aaaaaa", []byte(`{}`)))
		require.NoError(t, s.Put(ctx, records.KindShot, "shot_bbbbbb", []byte(`{}`)))
		require.NoError(t, s.Put(ctx, records.KindAnnotation, "shot_aaaaaa", []byte(`{}`)))

		n, err := s.DeleteAll(ctx, records.KindShot)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		shots, _, err := s.List(ctx, records.KindShot)
		require.NoError(t, err)
		assert.Empty(t, shots)

		annotations, _, err := s.List(ctx, records.KindAnnotation)
		require.NoError(t, err)
		assert.Len(t, annotations, 1, "deleting shots must leave annotations alone")

		n, err = s.DeleteAll(ctx, records.KindShot)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("RejectsInvalidIDs", func(t *testing.T) {
		s := newStore(t)
		for _, id := range []string{"", "../escape", "a/b", ".hidden"} {
			err := s.Put(ctx, records.KindShot, id, []byte(`{}`))
			assert.True(t, errors.Is(err, records.ErrInvalidID), "id %q", id)
		}
	})
}
