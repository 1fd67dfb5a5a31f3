package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()
	storage, err := NewLocalStorage(tmpDir)
	require.NoError(t, err)

	t.Run("PutAndOpen", func(t *testing.T) {
		content := []byte("test video content")
		require.NoError(t, storage.Put(ctx, "shot_aaaaaa", bytes.NewReader(content)))

		savedPath := filepath.Join(tmpDir, "shot_aaaaaa.mp4")
		_, err := os.Stat(savedPath)
		require.NoError(t, err, "file was not saved to expected location")

		file, err := storage.Open(ctx, "shot_aaaaaa")
		require.NoError(t, err)
		defer file.Close()

		got, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, content, got)

		_, isSeeker := file.(io.ReadSeeker)
		assert.True(t, isSeeker, "local media must support range requests")
	})

	t.Run("Exists", func(t *testing.T) {
		require.NoError(t, storage.Put(ctx, "shot_bbbbbb", bytes.NewReader([]byte("x"))))

		ok, err := storage.Exists(ctx, "shot_bbbbbb")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = storage.Exists(ctx, "shot_missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("OpenMissing", func(t *testing.T) {
		_, err := storage.Open(ctx, "shot_missing")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMediaNotFound))
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, storage.Put(ctx, "shot_cccccc", bytes.NewReader([]byte("x"))))
		require.NoError(t, storage.Delete(ctx, "shot_cccccc"))

		ok, err := storage.Exists(ctx, "shot_cccccc")
		require.NoError(t, err)
		assert.False(t, ok)

		assert.NoError(t, storage.Delete(ctx, "shot_cccccc"), "deleting absent media is not an error")
	})

	t.Run("PathTraversalPrevention", func(t *testing.T) {
		_, err := storage.Open(ctx, "../../../etc/passwd")
		assert.Error(t, err, "path traversal was not prevented")

		err = storage.Put(ctx, "../escape", bytes.NewReader(nil))
		assert.Error(t, err, "path traversal was not prevented in put")

		err = storage.Delete(ctx, "a/b")
		assert.Error(t, err, "path traversal was not prevented in delete")
	})
}

func TestLocalStorage_DeleteAll(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()
	storage, err := NewLocalStorage(tmpDir)
	require.NoError(t, err)

	for _, id := range []string{"shot_aaaaaa", "shot_bbbbbb"} {
		require.NoError(t, storage.Put(ctx, id, bytes.NewReader([]byte(id))))
	}
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("keep"), 0644))

	n, err := storage.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, id := range []string{"shot_aaaaaa", "shot_bbbbbb"} {
		ok, err := storage.Exists(ctx, id)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	_, err = os.Stat(filepath.Join(tmpDir, "notes.txt"))
	assert.NoError(t, err, "non-media files are left alone")
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestLocalStorage_FailedPutLeavesNothing(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()
	storage, err := NewLocalStorage(tmpDir)
	require.NoError(t, err)

	require.Error(t, storage.Put(ctx, "shot_aaaaaa", failingReader{}))

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
