package storage

import (
	"context"
	"errors"
	"io"
)

var ErrMediaNotFound = errors.New("media not found")

// Storage keeps one video blob per shot, keyed by shot id.
type Storage interface {
	Put(ctx context.Context, shotID string, r io.Reader) error
	Exists(ctx context.Context, shotID string) (bool, error)
	// Open returns ErrMediaNotFound when no blob is stored for shotID.
	Open(ctx context.Context, shotID string) (io.ReadCloser, error)
	Delete(ctx context.Context, shotID string) error
	DeleteAll(ctx context.Context) (int, error)
}

const mediaExt = ".mp4"

// ObjectName is the blob name of a shot's video.
func ObjectName(shotID string) string {
	return shotID + mediaExt
}
