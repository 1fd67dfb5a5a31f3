package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/kdimtricp/xgtag/internal/logger"
)

type GCSConfig struct {
	Bucket string
	// Prefix is prepended to every object name, e.g. "videos/".
	Prefix string
	// EmulatorHost points the client at a fake-gcs-server style emulator.
	EmulatorHost string
}

// GCSStorage stores shot videos as objects in a Cloud Storage bucket.
type GCSStorage struct {
	client *gcs.Client
	bucket string
	prefix string
	log    *logger.Logger
}

func NewGCSStorage(ctx context.Context, cfg GCSConfig, baseLog *logger.Logger) (*GCSStorage, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("missing GCS bucket name")
	}

	var opts []option.ClientOption
	if host := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/"); host != "" {
		_ = os.Setenv("STORAGE_EMULATOR_HOST", host)
		opts = append(opts, option.WithoutAuthentication())
	} else {
		opts = append(opts, option.WithScopes(gcs.ScopeReadWrite))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	log := baseLog.With("service", "GCSStorage")
	log.Info("Object storage initialized", "bucket", cfg.Bucket, "prefix", cfg.Prefix, "emulator_host", cfg.EmulatorHost)

	return &GCSStorage{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
		log:    log,
	}, nil
}

func (gs *GCSStorage) Close() error {
	return gs.client.Close()
}

func (gs *GCSStorage) object(shotID string) *gcs.ObjectHandle {
	return gs.client.Bucket(gs.bucket).Object(gs.prefix + ObjectName(shotID))
}

func (gs *GCSStorage) Put(ctx context.Context, shotID string, r io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := gs.object(shotID).NewWriter(ctx)
	w.ContentType = "video/mp4"
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (gs *GCSStorage) Exists(ctx context.Context, shotID string) (bool, error) {
	_, err := gs.object(shotID).Attrs(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat GCS object: %w", err)
	}
	return true, nil
}

func (gs *GCSStorage) Open(ctx context.Context, shotID string) (io.ReadCloser, error) {
	rc, err := gs.object(shotID).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMediaNotFound, shotID)
		}
		return nil, fmt.Errorf("failed to open GCS object: %w", err)
	}
	return rc, nil
}

func (gs *GCSStorage) Delete(ctx context.Context, shotID string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := gs.object(shotID).Delete(ctx); err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete GCS object for %s: %w", shotID, err)
	}
	return nil
}

func (gs *GCSStorage) DeleteAll(ctx context.Context) (int, error) {
	it := gs.client.Bucket(gs.bucket).Objects(ctx, &gcs.Query{Prefix: gs.prefix})

	deleted := 0
	var errs []error
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return deleted, fmt.Errorf("failed to list GCS objects: %w", err)
		}
		if !strings.HasSuffix(attrs.Name, mediaExt) {
			continue
		}
		if err := gs.client.Bucket(gs.bucket).Object(attrs.Name).Delete(ctx); err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
			errs = append(errs, fmt.Errorf("failed to delete GCS object %q: %w", attrs.Name, err))
			continue
		}
		deleted++
	}
	if len(errs) > 0 {
		gs.log.Warn("Some media objects could not be deleted", "failed", len(errs))
	}
	return deleted, errors.Join(errs...)
}
