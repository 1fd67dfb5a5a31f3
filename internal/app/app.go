package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/kdimtricp/xgtag/internal/config"
	"github.com/kdimtricp/xgtag/internal/database"
	"github.com/kdimtricp/xgtag/internal/lifecycle"
	"github.com/kdimtricp/xgtag/internal/logger"
	"github.com/kdimtricp/xgtag/internal/navigation"
	"github.com/kdimtricp/xgtag/internal/projections"
	"github.com/kdimtricp/xgtag/internal/records"
	"github.com/kdimtricp/xgtag/internal/storage"
)

// Services is the wired object graph shared by the server and the CLI.
type Services struct {
	Log         *logger.Logger
	Cfg         config.Config
	DB          *database.DB
	Records     *records.Repository
	Media       storage.Storage
	Lifecycle   *lifecycle.Manager
	Navigator   *navigation.Navigator
	Projections *projections.Service

	closers []io.Closer
}

// Wire opens the configured record and media backends and builds the
// services on top of them. Close releases whatever was opened.
func Wire(ctx context.Context, cfg config.Config, log *logger.Logger) (*Services, error) {
	s := &Services{Log: log, Cfg: cfg}

	store, err := s.openRecordStore(ctx)
	if err != nil {
		s.Close()
		return nil, err
	}
	media, err := s.openMedia(ctx)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.Records = records.NewRepository(store, log)
	s.Media = media
	s.Lifecycle = lifecycle.NewManager(s.Records, media, log)
	s.Navigator = navigation.NewNavigator(s.Records, media, s.Lifecycle, log)
	s.Projections = projections.NewService(s.Records)
	return s, nil
}

func (s *Services) openRecordStore(ctx context.Context) (records.Store, error) {
	rc := s.Cfg.Records
	switch rc.Backend {
	case config.BackendFile:
		s.Log.Info("Using file record store", "dir", rc.DataDir)
		return records.NewFileStore(rc.DataDir)

	case config.BackendSQLite, config.BackendPostgres:
		db, err := OpenDatabase(s.Cfg)
		if err != nil {
			return nil, err
		}
		s.DB = db
		s.closers = append(s.closers, db)
		if err := db.RunMigrations(rc.Database.MigrationsPath, s.Log); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return database.NewRecordRepository(db), nil

	case config.BackendRedis:
		rs, err := records.NewRedisStore(ctx, rc.Redis.Addr, rc.Redis.Prefix)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, rs)
		s.Log.Info("Using redis record store", "addr", rc.Redis.Addr, "prefix", rc.Redis.Prefix)
		return rs, nil
	}
	return nil, fmt.Errorf("unknown record backend %q", rc.Backend)
}

func (s *Services) openMedia(ctx context.Context) (storage.Storage, error) {
	mc := s.Cfg.Media
	switch mc.Backend {
	case config.MediaLocal:
		s.Log.Info("Using local media store", "dir", mc.Dir)
		return storage.NewLocalStorage(mc.Dir)
	case config.MediaGCS:
		gs, err := storage.NewGCSStorage(ctx, storage.GCSConfig{
			Bucket:       mc.GCS.Bucket,
			Prefix:       mc.GCS.Prefix,
			EmulatorHost: mc.GCS.EmulatorHost,
		}, s.Log)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, gs)
		return gs, nil
	}
	return nil, fmt.Errorf("unknown media backend %q", mc.Backend)
}

// OpenDatabase connects to the SQL backend named in cfg.
func OpenDatabase(cfg config.Config) (*database.DB, error) {
	dc := cfg.Records.Database
	db, err := database.NewDB(database.Config{
		Type:       cfg.Records.Backend,
		Host:       dc.Host,
		Port:       dc.Port,
		User:       dc.User,
		Password:   dc.Password,
		Name:       dc.Name,
		SQLitePath: dc.Path,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}

func (s *Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
