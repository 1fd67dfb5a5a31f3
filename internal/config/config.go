package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// PathEnv names the variable consulted when no config path is given.
const PathEnv = "XGTAG_CONFIG"

const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"

	MediaLocal = "local"
	MediaGCS   = "gcs"
)

type Config struct {
	Port          string        `yaml:"port"`
	MaxUploadSize int64         `yaml:"max_upload_size"`
	LogMode       string        `yaml:"log_mode"`
	Records       RecordsConfig `yaml:"records"`
	Media         MediaConfig   `yaml:"media"`
}

type RecordsConfig struct {
	Backend  string         `yaml:"backend"`
	DataDir  string         `yaml:"data_dir"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
}

type DatabaseConfig struct {
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	// MigrationsPath overrides the embedded migrations when set.
	MigrationsPath string `yaml:"migrations_path"`
}

type RedisConfig struct {
	Addr   string `yaml:"addr"`
	Prefix string `yaml:"prefix"`
}

type MediaConfig struct {
	Backend string    `yaml:"backend"`
	Dir     string    `yaml:"dir"`
	GCS     GCSConfig `yaml:"gcs"`
}

type GCSConfig struct {
	Bucket       string `yaml:"bucket"`
	Prefix       string `yaml:"prefix"`
	EmulatorHost string `yaml:"emulator_host"`
}

// LoadDotEnv copies variables from a .env file into the process environment
// without overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func Default() Config {
	return Config{
		Port:          "8080",
		MaxUploadSize: 100 << 20,
		LogMode:       "development",
		Records: RecordsConfig{
			Backend: BackendFile,
			DataDir: "./data",
			Database: DatabaseConfig{
				Path:     "./xgtag.db",
				Host:     "localhost",
				Port:     5432,
				User:     "xgtag",
				Password: "xgtag_dev",
				Name:     "xgtag",
			},
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "xgtag",
			},
		},
		Media: MediaConfig{
			Backend: MediaLocal,
			Dir:     "./videos",
			GCS: GCSConfig{
				Prefix: "videos/",
			},
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (or $XGTAG_CONFIG), then environment variables. A missing file is an error
// only when a path was given explicitly.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(PathEnv)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	var errs []error
	integer := func(key string, set func(int64)) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		set(n)
	}

	str("PORT", &c.Port)
	integer("MAX_UPLOAD_SIZE", func(n int64) { c.MaxUploadSize = n })
	str("LOG_MODE", &c.LogMode)

	// DB_TYPE is the older name for the SQL backends.
	str("DB_TYPE", &c.Records.Backend)
	str("RECORD_BACKEND", &c.Records.Backend)
	str("DATA_DIR", &c.Records.DataDir)
	str("DB_PATH", &c.Records.Database.Path)
	str("DB_HOST", &c.Records.Database.Host)
	integer("DB_PORT", func(n int64) { c.Records.Database.Port = int(n) })
	str("DB_USER", &c.Records.Database.User)
	str("DB_PASSWORD", &c.Records.Database.Password)
	str("DB_NAME", &c.Records.Database.Name)
	str("MIGRATIONS_PATH", &c.Records.Database.MigrationsPath)
	str("REDIS_ADDR", &c.Records.Redis.Addr)
	str("REDIS_PREFIX", &c.Records.Redis.Prefix)

	str("MEDIA_BACKEND", &c.Media.Backend)
	str("MEDIA_DIR", &c.Media.Dir)
	str("GCS_BUCKET", &c.Media.GCS.Bucket)
	str("GCS_PREFIX", &c.Media.GCS.Prefix)
	str("STORAGE_EMULATOR_HOST", &c.Media.GCS.EmulatorHost)

	return errors.Join(errs...)
}

// Validate rejects unknown backends and missing backend settings.
func (c Config) Validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, errors.New("port is required"))
	}
	if c.MaxUploadSize <= 0 {
		errs = append(errs, fmt.Errorf("max_upload_size must be positive, got %d", c.MaxUploadSize))
	}
	switch c.LogMode {
	case "development", "production":
	default:
		errs = append(errs, fmt.Errorf("unknown log_mode %q", c.LogMode))
	}

	switch c.Records.Backend {
	case BackendFile:
		if c.Records.DataDir == "" {
			errs = append(errs, errors.New("records.data_dir is required for the file backend"))
		}
	case BackendSQLite:
		if c.Records.Database.Path == "" {
			errs = append(errs, errors.New("records.database.path is required for sqlite"))
		}
	case BackendPostgres:
		db := c.Records.Database
		if db.Host == "" || db.User == "" || db.Name == "" {
			errs = append(errs, errors.New("records.database host, user and name are required for postgres"))
		}
		if db.Port <= 0 || db.Port > 65535 {
			errs = append(errs, fmt.Errorf("invalid records.database.port %d", db.Port))
		}
	case BackendRedis:
		if c.Records.Redis.Addr == "" {
			errs = append(errs, errors.New("records.redis.addr is required for redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown record backend %q", c.Records.Backend))
	}

	switch c.Media.Backend {
	case MediaLocal:
		if c.Media.Dir == "" {
			errs = append(errs, errors.New("media.dir is required for local media"))
		}
	case MediaGCS:
		if c.Media.GCS.Bucket == "" {
			errs = append(errs, errors.New("media.gcs.bucket is required for gcs media"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown media backend %q", c.Media.Backend))
	}

	return errors.Join(errs...)
}
