package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/iancoleman/strcase"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	StorageBackendSQLite = "sqlite"
	StorageBackendJSON   = "json"
)

type Config struct {
	// Server
	ServerHost     string   `koanf:"server_host" default:"127.0.0.1"`
	ServerPort     int      `koanf:"server_port" default:"5000" validate:"min=0,max=65535"`
	AllowedOrigins []string `koanf:"allowed_origins"`
	MaxUploadBytes int64    `koanf:"max_upload_bytes" default:"524288000" validate:"min=1"`

	// Rate limiting for /api routes.
	RateLimitRequests int           `koanf:"rate_limit_requests" default:"100" validate:"min=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" default:"15m"`

	// Storage
	StorageBackend            string        `koanf:"storage_backend" default:"sqlite" validate:"oneof=sqlite json"`
	DatabaseFilePath          string        `koanf:"database_file_path"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count" default:"5"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay" default:"2s"`
	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout" default:"5s"`
	DatabaseMaxRetries        int           `koanf:"database_max_retries" default:"5"`
	JSONFilePath              string        `koanf:"json_file_path"`
	EncryptionKey             string        `koanf:"encryption_key" default:"library-default-secret-key-change-this"`
	SeedSampleBooks           bool          `koanf:"seed_sample_books"`

	// Filesystem layout. Packaged mirrors the desktop shell's packaging
	// state and only affects the defaults of the directories below.
	Packaged          bool   `koanf:"packaged"`
	DataRoot          string `koanf:"data_root"`
	BooksDir          string `koanf:"books_dir"`
	CoversDir         string `koanf:"covers_dir"`
	AttachedAssetsDir string `koanf:"attached_assets_dir"`

	Environment string `koanf:"environment" default:"development" validate:"oneof=development test production"`
}

// requiredFields lists the keys that must end up with a value after every
// source has been loaded.
var requiredFields = []string{"EncryptionKey", "DataRoot", "BooksDir"}

func New() (*Config, error) {
	k := koanf.New(".")

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}
	if _, err := os.Stat(configFile); err == nil {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "failed to load config file %s", configFile)
		}
	}

	// Only keys that exist on Config are picked up from the environment, so
	// unrelated variables (PATH, HOME, ...) never land in the koanf tree.
	known := knownKeys()
	err := k.Load(env.Provider("", ".", func(s string) string {
		key := strings.ToLower(s)
		if _, ok := known[key]; !ok {
			return ""
		}
		return key
	}), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	// Lists set through the environment are comma separated.
	cfg.AllowedOrigins = splitList(cfg.AllowedOrigins)

	if cfg.Environment == "development" {
		loadDevelopmentConfig(cfg)
	}

	if err := cfg.resolveLayout(); err != nil {
		return nil, errors.WithStack(err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewForTest returns a config rooted in an isolated temporary directory. The
// caller owns the directory.
func NewForTest(dataRoot string) *Config {
	cfg := &Config{}
	_ = defaults.Set(cfg)
	cfg.Environment = "test"
	cfg.DataRoot = dataRoot
	cfg.BooksDir = filepath.Join(dataRoot, "Books")
	cfg.DatabaseFilePath = ":memory:"
	cfg.JSONFilePath = filepath.Join(dataRoot, "db.json")
	cfg.RateLimitRequests = 0
	_ = cfg.resolveLayout()
	return cfg
}

// resolveLayout fills in every directory that wasn't configured explicitly.
// A packaged build keeps Books next to the executable; a development checkout
// keeps Books one level above the working directory.
func (cfg *Config) resolveLayout() error {
	if cfg.DataRoot == "" {
		if cfg.Packaged {
			exe, err := os.Executable()
			if err != nil {
				return errors.WithStack(err)
			}
			cfg.DataRoot = filepath.Dir(exe)
		} else {
			wd, err := os.Getwd()
			if err != nil {
				return errors.WithStack(err)
			}
			cfg.DataRoot = wd
		}
	}

	dataRoot, err := filepath.Abs(cfg.DataRoot)
	if err != nil {
		return errors.WithStack(err)
	}
	cfg.DataRoot = dataRoot

	if cfg.BooksDir == "" {
		if cfg.Packaged {
			cfg.BooksDir = filepath.Join(cfg.DataRoot, "Books")
		} else {
			cfg.BooksDir = filepath.Join(cfg.DataRoot, "..", "Books")
		}
	}
	if cfg.CoversDir == "" {
		cfg.CoversDir = filepath.Join(cfg.BooksDir, "cover")
	}
	if cfg.AttachedAssetsDir == "" {
		cfg.AttachedAssetsDir = filepath.Join(cfg.DataRoot, "attached_assets")
	}
	if cfg.DatabaseFilePath == "" {
		cfg.DatabaseFilePath = filepath.Join(cfg.DataRoot, "library.sqlite")
	}
	if cfg.JSONFilePath == "" {
		cfg.JSONFilePath = filepath.Join(cfg.DataRoot, "db.json")
	}

	for _, dir := range []*string{&cfg.BooksDir, &cfg.CoversDir, &cfg.AttachedAssetsDir} {
		abs, err := filepath.Abs(*dir)
		if err != nil {
			return errors.WithStack(err)
		}
		*dir = abs
	}

	return nil
}

func (cfg *Config) validate() error {
	v := reflect.ValueOf(cfg).Elem()
	for _, name := range requiredFields {
		if v.FieldByName(name).IsZero() {
			snake := toSnakeCase(name)
			return errors.Errorf("missing required config: set %s or %s", strings.ToUpper(snake), snake)
		}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	return nil
}

func (cfg *Config) String() string {
	return fmt.Sprintf("storage=%s books=%s packaged=%t", cfg.StorageBackend, cfg.BooksDir, cfg.Packaged)
}

func knownKeys() map[string]struct{} {
	keys := map[string]struct{}{}
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		if tag := t.Field(i).Tag.Get("koanf"); tag != "" {
			keys[tag] = struct{}{}
		}
	}
	return keys
}

func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func toSnakeCase(s string) string {
	return strcase.ToSnake(s)
}
