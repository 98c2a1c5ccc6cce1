// Package config assembles the runtime configuration from defaults, an
// optional YAML file and COUNTRYVIEW_* environment variables. Command-line
// flags are applied last by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is read once at startup and not mutated afterwards.
type Config struct {
	Source  Source  `yaml:"source"`
	Data    Data    `yaml:"data"`
	Blob    Blob    `yaml:"blob"`
	Storage Storage `yaml:"storage"`
	Logging Logging `yaml:"logging"`
	Metrics Metrics `yaml:"metrics"`
	Display Display `yaml:"display"`
}

// Source describes the remote REST API.
type Source struct {
	BaseURL   string        `yaml:"base_url"`
	Language  string        `yaml:"language"` // translation key used for localized names
	Groupings []string      `yaml:"groupings"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Data locates the flat files inside the blob store.
type Data struct {
	Prefix     string `yaml:"prefix"`      // e.g. "Continentes/"
	MergedName string `yaml:"merged_name"` // e.g. "Todos.csv"
}

// MergedKey returns the blob key of the merged dataset (the ingestion sentinel).
func (d Data) MergedKey() string { return d.Prefix + d.MergedName }

// Blob selects the blob storage driver holding the flat files.
type Blob struct {
	Driver string `yaml:"driver"` // fs|s3|memory
	FSRoot string `yaml:"fs_root"`
	S3     S3     `yaml:"s3"`
}

// S3 holds S3 / MinIO settings when Blob.Driver is s3.
type S3 struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
}

// Storage selects the snapshot store used by export and db-backed viewing.
type Storage struct {
	Driver      string `yaml:"driver"` // memory|sqlite|postgres
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// Logging controls the structured logger.
type Logging struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"` // empty writes to stderr
}

// Metrics controls the optional Prometheus textfile export.
type Metrics struct {
	File string `yaml:"file"`
}

// Display controls formatting of numbers in rendered output.
type Display struct {
	Locale string `yaml:"locale"` // BCP 47 tag
}

// Defaults returns a Config with every field populated.
func Defaults() Config {
	return Config{
		Source: Source{
			BaseURL:   "https://restcountries.com/v3.1",
			Language:  "spa",
			Groupings: []string{"Africa", "Americas", "Asia", "Europe", "Oceania", "Antarctic"},
			Timeout:   30 * time.Second,
		},
		Data: Data{
			Prefix:     "Continentes/",
			MergedName: "Todos.csv",
		},
		Blob: Blob{
			Driver: "fs",
			FSRoot: ".",
			S3:     S3{Region: "us-east-1"},
		},
		Storage: Storage{
			Driver:     "sqlite",
			SQLitePath: "countryview.db",
		},
		Logging: Logging{Level: "info"},
		Display: Display{Locale: "es"},
	}
}

// Load returns Defaults overlaid with the YAML file at path (when non-empty)
// and then with environment overrides.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("open config: %w", err)
		}
		defer func() { _ = f.Close() }()
		if err := decodeYAML(f, &cfg); err != nil {
			return cfg, fmt.Errorf("decode config %s: %w", path, err)
		}
	}
	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func decodeYAML(r io.Reader, cfg *Config) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	return dec.Decode(cfg)
}

// ApplyEnv overrides cfg from environment variables resolved through lookup.
//
//	COUNTRYVIEW_API_BASE_URL, COUNTRYVIEW_API_LANGUAGE, COUNTRYVIEW_API_TIMEOUT
//	COUNTRYVIEW_GROUPINGS (comma separated)
//	COUNTRYVIEW_DATA_PREFIX, COUNTRYVIEW_MERGED_NAME
//	COUNTRYVIEW_BLOB_DRIVER: fs|s3|memory, COUNTRYVIEW_BLOB_FS_ROOT
//	COUNTRYVIEW_BLOB_S3_BUCKET, _REGION, _ENDPOINT, _PATH_STYLE
//	COUNTRYVIEW_STORAGE_DRIVER: memory|sqlite|postgres
//	COUNTRYVIEW_SQLITE_PATH, COUNTRYVIEW_POSTGRES_DSN
//	COUNTRYVIEW_LOG_LEVEL, COUNTRYVIEW_LOG_FILE, COUNTRYVIEW_METRICS_FILE
//	COUNTRYVIEW_LOCALE
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("COUNTRYVIEW_API_BASE_URL", &cfg.Source.BaseURL)
	str("COUNTRYVIEW_API_LANGUAGE", &cfg.Source.Language)
	if v, ok := lookup("COUNTRYVIEW_API_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("COUNTRYVIEW_API_TIMEOUT: %w", err)
		}
		cfg.Source.Timeout = d
	}
	if v, ok := lookup("COUNTRYVIEW_GROUPINGS"); ok && strings.TrimSpace(v) != "" {
		cfg.Source.Groupings = splitList(v)
	}
	str("COUNTRYVIEW_DATA_PREFIX", &cfg.Data.Prefix)
	str("COUNTRYVIEW_MERGED_NAME", &cfg.Data.MergedName)
	str("COUNTRYVIEW_BLOB_DRIVER", &cfg.Blob.Driver)
	str("COUNTRYVIEW_BLOB_FS_ROOT", &cfg.Blob.FSRoot)
	str("COUNTRYVIEW_BLOB_S3_BUCKET", &cfg.Blob.S3.Bucket)
	str("COUNTRYVIEW_BLOB_S3_REGION", &cfg.Blob.S3.Region)
	str("COUNTRYVIEW_BLOB_S3_ENDPOINT", &cfg.Blob.S3.Endpoint)
	if v, ok := lookup("COUNTRYVIEW_BLOB_S3_PATH_STYLE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("COUNTRYVIEW_BLOB_S3_PATH_STYLE: %w", err)
		}
		cfg.Blob.S3.PathStyle = b
	}
	str("COUNTRYVIEW_STORAGE_DRIVER", &cfg.Storage.Driver)
	str("COUNTRYVIEW_SQLITE_PATH", &cfg.Storage.SQLitePath)
	str("COUNTRYVIEW_POSTGRES_DSN", &cfg.Storage.PostgresDSN)
	str("COUNTRYVIEW_LOG_LEVEL", &cfg.Logging.Level)
	str("COUNTRYVIEW_LOG_FILE", &cfg.Logging.File)
	str("COUNTRYVIEW_METRICS_FILE", &cfg.Metrics.File)
	str("COUNTRYVIEW_LOCALE", &cfg.Display.Locale)
	return nil
}

// Validate rejects configurations no component can run with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Source.BaseURL) == "" {
		errs = append(errs, errors.New("source.base_url required"))
	}
	if len(c.Source.Groupings) == 0 {
		errs = append(errs, errors.New("source.groupings must not be empty"))
	}
	if c.Source.Timeout < 0 {
		errs = append(errs, errors.New("source.timeout must not be negative"))
	}
	if strings.TrimSpace(c.Data.MergedName) == "" {
		errs = append(errs, errors.New("data.merged_name required"))
	}
	if strings.Contains(c.Data.MergedName, "/") {
		errs = append(errs, errors.New("data.merged_name must be a base name"))
	}
	switch c.Blob.Driver {
	case "fs", "memory":
	case "s3":
		if c.Blob.S3.Bucket == "" {
			errs = append(errs, errors.New("blob.s3.bucket required for s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown blob driver %q", c.Blob.Driver))
	}
	switch c.Storage.Driver {
	case "memory", "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}
	return errors.Join(errs...)
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
