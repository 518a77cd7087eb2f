package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/nconklindev/sheetpdf/internal/converter"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SHEETPDF_"

// Config represents the complete application configuration
type Config struct {
	// StartDir is where the file picker opens.
	StartDir string
	// OutputDir receives downloaded documents. Empty means next to the input file.
	OutputDir string
	// ArtifactDir holds temporary documents. Empty means a private temp dir.
	ArtifactDir string
	PreviewRows int
	Orientation converter.Orientation
	AllColumns  bool
	RejectEmpty bool
	LogFile     string
	LogLevel    string
}

func Default() Config {
	return Config{
		PreviewRows: converter.PreviewRowLimit,
		Orientation: converter.OrientationPortrait,
		LogLevel:    "info",
	}
}

// Load reads an optional .env file, then SHEETPDF_* environment variables over
// the defaults. Values already in the environment win over .env entries.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	cfg := Default()
	var err error

	cfg.StartDir = envString("START_DIR", cfg.StartDir)
	cfg.OutputDir = envString("OUTPUT_DIR", cfg.OutputDir)
	cfg.ArtifactDir = envString("ARTIFACT_DIR", cfg.ArtifactDir)
	cfg.LogFile = envString("LOG_FILE", cfg.LogFile)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)

	if cfg.PreviewRows, err = envInt("PREVIEW_ROWS", cfg.PreviewRows); err != nil {
		return Config{}, err
	}
	if cfg.AllColumns, err = envBool("ALL_COLUMNS", cfg.AllColumns); err != nil {
		return Config{}, err
	}
	if cfg.RejectEmpty, err = envBool("REJECT_EMPTY", cfg.RejectEmpty); err != nil {
		return Config{}, err
	}
	if v, ok := lookup("ORIENTATION"); ok {
		if cfg.Orientation, err = converter.ParseOrientation(v); err != nil {
			return Config{}, fmt.Errorf("%sORIENTATION: %w", EnvPrefix, err)
		}
	}

	if cfg.StartDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("resolve start dir: %w", err)
		}
		cfg.StartDir = wd
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field ranges. It does not modify c.
func (c Config) Validate() error {
	if c.PreviewRows <= 0 {
		return fmt.Errorf("preview rows must be positive, got %d", c.PreviewRows)
	}
	if _, err := converter.ParseOrientation(string(c.Orientation)); err != nil {
		return err
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if c.StartDir == "" {
		return errors.New("start dir must be set")
	}
	return nil
}

// ConverterOptions maps the config onto pipeline options.
func (c Config) ConverterOptions() converter.Options {
	return converter.Options{
		Extract: converter.ExtractOptions{
			AllColumns:  c.AllColumns,
			RejectEmpty: c.RejectEmpty,
		},
		Document: converter.DocumentOptions{
			Orientation: c.Orientation,
		},
	}
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func envString(key, def string) string {
	if v, ok := lookup(key); ok {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v, ok := lookup(key)
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s%s: %q is not an integer", EnvPrefix, key, v)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	v, ok := lookup(key)
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s%s: %q is not a boolean", EnvPrefix, key, v)
	}
	return b, nil
}
