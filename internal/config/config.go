package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/xeipuuv/gojsonschema"
)

// FileName is the optional per-project configuration file looked up in the
// working directory.
const FileName = "aipatch.json"

// Environment variables recognized by Load. They take precedence over the
// configuration file; command-line flags take precedence over both.
const (
	EnvRoot     = "AIPATCH_ROOT"
	EnvLogLevel = "AIPATCH_LOG_LEVEL"
)

// Config carries the settings shared by the aipatch commands.
type Config struct {
	// Root is the directory block paths resolve under.
	Root string `json:"root"`
	// LogLevel selects the minimum level emitted: debug, info, warn, error.
	LogLevel string `json:"log_level"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{LogLevel: "info"}
}

// Load assembles configuration with ascending precedence: defaults, then
// aipatch.json from the working directory, then environment variables. A
// .env file is folded into the environment first when present.
func Load() (Config, error) {
	return LoadFile(FileName)
}

// LoadFile behaves like Load but reads the configuration file from path.
func LoadFile(path string) (Config, error) {
	if err := godotenv.Load(); err != nil {
		// A missing .env file is fine, but other errors should be surfaced
		// to help with debugging.
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, fmt.Errorf("load .env: %w", err)
		}
	}

	cfg := Default()

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Optional file.
	case err != nil:
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	default:
		if err := validate(raw); err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if v := strings.TrimSpace(os.Getenv(EnvRoot)); v != "" {
		cfg.Root = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.LogLevel = v
	}
	return cfg, nil
}

var (
	fileSchemaLoader     gojsonschema.JSONLoader
	fileSchemaLoaderErr  error
	fileSchemaLoaderOnce sync.Once
)

type schemaValidationError struct {
	issues []string
}

func (e schemaValidationError) Error() string {
	if len(e.issues) == 0 {
		return "configuration failed schema validation"
	}
	return strings.Join(e.issues, "; ")
}

func validate(raw []byte) error {
	loader, err := loadFileSchema()
	if err != nil {
		return fmt.Errorf("load config schema: %w", err)
	}

	result, err := gojsonschema.Validate(loader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("validate configuration: %w", err)
	}
	if result.Valid() {
		return nil
	}

	issues := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, desc.String())
	}
	return schemaValidationError{issues: issues}
}

func loadFileSchema() (gojsonschema.JSONLoader, error) {
	fileSchemaLoaderOnce.Do(func() {
		schemaMap, err := FileSchema()
		if err != nil {
			fileSchemaLoaderErr = err
			return
		}
		fileSchemaLoader = gojsonschema.NewGoLoader(schemaMap)
	})
	if fileSchemaLoaderErr != nil {
		return nil, fileSchemaLoaderErr
	}
	return fileSchemaLoader, nil
}
