// Package config loads the settings shared by the nlvr-graph commands.
//
// Settings come from an optional YAML file (by default .nlvr/config.yaml);
// anything the file leaves out keeps its default. Command-line flags are
// applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/Benny93/nlvr-graph/internal/scene"
)

// DirName is the per-working-directory state directory.
const DirName = ".nlvr"

// ErrInvalidConfig indicates a setting outside its allowed range.
var ErrInvalidConfig = errors.New("config: invalid setting")

// Config holds the tunable settings.
type Config struct {
	// PanelSize is the side length used to derive object distances.
	PanelSize int `yaml:"panel_size" validate:"gt=0"`

	// DataDir is where the scene store lives.
	DataDir string `yaml:"data_dir" validate:"required"`

	// WatchDebounce is how long the watcher waits for more changes
	// before reloading a batch of files.
	WatchDebounce time.Duration `yaml:"watch_debounce" validate:"gte=0"`

	// SearchLimit is the default number of utterance search results.
	SearchLimit int `yaml:"search_limit" validate:"gt=0"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		PanelSize:     scene.DefaultPanelSize,
		DataDir:       DirName,
		WatchDebounce: 2 * time.Second,
		SearchLimit:   10,
	}
}

// DefaultPath returns the config file path under dir.
func DefaultPath(dir string) string {
	return filepath.Join(dir, DirName, "config.yaml")
}

// Load reads the YAML file at path over the defaults. A missing file is
// not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every setting against its validate tag.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	fe := fieldErrs[0]
	return fmt.Errorf("%w: %s must satisfy %s, got %v", ErrInvalidConfig, yamlName(fe.StructField()), constraint(fe), fe.Value())
}

func constraint(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

var yamlNames = map[string]string{
	"PanelSize":     "panel_size",
	"DataDir":       "data_dir",
	"WatchDebounce": "watch_debounce",
	"SearchLimit":   "search_limit",
}

func yamlName(field string) string {
	if name, ok := yamlNames[field]; ok {
		return name
	}
	return field
}

// StorePath returns the scene store directory.
func (c *Config) StorePath() string {
	return filepath.Join(c.DataDir, "badger")
}

// Save writes c as YAML to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
