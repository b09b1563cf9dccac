package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// FileName is the workspace configuration file looked up in the project root.
const FileName = ".laravel-ls.toml"

type Config struct {
	// TargetSymbol is the callee whose string arguments are navigable.
	TargetSymbol string `json:"target_symbol" toml:"target_symbol" validate:"required"`
	// Delimiter separates the segments of a dotted template name.
	Delimiter string `json:"delimiter"     toml:"delimiter"     validate:"required"`
	RootDir   string `json:"root_dir"      toml:"root_dir"`
	Extension string `json:"extension"     toml:"extension"     validate:"required"`
	// Documents are doublestar globs, relative to the workspace root, of the
	// files the server resolves in.
	Documents []string `json:"documents" toml:"documents" validate:"min=1,dive,required"`
}

var defaultConfig = Config{
	TargetSymbol: "view",
	Delimiter:    ".",
	RootDir:      "resources/views",
	Extension:    "blade.php",
	Documents:    []string{"**/*.php"},
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns a copy of the default configuration.
func Default() Config {
	cfg := defaultConfig
	cfg.Documents = append([]string(nil), defaultConfig.Documents...)
	return cfg
}

// Load overlays v, typically the client's initializationOptions, onto the
// defaults.
func Load(v any) (Config, error) {
	return Overlay(Default(), v)
}

// Overlay overlays v onto base. Only fields present in v overwrite.
func Overlay(base Config, v any) (Config, error) {
	cfg := base
	cfg.Documents = append([]string(nil), base.Documents...)
	if v == nil {
		return cfg, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return Config{}, fmt.Errorf("failed to marshal source: %w", err)
	}
	if bytes.Equal(data, []byte("null")) {
		return cfg, nil
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal into Config: %w", err)
	}

	return cfg, cfg.Validate()
}

// LoadFromJSON reads JSON from r into a Config.
func LoadFromJSON(r io.Reader) (Config, error) {
	cfg := Default()

	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

// LoadFile reads a TOML configuration file. Missing keys keep their default
// values. A missing file yields the defaults and an error wrapping
// fs.ErrNotExist.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), err
	}

	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Validate checks that every required setting is present.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// MatchesDocument reports whether relPath, relative to the workspace root,
// is selected by one of the Documents globs.
func (c Config) MatchesDocument(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	for _, pattern := range c.Documents {
		if ok, err := doublestar.Match(pattern, relPath); err == nil && ok {
			return true
		}
	}
	return false
}
