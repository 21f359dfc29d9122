// Package config loads cfcalc settings from TOML, YAML or JSON documents.
//
// Every loader starts from Default, so a document only needs the keys it
// changes. Unknown keys are rejected in all three formats.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/lattice-substrate/exactcf/cfexpr"
	"github.com/lattice-substrate/exactcf/cferr"
	"github.com/lattice-substrate/exactcf/rounding"
)

// Config holds the settings shared by all cfcalc commands.
type Config struct {
	// Mode is the default rounding mode name.
	Mode string `toml:"mode" yaml:"mode" json:"mode"`
	// Format selects report output: "json" (canonical) or "text".
	Format string `toml:"format" yaml:"format" json:"format"`
	// LogLevel is a slog level name.
	LogLevel string `toml:"log_level" yaml:"log_level" json:"log_level"`
	// Terms is how many partial quotients and convergents reports show.
	Terms int `toml:"terms" yaml:"terms" json:"terms"`
	// MaxTerms bounds the partial quotients one rounding may read.
	MaxTerms int `toml:"max_terms" yaml:"max_terms" json:"max_terms"`
	// CompareTerms bounds the partial quotients compare reads per operand.
	CompareTerms int `toml:"compare_terms" yaml:"compare_terms" json:"compare_terms"`
	// MaxDepth and MaxInputSize bound expression parsing.
	MaxDepth     int `toml:"max_depth" yaml:"max_depth" json:"max_depth"`
	MaxInputSize int `toml:"max_input_size" yaml:"max_input_size" json:"max_input_size"`
}

// Format is a configuration document syntax.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Output formats.
const (
	OutputJSON = "json"
	OutputText = "text"
)

const (
	maxTermsLimit     = 1 << 20
	maxInputSizeLimit = 16 << 20
)

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Mode:         rounding.Nearest.String(),
		Format:       OutputJSON,
		LogLevel:     "warn",
		Terms:        20,
		MaxTerms:     rounding.DefaultMaxTerms,
		CompareTerms: 1000,
		MaxDepth:     cfexpr.DefaultMaxDepth,
		MaxInputSize: cfexpr.DefaultMaxInputSize,
	}
}

// Load reads, decodes, and validates a configuration file. The syntax is
// chosen by extension: .toml, .yaml or .yml, and .json.
func Load(path string) (*Config, error) {
	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}
	//nolint:gosec // config path is explicit operator input.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cferr.Wrap(cferr.InvalidConfig, -1, "read config", err)
	}
	return Decode(data, format)
}

// Decode decodes and validates a configuration document.
func Decode(data []byte, format Format) (*Config, error) {
	c := Default()
	var err error
	switch format {
	case FormatTOML:
		err = decodeTOML(data, c)
	case FormatYAML:
		err = decodeYAML(data, c)
	case FormatJSON:
		err = decodeJSON(data, c)
	default:
		return nil, cferr.Newf(cferr.InvalidConfig, "unsupported config format %q", format)
	}
	if err != nil {
		return nil, cferr.Wrap(cferr.InvalidConfig, -1, fmt.Sprintf("decode config %s", format), err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func detectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", cferr.Newf(cferr.InvalidConfig, "config %s: unknown extension", path)
}

func decodeTOML(data []byte, c *Config) error {
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

func decodeYAML(data []byte, c *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		if errors.Is(err, io.EOF) {
			// an empty document keeps the defaults
			return nil
		}
		return err
	}
	var trailing yaml.Node
	if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) {
		if err == nil {
			return fmt.Errorf("unexpected trailing yaml document")
		}
		return fmt.Errorf("decode trailing yaml document: %w", err)
	}
	return nil
}

func decodeJSON(data []byte, c *Config) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		return err
	}
	return ensureSingleJSONDocument(dec)
}

func ensureSingleJSONDocument(dec *json.Decoder) error {
	var trailing any
	if err := dec.Decode(&trailing); err != io.EOF {
		if err == nil {
			return fmt.Errorf("unexpected trailing json content")
		}
		return fmt.Errorf("decode trailing json token: %w", err)
	}
	return nil
}

// Validate checks value ranges and names.
func (c *Config) Validate() error {
	if c == nil {
		return cferr.Newf(cferr.InvalidConfig, "config is nil")
	}
	if _, err := rounding.ParseMode(c.Mode); err != nil {
		return cferr.Wrap(cferr.InvalidConfig, -1, "mode", err)
	}
	switch c.Format {
	case OutputJSON, OutputText:
	default:
		return cferr.Newf(cferr.InvalidConfig, "format must be %q or %q, got %q", OutputJSON, OutputText, c.Format)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	for _, b := range []struct {
		name     string
		v, limit int
	}{
		{"terms", c.Terms, maxTermsLimit},
		{"max_terms", c.MaxTerms, maxTermsLimit},
		{"compare_terms", c.CompareTerms, maxTermsLimit},
		{"max_depth", c.MaxDepth, maxTermsLimit},
		{"max_input_size", c.MaxInputSize, maxInputSizeLimit},
	} {
		if b.v < 1 || b.v > b.limit {
			return cferr.Newf(cferr.InvalidConfig, "%s must be in [1, %d], got %d", b.name, b.limit, b.v)
		}
	}
	return nil
}

// Level returns the configured log level.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, cferr.Wrap(cferr.InvalidConfig, -1, "log_level", err)
	}
	return l, nil
}

// RoundingMode returns the configured default mode. It falls back to
// Nearest on a config that has not been validated.
func (c *Config) RoundingMode() rounding.Mode {
	m, err := rounding.ParseMode(c.Mode)
	if err != nil {
		return rounding.Nearest
	}
	return m
}

// RoundingOptions returns the options for rounding.New.
func (c *Config) RoundingOptions() *rounding.Options {
	return &rounding.Options{MaxTerms: c.MaxTerms}
}

// ParseOptions returns the options for cfexpr.ParseWithOptions.
func (c *Config) ParseOptions() *cfexpr.Options {
	return &cfexpr.Options{MaxDepth: c.MaxDepth, MaxInputSize: c.MaxInputSize}
}
