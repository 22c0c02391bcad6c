// ===========================================================================
//
// File Name:  config.go
//
// Author:  David Eccles
//
// ==========================================================================

package affytools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/komkom/toml"
)

// ErrBadColumns is returned when the marker, individual, and genotype columns overlap or are negative
var ErrBadColumns = errors.New("invalid column assignment")

// DefaultNoCall is written for a marker and individual that were never jointly observed
const DefaultNoCall = "--"

// S3Config selects the endpoint used for s3:// sources
type S3Config struct {
	Region    string `yaml:"region" json:"region"`
	Endpoint  string `yaml:"endpoint" json:"endpoint"`
	PathStyle bool   `yaml:"path_style" json:"path_style"`
}

// Config holds run settings. Keys missing from a config file keep their defaults.
type Config struct {
	MarkerColumn     int      `yaml:"marker_column" json:"marker_column"`
	IndividualColumn int      `yaml:"individual_column" json:"individual_column"`
	GenotypeColumn   int      `yaml:"genotype_column" json:"genotype_column"`
	NoCall           string   `yaml:"no_call" json:"no_call"`
	LineDots         int      `yaml:"line_dots" json:"line_dots"`
	MarkerDots       int      `yaml:"marker_dots" json:"marker_dots"`
	Progress         bool     `yaml:"progress" json:"progress"`
	Verbose          bool     `yaml:"verbose" json:"verbose"`
	WarnLimit        int      `yaml:"warn_limit" json:"warn_limit"`
	MetricsFile      string   `yaml:"metrics_file" json:"metrics_file"`
	Output           string   `yaml:"output" json:"output"`
	CompressOutput   bool     `yaml:"compress_output" json:"compress_output"`
	S3               S3Config `yaml:"s3" json:"s3"`
}

// DefaultConfig returns the standard column roles and progress intervals
func DefaultConfig() *Config {

	return &Config{
		MarkerColumn:     0,
		IndividualColumn: 1,
		GenotypeColumn:   2,
		NoCall:           DefaultNoCall,
		LineDots:         1000000,
		MarkerDots:       1000,
		Progress:         true,
	}
}

// Validate checks column roles and fills in an empty no-call string
func (cfg *Config) Validate() error {

	if cfg.MarkerColumn < 0 || cfg.IndividualColumn < 0 || cfg.GenotypeColumn < 0 {
		return fmt.Errorf("%w: columns must not be negative", ErrBadColumns)
	}
	if cfg.MarkerColumn == cfg.IndividualColumn ||
		cfg.MarkerColumn == cfg.GenotypeColumn ||
		cfg.IndividualColumn == cfg.GenotypeColumn {
		return fmt.Errorf("%w: marker %d, individual %d, genotype %d must differ",
			ErrBadColumns, cfg.MarkerColumn, cfg.IndividualColumn, cfg.GenotypeColumn)
	}
	if cfg.NoCall == "" {
		cfg.NoCall = DefaultNoCall
	}
	if strings.ContainsAny(cfg.NoCall, " \t\r\n") {
		return fmt.Errorf("no-call string '%s' must not contain whitespace", cfg.NoCall)
	}

	return nil
}

// LoadConfig reads a YAML (.yaml, .yml) or TOML (.toml) file over the defaults
func LoadConfig(path string) (*Config, error) {

	inFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open config file '%s': %w", path, err)
	}
	defer inFile.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return ParseTOMLConfig(inFile)
	case ".yaml", ".yml":
		return ParseYAMLConfig(inFile)
	}

	return nil, fmt.Errorf("unrecognized config file extension '%s'", filepath.Ext(path))
}

// ParseYAMLConfig decodes YAML settings over the defaults
func ParseYAMLConfig(inp io.Reader) (*Config, error) {

	byt, err := io.ReadAll(inp)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	if len(bytes.TrimSpace(byt)) == 0 {
		return cfg, cfg.Validate()
	}

	if err := yaml.Unmarshal(byt, cfg); err != nil {
		return nil, fmt.Errorf("YAML config error '%v'", err)
	}

	return cfg, cfg.Validate()
}

// ParseTOMLConfig transcodes TOML settings to JSON and decodes them over the defaults
func ParseTOMLConfig(inp io.Reader) (*Config, error) {

	byt, err := io.ReadAll(inp)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	if len(bytes.TrimSpace(byt)) == 0 {
		return cfg, cfg.Validate()
	}

	rdr := toml.New(bytes.NewBuffer(byt))
	if rdr == nil {
		return nil, errors.New("unable to create TOML reader")
	}

	if err := json.NewDecoder(rdr).Decode(cfg); err != nil {
		return nil, fmt.Errorf("TOML config error '%v'", err)
	}

	return cfg, cfg.Validate()
}
