package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Keys shared by the .env file, the process environment and error messages.
const (
	KeyCanvasURL   = "CANVAS_API_URL"
	KeyCanvasToken = "CANVAS_API_TOKEN"
	KeyDelimiter   = "COURSEKIT_DELIMITER"
)

const (
	DefaultCanvasURL = "https://canvas.vt.edu"
	DefaultDelimiter = "|"
)

// ErrMissingField indicates a required setting was not provided by any source.
var ErrMissingField = errors.New("missing required field")

type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingField, e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingField }

// Config is the resolved, read-only configuration.
type Config struct {
	CanvasURL   string
	CanvasToken string
	Delimiter   string
}

// DelimiterRune returns the field delimiter as a rune.
func (c Config) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}

// fileConfig is the YAML layout of coursekit.yaml.
type fileConfig struct {
	Canvas struct {
		URL   string `yaml:"url"`
		Token string `yaml:"token"`
	} `yaml:"canvas"`
	Output struct {
		Delimiter string `yaml:"delimiter"`
	} `yaml:"output"`
}

// Overrides are values given explicitly on the command line. Empty means unset.
type Overrides struct {
	CanvasURL   string
	CanvasToken string
	Delimiter   string
}

// Sources lists where settings come from. Missing files are skipped.
type Sources struct {
	YAMLPath string
	EnvPath  string
	// LookupEnv reads the process environment; nil disables that layer.
	LookupEnv func(string) (string, bool)
	Flags     Overrides
}

// DefaultSources reads coursekit.yaml, .env and the real environment.
func DefaultSources(flags Overrides) Sources {
	return Sources{
		YAMLPath:  "coursekit.yaml",
		EnvPath:   ".env",
		LookupEnv: os.LookupEnv,
		Flags:     flags,
	}
}

// Resolve merges every source, later layers overriding earlier ones:
// defaults, YAML file, .env file, process environment, explicit flags.
// Each key in required must end up non-empty.
func Resolve(src Sources, required ...string) (Config, error) {
	values := map[string]string{
		KeyCanvasURL: DefaultCanvasURL,
		KeyDelimiter: DefaultDelimiter,
	}

	yamlLayer, err := readYAML(src.YAMLPath)
	if err != nil {
		return Config{}, err
	}
	dotenvLayer, err := readDotenv(src.EnvPath)
	if err != nil {
		return Config{}, err
	}

	layers := []map[string]string{
		yamlLayer,
		dotenvLayer,
		environLayer(src.LookupEnv),
		{
			KeyCanvasURL:   src.Flags.CanvasURL,
			KeyCanvasToken: src.Flags.CanvasToken,
			KeyDelimiter:   src.Flags.Delimiter,
		},
	}
	for _, layer := range layers {
		for k, v := range layer {
			if v != "" {
				values[k] = v
			}
		}
	}

	cfg := Config{
		CanvasURL:   strings.TrimRight(values[KeyCanvasURL], "/"),
		CanvasToken: values[KeyCanvasToken],
		Delimiter:   values[KeyDelimiter],
	}

	for _, key := range required {
		if values[key] == "" {
			return Config{}, &MissingFieldError{Field: key}
		}
	}
	if utf8.RuneCountInString(cfg.Delimiter) != 1 {
		return Config{}, fmt.Errorf("delimiter must be a single character, got %q", cfg.Delimiter)
	}
	return cfg, nil
}

func readYAML(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	file, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(file, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return map[string]string{
		KeyCanvasURL:   fc.Canvas.URL,
		KeyCanvasToken: fc.Canvas.Token,
		KeyDelimiter:   fc.Output.Delimiter,
	}, nil
}

// readDotenv parses a .env file without touching the process environment.
func readDotenv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return values, nil
}

func environLayer(lookup func(string) (string, bool)) map[string]string {
	if lookup == nil {
		return nil
	}
	out := make(map[string]string)
	for _, key := range []string{KeyCanvasURL, KeyCanvasToken, KeyDelimiter} {
		if v, ok := lookup(key); ok {
			out[key] = v
		}
	}
	return out
}
