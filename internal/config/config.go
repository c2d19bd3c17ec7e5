package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

//go:embed sample_config.yaml
var sampleConfig string

var (
	// ErrNotFound marks a configuration file that does not exist.
	ErrNotFound = errors.New("configuration file not found")
	// ErrParse marks a configuration file that could not be decoded.
	ErrParse = errors.New("configuration file malformed")
	// ErrInvalid marks a configuration value that failed validation.
	ErrInvalid = errors.New("invalid configuration")
)

// Config is the settings tree loaded from a YAML or TOML file. Values are
// read through Get and the typed accessors; the tree is only mutated by
// ApplyOverrides before a run starts.
type Config struct {
	path       string
	tree       map[string]any
	credential string
}

// Load reads the configuration file at path. The format is chosen by
// extension: .toml is decoded as TOML, anything else as YAML. A .env file in
// the working directory is loaded first without overriding variables that
// are already set.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, expanded, err)
		}
		return nil, fmt.Errorf("read config %s: %w", expanded, err)
	}

	tree, err := decode(expanded, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, expanded, err)
	}

	cfg := &Config{path: expanded, tree: tree}
	cfg.credential = credentialFromEnv()
	return cfg, nil
}

// FromMap builds a Config directly from a settings tree. Used by tests and by
// callers that assemble configuration programmatically.
func FromMap(tree map[string]any) *Config {
	if tree == nil {
		tree = map[string]any{}
	}
	return &Config{tree: tree, credential: credentialFromEnv()}
}

func decode(path string, data []byte) (map[string]any, error) {
	tree := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &tree); err != nil {
			return nil, err
		}
	default:
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, err
		}
	}
	if tree == nil {
		tree = map[string]any{}
	}
	return tree, nil
}

func credentialFromEnv() string {
	for _, key := range []string{"HF_TOKEN", "HUGGING_FACE_HUB_TOKEN"} {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return ""
}

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string {
	return c.path
}

// HFToken returns the diarization model credential, or "" when absent.
func (c *Config) HFToken() string {
	return c.credential
}

// Tree returns a deep copy of the settings tree.
func (c *Config) Tree() map[string]any {
	return copyMap(c.tree)
}

func copyMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if nested, ok := v.(map[string]any); ok {
			out[k] = copyMap(nested)
			continue
		}
		out[k] = v
	}
	return out
}

// ExpandPath resolves a leading tilde to the user's home directory and
// cleans the result. Relative paths stay relative.
func ExpandPath(pathValue string) (string, error) {
	pathValue = strings.TrimSpace(pathValue)
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	return filepath.Clean(pathValue), nil
}

// CreateSample writes a sample configuration file to the specified location.
// An existing file is left untouched.
func CreateSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}
