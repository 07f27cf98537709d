package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/phildougherty/llmsh/errors"
)

// Safety configures the risk checks consulted before a translated command is
// offered for confirmation.
type Safety struct {
	// DangerPatterns are regular expressions matched against the whole
	// candidate command line.
	DangerPatterns []string `yaml:"danger_patterns"`
	// ProtectedPaths are doublestar glob patterns; commands naming a file
	// under one of them are flagged.
	ProtectedPaths []string `yaml:"protected_paths"`
}

type Config struct {
	// LLMClient selects the bridge provider: openai, anthropic, gemini,
	// bedrock, or mock.
	LLMClient string `yaml:"llm"`
	Model     string `yaml:"model"`
	// BaseURL overrides the provider endpoint. With the openai provider this
	// is how Ollama-compatible local servers are reached.
	BaseURL string `yaml:"base_url"`
	// TimeoutSeconds bounds every bridge call. No retry on expiry.
	TimeoutSeconds int `yaml:"timeout_seconds"`
	// HistoryWindow is how many recent commands accompany a bridge request.
	HistoryWindow int `yaml:"history_window"`
	// HistorySize caps the in-memory session history.
	HistorySize int `yaml:"history_size"`
	LogLevel    string `yaml:"log_level"`
	// Home overrides the target of a bare `cd`.
	Home string `yaml:"home"`
	// KnownCommands extends the set of first words treated as direct
	// commands even when they are not on PATH. This is the tuning knob for
	// the command-versus-natural-language boundary.
	KnownCommands []string `yaml:"known_commands"`
	Safety        Safety   `yaml:"safety"`
}

// LoadConfig loads configuration from the user's home directory and the
// current working directory, with the latter taking precedence.
func LoadConfig() (*Config, error) {
	cfg := defaults()

	// Load user-level config first
	home, err := os.UserHomeDir()
	if err == nil {
		userConfigPath := filepath.Join(home, ".llmsh", "config.yaml")
		if _, err := os.Stat(userConfigPath); err == nil {
			if err := loadFromFile(userConfigPath, cfg); err != nil {
				return nil, errors.Wrapf(err, "error loading user config")
			}
		}
	}

	// Load project-level config, overriding user-level
	wd, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrapf(err, "could not get working directory")
	}
	projectConfigPath := filepath.Join(wd, ".llmsh", "config.yaml")
	if _, err := os.Stat(projectConfigPath); err == nil {
		if err := loadFromFile(projectConfigPath, cfg); err != nil {
			return nil, errors.Wrapf(err, "error loading project config")
		}
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		LLMClient:      "mock",
		Model:          "qwen2.5:14b",
		TimeoutSeconds: 30,
		HistoryWindow:  5,
		HistorySize:    1000,
		LogLevel:       "warn",
		Safety: Safety{
			DangerPatterns: []string{
				`^rm(\s|$)`, `^rmdir(\s|$)`, `^dd(\s|$)`, `^mkfs`, `^fdisk`,
				`^shred(\s|$)`, `^truncate(\s|$)`, `^mv(\s|$)`,
				`^chmod(\s|$)`, `^chown(\s|$)`, `^(pkill|kill|killall)(\s|$)`,
				`^sudo\s+(rm|dd|mkfs|fdisk|chown|chmod)(\s|$)`,
				`(^|[^>])>([^>]|$)`,
			},
			ProtectedPaths: []string{"/etc/**", "/boot/**"},
		},
	}
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	// Note: Unmarshal only overwrites fields present in the YAML, which gives
	// a simple merge where project-level config replaces user-level.
	return yaml.Unmarshal(data, cfg)
}

// Timeout returns the bridge deadline as a duration.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// HomeDir resolves the directory a bare `cd` targets: the configured
// override when present, the OS home otherwise.
func (c *Config) HomeDir() (string, error) {
	if c.Home != "" {
		return c.Home, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrapf(err, "could not determine home directory")
	}
	return home, nil
}
