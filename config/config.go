// Package config loads gitscribe configuration from layered YAML files:
// built-in defaults, then the user file, then an optional team file, then
// the project file at the repository root. Later layers win, and any key
// can be overridden through GITSCRIBE_-prefixed environment variables.
package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/gitscribe/gitscribe"
)

// envPrefix namespaces environment overrides, e.g. GITSCRIBE_PROVIDER.
const envPrefix = "GITSCRIBE"

// Provider holds the connection settings for one generation backend.
type Provider struct {
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Model       string  `mapstructure:"model" yaml:"model"`
	APIKey      string  `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Timeout     int     `mapstructure:"timeout" yaml:"timeout"`
	Temperature float32 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	MaxRetries  int     `mapstructure:"max_retries" yaml:"max_retries"`
	RetryDelay  int     `mapstructure:"retry_delay" yaml:"retry_delay"`
}

// Templates selects the default template names and extra search paths.
type Templates struct {
	Commit      string   `mapstructure:"commit" yaml:"commit"`
	PR          string   `mapstructure:"pr" yaml:"pr"`
	SearchPaths []string `mapstructure:"search_paths" yaml:"search_paths,omitempty"`
}

// User overrides the identity otherwise read from the git configuration.
type User struct {
	Name  string `mapstructure:"name" yaml:"name,omitempty"`
	Email string `mapstructure:"email" yaml:"email,omitempty"`
}

// Config is the effective merged configuration.
type Config struct {
	Provider  string              `mapstructure:"provider" yaml:"provider"`
	Fallbacks []string            `mapstructure:"fallbacks" yaml:"fallbacks,omitempty"`
	Providers map[string]Provider `mapstructure:"providers" yaml:"providers"`
	Templates Templates           `mapstructure:"templates" yaml:"templates"`
	User      User                `mapstructure:"user" yaml:"user,omitempty"`
}

// Layers names the configuration files to merge, in ascending precedence.
// Empty entries are skipped; missing files are not errors.
type Layers struct {
	User    string
	Team    string
	Project string
}

// DefaultLayers returns the standard file locations for a repository root.
// The team layer has no fixed location; it is named explicitly through
// GITSCRIBE_TEAM_CONFIG.
func DefaultLayers(repoRoot string) Layers {
	return Layers{
		User:    filepath.Join(UserConfigDir(), "config.yaml"),
		Team:    os.Getenv("GITSCRIBE_TEAM_CONFIG"),
		Project: filepath.Join(repoRoot, ".gitscribe", "config.yaml"),
	}
}

// UserConfigDir returns the per-user configuration directory, honoring
// XDG_CONFIG_HOME.
func UserConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "gitscribe")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".gitscribe")
	}
	return filepath.Join(home, ".config", "gitscribe")
}

// Load merges the given layers over the built-in defaults and validates
// the result. Malformed files and invalid values are marked
// gitscribe.ErrInvalidConfig.
func Load(layers Layers) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	for _, file := range []string{layers.User, layers.Team, layers.Project} {
		if file == "" {
			continue
		}
		v.SetConfigFile(file)
		if err := v.MergeInConfig(); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, errors.Mark(
				errors.Wrapf(err, "read config %s", file),
				gitscribe.ErrInvalidConfig)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Mark(
			errors.Wrap(err, "decode config"), gitscribe.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration with no file layers applied.
func Default() *Config {
	return &Config{
		Provider: "ollama",
		Providers: map[string]Provider{
			"ollama": {
				BaseURL:     "http://localhost:11434",
				Model:       "qwen2.5:7b",
				Timeout:     30,
				Temperature: 0.7,
				MaxTokens:   1024,
				MaxRetries:  3,
				RetryDelay:  1,
			},
			"openai": {
				BaseURL:     "https://api.openai.com/v1",
				Model:       "gpt-3.5-turbo",
				Timeout:     30,
				Temperature: 0.7,
				MaxTokens:   1024,
				MaxRetries:  3,
				RetryDelay:  1,
			},
			"anthropic": {
				Model:       "claude-3-haiku-20240307",
				Timeout:     30,
				Temperature: 0.7,
				MaxTokens:   1024,
				MaxRetries:  3,
				RetryDelay:  1,
			},
			"lmstudio": {
				BaseURL:     "http://localhost:1234/v1",
				Model:       "local-model",
				Timeout:     30,
				Temperature: 0.7,
				MaxTokens:   1024,
				MaxRetries:  3,
				RetryDelay:  1,
			},
			"gemini": {
				Model:       "gemini-3-flash-preview",
				Timeout:     30,
				Temperature: 0.7,
				MaxTokens:   1024,
				MaxRetries:  3,
				RetryDelay:  1,
			},
		},
		Templates: Templates{
			Commit: "conventional",
			PR:     "github",
		},
	}
}

// setDefaults registers every key so environment overrides resolve even
// when no file layer mentions them.
func setDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("provider", def.Provider)
	v.SetDefault("templates.commit", def.Templates.Commit)
	v.SetDefault("templates.pr", def.Templates.PR)
	for name, p := range def.Providers {
		v.SetDefault("providers."+name+".base_url", p.BaseURL)
		v.SetDefault("providers."+name+".model", p.Model)
		v.SetDefault("providers."+name+".timeout", p.Timeout)
		v.SetDefault("providers."+name+".temperature", p.Temperature)
		v.SetDefault("providers."+name+".max_tokens", p.MaxTokens)
		v.SetDefault("providers."+name+".max_retries", p.MaxRetries)
		v.SetDefault("providers."+name+".retry_delay", p.RetryDelay)
	}
}

// Validate checks value ranges across all provider sections.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return errors.Mark(
			errors.New("provider must not be empty"), gitscribe.ErrInvalidConfig)
	}
	if _, ok := c.Providers[c.Provider]; !ok {
		return errors.Mark(
			errors.Newf("unknown provider %q", c.Provider), gitscribe.ErrInvalidConfig)
	}
	for name, p := range c.Providers {
		if p.Temperature < 0 || p.Temperature > 1 {
			return errors.Mark(
				errors.Newf("provider %s: temperature %g outside [0, 1]", name, p.Temperature),
				gitscribe.ErrInvalidConfig)
		}
		if p.Timeout <= 0 {
			return errors.Mark(
				errors.Newf("provider %s: timeout must be positive", name),
				gitscribe.ErrInvalidConfig)
		}
		if p.MaxTokens <= 0 {
			return errors.Mark(
				errors.Newf("provider %s: max_tokens must be positive", name),
				gitscribe.ErrInvalidConfig)
		}
	}
	return nil
}

// ActiveProvider returns the section for the selected provider.
func (c *Config) ActiveProvider() Provider {
	return c.Providers[c.Provider]
}

// YAML renders the configuration for display and for `config init`.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "render config")
	}
	return out, nil
}

// WriteUserConfig writes the configuration to the user-level file,
// creating the directory as needed. Refuses to overwrite an existing
// file.
func WriteUserConfig(c *Config) (string, error) {
	dir := UserConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "create config directory %s", dir)
	}
	path := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return "", errors.Newf("config file already exists at %s", path)
	}
	out, err := c.YAML()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return "", errors.Wrapf(err, "write config %s", path)
	}
	return path, nil
}
