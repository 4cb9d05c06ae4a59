package config

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. PROMPTLIB_DATA_DIR
const EnvPrefix = "PROMPTLIB"

// Config is the resolved runtime configuration
type Config struct {
	DataDir      string        `mapstructure:"data_dir" yaml:"data_dir"`
	LogLevel     string        `mapstructure:"log_level" yaml:"log_level"`
	SaveDebounce time.Duration `mapstructure:"save_debounce" yaml:"save_debounce"`
	Remote       RemoteConfig  `mapstructure:"remote" yaml:"remote"`
	AI           AIConfig      `mapstructure:"ai" yaml:"ai"`
}

// RemoteConfig tunes the hosted mirror client. The endpoint itself is stored in settings.
type RemoteConfig struct {
	RetryAttempts uint          `mapstructure:"retry_attempts" yaml:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	ChunkSize     int           `mapstructure:"chunk_size" yaml:"chunk_size"`
	// Timeout bounds connecting and each query attempt
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// AIConfig configures the OpenAI compatible enrichment client
type AIConfig struct {
	APIKey      string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL     string `mapstructure:"base_url" yaml:"base_url"`
	Model       string `mapstructure:"model" yaml:"model"`
	FastModel   string `mapstructure:"fast_model" yaml:"fast_model"`
	SpeechModel string `mapstructure:"speech_model" yaml:"speech_model"`
	Voice       string `mapstructure:"voice" yaml:"voice"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() Config {
	return Config{
		DataDir:      defaultDataDir(),
		LogLevel:     "warn",
		SaveDebounce: 300 * time.Millisecond,
		Remote: RemoteConfig{
			RetryAttempts: 3,
			RetryDelay:    500 * time.Millisecond,
			ChunkSize:     100,
			Timeout:       10 * time.Second,
		},
		AI: AIConfig{
			Model:       "gpt-4o",
			FastModel:   "gpt-4o-mini",
			SpeechModel: "tts-1-hd",
			Voice:       "onyx",
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".promptlib"
	}
	return filepath.Join(home, ".promptlib")
}

// Load resolves configuration from defaults, an optional YAML file and PROMPTLIB_*
// environment variables, in increasing priority. With cfgFile empty, config.yaml is looked
// up in the data directory.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("data_dir", defaults.DataDir)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("save_debounce", defaults.SaveDebounce)
	v.SetDefault("remote.retry_attempts", defaults.Remote.RetryAttempts)
	v.SetDefault("remote.retry_delay", defaults.Remote.RetryDelay)
	v.SetDefault("remote.chunk_size", defaults.Remote.ChunkSize)
	v.SetDefault("remote.timeout", defaults.Remote.Timeout)
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.model", defaults.AI.Model)
	v.SetDefault("ai.fast_model", defaults.AI.FastModel)
	v.SetDefault("ai.speech_model", defaults.AI.SpeechModel)
	v.SetDefault("ai.voice", defaults.AI.Voice)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(v.GetString("data_dir"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !stderrors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.AI.APIKey == "" {
		cfg.AI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	cfg.DataDir = expandHome(cfg.DataDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the rest of the program cannot work with
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.SaveDebounce < 0 {
		return fmt.Errorf("save_debounce must not be negative")
	}
	if c.Remote.ChunkSize <= 0 {
		return fmt.Errorf("remote.chunk_size must be positive")
	}
	if c.Remote.Timeout <= 0 {
		return fmt.Errorf("remote.timeout must be positive")
	}
	return nil
}

// ParseLevel maps a log level name to its slog level
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: use debug, info, warn or error", name)
	}
	return level, nil
}

// DatabasePath is the local SQLite file
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "library.db")
}

// WriteDefault writes the default configuration as a starting point for editing
func WriteDefault(path string) error {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# promptlib configuration\n" +
		"# Every key can be overridden with a PROMPTLIB_ environment variable, e.g. PROMPTLIB_LOG_LEVEL=debug\n\n")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(header, data...), 0o644)
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
