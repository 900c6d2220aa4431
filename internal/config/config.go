package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/bookbuddy-app/bookbuddy/internal/prefs"
)

// Config holds application configuration.
type Config struct {
	API   APIConfig   `mapstructure:"api"`
	Prefs PrefsConfig `mapstructure:"prefs"`
	Log   LogConfig   `mapstructure:"log"`
}

// APIConfig holds backend connection settings.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// PrefsConfig locates the local preferences file.
type PrefsConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from defaults, an optional config.yaml and env.
// Env var overrides use prefix BOOKBUDDY_, e.g. BOOKBUDDY_API_BASE_URL.
// An explicit path must exist; the default location is optional.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("api.base_url", "http://localhost:8000/api")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("prefs.path", defaultPrefsPath())
	v.SetDefault("log.level", "info")

	v.SetConfigType("yaml")

	if path == "" {
		path = os.Getenv("BOOKBUDDY_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "bookbuddy"))
		}
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("BOOKBUDDY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		slog.Debug("Loaded config file", "path", v.ConfigFileUsed())
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.API.Timeout <= 0 {
		return Config{}, fmt.Errorf("api.timeout must be positive, got %s", c.API.Timeout)
	}
	return c, nil
}

// SlogLevel maps the configured level name to a slog.Level.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func defaultPrefsPath() string {
	path, err := prefs.DefaultPath()
	if err != nil {
		return "prefs.yaml"
	}
	return path
}
