package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variable overrides, e.g. ERRBOOK_SYNC_ENDPOINT.
const EnvPrefix = "ERRBOOK"

// Loader reads configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence.
type Loader struct {
	v        *viper.Viper
	file     string
	validate *validator.Validate
}

// NewLoader creates a Loader. When file is empty, errbook.yaml is looked up
// in the working directory and in $HOME/.config/errbook.
func NewLoader(file string) *Loader {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("errbook")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/errbook")
	}

	return &Loader{v: v, file: file, validate: validator.New()}
}

// Load configuration from defaults, config file and environment variables.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if l.file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return l.decode()
}

// Watch calls onChange with the re-read configuration whenever the config
// file changes. It is a no-op when no file was loaded.
func (l *Loader) Watch(onChange func(*Config, error)) {
	if l.v.ConfigFileUsed() == "" {
		return
	}

	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		onChange(l.decode())
	})
	l.v.WatchConfig()
}

// File returns the path of the config file in use, if any.
func (l *Loader) File() string {
	return l.v.ConfigFileUsed()
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := l.validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if _, err := cfg.Storage.Location(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}

// Load is a shorthand for NewLoader(file).Load().
func Load(file string) (*Config, error) {
	return NewLoader(file).Load()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	v.SetDefault("storage.path", "errbook.db")
	v.SetDefault("storage.timezone", "")

	v.SetDefault("scheduler.intervals_days", []int{1, 3, 7, 14, 30, 60})

	v.SetDefault("sync.endpoint", "")
	v.SetDefault("sync.interval", 30*time.Second)
	v.SetDefault("sync.timeout", 15*time.Second)
	v.SetDefault("sync.health_url", "")
	v.SetDefault("sync.probe_interval", 10*time.Second)
	v.SetDefault("sync.tracked_entities", []string{"wrong_question", "note"})
}
