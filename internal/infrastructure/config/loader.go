package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Loader handles configuration loading using Viper
type Loader struct {
	v        *viper.Viper
	envFiles []string
}

// NewLoader creates a new configuration loader instance.
// envFiles son archivos .env opcionales; por defecto ".env".
func NewLoader(envFiles ...string) *Loader {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	return &Loader{
		v:        viper.New(),
		envFiles: envFiles,
	}
}

// Load loads configuration from .env, files and environment variables
func (l *Loader) Load() (*Config, error) {
	if err := l.loadEnvFiles(); err != nil {
		return nil, err
	}

	l.setupViper()

	if err := l.v.ReadInConfig(); err != nil {
		// Sin config.yaml se usan sólo defaults y env vars
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := GetDefaultConfig()
	if err := l.v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	l.overrideWithEnvVars(config)

	return config, nil
}

// loadEnvFiles carga los .env existentes sin pisar variables ya definidas
func (l *Loader) loadEnvFiles() error {
	for _, path := range l.envFiles {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
	}
	return nil
}

// setupViper configures Viper to read files and env vars
func (l *Loader) setupViper() {
	l.v.SetConfigName("config")
	l.v.SetConfigType("yaml")

	l.v.AddConfigPath("./configs")
	l.v.AddConfigPath("../configs")
	l.v.AddConfigPath(".")
	l.v.AddConfigPath("/etc/ratewise")

	// RATEWISE_SERVER_PORT, RATEWISE_CACHE_BACKEND, ...
	l.v.AutomaticEnv()
	l.v.SetEnvPrefix("RATEWISE")
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	l.setDefaults(GetDefaultConfig())
	l.bindEnvVars()
}

// setDefaults registra las claves en viper; AutomaticEnv sólo aplica a claves conocidas
func (l *Loader) setDefaults(d *Config) {
	defaults := map[string]interface{}{
		"server.host":                     d.Server.Host,
		"server.port":                     d.Server.Port,
		"server.shutdown_timeout":         d.Server.ShutdownTimeout,
		"cache.backend":                   d.Cache.Backend,
		"cache.latest_ttl":                d.Cache.LatestTTL,
		"cache.history_ttl":               d.Cache.HistoryTTL,
		"cache.prefix":                    d.Cache.Prefix,
		"cache.redis.addr":                d.Cache.Redis.Addr,
		"cache.redis.password":            d.Cache.Redis.Password,
		"cache.redis.db":                  d.Cache.Redis.DB,
		"source.latest_mirrors":           d.Source.LatestMirrors,
		"source.history_mirrors":          d.Source.HistoryMirrors,
		"source.timeout":                  d.Source.Timeout,
		"source.max_retries":              d.Source.MaxRetries,
		"source.probe":                    d.Source.Probe,
		"source.rate_limit.enabled":       d.Source.RateLimit.Enabled,
		"source.rate_limit.capacity":      d.Source.RateLimit.Capacity,
		"source.rate_limit.refill_rate":   d.Source.RateLimit.RefillRate,
		"source.rate_limit.refill_period": d.Source.RateLimit.RefillPeriod,
		"history.max_days":                d.History.MaxDays,
		"history.max_concurrency":         d.History.MaxConcurrency,
		"history.location":                d.History.Location,
		"scheduler.frame_interval":        d.Scheduler.FrameInterval,
		"scheduler.budget":                d.Scheduler.Budget,
		"scheduler.tracked":               d.Scheduler.Tracked,
		"scheduler.rate_type":             d.Scheduler.RateType,
		"refresh.enabled":                 d.Refresh.Enabled,
		"refresh.spec":                    d.Refresh.Spec,
		"archive.enabled":                 d.Archive.Enabled,
		"archive.database_url":            d.Archive.DatabaseURL,
		"logging.level":                   d.Logging.Level,
		"logging.format":                  d.Logging.Format,
	}

	for key, value := range defaults {
		l.v.SetDefault(key, value)
	}
}

// bindEnvVars maps conventional environment variables to configuration keys
func (l *Loader) bindEnvVars() {
	envMappings := map[string][]string{
		"server.port":          {"RATEWISE_SERVER_PORT", "PORT"},
		"cache.backend":        {"RATEWISE_CACHE_BACKEND", "CACHE_BACKEND"},
		"cache.latest_ttl":     {"RATEWISE_CACHE_LATEST_TTL", "CACHE_TTL"},
		"cache.redis.addr":     {"RATEWISE_CACHE_REDIS_ADDR", "REDIS_ADDR"},
		"cache.redis.password": {"RATEWISE_CACHE_REDIS_PASSWORD", "REDIS_PASSWORD"},
		"cache.redis.db":       {"RATEWISE_CACHE_REDIS_DB", "REDIS_DB"},
		"source.timeout":       {"RATEWISE_SOURCE_TIMEOUT", "SOURCE_TIMEOUT"},
		"archive.database_url": {"RATEWISE_ARCHIVE_DATABASE_URL", "DATABASE_URL"},
		"logging.level":        {"RATEWISE_LOGGING_LEVEL", "LOG_LEVEL"},
		"logging.format":       {"RATEWISE_LOGGING_FORMAT", "LOG_FORMAT"},
	}

	for configKey, envVars := range envMappings {
		_ = l.v.BindEnv(append([]string{configKey}, envVars...)...)
	}
}

// overrideWithEnvVars maneja casos especiales de env vars
func (l *Loader) overrideWithEnvVars(config *Config) {
	// Listas separadas por comas
	if tracked := os.Getenv("TRACKED_CURRENCIES"); tracked != "" {
		if codes := splitList(tracked, strings.ToUpper); len(codes) > 0 {
			config.Scheduler.Tracked = codes
		}
	}
	if mirrors := os.Getenv("LATEST_MIRRORS"); mirrors != "" {
		if urls := splitList(mirrors, nil); len(urls) > 0 {
			config.Source.LatestMirrors = urls
		}
	}
	if mirrors := os.Getenv("HISTORY_MIRRORS"); mirrors != "" {
		if urls := splitList(mirrors, nil); len(urls) > 0 {
			config.Source.HistoryMirrors = urls
		}
	}

	// Archive se habilita implícitamente si hay DATABASE_URL
	if config.Archive.DatabaseURL != "" && os.Getenv("ARCHIVE_ENABLED") != "false" {
		config.Archive.Enabled = true
	}
}

// LoadForEnvironment loads specific configuration for an environment
func (l *Loader) LoadForEnvironment(environment string) (*Config, error) {
	config, err := l.Load()
	if err != nil {
		return nil, err
	}

	if environment != "" {
		l.v.SetConfigName(fmt.Sprintf("config.%s", environment))

		if err := l.v.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to merge environment config: %w", err)
			}
		}

		if err := l.v.Unmarshal(config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal merged config: %w", err)
		}

		l.overrideWithEnvVars(config)
	}

	return config, nil
}

// GetEnvironment determina el entorno actual desde ENV vars
func GetEnvironment() string {
	env := strings.ToLower(os.Getenv("ENV"))
	if env == "" {
		env = strings.ToLower(os.Getenv("ENVIRONMENT"))
	}
	if env == "" {
		env = "development"
	}
	return env
}

func splitList(raw string, normalize func(string) string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if normalize != nil {
			item = normalize(item)
		}
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
