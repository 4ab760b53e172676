package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"ratewise-service/internal/domain/entities"
)

// Validator valida la configuración cargada
type Validator struct{}

// NewValidator crea una nueva instancia del validador
func NewValidator() *Validator {
	return &Validator{}
}

// Validate valida toda la configuración
func (v *Validator) Validate(config *Config) error {
	if err := v.validateServer(config.Server); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}

	if err := v.validateCache(config.Cache); err != nil {
		return fmt.Errorf("cache config validation failed: %w", err)
	}

	if err := v.validateSource(config.Source); err != nil {
		return fmt.Errorf("source config validation failed: %w", err)
	}

	if err := v.validateHistory(config.History); err != nil {
		return fmt.Errorf("history config validation failed: %w", err)
	}

	if err := v.validateRangeBurst(config.Source.RateLimit, config.History); err != nil {
		return fmt.Errorf("source config validation failed: %w", err)
	}

	if err := v.validateScheduler(config.Scheduler); err != nil {
		return fmt.Errorf("scheduler config validation failed: %w", err)
	}

	if err := v.validateRefresh(config.Refresh); err != nil {
		return fmt.Errorf("refresh config validation failed: %w", err)
	}

	if err := v.validateArchive(config.Archive); err != nil {
		return fmt.Errorf("archive config validation failed: %w", err)
	}

	if err := v.validateLogging(config.Logging); err != nil {
		return fmt.Errorf("logging config validation failed: %w", err)
	}

	return nil
}

// validateServer valida la configuración del servidor
func (v *Validator) validateServer(config ServerConfig) error {
	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("invalid port: %d, must be between 1-65535", config.Port)
	}

	if config.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive, got: %v", config.ShutdownTimeout)
	}

	if config.ShutdownTimeout > 5*time.Minute {
		return fmt.Errorf("shutdown_timeout too long: %v, max 5 minutes", config.ShutdownTimeout)
	}

	return nil
}

// validateCache valida la configuración del cache
func (v *Validator) validateCache(config CacheConfig) error {
	validBackends := []string{"memory", "redis"}
	if !contains(validBackends, config.Backend) {
		return fmt.Errorf("invalid cache backend: %s, must be one of: %v", config.Backend, validBackends)
	}

	if config.LatestTTL <= 0 {
		return fmt.Errorf("latest_ttl must be positive, got: %v", config.LatestTTL)
	}

	if config.LatestTTL > 24*time.Hour {
		return fmt.Errorf("latest_ttl too long: %v, max 24 hours", config.LatestTTL)
	}

	// 0 = sin expiración
	if config.HistoryTTL < 0 {
		return fmt.Errorf("history_ttl cannot be negative, got: %v", config.HistoryTTL)
	}

	if config.Backend == "redis" {
		if config.Prefix == "" {
			return fmt.Errorf("prefix cannot be empty with redis backend")
		}
		if err := v.validateRedis(config.Redis); err != nil {
			return err
		}
	}

	return nil
}

// validateRedis valida la configuración de Redis
func (v *Validator) validateRedis(config RedisConfig) error {
	if config.Addr == "" {
		return fmt.Errorf("redis addr cannot be empty")
	}

	if !strings.Contains(config.Addr, ":") {
		return fmt.Errorf("invalid redis addr format: %s, expected host:port", config.Addr)
	}

	if config.DB < 0 || config.DB > 15 {
		return fmt.Errorf("invalid redis DB: %d, must be between 0-15", config.DB)
	}

	return nil
}

// validateSource valida los mirrors y el cliente HTTP
func (v *Validator) validateSource(config SourceConfig) error {
	if len(config.LatestMirrors) < 2 {
		return fmt.Errorf("latest_mirrors needs at least 2 urls, got: %d", len(config.LatestMirrors))
	}
	for _, mirror := range config.LatestMirrors {
		if err := v.validateURL(mirror, "latest mirror"); err != nil {
			return err
		}
	}

	if len(config.HistoryMirrors) < 2 {
		return fmt.Errorf("history_mirrors needs at least 2 urls, got: %d", len(config.HistoryMirrors))
	}
	for _, mirror := range config.HistoryMirrors {
		if !strings.Contains(mirror, "{date}") {
			return fmt.Errorf("history mirror %s must contain the {date} placeholder", mirror)
		}
		if err := v.validateURL(strings.ReplaceAll(mirror, "{date}", "2006-01-02"), "history mirror"); err != nil {
			return err
		}
	}

	if config.Timeout <= 0 {
		return fmt.Errorf("source timeout must be positive, got: %v", config.Timeout)
	}

	if config.MaxRetries < 0 || config.MaxRetries > 10 {
		return fmt.Errorf("source max_retries must be between 0-10, got: %d", config.MaxRetries)
	}

	if config.RateLimit.Enabled {
		if config.RateLimit.Capacity <= 0 || config.RateLimit.RefillRate <= 0 {
			return fmt.Errorf("rate_limit capacity and refill_rate must be positive, got: %d/%d",
				config.RateLimit.Capacity, config.RateLimit.RefillRate)
		}
		if config.RateLimit.RefillPeriod <= 0 {
			return fmt.Errorf("rate_limit refill_period must be positive, got: %v", config.RateLimit.RefillPeriod)
		}
	}

	return nil
}

// validateRangeBurst exige que un rango completo (HEAD + GET por día) quepa en
// la ráfaga del bucket; si no, el rango se serializa al ritmo del refill.
func (v *Validator) validateRangeBurst(limit RateLimitConfig, history HistoryConfig) error {
	if !limit.Enabled {
		return nil
	}
	if required := int64(2 * history.MaxDays); limit.Capacity < required {
		return fmt.Errorf("rate_limit capacity %d cannot burst a full range, need at least %d (2 * max_days)",
			limit.Capacity, required)
	}
	return nil
}

// validateHistory valida el agregador de rangos
func (v *Validator) validateHistory(config HistoryConfig) error {
	if config.MaxDays <= 0 || config.MaxDays > 365 {
		return fmt.Errorf("max_days must be between 1-365, got: %d", config.MaxDays)
	}

	if config.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency cannot be negative, got: %d", config.MaxConcurrency)
	}

	if _, err := time.LoadLocation(config.Location); err != nil {
		return fmt.Errorf("invalid location %q: %w", config.Location, err)
	}

	return nil
}

// validateScheduler valida el scheduler de recálculo
func (v *Validator) validateScheduler(config SchedulerConfig) error {
	if config.FrameInterval <= 0 {
		return fmt.Errorf("frame_interval must be positive, got: %v", config.FrameInterval)
	}

	if config.Budget <= 0 {
		return fmt.Errorf("budget must be positive, got: %v", config.Budget)
	}

	if len(config.Tracked) == 0 {
		return fmt.Errorf("tracked currencies cannot be empty")
	}

	for _, code := range config.Tracked {
		if _, err := entities.ParseCurrencyCode(code); err != nil {
			return err
		}
	}

	if _, err := entities.ParseRateType(config.RateType); err != nil {
		return err
	}

	return nil
}

// validateRefresh valida la expresión cron del refresco
func (v *Validator) validateRefresh(config RefreshConfig) error {
	if !config.Enabled {
		return nil
	}

	if _, err := cron.ParseStandard(config.Spec); err != nil {
		return fmt.Errorf("invalid refresh spec %q: %w", config.Spec, err)
	}

	return nil
}

// validateArchive valida el archivo de snapshots
func (v *Validator) validateArchive(config ArchiveConfig) error {
	if !config.Enabled {
		return nil
	}

	if config.DatabaseURL == "" {
		return fmt.Errorf("database_url cannot be empty when archive is enabled")
	}

	parsed, err := url.Parse(config.DatabaseURL)
	if err != nil {
		return fmt.Errorf("invalid database_url: %w", err)
	}

	if parsed.Scheme != "postgres" && parsed.Scheme != "postgresql" {
		return fmt.Errorf("invalid database_url scheme: %s, must be postgres or postgresql", parsed.Scheme)
	}

	return nil
}

// validateLogging valida la configuración de logging
func (v *Validator) validateLogging(config LoggingConfig) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, strings.ToLower(config.Level)) {
		return fmt.Errorf("invalid log level: %s, must be one of: %v", config.Level, validLevels)
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, strings.ToLower(config.Format)) {
		return fmt.Errorf("invalid log format: %s, must be one of: %v", config.Format, validFormats)
	}

	return nil
}

// validateURL valida que una URL sea válida para HTTP/HTTPS
func (v *Validator) validateURL(rawURL, fieldName string) error {
	if rawURL == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid %s: %s, error: %v", fieldName, rawURL, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("invalid %s scheme: %s, must be http or https", fieldName, parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("%s must have a host", fieldName)
	}

	return nil
}

// contains verifica si un slice contiene un elemento
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}
