package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence; flags are
// applied by the caller after loading.
func LoadConfig(configPath string) (*ConfiguratorConfig, error) {
	v := viper.New()

	d := DefaultConfiguratorConfig()
	v.SetDefault("configurator.host", d.Host)
	v.SetDefault("configurator.port", d.Port)
	v.SetDefault("configurator.request_timeout", d.RequestTimeout.String())
	v.SetDefault("configurator.max_sessions", d.MaxSessions)
	v.SetDefault("configurator.session_ttl", d.SessionTTL.String())
	v.SetDefault("configurator.history_depth", d.HistoryDepth)
	v.SetDefault("configurator.data_dir", d.DataDir)
	v.SetDefault("configurator.catalog_path", "")
	v.SetDefault("configurator.metrics_addr", "")

	// SW_CONFIGURATOR_PORT overrides configurator.port, and so on.
	v.SetEnvPrefix("SW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := validateNoSecretsInConfig(v); err != nil {
		return nil, err
	}

	cfg := &ConfiguratorConfig{
		Host:           v.GetString("configurator.host"),
		Port:           v.GetInt("configurator.port"),
		RequestTimeout: v.GetDuration("configurator.request_timeout"),
		MaxSessions:    v.GetInt("configurator.max_sessions"),
		SessionTTL:     v.GetDuration("configurator.session_ttl"),
		HistoryDepth:   v.GetInt("configurator.history_depth"),
		DataDir:        v.GetString("configurator.data_dir"),
		CatalogPath:    v.GetString("configurator.catalog_path"),
		MetricsAddr:    v.GetString("configurator.metrics_addr"),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateConfig checks port range and positive limits.
func validateConfig(cfg *ConfiguratorConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", cfg.RequestTimeout)
	}
	if cfg.MaxSessions <= 0 {
		return fmt.Errorf("max_sessions must be positive, got %d", cfg.MaxSessions)
	}
	if cfg.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive, got %v", cfg.SessionTTL)
	}
	if cfg.HistoryDepth <= 0 {
		return fmt.Errorf("history_depth must be positive, got %d", cfg.HistoryDepth)
	}
	return nil
}

// validateNoSecretsInConfig enforces environment-only secrets. InConfig only
// looks at the file, so SW_HMAC_SECRET in the environment is not flagged.
func validateNoSecretsInConfig(v *viper.Viper) error {
	if v.InConfig("hmac_secret") || v.InConfig("configurator.hmac_secret") {
		return fmt.Errorf("HMAC secrets not allowed in config files (use SW_HMAC_SECRET environment variable)")
	}
	return nil
}
