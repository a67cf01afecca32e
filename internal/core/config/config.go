// Package config provides configuration management for shelfwright services.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"
)

// ConfiguratorConfig holds configuration for the gRPC configurator service
// and the local tools that share its catalog and history settings.
type ConfiguratorConfig struct {
	Host           string
	Port           int
	RequestTimeout time.Duration
	MaxSessions    int
	SessionTTL     time.Duration
	HistoryDepth   int
	DataDir        string
	CatalogPath    string
	MetricsAddr    string
}

// DefaultConfiguratorConfig returns configuration with default values.
func DefaultConfiguratorConfig() *ConfiguratorConfig {
	return &ConfiguratorConfig{
		Host:           "0.0.0.0",
		Port:           50061,
		RequestTimeout: 30 * time.Second,
		MaxSessions:    1000,
		SessionTTL:     2 * time.Hour,
		HistoryDepth:   100,
		DataDir:        "./data",
	}
}

// Addr is the host:port the gRPC listener binds.
func (c *ConfiguratorConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// HMACSecrets extracts HMAC secrets from environment variables.
// Supports SW_HMAC_SECRET (single) and SW_HMAC_SECRET_N (rotation).
// Returns map of secret_id -> decoded secret bytes.
// Secret IDs are UUIDv7 (32 hex chars without hyphens) matching API key format.
func HMACSecrets() (map[string][]byte, error) {
	secrets := make(map[string][]byte)

	add := func(key, val string) error {
		secretID, decoded, err := ParseHMACSecretWithID(val)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if _, exists := secrets[secretID]; exists {
			return fmt.Errorf("duplicate secret_id '%s' found in environment variables (check SW_HMAC_SECRET and SW_HMAC_SECRET_* for conflicts)", secretID)
		}
		secrets[secretID] = decoded
		return nil
	}

	// Format: <secret_id>:<base64_secret>
	if val := os.Getenv("SW_HMAC_SECRET"); val != "" {
		if err := add("SW_HMAC_SECRET", val); err != nil {
			return nil, err
		}
	}

	// Numbered secrets keep old and new keys valid during rotation.
	for i := 1; ; i++ {
		key := fmt.Sprintf("SW_HMAC_SECRET_%d", i)
		val := os.Getenv(key)
		if val == "" {
			break
		}
		if err := add(key, val); err != nil {
			return nil, err
		}
	}

	return secrets, nil
}

// ParseHMACSecret decodes base64-encoded HMAC secret from environment variable.
func ParseHMACSecret(envValue string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(envValue))
	if err != nil {
		return nil, fmt.Errorf("invalid base64 encoding: %w", err)
	}
	if len(decoded) < 32 {
		return nil, fmt.Errorf("secret must be at least 32 bytes, got %d", len(decoded))
	}
	return decoded, nil
}

// ParseHMACSecretWithID parses secret_id:base64_secret format.
// Secret ID must be 32 lowercase hex chars (UUIDv7 without hyphens).
func ParseHMACSecretWithID(envValue string) (secretID string, secret []byte, err error) {
	id, encoded, ok := strings.Cut(strings.TrimSpace(envValue), ":")
	if !ok {
		return "", nil, fmt.Errorf("format must be <secret_id>:<base64_secret>")
	}
	if len(id) != 32 {
		return "", nil, fmt.Errorf("secret_id must be 32 hex chars (UUIDv7 without hyphens)")
	}
	for _, c := range id {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return "", nil, fmt.Errorf("secret_id must be hex chars only")
		}
	}

	secret, err = ParseHMACSecret(encoded)
	if err != nil {
		return "", nil, err
	}
	return id, secret, nil
}
