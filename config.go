package authflow

import (
	"errors"
	"net/url"
	"time"
)

// Config defines a public type used by authflow APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	HTTP      HTTPConfig
	Bootstrap BootstrapConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
HTTP CONFIG
====================================
*/

// HTTPConfig defines a public type used by authflow APIs.
//
// HTTPConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HTTPConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

/*
====================================
BOOTSTRAP CONFIG
====================================
*/

// BootstrapConfig defines a public type used by authflow APIs.
//
// BootstrapConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type BootstrapConfig struct {
	// PrecheckTokenExpiry short-circuits revalidation when the persisted
	// token is a parseable JWT that is already expired: the session is
	// cleared without a network round-trip. Opaque tokens are unaffected.
	PrecheckTokenExpiry bool
	// ExpirySkew widens the precheck so a token expiring within the skew
	// window is treated as expired.
	ExpirySkew time.Duration
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig defines a public type used by authflow APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by authflow APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Timeout:   15 * time.Second,
			UserAgent: "wardline-authflow/1",
		},
		Bootstrap: BootstrapConfig{
			PrecheckTokenExpiry: true,
			ExpirySkew:          30 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// DefaultConfig returns the package defaults. Callers mutate the copy and
// pass it to [Builder.WithConfig].
func DefaultConfig() Config {
	return defaultConfig()
}

func cloneConfig(cfg Config) Config {
	// All sections are value types today; the clone exists so future
	// reference fields cannot leak caller aliasing into the engine.
	return cfg
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
func (c Config) Validate() error {
	if c.HTTP.BaseURL != "" {
		u, err := url.Parse(c.HTTP.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.New("HTTP.BaseURL must be an absolute URL")
		}
	}
	if c.HTTP.Timeout < 0 {
		return errors.New("HTTP.Timeout must not be negative")
	}
	if c.Bootstrap.ExpirySkew < 0 {
		return errors.New("Bootstrap.ExpirySkew must not be negative")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit.BufferSize must be positive when audit is enabled")
	}
	return nil
}
