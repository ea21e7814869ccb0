// file: gate/config/config.go

// Package config loads gateway settings from the environment.
package config

import (
	"fmt"
	"strconv"
)

const (
	DefaultHost    = "0.0.0.0"
	DefaultWSPort  = 4434
	DefaultNATSURL = "localhost:4222"
)

// Config holds all runtime gateway settings.
type Config struct {
	// Host is the bind address for every listener.
	Host string
	// WSPort is the WebSocket listen port; 0 means OS-assigned.
	WSPort int
	// WTPort is the WebTransport (QUIC) listen port; 0 disables the
	// transport entirely.
	WTPort int
	// NATSURL is the bus endpoint.
	NATSURL string
	// JWTSecret is the shared HS256 secret for token validation.
	JWTSecret string
	// TLSCertPath / TLSKeyPath configure the QUIC listener; when empty a
	// self-signed certificate is generated.
	TLSCertPath string
	TLSKeyPath  string
}

// MissingEnvVarError reports a required variable that was not set.
type MissingEnvVarError struct {
	Key string
}

func (e *MissingEnvVarError) Error() string {
	return "missing required environment variable: " + e.Key
}

// InvalidPortError reports a port variable that did not parse or is out of
// range.
type InvalidPortError struct {
	Key   string
	Value string
}

func (e *InvalidPortError) Error() string {
	return fmt.Sprintf("invalid port in %s: %q", e.Key, e.Value)
}

// FromEnv builds a Config from the environment. JWT_SECRET is required;
// everything else falls back to a default.
func FromEnv() (*Config, error) {
	secret := GetEnvStr("JWT_SECRET", "")
	if secret == "" {
		return nil, &MissingEnvVarError{Key: "JWT_SECRET"}
	}

	wsPort, err := getEnvPort("GATEWAY_WS_PORT", DefaultWSPort)
	if err != nil {
		return nil, err
	}
	wtPort, err := getEnvPort("GATEWAY_WT_PORT", 0)
	if err != nil {
		return nil, err
	}

	return &Config{
		Host:        GetEnvStr("GATEWAY_HOST", DefaultHost),
		WSPort:      wsPort,
		WTPort:      wtPort,
		NATSURL:     GetEnvStr("NATS_URL", DefaultNATSURL),
		JWTSecret:   secret,
		TLSCertPath: GetEnvStr("TLS_CERT_PATH", ""),
		TLSKeyPath:  GetEnvStr("TLS_KEY_PATH", ""),
	}, nil
}

// WTEnabled reports whether the optional QUIC transport is configured.
func (c *Config) WTEnabled() bool {
	return c.WTPort > 0
}

func getEnvPort(key string, fallback int) (int, error) {
	raw := GetEnvStr(key, "")
	if raw == "" {
		return fallback, nil
	}
	port, err := strconv.Atoi(raw)
	if err != nil || port < 0 || port > 65535 {
		return 0, &InvalidPortError{Key: key, Value: raw}
	}
	return port, nil
}
