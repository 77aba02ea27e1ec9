// Package config loads the server configuration described in spec §6:
// a JSON file with server/security.auth/security.rate_limit/logging
// sections, overlaid by environment variables, overlaid by CLI flags
// (CLI > env > file > defaults). This is deliberately plumbing per
// spec §1 ("a reimplementation may choose any idiomatic approach"), kept
// here mainly so internal/admin and internal/server have one place to
// read tunables from.
package config

import (
	"encoding/json"
	"net"
	"os"
	"strconv"
)

// Server is the root config shape, matching §6's literal JSON sections.
type Server struct {
	Host string `json:"host"`
	Port uint16 `json:"port"`

	GracefulShutdownSecs int `json:"graceful_shutdown"`

	Auth struct {
		Enabled bool     `json:"enabled"`
		APIKeys []string `json:"api_keys"`
	} `json:"auth"`

	RateLimit struct {
		Enabled           bool `json:"enabled"`
		RequestsPerWindow int  `json:"requests_per_window"`
		WindowSecs        int  `json:"window_secs"`
	} `json:"rate_limit"`

	LogLevel string `json:"log_level"`
}

// fileShape mirrors §6's nested JSON layout: {server:{...}, security:
// {auth:{...}, rate_limit:{...}}, logging:{level}}.
type fileShape struct {
	Server struct {
		Host              string `json:"host"`
		Port              uint16 `json:"port"`
		GracefulShutdown  int    `json:"graceful_shutdown"`
	} `json:"server"`
	Security struct {
		Auth struct {
			Enabled bool     `json:"enabled"`
			APIKeys []string `json:"api_keys"`
		} `json:"auth"`
		RateLimit struct {
			Enabled           *bool `json:"enabled"`
			RequestsPerWindow int   `json:"requests_per_window"`
			WindowSecs        int   `json:"window_secs"`
		} `json:"rate_limit"`
	} `json:"security"`
	Logging struct {
		Level string `json:"level"`
	} `json:"logging"`
}

// Defaults returns the built-in default configuration.
func Defaults() Server {
	var s Server
	s.Host = "127.0.0.1"
	s.Port = 3000
	s.GracefulShutdownSecs = 10
	s.Auth.Enabled = false
	s.RateLimit.Enabled = true
	s.RateLimit.RequestsPerWindow = 100
	s.RateLimit.WindowSecs = 60
	s.LogLevel = "info"
	return s
}

// LoadFile reads and parses a JSON config file at path. Missing fields
// take the defaults; a missing file is not an error — callers should
// check os.IsNotExist and proceed with Defaults().
func LoadFile(path string) (Server, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	var raw fileShape
	if err := json.Unmarshal(data, &raw); err != nil {
		return cfg, err
	}
	if raw.Server.Host != "" {
		cfg.Host = raw.Server.Host
	}
	if raw.Server.Port != 0 {
		cfg.Port = raw.Server.Port
	}
	if raw.Server.GracefulShutdown != 0 {
		cfg.GracefulShutdownSecs = raw.Server.GracefulShutdown
	}
	cfg.Auth.Enabled = raw.Security.Auth.Enabled
	if len(raw.Security.Auth.APIKeys) > 0 {
		cfg.Auth.APIKeys = raw.Security.Auth.APIKeys
	}
	if raw.Security.RateLimit.Enabled != nil {
		cfg.RateLimit.Enabled = *raw.Security.RateLimit.Enabled
	}
	if raw.Security.RateLimit.RequestsPerWindow != 0 {
		cfg.RateLimit.RequestsPerWindow = raw.Security.RateLimit.RequestsPerWindow
	}
	if raw.Security.RateLimit.WindowSecs != 0 {
		cfg.RateLimit.WindowSecs = raw.Security.RateLimit.WindowSecs
	}
	if raw.Logging.Level != "" {
		cfg.LogLevel = raw.Logging.Level
	}
	return cfg, nil
}

// EnvOverlay applies the SHELL_TUNNEL_* environment variables on top of
// cfg, per §6's env key list.
func EnvOverlay(cfg Server) Server {
	if v := os.Getenv("SHELL_TUNNEL_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("SHELL_TUNNEL_PORT"); v != "" {
		if p, err := parsePort(v); err == nil {
			cfg.Port = p
		}
	}
	if v := os.Getenv("SHELL_TUNNEL_API_KEY"); v != "" {
		cfg.Auth.Enabled = true
		cfg.Auth.APIKeys = append(cfg.Auth.APIKeys, v)
	}
	if v := os.Getenv("SHELL_TUNNEL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return cfg
}

func parsePort(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

// Addr returns "host:port" for net.Listen.
func (s Server) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(int(s.Port)))
}
