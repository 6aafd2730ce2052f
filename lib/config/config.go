// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the config file when no --config flag is
// given.
const EnvironmentVariable = "LOGTEST_CONFIG"

// Config is the client configuration.
type Config struct {
	// SocketPath is the daemon's log-test socket.
	// Default: /var/ossec/queue/ossec/logtest
	SocketPath string `yaml:"socket_path"`

	// Location is the log origin reported with every event.
	// Default: master->/var/log/syslog
	Location string `yaml:"location"`

	// LogFormat selects the daemon's pre-decoder.
	// Default: syslog
	LogFormat string `yaml:"log_format"`

	// Origin identifies the client in request envelopes.
	Origin OriginConfig `yaml:"origin"`

	// InitConf is the installation metadata file read for -V.
	// Default: /etc/ossec-init.conf
	InitConf string `yaml:"init_conf"`

	// Timeouts bound socket operations.
	Timeouts TimeoutsConfig `yaml:"timeouts"`
}

// OriginConfig is the sender identity stamped on requests.
type OriginConfig struct {
	// Name of the sending program. Default: wazuh-logtest
	Name string `yaml:"name"`

	// Module within the sending program. Default: wazuh-logtest
	Module string `yaml:"module"`
}

// TimeoutsConfig bounds socket operations. Values are Go duration
// strings ("500ms", "5s"). Empty or "0s" means unbounded.
type TimeoutsConfig struct {
	// Dial bounds connecting to the socket.
	Dial string `yaml:"dial"`

	// Exchange bounds sending a request and reading its reply.
	Exchange string `yaml:"exchange"`
}

// Default returns the configuration for a standard installation. Values
// loaded from a file are merged over it.
func Default() *Config {
	return &Config{
		SocketPath: "/var/ossec/queue/ossec/logtest",
		Location:   "master->/var/log/syslog",
		LogFormat:  "syslog",
		Origin: OriginConfig{
			Name:   "wazuh-logtest",
			Module: "wazuh-logtest",
		},
		InitConf: "/etc/ossec-init.conf",
	}
}

// Load loads configuration from the file named by LOGTEST_CONFIG, or
// returns Default when the variable is unset.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return Default(), nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. Fields the
// file does not set keep their defaults. Unknown keys are an error so a
// misspelt key does not silently fall back to a default.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.expandVariables()

	return cfg, nil
}

// loadFile merges a YAML file into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.SocketPath = expandVars(c.SocketPath, vars)
	c.InitConf = expandVars(c.InitConf, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns. Provided vars
// are consulted first, then the environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// DialTimeout returns the parsed dial timeout. Zero means unbounded.
func (c *Config) DialTimeout() (time.Duration, error) {
	return parseTimeout("timeouts.dial", c.Timeouts.Dial)
}

// ExchangeTimeout returns the parsed exchange timeout. Zero means
// unbounded.
func (c *Config) ExchangeTimeout() (time.Duration, error) {
	return parseTimeout("timeouts.exchange", c.Timeouts.Exchange)
}

func parseTimeout(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if duration < 0 {
		return 0, fmt.Errorf("%s: must not be negative, got %s", field, value)
	}
	return duration, nil
}

// Validate checks the configuration for errors. Every problem is
// reported, not just the first.
func (c *Config) Validate() error {
	var errs []error

	if c.SocketPath == "" {
		errs = append(errs, fmt.Errorf("socket_path is required"))
	}

	if c.Location == "" {
		errs = append(errs, fmt.Errorf("location is required"))
	}

	if c.LogFormat == "" {
		errs = append(errs, fmt.Errorf("log_format is required"))
	}

	if c.Origin.Name == "" {
		errs = append(errs, fmt.Errorf("origin.name is required"))
	}
	if c.Origin.Module == "" {
		errs = append(errs, fmt.Errorf("origin.module is required"))
	}

	if _, err := c.DialTimeout(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.ExchangeTimeout(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
