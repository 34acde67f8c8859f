// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package config loads and validates the controller's static
// configuration: log level, listen addresses, and nothing that would
// amount to persisted control-plane state — the controller re-derives
// all of that from observed events on every start.
package config

// Config is the top-level HCL configuration document.
type Config struct {
	LogLevel       string `hcl:"log_level,optional"`
	OpenFlowListen string `hcl:"openflow_listen,optional"`
	MetricsListen  string `hcl:"metrics_listen,optional"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		LogLevel:       "info",
		OpenFlowListen: "0.0.0.0:6653",
		MetricsListen:  "127.0.0.1:9273",
	}
}
