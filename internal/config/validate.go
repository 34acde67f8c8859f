// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package config

import (
	"net"

	"grimm.is/mcastctl/internal/errors"
)

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks a Config for internal consistency. It never touches
// the network; listen addresses are checked for well-formedness only.
func Validate(cfg *Config) error {
	if !validLogLevels[cfg.LogLevel] {
		return errors.Errorf(errors.KindValidation, "invalid log_level %q", cfg.LogLevel)
	}
	if _, _, err := net.SplitHostPort(cfg.OpenFlowListen); err != nil {
		return errors.Wrapf(err, errors.KindValidation, "invalid openflow_listen %q", cfg.OpenFlowListen)
	}
	if _, _, err := net.SplitHostPort(cfg.MetricsListen); err != nil {
		return errors.Wrapf(err, errors.KindValidation, "invalid metrics_listen %q", cfg.MetricsListen)
	}
	return nil
}
