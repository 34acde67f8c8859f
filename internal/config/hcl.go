// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package config

import (
	"github.com/hashicorp/hcl/v2/hclsimple"

	"grimm.is/mcastctl/internal/errors"
)

// LoadFile parses an HCL configuration file into a Config, applying
// defaults for anything left unset, and validates the result.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := hclsimple.DecodeFile(path, nil, cfg); err != nil {
		return nil, errors.Wrapf(err, errors.KindValidation, "load config %s", path)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
