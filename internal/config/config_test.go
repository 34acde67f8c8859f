// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFileAppliesDefaultsForOmittedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mcastctl.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`log_level = "debug"`+"\n"), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "0.0.0.0:6653", cfg.OpenFlowListen)
}

func TestLoadFileRejectsInvalidLogLevel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mcastctl.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`log_level = "verbose"`+"\n"), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
}

func TestValidateRejectsMalformedListenAddress(t *testing.T) {
	cfg := Default()
	cfg.MetricsListen = "not-an-address"
	require.Error(t, Validate(cfg))
}

func TestSampleTopologyAssignsPortsInDeclarationOrder(t *testing.T) {
	fx := SampleTopology()

	h1, ok := fx.Host("h1")
	require.True(t, ok)
	require.EqualValues(t, 1, h1.Port)

	h2, ok := fx.Host("h2")
	require.True(t, ok)
	require.EqualValues(t, 2, h2.Port)

	h3, ok := fx.Host("h3")
	require.True(t, ok)
	require.EqualValues(t, 2, h3.Port)
}
