// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelDebug, Output: &buf, Timestamp: false})

	l.With("component", "topology").Info("link up", "from", 9, "to", 10)

	out := buf.String()
	require.Contains(t, out, "link up")
	require.Contains(t, out, "component=topology")
	require.Contains(t, out, "from=9")
}

func TestDiscardProducesNoOutput(t *testing.T) {
	l := Discard()
	l.Info("should not appear", "x", 1)
	// Discard writes to io.Discard; nothing to assert beyond not panicking.
	require.NotNil(t, l)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelWarn, Output: &buf, Timestamp: false})

	l.Info("hidden")
	l.Warn("shown")

	out := buf.String()
	require.False(t, strings.Contains(out, "hidden"))
	require.True(t, strings.Contains(out, "shown"))
}
