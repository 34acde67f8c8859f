// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryRegistersEveryMetric(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)

	r.ActiveGroups.Set(3)
	r.FlowModsSent.WithLabelValues("ADD").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, families)

	var found bool
	var names []string
	for _, fam := range families {
		names = append(names, fam.GetName())
		if fam.GetName() == "mcastctl_active_groups" {
			found = true
			require.Equal(t, float64(3), fam.Metric[0].GetGauge().GetValue())
		}
	}
	require.True(t, found)
	require.ElementsMatch(t, []string{
		"mcastctl_active_groups",
		"mcastctl_incomplete_groups",
		"mcastctl_flow_mods_sent_total",
		"mcastctl_unreachable_receivers_total",
		"mcastctl_membership_updates_total",
	}, names)
}
