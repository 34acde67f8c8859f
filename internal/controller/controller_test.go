// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package controller

import (
	"context"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"grimm.is/mcastctl/internal/config"
	"grimm.is/mcastctl/internal/membership"
	"grimm.is/mcastctl/internal/openflow/simdriver"
	"grimm.is/mcastctl/internal/streamer"
	"grimm.is/mcastctl/internal/topology"
)

// drain gives the controller's single goroutine a chance to process
// everything submitted so far. Tests never assert timing, only that
// the eventually-consistent state converges.
func drain(t *testing.T) {
	t.Helper()
	time.Sleep(20 * time.Millisecond)
}

func startController(t *testing.T) (*Controller, *simdriver.Pool, config.Fixture) {
	t.Helper()
	pool := simdriver.NewPool()
	c := New(nil, pool, nil)
	fx := config.SampleTopology()
	fx.Apply(c.Topology)

	ctx, cancel := context.WithCancel(context.Background())
	go c.Run(ctx)
	t.Cleanup(cancel)

	return c, pool, fx
}

const (
	s9  topology.DPID = 9
	s10 topology.DPID = 10
	s11 topology.DPID = 11
	s12 topology.DPID = 12
	s13 topology.DPID = 13
)

func TestScenario1_SingleReceiver(t *testing.T) {
	c, pool, fx := startController(t)
	group := netip.MustParseAddr("226.0.0.1")

	h3, _ := fx.Host("h3")
	c.HandleIGMPRecord(membership.Record{Switch: h3.Switch, Port: h3.Port, Group: group, Type: membership.ModeIsExclude})
	drain(t)

	h1, _ := fx.Host("h1")
	c.HandleDataPacket(streamer.DataPacket{Switch: h1.Switch, Group: group, Source: h1.IP})
	drain(t)

	require.Len(t, pool.Recorder(s9).Installed(), 1)
	require.Len(t, pool.Recorder(s10).Installed(), 1)
}

func TestScenario2_SecondReceiverOnBranch(t *testing.T) {
	c, pool, fx := startController(t)
	group := netip.MustParseAddr("226.0.0.1")

	h3, _ := fx.Host("h3")
	h5, _ := fx.Host("h5")
	h1, _ := fx.Host("h1")

	c.HandleIGMPRecord(membership.Record{Switch: h3.Switch, Port: h3.Port, Group: group, Type: membership.ModeIsExclude})
	c.HandleDataPacket(streamer.DataPacket{Switch: h1.Switch, Group: group, Source: h1.IP})
	drain(t)

	c.HandleIGMPRecord(membership.Record{Switch: h5.Switch, Port: h5.Port, Group: group, Type: membership.ModeIsExclude})
	drain(t)

	s10Ports := pool.Recorder(s10).Installed()
	require.Len(t, s10Ports, 1)
	require.Len(t, s10Ports[0].Actions, 2)
	require.Len(t, pool.Recorder(s11).Installed(), 1)
}

func TestScenario3_LinkDownPrunesDownstreamReceiver(t *testing.T) {
	c, pool, fx := startController(t)
	group := netip.MustParseAddr("226.0.0.1")

	h3, _ := fx.Host("h3")
	h5, _ := fx.Host("h5")
	h1, _ := fx.Host("h1")

	c.HandleIGMPRecord(membership.Record{Switch: h3.Switch, Port: h3.Port, Group: group, Type: membership.ModeIsExclude})
	c.HandleIGMPRecord(membership.Record{Switch: h5.Switch, Port: h5.Port, Group: group, Type: membership.ModeIsExclude})
	c.HandleDataPacket(streamer.DataPacket{Switch: h1.Switch, Group: group, Source: h1.IP})
	drain(t)
	require.Len(t, pool.Recorder(s11).Installed(), 1)

	c.HandleLinkDown(s10, s11)
	drain(t)

	require.Empty(t, pool.Recorder(s11).Installed())
	s10Ports := pool.Recorder(s10).Installed()
	require.Len(t, s10Ports, 1)
	require.Len(t, s10Ports[0].Actions, 1)
}

func TestScenario4_IncompleteThenUnblocked(t *testing.T) {
	c, pool, fx := startController(t)
	group := netip.MustParseAddr("226.0.0.2")

	h1, _ := fx.Host("h1")
	c.HandleDataPacket(streamer.DataPacket{Switch: h1.Switch, Group: group, Source: h1.IP})
	drain(t)

	installed := pool.Recorder(s9).Installed()
	require.Len(t, installed, 1)
	require.Empty(t, installed[0].Actions)

	h7, _ := fx.Host("h7")
	c.HandleIGMPRecord(membership.Record{Switch: h7.Switch, Port: h7.Port, Group: group, Type: membership.ModeIsExclude})
	drain(t)

	s9Installed := pool.Recorder(s9).Installed()
	require.Len(t, s9Installed, 1)
	require.NotEmpty(t, s9Installed[0].Actions, "drop rule should be replaced by the route toward h7")
	require.Len(t, pool.Recorder(s12).Installed(), 1)
	require.Len(t, pool.Recorder(s13).Installed(), 1)
}

func TestScenario5And6_IGMPv3IncludeThenAllowNewSources(t *testing.T) {
	c, pool, fx := startController(t)
	group := netip.MustParseAddr("226.0.0.3")

	h4, _ := fx.Host("h4")
	h1, _ := fx.Host("h1")
	h2, _ := fx.Host("h2")

	c.HandleIGMPRecord(membership.Record{
		Switch: h4.Switch, Port: h4.Port, Group: group,
		Type: membership.ModeIsInclude, Sources: map[netip.Addr]bool{h1.IP: true},
	})
	drain(t)

	c.HandleDataPacket(streamer.DataPacket{Switch: h1.Switch, Group: group, Source: h1.IP})
	drain(t)
	require.NotEmpty(t, pool.Recorder(s11).Installed())

	c.HandleDataPacket(streamer.DataPacket{Switch: h2.Switch, Group: group, Source: h2.IP})
	drain(t)
	// h2 is not yet a permitted source for anyone, so its active group
	// resolves to zero members and traffic.Manager installs nothing for
	// it. No drop rule is installed either: that only happens for an
	// incomplete group, whose group address has no membership at all.
	installed := pool.Recorder(s9).Installed()
	require.Len(t, installed, 1)
	for _, mod := range installed {
		require.NotEqual(t, h2.IP, mod.Match.Src)
	}

	c.HandleIGMPRecord(membership.Record{
		Switch: h4.Switch, Port: h4.Port, Group: group,
		Type: membership.AllowNewSources, Sources: map[netip.Addr]bool{h2.IP: true},
	})
	drain(t)

	for _, mod := range pool.Recorder(s9).Installed() {
		if mod.Match.Src == h2.IP {
			require.NotEmpty(t, mod.Actions, "h2 route should be installed once h2 is an allowed source")
		}
	}
	require.Len(t, pool.Recorder(s10).Installed(), 2)
	require.Len(t, pool.Recorder(s11).Installed(), 2)
}
