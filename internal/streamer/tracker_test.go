// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package streamer

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"

	"grimm.is/mcastctl/internal/topology"
)

func addr(s string) netip.Addr {
	return netip.MustParseAddr(s)
}

func TestDataPacketWithNoKnownMembersGoesIncomplete(t *testing.T) {
	tr := NewTracker(nil, func(group, source netip.Addr) map[topology.DPID]map[topology.Port]bool {
		return map[topology.DPID]map[topology.Port]bool{}
	}, nil)
	var flags []BlockFlag
	tr.OnIncomplete = func(key GroupKey, streamer topology.DPID, flag BlockFlag) { flags = append(flags, flag) }

	tr.HandleDataPacket(DataPacket{Switch: 1, Group: addr("226.0.0.1"), Source: addr("10.0.0.5")})

	require.Equal(t, []BlockFlag{Block}, flags)
	require.Empty(t, tr.ActiveGroups())
	require.Len(t, tr.IncompleteGroups(), 1)
}

func TestDataPacketWithKnownMembersGoesActive(t *testing.T) {
	group := addr("226.0.0.1")
	source := addr("10.0.0.5")
	members := map[topology.DPID]map[topology.Port]bool{7: {3: true}}

	tr := NewTracker(nil, func(g, s netip.Addr) map[topology.DPID]map[topology.Port]bool {
		return members
	}, nil)
	tr.known[group] = true

	var changed []GroupKey
	tr.OnActiveChanged = func(key GroupKey, ag ActiveGroup) { changed = append(changed, key) }

	tr.HandleDataPacket(DataPacket{Switch: 1, Group: group, Source: source})

	require.Equal(t, []GroupKey{{Group: group, Source: source}}, changed)
	require.Len(t, tr.ActiveGroups(), 1)
}

func TestMembershipChangeUnblocksIncompleteGroup(t *testing.T) {
	group := addr("226.0.0.1")
	source := addr("10.0.0.5")
	members := map[topology.DPID]map[topology.Port]bool{7: {3: true}}

	tr := NewTracker(nil, func(g, s netip.Addr) map[topology.DPID]map[topology.Port]bool {
		return members
	}, nil)

	tr.HandleDataPacket(DataPacket{Switch: 9, Group: group, Source: source})
	require.Len(t, tr.IncompleteGroups(), 1)

	var order []string
	tr.OnIncomplete = func(key GroupKey, streamer topology.DPID, flag BlockFlag) {
		order = append(order, "incomplete:"+flag.String())
	}
	tr.OnActiveChanged = func(key GroupKey, ag ActiveGroup) {
		order = append(order, "active")
	}

	tr.HandleMembershipChanged(group)

	require.Equal(t, []string{"incomplete:UNBLOCK", "active"}, order)
	require.Empty(t, tr.IncompleteGroups())
	require.Len(t, tr.ActiveGroups(), 1)
}

func TestMembershipChangeRecomputesActiveMembersOnlyWhenDifferent(t *testing.T) {
	group := addr("226.0.0.1")
	source := addr("10.0.0.5")
	current := map[topology.DPID]map[topology.Port]bool{7: {3: true}}

	tr := NewTracker(nil, func(g, s netip.Addr) map[topology.DPID]map[topology.Port]bool {
		return current
	}, nil)
	tr.known[group] = true
	tr.HandleDataPacket(DataPacket{Switch: 1, Group: group, Source: source})

	calls := 0
	tr.OnActiveChanged = func(key GroupKey, ag ActiveGroup) { calls++ }

	tr.HandleMembershipChanged(group)
	require.Equal(t, 0, calls)

	current = map[topology.DPID]map[topology.Port]bool{7: {3: true}, 8: {1: true}}
	tr.HandleMembershipChanged(group)
	require.Equal(t, 1, calls)
}

func TestMembershipDeletedRemovesActiveGroups(t *testing.T) {
	group := addr("226.0.0.1")
	source := addr("10.0.0.5")
	members := map[topology.DPID]map[topology.Port]bool{7: {3: true}}

	tr := NewTracker(nil, func(g, s netip.Addr) map[topology.DPID]map[topology.Port]bool {
		return members
	}, nil)
	tr.known[group] = true
	tr.HandleDataPacket(DataPacket{Switch: 1, Group: group, Source: source})
	require.Len(t, tr.ActiveGroups(), 1)

	var deleted []GroupKey
	tr.OnActiveDeleted = func(key GroupKey) { deleted = append(deleted, key) }

	tr.HandleMembershipDeleted(group)

	require.Equal(t, []GroupKey{{Group: group, Source: source}}, deleted)
	require.Empty(t, tr.ActiveGroups())
}
