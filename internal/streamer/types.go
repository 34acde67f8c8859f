// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package streamer detects multicast sources ("streamers"), joins them
// with membership state to form active groups, and manages the
// incomplete-group block/unblock protocol for streamers with no
// eligible receivers yet.
package streamer

import (
	"net/netip"

	"grimm.is/mcastctl/internal/topology"
)

// GroupKey identifies one (group address, source address) pair.
type GroupKey struct {
	Group  netip.Addr
	Source netip.Addr
}

// Members is a switch -> set-of-ports view of the current receivers
// for a (group, source) pair.
type Members map[topology.DPID]map[topology.Port]bool

// Equal reports whether m and other name the same switches and, for
// each, the same set of ports.
func (m Members) Equal(other Members) bool {
	if len(m) != len(other) {
		return false
	}
	for sw, ports := range m {
		otherPorts, ok := other[sw]
		if !ok || len(ports) != len(otherPorts) {
			return false
		}
		for p := range ports {
			if !otherPorts[p] {
				return false
			}
		}
	}
	return true
}

// ActiveGroup is a (group, source) pair with a known streamer and its
// set of eligible receivers. The set is empty when the group has
// members but none of their filters admits the source.
type ActiveGroup struct {
	Streamer topology.DPID
	Members  Members
}

// IncompleteGroup is a (group, source) pair with a known streamer but
// no eligible receivers; traffic is dropped at the streamer.
type IncompleteGroup struct {
	Streamer topology.DPID
}

// BlockFlag distinguishes the two halves of the incomplete-group protocol.
type BlockFlag int

const (
	Block BlockFlag = iota
	Unblock
)

func (f BlockFlag) String() string {
	if f == Block {
		return "BLOCK"
	}
	return "UNBLOCK"
}

// DataPacket is a parsed multicast data-plane packet arriving at a switch.
type DataPacket struct {
	Switch topology.DPID
	Group  netip.Addr
	Source netip.Addr
}
