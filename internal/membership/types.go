// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package membership interprets IGMPv2/v3 control traffic and
// maintains the passive (source-independent) per-group membership
// state defined by the controller's data model.
package membership

import (
	"net/netip"

	"grimm.is/mcastctl/internal/topology"
)

// Mode is the IGMPv3 filter mode of a single (group, switch, port) record.
type Mode int

const (
	ModeInclude Mode = iota
	ModeExclude
)

func (m Mode) String() string {
	if m == ModeInclude {
		return "INCLUDE"
	}
	return "EXCLUDE"
}

// MemberState is the filter state of one port for one group.
type MemberState struct {
	Mode    Mode
	Sources map[netip.Addr]bool
}

func newMemberState(mode Mode, sources map[netip.Addr]bool) MemberState {
	if sources == nil {
		sources = make(map[netip.Addr]bool)
	}
	return MemberState{Mode: mode, Sources: sources}
}

func (s MemberState) clone() MemberState {
	c := make(map[netip.Addr]bool, len(s.Sources))
	for a := range s.Sources {
		c[a] = true
	}
	return MemberState{Mode: s.Mode, Sources: c}
}

// permits reports whether a receiver in state s accepts traffic from source.
func (s MemberState) permits(source netip.Addr) bool {
	switch s.Mode {
	case ModeInclude:
		return s.Sources[source]
	default: // ModeExclude
		return !s.Sources[source]
	}
}

// portKey identifies one (switch, port) location.
type portKey struct {
	Switch topology.DPID
	Port   topology.Port
}

// RecordType is an IGMPv3 group-record type, or the synthesized
// equivalent used for IGMPv2 reports/leaves.
type RecordType int

const (
	ModeIsInclude RecordType = iota
	ModeIsExclude
	ChangeToIncludeMode
	ChangeToExcludeMode
	AllowNewSources
	BlockOldSources
)

// Record is one parsed IGMP group record arriving on (Switch, Port).
type Record struct {
	Switch  topology.DPID
	Port    topology.Port
	Group   netip.Addr
	Type    RecordType
	Sources map[netip.Addr]bool
}
