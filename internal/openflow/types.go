// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package openflow defines the flow-rule wire model the traffic
// manager reconciles against, and the driver interfaces that
// translate it onto real or simulated switch connections.
package openflow

import (
	"net/netip"

	"grimm.is/mcastctl/internal/topology"
)

// Command is an OpenFlow flow_mod command.
type Command int

const (
	CommandAdd Command = iota
	CommandDelete
)

func (c Command) String() string {
	if c == CommandDelete {
		return "DELETE"
	}
	return "ADD"
}

// EthTypeIPv4 is the dl_type value matched by every rule this
// controller installs: all routing decisions are made on IPv4
// multicast traffic only.
const EthTypeIPv4 = 0x0800

// Priority is the fixed priority used for every flow rule the
// controller installs, matching the highest reserved priority so
// multicast routing always wins over any other table entry.
const Priority = 0xFFFF

// Match selects IPv4 traffic from Src to Dst. Src or Dst may be the
// zero netip.Addr to mean "unset", in which case the ofnet driver omits
// that field. Every rule the traffic manager builds, route and
// incomplete-group drop rule alike, sets both, since each is scoped to
// one (group, source) pair.
type Match struct {
	EthType uint16
	Dst     netip.Addr
	Src     netip.Addr
}

// Action is a single flow-mod action. An empty Actions slice on a
// FlowMod means "drop" — used for the incomplete-group block rule.
type Action struct {
	OutputPort topology.Port
}

// FlowMod is one flow-table modification destined for a single switch.
type FlowMod struct {
	Switch  topology.DPID
	Command Command
	Match   Match
	Actions []Action
}
