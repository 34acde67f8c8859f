// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package controller

import (
	"grimm.is/mcastctl/internal/membership"
	"grimm.is/mcastctl/internal/streamer"
	"grimm.is/mcastctl/internal/topology"
)

type eventKind int

const (
	eventLinkUp eventKind = iota
	eventLinkDown
	eventIGMPRecord
	eventDataPacket
)

// event is the single wire type every external input is converted
// into before reaching the controller's loop, so the loop itself
// never has to know where an input came from.
type event struct {
	kind eventKind

	linkA, linkB         topology.DPID
	linkAPort, linkBPort topology.Port
	linkCost             int

	record membership.Record
	data   streamer.DataPacket
}
