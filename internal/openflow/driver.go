// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package openflow

import "grimm.is/mcastctl/internal/topology"

// SwitchDriver sends one flow-mod to a single connected switch.
// Implementations abstract over the real wire protocol (ofnet) and an
// in-memory recorder used for tests and scenario replay.
type SwitchDriver interface {
	Send(FlowMod) error
}

// ConnectionPool resolves a switch's live driver connection. It
// mirrors the controller's core.openflow.getConnection(dpid) lookup:
// a switch with no current connection is reported absent rather than
// as an error, since a departed switch is routine, not exceptional.
type ConnectionPool interface {
	Driver(sw topology.DPID) (SwitchDriver, bool)
}
