// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package simdriver provides a stateful in-memory openflow.ConnectionPool
// for tests and scenario replay, recording every flow-mod sent to
// each simulated switch instead of speaking the OpenFlow wire protocol.
package simdriver

import (
	"sync"

	"grimm.is/mcastctl/internal/openflow"
	"grimm.is/mcastctl/internal/topology"
)

// Recorder is a single simulated switch connection. It keeps the
// flow-mod log and the currently-installed set, keyed by Match, so
// tests can assert on final state as well as the command sequence.
type Recorder struct {
	mu        sync.Mutex
	Sent      []openflow.FlowMod
	installed map[openflow.Match]openflow.FlowMod
}

func newRecorder() *Recorder {
	return &Recorder{installed: make(map[openflow.Match]openflow.FlowMod)}
}

// Send implements openflow.SwitchDriver.
func (r *Recorder) Send(mod openflow.FlowMod) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Sent = append(r.Sent, mod)
	switch mod.Command {
	case openflow.CommandAdd:
		r.installed[mod.Match] = mod
	case openflow.CommandDelete:
		delete(r.installed, mod.Match)
	}
	return nil
}

// Installed returns the flow-mods currently considered installed on
// this switch, i.e. every ADD not since superseded by a DELETE of the
// same match.
func (r *Recorder) Installed() []openflow.FlowMod {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]openflow.FlowMod, 0, len(r.installed))
	for _, m := range r.installed {
		out = append(out, m)
	}
	return out
}

// Pool is an in-memory openflow.ConnectionPool. Switches are created
// lazily on first lookup, mirroring a controller that has seen every
// switch's feature-reply by the time routing decisions are made.
type Pool struct {
	mu        sync.Mutex
	recorders map[topology.DPID]*Recorder
	// Absent, when set, marks switches to report as disconnected
	// instead of lazily creating a recorder — used to simulate a
	// switch going down mid-reconciliation.
	Absent map[topology.DPID]bool
}

// NewPool creates an empty simulated connection pool.
func NewPool() *Pool {
	return &Pool{
		recorders: make(map[topology.DPID]*Recorder),
		Absent:    make(map[topology.DPID]bool),
	}
}

// Driver implements openflow.ConnectionPool.
func (p *Pool) Driver(sw topology.DPID) (openflow.SwitchDriver, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Absent[sw] {
		return nil, false
	}
	r, ok := p.recorders[sw]
	if !ok {
		r = newRecorder()
		p.recorders[sw] = r
	}
	return r, true
}

// Recorder exposes the underlying Recorder for a switch, for test
// assertions. It returns nil if the switch has never been looked up.
func (p *Pool) Recorder(sw topology.DPID) *Recorder {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.recorders[sw]
}
