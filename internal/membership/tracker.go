// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package membership

import (
	"net/netip"
	"sync"

	"grimm.is/mcastctl/internal/logging"
	"grimm.is/mcastctl/internal/metrics"
	"grimm.is/mcastctl/internal/topology"
)

// Tracker maintains the passive (source-independent) membership state
// of every multicast group: for each group address, the per-(switch,
// port) filter mode and source set defined by IGMPv3 semantics. IGMPv2
// is treated as IGMPv3 with an empty exclude filter.
type Tracker struct {
	mu      sync.RWMutex
	groups  map[netip.Addr]map[portKey]MemberState
	logger  *logging.Logger
	metrics *metrics.Registry

	// OnChanged fires after a group's state is created or updated, even
	// when the new state is identical to the old one (callers must be
	// idempotent). OnDeleted fires when a group's last member is removed.
	// Both are invoked synchronously once the state change is complete,
	// with the tracker's lock released for the duration of the call, so
	// they may query the tracker (ValidMembers, Exists, Ports).
	OnChanged func(group netip.Addr)
	OnDeleted func(group netip.Addr)
}

// NewTracker creates an empty membership Tracker. reg may be nil.
func NewTracker(logger *logging.Logger, reg *metrics.Registry) *Tracker {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Tracker{
		groups:  make(map[netip.Addr]map[portKey]MemberState),
		logger:  logger.With("component", "membership"),
		metrics: reg,
	}
}

// ApplyV2Report handles an IGMPv2 Membership Report: the port joins
// the group in EXCLUDE mode with no source filter.
func (t *Tracker) ApplyV2Report(sw topology.DPID, port topology.Port, group netip.Addr) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.metrics.IncMembershipUpdates()
	t.setState(group, sw, port, newMemberState(ModeExclude, nil))
}

// ApplyV2Leave handles an IGMPv2 Leave Group: the port's membership is removed.
func (t *Tracker) ApplyV2Leave(sw topology.DPID, port topology.Port, group netip.Addr) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.metrics.IncMembershipUpdates()
	t.deleteState(group, sw, port)
}

// ApplyV3Record applies one IGMPv3 group record, per spec.md §4.2.
func (t *Tracker) ApplyV3Record(rec Record) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.metrics.IncMembershipUpdates()

	switch rec.Type {
	case ModeIsInclude, ChangeToIncludeMode:
		t.setIncludeOrDelete(rec.Group, rec.Switch, rec.Port, rec.Sources)

	case ModeIsExclude, ChangeToExcludeMode:
		t.setState(rec.Group, rec.Switch, rec.Port, newMemberState(ModeExclude, rec.Sources))

	case AllowNewSources:
		cur := t.currentOrDefault(rec.Group, rec.Switch, rec.Port)
		if cur.Mode == ModeExclude {
			t.setState(rec.Group, rec.Switch, rec.Port, newMemberState(ModeExclude, difference(cur.Sources, rec.Sources)))
		} else {
			t.setState(rec.Group, rec.Switch, rec.Port, newMemberState(ModeInclude, union(cur.Sources, rec.Sources)))
		}

	case BlockOldSources:
		cur := t.currentOrDefault(rec.Group, rec.Switch, rec.Port)
		if cur.Mode == ModeExclude {
			t.setState(rec.Group, rec.Switch, rec.Port, newMemberState(ModeExclude, union(cur.Sources, rec.Sources)))
		} else {
			t.setIncludeOrDelete(rec.Group, rec.Switch, rec.Port, difference(cur.Sources, rec.Sources))
		}
	}
}

// currentOrDefault returns the existing state for (group, sw, port), or
// the IGMPv3 default of INCLUDE with an empty source set when absent.
func (t *Tracker) currentOrDefault(group netip.Addr, sw topology.DPID, port topology.Port) MemberState {
	if ports, ok := t.groups[group]; ok {
		if s, ok := ports[portKey{Switch: sw, Port: port}]; ok {
			return s.clone()
		}
	}
	return newMemberState(ModeInclude, nil)
}

// setIncludeOrDelete sets INCLUDE mode with the given sources, deleting
// the membership instead when the resulting source set is empty.
func (t *Tracker) setIncludeOrDelete(group netip.Addr, sw topology.DPID, port topology.Port, sources map[netip.Addr]bool) {
	if len(sources) == 0 {
		t.deleteState(group, sw, port)
		return
	}
	t.setState(group, sw, port, newMemberState(ModeInclude, sources))
}

func (t *Tracker) setState(group netip.Addr, sw topology.DPID, port topology.Port, state MemberState) {
	ports, ok := t.groups[group]
	if !ok {
		ports = make(map[portKey]MemberState)
		t.groups[group] = ports
	}
	ports[portKey{Switch: sw, Port: port}] = state

	t.logger.Info("passive group updated", "group", group, "switch", sw, "port", port, "mode", state.Mode)
	if t.OnChanged != nil {
		t.mu.Unlock()
		t.OnChanged(group)
		t.mu.Lock()
	}
}

func (t *Tracker) deleteState(group netip.Addr, sw topology.DPID, port topology.Port) {
	ports, ok := t.groups[group]
	if !ok {
		t.logger.Warn("delete against unknown group", "group", group, "switch", sw, "port", port)
		return
	}
	key := portKey{Switch: sw, Port: port}
	if _, ok := ports[key]; !ok {
		t.logger.Warn("delete against unknown member", "group", group, "switch", sw, "port", port)
		return
	}

	delete(ports, key)
	if len(ports) == 0 {
		delete(t.groups, group)
		t.logger.Info("passive group deleted", "group", group)
		if t.OnDeleted != nil {
			t.mu.Unlock()
			t.OnDeleted(group)
			t.mu.Lock()
		}
		return
	}

	t.logger.Info("passive group updated", "group", group, "switch", sw, "port", port)
	if t.OnChanged != nil {
		t.mu.Unlock()
		t.OnChanged(group)
		t.mu.Lock()
	}
}

// ValidMembers returns, for the given (group, source) pair, every
// (switch, port) whose current filter state admits traffic from
// source: INCLUDE states that list source, or EXCLUDE states that
// don't block it.
func (t *Tracker) ValidMembers(group, source netip.Addr) map[topology.DPID]map[topology.Port]bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[topology.DPID]map[topology.Port]bool)
	for key, state := range t.groups[group] {
		if !state.permits(source) {
			continue
		}
		if out[key.Switch] == nil {
			out[key.Switch] = make(map[topology.Port]bool)
		}
		out[key.Switch][key.Port] = true
	}
	return out
}

// Exists reports whether any membership currently exists for group.
func (t *Tracker) Exists(group netip.Addr) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.groups[group]
	return ok
}

// Ports returns the aggregated switch->port-set view of a passive
// group, for invariant checking and introspection.
func (t *Tracker) Ports(group netip.Addr) map[topology.DPID]map[topology.Port]bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[topology.DPID]map[topology.Port]bool)
	for key := range t.groups[group] {
		if out[key.Switch] == nil {
			out[key.Switch] = make(map[topology.Port]bool)
		}
		out[key.Switch][key.Port] = true
	}
	return out
}

func union(a, b map[netip.Addr]bool) map[netip.Addr]bool {
	out := make(map[netip.Addr]bool, len(a)+len(b))
	for k := range a {
		out[k] = true
	}
	for k := range b {
		out[k] = true
	}
	return out
}

func difference(a, b map[netip.Addr]bool) map[netip.Addr]bool {
	out := make(map[netip.Addr]bool, len(a))
	for k := range a {
		if !b[k] {
			out[k] = true
		}
	}
	return out
}
