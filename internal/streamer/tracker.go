// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package streamer

import (
	"net/netip"
	"sync"

	"grimm.is/mcastctl/internal/logging"
	"grimm.is/mcastctl/internal/metrics"
	"grimm.is/mcastctl/internal/topology"
)

// MembersFunc resolves the current set of valid receivers for a
// (group, source) pair, as maintained by the membership tracker.
type MembersFunc func(group, source netip.Addr) map[topology.DPID]map[topology.Port]bool

// Tracker joins detected multicast streamers with passive membership
// state to produce ActiveGroup records, and runs the incomplete-group
// block/unblock protocol for streamers with no known receivers yet.
type Tracker struct {
	mu         sync.RWMutex
	active     map[GroupKey]ActiveGroup
	incomplete map[GroupKey]IncompleteGroup
	known      map[netip.Addr]bool

	logger       *logging.Logger
	validMembers MembersFunc
	metrics      *metrics.Registry

	// OnActiveChanged fires whenever an active group is created or its
	// member set changes. OnActiveDeleted fires when its passive
	// membership disappears entirely. OnIncomplete fires BLOCK for every
	// data packet whose group address has no membership at all, and
	// UNBLOCK the moment membership for that group appears — always
	// before the corresponding OnActiveChanged for the same key, per the
	// reconciliation ordering invariant.
	OnActiveChanged func(key GroupKey, group ActiveGroup)
	OnActiveDeleted func(key GroupKey)
	OnIncomplete    func(key GroupKey, streamer topology.DPID, flag BlockFlag)
}

// NewTracker creates a streamer Tracker. validMembers is consulted
// every time a group's active membership must be (re)computed. reg
// may be nil.
func NewTracker(logger *logging.Logger, validMembers MembersFunc, reg *metrics.Registry) *Tracker {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Tracker{
		active:       make(map[GroupKey]ActiveGroup),
		incomplete:   make(map[GroupKey]IncompleteGroup),
		known:        make(map[netip.Addr]bool),
		logger:       logger.With("component", "streamer"),
		validMembers: validMembers,
		metrics:      reg,
	}
}

// reportGauges pushes the current active/incomplete counts to the
// metrics registry. Callers must hold t.mu.
func (t *Tracker) reportGauges() {
	t.metrics.SetActiveGroups(len(t.active))
	t.metrics.SetIncompleteGroups(len(t.incomplete))
}

// HandleDataPacket processes one observed multicast data packet,
// detecting a new streamer or confirming an existing one. Only
// non-IGMP multicast-destined packets should reach this method; the
// ingest decoder is responsible for that filtering.
func (t *Tracker) HandleDataPacket(pkt DataPacket) {
	t.mu.Lock()
	defer t.mu.Unlock()
	defer t.reportGauges()

	key := GroupKey{Group: pkt.Group, Source: pkt.Source}

	if t.known[pkt.Group] {
		members := Members(t.validMembers(pkt.Group, pkt.Source))
		t.active[key] = ActiveGroup{Streamer: pkt.Switch, Members: members}
		delete(t.incomplete, key)

		t.logger.Info("streamer resolved to active group", "group", pkt.Group, "source", pkt.Source, "switch", pkt.Switch)
		if t.OnActiveChanged != nil {
			t.OnActiveChanged(key, t.active[key])
		}
		return
	}

	t.incomplete[key] = IncompleteGroup{Streamer: pkt.Switch}
	t.logger.Info("streamer incomplete, no known receivers", "group", pkt.Group, "source", pkt.Source, "switch", pkt.Switch)
	if t.OnIncomplete != nil {
		t.OnIncomplete(key, pkt.Switch, Block)
	}
}

// HandleMembershipChanged reacts to a passive membership update for
// group: recomputes every active group keyed on it, and promotes any
// incomplete group keyed on it to active.
func (t *Tracker) HandleMembershipChanged(group netip.Addr) {
	t.mu.Lock()
	defer t.mu.Unlock()
	defer t.reportGauges()

	t.known[group] = true

	for key, ag := range t.active {
		if key.Group != group {
			continue
		}
		members := Members(t.validMembers(key.Group, key.Source))
		if members.Equal(ag.Members) {
			continue
		}
		t.active[key] = ActiveGroup{Streamer: ag.Streamer, Members: members}
		t.logger.Info("active group membership changed", "group", key.Group, "source", key.Source)
		if t.OnActiveChanged != nil {
			t.OnActiveChanged(key, t.active[key])
		}
	}

	for key, ig := range t.incomplete {
		if key.Group != group {
			continue
		}
		members := Members(t.validMembers(key.Group, key.Source))
		promoted := ActiveGroup{Streamer: ig.Streamer, Members: members}
		t.active[key] = promoted
		delete(t.incomplete, key)

		t.logger.Info("incomplete group unblocked", "group", key.Group, "source", key.Source, "switch", ig.Streamer)
		if t.OnIncomplete != nil {
			t.OnIncomplete(key, ig.Streamer, Unblock)
		}
		if t.OnActiveChanged != nil {
			t.OnActiveChanged(key, promoted)
		}
	}
}

// HandleMembershipDeleted reacts to a passive membership's last
// receiver disappearing: every active group keyed on group is torn down.
func (t *Tracker) HandleMembershipDeleted(group netip.Addr) {
	t.mu.Lock()
	defer t.mu.Unlock()
	defer t.reportGauges()

	delete(t.known, group)

	for key := range t.active {
		if key.Group != group {
			continue
		}
		delete(t.active, key)
		t.logger.Info("active group deleted", "group", key.Group, "source", key.Source)
		if t.OnActiveDeleted != nil {
			t.OnActiveDeleted(key)
		}
	}
}

// ActiveGroups returns a snapshot of every currently active group.
func (t *Tracker) ActiveGroups() map[GroupKey]ActiveGroup {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[GroupKey]ActiveGroup, len(t.active))
	for k, v := range t.active {
		out[k] = v
	}
	return out
}

// IncompleteGroups returns a snapshot of every currently incomplete group.
func (t *Tracker) IncompleteGroups() map[GroupKey]IncompleteGroup {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[GroupKey]IncompleteGroup, len(t.incomplete))
	for k, v := range t.incomplete {
		out[k] = v
	}
	return out
}
