// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package controller wires topology, membership, streamer, and
// traffic state into a single serialized event loop, the way the
// controller's components are meant to be driven: every external
// input becomes one event on one channel, processed to completion
// (including every cascading notification) before the next is read.
package controller

import (
	"context"

	"grimm.is/mcastctl/internal/logging"
	"grimm.is/mcastctl/internal/membership"
	"grimm.is/mcastctl/internal/metrics"
	"grimm.is/mcastctl/internal/openflow"
	"grimm.is/mcastctl/internal/streamer"
	"grimm.is/mcastctl/internal/topology"
	"grimm.is/mcastctl/internal/traffic"
)

// Controller owns the four cooperating state engines and the single
// goroutine that serializes every mutation across them.
type Controller struct {
	logger *logging.Logger

	Topology   *topology.Builder
	Membership *membership.Tracker
	Streamers  *streamer.Tracker
	Traffic    *traffic.Manager

	events chan event
	done   chan struct{}
}

// New creates a Controller with every component wired together:
// membership changes drive the streamer tracker, streamer changes
// drive the traffic manager, and topology changes trigger a full
// re-route of every active group. reg may be nil, in which case the
// components skip metrics reporting.
func New(logger *logging.Logger, pool openflow.ConnectionPool, reg *metrics.Registry) *Controller {
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.With("component", "controller")

	topo := topology.NewBuilder(logger)
	members := membership.NewTracker(logger, reg)
	streamers := streamer.NewTracker(logger, members.ValidMembers, reg)
	trafficMgr := traffic.NewManager(topo, pool, logger, reg)

	c := &Controller{
		logger:     logger,
		Topology:   topo,
		Membership: members,
		Streamers:  streamers,
		Traffic:    trafficMgr,
		events:     make(chan event, 256),
		done:       make(chan struct{}),
	}

	members.OnChanged = streamers.HandleMembershipChanged
	members.OnDeleted = streamers.HandleMembershipDeleted
	streamers.OnActiveChanged = trafficMgr.HandleActiveGroupChanged
	streamers.OnActiveDeleted = trafficMgr.HandleActiveGroupDeleted
	streamers.OnIncomplete = trafficMgr.HandleIncompleteGroup
	topo.OnChanged = c.handleTopologyChanged

	return c
}

func (c *Controller) handleTopologyChanged() {
	c.Traffic.HandleTopologyChanged(c.Streamers.ActiveGroups())
}

// Run drains the event channel until ctx is cancelled or Stop is
// called. It is meant to be run in its own goroutine; every public
// Handle* method is safe to call concurrently with Run.
func (c *Controller) Run(ctx context.Context) {
	defer close(c.done)
	for {
		select {
		case ev, ok := <-c.events:
			if !ok {
				return
			}
			c.dispatch(ev)
		case <-ctx.Done():
			return
		}
	}
}

// Stop requests Run to return and blocks until it has.
func (c *Controller) Stop() {
	select {
	case <-c.done:
	default:
		close(c.events)
	}
	<-c.done
}

func (c *Controller) dispatch(ev event) {
	switch ev.kind {
	case eventLinkUp:
		c.Topology.HandleLinkUp(topology.LinkEvent{
			From: ev.linkA, FromPort: ev.linkAPort,
			To: ev.linkB, ToPort: ev.linkBPort,
			Cost: ev.linkCost,
		})
	case eventLinkDown:
		c.Topology.HandleLinkDown(ev.linkA, ev.linkB)
	case eventIGMPRecord:
		c.Membership.ApplyV3Record(ev.record)
	case eventDataPacket:
		c.Streamers.HandleDataPacket(ev.data)
	}
}

// HandleLinkUp enqueues a discovered or updated link for processing.
func (c *Controller) HandleLinkUp(a topology.DPID, aPort topology.Port, b topology.DPID, bPort topology.Port, cost int) {
	c.submit(event{kind: eventLinkUp, linkA: a, linkAPort: aPort, linkB: b, linkBPort: bPort, linkCost: cost})
}

// HandleLinkDown enqueues a link removal for processing.
func (c *Controller) HandleLinkDown(a, b topology.DPID) {
	c.submit(event{kind: eventLinkDown, linkA: a, linkB: b})
}

// HandleIGMPRecord enqueues one parsed IGMPv2-or-v3 group record. An
// IGMPv2 report or leave should already have been translated to the
// IGMPv3-equivalent membership.Record by the ingest decoder before
// reaching here.
func (c *Controller) HandleIGMPRecord(rec membership.Record) {
	c.submit(event{kind: eventIGMPRecord, record: rec})
}

// HandleDataPacket enqueues an observed multicast data packet.
func (c *Controller) HandleDataPacket(pkt streamer.DataPacket) {
	c.submit(event{kind: eventDataPacket, data: pkt})
}

func (c *Controller) submit(ev event) {
	defer func() {
		// A send on a closed events channel only happens racing Stop
		// during shutdown; dropping the event is correct there.
		recover()
	}()
	c.events <- ev
}
