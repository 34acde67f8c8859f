// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package topology

import (
	"sync"

	"grimm.is/mcastctl/internal/logging"
)

// LinkEvent describes one directed link reported by link discovery.
// Cost is the administrative weight of the link; zero means DefaultCost.
type LinkEvent struct {
	From     DPID
	FromPort Port
	To       DPID
	ToPort   Port
	Cost     int
}

// Builder owns the topology graph and turns link-up/link-down events
// into graph mutations, emitting a TopologyChanged notification after
// each one. It holds its own lock so read-only callers (the traffic
// manager's route queries, tests) can inspect the graph without
// coordinating with the controller's event loop.
type Builder struct {
	mu     sync.RWMutex
	graph  *Graph
	logger *logging.Logger

	// OnChanged is invoked synchronously, exactly once per handled event,
	// after the graph mutation is complete. The builder's lock is
	// released for the duration of the call, so OnChanged may query the
	// builder (MinCostTree, ConstructRoutes) to recompute routes.
	OnChanged func()
}

// NewBuilder creates an empty Builder.
func NewBuilder(logger *logging.Logger) *Builder {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Builder{
		graph:  NewGraph(),
		logger: logger.With("component", "topology"),
	}
}

// HandleLinkUp adds the directed edge described by ev and notifies.
func (b *Builder) HandleLinkUp(ev LinkEvent) {
	cost := ev.Cost
	if cost <= 0 {
		cost = DefaultCost
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.graph.AddLink(ev.From, ev.FromPort, ev.To, ev.ToPort, cost)
	b.logger.Info("link up", "from", ev.From, "from_port", ev.FromPort, "to", ev.To, "to_port", ev.ToPort, "cost", cost)
	b.notify()
}

// HandleLinkDown removes the directed edge a->b and notifies.
func (b *Builder) HandleLinkDown(a, b2 DPID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.graph.RemoveLink(a, b2)
	b.logger.Info("link down", "from", a, "to", b2)
	b.notify()
}

func (b *Builder) notify() {
	if b.OnChanged != nil {
		b.mu.Unlock()
		b.OnChanged()
		b.mu.Lock()
	}
}

// MinCostTree computes the minimum-cost tree rooted at root reaching
// every reachable DPID in requested. See Graph.MinCostTree.
func (b *Builder) MinCostTree(root DPID, requested map[DPID]bool) (tree []Edge, unreachable []DPID) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.graph.MinCostTree(root, requested)
}

// ConstructRoutes delegates to Graph.ConstructRoutes.
func (b *Builder) ConstructRoutes(tree []Edge, members map[DPID]map[Port]bool) map[DPID][]Port {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.graph.ConstructRoutes(tree, members)
}

// HasNode reports whether d is currently a node in the graph.
func (b *Builder) HasNode(d DPID) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.graph.HasNode(d)
}

// Nodes returns a snapshot of the current node set.
func (b *Builder) Nodes() []DPID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.graph.Nodes()
}
