// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package traffic

import (
	mcasterrors "grimm.is/mcastctl/internal/errors"
	"grimm.is/mcastctl/internal/logging"
	"grimm.is/mcastctl/internal/metrics"
	"grimm.is/mcastctl/internal/openflow"
	"grimm.is/mcastctl/internal/streamer"
	"grimm.is/mcastctl/internal/topology"
)

// RouteSource supplies the graph operations a Manager needs to turn
// an active group's streamer and members into a concrete route.
type RouteSource interface {
	MinCostTree(root topology.DPID, requested map[topology.DPID]bool) (tree []topology.Edge, unreachable []topology.DPID)
	ConstructRoutes(tree []topology.Edge, members map[topology.DPID]map[topology.Port]bool) map[topology.DPID][]topology.Port
}

// Manager reconciles active-group and incomplete-group state onto
// real flow rules. All mutating methods are expected to be called
// from a single goroutine; Manager does no locking of its own.
type Manager struct {
	graph   RouteSource
	pool    openflow.ConnectionPool
	logger  *logging.Logger
	shadow  *shadow
	metrics *metrics.Registry
}

// NewManager creates a traffic Manager. reg may be nil.
func NewManager(graph RouteSource, pool openflow.ConnectionPool, logger *logging.Logger, reg *metrics.Registry) *Manager {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Manager{
		graph:   graph,
		pool:    pool,
		logger:  logger.With("component", "traffic"),
		shadow:  newShadow(),
		metrics: reg,
	}
}

// HandleActiveGroupChanged recomputes and reconciles the route for one
// active group, per spec.md §4.4: construct the new route, delete
// whatever was previously installed for this key, then install the
// new route if it is non-empty.
func (m *Manager) HandleActiveGroupChanged(key streamer.GroupKey, group streamer.ActiveGroup) {
	route := m.constructRoute(group.Streamer, group.Members)

	rk := RouteKey{Group: key.Group, Source: key.Source}
	if old, ok := m.shadow.get(rk); ok {
		m.uninstall(rk, old)
	}

	if len(route) == 0 {
		m.shadow.delete(rk)
		return
	}
	if sw, blocked := m.shadow.getBlocked(rk); blocked {
		m.logger.Warn("installing route while a drop rule is still shadowed for this key", "group", key.Group, "source", key.Source, "switch", sw)
	}
	m.install(rk, route)
	m.shadow.set(rk, route)
}

// HandleActiveGroupDeleted tears down whatever route is currently
// installed for a group that no longer has any passive membership.
func (m *Manager) HandleActiveGroupDeleted(key streamer.GroupKey) {
	rk := RouteKey{Group: key.Group, Source: key.Source}
	old, ok := m.shadow.get(rk)
	if !ok {
		return
	}
	m.uninstall(rk, old)
	m.shadow.delete(rk)
}

// HandleTopologyChanged recomputes the route for every currently
// installed group, used when the underlying graph structure changes.
func (m *Manager) HandleTopologyChanged(active map[streamer.GroupKey]streamer.ActiveGroup) {
	for key, group := range active {
		m.HandleActiveGroupChanged(key, group)
	}
}

// HandleIncompleteGroup installs or removes the drop rule that
// silences a streamer with no known receivers.
func (m *Manager) HandleIncompleteGroup(key streamer.GroupKey, sw topology.DPID, flag streamer.BlockFlag) {
	rk := RouteKey{Group: key.Group, Source: key.Source}

	mod := openflow.FlowMod{
		Switch: sw,
		Match: openflow.Match{
			EthType: openflow.EthTypeIPv4,
			Dst:     key.Group,
			Src:     key.Source,
		},
	}

	switch flag {
	case streamer.Block:
		mod.Command = openflow.CommandAdd
		m.send(mod)
		m.shadow.setBlocked(rk, sw)
	case streamer.Unblock:
		mod.Command = openflow.CommandDelete
		m.send(mod)
		m.shadow.clearBlocked(rk)
	}
}

func (m *Manager) constructRoute(streamerSw topology.DPID, members streamer.Members) Route {
	if len(members) == 0 {
		return nil
	}
	requested := make(map[topology.DPID]bool, len(members))
	for d := range members {
		requested[d] = true
	}

	tree, unreachable := m.graph.MinCostTree(streamerSw, requested)
	if len(unreachable) > 0 {
		m.logger.Warn("receivers unreachable from streamer", "streamer", streamerSw, "unreachable", unreachable)
		m.metrics.IncUnreachableEvents()
	}
	unreached := make(map[topology.DPID]bool, len(unreachable))
	for _, d := range unreachable {
		unreached[d] = true
	}

	// Only feed reachable receivers' ports into ConstructRoutes: a
	// member cut off by the current graph must never appear in the
	// installed route, even though its membership record still exists.
	portMembers := make(map[topology.DPID]map[topology.Port]bool, len(members))
	for d, ports := range members {
		if unreached[d] {
			continue
		}
		portMembers[d] = ports
	}

	return Route(m.graph.ConstructRoutes(tree, portMembers))
}

func (m *Manager) uninstall(key RouteKey, old Route) {
	for sw := range old {
		m.send(openflow.FlowMod{
			Switch:  sw,
			Command: openflow.CommandDelete,
			Match:   openflow.Match{EthType: openflow.EthTypeIPv4, Dst: key.Group, Src: key.Source},
		})
	}
}

func (m *Manager) install(key RouteKey, route Route) {
	for sw, ports := range route {
		actions := make([]openflow.Action, 0, len(ports))
		for _, p := range ports {
			actions = append(actions, openflow.Action{OutputPort: p})
		}
		m.send(openflow.FlowMod{
			Switch:  sw,
			Command: openflow.CommandAdd,
			Match:   openflow.Match{EthType: openflow.EthTypeIPv4, Dst: key.Group, Src: key.Source},
			Actions: actions,
		})
	}
}

// send writes a flow-mod to its target switch, tolerating a vanished
// connection the same way a departed core component is tolerated
// elsewhere in the controller: logged, not propagated as a failure.
func (m *Manager) send(mod openflow.FlowMod) {
	m.metrics.IncFlowModsSent(mod.Command.String())

	driver, ok := m.pool.Driver(mod.Switch)
	if !ok {
		m.logger.Warn("no connection for switch, dropping flow-mod", "switch", mod.Switch, "command", mod.Command)
		return
	}
	if err := driver.Send(mod); err != nil {
		err = mcasterrors.Wrapf(err, mcasterrors.KindUnavailable, "send flow-mod to switch %d", mod.Switch)
		m.logger.Warn("flow-mod send failed", "switch", mod.Switch, "error", err)
	}
}
