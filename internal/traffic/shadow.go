// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package traffic reconciles active-group routes and the
// incomplete-group block/unblock protocol onto real flow rules,
// keeping a shadow of what is believed installed so every
// recomputation can be expressed as delete-then-install.
package traffic

import (
	"net/netip"

	"grimm.is/mcastctl/internal/topology"
)

// RouteKey identifies the route for one (group, source) pair.
type RouteKey struct {
	Group  netip.Addr
	Source netip.Addr
}

// Route is a constructed route: for each switch on the path, the set
// of local ports traffic must be replicated out of.
type Route map[topology.DPID][]topology.Port

// shadow tracks the last route written for each (group, source) pair
// that currently has one, so a route change or deletion always knows
// exactly which flow-mods to delete before installing the new set.
// Incomplete-group block rules are tracked separately in blocked,
// since they never enter a Route and must never be clobbered by a
// route recomputation for the same key.
type shadow struct {
	routes  map[RouteKey]Route
	blocked map[RouteKey]topology.DPID
}

func newShadow() *shadow {
	return &shadow{
		routes:  make(map[RouteKey]Route),
		blocked: make(map[RouteKey]topology.DPID),
	}
}

func (s *shadow) get(key RouteKey) (Route, bool) {
	r, ok := s.routes[key]
	return r, ok
}

func (s *shadow) set(key RouteKey, r Route) {
	s.routes[key] = r
}

func (s *shadow) delete(key RouteKey) {
	delete(s.routes, key)
}

func (s *shadow) setBlocked(key RouteKey, sw topology.DPID) {
	s.blocked[key] = sw
}

func (s *shadow) getBlocked(key RouteKey) (topology.DPID, bool) {
	sw, ok := s.blocked[key]
	return sw, ok
}

func (s *shadow) clearBlocked(key RouteKey) {
	delete(s.blocked, key)
}
