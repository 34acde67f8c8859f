// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package topology

import "sort"

// MinCostTree computes a minimum-cost tree rooted at root that reaches
// every DPID in requested that is actually present in the graph, using
// a greedy Prim-style frontier expansion.
//
// Ties between candidate edges of equal cost are broken deterministically
// by picking the first one encountered while scanning the visited set in
// the order nodes were added to it, and, within a visited node, scanning
// its neighbours in link-discovery order. This keeps repeated
// recomputation over identical input from installing a different (but
// equally cheap) tree and churning switches for no reason.
//
// Receivers that are unreachable from root are returned in unreachable
// and excluded from tree; this is never treated as an error.
func (g *Graph) MinCostTree(root DPID, requested map[DPID]bool) (tree []Edge, unreachable []DPID) {
	visitedOrder := []DPID{root}
	visitedSet := map[DPID]bool{root: true}

	need := make(map[DPID]bool)
	reached := make(map[DPID]bool)
	for d := range requested {
		if d == root {
			reached[d] = true
			continue
		}
		if !g.HasNode(d) {
			continue
		}
		need[d] = true
	}

	allReached := func() bool {
		for d := range need {
			if !reached[d] {
				return false
			}
		}
		return true
	}

	predecessor := make(map[DPID]Edge)
	var candidates []Edge

	for !allReached() {
		best, ok := g.cheapestFrontierEdge(visitedOrder, visitedSet)
		if !ok {
			break
		}

		predecessor[best.To] = best
		visitedSet[best.To] = true
		visitedOrder = append(visitedOrder, best.To)
		candidates = append(candidates, best)
		if need[best.To] {
			reached[best.To] = true
		}
	}

	for d := range requested {
		if d == root || reached[d] {
			continue
		}
		unreachable = append(unreachable, d)
	}
	sort.Slice(unreachable, func(i, j int) bool { return unreachable[i] < unreachable[j] })

	keep := make(map[Edge]bool)
	for d := range reached {
		if d == root {
			continue
		}
		cur := d
		for cur != root {
			e, ok := predecessor[cur]
			if !ok {
				break
			}
			keep[e] = true
			cur = e.From
		}
	}

	for _, e := range candidates {
		if keep[e] {
			tree = append(tree, e)
		}
	}
	return tree, unreachable
}

// cheapestFrontierEdge scans every edge leaving a visited node to an
// unvisited one and returns the cheapest, breaking ties by the scan
// order described on MinCostTree.
func (g *Graph) cheapestFrontierEdge(visitedOrder []DPID, visitedSet map[DPID]bool) (Edge, bool) {
	var best Edge
	bestCost := 0
	found := false

	for _, u := range visitedOrder {
		for _, v := range g.Neighbors(u) {
			if visitedSet[v] {
				continue
			}
			cost, ok := g.cost[Edge{From: u, To: v}]
			if !ok {
				continue
			}
			if !found || cost < bestCost {
				best = Edge{From: u, To: v}
				bestCost = cost
				found = true
			}
		}
	}
	return best, found
}

// ConstructRoutes turns a tree and a per-switch member-port map into a
// per-switch ordered, duplicate-free list of output ports: tree-edge
// local ports first, then host-facing member ports, sorted for
// determinism.
func (g *Graph) ConstructRoutes(tree []Edge, members map[DPID]map[Port]bool) map[DPID][]Port {
	routes := make(map[DPID][]Port)
	seen := make(map[DPID]map[Port]bool)

	appendPort := func(d DPID, p Port) {
		if seen[d] == nil {
			seen[d] = make(map[Port]bool)
		}
		if seen[d][p] {
			return
		}
		seen[d][p] = true
		routes[d] = append(routes[d], p)
	}

	for _, e := range tree {
		pp, ok := g.Ports(e.From, e.To)
		if !ok {
			continue
		}
		appendPort(e.From, pp.Local)
	}

	for d, ports := range members {
		for _, p := range sortedPorts(ports) {
			appendPort(d, p)
		}
	}

	return routes
}

func sortedPorts(ports map[Port]bool) []Port {
	out := make([]Port, 0, len(ports))
	for p := range ports {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
