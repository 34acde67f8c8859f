// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package topology

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMinCostTreeSimpleChain(t *testing.T) {
	g := NewGraph()
	g.AddLink(1, 10, 2, 20, 1)
	g.AddLink(2, 21, 3, 30, 1)

	tree, unreachable := g.MinCostTree(1, map[DPID]bool{3: true})

	require.Empty(t, unreachable)
	require.ElementsMatch(t, []Edge{{From: 1, To: 2}, {From: 2, To: 3}}, tree)
}

// TestMinCostTreeBreaksTiesByVisitedOrderThenNeighborOrder exercises the
// deterministic tie-break documented on MinCostTree: among equal-cost
// frontier edges, the one reached by scanning the visited set in
// insertion order, then each visited node's neighbours in
// link-discovery order, wins.
//
// Graph:
//
//	1 -(1)-> 2 -(1)-> 4
//	1 -(1)-> 3 -(1)-> 4
//
// 1->2 and 1->3 tie at cost 1; 2 is added to the graph first so it is
// scanned first and wins, becoming visited before 3. Once both 2 and 3
// are visited, 2->4 and 3->4 tie at cost 1 again; since 2 precedes 3 in
// visited-insertion order, 2->4 wins and becomes the predecessor of 4.
// 3 is not itself requested, so 1->3 is pruned from the final tree even
// though it was explored.
func TestMinCostTreeBreaksTiesByVisitedOrderThenNeighborOrder(t *testing.T) {
	g := NewGraph()
	g.AddLink(1, 10, 2, 20, 1)
	g.AddLink(1, 11, 3, 30, 1)
	g.AddLink(2, 21, 4, 40, 1)
	g.AddLink(3, 31, 4, 41, 1)

	tree, unreachable := g.MinCostTree(1, map[DPID]bool{4: true})

	require.Empty(t, unreachable)
	require.Equal(t, []Edge{{From: 1, To: 2}, {From: 2, To: 4}}, tree)
}

func TestMinCostTreeChoosesCheaperEdgeOverExpensiveDirectLink(t *testing.T) {
	g := NewGraph()
	g.AddLink(1, 10, 2, 20, 5)
	g.AddLink(1, 11, 3, 30, 1)
	g.AddLink(3, 31, 2, 21, 1)

	tree, unreachable := g.MinCostTree(1, map[DPID]bool{2: true})

	require.Empty(t, unreachable)
	require.Equal(t, []Edge{{From: 1, To: 3}, {From: 3, To: 2}}, tree)
}

func TestMinCostTreeReportsUnreachableReceivers(t *testing.T) {
	g := NewGraph()
	g.AddLink(1, 10, 2, 20, 1)
	g.AddLink(3, 30, 4, 40, 1)

	tree, unreachable := g.MinCostTree(1, map[DPID]bool{2: true, 4: true})

	require.Equal(t, []Edge{{From: 1, To: 2}}, tree)
	require.Equal(t, []DPID{4}, unreachable)
}

func TestMinCostTreeIgnoresReceiversNotInGraph(t *testing.T) {
	g := NewGraph()
	g.AddLink(1, 10, 2, 20, 1)

	tree, unreachable := g.MinCostTree(1, map[DPID]bool{2: true, 99: true})

	require.Equal(t, []Edge{{From: 1, To: 2}}, tree)
	require.Equal(t, []DPID{99}, unreachable)
}

func TestMinCostTreeRootOnlyRequestedYieldsEmptyTree(t *testing.T) {
	g := NewGraph()
	g.AddLink(1, 10, 2, 20, 1)

	tree, unreachable := g.MinCostTree(1, map[DPID]bool{1: true})

	require.Empty(t, tree)
	require.Empty(t, unreachable)
}

func TestConstructRoutesOrdersAndDedupsPorts(t *testing.T) {
	g := NewGraph()
	g.AddLink(1, 10, 2, 20, 1)
	g.AddLink(2, 21, 3, 30, 1)

	tree := []Edge{{From: 1, To: 2}, {From: 2, To: 3}}
	members := map[DPID]map[Port]bool{
		2: {99: true, 21: true},
		3: {5: true},
	}

	routes := g.ConstructRoutes(tree, members)

	require.Equal(t, []Port{10}, routes[1])
	// Port 21 is both the tree-edge local port toward 3 and a member
	// port: it appears once, first, since the tree edge is appended
	// before the member ports.
	require.Equal(t, []Port{21, 99}, routes[2])
	require.Equal(t, []Port{5}, routes[3])
}

func TestConstructRoutesWithNoTreeEdgesUsesMembersOnly(t *testing.T) {
	g := NewGraph()
	routes := g.ConstructRoutes(nil, map[DPID]map[Port]bool{
		7: {3: true, 1: true, 2: true},
	})

	require.Equal(t, []Port{1, 2, 3}, routes[7])
}
