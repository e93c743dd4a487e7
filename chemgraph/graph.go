/*
 * graph.go, part of simspace.
 *
 * Copyright 2025 Raul Mera <rmeraa{at}academicos(dot)uta(dot)cl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

// Package chemgraph builds gonum graphs from topologies, and uses them
// to find rings and connected fragments.
package chemgraph

import (
	"fmt"
	"sort"

	chem "github.com/rmera/simspace"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Atom is a graph node wrapping a chem.Atom. Its ID is the index of
// the atom in the topology.
type Atom struct {
	*chem.Atom
}

func (A Atom) ID() int64 {
	return int64(A.Index)
}

// FromTopology returns an undirected graph with one node per atom in top,
// and one edge per bond. It panics if a bond refers to a non-existent atom.
func FromTopology(top *chem.Topology) *simple.UndirectedGraph {
	top.FillIndexes()
	g := simple.NewUndirectedGraph()
	for _, at := range top.Atoms {
		g.AddNode(Atom{at})
	}
	for i, b := range top.Bonds {
		if b.IDs[0] >= top.Len() || b.IDs[1] >= top.Len() {
			panic(fmt.Sprintf("FromTopology: Bond %d has at least one non-existent atom", i))
		}
		if b.IDs[0] == b.IDs[1] {
			continue
		}
		g.SetEdge(g.NewEdge(g.Node(int64(b.IDs[0])), g.Node(int64(b.IDs[1]))))
	}
	return g
}

// Ring is a set of atom indexes, in increasing order.
type Ring []int

// Has returns true if the atom with index i is in the ring.
func (R Ring) Has(i int) bool {
	j := sort.SearchInts(R, i)
	return j < len(R) && R[j] == i
}

func nodeIDs(nodes []graph.Node) []int {
	set := make(map[int]bool, len(nodes))
	for _, n := range nodes {
		set[int(n.ID())] = true
	}
	ret := make([]int, 0, len(set))
	for k := range set {
		ret = append(ret, k)
	}
	sort.Ints(ret)
	return ret
}

// Rings returns the smallest ring through each ring bond of g, without repetitions,
// smallest first. For fused systems this gives the individual rings, not the
// envelope ones. The ring bonds are found from a cycle basis of g.
func Rings(g graph.Undirected) []Ring {
	seen := make(map[string]bool)
	ret := make([]Ring, 0)
	for _, c := range topo.UndirectedCyclesIn(g) {
		for k := range c {
			u, v := c[k], c[(k+1)%len(c)]
			if u.ID() == v.ID() {
				continue
			}
			r := Ring(nodeIDs(ringThrough(g, int(u.ID()), int(v.ID()))))
			if len(r) == 0 {
				continue
			}
			key := fmt.Sprint(r)
			if seen[key] {
				continue
			}
			seen[key] = true
			ret = append(ret, r)
		}
	}
	sort.Slice(ret, func(i, j int) bool {
		if len(ret[i]) != len(ret[j]) {
			return len(ret[i]) < len(ret[j])
		}
		return fmt.Sprint(ret[i]) < fmt.Sprint(ret[j])
	})
	return ret
}

// InRing returns true if the atom i belongs to at least one of rings.
func InRing(rings []Ring, i int) bool {
	for _, r := range rings {
		if r.Has(i) {
			return true
		}
	}
	return false
}

// ShareRing returns true if atoms i and j belong to the same ring in rings.
func ShareRing(rings []Ring, i, j int) bool {
	for _, r := range rings {
		if r.Has(i) && r.Has(j) {
			return true
		}
	}
	return false
}

// ringThrough returns the atoms in the smallest ring containing the bond
// between i and j, or nil if there is no such ring.
func ringThrough(g graph.Undirected, i, j int) []graph.Node {
	if !g.HasEdgeBetween(int64(i), int64(j)) {
		return nil
	}
	cut := simple.NewUndirectedGraph()
	graph.Copy(cut, g)
	cut.RemoveEdge(int64(i), int64(j))
	shortest := path.DijkstraFrom(cut.Node(int64(i)), cut)
	p, _ := shortest.To(int64(j))
	return p
}

// SmallestRingThrough returns the number of atoms in the smallest ring containing
// the bond between i and j, or 0 if the bond is not part of a ring, or doesn't exist.
func SmallestRingThrough(g graph.Undirected, i, j int) int {
	return len(ringThrough(g, i, j))
}

// Components returns the connected components of the subgraph of g induced by
// the atoms in subset, each one in increasing order. The components are sorted
// from largest to smallest, ties broken by their lowest index.
func Components(g graph.Undirected, subset []int) [][]int {
	sub := simple.NewUndirectedGraph()
	in := make(map[int64]bool, len(subset))
	for _, v := range subset {
		n := g.Node(int64(v))
		if n == nil || in[int64(v)] {
			continue
		}
		in[int64(v)] = true
		sub.AddNode(n)
	}
	for id := range in {
		to := g.From(id)
		for to.Next() {
			n := to.Node()
			if in[n.ID()] && n.ID() > id {
				sub.SetEdge(sub.NewEdge(sub.Node(id), sub.Node(n.ID())))
			}
		}
	}
	comps := topo.ConnectedComponents(sub)
	ret := make([][]int, 0, len(comps))
	for _, c := range comps {
		ret = append(ret, nodeIDs(c))
	}
	sort.Slice(ret, func(i, j int) bool {
		if len(ret[i]) != len(ret[j]) {
			return len(ret[i]) > len(ret[j])
		}
		return ret[i][0] < ret[j][0]
	})
	return ret
}
