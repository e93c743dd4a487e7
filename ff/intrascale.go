/*
 * intrascale.go, part of simspace.
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

package ff

import chem "github.com/rmera/simspace"

// Scale14 contains the factors by which the Coulomb and LJ interactions
// between atoms separated by 3 bonds are multiplied.
type Scale14 struct {
	Coulomb float64
	LJ      float64
}

// CHARMM14 is the 1-4 scaling of the CHARMM force fields (NAMD's "exclude scaled1-4"
// with the default 1-4scaling of 1.0).
var CHARMM14 = Scale14{Coulomb: 1.0, LJ: 1.0}

// AMBER14 is the 1-4 scaling of the AMBER force fields.
var AMBER14 = Scale14{Coulomb: 1 / 1.2, LJ: 0.5}

// Intrascale holds the factors scaling the non-bonded interactions between each pair
// of atoms in a molecule. Pairs not explicitly set have factors of 1.
type Intrascale struct {
	n      int
	factor map[[2]int]Scale14
}

// NewEmptyIntrascale returns an Intrascale for n atoms, with all factors set to 1.
func NewEmptyIntrascale(n int) *Intrascale {
	return &Intrascale{n: n, factor: make(map[[2]int]Scale14)}
}

// NewIntrascale derives an Intrascale from the bonds in top. Pairs separated by 1 or 2
// bonds get factors of 0, pairs separated by 3 bonds get s, and the rest 1. The shortest
// bond path between two atoms determines their factor.
func NewIntrascale(top *chem.Topology, s Scale14) *Intrascale {
	ret := NewEmptyIntrascale(top.Len())
	neigh := top.Neighbors()
	dist := make([]int, top.Len())
	for i := range dist {
		dist[i] = -1
	}
	for i := 0; i < top.Len(); i++ {
		//breadth-first search up to 3 bonds away.
		visited := []int{i}
		dist[i] = 0
		front := []int{i}
		for d := 1; d <= 3; d++ {
			next := make([]int, 0)
			for _, a := range front {
				for _, b := range neigh[a] {
					if dist[b] >= 0 {
						continue
					}
					dist[b] = d
					visited = append(visited, b)
					next = append(next, b)
				}
			}
			front = next
		}
		for _, j := range visited {
			if j <= i {
				continue
			}
			if dist[j] == 3 {
				ret.Set(i, j, s)
			} else {
				ret.Set(i, j, Scale14{})
			}
		}
		for _, j := range visited {
			dist[j] = -1
		}
	}
	return ret
}

func pairKey(i, j int) [2]int {
	if i > j {
		i, j = j, i
	}
	return [2]int{i, j}
}

// Len returns the number of atoms the Intrascale is for.
func (I *Intrascale) Len() int {
	return I.n
}

// Get returns the scaling factors for the pair i, j.
func (I *Intrascale) Get(i, j int) Scale14 {
	if f, ok := I.factor[pairKey(i, j)]; ok {
		return f
	}
	return Scale14{Coulomb: 1, LJ: 1}
}

// Set sets the scaling factors for the pair i, j. Setting them to 1 removes the pair.
// It panics if i or j are out of range.
func (I *Intrascale) Set(i, j int, s Scale14) {
	if i < 0 || j < 0 || i >= I.n || j >= I.n {
		panic("Intrascale: Pair out of range")
	}
	if s.Coulomb == 1 && s.LJ == 1 {
		delete(I.factor, pairKey(i, j))
		return
	}
	I.factor[pairKey(i, j)] = s
}

// Scaled returns the pairs with factors different from 1, with i<j.
func (I *Intrascale) Scaled() [][2]int {
	ret := make([][2]int, 0, len(I.factor))
	for k := range I.factor {
		ret = append(ret, k)
	}
	return ret
}
