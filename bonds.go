/*
 * bonds.go, part of simspace.
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

package chem

import (
	"sort"

	v3 "github.com/rmera/simspace/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

//constants from DOI:10.1186/1758-2946-3-33
const (
	tooclose = 0.63
	bondtol  = 0.45
)

type candidate struct {
	i, j int
	d    float64
}

// AssignBonds replaces the bonds in top with bonds assigned on a simple distance
// criterion, similar to that described in DOI:10.1186/1758-2946-3-33.
// Atoms exceeding their maximum number of bonds lose their longest ones.
// It is quadratic in the number of atoms, so it is meant for ligands, not proteins.
func AssignBonds(coord *v3.Matrix, top *Topology) error {
	tot := top.Len()
	if coord.NVecs() != tot {
		return newErr(nil, "", "AssignBonds", "%d coordinates for %d atoms", coord.NVecs(), tot)
	}
	top.FillIndexes()
	bonds := make([][]candidate, tot)
	for i := 0; i < tot; i++ {
		at1 := top.Atom(i)
		cov1 := symbolCovrad[at1.Symbol]
		if cov1 == 0 {
			return newErr(nil, "", "AssignBonds", "Couldn't find the covalent radii for %s %d", at1.Symbol, i)
		}
		for j := i + 1; j < tot; j++ {
			at2 := top.Atom(j)
			cov2 := symbolCovrad[at2.Symbol]
			if cov2 == 0 {
				return newErr(nil, "", "AssignBonds", "Couldn't find the covalent radii for %s %d", at2.Symbol, j)
			}
			d := r3.Norm(r3.Sub(coord.Vec(j), coord.Vec(i)))
			if d < cov1+cov2+bondtol && d > tooclose {
				c := candidate{i, j, d}
				bonds[i] = append(bonds[i], c)
				bonds[j] = append(bonds[j], c)
			}
		}
	}
	removed := make(map[[2]int]bool)
	//Now we check that no atom has too many bonds.
	for i := 0; i < tot; i++ {
		max := symbolMaxBonds[top.Atom(i).Symbol]
		if max == 0 {
			continue
		}
		b := make([]candidate, 0, len(bonds[i]))
		for _, c := range bonds[i] {
			if !removed[[2]int{c.i, c.j}] {
				b = append(b, c)
			}
		}
		sort.Slice(b, func(x, y int) bool { return b[x].d < b[y].d })
		for _, c := range b[min(max, len(b)):] {
			removed[[2]int{c.i, c.j}] = true //we remove the longest bonds
		}
	}
	top.Bonds = top.Bonds[:0]
	for i := 0; i < tot; i++ {
		for _, c := range bonds[i] {
			if c.i == i && !removed[[2]int{c.i, c.j}] {
				top.AddBond(c.i, c.j)
			}
		}
	}
	return nil
}
