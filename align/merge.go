/*
 * merge.go, part of simspace.
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

package align

import (
	"fmt"

	chem "github.com/rmera/simspace"
	"github.com/rmera/simspace/charmm"
	"github.com/rmera/simspace/chemgraph"
	"github.com/rmera/simspace/ff"
	v3 "github.com/rmera/simspace/v3"
)

// MergeOptions contains the options for Merge.
type MergeOptions struct {
	AllowRingBreaking   bool //allow mappings that open or close rings.
	AllowRingSizeChange bool //allow mappings that change the size of rings.
}

// State is one end state of a merged molecule. Atoms that don't exist in the
// end state are dummies: they have no charge and no Lennard-Jones well, the
// element chem.DummySymbol and the type charmm.DummyType.
type State struct {
	*chem.Molecule
	Scale *ff.Intrascale //scaling of the non-bonded interactions between pairs of atoms.
	Dummy []bool
}

// Merged is a molecule that can be in two end states, one for each of the molecules
// it was merged from. Its first atoms are those of the first molecule, in the same
// order, followed by the atoms of the second molecule that were not mapped.
type Merged struct {
	n0      int
	mapping map[int]int
	states  [2]*State
}

// Len returns the number of atoms in the merged molecule.
func (M *Merged) Len() int { return M.states[0].Len() }

// N0 returns the number of atoms of the first molecule.
func (M *Merged) N0() int { return M.n0 }

// Mapping returns a copy of the mapping used to build the merged molecule.
func (M *Merged) Mapping() map[int]int { return copyMap(M.mapping) }

func lambda(lambda1 bool) int {
	if lambda1 {
		return 1
	}
	return 0
}

// State returns the end state of the first molecule (lambda=0) if lambda1 is false,
// or that of the second (lambda=1) otherwise. The state is not a copy.
func (M *Merged) State(lambda1 bool) *State { return M.states[lambda(lambda1)] }

// IsDummy returns whether the atom i is a dummy in the given end state.
func (M *Merged) IsDummy(i int, lambda1 bool) bool {
	return M.states[lambda(lambda1)].Dummy[i]
}

// dummy returns a dummy copy of at.
func dummy(at *chem.Atom) *chem.Atom {
	d := at.Copy()
	d.Symbol = chem.DummySymbol
	d.Type = charmm.DummyType
	d.Charge = 0
	d.Epsilon = 0
	d.RMinHalf = 0
	return d
}

// remapped returns copies of the terms, with their atom indexes translated by idx.
func remapped(terms []*chem.Term, idx func(int) int) []*chem.Term {
	ret := make([]*chem.Term, 0, len(terms))
	for _, t := range terms {
		c := t.Copy()
		for k, v := range c.IDs {
			c.IDs[k] = idx(v)
		}
		ret = append(ret, c)
	}
	return ret
}

// touching returns the terms with at least one atom for which only returns true.
func touching(terms []*chem.Term, only func(int) bool) []*chem.Term {
	ret := make([]*chem.Term, 0)
	for _, t := range terms {
		for _, v := range t.IDs {
			if only(v) {
				ret = append(ret, t)
				break
			}
		}
	}
	return ret
}

// Merge merges m0 and m1 into a single molecule with two end states, given a mapping
// between their atoms (keys are m0 indexes). m0 should be aligned to m1 first (see
// RMSDAlign). Both molecules need their force field parameters assigned. In each end
// state, the atoms of the other molecule that are not mapped become dummies, bonded
// as in the other molecule, and with the mass they have there.
// Merge returns an error matching ErrIncompatible if the mapping opens, closes or
// resizes a ring, unless that is allowed in options. options can be nil.
func Merge(m0, m1 *chem.Molecule, mapping map[int]int, options *MergeOptions) (*Merged, error) {
	if options == nil {
		options = new(MergeOptions)
	}
	n0, n1 := m0.Len(), m1.Len()
	if err := validate(mapping, n0, n1, "Merge"); err != nil {
		return nil, err
	}
	if len(mapping) == 0 {
		return nil, Error{"can't merge with an empty mapping", []string{"Merge"}, true, ErrValidation}
	}
	if err := checkRings(m0.Topology, m1.Topology, mapping, options); err != nil {
		return nil, errDecorate(err, "Merge")
	}
	//merged index of each atom of m1
	idx1 := make([]int, n1)
	for j := range idx1 {
		idx1[j] = -1
	}
	for i, j := range mapping {
		idx1[j] = i
	}
	N := n0
	for j := range idx1 {
		if idx1[j] < 0 {
			idx1[j] = N
			N++
		}
	}
	only0 := func(i int) bool { _, ok := mapping[i]; return !ok }
	only1 := func(j int) bool { return idx1[j] >= n0 }
	same := func(i int) int { return i }
	to1 := func(j int) int { return idx1[j] }

	M := &Merged{n0: n0, mapping: copyMap(mapping)}
	for s := 0; s < 2; s++ {
		ats := make([]*chem.Atom, N)
		dum := make([]bool, N)
		coords := v3.Zeros(N)
		if s == 0 {
			for i := 0; i < n0; i++ {
				ats[i] = m0.Atom(i).Copy()
				coords.SetVec(i, m0.Coords.Vec(i))
			}
			for j := 0; j < n1; j++ {
				if only1(j) {
					ats[idx1[j]] = dummy(m1.Atom(j))
					dum[idx1[j]] = true
					coords.SetVec(idx1[j], m1.Coords.Vec(j))
				}
			}
		} else {
			for i := 0; i < n0; i++ {
				if only0(i) {
					ats[i] = dummy(m0.Atom(i))
					dum[i] = true
					coords.SetVec(i, m0.Coords.Vec(i))
				}
			}
			for j := 0; j < n1; j++ {
				ats[idx1[j]] = m1.Atom(j).Copy()
				coords.SetVec(idx1[j], m1.Coords.Vec(j))
			}
		}
		charge, multi := m0.Charge(), m0.Multi()
		if s == 1 {
			charge, multi = m1.Charge(), m1.Multi()
		}
		top := chem.NewTopology(charge, multi, ats...)
		//the molecule of the end state, plus the terms of the other molecule
		//that involve its dummies.
		own, ownIdx, other, otherIdx, otherOnly := m0.Topology, same, m1.Topology, to1, only1
		if s == 1 {
			own, ownIdx, other, otherIdx, otherOnly = m1.Topology, to1, m0.Topology, same, only0
		}
		top.Bonds = append(remapped(own.Bonds, ownIdx), remapped(touching(other.Bonds, otherOnly), otherIdx)...)
		top.Angles = append(remapped(own.Angles, ownIdx), remapped(touching(other.Angles, otherOnly), otherIdx)...)
		top.Dihedrals = append(remapped(own.Dihedrals, ownIdx), remapped(touching(other.Dihedrals, otherOnly), otherIdx)...)
		top.Impropers = append(remapped(own.Impropers, ownIdx), remapped(touching(other.Impropers, otherOnly), otherIdx)...)
		mol, err := chem.NewMolecule(top, coords)
		if err != nil {
			return nil, Error{err.Error(), []string{"chem.NewMolecule", "Merge"}, true, err}
		}
		scale := mergedScale(N, own, ownIdx, other, otherIdx, otherOnly, func(k int) bool {
			if s == 0 {
				return k < n0 && only0(k)
			}
			return k >= n0
		})
		M.states[s] = &State{Molecule: mol, Scale: scale, Dummy: dum}
	}
	return M, nil
}

// mergedScale builds the intrascale of an end state of N atoms. Pairs within the own
// molecule of the state take the factors of that molecule. Pairs within the other
// molecule involving at least one of its own atoms (otherOnly) take the factors of
// the other molecule. Pairs of an atom only in the own molecule (ownOnly) and one
// only in the other never interact.
func mergedScale(N int, own *chem.Topology, ownIdx func(int) int, other *chem.Topology, otherIdx func(int) int, otherOnly func(int) bool, ownOnly func(int) bool) *ff.Intrascale {
	ret := ff.NewEmptyIntrascale(N)
	so := ff.NewIntrascale(other, ff.CHARMM14)
	for _, p := range so.Scaled() {
		if otherOnly(p[0]) || otherOnly(p[1]) {
			ret.Set(otherIdx(p[0]), otherIdx(p[1]), so.Get(p[0], p[1]))
		}
	}
	s := ff.NewIntrascale(own, ff.CHARMM14)
	for _, p := range s.Scaled() {
		ret.Set(ownIdx(p[0]), ownIdx(p[1]), s.Get(p[0], p[1]))
	}
	var onlyOther []int
	for j := 0; j < other.Len(); j++ {
		if otherOnly(j) {
			onlyOther = append(onlyOther, otherIdx(j))
		}
	}
	for i := 0; i < N; i++ {
		if !ownOnly(i) {
			continue
		}
		for _, k := range onlyOther {
			ret.Set(i, k, ff.Scale14{})
		}
	}
	return ret
}

// checkRings returns an error if the mapping opens, closes or changes the size of
// a ring, and that is not allowed in o. Every pair of mapped atoms bonded in either
// molecule is checked.
func checkRings(top0, top1 *chem.Topology, mapping map[int]int, o *MergeOptions) error {
	if o.AllowRingBreaking && o.AllowRingSizeChange {
		return nil
	}
	g0 := chemgraph.FromTopology(top0)
	g1 := chemgraph.FromTopology(top1)
	rings0 := chemgraph.Rings(g0)
	rings1 := chemgraph.Rings(g1)
	keys := sortedKeys(mapping)
	for a, i := range keys {
		for _, k := range keys[a+1:] {
			j, l := mapping[i], mapping[k]
			b0, b1 := top0.Bonded(i, k), top1.Bonded(j, l)
			if !b0 && !b1 {
				continue
			}
			breaking, resizing := false, false
			if b0 && b1 {
				r0 := chemgraph.SmallestRingThrough(g0, i, k)
				r1 := chemgraph.SmallestRingThrough(g1, j, l)
				breaking = (r0 > 0) != (r1 > 0)
				resizing = r0 > 0 && r1 > 0 && r0 != r1
			} else if chemgraph.ShareRing(rings0, i, k) && chemgraph.ShareRing(rings1, j, l) {
				resizing = true
			} else {
				breaking = true
			}
			if breaking && !o.AllowRingBreaking {
				return Error{fmt.Sprintf("mapping %d-%d to %d-%d opens or closes a ring", i, k, j, l), []string{"checkRings"}, true, ErrIncompatible}
			}
			if resizing && !o.AllowRingSizeChange {
				return Error{fmt.Sprintf("mapping %d-%d to %d-%d changes the size of a ring", i, k, j, l), []string{"checkRings"}, true, ErrIncompatible}
			}
		}
	}
	return nil
}

// Extract returns the molecule of the given end state, without its dummy atoms, and
// the index in the merged molecule of each of its atoms.
func (M *Merged) Extract(lambda1 bool) (*chem.Molecule, []int, error) {
	s := M.states[lambda(lambda1)]
	index := make([]int, 0, s.Len())
	newIdx := make([]int, s.Len())
	for i := range newIdx {
		newIdx[i] = -1
		if !s.Dummy[i] {
			newIdx[i] = len(index)
			index = append(index, i)
		}
	}
	ats := make([]*chem.Atom, len(index))
	for k, i := range index {
		ats[k] = s.Atom(i).Copy()
	}
	top := chem.NewTopology(s.Charge(), s.Multi(), ats...)
	keep := func(terms []*chem.Term) []*chem.Term {
		ret := make([]*chem.Term, 0, len(terms))
		for _, t := range terms {
			ok := true
			for _, v := range t.IDs {
				ok = ok && !s.Dummy[v]
			}
			if ok {
				ret = append(ret, t)
			}
		}
		return remapped(ret, func(i int) int { return newIdx[i] })
	}
	top.Bonds = keep(s.Bonds)
	top.Angles = keep(s.Angles)
	top.Dihedrals = keep(s.Dihedrals)
	top.Impropers = keep(s.Impropers)
	coords := v3.Zeros(len(index))
	coords.SomeVecs(s.Coords, index)
	mol, err := chem.NewMolecule(top, coords)
	if err != nil {
		return nil, nil, Error{err.Error(), []string{"chem.NewMolecule", "Extract"}, true, err}
	}
	return mol, index, nil
}
