/*
 * align_test.go, part of simspace.
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
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	chem "github.com/rmera/simspace"
	"github.com/rmera/simspace/charmm"
	"github.com/rmera/simspace/ff"
	v3 "github.com/rmera/simspace/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	hMass = 1.008
	cMass = 12.011
	tol   = 1e-8
)

func params() *ff.ParamSet {
	P := ff.NewParamSet()
	P.Bonds[ff.NewTypes2("CT", "CT")] = ff.Harmonic{K: 222.5, Eq: 1.53}
	P.Bonds[ff.NewTypes2("CT", "HC")] = ff.Harmonic{K: 309.0, Eq: 1.111}
	P.Angles[ff.NewTypes3("CT", "CT", "CT")] = ff.Harmonic{K: 58.35, Eq: 113.5}
	P.Angles[ff.NewTypes3("CT", "CT", "HC")] = ff.Harmonic{K: 26.5, Eq: 110.1}
	P.Angles[ff.NewTypes3("HC", "CT", "HC")] = ff.Harmonic{K: 35.5, Eq: 109.0}
	P.Dihedrals[ff.NewTypes4(ff.Wildcard, "CT", "CT", ff.Wildcard)] = []chem.Torsion{{K: 0.16, N: 3, Phase: 0}}
	P.NonBonded["CT"] = ff.LJ{Epsilon: 0.056, RMinHalf: 2.01}
	P.NonBonded["HC"] = ff.LJ{Epsilon: 0.022, RMinHalf: 1.32}
	return P
}

// build returns a parametrized molecule of carbons at the given positions, bonded
// as given. If hydrogens is true, every carbon is filled up to 4 bonds with
// hydrogens, which come after all the carbons.
func build(Te *testing.T, carbons []r3.Vec, bonds [][2]int, hydrogens bool) *chem.Molecule {
	Te.Helper()
	ats := make([]*chem.Atom, 0, 4*len(carbons))
	pos := append([]r3.Vec(nil), carbons...)
	for range carbons {
		ats = append(ats, &chem.Atom{Name: "C", Symbol: "C", Type: "CT", Charge: -0.27, Mass: cMass})
	}
	neigh := make([][]int, len(carbons))
	for _, b := range bonds {
		neigh[b[0]] = append(neigh[b[0]], b[1])
		neigh[b[1]] = append(neigh[b[1]], b[0])
	}
	var hbonds [][2]int
	if hydrogens {
		for i, c := range carbons {
			out := r3.Vec{X: 1}
			if len(neigh[i]) > 0 {
				var cen r3.Vec
				for _, j := range neigh[i] {
					cen = r3.Add(cen, carbons[j])
				}
				cen = r3.Scale(1/float64(len(neigh[i])), cen)
				out = r3.Unit(r3.Sub(c, cen))
			}
			//tilted, so no dihedral has 3 aligned atoms.
			out = r3.Unit(r3.Add(out, r3.Vec{Y: 0.7}))
			dirs := []r3.Vec{{Z: 1}, {Z: -1}, out}
			for k := 0; k < 4-len(neigh[i]) && k < len(dirs); k++ {
				ats = append(ats, &chem.Atom{Name: "H", Symbol: "H", Type: "HC", Charge: 0.09, Mass: hMass})
				pos = append(pos, r3.Add(c, r3.Scale(1.09, dirs[k])))
				hbonds = append(hbonds, [2]int{i, len(pos) - 1})
			}
		}
	}
	top := chem.NewTopology(0, 1, ats...)
	for _, b := range append(bonds, hbonds...) {
		top.AddBond(b[0], b[1])
	}
	top.AutoAngles()
	top.AutoDihedrals()
	if err := params().Assign(top); err != nil {
		Te.Fatal(err)
	}
	coords := v3.Zeros(len(pos))
	for i, p := range pos {
		coords.SetVec(i, p)
	}
	mol, err := chem.NewMolecule(top, coords)
	if err != nil {
		Te.Fatal(err)
	}
	return mol
}

func zigzag(n int) ([]r3.Vec, [][2]int) {
	c := make([]r3.Vec, n)
	var b [][2]int
	for i := range c {
		c[i] = r3.Vec{X: 1.25 * float64(i), Y: 0.4 * float64(i%2)}
		if i > 0 {
			b = append(b, [2]int{i - 1, i})
		}
	}
	return c, b
}

func ring(n int) ([]r3.Vec, [][2]int) {
	r := 1.5 / (2 * math.Sin(math.Pi/float64(n)))
	c := make([]r3.Vec, n)
	var b [][2]int
	for i := range c {
		a := 2 * math.Pi * float64(i) / float64(n)
		c[i] = r3.Vec{X: r * math.Cos(a), Y: r * math.Sin(a)}
		b = append(b, [2]int{i, (i + 1) % n})
	}
	return c, b
}

// ethane: carbons 0 and 1, hydrogens 2-4 on 0 and 5-7 on 1.
func ethane(Te *testing.T) *chem.Molecule {
	c, b := zigzag(2)
	return build(Te, c, b, true)
}

// propane: carbons 0-2, hydrogens 3-5 on 0, 6-7 on 1 and 8-10 on 2.
func propane(Te *testing.T) *chem.Molecule {
	c, b := zigzag(3)
	return build(Te, c, b, true)
}

// moved returns a copy of m rotated 90 degrees around z, and translated.
func moved(m *chem.Molecule) *chem.Molecule {
	ret := m.Copy()
	for i := 0; i < ret.Len(); i++ {
		v := ret.Coords.Vec(i)
		ret.Coords.SetVec(i, r3.Vec{X: -v.Y + 1, Y: v.X + 2, Z: v.Z - 3})
	}
	return ret
}

func identity(n int) map[int]int {
	ret := make(map[int]int, n)
	for i := 0; i < n; i++ {
		ret[i] = i
	}
	return ret
}

// checkInduced fails if mapped atoms have different elements, or their bonds differ.
func checkInduced(Te *testing.T, m0, m1 *chem.Molecule, mapping map[int]int) {
	Te.Helper()
	keys := sortedKeys(mapping)
	for a, i := range keys {
		if s0, s1 := m0.Atom(i).Symbol, m1.Atom(mapping[i]).Symbol; s0 != s1 {
			Te.Errorf("Atom %d (%s) mapped to %d (%s)", i, s0, mapping[i], s1)
		}
		for _, k := range keys[a+1:] {
			if m0.Bonded(i, k) != m1.Bonded(mapping[i], mapping[k]) {
				Te.Errorf("Bond %d-%d not kept in mapping", i, k)
			}
		}
	}
}

func TestMatchAtoms(Te *testing.T) {
	m0 := propane(Te)
	m1 := moved(m0)
	mapping, err := MatchAtoms(context.Background(), m0, m1, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if diff := cmp.Diff(identity(m0.Len()), mapping); diff != "" {
		Te.Errorf("Unexpected mapping (-want +got):\n%s", diff)
	}
	if s := score(m0.Coords, m1.Coords, mapping, ScoreRMSDAlign); s > 1e-4 {
		Te.Errorf("Aligned RMSD of the mapping is %g", s)
	}
	//invalid options are replaced by the defaults
	mapping, err = MatchAtoms(context.Background(), m0, m1, &MatchOptions{})
	if err != nil {
		Te.Fatal(err)
	}
	if len(mapping) != m0.Len() {
		Te.Errorf("Mapped %d atoms with zero-valued options, want %d", len(mapping), m0.Len())
	}
}

// The hydrogens of a methyl group are topologically equivalent, so which goes
// to which is decided by the coordinates.
func TestMatchAtomsTerminals(Te *testing.T) {
	m0 := ethane(Te)
	for _, scoring := range []Scoring{ScoreRMSDAlign, ScoreRMSD} {
		m1 := m0.Copy()
		if scoring == ScoreRMSDAlign {
			m1 = moved(m0)
		}
		h2, h3 := m1.Coords.Vec(2), m1.Coords.Vec(3)
		m1.Coords.SetVec(2, h3)
		m1.Coords.SetVec(3, h2)
		o := DefaultMatchOptions()
		o.Scoring = scoring
		mapping, err := MatchAtoms(context.Background(), m0, m1, o)
		if err != nil {
			Te.Fatal(err)
		}
		want := identity(m0.Len())
		want[2], want[3] = 3, 2
		if diff := cmp.Diff(want, mapping); diff != "" {
			Te.Errorf("Scoring %d: unexpected mapping (-want +got):\n%s", scoring, diff)
		}
		if sc := score(m0.Coords, m1.Coords, mapping, scoring); sc > 1e-4 {
			Te.Errorf("Scoring %d: RMSD of the mapping is %g", scoring, sc)
		}
		checkInduced(Te, m0, m1, mapping)
	}
	//pre-matched hydrogens stay where they are.
	m1 := moved(m0)
	groups := terminalGroups(m0.Topology, m0.Neighbors(), m1.Neighbors(), identity(m0.Len()), map[int]int{2: 2})
	if diff := cmp.Diff([][]int{{3, 4}, {5, 6, 7}}, groups); diff != "" {
		Te.Errorf("Unexpected terminal groups (-want +got):\n%s", diff)
	}
}

func TestPermutations(Te *testing.T) {
	v := []int{1, 2, 3}
	seen := make(map[[3]int]bool)
	permutations(v, 0, func() { seen[[3]int{v[0], v[1], v[2]}] = true })
	if len(seen) != 6 {
		Te.Errorf("Got %d permutations of 3 items, want 6", len(seen))
	}
	if diff := cmp.Diff([]int{1, 2, 3}, v); diff != "" {
		Te.Errorf("Slice not restored (-want +got):\n%s", diff)
	}
}

func TestMatchAtomsDifferent(Te *testing.T) {
	m0 := ethane(Te)
	m1 := propane(Te)
	mapping, err := MatchAtoms(context.Background(), m0, m1, nil)
	if err != nil {
		Te.Fatal(err)
	}
	//both carbons, the 3 hydrogens on one and 2 on the other.
	if len(mapping) != 7 {
		Te.Errorf("Mapped %d atoms, want 7: %v", len(mapping), mapping)
	}
	for _, i := range []int{0, 1} {
		if _, ok := mapping[i]; !ok {
			Te.Errorf("Carbon %d not mapped: %v", i, mapping)
		}
	}
	checkInduced(Te, m0, m1, mapping)
}

func TestMatchAtomsPrematch(Te *testing.T) {
	m0 := propane(Te)
	m1 := moved(m0)
	for _, pre := range []map[int]int{{0: 99}, {-1: 0}, {0: 0, 1: 0}} {
		o := DefaultMatchOptions()
		o.Prematch = pre
		_, err := MatchAtoms(context.Background(), m0, m1, o)
		if !errors.Is(err, ErrValidation) {
			Te.Errorf("Pre-match %v: expected a validation error, got %v", pre, err)
		}
	}
	o := DefaultMatchOptions()
	o.Prematch = map[int]int{0: 2}
	mapping, err := MatchAtoms(context.Background(), m0, m1, o)
	if err != nil {
		Te.Fatal(err)
	}
	if mapping[0] != 2 || len(mapping) != m0.Len() {
		Te.Errorf("Mapping doesn't extend the pre-match: %v", mapping)
	}
	checkInduced(Te, m0, m1, mapping)
}

func TestMatchAtomsRings(Te *testing.T) {
	c5, b5 := ring(5)
	c6, b6 := ring(6)
	m0 := build(Te, c5, b5, false)
	m1 := build(Te, c6, b6, false)
	mapping, err := MatchAtoms(context.Background(), m0, m1, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if len(mapping) != 0 {
		Te.Errorf("Partial rings mapped: %v", mapping)
	}
	o := DefaultMatchOptions()
	o.CompleteRingsOnly = false
	mapping, err = MatchAtoms(context.Background(), m0, m1, o)
	if err != nil {
		Te.Fatal(err)
	}
	if len(mapping) != 4 {
		Te.Errorf("Mapped %d atoms, want 4: %v", len(mapping), mapping)
	}
	checkInduced(Te, m0, m1, mapping)
}

func TestMatchAtomsCancelled(Te *testing.T) {
	m0 := ethane(Te)
	m1 := propane(Te)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	mapping, err := MatchAtoms(ctx, m0, m1, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if err := validate(mapping, m0.Len(), m1.Len(), "test"); err != nil {
		Te.Error(err)
	}
	checkInduced(Te, m0, m1, mapping)
}

func TestRMSDAlign(Te *testing.T) {
	m0 := propane(Te)
	m0.Vels = v3.Zeros(m0.Len())
	for i := 0; i < m0.Len(); i++ {
		m0.Vels.SetVec(i, r3.Vec{X: 1})
	}
	m1 := moved(m0)
	orig := m0.Coords.Clone()
	//the carbons are enough to place the whole molecule.
	aligned, err := RMSDAlign(m0, m1, map[int]int{0: 0, 1: 1, 2: 2})
	if err != nil {
		Te.Fatal(err)
	}
	for i := 0; i < m0.Len(); i++ {
		if d := r3.Norm(r3.Sub(aligned.Coords.Vec(i), m1.Coords.Vec(i))); d > 1e-6 {
			Te.Errorf("Atom %d is %g A away from its target", i, d)
		}
		if d := r3.Norm(r3.Sub(aligned.Vels.Vec(i), r3.Vec{Y: 1})); d > 1e-6 {
			Te.Errorf("Velocity %d not rotated: %v", i, aligned.Vels.Vec(i))
		}
		if orig.Vec(i) != m0.Coords.Vec(i) {
			Te.Errorf("Atom %d of the input molecule was moved", i)
		}
	}
	if _, err := RMSDAlign(m0, m1, map[int]int{}); !errors.Is(err, ErrValidation) {
		Te.Errorf("Expected a validation error for an empty mapping, got %v", err)
	}
	if _, err := RMSDAlign(m0, m1, map[int]int{0: 11}); !errors.Is(err, ErrValidation) {
		Te.Errorf("Expected a validation error for an out of range mapping, got %v", err)
	}
}

// ethaneToPropane maps ethane onto propane. Ethane hydrogen 7 and propane
// atoms 2 and 8-10 are left out, so they become merged atoms 8-11.
var ethaneToPropane = map[int]int{0: 0, 1: 1, 2: 3, 3: 4, 4: 5, 5: 6, 6: 7}

func TestMerge(Te *testing.T) {
	m0 := ethane(Te)
	m1 := propane(Te)
	M, err := Merge(m0, m1, ethaneToPropane, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if M.Len() != 12 || M.N0() != 8 {
		Te.Fatalf("Merged molecule has %d atoms, %d from the first molecule. Want 12 and 8", M.Len(), M.N0())
	}
	s0, s1 := M.State(false), M.State(true)
	for i := 0; i < M.Len(); i++ {
		if want := i >= 8; M.IsDummy(i, false) != want {
			Te.Errorf("Atom %d: dummy at lambda 0 is %t, want %t", i, !want, want)
		}
		if want := i == 7; M.IsDummy(i, true) != want {
			Te.Errorf("Atom %d: dummy at lambda 1 is %t, want %t", i, !want, want)
		}
	}
	d := s1.Atom(7)
	if d.Symbol != chem.DummySymbol || d.Type != charmm.DummyType || d.Charge != 0 || d.Epsilon != 0 || d.Mass != hMass {
		Te.Errorf("Wrong dummy atom: %+v", d)
	}
	if !s1.Bonded(1, 7) || !s1.Bonded(1, 8) || !s0.Bonded(1, 8) || !s0.Bonded(1, 7) {
		Te.Error("Dummy atoms are not bonded as in their molecule")
	}
	if s0.Scale.Get(7, 8) != (ff.Scale14{}) || s1.Scale.Get(7, 8) != (ff.Scale14{}) {
		Te.Error("Atoms of different molecules that are not mapped interact")
	}
	if s0.Charge() != m0.Charge() || s1.Charge() != m1.Charge() {
		Te.Error("Wrong end state charges")
	}

	//the dummies don't change the energy of the end states.
	in0 := ff.Intra(m0.Topology, m0.Coords, nil, nil).Intra()
	in1 := ff.Intra(m1.Topology, m1.Coords, nil, nil).Intra()
	if e := ff.Intra(s0.Topology, s0.Coords, s0.Scale, nil).Intra(); math.Abs(e-in0) > tol {
		Te.Errorf("Non-bonded energy at lambda 0 is %g, want %g", e, in0)
	}
	if e := ff.Intra(s1.Topology, s1.Coords, s1.Scale, nil).Intra(); math.Abs(e-in1) > tol {
		Te.Errorf("Non-bonded energy at lambda 1 is %g, want %g", e, in1)
	}
	b0 := ff.Internal(m0.Topology, m0.Coords, nil).Internal()
	b1 := ff.Internal(m1.Topology, m1.Coords, nil).Internal()
	sel0 := []int{0, 1, 2, 3, 4, 5, 6, 7}
	if e := ff.Internal(s0.Topology, s0.Coords, sel0).Internal(); math.Abs(e-b0) > tol {
		Te.Errorf("Bonded energy at lambda 0 is %g, want %g", e, b0)
	}
	sel1 := []int{0, 1, 2, 3, 4, 5, 6, 8, 9, 10, 11}
	if e := ff.Internal(s1.Topology, s1.Coords, sel1).Internal(); math.Abs(e-b1) > tol {
		Te.Errorf("Bonded energy at lambda 1 is %g, want %g", e, b1)
	}

	e0, idx0, err := M.Extract(false)
	if err != nil {
		Te.Fatal(err)
	}
	if diff := cmp.Diff(sel0, idx0); diff != "" {
		Te.Errorf("Unexpected indexes at lambda 0 (-want +got):\n%s", diff)
	}
	e1, idx1, err := M.Extract(true)
	if err != nil {
		Te.Fatal(err)
	}
	if diff := cmp.Diff(sel1, idx1); diff != "" {
		Te.Errorf("Unexpected indexes at lambda 1 (-want +got):\n%s", diff)
	}
	for k, c := range []struct {
		mol, ext *chem.Molecule
	}{{m0, e0}, {m1, e1}} {
		if c.ext.Len() != c.mol.Len() || len(c.ext.Bonds) != len(c.mol.Bonds) || len(c.ext.Dihedrals) != len(c.mol.Dihedrals) {
			Te.Errorf("Extracted molecule %d differs from the original", k)
		}
		want := ff.Internal(c.mol.Topology, c.mol.Coords, nil).Total() + ff.Intra(c.mol.Topology, c.mol.Coords, nil, nil).Total()
		got := ff.Internal(c.ext.Topology, c.ext.Coords, nil).Total() + ff.Intra(c.ext.Topology, c.ext.Coords, nil, nil).Total()
		if math.Abs(want-got) > tol {
			Te.Errorf("Extracted molecule %d has an energy of %g, want %g", k, got, want)
		}
	}
}

func TestMergeErrors(Te *testing.T) {
	m0 := ethane(Te)
	m1 := propane(Te)
	if _, err := Merge(m0, m1, map[int]int{}, nil); !errors.Is(err, ErrValidation) {
		Te.Errorf("Expected a validation error for an empty mapping, got %v", err)
	}
	if _, err := Merge(m0, m1, map[int]int{0: 0, 8: 1}, nil); !errors.Is(err, ErrValidation) {
		Te.Errorf("Expected a validation error for an out of range mapping, got %v", err)
	}
}

func TestMergeRings(Te *testing.T) {
	c3, b3 := ring(3)
	cz, bz := zigzag(3)
	cyclopropane := build(Te, c3, b3, false)
	chain := build(Te, cz, bz, false)
	id3 := identity(3)
	if _, err := Merge(cyclopropane, chain, id3, nil); !errors.Is(err, ErrIncompatible) {
		Te.Errorf("Expected an error when opening a ring, got %v", err)
	}
	if _, err := Merge(chain, cyclopropane, id3, &MergeOptions{AllowRingSizeChange: true}); !errors.Is(err, ErrIncompatible) {
		Te.Errorf("Expected an error when closing a ring, got %v", err)
	}
	if _, err := Merge(cyclopropane, chain, id3, &MergeOptions{AllowRingBreaking: true}); err != nil {
		Te.Errorf("Ring opening was allowed, but got %v", err)
	}

	c5, b5 := ring(5)
	c6, b6 := ring(6)
	m5 := build(Te, c5, b5, false)
	m6 := build(Te, c6, b6, false)
	id5 := identity(5)
	if _, err := Merge(m5, m6, id5, &MergeOptions{AllowRingBreaking: true}); !errors.Is(err, ErrIncompatible) {
		Te.Errorf("Expected an error when changing a ring size, got %v", err)
	}
	if _, err := Merge(m5, m6, id5, &MergeOptions{AllowRingSizeChange: true}); err != nil {
		Te.Errorf("Ring size change was allowed, but got %v", err)
	}

	//a whole ring can always be grown.
	ce, be := zigzag(2)
	m0 := build(Te, ce, be, false)
	m1 := build(Te, []r3.Vec{{}, {X: 1.5}, {X: 2.3, Y: 0.75}, {X: 2.3, Y: -0.75}}, [][2]int{{0, 1}, {1, 2}, {1, 3}, {2, 3}}, false)
	M, err := Merge(m0, m1, identity(2), nil)
	if err != nil {
		Te.Fatalf("Couldn't grow a ring: %v", err)
	}
	s0 := M.State(false)
	if !M.IsDummy(2, false) || !M.IsDummy(3, false) || !s0.Bonded(2, 3) || !s0.Bonded(1, 2) {
		Te.Error("The grown ring is not made of bonded dummies at lambda 0")
	}
}

func TestMergedRepartitionHydrogenMass(Te *testing.T) {
	m0 := ethane(Te)
	m1 := propane(Te)
	M, err := Merge(m0, m1, ethaneToPropane, nil)
	if err != nil {
		Te.Fatal(err)
	}
	if err := M.RepartitionHydrogenMass(-1); err == nil {
		Te.Error("Expected an error for a negative factor")
	}
	if M.State(false).Atom(2).Mass != hMass {
		Te.Error("Masses changed after a failed repartitioning")
	}
	if err := M.RepartitionHydrogenMass(3); err != nil {
		Te.Fatal(err)
	}
	for s, mol := range []*chem.Molecule{m0, m1} {
		lambda1 := s == 1
		st := M.State(lambda1)
		total := 0.0
		for i, at := range st.Atoms {
			if st.Dummy[i] {
				if other := M.State(!lambda1).Atom(i).Mass; at.Mass != other {
					Te.Errorf("Dummy %d at lambda %d has mass %g, want %g", i, s, at.Mass, other)
				}
				continue
			}
			total += at.Mass
			if at.Symbol == "H" && math.Abs(at.Mass-3*hMass) > tol {
				Te.Errorf("Hydrogen %d at lambda %d has mass %g, want %g", i, s, at.Mass, 3*hMass)
			}
		}
		if want := mol.TotalMass(); math.Abs(total-want) > 1e-6 {
			Te.Errorf("Mass at lambda %d is %g, want %g", s, total, want)
		}
	}
}
