/*
 * params.go, part of simspace.
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

import (
	"fmt"
	"math"

	chem "github.com/rmera/simspace"
)

// Wildcard matches any atom type in the outer positions of a dihedral.
const Wildcard = "X"

// Types2 are the atom types of a bond, in canonical order.
type Types2 [2]string

// Types3 are the atom types of an angle, in canonical order.
type Types3 [3]string

// Types4 are the atom types of a dihedral or improper.
type Types4 [4]string

// NewTypes2 returns the canonical (sorted) key for the bond between types a and b.
func NewTypes2(a, b string) Types2 {
	if a > b {
		a, b = b, a
	}
	return Types2{a, b}
}

// NewTypes3 returns the canonical key for the angle a-b-c. An angle and its reverse
// share a key.
func NewTypes3(a, b, c string) Types3 {
	if a > c {
		a, c = c, a
	}
	return Types3{a, b, c}
}

// NewTypes4 returns the canonical key for the dihedral a-b-c-d. A dihedral and its
// reverse share a key.
func NewTypes4(a, b, c, d string) Types4 {
	f := Types4{a, b, c, d}
	r := Types4{d, c, b, a}
	for i := range f {
		if f[i] != r[i] {
			if r[i] < f[i] {
				return r
			}
			return f
		}
	}
	return f
}

// Harmonic contains the parameters of a harmonic term, K(x-Eq)^2.
type Harmonic struct {
	K  float64
	Eq float64
}

// LJ contains the Lennard-Jones parameters of an atom type.
type LJ struct {
	Epsilon  float64 //positive well depth
	RMinHalf float64
}

// ParamSet is a set of CHARMM-style parameters, indexed by atom types.
// Impropers are keyed in the order given, and looked up in both directions.
type ParamSet struct {
	Bonds     map[Types2]Harmonic
	Angles    map[Types3]Harmonic
	Dihedrals map[Types4][]chem.Torsion
	Impropers map[Types4]Harmonic
	NonBonded map[string]LJ
}

// NewParamSet returns an empty ParamSet.
func NewParamSet() *ParamSet {
	return &ParamSet{
		Bonds:     make(map[Types2]Harmonic),
		Angles:    make(map[Types3]Harmonic),
		Dihedrals: make(map[Types4][]chem.Torsion),
		Impropers: make(map[Types4]Harmonic),
		NonBonded: make(map[string]LJ),
	}
}

const paramTol = 1e-6

func near(a, b float64) bool {
	return math.Abs(a-b) <= paramTol*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func sameHarmonic(a, b Harmonic) bool {
	return near(a.K, b.K) && near(a.Eq, b.Eq)
}

func sameSeries(a, b []chem.Torsion) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !near(a[i].K, b[i].K) || a[i].N != b[i].N || !near(a[i].Phase, b[i].Phase) {
			return false
		}
	}
	return true
}

func types(top *chem.Topology, t *chem.Term) ([]string, error) {
	ret := make([]string, len(t.IDs))
	for k, v := range t.IDs {
		ret[k] = top.Atom(v).Type
		if ret[k] == "" {
			return nil, Error{fmt.Sprintf("Atom %d has no type", v), []string{"types"}, true}
		}
	}
	return ret, nil
}

// ParamsFromTopology collects the parameters of the terms and atoms in top into a ParamSet.
// It returns an error if two terms with the same types carry different parameters.
func ParamsFromTopology(top *chem.Topology) (*ParamSet, error) {
	P := NewParamSet()
	conflict := func(kind string, key any) error {
		return Error{fmt.Sprintf("Conflicting %s parameters for types %v", kind, key), []string{"ParamsFromTopology"}, true}
	}
	for _, t := range top.Bonds {
		ty, err := types(top, t)
		if err != nil {
			return nil, errDecorate(err, "ParamsFromTopology")
		}
		k := NewTypes2(ty[0], ty[1])
		h := Harmonic{t.K, t.Eq}
		if old, ok := P.Bonds[k]; ok && !sameHarmonic(old, h) {
			return nil, conflict("bond", k)
		}
		P.Bonds[k] = h
	}
	for _, t := range top.Angles {
		ty, err := types(top, t)
		if err != nil {
			return nil, errDecorate(err, "ParamsFromTopology")
		}
		k := NewTypes3(ty[0], ty[1], ty[2])
		h := Harmonic{t.K, t.Eq}
		if old, ok := P.Angles[k]; ok && !sameHarmonic(old, h) {
			return nil, conflict("angle", k)
		}
		P.Angles[k] = h
	}
	for _, t := range top.Dihedrals {
		ty, err := types(top, t)
		if err != nil {
			return nil, errDecorate(err, "ParamsFromTopology")
		}
		k := NewTypes4(ty[0], ty[1], ty[2], ty[3])
		if old, ok := P.Dihedrals[k]; ok && !sameSeries(old, t.Series) {
			return nil, conflict("dihedral", k)
		}
		P.Dihedrals[k] = append([]chem.Torsion(nil), t.Series...)
	}
	for _, t := range top.Impropers {
		ty, err := types(top, t)
		if err != nil {
			return nil, errDecorate(err, "ParamsFromTopology")
		}
		k := Types4{ty[0], ty[1], ty[2], ty[3]}
		h := Harmonic{t.K, t.Eq}
		if old, ok := P.Impropers[k]; ok && !sameHarmonic(old, h) {
			return nil, conflict("improper", k)
		}
		P.Impropers[k] = h
	}
	for i, at := range top.Atoms {
		if at.Type == "" {
			return nil, Error{fmt.Sprintf("Atom %d has no type", i), []string{"ParamsFromTopology"}, true}
		}
		lj := LJ{at.Epsilon, at.RMinHalf}
		if old, ok := P.NonBonded[at.Type]; ok && !(near(old.Epsilon, lj.Epsilon) && near(old.RMinHalf, lj.RMinHalf)) {
			return nil, conflict("nonbonded", at.Type)
		}
		P.NonBonded[at.Type] = lj
	}
	return P, nil
}

// Dihedral returns the parameters for the dihedral a-b-c-d. If there is no exact
// match, a match with wildcards in the outer positions is tried.
func (P *ParamSet) Dihedral(a, b, c, d string) ([]chem.Torsion, bool) {
	if s, ok := P.Dihedrals[NewTypes4(a, b, c, d)]; ok {
		return s, true
	}
	s, ok := P.Dihedrals[NewTypes4(Wildcard, b, c, Wildcard)]
	return s, ok
}

// Improper returns the parameters for the improper a-b-c-d, trying the reverse order,
// and then wildcards in the middle positions, which is CHARMM's convention.
func (P *ParamSet) Improper(a, b, c, d string) (Harmonic, bool) {
	for _, k := range []Types4{{a, b, c, d}, {d, c, b, a}, {a, Wildcard, Wildcard, d}, {d, Wildcard, Wildcard, a}} {
		if h, ok := P.Impropers[k]; ok {
			return h, true
		}
	}
	return Harmonic{}, false
}

// Assign fills the parameters of every term and the LJ parameters of every atom of top,
// from the receiver. It returns an error on the first missing parameter.
func (P *ParamSet) Assign(top *chem.Topology) error {
	missing := func(kind string, ty []string) error {
		return Error{fmt.Sprintf("Missing %s parameters for types %v", kind, ty), []string{"Assign"}, true}
	}
	for _, t := range top.Bonds {
		ty, err := types(top, t)
		if err != nil {
			return errDecorate(err, "Assign")
		}
		h, ok := P.Bonds[NewTypes2(ty[0], ty[1])]
		if !ok {
			return missing("bond", ty)
		}
		t.K, t.Eq = h.K, h.Eq
	}
	for _, t := range top.Angles {
		ty, err := types(top, t)
		if err != nil {
			return errDecorate(err, "Assign")
		}
		h, ok := P.Angles[NewTypes3(ty[0], ty[1], ty[2])]
		if !ok {
			return missing("angle", ty)
		}
		t.K, t.Eq = h.K, h.Eq
	}
	for _, t := range top.Dihedrals {
		ty, err := types(top, t)
		if err != nil {
			return errDecorate(err, "Assign")
		}
		s, ok := P.Dihedral(ty[0], ty[1], ty[2], ty[3])
		if !ok {
			return missing("dihedral", ty)
		}
		t.Series = append([]chem.Torsion(nil), s...)
	}
	for _, t := range top.Impropers {
		ty, err := types(top, t)
		if err != nil {
			return errDecorate(err, "Assign")
		}
		h, ok := P.Improper(ty[0], ty[1], ty[2], ty[3])
		if !ok {
			return missing("improper", ty)
		}
		t.K, t.Eq = h.K, h.Eq
	}
	for _, at := range top.Atoms {
		lj, ok := P.NonBonded[at.Type]
		if !ok {
			return missing("nonbonded", []string{at.Type})
		}
		at.Epsilon, at.RMinHalf = lj.Epsilon, lj.RMinHalf
	}
	return nil
}
