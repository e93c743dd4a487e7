/*
 * energies.go, part of simspace.
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
	"math"

	chem "github.com/rmera/simspace"
	v3 "github.com/rmera/simspace/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

// Coulomb is the electrostatic conversion constant, in kcal*A/(mol*e^2), as used by CHARMM.
const Coulomb = 332.0636

const deg2rad = math.Pi / 180

// Energies contains the energy components of a molecule, in kcal/mol.
type Energies struct {
	Bond     float64
	Angle    float64
	Dihedral float64
	Improper float64
	Coulomb  float64
	LJ       float64
}

// Internal returns the sum of the bonded components.
func (E Energies) Internal() float64 {
	return E.Bond + E.Angle + E.Dihedral + E.Improper
}

// Intra returns the sum of the non-bonded components.
func (E Energies) Intra() float64 {
	return E.Coulomb + E.LJ
}

// Total returns the sum of all components.
func (E Energies) Total() float64 {
	return E.Internal() + E.Intra()
}

// Angle returns the angle, in radians, between the vectors BA and BC.
func Angle(a, b, c r3.Vec) float64 {
	return math.Acos(math.Max(-1, math.Min(1, r3.Cos(r3.Sub(a, b), r3.Sub(c, b)))))
}

// Dihedral returns the dihedral angle, in radians, between the planes abc and bcd,
// following the IUPAC sign convention.
func Dihedral(a, b, c, d r3.Vec) float64 {
	b1 := r3.Sub(b, a)
	b2 := r3.Sub(c, b)
	b3 := r3.Sub(d, c)
	n1 := r3.Cross(b1, b2)
	n2 := r3.Cross(b2, b3)
	m := r3.Cross(n1, r3.Unit(b2))
	return math.Atan2(r3.Dot(m, n2), r3.Dot(n1, n2))
}

// wrap takes an angle difference to [-pi, pi)
func wrap(a float64) float64 {
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a - math.Pi
}

// inSel returns a function that tells whether an atom is in sel. A nil sel
// contains every atom.
func inSel(sel []int) func(int) bool {
	if sel == nil {
		return func(int) bool { return true }
	}
	set := make(map[int]bool, len(sel))
	for _, v := range sel {
		set[v] = true
	}
	return func(i int) bool { return set[i] }
}

func allIn(t *chem.Term, in func(int) bool) bool {
	for _, v := range t.IDs {
		if !in(v) {
			return false
		}
	}
	return true
}

// Internal returns the bond, angle, dihedral and improper energies of the molecule
// formed by top and coords. If sel is not nil, only terms with all their atoms in sel
// are considered.
func Internal(top *chem.Topology, coords *v3.Matrix, sel []int) Energies {
	var E Energies
	in := inSel(sel)
	for _, t := range top.Bonds {
		if !allIn(t, in) {
			continue
		}
		r := r3.Norm(r3.Sub(coords.Vec(t.IDs[0]), coords.Vec(t.IDs[1])))
		E.Bond += t.K * (r - t.Eq) * (r - t.Eq)
	}
	for _, t := range top.Angles {
		if !allIn(t, in) {
			continue
		}
		theta := Angle(coords.Vec(t.IDs[0]), coords.Vec(t.IDs[1]), coords.Vec(t.IDs[2]))
		d := theta - t.Eq*deg2rad
		E.Angle += t.K * d * d
	}
	for _, t := range top.Dihedrals {
		if !allIn(t, in) {
			continue
		}
		phi := Dihedral(coords.Vec(t.IDs[0]), coords.Vec(t.IDs[1]), coords.Vec(t.IDs[2]), coords.Vec(t.IDs[3]))
		for _, s := range t.Series {
			E.Dihedral += s.K * (1 + math.Cos(float64(s.N)*phi-s.Phase*deg2rad))
		}
	}
	for _, t := range top.Impropers {
		if !allIn(t, in) {
			continue
		}
		psi := Dihedral(coords.Vec(t.IDs[0]), coords.Vec(t.IDs[1]), coords.Vec(t.IDs[2]), coords.Vec(t.IDs[3]))
		d := wrap(psi - t.Eq*deg2rad)
		E.Improper += t.K * d * d
	}
	return E
}

// Intra returns the Coulomb and Lennard-Jones energies between the atoms of the molecule
// formed by top and coords, scaled by scale. If scale is nil, it is derived from the bonds
// in top, using CHARMM14 for the 1-4 pairs. If sel is not nil, only pairs with both atoms
// in sel are considered. No cutoff is applied.
func Intra(top *chem.Topology, coords *v3.Matrix, scale *Intrascale, sel []int) Energies {
	var E Energies
	if scale == nil {
		scale = NewIntrascale(top, CHARMM14)
	}
	in := inSel(sel)
	n := top.Len()
	for i := 0; i < n; i++ {
		if !in(i) {
			continue
		}
		a := top.Atom(i)
		for j := i + 1; j < n; j++ {
			if !in(j) {
				continue
			}
			s := scale.Get(i, j)
			if s.Coulomb == 0 && s.LJ == 0 {
				continue
			}
			b := top.Atom(j)
			r := r3.Norm(r3.Sub(coords.Vec(i), coords.Vec(j)))
			//dummy atoms can sit on top of real ones.
			if qq := a.Charge * b.Charge; qq != 0 {
				E.Coulomb += s.Coulomb * Coulomb * qq / r
			}
			eps := math.Sqrt(a.Epsilon * b.Epsilon)
			if eps == 0 {
				continue
			}
			x6 := math.Pow((a.RMinHalf+b.RMinHalf)/r, 6)
			E.LJ += s.LJ * eps * (x6*x6 - 2*x6)
		}
	}
	return E
}
