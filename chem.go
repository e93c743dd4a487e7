/*
 * chem.go, part of simspace.
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
	"fmt"
	"sort"

	v3 "github.com/rmera/simspace/v3"
	"gonum.org/v1/gonum/floats"
)

/**Note: Many funcitons here panic instead of returning errors. This is because they are "fundamental"
 * functions. If something goes wrong here, the program is most likely wrong and should
 * crash. Most panics are related to using the funciton on a nil object or trying to access out-of bounds
 * fields**/

// Atom contains the information of an atom that is not expected to change in time.
// Coordinates and velocities are kept in separate matrices.
type Atom struct {
	Name      string
	ID        int //1-based, as in PDB and PSF files.
	Index     int //0-based position in the topology.
	Type      string
	Symbol    string
	MolName   string
	MolID     int
	Chain     string
	Segment   string
	Charge    float64
	Mass      float64
	Epsilon   float64 //Lennard-Jones well depth, positive, kcal/mol.
	RMinHalf  float64 //Lennard-Jones Rmin/2, A.
	Occupancy float64
	Bfactor   float64
	Het       bool
}

// Copy returns a copy of the Atom object.
func (A *Atom) Copy() *Atom {
	if A == nil {
		panic("Attempted to copy a nil atom")
	}
	at := *A
	return &at
}

// Torsion is one term of the Fourier series of a dihedral.
type Torsion struct {
	K     float64
	N     int
	Phase float64 //degrees
}

// Term is a bonded term between the atoms with the indexes (0-based) in IDs.
// Bonds use K and Eq (A), angles and impropers K and Eq (degrees). Dihedrals
// use Series.
type Term struct {
	IDs    []int
	K      float64
	Eq     float64
	Series []Torsion
}

// Copy returns a deep copy of the term.
func (T *Term) Copy() *Term {
	r := &Term{K: T.K, Eq: T.Eq}
	r.IDs = append([]int(nil), T.IDs...)
	if T.Series != nil {
		r.Series = append([]Torsion(nil), T.Series...)
	}
	return r
}

// Has returns true if the term involves the atom with index i.
func (T *Term) Has(i int) bool {
	for _, v := range T.IDs {
		if v == i {
			return true
		}
	}
	return false
}

/*****Topology type***/

// Topology contains information about a molecule which is not expected to change in time
// (i.e. everything except for coordinates and velocities).
type Topology struct {
	Atoms     []*Atom
	Bonds     []*Term
	Angles    []*Term
	Dihedrals []*Term
	Impropers []*Term
	charge    int
	multi     int
}

// NewTopology returns a topology with the given atoms, charge and multiplicity. The Index
// field of each atom is set to its position. If the multiplicity is 0, it is set to 1.
func NewTopology(charge, multi int, ats ...*Atom) *Topology {
	top := new(Topology)
	top.charge = charge
	top.multi = multi
	if multi == 0 {
		top.multi = 1
	}
	top.Atoms = ats
	top.FillIndexes()
	return top
}

// FillIndexes sets the Index field of each atom to its position in the topology.
func (T *Topology) FillIndexes() {
	for k, v := range T.Atoms {
		v.Index = k
	}
}

// Charge gets the total charge of the topology
func (T *Topology) Charge() int {
	return T.charge
}

// Multi returns the multiplicity of the topology
func (T *Topology) Multi() int {
	return T.multi
}

// SetCharge sets the total charge of the topology to i
func (T *Topology) SetCharge(i int) {
	T.charge = i
}

// SetMulti sets the multiplicity of the topology to i
func (T *Topology) SetMulti(i int) {
	T.multi = i
}

// Atom returns the Atom corresponding to the index i
// of the Atom slice in the Topology. Panics if
// out of range.
func (T *Topology) Atom(i int) *Atom {
	if i >= T.Len() || i < 0 {
		panic(fmt.Sprintf("Topology: Requested Atom %d out of bounds", i))
	}
	return T.Atoms[i]
}

// Len returns the number of atoms in the topology.
func (T *Topology) Len() int {
	return len(T.Atoms)
}

// AppendAtom adds at at the end of the topology, setting its index.
func (T *Topology) AppendAtom(at *Atom) {
	at.Index = len(T.Atoms)
	T.Atoms = append(T.Atoms, at)
}

// AddBond adds a bond term between atoms i and j, with no parameters.
// Panics if either index is out of range.
func (T *Topology) AddBond(i, j int) *Term {
	T.Atom(i)
	T.Atom(j)
	b := &Term{IDs: []int{i, j}}
	T.Bonds = append(T.Bonds, b)
	return b
}

func copyTerms(t []*Term) []*Term {
	if t == nil {
		return nil
	}
	r := make([]*Term, len(t))
	for k, v := range t {
		r[k] = v.Copy()
	}
	return r
}

// Copy returns a deep copy of the topology.
func (T *Topology) Copy() *Topology {
	top := new(Topology)
	top.Atoms = make([]*Atom, T.Len())
	for k, v := range T.Atoms {
		top.Atoms[k] = v.Copy()
	}
	top.Bonds = copyTerms(T.Bonds)
	top.Angles = copyTerms(T.Angles)
	top.Dihedrals = copyTerms(T.Dihedrals)
	top.Impropers = copyTerms(T.Impropers)
	top.charge = T.charge
	top.multi = T.multi
	return top
}

// Masses returns a slice with the mass of each atom. It returns an error
// if some mass is not positive. Dummy atoms are exempt.
func (T *Topology) Masses() ([]float64, error) {
	mass := make([]float64, T.Len())
	for i, at := range T.Atoms {
		if at.Mass <= 0 && at.Symbol != DummySymbol {
			return nil, newErr(nil, "", "Masses", "Not all the masses have been obtained: %d %s", i, at.Name)
		}
		mass[i] = at.Mass
	}
	return mass, nil
}

// TotalMass returns the sum of the masses of all atoms.
func (T *Topology) TotalMass() float64 {
	mass := make([]float64, T.Len())
	for i, at := range T.Atoms {
		mass[i] = at.Mass
	}
	return floats.Sum(mass)
}

// Neighbors returns, for each atom, the sorted indexes of the atoms bonded to it.
func (T *Topology) Neighbors() [][]int {
	ret := make([][]int, T.Len())
	for _, b := range T.Bonds {
		i, j := b.IDs[0], b.IDs[1]
		ret[i] = append(ret[i], j)
		ret[j] = append(ret[j], i)
	}
	for _, v := range ret {
		sort.Ints(v)
	}
	return ret
}

// Bonded returns true if there is a bond between atoms i and j.
func (T *Topology) Bonded(i, j int) bool {
	if i == j {
		return false
	}
	for _, b := range T.Bonds {
		if b.Has(i) && b.Has(j) {
			return true
		}
	}
	return false
}

// AutoAngles replaces the angle terms of the topology with one unparametrized
// term per pair of bonds sharing an atom, as CHARMM's AUTOGENERATE does.
func (T *Topology) AutoAngles() {
	neigh := T.Neighbors()
	T.Angles = T.Angles[:0]
	for center, n := range neigh {
		for a := 0; a < len(n); a++ {
			for b := a + 1; b < len(n); b++ {
				T.Angles = append(T.Angles, &Term{IDs: []int{n[a], center, n[b]}})
			}
		}
	}
}

// AutoDihedrals replaces the dihedral terms with one unparametrized term per
// path of 3 bonds. Paths that close a 3-membered ring are skipped.
func (T *Topology) AutoDihedrals() {
	neigh := T.Neighbors()
	T.Dihedrals = T.Dihedrals[:0]
	for _, b := range T.Bonds {
		j, k := b.IDs[0], b.IDs[1]
		for _, i := range neigh[j] {
			if i == k {
				continue
			}
			for _, l := range neigh[k] {
				if l == j || l == i {
					continue
				}
				T.Dihedrals = append(T.Dihedrals, &Term{IDs: []int{i, j, k, l}})
			}
		}
	}
}

/**Type Molecule**/

// Molecule is a topology together with a set of coordinates and, optionally,
// velocities.
type Molecule struct {
	*Topology
	Coords *v3.Matrix
	Vels   *v3.Matrix
}

// NewMolecule returns a molecule with the given topology and coordinates. It returns
// an error if the number of coordinates doesn't match the number of atoms.
func NewMolecule(top *Topology, coords *v3.Matrix) (*Molecule, error) {
	if top == nil || coords == nil {
		return nil, newErr(nil, "", "NewMolecule", "Supplied a nil topology or coordinates")
	}
	if coords.NVecs() != top.Len() {
		return nil, newErr(nil, "", "NewMolecule", "Inconsistent coordinates/atoms: Atoms %d, coords: %d", top.Len(), coords.NVecs())
	}
	return &Molecule{Topology: top, Coords: coords}, nil
}

// HasVelocities returns true only if the molecule has a velocity for every atom.
func (M *Molecule) HasVelocities() bool {
	return M.Vels != nil && M.Vels.NVecs() == M.Len()
}

// Copy returns a deep copy of the molecule.
func (M *Molecule) Copy() *Molecule {
	mol := &Molecule{Topology: M.Topology.Copy(), Coords: M.Coords.Clone()}
	if M.Vels != nil {
		mol.Vels = M.Vels.Clone()
	}
	return mol
}
