/*
 * ff_test.go, part of simspace.
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
	"testing"

	chem "github.com/rmera/simspace"
	v3 "github.com/rmera/simspace/v3"
	"gonum.org/v1/gonum/spatial/r3"
)

// chain returns a 5-atom zig-zag chain of CT2 carbons with the last atom typed CT3,
// with bonds, angles and dihedrals but no parameters.
func chain(Te *testing.T) *chem.Molecule {
	Te.Helper()
	coords, err := v3.NewMatrix([]float64{
		0, 0, 0,
		1.5, 0, 0,
		2.0, 1.4, 0,
		3.5, 1.4, 0.3,
		4.0, 2.8, 0.2,
	})
	if err != nil {
		Te.Fatal(err)
	}
	ats := make([]*chem.Atom, 5)
	for i := range ats {
		ats[i] = &chem.Atom{Name: "C", Symbol: "C", Type: "CT2", Charge: 0.1 * float64(i-2), Mass: 12.011}
	}
	ats[4].Type = "CT3"
	top := chem.NewTopology(0, 1, ats...)
	for i := 0; i < 4; i++ {
		top.AddBond(i, i+1)
	}
	top.AutoAngles()
	top.AutoDihedrals()
	mol, err := chem.NewMolecule(top, coords)
	if err != nil {
		Te.Fatal(err)
	}
	return mol
}

func params() *ParamSet {
	P := NewParamSet()
	P.Bonds[NewTypes2("CT2", "CT2")] = Harmonic{222.5, 1.53}
	P.Bonds[NewTypes2("CT3", "CT2")] = Harmonic{222.5, 1.528}
	P.Angles[NewTypes3("CT2", "CT2", "CT2")] = Harmonic{58.35, 113.6}
	P.Angles[NewTypes3("CT3", "CT2", "CT2")] = Harmonic{58.0, 115.0}
	P.Dihedrals[NewTypes4(Wildcard, "CT2", "CT2", Wildcard)] = []chem.Torsion{{K: 0.195, N: 3, Phase: 0}}
	P.Dihedrals[NewTypes4("CT2", "CT2", "CT2", "CT3")] = []chem.Torsion{{K: 0.15, N: 1, Phase: 0}, {K: 0.1, N: 3, Phase: 180}}
	P.NonBonded["CT2"] = LJ{0.055, 2.175}
	P.NonBonded["CT3"] = LJ{0.08, 2.06}
	return P
}

func TestDihedral(Te *testing.T) {
	a := r3.Vec{X: 1, Y: 0, Z: 0}
	b := r3.Vec{}
	c := r3.Vec{X: 0, Y: 1, Z: 0}
	d := r3.Vec{X: 0, Y: 1, Z: 1}
	if phi := Dihedral(a, b, c, d); math.Abs(math.Abs(phi)-math.Pi/2) > 1e-9 {
		Te.Errorf("Expected a 90 degree dihedral, got %f", phi/deg2rad)
	}
	d = r3.Vec{X: 1, Y: 1, Z: 0}
	if phi := Dihedral(a, b, c, d); math.Abs(phi) > 1e-9 {
		Te.Errorf("Expected a 0 degree dihedral, got %f", phi/deg2rad)
	}
	if theta := Angle(a, b, c); math.Abs(theta-math.Pi/2) > 1e-9 {
		Te.Errorf("Expected a 90 degree angle, got %f", theta/deg2rad)
	}
}

func TestIntrascale(Te *testing.T) {
	mol := chain(Te)
	s := NewIntrascale(mol.Topology, AMBER14)
	cases := []struct {
		i, j int
		want Scale14
	}{
		{0, 1, Scale14{}},
		{2, 0, Scale14{}},
		{0, 3, AMBER14},
		{0, 4, Scale14{1, 1}},
	}
	for _, c := range cases {
		if got := s.Get(c.i, c.j); got != c.want {
			Te.Errorf("Pair %d-%d: got %v, want %v", c.i, c.j, got, c.want)
		}
	}
	if len(s.Scaled()) != 9 {
		Te.Errorf("Expected 9 scaled pairs, got %d", len(s.Scaled()))
	}
}

func TestAssignAndEnergies(Te *testing.T) {
	mol := chain(Te)
	P := params()
	if err := P.Assign(mol.Topology); err != nil {
		Te.Fatal(err)
	}
	if len(mol.Dihedrals[0].Series) != 1 || len(mol.Dihedrals[1].Series) != 2 {
		Te.Errorf("Wrong dihedral assignment: %v %v", mol.Dihedrals[0].Series, mol.Dihedrals[1].Series)
	}
	if mol.Atom(4).Epsilon != 0.08 {
		Te.Errorf("LJ parameters not assigned")
	}
	E := Internal(mol.Topology, mol.Coords, nil)
	r := 1.5
	want := 222.5 * (r - 1.53) * (r - 1.53)
	Epart := Internal(mol.Topology, mol.Coords, []int{0, 1})
	if math.Abs(Epart.Bond-want) > 1e-9 || Epart.Angle != 0 {
		Te.Errorf("Wrong partial energy %v, expected bond energy %f", Epart, want)
	}
	if E.Bond <= Epart.Bond || E.Angle <= 0 || E.Dihedral <= 0 {
		Te.Errorf("Unexpected energies %+v", E)
	}
	//The only pairs not excluded or scaled are 0-4.
	I := Intra(mol.Topology, mol.Coords, NewIntrascale(mol.Topology, Scale14{}), nil)
	r04 := r3.Norm(r3.Sub(mol.Coords.Vec(0), mol.Coords.Vec(4)))
	wantC := Coulomb * (-0.2) * (0.2) / r04
	if math.Abs(I.Coulomb-wantC) > 1e-9 {
		Te.Errorf("Wrong Coulomb energy %f, expected %f", I.Coulomb, wantC)
	}
	eps := math.Sqrt(0.055 * 0.08)
	x6 := math.Pow((2.175+2.06)/r04, 6)
	if math.Abs(I.LJ-eps*(x6*x6-2*x6)) > 1e-9 {
		Te.Errorf("Wrong LJ energy %f", I.LJ)
	}
	if math.Abs(E.Total()-E.Internal()) > 1e-12 {
		Te.Errorf("Internal should not include non-bonded energies")
	}
}

func TestParamsFromTopology(Te *testing.T) {
	mol := chain(Te)
	if err := params().Assign(mol.Topology); err != nil {
		Te.Fatal(err)
	}
	P, err := ParamsFromTopology(mol.Topology)
	if err != nil {
		Te.Fatal(err)
	}
	if len(P.Bonds) != 2 || len(P.Angles) != 2 || len(P.Dihedrals) != 2 || len(P.NonBonded) != 2 {
		Te.Errorf("Wrong number of parameters collected: %d %d %d %d", len(P.Bonds), len(P.Angles), len(P.Dihedrals), len(P.NonBonded))
	}
	//reassigning from the collected parameters gives the same energies.
	mol2 := mol.Copy()
	if err := P.Assign(mol2.Topology); err != nil {
		Te.Fatal(err)
	}
	if Internal(mol.Topology, mol.Coords, nil) != Internal(mol2.Topology, mol2.Coords, nil) {
		Te.Errorf("Energies changed after reassigning parameters")
	}
	mol.Bonds[0].K = 100
	if _, err := ParamsFromTopology(mol.Topology); err == nil {
		Te.Errorf("Conflicting bond parameters should be an error")
	}
	delete(P.Angles, NewTypes3("CT2", "CT2", "CT3"))
	if err := P.Assign(mol2.Topology); err == nil {
		Te.Errorf("A missing angle parameter should be an error")
	}
}
