/*
 * chem_test.go, part of simspace.
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
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	v3 "github.com/rmera/simspace/v3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

func ethane(Te *testing.T) *Molecule {
	Te.Helper()
	names := []string{"C1", "C2", "H11", "H12", "H13", "H21", "H22", "H23"}
	symbols := []string{"C", "C", "H", "H", "H", "H", "H", "H"}
	coords, err := v3.NewMatrix([]float64{
		0, 0, 0,
		1.54, 0, 0,
		-0.36, 1.03, 0,
		-0.36, -0.51, 0.89,
		-0.36, -0.51, -0.89,
		1.90, -1.03, 0,
		1.90, 0.51, 0.89,
		1.90, 0.51, -0.89,
	})
	if err != nil {
		Te.Fatal(err)
	}
	ats := make([]*Atom, len(names))
	for i := range names {
		ats[i] = &Atom{Name: names[i], ID: i + 1, Symbol: symbols[i], MolName: "ETH", MolID: 1, Mass: MassOf(symbols[i])}
	}
	mol, err := NewMolecule(NewTopology(0, 1, ats...), coords)
	if err != nil {
		Te.Fatal(err)
	}
	return mol
}

func TestAssignBonds(Te *testing.T) {
	mol := ethane(Te)
	if err := AssignBonds(mol.Coords, mol.Topology); err != nil {
		Te.Fatal(err)
	}
	if len(mol.Bonds) != 7 {
		Te.Errorf("Expected 7 bonds, got %d", len(mol.Bonds))
	}
	if !mol.Bonded(0, 1) || !mol.Bonded(2, 0) || mol.Bonded(2, 1) || mol.Bonded(0, 0) {
		Te.Errorf("Wrong bonds assigned")
	}
	mol.AutoAngles()
	mol.AutoDihedrals()
	if len(mol.Angles) != 12 || len(mol.Dihedrals) != 9 {
		Te.Errorf("Expected 12 angles and 9 dihedrals, got %d and %d", len(mol.Angles), len(mol.Dihedrals))
	}
	neigh := mol.Neighbors()
	if diff := cmp.Diff([]int{1, 2, 3, 4}, neigh[0]); diff != "" {
		Te.Errorf("Wrong neighbors for C1 (-want +got):\n%s", diff)
	}
}

func TestMasses(Te *testing.T) {
	mol := ethane(Te)
	masses, err := mol.Masses()
	if err != nil {
		Te.Fatal(err)
	}
	if masses[0] != MassOf("C") || masses[7] != MassOf("H") {
		Te.Errorf("Wrong masses: %v", masses)
	}
	mol.Atom(7).Mass = 0
	if _, err := mol.Masses(); err == nil {
		Te.Errorf("Expected an error for a massless atom")
	}
	mol.Atom(7).Symbol = DummySymbol
	if _, err := mol.Masses(); err != nil {
		Te.Errorf("Massless dummies should be accepted: %v", err)
	}
}

func TestPDBCompressed(Te *testing.T) {
	mol := ethane(Te)
	dir := Te.TempDir()
	for _, ext := range []string{".pdb", ".pdb.gz", ".pdb.zst"} {
		name := filepath.Join(dir, "ethane"+ext)
		if err := PDBWrite(name, mol.Coords, mol, nil); err != nil {
			Te.Fatal(err)
		}
		mol2, err := PDBRead(name)
		if err != nil {
			Te.Fatal(err)
		}
		if mol2.Len() != mol.Len() {
			Te.Fatalf("%s: read %d atoms, wrote %d", ext, mol2.Len(), mol.Len())
		}
		for i := 0; i < mol.Len(); i++ {
			if mol2.Atom(i).Name != mol.Atom(i).Name || mol2.Atom(i).Symbol != mol.Atom(i).Symbol {
				Te.Errorf("%s: atom %d read as %s %s", ext, i, mol2.Atom(i).Name, mol2.Atom(i).Symbol)
			}
		}
		rmsd, err := RMSD(mol.Coords, mol2.Coords)
		if err != nil {
			Te.Fatal(err)
		}
		if rmsd > 1e-3 {
			Te.Errorf("%s: coordinates changed on round trip, RMSD: %f", ext, rmsd)
		}
		fmt.Println(ext, "round trip OK")
	}
	if err := PDBWrite(filepath.Join(dir, "ethane.pdb.bz2"), mol.Coords, mol, nil); err == nil {
		Te.Errorf("Writing bzip2 should fail")
	}
}

func TestPDBVelWrite(Te *testing.T) {
	mol := ethane(Te)
	name := filepath.Join(Te.TempDir(), "ethane.vel")
	wrote, err := PDBVelWrite(name, mol)
	if err != nil || wrote {
		Te.Errorf("A molecule without velocities shouldn't be written: %v %v", wrote, err)
	}
	mol.Vels = v3.Zeros(mol.Len() - 1)
	if mol.HasVelocities() {
		Te.Errorf("Incomplete velocities reported as complete")
	}
	mol.Vels = v3.Zeros(mol.Len())
	mol.Vels.Set(3, 1, 2.5)
	wrote, err = PDBVelWrite(name, mol)
	if err != nil || !wrote {
		Te.Fatalf("Velocities should have been written: %v %v", wrote, err)
	}
	vel, err := PDBRead(name)
	if err != nil {
		Te.Fatal(err)
	}
	if vel.Coords.At(3, 1) != 2.5 {
		Te.Errorf("Velocity not written, got %f", vel.Coords.At(3, 1))
	}
}

func TestSuper(Te *testing.T) {
	mol := ethane(Te)
	rot := mat.NewDense(3, 3, []float64{
		math.Cos(0.7), -math.Sin(0.7), 0,
		math.Sin(0.7), math.Cos(0.7), 0,
		0, 0, 1,
	})
	var moved mat.Dense
	moved.Mul(mol.Coords.Dense, rot)
	test := v3.Dense2Matrix(&moved)
	test.AddVec(test, r3.Vec{X: 3, Y: -2, Z: 10})
	all := []int{0, 1, 2, 3, 4, 5, 6, 7}
	sup, err := Super(test, mol.Coords, all, all)
	if err != nil {
		Te.Fatal(err)
	}
	rmsd, _ := RMSD(sup, mol.Coords)
	if rmsd > 1e-6 {
		Te.Errorf("Superposition failed, RMSD: %g", rmsd)
	}
	//using only the heavy atoms and one H should give the same thing.
	sup, err = Super(test, mol.Coords, []int{0, 1, 2}, []int{0, 1, 2})
	if err != nil {
		Te.Fatal(err)
	}
	rmsd, _ = RMSD(sup, mol.Coords)
	if rmsd > 1e-6 {
		Te.Errorf("Superposition on a subset failed, RMSD: %g", rmsd)
	}
	if _, err = Super(test, mol.Coords, []int{0, 1}, []int{0}); err == nil {
		Te.Errorf("Selections of different length should fail")
	}
}

func TestBoxSize(Te *testing.T) {
	mol := ethane(Te)
	size, origin := BoxSize(mol.Coords)
	if math.Abs(size.X-2.26*1.01) > 1e-9 || math.Abs(size.Z-1.78*1.01) > 1e-9 {
		Te.Errorf("Wrong box size %v", size)
	}
	if math.Abs(origin.X-0.77) > 1e-9 || math.Abs(origin.Y) > 1e-9 {
		Te.Errorf("Wrong box origin %v", origin)
	}
}

func TestRepartitionHydrogenMass(Te *testing.T) {
	mol := ethane(Te)
	if err := AssignBonds(mol.Coords, mol.Topology); err != nil {
		Te.Fatal(err)
	}
	total := mol.TotalMass()
	if err := RepartitionHydrogenMass(mol.Topology, 3, nil); err != nil {
		Te.Fatal(err)
	}
	if math.Abs(mol.TotalMass()-total) > 1e-9 {
		Te.Errorf("Mass not conserved: %f vs %f", mol.TotalMass(), total)
	}
	if math.Abs(mol.Atom(2).Mass-3*MassOf("H")) > 1e-9 {
		Te.Errorf("Wrong hydrogen mass %f", mol.Atom(2).Mass)
	}
	if math.Abs(mol.Atom(0).Mass-(MassOf("C")-6*MassOf("H"))) > 1e-9 {
		Te.Errorf("Wrong carbon mass %f", mol.Atom(0).Mass)
	}
	before := mol.Atom(0).Mass
	if err := RepartitionHydrogenMass(mol.Topology, 100, nil); err == nil {
		Te.Errorf("A factor leaving carbons with negative mass should fail")
	}
	if mol.Atom(0).Mass != before {
		Te.Errorf("A failed repartitioning shouldn't change the masses")
	}
	if err := RepartitionHydrogenMass(mol.Topology, 0, nil); err == nil {
		Te.Errorf("A zero factor should fail")
	}
}

func TestPDBReadError(Te *testing.T) {
	mol := ethane(Te)
	name := filepath.Join(Te.TempDir(), "bad.pdb")
	if err := PDBWrite(name, mol.Coords, mol, nil); err != nil {
		Te.Fatal(err)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		Te.Fatal(err)
	}
	bad := strings.Replace(string(data), "   0.000", "   x.xxx", 1)
	if err := os.WriteFile(name, []byte(bad), 0644); err != nil {
		Te.Fatal(err)
	}
	_, err = PDBRead(name)
	var e CError
	if !errors.As(err, &e) {
		Te.Fatalf("Expected a CError, got %v", err)
	}
	if e.FileName() != name {
		Te.Errorf("Error refers to file %q, want %q", e.FileName(), name)
	}
	if diff := cmp.Diff([]string{"PDBReaderRead", "PDBRead"}, e.Decorate("")); diff != "" {
		Te.Errorf("Unexpected error decorations (-want +got):\n%s", diff)
	}
}
