/*
 * pdb.go, part of simspace.
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
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	v3 "github.com/rmera/simspace/v3"
)

//PDB reading

// field returns line[a:b], trimmed, or whatever part of it exists.
func field(line string, a, b int) string {
	if len(line) <= a {
		return ""
	}
	if len(line) < b {
		b = len(line)
	}
	return strings.TrimSpace(line[a:b])
}

// readPDBLine parses a valid ATOM or HETATM line of a PDB file, returns an Atom
// object with the info except for the coordinates, which are returned
// separately.
func readPDBLine(line string) (*Atom, [3]float64, error) {
	var coords [3]float64
	var err error
	if len(line) < 54 {
		return nil, coords, fmt.Errorf("Line too short for an ATOM record")
	}
	atom := new(Atom)
	atom.Het = strings.HasPrefix(line, "HETATM")
	atom.ID, err = strconv.Atoi(field(line, 6, 11))
	if err != nil {
		return nil, coords, err
	}
	atom.Name = field(line, 12, 16)
	atom.MolName = field(line, 17, 21)
	atom.Chain = field(line, 21, 22)
	if atom.MolID, err = strconv.Atoi(field(line, 22, 26)); err != nil {
		return nil, coords, err
	}
	for i := 0; i < 3; i++ {
		if coords[i], err = strconv.ParseFloat(field(line, 30+8*i, 38+8*i), 64); err != nil {
			return nil, coords, err
		}
	}
	//The following fields are optional, we don't catch errors.
	atom.Occupancy, _ = strconv.ParseFloat(field(line, 54, 60), 64)
	atom.Bfactor, _ = strconv.ParseFloat(field(line, 60, 66), 64)
	atom.Segment = field(line, 72, 76)
	atom.Symbol = field(line, 76, 78)
	if len(atom.Symbol) == 2 {
		atom.Symbol = atom.Symbol[:1] + strings.ToLower(atom.Symbol[1:])
	}
	if atom.Symbol == "" {
		atom.Symbol = symbolFromName(atom.Name)
	}
	atom.Mass = symbolMass[atom.Symbol]
	return atom, coords, nil
}

// PDBRead reads the first model of the PDB file name, which can be compressed (see OpenAny).
// It returns a molecule with no bonds.
func PDBRead(name string) (*Molecule, error) {
	f, err := OpenAny(name)
	if err != nil {
		return nil, errDecorate(err, "PDBRead")
	}
	defer f.Close()
	mol, err := PDBReaderRead(f)
	if err != nil {
		if e, ok := err.(CError); ok {
			e.filename = name
			e.deco = e.Decorate("PDBRead")
			return nil, e
		}
	}
	return mol, err
}

// PDBReaderRead reads the first model of a PDB from r.
func PDBReaderRead(r io.Reader) (*Molecule, error) {
	bufi := bufio.NewReader(r)
	atoms := make([]*Atom, 0, 100)
	coords := make([]float64, 0, 300)
	lineno := 0
	for {
		line, err := bufi.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, newErr(err, "", "PDBReaderRead", "Error reading line %d: %s", lineno+1, err.Error())
		}
		lineno++
		if strings.HasPrefix(line, "ATOM") || strings.HasPrefix(line, "HETATM") {
			at, c, err2 := readPDBLine(strings.TrimRight(line, "\r\n"))
			if err2 != nil {
				return nil, newErr(err2, "", "PDBReaderRead", "Error reading line %d: %s", lineno, err2.Error())
			}
			atoms = append(atoms, at)
			coords = append(coords, c[:]...)
		}
		if strings.HasPrefix(line, "END") || err == io.EOF {
			break
		}
	}
	if len(atoms) == 0 {
		return nil, newErr(nil, "", "PDBReaderRead", "No atoms found")
	}
	top := NewTopology(0, 1, atoms...)
	c, err := v3.NewMatrix(coords)
	if err != nil {
		return nil, newErr(err, "", "PDBReaderRead", "%s", err.Error())
	}
	return NewMolecule(top, c)
}

//PDB writing

// pdbAtomName pads atom names the way PDB files do. Names shorter than 4
// characters start on the second column.
func pdbAtomName(name string) string {
	if len(name) >= 4 {
		return name[:4]
	}
	return " " + name
}

func writePDBAtoms(out io.Writer, coords *v3.Matrix, top Atomer, bfactors []float64) error {
	if coords.NVecs() != top.Len() {
		return newErr(nil, "", "writePDBAtoms", "%d coordinates for %d atoms", coords.NVecs(), top.Len())
	}
	if bfactors != nil && len(bfactors) != top.Len() {
		return newErr(nil, "", "writePDBAtoms", "%d b-factors for %d atoms", len(bfactors), top.Len())
	}
	for i := 0; i < top.Len(); i++ {
		at := top.Atom(i)
		rec := "ATOM"
		if at.Het {
			rec = "HETATM"
		}
		occ := at.Occupancy
		if occ == 0 {
			occ = 1.0
		}
		bfac := at.Bfactor
		if bfactors != nil {
			bfac = bfactors[i]
		}
		symbol := at.Symbol
		if symbol == DummySymbol {
			symbol = ""
		}
		chain := at.Chain
		if len(chain) > 1 {
			chain = chain[:1]
		}
		c := coords.Vec(i)
		//Serial numbers and residue IDs wrap around, as other programs do.
		_, err := fmt.Fprintf(out, "%-6s%5d %-4s %-4s%1s%4d    %8.3f%8.3f%8.3f%6.2f%6.2f      %-4s%2s  \n",
			rec, (i+1)%100000, pdbAtomName(at.Name), at.MolName, chain, at.MolID%10000,
			c.X, c.Y, c.Z, occ, bfac, at.Segment, strings.ToUpper(symbol))
		if err != nil {
			return newErr(err, "", "writePDBAtoms", "%s", err.Error())
		}
	}
	_, err := fmt.Fprintf(out, "END\n")
	return err
}

// PDBWrite writes coords and the atoms in top to the PDB file name, compressing it if
// the extension asks for it (see CreateAny). If bfactors is not nil, its values replace
// the b-factors of the atoms.
func PDBWrite(name string, coords *v3.Matrix, top Atomer, bfactors []float64) error {
	out, err := CreateAny(name)
	if err != nil {
		return errDecorate(err, "PDBWrite")
	}
	if err = writePDBAtoms(out, coords, top, bfactors); err != nil {
		out.Close()
		return errDecorate(err, "PDBWrite")
	}
	if err = out.Close(); err != nil {
		return newErr(err, name, "PDBWrite", "%s", err.Error())
	}
	return nil
}

// PDBVelWrite writes the velocities of mol to name in the PDB format NAMD uses for
// velocity files. It only writes the file if every atom has a velocity, and reports
// whether it did.
func PDBVelWrite(name string, mol *Molecule) (bool, error) {
	if !mol.HasVelocities() {
		return false, nil
	}
	if err := PDBWrite(name, mol.Vels, mol.Topology, nil); err != nil {
		return false, errDecorate(err, "PDBVelWrite")
	}
	return true, nil
}
