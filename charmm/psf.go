/*
 * psf.go, part of simspace.
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

package charmm

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	chem "github.com/rmera/simspace"
)

// sections of a PSF file with lists of atom indexes, and the number of
// indexes per entry and entries per line.
var psfLists = []struct {
	header  string
	comment string
	size    int
	perLine int
}{
	{"!NBOND", "bonds", 2, 4},
	{"!NTHETA", "angles", 3, 3},
	{"!NPHI", "dihedrals", 4, 2},
	{"!NIMPHI", "impropers", 4, 2},
}

func termLists(top *chem.Topology) [][]*chem.Term {
	return [][]*chem.Term{top.Bonds, top.Angles, top.Dihedrals, top.Impropers}
}

// WritePSF writes top to name in the X-PLOR PSF format (atom types as strings).
// Only the title, atom and bonded term records are written. NAMD also needs the
// donor, acceptor and exclusion records, which can be added with EnsureNAMDRecords.
// The file can be compressed (see chem.CreateAny).
func WritePSF(name string, top *chem.Topology) error {
	out, err := chem.CreateAny(name)
	if err != nil {
		return Error{err.Error(), name, []string{"chem.CreateAny", "WritePSF"}, true, err}
	}
	werr := writePSF(out, top)
	cerr := out.Close()
	if werr == nil {
		werr = cerr
	}
	if werr != nil {
		return Error{werr.Error(), name, []string{"WritePSF"}, true, werr}
	}
	return nil
}

func writePSF(out io.Writer, top *chem.Topology) error {
	w := bufio.NewWriter(out)
	fmt.Fprintf(w, "PSF\n\n%8d !NTITLE\n REMARKS topology written by simspace\n\n", 1)
	fmt.Fprintf(w, "%8d !NATOM\n", top.Len())
	for i, at := range top.Atoms {
		if at.Type == "" || strings.ContainsAny(at.Type, " \t") {
			return fmt.Errorf("atom %d has an invalid type %q", i+1, at.Type)
		}
		//fields are whitespace-separated, so none can be empty.
		seg := placeholder(at.Segment, "SYS")
		res := placeholder(at.MolName, "UNK")
		name := placeholder(at.Name, "X")
		fmt.Fprintf(w, "%8d %-4s %-4d %-4s %-4s %-4s %10.6f %13.4f %11d\n", i+1, seg, at.MolID, res, name, at.Type, at.Charge, at.Mass, 0)
	}
	for k, terms := range termLists(top) {
		l := psfLists[k]
		fmt.Fprintf(w, "\n%8d %s: %s\n", len(terms), l.header, l.comment)
		for j, t := range terms {
			if len(t.IDs) != l.size {
				return fmt.Errorf("%s term %d has %d atoms", l.comment, j, len(t.IDs))
			}
			for _, id := range t.IDs {
				fmt.Fprintf(w, "%8d", id+1)
			}
			if (j+1)%l.perLine == 0 || j == len(terms)-1 {
				fmt.Fprintf(w, "\n")
			}
		}
	}
	return w.Flush()
}

// placeholder returns s without blanks, or def if that leaves nothing.
func placeholder(s, def string) string {
	s = strings.Join(strings.Fields(s), "")
	if s == "" {
		return def
	}
	return s
}

// psfCount returns the count of a PSF record header line, or -1 if the line is
// not a header of the record.
func psfCount(line, header string) int {
	f := fi(line)
	if len(f) < 2 || !strings.HasPrefix(f[1], header) {
		return -1
	}
	n, err := strconv.Atoi(f[0])
	if err != nil {
		return -1
	}
	return n
}

// ReadPSF reads a PSF file into a topology. The terms are read without parameters,
// and the element of each atom is guessed from its mass.
func ReadPSF(name string) (*chem.Topology, error) {
	in, err := chem.OpenAny(name)
	if err != nil {
		return nil, Error{err.Error(), name, []string{"chem.OpenAny", "ReadPSF"}, true, err}
	}
	defer in.Close()
	top, err := readPSF(bufio.NewReader(in))
	if err != nil {
		return nil, Error{err.Error(), name, []string{"ReadPSF"}, true, err}
	}
	return top, nil
}

func readPSF(r *bufio.Reader) (*chem.Topology, error) {
	top := chem.NewTopology(0, 1)
	var line string
	var err error
	readLine := func() bool {
		line, err = r.ReadString('\n')
		return err == nil || (err == io.EOF && line != "")
	}
	for readLine() {
		if n := psfCount(line, "!NATOM"); n >= 0 {
			for i := 0; i < n; i++ {
				if !readLine() {
					return nil, fmt.Errorf("File ended while reading atom %d", i+1)
				}
				at, err2 := psfAtom(line)
				if err2 != nil {
					return nil, fmt.Errorf("Atom %d: %w", i+1, err2)
				}
				top.AppendAtom(at)
			}
			continue
		}
		for k, l := range psfLists {
			n := psfCount(line, l.header)
			if n < 0 {
				continue
			}
			ids := make([]int, 0, n*l.size)
			for len(ids) < n*l.size {
				if !readLine() {
					return nil, fmt.Errorf("File ended while reading %s", l.comment)
				}
				for _, f := range fi(line) {
					id, err2 := strconv.Atoi(f)
					if err2 != nil {
						return nil, fmt.Errorf("Bad index in %s: %w", l.comment, err2)
					}
					if id < 1 || id > top.Len() {
						return nil, fmt.Errorf("Index %d out of range in %s", id, l.comment)
					}
					ids = append(ids, id-1)
				}
			}
			terms := make([]*chem.Term, 0, n)
			for j := 0; j < n; j++ {
				terms = append(terms, &chem.Term{IDs: append([]int(nil), ids[j*l.size:(j+1)*l.size]...)})
			}
			switch k {
			case 0:
				top.Bonds = terms
			case 1:
				top.Angles = terms
			case 2:
				top.Dihedrals = terms
			case 3:
				top.Impropers = terms
			}
			break
		}
	}
	if err != nil && err != io.EOF {
		return nil, err
	}
	if top.Len() == 0 {
		return nil, fmt.Errorf("No atoms in PSF")
	}
	return top, nil
}

func psfAtom(line string) (*chem.Atom, error) {
	f := fi(line)
	if len(f) < 8 {
		return nil, fmt.Errorf("Only %d fields in atom record", len(f))
	}
	var err error
	at := new(chem.Atom)
	if at.ID, err = strconv.Atoi(f[0]); err != nil {
		return nil, err
	}
	at.Segment = f[1]
	//residue IDs may carry an insertion code.
	at.MolID, err = strconv.Atoi(strings.TrimRight(f[2], "ABCDEFGHIJKLMNOPQRSTUVWXYZ"))
	if err != nil {
		return nil, err
	}
	at.MolName = f[3]
	at.Name = f[4]
	at.Type = f[5]
	if _, err := strconv.ParseFloat(at.Type, 64); err == nil {
		return nil, fmt.Errorf("atom type %q is a number, a field is probably missing", at.Type)
	}
	if at.Charge, err = strconv.ParseFloat(f[6], 64); err != nil {
		return nil, err
	}
	if at.Mass, err = strconv.ParseFloat(f[7], 64); err != nil {
		return nil, err
	}
	if at.Type == DummyType {
		at.Symbol = chem.DummySymbol
	} else {
		at.Symbol = chem.SymbolFromMass(at.Mass)
	}
	return at, nil
}

// DummyType is the atom type given to dummy atoms.
const DummyType = "DUM"

// NAMD records that EnsureNAMDRecords checks for.
const (
	RecordDonors    = "NDON"
	RecordAcceptors = "NACC"
	RecordExcluded  = "NNB"
)

// EnsureNAMDRecords makes sure that the PSF file name contains the donor, acceptor and
// non-bonded exclusion records, which NAMD requires. Each missing record is appended,
// empty. The whole file is scanned, and each record is checked on its own. It returns
// the names of the records it added. Compressed files are not supported.
func EnsureNAMDRecords(name string) ([]string, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, Error{err.Error(), name, []string{"os.ReadFile", "EnsureNAMDRecords"}, true, err}
	}
	has := func(rec string) bool {
		return bytes.Contains(data, []byte("!"+rec))
	}
	var tail strings.Builder
	added := make([]string, 0, 3)
	if !has(RecordDonors) {
		fmt.Fprintf(&tail, "\n%8d !NDON: donors\n", 0)
		added = append(added, RecordDonors)
	}
	if !has(RecordAcceptors) {
		fmt.Fprintf(&tail, "\n%8d !NACC: acceptors\n", 0)
		added = append(added, RecordAcceptors)
	}
	if !has(RecordExcluded) {
		fmt.Fprintf(&tail, "\n%8d !NNB: excluded\n", 0)
		added = append(added, RecordExcluded)
	}
	if len(added) == 0 {
		return added, nil
	}
	f, err := os.OpenFile(name, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, Error{err.Error(), name, []string{"os.OpenFile", "EnsureNAMDRecords"}, true, err}
	}
	_, err = f.WriteString(tail.String())
	cerr := f.Close()
	if err == nil {
		err = cerr
	}
	if err != nil {
		return nil, Error{err.Error(), name, []string{"EnsureNAMDRecords"}, true, err}
	}
	return added, nil
}
