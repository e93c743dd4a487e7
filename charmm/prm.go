/*
 * prm.go, part of simspace.
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
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	chem "github.com/rmera/simspace"
	"github.com/rmera/simspace/ff"
)

// WritePRM writes the parameters in P to name, in the CHARMM parameter format.
// The file can be compressed (see chem.CreateAny).
func WritePRM(name string, P *ff.ParamSet) error {
	out, err := chem.CreateAny(name)
	if err != nil {
		return Error{err.Error(), name, []string{"chem.CreateAny", "WritePRM"}, true, err}
	}
	werr := writePRM(out, P)
	cerr := out.Close()
	if werr == nil {
		werr = cerr
	}
	if werr != nil {
		return Error{werr.Error(), name, []string{"WritePRM"}, true, werr}
	}
	return nil
}

func sortedKeys[K comparable, V any](m map[K]V) []K {
	ret := make([]K, 0, len(m))
	for k := range m {
		ret = append(ret, k)
	}
	sort.Slice(ret, func(i, j int) bool { return fmt.Sprint(ret[i]) < fmt.Sprint(ret[j]) })
	return ret
}

func writePRM(out io.Writer, P *ff.ParamSet) error {
	w := bufio.NewWriter(out)
	fmt.Fprintf(w, "* Parameters written by simspace\n*\n\n")
	fmt.Fprintf(w, "BONDS\n")
	for _, k := range sortedKeys(P.Bonds) {
		h := P.Bonds[k]
		fmt.Fprintf(w, "%-6s %-6s %10.4f %10.4f\n", k[0], k[1], h.K, h.Eq)
	}
	fmt.Fprintf(w, "\nANGLES\n")
	for _, k := range sortedKeys(P.Angles) {
		h := P.Angles[k]
		fmt.Fprintf(w, "%-6s %-6s %-6s %10.4f %10.4f\n", k[0], k[1], k[2], h.K, h.Eq)
	}
	fmt.Fprintf(w, "\nDIHEDRALS\n")
	for _, k := range sortedKeys(P.Dihedrals) {
		for _, t := range P.Dihedrals[k] {
			fmt.Fprintf(w, "%-6s %-6s %-6s %-6s %10.4f %2d %8.2f\n", k[0], k[1], k[2], k[3], t.K, t.N, t.Phase)
		}
	}
	fmt.Fprintf(w, "\nIMPROPER\n")
	for _, k := range sortedKeys(P.Impropers) {
		h := P.Impropers[k]
		fmt.Fprintf(w, "%-6s %-6s %-6s %-6s %10.4f %2d %8.2f\n", k[0], k[1], k[2], k[3], h.K, 0, h.Eq)
	}
	fmt.Fprintf(w, "\nNONBONDED nbxmod  5 atom cdiel shift vatom vdistance vswitch -\n")
	fmt.Fprintf(w, "cutnb 14.0 ctofnb 12.0 ctonnb 10.0 eps 1.0 e14fac 1.0 wmin 1.5\n")
	for _, k := range sortedKeys(P.NonBonded) {
		lj := P.NonBonded[k]
		//CHARMM stores the well depth as a negative number.
		fmt.Fprintf(w, "%-6s %10.6f %10.6f %10.6f\n", k, 0.0, -lj.Epsilon, lj.RMinHalf)
	}
	fmt.Fprintf(w, "\nEND\n")
	return w.Flush()
}

// prmSection returns the section that a line starting with word opens, or "" if
// it doesn't open any.
func prmSection(word string) string {
	word = strings.ToUpper(word)
	switch {
	case strings.HasPrefix(word, "BOND"):
		return "bonds"
	case strings.HasPrefix(word, "ANGL"), strings.HasPrefix(word, "THET"):
		return "angles"
	case strings.HasPrefix(word, "DIHE"), word == "PHI":
		return "dihedrals"
	case strings.HasPrefix(word, "IMPR"), strings.HasPrefix(word, "IMPH"):
		return "impropers"
	case strings.HasPrefix(word, "NONB"), strings.HasPrefix(word, "NBON"):
		return "nonbonded"
	case word == "CMAP", word == "NBFIX", word == "HBOND", word == "ATOMS":
		return "skip"
	case word == "END":
		return "end"
	}
	return ""
}

func parseFloats(f []string) ([]float64, error) {
	ret := make([]float64, len(f))
	for i, v := range f {
		var err error
		if ret[i], err = strconv.ParseFloat(v, 64); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

// ReadPRM reads a CHARMM parameter file into a ParamSet. Sections not used by
// this library (CMAP, NBFIX, HBOND, atom masses) are skipped, as are Urey-Bradley
// terms and 1-4 Lennard-Jones parameters.
func ReadPRM(name string) (*ff.ParamSet, error) {
	in, err := chem.OpenAny(name)
	if err != nil {
		return nil, Error{err.Error(), name, []string{"chem.OpenAny", "ReadPRM"}, true, err}
	}
	defer in.Close()
	P, err := readPRM(bufio.NewReader(in))
	if err != nil {
		return nil, Error{err.Error(), name, []string{"ReadPRM"}, true, err}
	}
	return P, nil
}

func readPRM(r *bufio.Reader) (*ff.ParamSet, error) {
	P := ff.NewParamSet()
	section := ""
	continued := false
	lineno := 0
	for {
		raw, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		lineno++
		line := cleanString(raw)
		if strings.HasPrefix(line, "*") {
			line = ""
		}
		if line != "" {
			if continued {
				continued = strings.HasSuffix(line, "-")
			} else if perr := prmLine(P, line, &section, &continued); perr != nil {
				return nil, fmt.Errorf("line %d: %w", lineno, perr)
			}
		}
		if err == io.EOF || section == "end" {
			break
		}
	}
	return P, nil
}

func prmLine(P *ff.ParamSet, line string, section *string, continued *bool) error {
	f := fi(line)
	if s := prmSection(f[0]); s != "" {
		*section = s
		*continued = strings.HasSuffix(line, "-")
		return nil
	}
	switch *section {
	case "bonds":
		if len(f) < 4 {
			return fmt.Errorf("bad bond line")
		}
		v, err := parseFloats(f[2:4])
		if err != nil {
			return err
		}
		P.Bonds[ff.NewTypes2(f[0], f[1])] = ff.Harmonic{K: v[0], Eq: v[1]}
	case "angles":
		if len(f) < 5 {
			return fmt.Errorf("bad angle line")
		}
		v, err := parseFloats(f[3:5])
		if err != nil {
			return err
		}
		P.Angles[ff.NewTypes3(f[0], f[1], f[2])] = ff.Harmonic{K: v[0], Eq: v[1]}
	case "dihedrals", "impropers":
		if len(f) < 7 {
			return fmt.Errorf("bad %s line", *section)
		}
		v, err := parseFloats(f[4:7])
		if err != nil {
			return err
		}
		if *section == "impropers" {
			P.Impropers[ff.Types4{f[0], f[1], f[2], f[3]}] = ff.Harmonic{K: v[0], Eq: v[2]}
			return nil
		}
		k := ff.NewTypes4(f[0], f[1], f[2], f[3])
		P.Dihedrals[k] = append(P.Dihedrals[k], chem.Torsion{K: v[0], N: int(math.Round(v[1])), Phase: v[2]})
	case "nonbonded":
		if len(f) < 4 {
			return fmt.Errorf("bad nonbonded line")
		}
		v, err := parseFloats(f[1:4])
		if err != nil {
			//option lines (cutnb 14.0 ...) that are not continuations.
			return nil
		}
		P.NonBonded[f[0]] = ff.LJ{Epsilon: math.Abs(v[1]), RMinHalf: v[2]}
	}
	return nil
}
