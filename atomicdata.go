/*
 * atomicdata.go, part of simspace.
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
	"math"
	"strings"
)

// DummySymbol is the element symbol given to dummy atoms.
const DummySymbol = "Xx"

//A map for assigning mass to elements.
//Note that just common "bio-elements" are present
var symbolMass = map[string]float64{
	"H":  1.008,
	"C":  12.011,
	"O":  15.999,
	"N":  14.007,
	"P":  30.974,
	"S":  32.06,
	"Se": 78.96,
	"K":  39.098,
	"Ca": 40.08,
	"Mg": 24.305,
	"Cl": 35.45,
	"Na": 22.99,
	"Cu": 63.546,
	"Zn": 65.38,
	"Co": 58.933,
	"Fe": 55.845,
	"Mn": 54.938,
	"Si": 28.085,
	"F":  18.998,
	"Br": 79.904,
	"I":  126.90,
}

//A map for assigning covalent radii to elements
//Values from Cordero et al., 2008 (DOI:10.1039/B801115J)
var symbolCovrad = map[string]float64{
	"H":  0.4, // 0.31 in the paper. H only gets one bond, so the extra ones are removed later.
	"C":  0.76,
	"O":  0.66,
	"N":  0.71,
	"P":  1.07,
	"S":  1.05,
	"Se": 1.2,
	"K":  2.03,
	"Ca": 1.76,
	"Mg": 1.41,
	"Cl": 1.02,
	"Na": 1.66,
	"Cu": 1.32,
	"Zn": 1.22,
	"Co": 1.5,
	"Fe": 1.52,
	"Mn": 1.61,
	"Si": 1.11,
	"F":  0.57,
	"Br": 1.2,
	"I":  1.39,
}

//A value of 0 means that the element is not checked for max bonds.
var symbolMaxBonds = map[string]int{
	"H":  1, //this is the only one truly important.
	"C":  4,
	"O":  2,
	"F":  1,
	"Cl": 1,
	"Br": 1,
	"I":  1,
}

// MassOf returns the standard atomic mass of the element symbol, or 0 if unknown.
func MassOf(symbol string) float64 {
	return symbolMass[symbol]
}

// SymbolFromMass guesses the element from an atomic mass. Returns an empty string
// if no element is within 0.5 amu. Useful for PSF files, which carry masses but not
// elements.
func SymbolFromMass(m float64) string {
	best := ""
	bestd := 0.5
	for s, v := range symbolMass {
		if d := math.Abs(v - m); d < bestd {
			best = s
			bestd = d
		}
	}
	return best
}

// symbolFromName tries to guess a chemical element symbol from a PDB/CHARMM atom name.
// It only deals with some common bio-elements.
func symbolFromName(name string) string {
	name = strings.ToUpper(strings.TrimLeft(name, "0123456789"))
	if name == "" {
		return ""
	}
	two := map[string]string{"CL": "Cl", "NA": "Na", "ZN": "Zn", "FE": "Fe", "MG": "Mg", "BR": "Br", "SE": "Se", "CU": "Cu", "MN": "Mn"}
	if len(name) >= 2 {
		if s, ok := two[name[:2]]; ok && len(name) == 2 {
			return s
		}
	}
	switch name[0] {
	case 'H', 'C', 'N', 'O', 'P', 'S', 'F', 'K', 'I':
		return name[:1]
	}
	return ""
}
