/*
 * hydrogens.go, part of simspace.
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

import "log"

// DefaultHMRFactor is the usual hydrogen mass repartitioning factor, which
// allows 4 fs timesteps.
const DefaultHMRFactor = 4.0

// RepartitionHydrogenMass multiplies the mass of each hydrogen in top by factor, and
// subtracts the added mass from the heavy atom the hydrogen is bonded to, so the total mass
// is conserved. Atoms for which skip returns true are not touched, and don't take part in
// the mass transfer. skip can be nil. Hydrogens with no bonded heavy atom are left alone.
// The topology is only modified if the whole operation succeeds.
func RepartitionHydrogenMass(top *Topology, factor float64, skip func(i int) bool) error {
	if factor <= 0 {
		return newErr(nil, "", "RepartitionHydrogenMass", "Repartitioning factor must be positive, got %g", factor)
	}
	if skip == nil {
		skip = func(int) bool { return false }
	}
	neigh := top.Neighbors()
	masses := make([]float64, top.Len())
	for i, at := range top.Atoms {
		masses[i] = at.Mass
	}
	for i, at := range top.Atoms {
		if at.Symbol != "H" || skip(i) {
			continue
		}
		heavy := -1
		for _, j := range neigh[i] {
			if top.Atoms[j].Symbol != "H" && top.Atoms[j].Symbol != DummySymbol && !skip(j) {
				heavy = j
				break
			}
		}
		if heavy < 0 {
			log.Printf("RepartitionHydrogenMass: hydrogen %d (%s) is not bonded to a heavy atom, skipped", i, at.Name)
			continue
		}
		delta := (factor - 1) * at.Mass
		masses[i] += delta
		masses[heavy] -= delta
	}
	for i, m := range masses {
		if m <= 0 && !skip(i) && top.Atoms[i].Symbol != DummySymbol {
			return newErr(nil, "", "RepartitionHydrogenMass", "Atom %d (%s) would get a non-positive mass (%g)", i, top.Atoms[i].Name, m)
		}
	}
	for i, m := range masses {
		top.Atoms[i].Mass = m
	}
	return nil
}
