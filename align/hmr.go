/*
 * hmr.go, part of simspace.
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

package align

import chem "github.com/rmera/simspace"

// RepartitionHydrogenMass repartitions the hydrogen masses of each end state
// (see chem.RepartitionHydrogenMass) among its real atoms, so the mass of the
// real atoms of each state is conserved. Each dummy atom then takes the mass
// its atom has in the other end state. Nothing is changed if there is an error.
func (M *Merged) RepartitionHydrogenMass(factor float64) error {
	var tops [2]*chem.Topology
	for s, st := range M.states {
		tops[s] = st.Topology.Copy()
		dum := st.Dummy
		err := chem.RepartitionHydrogenMass(tops[s], factor, func(i int) bool { return dum[i] })
		if err != nil {
			return errDecorate(err, "RepartitionHydrogenMass")
		}
	}
	for s, st := range M.states {
		other := tops[1-s]
		for i, at := range st.Atoms {
			if st.Dummy[i] {
				at.Mass = other.Atom(i).Mass
			} else {
				at.Mass = tops[s].Atom(i).Mass
			}
		}
	}
	return nil
}
