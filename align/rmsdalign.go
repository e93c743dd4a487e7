/*
 * rmsdalign.go, part of simspace.
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

import (
	chem "github.com/rmera/simspace"
	v3 "github.com/rmera/simspace/v3"
	"gonum.org/v1/gonum/mat"
)

// RMSDAlign returns a copy of m0 superimposed onto m1, minimizing the RMSD between
// the atoms in mapping (keys are m0 indexes) and their images in m1. Velocities, if
// any, are rotated along. m0 is not modified.
func RMSDAlign(m0, m1 *chem.Molecule, mapping map[int]int) (*chem.Molecule, error) {
	if err := validate(mapping, m0.Len(), m1.Len(), "RMSDAlign"); err != nil {
		return nil, err
	}
	if len(mapping) == 0 {
		return nil, Error{"can't align with an empty mapping", []string{"RMSDAlign"}, true, ErrValidation}
	}
	l0 := sortedKeys(mapping)
	l1 := make([]int, len(l0))
	for i, k := range l0 {
		l1[i] = mapping[k]
	}
	t0 := v3.Zeros(len(l0))
	t0.SomeVecs(m0.Coords, l0)
	t1 := v3.Zeros(len(l1))
	t1.SomeVecs(m1.Coords, l1)
	rot, trans1, trans2, err := chem.RotatorTranslatorToSuper(t0, t1)
	if err != nil {
		return nil, errDecorate(err, "RMSDAlign")
	}
	ret := m0.Copy()
	ret.Coords.AddVec(ret.Coords, trans1)
	var rotated mat.Dense
	rotated.Mul(ret.Coords.Dense, rot)
	ret.Coords = v3.Dense2Matrix(&rotated)
	ret.Coords.AddVec(ret.Coords, trans2)
	if ret.Vels != nil {
		var vels mat.Dense
		vels.Mul(ret.Vels.Dense, rot)
		ret.Vels = v3.Dense2Matrix(&vels)
	}
	return ret, nil
}
