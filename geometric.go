/*
 * geometric.go, part of simspace.
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

	v3 "github.com/rmera/simspace/v3"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// BoxBuffer is the fractional padding added to each side of the bounding box by BoxSize.
const BoxBuffer = 0.01

// BoxSize returns the size of the bounding box of coords, enlarged by BoxBuffer,
// and the center of the box, to be used as periodic cell vectors and origin.
func BoxSize(coords *v3.Matrix) (size r3.Vec, origin r3.Vec) {
	n := coords.NVecs()
	if n == 0 {
		return size, origin
	}
	col := make([]float64, n)
	var lo, hi [3]float64
	for j := 0; j < 3; j++ {
		mat.Col(col, j, coords.Dense)
		lo[j] = floats.Min(col)
		hi[j] = floats.Max(col)
	}
	size = r3.Scale(1+BoxBuffer, r3.Vec{X: hi[0] - lo[0], Y: hi[1] - lo[1], Z: hi[2] - lo[2]})
	origin = r3.Scale(0.5, r3.Vec{X: hi[0] + lo[0], Y: hi[1] + lo[1], Z: hi[2] + lo[2]})
	return size, origin
}

// RotatorTranslatorToSuper returns the rotation matrix and the two translation vectors
// that superimpose test onto templa (both with the same number of vectors). To transform
// a set of coordinates, the first translation is added, then the rotation is applied (as
// coords*Rotation) and the second translation is added.
// The rotation is obtained with the Kabsch algorithm, with the sign of the smallest
// singular value corrected so a proper rotation (never a reflection) is returned.
func RotatorTranslatorToSuper(test, templa *v3.Matrix) (*mat.Dense, r3.Vec, r3.Vec, error) {
	if test.NVecs() != templa.NVecs() || test.NVecs() == 0 {
		return nil, r3.Vec{}, r3.Vec{}, newErr(nil, "", "RotatorTranslatorToSuper", "Ill-formed matrices: %d and %d vectors", test.NVecs(), templa.NVecs())
	}
	ctest := test.Clone()
	ctempla := templa.Clone()
	testcen := ctest.Centroid()
	templacen := ctempla.Centroid()
	ctest.SubVec(ctest, testcen)
	ctempla.SubVec(ctempla, templacen)
	var H mat.Dense
	H.Mul(ctest.T(), ctempla)
	var svd mat.SVD
	if ok := svd.Factorize(&H, mat.SVDFull); !ok {
		return nil, r3.Vec{}, r3.Vec{}, newErr(nil, "", "RotatorTranslatorToSuper", "SVD factorization failed")
	}
	var U, V mat.Dense
	svd.UTo(&U)
	svd.VTo(&V)
	d := 1.0
	if mat.Det(&U)*mat.Det(&V) < 0 {
		d = -1.0
	}
	D := mat.NewDiagDense(3, []float64{1, 1, d})
	//coords are row vectors, so the rotation is U*D*V^T, applied as x*R.
	var UD, R mat.Dense
	UD.Mul(&U, D)
	R.Mul(&UD, V.T())
	return &R, r3.Scale(-1, testcen), templacen, nil
}

// Super superimposes test onto templa, using the atoms with indexes testlst in test and
// templalst in templa. The whole of test is transformed, and returned as a new matrix.
func Super(test, templa *v3.Matrix, testlst, templalst []int) (*v3.Matrix, error) {
	if len(testlst) != len(templalst) {
		return nil, newErr(nil, "", "Super", "Selections of different length: %d and %d", len(testlst), len(templalst))
	}
	ctest := v3.Zeros(len(testlst))
	ctempla := v3.Zeros(len(templalst))
	if err := ctest.SomeVecsSafe(test, testlst); err != nil {
		return nil, newErr(err, "", "Super", "%s", err.Error())
	}
	if err := ctempla.SomeVecsSafe(templa, templalst); err != nil {
		return nil, newErr(err, "", "Super", "%s", err.Error())
	}
	rot, trans1, trans2, err := RotatorTranslatorToSuper(ctest, ctempla)
	if err != nil {
		return nil, errDecorate(err, "Super")
	}
	ret := test.Clone()
	ret.AddVec(ret, trans1)
	var rotated mat.Dense
	rotated.Mul(ret.Dense, rot)
	ret = v3.Dense2Matrix(&rotated)
	ret.AddVec(ret, trans2)
	return ret, nil
}

// RMSD returns the root of the mean square deviation between the sets of cartesian
// coordinates test and template.
func RMSD(test, template *v3.Matrix) (float64, error) {
	if test.NVecs() != template.NVecs() || test.NVecs() == 0 {
		return 0, newErr(nil, "", "RMSD", "Ill-formed matrices for RMSD calculation: %d and %d vectors", test.NVecs(), template.NVecs())
	}
	var sum float64
	for i := 0; i < test.NVecs(); i++ {
		sum += r3.Norm2(r3.Sub(test.Vec(i), template.Vec(i)))
	}
	return math.Sqrt(sum / float64(test.NVecs())), nil
}
