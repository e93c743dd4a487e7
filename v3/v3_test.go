/*
 * v3_test.go, part of simspace.
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

package v3

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestNewMatrix(Te *testing.T) {
	if _, err := NewMatrix([]float64{1, 2, 3, 4}); err == nil {
		Te.Error("expected an error for a slice not divisible by 3")
	}
	A, err := NewMatrix([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	if err != nil {
		Te.Fatal(err)
	}
	if A.NVecs() != 3 {
		Te.Errorf("expected 3 vectors, got %d", A.NVecs())
	}
	View := A.VecView(1)
	View.Set(0, 0, 100)
	if A.At(1, 0) != 100 {
		Te.Errorf("VecView should share data with the original matrix")
	}
}

func TestSomeVecs(Te *testing.T) {
	A, err := NewMatrix([]float64{1.0, 2.0, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18})
	if err != nil {
		Te.Fatal(err)
	}
	B := Zeros(3)
	cind := []int{1, 3, 5}
	if err = B.SomeVecsSafe(A, cind); err != nil {
		Te.Fatal(err)
	}
	if B.At(2, 2) != 18 || B.At(0, 0) != 4 {
		Te.Errorf("wrong vectors selected:\n%s", B)
	}
	B.Set(1, 1, 55)
	A.SetVecs(B, cind)
	if A.At(3, 1) != 55 {
		Te.Errorf("SetVecs didn't copy the changed vector:\n%s", A)
	}
	if err = B.SomeVecsSafe(A, []int{1, 100, 2}); err == nil {
		Te.Errorf("expected an error for an out of range index")
	}
}

func TestCentroidAndShift(Te *testing.T) {
	A, _ := NewMatrix([]float64{0, 0, 0, 2, 0, 0, 0, 2, 0, 0, 0, 2})
	c := A.Centroid()
	if c != (r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}) {
		Te.Errorf("wrong centroid %v", c)
	}
	B := A.Clone()
	B.SubVec(B, c)
	if B.Centroid().X > 1e-12 || A.At(1, 0) != 2 {
		Te.Errorf("SubVec should center the clone and leave the original alone")
	}
}
