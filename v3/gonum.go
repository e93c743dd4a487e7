/*
 * gonum.go, part of simspace.
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
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

const cols int = 3

// Matrix is a set of vectors in 3D space. Within the package a "vector"
// is a row of the matrix, i.e. the cartesian coordinates of one point.
type Matrix struct {
	*mat.Dense
}

// Dense2Matrix wraps A, which must have 3 columns. A is not copied.
func Dense2Matrix(A *mat.Dense) *Matrix {
	_, c := A.Dims()
	if c != cols {
		panic(PanicMsg(fmt.Sprintf("v3: Dense2Matrix: %d columns given, 3 required", c)))
	}
	return &Matrix{A}
}

// NewMatrix generates and returns a Matrix with 3 columns from data.
func NewMatrix(data []float64) (*Matrix, error) {
	l := len(data)
	rows := l / cols
	if l%cols != 0 || l == 0 {
		return nil, Error{fmt.Sprintf("Input slice length %d not divisible by %d", l, cols), []string{"NewMatrix"}, true}
	}
	return &Matrix{mat.NewDense(rows, cols, data)}, nil
}

// Zeros returns a zero-filled Matrix with vecs vectors.
func Zeros(vecs int) *Matrix {
	f := make([]float64, cols*vecs)
	return &Matrix{mat.NewDense(vecs, cols, f)}
}

// NVecs returns the number of vectors (rows) in the matrix.
func (F *Matrix) NVecs() int {
	r, c := F.Dims()
	if c != cols {
		panic(PanicMsg("v3: Ill-formed Matrix"))
	}
	return r
}

// VecView returns a view of the ith vector. Changes in the view
// affect the receiver.
func (F *Matrix) VecView(i int) *Matrix {
	r := F.Dense.Slice(i, i+1, 0, cols).(*mat.Dense)
	return &Matrix{r}
}

// Vec returns a copy of the ith vector as an r3.Vec
func (F *Matrix) Vec(i int) r3.Vec {
	return r3.Vec{X: F.At(i, 0), Y: F.At(i, 1), Z: F.At(i, 2)}
}

// SetVec sets the ith vector of the receiver to v.
func (F *Matrix) SetVec(i int, v r3.Vec) {
	F.Set(i, 0, v.X)
	F.Set(i, 1, v.Y)
	F.Set(i, 2, v.Z)
}

// SomeVecs puts in the receiver the vectors of A with indexes in clist.
// The receiver must have len(clist) vectors. It panics on bad indexes.
func (F *Matrix) SomeVecs(A *Matrix, clist []int) {
	if F.NVecs() != len(clist) {
		panic(PanicMsg(ErrShape))
	}
	for key, val := range clist {
		for j := 0; j < cols; j++ {
			F.Set(key, j, A.At(val, j))
		}
	}
}

// SomeVecsSafe is like SomeVecs but returns an error instead of panicking.
func (F *Matrix) SomeVecsSafe(A *Matrix, clist []int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = Error{fmt.Sprintf("%v", r), []string{"SomeVecsSafe"}, true}
		}
	}()
	F.SomeVecs(A, clist)
	return nil
}

// SetVecs sets the vectors of the receiver with indexes in clist to the
// vectors of A, in order.
func (F *Matrix) SetVecs(A *Matrix, clist []int) {
	if A.NVecs() != len(clist) {
		panic(PanicMsg(ErrShape))
	}
	for key, val := range clist {
		for j := 0; j < cols; j++ {
			F.Set(val, j, A.At(key, j))
		}
	}
}

// AddVec adds vec to every vector of A, putting the result in the receiver.
func (F *Matrix) AddVec(A *Matrix, vec r3.Vec) {
	n := A.NVecs()
	for i := 0; i < n; i++ {
		F.SetVec(i, r3.Add(A.Vec(i), vec))
	}
}

// SubVec subtracts vec from every vector of A, putting the result in the receiver.
func (F *Matrix) SubVec(A *Matrix, vec r3.Vec) {
	F.AddVec(A, r3.Scale(-1, vec))
}

// Clone returns a deep copy of the receiver.
func (F *Matrix) Clone() *Matrix {
	r := Zeros(F.NVecs())
	r.Copy(F.Dense)
	return r
}

// Centroid returns the geometric center of the vectors in the receiver.
func (F *Matrix) Centroid() r3.Vec {
	var c r3.Vec
	n := F.NVecs()
	for i := 0; i < n; i++ {
		c = r3.Add(c, F.Vec(i))
	}
	return r3.Scale(1/float64(n), c)
}

func (F *Matrix) String() string {
	var b strings.Builder
	n := F.NVecs()
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "[%8.3f %8.3f %8.3f]\n", F.At(i, 0), F.At(i, 1), F.At(i, 2))
	}
	return b.String()
}

//Errors

// Error is the error type of the package.
type Error struct {
	message  string
	deco     []string
	critical bool
}

// Error returns a string with an error message.
func (err Error) Error() string {
	return err.message
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// Critical return whether the error is critical or it can be ignored
func (err Error) Critical() bool { return err.critical }

// PanicMsg is a message used for panics, even though it does satisfy the error interface.
// for errors use Error.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const ErrShape = "v3: Dimension mismatch"
