/*
 * errors.go, part of simspace.
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

// Package align maps the atoms of one molecule onto another, superimposes
// them, and merges them into a single molecule with two end states, as used
// in alchemical free energy calculations.
package align

import (
	"errors"
	"fmt"
	"sort"

	chem "github.com/rmera/simspace"
)

var (
	// ErrValidation is returned for atom mappings or pre-matches with indexes out of
	// range, or that map two atoms to the same one.
	ErrValidation = errors.New("invalid atom mapping")

	// ErrIncompatible is returned when merging two molecules would break a ring, or
	// change its size, and that was not allowed.
	ErrIncompatible = errors.New("incompatible molecules")
)

// Error is the error type of the align package.
type Error struct {
	message  string
	deco     []string
	critical bool
	err      error
}

func (err Error) Error() string {
	return "align: " + err.message
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// Critical returns whether the error is critical or it can be ignored
func (err Error) Critical() bool { return err.critical }

// Unwrap returns the underlying error, if any.
func (err Error) Unwrap() error { return err.err }

// errDecorate adds caller to the decorations of err. Errors from other packages
// are wrapped, so they still match errors.Is and errors.As.
func errDecorate(err error, caller string) error {
	switch e := err.(type) {
	case nil:
		return nil
	case Error:
		e.deco = e.Decorate(caller)
		return e
	case chem.Error:
		return Error{message: e.Error(), deco: e.Decorate(caller), critical: e.Critical(), err: err}
	}
	return err
}

// validate checks that mapping goes from atoms of a molecule with n0 atoms to
// atoms of a molecule with n1, and that no two atoms are mapped to the same one.
func validate(mapping map[int]int, n0, n1 int, caller string) error {
	keys := sortedKeys(mapping)
	images := make(map[int]int, len(mapping))
	for _, k := range keys {
		v := mapping[k]
		if k < 0 || k >= n0 {
			return Error{fmt.Sprintf("atom %d out of range for a molecule with %d atoms", k, n0), []string{caller}, true, ErrValidation}
		}
		if v < 0 || v >= n1 {
			return Error{fmt.Sprintf("atom %d mapped to %d, out of range for a molecule with %d atoms", k, v, n1), []string{caller}, true, ErrValidation}
		}
		if prev, ok := images[v]; ok {
			return Error{fmt.Sprintf("atoms %d and %d both mapped to %d", prev, k, v), []string{caller}, true, ErrValidation}
		}
		images[v] = k
	}
	return nil
}

func sortedKeys(m map[int]int) []int {
	ret := make([]int, 0, len(m))
	for k := range m {
		ret = append(ret, k)
	}
	sort.Ints(ret)
	return ret
}
