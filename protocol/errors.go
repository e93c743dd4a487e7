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

package protocol

import (
	"fmt"

	chem "github.com/rmera/simspace"
)

// Error is the error type of the protocol package.
type Error struct {
	message  string
	filename string
	deco     []string
	critical bool
	err      error
}

func (err Error) Error() string {
	return fmt.Sprintf("protocol file %s: %s", err.filename, err.message)
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err Error) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// FileName returns the name of the file involved in the error.
func (err Error) FileName() string { return err.filename }

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
		var name string
		if f, ok := e.(interface{ FileName() string }); ok {
			name = f.FileName()
		}
		return Error{message: e.Error(), filename: name, deco: e.Decorate(caller), critical: e.Critical(), err: err}
	}
	return err
}
