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

package chem

import "fmt"

// CError is the error type of the chem package. It fulfills the Error interface.
type CError struct {
	msg      string
	filename string //the file involved, if any.
	deco     []string
	critical bool
	err      error //the underlying error, if any.
}

func (err CError) Error() string {
	if err.filename != "" {
		return fmt.Sprintf("file %s: %s", err.filename, err.msg)
	}
	return err.msg
}

// Decorate will add the dec string to the decoration slice of strings of the error,
// and return the resulting slice.
func (err CError) Decorate(dec string) []string {
	if dec != "" {
		err.deco = append(err.deco, dec)
	}
	return err.deco
}

// Critical returns whether the error is critical or it can be ignored
func (err CError) Critical() bool { return err.critical }

// FileName returns the file involved in the error, or an empty string.
func (err CError) FileName() string { return err.filename }

// Unwrap returns the underlying error, if any.
func (err CError) Unwrap() error { return err.err }

func newErr(err error, filename string, caller string, format string, args ...any) CError {
	return CError{msg: fmt.Sprintf(format, args...), filename: filename, deco: []string{caller}, critical: true, err: err}
}

// errDecorate adds caller to the decorations of err, if it is a CError.
// Other errors are returned unchanged.
func errDecorate(err error, caller string) error {
	if e, ok := err.(CError); ok {
		e.deco = e.Decorate(caller)
		return e
	}
	return err
}
