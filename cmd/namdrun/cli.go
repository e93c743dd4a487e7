/*
 * cli.go, part of simspace.
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

package main

import (
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
)

// ExitError is an error that carries the exit code of the program.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// vars collects repeated -var name=value flags.
type vars map[string]string

func (v vars) String() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		keys[i] = k + "=" + v[k]
	}
	return strings.Join(keys, ",")
}

func (v vars) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return fmt.Errorf("variables must be given as name=value, got %q", s)
	}
	v[name] = value
	return nil
}

type config struct {
	psf      string
	pdb      string
	params   string
	protocol string
	vars     map[string]string
	name     string
	workDir  string
	exe      string
	out      string
	plot     string
	quiet    bool
}

// parse processes the command line arguments. It returns true if the program
// should exit without doing anything else, as when help was requested.
func parse(args []string, output io.Writer) (*config, bool, error) {
	flagSet := flag.NewFlagSet("namdrun", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, `
namdrun - Runs a NAMD minimisation, equilibration or custom protocol on a system.

Usage:
  namdrun -psf system.psf -pdb system.pdb -params system.prm -protocol protocol.hcl [options]

The input files can be compressed (gz, bz2, zst).

Options:
`)
		flagSet.PrintDefaults()
	}
	c := &config{vars: make(map[string]string)}
	flagSet.StringVar(&c.psf, "psf", "", "PSF topology of the system.")
	flagSet.StringVar(&c.pdb, "pdb", "", "PDB coordinates of the system.")
	flagSet.StringVar(&c.params, "params", "", "CHARMM parameter file for the system.")
	flagSet.StringVar(&c.protocol, "protocol", "", "HCL file with the protocol to run.")
	flagSet.Var(vars(c.vars), "var", "Variable for the protocol file, as name=value. Can be repeated.")
	flagSet.StringVar(&c.name, "name", "namd", "Base name for the NAMD files.")
	flagSet.StringVar(&c.workDir, "workdir", "", "Directory for the NAMD files. A temporary one by default.")
	flagSet.StringVar(&c.exe, "exe", "", "NAMD executable. Searched for in the PATH by default.")
	flagSet.StringVar(&c.out, "out", "", "PDB file for the final structure. <name>_out.pdb by default.")
	flagSet.StringVar(&c.plot, "plot", "", "If given, the total energy along the run is plotted to this file.")
	flagSet.BoolVar(&c.quiet, "quiet", false, "Don't print log messages.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if len(args) == 0 {
		flagSet.Usage()
		return nil, true, nil
	}
	if flagSet.NArg() > 0 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unexpected arguments: %v", flagSet.Args())}
	}
	var missing []string
	for _, f := range []struct{ name, value string }{{"psf", c.psf}, {"pdb", c.pdb}, {"params", c.params}, {"protocol", c.protocol}} {
		if f.value == "" {
			missing = append(missing, "-"+f.name)
		}
	}
	if len(missing) > 0 {
		return nil, false, &ExitError{Code: 2, Message: "missing required flags: " + strings.Join(missing, ", ")}
	}
	if c.out == "" {
		c.out = c.name + "_out.pdb"
	}
	return c, false, nil
}
