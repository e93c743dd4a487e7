/*
 * main.go, part of simspace.
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

// Command namdrun prepares the input files for a NAMD run from a PSF, a PDB,
// a parameter file and an HCL protocol, runs NAMD and writes the final structure.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	chem "github.com/rmera/simspace"
	"github.com/rmera/simspace/charmm"
	"github.com/rmera/simspace/mdplot"
	"github.com/rmera/simspace/namd"
	"github.com/rmera/simspace/protocol"
)

func main() {
	log.SetPrefix("namdrun: ")
	log.SetFlags(0)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Stdout, os.Args[1:])
	stop()
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, outW io.Writer, args []string) error {
	c, shouldExit, err := parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}
	if c.quiet {
		prev := log.Writer()
		log.SetOutput(io.Discard)
		defer log.SetOutput(prev)
	}
	mol, err := readSystem(c.psf, c.pdb, c.params)
	if err != nil {
		return err
	}
	proto, err := protocol.LoadFile(c.protocol, c.vars)
	if err != nil {
		return err
	}
	opts := []namd.Option{namd.WithName(c.name)}
	if c.exe != "" {
		opts = append(opts, namd.WithExe(c.exe))
	}
	if c.workDir != "" {
		opts = append(opts, namd.WithWorkDir(c.workDir))
	}
	P, err := namd.New(mol, proto, opts...)
	if err != nil {
		return err
	}
	fmt.Fprintf(outW, "Running a %s protocol in %s\n", proto.Kind(), P.WorkDir())
	if err := P.Start(ctx); err != nil {
		return err
	}
	final, err := P.System()
	if err != nil {
		return err
	}
	if err := chem.PDBWrite(c.out, final.Coords, final, nil); err != nil {
		return err
	}
	fmt.Fprintf(outW, "Final structure written to %s\n", c.out)
	if c.plot == "" {
		return nil
	}
	rec, err := P.Records()
	if err != nil {
		return err
	}
	if err := mdplot.PlotRecords(rec, "TS", []string{"TOTAL"}, fmt.Sprintf("%s (%s)", P.Name(), proto.Kind()), c.plot); err != nil {
		return err
	}
	fmt.Fprintf(outW, "Energies plotted to %s\n", c.plot)
	return nil
}

// readSystem builds a parametrized molecule from its PSF, PDB and CHARMM parameter files.
func readSystem(psf, pdb, params string) (*chem.Molecule, error) {
	top, err := charmm.ReadPSF(psf)
	if err != nil {
		return nil, err
	}
	coords, err := chem.PDBRead(pdb)
	if err != nil {
		return nil, err
	}
	P, err := charmm.ReadPRM(params)
	if err != nil {
		return nil, err
	}
	if err := P.Assign(top); err != nil {
		return nil, err
	}
	return chem.NewMolecule(top, coords.Coords)
}
