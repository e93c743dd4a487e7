/*
 * process.go, part of simspace.
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

// Package namd prepares, runs and reads back NAMD simulations. A Process
// writes the input files for a molecular system and a protocol to a working
// directory, runs the engine there, and loads the final structure.
package namd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	chem "github.com/rmera/simspace"
	"github.com/rmera/simspace/charmm"
	"github.com/rmera/simspace/ff"
	"github.com/rmera/simspace/protocol"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultExe is the executable searched for in the PATH when none is given.
const DefaultExe = "namd2"

// Process is a NAMD simulation of a system under a protocol.
type Process struct {
	system   *chem.Molecule
	protocol protocol.Protocol
	exe      string
	name     string
	workDir  string

	psfFile       string
	pdbFile       string
	paramFile     string
	velFile       string //empty if the system has no velocities
	configFile    string
	restraintFile string //empty unless the protocol is restrained
	inputFiles    []string

	boxSize   r3.Vec
	boxOrigin r3.Vec
}

// Option configures a Process.
type Option func(*Process) error

// WithExe sets the path to the NAMD executable, which must be an existing file.
func WithExe(path string) Option {
	return func(P *Process) error {
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			return Error{fmt.Sprintf("NAMD executable doesn't exist: %q", path), path, []string{"WithExe"}, true, ErrNotFound}
		}
		P.exe = path
		return nil
	}
}

// WithName sets the name of the process, used as the base name of all its files.
func WithName(name string) Option {
	return func(P *Process) error {
		if name == "" || strings.ContainsRune(name, filepath.Separator) {
			return Error{fmt.Sprintf("invalid process name %q", name), "", []string{"WithName"}, true, nil}
		}
		P.name = name
		return nil
	}
}

// WithWorkDir sets the working directory of the process. New creates it if needed,
// once the executable and configuration have been found.
func WithWorkDir(dir string) Option {
	return func(P *Process) error {
		if dir == "" {
			return Error{"empty working directory", "", []string{"WithWorkDir"}, true, nil}
		}
		P.workDir = dir
		return nil
	}
}

// New creates a NAMD process for system under proto, and writes all the input
// files to the working directory. By default, the process is named "namd", the
// working directory is a new temporary directory and the executable is searched
// for in the PATH. The system must carry force field parameters for all its terms,
// and a positive mass for every atom but the dummies.
func New(system *chem.Molecule, proto protocol.Protocol, opts ...Option) (*Process, error) {
	if system == nil || proto == nil {
		return nil, Error{"nil system or protocol", "", []string{"New"}, true, nil}
	}
	if _, err := system.Masses(); err != nil {
		return nil, errDecorate(err, "New")
	}
	P := &Process{system: system, protocol: proto, name: "namd"}
	for _, o := range opts {
		if err := o(P); err != nil {
			return nil, errDecorate(err, "New")
		}
	}
	if P.exe == "" {
		exe, err := exec.LookPath(DefaultExe)
		if err != nil {
			return nil, Error{fmt.Sprintf("%s not found in the PATH", DefaultExe), "", []string{"exec.LookPath", "New"}, true, ErrNotFound}
		}
		P.exe = exe
	}
	if c, ok := proto.(protocol.Custom); ok {
		info, err := os.Stat(c.Config)
		if err != nil || info.IsDir() {
			return nil, Error{fmt.Sprintf("NAMD configuration file doesn't exist: %q", c.Config), c.Config, []string{"New"}, true, ErrNotFound}
		}
		P.configFile = c.Config
	}
	if P.workDir == "" {
		dir, err := os.MkdirTemp("", "namd")
		if err != nil {
			return nil, Error{err.Error(), "", []string{"os.MkdirTemp", "New"}, true, err}
		}
		P.workDir = dir
	} else if err := os.MkdirAll(P.workDir, 0755); err != nil {
		return nil, Error{err.Error(), P.workDir, []string{"os.MkdirAll", "New"}, true, err}
	}
	P.psfFile = P.path(".psf")
	P.pdbFile = P.path(".pdb")
	P.paramFile = P.path(".params")
	if P.configFile == "" {
		P.configFile = P.path(".namd")
	}
	P.inputFiles = []string{P.configFile, P.psfFile, P.pdbFile, P.paramFile}
	P.boxSize, P.boxOrigin = chem.BoxSize(system.Coords)
	if err := P.setup(); err != nil {
		return nil, errDecorate(err, "New")
	}
	return P, nil
}

// path returns the path of the process file with the given extension.
func (P *Process) path(ext string) string {
	return filepath.Join(P.workDir, P.name+ext)
}

func (P *Process) setup() error {
	if err := charmm.WritePSF(P.psfFile, P.system.Topology); err != nil {
		return errDecorate(err, "setup")
	}
	if err := chem.PDBWrite(P.pdbFile, P.system.Coords, P.system.Topology, nil); err != nil {
		return errDecorate(err, "setup")
	}
	params, err := ff.ParamsFromTopology(P.system.Topology)
	if err != nil {
		return errDecorate(err, "setup")
	}
	if err := charmm.WritePRM(P.paramFile, params); err != nil {
		return errDecorate(err, "setup")
	}
	vel := strings.TrimSuffix(P.pdbFile, filepath.Ext(P.pdbFile)) + ".vel"
	written, err := chem.PDBVelWrite(vel, P.system)
	if err != nil {
		return errDecorate(err, "setup")
	}
	if written {
		P.velFile = vel
		P.inputFiles = append(P.inputFiles, vel)
	}
	added, err := charmm.EnsureNAMDRecords(P.psfFile)
	if err != nil {
		return errDecorate(err, "setup")
	}
	if len(added) > 0 {
		log.Printf("Added empty %s records to %s", strings.Join(added, ", "), P.psfFile)
	}
	if P.protocol.Kind() == protocol.KindCustom {
		return nil
	}
	if err := P.writeConfig(); err != nil {
		return errDecorate(err, "setup")
	}
	return nil
}

// InputFiles returns the input files of the process: the configuration, PSF, PDB and
// parameter files, followed by the velocity and restraint files, if written.
func (P *Process) InputFiles() []string {
	return append([]string(nil), P.inputFiles...)
}

// WorkDir returns the working directory of the process.
func (P *Process) WorkDir() string { return P.workDir }

// Name returns the name of the process.
func (P *Process) Name() string { return P.name }

// Exe returns the path to the NAMD executable.
func (P *Process) Exe() string { return P.exe }

// Config returns the path to the NAMD configuration file.
func (P *Process) Config() string { return P.configFile }

// Start runs NAMD and waits for it to finish. The engine runs in the working
// directory of the process, with its standard output and error written to
// <name>.out and <name>.err there. Cancelling ctx kills the engine.
func (P *Process) Start(ctx context.Context) error {
	config := P.name + ".namd"
	if P.protocol.Kind() == protocol.KindCustom {
		abs, err := filepath.Abs(P.configFile)
		if err != nil {
			return Error{err.Error(), P.configFile, []string{"filepath.Abs", "Start"}, true, err}
		}
		config = abs
	}
	stdout, err := os.Create(P.path(".out"))
	if err != nil {
		return Error{err.Error(), P.path(".out"), []string{"os.Create", "Start"}, true, err}
	}
	defer stdout.Close()
	stderr, err := os.Create(P.path(".err"))
	if err != nil {
		return Error{err.Error(), P.path(".err"), []string{"os.Create", "Start"}, true, err}
	}
	defer stderr.Close()
	command := exec.CommandContext(ctx, P.exe, config)
	command.Dir = P.workDir
	command.Stdout = stdout
	command.Stderr = stderr
	log.Printf("Running %s %s in %s", P.exe, config, P.workDir)
	if err := command.Run(); err != nil {
		return Error{fmt.Sprintf("NAMD run failed: %s", err), P.path(".err"), []string{"exec.Run", "Start"}, true, err}
	}
	return nil
}

// System returns the system with the final coordinates of the run, read from
// <name>_out.coor, and the topology and parameters of the input files. It
// returns ErrNoOutput if the run left no coordinates.
func (P *Process) System() (*chem.Molecule, error) {
	coor := P.path("_out.coor")
	if _, err := os.Stat(coor); err != nil {
		return nil, Error{"run produced no coordinates", coor, []string{"System"}, true, ErrNoOutput}
	}
	out, err := chem.PDBRead(coor)
	if err != nil {
		return nil, errDecorate(err, "System")
	}
	top, err := charmm.ReadPSF(P.psfFile)
	if err != nil {
		return nil, errDecorate(err, "System")
	}
	params, err := charmm.ReadPRM(P.paramFile)
	if err != nil {
		return nil, errDecorate(err, "System")
	}
	if err := params.Assign(top); err != nil {
		return nil, errDecorate(err, "System")
	}
	top.SetCharge(P.system.Charge())
	top.SetMulti(P.system.Multi())
	mol, err := chem.NewMolecule(top, out.Coords)
	if err != nil {
		return nil, Error{err.Error(), coor, []string{"chem.NewMolecule", "System"}, true, err}
	}
	return mol, nil
}

// Records reads the energy records that NAMD printed to <name>.out.
func (P *Process) Records() (*Records, error) {
	f, err := os.Open(P.path(".out"))
	if err != nil {
		return nil, Error{err.Error(), P.path(".out"), []string{"os.Open", "Records"}, true, err}
	}
	defer f.Close()
	rec, err := ReadRecords(f)
	if err != nil {
		return nil, Error{err.Error(), P.path(".out"), []string{"ReadRecords", "Records"}, true, err}
	}
	return rec, nil
}
