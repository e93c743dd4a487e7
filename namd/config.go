/*
 * config.go, part of simspace.
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

package namd

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"

	chem "github.com/rmera/simspace"
	"github.com/rmera/simspace/protocol"
)

// RestraintK is the force constant, in kcal/mol/A^2, of the positional restraints
// of restrained equilibrations.
const RestraintK = 10.0

// backbone atom names, for restraints.
var backbone = map[string]bool{"N": true, "CA": true, "C": true, "O": true}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// restrained returns the force constants of the restraints for each atom of
// the system: the backbone atoms if there are any, all heavy atoms otherwise.
func restrained(top *chem.Topology) []float64 {
	k := make([]float64, top.Len())
	found := false
	for i, at := range top.Atoms {
		if backbone[at.Name] && !at.Het {
			k[i] = RestraintK
			found = true
		}
	}
	if found {
		return k
	}
	for i, at := range top.Atoms {
		if at.Symbol != "H" && at.Symbol != chem.DummySymbol {
			k[i] = RestraintK
		}
	}
	return k
}

func (P *Process) writeConfig() error {
	if e, ok := P.protocol.(protocol.Equilibration); ok && e.Restrained {
		P.restraintFile = P.path(".restraint.pdb")
		if err := chem.PDBWrite(P.restraintFile, P.system.Coords, P.system.Topology, restrained(P.system.Topology)); err != nil {
			return errDecorate(err, "writeConfig")
		}
		P.inputFiles = append(P.inputFiles, P.restraintFile)
	}
	f, err := os.Create(P.configFile)
	if err != nil {
		return Error{err.Error(), P.configFile, []string{"os.Create", "writeConfig"}, true, err}
	}
	w := bufio.NewWriter(f)
	err = P.config(w)
	if err == nil {
		err = w.Flush()
	}
	cerr := f.Close()
	if err == nil {
		err = cerr
	}
	if err != nil {
		return Error{err.Error(), P.configFile, []string{"writeConfig"}, true, err}
	}
	return nil
}

// config writes the NAMD configuration for the process protocol to w. File names
// are relative to the working directory.
func (P *Process) config(w io.Writer) error {
	fmt.Fprintf(w, "structure             %s.psf\n", P.name)
	fmt.Fprintf(w, "coordinates           %s.pdb\n\n", P.name)
	if P.velFile != "" {
		fmt.Fprintf(w, "velocities            %s.vel\n\n", P.name)
	}
	fmt.Fprintf(w, "paraTypeCharmm        on\n")
	fmt.Fprintf(w, "parameters            %s.params\n\n", P.name)

	//non-bonded
	fmt.Fprintf(w, "exclude               scaled1-4\n")
	fmt.Fprintf(w, "switching             on\n")
	fmt.Fprintf(w, "switchdist            10.\n")
	fmt.Fprintf(w, "cutoff                12.\n\n")

	//periodic boundary conditions
	b, o := P.boxSize, P.boxOrigin
	fmt.Fprintf(w, "cellBasisVector1     %.1f   0.    0.\n", b.X)
	fmt.Fprintf(w, "cellBasisVector2      0.   %.1f   0.\n", b.Y)
	fmt.Fprintf(w, "cellBasisVector3      0.    0.   %.1f\n", b.Z)
	fmt.Fprintf(w, "cellOrigin            %.1f   %.1f   %.1f\n", o.X, o.Y, o.Z)
	fmt.Fprintf(w, "wrapAll               on\n\n")

	fmt.Fprintf(w, "PME                   yes\n")
	fmt.Fprintf(w, "PMEGridSpacing        1.\n\n")

	fmt.Fprintf(w, "outputName            %s_out\n", P.name)
	fmt.Fprintf(w, "binaryOutput          no\n\n")
	fmt.Fprintf(w, "restartfreq           500\n")
	fmt.Fprintf(w, "dcdfreq               500\n")
	fmt.Fprintf(w, "xstFreq               500\n\n")
	fmt.Fprintf(w, "outputEnergies        100\n")
	fmt.Fprintf(w, "outputTiming          1000\n\n")

	switch p := P.protocol.(type) {
	case protocol.Minimisation:
		fmt.Fprintf(w, "temperature           %s\n\n", ftoa(p.Temperature))
		fmt.Fprintf(w, "minimize              %d\n", p.Steps)
	case protocol.Equilibration:
		P.equilibration(w, p)
	default:
		return fmt.Errorf("can't write a configuration for a %s protocol", P.protocol.Kind())
	}
	return nil
}

func (P *Process) equilibration(w io.Writer, p protocol.Equilibration) {
	fmt.Fprintf(w, "set temperature       %s\n", ftoa(p.TemperatureStart))
	fmt.Fprintf(w, "temperature           $temperature\n\n")

	//integrator
	fmt.Fprintf(w, "timestep              2.\n")
	fmt.Fprintf(w, "rigidBonds            all\n")
	fmt.Fprintf(w, "nonbondedFreq         1\n")
	fmt.Fprintf(w, "fullElectFrequency    2\n\n")

	//thermostat
	fmt.Fprintf(w, "langevin              on\n")
	fmt.Fprintf(w, "langevinDamping       1.\n")
	fmt.Fprintf(w, "langevinTemp          $temperature\n")
	fmt.Fprintf(w, "langevinHydrogen      no\n\n")

	//barostat
	fmt.Fprintf(w, "langevinPiston        on\n")
	fmt.Fprintf(w, "langevinPistonTarget  1.01325\n")
	fmt.Fprintf(w, "langevinPistonPeriod  100.\n")
	fmt.Fprintf(w, "langevinPistonDecay   50.\n")
	fmt.Fprintf(w, "langevinPistonTemp    $temperature\n")
	fmt.Fprintf(w, "useGroupPressure      yes\n")
	fmt.Fprintf(w, "useFlexibleCell       no\n")
	fmt.Fprintf(w, "useConstantArea       no\n\n")

	if P.restraintFile != "" {
		ref := filepath.Base(P.restraintFile)
		fmt.Fprintf(w, "constraints           on\n")
		fmt.Fprintf(w, "consref               %s\n", ref)
		fmt.Fprintf(w, "conskfile             %s\n", ref)
		fmt.Fprintf(w, "conskcol              B\n\n")
	}

	//removes bad contacts before the dynamics.
	fmt.Fprintf(w, "minimize              1000\n\n")

	steps := p.Steps(protocol.TimeStep)
	if !p.IsConstantTemp() {
		//temperatures change in 1 K increments, every freq steps.
		delta := p.TemperatureEnd - p.TemperatureStart
		freq := int(math.Ceil(float64(steps) / math.Abs(delta)))
		incr := 1
		if delta < 0 {
			incr = -1
		}
		if freq < 1 {
			freq = 1
		}
		log.Printf("Temperature will go from %s to %s K, changing every %d steps", ftoa(p.TemperatureStart), ftoa(p.TemperatureEnd), freq)
		fmt.Fprintf(w, "reassignFreq          %d\n", freq)
		fmt.Fprintf(w, "reassignTemp          %s\n", ftoa(p.TemperatureStart))
		fmt.Fprintf(w, "reassignIncr          %d\n", incr)
		fmt.Fprintf(w, "reassignHold          %s\n", ftoa(p.TemperatureEnd))
	}
	fmt.Fprintf(w, "run                   %d\n", steps)
}
