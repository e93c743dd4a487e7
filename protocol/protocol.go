/*
 * protocol.go, part of simspace.
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

// Package protocol describes what a simulation engine should do with a
// system: a minimisation, an equilibration, or a run with a pre-built
// configuration. Protocols can be built in Go or read from HCL files.
package protocol

import (
	"log"
	"math"
)

// Kind identifies the type of a Protocol.
type Kind int

const (
	KindMinimisation Kind = iota
	KindEquilibration
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindMinimisation:
		return "minimisation"
	case KindEquilibration:
		return "equilibration"
	case KindCustom:
		return "custom"
	}
	return "unknown"
}

// Protocol is implemented by Minimisation, Equilibration and Custom.
type Protocol interface {
	Kind() Kind
}

// TimeStep is the integration time step, in ps, used by equilibrations.
const TimeStep = 0.002

const (
	defMinSteps    = 10000
	defTemperature = 300.0
	defRuntime     = 200.0
)

// Minimisation is an energy minimisation.
type Minimisation struct {
	Steps       int     //maximum number of steps
	Temperature float64 //K, used to initialise velocities
}

// NewMinimisation returns a minimisation protocol. Invalid values are
// replaced by the defaults.
func NewMinimisation(steps int, temperature float64) Minimisation {
	m := Minimisation{Steps: steps, Temperature: temperature}
	m.Check()
	return m
}

func (m Minimisation) Kind() Kind { return KindMinimisation }

// SetDefaults sets 10000 steps and 300 K.
func (m *Minimisation) SetDefaults() {
	m.Steps = defMinSteps
	m.Temperature = defTemperature
}

// Check replaces invalid values with the defaults, logging each replacement.
func (m *Minimisation) Check() {
	if m.Steps <= 0 {
		log.Printf("Invalid number of minimisation steps %d. Will use the default: %d", m.Steps, defMinSteps)
		m.Steps = defMinSteps
	}
	if m.Temperature < 0 {
		log.Printf("Invalid temperature %5.1f. Will use the default: %5.1f", m.Temperature, defTemperature)
		m.Temperature = defTemperature
	}
}

// Equilibration is a constant pressure run, possibly heating or cooling the
// system from TemperatureStart to TemperatureEnd.
type Equilibration struct {
	Runtime          float64 //ps
	TemperatureStart float64 //K
	TemperatureEnd   float64 //K
	Restrained       bool    //restrain the backbone, or the heavy atoms if there is no backbone.
}

// NewEquilibration returns an equilibration protocol. Invalid values are
// replaced by the defaults.
func NewEquilibration(runtime, tstart, tend float64, restrained bool) Equilibration {
	e := Equilibration{Runtime: runtime, TemperatureStart: tstart, TemperatureEnd: tend, Restrained: restrained}
	e.Check()
	return e
}

func (e Equilibration) Kind() Kind { return KindEquilibration }

// SetDefaults sets a 200 ps unrestrained run at 300 K.
func (e *Equilibration) SetDefaults() {
	e.Runtime = defRuntime
	e.TemperatureStart = defTemperature
	e.TemperatureEnd = defTemperature
	e.Restrained = false
}

// Check replaces invalid values with the defaults, logging each replacement.
func (e *Equilibration) Check() {
	if e.Runtime <= 0 {
		log.Printf("Invalid runtime %5.3f ps. Will use the default: %5.3f ps", e.Runtime, defRuntime)
		e.Runtime = defRuntime
	}
	if e.TemperatureStart < 0 {
		log.Printf("Invalid starting temperature %5.1f. Will use the default: %5.1f", e.TemperatureStart, defTemperature)
		e.TemperatureStart = defTemperature
	}
	if e.TemperatureEnd < 0 {
		log.Printf("Invalid final temperature %5.1f. Will use the default: %5.1f", e.TemperatureEnd, defTemperature)
		e.TemperatureEnd = defTemperature
	}
}

// IsConstantTemp returns true if the starting and final temperatures are the same.
func (e Equilibration) IsConstantTemp() bool {
	return e.TemperatureStart == e.TemperatureEnd
}

// Steps returns the smallest number of steps of size timestep (ps) needed to
// cover the runtime. Ratios within 1e-9 (relative) of an integer are not rounded
// up, so 0.2 ps with 0.002 ps steps gives 100 steps, not 101.
func (e Equilibration) Steps(timestep float64) int {
	r := e.Runtime / timestep
	if n := math.Round(r); math.Abs(r-n) <= 1e-9*n {
		return int(n)
	}
	return int(math.Ceil(r))
}

// Custom runs the engine with a configuration file prepared by the user.
type Custom struct {
	Config string //path to the configuration file
}

func (c Custom) Kind() Kind { return KindCustom }
