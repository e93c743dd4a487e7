/*
 * hcl.go, part of simspace.
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
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// A protocol file contains exactly one of these blocks, for instance:
//
//	equilibration {
//	  runtime           = 100
//	  temperature_start = 0
//	  temperature_end   = var.temperature
//	  restrained        = true
//	}
//
// Omitted attributes take the default values.
type fileConfig struct {
	Minimisation  []*minimisationBlock  `hcl:"minimisation,block"`
	Equilibration []*equilibrationBlock `hcl:"equilibration,block"`
	Custom        []*customBlock        `hcl:"custom,block"`
}

type minimisationBlock struct {
	Steps       *int     `hcl:"steps,optional"`
	Temperature *float64 `hcl:"temperature,optional"`
}

type equilibrationBlock struct {
	Runtime          *float64 `hcl:"runtime,optional"`
	TemperatureStart *float64 `hcl:"temperature_start,optional"`
	TemperatureEnd   *float64 `hcl:"temperature_end,optional"`
	Restrained       *bool    `hcl:"restrained,optional"`
}

type customBlock struct {
	Config string `hcl:"config"`
}

// evalContext exposes vars to the file as var.<name>.
func evalContext(vars map[string]string) *hcl.EvalContext {
	v := make(map[string]cty.Value, len(vars))
	for k, val := range vars {
		v[k] = cty.StringVal(val)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"var": cty.ObjectVal(v),
		},
	}
}

// LoadFile reads a protocol from the HCL file at path. The variables in vars can be
// referenced in the file as var.<name>. The config path of a custom protocol is taken
// as relative to the directory of the file, unless it is absolute.
func LoadFile(path string, vars map[string]string) (Protocol, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, Error{err.Error(), path, []string{"os.ReadFile", "LoadFile"}, true, err}
	}
	p, err := Load(src, path, vars)
	if err != nil {
		return nil, errDecorate(err, "LoadFile")
	}
	if c, ok := p.(Custom); ok && !filepath.IsAbs(c.Config) {
		c.Config = filepath.Join(filepath.Dir(path), c.Config)
		p = c
	}
	return p, nil
}

// Load reads a protocol from the HCL text in src. filename is used only in
// error messages.
func Load(src []byte, filename string, vars map[string]string) (Protocol, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, Error{fmt.Sprintf("failed to parse protocol: %s", diags), filename, []string{"hclparse.ParseHCL", "Load"}, true, diags}
	}
	var fc fileConfig
	diags = gohcl.DecodeBody(f.Body, evalContext(vars), &fc)
	if diags.HasErrors() {
		return nil, Error{fmt.Sprintf("failed to decode protocol: %s", diags), filename, []string{"gohcl.DecodeBody", "Load"}, true, diags}
	}
	if n := len(fc.Minimisation) + len(fc.Equilibration) + len(fc.Custom); n != 1 {
		return nil, Error{fmt.Sprintf("expected exactly one protocol block, found %d", n), filename, []string{"Load"}, true, nil}
	}
	switch {
	case len(fc.Minimisation) == 1:
		b := fc.Minimisation[0]
		var m Minimisation
		m.SetDefaults()
		if b.Steps != nil {
			m.Steps = *b.Steps
		}
		if b.Temperature != nil {
			m.Temperature = *b.Temperature
		}
		m.Check()
		return m, nil
	case len(fc.Equilibration) == 1:
		b := fc.Equilibration[0]
		var e Equilibration
		e.SetDefaults()
		if b.Runtime != nil {
			e.Runtime = *b.Runtime
		}
		if b.TemperatureStart != nil {
			e.TemperatureStart = *b.TemperatureStart
		}
		if b.TemperatureEnd != nil {
			e.TemperatureEnd = *b.TemperatureEnd
		}
		if b.Restrained != nil {
			e.Restrained = *b.Restrained
		}
		e.Check()
		return e, nil
	}
	if fc.Custom[0].Config == "" {
		return nil, Error{"empty config path in custom protocol", filename, []string{"Load"}, true, nil}
	}
	return Custom{Config: fc.Custom[0].Config}, nil
}
