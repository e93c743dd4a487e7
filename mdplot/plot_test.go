/*
 * plot_test.go, part of simspace.
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

package mdplot

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rmera/simspace/namd"
)

const namdLog = `Info: NAMD
ETITLE:      TS           BOND          ANGLE          TOTAL           TEMP
ENERGY:       0         5.1000         7.2000       -90.0000       300.0000
ENERGY:     100         4.9000         7.0000       -92.5000       301.2000
ENERGY:     200         5.3000         6.8000       -91.0000       299.5000
WallClock: 1.0
`

func TestPlotRecords(Te *testing.T) {
	rec, err := namd.ReadRecords(strings.NewReader(namdLog))
	if err != nil {
		Te.Fatal(err)
	}
	for _, ext := range []string{".png", ".svg"} {
		name := filepath.Join(Te.TempDir(), "energies"+ext)
		if err := PlotRecords(rec, "TS", []string{"BOND", "ANGLE", "TOTAL"}, "Energies", name); err != nil {
			Te.Fatal(err)
		}
		if info, err := os.Stat(name); err != nil || info.Size() == 0 {
			Te.Errorf("Plot %s not written: %v", name, err)
		}
	}
	missing := filepath.Join(Te.TempDir(), "e.png")
	err = PlotRecords(rec, "TS", []string{"VDW"}, "Energies", missing)
	var e Error
	if !errors.As(err, &e) {
		Te.Fatalf("Plotting a missing quantity should give an Error, got %v", err)
	}
	if e.FileName() != missing || !e.Critical() {
		Te.Errorf("Unexpected error for a missing quantity: %v", e)
	}
	if _, err := os.Stat(missing); err == nil {
		Te.Errorf("Plot written despite the error")
	}
	if err := PlotRecords(rec, "TS", []string{"TOTAL"}, "Energies", filepath.Join(Te.TempDir(), "e.unknown")); err == nil {
		Te.Errorf("Saving to an unknown format should be an error")
	}
	if err := PlotRecords(rec, "TS", nil, "Energies", filepath.Join(Te.TempDir(), "e.png")); err == nil {
		Te.Errorf("Plotting nothing should be an error")
	}
}

func TestColors(Te *testing.T) {
	seen := make(map[[3]uint8]bool)
	for i := 0; i < 5; i++ {
		r, g, b := colors(i, 5)
		seen[[3]uint8{r, g, b}] = true
	}
	if len(seen) != 5 {
		Te.Errorf("Expected 5 different colors, got %d", len(seen))
	}
}
