/*
 * plot.go, part of simspace.
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

// Package mdplot plots the energy records of simulations.
package mdplot

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Columner is implemented by sets of records, such as namd.Records, that return
// the values of a quantity given its title.
type Columner interface {
	Column(title string) ([]float64, error)
}

// PlotRecords plots the quantities with titles yTitles against the quantity xTitle,
// one line each, and saves the plot to filename. The format is taken from the
// extension of filename (png, svg, pdf, eps, jpg or tif).
func PlotRecords(rec Columner, xTitle string, yTitles []string, title, filename string) error {
	if len(yTitles) == 0 {
		return Error{"no quantities to plot", filename, []string{"PlotRecords"}, true, nil}
	}
	x, err := rec.Column(xTitle)
	if err != nil {
		return Error{err.Error(), filename, []string{"Column", "PlotRecords"}, true, err}
	}
	p := plot.New()
	p.Title.Text = title
	p.Title.Padding = 3 * vg.Millimeter
	p.X.Label.Text = xTitle
	if len(yTitles) == 1 {
		p.Y.Label.Text = yTitles[0]
	}
	p.Add(plotter.NewGrid())
	for k, t := range yTitles {
		y, err := rec.Column(t)
		if err != nil {
			return Error{err.Error(), filename, []string{"Column", "PlotRecords"}, true, err}
		}
		if len(y) != len(x) {
			return Error{fmt.Sprintf("%d values of %s for %d values of %s", len(y), t, len(x), xTitle), filename, []string{"PlotRecords"}, true, nil}
		}
		pts := make(plotter.XYs, len(x))
		for i := range x {
			pts[i].X = x[i]
			pts[i].Y = y[i]
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return Error{fmt.Sprintf("%s: %s", t, err), filename, []string{"plotter.NewLine", "PlotRecords"}, true, err}
		}
		r, g, b := colors(k, len(yTitles))
		l.LineStyle.Color = color.RGBA{R: r, G: g, B: b, A: 255}
		l.LineStyle.Width = vg.Points(1)
		p.Add(l)
		p.Legend.Add(t, l)
	}
	p.Legend.Top = true
	if err := p.Save(6*vg.Inch, 4*vg.Inch, filename); err != nil {
		return Error{err.Error(), filename, []string{"plot.Save", "PlotRecords"}, true, err}
	}
	return nil
}

// takes hue (0-360), v and s (0-1), returns r,g,b (0-255)
func iHVS2RGB(h, v, s float64) (uint8, uint8, uint8) {
	conversion := 255.0 * v
	if s == 0.0 {
		return uint8(conversion), uint8(conversion), uint8(conversion)
	}
	h = h / 60
	i := math.Floor(h)
	f := h - i
	p := 1 - s
	q := 1 - s*f
	t := 1 - s*(1-f)
	var r, g, b float64
	switch int(i) {
	case 0:
		r, g, b = 1, t, p
	case 1:
		r, g, b = q, 1, p
	case 2:
		r, g, b = p, 1, t
	case 3:
		r, g, b = p, q, 1
	case 4:
		r, g, b = t, p, 1
	default:
		r, g, b = 1, p, q
	}
	return uint8(r * conversion), uint8(g * conversion), uint8(b * conversion)
}

// colors spreads steps colors over the hue range, skipping yellows.
func colors(key, steps int) (r, g, b uint8) {
	hp := float64(key)*260.0/float64(steps) + 20.0
	h := hp + 20.0
	if hp < 55 {
		h = hp - 20.0
	}
	return iHVS2RGB(h, 0.9, 1.0)
}
