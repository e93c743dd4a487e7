/*
 * records.go, part of simspace.
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
	"strconv"
	"strings"
)

// Records are the energy records of a NAMD log. Rows[i][j] is the value of the
// quantity Titles[j] in the i-th record.
type Records struct {
	Titles []string
	Rows   [][]float64
}

// Len returns the number of records.
func (R *Records) Len() int { return len(R.Rows) }

// Column returns the values of the quantity with the given title (for instance
// "TS", "TOTAL" or "TEMP") in all records.
func (R *Records) Column(title string) ([]float64, error) {
	for j, t := range R.Titles {
		if t != title {
			continue
		}
		ret := make([]float64, len(R.Rows))
		for i, row := range R.Rows {
			ret[i] = row[j]
		}
		return ret, nil
	}
	return nil, Error{fmt.Sprintf("no %q column in records", title), "", []string{"Column"}, true, nil}
}

// ReadRecords parses the ETITLE: and ENERGY: lines of a NAMD log. Energy lines
// before the first title line are ignored. Minimisation and dynamics records
// share the same titles, so all of them are returned.
func ReadRecords(r io.Reader) (*Records, error) {
	rec := new(Records)
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineno := 0
	for s.Scan() {
		lineno++
		line := s.Text()
		switch {
		case strings.HasPrefix(line, "ETITLE:"):
			titles := strings.Fields(line)[1:]
			if rec.Titles != nil && strings.Join(titles, " ") != strings.Join(rec.Titles, " ") {
				return nil, fmt.Errorf("line %d: energy titles changed", lineno)
			}
			rec.Titles = titles
		case strings.HasPrefix(line, "ENERGY:"):
			if rec.Titles == nil {
				continue
			}
			f := strings.Fields(line)[1:]
			if len(f) != len(rec.Titles) {
				return nil, fmt.Errorf("line %d: %d values for %d titles", lineno, len(f), len(rec.Titles))
			}
			row := make([]float64, len(f))
			for i, v := range f {
				var err error
				if row[i], err = strconv.ParseFloat(v, 64); err != nil {
					return nil, fmt.Errorf("line %d: %w", lineno, err)
				}
			}
			rec.Rows = append(rec.Rows, row)
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	if rec.Titles == nil {
		return nil, fmt.Errorf("no energy records found")
	}
	return rec, nil
}
