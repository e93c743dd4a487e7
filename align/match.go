/*
 * match.go, part of simspace.
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

package align

import (
	"context"
	"log"
	"math"
	"sort"
	"time"

	chem "github.com/rmera/simspace"
	"github.com/rmera/simspace/chemgraph"
	v3 "github.com/rmera/simspace/v3"
	"gonum.org/v1/gonum/graph"
)

// Scoring selects how mappings of the same size are ranked.
type Scoring int

const (
	// ScoreRMSDAlign ranks mappings by the RMSD of the mapped atoms after superimposing them.
	ScoreRMSDAlign Scoring = iota
	// ScoreRMSD ranks mappings by the RMSD of the mapped atoms as they are.
	ScoreRMSD
)

const (
	defTimeout    = 5 * time.Second
	defMaxMatches = 20
)

const (
	maxTerminalGroup = 5 //larger groups of terminal atoms are not permuted.
	maxSettlePasses  = 5
)

// MatchOptions contains the options for MatchAtoms.
type MatchOptions struct {
	Prematch          map[int]int   //pairs that must be in the mapping.
	Timeout           time.Duration //the search returns the best mappings found so far after this time.
	Scoring           Scoring
	CompleteRingsOnly bool //rings must be mapped completely, or not at all.
	MaxMatches        int  //maximum number of mappings of the largest size that are scored.
}

// DefaultMatchOptions returns the default options: a 5 s timeout, scoring by RMSD
// after alignment, only complete rings and up to 20 mappings scored.
func DefaultMatchOptions() *MatchOptions {
	return &MatchOptions{Timeout: defTimeout, Scoring: ScoreRMSDAlign, CompleteRingsOnly: true, MaxMatches: defMaxMatches}
}

func (O *MatchOptions) check() {
	if O.Timeout <= 0 {
		log.Printf("Invalid matching timeout %v. Will use the default: %v", O.Timeout, defTimeout)
		O.Timeout = defTimeout
	}
	if O.MaxMatches <= 0 {
		log.Printf("Invalid maximum number of matches %d. Will use the default: %d", O.MaxMatches, defMaxMatches)
		O.MaxMatches = defMaxMatches
	}
	if O.Scoring != ScoreRMSD && O.Scoring != ScoreRMSDAlign {
		log.Printf("Invalid scoring %d. Will score by RMSD after alignment", O.Scoring)
		O.Scoring = ScoreRMSDAlign
	}
}

// MatchAtoms returns the largest mapping between the atoms of m0 and those of m1 (map keys
// are m0 indexes) such that mapped atoms are of the same element, and two mapped atoms are
// bonded in m0 only if their images are bonded in m1. The mapped atoms form a connected
// fragment. Among mappings of the same size, the best according to the scoring option is
// returned. The mapping always contains every pair in the pre-match, and the search grows
// from them if given. Pre-matches with indexes out of range, or mapping two atoms to the
// same one, give an error matching ErrValidation.
// If the search doesn't finish within the timeout, or ctx is cancelled, the best mapping
// found up to then is returned. If options is nil, the defaults are used.
func MatchAtoms(ctx context.Context, m0, m1 *chem.Molecule, options *MatchOptions) (map[int]int, error) {
	var o MatchOptions
	if options == nil {
		o = *DefaultMatchOptions()
	} else {
		o = *options
		o.check()
	}
	if err := validate(o.Prematch, m0.Len(), m1.Len(), "MatchAtoms"); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, o.Timeout)
	defer cancel()
	s := newSearch(ctx, m0.Topology, m1.Topology, o.Prematch, o.MaxMatches)
	s.run()
	if s.stopped {
		log.Printf("Atom matching stopped before finishing, using the best of %d mappings found", len(s.found))
	}
	g0 := chemgraph.FromTopology(m0.Topology)
	g1 := chemgraph.FromTopology(m1.Topology)
	f := &filter{
		prematch: o.Prematch,
		top0:     m0.Topology,
		g0:       g0,
		rings0:   chemgraph.Rings(g0),
		rings1:   chemgraph.Rings(g1),
		complete: o.CompleteRingsOnly,
	}
	cands := s.found
	if len(cands) == 0 {
		cands = []map[int]int{copyMap(o.Prematch)}
	}
	type scored struct {
		m     map[int]int
		keys  []int
		score float64
	}
	neigh0 := m0.Topology.Neighbors()
	neigh1 := m1.Topology.Neighbors()
	ranked := make([]scored, 0, len(cands))
	for _, c := range cands {
		m := f.apply(c)
		groups := terminalGroups(m0.Topology, neigh0, neigh1, m, o.Prematch)
		m, sc := settleTerminals(m0.Coords, m1.Coords, m, groups, o.Scoring)
		ranked = append(ranked, scored{m, sortedKeys(m), sc})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if len(a.m) != len(b.m) {
			return len(a.m) > len(b.m)
		}
		if a.score != b.score {
			return a.score < b.score
		}
		for k := range a.keys {
			if a.keys[k] != b.keys[k] {
				return a.keys[k] < b.keys[k]
			}
			if va, vb := a.m[a.keys[k]], b.m[b.keys[k]]; va != vb {
				return va < vb
			}
		}
		return false
	})
	return ranked[0].m, nil
}

func copyMap(m map[int]int) map[int]int {
	ret := make(map[int]int, len(m))
	for k, v := range m {
		ret[k] = v
	}
	return ret
}

// score returns the RMSD between the atoms of c0 and their images in c1, after
// superimposing them if scoring asks for it. The empty mapping has an infinite score.
func score(c0, c1 *v3.Matrix, m map[int]int, scoring Scoring) float64 {
	if len(m) == 0 {
		return math.Inf(1)
	}
	l0 := sortedKeys(m)
	l1 := make([]int, len(l0))
	for i, k := range l0 {
		l1[i] = m[k]
	}
	if scoring == ScoreRMSDAlign {
		sup, err := chem.Super(c0, c1, l0, l1)
		if err != nil {
			return math.Inf(1)
		}
		c0 = sup
	}
	t0 := v3.Zeros(len(l0))
	t0.SomeVecs(c0, l0)
	t1 := v3.Zeros(len(l1))
	t1.SomeVecs(c1, l1)
	rmsd, err := chem.RMSD(t0, t1)
	if err != nil {
		return math.Inf(1)
	}
	return rmsd
}

// terminalGroups returns, for each mapped atom of the first molecule, the sets of its
// terminal neighbours of the same element whose images are terminal too. The images
// within a set can be permuted without breaking any bond. Pre-matched atoms are left out.
func terminalGroups(top0 *chem.Topology, neigh0, neigh1 [][]int, m, prematch map[int]int) [][]int {
	var ret [][]int
	for _, p := range sortedKeys(m) {
		bySym := make(map[string][]int)
		var syms []string
		for _, t := range neigh0[p] {
			if len(neigh0[t]) != 1 {
				continue
			}
			if _, pre := prematch[t]; pre {
				continue
			}
			j, ok := m[t]
			if !ok || len(neigh1[j]) != 1 {
				continue
			}
			sym := top0.Atom(t).Symbol
			if _, ok := bySym[sym]; !ok {
				syms = append(syms, sym)
			}
			bySym[sym] = append(bySym[sym], t)
		}
		for _, sym := range syms {
			if g := bySym[sym]; len(g) > 1 && len(g) <= maxTerminalGroup {
				ret = append(ret, g)
			}
		}
	}
	return ret
}

// permutations calls fn for each ordering of v[k:]. v is permuted in place, and
// left as it was when permutations returns.
func permutations(v []int, k int, fn func()) {
	if k >= len(v)-1 {
		fn()
		return
	}
	for i := k; i < len(v); i++ {
		v[k], v[i] = v[i], v[k]
		permutations(v, k+1, fn)
		v[k], v[i] = v[i], v[k]
	}
}

// settleTerminals permutes the images of each group of interchangeable terminal atoms
// in m, one group at a time, keeping the permutations that lower the score, until a
// pass brings no improvement. It returns the resulting mapping and its score.
func settleTerminals(c0, c1 *v3.Matrix, m map[int]int, groups [][]int, scoring Scoring) (map[int]int, float64) {
	best := score(c0, c1, m, scoring)
	if len(groups) == 0 {
		return m, best
	}
	m = copyMap(m)
	for pass := 0; pass < maxSettlePasses; pass++ {
		improved := false
		for _, g := range groups {
			imgs := make([]int, len(g))
			for k, t := range g {
				imgs[k] = m[t]
			}
			bestImgs := append([]int(nil), imgs...)
			permutations(imgs, 0, func() {
				for k, t := range g {
					m[t] = imgs[k]
				}
				if sc := score(c0, c1, m, scoring); sc < best-1e-9 {
					best = sc
					copy(bestImgs, imgs)
					improved = true
				}
			})
			for k, t := range g {
				m[t] = bestImgs[k]
			}
		}
		if !improved {
			break
		}
	}
	return m, best
}

// states of the atoms of the first molecule during the search.
const (
	undecided int8 = iota
	mapped
	excluded
)

// search finds the largest connected mappings by depth-first search. At each
// step it takes an undecided atom bonded to the mapped fragment, and either maps
// it to each compatible atom, or excludes it. Branches that can't reach the
// size of the best mapping found are dropped.
type search struct {
	ctx     context.Context
	elem0   []int
	elem1   []int
	heavy0  []bool
	neigh0  [][]int
	neigh1  [][]int
	adj0    [][]bool
	m       []int //first to second molecule, -1 if unmapped
	inv     []int
	state   []int8
	und0    []int //undecided atoms per element, first molecule
	free1   []int //unmapped atoms per element, second molecule
	size    int
	best    int
	found   []map[int]int
	max     int
	nodes   int
	stopped bool
	seeds   []map[int]int
}

func adjacency(neigh [][]int) [][]bool {
	ret := make([][]bool, len(neigh))
	for i, n := range neigh {
		ret[i] = make([]bool, len(neigh))
		for _, j := range n {
			ret[i][j] = true
		}
	}
	return ret
}

func newSearch(ctx context.Context, top0, top1 *chem.Topology, prematch map[int]int, max int) *search {
	s := &search{ctx: ctx, max: max}
	elems := make(map[string]int)
	id := func(sym string) int {
		if v, ok := elems[sym]; ok {
			return v
		}
		elems[sym] = len(elems)
		return elems[sym]
	}
	s.elem0 = make([]int, top0.Len())
	s.heavy0 = make([]bool, top0.Len())
	for i, at := range top0.Atoms {
		s.elem0[i] = id(at.Symbol)
		s.heavy0[i] = at.Symbol != "H"
	}
	s.elem1 = make([]int, top1.Len())
	for i, at := range top1.Atoms {
		s.elem1[i] = id(at.Symbol)
	}
	s.neigh0 = top0.Neighbors()
	s.neigh1 = top1.Neighbors()
	s.adj0 = adjacency(s.neigh0)
	s.m = make([]int, top0.Len())
	s.state = make([]int8, top0.Len())
	s.inv = make([]int, top1.Len())
	s.und0 = make([]int, len(elems))
	s.free1 = make([]int, len(elems))
	for i := range s.m {
		s.m[i] = -1
		s.und0[s.elem0[i]]++
	}
	for j := range s.inv {
		s.inv[j] = -1
		s.free1[s.elem1[j]]++
	}
	if len(prematch) > 0 {
		s.seeds = []map[int]int{prematch}
	}
	return s
}

func (s *search) assign(i, j int) {
	s.m[i], s.inv[j] = j, i
	s.state[i] = mapped
	s.und0[s.elem0[i]]--
	s.free1[s.elem1[j]]--
	s.size++
}

func (s *search) unassign(i, j int) {
	s.m[i], s.inv[j] = -1, -1
	s.state[i] = undecided
	s.und0[s.elem0[i]]++
	s.free1[s.elem1[j]]++
	s.size--
}

func (s *search) exclude(i int) {
	s.state[i] = excluded
	s.und0[s.elem0[i]]--
}

func (s *search) include(i int) {
	s.state[i] = undecided
	s.und0[s.elem0[i]]++
}

// bound is the largest size that the current mapping can grow to.
func (s *search) bound() int {
	b := s.size
	for e, n := range s.und0 {
		if s.free1[e] < n {
			n = s.free1[e]
		}
		b += n
	}
	return b
}

// next returns the undecided atom, bonded to the mapped fragment, to decide on
// next. Heavy atoms go first. It returns -1 if there is none.
func (s *search) next() int {
	first := -1
	for i, st := range s.state {
		if st != undecided {
			continue
		}
		for _, a := range s.neigh0[i] {
			if s.state[a] != mapped {
				continue
			}
			if s.heavy0[i] {
				return i
			}
			if first < 0 {
				first = i
			}
			break
		}
	}
	return first
}

// candidates returns the atoms of the second molecule that i can be mapped to,
// keeping the bonds between mapped atoms. Terminal atoms of the same element
// on the same parent are equivalent, so only one of them is returned. Which of
// them each atom ends up mapped to is settled by settleTerminals.
func (s *search) candidates(i int) []int {
	anchor := -1
	nmapped := 0
	for _, a := range s.neigh0[i] {
		if s.state[a] == mapped {
			nmapped++
			if anchor < 0 {
				anchor = a
			}
		}
	}
	if anchor < 0 {
		return nil
	}
	ret := make([]int, 0, 4)
	terminal := make(map[[2]int]bool)
	for _, j := range s.neigh1[s.m[anchor]] {
		if s.inv[j] >= 0 || s.elem1[j] != s.elem0[i] {
			continue
		}
		n := 0
		ok := true
		for _, b := range s.neigh1[j] {
			if a := s.inv[b]; a >= 0 {
				if !s.adj0[i][a] {
					ok = false
					break
				}
				n++
			}
		}
		if !ok || n != nmapped {
			continue
		}
		if len(s.neigh1[j]) == 1 {
			key := [2]int{s.neigh1[j][0], s.elem1[j]}
			if terminal[key] {
				continue
			}
			terminal[key] = true
		}
		ret = append(ret, j)
	}
	return ret
}

// record stores the current mapping if it is at least as large as the best one.
func (s *search) record() {
	if s.size < s.best || s.size == 0 {
		return
	}
	if s.size > s.best {
		s.best = s.size
		s.found = s.found[:0]
	}
	if len(s.found) >= s.max {
		return
	}
	m := make(map[int]int, s.size)
	for i, j := range s.m {
		if j >= 0 {
			m[i] = j
		}
	}
	s.found = append(s.found, m)
}

func (s *search) dfs() {
	if s.stopped {
		return
	}
	s.nodes++
	if s.nodes%256 == 0 && s.ctx.Err() != nil {
		s.stopped = true
		return
	}
	b := s.bound()
	if b < s.best || (b == s.best && len(s.found) >= s.max) {
		return
	}
	i := s.next()
	if i < 0 {
		s.record()
		return
	}
	for _, j := range s.candidates(i) {
		s.assign(i, j)
		s.dfs()
		s.unassign(i, j)
		if s.stopped {
			return
		}
	}
	s.exclude(i)
	s.dfs()
	s.include(i)
}

func (s *search) run() {
	if s.seeds != nil {
		for _, seed := range s.seeds {
			for i, j := range seed {
				s.assign(i, j)
			}
			s.dfs()
		}
		return
	}
	//Every connected mapping is found from the seed with its first atom in
	//this order, so the atoms of earlier seeds are excluded.
	order := make([]int, 0, len(s.m))
	for i := range s.m {
		if s.heavy0[i] {
			order = append(order, i)
		}
	}
	for i := range s.m {
		if !s.heavy0[i] {
			order = append(order, i)
		}
	}
	for _, i := range order {
		for j := range s.inv {
			if s.elem1[j] != s.elem0[i] {
				continue
			}
			s.assign(i, j)
			s.dfs()
			s.unassign(i, j)
			if s.stopped {
				return
			}
		}
		s.exclude(i)
	}
}

// filter removes from a mapping the partially mapped rings, the hydrogens that
// lost their parent atom, and all but the largest connected fragment. Pre-matched
// atoms are always kept.
type filter struct {
	prematch map[int]int
	top0     *chem.Topology
	g0       graph.Undirected
	rings0   []chemgraph.Ring
	rings1   []chemgraph.Ring
	complete bool
}

func (f *filter) apply(m map[int]int) map[int]int {
	ret := copyMap(m)
	remove := func(i int) bool {
		if _, ok := f.prematch[i]; ok {
			return false
		}
		if _, ok := ret[i]; !ok {
			return false
		}
		delete(ret, i)
		return true
	}
	if f.complete {
		for changed := true; changed; {
			changed = false
			for _, r := range f.rings0 {
				n := 0
				for _, i := range r {
					if _, ok := ret[i]; ok {
						n++
					}
				}
				if n > 0 && n < len(r) {
					for _, i := range r {
						changed = remove(i) || changed
					}
				}
			}
			inv := make(map[int]int, len(ret))
			for k, v := range ret {
				inv[v] = k
			}
			for _, r := range f.rings1 {
				n := 0
				for _, j := range r {
					if _, ok := inv[j]; ok {
						n++
					}
				}
				if n > 0 && n < len(r) {
					for _, j := range r {
						if i, ok := inv[j]; ok {
							changed = remove(i) || changed
						}
					}
				}
			}
		}
	}
	neigh := f.top0.Neighbors()
	for _, i := range sortedKeys(m) {
		if f.top0.Atom(i).Symbol != "H" {
			continue
		}
		for _, a := range neigh[i] {
			_, was := m[a]
			_, is := ret[a]
			if was && !is {
				remove(i)
			}
		}
	}
	comps := chemgraph.Components(f.g0, sortedKeys(ret))
	if len(comps) <= 1 {
		return ret
	}
	keep := make(map[int]bool)
	for k, c := range comps {
		pre := false
		for _, i := range c {
			if _, ok := f.prematch[i]; ok {
				pre = true
				break
			}
		}
		if k == 0 || pre {
			for _, i := range c {
				keep[i] = true
			}
		}
	}
	for _, i := range sortedKeys(ret) {
		if !keep[i] {
			delete(ret, i)
		}
	}
	return ret
}
