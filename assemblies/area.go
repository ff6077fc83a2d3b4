// Copyright (c) 2025, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package assemblies

import (
	"sort"

	"github.com/emer/assemblies/synrand"
)

// Area is a named population of N units with firing quota K.  Sparse areas
// materialize units only when they first win a round: unit ids are assigned
// contiguously, so the support set is always [0, SupportN).  Explicit areas
// have all N units in support from creation.
type Area struct {
	Nm       string         `desc:"name of the area"`
	N        int            `desc:"total number of units"`
	K        int            `desc:"firing quota: number of winners selected per round"`
	Beta     float32        `desc:"default plasticity rate for incoming synapses: weight *= (1+Beta) on co-firing"`
	P        float32        `inactive:"+" desc:"connection probability, shared across the brain"`
	Explicit bool           `inactive:"+" desc:"all units and incoming synapses materialized up front"`
	Syn      synrand.Params `view:"inline" desc:"random synapse model parameters for unresolved units"`
	Ctx      *Context       `view:"-" desc:"per-area random context, derived from the brain seed"`

	SupportN       int     `inactive:"+" desc:"number of units ever materialized: winners or tracked candidates"`
	Winners        []int   `desc:"current round's winner unit ids, ascending"`
	SavedWinners   [][]int `view:"-" desc:"append-only history of committed winner sets, for convergence and overlap analysis"`
	Fixed          bool    `inactive:"+" desc:"assembly is fixed: winners held constant through projection rounds"`
	ExactFallbacks int     `inactive:"+" desc:"rounds in which the normal approximation disagreed beyond tolerance and winner sampling fell back to exact conditional draws"`
}

// NewArea returns a new area.  Validation of n, k, beta happens in
// Brain.AddArea, which is the only caller.
func NewArea(name string, n, k int, beta, p float32, explicit bool, ctx *Context) *Area {
	ar := &Area{Nm: name, N: n, K: k, Beta: beta, P: p, Explicit: explicit, Ctx: ctx}
	ar.Syn.Defaults()
	if explicit {
		ar.SupportN = n
	}
	return ar
}

func (ar *Area) Name() string { return ar.Nm }

// SupportSize returns the number of units ever materialized.
func (ar *Area) SupportSize() int { return ar.SupportN }

// FixAssembly freezes the current winner set: subsequent projections leave
// it unchanged (the area still projects and its winners still receive
// reinforcement).  The area must have winners to fix.
func (ar *Area) FixAssembly() error {
	if len(ar.Winners) == 0 {
		return cfgErrf("area %q has no winners to fix", ar.Nm)
	}
	ar.Fixed = true
	return nil
}

// UnfixAssembly releases a fixed assembly.
func (ar *Area) UnfixAssembly() {
	ar.Fixed = false
}

// ProjInput is the snapshot of one source feeding this area for one round:
// the connectome from the source and the source's active unit ids (all
// units for a stimulus, pre-round winners for an area).
type ProjInput struct {
	Conn   *Connectome
	Active []int
}

// WinnerChoice is the outcome of the compute phase: the winners to commit,
// plus the sampled input strengths of units materialized this round, which
// will take ids SupportN, SupportN+1, ... in order.
type WinnerChoice struct {
	Winners  []int     `desc:"new winner unit ids, ascending"`
	NewStr   []float32 `desc:"sampled input strengths of the newly materialized winners, in id order"`
	Fallback bool      `desc:"random synapse model hit its approximation tolerance and fell back to exact sampling this round"`
}

// candidate is one contender for a winner slot during selection.  New
// (not-yet-materialized) candidates carry provisional ids above SupportN.
type candidate struct {
	id  int
	str float32
	new bool
}

// ComputeNewWinners runs the pure compute phase of a projection round:
// accumulate input strength for every support unit across all sources,
// sample the top tail of the unresolved population, and select the top K
// by total strength, ties broken by lowest unit id.  It never mutates the
// area; CommitWinners applies the result after every implicated area has
// computed.
func (ar *Area) ComputeNewWinners(inputs []ProjInput) WinnerChoice {
	ch := WinnerChoice{}
	if ar.Fixed {
		ch.Winners = append([]int{}, ar.Winners...)
		return ch
	}
	total := 0
	for _, in := range inputs {
		total += len(in.Active)
	}
	cands := make([]candidate, 0, ar.SupportN+ar.K)
	for id := 0; id < ar.SupportN; id++ {
		var s float32
		for _, in := range inputs {
			s += in.Conn.StrengthTo(id, in.Active)
		}
		cands = append(cands, candidate{id: id, str: s})
	}
	if numCand := ar.N - ar.SupportN; numCand > 0 {
		tl := ar.Syn.TailSamples(ar.Ctx.Src, total, ar.P, numCand, min(ar.K, numCand))
		for i, v := range tl.Strengths {
			cands = append(cands, candidate{id: ar.SupportN + i, str: v, new: true})
		}
		ch.Fallback = tl.Fallback
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].str != cands[j].str {
			return cands[i].str > cands[j].str
		}
		return cands[i].id < cands[j].id
	})
	k := min(ar.K, len(cands))
	sel := cands[:k]

	// winning new candidates are compacted onto the next free unit ids,
	// in provisional-id order, so support stays contiguous
	var news []candidate
	for _, cd := range sel {
		if cd.new {
			news = append(news, cd)
		} else {
			ch.Winners = append(ch.Winners, cd.id)
		}
	}
	sort.Slice(news, func(i, j int) bool { return news[i].id < news[j].id })
	for j, cd := range news {
		ch.Winners = append(ch.Winners, ar.SupportN+j)
		ch.NewStr = append(ch.NewStr, cd.str)
	}
	sort.Ints(ch.Winners)
	return ch
}

// CommitWinners applies a computed winner choice: sets the winner set,
// grows support by the newly materialized units, and appends to the saved
// history.  A fresh slice is installed so snapshots of the previous winner
// set taken before the round remain valid.
func (ar *Area) CommitWinners(ch WinnerChoice) {
	ar.Winners = ch.Winners
	ar.SavedWinners = append(ar.SavedWinners, append([]int{}, ch.Winners...))
	ar.SupportN += len(ch.NewStr)
	if ch.Fallback {
		ar.ExactFallbacks++
	}
}
