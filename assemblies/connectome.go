// Copyright (c) 2025, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package assemblies

import (
	"github.com/emer/emergent/erand"
	"github.com/emer/etable/etensor"
)

// SynMode is the weight storage mode of a Connectome.
type SynMode int32

const (
	// SparseSyns realizes synapses lazily, only for receiving units that
	// have ever been a winner or a tracked candidate.
	SparseSyns SynMode = iota

	// ExplicitSyns materializes the full dense weight matrix at creation,
	// with independent Bernoulli(p) draws scaled to weight 1.
	ExplicitSyns

	SynModeN
)

func (sm SynMode) String() string {
	switch sm {
	case SparseSyns:
		return "Sparse"
	case ExplicitSyns:
		return "Explicit"
	}
	return "SynModeN"
}

// column holds the realized synapses onto one receiving unit.  Senders
// below the resolved watermark have had their existence decided: an absent
// entry there means no synapse, ever.  Senders at or above it are still
// statistically unresolved.
type column struct {
	syn      map[int]float32
	resolved int
}

// Connectome is the directed weight store from a sending population (Area
// or Stimulus) to a receiving Area.  Once a synapse exists its weight is
// only ever multiplied by (1+Beta) when both endpoints co-fire -- never
// deleted, never reset.
type Connectome struct {
	SendName string  `desc:"name of the sending population"`
	RecvName string  `desc:"name of the receiving area"`
	Mode     SynMode `desc:"weight storage mode"`
	P        float32 `desc:"connection probability in (0,1]"`
	Beta     float32 `desc:"plasticity rate applied on Reinforce -- defaults to the receiving area's Beta, overridable per edge"`
	SendN    int     `inactive:"+" desc:"current number of sending units: stimulus size, sending area support size, or full n in explicit mode"`
	RecvN    int     `inactive:"+" desc:"number of receiving units covered: full n in explicit mode, support size otherwise"`

	Wts  *etensor.Float32 `view:"-" desc:"explicit mode: dense SendN x RecvN weights"`
	Cols map[int]*column  `view:"-" desc:"sparse mode: realized columns by receiving unit id"`
	Ctx  *Context         `view:"-" desc:"receiving area's random context, used to resolve synapse existence"`
}

// NewConnectome returns a new connectome between the given populations.
// Explicit mode draws the full Bernoulli(p) matrix immediately.
func NewConnectome(send, recv string, mode SynMode, p, beta float32, sendN, recvN int, ctx *Context) *Connectome {
	cn := &Connectome{SendName: send, RecvName: recv, Mode: mode, P: p, Beta: beta,
		SendN: sendN, RecvN: recvN, Ctx: ctx}
	if mode == ExplicitSyns {
		cn.Wts = etensor.NewFloat32([]int{sendN, recvN}, nil, []string{"Send", "Recv"})
		for i := range cn.Wts.Values {
			if erand.BoolP(float64(p), -1, ctx.Rnd) {
				cn.Wts.Values[i] = 1
			}
		}
	} else {
		cn.Cols = make(map[int]*column)
	}
	return cn
}

// GrowSend records that the sending population's support has grown to n
// units.  Existing columns resolve the new senders lazily on next access.
func (cn *Connectome) GrowSend(n int) {
	if cn.Mode == SparseSyns && n > cn.SendN {
		cn.SendN = n
	}
}

// resolveCol returns the column for post with all senders below SendN
// resolved, creating it and drawing Bernoulli(p) existence for any senders
// above the previous watermark.
func (cn *Connectome) resolveCol(post int) *column {
	col := cn.Cols[post]
	if col == nil {
		col = &column{syn: make(map[int]float32)}
		cn.Cols[post] = col
		if post >= cn.RecvN {
			cn.RecvN = post + 1
		}
	}
	for pre := col.resolved; pre < cn.SendN; pre++ {
		if erand.BoolP(float64(cn.P), -1, cn.Ctx.Rnd) {
			col.syn[pre] = 1
		}
	}
	col.resolved = cn.SendN
	return col
}

// NewWinnerCol materializes the column for a freshly-minted winner unit:
// the chosen senders (the conditional sample of its active inputs) get
// weight 1, the remaining active senders are resolved as no-synapse, and
// all other senders get independent Bernoulli(p) existence draws.
func (cn *Connectome) NewWinnerCol(post int, active, chosen []int) {
	col := &column{syn: make(map[int]float32, len(chosen)), resolved: cn.SendN}
	skip := make(map[int]bool, len(active))
	for _, pre := range active {
		skip[pre] = true
	}
	for _, pre := range chosen {
		col.syn[pre] = 1
	}
	for pre := 0; pre < cn.SendN; pre++ {
		if skip[pre] {
			continue
		}
		if erand.BoolP(float64(cn.P), -1, cn.Ctx.Rnd) {
			col.syn[pre] = 1
		}
	}
	cn.Cols[post] = col
	if post >= cn.RecvN {
		cn.RecvN = post + 1
	}
}

// StrengthTo returns the summed weight from the given active senders onto
// post, which must be a materialized (support) unit.  In sparse mode any
// still-unresolved pairs are resolved on the way.
func (cn *Connectome) StrengthTo(post int, active []int) float32 {
	var sum float32
	if cn.Mode == ExplicitSyns {
		for _, pre := range active {
			sum += cn.Wts.Values[pre*cn.RecvN+post]
		}
		return sum
	}
	col := cn.resolveCol(post)
	for _, pre := range active {
		sum += col.syn[pre]
	}
	return sum
}

// Realize idempotently ensures the existence question for the (pre, post)
// pair has been answered.  Explicit-mode pairs all exist from creation, so
// this is a no-op there.
func (cn *Connectome) Realize(pre, post int) {
	if cn.Mode == ExplicitSyns {
		return
	}
	cn.resolveCol(post)
}

// Reinforce multiplies the weight of an existing synapse by (1+Beta).
// Reinforcing a pair that was never realized is a programmer error.
func (cn *Connectome) Reinforce(pre, post int) error {
	if cn.Mode == ExplicitSyns {
		if cn.Wts.Values[pre*cn.RecvN+post] == 0 {
			return ErrNotRealized
		}
		cn.Wts.Values[pre*cn.RecvN+post] *= 1 + cn.Beta
		return nil
	}
	col := cn.Cols[post]
	if col == nil || pre >= col.resolved {
		return ErrNotRealized
	}
	if _, ok := col.syn[pre]; !ok {
		return ErrNotRealized
	}
	col.syn[pre] *= 1 + cn.Beta
	return nil
}

// ReinforceActive applies (1+Beta) to every realized synapse from the
// active senders onto post, skipping pairs with no synapse.  Returns the
// number of synapses strengthened.
func (cn *Connectome) ReinforceActive(post int, active []int) int {
	n := 0
	if cn.Mode == ExplicitSyns {
		for _, pre := range active {
			if w := cn.Wts.Values[pre*cn.RecvN+post]; w != 0 {
				cn.Wts.Values[pre*cn.RecvN+post] = w * (1 + cn.Beta)
				n++
			}
		}
		return n
	}
	col := cn.resolveCol(post)
	for _, pre := range active {
		if w, ok := col.syn[pre]; ok {
			col.syn[pre] = w * (1 + cn.Beta)
			n++
		}
	}
	return n
}

// Weight returns the weight of the (pre, post) pair and whether the
// synapse exists (realized with nonzero weight).
func (cn *Connectome) Weight(pre, post int) (float32, bool) {
	if cn.Mode == ExplicitSyns {
		w := cn.Wts.Values[pre*cn.RecvN+post]
		return w, w != 0
	}
	col := cn.Cols[post]
	if col == nil {
		return 0, false
	}
	w, ok := col.syn[pre]
	return w, ok
}

// NumSyns returns the number of existing synapses.
func (cn *Connectome) NumSyns() int {
	n := 0
	if cn.Mode == ExplicitSyns {
		for _, w := range cn.Wts.Values {
			if w != 0 {
				n++
			}
		}
		return n
	}
	for _, col := range cn.Cols {
		n += len(col.syn)
	}
	return n
}

// MemSize returns an estimate of the memory held by the weight store, in
// bytes.
func (cn *Connectome) MemSize() int {
	if cn.Mode == ExplicitSyns {
		return 4 * len(cn.Wts.Values)
	}
	n := 0
	for _, col := range cn.Cols {
		n += 16 + 12*len(col.syn) // map overhead estimate per entry
	}
	return n
}
