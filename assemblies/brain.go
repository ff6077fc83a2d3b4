// Copyright (c) 2025, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package assemblies

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/c2h5oh/datasize"
	"github.com/emer/emergent/timer"
	"github.com/emer/etable/etable"
)

// Brain owns all areas, stimuli and the connectomes between them, and runs
// synchronous projection rounds: all new winners for a round are computed
// from pre-round state, then committed, then plasticity is applied.  No
// area's round ever depends on another area's same-round output.
type Brain struct {
	Nm      string  `desc:"overall name of the brain -- helps discriminate if there are multiple"`
	P       float32 `desc:"connection probability for every synapse pair, in (0,1]"`
	RndSeed int64   `desc:"master random seed -- each area derives its own stream from it"`
	Plastic bool    `def:"true" desc:"global plasticity gate: when off, projection selects winners but applies no reinforcement"`
	Round   int     `inactive:"+" desc:"number of projection rounds completed"`

	Areas       map[string]*Area                  `desc:"areas by name"`
	Stimuli     map[string]*Stimulus              `desc:"stimuli by name"`
	Connectomes map[string]map[string]*Connectome `view:"-" desc:"connectomes by sending then receiving name, created on first use"`

	Warnings  int           `inactive:"+" desc:"numerical degeneracy warnings issued (e.g. beta < -1)"`
	LogRounds bool          `desc:"record per-round, per-area statistics into RoundLog"`
	RoundLog  *etable.Table `view:"no-inline" desc:"per-round statistics, one row per (round, implicated area)"`

	FunTimes map[string]*timer.Time `view:"-" desc:"timers for each major step of a projection round"`
	WaitGp   sync.WaitGroup         `view:"-" desc:"wait group for the parallel compute phase"`
}

// NewBrain returns a new brain with the given connection probability and
// master random seed.
func NewBrain(name string, p float32, seed int64) (*Brain, error) {
	if p <= 0 || p > 1 {
		return nil, cfgErrf("connection probability %g not in (0,1]", p)
	}
	bn := &Brain{Nm: name, P: p, RndSeed: seed, Plastic: true}
	bn.Areas = make(map[string]*Area)
	bn.Stimuli = make(map[string]*Stimulus)
	bn.Connectomes = make(map[string]map[string]*Connectome)
	bn.FunTimes = make(map[string]*timer.Time)
	return bn, nil
}

func (bn *Brain) Name() string { return bn.Nm }

// nameFree checks that a name is not already taken by an area or stimulus.
func (bn *Brain) nameFree(name string) error {
	if _, ok := bn.Areas[name]; ok {
		return cfgErrf("name %q already used by an area", name)
	}
	if _, ok := bn.Stimuli[name]; ok {
		return cfgErrf("name %q already used by a stimulus", name)
	}
	return nil
}

// AddStimulus adds a fixed-size always-firing input source.
func (bn *Brain) AddStimulus(name string, size int) (*Stimulus, error) {
	if err := bn.nameFree(name); err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, cfgErrf("stimulus %q size %d must be positive", name, size)
	}
	st := NewStimulus(name, size)
	bn.Stimuli[name] = st
	return st, nil
}

// AddArea adds a sparse (lazily materialized) area with n units, firing
// quota k, and plasticity rate beta.
func (bn *Brain) AddArea(name string, n, k int, beta float32) (*Area, error) {
	return bn.addArea(name, n, k, beta, false)
}

// AddAreaExplicit adds an area whose units and incoming synapses are all
// materialized up front -- only practical for small n.
func (bn *Brain) AddAreaExplicit(name string, n, k int, beta float32) (*Area, error) {
	return bn.addArea(name, n, k, beta, true)
}

func (bn *Brain) addArea(name string, n, k int, beta float32, explicit bool) (*Area, error) {
	if err := bn.nameFree(name); err != nil {
		return nil, err
	}
	if n <= 0 || k <= 0 {
		return nil, cfgErrf("area %q n=%d k=%d must be positive", name, n, k)
	}
	if k > n {
		return nil, cfgErrf("area %q firing quota k=%d exceeds n=%d", name, k, n)
	}
	if beta < -1 {
		bn.degeneracy(fmt.Sprintf("area %q beta %g < -1: weights will go negative", name, beta))
	}
	ctx := NewContext(bn.RndSeed + int64(len(bn.Areas)) + 1)
	ar := NewArea(name, n, k, beta, bn.P, explicit, ctx)
	bn.Areas[name] = ar
	return ar, nil
}

// AreaByName returns the area of the given name, nil if not found.
func (bn *Brain) AreaByName(name string) *Area { return bn.Areas[name] }

// AreaByNameTry returns the area of the given name, or an error.
func (bn *Brain) AreaByNameTry(name string) (*Area, error) {
	ar, ok := bn.Areas[name]
	if !ok {
		return nil, cfgErrf("area %q not found in brain %q", name, bn.Nm)
	}
	return ar, nil
}

// StimulusByNameTry returns the stimulus of the given name, or an error.
func (bn *Brain) StimulusByNameTry(name string) (*Stimulus, error) {
	st, ok := bn.Stimuli[name]
	if !ok {
		return nil, cfgErrf("stimulus %q not found in brain %q", name, bn.Nm)
	}
	return st, nil
}

// SetPlasticity sets the global plasticity gate.
func (bn *Brain) SetPlasticity(on bool) { bn.Plastic = on }

// SetEdgeBeta overrides the plasticity rate on one connectome, creating it
// if the edge has never fired.  The receiving name must be an area.
func (bn *Brain) SetEdgeBeta(send, recv string, beta float32) error {
	if _, err := bn.AreaByNameTry(recv); err != nil {
		return err
	}
	if _, ok := bn.Areas[send]; !ok {
		if _, ok := bn.Stimuli[send]; !ok {
			return cfgErrf("sender %q not found in brain %q", send, bn.Nm)
		}
	}
	if beta < -1 {
		bn.degeneracy(fmt.Sprintf("edge %s -> %s beta %g < -1: weights will go negative", send, recv, beta))
	}
	bn.connectome(send, recv).Beta = beta
	return nil
}

// degeneracy surfaces a numerical degeneracy warning: logged and counted,
// never corrected, since some experiments probe these regimes on purpose.
func (bn *Brain) degeneracy(msg string) {
	log.Println("assemblies: numerical degeneracy:", msg)
	bn.Warnings++
}

// sendInfo returns the current sending width and whether the sender is
// fixed-size (stimulus or explicit area).  Callers have validated name.
func (bn *Brain) sendInfo(send string) (sendN int, fixed bool) {
	if st, ok := bn.Stimuli[send]; ok {
		return st.Size, true
	}
	ar := bn.Areas[send]
	if ar.Explicit {
		return ar.N, true
	}
	return ar.SupportN, false
}

// connectome returns the connectome for the given edge, creating it on
// first use.  The dense explicit mode is used only when the receiving area
// is explicit and the sender is fixed-size; everything else is sparse.
func (bn *Brain) connectome(send, recv string) *Connectome {
	if cn, ok := bn.Connectomes[send][recv]; ok {
		return cn
	}
	ra := bn.Areas[recv]
	sendN, fixed := bn.sendInfo(send)
	mode := SparseSyns
	recvN := 0
	if ra.Explicit && fixed {
		mode = ExplicitSyns
		recvN = ra.N
	}
	cn := NewConnectome(send, recv, mode, bn.P, ra.Beta, sendN, recvN, ra.Ctx)
	if bn.Connectomes[send] == nil {
		bn.Connectomes[send] = make(map[string]*Connectome)
	}
	bn.Connectomes[send][recv] = cn
	return cn
}

// projTarget collects the per-area state of one projection round.
type projTarget struct {
	ar     *Area
	inputs []ProjInput
	ch     WinnerChoice
}

// Project runs one synchronous projection round over the given edges:
// stimTo maps stimulus names to target area names, areaTo maps source area
// names to target area names.  Duplicate edges collapse.  For every target
// area the union of active inputs is snapshotted from pre-round state,
// new winners are computed (in parallel across areas), then committed, and
// finally every active edge is reinforced against the post-round winners.
// An empty edge set is a no-op.
func (bn *Brain) Project(stimTo map[string][]string, areaTo map[string][]string) error {
	edges := make(map[string]map[string]bool) // recv -> set of senders
	addEdge := func(send, recv string) error {
		if _, ok := bn.Areas[recv]; !ok {
			return cfgErrf("projection target area %q not found", recv)
		}
		if edges[recv] == nil {
			edges[recv] = make(map[string]bool)
		}
		edges[recv][send] = true
		return nil
	}
	for snm, recvs := range stimTo {
		if _, err := bn.StimulusByNameTry(snm); err != nil {
			return err
		}
		for _, rnm := range recvs {
			if err := addEdge(snm, rnm); err != nil {
				return err
			}
		}
	}
	for anm, recvs := range areaTo {
		ar, err := bn.AreaByNameTry(anm)
		if err != nil {
			return err
		}
		if len(ar.Winners) == 0 {
			return cfgErrf("source area %q has no winners to project", anm)
		}
		for _, rnm := range recvs {
			if err := addEdge(anm, rnm); err != nil {
				return err
			}
		}
	}
	if len(edges) == 0 {
		return nil
	}

	// snapshot pre-round active sets and materialize connectomes, serially,
	// before any area advances -- this is the simultaneity barrier
	bn.FunTimerStart("Snapshot")
	tnms := make([]string, 0, len(edges))
	for rnm := range edges {
		tnms = append(tnms, rnm)
	}
	sort.Strings(tnms)
	targs := make([]*projTarget, len(tnms))
	for i, rnm := range tnms {
		tg := &projTarget{ar: bn.Areas[rnm]}
		snms := make([]string, 0, len(edges[rnm]))
		for snm := range edges[rnm] {
			snms = append(snms, snm)
		}
		sort.Strings(snms)
		for _, snm := range snms {
			cn := bn.connectome(snm, rnm)
			var active []int
			if st, ok := bn.Stimuli[snm]; ok {
				active = st.Active()
			} else {
				sendN, _ := bn.sendInfo(snm)
				cn.GrowSend(sendN)
				active = bn.Areas[snm].Winners // commit installs a fresh slice, so this stays pre-round
			}
			tg.inputs = append(tg.inputs, ProjInput{Conn: cn, Active: active})
		}
		targs[i] = tg
	}
	bn.FunTimerStop("Snapshot")

	// compute phase: embarrassingly parallel across target areas, each
	// reading only pre-round snapshots and its own connectomes and context
	bn.FunTimerStart("Compute")
	if len(targs) == 1 {
		targs[0].ch = targs[0].ar.ComputeNewWinners(targs[0].inputs)
	} else {
		for _, tg := range targs {
			bn.WaitGp.Add(1)
			go func(tg *projTarget) {
				tg.ch = tg.ar.ComputeNewWinners(tg.inputs)
				bn.WaitGp.Done()
			}(tg)
		}
		bn.WaitGp.Wait()
	}
	bn.FunTimerStop("Compute")

	// commit phase: install winners and materialize the incoming synapse
	// columns of units that won for the first time
	bn.FunTimerStart("Commit")
	for _, tg := range targs {
		newStart := tg.ar.SupportN
		tg.ar.CommitWinners(tg.ch)
		bn.growNewWinners(tg, newStart)
	}
	bn.FunTimerStop("Commit")

	// plasticity: every active edge, pre-round actives x post-round winners
	if bn.Plastic {
		bn.FunTimerStart("Reinforce")
		for _, tg := range targs {
			for _, in := range tg.inputs {
				for _, post := range tg.ar.Winners {
					in.Conn.ReinforceActive(post, in.Active)
				}
			}
		}
		bn.FunTimerStop("Reinforce")
	}

	bn.Round++
	if bn.LogRounds {
		bn.LogRound(targs)
	}
	return nil
}

// ProjectRounds runs Project over the same edge set for the given number
// of rounds.
func (bn *Brain) ProjectRounds(stimTo map[string][]string, areaTo map[string][]string, rounds int) error {
	for r := 0; r < rounds; r++ {
		if err := bn.Project(stimTo, areaTo); err != nil {
			return err
		}
	}
	return nil
}

// growNewWinners realizes the incoming synapses of this round's newly
// materialized winners: each unit's sampled input strength is distributed
// uniformly at random over the active inputs (the conditional distribution
// given the sampled count), and every other pair into the new unit gets an
// independent Bernoulli(p) existence draw.
func (bn *Brain) growNewWinners(tg *projTarget, newStart int) {
	if len(tg.ch.NewStr) == 0 {
		return
	}
	total := 0
	for _, in := range tg.inputs {
		total += len(in.Active)
	}
	for j, str := range tg.ch.NewStr {
		post := newStart + j
		s := int(str)
		if s > total {
			s = total
		}
		perm := tg.ar.Ctx.Rnd.Perm(total, -1)
		hit := make(map[int]bool, s)
		for _, gi := range perm[:s] {
			hit[gi] = true
		}
		off := 0
		for _, in := range tg.inputs {
			var chosen []int
			for ai, pre := range in.Active {
				if hit[off+ai] {
					chosen = append(chosen, pre)
				}
			}
			in.Conn.NewWinnerCol(post, in.Active, chosen)
			off += len(in.Active)
		}
	}
}

// SizeReport returns a string reporting the size of each area and
// connectome in the brain.
func (bn *Brain) SizeReport() string {
	var b strings.Builder
	anms := make([]string, 0, len(bn.Areas))
	for nm := range bn.Areas {
		anms = append(anms, nm)
	}
	sort.Strings(anms)
	totSyn, totMem := 0, 0
	snms := make([]string, 0, len(bn.Connectomes))
	for nm := range bn.Connectomes {
		snms = append(snms, nm)
	}
	sort.Strings(snms)
	for _, nm := range anms {
		ar := bn.Areas[nm]
		fmt.Fprintf(&b, "%14s:\t N: %d\t Support: %d\t Winners: %d\n", nm, ar.N, ar.SupportN, len(ar.Winners))
	}
	for _, snm := range snms {
		rnms := make([]string, 0, len(bn.Connectomes[snm]))
		for rnm := range bn.Connectomes[snm] {
			rnms = append(rnms, rnm)
		}
		sort.Strings(rnms)
		for _, rnm := range rnms {
			cn := bn.Connectomes[snm][rnm]
			ns := cn.NumSyns()
			mem := cn.MemSize()
			totSyn += ns
			totMem += mem
			fmt.Fprintf(&b, "%14s -> %-14s\t Syns: %d\t SynMem: %v\n", snm, rnm, ns, (datasize.ByteSize)(mem).HumanReadable())
		}
	}
	fmt.Fprintf(&b, "\n%14s:\t Syns: %d\t SynMem: %v\n", bn.Nm, totSyn, (datasize.ByteSize)(totMem).HumanReadable())
	return b.String()
}

// FunTimerStart starts function timer for given function name -- ensures
// creation of timer.
func (bn *Brain) FunTimerStart(fun string) {
	ft, ok := bn.FunTimes[fun]
	if !ok {
		ft = &timer.Time{}
		bn.FunTimes[fun] = ft
	}
	ft.Start()
}

// FunTimerStop stops function timer -- timer must already exist.
func (bn *Brain) FunTimerStop(fun string) {
	bn.FunTimes[fun].Stop()
}

// TimerReport reports the amount of time spent in each step of projection.
func (bn *Brain) TimerReport() {
	fmt.Printf("TimerReport: %v\n", bn.Nm)
	fmt.Printf("\tFunction Name\tTotal Secs\tPct\n")
	fnms := make([]string, 0, len(bn.FunTimes))
	for k := range bn.FunTimes {
		fnms = append(fnms, k)
	}
	sort.Strings(fnms)
	tot := 0.0
	for _, fn := range fnms {
		tot += bn.FunTimes[fn].TotalSecs()
	}
	for _, fn := range fnms {
		secs := bn.FunTimes[fn].TotalSecs()
		fmt.Printf("\t%v \t%6.4g\t%6.4g\n", fn, secs, 100*(secs/tot))
	}
	fmt.Printf("\tTotal   \t%6.4g\n", tot)
}
