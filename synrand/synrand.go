// Copyright (c) 2025, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package synrand provides the random synapse model: statistical answers to
"how many of my active inputs synapse onto a unit whose connectivity has
never been materialized?" and "what input strength separates the top-k of
a large pool of such units?", without enumerating the pool.

Each unresolved unit receives an input count distributed Binomial(n, p)
where n is the number of currently active input units and p the connection
probability.  Counts are sampled exactly for small n*p and via the normal
approximation above it, and the top-k selection threshold over numCand
unresolved units is the normal approximation to the 1 - k/numCand quantile
order statistic.  Units landing near the threshold are re-resolved by
exact sampling, so the approximation is never silently trusted at the
boundary.
*/
package synrand

import (
	"math"
	"sort"

	"github.com/chewxy/math32"
	xrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Params are the tunable accuracy / cost trade-offs of the random synapse
// model.  The defaults are empirically calibrated, not hard requirements.
type Params struct {
	NormCut    float32 `def:"10" min:"0" desc:"when n*p is at or above this value, binomial input counts are sampled via the Normal(n*p, n*p*(1-p)) approximation instead of exactly"`
	BoundarySD float32 `def:"1" min:"0" desc:"tail samples within this many standard deviations of the selection threshold are re-resolved by exact binomial sampling"`
	Tol        float32 `def:"0.25" min:"0" desc:"if the normal-approximation threshold and the exact binomial quantile disagree by more than one input count plus Tol standard deviations, the whole batch falls back to exact per-unit sampling"`
	MaxExact   int     `def:"1000" min:"0" desc:"candidate pool size at or below which every candidate is sampled exactly and no approximation is used"`
}

func (sp *Params) Defaults() {
	sp.NormCut = 10
	sp.BoundarySD = 1
	sp.Tol = 0.25
	sp.MaxExact = 1000
}

func (sp *Params) Update() {
}

// Tail is the result of sampling the top-k input strengths among a pool of
// units with unresolved connectivity.
type Tail struct {
	Strengths []float32 `desc:"sampled input counts for the top candidates, strongest first"`
	Threshold float32   `desc:"estimated input strength separating the top k of the pool"`
	Boundary  int       `desc:"number of candidates re-resolved exactly near the threshold"`
	Exact     bool      `desc:"whole batch was resolved by exact per-unit sampling, either routinely (pool at or below MaxExact) or via Fallback"`
	Fallback  bool      `desc:"normal-approximation threshold disagreed with the exact binomial quantile beyond Tol, forcing the exact batch"`
}

// InputStrength returns one draw of the number of active inputs feeding a
// single unresolved unit: Binomial(nAct, p), sampled exactly below the
// NormCut policy threshold and via the normal approximation above it.
// The result is an integer count in [0, nAct].
func (sp *Params) InputStrength(src *xrand.Rand, nAct int, p float32) float32 {
	if nAct <= 0 || p <= 0 {
		return 0
	}
	if p >= 1 {
		return float32(nAct)
	}
	mu := float64(nAct) * float64(p)
	if float32(mu) >= sp.NormCut {
		sg := distuv.Normal{Mu: mu, Sigma: binomSigma(nAct, p), Src: src}
		return clampCount(float32(sg.Rand()), nAct)
	}
	bin := distuv.Binomial{N: float64(nAct), P: float64(p), Src: src}
	return float32(bin.Rand())
}

// Threshold returns the input strength v such that approximately kRem of
// numCand i.i.d. Binomial(nAct, p) draws exceed v: the normal approximation
// to the 1 - kRem/numCand quantile of the input count distribution.
func Threshold(nAct int, p float32, numCand, kRem int) float32 {
	if numCand <= 0 || kRem <= 0 || nAct <= 0 {
		return 0
	}
	if kRem >= numCand {
		return 0
	}
	q := 1 - float64(kRem)/float64(numCand)
	nd := distuv.Normal{Mu: float64(nAct) * float64(p), Sigma: binomSigma(nAct, p)}
	if nd.Sigma == 0 {
		return float32(nd.Mu)
	}
	return float32(nd.Quantile(q))
}

// TailSamples draws input strengths for the kRem strongest of numCand
// unresolved units, each receiving Binomial(nAct, p) input.  For pools at
// or below MaxExact every candidate is sampled exactly.  Larger pools use
// inverse-CDF sampling of the normal order statistics above Threshold;
// candidates landing within BoundarySD standard deviations of the
// threshold are re-resolved by exact conditional binomial sampling.  If
// the normal threshold itself disagrees with the exact binomial quantile
// beyond Tol, the whole batch is redrawn exactly, per unit.  Strengths
// come back strongest first.
func (sp *Params) TailSamples(src *xrand.Rand, nAct int, p float32, numCand, kRem int) Tail {
	tl := Tail{}
	if numCand <= 0 || kRem <= 0 || nAct <= 0 || p <= 0 {
		return tl
	}
	if kRem > numCand {
		kRem = numCand
	}
	if numCand <= sp.MaxExact {
		return sp.exactTail(src, nAct, p, numCand, kRem)
	}
	mu := float64(nAct) * float64(p)
	sg := binomSigma(nAct, p)
	if sg == 0 { // p == 1: every candidate gets all inputs
		tl.Threshold = float32(mu)
		tl.Strengths = make([]float32, kRem)
		for i := range tl.Strengths {
			tl.Strengths[i] = float32(nAct)
		}
		return tl
	}
	tailW := float64(kRem) / float64(numCand)
	nd := distuv.Normal{Mu: mu, Sigma: sg}
	thr := nd.Quantile(1 - tailW)
	tl.Threshold = float32(thr)
	bin := distuv.Binomial{N: float64(nAct), P: float64(p), Src: src}
	exThr := exactQuantile(bin, 1-tailW)
	if dis := thr - exThr; dis > 1+float64(sp.Tol)*sg || dis < -1-float64(sp.Tol)*sg {
		// normal approximation is off at this cut: exact per-unit sampling
		tl.Exact = true
		tl.Fallback = true
		tl.Strengths = make([]float32, kRem)
		for i := range tl.Strengths {
			tl.Strengths[i] = clampCount(float32(condTail(bin, exThr, src)), nAct)
		}
		sort.Sort(sort.Reverse(f32Slice(tl.Strengths)))
		return tl
	}
	tl.Strengths = make([]float32, kRem)
	for i := range tl.Strengths {
		q := 1 - tailW + src.Float64()*tailW
		v := nd.Quantile(q)
		if v-thr <= float64(sp.BoundarySD)*sg {
			// too close to the cut to trust the approximation
			tl.Boundary++
			v = condTail(bin, thr, src)
		}
		tl.Strengths[i] = clampCount(float32(v), nAct)
	}
	sort.Sort(sort.Reverse(f32Slice(tl.Strengths)))
	return tl
}

// exactTail samples every candidate in a small pool exactly and keeps the
// top kRem counts.
func (sp *Params) exactTail(src *xrand.Rand, nAct int, p float32, numCand, kRem int) Tail {
	bin := distuv.Binomial{N: float64(nAct), P: float64(p), Src: src}
	all := make([]float32, numCand)
	for i := range all {
		all[i] = float32(bin.Rand())
	}
	sort.Sort(sort.Reverse(f32Slice(all)))
	return Tail{Strengths: all[:kRem:kRem], Threshold: all[kRem-1], Exact: true}
}

// condTail draws an exact Binomial sample conditioned on exceeding thr, by
// inverse transform on the binomial CDF restricted to the upper tail.
func condTail(bin distuv.Binomial, thr float64, src *xrand.Rand) float64 {
	base := math.Floor(thr)
	if base >= bin.N {
		return bin.N
	}
	pb := bin.CDF(base)
	u := pb + src.Float64()*(1-pb)
	c := base + 1
	for c < bin.N && bin.CDF(c) < u {
		c++
	}
	return c
}

// exactQuantile returns the smallest integer count c with CDF(c) >= q, by
// bisection on the binomial CDF.
func exactQuantile(bin distuv.Binomial, q float64) float64 {
	lo, hi := 0.0, bin.N
	for lo < hi {
		mid := math.Floor((lo + hi) / 2)
		if bin.CDF(mid) >= q {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// binomSigma is the standard deviation of Binomial(n, p).
func binomSigma(n int, p float32) float64 {
	v := float64(n) * float64(p) * (1 - float64(p))
	if v <= 0 {
		return 0
	}
	return math.Sqrt(v)
}

// clampCount rounds a sampled strength to an integer count in [0, n].
func clampCount(v float32, n int) float32 {
	v = math32.Round(v)
	if v < 0 {
		return 0
	}
	if v > float32(n) {
		return float32(n)
	}
	return v
}

type f32Slice []float32

func (s f32Slice) Len() int           { return len(s) }
func (s f32Slice) Less(i, j int) bool { return s[i] < s[j] }
func (s f32Slice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
