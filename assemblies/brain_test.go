// Copyright (c) 2025, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package assemblies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigErrors(t *testing.T) {
	_, err := NewBrain("bad", 0, 1)
	assert.ErrorIs(t, err, ErrConfig)
	_, err = NewBrain("bad", 1.5, 1)
	assert.ErrorIs(t, err, ErrConfig)

	bn, err := NewBrain("test", 0.1, 1)
	require.NoError(t, err)
	_, err = bn.AddArea("A", 100, 10, 0.1)
	require.NoError(t, err)
	_, err = bn.AddArea("A", 100, 10, 0.1)
	assert.ErrorIs(t, err, ErrConfig, "duplicate area name")
	_, err = bn.AddStimulus("A", 10)
	assert.ErrorIs(t, err, ErrConfig, "name taken by area")
	_, err = bn.AddArea("B", 10, 20, 0.1)
	assert.ErrorIs(t, err, ErrConfig, "k > n")
	_, err = bn.AddStimulus("S", 0)
	assert.ErrorIs(t, err, ErrConfig, "empty stimulus")

	err = bn.Project(map[string][]string{"nope": {"A"}}, nil)
	assert.ErrorIs(t, err, ErrConfig, "unknown stimulus")
	err = bn.Project(nil, map[string][]string{"nope": {"A"}})
	assert.ErrorIs(t, err, ErrConfig, "unknown source area")
	err = bn.Project(nil, map[string][]string{"A": {"A"}})
	assert.ErrorIs(t, err, ErrConfig, "source area has no winners yet")
	_, err = bn.AddStimulus("S", 10)
	require.NoError(t, err)
	err = bn.Project(map[string][]string{"S": {"nope"}}, nil)
	assert.ErrorIs(t, err, ErrConfig, "unknown target area")
}

func TestDegeneracyWarning(t *testing.T) {
	bn, err := NewBrain("test", 0.1, 1)
	require.NoError(t, err)
	_, err = bn.AddArea("A", 100, 10, -2)
	assert.NoError(t, err, "beta < -1 is degenerate but not an error")
	assert.Equal(t, 1, bn.Warnings)
}

func TestProjectBasic(t *testing.T) {
	bn, err := NewBrain("test", 0.05, 42)
	require.NoError(t, err)
	_, err = bn.AddStimulus("S", 50)
	require.NoError(t, err)
	ar, err := bn.AddArea("A", 1000, 50, 0.1)
	require.NoError(t, err)

	stimTo := map[string][]string{"S": {"A"}}
	require.NoError(t, bn.Project(stimTo, nil))
	assert.Equal(t, 50, len(ar.Winners), "winner count is exactly k after round 1")
	assert.Equal(t, 50, ar.SupportSize(), "first round support is exactly k")

	prevSupport := ar.SupportSize()
	for r := 0; r < 10; r++ {
		require.NoError(t, bn.Project(stimTo, nil))
		assert.Equal(t, 50, len(ar.Winners))
		assert.GreaterOrEqual(t, ar.SupportSize(), prevSupport, "support growth is monotonic")
		prevSupport = ar.SupportSize()
	}
	assert.LessOrEqual(t, ar.SupportSize(), 50+11*50, "support bounded by k + rounds*k")
	assert.Equal(t, 11, len(ar.SavedWinners), "history appended every round")
}

func TestEmptyProjectNoop(t *testing.T) {
	bn, err := NewBrain("test", 0.05, 42)
	require.NoError(t, err)
	_, err = bn.AddStimulus("S", 50)
	require.NoError(t, err)
	ar, err := bn.AddArea("A", 1000, 50, 0.1)
	require.NoError(t, err)
	require.NoError(t, bn.Project(map[string][]string{"S": {"A"}}, nil))

	winners := append([]int{}, ar.Winners...)
	support := ar.SupportSize()
	syns := bn.Connectomes["S"]["A"].NumSyns()
	round := bn.Round

	require.NoError(t, bn.Project(nil, nil))
	require.NoError(t, bn.Project(map[string][]string{}, map[string][]string{}))

	assert.Equal(t, winners, ar.Winners)
	assert.Equal(t, support, ar.SupportSize())
	assert.Equal(t, syns, bn.Connectomes["S"]["A"].NumSyns())
	assert.Equal(t, round, bn.Round)
}

// TestConvergence is the canonical assembly formation scenario: a single
// stimulus driving a recurrent area stabilizes within 20 rounds.
func TestConvergence(t *testing.T) {
	bn, err := NewBrain("test", 0.05, 7)
	require.NoError(t, err)
	_, err = bn.AddStimulus("S", 100)
	require.NoError(t, err)
	ar, err := bn.AddArea("A", 10000, 100, 0.1)
	require.NoError(t, err)

	stimTo := map[string][]string{"S": {"A"}}
	require.NoError(t, bn.Project(stimTo, nil))
	require.NoError(t, bn.ProjectRounds(stimTo, map[string][]string{"A": {"A"}}, 19))

	nh := len(ar.SavedWinners)
	ov := Overlap(ar.SavedWinners[nh-1], ar.SavedWinners[nh-2])
	assert.GreaterOrEqual(t, ov, 90, "assembly stabilized to at least 90 of 100 winners")
	assert.LessOrEqual(t, ar.SupportSize(), 20*100, "support stays far below n")
}

// TestBetaOverlapMonotone: stronger plasticity converges harder, for fixed
// p, n, k.
func TestBetaOverlapMonotone(t *testing.T) {
	run := func(beta float32) float64 {
		bn, err := NewBrain("test", 0.05, 11)
		require.NoError(t, err)
		_, err = bn.AddStimulus("S", 50)
		require.NoError(t, err)
		ar, err := bn.AddArea("A", 2000, 50, beta)
		require.NoError(t, err)
		stimTo := map[string][]string{"S": {"A"}}
		require.NoError(t, bn.Project(stimTo, nil))
		require.NoError(t, bn.ProjectRounds(stimTo, map[string][]string{"A": {"A"}}, 19))
		sum := 0.0
		nh := len(ar.SavedWinners)
		for i := nh - 10; i < nh; i++ {
			sum += float64(Overlap(ar.SavedWinners[i], ar.SavedWinners[i-1]))
		}
		return sum / 10
	}
	weak := run(0)
	strong := run(0.25)
	assert.Greater(t, strong, weak, "overlap increases with beta")
}

func TestKEqualsN(t *testing.T) {
	bn, err := NewBrain("test", 0.3, 3)
	require.NoError(t, err)
	_, err = bn.AddStimulus("S", 20)
	require.NoError(t, err)
	ar, err := bn.AddArea("A", 50, 50, 0.1)
	require.NoError(t, err)

	stimTo := map[string][]string{"S": {"A"}}
	require.NoError(t, bn.Project(stimTo, nil))
	assert.Equal(t, 50, ar.SupportSize(), "k = n materializes everything in round 1")
	assert.Equal(t, 50, len(ar.Winners))
	for r := 0; r < 3; r++ {
		require.NoError(t, bn.Project(stimTo, nil))
		assert.Equal(t, 50, ar.SupportSize(), "no support growth after round 1")
		assert.Equal(t, 50, len(ar.Winners), "every unit wins every round")
	}
}

// TestModeEquivalence: sparse and explicit engines produce statistically
// matching convergence, not bit-exact winner sets.
func TestModeEquivalence(t *testing.T) {
	run := func(explicit bool, seed int64) float64 {
		bn, err := NewBrain("test", 0.5, seed)
		require.NoError(t, err)
		_, err = bn.AddStimulus("S", 20)
		require.NoError(t, err)
		var ar *Area
		if explicit {
			ar, err = bn.AddAreaExplicit("A", 200, 20, 0.1)
		} else {
			ar, err = bn.AddArea("A", 200, 20, 0.1)
		}
		require.NoError(t, err)
		stimTo := map[string][]string{"S": {"A"}}
		require.NoError(t, bn.Project(stimTo, nil))
		require.NoError(t, bn.ProjectRounds(stimTo, map[string][]string{"A": {"A"}}, 9))
		nh := len(ar.SavedWinners)
		return float64(Overlap(ar.SavedWinners[nh-1], ar.SavedWinners[nh-2])) / 20
	}
	seeds := []int64{1, 2, 3, 4, 5}
	sp, ex := 0.0, 0.0
	for _, sd := range seeds {
		sp += run(false, sd)
		ex += run(true, sd)
	}
	sp /= float64(len(seeds))
	ex /= float64(len(seeds))
	assert.InDelta(t, ex, sp, 0.25, "mean convergence overlap must match across modes")
}

// TestAssociation: after reciprocal co-stimulation, one area's assembly
// can recall the other's well above chance.
func TestAssociation(t *testing.T) {
	bn, err := NewBrain("test", 0.05, 19)
	require.NoError(t, err)
	_, err = bn.AddStimulus("SA", 100)
	require.NoError(t, err)
	_, err = bn.AddStimulus("SB", 100)
	require.NoError(t, err)
	arA, err := bn.AddArea("A", 10000, 100, 0.1)
	require.NoError(t, err)
	_, err = bn.AddArea("B", 10000, 100, 0.1)
	require.NoError(t, err)

	// form each assembly independently
	require.NoError(t, bn.Project(map[string][]string{"SA": {"A"}}, nil))
	require.NoError(t, bn.ProjectRounds(map[string][]string{"SA": {"A"}},
		map[string][]string{"A": {"A"}}, 9))
	require.NoError(t, bn.Project(map[string][]string{"SB": {"B"}}, nil))
	require.NoError(t, bn.ProjectRounds(map[string][]string{"SB": {"B"}},
		map[string][]string{"B": {"B"}}, 9))

	// joint stimulation with reciprocal edges associates them
	require.NoError(t, bn.ProjectRounds(
		map[string][]string{"SA": {"A"}, "SB": {"B"}},
		map[string][]string{"A": {"A", "B"}, "B": {"B", "A"}}, 10))
	assembly := append([]int{}, arA.Winners...)

	// recall: B alone should reinstate a large part of A's assembly,
	// far above the ~k^2/n = 1 unit expected from independent draws
	require.NoError(t, bn.Project(nil, map[string][]string{"B": {"A"}}))
	ov := Overlap(arA.Winners, assembly)
	assert.Greater(t, ov, 20, "association recall well above chance")
}

func TestPlasticityOff(t *testing.T) {
	bn, err := NewBrain("test", 0.1, 23)
	require.NoError(t, err)
	_, err = bn.AddStimulus("S", 30)
	require.NoError(t, err)
	ar, err := bn.AddArea("A", 500, 30, 0.2)
	require.NoError(t, err)
	stimTo := map[string][]string{"S": {"A"}}
	require.NoError(t, bn.ProjectRounds(stimTo, nil, 2))

	cn := bn.Connectomes["S"]["A"]
	type pair struct{ pre, post int }
	before := map[pair]float32{}
	for _, post := range ar.Winners {
		for pre := 0; pre < 30; pre++ {
			if w, ok := cn.Weight(pre, post); ok {
				before[pair{pre, post}] = w
			}
		}
	}
	require.NotEmpty(t, before)

	bn.SetPlasticity(false)
	require.NoError(t, bn.Project(stimTo, nil))
	for pp, w := range before {
		got, ok := cn.Weight(pp.pre, pp.post)
		require.True(t, ok, "weights are never deleted")
		assert.Equal(t, w, got, "no reinforcement with plasticity off")
	}
}

func TestFixAssemblyProject(t *testing.T) {
	bn, err := NewBrain("test", 0.05, 29)
	require.NoError(t, err)
	_, err = bn.AddStimulus("S", 50)
	require.NoError(t, err)
	ar, err := bn.AddArea("A", 2000, 50, 0.1)
	require.NoError(t, err)
	stimTo := map[string][]string{"S": {"A"}}
	require.NoError(t, bn.ProjectRounds(stimTo, nil, 5))

	require.NoError(t, ar.FixAssembly())
	frozen := append([]int{}, ar.Winners...)
	require.NoError(t, bn.ProjectRounds(stimTo, map[string][]string{"A": {"A"}}, 3))
	assert.Equal(t, frozen, ar.Winners, "fixed assembly holds through projection")
}

func TestSetEdgeBeta(t *testing.T) {
	bn, err := NewBrain("test", 1, 37)
	require.NoError(t, err)
	_, err = bn.AddStimulus("S", 5)
	require.NoError(t, err)
	arA, err := bn.AddArea("A", 20, 5, 0.1)
	require.NoError(t, err)
	arB, err := bn.AddArea("B", 20, 5, 0.1)
	require.NoError(t, err)

	assert.ErrorIs(t, bn.SetEdgeBeta("S", "nope", 0.5), ErrConfig)
	assert.ErrorIs(t, bn.SetEdgeBeta("nope", "A", 0.5), ErrConfig)
	require.NoError(t, bn.SetEdgeBeta("S", "A", 0.5))

	require.NoError(t, bn.Project(map[string][]string{"S": {"A", "B"}}, nil))
	// p=1: every active sender synapses onto every winner, so round 1 leaves
	// exactly one reinforcement on each such pair
	for _, post := range arA.Winners {
		for pre := 0; pre < 5; pre++ {
			w, ok := bn.Connectomes["S"]["A"].Weight(pre, post)
			require.True(t, ok)
			assert.InDelta(t, 1.5, w, 1.0e-6, "overridden edge uses its own beta")
		}
	}
	for _, post := range arB.Winners {
		for pre := 0; pre < 5; pre++ {
			w, ok := bn.Connectomes["S"]["B"].Weight(pre, post)
			require.True(t, ok)
			assert.InDelta(t, 1.1, w, 1.0e-6, "other edges keep the area default")
		}
	}

	wn := bn.Warnings
	require.NoError(t, bn.SetEdgeBeta("S", "B", -2))
	assert.Equal(t, wn+1, bn.Warnings, "degenerate edge beta warns, not errors")
}

func TestExactFallbackCount(t *testing.T) {
	bn, err := NewBrain("test", 0.01, 41)
	require.NoError(t, err)
	_, err = bn.AddStimulus("S", 100)
	require.NoError(t, err)
	// n*p = 1 with a pool far above the exact cutoff: the skewed binomial
	// tail disagrees with the normal threshold, so round 1 must be counted
	// as an exact fallback
	ar, err := bn.AddArea("A", 50000, 2, 0.1)
	require.NoError(t, err)
	require.NoError(t, bn.Project(map[string][]string{"S": {"A"}}, nil))
	assert.Equal(t, 1, ar.ExactFallbacks)
	assert.Equal(t, 2, len(ar.Winners))
}

func TestRoundLog(t *testing.T) {
	bn, err := NewBrain("test", 0.05, 31)
	require.NoError(t, err)
	_, err = bn.AddStimulus("S", 50)
	require.NoError(t, err)
	_, err = bn.AddArea("A", 1000, 50, 0.1)
	require.NoError(t, err)
	bn.SetRoundLog(true)
	require.NoError(t, bn.ProjectRounds(map[string][]string{"S": {"A"}}, nil, 3))

	dt := bn.RoundLog
	require.Equal(t, 3, dt.Rows)
	assert.Equal(t, "A", dt.CellString("Area", 0))
	assert.Equal(t, 50.0, dt.CellFloat("Winners", 2))
	ov := dt.CellFloat("PrevOverlap", 2)
	assert.GreaterOrEqual(t, ov, 0.0)
	assert.LessOrEqual(t, ov, 1.0)
}
