// Copyright (c) 2025, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package assemblies

// Stimulus is a fixed-size always-firing input source: all Size units are
// active on every round the stimulus is projected.  Immutable after
// creation.
type Stimulus struct {
	Nm    string `desc:"name of the stimulus"`
	Size  int    `desc:"number of units"`
	units []int
}

// NewStimulus returns a new stimulus of the given size.
func NewStimulus(name string, size int) *Stimulus {
	st := &Stimulus{Nm: name, Size: size}
	st.units = make([]int, size)
	for i := range st.units {
		st.units[i] = i
	}
	return st
}

func (st *Stimulus) Name() string { return st.Nm }

// Active returns the active unit ids: always all of them.  Callers must
// not modify the returned slice.
func (st *Stimulus) Active() []int { return st.units }
