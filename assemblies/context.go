// Copyright (c) 2025, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package assemblies

import (
	"github.com/emer/emergent/erand"
	xrand "golang.org/x/exp/rand"
)

// Context carries the explicitly-seeded random state threaded through
// Brain, Area and the random synapse model.  Each Area owns its own
// Context so the compute phase can run areas in parallel while remaining
// reproducible for a fixed Brain seed.
type Context struct {
	RndSeed int64          `desc:"seed this context was created or last reset with"`
	Rnd     *erand.SysRand `view:"-" desc:"generator for bernoulli draws and permutations"`
	Src     *xrand.Rand    `view:"-" desc:"source for the gonum distribution samplers in synrand"`
}

// NewContext returns a Context seeded with the given seed.
func NewContext(seed int64) *Context {
	ctx := &Context{}
	ctx.Seed(seed)
	return ctx
}

// Seed resets both generators to the given seed.
func (ctx *Context) Seed(seed int64) {
	ctx.RndSeed = seed
	ctx.Rnd = erand.NewSysRand(seed)
	ctx.Src = xrand.New(xrand.NewSource(uint64(seed)))
}
