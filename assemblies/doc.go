// Copyright (c) 2025, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package assemblies implements the core assembly calculus engine: sparse,
randomly-wired areas of units whose top-k winners, under repeated
projection and Hebbian strengthening, converge to stable assemblies.

The Brain owns named Areas and Stimuli and the Connectomes between them,
and advances in discrete synchronous rounds via Project: every target
area's new winners are computed from a pre-round snapshot of all active
inputs, then all areas commit, then every active edge is reinforced by
(1+beta) on co-firing pairs.  Winner selection over units that have never
been materialized is delegated to the synrand package, so each round costs
O(support + k) per area rather than O(n).

Unit ids in sparse areas are assigned contiguously as units first win, so
an area's support set is always [0, SupportN) and connectome columns can
track a resolution watermark: below it, an absent entry means no synapse;
above it, existence is still statistically unresolved.
*/
package assemblies
