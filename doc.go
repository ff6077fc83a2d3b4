// Copyright (c) 2025, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package assemblies is the overall repository for the assembly calculus
engine implemented in the Go language (golang): sparse, randomly-wired
populations of units that, through repeated projection rounds and Hebbian
synaptic strengthening, converge to stable overlapping winner sets
(assemblies).

This top-level of the repository has no functional code -- everything is
organized into the following sub-repositories:

* assemblies: the core engine, with the Brain orchestrator, Area and
Stimulus populations, and lazily-materialized Connectome weight stores.
Networks with 10^4 - 10^6 units per area and connection probabilities down
to 0.01 are simulated without ever materializing full connectivity
matrices.

* synrand: the random synapse model -- binomial and order-statistic
approximations that answer how strongly a never-materialized unit is
driven by the current active inputs, and where the top-k selection
threshold falls among a large pool of such units.

* examples: these compile into runnable programs.  examples/convergence
runs a single stimulus-driven recurrent area to a stable assembly and
reports the round-over-round winner overlap.
*/
package assemblies
