// Copyright (c) 2025, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package assemblies

// Overlap returns the number of unit ids present in both a and b.
func Overlap(a, b []int) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	in := make(map[int]bool, len(a))
	for _, u := range a {
		in[u] = true
	}
	n := 0
	for _, u := range b {
		if in[u] {
			n++
		}
	}
	return n
}
