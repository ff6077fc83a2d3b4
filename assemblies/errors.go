// Copyright (c) 2025, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package assemblies

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig is an invalid configuration: duplicate or unknown names,
	// k > n, p outside (0, 1].  Raised immediately, never recovered.
	ErrConfig = errors.New("assemblies: invalid configuration")

	// ErrNotRealized is a Reinforce on a synapse pair that was never
	// realized -- a programmer error, not a statistical outcome.
	ErrNotRealized = errors.New("assemblies: synapse pair not realized")
)

// cfgErrf wraps ErrConfig with a formatted detail message.
func cfgErrf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}
