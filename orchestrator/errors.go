// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package orchestrator

import "errors"

// Internal signals only: both drive control flow inside Orchestrate and
// never surface past its public return (an infeasible bundle is an empty
// Implementation, not an error).
var (
	// errNoFunctionsLeft tells the strong attempt that backtracking
	// emptied the bundle with no candidate left at depth zero.
	errNoFunctionsLeft = errors.New("orchestrator: no functions left to place")

	// errSchedulingTimeout tells the patience embedding its improvement
	// budget ran out; the current improvement is accepted as-is.
	errSchedulingTimeout = errors.New("orchestrator: scheduling time limit reached")
)
