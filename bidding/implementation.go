// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package bidding

// Placement is one committed (service, function, node) triple.
type Placement struct {
	Service  int
	Function int
	Node     int
}

// DetailedPlacement carries the marginal utility the orchestrator
// observed when it added this Placement to the bundle.
type DetailedPlacement struct {
	Placement
	Utility float64
}

// Implementation is the agent's committed placement: an ordered list of
// Placements plus a parallel Detailed slice carrying per-item utility
// (§3's "Implementation").
type Implementation struct {
	Items    []Placement
	Detailed []DetailedPlacement
}

// NewImplementation returns an empty Implementation.
func NewImplementation() Implementation {
	return Implementation{}
}

// IsEmpty reports whether no placements have been committed.
func (impl Implementation) IsEmpty() bool { return len(impl.Items) == 0 }

// OnNode returns the placements committed to node n.
func (impl Implementation) OnNode(n int) []Placement {
	var out []Placement
	for _, it := range impl.Items {
		if it.Node == n {
			out = append(out, it)
		}
	}
	return out
}

// Add appends a placement with its observed marginal utility, keeping
// Items and Detailed in lock-step.
func (impl *Implementation) Add(p Placement, utility float64) {
	impl.Items = append(impl.Items, p)
	impl.Detailed = append(impl.Detailed, DetailedPlacement{Placement: p, Utility: utility})
}
