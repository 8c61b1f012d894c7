// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package bidding

import "sort"

// Winners is PerNodeWinners: for each node, the set of agent ids that won
// the most recent election on it.
type Winners [][]bool // [node][agent] -> won

// NewWinners returns an empty Winners table for the given instance shape.
func NewWinners(numNodes, numSDOs int) Winners {
	w := make(Winners, numNodes)
	for n := range w {
		w[n] = make([]bool, numSDOs)
	}
	return w
}

// Has reports whether agent a won node n.
func (w Winners) Has(n, a int) bool { return w[n][a] }

// Set marks agent a as a winner (or not) on node n.
func (w Winners) Set(n, a int, won bool) { w[n][a] = won }

// Agents returns the winner agent ids for node n, sorted ascending.
func (w Winners) Agents(n int) []int {
	var out []int
	for a, won := range w[n] {
		if won {
			out = append(out, a)
		}
	}
	sort.Ints(out)
	return out
}

// Clone returns a deep copy of w.
func (w Winners) Clone() Winners {
	out := make(Winners, len(w))
	for n := range w {
		out[n] = append([]bool(nil), w[n]...)
	}
	return out
}

// Equal reports whether two Winners tables agree on every (node, agent)
// cell.
func Equal(a, b Winners) bool {
	if len(a) != len(b) {
		return false
	}
	for n := range a {
		if len(a[n]) != len(b[n]) {
			return false
		}
		for agent := range a[n] {
			if a[n][agent] != b[n][agent] {
				return false
			}
		}
	}
	return true
}

// LostNodes returns, for agent a, the set of nodes it bid on (non-zero in
// data) but did not win, per §3/§4.4's lost_nodes definition.
func LostNodes(data *Data, winners Winners, a int) []int {
	var lost []int
	for n := 0; n < len(winners); n++ {
		if data.Get(n, a).IsZero() {
			continue
		}
		if !winners.Has(n, a) {
			lost = append(lost, n)
		}
	}
	return lost
}
