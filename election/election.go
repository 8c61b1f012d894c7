// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package election implements the per-node greedy knapsack election by
// score-to-demand ratio (§4.4) and the multi-node fixed point with
// false-winner elimination.
package election

import (
	"sort"

	"github.com/gabrielecastellano/dragon/bidding"
	"github.com/gabrielecastellano/dragon/rap"
)

// ElectionOnNode runs the greedy 0/1 knapsack for node n: repeatedly pick
// the highest score/demand-ratio candidate (agents with a non-zero bid on
// n, not in blacklist, not already chosen) whose consumption still fits
// residual capacity, until no candidate fits. Ties on ratio are broken by
// ascending agent name. A candidate with norm(consumption) == 0 is
// ineligible (§9) rather than treated as an infinite ratio.
func ElectionOnNode(p *rap.Problem, data *bidding.Data, n int, blacklist map[int]bool) []int {
	residual := p.Capacity(n)
	chosen := make(map[int]bool, p.NumSDOs())
	var winners []int

	for {
		best := -1
		var bestRatio float64
		for a := 0; a < p.NumSDOs(); a++ {
			if blacklist[a] || chosen[a] {
				continue
			}
			b := data.Get(n, a)
			if b.IsZero() {
				continue
			}
			ratio, ok := b.Ratio(p, n)
			if !ok {
				continue
			}
			if !p.Fits(b.Consumption, residual) {
				continue
			}
			if best == -1 || ratio > bestRatio || (ratio == bestRatio && p.SDOs[a] < p.SDOs[best]) {
				best = a
				bestRatio = ratio
			}
		}
		if best == -1 {
			break
		}
		chosen[best] = true
		winners = append(winners, best)
		residual = p.Sub(residual, data.Get(n, best).Consumption)
	}

	sort.Ints(winners)
	return winners
}

// MultiNodeElection runs ElectionOnNode for every node under the same
// blacklist, computes each agent's lost nodes, and eliminates false
// winners by recursively re-running the election with confirmed fakes
// added to the blacklist. The blacklist grows monotonically each
// recursion, so termination follows from the finite agent set.
func MultiNodeElection(p *rap.Problem, data *bidding.Data, blacklist map[int]bool) (bidding.Winners, map[int][]int) {
	if blacklist == nil {
		blacklist = map[int]bool{}
	}

	winners := bidding.NewWinners(p.NumNodes(), p.NumSDOs())
	for n := 0; n < p.NumNodes(); n++ {
		for _, a := range ElectionOnNode(p, data, n, blacklist) {
			winners.Set(n, a, true)
		}
	}

	lostNodes := make(map[int][]int, p.NumSDOs())
	for a := 0; a < p.NumSDOs(); a++ {
		lostNodes[a] = bidding.LostNodes(data, winners, a)
	}

	fakes := computeFakeWinners(p, data, winners, lostNodes)
	if len(fakes) > 0 {
		next := make(map[int]bool, len(blacklist)+len(fakes))
		for a := range blacklist {
			next[a] = true
		}
		for a := range fakes {
			next[a] = true
		}
		return MultiNodeElection(p, data, next)
	}

	return winners, lostNodes
}
