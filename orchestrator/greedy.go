// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package orchestrator

import (
	"sort"

	"github.com/gabrielecastellano/dragon/oracle"
	"github.com/gabrielecastellano/dragon/rap"
)

// greedyEmbed builds the maximum-utility bid_bundle for serviceBundle,
// subject to resourceBound and blacklist, by repeatedly picking the
// (service, function, node) triple with the highest marginal utility
// among services not yet placed. A per-depth skip count lets the search
// retry the next-best candidate when the current one violates
// resourceBound, and backtracking undoes the most recent placement when
// every candidate at a depth has been exhausted. Returns
// errNoFunctionsLeft when backtracking empties the bundle (§4.3 step 2's
// "infeasible").
func (o *Orchestrator) greedyEmbed(serviceBundle []int, blacklist map[int]bool, resourceBound []rap.Vector) ([]bidItem, error) {
	p := o.problem
	skipVector := make([]int, len(serviceBundle)+1)
	var added []bidItem
	usedByNode := make(map[int]rap.Vector)

	for len(added) < len(serviceBundle) {
		depth := len(added)

		cand, ok := o.nextBestCandidate(serviceBundle, added, skipVector[depth], blacklist)
		if !ok {
			// No function fits at this depth: backtrack.
			skipVector[depth] = 0
			if len(added) == 0 {
				return nil, errNoFunctionsLeft
			}
			last := added[len(added)-1]
			added = added[:len(added)-1]
			usedByNode[last.node] = p.Sub(usedByNode[last.node], p.Consumption(last.function))
			skipVector[len(added)]++
			continue
		}

		tentative := p.Sum(usedByNode[cand.node], p.Consumption(cand.function))
		if !p.Fits(tentative, resourceBound[cand.node]) {
			skipVector[depth]++
			continue
		}

		added = append(added, cand)
		usedByNode[cand.node] = tentative
	}

	return added, nil
}

// nextBestCandidate ranks every (service, function, node) triple not yet
// placed, not on a blacklisted node, with positive marginal utility, in
// descending utility order (ties broken by service, function, node id for
// determinism), and returns the skip-th ranked one. Whether a candidate
// actually fits the resource bound is the caller's check: ranking admits
// it either way, so a zero-consumption function on a full node stays
// placeable.
func (o *Orchestrator) nextBestCandidate(serviceBundle []int, added []bidItem, skip int, blacklist map[int]bool) (bidItem, bool) {
	p := o.problem
	placed := make(map[int]bool, len(added))
	for _, it := range added {
		placed[it.service] = true
	}

	bundleSoFar := make(oracle.Bundle, len(added))
	for i, it := range added {
		bundleSoFar[i] = oracle.Item{Service: it.service, Function: it.function, Node: it.node}
	}

	var candidates []bidItem
	for _, s := range serviceBundle {
		if placed[s] {
			continue
		}
		for _, f := range p.ImplementingFunctions(s) {
			for n := 0; n < p.NumNodes(); n++ {
				if blacklist[n] {
					continue
				}
				u := o.oracle.Utility(bundleSoFar, s, f, n)
				if u <= 0 {
					continue
				}
				candidates = append(candidates, bidItem{service: s, function: f, node: n, utility: u})
			}
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].utility != candidates[j].utility {
			return candidates[i].utility > candidates[j].utility
		}
		if candidates[i].service != candidates[j].service {
			return candidates[i].service < candidates[j].service
		}
		if candidates[i].function != candidates[j].function {
			return candidates[i].function < candidates[j].function
		}
		return candidates[i].node < candidates[j].node
	})

	if skip >= len(candidates) {
		return bidItem{}, false
	}
	return candidates[skip], true
}
