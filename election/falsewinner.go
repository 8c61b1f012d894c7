// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package election

import (
	"sort"

	"github.com/gabrielecastellano/dragon/bidding"
	"github.com/gabrielecastellano/dragon/rap"
)

// computeFakeWinners finds every confirmed false winner across the
// current per-node winners (§4.4): an agent that won some node but lost
// another against agents who themselves, recursively, lost against
// non-fake winners. Candidates are considered in decreasing order of
// their maximum bid across nodes, with ties broken by ascending agent
// name, so the result does not depend on declaration order.
func computeFakeWinners(p *rap.Problem, data *bidding.Data, winners bidding.Winners, lostNodes map[int][]int) map[int]bool {
	numSDOs := p.NumSDOs()
	maxBids := make([]int64, numSDOs)
	biddedNodes := make([][]int, numSDOs)
	for a := 0; a < numSDOs; a++ {
		var maxBid int64 = -1
		var nodes []int
		for n := 0; n < p.NumNodes(); n++ {
			b := data.Get(n, a)
			if b.IsZero() {
				continue
			}
			nodes = append(nodes, n)
			if b.Value > maxBid {
				maxBid = b.Value
			}
		}
		maxBids[a] = maxBid
		biddedNodes[a] = nodes
	}

	candidateSet := map[int]bool{}
	for n := 0; n < p.NumNodes(); n++ {
		for _, a := range winners.Agents(n) {
			candidateSet[a] = true
		}
	}
	candidates := make([]int, 0, len(candidateSet))
	for a := range candidateSet {
		candidates = append(candidates, a)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if maxBids[candidates[i]] != maxBids[candidates[j]] {
			return maxBids[candidates[i]] > maxBids[candidates[j]]
		}
		return p.SDOs[candidates[i]] < p.SDOs[candidates[j]]
	})

	knownFakes := map[int]bool{}

	for _, a := range candidates {
		if knownFakes[a] {
			continue
		}
		if len(biddedNodes[a]) == 0 || len(lostNodes[a]) == 0 {
			continue
		}
		collected := map[int]bool{}
		for _, n := range lostNodes[a] {
			fakeWinner, found := findFakeWinner(p, a, n, winners, maxBids, biddedNodes, lostNodes, knownFakes, nil)
			for f := range found {
				collected[f] = true
			}
			if fakeWinner >= 0 {
				collected[fakeWinner] = true
				continue
			}
			knownFakes[a] = true
			break
		}
		// A collected candidate is confirmed fake only if it has a lost
		// node whose winners are not all themselves confirmed fakes.
		// Ascending agent name keeps the incremental confirmation
		// deterministic regardless of declaration order.
		confirmed := make([]int, 0, len(collected))
		for f := range collected {
			confirmed = append(confirmed, f)
		}
		sort.Slice(confirmed, func(i, j int) bool { return p.SDOs[confirmed[i]] < p.SDOs[confirmed[j]] })
		for _, fake := range confirmed {
			if realLoss(winners, lostNodes[fake], knownFakes) {
				knownFakes[fake] = true
			}
		}
	}

	return knownFakes
}

func realLoss(winners bidding.Winners, lostNodes []int, knownFakes map[int]bool) bool {
	for _, n := range lostNodes {
		for _, w := range winners.Agents(n) {
			if !knownFakes[w] {
				return true
			}
		}
	}
	return false
}

// findFakeWinner searches, among the winners of node, for an agent that
// is already known fake or that, recursively, lost some other node for
// sure. ignore is the recursion chain of agent ids to skip, preventing
// cycles (§9's Design Note: a depth-bounded DFS carrying a visited set in
// place of the source's guarding "ignore" list).
func findFakeWinner(
	p *rap.Problem,
	sdo, node int,
	winners bidding.Winners,
	maxBids []int64,
	biddedNodes [][]int,
	lostNodes map[int][]int,
	knownFakes map[int]bool,
	ignore []int,
) (fakeWinner int, found map[int]bool) {
	found = map[int]bool{}

	agents := append([]int(nil), winners.Agents(node)...)
	sort.Slice(agents, func(i, j int) bool { return maxBids[agents[i]] < maxBids[agents[j]] })

	for _, w := range agents {
		if knownFakes[w] {
			return w, found
		}
		if containsInt(ignore, w) || len(biddedNodes[w]) == 0 {
			continue
		}
		for _, lostNode := range lostNodes[w] {
			combinedKnown := make(map[int]bool, len(knownFakes)+len(found))
			for k := range knownFakes {
				combinedKnown[k] = true
			}
			for k := range found {
				combinedKnown[k] = true
			}
			otherFake, otherFound := findFakeWinner(p, w, lostNode, winners, maxBids, biddedNodes, lostNodes, combinedKnown, append(append([]int(nil), ignore...), sdo))
			if otherFake < 0 {
				// w lost this node for sure with no fake to blame: w is fake.
				return w, found
			}
			found[otherFake] = true
			for f := range otherFound {
				found[f] = true
			}
		}
	}
	return -1, found
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
