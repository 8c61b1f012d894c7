// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package orchestrator builds, per agent, a candidate Implementation and
// this agent's own BiddingData cells: a strong attempt loop (greedy
// embedding with backtracking, re-bidding on loss) followed by a weak
// fallback (patience embedding into residual space) when the strong
// attempt cannot win every node it needs.
package orchestrator

import (
	"math"
	"time"

	"github.com/luxfi/log"

	"github.com/gabrielecastellano/dragon/bidding"
	"github.com/gabrielecastellano/dragon/election"
	"github.com/gabrielecastellano/dragon/oracle"
	"github.com/gabrielecastellano/dragon/rap"
)

// Orchestrator holds the fixed, per-agent context the orchestration
// algorithm needs: the problem instance, the private-utility oracle, a
// logger and the patience-embedding wall-clock budget.
type Orchestrator struct {
	problem             *rap.Problem
	oracle              oracle.Oracle
	log                 log.Logger
	schedulingTimeLimit time.Duration
}

// New returns an Orchestrator for the given problem instance and oracle.
func New(p *rap.Problem, o oracle.Oracle, logger log.Logger, schedulingTimeLimit time.Duration) *Orchestrator {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	return &Orchestrator{problem: p, oracle: o, log: logger, schedulingTimeLimit: schedulingTimeLimit}
}

// bidItem is one tentative (service, function, node) placement produced
// while searching, carrying the marginal utility it was chosen for.
type bidItem struct {
	service  int
	function int
	node     int
	utility  float64
}

// Orchestrate runs the full §4.3 algorithm: it mutates data's own cells
// for self and returns the resulting Implementation, which is empty when
// even the weak fallback finds no feasible placement (§7's
// InfeasibleBundle outcome -- not an error, the agent still participates
// as a non-winner).
func (o *Orchestrator) Orchestrate(data *bidding.Data, maxBidRatio bidding.MaxBidRatio, self int, serviceBundle []int) bidding.Implementation {
	p := o.problem
	now := nowTimestamp()

	// 1. Reset own bids.
	for n := 0; n < p.NumNodes(); n++ {
		data.Set(n, self, bidding.ZeroBid(p.NumResources()))
	}

	blacklist := make(map[int]bool)
	resourceBound := make([]rap.Vector, p.NumNodes())
	for n := 0; n < p.NumNodes(); n++ {
		resourceBound[n] = p.Capacity(n)
	}

	var lastWinners bidding.Winners
	var lastData *bidding.Data

	for len(blacklist) < p.NumNodes() {
		items, err := o.greedyEmbed(serviceBundle, blacklist, resourceBound)
		if err != nil {
			// release biddings, fall through to weak fallback using the
			// last election's residual view.
			for n := 0; n < p.NumNodes(); n++ {
				data.Set(n, self, bidding.ZeroBid(p.NumResources()))
			}
			break
		}

		o.commitScoring(data, maxBidRatio, self, items, now)

		winners, lostNodes := election.MultiNodeElection(p, data, nil)
		updateMaxBidRatio(p, data, winners, maxBidRatio, self)
		lastWinners, lastData = winners, data

		ownLost := lostNodes[self]
		if len(ownLost) == 0 {
			return implementationFromItems(items)
		}

		for _, n := range ownLost {
			blacklist[n] = true
			data.Set(n, self, bidding.ZeroBid(p.NumResources()))
			resourceBound[n] = residualExcluding(p, winners, data, n, self)
		}
	}

	return o.weakFallback(data, maxBidRatio, self, serviceBundle, lastWinners, lastData, now)
}

func nowTimestamp() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// residualExcluding returns the capacity left on node n after every
// current winner other than self has been subtracted -- the residual
// space the weak fallback and the next strong attempt may use.
func residualExcluding(p *rap.Problem, winners bidding.Winners, data *bidding.Data, n, self int) rap.Vector {
	used := make(rap.Vector, p.NumResources())
	for _, w := range winners.Agents(n) {
		if w == self {
			continue
		}
		used = p.Sum(used, data.Get(n, w).Consumption)
	}
	residual := p.ResidualCapacity(n, used)
	if residual == nil {
		return make(rap.Vector, p.NumResources())
	}
	return residual
}

// commitScoring converts a committed bid_bundle into this agent's own
// BiddingData cells, per §4.5: per used node, sum consumption and summed
// utility, clamped to the PerNodeMaxBidRatio ceiling.
func (o *Orchestrator) commitScoring(data *bidding.Data, maxBidRatio bidding.MaxBidRatio, self int, items []bidItem, timestamp float64) {
	p := o.problem
	perNode := make(map[int][]bidItem)
	for _, it := range items {
		perNode[it.node] = append(perNode[it.node], it)
	}
	for n, nodeItems := range perNode {
		consumption := make(rap.Vector, p.NumResources())
		var utilitySum float64
		for _, it := range nodeItems {
			consumption = p.Sum(consumption, p.Consumption(it.function))
			utilitySum += it.utility
		}
		bidValue := int64(math.Round(utilitySum))

		norm := p.Norm(n, consumption)
		if norm > 0 && !math.IsInf(maxBidRatio[n], 1) {
			if float64(bidValue)/norm > maxBidRatio[n] {
				bidValue = int64(math.Floor(norm * maxBidRatio[n]))
			}
		}
		data.Set(n, self, bidding.Bid{Value: bidValue, Consumption: consumption, Timestamp: timestamp})
	}
}

// updateMaxBidRatio applies §4.5's post-election ceiling update: tighten
// to the minimum winning ratio observed on each node, subtracting one ULP
// when self is not among that node's winners.
func updateMaxBidRatio(p *rap.Problem, data *bidding.Data, winners bidding.Winners, maxBidRatio bidding.MaxBidRatio, self int) {
	for n := 0; n < p.NumNodes(); n++ {
		agents := winners.Agents(n)
		if len(agents) == 0 {
			continue
		}
		minRatio := math.Inf(1)
		found := false
		for _, w := range agents {
			if r, ok := data.Get(n, w).Ratio(p, n); ok {
				if r < minRatio {
					minRatio = r
				}
				found = true
			}
		}
		if !found {
			continue
		}
		candidate := minRatio
		if !winners.Has(n, self) {
			candidate = math.Nextafter(minRatio, math.Inf(-1))
		}
		maxBidRatio.Tighten(n, candidate)
	}
}

func implementationFromItems(items []bidItem) bidding.Implementation {
	impl := bidding.NewImplementation()
	for _, it := range items {
		impl.Add(bidding.Placement{Service: it.service, Function: it.function, Node: it.node}, it.utility)
	}
	return impl
}
