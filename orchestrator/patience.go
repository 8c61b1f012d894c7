// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package orchestrator

import (
	"sort"
	"time"

	"github.com/gabrielecastellano/dragon/bidding"
	"github.com/gabrielecastellano/dragon/oracle"
	"github.com/gabrielecastellano/dragon/rap"
)

// weakFallback runs the §4.3 step 6 patience embedding when the strong
// attempt loop could not win every node its bundle needs: it seeds one
// placement per service with the lightest feasible implementing function,
// then spends up to schedulingTimeLimit of wall clock trying to upgrade
// individual placements to a heavier, higher-utility function that still
// fits. The residual space available to it is whatever capacity the last
// election's winners (other than self) left behind.
func (o *Orchestrator) weakFallback(
	data *bidding.Data,
	maxBidRatio bidding.MaxBidRatio,
	self int,
	serviceBundle []int,
	lastWinners bidding.Winners,
	lastData *bidding.Data,
	now float64,
) bidding.Implementation {
	p := o.problem

	residual := make([]rap.Vector, p.NumNodes())
	for n := 0; n < p.NumNodes(); n++ {
		if lastWinners != nil {
			residual[n] = residualExcluding(p, lastWinners, lastData, n, self)
		} else {
			residual[n] = p.Capacity(n)
		}
	}

	placed := make(map[int]bidItem) // service -> current placement
	order := append([]int(nil), serviceBundle...)
	sort.Ints(order)

	for _, s := range order {
		item, ok := o.lightestFit(s, placed, residual)
		if !ok {
			// The bundle is committed whole or not at all: one service
			// with no room anywhere fails the entire fallback.
			return bidding.NewImplementation()
		}
		residual[item.node] = p.Sub(residual[item.node], p.Consumption(item.function))
		placed[s] = item
	}

	if len(placed) == 0 {
		return bidding.NewImplementation()
	}

	deadline := time.Now().Add(o.schedulingTimeLimit)
	for {
		improved, err := o.improvePass(order, placed, residual, deadline)
		if err != nil || !improved {
			// errSchedulingTimeout accepts the improvement made so far.
			break
		}
	}

	items := make([]bidItem, 0, len(placed))
	for _, s := range order {
		if it, ok := placed[s]; ok {
			items = append(items, it)
		}
	}

	o.commitScoring(data, maxBidRatio, self, items, now)
	return implementationFromItems(items)
}

// improvePass makes one sweep over the bundle, upgrading each service's
// placement to a higher-utility one that still fits. It reports whether
// any placement changed, or errSchedulingTimeout once deadline passes.
func (o *Orchestrator) improvePass(order []int, placed map[int]bidItem, residual []rap.Vector, deadline time.Time) (bool, error) {
	p := o.problem
	improved := false
	for _, s := range order {
		if !time.Now().Before(deadline) {
			return improved, errSchedulingTimeout
		}
		current, ok := placed[s]
		if !ok {
			continue
		}
		if better, ok := o.bestUpgrade(s, current, placed, residual); ok {
			residual[current.node] = p.Sum(residual[current.node], p.Consumption(current.function))
			residual[better.node] = p.Sub(residual[better.node], p.Consumption(better.function))
			placed[s] = better
			improved = true
		}
	}
	return improved, nil
}

// lightestFit returns the cheapest (lowest norm(consumption) on its node)
// feasible (function, node) placement for service s given the current
// residual capacity, breaking ties by highest utility, then by the
// service's implementing-function order and ascending node id.
func (o *Orchestrator) lightestFit(s int, placed map[int]bidItem, residual []rap.Vector) (bidItem, bool) {
	p := o.problem
	bundleSoFar := bundleFromPlaced(placed)

	var best bidItem
	var bestNorm float64
	found := false

	for _, f := range p.ImplementingFunctions(s) {
		consumption := p.Consumption(f)
		for n := 0; n < p.NumNodes(); n++ {
			if !p.Fits(consumption, residual[n]) {
				continue
			}
			u := o.oracle.Utility(bundleSoFar, s, f, n)
			if u <= 0 {
				continue
			}
			norm := p.Norm(n, consumption)
			if !found || norm < bestNorm || (norm == bestNorm && u > best.utility) {
				best = bidItem{service: s, function: f, node: n, utility: u}
				bestNorm = norm
				found = true
			}
		}
	}
	return best, found
}

// bestUpgrade looks for a (function, node) placement for s, other than its
// current one, that strictly raises utility and still fits residual
// capacity once current's own consumption is given back.
func (o *Orchestrator) bestUpgrade(s int, current bidItem, placed map[int]bidItem, residual []rap.Vector) (bidItem, bool) {
	p := o.problem
	bundleSoFar := bundleFromPlaced(placed)

	freed := make([]rap.Vector, p.NumNodes())
	copy(freed, residual)
	freed[current.node] = p.Sum(freed[current.node], p.Consumption(current.function))

	var best bidItem
	found := false

	for _, f := range p.ImplementingFunctions(s) {
		consumption := p.Consumption(f)
		for n := 0; n < p.NumNodes(); n++ {
			if f == current.function && n == current.node {
				continue
			}
			if !p.Fits(consumption, freed[n]) {
				continue
			}
			u := o.oracle.Utility(bundleSoFar, s, f, n)
			if u <= current.utility {
				continue
			}
			if !found || u > best.utility {
				best = bidItem{service: s, function: f, node: n, utility: u}
				found = true
			}
		}
	}
	return best, found
}

// bundleFromPlaced returns the placements ordered by service id, so the
// oracle sees the same bundle whatever the map iteration order.
func bundleFromPlaced(placed map[int]bidItem) oracle.Bundle {
	bundle := make(oracle.Bundle, 0, len(placed))
	for _, it := range placed {
		bundle = append(bundle, oracle.Item{Service: it.service, Function: it.function, Node: it.node})
	}
	sort.Slice(bundle, func(i, j int) bool { return bundle[i].Service < bundle[j].Service })
	return bundle
}
