// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package agreement

import (
	"github.com/luxfi/log"

	"github.com/gabrielecastellano/dragon/bidding"
	"github.com/gabrielecastellano/dragon/election"
	"github.com/gabrielecastellano/dragon/orchestrator"
	"github.com/gabrielecastellano/dragon/rap"
)

// Engine runs one agent's §4.6 agreement round against a batch of
// neighbor reports.
type Engine struct {
	problem       *rap.Problem
	orchestrator  *orchestrator.Orchestrator
	self          int
	serviceBundle []int
	rebidEnabled  bool
	log           log.Logger
}

// New returns an Engine for self, bidding serviceBundle, that may
// immediately call back into orchestrator to rebid on an overbid when
// rebidEnabled is true.
func New(p *rap.Problem, orch *orchestrator.Orchestrator, self int, serviceBundle []int, rebidEnabled bool, logger log.Logger) *Engine {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	return &Engine{
		problem:       p,
		orchestrator:  orch,
		self:          self,
		serviceBundle: serviceBundle,
		rebidEnabled:  rebidEnabled,
		log:           logger,
	}
}

// Result is the outcome of one MultiAgreement call.
type Result struct {
	Data               *bidding.Data
	Winners            bidding.Winners
	Implementation     bidding.Implementation
	Overbid            bool
	PendingRebid       bool
	Rebroadcast        bool
	Updated            bool
	PerSenderAgreement map[int]bool
}

// MultiAgreement runs §4.6 in full: merge, re-elect, overbid check, and
// (absent an overbid) per-node classification against every sender.
// currentWinners is this agent's winners table before the round; local is
// its own BiddingData; maxBidRatio is mutated as a side effect of an
// overbid rebid, and the resulting Implementation (implementation itself
// when there is no overbid) is returned in Result.
func (e *Engine) MultiAgreement(
	local *bidding.Data,
	currentWinners bidding.Winners,
	maxBidRatio bidding.MaxBidRatio,
	implementation bidding.Implementation,
	reports []Report,
) Result {
	p := e.problem
	merged := merge(p, e.self, local, reports)

	newWinners, lostNodes := election.MultiNodeElection(p, merged, nil)

	ownLost := lostNodes[e.self]
	if len(ownLost) > 0 {
		return e.handleOverbid(local, merged, maxBidRatio)
	}

	perSenderAgreement := make(map[int]bool, len(reports))
	rebroadcast := false
	updated := false

	for _, r := range reports {
		agreedEverywhere := true
		for n := 0; n < p.NumNodes(); n++ {
			senderInCurrent := currentWinners != nil && currentWinners.Has(n, r.Sender)
			senderInNew := newWinners.Has(n, r.Sender)
			selfInCurrent := currentWinners != nil && currentWinners.Has(n, e.self)
			selfInReceived := r.Winners.Has(n, e.self)
			swapped := senderInCurrent && !senderInNew && !selfInCurrent && selfInReceived

			currentDigest := winnerDigest(p, emptyIfNil(currentWinners, p), n)
			receivedDigest := winnerDigest(p, r.Winners, n)
			newDigest := winnerDigest(p, newWinners, n)

			currentTimestamp := nodeTimestamp(local, n)
			receivedTimestamp := nodeTimestamp(r.Data, n)
			newTimestamp := nodeTimestamp(merged, n)

			currentConsumption := local.ConsumptionTotal(n)
			receivedConsumption := r.Data.ConsumptionTotal(n)
			newConsumption := merged.ConsumptionTotal(n)

			outcome := classifyNode(
				p,
				currentDigest, receivedDigest, newDigest,
				currentTimestamp, receivedTimestamp, newTimestamp,
				currentConsumption, receivedConsumption, newConsumption,
				swapped,
			)

			if outcome.action == actionReset {
				for a := 0; a < p.NumSDOs(); a++ {
					merged.Set(n, a, bidding.ZeroBid(p.NumResources()))
				}
			}
			if outcome.rebroadcast {
				rebroadcast = true
			}
			if outcome.action != actionLeave {
				updated = true
			}
			if !outcome.agreed {
				agreedEverywhere = false
			}
		}
		perSenderAgreement[r.Sender] = agreedEverywhere
	}

	return Result{
		Data:               merged,
		Winners:            newWinners,
		Implementation:     implementation,
		Overbid:            false,
		PendingRebid:       false,
		Rebroadcast:        rebroadcast,
		Updated:            updated,
		PerSenderAgreement: perSenderAgreement,
	}
}

// handleOverbid implements §4.6 step 3: wipe this agent's own Implementation
// and bids, mark a pending rebid, and immediately rebid when allowed.
func (e *Engine) handleOverbid(local, merged *bidding.Data, maxBidRatio bidding.MaxBidRatio) Result {
	p := e.problem
	for n := 0; n < p.NumNodes(); n++ {
		if !local.Get(n, e.self).IsZero() {
			merged.Set(n, e.self, bidding.ZeroBid(p.NumResources()))
		}
	}

	impl := bidding.NewImplementation()
	pending := true

	if e.rebidEnabled {
		impl = e.orchestrator.Orchestrate(merged, maxBidRatio, e.self, e.serviceBundle)
		pending = false
	}

	winners, _ := election.MultiNodeElection(p, merged, nil)

	return Result{
		Data:           merged,
		Winners:        winners,
		Implementation: impl,
		Overbid:        true,
		PendingRebid:   pending,
		Rebroadcast:    true,
		Updated:        true,
	}
}

func emptyIfNil(w bidding.Winners, p *rap.Problem) bidding.Winners {
	if w != nil {
		return w
	}
	return bidding.NewWinners(p.NumNodes(), p.NumSDOs())
}
