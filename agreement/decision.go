// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package agreement

import (
	"github.com/luxfi/ids"

	"github.com/gabrielecastellano/dragon/rap"
)

// action is what a node's BiddingData should do in response to one
// sender's report, per §4.6 step 4's decision table.
type action int

const (
	actionLeave action = iota
	actionUpdate
	actionReset
)

// nodeOutcome is the result of comparing this agent's current view of node
// n against one sender's received view and the freshly re-elected view.
type nodeOutcome struct {
	action      action
	rebroadcast bool
	agreed      bool
}

// classifyNode applies §4.6's decision table for a single (node, sender)
// pair. currentDigest/receivedDigest/newDigest are H(winners[n]) under the
// pre-merge, sender-reported and post-merge winner tables respectively;
// the timestamp and consumption arguments are the node-level signals the
// table keys off of in the same three views. swapped captures the
// sender/self swap condition, computed by the caller from the three
// winner tables directly since it needs winner-membership, not just
// digests.
func classifyNode(
	p *rap.Problem,
	currentDigest, receivedDigest, newDigest ids.ID,
	currentTimestamp, receivedTimestamp, newTimestamp float64,
	currentConsumption, receivedConsumption, newConsumption rap.Vector,
	swapped bool,
) nodeOutcome {
	if swapped {
		return nodeOutcome{action: actionReset, rebroadcast: true, agreed: false}
	}

	allDigestsEqual := currentDigest == receivedDigest && receivedDigest == newDigest
	if allDigestsEqual {
		consumptionEqual := p.Equals(currentConsumption, receivedConsumption) && p.Equals(receivedConsumption, newConsumption)
		allTimestampsEqual := currentTimestamp == receivedTimestamp && receivedTimestamp == newTimestamp

		if receivedTimestamp > currentTimestamp && consumptionEqual {
			return nodeOutcome{action: actionUpdate, rebroadcast: false, agreed: true}
		}
		if allTimestampsEqual {
			return nodeOutcome{action: actionLeave, rebroadcast: false, agreed: true}
		}
		if consumptionEqual {
			return nodeOutcome{action: actionLeave, rebroadcast: false, agreed: true}
		}
		return nodeOutcome{action: actionUpdate, rebroadcast: true, agreed: false}
	}

	if receivedDigest == newDigest {
		consumptionEqual := p.Equals(receivedConsumption, newConsumption)
		return nodeOutcome{action: actionUpdate, rebroadcast: true, agreed: consumptionEqual}
	}

	if currentDigest == newDigest {
		return nodeOutcome{action: actionLeave, rebroadcast: true, agreed: false}
	}

	// all three differ
	return nodeOutcome{action: actionUpdate, rebroadcast: true, agreed: false}
}
