// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package agreement implements the multi-sender agreement engine of §4.6:
// merging a round's received neighbor reports into a single BiddingData
// view, re-electing, checking for an overbid, and classifying the outcome
// against every sender via the winner-digest decision table.
package agreement

import (
	"github.com/gabrielecastellano/dragon/bidding"
	"github.com/gabrielecastellano/dragon/rap"
)

// Report is one neighbor's decoded bidding message: its own view of
// BiddingData and PerNodeWinners as of when it was sent.
type Report struct {
	Sender  int
	Data    *bidding.Data
	Winners bidding.Winners
}

// merge implements §4.6 step 1: for every (node, agent) cell, a sender's
// self-report of its own cell is authoritative; self's own cell is kept
// local; every other agent's cell is taken from whichever report observed
// the latest timestamp for it.
func merge(p *rap.Problem, self int, local *bidding.Data, reports []Report) *bidding.Data {
	merged := bidding.NewData(p)
	bySender := make(map[int]Report, len(reports))
	for _, r := range reports {
		bySender[r.Sender] = r
	}

	for a := 0; a < p.NumSDOs(); a++ {
		for n := 0; n < p.NumNodes(); n++ {
			if a == self {
				merged.Set(n, a, local.Get(n, a))
				continue
			}
			if r, ok := bySender[a]; ok {
				merged.Set(n, a, r.Data.Get(n, a))
				continue
			}
			var best bidding.Bid
			found := false
			for _, r := range reports {
				cell := r.Data.Get(n, a)
				if !found || cell.Timestamp > best.Timestamp {
					best = cell
					found = true
				}
			}
			if found {
				merged.Set(n, a, best)
			} else {
				merged.Set(n, a, local.Get(n, a))
			}
		}
	}
	return merged
}
