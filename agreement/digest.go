// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package agreement

import (
	"crypto/sha256"
	"sort"
	"strings"

	"github.com/luxfi/ids"

	"github.com/gabrielecastellano/dragon/bidding"
	"github.com/gabrielecastellano/dragon/rap"
)

// winnerDigest returns H(winners[n]): the SHA-256 digest of the sorted,
// comma-joined winner names on node n, exactly the value the decision
// table in §4.6 compares across current/received/new winner tables.
func winnerDigest(p *rap.Problem, winners bidding.Winners, n int) ids.ID {
	agents := winners.Agents(n)
	names := make([]string, len(agents))
	for i, a := range agents {
		names[i] = p.SDOs[a]
	}
	sort.Strings(names)
	return ids.ID(sha256.Sum256([]byte(strings.Join(names, ","))))
}

// nodeTimestamp returns the latest bid timestamp among every agent's cell
// on node n in data, or 0 if all are unset -- the node-level "when was
// this decided" signal the decision table compares across
// current/received/new, scoped like ConsumptionTotal to the whole node so
// a non-winner's rebid is not invisible to the table.
func nodeTimestamp(data *bidding.Data, n int) float64 {
	var latest float64
	p := data.Problem()
	for a := 0; a < p.NumSDOs(); a++ {
		if ts := data.Get(n, a).Timestamp; ts > latest {
			latest = ts
		}
	}
	return latest
}
