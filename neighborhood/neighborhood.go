// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package neighborhood computes the static neighbor set of an agent (§4.8):
// either from a topology file's adjacency list, or deterministically from a
// hash of the sorted agent-name pair against a configured probability
// threshold, with an optional time-varying "current connectivity" filter on
// top of the static set.
package neighborhood

import (
	"crypto/sha256"
	"math/big"
	"sort"
	"strconv"
)

// Topology is the `{agent: [neighbor, ...]}` adjacency map of §6's topology
// file, symmetric by construction.
type Topology map[string][]string

// Static returns the neighbor set of self under the static topology: the
// entries from topology if loadTopology is true and topology is non-nil,
// otherwise the hash-based generator compared against neighborProbability
// (an integer 0..100, per §6).
func Static(self string, allAgents []string, loadTopology bool, topology Topology, neighborProbability int) []string {
	if loadTopology && topology != nil {
		return append([]string(nil), topology[self]...)
	}

	var out []string
	for _, other := range allAgents {
		if other == self {
			continue
		}
		if hashAdmits("1", self, other, neighborProbability) {
			out = append(out, other)
		}
	}
	sort.Strings(out)
	return out
}

// Current applies the §4.8 dynamic connectivity filter on top of a static
// neighbor set: for each pair, a second hash keyed on the 10-second window
// containing unixSeconds decides whether the link currently survives, with
// roughly a 75% per-window survival probability. When stableConnections is
// true the static set is returned unchanged.
func Current(self string, staticNeighbors []string, stableConnections bool, unixSeconds int64) []string {
	if stableConnections {
		return append([]string(nil), staticNeighbors...)
	}

	window := unixSeconds / 10
	windowStr := strconv.FormatInt(window, 10)

	var out []string
	for _, n := range staticNeighbors {
		if hashAdmits("2", self, n, 75, windowStr) {
			out = append(out, n)
		}
	}
	return out
}

var hundred = big.NewInt(100)

// hashAdmits implements the admission rule: SHA-256 of salt followed by
// the sorted pair (plus any extra parts, used by Current for the
// time-window), whose last two decimal digits -- the full 256-bit digest
// value mod 100, not a truncated prefix -- are compared against
// threshold. Sorting the pair first makes the relation symmetric.
func hashAdmits(salt, a, b string, threshold int, extra ...string) bool {
	pair := []string{a, b}
	sort.Strings(pair)

	h := sha256.New()
	h.Write([]byte(salt))
	for _, p := range pair {
		h.Write([]byte(p))
	}
	for _, e := range extra {
		h.Write([]byte(e))
	}
	sum := h.Sum(nil)
	lastTwoDigits := new(big.Int).Mod(new(big.Int).SetBytes(sum), hundred).Int64()
	return int(lastTwoDigits) < threshold
}
