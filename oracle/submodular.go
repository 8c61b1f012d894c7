// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package oracle

import (
	"strconv"
	"sync"
)

// submodular wraps an Oracle so the marginal utility of a fixed
// (service, function, node) placement never grows as the bundle grows:
// the wrapped value is the minimum of the inner oracle's value over every
// prefix of the bundle argument, including the empty one. Since the
// prefixes of a bundle are a subset of the prefixes of any bundle that
// extends it, the minimum can only shrink as placements are appended,
// which is exactly the non-increasing marginal gain the
// submodular_private_utility flag demands. The value depends only on the
// call's arguments, so the orchestrator's determinism guarantee is
// unaffected; a memo keyed by (bundle, placement) keeps the prefix walk
// from re-querying the inner oracle.
type submodular struct {
	mu    sync.Mutex
	inner Oracle
	memo  map[string]float64
}

func newSubmodular(inner Oracle) Oracle {
	return &submodular{inner: inner, memo: make(map[string]float64)}
}

func (s *submodular) Utility(bundleSoFar Bundle, service, function, node int) float64 {
	key := prefixKey(bundleSoFar) + "|" +
		strconv.Itoa(service) + ":" + strconv.Itoa(function) + ":" + strconv.Itoa(node)

	s.mu.Lock()
	if v, ok := s.memo[key]; ok {
		s.mu.Unlock()
		return v
	}
	s.mu.Unlock()

	min := s.inner.Utility(nil, service, function, node)
	for k := 1; k <= len(bundleSoFar); k++ {
		if v := s.inner.Utility(bundleSoFar[:k], service, function, node); v < min {
			min = v
		}
	}

	s.mu.Lock()
	s.memo[key] = min
	s.mu.Unlock()
	return min
}

// prefixKey is an order-preserving bundle key: unlike bundleKey (which
// sorts, for oracles that treat the bundle as a set), the memo must
// distinguish bundles whose prefix chains differ.
func prefixKey(b Bundle) string {
	key := ""
	for _, it := range b {
		key += strconv.Itoa(it.Service) + ":" + strconv.Itoa(it.Function) + ":" + strconv.Itoa(it.Node) + ","
	}
	return key
}
