// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package oracle provides the pluggable private-utility function each
// agent uses to score a candidate (service, function, node) placement
// against the bundle it has already tentatively assembled. The oracle
// never learns the identity of any other agent; it only ever sees its
// own bundle-so-far plus the ids the orchestrator is considering.
package oracle

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/gabrielecastellano/dragon/rap"
)

// ErrUnknownFlavor is returned by NewFactory for an unrecognized flavor name.
var ErrUnknownFlavor = errors.New("oracle: unknown flavor")

// Item is one placement already committed to a Bundle.
type Item struct {
	Service  int
	Function int
	Node     int
}

// Bundle is the ordered sequence of placements an agent has tentatively
// committed to so far, in the order they were added.
type Bundle []Item

// Oracle scores the marginal private utility of adding (service, function,
// node) on top of bundleSoFar.
type Oracle interface {
	Utility(bundleSoFar Bundle, service, function, node int) float64
}

// StatsSource feeds the side-channel statistics the CDN-traffic and
// game-latency flavors sample from, per a JSON stats file keyed by
// (service, function, node).
type StatsSource interface {
	Sample(service, function, node int) float64
}

// Config carries everything a flavor needs to build a bounded,
// deterministic utility value: the problem instance (for resource
// consumption and capacity), the bidding agent's own name (so different
// agents score the same placement differently) and an optional stats
// side-channel.
type Config struct {
	Problem *rap.Problem
	SDOName string
	Stats   StatsSource
}

// NewFactory builds the Oracle named by flavor. Recognized flavors are
// "power-consumption", "greedy", "load-balance", "node-loading",
// "game-latency" and "cdn-traffic". When submodular is true, the result is
// wrapped so repeated calls (in decreasing-marginal-gain exploration
// order, as the orchestrator performs) never observe an increasing
// marginal utility.
func NewFactory(flavor string, cfg Config, submodular bool) (Oracle, error) {
	var o Oracle
	switch flavor {
	case "power-consumption":
		o = powerConsumptionOracle{cfg: cfg}
	case "greedy":
		o = greedyOracle{cfg: cfg}
	case "load-balance":
		o = loadBalanceOracle{cfg: cfg}
	case "node-loading":
		o = nodeLoadingOracle{cfg: cfg}
	case "game-latency":
		o = gameLatencyOracle{cfg: cfg}
	case "cdn-traffic":
		o = cdnTrafficOracle{cfg: cfg}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFlavor, flavor)
	}
	if submodular {
		o = newSubmodular(o)
	}
	return o, nil
}

// digest returns a deterministic pseudo-random value in [0,1) from the
// SHA-256 hash of parts, joined in order. It is the one primitive every
// flavor below uses to turn (bundle, service, function, node, agent name)
// into a bounded, meaningless-but-reproducible number: different agents
// bidding on the same placement get different numbers, and the same agent
// asking about the same placement always gets the same number.
func digest(parts ...string) float64 {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	sum := h.Sum(nil)
	// first 8 bytes as a uint64, normalized to [0,1)
	v := binary.BigEndian.Uint64(sum[:8])
	return float64(v) / float64(math.MaxUint64)
}

func bundleKey(b Bundle) string {
	items := make([]string, len(b))
	for i, it := range b {
		items[i] = strconv.Itoa(it.Service) + ":" + strconv.Itoa(it.Function) + ":" + strconv.Itoa(it.Node)
	}
	sort.Strings(items)
	key := ""
	for _, it := range items {
		key += it + ","
	}
	return key
}

// averageConsumption returns the mean of a function's per-resource
// consumption, used as a rough single-number "how heavy is this function"
// signal by the power-consumption flavor.
func averageConsumption(p *rap.Problem, function int) float64 {
	vec := p.Consumption(function)
	if len(vec) == 0 {
		return 0
	}
	var sum int64
	for _, v := range vec {
		sum += v
	}
	return float64(sum) / float64(len(vec))
}

// powerConsumptionOracle favors functions with higher average resource
// consumption -- heavier functions are worth more to place, within the
// bounded [0,100] range every flavor respects.
type powerConsumptionOracle struct{ cfg Config }

func (o powerConsumptionOracle) Utility(bundleSoFar Bundle, service, function, node int) float64 {
	consumption := averageConsumption(o.cfg.Problem, function)
	// squash into (0,1) with a logistic-shaped curve so heavier functions
	// approach, but never reach, the top of the range
	spread := consumption / (consumption + 50)
	noise := digest(o.cfg.SDOName, bundleKey(bundleSoFar), strconv.Itoa(service), strconv.Itoa(function), strconv.Itoa(node))
	return 100 * clamp01(0.7*spread+0.3*noise)
}

// greedyOracle ignores resource shape entirely and returns a bounded,
// per-agent pseudo-random score -- the simplest possible oracle, useful
// as a baseline and for tests.
type greedyOracle struct{ cfg Config }

func (o greedyOracle) Utility(bundleSoFar Bundle, service, function, node int) float64 {
	return 100 * digest(o.cfg.SDOName, bundleKey(bundleSoFar), strconv.Itoa(service), strconv.Itoa(function), strconv.Itoa(node))
}

// loadBalanceOracle penalizes placing more than one service of the same
// bundle on the same node, pushing an agent's own bundle to spread across
// nodes.
type loadBalanceOracle struct{ cfg Config }

func (o loadBalanceOracle) Utility(bundleSoFar Bundle, service, function, node int) float64 {
	sameNode := 0
	for _, it := range bundleSoFar {
		if it.Node == node {
			sameNode++
		}
	}
	penalty := 1.0 / float64(1+sameNode)
	noise := digest(o.cfg.SDOName, bundleKey(bundleSoFar), strconv.Itoa(service), strconv.Itoa(function), strconv.Itoa(node))
	return 100 * clamp01(0.6*penalty+0.4*noise)
}

// nodeLoadingOracle favors nodes with more spare capacity relative to
// their total capacity, so an agent's bundle prefers lightly-loaded nodes.
type nodeLoadingOracle struct{ cfg Config }

func (o nodeLoadingOracle) Utility(bundleSoFar Bundle, service, function, node int) float64 {
	p := o.cfg.Problem
	var used rap.Vector
	for _, it := range bundleSoFar {
		if it.Node == node {
			used = p.Sum(used, p.Consumption(it.Function))
		}
	}
	residual := p.ResidualCapacity(node, used)
	capacity := p.Capacity(node)
	var residualSum, capacitySum int64
	for i := range capacity {
		capacitySum += capacity[i]
		if residual != nil {
			residualSum += residual[i]
		}
	}
	spare := 0.0
	if capacitySum > 0 {
		spare = float64(residualSum) / float64(capacitySum)
	}
	noise := digest(o.cfg.SDOName, strconv.Itoa(node), strconv.Itoa(function))
	return 100 * clamp01(0.8*spare+0.2*noise)
}

// gameLatencyOracle scores by an external latency sample (lower latency
// is worth more), fed through the side-channel StatsSource.
type gameLatencyOracle struct{ cfg Config }

func (o gameLatencyOracle) Utility(bundleSoFar Bundle, service, function, node int) float64 {
	if o.cfg.Stats == nil {
		return greedyOracle(o).Utility(bundleSoFar, service, function, node)
	}
	latency := o.cfg.Stats.Sample(service, function, node)
	return 100 * clamp01(1/(1+latency))
}

// cdnTrafficOracle scores by an external traffic sample (higher observed
// traffic toward this node is worth more), fed through the side-channel
// StatsSource.
type cdnTrafficOracle struct{ cfg Config }

func (o cdnTrafficOracle) Utility(bundleSoFar Bundle, service, function, node int) float64 {
	if o.cfg.Stats == nil {
		return greedyOracle(o).Utility(bundleSoFar, service, function, node)
	}
	traffic := o.cfg.Stats.Sample(service, function, node)
	return 100 * clamp01(traffic/(traffic+1))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
