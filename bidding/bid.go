// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package bidding holds the per-(node,agent) Bid, the 2D BiddingData
// table, PerNodeWinners, the agent's committed Implementation, the
// PerNodeMaxBidRatio convergence ceiling, and the wire Message the node
// driver exchanges with its neighborhood.
package bidding

import (
	"math"

	"github.com/gabrielecastellano/dragon/rap"
)

// Bid is effectively a tagged ZERO/ACTIVE variant: Value == 0 and an
// all-zero Consumption means "not bidding on this node" (§3, §9's note on
// tagged variants for Bid). Never treat a zero Value alone as meaningful
// without checking IsZero, since Consumption is part of the tag.
type Bid struct {
	Value       int64
	Consumption rap.Vector
	Timestamp   float64
}

// ZeroBid returns the canonical "not bidding" value for a problem with the
// given number of resources.
func ZeroBid(numResources int) Bid {
	return Bid{Consumption: make(rap.Vector, numResources)}
}

// IsZero reports whether b represents "not bidding on this node".
func (b Bid) IsZero() bool {
	if b.Value != 0 {
		return false
	}
	for _, v := range b.Consumption {
		if v != 0 {
			return false
		}
	}
	return true
}

// Ratio returns b.Value / norm(n, b.Consumption), the score-to-demand
// ratio the election orders candidates by. A zero norm is an ineligible
// candidate (§9: "norm == 0 is +Inf ratio forbid") so Ratio reports that
// case via ok=false rather than returning +Inf.
func (b Bid) Ratio(p *rap.Problem, node int) (ratio float64, ok bool) {
	norm := p.Norm(node, b.Consumption)
	if norm == 0 {
		return 0, false
	}
	return float64(b.Value) / norm, true
}

// Data is the node -> agent -> Bid table (§3's BiddingData). Every cell
// always exists; a missing cell is equivalent to ZeroBid.
type Data struct {
	problem *rap.Problem
	cells   [][]Bid // [node][agent]
}

// NewData returns a Data table with every cell set to ZeroBid.
func NewData(p *rap.Problem) *Data {
	cells := make([][]Bid, p.NumNodes())
	for n := range cells {
		row := make([]Bid, p.NumSDOs())
		for a := range row {
			row[a] = ZeroBid(p.NumResources())
		}
		cells[n] = row
	}
	return &Data{problem: p, cells: cells}
}

// Problem returns the RAP instance this table is indexed against.
func (d *Data) Problem() *rap.Problem { return d.problem }

// Get returns the bid agent a has placed on node n.
func (d *Data) Get(n, a int) Bid { return d.cells[n][a] }

// Set replaces the bid agent a has placed on node n.
func (d *Data) Set(n, a int, b Bid) { d.cells[n][a] = b }

// Clone returns a deep copy of d.
func (d *Data) Clone() *Data {
	out := NewData(d.problem)
	for n := range d.cells {
		for a := range d.cells[n] {
			b := d.cells[n][a]
			out.cells[n][a] = Bid{Value: b.Value, Consumption: append(rap.Vector(nil), b.Consumption...), Timestamp: b.Timestamp}
		}
	}
	return out
}

// ConsumptionTotal sums the consumption of every non-zero bid on node n.
func (d *Data) ConsumptionTotal(n int) rap.Vector {
	total := make(rap.Vector, d.problem.NumResources())
	for a := range d.cells[n] {
		total = d.problem.Sum(total, d.cells[n][a].Consumption)
	}
	return total
}

// MaxBidRatio is the node -> ceiling table of §4.5: a monotonically
// non-increasing bound on bid/norm(consumption) this agent may propose on
// that node in future rounds.
type MaxBidRatio []float64

// NewMaxBidRatio returns a MaxBidRatio initialized to +Inf on every node,
// per §3's "Initially +∞".
func NewMaxBidRatio(numNodes int) MaxBidRatio {
	m := make(MaxBidRatio, numNodes)
	for i := range m {
		m[i] = math.Inf(1)
	}
	return m
}

// Tighten lowers the ceiling for node n to min(current, candidate), never
// raising it -- the strictly-decreasing-on-loss bound of I3/B3.
func (m MaxBidRatio) Tighten(n int, candidate float64) {
	if candidate < m[n] {
		m[n] = candidate
	}
}
