// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package agreement_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gabrielecastellano/dragon/agreement"
	"github.com/gabrielecastellano/dragon/bidding"
	"github.com/gabrielecastellano/dragon/election"
	"github.com/gabrielecastellano/dragon/oracle"
	"github.com/gabrielecastellano/dragon/orchestrator"
	"github.com/gabrielecastellano/dragon/rap"
)

func oneNodeProblem(t *testing.T) *rap.Problem {
	t.Helper()
	p, err := rap.New(
		[]string{"sdoA", "sdoB"},
		[]string{"svc"},
		[]string{"fn"},
		[]string{"cpu"},
		[]string{"n0"},
		map[string]map[string]int64{"fn": {"cpu": 1}},
		map[string]map[string]int64{"n0": {"cpu": 1}},
		map[string][]string{"svc": {"fn"}},
	)
	require.NoError(t, err)
	return p
}

func newEngine(t *testing.T, p *rap.Problem, self int, rebidEnabled bool) *agreement.Engine {
	t.Helper()
	o, err := oracle.NewFactory("greedy", oracle.Config{Problem: p, SDOName: p.SDOs[self]}, false)
	require.NoError(t, err)
	orch := orchestrator.New(p, o, nil, 50*time.Millisecond)
	svc, _ := p.ServiceID("svc")
	return agreement.New(p, orch, self, []int{svc}, rebidEnabled, nil)
}

func TestMultiAgreementLeavesUndisputedWinner(t *testing.T) {
	p := oneNodeProblem(t)
	a, _ := p.SDOID("sdoA")
	b, _ := p.SDOID("sdoB")

	local := bidding.NewData(p)
	local.Set(0, a, bidding.Bid{Value: 10, Consumption: rap.Vector{1}, Timestamp: 1})
	currentWinners, _ := election.MultiNodeElection(p, local, nil)
	require.Equal(t, []int{a}, currentWinners.Agents(0))

	senderData := local.Clone()
	report := agreement.Report{Sender: b, Data: senderData, Winners: currentWinners}

	eng := newEngine(t, p, a, false)
	maxBidRatio := bidding.NewMaxBidRatio(p.NumNodes())
	result := eng.MultiAgreement(local, currentWinners, maxBidRatio, bidding.NewImplementation(), []agreement.Report{report})

	require.False(t, result.Overbid)
	require.False(t, result.Updated)
	require.False(t, result.Rebroadcast)
	require.True(t, result.PerSenderAgreement[b])
	require.Equal(t, []int{a}, result.Winners.Agents(0))
}

// A report whose only change is a fresher timestamp on the sender's own
// (losing) cell must be adopted quietly: updated, no rebroadcast, no
// messages generated, and the sender counted as agreed.
func TestMultiAgreementTimestampOnlyUpdateStaysQuiet(t *testing.T) {
	p := oneNodeProblem(t)
	a, _ := p.SDOID("sdoA")
	b, _ := p.SDOID("sdoB")

	local := bidding.NewData(p)
	local.Set(0, a, bidding.Bid{Value: 10, Consumption: rap.Vector{1}, Timestamp: 1})
	local.Set(0, b, bidding.Bid{Value: 5, Consumption: rap.Vector{1}, Timestamp: 1})
	currentWinners, _ := election.MultiNodeElection(p, local, nil)
	require.Equal(t, []int{a}, currentWinners.Agents(0))

	// sdoB never wins the node; its report differs from local state only
	// in its own cell's timestamp.
	senderData := local.Clone()
	senderData.Set(0, b, bidding.Bid{Value: 5, Consumption: rap.Vector{1}, Timestamp: 2})
	report := agreement.Report{Sender: b, Data: senderData, Winners: currentWinners.Clone()}

	eng := newEngine(t, p, a, false)
	maxBidRatio := bidding.NewMaxBidRatio(p.NumNodes())
	result := eng.MultiAgreement(local, currentWinners, maxBidRatio, bidding.NewImplementation(), []agreement.Report{report})

	require.False(t, result.Overbid)
	require.True(t, result.Updated)
	require.False(t, result.Rebroadcast)
	require.True(t, result.PerSenderAgreement[b])
	require.Equal(t, 2.0, result.Data.Get(0, b).Timestamp)
}

func TestMultiAgreementDetectsOverbidAndPendsRebidWhenDisabled(t *testing.T) {
	p := oneNodeProblem(t)
	a, _ := p.SDOID("sdoA")
	b, _ := p.SDOID("sdoB")

	local := bidding.NewData(p)
	local.Set(0, a, bidding.Bid{Value: 10, Consumption: rap.Vector{1}, Timestamp: 1})
	currentWinners, _ := election.MultiNodeElection(p, local, nil)
	require.Equal(t, []int{a}, currentWinners.Agents(0))

	// sdoB self-reports a higher, later bid on the same node: once merged,
	// self no longer wins a node it bid on.
	senderData := local.Clone()
	senderData.Set(0, b, bidding.Bid{Value: 100, Consumption: rap.Vector{1}, Timestamp: 2})
	senderWinners, _ := election.MultiNodeElection(p, senderData, nil)
	report := agreement.Report{Sender: b, Data: senderData, Winners: senderWinners}

	eng := newEngine(t, p, a, false)
	maxBidRatio := bidding.NewMaxBidRatio(p.NumNodes())
	result := eng.MultiAgreement(local, currentWinners, maxBidRatio, bidding.NewImplementation(), []agreement.Report{report})

	require.True(t, result.Overbid)
	require.True(t, result.PendingRebid)
	require.True(t, result.Implementation.IsEmpty())
	require.Equal(t, []int{b}, result.Winners.Agents(0))
	require.True(t, result.Data.Get(0, a).IsZero())
}

func TestMultiAgreementRebidsImmediatelyWhenEnabled(t *testing.T) {
	p := oneNodeProblem(t)
	a, _ := p.SDOID("sdoA")
	b, _ := p.SDOID("sdoB")

	local := bidding.NewData(p)
	local.Set(0, a, bidding.Bid{Value: 10, Consumption: rap.Vector{1}, Timestamp: 1})
	currentWinners, _ := election.MultiNodeElection(p, local, nil)

	senderData := local.Clone()
	senderData.Set(0, b, bidding.Bid{Value: 100, Consumption: rap.Vector{1}, Timestamp: 2})
	senderWinners, _ := election.MultiNodeElection(p, senderData, nil)
	report := agreement.Report{Sender: b, Data: senderData, Winners: senderWinners}

	eng := newEngine(t, p, a, true)
	maxBidRatio := bidding.NewMaxBidRatio(p.NumNodes())
	result := eng.MultiAgreement(local, currentWinners, maxBidRatio, bidding.NewImplementation(), []agreement.Report{report})

	require.True(t, result.Overbid)
	require.False(t, result.PendingRebid)
}
