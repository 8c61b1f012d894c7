// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package orchestrator_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/gabrielecastellano/dragon/bidding"
	"github.com/gabrielecastellano/dragon/oracle"
	"github.com/gabrielecastellano/dragon/oracle/oraclemock"
	"github.com/gabrielecastellano/dragon/orchestrator"
	"github.com/gabrielecastellano/dragon/rap"
)

// twoNodeProblem gives a single agent two services ("web", "db"), each
// implemented by exactly one function, and two nodes each able to host
// one of them but not both.
func twoNodeProblem(t *testing.T) *rap.Problem {
	t.Helper()
	p, err := rap.New(
		[]string{"sdoA", "sdoB"},
		[]string{"web", "db"},
		[]string{"webFn", "dbFn"},
		[]string{"cpu"},
		[]string{"n0", "n1"},
		map[string]map[string]int64{
			"webFn": {"cpu": 1},
			"dbFn":  {"cpu": 1},
		},
		map[string]map[string]int64{
			"n0": {"cpu": 1},
			"n1": {"cpu": 1},
		},
		map[string][]string{
			"web": {"webFn"},
			"db":  {"dbFn"},
		},
	)
	require.NoError(t, err)
	return p
}

func TestOrchestrateStrongAttemptSucceedsUncontested(t *testing.T) {
	p := twoNodeProblem(t)
	o, err := oracle.NewFactory("greedy", oracle.Config{Problem: p, SDOName: "sdoA"}, false)
	require.NoError(t, err)

	orch := orchestrator.New(p, o, nil, 200*time.Millisecond)
	data := bidding.NewData(p)
	maxBidRatio := bidding.NewMaxBidRatio(p.NumNodes())

	a, _ := p.SDOID("sdoA")
	web, _ := p.ServiceID("web")
	db, _ := p.ServiceID("db")

	impl := orch.Orchestrate(data, maxBidRatio, a, []int{web, db})

	require.False(t, impl.IsEmpty())
	require.Len(t, impl.Items, 2)

	seenServices := make(map[int]bool)
	for _, it := range impl.Items {
		seenServices[it.Service] = true
	}
	require.True(t, seenServices[web])
	require.True(t, seenServices[db])
}

func TestOrchestrateFollowsScriptedUtility(t *testing.T) {
	p := twoNodeProblem(t)
	ctrl := gomock.NewController(t)
	mock := oraclemock.NewOracle(ctrl)
	// n1 is worth five times n0 for every placement.
	mock.EXPECT().Utility(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes().DoAndReturn(
		func(_ oracle.Bundle, service, function, node int) float64 {
			if node == 1 {
				return 50
			}
			return 10
		})

	orch := orchestrator.New(p, mock, nil, 100*time.Millisecond)
	data := bidding.NewData(p)
	maxBidRatio := bidding.NewMaxBidRatio(p.NumNodes())

	a, _ := p.SDOID("sdoA")
	web, _ := p.ServiceID("web")

	impl := orch.Orchestrate(data, maxBidRatio, a, []int{web})
	require.Len(t, impl.Items, 1)
	require.Equal(t, 1, impl.Items[0].Node)
	require.Equal(t, 50.0, impl.Detailed[0].Utility)
}

func TestOrchestrateYieldsToHigherBidder(t *testing.T) {
	p := twoNodeProblem(t)
	a, _ := p.SDOID("sdoA")
	b, _ := p.SDOID("sdoB")
	web, _ := p.ServiceID("web")

	oA, err := oracle.NewFactory("greedy", oracle.Config{Problem: p, SDOName: "sdoA"}, false)
	require.NoError(t, err)

	data := bidding.NewData(p)
	maxBidRatio := bidding.NewMaxBidRatio(p.NumNodes())

	// b already holds a commanding bid on every node.
	for n := 0; n < p.NumNodes(); n++ {
		data.Set(n, b, bidding.Bid{Value: 1_000_000, Consumption: rap.Vector{1}, Timestamp: 0})
	}

	orch := orchestrator.New(p, oA, nil, 50*time.Millisecond)
	impl := orch.Orchestrate(data, maxBidRatio, a, []int{web})

	// A cannot out-ratio B on any node; the strong attempt exhausts every
	// node (blacklisting both) and falls back to the weak attempt, which
	// also finds no residual room, so A ends up with nothing.
	require.True(t, impl.IsEmpty())
}

// The weak fallback must place the whole bundle or nothing: if residual
// space seeds one service but cannot seed another, the agent ends up
// with an empty Implementation, not a partial one.
func TestWeakFallbackAbortsWhenAnyServiceCannotSeed(t *testing.T) {
	p, err := rap.New(
		[]string{"sdoA", "sdoB"},
		[]string{"web", "db"},
		[]string{"webFn", "dbFn"},
		[]string{"cpu"},
		[]string{"n0", "n1"},
		map[string]map[string]int64{
			"webFn": {"cpu": 1},
			"dbFn":  {"cpu": 3},
		},
		map[string]map[string]int64{
			"n0": {"cpu": 5},
			"n1": {"cpu": 1},
		},
		map[string][]string{
			"web": {"webFn"},
			"db":  {"dbFn"},
		},
	)
	require.NoError(t, err)

	a, _ := p.SDOID("sdoA")
	b, _ := p.SDOID("sdoB")
	web, _ := p.ServiceID("web")
	db, _ := p.ServiceID("db")

	oA, err := oracle.NewFactory("greedy", oracle.Config{Problem: p, SDOName: "sdoA"}, false)
	require.NoError(t, err)

	data := bidding.NewData(p)
	maxBidRatio := bidding.NewMaxBidRatio(p.NumNodes())

	// b permanently holds all of n0; the residual left for a's weak
	// fallback is n1's single cpu, which fits webFn but never dbFn.
	data.Set(0, b, bidding.Bid{Value: 1_000_000, Consumption: rap.Vector{5}, Timestamp: 0})

	orch := orchestrator.New(p, oA, nil, 100*time.Millisecond)
	impl := orch.Orchestrate(data, maxBidRatio, a, []int{web, db})

	require.True(t, impl.IsEmpty())
	for n := 0; n < p.NumNodes(); n++ {
		require.True(t, data.Get(n, a).IsZero(), "node %d must carry no bid from a partial bundle", n)
	}
}

func TestOrchestrateWeakFallbackUsesResidualSpace(t *testing.T) {
	p := twoNodeProblem(t)
	a, _ := p.SDOID("sdoA")
	b, _ := p.SDOID("sdoB")
	web, _ := p.ServiceID("web")

	oA, err := oracle.NewFactory("greedy", oracle.Config{Problem: p, SDOName: "sdoA"}, false)
	require.NoError(t, err)

	data := bidding.NewData(p)
	maxBidRatio := bidding.NewMaxBidRatio(p.NumNodes())

	// b permanently holds n0, leaving n1 free for a's weak fallback.
	data.Set(0, b, bidding.Bid{Value: 1_000_000, Consumption: rap.Vector{1}, Timestamp: 0})

	orch := orchestrator.New(p, oA, nil, 100*time.Millisecond)
	impl := orch.Orchestrate(data, maxBidRatio, a, []int{web})

	// a cannot win n0 but n1 is uncontested: its single-service bundle
	// fits n1's free space, so it lands there via either the strong
	// attempt or the weak fallback. (A bundle that does not fit the
	// residual space as a whole gets nothing; see
	// TestWeakFallbackAbortsWhenAnyServiceCannotSeed.)
	require.False(t, impl.IsEmpty())
	for _, it := range impl.Items {
		require.Equal(t, 1, it.Node)
	}
}
