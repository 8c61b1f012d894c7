// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package agreement

import (
	"testing"

	"github.com/luxfi/ids"
	"github.com/stretchr/testify/require"

	"github.com/gabrielecastellano/dragon/rap"
)

func TestClassifyNodeAllEqualDigestsAndTimestampsLeavesAgreed(t *testing.T) {
	p := testProblem(t)
	d := ids.ID{1}
	v := rap.Vector{1}

	outcome := classifyNode(p, d, d, d, 5, 5, 5, v, v, v, false)
	require.Equal(t, actionLeave, outcome.action)
	require.False(t, outcome.rebroadcast)
	require.True(t, outcome.agreed)
}

func TestClassifyNodeAllEqualDigestsNewerReceivedUpdatesAgreed(t *testing.T) {
	p := testProblem(t)
	d := ids.ID{1}
	v := rap.Vector{1}

	outcome := classifyNode(p, d, d, d, 1, 5, 5, v, v, v, false)
	require.Equal(t, actionUpdate, outcome.action)
	require.False(t, outcome.rebroadcast)
	require.True(t, outcome.agreed)
}

func TestClassifyNodeAllEqualDigestsDivergentConsumptionUpdatesDisagreed(t *testing.T) {
	p := testProblem(t)
	d := ids.ID{1}

	outcome := classifyNode(p, d, d, d, 1, 2, 3, rap.Vector{1}, rap.Vector{2}, rap.Vector{3}, false)
	require.Equal(t, actionUpdate, outcome.action)
	require.True(t, outcome.rebroadcast)
	require.False(t, outcome.agreed)
}

func TestClassifyNodeSwapDetectedResetsAndRebroadcasts(t *testing.T) {
	p := testProblem(t)
	d1, d2, d3 := ids.ID{1}, ids.ID{2}, ids.ID{3}

	outcome := classifyNode(p, d1, d2, d3, 1, 2, 3, rap.Vector{1}, rap.Vector{1}, rap.Vector{1}, true)
	require.Equal(t, actionReset, outcome.action)
	require.True(t, outcome.rebroadcast)
	require.False(t, outcome.agreed)
}

func TestClassifyNodeReceivedMatchesNewAgreesOnMatchingConsumption(t *testing.T) {
	p := testProblem(t)
	current, matched := ids.ID{1}, ids.ID{2}
	v := rap.Vector{1}

	outcome := classifyNode(p, current, matched, matched, 1, 2, 2, rap.Vector{9}, v, v, false)
	require.Equal(t, actionUpdate, outcome.action)
	require.True(t, outcome.rebroadcast)
	require.True(t, outcome.agreed)
}

func TestClassifyNodeCurrentMatchesNewLeavesDisagreed(t *testing.T) {
	p := testProblem(t)
	matched, received := ids.ID{1}, ids.ID{2}

	outcome := classifyNode(p, matched, received, matched, 1, 2, 1, rap.Vector{1}, rap.Vector{1}, rap.Vector{1}, false)
	require.Equal(t, actionLeave, outcome.action)
	require.True(t, outcome.rebroadcast)
	require.False(t, outcome.agreed)
}

func TestClassifyNodeAllDigestsDifferUpdatesDisagreed(t *testing.T) {
	p := testProblem(t)

	outcome := classifyNode(p, ids.ID{1}, ids.ID{2}, ids.ID{3}, 1, 2, 3, rap.Vector{1}, rap.Vector{1}, rap.Vector{1}, false)
	require.Equal(t, actionUpdate, outcome.action)
	require.True(t, outcome.rebroadcast)
	require.False(t, outcome.agreed)
}

func testProblem(t *testing.T) *rap.Problem {
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
