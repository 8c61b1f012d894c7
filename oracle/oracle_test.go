// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package oracle_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gabrielecastellano/dragon/oracle"
	"github.com/gabrielecastellano/dragon/rap"
)

func sampleProblem(t *testing.T) *rap.Problem {
	t.Helper()
	p, err := rap.New(
		[]string{"sdo0", "sdo1"},
		[]string{"svcA"},
		[]string{"fnLight", "fnHeavy"},
		[]string{"cpu", "memory"},
		[]string{"n0", "n1"},
		map[string]map[string]int64{
			"fnLight": {"cpu": 2, "memory": 100},
			"fnHeavy": {"cpu": 8, "memory": 400},
		},
		map[string]map[string]int64{
			"n0": {"cpu": 10, "memory": 1000},
			"n1": {"cpu": 4, "memory": 500},
		},
		map[string][]string{
			"svcA": {"fnLight", "fnHeavy"},
		},
	)
	require.NoError(t, err)
	return p
}

func TestNewFactoryRejectsUnknownFlavor(t *testing.T) {
	_, err := oracle.NewFactory("no-such-flavor", oracle.Config{}, false)
	require.ErrorIs(t, err, oracle.ErrUnknownFlavor)
}

func TestAllFlavorsReturnBoundedDeterministicUtility(t *testing.T) {
	p := sampleProblem(t)
	flavors := []string{"power-consumption", "greedy", "load-balance", "node-loading", "game-latency", "cdn-traffic"}
	for _, flavor := range flavors {
		o, err := oracle.NewFactory(flavor, oracle.Config{Problem: p, SDOName: "sdo0"}, false)
		require.NoError(t, err, flavor)

		u1 := o.Utility(nil, 0, 0, 0)
		u2 := o.Utility(nil, 0, 0, 0)
		require.Equal(t, u1, u2, "flavor %s must be deterministic", flavor)
		require.GreaterOrEqual(t, u1, 0.0, flavor)
		require.LessOrEqual(t, u1, 100.0, flavor)
	}
}

func TestDifferentAgentsScoreDifferently(t *testing.T) {
	p := sampleProblem(t)
	o0, err := oracle.NewFactory("greedy", oracle.Config{Problem: p, SDOName: "sdo0"}, false)
	require.NoError(t, err)
	o1, err := oracle.NewFactory("greedy", oracle.Config{Problem: p, SDOName: "sdo1"}, false)
	require.NoError(t, err)

	require.NotEqual(t, o0.Utility(nil, 0, 0, 0), o1.Utility(nil, 0, 0, 0))
}

func TestSubmodularWrapperNeverIncreases(t *testing.T) {
	p := sampleProblem(t)
	o, err := oracle.NewFactory("power-consumption", oracle.Config{Problem: p, SDOName: "sdo0"}, true)
	require.NoError(t, err)

	// The marginal gain of the SAME candidate placement must never grow
	// as the bundle it would be added to grows.
	bundle := oracle.Bundle{}
	last := o.Utility(bundle, 0, 0, 0)
	for i := 0; i < 5; i++ {
		bundle = append(bundle, oracle.Item{Service: 0, Function: i % 2, Node: i % 2})
		v := o.Utility(bundle, 0, 0, 0)
		require.LessOrEqual(t, v, last+1e-9)
		last = v
	}
}

type fakeStats struct{ value float64 }

func (f fakeStats) Sample(service, function, node int) float64 { return f.value }

func TestParseStatsResolvesNamesAndIgnoresUnknown(t *testing.T) {
	p := sampleProblem(t)
	src, err := oracle.ParseStats(p, []byte(`{
		"svcA": {"fnLight": {"n0": 2.5, "ghostNode": 9}},
		"ghostSvc": {"fnLight": {"n0": 1}}
	}`))
	require.NoError(t, err)

	svc, _ := p.ServiceID("svcA")
	fn, _ := p.FunctionID("fnLight")
	n0, _ := p.NodeID("n0")
	n1, _ := p.NodeID("n1")
	require.Equal(t, 2.5, src.Sample(svc, fn, n0))
	require.Equal(t, 0.0, src.Sample(svc, fn, n1)) // omitted entries sample as 0
}

func TestParseStatsRejectsMalformedJSON(t *testing.T) {
	p := sampleProblem(t)
	_, err := oracle.ParseStats(p, []byte(`{"svcA": 5}`))
	require.Error(t, err)
}

func TestGameLatencyOracleUsesStatsSource(t *testing.T) {
	p := sampleProblem(t)
	low, err := oracle.NewFactory("game-latency", oracle.Config{Problem: p, SDOName: "sdo0", Stats: fakeStats{value: 0}}, false)
	require.NoError(t, err)
	high, err := oracle.NewFactory("game-latency", oracle.Config{Problem: p, SDOName: "sdo0", Stats: fakeStats{value: 10}}, false)
	require.NoError(t, err)

	require.Greater(t, low.Utility(nil, 0, 0, 0), high.Utility(nil, 0, 0, 0))
}
