// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/gabrielecastellano/dragon/metrics"
)

func TestCounterTracksAndExports(t *testing.T) {
	reg := metrics.NewLocal("sdoA")
	c, err := reg.NewCounter("rounds_total", "rounds")
	require.NoError(t, err)

	c.Inc()
	c.Add(2)
	require.Equal(t, int64(3), c.Read())

	families, err := reg.Gather()
	require.NoError(t, err)

	found := false
	for _, fam := range families {
		if fam.GetName() == "rap_sdoA_rounds_total" {
			found = true
			require.Len(t, fam.GetMetric(), 1)
			require.Equal(t, 3.0, fam.GetMetric()[0].GetCounter().GetValue())
		}
	}
	require.True(t, found, "counter family must be gatherable")
}

func TestGaugeMovesBothWays(t *testing.T) {
	reg := metrics.NewLocal("sdoA")
	g, err := reg.NewGauge("pending", "pending rebids")
	require.NoError(t, err)

	g.Set(5)
	g.Add(-2)
	require.Equal(t, 3.0, g.Read())
}

func TestAveragerAveragesObservations(t *testing.T) {
	reg := metrics.NewLocal("sdoA")
	a, err := reg.NewAverager("time_to_agreement_seconds", "time to agreement")
	require.NoError(t, err)

	require.Equal(t, 0.0, a.Read())
	a.Observe(2)
	a.Observe(4)
	require.Equal(t, 3.0, a.Read())
}

func TestDuplicateRegistrationFails(t *testing.T) {
	reg := metrics.NewLocal("sdoA")
	_, err := reg.NewCounter("rounds_total", "rounds")
	require.NoError(t, err)
	_, err = reg.NewCounter("rounds_total", "rounds")
	require.Error(t, err)
}

func TestGatherOnBareRegistererFails(t *testing.T) {
	reg := metrics.New(prometheus.NewRegistry(), "sdoA")
	_, err := reg.Gather()
	require.ErrorIs(t, err, metrics.ErrNotGatherable)
}
