// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gabrielecastellano/dragon/config"
)

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, config.Validate(config.Default()))
}

func TestSmallAndLargeValidate(t *testing.T) {
	require.NoError(t, config.Validate(config.Small()))
	require.NoError(t, config.Validate(config.Large()))
}

func TestValidateRejectsBadNeighborProbability(t *testing.T) {
	p := config.Default()
	p.NeighborProbability = 150
	require.ErrorIs(t, config.Validate(p), config.ErrNeighborProbabilityOutOfRange)
}

func TestValidateRejectsNonPositiveWeakAgreementTimeout(t *testing.T) {
	p := config.Default()
	p.WeakAgreementTimeout = 0
	require.ErrorIs(t, config.Validate(p), config.ErrWeakAgreementTimeoutTooLow)
}

func TestParseReadsSecondsAndSnakeCaseKeys(t *testing.T) {
	p, err := config.Parse([]byte(`{
		"agreement_timeout": 3,
		"weak_agreement_timeout": 45.5,
		"private_utility": "load-balance",
		"submodular_private_utility": true
	}`))
	require.NoError(t, err)
	require.Equal(t, 3*time.Second, p.AgreementTimeout)
	require.Equal(t, 45500*time.Millisecond, p.WeakAgreementTimeout)
	require.Equal(t, "load-balance", p.PrivateUtility)
	require.True(t, p.SubmodularPrivateUtility)
	// unspecified fields keep their Default() value
	require.Equal(t, config.Default().AsyncTimeout, p.AsyncTimeout)
}

func TestLoadOverridesDefaultsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "params.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"neighbor_probability": 40, "stable_connections": false}`), 0o644))

	p, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 40, p.NeighborProbability)
	require.False(t, p.StableConnections)
	require.Equal(t, config.Default().AgreementTimeout, p.AgreementTimeout)
}

func TestLoadRejectsInvalidResult(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"neighbor_probability": 200}`), 0o644))

	_, err := config.Load(path)
	require.ErrorIs(t, err, config.ErrNeighborProbabilityOutOfRange)
}

func TestParseRejectsExplicitZeroAsyncTimeout(t *testing.T) {
	_, err := config.Parse([]byte(`{"async_timeout": 0}`))
	require.ErrorIs(t, err, config.ErrAsyncTimeoutTooLow)
}
