// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package config holds the RAP protocol's tunable parameters as an
// explicit immutable value, with named presets and JSON loading, rather
// than a global mutable configuration singleton.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Parameters is the full set of knobs §6 lists under "Configuration".
type Parameters struct {
	// AgreementTimeout is the soft, one-shot timer armed once every
	// neighbor has reported full agreement; firing it ends the round
	// even if a straggler is still mid-flight.
	AgreementTimeout time.Duration
	// WeakAgreementTimeout is the permanent, refreshed-on-every-message
	// timer: if no message arrives from any neighbor before it fires,
	// the agent terminates regardless of agreement state.
	WeakAgreementTimeout time.Duration
	// AsyncTimeout bounds how long the driver waits on its condition
	// variable before re-checking its timers.
	AsyncTimeout time.Duration
	// SchedulingTimeLimit bounds the patience-embedding improvement
	// phase inside the orchestrator's weak fallback.
	SchedulingTimeLimit time.Duration
	// SampleFrequency is the bucket width the node driver groups
	// received-message counts into for the rates results file.
	SampleFrequency time.Duration
	// StableConnections, when true, uses the static SHA-256-derived or
	// topology-file neighborhood only; when false, the time-varying
	// current-connectivity filter of §4.8 also applies.
	StableConnections bool
	// LoadTopology, when true, reads the neighborhood from a topology
	// file instead of deriving it from the hash rule.
	LoadTopology bool
	// NeighborProbability is the 0..100 threshold the hash-based
	// neighbor admission rule compares the pair hash's last two decimal
	// digits against.
	NeighborProbability int
	// SubmodularPrivateUtility enforces the submodularity property on
	// the configured oracle flavor via the clamping wrapper.
	SubmodularPrivateUtility bool
	// PrivateUtility selects the oracle flavor by name (see package
	// oracle's NewFactory).
	PrivateUtility string
}

// Default returns the baseline parameter set used when nothing else is
// configured.
func Default() Parameters {
	return Parameters{
		AgreementTimeout:         2 * time.Second,
		WeakAgreementTimeout:     30 * time.Second,
		AsyncTimeout:             500 * time.Millisecond,
		SchedulingTimeLimit:      5 * time.Second,
		SampleFrequency:          10 * time.Second,
		StableConnections:        true,
		LoadTopology:             false,
		NeighborProbability:      75,
		SubmodularPrivateUtility: false,
		PrivateUtility:           "greedy",
	}
}

// Small returns a parameter set tuned for fast-converging tests: short
// timeouts, few agents expected.
func Small() Parameters {
	p := Default()
	p.AgreementTimeout = 50 * time.Millisecond
	p.WeakAgreementTimeout = 500 * time.Millisecond
	p.AsyncTimeout = 10 * time.Millisecond
	p.SchedulingTimeLimit = 200 * time.Millisecond
	p.SampleFrequency = 100 * time.Millisecond
	return p
}

// Large returns a parameter set tuned for large instances with many
// agents and nodes, where convergence legitimately takes longer.
func Large() Parameters {
	p := Default()
	p.AgreementTimeout = 10 * time.Second
	p.WeakAgreementTimeout = 120 * time.Second
	p.SchedulingTimeLimit = 30 * time.Second
	p.SampleFrequency = 30 * time.Second
	return p
}

// parametersJSON is the on-disk config schema: the §6 option names, with
// every duration expressed in (possibly fractional) seconds. Pointers
// distinguish "omitted, keep the default" from an explicit zero.
type parametersJSON struct {
	AgreementTimeout         *float64 `json:"agreement_timeout"`
	WeakAgreementTimeout     *float64 `json:"weak_agreement_timeout"`
	AsyncTimeout             *float64 `json:"async_timeout"`
	SchedulingTimeLimit      *float64 `json:"scheduling_time_limit"`
	SampleFrequency          *float64 `json:"sample_frequency"`
	StableConnections        *bool    `json:"stable_connections"`
	LoadTopology             *bool    `json:"load_topology"`
	NeighborProbability      *int     `json:"neighbor_probability"`
	SubmodularPrivateUtility *bool    `json:"submodular_private_utility"`
	PrivateUtility           *string  `json:"private_utility"`
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

// Load reads and validates Parameters from a JSON file, falling back to
// Default for any field the file omits. Durations are given in seconds,
// matching the §6 option table.
func Load(path string) (Parameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Parameters{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes Parameters from raw JSON, falling back to Default for
// omitted fields and validating the result.
func Parse(data []byte) (Parameters, error) {
	var raw parametersJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return Parameters{}, fmt.Errorf("config: decode: %w", err)
	}

	p := Default()
	if raw.AgreementTimeout != nil {
		p.AgreementTimeout = seconds(*raw.AgreementTimeout)
	}
	if raw.WeakAgreementTimeout != nil {
		p.WeakAgreementTimeout = seconds(*raw.WeakAgreementTimeout)
	}
	if raw.AsyncTimeout != nil {
		p.AsyncTimeout = seconds(*raw.AsyncTimeout)
	}
	if raw.SchedulingTimeLimit != nil {
		p.SchedulingTimeLimit = seconds(*raw.SchedulingTimeLimit)
	}
	if raw.SampleFrequency != nil {
		p.SampleFrequency = seconds(*raw.SampleFrequency)
	}
	if raw.StableConnections != nil {
		p.StableConnections = *raw.StableConnections
	}
	if raw.LoadTopology != nil {
		p.LoadTopology = *raw.LoadTopology
	}
	if raw.NeighborProbability != nil {
		p.NeighborProbability = *raw.NeighborProbability
	}
	if raw.SubmodularPrivateUtility != nil {
		p.SubmodularPrivateUtility = *raw.SubmodularPrivateUtility
	}
	if raw.PrivateUtility != nil {
		p.PrivateUtility = *raw.PrivateUtility
	}

	if err := Validate(p); err != nil {
		return Parameters{}, err
	}
	return p, nil
}

// Validate checks that every field of p is within the ranges the rest of
// the module assumes.
func Validate(p Parameters) error {
	if p.AgreementTimeout < 0 {
		return ErrAgreementTimeoutTooLow
	}
	if p.WeakAgreementTimeout <= 0 {
		return ErrWeakAgreementTimeoutTooLow
	}
	if p.AsyncTimeout <= 0 {
		return ErrAsyncTimeoutTooLow
	}
	if p.SchedulingTimeLimit <= 0 {
		return ErrSchedulingTimeLimitTooLow
	}
	if p.SampleFrequency <= 0 {
		return ErrSampleFrequencyTooLow
	}
	if p.NeighborProbability < 0 || p.NeighborProbability > 100 {
		return ErrNeighborProbabilityOutOfRange
	}
	return nil
}
