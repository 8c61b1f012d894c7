// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package config

import "errors"

var (
	ErrAgreementTimeoutTooLow        = errors.New("config: agreement_timeout must be >= 0")
	ErrWeakAgreementTimeoutTooLow    = errors.New("config: weak_agreement_timeout must be > 0")
	ErrAsyncTimeoutTooLow            = errors.New("config: async_timeout must be > 0")
	ErrSchedulingTimeLimitTooLow     = errors.New("config: scheduling_time_limit must be > 0")
	ErrSampleFrequencyTooLow         = errors.New("config: sample_frequency must be > 0")
	ErrNeighborProbabilityOutOfRange = errors.New("config: neighbor_probability must be in [0,100]")
)
