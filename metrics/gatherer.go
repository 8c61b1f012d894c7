// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// ErrNotGatherable is returned by Gather on a Registry built over a bare
// Registerer (e.g. the process-wide default), which cannot be read back.
var ErrNotGatherable = errors.New("metrics: registry is not gatherable")

// NewLocal returns a Registry backed by its own private
// prometheus.Registry, so its metrics can be gathered and reported at
// process exit without colliding with any other agent registered in the
// same process.
func NewLocal(agent string) *Registry {
	reg := prometheus.NewRegistry()
	return &Registry{reg: reg, gatherer: reg, prefix: "rap_" + agent + "_"}
}

// Gather snapshots every metric family registered so far.
func (r *Registry) Gather() ([]*dto.MetricFamily, error) {
	if r.gatherer == nil {
		return nil, ErrNotGatherable
	}
	return r.gatherer.Gather()
}
