// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabrielecastellano/dragon/bidding"
	"github.com/gabrielecastellano/dragon/metrics"
	"github.com/gabrielecastellano/dragon/node"
	"github.com/gabrielecastellano/dragon/rap"
)

// placementEntry is one committed (service, function, node) triple,
// rendered by name rather than dense id for the results file.
type placementEntry struct {
	Service  string  `json:"service"`
	Function string  `json:"function"`
	Node     string  `json:"node"`
	Utility  float64 `json:"utility"`
}

// writeResults writes placement_<agent>.json, rates_<agent>.json and
// utility_<agent>.json under dir, exactly as §6 names them.
func writeResults(dir, agent string, p *rap.Problem, impl bidding.Implementation, rates []node.RateSample, utility float64) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("results: create %s: %w", dir, err)
	}

	placements := make([]placementEntry, 0, len(impl.Detailed))
	for _, d := range impl.Detailed {
		placements = append(placements, placementEntry{
			Service:  p.Services[d.Service],
			Function: p.Functions[d.Function],
			Node:     p.Nodes[d.Node],
			Utility:  d.Utility,
		})
	}
	if err := writeJSON(filepath.Join(dir, "placement_"+agent+".json"), placements); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, "rates_"+agent+".json"), rates); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, "utility_"+agent+".json"), struct {
		Utility float64 `json:"utility"`
	}{Utility: utility}); err != nil {
		return err
	}
	return nil
}

// writeMetrics snapshots the agent's gathered metric families into
// metrics_<agent>.json, one {name: value} entry per counter/gauge sample.
func writeMetrics(dir, agent string, reg *metrics.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("results: gather metrics: %w", err)
	}
	out := make(map[string]float64, len(families))
	for _, fam := range families {
		for _, m := range fam.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				out[fam.GetName()] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[fam.GetName()] = m.GetGauge().GetValue()
			}
		}
	}
	return writeJSON(filepath.Join(dir, "metrics_"+agent+".json"), out)
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("results: encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("results: write %s: %w", path, err)
	}
	return nil
}
