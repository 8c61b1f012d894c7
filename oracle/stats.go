// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package oracle

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gabrielecastellano/dragon/rap"
)

// fileStats is a StatsSource backed by a statistics file: a dense
// (service, function, node) -> sample table resolved against the problem
// instance at load time. Entries the file omits sample as 0.
type fileStats struct {
	samples map[[3]int]float64
}

// Sample returns the loaded statistic for (service, function, node).
func (f fileStats) Sample(service, function, node int) float64 {
	return f.samples[[3]int{service, function, node}]
}

// ParseStats decodes a statistics side-channel file: a JSON
// service -> function -> node -> float map, keyed by name. Names the
// problem instance does not know are ignored, so one stats file can be
// shared across instances that only cover part of it.
func ParseStats(p *rap.Problem, data []byte) (StatsSource, error) {
	var raw map[string]map[string]map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("oracle: decode stats: %w", err)
	}

	out := fileStats{samples: make(map[[3]int]float64)}
	for serviceName, byFunction := range raw {
		s, ok := p.ServiceID(serviceName)
		if !ok {
			continue
		}
		for functionName, byNode := range byFunction {
			f, ok := p.FunctionID(functionName)
			if !ok {
				continue
			}
			for nodeName, value := range byNode {
				n, ok := p.NodeID(nodeName)
				if !ok {
					continue
				}
				out.samples[[3]int{s, f, n}] = value
			}
		}
	}
	return out, nil
}

// LoadStats reads and parses a statistics file from path.
func LoadStats(p *rap.Problem, path string) (StatsSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("oracle: read stats file: %w", err)
	}
	return ParseStats(p, data)
}
