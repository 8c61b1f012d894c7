// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package rap

import (
	"encoding/json"
	"fmt"
	"os"
)

// instanceJSON mirrors the RAP-instance wire schema from §6: sdos,
// services, functions, resources, nodes, consumption (function -> resource
// -> amount), available_resources (node -> resource -> amount) and
// implementation (service -> ordered function names).
type instanceJSON struct {
	SDOs               []string                    `json:"sdos"`
	Services           []string                    `json:"services"`
	Functions          []string                    `json:"functions"`
	Resources          []string                    `json:"resources"`
	Nodes              []string                    `json:"nodes"`
	Consumption        map[string]map[string]int64 `json:"consumption"`
	AvailableResources map[string]map[string]int64 `json:"available_resources"`
	Implementation     map[string][]string         `json:"implementation"`
}

// Parse decodes a RAP instance from its JSON wire format (§6) and builds
// the validated, dense-indexed Problem. Loading the raw file is an
// external collaborator's job per §1's scope note; Parse is the in-scope
// boundary that turns that JSON into the invariant-checked instance the
// rest of this module depends on.
func Parse(data []byte) (*Problem, error) {
	var raw instanceJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("rap: decode instance: %w", err)
	}
	return New(
		raw.SDOs,
		raw.Services,
		raw.Functions,
		raw.Resources,
		raw.Nodes,
		raw.Consumption,
		raw.AvailableResources,
		raw.Implementation,
	)
}

// Load reads and parses a RAP instance from a JSON file at path.
func Load(path string) (*Problem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rap: read instance file: %w", err)
	}
	return Parse(data)
}
