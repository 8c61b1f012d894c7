// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package neighborhood

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadTopology reads a topology file (§6: `{agent: [neighbor, ...]}`,
// symmetric by construction) from path.
func LoadTopology(path string) (Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("neighborhood: read topology file: %w", err)
	}
	var t Topology
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("neighborhood: decode topology file: %w", err)
	}
	return t, nil
}
