// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package neighborhood_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gabrielecastellano/dragon/neighborhood"
)

func TestLoadTopologyDecodesAdjacencyMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topology.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"a":["b","c"],"b":["a"],"c":["a"]}`), 0o644))

	topo, err := neighborhood.LoadTopology(path)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"b", "c"}, topo["a"])
}

func TestLoadTopologyRejectsMissingFile(t *testing.T) {
	_, err := neighborhood.LoadTopology(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
