package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilkoid/poncho-inventory/pkg/config"
)

func TestSplitFolders(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{in: "", want: nil},
		{in: "shirt1", want: []string{"shirt1"}},
		{in: "a, b,,c ", want: []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitFolders(tt.in), tt.in)
	}
}

func TestApplyFlags(t *testing.T) {
	defer func(data, out, policy string, failFast bool) {
		*dataFlag, *outFlag, *policyFlag, *failFastFlag = data, out, policy, failFast
	}(*dataFlag, *outFlag, *policyFlag, *failFastFlag)

	cfg := config.Default()
	*dataFlag = "wardrobe"
	*outFlag = "out.csv"
	*policyFlag = config.CachePolicyContentHash
	*failFastFlag = true

	require.NoError(t, applyFlags(cfg))
	assert.Equal(t, "wardrobe", cfg.Inventory.DataDir)
	assert.Equal(t, "out.csv", cfg.Inventory.OutputCSV)
	assert.Equal(t, config.CachePolicyContentHash, cfg.Inventory.CachePolicy)
	assert.True(t, cfg.Inventory.FailFast)

	*policyFlag = "mtime"
	assert.Error(t, applyFlags(config.Default()))
}

func TestNewFolderCache_UsesConfiguredFileName(t *testing.T) {
	cfg := config.Default()
	cfg.Inventory.DescriptionFile = "desc.txt"

	c, err := newFolderCache(cfg)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("data", "shirt1", "desc.txt"), c.Path(filepath.Join("data", "shirt1")))

	cfg.Prompt.Path = "does-not-exist.yaml"
	_, err = newFolderCache(cfg)
	assert.Error(t, err)
}
