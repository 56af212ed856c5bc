// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestResearchConfigDefaults(t *testing.T) {
	resetViper(t)
	initConfig()

	cfg := researchConfig()
	assert.Equal(t, 3, cfg.MaxLoops)
	assert.Equal(t, 3, cfg.Search.ResultsPerQuery)
	assert.Equal(t, 2, cfg.QueriesPerLoop)
	assert.InDelta(t, 0.3, cfg.RelevanceThreshold, 1e-9)
	assert.Equal(t, 600*time.Millisecond, cfg.Search.InterQueryDelay)
	assert.Equal(t, 32*1024, cfg.Crawl.MaxContentBytes)
	assert.Equal(t, "gpt-4o-mini", cfg.AI.Model)
	assert.Equal(t, "reports", cfg.Report.ReportDir)
	assert.Equal(t, "archive", cfg.Archive.ArchiveDir)
}

func TestResearchConfigReadsConfigJSON(t *testing.T) {
	resetViper(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"api_key": "sk-test",
		"max_loops": 5,
		"search_results_per_query": 7
	}`), 0o644))

	require.NoError(t, rootCmd.PersistentFlags().Set("config", path))
	t.Cleanup(func() { rootCmd.PersistentFlags().Set("config", "") })

	initConfig()

	cfg := researchConfig()
	assert.Equal(t, "sk-test", cfg.AI.APIKey)
	assert.Equal(t, 5, cfg.MaxLoops)
	assert.Equal(t, 7, cfg.Search.ResultsPerQuery)
}

func TestRequireAPIKey(t *testing.T) {
	resetViper(t)
	initConfig()

	prev := os.Getenv("OPENAI_API_KEY")
	os.Unsetenv("OPENAI_API_KEY")
	t.Cleanup(func() {
		if prev != "" {
			os.Setenv("OPENAI_API_KEY", prev)
		}
	})

	cfg := researchConfig()
	cfg.AI.APIKey = ""
	err := requireAPIKey(cfg)
	require.Error(t, err, "a missing API key is a misconfiguration")
	assert.Contains(t, err.Error(), "no API key configured")

	cfg.AI.APIKey = "sk-test"
	assert.NoError(t, requireAPIKey(cfg))
}

func TestSearchProvidersFallbackOrder(t *testing.T) {
	resetViper(t)
	initConfig()

	providers := searchProviders(researchConfig().Search)
	require.Len(t, providers, 2)
	assert.Equal(t, "google", providers[0].Name())
	assert.Equal(t, "duckduckgo", providers[1].Name())
}
