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

	"github.com/pdiddy/research-assistant/pkg/types"
)

func TestDefaultsDecode(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	var cfg types.Config
	require.NoError(t, v.Unmarshal(&cfg))

	assert.Equal(t, 3, cfg.Search.Limit)
	assert.Equal(t, 30*time.Second, cfg.Search.Timeout)
	assert.Equal(t, defaultUserAgent, cfg.Search.UserAgent)
	assert.True(t, cfg.Search.Refine)
	assert.Equal(t, types.ProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, "azure/genailab-maas-gpt-4o", cfg.LLM.ReasoningModel)
	assert.Equal(t, 1, cfg.PMC.Limit)
	assert.Equal(t, "data", cfg.PMC.DataDir)
	assert.Equal(t, 30000, cfg.Chat.MaxContextChars)
	assert.Equal(t, time.Hour, cfg.Server.SessionTTL)
}

func TestConfigFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "research-assistant.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
search:
  limit: 5
  timeout: 10s
  arxiv_sort: submittedDate
llm:
  provider: anthropic
  reasoning_model: claude-test
pmc:
  s3:
    bucket: mirror
server:
  session_ttl: 15m
`), 0o644))

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	var cfg types.Config
	require.NoError(t, v.Unmarshal(&cfg))
	assert.Equal(t, 5, cfg.Search.Limit)
	assert.Equal(t, 10*time.Second, cfg.Search.Timeout)
	assert.Equal(t, "submittedDate", cfg.Search.ArxivSort)
	assert.Equal(t, types.ProviderAnthropic, cfg.LLM.Provider)
	assert.Equal(t, "claude-test", cfg.LLM.ReasoningModel)
	assert.Equal(t, "mirror", cfg.PMC.S3.Bucket)
	assert.Equal(t, "us-east-1", cfg.PMC.S3.Region)
	assert.Equal(t, 15*time.Minute, cfg.Server.SessionTTL)
}

func TestApplySecrets(t *testing.T) {
	saved := loadedSecrets
	t.Cleanup(func() { loadedSecrets = saved })

	loadedSecrets = map[string]string{
		"anthropic-api-key": "ak",
		"ncbi-api-key":      "nk",
		"s3-secret-key":     "ss",
	}

	cfg := types.Config{}
	cfg.LLM.Provider = types.ProviderAnthropic
	cfg.PMC.APIKey = "from-env"
	applySecrets(&cfg)

	assert.Equal(t, "ak", cfg.LLM.APIKey)
	assert.Equal(t, "from-env", cfg.PMC.APIKey)
	assert.Equal(t, "ss", cfg.PMC.S3.SecretKey)
	assert.Empty(t, cfg.PMC.S3.AccessKey)
}
