package model_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentfleet/tokengate/pkg/model"
)

func TestParseManifest(t *testing.T) {
	data := []byte(`
name: researcher
agent_id: 4f2c1f6e-9d25-44a4-a37b-0d3a9a2a8f11
quota:
  max_tokens_per_hour: 1000000
fallback_models:
  - provider: groq
    model: llama-3.3-70b
  - provider: together
    model: mistral-7b
    api_key_env: TOGETHER_API_KEY
`)
	m, err := model.ParseManifest(data)
	require.NoError(t, err)

	assert.Equal(t, "researcher", m.Name)
	assert.Equal(t, model.AgentID("4f2c1f6e-9d25-44a4-a37b-0d3a9a2a8f11"), m.AgentID)
	assert.Equal(t, uint64(1_000_000), m.Quota.MaxTokensPerHour)
	require.Len(t, m.FallbackModels, 2)
	assert.Equal(t, "groq", m.FallbackModels[0].Provider)
	assert.Equal(t, "llama-3.3-70b", m.FallbackModels[0].Model)
	assert.Equal(t, "TOGETHER_API_KEY", m.FallbackModels[1].APIKeyEnv)
}

func TestParseManifest_GeneratesAgentID(t *testing.T) {
	m, err := model.ParseManifest([]byte("name: scout\n"))
	require.NoError(t, err)
	assert.NotEmpty(t, m.AgentID)

	_, err = model.ParseAgentID(m.AgentID.String())
	assert.NoError(t, err)
}

func TestParseManifest_NoQuotaMeansUnlimited(t *testing.T) {
	m, err := model.ParseManifest([]byte("name: scout\n"))
	require.NoError(t, err)
	assert.True(t, m.Quota.Unlimited())
}

func TestParseManifest_MissingName(t *testing.T) {
	_, err := model.ParseManifest([]byte("quota:\n  max_tokens_per_hour: 100\n"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing agent name")
}

func TestParseManifest_IncompleteFallback(t *testing.T) {
	data := []byte(`
name: scout
fallback_models:
  - provider: groq
`)
	_, err := model.ParseManifest(data)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "provider and model are required")
}

func TestLoadManifestDir(t *testing.T) {
	dir := t.TempDir()
	for i, doc := range []string{"name: alpha\n", "name: beta\n"} {
		path := filepath.Join(dir, string(rune('a'+i))+".yaml")
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	}

	manifests, err := model.LoadManifestDir(dir)
	require.NoError(t, err)
	assert.Len(t, manifests, 2)
}

func TestParseAgentID_Invalid(t *testing.T) {
	_, err := model.ParseAgentID("not-a-uuid")
	assert.Error(t, err)
}
