package model

import "github.com/google/uuid"

// AgentID uniquely identifies an agent in the runtime. It is assigned once
// when the agent is created and never reused; the ledger partitions all
// per-agent queries on it.
type AgentID string

// NewAgentID generates a fresh agent identifier.
func NewAgentID() AgentID {
	return AgentID(uuid.New().String())
}

// ParseAgentID validates that s is a well-formed agent identifier.
func ParseAgentID(s string) (AgentID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return AgentID(id.String()), nil
}

func (id AgentID) String() string { return string(id) }

// ResourceQuota is the per-agent admission configuration. It is owned by the
// agent's manifest and read-only to the budget tracker.
type ResourceQuota struct {
	// MaxTokensPerHour caps LLM tokens (input + output) consumed per sliding
	// hour. Zero means no limit is configured.
	MaxTokensPerHour uint64 `yaml:"max_tokens_per_hour" json:"max_tokens_per_hour"`
}

// Unlimited reports whether no hourly token limit is configured.
func (q ResourceQuota) Unlimited() bool { return q.MaxTokensPerHour == 0 }

// FallbackModel describes an alternate model an agent may degrade to when
// its budget becomes critically constrained. An agent manifest holds an
// ordered list of these; the first entry is preferred.
type FallbackModel struct {
	Provider  string `yaml:"provider" json:"provider"`
	Model     string `yaml:"model" json:"model"`
	APIKeyEnv string `yaml:"api_key_env,omitempty" json:"api_key_env,omitempty"`
	BaseURL   string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
}
