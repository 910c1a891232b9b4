package model

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest is the configuration an agent is launched with, as far as this
// module cares: who the agent is, its hourly token quota, and the ordered
// fallback chain to degrade through once the primary model's budget runs out.
type Manifest struct {
	Name           string          `yaml:"name"`
	AgentID        AgentID         `yaml:"agent_id,omitempty"`
	Quota          ResourceQuota   `yaml:"quota"`
	FallbackModels []FallbackModel `yaml:"fallback_models,omitempty"`
}

// LoadManifest reads an agent manifest from a YAML file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}

// ParseManifest parses manifest YAML from raw bytes.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Name == "" {
		return nil, fmt.Errorf("manifest: missing agent name")
	}
	for i, fb := range m.FallbackModels {
		if fb.Provider == "" || fb.Model == "" {
			return nil, fmt.Errorf("manifest: fallback_models[%d]: provider and model are required", i)
		}
	}
	if m.AgentID == "" {
		m.AgentID = NewAgentID()
	}
	return &m, nil
}

// LoadManifestDir loads every *.yaml manifest in a directory.
func LoadManifestDir(dir string) ([]*Manifest, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("scan manifest dir %s: %w", dir, err)
	}
	manifests := make([]*Manifest, 0, len(paths))
	for _, p := range paths {
		m, err := LoadManifest(p)
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, m)
	}
	return manifests, nil
}
