package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/convocli/convo/core"
	"github.com/convocli/convo/internal/fsx"
)

// FileName is the per-agent configuration file, stored beside the history
// file but never written in the same operation: corruption of one cannot
// cascade to the other.
const FileName = "config.yaml"

// Load reads the agent's configuration from its directory. When the agent
// has never been configured it returns a *core.NotFoundError; callers that
// want first-use materialization should use LoadOrInit.
func Load(agentDir, agentID string) (Config, error) {
	data, err := os.ReadFile(filepath.Join(agentDir, FileName))
	if os.IsNotExist(err) {
		return Config{}, &core.NotFoundError{AgentID: agentID, What: "configuration"}
	}
	if err != nil {
		return Config{}, &core.PersistenceError{AgentID: agentID, Op: "load config", Err: err}
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, &core.PersistenceError{AgentID: agentID, Op: "parse config", Err: err}
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadOrInit loads the agent's configuration, materializing and persisting
// the default for the given variant on first use.
func LoadOrInit(agentDir, agentID string, v Variant) (Config, error) {
	c, err := Load(agentDir, agentID)
	if err == nil {
		return c, nil
	}
	if _, ok := err.(*core.NotFoundError); !ok {
		return Config{}, err
	}
	c = Default(v)
	if err := Save(agentDir, agentID, c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Save validates and atomically persists the configuration, refreshing
// UpdatedAt. An invalid candidate is rejected before anything touches disk.
func Save(agentDir, agentID string, c Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.UpdatedAt = time.Now().UTC()
	data, err := yaml.Marshal(c)
	if err != nil {
		return &core.PersistenceError{AgentID: agentID, Op: "encode config", Err: err}
	}
	if err := fsx.WriteFile(filepath.Join(agentDir, FileName), data, 0o644); err != nil {
		return &core.PersistenceError{AgentID: agentID, Op: "save config", Err: err}
	}
	return nil
}
