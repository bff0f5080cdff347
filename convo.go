// Package convo provides a high-level façade over the conversation session
// core: per-agent configuration, durable history with rotating backups, the
// timeout-governed model call engine, and multi-format export. Most
// applications interact with this package by:
//  1. Opening an Agent via Open(id) (taking the agent's exclusive lock)
//  2. Driving the conversation with Send, Search, Stats, Export and Clear
//  3. Closing the Agent to release its lock
//
// The façade delegates orchestration to engine.Engine and persistence to
// history.FileStore while keeping setup and usage ergonomics concise.
package convo

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/convocli/convo/config"
	"github.com/convocli/convo/core"
	"github.com/convocli/convo/engine"
	"github.com/convocli/convo/export"
	"github.com/convocli/convo/history"
	"github.com/convocli/convo/include"
	"github.com/convocli/convo/logging"
	"github.com/convocli/convo/model"
	"github.com/convocli/convo/model/openai"
)

// DefaultRoot is the directory holding one subdirectory per agent.
const DefaultRoot = "agents"

// Options configure Agent construction.
type Options struct {
	// Root is the agents directory (DefaultRoot if empty).
	Root string
	// Variant seeds the configuration materialized on first use.
	Variant config.Variant
	// Model overrides the endpoint (defaults to the OpenAI adapter).
	Model model.Model
	// Logger overrides the per-agent file logger (mainly for tests).
	Logger logging.Logger
}

// Agent is one isolated named conversation context: its configuration, its
// history store and its model endpoint. An open Agent holds the exclusive
// per-directory lock until Close.
type Agent struct {
	id      string
	dir     string
	cfg     config.Config
	store   *history.FileStore
	engine  *engine.Engine
	include *include.Processor
	log     logging.Logger
	closer  func()
}

// Open loads (or first-use materializes) the agent's configuration, builds
// its directory layout and acquires its lock. A second concurrent Open of
// the same agent fails fast with *core.LockedError.
func Open(agentID string, optFns ...func(o *Options)) (*Agent, error) {
	opts := Options{Root: DefaultRoot, Variant: config.VariantFull}
	for _, fn := range optFns {
		fn(&opts)
	}
	dir := filepath.Join(opts.Root, agentID)
	for _, sub := range []string{"uploads", "exports"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, &core.PersistenceError{AgentID: agentID, Op: "create agent directory", Err: err}
		}
	}

	log := opts.Logger
	closer := func() {}
	if log == nil {
		al, err := logging.NewAgentLogger(dir, agentID)
		if err != nil {
			return nil, &core.PersistenceError{AgentID: agentID, Op: "open log", Err: err}
		}
		log = al
		closer = func() { al.Close() }
	}

	cfg, err := config.LoadOrInit(dir, agentID, opts.Variant)
	if err != nil {
		closer()
		return nil, err
	}

	store, err := history.Open(dir, agentID, func(o *history.StoreOptions) {
		o.Cap = cfg.MaxHistorySize
		o.Logger = log
	})
	if err != nil {
		closer()
		return nil, err
	}

	m := opts.Model
	if m == nil {
		m = openai.NewModel()
	}
	eng := engine.New(agentID, m, store, func(o *engine.Options) { o.Logger = log })

	log.Info("agent opened", "model", string(cfg.Model), "display_name", cfg.Model.DisplayName())
	return &Agent{
		id:      agentID,
		dir:     dir,
		cfg:     cfg,
		store:   store,
		engine:  eng,
		include: include.NewProcessor(dir),
		log:     log,
		closer:  closer,
	}, nil
}

// Close releases the agent lock and log file.
func (a *Agent) Close() error {
	err := a.store.Close()
	a.closer()
	return err
}

// ID returns the agent identifier.
func (a *Agent) ID() string { return a.id }

// Config returns the current configuration snapshot.
func (a *Agent) Config() config.Config { return a.cfg }

// SetConfig validates and persists a new configuration. Config and history
// live in independent files; a config write can never corrupt history.
func (a *Agent) SetConfig(c config.Config) error {
	if err := config.Save(a.dir, a.id, c); err != nil {
		return err
	}
	a.cfg = c
	a.store.SetCap(c.MaxHistorySize)
	return nil
}

// SendOptions configure one Send.
type SendOptions struct {
	// OnFragment receives streamed content fragments in arrival order.
	OnFragment func(string)
	// Overrides applied to this call only, not persisted.
	Effort      config.Effort
	Temperature *float64
	NoStream    bool
}

// Send substitutes file inclusions into the message, issues the model call
// under the timeout policy, and on success appends the user and assistant
// turns. The finalized assistant turn is returned.
func (a *Agent) Send(ctx context.Context, message string, optFns ...func(o *SendOptions)) (core.Turn, error) {
	var opts SendOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	cfg := a.cfg
	if opts.Effort != "" {
		cfg.ReasoningEffort = opts.Effort
	}
	if opts.Temperature != nil {
		cfg.Temperature = *opts.Temperature
	}
	if opts.NoStream {
		cfg.Stream = false
	}
	if err := cfg.Validate(); err != nil {
		return core.Turn{}, err
	}

	processed, err := a.include.Process(message)
	if err != nil {
		return core.Turn{}, err
	}

	start := time.Now()
	turn, err := a.engine.Send(ctx, cfg, processed, func(o *engine.SendOptions) {
		o.OnFragment = opts.OnFragment
	})
	if al, ok := a.log.(*logging.AgentLogger); ok {
		tokens := 0
		if turn.Metadata != nil {
			tokens = turn.Metadata.TotalTokens
		}
		al.LogModelCall(string(cfg.Model), tokens, time.Since(start), err)
	}
	return turn, err
}

// History returns the persisted turn snapshot.
func (a *Agent) History() (core.History, error) { return a.store.Load() }

// SearchResult pairs a matching turn with a short preview for display.
type SearchResult struct {
	Turn    core.Turn
	Preview string
}

// Search returns case-insensitive substring matches in chronological
// order, up to limit (unlimited when limit <= 0).
func (a *Agent) Search(term string, limit int) ([]SearchResult, error) {
	seq, err := a.store.Search(term)
	if err != nil {
		return nil, err
	}
	var results []SearchResult
	for t := range seq {
		results = append(results, SearchResult{Turn: t, Preview: t.Preview(100)})
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results, nil
}

// Stats recomputes aggregate conversation statistics.
func (a *Agent) Stats() (core.Stats, error) { return a.store.Stats() }

// AgentInfo is a point-in-time summary of one agent: identity, effective
// configuration and conversation statistics.
type AgentInfo struct {
	ID          string        `json:"id"`
	DisplayName string        `json:"display_name"`
	Config      config.Config `json:"config"`
	Timeout     time.Duration `json:"timeout"`
	Stats       core.Stats    `json:"stats"`
}

// Info assembles the agent summary shown by inspection surfaces.
func (a *Agent) Info() (AgentInfo, error) {
	st, err := a.store.Stats()
	if err != nil {
		return AgentInfo{}, err
	}
	return AgentInfo{
		ID:          a.id,
		DisplayName: a.cfg.Model.DisplayName(),
		Config:      a.cfg,
		Timeout:     a.cfg.Timeout(),
		Stats:       st,
	}, nil
}

// Export renders the current history into the format and writes the
// artifact under the agent's exports directory, returning its path.
func (a *Agent) Export(f export.Format) (string, error) {
	h, err := a.store.Load()
	if err != nil {
		return "", err
	}
	c := export.Conversation{AgentID: a.id, Config: a.cfg, Turns: h, Stats: history.Compute(h)}
	path, err := export.Write(filepath.Join(a.dir, "exports"), c, f)
	if err != nil {
		return "", err
	}
	a.log.Info("conversation exported", "format", string(f), "path", path)
	return path, nil
}

// Clear backs up then truncates the history. Irreversible except via
// Recover.
func (a *Agent) Clear() error { return a.store.Clear() }

// Recover restores the live history from the newest parsable backup.
func (a *Agent) Recover() (core.History, error) { return a.store.RecoverFromLatestBackup() }

// Backups lists the retained snapshot paths, oldest first.
func (a *Agent) Backups() ([]string, error) { return a.store.Backups() }

// ListFiles enumerates files available for {name} inclusion.
func (a *Agent) ListFiles() []string { return a.include.ListFiles() }

// ListAgents returns the agent ids present under root, sorted.
func ListAgents(root string) ([]string, error) {
	if root == "" {
		root = DefaultRoot
	}
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}
