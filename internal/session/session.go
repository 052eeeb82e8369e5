// Package session provides the public entry points of the reasoning engine:
// Learn, Query, Prove, DescribeResult, CheckDSL, LoadPack, Reset and Close.
// A session owns its vocabulary, fact graph, rule and defaults tables, scope
// and statistics. It is single-threaded: one session must not be mutated
// concurrently from multiple goroutines.
package session

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"sys2/internal/dsl"
	"sys2/internal/graph"
	"sys2/internal/hdc"
	"sys2/internal/kernel"
	"sys2/internal/logging"
	"sys2/internal/scope"
	"sys2/internal/store"
	"sys2/internal/types"
	"sys2/internal/vecops"
	"sys2/internal/vocab"
)

// loadDepthLimit bounds sub-program recursion through load statements.
const loadDepthLimit = 32

// Session is one engine instance. All mutation inside a top-level call is
// journaled and either committed on success or rolled back on error.
type Session struct {
	ID   string
	opts types.SessionOptions

	codec     hdc.Codec
	vocab     *vocab.Vocabulary
	positions *vocab.Positions
	ops       *vecops.Ops

	journal  *scope.Journal
	scope    *scope.Scope
	graph    *graph.Graph
	rules    *graph.RuleTable
	defaults *graph.DefaultsTable
	kernel   *kernel.Kernel

	// records holds the encoded triple record per positive fact; memory is
	// their memoized superposition, rebuilt lazily after mutation.
	records     []recordEntry
	memoryCache hdc.Vector

	stats     types.Stats
	parser    dsl.Parser
	durable   *store.Local
	loadDir   string
	loadDepth int
	poisoned  bool

	log *logging.Logger
}

// New constructs a session from the options record. Unset fields fall back
// to the documented defaults. When PersistPath is set, previously persisted
// asserted facts are replayed into the graph (warm start).
func New(opts types.SessionOptions) (*Session, error) {
	opts = opts.Normalize()
	codec, err := hdc.New(opts.HDCStrategy, opts.Geometry, opts.Seed, opts.ExactUnbindMode)
	if err != nil {
		return nil, err
	}
	s := &Session{
		ID:    uuid.NewString(),
		opts:  opts,
		codec: codec,
		log:   logging.Get(logging.CategorySession),
	}
	s.initStores()
	s.parser = dsl.NewParser(opts.StrictIdentifiers)

	if opts.PersistPath != "" {
		durable, err := store.Open(opts.PersistPath)
		if err != nil {
			return nil, err
		}
		s.durable = durable
		if err := s.warmStart(); err != nil {
			durable.Close()
			return nil, err
		}
	}
	s.log.Info("session %s created: strategy=%s geometry=%d priority=%s",
		s.ID, codec.Name(), codec.Geometry(), opts.ReasoningPriority)
	return s, nil
}

func (s *Session) initStores() {
	s.vocab = vocab.New(s.codec)
	s.positions = vocab.NewPositions(s.codec)
	s.ops = vecops.New(s.codec, s.positions, &s.stats)
	s.journal = &scope.Journal{}
	s.scope = scope.New(s.journal)
	s.graph = graph.New(s.journal)
	s.rules = graph.NewRuleTable(s.journal)
	s.defaults = graph.NewDefaultsTable(s.journal)
	s.records = nil
	s.memoryCache = nil
	s.kernel = kernel.New(s.graph, s.rules, s.defaults, s.vocab, s.ops,
		s.opts, &s.stats, s.memory)
}

// memory returns the session superposition, rebuilding it when stale.
func (s *Session) memory() hdc.Vector {
	if len(s.records) == 0 {
		return nil
	}
	if s.memoryCache == nil {
		vecs := make([]hdc.Vector, len(s.records))
		for i, r := range s.records {
			vecs[i] = r.vec
		}
		bundle, err := s.ops.Bundle(vecs)
		if err != nil {
			s.log.Error("memory bundle rebuild failed: %v", err)
			return nil
		}
		s.memoryCache = bundle
	}
	return s.memoryCache
}

// warmStart replays persisted asserted facts into a fresh graph.
func (s *Session) warmStart() error {
	facts, err := s.durable.LoadFacts()
	if err != nil {
		return err
	}
	if len(facts) == 0 {
		return nil
	}
	mark := s.journal.Mark()
	for _, f := range facts {
		if err := s.assertFact(f); err != nil {
			s.journal.RollbackTo(mark)
			return err
		}
	}
	s.journal.CommitTo(mark)
	s.log.Info("warm start replayed %d facts", len(facts))
	return nil
}

// Options returns the normalized session options.
func (s *Session) Options() types.SessionOptions { return s.opts }

// Stats returns the cumulative reasoning counters. The exact codec's unbind
// telemetry is folded in when active.
func (s *Session) Stats() types.Stats {
	out := s.stats
	if ec, ok := s.codec.(interface{ Counters() (int64, int64) }); ok {
		out.ExactUnbindChecks, out.ExactUnbindOutTerms = ec.Counters()
	}
	return out
}

// FactCount returns the number of stored facts.
func (s *Session) FactCount() int { return s.graph.Count() }

// ScopeLen returns the number of bound scope names.
func (s *Session) ScopeLen() int { return s.scope.Len() }

// ScopeVector returns the vector bound to a scope name.
func (s *Session) ScopeVector(name string) (hdc.Vector, bool) { return s.scope.Get(name) }

// Poisoned reports whether the session refuses mutation after an internal
// invariant violation. Reset clears the state.
func (s *Session) Poisoned() bool { return s.poisoned }

func (s *Session) guard() *types.Error {
	if s.poisoned {
		return types.E(types.KindInternal, "session is poisoned; call Reset before further mutation")
	}
	return nil
}

// poison marks the session unusable after an internal invariant violation.
func (s *Session) poison(err error) {
	s.poisoned = true
	s.log.Error("session %s poisoned: %v", s.ID, err)
}

// Reset drops every store and counter, returning the session to its initial
// state. A poisoned session becomes usable again.
func (s *Session) Reset() {
	s.initStores()
	s.stats = types.Stats{}
	if ec, ok := s.codec.(interface{ ResetCounters() }); ok {
		ec.ResetCounters()
	}
	s.poisoned = false
	s.log.Info("session %s reset", s.ID)
}

// Close releases the session's resources. The session must not be used
// afterwards.
func (s *Session) Close() error {
	if s.durable != nil {
		if err := s.durable.Close(); err != nil {
			return err
		}
		s.durable = nil
	}
	s.log.Info("session %s closed", s.ID)
	return nil
}

// SetLoadDir sets the directory against which relative load paths resolve.
func (s *Session) SetLoadDir(dir string) { s.loadDir = dir }

func (s *Session) resolvePath(path string) string {
	if filepath.IsAbs(path) || s.loadDir == "" {
		return path
	}
	return filepath.Join(s.loadDir, path)
}

// readFile is separated for error-kind mapping.
func (s *Session) readFile(path string) (string, *types.Error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", types.Wrap(types.KindIO, err, "read %s", path).For(path)
	}
	return string(data), nil
}
