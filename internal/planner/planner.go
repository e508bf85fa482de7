// Package planner produces ordered remediation plans. Plan sourcing is a
// strict fallback chain whose terminal tier always succeeds, so the planner
// never returns a nil plan, whatever the oracle or the repository looks
// like.
package planner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lucasnoah/mend/internal/oracle"
	"github.com/lucasnoah/mend/internal/plan"
	"github.com/lucasnoah/mend/internal/workspace"
)

// Request describes what to plan for.
type Request struct {
	Prompt      string
	ErrorType   string // when set, the rule library is consulted first
	ProblemFile string
}

// Memory is the subset of bugmemory the planner needs.
type Memory interface {
	FilesByFrequency() ([]string, error)
	StatsByFile() (map[string]int, error)
}

// Repo is the subset of workspace the planner needs.
type Repo interface {
	ModifiedSourceFiles() ([]string, error)
}

// Planner builds remediation plans from oracle calls and repository
// signals. All fallback state (last validated plan, prompt cache) lives on
// the instance, so concurrent Planner instances never cross-contaminate.
type Planner struct {
	provider oracle.Provider
	memory   Memory
	repo     Repo

	oracleTimeout time.Duration
	cacheTTL      time.Duration
	now           func() time.Time

	mu           sync.Mutex
	lastGood     *plan.StructuredPlan
	promptCache  map[string]*plan.StructuredPlan
	failingTests []string
	buildCache   map[int]cachedBuild
}

type cachedBuild struct {
	items []plan.Item
	at    time.Time
}

// Option configures a Planner.
type Option func(*Planner)

// WithOracleTimeout overrides the per-call oracle timeout.
func WithOracleTimeout(d time.Duration) Option {
	return func(p *Planner) { p.oracleTimeout = d }
}

// WithCacheTTL overrides the BuildPlan result cache TTL.
func WithCacheTTL(d time.Duration) Option {
	return func(p *Planner) { p.cacheTTL = d }
}

// New creates a Planner. provider may be nil, in which case the oracle
// tiers are skipped and planning relies on rules, caches, and the safe
// empty plan.
func New(provider oracle.Provider, memory Memory, repo Repo, opts ...Option) *Planner {
	p := &Planner{
		provider:      provider,
		memory:        memory,
		repo:          repo,
		oracleTimeout: 60 * time.Second,
		cacheTTL:      30 * time.Second,
		now:           time.Now,
		promptCache:   make(map[string]*plan.StructuredPlan),
		buildCache:    make(map[int]cachedBuild),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// SetFailingTests records test identifiers known to be failing; BuildPlan
// turns them into high-risk rerun steps.
func (p *Planner) SetFailingTests(tests []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failingTests = append([]string(nil), tests...)
}

// CreatePlan runs the fallback chain and returns the first plan a tier
// produces. The terminal safe-empty tier always succeeds, so the returned
// plan is never nil.
func (p *Planner) CreatePlan(ctx context.Context, req Request) *plan.StructuredPlan {
	for _, tier := range p.tiers() {
		if got, ok := tier.Attempt(ctx, req); ok {
			return got
		}
	}
	// Unreachable: the empty tier cannot fail. Kept as a belt against a
	// miswired tier list.
	return safeEmptyPlan(req.Prompt)
}

// BuildPlan derives up to maxItems heuristic remediation steps from three
// repository signals: working-tree changes, cached failing tests, and bug
// memory frequency. A repo with no signals still yields one "run the full
// test suite" step. Results are cached per maxItems for a short TTL.
func (p *Planner) BuildPlan(maxItems int) []plan.Item {
	if maxItems <= 0 {
		maxItems = 1
	}

	p.mu.Lock()
	if c, ok := p.buildCache[maxItems]; ok && p.now().Sub(c.at) < p.cacheTTL {
		items := append([]plan.Item(nil), c.items...)
		p.mu.Unlock()
		return items
	}
	failing := append([]string(nil), p.failingTests...)
	p.mu.Unlock()

	var items []plan.Item
	next := func() string { return fmt.Sprintf("step-%d", len(items)+1) }

	// Signal (a): modified source files, each paired with its conventional
	// test file.
	if p.repo != nil {
		if files, err := p.repo.ModifiedSourceFiles(); err == nil {
			for _, f := range files {
				if len(items) >= maxItems {
					break
				}
				it := plan.NewItem(next(), fmt.Sprintf("Review and fix changes in %s", f))
				it.Target = f
				if tf := workspace.GuessTestFile(f); tf != "" {
					it.TestsToRun = []string{tf}
				}
				items = append(items, it)
			}
		}
	}

	// Signal (b): previously failing tests, rerun at high risk.
	for _, t := range failing {
		if len(items) >= maxItems {
			break
		}
		it := plan.NewItem(next(), fmt.Sprintf("Fix failing test %s", t))
		it.Action = plan.ActionRunTests
		it.Risk = plan.RiskHigh
		it.Target = t
		it.TestsToRun = []string{t}
		items = append(items, it)
	}

	// Signal (c): files that fail most often according to bug memory.
	if p.memory != nil {
		if files, err := p.memory.FilesByFrequency(); err == nil {
			targeted := make(map[string]bool)
			for _, it := range items {
				targeted[it.Target] = true
			}
			for _, f := range files {
				if len(items) >= maxItems {
					break
				}
				if targeted[f] {
					continue
				}
				it := plan.NewItem(next(), fmt.Sprintf("Investigate recurring failures in %s", f))
				it.Target = f
				it.Risk = plan.RiskMedium
				if tf := workspace.GuessTestFile(f); tf != "" {
					it.TestsToRun = []string{tf}
				}
				items = append(items, it)
			}
		}
	}

	// No signal at all: the plan is never empty.
	if len(items) == 0 {
		it := plan.NewItem("step-1", "Run the full test suite")
		it.Action = plan.ActionRunTests
		items = append(items, it)
	}

	p.mu.Lock()
	p.buildCache[maxItems] = cachedBuild{items: append([]plan.Item(nil), items...), at: p.now()}
	p.mu.Unlock()

	return items
}
