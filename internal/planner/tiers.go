package planner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/lucasnoah/mend/internal/oracle"
	"github.com/lucasnoah/mend/internal/plan"
)

// Tier is one strategy in the fallback chain. Attempt returns (plan, true)
// on success; the chain moves on to the next tier otherwise.
type Tier interface {
	Name() string
	Attempt(ctx context.Context, req Request) (*plan.StructuredPlan, bool)
}

// tiers assembles the chain in strict order: rule library, deep oracle,
// prompt cache, fast oracle, last known good, safe empty plan. The final
// tier cannot fail, which is what guarantees CreatePlan's contract.
func (p *Planner) tiers() []Tier {
	return []Tier{
		ruleTier{},
		oracleTier{p: p, mode: oracle.ModeDeep},
		cacheTier{p: p},
		oracleTier{p: p, mode: oracle.ModeFast},
		lastGoodTier{p: p},
		emptyTier{},
	}
}

// ruleTier matches known error categories against the canned plan library.
type ruleTier struct{}

func (ruleTier) Name() string { return "rules" }

func (ruleTier) Attempt(_ context.Context, req Request) (*plan.StructuredPlan, bool) {
	if req.ErrorType == "" {
		return nil, false
	}
	return planFromRules(req.ErrorType, req.ProblemFile, req.Prompt)
}

// oracleTier asks the text-generation oracle for a structured plan and
// normalizes whatever comes back. Any failure (transport error, no
// balanced JSON, schema violation) yields to the next tier.
type oracleTier struct {
	p    *Planner
	mode oracle.Mode
}

func (t oracleTier) Name() string { return "oracle-" + string(t.mode) }

const planSchemaHint = `Respond with a JSON object:
{"goal": "...", "rationale": "...", "steps": [{"id": "step-1", "title": "...",
"action": "edit_file|create_file|run_tests|refactor|command", "target": "...",
"patch": "...", "tests_to_run": [], "risk": "low|medium|high",
"dependencies": [], "reasoning": "..."}]}`

const planSystemPrompt = "You are a code remediation planner. Produce a short, ordered plan of concrete steps that fix the described problem. Prefer small, verifiable changes."

func (t oracleTier) Attempt(ctx context.Context, req Request) (*plan.StructuredPlan, bool) {
	if t.p.provider == nil {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(ctx, t.p.oracleTimeout)
	defer cancel()

	raw, err := t.p.provider.Generate(ctx, oracle.Request{
		Prompt:         req.Prompt,
		Mode:           t.mode,
		SystemPrompt:   planSystemPrompt,
		ResponseFormat: "json",
		SchemaHint:     planSchemaHint,
	})
	if err != nil {
		return nil, false
	}

	normalized, _ := plan.Normalize(raw, req.Prompt)
	if normalized == nil {
		return nil, false
	}
	if errs := plan.Validate(normalized); len(errs) > 0 {
		return nil, false
	}

	t.p.recordGood(req.Prompt, normalized)
	return normalized, true
}

// cacheTier replays a previously validated plan for the same prompt text.
type cacheTier struct {
	p *Planner
}

func (cacheTier) Name() string { return "cache" }

func (t cacheTier) Attempt(_ context.Context, req Request) (*plan.StructuredPlan, bool) {
	t.p.mu.Lock()
	defer t.p.mu.Unlock()
	if cached, ok := t.p.promptCache[promptKey(req.Prompt)]; ok {
		return cached, true
	}
	return nil, false
}

// lastGoodTier replays the most recent plan that passed validation in this
// planner's lifetime, regardless of prompt.
type lastGoodTier struct {
	p *Planner
}

func (lastGoodTier) Name() string { return "last-good" }

func (t lastGoodTier) Attempt(_ context.Context, _ Request) (*plan.StructuredPlan, bool) {
	t.p.mu.Lock()
	defer t.p.mu.Unlock()
	if t.p.lastGood != nil {
		return t.p.lastGood, true
	}
	return nil, false
}

// emptyTier is the terminal fallback: a zero-step plan with an explicit
// manual-intervention rationale. It always succeeds.
type emptyTier struct{}

func (emptyTier) Name() string { return "empty" }

func (emptyTier) Attempt(_ context.Context, req Request) (*plan.StructuredPlan, bool) {
	return safeEmptyPlan(req.Prompt), true
}

func safeEmptyPlan(goal string) *plan.StructuredPlan {
	return &plan.StructuredPlan{
		Goal:      goal,
		Rationale: "no plan could be generated: manual intervention required",
		Steps:     []plan.Item{},
	}
}

// recordGood stores a validated plan in the prompt cache and as the last
// known good plan.
func (p *Planner) recordGood(prompt string, sp *plan.StructuredPlan) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.promptCache[promptKey(prompt)] = sp
	p.lastGood = sp
}

func promptKey(prompt string) string {
	h := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(h[:])
}
