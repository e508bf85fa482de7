package plan

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Field alias tables. Oracle output uses whatever field names the model felt
// like; each table enumerates the alternates we map onto the canonical name.
var (
	titleAliases     = []string{"title", "name", "summary", "description", "step"}
	actionAliases    = []string{"action", "type", "kind", "operation", "op"}
	targetAliases    = []string{"target", "file", "path", "file_path", "filename"}
	patchAliases     = []string{"patch", "diff", "unified_diff", "change"}
	testsAliases     = []string{"tests_to_run", "tests", "test_files", "test"}
	riskAliases      = []string{"risk", "severity", "priority", "risk_level"}
	depsAliases      = []string{"dependencies", "deps", "depends_on", "requires", "after"}
	reasoningAliases = []string{"reasoning", "analysis", "rationale", "thought", "why", "explanation"}
	stepsAliases     = []string{"steps", "plan", "items", "tasks", "actions"}
	goalAliases      = []string{"goal", "objective", "prompt", "task"}
)

// actionAliasValues maps alternate action spellings onto the enum.
var actionAliasValues = map[string]Action{
	"edit":        ActionEditFile,
	"edit_file":   ActionEditFile,
	"modify":      ActionEditFile,
	"modify_file": ActionEditFile,
	"create":      ActionCreateFile,
	"create_file": ActionCreateFile,
	"add_file":    ActionCreateFile,
	"new_file":    ActionCreateFile,
	"test":        ActionRunTests,
	"tests":       ActionRunTests,
	"run_tests":   ActionRunTests,
	"run_test":    ActionRunTests,
	"refactor":    ActionRefactor,
	"cleanup":     ActionRefactor,
	"command":     ActionCommand,
	"run":         ActionCommand,
	"shell":       ActionCommand,
	"run_command": ActionCommand,
}

// riskAliasValues maps alternate risk spellings onto the enum.
var riskAliasValues = map[string]Risk{
	"low":      RiskLow,
	"minor":    RiskLow,
	"safe":     RiskLow,
	"medium":   RiskMedium,
	"moderate": RiskMedium,
	"mid":      RiskMedium,
	"high":     RiskHigh,
	"major":    RiskHigh,
	"risky":    RiskHigh,
}

// StepResult is the tagged outcome of normalizing one raw oracle step:
// either a recognized Item or the raw text that could not be interpreted.
type StepResult struct {
	Recognized bool
	Item       Item
	Raw        string
}

// Normalize converts raw oracle text into a canonical StructuredPlan. It
// never returns an error: unusable input yields (nil, steps) where steps
// records what was rejected, and the caller treats a nil plan as tier
// failure. A plan whose steps all lack reasoning text gets a synthesized
// analysis step so downstream consumers always see at least one step.
func Normalize(raw string, goal string) (*StructuredPlan, []StepResult) {
	block := ExtractJSONBlock(raw)
	if block == "" {
		return nil, []StepResult{{Raw: raw}}
	}

	var top any
	if err := json.Unmarshal([]byte(block), &top); err != nil {
		return nil, []StepResult{{Raw: block}}
	}

	var rawSteps []any
	out := &StructuredPlan{Goal: goal}

	switch v := top.(type) {
	case []any:
		rawSteps = v
	case map[string]any:
		if g, ok := lookupString(v, goalAliases); ok && out.Goal == "" {
			out.Goal = g
		}
		if r, ok := lookupString(v, []string{"rationale", "reasoning", "analysis"}); ok {
			out.Rationale = r
		}
		if s, ok := lookupAny(v, stepsAliases); ok {
			if list, ok := s.([]any); ok {
				rawSteps = list
			}
		}
		if rawSteps == nil {
			// The object itself may be a single step.
			rawSteps = []any{v}
		}
	default:
		return nil, []StepResult{{Raw: block}}
	}

	var results []StepResult
	for i, rs := range rawSteps {
		res := normalizeStep(rs, i)
		if res.Recognized {
			out.Steps = append(out.Steps, res.Item)
		}
		results = append(results, res)
	}

	// Steps with no recognizable reasoning or title were discarded above.
	// When nothing survives, synthesize an analysis step so the plan always
	// carries at least one step.
	if len(out.Steps) == 0 {
		analysis := NewItem("step-1", "Analyze the failure and determine a fix")
		analysis.Action = ActionRunTests
		analysis.Reasoning = "oracle returned no usable steps; start by reproducing the failure"
		out.Steps = []Item{analysis}
	}

	return out, results
}

// normalizeStep maps one raw step value onto an Item via the alias tables.
func normalizeStep(raw any, idx int) StepResult {
	m, ok := raw.(map[string]any)
	if !ok {
		// Bare strings are treated as a titled step.
		if s, ok := raw.(string); ok && strings.TrimSpace(s) != "" {
			it := NewItem(fmt.Sprintf("step-%d", idx+1), strings.TrimSpace(s))
			return StepResult{Recognized: true, Item: it}
		}
		return StepResult{Raw: fmt.Sprintf("%v", raw)}
	}

	it := Item{}
	if id, ok := lookupString(m, []string{"id", "step_id", "number"}); ok {
		it.ID = id
	} else if n, ok := lookupNumber(m, []string{"id", "step_id", "number"}); ok {
		it.ID = fmt.Sprintf("step-%d", int(n))
	}
	if it.ID == "" {
		it.ID = fmt.Sprintf("step-%d", idx+1)
	}

	if t, ok := lookupString(m, titleAliases); ok {
		it.Title = t
	}
	if a, ok := lookupString(m, actionAliases); ok {
		key := strings.ToLower(strings.TrimSpace(a))
		if mapped, ok := actionAliasValues[key]; ok {
			it.Action = mapped
		} else if ValidActions[Action(key)] {
			it.Action = Action(key)
		}
	}
	if tgt, ok := lookupString(m, targetAliases); ok {
		it.Target = tgt
	}
	if p, ok := lookupString(m, patchAliases); ok {
		it.Patch = p
	}
	if r, ok := lookupString(m, riskAliases); ok {
		key := strings.ToLower(strings.TrimSpace(r))
		if mapped, ok := riskAliasValues[key]; ok {
			it.Risk = mapped
		}
	}
	if reason, ok := lookupString(m, reasoningAliases); ok {
		it.Reasoning = reason
	}
	if tests, ok := lookupAny(m, testsAliases); ok {
		it.TestsToRun = toStringSlice(tests)
	}
	if deps, ok := lookupAny(m, depsAliases); ok {
		it.Dependencies = toStringSlice(deps)
	}

	it.ApplyDefaults()

	if it.Title == "" && it.Reasoning == "" {
		b, _ := json.Marshal(m)
		return StepResult{Raw: string(b)}
	}
	if it.Title == "" {
		it.Title = firstSentence(it.Reasoning)
	}
	return StepResult{Recognized: true, Item: it}
}

func lookupAny(m map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func lookupString(m map[string]any, keys []string) (string, bool) {
	v, ok := lookupAny(m, keys)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return strings.TrimSpace(s), true
}

func lookupNumber(m map[string]any, keys []string) (float64, bool) {
	v, ok := lookupAny(m, keys)
	if !ok {
		return 0, false
	}
	n, ok := v.(float64)
	return n, ok
}

func toStringSlice(v any) []string {
	switch t := v.(type) {
	case string:
		if strings.TrimSpace(t) == "" {
			return nil
		}
		return []string{strings.TrimSpace(t)}
	case []any:
		var out []string
		for _, e := range t {
			if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	}
	return nil
}

func firstSentence(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, ".\n"); i > 0 {
		return s[:i]
	}
	if len(s) > 80 {
		return s[:80]
	}
	return s
}
