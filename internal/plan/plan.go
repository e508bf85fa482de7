// Package plan defines the remediation plan data model shared by the
// planner, executor, and verifier.
package plan

import "fmt"

// Action enumerates the kinds of remediation steps.
type Action string

const (
	ActionEditFile   Action = "edit_file"
	ActionCreateFile Action = "create_file"
	ActionRunTests   Action = "run_tests"
	ActionRefactor   Action = "refactor"
	ActionCommand    Action = "command"
)

// ValidActions is the set of recognized step actions.
var ValidActions = map[Action]bool{
	ActionEditFile:   true,
	ActionCreateFile: true,
	ActionRunTests:   true,
	ActionRefactor:   true,
	ActionCommand:    true,
}

// Risk enumerates step risk levels.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// ValidRisks is the set of recognized risk levels.
var ValidRisks = map[Risk]bool{
	RiskLow:    true,
	RiskMedium: true,
	RiskHigh:   true,
}

// Item is a single remediation step. Items are created by the planner and
// never mutated afterwards.
type Item struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Action       Action   `json:"action"`
	Target       string   `json:"target,omitempty"`
	Patch        string   `json:"patch,omitempty"`
	TestsToRun   []string `json:"tests_to_run,omitempty"`
	Risk         Risk     `json:"risk"`
	Dependencies []string `json:"dependencies,omitempty"`
	Reasoning    string   `json:"reasoning,omitempty"`
}

// NewItem creates an Item with defaults applied: action edit_file, risk low.
// Action and risk are never left unset after construction.
func NewItem(id, title string) Item {
	return Item{
		ID:     id,
		Title:  title,
		Action: ActionEditFile,
		Risk:   RiskLow,
	}
}

// ApplyDefaults coerces missing or unrecognized action and risk on an item
// parsed from external input. Action and risk always carry a valid value
// afterwards.
func (it *Item) ApplyDefaults() {
	if !ValidActions[it.Action] {
		it.Action = ActionEditFile
	}
	if !ValidRisks[it.Risk] {
		it.Risk = RiskLow
	}
}

// StructuredPlan is the canonical shape returned by plan generation.
type StructuredPlan struct {
	Goal      string `json:"goal"`
	Rationale string `json:"rationale,omitempty"`
	Steps     []Item `json:"steps"`
}

// ValidationError describes a single schema violation.
type ValidationError struct {
	Path    string
	Message string
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a StructuredPlan for structural validity. A nil plan is
// invalid; an empty step list is valid (the safe empty plan relies on this).
func Validate(p *StructuredPlan) []ValidationError {
	var errs []ValidationError
	if p == nil {
		return []ValidationError{{"plan", "plan is nil"}}
	}

	seen := make(map[string]bool)
	for i, it := range p.Steps {
		prefix := fmt.Sprintf("steps[%d]", i)
		if it.ID == "" {
			errs = append(errs, ValidationError{prefix + ".id", "required"})
		} else if seen[it.ID] {
			errs = append(errs, ValidationError{prefix + ".id", fmt.Sprintf("duplicate ID: %q", it.ID)})
		} else {
			seen[it.ID] = true
		}
		if it.Title == "" {
			errs = append(errs, ValidationError{prefix + ".title", "required"})
		}
		if !ValidActions[it.Action] {
			errs = append(errs, ValidationError{prefix + ".action", fmt.Sprintf("invalid: %q", it.Action)})
		}
		if !ValidRisks[it.Risk] {
			errs = append(errs, ValidationError{prefix + ".risk", fmt.Sprintf("invalid: %q", it.Risk)})
		}
		for j, dep := range it.Dependencies {
			if dep == it.ID {
				errs = append(errs, ValidationError{fmt.Sprintf("%s.dependencies[%d]", prefix, j), "step depends on itself"})
			}
		}
	}

	// Dependencies must reference IDs present in the plan.
	for i, it := range p.Steps {
		for j, dep := range it.Dependencies {
			if dep != it.ID && !seen[dep] {
				errs = append(errs, ValidationError{
					fmt.Sprintf("steps[%d].dependencies[%d]", i, j),
					fmt.Sprintf("unknown step ID: %q", dep),
				})
			}
		}
	}

	return errs
}
