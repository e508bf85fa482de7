package planner

import (
	"fmt"
	"strings"

	"github.com/lucasnoah/mend/internal/plan"
	"github.com/lucasnoah/mend/internal/workspace"
)

// ruleStep is one canned step template. {file} expands to the problem file
// when the caller supplied one.
type ruleStep struct {
	title  string
	action plan.Action
	risk   plan.Risk
}

// ruleLibrary maps known error categories to canned remediation plans.
// The keys are matched case-insensitively against the caller's error_type.
var ruleLibrary = map[string][]ruleStep{
	"assertionerror": {
		{title: "Inspect the failing assertion in {file} and compare expected vs actual", action: plan.ActionEditFile, risk: plan.RiskLow},
		{title: "Re-run the affected tests", action: plan.ActionRunTests, risk: plan.RiskLow},
	},
	"importerror": {
		{title: "Check the import path and module name in {file}", action: plan.ActionEditFile, risk: plan.RiskLow},
		{title: "Verify the dependency is installed and importable", action: plan.ActionCommand, risk: plan.RiskLow},
		{title: "Re-run the affected tests", action: plan.ActionRunTests, risk: plan.RiskLow},
	},
	"modulenotfounderror": {
		{title: "Check the import path and module name in {file}", action: plan.ActionEditFile, risk: plan.RiskLow},
		{title: "Verify the dependency is installed and importable", action: plan.ActionCommand, risk: plan.RiskLow},
	},
	"attributeerror": {
		{title: "Locate the attribute access in {file} and check the object's type", action: plan.ActionEditFile, risk: plan.RiskLow},
		{title: "Re-run the affected tests", action: plan.ActionRunTests, risk: plan.RiskLow},
	},
	"typeerror": {
		{title: "Check argument types and call signatures in {file}", action: plan.ActionEditFile, risk: plan.RiskMedium},
		{title: "Re-run the affected tests", action: plan.ActionRunTests, risk: plan.RiskLow},
	},
	"keyerror": {
		{title: "Guard the dictionary access in {file} or fix the key", action: plan.ActionEditFile, risk: plan.RiskLow},
		{title: "Re-run the affected tests", action: plan.ActionRunTests, risk: plan.RiskLow},
	},
	"syntaxerror": {
		{title: "Fix the syntax error reported in {file}", action: plan.ActionEditFile, risk: plan.RiskLow},
		{title: "Re-run the affected tests", action: plan.ActionRunTests, risk: plan.RiskLow},
	},
	"timeout": {
		{title: "Profile the slow path in {file} and raise or remove the bottleneck", action: plan.ActionRefactor, risk: plan.RiskHigh},
		{title: "Re-run the affected tests", action: plan.ActionRunTests, risk: plan.RiskLow},
	},
}

// planFromRules builds a plan from the rule library for a known error
// category. Returns (nil, false) when the category is unknown.
func planFromRules(errorType, problemFile, goal string) (*plan.StructuredPlan, bool) {
	steps, ok := ruleLibrary[strings.ToLower(strings.TrimSpace(errorType))]
	if !ok {
		return nil, false
	}

	file := problemFile
	if file == "" {
		file = "the affected file"
	}

	sp := &plan.StructuredPlan{
		Goal:      goal,
		Rationale: fmt.Sprintf("canned remediation plan for %s", errorType),
	}
	for i, rs := range steps {
		it := plan.NewItem(fmt.Sprintf("step-%d", i+1), strings.ReplaceAll(rs.title, "{file}", file))
		it.Action = rs.action
		it.Risk = rs.risk
		if problemFile != "" && rs.action != plan.ActionRunTests {
			it.Target = problemFile
		}
		if rs.action == plan.ActionRunTests && problemFile != "" {
			if tf := workspace.GuessTestFile(problemFile); tf != "" {
				it.TestsToRun = []string{tf}
			}
		}
		sp.Steps = append(sp.Steps, it)
	}
	return sp, true
}
