package plan

import (
	"testing"
)

func TestNewItem_Defaults(t *testing.T) {
	it := NewItem("s1", "Fix the import")

	if it.ID != "s1" {
		t.Errorf("expected id=s1, got %q", it.ID)
	}
	if it.Action != ActionEditFile {
		t.Errorf("expected default action=edit_file, got %q", it.Action)
	}
	if it.Risk != RiskLow {
		t.Errorf("expected default risk=low, got %q", it.Risk)
	}
}

func TestApplyDefaults_InvalidValues(t *testing.T) {
	it := Item{ID: "s1", Title: "x", Action: "explode", Risk: "extreme"}
	it.ApplyDefaults()

	if it.Action != ActionEditFile {
		t.Errorf("expected unknown action replaced with edit_file, got %q", it.Action)
	}
	if it.Risk != RiskLow {
		t.Errorf("expected unknown risk replaced with low, got %q", it.Risk)
	}
}

func TestValidate_NilPlan(t *testing.T) {
	errs := Validate(nil)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error for nil plan, got %d", len(errs))
	}
}

func TestValidate_EmptyStepsIsValid(t *testing.T) {
	p := &StructuredPlan{Goal: "g", Steps: []Item{}}
	if errs := Validate(p); len(errs) != 0 {
		t.Errorf("expected empty plan to be valid, got %v", errs)
	}
}

func TestValidate_DuplicateIDs(t *testing.T) {
	p := &StructuredPlan{Goal: "g", Steps: []Item{
		NewItem("s1", "one"),
		NewItem("s1", "two"),
	}}
	errs := Validate(p)
	if len(errs) == 0 {
		t.Fatal("expected duplicate id error, got none")
	}
}

func TestValidate_SelfDependency(t *testing.T) {
	it := NewItem("s1", "one")
	it.Dependencies = []string{"s1"}
	p := &StructuredPlan{Goal: "g", Steps: []Item{it}}
	if errs := Validate(p); len(errs) == 0 {
		t.Fatal("expected self-dependency error, got none")
	}
}

func TestValidate_UnknownDependency(t *testing.T) {
	it := NewItem("s1", "one")
	it.Dependencies = []string{"s9"}
	p := &StructuredPlan{Goal: "g", Steps: []Item{it}}
	if errs := Validate(p); len(errs) == 0 {
		t.Fatal("expected unknown dependency error, got none")
	}
}

func TestValidate_ValidChain(t *testing.T) {
	a := NewItem("s1", "one")
	b := NewItem("s2", "two")
	b.Dependencies = []string{"s1"}
	p := &StructuredPlan{Goal: "g", Steps: []Item{a, b}}
	if errs := Validate(p); len(errs) != 0 {
		t.Errorf("expected valid plan, got %v", errs)
	}
}
