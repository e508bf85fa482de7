package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lucasnoah/mend/internal/oracle"
	"github.com/lucasnoah/mend/internal/plan"
)

// mockMemory implements Memory with fixed data.
type mockMemory struct {
	files []string
	stats map[string]int
	err   error
}

func (m *mockMemory) FilesByFrequency() ([]string, error) {
	return m.files, m.err
}

func (m *mockMemory) StatsByFile() (map[string]int, error) {
	return m.stats, m.err
}

// mockRepo implements Repo with fixed data.
type mockRepo struct {
	modified []string
	err      error
}

func (m *mockRepo) ModifiedSourceFiles() ([]string, error) {
	return m.modified, m.err
}

const validPlanJSON = `{"goal": "fix", "steps": [{"id": "s1", "title": "Fix the import", "action": "edit_file", "target": "app.py"}]}`

func TestCreatePlan_NeverNil(t *testing.T) {
	cases := []struct {
		name     string
		provider oracle.Provider
	}{
		{"no provider", nil},
		{"erroring provider", &oracle.Mock{Err: errors.New("api down")}},
		{"prose provider", &oracle.Mock{Responses: []string{"I had some thoughts about this."}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := New(tc.provider, &mockMemory{}, &mockRepo{})
			sp := p.CreatePlan(context.Background(), Request{Prompt: "fix it"})
			if sp == nil {
				t.Fatal("expected non-nil plan")
			}
		})
	}
}

func TestCreatePlan_RuleTierWins(t *testing.T) {
	mock := &oracle.Mock{Responses: []string{validPlanJSON}}
	p := New(mock, &mockMemory{}, &mockRepo{})

	sp := p.CreatePlan(context.Background(), Request{
		Prompt:      "fix the import",
		ErrorType:   "ImportError",
		ProblemFile: "app.py",
	})

	if len(mock.Calls) != 0 {
		t.Errorf("expected rule tier to preempt oracle, got %d oracle calls", len(mock.Calls))
	}
	if len(sp.Steps) != 3 {
		t.Fatalf("expected 3 canned steps for ImportError, got %d", len(sp.Steps))
	}
	if sp.Steps[0].Target != "app.py" {
		t.Errorf("expected problem file as target, got %q", sp.Steps[0].Target)
	}
	if sp.Steps[2].TestsToRun[0] != "test_app.py" {
		t.Errorf("expected guessed test file, got %v", sp.Steps[2].TestsToRun)
	}
}

func TestCreatePlan_OracleSuccess(t *testing.T) {
	mock := &oracle.Mock{Responses: []string{validPlanJSON}}
	p := New(mock, &mockMemory{}, &mockRepo{})

	sp := p.CreatePlan(context.Background(), Request{Prompt: "fix the import"})

	if len(mock.Calls) != 1 {
		t.Fatalf("expected 1 oracle call, got %d", len(mock.Calls))
	}
	if mock.Calls[0].Mode != oracle.ModeDeep {
		t.Errorf("expected deep mode first, got %q", mock.Calls[0].Mode)
	}
	if len(sp.Steps) != 1 || sp.Steps[0].Title != "Fix the import" {
		t.Errorf("unexpected plan: %+v", sp)
	}
}

func TestCreatePlan_PromptCacheReplay(t *testing.T) {
	mock := &oracle.Mock{Responses: []string{validPlanJSON}}
	p := New(mock, &mockMemory{}, &mockRepo{})

	first := p.CreatePlan(context.Background(), Request{Prompt: "fix the import"})

	// Oracle now fails; the prompt cache should replay the validated plan.
	mock.Err = errors.New("api down")
	second := p.CreatePlan(context.Background(), Request{Prompt: "fix the import"})

	if second == nil || len(second.Steps) != len(first.Steps) {
		t.Fatalf("expected cached plan replay, got %+v", second)
	}
}

func TestCreatePlan_LastGoodForNewPrompt(t *testing.T) {
	mock := &oracle.Mock{Responses: []string{validPlanJSON}}
	p := New(mock, &mockMemory{}, &mockRepo{})

	p.CreatePlan(context.Background(), Request{Prompt: "first prompt"})

	mock.Err = errors.New("api down")
	sp := p.CreatePlan(context.Background(), Request{Prompt: "a different prompt"})

	if len(sp.Steps) != 1 {
		t.Fatalf("expected last-good plan replay, got %+v", sp)
	}
}

func TestCreatePlan_SafeEmptyPlan(t *testing.T) {
	p := New(nil, &mockMemory{}, &mockRepo{})
	sp := p.CreatePlan(context.Background(), Request{Prompt: "anything"})

	if sp == nil {
		t.Fatal("expected non-nil plan")
	}
	if len(sp.Steps) != 0 {
		t.Errorf("expected zero steps, got %d", len(sp.Steps))
	}
	if sp.Rationale != "no plan could be generated: manual intervention required" {
		t.Errorf("unexpected rationale: %q", sp.Rationale)
	}
}

func TestCreatePlan_InvalidOraclePlanFallsThrough(t *testing.T) {
	// Duplicate step IDs fail validation in both oracle tiers.
	bad := `{"steps": [{"id": "s1", "title": "a"}, {"id": "s1", "title": "b"}]}`
	mock := &oracle.Mock{Responses: []string{bad}}
	p := New(mock, &mockMemory{}, &mockRepo{})

	sp := p.CreatePlan(context.Background(), Request{Prompt: "fix"})

	if len(mock.Calls) != 2 {
		t.Errorf("expected deep and fast oracle attempts, got %d", len(mock.Calls))
	}
	if len(sp.Steps) != 0 {
		t.Errorf("expected safe empty plan, got %d steps", len(sp.Steps))
	}
}

func TestBuildPlan_ModifiedFilesSignal(t *testing.T) {
	repo := &mockRepo{modified: []string{"app.py", "util.py"}}
	p := New(nil, &mockMemory{}, repo)

	items := p.BuildPlan(5)

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Target != "app.py" {
		t.Errorf("expected target=app.py, got %q", items[0].Target)
	}
	if len(items[0].TestsToRun) != 1 || items[0].TestsToRun[0] != "test_app.py" {
		t.Errorf("expected guessed test file, got %v", items[0].TestsToRun)
	}
}

func TestBuildPlan_FailingTestsSignal(t *testing.T) {
	p := New(nil, &mockMemory{}, &mockRepo{})
	p.SetFailingTests([]string{"tests/test_auth.py::test_login"})

	items := p.BuildPlan(5)

	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Action != plan.ActionRunTests {
		t.Errorf("expected run_tests, got %q", items[0].Action)
	}
	if items[0].Risk != plan.RiskHigh {
		t.Errorf("expected high risk for failing test, got %q", items[0].Risk)
	}
}

func TestBuildPlan_MemorySignalSkipsTargeted(t *testing.T) {
	repo := &mockRepo{modified: []string{"app.py"}}
	mem := &mockMemory{files: []string{"app.py", "flaky.py"}}
	p := New(nil, mem, repo)

	items := p.BuildPlan(5)

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[1].Target != "flaky.py" {
		t.Errorf("expected memory item for flaky.py, got %q", items[1].Target)
	}
	if items[1].Risk != plan.RiskMedium {
		t.Errorf("expected medium risk, got %q", items[1].Risk)
	}
}

func TestBuildPlan_NoSignalsYieldsRunSuite(t *testing.T) {
	p := New(nil, &mockMemory{}, &mockRepo{})

	items := p.BuildPlan(5)

	if len(items) != 1 {
		t.Fatalf("expected exactly 1 fallback item, got %d", len(items))
	}
	if items[0].Action != plan.ActionRunTests {
		t.Errorf("expected run_tests fallback, got %q", items[0].Action)
	}
}

func TestBuildPlan_MaxItemsCap(t *testing.T) {
	repo := &mockRepo{modified: []string{"a.py", "b.py", "c.py", "d.py"}}
	p := New(nil, &mockMemory{}, repo)

	items := p.BuildPlan(2)
	if len(items) != 2 {
		t.Errorf("expected cap at 2 items, got %d", len(items))
	}
}

func TestBuildPlan_CacheWithinTTL(t *testing.T) {
	now := time.Now()
	repo := &mockRepo{modified: []string{"a.py"}}
	p := New(nil, &mockMemory{}, repo, WithCacheTTL(30*time.Second))
	p.now = func() time.Time { return now }

	first := p.BuildPlan(5)

	// Repo changes, but the cache is still fresh.
	repo.modified = []string{"a.py", "b.py"}
	second := p.BuildPlan(5)
	if len(second) != len(first) {
		t.Errorf("expected cached plan within TTL, got %d items", len(second))
	}

	// Cache expires; the new signal shows up.
	now = now.Add(31 * time.Second)
	third := p.BuildPlan(5)
	if len(third) != 2 {
		t.Errorf("expected fresh plan after TTL, got %d items", len(third))
	}
}
