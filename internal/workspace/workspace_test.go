package workspace

import (
	"os"
	"path/filepath"
	"testing"
)

// mockGit returns scripted output per command prefix.
type mockGit struct {
	calls   []string
	outputs map[string]string
	errs    map[string]error
}

func (m *mockGit) Run(dir string, args ...string) (string, error) {
	key := args[0]
	m.calls = append(m.calls, key)
	if err, ok := m.errs[key]; ok {
		return "", err
	}
	return m.outputs[key], nil
}

func newTestWorkspace(t *testing.T, git *mockGit) *Workspace {
	t.Helper()
	ws, err := New(git, t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return ws
}

func TestNew_MissingDir(t *testing.T) {
	if _, err := New(&mockGit{}, "/does/not/exist"); err == nil {
		t.Error("expected error for missing dir")
	}
}

func TestNew_FileNotDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := New(&mockGit{}, path); err == nil {
		t.Error("expected error for non-directory path")
	}
}

func TestStatus_ParsesPorcelain(t *testing.T) {
	git := &mockGit{outputs: map[string]string{
		"status": " M app.py\n?? new_file.go\nR  old.py -> renamed.py",
	}}
	ws := newTestWorkspace(t, git)

	changes, err := ws.Status()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(changes) != 3 {
		t.Fatalf("expected 3 changes, got %d", len(changes))
	}
	if changes[0].Status != " M" || changes[0].Path != "app.py" {
		t.Errorf("unexpected change: %+v", changes[0])
	}
	if changes[1].Path != "new_file.go" {
		t.Errorf("unexpected change: %+v", changes[1])
	}
	if changes[2].Path != "renamed.py" {
		t.Errorf("expected rename target path, got %q", changes[2].Path)
	}
}

func TestStatus_CleanTree(t *testing.T) {
	git := &mockGit{outputs: map[string]string{"status": ""}}
	ws := newTestWorkspace(t, git)

	changes, err := ws.Status()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(changes) != 0 {
		t.Errorf("expected no changes, got %v", changes)
	}
}

func TestModifiedSourceFiles_FiltersTestsAndNonSource(t *testing.T) {
	git := &mockGit{outputs: map[string]string{
		"status": " M app.py\n M test_app.py\n M notes.md\n M util_test.go\n M server.go",
	}}
	ws := newTestWorkspace(t, git)

	files, err := ws.ModifiedSourceFiles()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"app.py", "server.go"}
	if len(files) != len(want) {
		t.Fatalf("expected %v, got %v", want, files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], files[i])
		}
	}
}

func TestGuessTestFile(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"app.py", "test_app.py"},
		{"pkg/server.go", "pkg/server_test.go"},
		{"src/widget.ts", "src/widget.test.ts"},
		{"src/widget.jsx", "src/widget.test.js"},
		{"README.md", ""},
	}
	for _, tc := range cases {
		if got := GuessTestFile(tc.path); got != tc.want {
			t.Errorf("GuessTestFile(%q): expected %q, got %q", tc.path, tc.want, got)
		}
	}
}

func TestPrepareSandbox_CopiesTree(t *testing.T) {
	src := t.TempDir()
	if err := os.MkdirAll(filepath.Join(src, "pkg"), 0o755); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "app.py"), []byte("x = 1\n"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "pkg", "util.py"), []byte("y = 2\n"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ws, err := New(&mockGit{}, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sandbox := filepath.Join(t.TempDir(), "sandbox")
	sb, err := ws.PrepareSandbox(sandbox)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sb.Dir() != sandbox {
		t.Errorf("expected sandbox dir, got %q", sb.Dir())
	}

	data, err := os.ReadFile(filepath.Join(sandbox, "pkg", "util.py"))
	if err != nil {
		t.Fatalf("expected copied file: %v", err)
	}
	if string(data) != "y = 2\n" {
		t.Errorf("unexpected content: %q", data)
	}

	// Mutating the copy leaves the original untouched.
	if err := os.WriteFile(filepath.Join(sandbox, "app.py"), []byte("mutated"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	orig, _ := os.ReadFile(filepath.Join(src, "app.py"))
	if string(orig) != "x = 1\n" {
		t.Errorf("expected original untouched, got %q", orig)
	}
}

func TestPrepareSandbox_EmptyDir(t *testing.T) {
	ws := newTestWorkspace(t, &mockGit{})
	if _, err := ws.PrepareSandbox(""); err == nil {
		t.Error("expected error for empty sandbox dir")
	}
}

func TestRemoteURL(t *testing.T) {
	git := &mockGit{outputs: map[string]string{"remote": "git@github.com:acme/app.git"}}
	ws := newTestWorkspace(t, git)
	if got := ws.RemoteURL(); got != "git@github.com:acme/app.git" {
		t.Errorf("unexpected url: %q", got)
	}
}
