package bugmemory

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestMemory(t *testing.T) *Memory {
	t.Helper()
	m, err := New(filepath.Join(t.TempDir(), "bugmemory.jsonl"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return m
}

func TestFingerprint_Deterministic(t *testing.T) {
	a := Fingerprint("app.py", 10, "NameError: x")
	b := Fingerprint("app.py", 10, "NameError: x")
	if a != b {
		t.Errorf("expected identical fingerprints, got %q and %q", a, b)
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
}

func TestFingerprint_SensitiveToInputs(t *testing.T) {
	base := Fingerprint("app.py", 10, "NameError: x")
	if Fingerprint("app.py", 11, "NameError: x") == base {
		t.Error("expected different fingerprint for different line")
	}
	if Fingerprint("other.py", 10, "NameError: x") == base {
		t.Error("expected different fingerprint for different file")
	}
	if Fingerprint("app.py", 10, "NameError: y") == base {
		t.Error("expected different fingerprint for different message")
	}
}

func TestAppend_FillsFingerprintAndTimestamp(t *testing.T) {
	m := newTestMemory(t)

	if err := m.Append(Record{File: "app.py", Line: 3, Message: "boom"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := m.All()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	want := Fingerprint("app.py", 3, "boom")
	if records[0].Fingerprint != want {
		t.Errorf("expected fingerprint %q, got %q", want, records[0].Fingerprint)
	}
	if records[0].Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestExists(t *testing.T) {
	m := newTestMemory(t)
	fp := Fingerprint("app.py", 3, "boom")

	ok, err := m.Exists(fp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected fingerprint absent in empty log")
	}

	if err := m.Append(Record{File: "app.py", Line: 3, Message: "boom"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ok, err = m.Exists(fp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected fingerprint present after append")
	}
}

func TestFindSimilar_ReturnsAllMatches(t *testing.T) {
	m := newTestMemory(t)

	for i := 0; i < 3; i++ {
		if err := m.Append(Record{File: "app.py", Line: 3, Message: "boom"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := m.Append(Record{File: "other.py", Line: 1, Message: "bang"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := m.FindSimilar(Fingerprint("app.py", 3, "boom"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 similar records, got %d", len(got))
	}
}

func TestFilesByFrequency_OrderAndTies(t *testing.T) {
	m := newTestMemory(t)

	appends := []struct {
		file string
		n    int
	}{
		{"b.py", 2},
		{"a.py", 2},
		{"hot.py", 5},
	}
	for _, a := range appends {
		for i := 0; i < a.n; i++ {
			if err := m.Append(Record{File: a.file, Line: i, Message: "x"}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
	}

	files, err := m.FilesByFrequency()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"hot.py", "a.py", "b.py"}
	if len(files) != len(want) {
		t.Fatalf("expected %d files, got %d", len(want), len(files))
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], files[i])
		}
	}
}

func TestScan_SkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bugmemory.jsonl")
	content := `{"fingerprint":"f1","file":"a.py","message":"ok"}
not json at all
{"fingerprint":"f2","file":"b.py","message":"ok"}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m, err := New(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	records, err := m.All()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected corrupt line skipped, got %d records", len(records))
	}
}

func TestMissingFileIsEmptyLog(t *testing.T) {
	m := newTestMemory(t)

	stats, err := m.StatsByFile()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stats) != 0 {
		t.Errorf("expected empty stats, got %v", stats)
	}
}
