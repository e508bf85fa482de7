package oracle

import (
	"context"
	"errors"
	"os"
	"testing"
)

func TestMockSequencing(t *testing.T) {
	m := &Mock{Responses: []string{"first", "second"}}

	for i, want := range []string{"first", "second", "second"} {
		got, err := m.Generate(context.Background(), Request{Prompt: "p", Mode: ModeDeep})
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if got != want {
			t.Errorf("call %d = %q, want %q", i, got, want)
		}
	}
	if len(m.Calls) != 3 {
		t.Errorf("expected 3 recorded calls, got %d", len(m.Calls))
	}
}

func TestMockError(t *testing.T) {
	m := &Mock{Responses: []string{"never"}, Err: errors.New("down")}
	if _, err := m.Generate(context.Background(), Request{}); err == nil {
		t.Error("expected scripted error")
	}
}

func TestNewOpenAIRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	os.Unsetenv("OPENAI_API_KEY")
	if _, err := NewOpenAI(OpenAIConfig{}); err == nil {
		t.Error("expected error when OPENAI_API_KEY is unset")
	}
}

func TestNewOpenAIDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	p, err := NewOpenAI(OpenAIConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.cfg.DeepModel == "" || p.cfg.FastModel == "" {
		t.Errorf("expected default models, got %+v", p.cfg)
	}
	if p.Name() != "openai" {
		t.Errorf("unexpected provider name %q", p.Name())
	}
}
