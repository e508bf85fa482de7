package plan

import "testing"

func TestExtractJSONBlock_Plain(t *testing.T) {
	raw := `{"goal": "fix"}`
	if got := ExtractJSONBlock(raw); got != raw {
		t.Errorf("expected %q, got %q", raw, got)
	}
}

func TestExtractJSONBlock_MarkdownFence(t *testing.T) {
	raw := "Here is the plan:\n```json\n{\"goal\": \"fix\"}\n```\nDone."
	if got := ExtractJSONBlock(raw); got != `{"goal": "fix"}` {
		t.Errorf("unexpected extraction: %q", got)
	}
}

func TestExtractJSONBlock_LeadingProse(t *testing.T) {
	raw := `Sure! The plan is {"steps": [{"id": "s1"}]} as requested.`
	if got := ExtractJSONBlock(raw); got != `{"steps": [{"id": "s1"}]}` {
		t.Errorf("unexpected extraction: %q", got)
	}
}

func TestExtractJSONBlock_BracesInsideStrings(t *testing.T) {
	raw := `{"msg": "use {curly} braces", "n": 1}`
	if got := ExtractJSONBlock(raw); got != raw {
		t.Errorf("unexpected extraction: %q", got)
	}
}

func TestExtractJSONBlock_EscapedQuotes(t *testing.T) {
	raw := `{"msg": "she said \"hi\" {"}`
	if got := ExtractJSONBlock(raw); got != raw {
		t.Errorf("unexpected extraction: %q", got)
	}
}

func TestExtractJSONBlock_Array(t *testing.T) {
	raw := `[{"id": "s1"}, {"id": "s2"}]`
	if got := ExtractJSONBlock(raw); got != raw {
		t.Errorf("unexpected extraction: %q", got)
	}
}

func TestExtractJSONBlock_NoJSON(t *testing.T) {
	if got := ExtractJSONBlock("no structured content here"); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestExtractJSONBlock_Unbalanced(t *testing.T) {
	if got := ExtractJSONBlock(`{"goal": "fix"`); got != "" {
		t.Errorf("expected empty string for unbalanced input, got %q", got)
	}
}
