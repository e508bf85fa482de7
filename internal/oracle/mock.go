package oracle

import "context"

// Mock is a scripted Provider for tests. Responses are returned in order;
// when exhausted, the last response repeats. A non-nil Err is returned for
// every call instead.
type Mock struct {
	Responses []string
	Err       error
	Calls     []Request
}

func (m *Mock) Name() string { return "mock" }

func (m *Mock) Generate(_ context.Context, req Request) (string, error) {
	m.Calls = append(m.Calls, req)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", nil
	}
	idx := len(m.Calls) - 1
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	return m.Responses[idx], nil
}
