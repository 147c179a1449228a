package analyze

import (
	"context"
	"sync"
)

// Mock is a Capability for tests. Categories answer with canned results;
// unprepared categories succeed with a minimal payload so engine tests
// do not have to stub every category.
type Mock struct {
	mu sync.Mutex

	// Results maps category to the canned result.
	Results map[string]Result

	// Calls records the categories analyzed, in order.
	Calls []string
}

// NewMock creates an empty mock capability.
func NewMock() *Mock {
	return &Mock{Results: make(map[string]Result)}
}

// Fail makes a category answer with a failed result.
func (m *Mock) Fail(category, errMsg string) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Results[category] = Result{Err: errMsg}
	return m
}

// Respond makes a category answer with the given payload.
func (m *Mock) Respond(category string, data map[string]any) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Results[category] = Result{Success: true, Data: data}
	return m
}

// Analyze implements Capability.
func (m *Mock) Analyze(_ context.Context, category string, _ Bundle) Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, category)

	if r, ok := m.Results[category]; ok {
		return r
	}
	return Result{
		Success: true,
		Data:    map[string]any{"category": category, "mocked": true},
	}
}

// Called reports how many times a category was analyzed.
func (m *Mock) Called(category string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, c := range m.Calls {
		if c == category {
			n++
		}
	}
	return n
}
