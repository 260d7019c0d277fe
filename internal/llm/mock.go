package llm

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// MockResponse is one canned reply.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Stop    StopReason
	Err     error
}

// Mock replays canned responses in order and records requests. Once the
// queue is empty it fails with ErrProviderUnavailable.
type Mock struct {
	mu        sync.Mutex
	responses []MockResponse
	calls     []Request
}

// NewMock queues responses.
func NewMock(responses ...MockResponse) *Mock {
	return &Mock{responses: responses}
}

func (m *Mock) Name() string  { return "mock" }
func (m *Mock) Model() string { return "mock" }

func (m *Mock) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	if len(m.responses) == 0 {
		return nil, &APIError{Provider: "mock", Err: errors.New("no canned responses left")}
	}
	r := m.responses[0]
	m.responses = m.responses[1:]
	if r.Err != nil {
		return nil, r.Err
	}
	stop := r.Stop
	if stop == "" {
		stop = StopEnd
	}
	return checkResponse(req, &Response{Content: r.Content, Usage: r.Usage, Model: "mock", StopReason: stop})
}

// Push queues another response.
func (m *Mock) Push(r MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, r)
}

// Calls returns the recorded requests.
func (m *Mock) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.calls...)
}
