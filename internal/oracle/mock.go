package oracle

import (
	"context"
	"sync"
)

// Mock answers nothing on its own; tests call Fulfill to deliver values for a
// request, the way a VRF coordinator mock is driven in contract tests.
type Mock struct {
	id string

	mu       sync.Mutex
	next     RequestID
	requests []RequestID
	consumer Consumer
	err      error
}

func NewMock(id string) *Mock {
	return &Mock{id: id}
}

func (m *Mock) ID() string {
	return m.id
}

func (m *Mock) Subscribe(consumer Consumer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consumer = consumer
}

// FailWith makes subsequent requests fail with err. Pass nil to reset.
func (m *Mock) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *Mock) RequestRandom(ctx context.Context) (RequestID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return 0, m.err
	}

	m.next++
	m.requests = append(m.requests, m.next)
	return m.next, nil
}

func (m *Mock) Resume(last RequestID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if last > m.next {
		m.next = last
	}
}

// LastRequest returns the most recently issued id, or 0.
func (m *Mock) LastRequest() RequestID {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return 0
	}
	return m.requests[len(m.requests)-1]
}

func (m *Mock) Requests() []RequestID {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RequestID, len(m.requests))
	copy(out, m.requests)
	return out
}

// Fulfill delivers values for id as this oracle.
func (m *Mock) Fulfill(ctx context.Context, id RequestID, values ...uint64) error {
	m.mu.Lock()
	consumer := m.consumer
	m.mu.Unlock()

	if consumer == nil {
		return ErrNoConsumer
	}
	return consumer.OnRandomDelivered(ctx, m.id, id, values)
}
