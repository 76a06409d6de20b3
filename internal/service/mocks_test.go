package service

import (
	"context"
	"sync"

	"github.com/spec-kit/assistencia-service/internal/domain"
	"github.com/spec-kit/assistencia-service/internal/events"
	"github.com/spec-kit/assistencia-service/internal/repository"
)

type mockRecorder struct {
	recordFunc func(ctx context.Context, repo repository.MovementRepository, operation string, movement domain.Movement) (*domain.Movement, error)
}

func (m *mockRecorder) Record(ctx context.Context, repo repository.MovementRepository, operation string, movement domain.Movement) (*domain.Movement, error) {
	return m.recordFunc(ctx, repo, operation, movement)
}

type mockLocker struct {
	acquireFunc func(ctx context.Context, itemID string) (func(), error)
}

func (m *mockLocker) Acquire(ctx context.Context, itemID string) (func(), error) {
	return m.acquireFunc(ctx, itemID)
}

type mockSink struct {
	mu     sync.Mutex
	sent   []events.Event
	sendFn func(ctx context.Context, event events.Event) error
}

func (m *mockSink) Send(ctx context.Context, event events.Event) error {
	m.mu.Lock()
	m.sent = append(m.sent, event)
	m.mu.Unlock()
	if m.sendFn != nil {
		return m.sendFn(ctx, event)
	}
	return nil
}

func (m *mockSink) types() []events.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]events.EventType, 0, len(m.sent))
	for _, e := range m.sent {
		out = append(out, e.Type)
	}
	return out
}
