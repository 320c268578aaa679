package orders

import (
	"context"
	"sync"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (f *fakePublisher) PublishJSON(ctx context.Context, payload any, attributes map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, payload.(Event))
	return nil
}
