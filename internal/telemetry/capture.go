package telemetry

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
)

// CaptureTransport is a sentry.Transport that keeps events in memory so
// tests can inspect what would be reported.
type CaptureTransport struct {
	mu     sync.Mutex
	events []*sentry.Event
}

// Configure implements sentry.Transport.
//
//nolint:gocritic // hugeParam: signature fixed by the interface
func (c *CaptureTransport) Configure(sentry.ClientOptions) {}

// SendEvent implements sentry.Transport.
func (c *CaptureTransport) SendEvent(event *sentry.Event) {
	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()
}

// Flush implements sentry.Transport.
func (c *CaptureTransport) Flush(time.Duration) bool { return true }

// FlushWithContext implements sentry.Transport.
func (c *CaptureTransport) FlushWithContext(ctx context.Context) bool { return ctx.Err() == nil }

// Close implements sentry.Transport.
func (c *CaptureTransport) Close() {}

// Events returns the captured events, oldest first.
func (c *CaptureTransport) Events() []*sentry.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.events)
}

// Last returns the newest event, or nil.
func (c *CaptureTransport) Last() *sentry.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.events) == 0 {
		return nil
	}
	return c.events[len(c.events)-1]
}

// ByComponent returns the events tagged with the given registry component,
// such as "migration" or "linker".
func (c *CaptureTransport) ByComponent(component string) []*sentry.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*sentry.Event
	for _, e := range c.events {
		if e.Tags["component"] == component {
			out = append(out, e)
		}
	}
	return out
}
