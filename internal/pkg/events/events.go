package events

import (
	"context"
	"sync"
	"time"
)

// Routing keys for report lifecycle events.
const (
	ReportCreated       = "report.created"
	ReportStatusChanged = "report.status_changed"
	ReportDeleted       = "report.deleted"
	ReportSynced        = "report.synced"
)

// Event is the JSON body of every lifecycle message.
type Event struct {
	Type      string      `json:"type"`
	ReportID  string      `json:"reportId"`
	Mode      string      `json:"mode,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Publisher emits report lifecycle events. Publishing is best-effort:
// callers log failures and carry on.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event Event) error
	Close() error
}

// Noop discards events. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, Event) error { return nil }
func (Noop) Close() error                                 { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	keys   []string
}

func (r *Recorder) Publish(_ context.Context, routingKey string, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, routingKey)
	r.events = append(r.events, event)
	return nil
}

// Keys returns the routing keys published so far, in order.
func (r *Recorder) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.keys...)
}

// Events returns the events published so far, in order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *Recorder) Close() error { return nil }
