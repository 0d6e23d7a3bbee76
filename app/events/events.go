// Package events publishes todo lifecycle notifications.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type Type string

const (
	TodoCreated  Type = "todo.created"
	TodoUpdated  Type = "todo.updated"
	TodoDetached Type = "todo.detached"
	TodoDeleted  Type = "todo.deleted"
)

// Event describes a committed change to a todo.
type Event struct {
	Type       Type      `json:"type"`
	ID         string    `json:"id"`
	ParentID   *string   `json:"parentId,omitempty"`
	Cascade    bool      `json:"cascade,omitempty"`
	ChildCount int       `json:"childCount,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

func (e Event) Serialize() ([]byte, error) {
	return json.Marshal(e)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types returns the type of every published event in order.
func (r *Recorder) Types() []Type {
	events := r.Events()
	out := make([]Type, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}
