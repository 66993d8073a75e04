// Package activity fans state lifecycle events (fixed, units changed,
// persisted) out to hooks such as the go-users activity sink.
package activity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Event is one state lifecycle occurrence. Identifiers are strings so call
// sites are not tied to a UUID type.
type Event struct {
	Verb           string
	ActorID        string
	UserID         string
	TenantID       string
	ObjectType     string
	ObjectID       string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	OccurredAt     time.Time
}

// Valid reports whether the event names a verb, an object type and an
// object. Hooks never see invalid events.
func (e Event) Valid() bool {
	return e.Verb != "" && e.ObjectType != "" && e.ObjectID != ""
}

// ActivityHook receives normalised events.
type ActivityHook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc adapts a function to ActivityHook.
type HookFunc func(ctx context.Context, event Event) error

// Notify calls fn. A nil HookFunc does nothing.
func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks is an ordered list of hooks notified one after another.
type Hooks []ActivityHook

// Enabled reports whether there is at least one hook.
func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify normalises event once and passes it to every hook in order.
// Invalid events are dropped without error. Every hook runs even when an
// earlier one fails or panics; failures come back joined, each tagged with
// the position of its hook.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}
	normalized := NormalizeEvent(event)
	if !normalized.Valid() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for i, hook := range h {
		if hook == nil {
			continue
		}
		if err := notifyOne(ctx, hook, normalized); err != nil {
			errs = append(errs, fmt.Errorf("activity: hook %d %s: %w", i, normalized.Verb, err))
		}
	}
	return errors.Join(errs...)
}

func notifyOne(ctx context.Context, hook ActivityHook, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return hook.Notify(ctx, event)
}

// NormalizeEvent trims identifiers, copies metadata and recipients, stamps
// a missing OccurredAt with the current UTC time and defaults the object
// type to StateObjectType.
func NormalizeEvent(event Event) Event {
	out := event
	for _, field := range []*string{
		&out.Verb, &out.ActorID, &out.UserID, &out.TenantID,
		&out.ObjectType, &out.ObjectID, &out.Channel, &out.DefinitionCode,
	} {
		*field = strings.TrimSpace(*field)
	}
	if out.ObjectType == "" && out.ObjectID != "" {
		out.ObjectType = StateObjectType
	}
	out.Metadata = cloneMap(event.Metadata)
	out.Recipients = append([]string(nil), event.Recipients...)
	if out.OccurredAt.IsZero() {
		out.OccurredAt = time.Now().UTC()
	}
	return out
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
