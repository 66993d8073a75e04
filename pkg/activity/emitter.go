package activity

import (
	"context"
	"strings"
)

// DefaultChannel is stamped on events that do not name a channel.
const DefaultChannel = "thermo"

// Config controls an Emitter.
type Config struct {
	Enabled bool
	// Channel replaces DefaultChannel.
	Channel string
	// Verbs, when set, limits emission to the listed verbs.
	Verbs []string
}

// Emitter sends events to hooks after applying the configured channel and
// verb filter. A nil Emitter is disabled.
type Emitter struct {
	hooks   Hooks
	channel string
	verbs   map[string]struct{}
}

// NewEmitter builds an emitter. It is disabled when cfg.Enabled is false or
// no non-nil hook remains.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	var kept Hooks
	for _, hook := range hooks {
		if hook != nil {
			kept = append(kept, hook)
		}
	}
	if !cfg.Enabled || len(kept) == 0 {
		return nil
	}
	e := &Emitter{hooks: kept, channel: strings.TrimSpace(cfg.Channel)}
	if e.channel == "" {
		e.channel = DefaultChannel
	}
	for _, verb := range cfg.Verbs {
		if verb = strings.TrimSpace(verb); verb != "" {
			if e.verbs == nil {
				e.verbs = make(map[string]struct{})
			}
			e.verbs[verb] = struct{}{}
		}
	}
	return e
}

// Enabled reports whether Emit reaches any hook.
func (e *Emitter) Enabled() bool {
	return e != nil
}

// Emit notifies the hooks unless the emitter is disabled or filters out the
// event's verb.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if e.verbs != nil {
		if _, ok := e.verbs[strings.TrimSpace(event.Verb)]; !ok {
			return nil
		}
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	return e.hooks.Notify(ctx, event)
}
