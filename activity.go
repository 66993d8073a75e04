package thermo

import (
	"context"

	"github.com/goliatone/go-thermo/pkg/activity"
)

// WithActivityHooks attaches activity hooks notified when the state is fixed
// and when its unit system changes. Nil entries are dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *stateConfig) {
		cfg.activityHooks = normalized
	}
}

// ActivityHooks returns a copy of the hooks configured on the state.
func (s *State) ActivityHooks() activity.Hooks {
	if s == nil {
		return nil
	}
	return cloneActivityHooks(s.hooks)
}

// emit notifies the hooks. Hook failures never fail the state operation;
// they are reported to the logger instead.
func (s *State) emit(ctx context.Context, event activity.Event) {
	if !s.hooks.Enabled() {
		return
	}
	if err := s.hooks.Notify(ctx, event); err != nil {
		s.logger.Log(LogEvent{
			Op:        "activity." + event.Verb,
			Substance: s.substance,
			Label:     s.label,
			Pair:      s.pair.Pair().String(),
			Err:       err,
		})
	}
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}
