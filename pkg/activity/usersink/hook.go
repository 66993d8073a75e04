// Package usersink forwards thermo state activity to a go-users ActivitySink.
package usersink

import (
	"context"
	"strings"

	"github.com/goliatone/go-thermo/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// DefaultChannel is applied to records whose event has no channel.
const DefaultChannel = activity.DefaultChannel

// Hook adapts state events to a go-users ActivitySink.
type Hook struct {
	Sink usertypes.ActivitySink
	// Tenant is used when the event carries no parseable tenant ID.
	Tenant uuid.UUID
	// Channel overrides DefaultChannel for events without a channel.
	Channel string
}

// Notify maps the event into an ActivityRecord and forwards it to the sink.
// State metadata (substance, pair, phase, units) is copied into Data.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}

	normalized := activity.NormalizeEvent(event)
	if !normalized.Valid() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	record := usertypes.ActivityRecord{
		ActorID:    parseUUID(normalized.ActorID),
		UserID:     parseUUID(normalized.UserID),
		TenantID:   parseUUID(normalized.TenantID),
		Verb:       normalized.Verb,
		ObjectType: normalized.ObjectType,
		ObjectID:   normalized.ObjectID,
		Channel:    h.channel(normalized.Channel),
		Data:       cloneMap(normalized.Metadata),
		OccurredAt: normalized.OccurredAt,
	}
	if record.TenantID == uuid.Nil {
		record.TenantID = h.Tenant
	}
	if normalized.DefinitionCode != "" {
		record.Data = ensureData(record.Data)
		record.Data["definition_code"] = normalized.DefinitionCode
	}
	if len(normalized.Recipients) > 0 {
		record.Data = ensureData(record.Data)
		record.Data["recipients"] = append([]string{}, normalized.Recipients...)
	}

	return h.Sink.Log(ctx, record)
}

func (h Hook) channel(eventChannel string) string {
	if eventChannel != "" {
		return eventChannel
	}
	if channel := strings.TrimSpace(h.Channel); channel != "" {
		return channel
	}
	return DefaultChannel
}

func parseUUID(input string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func ensureData(data map[string]any) map[string]any {
	if data == nil {
		return map[string]any{}
	}
	return data
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
