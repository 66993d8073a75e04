package activity

import (
	"strings"
	"time"
)

// StateObjectType is the object type carried by every state event.
const StateObjectType = "thermo.state"

// StateEventInput describes the common fields for state lifecycle events.
type StateEventInput struct {
	ActorID        string
	UserID         string
	TenantID       string
	ObjectID       string
	Channel        string
	DefinitionCode string
	Recipients     []string
	Metadata       map[string]any
	Substance      string
	Label          string
	Pair           string
	Phase          string
	OldUnits       string
	NewUnits       string
	Table          string
	SnapshotID     string
	OccurredAt     time.Time
}

// BuildStateFixedEvent constructs the event emitted once a state has been
// resolved by its backend.
func BuildStateFixedEvent(input StateEventInput) Event {
	return buildStateEvent("state.fixed", input)
}

// BuildStateUnitsChangedEvent constructs the event emitted when a state's
// unit-system override changes.
func BuildStateUnitsChangedEvent(input StateEventInput) Event {
	return buildStateEvent("state.units.changed", input)
}

// BuildStatePersistedEvent constructs the event emitted after a state record
// has been saved to a store.
func BuildStatePersistedEvent(input StateEventInput) Event {
	return buildStateEvent("state.persisted", input)
}

func buildStateEvent(verb string, input StateEventInput) Event {
	metadata := cloneMap(input.Metadata)
	set := func(key, value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		metadata = ensureMetadata(metadata)
		metadata[key] = value
	}
	set("substance", input.Substance)
	set("label", input.Label)
	set("pair", input.Pair)
	set("phase", input.Phase)
	set("table", input.Table)
	set("snapshot_id", input.SnapshotID)
	if input.OldUnits != "" || input.NewUnits != "" {
		metadata = ensureMetadata(metadata)
		metadata["old_units"] = input.OldUnits
		metadata["new_units"] = input.NewUnits
	}

	recipients := input.Recipients
	if len(recipients) > 0 {
		recipients = append([]string{}, input.Recipients...)
	}

	objectID := strings.TrimSpace(input.ObjectID)
	if objectID == "" {
		objectID = strings.TrimSpace(input.SnapshotID)
	}
	if objectID == "" {
		objectID = StateObjectType
	}

	return Event{
		Verb:           verb,
		ActorID:        strings.TrimSpace(input.ActorID),
		UserID:         strings.TrimSpace(input.UserID),
		TenantID:       strings.TrimSpace(input.TenantID),
		ObjectType:     StateObjectType,
		ObjectID:       objectID,
		Channel:        strings.TrimSpace(input.Channel),
		DefinitionCode: strings.TrimSpace(input.DefinitionCode),
		Recipients:     recipients,
		Metadata:       metadata,
		OccurredAt:     input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
