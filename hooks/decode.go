package hooks

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-user-tracker/pkg/types"
	"github.com/google/uuid"
)

type loginPayload struct {
	ActorID uuid.UUID `json:"actor_id"`
	Roles   []string  `json:"roles"`
}

// Decode builds the typed event for kind from a JSON payload forwarded by the
// host platform. admin_init is produced by the transport itself and cannot be
// ingested.
func Decode(kind Kind, payload []byte) (Event, error) {
	kind = Kind(strings.ToLower(strings.TrimSpace(string(kind))))
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	var (
		event Event
		err   error
	)
	switch kind {
	case KindLogin:
		var body loginPayload
		err = json.Unmarshal(payload, &body)
		event = LoginEvent{Actor: types.ActorRef{ID: body.ActorID, Roles: body.Roles}}
	case KindPostSaved:
		var body PostSavedEvent
		err = json.Unmarshal(payload, &body)
		event = body
	case KindPostDeleting:
		var body PostDeletingEvent
		err = json.Unmarshal(payload, &body)
		event = body
	case KindOptionUpdated:
		var body OptionUpdatedEvent
		err = json.Unmarshal(payload, &body)
		if err == nil && strings.TrimSpace(body.Option) == "" {
			return nil, types.InvalidEvent(nil, "hooks: option_updated requires option name")
		}
		event = body
	case KindUserRegistered:
		var body UserRegisteredEvent
		err = json.Unmarshal(payload, &body)
		event = body
	case KindProfileUpdated:
		var body ProfileUpdatedEvent
		err = json.Unmarshal(payload, &body)
		event = body
	case KindUserDeleted:
		var body UserDeletedEvent
		err = json.Unmarshal(payload, &body)
		event = body
	case KindUpgradeCompleted:
		var body UpgradeCompletedEvent
		err = json.Unmarshal(payload, &body)
		event = body
	default:
		return nil, types.InvalidEvent(nil, fmt.Sprintf("hooks: unsupported event kind %q", kind))
	}
	if err != nil {
		return nil, types.InvalidEvent(err, fmt.Sprintf("hooks: invalid %s payload", kind))
	}
	return event, nil
}
