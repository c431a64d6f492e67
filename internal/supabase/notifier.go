package supabase

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"
)

// Notifier publishes look lifecycle events to per-user channels. Clients that
// need durability confirmation subscribe here instead of awaiting the save
// call, which resolves at the optimistic-insert point.
type Notifier struct {
	client *supabase.Client
}

func NewNotifier(client *supabase.Client) *Notifier {
	return &Notifier{
		client: client,
	}
}

func (n *Notifier) PublishEvent(channel string, event string, payload map[string]interface{}) error {
	// The Supabase Go client has no direct Realtime publish; row changes on
	// the looks table trigger Realtime automatically. This hook exists for
	// explicit events via the Realtime REST API if that path is enabled.
	return nil
}

func (n *Notifier) PublishUserEvent(userID uuid.UUID, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("user:%s", userID.String())
	return n.PublishEvent(channel, event, payload)
}

// Event payloads
func LookSavedPayload(lookID string) map[string]interface{} {
	return map[string]interface{}{
		"look_id": lookID,
		"status":  "synced",
	}
}

func LookSaveFailedPayload(tempID, errorMsg string) map[string]interface{} {
	return map[string]interface{}{
		"look_id": tempID,
		"status":  "error",
		"error":   errorMsg,
	}
}

func LookDeletedPayload(lookID string) map[string]interface{} {
	return map[string]interface{}{
		"look_id": lookID,
		"status":  "deleted",
	}
}
