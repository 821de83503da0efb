package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Strob0t/RescueDesk/internal/port/broadcast"
)

var _ broadcast.Broadcaster = (*Hub)(nil)

// BroadcastEvent marshals a typed plan event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(context.WithoutCancel(ctx), Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
