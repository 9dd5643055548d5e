package services

import (
	"context"
	"strconv"

	"github.com/clmates/wesnoth-tournament-manager-sub001/brackets"
)

// WebSocketNotifier pushes engine events into the per-tournament
// websocket rooms.
type WebSocketNotifier struct {
	hub *brackets.Hub
}

func NewWebSocketNotifier(hub *brackets.Hub) *WebSocketNotifier {
	return &WebSocketNotifier{hub: hub}
}

func (n *WebSocketNotifier) Notify(ctx context.Context, event Event) {
	room := n.roomFor(event)
	if room == "" {
		return
	}

	payload := map[string]interface{}{}
	if event.Match != nil {
		payload["match"] = event.Match
	}
	if event.Series != nil {
		payload["series"] = event.Series
	}
	if event.Round != nil {
		payload["round"] = event.Round
	}
	if event.WinnerID != 0 {
		payload["winner_id"] = event.WinnerID
	}

	n.hub.BroadcastToRoom(room, brackets.WebSocketMessage{
		Type:    string(event.Type),
		Payload: payload,
		RoomID:  room,
	})
}

func (n *WebSocketNotifier) roomFor(event Event) string {
	id := event.TournamentID
	if id == 0 && event.Match != nil && event.Match.TournamentID != nil {
		id = *event.Match.TournamentID
	}
	if id == 0 {
		return ""
	}
	return "tournament:" + strconv.Itoa(id)
}

var _ EventSubscriber = (*WebSocketNotifier)(nil)
