package services

import "github.com/beachcomp/tournament-engine/events"

// Notifier publishes a typed event to the subscribers of one tournament.
// *events.Hub satisfies it; tests use a recording stub.
type Notifier interface {
	BroadcastToRoom(roomID string, event events.Event)
}

func notify(n Notifier, tournamentID int, eventType events.EventType, payload interface{}) {
	if n == nil {
		return
	}
	n.BroadcastToRoom(events.TournamentRoom(tournamentID), events.Event{
		Type:    eventType,
		Payload: payload,
	})
}
