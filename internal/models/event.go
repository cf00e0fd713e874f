package models

import (
	"time"

	"treasure-hunt-backend/internal/grid"
	"treasure-hunt-backend/internal/oracle"
)

type EventType string

const (
	EventParticipated      EventType = "participated"
	EventPlayerMoved       EventType = "player_moved"
	EventTreasureRequested EventType = "treasure_requested"
	EventTreasureMoved     EventType = "treasure_moved"
	EventRequestExpired    EventType = "request_expired"
	EventRequestCancelled  EventType = "request_cancelled"
	EventPrizePaid         EventType = "prize_paid"
)

// GameEvent is one state change, as journaled and broadcast to clients.
type GameEvent struct {
	ID        string           `json:"id"`
	Type      EventType        `json:"type"`
	Account   string           `json:"account,omitempty"`
	From      *grid.Position   `json:"from,omitempty"`
	To        *grid.Position   `json:"to,omitempty"`
	Amount    int64            `json:"amount,omitempty"`
	RequestID oracle.RequestID `json:"request_id,omitempty"`
	Kind      MoveKind         `json:"kind,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

func NewGameEvent(eventType EventType) *GameEvent {
	return &GameEvent{
		ID:        GenerateEventID(),
		Type:      eventType,
		CreatedAt: time.Now(),
	}
}

func (e *GameEvent) WithMove(from, to grid.Position) *GameEvent {
	e.From = &from
	e.To = &to
	return e
}
