package services

import (
	"fmt"
	"time"

	"treasure-hunt-backend/internal/grid"
	"treasure-hunt-backend/internal/models"
	"treasure-hunt-backend/internal/oracle"
)

// TreasureState is the treasure's cell plus the single in-flight move.
//
//	IDLE --Begin--> REQUESTED --Resolve(matching id)--> IDLE
//	REQUESTED --Clear--> IDLE
type TreasureState struct {
	position grid.Position
	pending  *models.PendingMove
}

func NewTreasureState(pos grid.Position) *TreasureState {
	return &TreasureState{position: pos}
}

func (t *TreasureState) Position() grid.Position {
	return t.position
}

func (t *TreasureState) Pending() (models.PendingMove, bool) {
	if t.pending == nil {
		return models.PendingMove{}, false
	}
	return *t.pending, true
}

func (t *TreasureState) Begin(id oracle.RequestID, kind models.MoveKind, at time.Time) error {
	if t.pending != nil {
		return fmt.Errorf("%w: request %d", ErrMoveAlreadyPending, t.pending.RequestID)
	}
	t.pending = &models.PendingMove{
		RequestID:   id,
		Kind:        kind,
		RequestedAt: at,
	}
	return nil
}

// Matches reports whether id is the pending request.
func (t *TreasureState) Matches(id oracle.RequestID) bool {
	return t.pending != nil && t.pending.RequestID == id
}

// Resolve applies the pending move using the raw random word v.
// Adjacent moves ignore v and step forward, wrapping 99 to 0.
func (t *TreasureState) Resolve(id oracle.RequestID, v uint64) (from, to grid.Position, kind models.MoveKind, err error) {
	if !t.Matches(id) {
		return 0, 0, "", fmt.Errorf("%w: %d", ErrUnknownRequest, id)
	}

	from = t.position
	kind = t.pending.Kind

	switch kind {
	case models.MoveKindAdjacent:
		t.position = grid.Successor(from)
	case models.MoveKindRandom:
		t.position = grid.Normalize(v)
	default:
		return 0, 0, "", fmt.Errorf("unsupported move kind: %s", kind)
	}

	t.pending = nil
	return from, t.position, kind, nil
}

func (t *TreasureState) Clear() (models.PendingMove, bool) {
	pending, ok := t.Pending()
	t.pending = nil
	return pending, ok
}

// KindFor picks the generic movement rule: prime cells step to the adjacent
// cell, every other cell relocates randomly.
func KindFor(pos grid.Position) models.MoveKind {
	if grid.IsPrime(pos) {
		return models.MoveKindAdjacent
	}
	return models.MoveKindRandom
}

func (t *TreasureState) restore(pos grid.Position, pending *models.PendingMove) error {
	if !grid.Valid(pos) {
		return fmt.Errorf("%w: treasure at cell %d", ErrInvalidSnapshot, pos)
	}
	t.position = pos
	t.pending = nil
	if pending != nil {
		copied := *pending
		t.pending = &copied
	}
	return nil
}
