package services

import (
	"context"

	"treasure-hunt-backend/internal/models"
)

type Broadcaster interface {
	BroadcastEvent(event *models.GameEvent)
}

// Recorder journals game events.
type Recorder interface {
	RecordEvent(ctx context.Context, event *models.GameEvent) error
}

// StateStore keeps the latest authoritative snapshot.
type StateStore interface {
	SaveSnapshot(ctx context.Context, snapshot *models.GameSnapshot) error
	LoadSnapshot(ctx context.Context) (*models.GameSnapshot, error)
}
