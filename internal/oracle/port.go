// Package oracle defines the randomness request/fulfilment boundary and the
// implementations the game ships with.
//
// A request returns immediately with an identifier; the random words arrive
// later through Consumer.OnRandomDelivered, at most once per identifier.
package oracle

import (
	"context"
	"errors"
)

type RequestID uint64

// Port issues randomness requests. ID names the source that will deliver them.
type Port interface {
	ID() string
	RequestRandom(ctx context.Context) (RequestID, error)
}

// Resumer is implemented by ports whose ids must keep increasing across
// restarts. Resume makes every later id greater than last.
type Resumer interface {
	Resume(last RequestID)
}

// Consumer receives fulfilled requests.
type Consumer interface {
	OnRandomDelivered(ctx context.Context, source string, id RequestID, values []uint64) error
}

var ErrNoConsumer = errors.New("oracle has no subscribed consumer")
