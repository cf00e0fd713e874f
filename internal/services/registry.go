package services

import (
	"fmt"
	"time"

	"treasure-hunt-backend/internal/grid"
	"treasure-hunt-backend/internal/models"
)

// PlayerRegistry tracks participants and their cells. It is not safe for
// concurrent use; GameEngine serializes access.
type PlayerRegistry struct {
	players map[string]*models.Player
	order   []string
}

func NewPlayerRegistry() *PlayerRegistry {
	return &PlayerRegistry{
		players: make(map[string]*models.Player),
	}
}

// Add enrols account at pos. Callers check IsParticipant first.
func (r *PlayerRegistry) Add(account string, pos grid.Position, feePaid int64, joinedAt time.Time) models.Player {
	player := &models.Player{
		Account:       account,
		Participating: true,
		Position:      pos,
		FeePaid:       feePaid,
		JoinedAt:      joinedAt,
	}
	r.players[account] = player
	r.order = append(r.order, account)
	return *player
}

func (r *PlayerRegistry) IsParticipant(account string) bool {
	player, ok := r.players[account]
	return ok && player.Participating
}

func (r *PlayerRegistry) Get(account string) (models.Player, error) {
	player, ok := r.players[account]
	if !ok || !player.Participating {
		return models.Player{}, ErrNotParticipating
	}
	return *player, nil
}

func (r *PlayerRegistry) PositionOf(account string) (grid.Position, error) {
	player, err := r.Get(account)
	if err != nil {
		return 0, err
	}
	return player.Position, nil
}

// Move steps account one cell and returns the cells it moved between.
func (r *PlayerRegistry) Move(account string, dir grid.Direction) (from, to grid.Position, err error) {
	player, ok := r.players[account]
	if !ok || !player.Participating {
		return 0, 0, ErrNotParticipating
	}
	if !dir.Valid() {
		return 0, 0, fmt.Errorf("%w: %d", ErrInvalidDirection, dir)
	}

	from = player.Position
	player.Position = grid.Step(from, dir)
	player.Moves++
	return from, player.Position, nil
}

// At returns the participants standing on pos in join order.
func (r *PlayerRegistry) At(pos grid.Position) []string {
	var accounts []string
	for _, account := range r.order {
		if player := r.players[account]; player.Participating && player.Position == pos {
			accounts = append(accounts, account)
		}
	}
	return accounts
}

func (r *PlayerRegistry) Count() int {
	return len(r.order)
}

func (r *PlayerRegistry) List() []models.Player {
	players := make([]models.Player, 0, len(r.order))
	for _, account := range r.order {
		players = append(players, *r.players[account])
	}
	return players
}

// Restore replaces the registry contents.
func (r *PlayerRegistry) Restore(players []models.Player) error {
	restored := make(map[string]*models.Player, len(players))
	order := make([]string, 0, len(players))

	for i := range players {
		player := players[i]
		if player.Account == "" {
			return fmt.Errorf("%w: player %d has no account", ErrInvalidSnapshot, i)
		}
		if !grid.Valid(player.Position) {
			return fmt.Errorf("%w: player %s at cell %d", ErrInvalidSnapshot, player.Account, player.Position)
		}
		if _, dup := restored[player.Account]; dup {
			return fmt.Errorf("%w: duplicate player %s", ErrInvalidSnapshot, player.Account)
		}
		restored[player.Account] = &player
		order = append(order, player.Account)
	}

	r.players = restored
	r.order = order
	return nil
}
