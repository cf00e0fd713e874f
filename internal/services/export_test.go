package services

import "time"

func (ge *GameEngine) SetClock(now func() time.Time) {
	ge.mu.Lock()
	defer ge.mu.Unlock()
	ge.now = now
}
