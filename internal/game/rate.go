package game

import "time"

// RateGuard is a fixed sliding window limiter for high-frequency,
// low-stakes interactions. It is per-session state, not global: each
// session carries its own window.
type RateGuard struct {
	WindowStart time.Time `json:"window_start"`
	Count       int       `json:"count"`
}

// Allow records an interaction attempt at time now. It returns true and
// counts the interaction when fewer than limit interactions happened in
// the current window; otherwise it returns false and the caller must
// not mutate game state.
func (g *RateGuard) Allow(now time.Time, limit int, window time.Duration) bool {
	if now.Sub(g.WindowStart) > window {
		g.WindowStart = now
		g.Count = 0
	}
	if g.Count >= limit {
		return false
	}
	g.Count++
	return true
}
