// Package slider implements a single-player 2048-style sliding puzzle
// controlled with arrow reactions on the game message. Finished games
// are recorded on the scoreboard; running games survive restarts.
package slider

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"chat-game-bot/internal/game"
)

// Kind is the registry kind and snapshot filename prefix.
const Kind = "slider"

const (
	size    = 4
	winTile = 2048
)

const (
	left  = "⬅️"
	up    = "⬆️"
	down  = "⬇️"
	right = "➡️"
)

var arrows = []string{left, up, down, right}

// Game is a 4x4 sliding puzzle board. Tiles hold their face value;
// zero is an empty cell.
type Game struct {
	game.ChannelBase
	Board     [size * size]int `json:"board"`
	Points    int              `json:"score"`
	MoveCount int              `json:"turns"`
}

// New starts a board with two seeded tiles for the given owner.
func New(chatID, ownerID int64, deps *game.Deps) *Game {
	g := &Game{ChannelBase: game.NewChannelBase(chatID, []int64{ownerID}, deps)}
	g.spawn()
	g.spawn()
	return g
}

func (g *Game) Name() string          { return "Slider" }
func (g *Game) Kind() string          { return Kind }
func (g *Game) Expiry() time.Duration { return 24 * time.Hour }
func (g *Game) Score() int            { return g.Points }
func (g *Game) Turns() int            { return g.MoveCount }

// PostDeserialize reattaches runtime collaborators after a snapshot
// reload.
func (g *Game) PostDeserialize(deps *game.Deps) { g.AttachDeps(deps) }

// Symbols lists the arrow reactions in display order.
func (g *Game) Symbols() []string { return arrows }

// IsReaction accepts the four arrows from the board's owner.
func (g *Game) IsReaction(symbol string, userID int64) bool {
	if userID != g.UserIDs[0] {
		return false
	}
	for _, a := range arrows {
		if a == symbol {
			return true
		}
	}
	return false
}

// Reaction applies one arrow move. A move that shifts nothing is
// ignored; otherwise a new tile spawns and the board is checked for a
// win or a dead end.
func (g *Game) Reaction(symbol string, userID int64) {
	if g.State() != game.StateActive {
		return
	}

	var dx, dy int
	switch symbol {
	case left:
		dx = -1
	case right:
		dx = 1
	case up:
		dy = -1
	case down:
		dy = 1
	default:
		return
	}

	if !g.shift(dx, dy) {
		return
	}
	g.MoveCount++
	g.Touch()
	g.spawn()

	for _, v := range g.Board {
		if v >= winTile {
			g.SetState(game.StateWon)
			return
		}
	}
	if !g.movable() {
		g.SetState(game.StateLost)
	}
}

// shift slides and merges every tile toward (dx, dy) and reports
// whether any tile moved. Each tile merges at most once per move.
func (g *Game) shift(dx, dy int) bool {
	moved := false
	merged := [size * size]bool{}

	// Process tiles nearest the destination edge first.
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			x, y := j, i
			if dx > 0 {
				x = size - 1 - x
			}
			if dy > 0 {
				y = size - 1 - y
			}

			v := g.at(x, y)
			if v == 0 {
				continue
			}

			nx, ny := x, y
			for {
				tx, ty := nx+dx, ny+dy
				if tx < 0 || tx >= size || ty < 0 || ty >= size {
					break
				}
				t := g.at(tx, ty)
				if t == 0 {
					nx, ny = tx, ty
					continue
				}
				if t == v && !merged[ty*size+tx] {
					nx, ny = tx, ty
				}
				break
			}
			if nx == x && ny == y {
				continue
			}

			g.set(x, y, 0)
			if g.at(nx, ny) == v {
				g.set(nx, ny, v*2)
				g.Points += v * 2
				merged[ny*size+nx] = true
			} else {
				g.set(nx, ny, v)
			}
			moved = true
		}
	}
	return moved
}

func (g *Game) at(x, y int) int     { return g.Board[y*size+x] }
func (g *Game) set(x, y, v int)     { g.Board[y*size+x] = v }

// spawn places a 2 (or occasionally a 4) on a random empty cell.
func (g *Game) spawn() {
	free := make([]int, 0, size*size)
	for i, v := range g.Board {
		if v == 0 {
			free = append(free, i)
		}
	}
	if len(free) == 0 {
		return
	}
	v := 2
	if rand.Intn(10) == 0 {
		v = 4
	}
	g.Board[free[rand.Intn(len(free))]] = v
}

// movable reports whether any arrow still has an effect.
func (g *Game) movable() bool {
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := g.at(x, y)
			if v == 0 {
				return true
			}
			if x+1 < size && g.at(x+1, y) == v {
				return true
			}
			if y+1 < size && g.at(x, y+1) == v {
				return true
			}
		}
	}
	return false
}

// Render draws the board and score as plain text.
func (g *Game) Render() string {
	var b strings.Builder
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if v := g.at(x, y); v == 0 {
				b.WriteString("   · ")
			} else {
				fmt.Fprintf(&b, "%4d ", v)
			}
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "Score: %d", g.Points)
	switch g.State() {
	case game.StateWon:
		b.WriteString(" — 2048! You win!")
	case game.StateLost:
		b.WriteString(" — no moves left.")
	case game.StateExpired:
		b.WriteString(" — game expired.")
	case game.StateCancelled:
		b.WriteString(" — game cancelled.")
	}
	return b.String()
}
