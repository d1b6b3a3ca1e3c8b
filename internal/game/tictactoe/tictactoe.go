// Package tictactoe implements a channel-scoped tic-tac-toe game played
// through plain chat messages. Either participant slot may be the bot,
// in which case the turn engine plays its moves.
package tictactoe

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"chat-game-bot/internal/game"
)

// Kind is the registry and display kind for tic-tac-toe sessions.
const Kind = "ttt"

// lines enumerates every winning triple of board cells.
var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

var marks = map[game.Player]string{
	game.PlayerFirst:  "❌",
	game.PlayerSecond: "⭕",
	game.PlayerNone:   "▫️",
}

// Game is a 3x3 tic-tac-toe board. Cells are addressed 1-9, row-major.
type Game struct {
	game.ChannelBase
	Board  [9]game.Player `json:"board"`
	Turn   game.Player    `json:"turn"`
	Winner game.Player    `json:"winner"`
	Moves  int            `json:"moves"`
}

// New starts a game between two participants in a chat. Participant
// order is the turn order; a participant equal to the bot id plays
// automatically.
func New(chatID int64, first, second int64, deps *game.Deps) *Game {
	g := &Game{
		ChannelBase: game.NewChannelBase(chatID, []int64{first, second}, deps),
		Turn:        game.PlayerFirst,
		Winner:      game.PlayerNone,
	}
	for i := range g.Board {
		g.Board[i] = game.PlayerNone
	}
	return g
}

func (g *Game) Name() string          { return "Tic-Tac-Toe" }
func (g *Game) Kind() string          { return Kind }
func (g *Game) Expiry() time.Duration { return time.Hour }

// IsInput accepts a single cell number 1-9 sent by the participant whose
// turn it is.
func (g *Game) IsInput(text string, authorID int64) bool {
	cell, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || cell < 1 || cell > 9 {
		return false
	}
	return authorID == g.UserIDs[g.Turn]
}

// Input applies a move accepted by IsInput. Moves into occupied cells
// are ignored.
func (g *Game) Input(text string, authorID int64) {
	cell, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return
	}
	g.place(cell - 1)
}

// BotTurn reports whether the current turn belongs to the bot.
func (g *Game) BotTurn() bool {
	return g.State() == game.StateActive && g.UserIDs[g.Turn] == g.BotID()
}

// BotInput plays one bot move: win if possible, block if necessary,
// otherwise a random free cell. It always flips the turn or ends the
// game.
func (g *Game) BotInput() {
	if cell := g.findLine(g.Turn); cell >= 0 {
		g.place(cell)
		return
	}
	if cell := g.findLine(g.other(g.Turn)); cell >= 0 {
		g.place(cell)
		return
	}
	free := make([]int, 0, 9)
	for i, p := range g.Board {
		if p == game.PlayerNone {
			free = append(free, i)
		}
	}
	if len(free) == 0 {
		g.SetState(game.StateWon)
		g.Winner = game.PlayerTie
		return
	}
	g.place(free[rand.Intn(len(free))])
}

// place writes the current player's mark into a free cell and advances
// the game state.
func (g *Game) place(cell int) {
	if cell < 0 || cell > 8 || g.Board[cell] != game.PlayerNone || g.State() != game.StateActive {
		return
	}
	g.Board[cell] = g.Turn
	g.Moves++
	g.Touch()

	if g.won(g.Turn) {
		g.Winner = g.Turn
		g.SetState(game.StateWon)
		return
	}
	if g.Moves == 9 {
		g.Winner = game.PlayerTie
		g.SetState(game.StateWon)
		return
	}
	g.Turn = g.other(g.Turn)
}

func (g *Game) other(p game.Player) game.Player {
	if p == game.PlayerFirst {
		return game.PlayerSecond
	}
	return game.PlayerFirst
}

func (g *Game) won(p game.Player) bool {
	for _, l := range lines {
		if g.Board[l[0]] == p && g.Board[l[1]] == p && g.Board[l[2]] == p {
			return true
		}
	}
	return false
}

// findLine returns a free cell that completes a line for p, or -1.
func (g *Game) findLine(p game.Player) int {
	for _, l := range lines {
		var free, count = -1, 0
		for _, c := range l {
			switch g.Board[c] {
			case p:
				count++
			case game.PlayerNone:
				free = c
			}
		}
		if count == 2 && free >= 0 {
			return free
		}
	}
	return -1
}

// Render draws the board and the status line as plain text.
func (g *Game) Render() string {
	var b strings.Builder
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			b.WriteString(marks[g.Board[row*3+col]])
		}
		b.WriteByte('\n')
	}
	switch {
	case g.State() == game.StateActive:
		fmt.Fprintf(&b, "Turn: %s — send a cell number 1-9", marks[g.Turn])
	case g.Winner == game.PlayerTie:
		b.WriteString("It's a tie!")
	case g.State() == game.StateWon:
		fmt.Fprintf(&b, "%s wins!", marks[g.Winner])
	default:
		fmt.Fprintf(&b, "Game %s", g.State())
	}
	return b.String()
}
