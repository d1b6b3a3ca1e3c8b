package handler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"chat-game-bot/internal/game"
	"chat-game-bot/internal/game/slider"
	"chat-game-bot/internal/game/tictactoe"
	"chat-game-bot/internal/router"
	"chat-game-bot/internal/snapshot"
)

// GamesHandler starts and cancels channel games.
type GamesHandler struct {
	reg      *game.Registry
	snaps    *snapshot.Store
	deps     *game.Deps
	send     Sender
	renderer router.Renderer
}

// NewGamesHandler creates a GamesHandler.
func NewGamesHandler(reg *game.Registry, snaps *snapshot.Store, deps *game.Deps, send Sender, renderer router.Renderer) *GamesHandler {
	return &GamesHandler{reg: reg, snaps: snaps, deps: deps, send: send, renderer: renderer}
}

// HandleTicTacToe starts a tic-tac-toe game against the bot, or against
// another user when their id is given.
func (h *GamesHandler) HandleTicTacToe(ctx context.Context, ev router.MessageEvent, args []string) error {
	if s, ok := h.reg.ChannelSession(ev.ChannelID); ok {
		return h.send.Send(ev.ChannelID, fmt.Sprintf(
			"There is already a %s game in this chat! Finish it or do \"cancel\" first.", s.Name()))
	}

	opponent := h.deps.BotID
	if len(args) > 0 {
		id, err := parseUserID(args[0])
		if err != nil {
			return h.send.Send(ev.ChannelID, "Can't find the specified opponent!")
		}
		opponent = id
	}
	if opponent == ev.AuthorID {
		return h.send.Send(ev.ChannelID, "You can't play against yourself!")
	}

	g := tictactoe.New(ev.ChannelID, ev.AuthorID, opponent, h.deps)
	if !h.reg.Add(g) {
		return h.send.Send(ev.ChannelID, "There is already a game in this chat!")
	}
	h.deliver(g)
	return nil
}

// HandleSlider starts a slider game owned by the author. Running games
// survive restarts, so the fresh board is snapshotted immediately.
func (h *GamesHandler) HandleSlider(ctx context.Context, ev router.MessageEvent, args []string) error {
	if s, ok := h.reg.ChannelSession(ev.ChannelID); ok {
		return h.send.Send(ev.ChannelID, fmt.Sprintf(
			"There is already a %s game in this chat! Finish it or do \"cancel\" first.", s.Name()))
	}

	g := slider.New(ev.ChannelID, ev.AuthorID, h.deps)
	if !h.reg.Add(g) {
		return h.send.Send(ev.ChannelID, "There is already a game in this chat!")
	}
	h.deliver(g)
	if err := h.snaps.Save(g); err != nil {
		log.Error().Err(err).Int64("chat_id", ev.ChannelID).Msg("Failed to save new slider game")
	}
	return nil
}

// HandleCancel cancels the chat's running game. Only a participant may
// cancel it.
func (h *GamesHandler) HandleCancel(ctx context.Context, ev router.MessageEvent, args []string) error {
	s, ok := h.reg.ChannelSession(ev.ChannelID)
	if !ok {
		return h.send.Send(ev.ChannelID, "There is no game running in this chat.")
	}

	participant := false
	for _, id := range s.Participants() {
		if id == ev.AuthorID {
			participant = true
			break
		}
	}
	if !participant {
		return h.send.Send(ev.ChannelID, "Only a player of the current game can cancel it.")
	}

	s.SetState(game.StateCancelled)
	h.reg.Remove(s)
	if st, ok := s.(game.Storeable); ok {
		if err := h.snaps.Delete(st); err != nil {
			log.Error().Err(err).Str("kind", s.Kind()).Msg("Failed to delete snapshot")
		}
	}
	h.deliver(s)
	return nil
}

// deliver sends or edits the session's representation and tracks the
// resulting message.
func (h *GamesHandler) deliver(s game.ChannelSession) {
	gen := s.Bump()
	text, symbols := h.renderer.Produce(s)
	if gen != s.Generation() {
		return
	}
	id, err := h.renderer.Deliver(s.ChannelID(), s.MessageID(), text, symbols)
	if err != nil {
		log.Warn().Err(err).Int64("chat_id", s.ChannelID()).Msg("Failed to deliver game message")
		return
	}
	if id != 0 {
		s.SetMessageID(id)
	}
}
