// Package router dispatches raw chat events to game sessions. Each
// event is offered to the active session for its channel first, then to
// command dispatch, then to the autoresponder; exactly one handler acts
// per event and the decision order is fixed.
package router

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"chat-game-bot/internal/game"
	"chat-game-bot/internal/model"
	"chat-game-bot/internal/snapshot"
)

// MessageEvent is an incoming text message.
type MessageEvent struct {
	ChannelID int64
	MessageID int
	AuthorID  int64
	Text      string
	Private   bool
}

// ReactionEvent is an incoming reaction change on a message. Add and
// remove events are routed identically; the session interprets the
// symbol, not the direction.
type ReactionEvent struct {
	ChannelID int64
	MessageID int
	UserID    int64
	Symbol    string
}

// Renderer is the outbound representation sink. The router produces a
// representation after every consumed event and delivers it unless a
// newer mutation superseded it in the meantime.
type Renderer interface {
	// Produce renders a session into message text and, for reaction
	// driven sessions, the symbols to offer.
	Produce(s game.ChannelSession) (text string, symbols []string)
	// Deliver edits the tracked message or sends a new one, returning
	// the id of the message now representing the session.
	Deliver(channelID int64, messageID int, text string, symbols []string) (int, error)
	// Invalidate detaches a previously delivered representation, e.g.
	// when its session expired.
	Invalidate(channelID int64, messageID int)
}

// Fallback is the rest of the dispatch chain: command handling and the
// passive autoresponder. Each reports whether it consumed the event.
type Fallback interface {
	HandleCommand(ev MessageEvent) bool
	HandleAutoresponse(ev MessageEvent) bool
}

// Names resolves display names for score entries.
type Names interface {
	Username(userID int64) string
	ChannelName(channelID int64) string
}

// Scores records finished games. Appends are durable and ordered.
type Scores interface {
	Add(ctx context.Context, e model.ScoreEntry) error
}

// Router owns event dispatch. It provides no ordering between events
// racing on the same channel; the last write observed wins. Events on
// different channels never block each other.
type Router struct {
	reg      *game.Registry
	snaps    *snapshot.Store
	scores   Scores
	renderer Renderer
	fallback Fallback
	names    Names
}

// New creates a Router with its collaborator set. scores may be nil
// when no ledger is configured.
func New(reg *game.Registry, snaps *snapshot.Store, scores Scores, renderer Renderer, fallback Fallback, names Names) *Router {
	return &Router{
		reg:      reg,
		snaps:    snaps,
		scores:   scores,
		renderer: renderer,
		fallback: fallback,
		names:    names,
	}
}

// HandleMessage routes one text message. Order: active game input,
// command dispatch, autoresponder; the first consumer wins.
func (r *Router) HandleMessage(ctx context.Context, ev MessageEvent) {
	if r.tryMessageInput(ctx, ev) {
		return
	}
	if r.fallback.HandleCommand(ev) {
		return
	}
	r.fallback.HandleAutoresponse(ev)
}

// tryMessageInput offers the message to the channel's session. A panic
// inside the session is logged and the event is treated as unhandled;
// it never crashes the dispatch loop.
func (r *Router) tryMessageInput(ctx context.Context, ev MessageEvent) (handled bool) {
	defer func() {
		if p := recover(); p != nil {
			log.Error().
				Interface("panic", p).
				Int64("chat_id", ev.ChannelID).
				Str("text", ev.Text).
				Msg("Session panicked on message input")
			handled = false
		}
	}()

	s, ok := r.reg.ChannelSession(ev.ChannelID)
	if !ok {
		return false
	}
	mg, ok := s.(game.MessageInput)
	if !ok || !mg.IsInput(ev.Text, ev.AuthorID) {
		return false
	}

	log.Debug().
		Str("game", mg.Name()).
		Int64("chat_id", ev.ChannelID).
		Int64("author_id", ev.AuthorID).
		Str("input", ev.Text).
		Msg("Game input")

	mg.Input(ev.Text, ev.AuthorID)
	r.advance(ctx, mg, ev.AuthorID)
	return true
}

// HandleReaction routes one reaction event and reports whether a
// session consumed it. Reactions on anything but the session's tracked
// message are stale and ignored.
func (r *Router) HandleReaction(ctx context.Context, ev ReactionEvent) (handled bool) {
	defer func() {
		if p := recover(); p != nil {
			log.Error().
				Interface("panic", p).
				Int64("chat_id", ev.ChannelID).
				Str("symbol", ev.Symbol).
				Msg("Session panicked on reaction input")
			handled = false
		}
	}()

	s, ok := r.reg.ChannelSession(ev.ChannelID)
	if !ok {
		return false
	}
	rg, ok := s.(game.ReactionInput)
	if !ok || rg.MessageID() != ev.MessageID {
		return false
	}
	if !rg.IsReaction(ev.Symbol, ev.UserID) {
		return false
	}

	log.Debug().
		Str("game", rg.Name()).
		Int64("chat_id", ev.ChannelID).
		Int64("user_id", ev.UserID).
		Str("symbol", ev.Symbol).
		Msg("Reaction input")

	rg.Reaction(ev.Symbol, ev.UserID)
	r.advance(ctx, rg, ev.UserID)
	return true
}

// advance runs the post-input pipeline: drain bot turns, then either
// tear the session down (terminal) or persist it, and finally notify —
// once per consumed event, never per bot sub-turn.
func (r *Router) advance(ctx context.Context, s game.ChannelSession, actorID int64) {
	if bt, ok := s.(game.BotTurns); ok {
		game.DrainBotTurns(bt)
	}

	if s.State().Terminal() {
		r.reg.Remove(s)
		if st, ok := s.(game.Storeable); ok {
			if err := r.snaps.Delete(st); err != nil {
				log.Error().Err(err).Str("kind", s.Kind()).Msg("Failed to delete snapshot")
			}
		}
		r.recordScore(ctx, s, actorID)
	} else if st, ok := s.(game.Storeable); ok {
		if err := r.snaps.Save(st); err != nil {
			log.Error().Err(err).Str("kind", s.Kind()).Msg("Failed to save snapshot")
		}
	}

	r.notify(s)
}

// recordScore appends a ledger entry for scorable sessions that ended
// in anything but cancellation.
func (r *Router) recordScore(ctx context.Context, s game.ChannelSession, actorID int64) {
	sc, ok := s.(game.Scorable)
	if !ok || s.State() == game.StateCancelled || r.scores == nil {
		return
	}
	entry := model.ScoreEntry{
		Score:    sc.Score(),
		UserID:   actorID,
		State:    int(s.State()),
		Turns:    sc.Turns(),
		Username: r.names.Username(actorID),
		Channel:  r.names.ChannelName(s.ChannelID()),
		Date:     time.Now(),
	}
	if err := r.scores.Add(ctx, entry); err != nil {
		log.Error().Err(err).Int64("user_id", actorID).Msg("Failed to record score")
	}
}

// notify produces and delivers the session's updated representation.
// Bumping the generation first invalidates every representation issued
// earlier, so a racing delivery that lost the bump is dropped silently
// rather than overwriting newer state. Delivery failures are swallowed:
// session state is already correct and persisted.
func (r *Router) notify(s game.ChannelSession) {
	gen := s.Bump()
	text, symbols := r.renderer.Produce(s)
	if gen != s.Generation() {
		return // superseded by a newer mutation
	}
	newID, err := r.renderer.Deliver(s.ChannelID(), s.MessageID(), text, symbols)
	if err != nil {
		log.Warn().Err(err).Int64("chat_id", s.ChannelID()).Msg("Failed to deliver game message")
		return
	}
	if newID != 0 {
		s.SetMessageID(newID)
	}
}
