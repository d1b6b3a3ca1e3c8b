// Package bot adapts the Telegram transport to the game core: it turns
// telebot updates into router events, renders sessions back into
// messages, and runs the stale session sweeper.
package bot

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"chat-game-bot/internal/config"
	"chat-game-bot/internal/game"
	"chat-game-bot/internal/handler"
	"chat-game-bot/internal/repository"
	"chat-game-bot/internal/router"
	"chat-game-bot/internal/snapshot"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot    *tele.Bot
	cfg    *config.Config
	reg    *game.Registry
	snaps  *snapshot.Store
	router *router.Router

	stopSweep chan struct{}
}

// Dependencies holds everything the bot needs at construction.
type Dependencies struct {
	Config *config.Config
	Reg    *game.Registry
	Snaps  *snapshot.Store
	Deps   *game.Deps
	Scores *repository.ScoreRepository
}

// New creates a Bot, wires the router with its renderer and fallback
// chain, and registers the update handlers.
func New(deps *Dependencies) (*Bot, error) {
	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, err
	}

	b := &Bot{
		bot:       teleBot,
		cfg:       deps.Config,
		reg:       deps.Reg,
		snaps:     deps.Snaps,
		stopSweep: make(chan struct{}),
	}

	// The bot plays its own turns under its account id.
	deps.Deps.BotID = teleBot.Me.ID

	renderer := &telegramRenderer{bot: teleBot}
	names := &telegramNames{bot: teleBot}

	gamesHandler := handler.NewGamesHandler(deps.Reg, deps.Snaps, deps.Deps, b, renderer)
	petHandler := handler.NewPetHandler(deps.Reg, deps.Snaps, deps.Deps, b)
	scoresHandler := handler.NewScoresHandler(deps.Scores, b)

	fallback := newDispatcher(deps.Config, b, map[string]handler.Func{
		"pet":    petHandler.Handle,
		"ttt":    gamesHandler.HandleTicTacToe,
		"slider": gamesHandler.HandleSlider,
		"cancel": gamesHandler.HandleCancel,
		"bye":    gamesHandler.HandleCancel,
		"top":    scoresHandler.HandleTop,
	})

	var scores router.Scores
	if deps.Scores != nil {
		scores = deps.Scores
	}
	b.router = router.New(deps.Reg, deps.Snaps, scores, renderer, fallback, names)

	teleBot.Use(LoggingMiddleware())
	teleBot.Use(RecoveryMiddleware())
	teleBot.Use(WhitelistMiddleware(deps.Config))

	teleBot.Handle(tele.OnText, b.onText)
	teleBot.Handle(tele.OnCallback, b.onCallback)

	return b, nil
}

// onText feeds every text message through the router's dispatch chain.
func (b *Bot) onText(c tele.Context) error {
	chat, sender := c.Chat(), c.Sender()
	if chat == nil || sender == nil || sender.IsBot {
		return nil
	}
	if b.cfg.IsChatBanned(chat.ID) {
		log.Warn().Int64("chat_id", chat.ID).Msg("Leaving banned chat")
		return b.bot.Leave(chat)
	}

	ev := router.MessageEvent{
		ChannelID: chat.ID,
		MessageID: c.Message().ID,
		AuthorID:  sender.ID,
		Text:      c.Text(),
		Private:   chat.Type == tele.ChatPrivate,
	}
	b.router.HandleMessage(context.Background(), ev)
	return nil
}

// onCallback feeds inline button presses through the reaction protocol.
// The button's callback data is the reaction symbol.
func (b *Bot) onCallback(c tele.Context) error {
	cb := c.Callback()
	if cb == nil || cb.Message == nil || cb.Sender == nil {
		return nil
	}

	symbol := strings.TrimPrefix(cb.Data, "\f")
	symbol = strings.TrimPrefix(symbol, callbackPrefix)

	ev := router.ReactionEvent{
		ChannelID: cb.Message.Chat.ID,
		MessageID: cb.Message.ID,
		UserID:    cb.Sender.ID,
		Symbol:    symbol,
	}
	b.router.HandleReaction(context.Background(), ev)
	return c.Respond()
}

// Send delivers a plain text reply into a chat.
func (b *Bot) Send(channelID int64, text string) error {
	_, err := b.bot.Send(tele.ChatID(channelID), text)
	return err
}

// Start begins polling and starts the stale session sweeper.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")
	go b.sweepLoop()
	b.bot.Start()
}

// Stop stops polling and the sweeper.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	close(b.stopSweep)
	b.bot.Stop()
}

// sweepLoop periodically expires sessions that sat without input for
// longer than their expiry.
func (b *Bot) sweepLoop() {
	interval := b.cfg.Bot.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopSweep:
			return
		case <-ticker.C:
			b.sweep()
		}
	}
}

// sweep walks a registry snapshot and removes stale sessions. Expired
// channel sessions keep their final message but lose the keyboard.
func (b *Bot) sweep() {
	now := time.Now()
	expired := 0

	check := func(s game.Session) bool {
		return s.Expiry() > 0 && s.State() == game.StateActive && now.Sub(s.LastUpdated()) > s.Expiry()
	}

	for _, s := range b.reg.ChannelSessions() {
		if !check(s) {
			continue
		}
		s.SetState(game.StateExpired)
		b.reg.Remove(s)
		if st, ok := s.(game.Storeable); ok {
			if err := b.snaps.Delete(st); err != nil {
				log.Error().Err(err).Str("kind", s.Kind()).Msg("Failed to delete expired snapshot")
			}
		}
		if s.MessageID() != 0 {
			invalidateMessage(b.bot, s.ChannelID(), s.MessageID())
		}
		expired++
	}
	for _, s := range b.reg.UserSessions() {
		if !check(s) {
			continue
		}
		s.SetState(game.StateExpired)
		b.reg.Remove(s)
		if st, ok := s.(game.Storeable); ok {
			if err := b.snaps.Delete(st); err != nil {
				log.Error().Err(err).Str("kind", s.Kind()).Msg("Failed to delete expired snapshot")
			}
		}
		expired++
	}

	if expired > 0 {
		log.Info().Int("expired", expired).Msg("Swept stale sessions")
	}
}
