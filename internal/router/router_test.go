package router

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-game-bot/internal/game"
	"chat-game-bot/internal/model"
	"chat-game-bot/internal/snapshot"
)

// fakeGame is a scriptable channel session. It accepts one text and one
// symbol, and moves to endState when it consumes input.
type fakeGame struct {
	game.ChannelBase
	acceptText   string
	acceptSymbol string
	endState     game.State
	inputs       int
	panicOnInput bool
}

// initFake prepares a fakeGame in place; capability wrappers embed the
// struct, so it cannot be built by value.
func initFake(g *fakeGame, chatID int64) {
	g.ChannelBase = game.NewChannelBase(chatID, []int64{1}, nil)
	g.acceptText = "move"
	g.endState = game.StateActive
}

func newFakeGame(chatID int64) *fakeGame {
	g := &fakeGame{}
	initFake(g, chatID)
	return g
}

func (g *fakeGame) Name() string          { return "Fake" }
func (g *fakeGame) Kind() string          { return "fake" }
func (g *fakeGame) Expiry() time.Duration { return time.Hour }

func (g *fakeGame) IsInput(text string, authorID int64) bool {
	if g.panicOnInput {
		panic("scripted panic")
	}
	return text == g.acceptText
}

func (g *fakeGame) Input(text string, authorID int64) {
	g.inputs++
	if g.endState != game.StateActive {
		g.SetState(g.endState)
	}
}

func (g *fakeGame) Symbols() []string { return []string{g.acceptSymbol} }

func (g *fakeGame) IsReaction(symbol string, userID int64) bool {
	return symbol == g.acceptSymbol
}

func (g *fakeGame) Reaction(symbol string, userID int64) {
	g.inputs++
	if g.endState != game.StateActive {
		g.SetState(g.endState)
	}
}

// durableGame adds the snapshot capability.
type durableGame struct {
	fakeGame
}

func (g *durableGame) PostDeserialize(deps *game.Deps) { g.AttachDeps(deps) }

// scorableGame adds a scoreboard result.
type scorableGame struct {
	fakeGame
	score int
	turns int
}

func (g *scorableGame) Score() int { return g.score }
func (g *scorableGame) Turns() int { return g.turns }

// botGame adds one pending bot turn after each human move.
type botGame struct {
	fakeGame
	pending  int
	botMoves int
}

func (g *botGame) Input(text string, authorID int64) {
	g.fakeGame.Input(text, authorID)
	g.pending = 1
}

func (g *botGame) BotTurn() bool { return g.pending > 0 }

func (g *botGame) BotInput() {
	g.pending--
	g.botMoves++
}

type fakeRenderer struct {
	deliverCalls int
	lastText     string
	nextID       int
	onProduce    func(s game.ChannelSession)
}

func (f *fakeRenderer) Produce(s game.ChannelSession) (string, []string) {
	if f.onProduce != nil {
		f.onProduce(s)
	}
	return "rendered", nil
}

func (f *fakeRenderer) Deliver(channelID int64, messageID int, text string, symbols []string) (int, error) {
	f.deliverCalls++
	f.lastText = text
	return f.nextID, nil
}

func (f *fakeRenderer) Invalidate(channelID int64, messageID int) {}

type fakeFallback struct {
	commandHandled bool
	commandCalls   int
	autoCalls      int
}

func (f *fakeFallback) HandleCommand(ev MessageEvent) bool {
	f.commandCalls++
	return f.commandHandled
}

func (f *fakeFallback) HandleAutoresponse(ev MessageEvent) bool {
	f.autoCalls++
	return true
}

type fakeNames struct{}

func (fakeNames) Username(int64) string    { return "somebody" }
func (fakeNames) ChannelName(int64) string { return "somewhere" }

type fakeScores struct {
	entries []model.ScoreEntry
}

func (f *fakeScores) Add(ctx context.Context, e model.ScoreEntry) error {
	f.entries = append(f.entries, e)
	return nil
}

type fixture struct {
	reg      *game.Registry
	snaps    *snapshot.Store
	scores   *fakeScores
	renderer *fakeRenderer
	fallback *fakeFallback
	router   *Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		reg:      game.NewRegistry(),
		snaps:    snapshot.NewStore(t.TempDir(), &game.Deps{}),
		scores:   &fakeScores{},
		renderer: &fakeRenderer{},
		fallback: &fakeFallback{},
	}
	f.router = New(f.reg, f.snaps, f.scores, f.renderer, f.fallback, fakeNames{})
	return f
}

func msg(chatID int64, text string) MessageEvent {
	return MessageEvent{ChannelID: chatID, MessageID: 1, AuthorID: 1, Text: text}
}

func TestHandleMessage_GameInputShortCircuits(t *testing.T) {
	f := newFixture(t)
	g := newFakeGame(100)
	require.True(t, f.reg.Add(g))

	f.router.HandleMessage(context.Background(), msg(100, "move"))

	assert.Equal(t, 1, g.inputs)
	assert.Zero(t, f.fallback.commandCalls, "a consumed game input never reaches command dispatch")
	assert.Zero(t, f.fallback.autoCalls)
	assert.Equal(t, 1, f.renderer.deliverCalls)
}

func TestHandleMessage_FallsThroughToCommands(t *testing.T) {
	f := newFixture(t)
	g := newFakeGame(100)
	require.True(t, f.reg.Add(g))
	f.fallback.commandHandled = true

	f.router.HandleMessage(context.Background(), msg(100, "not a move"))

	assert.Zero(t, g.inputs)
	assert.Equal(t, 1, f.fallback.commandCalls)
	assert.Zero(t, f.fallback.autoCalls, "a handled command never reaches the autoresponder")
}

func TestHandleMessage_FallsThroughToAutoresponse(t *testing.T) {
	f := newFixture(t)

	f.router.HandleMessage(context.Background(), msg(100, "anything"))

	assert.Equal(t, 1, f.fallback.commandCalls)
	assert.Equal(t, 1, f.fallback.autoCalls)
}

func TestHandleMessage_PanickingSessionFallsThrough(t *testing.T) {
	f := newFixture(t)
	g := newFakeGame(100)
	g.panicOnInput = true
	require.True(t, f.reg.Add(g))

	assert.NotPanics(t, func() {
		f.router.HandleMessage(context.Background(), msg(100, "move"))
	})
	assert.Equal(t, 1, f.fallback.commandCalls, "the event is treated as unhandled")

	// The session stays registered; one bad event does not kill it.
	_, ok := f.reg.ChannelSession(100)
	assert.True(t, ok)
}

func TestHandleReaction_RoutesToSession(t *testing.T) {
	f := newFixture(t)
	g := newFakeGame(100)
	g.acceptSymbol = "🅰️"
	g.SetMessageID(50)
	require.True(t, f.reg.Add(g))

	handled := f.router.HandleReaction(context.Background(), ReactionEvent{
		ChannelID: 100, MessageID: 50, UserID: 1, Symbol: "🅰️",
	})

	assert.True(t, handled)
	assert.Equal(t, 1, g.inputs)
	assert.Equal(t, 1, f.renderer.deliverCalls)
}

func TestHandleReaction_StaleMessageIgnored(t *testing.T) {
	f := newFixture(t)
	g := newFakeGame(100)
	g.acceptSymbol = "🅰️"
	g.SetMessageID(50)
	require.True(t, f.reg.Add(g))

	handled := f.router.HandleReaction(context.Background(), ReactionEvent{
		ChannelID: 100, MessageID: 49, UserID: 1, Symbol: "🅰️",
	})

	assert.False(t, handled, "reactions on anything but the tracked message are stale")
	assert.Zero(t, g.inputs)
}

func TestHandleReaction_UnknownSymbolIgnored(t *testing.T) {
	f := newFixture(t)
	g := newFakeGame(100)
	g.acceptSymbol = "🅰️"
	g.SetMessageID(50)
	require.True(t, f.reg.Add(g))

	handled := f.router.HandleReaction(context.Background(), ReactionEvent{
		ChannelID: 100, MessageID: 50, UserID: 1, Symbol: "🅱️",
	})

	assert.False(t, handled)
}

func TestAdvance_DrainsBotTurnsAndNotifiesOnce(t *testing.T) {
	f := newFixture(t)
	g := &botGame{}
	initFake(&g.fakeGame, 100)
	require.True(t, f.reg.Add(g))

	f.router.HandleMessage(context.Background(), msg(100, "move"))

	assert.Equal(t, 1, g.botMoves, "the pending bot turn is played")
	assert.Equal(t, 1, f.renderer.deliverCalls, "one delivery per consumed event, not per bot sub-turn")
}

func TestAdvance_TerminalSessionTornDown(t *testing.T) {
	f := newFixture(t)
	g := &durableGame{}
	initFake(&g.fakeGame, 100)
	g.endState = game.StateWon
	require.True(t, f.reg.Add(g))
	require.NoError(t, f.snaps.Save(g))

	f.router.HandleMessage(context.Background(), msg(100, "move"))

	_, ok := f.reg.ChannelSession(100)
	assert.False(t, ok, "terminal sessions leave the registry")
	assert.NoFileExists(t, f.snaps.Path(g), "terminal sessions lose their snapshot")
}

func TestAdvance_DurableSessionPersistedAfterInput(t *testing.T) {
	f := newFixture(t)
	g := &durableGame{}
	initFake(&g.fakeGame, 100)
	require.True(t, f.reg.Add(g))

	f.router.HandleMessage(context.Background(), msg(100, "move"))

	assert.FileExists(t, f.snaps.Path(g))
	_, ok := f.reg.ChannelSession(100)
	assert.True(t, ok)
}

func TestAdvance_RecordsScoreForFinishedGame(t *testing.T) {
	f := newFixture(t)
	g := &scorableGame{score: 512, turns: 40}
	initFake(&g.fakeGame, 100)
	g.endState = game.StateWon
	require.True(t, f.reg.Add(g))

	f.router.HandleMessage(context.Background(), msg(100, "move"))

	require.Len(t, f.scores.entries, 1)
	e := f.scores.entries[0]
	assert.Equal(t, 512, e.Score)
	assert.Equal(t, 40, e.Turns)
	assert.Equal(t, int64(1), e.UserID, "the score belongs to the acting player")
	assert.Equal(t, "somebody", e.Username)
	assert.Equal(t, "somewhere", e.Channel)
	assert.Equal(t, int(game.StateWon), e.State)
}

func TestAdvance_NoScoreOnCancellation(t *testing.T) {
	f := newFixture(t)
	g := &scorableGame{score: 512}
	initFake(&g.fakeGame, 100)
	g.endState = game.StateCancelled
	require.True(t, f.reg.Add(g))

	f.router.HandleMessage(context.Background(), msg(100, "move"))

	assert.Empty(t, f.scores.entries)
}

func TestNotify_TracksNewMessageID(t *testing.T) {
	f := newFixture(t)
	f.renderer.nextID = 77
	g := newFakeGame(100)
	require.True(t, f.reg.Add(g))

	f.router.HandleMessage(context.Background(), msg(100, "move"))

	assert.Equal(t, 77, g.MessageID())
}

// A bump that lands between produce and deliver marks the produced
// representation stale; it must be dropped, not delivered.
func TestNotify_SupersededRepresentationDropped(t *testing.T) {
	f := newFixture(t)
	f.renderer.onProduce = func(s game.ChannelSession) { s.Bump() }
	g := newFakeGame(100)
	require.True(t, f.reg.Add(g))

	f.router.HandleMessage(context.Background(), msg(100, "move"))

	assert.Zero(t, f.renderer.deliverCalls)
}
