package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-game-bot/internal/game"
	"chat-game-bot/internal/game/slider"
	"chat-game-bot/internal/game/tictactoe"
	"chat-game-bot/internal/router"
	"chat-game-bot/internal/snapshot"
)

type stubRenderer struct {
	deliveries int
}

func (r *stubRenderer) Produce(s game.ChannelSession) (string, []string) {
	if rd, ok := s.(game.Renderable); ok {
		return rd.Render(), nil
	}
	return s.Name(), nil
}

func (r *stubRenderer) Deliver(channelID int64, messageID int, text string, symbols []string) (int, error) {
	r.deliveries++
	return 42, nil
}

func (r *stubRenderer) Invalidate(channelID int64, messageID int) {}

func newGamesFixture(t *testing.T) (*GamesHandler, *game.Registry, *snapshot.Store, *recordingSender, *stubRenderer) {
	t.Helper()
	deps := &game.Deps{BotID: 999}
	reg := game.NewRegistry()
	snaps := snapshot.NewStore(t.TempDir(), deps)
	snaps.RegisterKind(slider.Kind, func() game.Storeable { return &slider.Game{} })
	send := &recordingSender{}
	renderer := &stubRenderer{}
	return NewGamesHandler(reg, snaps, deps, send, renderer), reg, snaps, send, renderer
}

func TestHandleTicTacToe_StartsAgainstBot(t *testing.T) {
	h, reg, _, _, renderer := newGamesFixture(t)
	ev := router.MessageEvent{ChannelID: 100, AuthorID: 1}

	require.NoError(t, h.HandleTicTacToe(context.Background(), ev, nil))

	s, ok := reg.ChannelSession(100)
	require.True(t, ok)
	g := s.(*tictactoe.Game)
	assert.Equal(t, []int64{1, 999}, g.Participants())
	assert.Equal(t, 42, g.MessageID(), "the delivered message is tracked")
	assert.Equal(t, 1, renderer.deliveries)
}

func TestHandleTicTacToe_StartsAgainstUser(t *testing.T) {
	h, reg, _, _, _ := newGamesFixture(t)
	ev := router.MessageEvent{ChannelID: 100, AuthorID: 1}

	require.NoError(t, h.HandleTicTacToe(context.Background(), ev, []string{"2"}))

	s, _ := reg.ChannelSession(100)
	assert.Equal(t, []int64{1, 2}, s.Participants())
}

func TestHandleTicTacToe_RejectsSelfPlay(t *testing.T) {
	h, reg, _, send, _ := newGamesFixture(t)
	ev := router.MessageEvent{ChannelID: 100, AuthorID: 1}

	require.NoError(t, h.HandleTicTacToe(context.Background(), ev, []string{"1"}))

	_, ok := reg.ChannelSession(100)
	assert.False(t, ok)
	assert.Contains(t, send.last(), "yourself")
}

func TestHandleTicTacToe_OneGamePerChat(t *testing.T) {
	h, _, _, send, _ := newGamesFixture(t)
	ev := router.MessageEvent{ChannelID: 100, AuthorID: 1}

	require.NoError(t, h.HandleTicTacToe(context.Background(), ev, nil))
	require.NoError(t, h.HandleTicTacToe(context.Background(), ev, nil))

	assert.Contains(t, send.last(), "already a")
}

func TestHandleSlider_StartsAndPersists(t *testing.T) {
	h, reg, snaps, _, _ := newGamesFixture(t)
	ev := router.MessageEvent{ChannelID: 100, AuthorID: 1}

	require.NoError(t, h.HandleSlider(context.Background(), ev, nil))

	s, ok := reg.ChannelSession(100)
	require.True(t, ok)
	g := s.(*slider.Game)
	assert.FileExists(t, snaps.Path(g), "a fresh board survives a restart")
}

func TestHandleCancel(t *testing.T) {
	h, reg, snaps, send, _ := newGamesFixture(t)
	ev := router.MessageEvent{ChannelID: 100, AuthorID: 1}
	require.NoError(t, h.HandleSlider(context.Background(), ev, nil))
	s, _ := reg.ChannelSession(100)
	g := s.(*slider.Game)

	// A non-participant may not cancel.
	stranger := router.MessageEvent{ChannelID: 100, AuthorID: 55}
	require.NoError(t, h.HandleCancel(context.Background(), stranger, nil))
	_, ok := reg.ChannelSession(100)
	require.True(t, ok)
	assert.Contains(t, send.last(), "player of the current game")

	require.NoError(t, h.HandleCancel(context.Background(), ev, nil))
	_, ok = reg.ChannelSession(100)
	assert.False(t, ok)
	assert.Equal(t, game.StateCancelled, g.State())
	assert.NoFileExists(t, snaps.Path(g))
}

func TestHandleCancel_NoGame(t *testing.T) {
	h, _, _, send, _ := newGamesFixture(t)
	ev := router.MessageEvent{ChannelID: 100, AuthorID: 1}

	require.NoError(t, h.HandleCancel(context.Background(), ev, nil))
	assert.Contains(t, send.last(), "no game running")
}
