package game

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type chanGame struct {
	ChannelBase
}

func newChanGame(chatID int64) *chanGame {
	return &chanGame{ChannelBase: NewChannelBase(chatID, []int64{1}, nil)}
}

func (g *chanGame) Name() string          { return "Chan" }
func (g *chanGame) Kind() string          { return "chan" }
func (g *chanGame) Expiry() time.Duration { return time.Hour }

type userGame struct {
	Base
	owner int64
	kind  string
}

func newUserGame(owner int64, kind string) *userGame {
	return &userGame{Base: NewBase([]int64{owner}, nil), owner: owner, kind: kind}
}

func (g *userGame) Name() string          { return "User" }
func (g *userGame) Kind() string          { return g.kind }
func (g *userGame) OwnerID() int64        { return g.owner }
func (g *userGame) Expiry() time.Duration { return 0 }

func TestRegistry_ChannelUniqueness(t *testing.T) {
	reg := NewRegistry()

	first := newChanGame(100)
	second := newChanGame(100)

	require.True(t, reg.Add(first))
	assert.False(t, reg.Add(second), "second session for the same chat must be rejected")

	got, ok := reg.ChannelSession(100)
	require.True(t, ok)
	assert.Same(t, first, got, "the original session must survive the rejected add")
}

func TestRegistry_UserKeyedByOwnerAndKind(t *testing.T) {
	reg := NewRegistry()

	require.True(t, reg.Add(newUserGame(7, "pet")))
	assert.False(t, reg.Add(newUserGame(7, "pet")), "same owner and kind must be rejected")

	// A different kind for the same owner is a different key.
	assert.True(t, reg.Add(newUserGame(7, "farm")))
	// Same kind for a different owner too.
	assert.True(t, reg.Add(newUserGame(8, "pet")))

	assert.Equal(t, 3, reg.Count())
}

func TestRegistry_Remove(t *testing.T) {
	reg := NewRegistry()

	g := newChanGame(100)
	require.True(t, reg.Add(g))
	assert.True(t, reg.Remove(g))
	assert.False(t, reg.Remove(g), "removing twice reports nothing removed")

	_, ok := reg.ChannelSession(100)
	assert.False(t, ok)

	// The slot is free again.
	assert.True(t, reg.Add(newChanGame(100)))
}

func TestRegistry_RemoveUnknownSession(t *testing.T) {
	reg := NewRegistry()
	assert.False(t, reg.Remove(newChanGame(42)))
	assert.False(t, reg.Remove(newUserGame(7, "pet")))
}

func TestRegistry_Snapshots(t *testing.T) {
	reg := NewRegistry()

	require.True(t, reg.Add(newChanGame(1)))
	require.True(t, reg.Add(newChanGame(2)))
	require.True(t, reg.Add(newUserGame(7, "pet")))

	assert.Len(t, reg.ChannelSessions(), 2)
	assert.Len(t, reg.UserSessions(), 1)
	assert.Equal(t, 3, reg.Count())
}

// TestRegistry_ConcurrentAccess hammers one chat id from many goroutines.
// The registry must stay consistent: at most one session per key at any
// time, and no lost removals.
func TestRegistry_ConcurrentAccess(t *testing.T) {
	reg := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				g := newChanGame(1)
				if reg.Add(g) {
					reg.Remove(g)
				}
				reg.ChannelSession(1)
				reg.ChannelSessions()
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, reg.Count(), 1)
}

// TestRegistry_UniquenessProperty checks that after any sequence of adds
// and removes, each key holds at most one session and lookups agree with
// membership.
func TestRegistry_UniquenessProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		reg := NewRegistry()
		live := make(map[int64]*chanGame)

		ops := rapid.IntRange(1, 50).Draw(t, "ops")
		for i := 0; i < ops; i++ {
			chatID := rapid.Int64Range(1, 5).Draw(t, "chat_id")
			if rapid.Bool().Draw(t, "add") {
				g := newChanGame(chatID)
				added := reg.Add(g)
				_, occupied := live[chatID]
				if added == occupied {
					t.Fatalf("add to chat %d returned %v with occupied=%v", chatID, added, occupied)
				}
				if added {
					live[chatID] = g
				}
			} else if g, ok := live[chatID]; ok {
				if !reg.Remove(g) {
					t.Fatalf("remove of live session in chat %d failed", chatID)
				}
				delete(live, chatID)
			}
		}

		if reg.Count() != len(live) {
			t.Fatalf("registry holds %d sessions, model holds %d", reg.Count(), len(live))
		}
		for chatID, g := range live {
			got, ok := reg.ChannelSession(chatID)
			if !ok || got != g {
				t.Fatalf("lookup of chat %d disagrees with model", chatID)
			}
		}
	})
}
