package game

import (
	"sync/atomic"
	"time"
)

// Base carries the bookkeeping every session shares: participants,
// lifecycle state, timestamps and the representation generation token.
// Concrete games embed it and serialize its exported fields.
type Base struct {
	UserIDs   []int64   `json:"user_ids"`
	GameState State     `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"last_updated"`

	gen  atomic.Int64
	deps *Deps
}

// NewBase initializes a Base for a fresh session.
func NewBase(userIDs []int64, deps *Deps) Base {
	now := time.Now()
	return Base{
		UserIDs:   userIDs,
		GameState: StateActive,
		CreatedAt: now,
		UpdatedAt: now,
		deps:      deps,
	}
}

func (b *Base) State() State         { return b.GameState }
func (b *Base) SetState(s State)     { b.GameState = s }
func (b *Base) Participants() []int64 { return b.UserIDs }
func (b *Base) LastUpdated() time.Time { return b.UpdatedAt }

// Touch records that the session received input.
func (b *Base) Touch() { b.UpdatedAt = time.Now() }

// Generation returns the current representation token.
func (b *Base) Generation() int64 { return b.gen.Load() }

// Bump invalidates every representation issued before it. A delivery
// holding an older token must be dropped, never retried.
func (b *Base) Bump() int64 { return b.gen.Add(1) }

// Deps returns the collaborator bundle attached at construction or by
// PostDeserialize.
func (b *Base) Deps() *Deps { return b.deps }

// AttachDeps reattaches runtime collaborators; used when reloading a
// session from a snapshot.
func (b *Base) AttachDeps(deps *Deps) { b.deps = deps }

// BotID is the bot's user id, or 0 when no collaborators are attached.
func (b *Base) BotID() int64 {
	if b.deps == nil {
		return 0
	}
	return b.deps.BotID
}

// ChannelBase extends Base for chat-owned sessions with the channel key
// and the tracked message reference.
type ChannelBase struct {
	Base
	ChatID int64 `json:"chat_id"`
	MsgID  int   `json:"message_id"`
}

// NewChannelBase initializes a ChannelBase for a fresh channel session.
func NewChannelBase(chatID int64, userIDs []int64, deps *Deps) ChannelBase {
	return ChannelBase{Base: NewBase(userIDs, deps), ChatID: chatID}
}

func (b *ChannelBase) ChannelID() int64   { return b.ChatID }
func (b *ChannelBase) MessageID() int     { return b.MsgID }
func (b *ChannelBase) SetMessageID(id int) { b.MsgID = id }
