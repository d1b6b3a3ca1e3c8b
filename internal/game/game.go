// Package game defines the session model shared by all mini-games:
// lifecycle states, capability interfaces, the session registry and the
// bot turn engine. Concrete games live in subpackages and opt into
// capabilities by implementing the corresponding interface.
package game

import (
	"time"

	"github.com/rs/zerolog"
)

// State is the lifecycle state of a session. Every state other than
// StateActive is terminal: the session is removed from the registry and
// never accepts input again.
type State int

const (
	StateActive State = iota
	StateWon
	StateLost
	StateCancelled
	StateExpired
)

// Terminal reports whether the state ends the session.
func (s State) Terminal() bool { return s != StateActive }

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateWon:
		return "won"
	case StateLost:
		return "lost"
	case StateCancelled:
		return "cancelled"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Player indexes a participant within a session. The special values mark
// a tied outcome and the absence of a player.
type Player int

const (
	PlayerFirst  Player = 0
	PlayerSecond Player = 1
	PlayerTie    Player = -1
	PlayerNone   Player = -2
)

// Deps bundles the runtime collaborators a session needs after
// construction or after being reloaded from a snapshot. It is built once
// at startup and passed in explicitly; sessions never look services up
// from ambient state.
type Deps struct {
	// BotID is the bot's own user id. A participant slot holding BotID
	// is a bot-controlled turn.
	BotID int64
	Log   zerolog.Logger
}

// Session is the behavior common to every live game instance.
type Session interface {
	// Name is the game's display name.
	Name() string
	// Kind identifies the game type; it doubles as the snapshot filename
	// prefix for durable kinds and as part of the user-session key.
	Kind() string
	State() State
	SetState(State)
	// Expiry is how long the session may sit without input before the
	// sweeper expires it. Zero means the session never expires.
	Expiry() time.Duration
	LastUpdated() time.Time
	// Participants is the ordered turn sequence of player ids; a slot
	// equal to Deps.BotID is bot-controlled.
	Participants() []int64
	// Generation returns the session's current representation token.
	Generation() int64
	// Bump invalidates all previously issued representations and returns
	// the new generation.
	Bump() int64
}

// ChannelSession is a session owned by a chat. Its tracked message is the
// outbound message whose edits represent the session.
type ChannelSession interface {
	Session
	ChannelID() int64
	MessageID() int
	SetMessageID(int)
}

// UserSession is a session owned by a single user, such as a pet.
type UserSession interface {
	Session
	OwnerID() int64
}

// MessageInput is the capability of consuming plain text messages.
type MessageInput interface {
	ChannelSession
	// IsInput reports whether the text from the given author is a move
	// for this session. It must not mutate state.
	IsInput(text string, authorID int64) bool
	// Input applies a move previously accepted by IsInput.
	Input(text string, authorID int64)
}

// ReactionInput is the capability of consuming reaction events on the
// tracked message. Reaction add and remove are interpreted identically;
// the session reads the symbol, not the direction.
type ReactionInput interface {
	ChannelSession
	// Symbols lists the reaction symbols the session responds to, in
	// display order.
	Symbols() []string
	IsReaction(symbol string, userID int64) bool
	Reaction(symbol string, userID int64)
}

// BotTurns is the capability of having bot-controlled turns that the
// turn engine advances after each human move.
type BotTurns interface {
	Session
	// BotTurn reports whether the current turn belongs to the bot.
	BotTurn() bool
	// BotInput plays one bot move. It must change whose turn it is or
	// end the game.
	BotInput()
}

// Storeable is the capability of being persisted to a snapshot file and
// reconstructed at startup.
type Storeable interface {
	Session
	// PostDeserialize reattaches runtime collaborators after the session
	// was decoded from a snapshot.
	PostDeserialize(deps *Deps)
}

// Scorable is the capability of producing a scoreboard result when the
// session ends in a non-cancelled terminal state.
type Scorable interface {
	ChannelSession
	Score() int
	Turns() int
}

// Renderable is implemented by sessions that can describe their visible
// state as plain text. The platform adapter turns this into the
// outbound representation.
type Renderable interface {
	Render() string
}

// IdentifierID returns the registry identifier of a session: the owner
// for user sessions, the chat for channel sessions.
func IdentifierID(s Session) int64 {
	switch g := s.(type) {
	case UserSession:
		return g.OwnerID()
	case ChannelSession:
		return g.ChannelID()
	default:
		return 0
	}
}
