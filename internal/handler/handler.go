// Package handler implements the chat command surface: pet care
// subcommands, game starts and the scoreboard. Dispatch goes through
// explicit tables built once at construction, so the full command
// surface is statically enumerable.
package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"chat-game-bot/internal/router"
)

// Func is a command handler. args holds the words after the command
// name.
type Func func(ctx context.Context, ev router.MessageEvent, args []string) error

// Sender sends a plain text reply into a chat.
type Sender interface {
	Send(channelID int64, text string) error
}

// parseUserID reads a numeric user id, tolerating an @ prefix.
func parseUserID(s string) (int64, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "@")
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q", s)
	}
	return id, nil
}
