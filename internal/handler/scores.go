package handler

import (
	"context"
	"fmt"
	"strings"

	"chat-game-bot/internal/model"
	"chat-game-bot/internal/router"
)

const topPageSize = 10

// ScoresHandler serves the scoreboard.
type ScoresHandler struct {
	top  TopQuerier
	send Sender
}

// TopQuerier is the read side of the score ledger.
type TopQuerier interface {
	Top(ctx context.Context, period model.TimePeriod, limit, offset int, userID *int64) ([]model.ScoreEntry, error)
}

// NewScoresHandler creates a ScoresHandler.
func NewScoresHandler(top TopQuerier, send Sender) *ScoresHandler {
	return &ScoresHandler{top: top, send: send}
}

// HandleTop shows the highest scores, optionally restricted to a
// period ("day", "week", "month") or to the author ("me").
func (h *ScoresHandler) HandleTop(ctx context.Context, ev router.MessageEvent, args []string) error {
	period := model.PeriodAll
	var userID *int64
	for _, a := range args {
		if a == "me" {
			id := ev.AuthorID
			userID = &id
			continue
		}
		period = model.ParsePeriod(a)
	}

	entries, err := h.top.Top(ctx, period, topPageSize, 0, userID)
	if err != nil {
		return fmt.Errorf("failed to query scoreboard: %w", err)
	}
	if len(entries) == 0 {
		return h.send.Send(ev.ChannelID, "No scores recorded yet!")
	}

	var b strings.Builder
	b.WriteString("🏆 High scores")
	if period != model.PeriodAll {
		fmt.Fprintf(&b, " (last %dh)", int(period))
	}
	b.WriteByte('\n')
	for i, e := range entries {
		fmt.Fprintf(&b, "%d. %d — %s (%d turns, %s)\n", i+1, e.Score, e.Username, e.Turns, e.Channel)
	}
	return h.send.Send(ev.ChannelID, b.String())
}
