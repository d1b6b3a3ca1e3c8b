package bot

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"chat-game-bot/internal/config"
	"chat-game-bot/internal/handler"
	"chat-game-bot/internal/router"
)

// wakaPattern matches messages that are nothing but waka chants.
var wakaPattern = regexp.MustCompile(`(?i)^(w+a+k+a+\W*)+$`)

// dispatcher resolves non-game messages against the command table, and
// failing that against the autoresponder. It implements the router's
// Fallback.
type dispatcher struct {
	cfg   *config.Config
	send  handler.Sender
	table map[string]handler.Func
}

func newDispatcher(cfg *config.Config, send handler.Sender, table map[string]handler.Func) *dispatcher {
	return &dispatcher{cfg: cfg, send: send, table: table}
}

// HandleCommand parses the message as a command and runs it. The
// configured prefix is required in groups but optional in private
// chats.
func (d *dispatcher) HandleCommand(ev router.MessageEvent) bool {
	text := strings.TrimSpace(ev.Text)
	prefix := d.cfg.Bot.Prefix

	if strings.HasPrefix(text, prefix) {
		text = strings.TrimPrefix(text, prefix)
	} else if !ev.Private {
		return false
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return false
	}

	// Telegram appends the bot's username to commands in groups.
	name := strings.ToLower(words[0])
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}

	fn, ok := d.table[name]
	if !ok {
		return false
	}

	if err := fn(context.Background(), ev, words[1:]); err != nil {
		log.Error().Err(err).
			Str("command", name).
			Int64("chat_id", ev.ChannelID).
			Msg("Command failed")
	}
	return true
}

// HandleAutoresponse replies to a few pet phrases. It only fires when
// neither a game nor a command claimed the message.
func (d *dispatcher) HandleAutoresponse(ev router.MessageEvent) bool {
	if !d.cfg.Autoresponse.Enabled {
		return false
	}

	text := strings.TrimSpace(ev.Text)
	switch {
	case wakaPattern.MatchString(text):
		if err := d.send.Send(ev.ChannelID, "waka waka"); err != nil {
			log.Warn().Err(err).Int64("chat_id", ev.ChannelID).Msg("Failed to send autoresponse")
		}
		return true
	case strings.EqualFold(text, "sudo neat"):
		if err := d.send.Send(ev.ChannelID, "neat"); err != nil {
			log.Warn().Err(err).Int64("chat_id", ev.ChannelID).Msg("Failed to send autoresponse")
		}
		return true
	}
	return false
}
