package bot

import (
	"fmt"

	tele "gopkg.in/telebot.v3"

	"chat-game-bot/internal/game"
)

// callbackPrefix marks game reaction buttons in callback data.
const callbackPrefix = "g_"

// telegramRenderer implements the router's Renderer over telebot.
// Reaction symbols become inline keyboard buttons on the tracked
// message.
type telegramRenderer struct {
	bot *tele.Bot
}

// Produce renders a session into message text plus, for active reaction
// sessions, the symbols to offer as buttons.
func (r *telegramRenderer) Produce(s game.ChannelSession) (string, []string) {
	text := s.Name()
	if rd, ok := s.(game.Renderable); ok {
		text = rd.Render()
	}
	if rg, ok := s.(game.ReactionInput); ok && s.State() == game.StateActive {
		return text, rg.Symbols()
	}
	return text, nil
}

// Deliver edits the tracked message in place, or sends a new message
// when there is none or the edit fails, and returns the id of the
// message now representing the session.
func (r *telegramRenderer) Deliver(channelID int64, messageID int, text string, symbols []string) (int, error) {
	markup := buildKeyboard(symbols)

	if messageID != 0 {
		target := &tele.Message{ID: messageID, Chat: &tele.Chat{ID: channelID}}
		if _, err := r.bot.Edit(target, text, markup); err == nil {
			return messageID, nil
		}
		// The tracked message may have been deleted; fall through and
		// send a replacement.
	}

	msg, err := r.bot.Send(tele.ChatID(channelID), text, markup)
	if err != nil {
		return 0, err
	}
	return msg.ID, nil
}

// Invalidate detaches a delivered representation by stripping its
// keyboard. Errors are ignored: the message may already be gone.
func (r *telegramRenderer) Invalidate(channelID int64, messageID int) {
	invalidateMessage(r.bot, channelID, messageID)
}

func invalidateMessage(b *tele.Bot, channelID int64, messageID int) {
	target := &tele.Message{ID: messageID, Chat: &tele.Chat{ID: channelID}}
	_, _ = b.EditReplyMarkup(target, nil)
}

// buildKeyboard lays the symbols out as a single row of inline buttons.
func buildKeyboard(symbols []string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	if len(symbols) == 0 {
		return markup
	}
	row := make([]tele.InlineButton, 0, len(symbols))
	for _, s := range symbols {
		row = append(row, tele.InlineButton{
			Text: s,
			Data: callbackPrefix + s,
		})
	}
	markup.InlineKeyboard = [][]tele.InlineButton{row}
	return markup
}

// telegramNames resolves display names for score entries.
type telegramNames struct {
	bot *tele.Bot
}

func (n *telegramNames) Username(userID int64) string {
	chat, err := n.bot.ChatByID(userID)
	if err != nil || chat == nil {
		return fmt.Sprintf("%d", userID)
	}
	if chat.Username != "" {
		return chat.Username
	}
	if chat.FirstName != "" {
		return chat.FirstName
	}
	return fmt.Sprintf("%d", userID)
}

func (n *telegramNames) ChannelName(channelID int64) string {
	chat, err := n.bot.ChatByID(channelID)
	if err != nil || chat == nil {
		return fmt.Sprintf("%d", channelID)
	}
	if chat.Title != "" {
		return chat.Title
	}
	if chat.Username != "" {
		return chat.Username
	}
	return fmt.Sprintf("%d", channelID)
}
