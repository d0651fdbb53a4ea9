package notify

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxTextRunes keeps the escaped message under Telegram's 4096 character limit.
const maxTextRunes = 3500

// TelegramNotifier posts messages to one chat.
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	return NewTelegramNotifierWithEndpoint(token, tgbotapi.APIEndpoint, chatID)
}

// NewTelegramNotifierWithEndpoint targets a custom Bot API endpoint such as a local bot server.
func NewTelegramNotifierWithEndpoint(token, endpoint string, chatID int64) (*TelegramNotifier, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("telegram chat id is required")
	}
	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] telegram notifier authorized on account %s", api.Self.UserName)

	return &TelegramNotifier{api: api, chatID: chatID}, nil
}

// Notify sends text with its first line in bold.
func (n *TelegramNotifier) Notify(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.chatID, FormatHTML(text))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// FormatHTML escapes text for Telegram's HTML mode with the first line in bold.
func FormatHTML(text string) string {
	text = truncate(strings.TrimSpace(text), maxTextRunes)
	head, rest, _ := strings.Cut(text, "\n")
	out := "<b>" + html.EscapeString(head) + "</b>"
	if rest != "" {
		out += "\n" + html.EscapeString(rest)
	}
	return out
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}
