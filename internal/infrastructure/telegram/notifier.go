package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf16"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"JournalDigest/internal/config"
	"JournalDigest/internal/ports"
)

// maxMessageLen is Telegram's limit for one text message.
const maxMessageLen = 4096

// Notifier sends digests to a Telegram chat via bot API.
type Notifier struct {
	cfg    config.TelegramConfig
	client *http.Client
}

var _ ports.Sender = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(cfg config.TelegramConfig, timeout time.Duration) *Notifier {
	if cfg.APIEndpoint == "" {
		cfg.APIEndpoint = tgbotapi.APIEndpoint
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Notifier{cfg: cfg, client: &http.Client{Timeout: timeout}}
}

// Send posts the plain-text digest, split into as many messages as Telegram requires.
// It succeeds only when every part was accepted.
func (n *Notifier) Send(ctx context.Context, msg ports.Message) error {
	if n.cfg.BotToken == "" || n.cfg.ChatID == 0 {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	bot, err := tgbotapi.NewBotAPIWithClient(n.cfg.BotToken, n.cfg.APIEndpoint, n.client)
	if err != nil {
		return fmt.Errorf("telegram bot: %w", err)
	}

	text := msg.Subject + "\n\n" + msg.Text
	for i, part := range splitMessage(text, maxMessageLen) {
		if err := ctx.Err(); err != nil {
			return err
		}
		out := tgbotapi.NewMessage(n.cfg.ChatID, part)
		out.DisableWebPagePreview = true
		if _, err := bot.Send(out); err != nil {
			return fmt.Errorf("telegram send part %d: %w", i+1, err)
		}
	}
	return nil
}

// splitMessage cuts text at line boundaries so that no part exceeds limit UTF-16
// code units, the unit Telegram counts message length in.
func splitMessage(text string, limit int) []string {
	var (
		parts   []string
		current strings.Builder
		size    int
	)
	flush := func() {
		if part := strings.Trim(current.String(), "\n"); part != "" {
			parts = append(parts, part)
		}
		current.Reset()
		size = 0
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		if n := utf16Len(line); size+n > limit {
			flush()
		}
		for _, r := range line {
			n := utf16.RuneLen(r)
			if n < 0 {
				n = 1
			}
			if size+n > limit {
				flush()
			}
			current.WriteRune(r)
			size += n
		}
	}
	flush()
	return parts
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}
