package telegram

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	"github.com/mymmrac/telego/telegoapi"

	"ftpgram/internal/services"
)

// Receipt records a confirmed delivery.
type Receipt struct {
	MessageID int64
}

// Sender delivers local files to the configured chat.
type Sender interface {
	// SendVideo uploads an MP4 as a playable video message.
	SendVideo(ctx context.Context, path, caption string) (Receipt, error)
	// SendDocument uploads any file as a document attachment.
	SendDocument(ctx context.Context, path, caption string) (Receipt, error)
	// Ping verifies the bot token against the API.
	Ping(ctx context.Context) error
}

// Bot is a Sender backed by the Telegram Bot API.
type Bot struct {
	bot    *telego.Bot
	chatID telego.ChatID
}

// NewBot constructs a Sender for the given bot token and chat. The chat may
// be a numeric identifier or an @channel username.
func NewBot(token, chat string) (*Bot, error) {
	bot, err := telego.NewBot(token, telego.WithDefaultLogger(false, false))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "telegram", "new bot", "invalid bot token", err)
	}
	return &Bot{bot: bot, chatID: ParseChatID(chat)}, nil
}

// ParseChatID interprets a configured chat string as a numeric ID or username.
func ParseChatID(chat string) telego.ChatID {
	chat = strings.TrimSpace(chat)
	if id, err := strconv.ParseInt(chat, 10, 64); err == nil {
		return telego.ChatID{ID: id}
	}
	if !strings.HasPrefix(chat, "@") {
		chat = "@" + chat
	}
	return telego.ChatID{Username: chat}
}

// SendVideo implements Sender.
func (b *Bot) SendVideo(ctx context.Context, path, caption string) (Receipt, error) {
	file, err := os.Open(path)
	if err != nil {
		return Receipt{}, services.Wrap(services.ErrValidation, "telegram", "send video", "open artifact", err)
	}
	defer file.Close()

	message, err := b.bot.SendVideo(ctx, &telego.SendVideoParams{
		ChatID:            b.chatID,
		Video:             telego.InputFile{File: file},
		Caption:           caption,
		SupportsStreaming: true,
	})
	if err != nil {
		return Receipt{}, classify("send video", err)
	}
	return Receipt{MessageID: int64(message.MessageID)}, nil
}

// SendDocument implements Sender.
func (b *Bot) SendDocument(ctx context.Context, path, caption string) (Receipt, error) {
	file, err := os.Open(path)
	if err != nil {
		return Receipt{}, services.Wrap(services.ErrValidation, "telegram", "send document", "open artifact", err)
	}
	defer file.Close()

	message, err := b.bot.SendDocument(ctx, &telego.SendDocumentParams{
		ChatID:   b.chatID,
		Document: telego.InputFile{File: file},
		Caption:  caption,
	})
	if err != nil {
		return Receipt{}, classify("send document", err)
	}
	return Receipt{MessageID: int64(message.MessageID)}, nil
}

// Ping implements Sender.
func (b *Bot) Ping(ctx context.Context) error {
	if _, err := b.bot.GetMe(ctx); err != nil {
		return classify("get me", err)
	}
	return nil
}

// classify maps Bot API failures onto the bridge error taxonomy. Client
// rejections (bad request, auth, missing chat) will not change on retry;
// rate limits, server errors and network faults may.
func classify(operation string, err error) error {
	var apiErr *telegoapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.ErrorCode == 429:
			return services.Wrap(services.ErrTransient, "telegram", operation, "rate limited", err)
		case apiErr.ErrorCode >= 500:
			return services.Wrap(services.ErrTransient, "telegram", operation, fmt.Sprintf("server error %d", apiErr.ErrorCode), err)
		case apiErr.ErrorCode == 400 || apiErr.ErrorCode == 401 || apiErr.ErrorCode == 403 || apiErr.ErrorCode == 404:
			return services.Wrap(services.ErrPermanent, "telegram", operation, fmt.Sprintf("rejected with %d", apiErr.ErrorCode), err)
		default:
			return services.Wrap(services.ErrTransient, "telegram", operation, fmt.Sprintf("api error %d", apiErr.ErrorCode), err)
		}
	}
	return services.Wrap(services.ErrTransient, "telegram", operation, "request failed", err)
}

var _ Sender = (*Bot)(nil)
