package forwarder

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hidarfaqeeh/v0-hidarforward-uz/internal/model"
)

// SendOptions carries the per-delivery options a task can configure.
type SendOptions struct {
	DisableWebPreview bool
	ReplyTo           int
	ReplyMarkup       *tgbotapi.InlineKeyboardMarkup
}

// Client is the messaging surface the dispatcher delivers through.
// Implementations return the delivered message id on success.
type Client interface {
	ForwardMessage(ctx context.Context, dstChatID, srcChatID int64, messageID int) (int, error)
	SendText(ctx context.Context, chatID int64, text string, opts SendOptions) (int, error)
	SendMedia(ctx context.Context, chatID int64, kind model.MessageKind, fileID, caption string, opts SendOptions) (int, error)
	SendLocation(ctx context.Context, chatID int64, latitude, longitude float64, opts SendOptions) (int, error)
	SendContact(ctx context.Context, chatID int64, phoneNumber, firstName, lastName string, opts SendOptions) (int, error)
	PinMessage(ctx context.Context, chatID int64, messageID int) error
}

// FailureKind buckets delivery errors for logging and diagnostics.
type FailureKind string

// Delivery failure buckets.
const (
	// FailForbidden means the bot lacks access to the destination
	// (kicked, not a member, or missing rights).
	FailForbidden FailureKind = "forbidden"
	// FailBadRequest means the destination or payload was rejected.
	FailBadRequest FailureKind = "bad_request"
	// FailOther covers transient and unclassified errors.
	FailOther FailureKind = "other"
)

// classifyFailure maps an API error to its failure bucket.
func classifyFailure(err error) FailureKind {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 403:
			return FailForbidden
		case 400:
			return FailBadRequest
		}
	}
	return FailOther
}
