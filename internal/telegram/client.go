// Package telegram adapts the Bot API to the interfaces the rest of
// the application consumes: a delivery client for the forwarder and
// ingestion of raw updates into domain messages.
package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hidarfaqeeh/v0-hidarforward-uz/internal/forwarder"
	"github.com/hidarfaqeeh/v0-hidarforward-uz/internal/model"
)

// Client implements forwarder.Client on top of the Bot API.
type Client struct {
	api *tgbotapi.BotAPI
}

// NewClient wraps an authorized Bot API handle.
func NewClient(api *tgbotapi.BotAPI) *Client {
	return &Client{api: api}
}

// ForwardMessage re-posts a message natively, keeping attribution.
func (c *Client) ForwardMessage(_ context.Context, dstChatID, srcChatID int64, messageID int) (int, error) {
	sent, err := c.api.Send(tgbotapi.NewForward(dstChatID, srcChatID, messageID))
	if err != nil {
		return 0, fmt.Errorf("forward message %d to %d: %w", messageID, dstChatID, err)
	}
	return sent.MessageID, nil
}

// SendText delivers a plain text message.
func (c *Client) SendText(_ context.Context, chatID int64, text string, opts forwarder.SendOptions) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = opts.DisableWebPreview
	msg.ReplyToMessageID = opts.ReplyTo
	if opts.ReplyMarkup != nil {
		msg.ReplyMarkup = *opts.ReplyMarkup
	}
	sent, err := c.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("send text to %d: %w", chatID, err)
	}
	return sent.MessageID, nil
}

// SendMedia delivers a media message by re-using the original file id.
func (c *Client) SendMedia(_ context.Context, chatID int64, kind model.MessageKind, fileID, caption string, opts forwarder.SendOptions) (int, error) {
	cfg, err := mediaConfig(chatID, kind, fileID, caption, opts)
	if err != nil {
		return 0, err
	}
	sent, err := c.api.Send(cfg)
	if err != nil {
		return 0, fmt.Errorf("send %s to %d: %w", kind, chatID, err)
	}
	return sent.MessageID, nil
}

func mediaConfig(chatID int64, kind model.MessageKind, fileID, caption string, opts forwarder.SendOptions) (tgbotapi.Chattable, error) {
	file := tgbotapi.FileID(fileID)
	var markup interface{}
	if opts.ReplyMarkup != nil {
		markup = *opts.ReplyMarkup
	}

	switch kind {
	case model.KindPhoto:
		cfg := tgbotapi.NewPhoto(chatID, file)
		cfg.Caption = caption
		cfg.ReplyToMessageID = opts.ReplyTo
		cfg.ReplyMarkup = markup
		return cfg, nil
	case model.KindVideo:
		cfg := tgbotapi.NewVideo(chatID, file)
		cfg.Caption = caption
		cfg.ReplyToMessageID = opts.ReplyTo
		cfg.ReplyMarkup = markup
		return cfg, nil
	case model.KindAudio:
		cfg := tgbotapi.NewAudio(chatID, file)
		cfg.Caption = caption
		cfg.ReplyToMessageID = opts.ReplyTo
		cfg.ReplyMarkup = markup
		return cfg, nil
	case model.KindVoice:
		cfg := tgbotapi.NewVoice(chatID, file)
		cfg.Caption = caption
		cfg.ReplyToMessageID = opts.ReplyTo
		cfg.ReplyMarkup = markup
		return cfg, nil
	case model.KindDocument:
		cfg := tgbotapi.NewDocument(chatID, file)
		cfg.Caption = caption
		cfg.ReplyToMessageID = opts.ReplyTo
		cfg.ReplyMarkup = markup
		return cfg, nil
	case model.KindSticker:
		cfg := tgbotapi.NewSticker(chatID, file)
		cfg.ReplyToMessageID = opts.ReplyTo
		cfg.ReplyMarkup = markup
		return cfg, nil
	case model.KindAnimation:
		cfg := tgbotapi.NewAnimation(chatID, file)
		cfg.Caption = caption
		cfg.ReplyToMessageID = opts.ReplyTo
		cfg.ReplyMarkup = markup
		return cfg, nil
	default:
		return nil, fmt.Errorf("unsupported media kind %q", kind)
	}
}

// SendLocation delivers a geographic point.
func (c *Client) SendLocation(_ context.Context, chatID int64, latitude, longitude float64, opts forwarder.SendOptions) (int, error) {
	cfg := tgbotapi.NewLocation(chatID, latitude, longitude)
	cfg.ReplyToMessageID = opts.ReplyTo
	sent, err := c.api.Send(cfg)
	if err != nil {
		return 0, fmt.Errorf("send location to %d: %w", chatID, err)
	}
	return sent.MessageID, nil
}

// SendContact delivers a phone contact.
func (c *Client) SendContact(_ context.Context, chatID int64, phoneNumber, firstName, lastName string, opts forwarder.SendOptions) (int, error) {
	cfg := tgbotapi.NewContact(chatID, phoneNumber, firstName)
	cfg.LastName = lastName
	cfg.ReplyToMessageID = opts.ReplyTo
	sent, err := c.api.Send(cfg)
	if err != nil {
		return 0, fmt.Errorf("send contact to %d: %w", chatID, err)
	}
	return sent.MessageID, nil
}

// PinMessage pins a delivered message without notifying members.
func (c *Client) PinMessage(_ context.Context, chatID int64, messageID int) error {
	cfg := tgbotapi.PinChatMessageConfig{
		ChatID:              chatID,
		MessageID:           messageID,
		DisableNotification: true,
	}
	if _, err := c.api.Request(cfg); err != nil {
		return fmt.Errorf("pin message %d in %d: %w", messageID, chatID, err)
	}
	return nil
}
