package bot

import (
	"context"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hidarfaqeeh/v0-hidarforward-uz/internal/config"
	"github.com/hidarfaqeeh/v0-hidarforward-uz/internal/model"
	"github.com/hidarfaqeeh/v0-hidarforward-uz/internal/storage"
	"github.com/hidarfaqeeh/v0-hidarforward-uz/internal/telegram"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// dispatcher is the forwarding pipeline surface the bot drives.
type dispatcher interface {
	OnInboundMessage(ctx context.Context, msg *model.Message)
	Reload(ctx context.Context) error
}

// Bot handles user commands and feeds monitored-chat traffic into the
// forwarding dispatcher.
type Bot struct {
	api   telegramAPI
	store storage.Storage
	cfg   *config.Config
	disp  dispatcher
	log   *slog.Logger
}

// New creates a Bot on an already-authorized API handle. The same
// handle is shared with the delivery client.
func New(api *tgbotapi.BotAPI, store storage.Storage, cfg *config.Config, disp dispatcher, log *slog.Logger) *Bot {
	return &Bot{
		api:   api,
		store: store,
		cfg:   cfg,
		disp:  disp,
		log:   log,
	}
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.ChannelPost != nil {
		b.disp.OnInboundMessage(ctx, telegram.Ingest(update.ChannelPost))
		return
	}
	if update.Message == nil {
		return
	}
	if !update.Message.IsCommand() {
		b.disp.OnInboundMessage(ctx, telegram.Ingest(update.Message))
		return
	}
	b.handleCommand(ctx, update.Message)
}

// SendMessage sends a text message to the given chat.
func (b *Bot) SendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.SendMessage(chatID, text)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID
	userID := msg.From.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID, "user_id", userID)
	b.trackUser(ctx, msg.From)

	switch cmd {
	case "start":
		b.handleStart(chatID)
	case "help":
		b.handleHelp(chatID)
	case "newtask":
		b.handleNewTask(ctx, chatID, userID, args)
	case "tasks":
		b.handleTasks(ctx, chatID, userID)
	case "info":
		b.handleInfo(ctx, chatID, userID, args)
	case "pause":
		b.handleSetActive(ctx, chatID, userID, args, false)
	case "resume":
		b.handleSetActive(ctx, chatID, userID, args, true)
	case "deltask":
		b.handleDelTask(ctx, chatID, userID, args)
	case "history":
		b.handleHistory(ctx, chatID, userID, args)
	case "reload":
		b.handleReload(ctx, chatID)
	case "ban":
		b.handleSetBanned(ctx, chatID, userID, args, true)
	case "unban":
		b.handleSetBanned(ctx, chatID, userID, args, false)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}

// trackUser refreshes the sender's user record. Ban and premium flags
// are preserved by the upsert.
func (b *Bot) trackUser(ctx context.Context, from *tgbotapi.User) {
	if from == nil {
		return
	}
	u := &model.User{
		ID:        from.ID,
		Username:  from.UserName,
		FirstName: from.FirstName,
	}
	if err := b.store.UpsertUser(ctx, u); err != nil {
		b.log.Error("upsert user", "user_id", from.ID, "error", err)
	}
}
