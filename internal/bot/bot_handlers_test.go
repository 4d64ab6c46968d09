package bot

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hidarfaqeeh/v0-hidarforward-uz/internal/config"
	"github.com/hidarfaqeeh/v0-hidarforward-uz/internal/model"
	"github.com/hidarfaqeeh/v0-hidarforward-uz/internal/storage"
)

// --- mocks ---

type sentMsg struct {
	ChatID int64
	Text   string
}

type mockAPI struct {
	mu   sync.Mutex
	sent []sentMsg
}

func (m *mockAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		m.mu.Lock()
		m.sent = append(m.sent, sentMsg{ChatID: msg.ChatID, Text: msg.Text})
		m.mu.Unlock()
	}
	return tgbotapi.Message{}, nil
}

func (m *mockAPI) GetUpdatesChan(_ tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(tgbotapi.UpdatesChannel)
}

func (m *mockAPI) StopReceivingUpdates() {}

func (m *mockAPI) lastText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	return m.sent[len(m.sent)-1].Text
}

type mockDispatcher struct {
	mu      sync.Mutex
	inbound []*model.Message
	reloads int
}

func (m *mockDispatcher) OnInboundMessage(_ context.Context, msg *model.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inbound = append(m.inbound, msg)
}

func (m *mockDispatcher) Reload(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reloads++
	return nil
}

// --- helpers ---

func newTestBot(t *testing.T) (*Bot, *mockAPI, *mockDispatcher, *storage.SQLite) {
	t.Helper()
	store, err := storage.NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	api := &mockAPI{}
	disp := &mockDispatcher{}
	b := &Bot{
		api:   api,
		store: store,
		cfg:   &config.Config{AdminUsers: []int64{1}},
		disp:  disp,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return b, api, disp, store
}

func seedTask(t *testing.T, store *storage.SQLite, userID int64) *model.Task {
	t.Helper()
	task := &model.Task{
		UserID:        userID,
		Name:          "news",
		SourceChatID:  -100123,
		TargetChatIDs: []int64{-100456},
		Mode:          model.ModeForward,
		IsActive:      true,
	}
	if err := store.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("seed task: %v", err)
	}
	return task
}

func requireContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Errorf("reply missing %q, got:\n%s", want, got)
	}
}

// --- handler tests ---

func TestHandleStart(t *testing.T) {
	b, api, _, _ := newTestBot(t)
	b.handleStart(100)
	requireContains(t, api.lastText(), "Welcome to the auto-forward bot")
}

func TestHandleHelp(t *testing.T) {
	b, api, _, _ := newTestBot(t)
	b.handleHelp(100)
	requireContains(t, api.lastText(), "/newtask")
	requireContains(t, api.lastText(), "/history")
}

func TestHandleNewTask(t *testing.T) {
	b, api, disp, store := newTestBot(t)
	ctx := context.Background()

	b.handleNewTask(ctx, 100, 7, "news -100123 -100456,-100789 copy")
	requireContains(t, api.lastText(), "Task created!")
	requireContains(t, api.lastText(), "[copy]")

	tasks, err := store.ListUserTasks(ctx, 7)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if disp.reloads != 1 {
		t.Errorf("expected 1 dispatcher reload, got %d", disp.reloads)
	}
}

func TestHandleNewTaskBadArgs(t *testing.T) {
	b, api, _, _ := newTestBot(t)
	b.handleNewTask(context.Background(), 100, 7, "news")
	requireContains(t, api.lastText(), "usage: /newtask")
}

func TestHandleTasksEmpty(t *testing.T) {
	b, api, _, _ := newTestBot(t)
	b.handleTasks(context.Background(), 100, 7)
	requireContains(t, api.lastText(), "no tasks yet")
}

func TestHandleInfoOwnershipHidden(t *testing.T) {
	b, api, _, store := newTestBot(t)
	ctx := context.Background()
	task := seedTask(t, store, 7)

	// Another user's task reads as not found.
	b.handleInfo(ctx, 100, 8, "1")
	requireContains(t, api.lastText(), "not found")

	b.handleInfo(ctx, 100, 7, "1")
	requireContains(t, api.lastText(), task.Name)
}

func TestHandlePauseResume(t *testing.T) {
	b, api, disp, store := newTestBot(t)
	ctx := context.Background()
	task := seedTask(t, store, 7)

	b.handleSetActive(ctx, 100, 7, "1", false)
	requireContains(t, api.lastText(), "paused")
	got, err := store.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.IsActive {
		t.Error("expected task to be paused")
	}

	b.handleSetActive(ctx, 100, 7, "1", true)
	requireContains(t, api.lastText(), "resumed")
	if disp.reloads != 2 {
		t.Errorf("expected 2 dispatcher reloads, got %d", disp.reloads)
	}
}

func TestHandleDelTask(t *testing.T) {
	b, api, _, store := newTestBot(t)
	ctx := context.Background()
	task := seedTask(t, store, 7)

	b.handleDelTask(ctx, 100, 7, "1")
	requireContains(t, api.lastText(), "deleted")

	if _, err := store.GetTask(ctx, task.ID); err == nil {
		t.Error("expected task to be gone")
	}
}

func TestHandleHistory(t *testing.T) {
	b, api, _, store := newTestBot(t)
	ctx := context.Background()
	task := seedTask(t, store, 7)

	b.handleHistory(ctx, 100, 7, "1")
	requireContains(t, api.lastText(), "No deliveries yet")

	rec := &model.DeliveryRecord{TaskID: task.ID, SourceMessageID: 50, Delivered: map[int64]int{-100456: 60}}
	if err := store.RecordDelivery(ctx, rec); err != nil {
		t.Fatalf("record delivery: %v", err)
	}
	b.handleHistory(ctx, 100, 7, "1")
	requireContains(t, api.lastText(), "msg 50 -> 1 chat(s)")
}

func TestHandleBanRequiresAdmin(t *testing.T) {
	b, api, _, store := newTestBot(t)
	ctx := context.Background()

	if err := store.UpsertUser(ctx, &model.User{ID: 42, Username: "mallory"}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	// User 2 is not in AdminUsers.
	b.handleSetBanned(ctx, 100, 2, "42 flooding", true)
	requireContains(t, api.lastText(), "admins only")

	b.handleSetBanned(ctx, 100, 1, "42 flooding", true)
	requireContains(t, api.lastText(), "User 42 banned")

	u, err := store.GetUser(ctx, 42)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if !u.IsBanned || u.BanReason != "flooding" {
		t.Errorf("expected banned user, got %+v", u)
	}

	b.handleSetBanned(ctx, 100, 1, "42", false)
	requireContains(t, api.lastText(), "User 42 unbanned")
}

func TestHandleUpdateRoutesInboundToDispatcher(t *testing.T) {
	b, _, disp, _ := newTestBot(t)
	ctx := context.Background()

	chat := &tgbotapi.Chat{ID: -100123}
	b.handleUpdate(ctx, tgbotapi.Update{
		Message: &tgbotapi.Message{
			MessageID: 50,
			Chat:      chat,
			From:      &tgbotapi.User{ID: 7},
			Text:      "plain group message",
		},
	})
	b.handleUpdate(ctx, tgbotapi.Update{
		ChannelPost: &tgbotapi.Message{
			MessageID: 51,
			Chat:      chat,
			Text:      "channel post",
		},
	})

	if len(disp.inbound) != 2 {
		t.Fatalf("expected 2 inbound messages, got %d", len(disp.inbound))
	}
	if disp.inbound[0].ID != 50 || disp.inbound[1].ID != 51 {
		t.Errorf("unexpected inbound ids: %d, %d", disp.inbound[0].ID, disp.inbound[1].ID)
	}
	if disp.inbound[1].Sender != nil {
		t.Error("channel post should have no sender")
	}
}

func TestHandleUpdateCommandNotForwarded(t *testing.T) {
	b, api, disp, _ := newTestBot(t)
	ctx := context.Background()

	msg := &tgbotapi.Message{
		MessageID: 50,
		Chat:      &tgbotapi.Chat{ID: 100},
		From:      &tgbotapi.User{ID: 7},
		Text:      "/tasks",
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}},
	}
	b.handleUpdate(ctx, tgbotapi.Update{Message: msg})

	if len(disp.inbound) != 0 {
		t.Errorf("commands must not enter the forwarding pipeline, got %d", len(disp.inbound))
	}
	requireContains(t, api.lastText(), "no tasks yet")
}
