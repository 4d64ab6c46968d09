package bot

import (
	"context"
	"fmt"

	"github.com/hidarfaqeeh/v0-hidarforward-uz/internal/model"
)

func (b *Bot) handleStart(chatID int64) {
	b.reply(chatID, `Welcome to the auto-forward bot!

Relay messages between chats with filtering and text processing.

Quick start:
1. Add this bot to the source and target chats
2. /newtask <name> <source_id> <target_id>[,<target_id>...] [forward|copy]
3. /tasks — see your tasks

Use /help for the full command reference.`)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Task management:
/newtask <name> <source_id> <target_id>[,...] [forward|copy] — create a task
/tasks — show all your tasks
/info <id> — task details
/pause <id> — pause forwarding
/resume <id> — resume forwarding
/deltask <id> — delete a task
/history <id> — recent deliveries
/reload — reload the routing table

Admin:
/ban <user_id> [reason] — ban a user globally
/unban <user_id> — lift a ban

Modes: forward keeps the original attribution, copy re-sends as a new
message and applies the task's text processing.`)
}

func (b *Bot) handleNewTask(ctx context.Context, chatID, userID int64, args string) {
	parsed, err := ParseNewTaskArgs(args)
	if err != nil {
		b.reply(chatID, err.Error())
		return
	}

	task := &model.Task{
		UserID:        userID,
		Name:          parsed.Name,
		SourceChatID:  parsed.SourceChatID,
		TargetChatIDs: parsed.TargetChatIDs,
		Mode:          parsed.Mode,
		IsActive:      true,
	}
	if err := b.store.CreateTask(ctx, task); err != nil {
		b.reply(chatID, fmt.Sprintf("Failed to save task: %v", err))
		return
	}
	if err := b.disp.Reload(ctx); err != nil {
		b.log.Error("reload after task create", "task_id", task.ID, "error", err)
	}

	b.reply(chatID, fmt.Sprintf("Task created!\n#%d %s\n%d -> %s [%s]",
		task.ID, task.Name, task.SourceChatID, formatTargets(task.TargetChatIDs), task.Mode))
}

func (b *Bot) handleTasks(ctx context.Context, chatID, userID int64) {
	tasks, err := b.store.ListUserTasks(ctx, userID)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, FormatTaskList(tasks))
}

func (b *Bot) handleInfo(ctx context.Context, chatID, userID int64, args string) {
	task, ok := b.ownedTask(ctx, chatID, userID, args, "/info <id>")
	if !ok {
		return
	}
	b.reply(chatID, FormatTaskInfo(task))
}

func (b *Bot) handleSetActive(ctx context.Context, chatID, userID int64, args string, active bool) {
	verb := "paused"
	usage := "/pause <id>"
	if active {
		verb = "resumed"
		usage = "/resume <id>"
	}

	task, ok := b.ownedTask(ctx, chatID, userID, args, usage)
	if !ok {
		return
	}

	if err := b.store.SetTaskActive(ctx, task.ID, active); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if err := b.disp.Reload(ctx); err != nil {
		b.log.Error("reload after task state change", "task_id", task.ID, "error", err)
	}
	b.reply(chatID, fmt.Sprintf("Task #%d \"%s\" %s.", task.ID, task.Name, verb))
}

func (b *Bot) handleDelTask(ctx context.Context, chatID, userID int64, args string) {
	task, ok := b.ownedTask(ctx, chatID, userID, args, "/deltask <id>")
	if !ok {
		return
	}

	if err := b.store.DeleteTask(ctx, task.ID, userID); err != nil {
		b.reply(chatID, fmt.Sprintf("Error deleting task: %v", err))
		return
	}
	if err := b.disp.Reload(ctx); err != nil {
		b.log.Error("reload after task delete", "task_id", task.ID, "error", err)
	}
	b.reply(chatID, fmt.Sprintf("Task #%d \"%s\" deleted.", task.ID, task.Name))
}

func (b *Bot) handleHistory(ctx context.Context, chatID, userID int64, args string) {
	task, ok := b.ownedTask(ctx, chatID, userID, args, "/history <id>")
	if !ok {
		return
	}

	recs, err := b.store.ListRecentDeliveries(ctx, task.ID, 10)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	b.reply(chatID, FormatHistory(task, recs))
}

func (b *Bot) handleReload(ctx context.Context, chatID int64) {
	if err := b.disp.Reload(ctx); err != nil {
		b.reply(chatID, fmt.Sprintf("Reload failed: %v", err))
		return
	}
	b.reply(chatID, "Routing table reloaded.")
}

func (b *Bot) handleSetBanned(ctx context.Context, chatID, userID int64, args string, banned bool) {
	if !b.cfg.IsAdmin(userID) {
		b.reply(chatID, "This command is for admins only.")
		return
	}

	target, reason, err := ParseBanArgs(args)
	if err != nil {
		if banned {
			b.reply(chatID, "Usage: /ban <user_id> [reason]")
		} else {
			b.reply(chatID, "Usage: /unban <user_id>")
		}
		return
	}
	if !banned {
		reason = ""
	}

	if err := b.store.SetUserBanned(ctx, target, banned, reason); err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if banned {
		b.reply(chatID, fmt.Sprintf("User %d banned.", target))
	} else {
		b.reply(chatID, fmt.Sprintf("User %d unbanned.", target))
	}
}

// ownedTask resolves a task id argument and checks ownership. Tasks
// belonging to other users are reported as not found.
func (b *Bot) ownedTask(ctx context.Context, chatID, userID int64, args, usage string) (*model.Task, bool) {
	id, err := ParseIDArg(args)
	if err != nil {
		b.reply(chatID, "Usage: "+usage)
		return nil, false
	}

	task, err := b.store.GetTask(ctx, id)
	if err != nil || task.UserID != userID {
		b.reply(chatID, fmt.Sprintf("Task #%d not found.", id))
		return nil, false
	}
	return task, true
}
