package bot

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hidarfaqeeh/v0-hidarforward-uz/internal/model"
)

// NewTaskArgs holds the parsed arguments of /newtask.
type NewTaskArgs struct {
	Name          string
	SourceChatID  int64
	TargetChatIDs []int64
	Mode          model.ForwardMode
}

// ParseNewTaskArgs parses arguments for /newtask.
// Format: <name> <source_chat_id> <target_id>[,<target_id>...] [forward|copy]
func ParseNewTaskArgs(args string) (NewTaskArgs, error) {
	usage := fmt.Errorf("usage: /newtask <name> <source_id> <target_id>[,<target_id>...] [forward|copy]")

	parts := strings.Fields(args)
	if len(parts) < 3 {
		return NewTaskArgs{}, usage
	}

	mode := model.ModeForward
	last := parts[len(parts)-1]
	if last == string(model.ModeForward) || last == string(model.ModeCopy) {
		mode = model.ForwardMode(last)
		parts = parts[:len(parts)-1]
	}
	if len(parts) < 3 {
		return NewTaskArgs{}, usage
	}

	targets, err := parseChatIDList(parts[len(parts)-1])
	if err != nil {
		return NewTaskArgs{}, err
	}
	source, err := strconv.ParseInt(parts[len(parts)-2], 10, 64)
	if err != nil {
		return NewTaskArgs{}, fmt.Errorf("invalid source chat ID %q", parts[len(parts)-2])
	}

	name := strings.Join(parts[:len(parts)-2], " ")
	if n := utf8.RuneCountInString(name); n < 3 || n > 50 {
		return NewTaskArgs{}, fmt.Errorf("task name must be 3-50 characters")
	}

	return NewTaskArgs{
		Name:          name,
		SourceChatID:  source,
		TargetChatIDs: targets,
		Mode:          mode,
	}, nil
}

func parseChatIDList(s string) ([]int64, error) {
	var ids []int64
	seen := make(map[int64]struct{})
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid target chat ID %q", part)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("at least one target chat ID is required")
	}
	return ids, nil
}

// ParseIDArg extracts a numeric ID from a command argument string.
func ParseIDArg(args string) (int64, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return 0, fmt.Errorf("task ID is required")
	}
	id, err := strconv.ParseInt(strings.Fields(s)[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid task ID %q", s)
	}
	return id, nil
}

// ParseBanArgs extracts a user id and optional reason from /ban arguments.
func ParseBanArgs(args string) (int64, string, error) {
	parts := strings.SplitN(strings.TrimSpace(args), " ", 2)
	if parts[0] == "" {
		return 0, "", fmt.Errorf("user ID is required")
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid user ID %q", parts[0])
	}
	reason := ""
	if len(parts) == 2 {
		reason = strings.TrimSpace(parts[1])
	}
	return id, reason, nil
}
