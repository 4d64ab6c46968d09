package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hidarfaqeeh/v0-hidarforward-uz/internal/model"
)

const (
	statusActive = "active"
	statusPaused = "paused"
)

func formatTargets(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}

// FormatTaskList formats a user's tasks for display.
func FormatTaskList(tasks []model.Task) string {
	if len(tasks) == 0 {
		return "You have no tasks yet. Use /newtask to create one."
	}
	var b strings.Builder
	b.WriteString("Your tasks:\n")
	for _, t := range tasks {
		status := statusActive
		if !t.IsActive {
			status = statusPaused
		}
		fmt.Fprintf(&b, "\n#%d %s [%s, %s]\n", t.ID, t.Name, t.Mode, status)
		fmt.Fprintf(&b, "   %d -> %s\n", t.SourceChatID, formatTargets(t.TargetChatIDs))
	}
	return b.String()
}

// FormatTaskInfo formats detailed information about a single task.
func FormatTaskInfo(t *model.Task) string {
	var b strings.Builder
	status := statusActive
	if !t.IsActive {
		status = statusPaused
	}
	fmt.Fprintf(&b, "#%d %s [%s]\n", t.ID, t.Name, status)
	fmt.Fprintf(&b, "Mode: %s\n", t.Mode)
	fmt.Fprintf(&b, "Source: %d\n", t.SourceChatID)
	fmt.Fprintf(&b, "Targets: %s\n", formatTargets(t.TargetChatIDs))
	if t.Settings.DelaySeconds > 0 {
		fmt.Fprintf(&b, "Delay: %ds\n", t.Settings.DelaySeconds)
	}
	if t.Settings.WorkingHours.Enabled {
		fmt.Fprintf(&b, "Working hours: %s-%s\n", t.Settings.WorkingHours.StartTime, t.Settings.WorkingHours.EndTime)
	}
	if n := countEnabledFilters(t.Filters); n > 0 {
		fmt.Fprintf(&b, "Filters: %d enabled\n", n)
	} else {
		b.WriteString("Filters: none\n")
	}
	fmt.Fprintf(&b, "Created: %s\n", t.CreatedAt.Format("2006-01-02 15:04 UTC"))
	return b.String()
}

func countEnabledFilters(f model.FilterConfig) int {
	n := 0
	if f.MediaType != nil && f.MediaType.Enabled {
		n++
	}
	if f.TextContent != nil && f.TextContent.Enabled {
		n++
	}
	if f.UserRestrictions != nil && f.UserRestrictions.Enabled {
		n++
	}
	if f.TimeBased != nil && f.TimeBased.Enabled {
		n++
	}
	if f.SizeLimits != nil && f.SizeLimits.Enabled {
		n++
	}
	if f.Language != nil && f.Language.Enabled {
		n++
	}
	if f.Sentiment != nil && f.Sentiment.Enabled {
		n++
	}
	if f.Duplicates != nil && f.Duplicates.Enabled {
		n++
	}
	if f.Links != nil && f.Links.Enabled {
		n++
	}
	if f.Forwarded != nil && f.Forwarded.Enabled {
		n++
	}
	return n
}

// FormatHistory formats a task's recent delivery records, newest first.
func FormatHistory(t *model.Task, recs []model.DeliveryRecord) string {
	if len(recs) == 0 {
		return fmt.Sprintf("No deliveries yet for #%d \"%s\".", t.ID, t.Name)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Recent deliveries for #%d \"%s\":\n", t.ID, t.Name)
	for _, r := range recs {
		fmt.Fprintf(&b, "\nmsg %d -> %d chat(s) at %s\n",
			r.SourceMessageID, len(r.Delivered), r.ForwardedAt.Format("2006-01-02 15:04 UTC"))
	}
	return b.String()
}
