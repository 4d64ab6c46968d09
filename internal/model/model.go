// Package model defines the domain types used across the application.
package model

import "time"

// ForwardMode defines how a task relays messages.
type ForwardMode string

// Supported forward modes.
const (
	// ModeForward re-posts natively, keeping the "forwarded from" attribution.
	ModeForward ForwardMode = "forward"
	// ModeCopy re-sends as a new message, allowing content transformation.
	ModeCopy ForwardMode = "copy"
)

// Task represents a user-configured forwarding rule: one source chat,
// N destination chats, a mode, filters and settings.
type Task struct {
	ID            int64
	UserID        int64
	Name          string
	SourceChatID  int64
	TargetChatIDs []int64
	Mode          ForwardMode
	IsActive      bool
	Filters       FilterConfig
	Settings      TaskSettings
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TaskSettings holds the per-task delivery and text-processing options.
// Stored as a JSON document in the tasks table.
type TaskSettings struct {
	DelaySeconds      int            `json:"delay_seconds,omitempty"`
	DisableWebPreview bool           `json:"disable_web_preview,omitempty"`
	WorkingHours      WorkingHours   `json:"working_hours"`
	TextProcessing    TextProcessing `json:"text_processing"`
	Advanced          Advanced       `json:"advanced"`
}

// WorkingHours restricts delivery to a time window. The window may wrap
// past midnight (start "22:00", end "06:00").
type WorkingHours struct {
	Enabled   bool     `json:"enabled"`
	StartTime string   `json:"start_time,omitempty"` // "HH:MM"
	EndTime   string   `json:"end_time,omitempty"`   // "HH:MM"
	Days      []string `json:"days,omitempty"`       // lowercase weekday names
}

// TextProcessing configures copy-mode content cleaning.
type TextProcessing struct {
	RemoveLinks          bool          `json:"remove_links,omitempty"`
	RemoveHashtags       bool          `json:"remove_hashtags,omitempty"`
	RemoveEmojis         bool          `json:"remove_emojis,omitempty"`
	RemoveLinesWithWords []string      `json:"remove_lines_with_words,omitempty"`
	RemoveEmptyLines     bool          `json:"remove_empty_lines,omitempty"`
	Replacements         []Replacement `json:"replacements,omitempty"`
	Header               string        `json:"add_header,omitempty"`
	Footer               string        `json:"add_footer,omitempty"`
}

// Replacement is a literal old→new text substitution, applied in order.
type Replacement struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// Advanced holds the remaining per-task delivery options.
type Advanced struct {
	PinMessages     bool       `json:"pin_messages,omitempty"`
	ReplyToOriginal bool       `json:"reply_to_message,omitempty"`
	CharLimit       int        `json:"char_limit,omitempty"`
	CustomButtons   [][]Button `json:"custom_buttons,omitempty"`
}

// Button is one declarative inline-keyboard button. Exactly one of URL
// or CallbackData should be set.
type Button struct {
	Text         string `json:"text"`
	URL          string `json:"url,omitempty"`
	CallbackData string `json:"callback_data,omitempty"`
}

// DeliveryRecord maps one source message to its delivered copies across
// destinations. Append-only.
type DeliveryRecord struct {
	ID              int64
	TaskID          int64
	SourceMessageID int
	Delivered       map[int64]int // destination chat id -> delivered message id
	ForwardedAt     time.Time
}

// User is a bot user as seen by the forwarding core: the ban flag and
// premium status are the fields the filter engine consults.
type User struct {
	ID             int64
	Username       string
	FirstName      string
	IsPremium      bool
	PremiumExpires *time.Time
	IsBanned       bool
	BanReason      string
	CreatedAt      time.Time
	LastActive     time.Time
}

// PremiumActive reports whether the user's premium subscription is
// valid at the given instant.
func (u *User) PremiumActive(now time.Time) bool {
	if !u.IsPremium {
		return false
	}
	if u.PremiumExpires != nil && u.PremiumExpires.Before(now) {
		return false
	}
	return true
}
