package model

// FilterConfig is a task's complete filter configuration, one optional
// sub-document per category. A nil or disabled category always passes.
// Stored as a JSON document in the tasks table.
type FilterConfig struct {
	MediaType        *MediaTypeFilter   `json:"media_type,omitempty"`
	TextContent      *TextContentFilter `json:"text_content,omitempty"`
	UserRestrictions *UserFilter        `json:"user_restrictions,omitempty"`
	TimeBased        *TimeFilter        `json:"time_based,omitempty"`
	SizeLimits       *SizeFilter        `json:"size_limits,omitempty"`
	Language         *LanguageFilter    `json:"language,omitempty"`
	Sentiment        *SentimentFilter   `json:"sentiment,omitempty"`
	Duplicates       *DuplicateFilter   `json:"duplicate_detection,omitempty"`
	Links            *LinkFilter        `json:"link_analysis,omitempty"`
	Forwarded        *ForwardedFilter   `json:"forwarded_restrictions,omitempty"`
}

// MediaTypeFilter accepts or rejects by classified message kind,
// file size and media duration.
type MediaTypeFilter struct {
	Enabled            bool          `json:"enabled"`
	AllowedTypes       []MessageKind `json:"allowed_types,omitempty"`
	BlockedTypes       []MessageKind `json:"blocked_types,omitempty"`
	MaxFileSizeMB      int64         `json:"max_file_size_mb,omitempty"`
	MaxDurationSeconds int           `json:"max_duration_seconds,omitempty"`
}

// RegexAction controls whether a pattern blocks on match or on absence.
type RegexAction string

// Supported regex actions.
const (
	RegexBlock   RegexAction = "block"
	RegexRequire RegexAction = "require"
)

// RegexRule is one pattern with its declared action.
type RegexRule struct {
	Pattern string      `json:"pattern"`
	Action  RegexAction `json:"action"`
}

// TextContentFilter rejects on banned words, missing required words,
// length bounds, regex rules, and excessive character repetition.
type TextContentFilter struct {
	Enabled       bool        `json:"enabled"`
	BannedWords   []string    `json:"banned_words,omitempty"`
	RequiredWords []string    `json:"required_words,omitempty"`
	MinLength     int         `json:"min_length,omitempty"`
	MaxLength     int         `json:"max_length,omitempty"`
	RegexPatterns []RegexRule `json:"regex_patterns,omitempty"`
	MaxCharRepeat int         `json:"max_char_repeat,omitempty"`
}

// UserFilter restricts by sender identity. List entries are numeric ids
// or "@username" strings.
type UserFilter struct {
	Enabled         bool     `json:"enabled"`
	Whitelist       []string `json:"whitelist,omitempty"`
	Blacklist       []string `json:"blacklist,omitempty"`
	BlockBots       bool     `json:"block_bots,omitempty"`
	BlockAnonymous  bool     `json:"block_anonymous,omitempty"`
	RequireUsername bool     `json:"require_username,omitempty"`
	PremiumOnly     bool     `json:"premium_only,omitempty"`
}

// TimeFilter restricts by hour window, weekday set, and per-sender
// cooldown.
type TimeFilter struct {
	Enabled         bool     `json:"enabled"`
	StartHour       int      `json:"start_hour,omitempty"`
	EndHour         int      `json:"end_hour,omitempty"`
	WorkingDays     []string `json:"working_days,omitempty"` // lowercase weekday names
	CooldownSeconds int      `json:"cooldown_seconds,omitempty"`
}

// SizeFilter caps text length, file size and media dimensions.
type SizeFilter struct {
	Enabled       bool  `json:"enabled"`
	MaxTextLength int   `json:"max_text_length,omitempty"`
	MaxFileSizeMB int64 `json:"max_file_size_mb,omitempty"`
	MaxWidth      int   `json:"max_width,omitempty"`
	MaxHeight     int   `json:"max_height,omitempty"`
}

// LanguageFilter requires a detected script ("arabic", "english").
type LanguageFilter struct {
	Enabled          bool   `json:"enabled"`
	RequiredLanguage string `json:"required_language,omitempty"`
}

// SentimentFilter accepts only listed sentiments ("positive",
// "negative", "neutral").
type SentimentFilter struct {
	Enabled           bool     `json:"enabled"`
	AllowedSentiments []string `json:"allowed_sentiments,omitempty"`
}

// DuplicateFilter rejects messages too similar to the sender's recent
// ones. A zero SimilarityThreshold means the 0.8 default.
type DuplicateFilter struct {
	Enabled             bool    `json:"enabled"`
	ExactMatch          bool    `json:"exact_match,omitempty"`
	SimilarityThreshold float64 `json:"similarity_threshold,omitempty"`
	CheckLastN          int     `json:"check_last_n,omitempty"`
}

// LinkFilter applies URL policies: block-all, domain allow/deny lists,
// shortened-domain blocking and an external safety check.
type LinkFilter struct {
	Enabled        bool     `json:"enabled"`
	RequireLinks   bool     `json:"require_links,omitempty"`
	BlockAllLinks  bool     `json:"block_all_links,omitempty"`
	AllowedDomains []string `json:"allowed_domains,omitempty"`
	BannedDomains  []string `json:"banned_domains,omitempty"`
	BlockShortened bool     `json:"block_shortened_urls,omitempty"`
	CheckSafety    bool     `json:"check_url_safety,omitempty"`
}

// ForwardedFilter restricts messages that were themselves forwarded.
type ForwardedFilter struct {
	Enabled        bool    `json:"enabled"`
	BlockForwarded bool    `json:"block_forwarded,omitempty"`
	OnlyForwarded  bool    `json:"only_forwarded,omitempty"`
	CheckSource    bool    `json:"check_forward_source,omitempty"`
	AllowedSources []int64 `json:"allowed_forward_sources,omitempty"`
	BlockedSources []int64 `json:"blocked_forward_sources,omitempty"`
}
