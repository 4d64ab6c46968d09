// Package filter implements the message filtering engine.
//
// Evaluation runs a fixed pipeline: global ban check, spam heuristic,
// forbidden-content heuristic, then the task's per-category filters in
// a fixed order, short-circuiting on the first rejection. A fault
// anywhere inside evaluation is caught and treated as accept, so a
// filtering bug can never silently black-hole legitimate traffic.
package filter

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/hidarfaqeeh/v0-hidarforward-uz/internal/model"
)

const (
	defaultSimilarityThreshold = 0.8
	defaultDuplicateLookback   = 10
	historyCap                 = 100
	dailyMessageLimit          = 100
)

// Directory provides the sender lookups the engine needs. Lookup
// errors are logged and treated as "no restriction" (fail-open).
type Directory interface {
	IsBanned(ctx context.Context, userID int64) (bool, error)
	IsPremium(ctx context.Context, userID int64) (bool, error)
}

// UserGetter is the subset of the storage layer StorageDirectory needs.
type UserGetter interface {
	GetUser(ctx context.Context, userID int64) (*model.User, error)
}

// StorageDirectory adapts a user store to the Directory interface.
type StorageDirectory struct {
	Users UserGetter
}

// IsBanned reports whether the user exists and carries the ban flag.
func (d StorageDirectory) IsBanned(ctx context.Context, userID int64) (bool, error) {
	u, err := d.Users.GetUser(ctx, userID)
	if err != nil || u == nil {
		return false, err
	}
	return u.IsBanned, nil
}

// IsPremium reports whether the user has an unexpired premium subscription.
func (d StorageDirectory) IsPremium(ctx context.Context, userID int64) (bool, error) {
	u, err := d.Users.GetUser(ctx, userID)
	if err != nil || u == nil {
		return false, err
	}
	return u.PremiumActive(time.Now()), nil
}

// senderHistory is the rolling per-sender state consulted by the spam,
// cooldown and duplicate checks.
type senderHistory struct {
	texts      []string
	lastSeen   time.Time
	countToday int
	day        string // "2006-01-02"
}

type categoryCheck struct {
	name string
	fn   func(ctx context.Context, msg *model.Message, cfg *model.FilterConfig) (bool, string)
}

// Engine evaluates messages against task filter configurations. It owns
// the per-sender message history, which the caller advances via Note
// once per inbound message; Evaluate itself never mutates it, so every
// task watching the same chat sees identical history for one message.
type Engine struct {
	dir Directory
	log *slog.Logger
	now func() time.Time

	mu      sync.Mutex
	history map[int64]*senderHistory

	checks []categoryCheck
}

// New creates an Engine backed by the given sender directory.
func New(dir Directory, log *slog.Logger) *Engine {
	e := &Engine{
		dir:     dir,
		log:     log,
		now:     time.Now,
		history: make(map[int64]*senderHistory),
	}
	e.checks = []categoryCheck{
		{"media_type", e.checkMediaType},
		{"text_content", e.checkTextContent},
		{"user_restrictions", e.checkUserRestrictions},
		{"time_based", e.checkTimeBased},
		{"size_limits", e.checkSizeLimits},
		{"language", e.checkLanguage},
		{"sentiment", e.checkSentiment},
		{"duplicate_detection", e.checkDuplicates},
		{"link_analysis", e.checkLinks},
		{"forwarded_restrictions", e.checkForwarded},
	}
	return e
}

// SetClock overrides the engine's time source (useful for testing).
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Evaluate runs the full filter pipeline and returns whether the
// message is accepted, plus a reason attributing any rejection to its
// category. A panic inside evaluation is recovered and reported as
// accept with filter_fault logged.
func (e *Engine) Evaluate(ctx context.Context, msg *model.Message, cfg model.FilterConfig) (accepted bool, reason string) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("filter evaluation fault, accepting message",
				"chat_id", msg.ChatID, "message_id", msg.ID, "panic", r, "filter_fault", true)
			accepted, reason = true, "filter fault - message accepted"
		}
	}()

	if e.senderBanned(ctx, msg) {
		return false, "sender globally banned"
	}
	if why, spam := e.isSpam(msg); spam {
		return false, "spam: " + why
	}
	if why, forbidden := hasForbiddenContent(msg.Content()); forbidden {
		return false, "forbidden content: " + why
	}

	for _, c := range e.checks {
		ok, why := c.fn(ctx, msg, &cfg)
		if !ok {
			return false, fmt.Sprintf("%s: %s", c.name, why)
		}
	}

	return true, "accepted"
}

func (e *Engine) senderBanned(ctx context.Context, msg *model.Message) bool {
	if msg.Sender == nil {
		return false
	}
	banned, err := e.dir.IsBanned(ctx, msg.Sender.ID)
	if err != nil {
		e.log.Error("ban lookup failed", "user_id", msg.Sender.ID, "error", err)
		return false
	}
	return banned
}

// Note records a handled message in the sender's rolling history. Call
// it exactly once per inbound message, after every interested task has
// evaluated it; calling it between evaluations would make one task's
// decision leak into its siblings' cooldown and duplicate checks.
func (e *Engine) Note(msg *model.Message) {
	if msg.Sender == nil {
		return
	}
	now := e.now()
	today := now.Format("2006-01-02")

	e.mu.Lock()
	defer e.mu.Unlock()

	h := e.history[msg.Sender.ID]
	if h == nil {
		h = &senderHistory{}
		e.history[msg.Sender.ID] = h
	}
	if h.day != today {
		h.day = today
		h.countToday = 0
	}
	h.countToday++
	h.lastSeen = now
	h.texts = append(h.texts, msg.Content())
	if len(h.texts) > historyCap {
		h.texts = h.texts[len(h.texts)-historyCap:]
	}
}

// senderStats returns a copy of the sender's history state.
func (e *Engine) senderStats(msg *model.Message) (texts []string, lastSeen time.Time, countToday int) {
	if msg.Sender == nil {
		return nil, time.Time{}, 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	h := e.history[msg.Sender.ID]
	if h == nil {
		return nil, time.Time{}, 0
	}
	if h.day != e.now().Format("2006-01-02") {
		countToday = 0
	} else {
		countToday = h.countToday
	}
	texts = make([]string, len(h.texts))
	copy(texts, h.texts)
	return texts, h.lastSeen, countToday
}

func (e *Engine) checkMediaType(_ context.Context, msg *model.Message, cfg *model.FilterConfig) (bool, string) {
	c := cfg.MediaType
	if c == nil || !c.Enabled {
		return true, ""
	}

	for _, kind := range c.BlockedTypes {
		if msg.Kind == kind {
			return false, fmt.Sprintf("blocked media type: %s", msg.Kind)
		}
	}
	if len(c.AllowedTypes) > 0 {
		allowed := false
		for _, kind := range c.AllowedTypes {
			if msg.Kind == kind {
				allowed = true
				break
			}
		}
		if !allowed {
			return false, fmt.Sprintf("media type not allowed: %s", msg.Kind)
		}
	}
	if c.MaxFileSizeMB > 0 && msg.FileSize > c.MaxFileSizeMB*1024*1024 {
		return false, fmt.Sprintf("file too large: %.1fMB", float64(msg.FileSize)/(1024*1024))
	}
	if c.MaxDurationSeconds > 0 && msg.Duration > c.MaxDurationSeconds {
		return false, fmt.Sprintf("media too long: %ds", msg.Duration)
	}
	return true, ""
}

func (e *Engine) checkTextContent(_ context.Context, msg *model.Message, cfg *model.FilterConfig) (bool, string) {
	c := cfg.TextContent
	if c == nil || !c.Enabled {
		return true, ""
	}
	text := msg.Content()
	if text == "" {
		return true, ""
	}
	lower := strings.ToLower(text)

	for _, word := range c.BannedWords {
		if strings.Contains(lower, strings.ToLower(word)) {
			return false, fmt.Sprintf("banned word: %s", word)
		}
	}
	if len(c.RequiredWords) > 0 {
		found := false
		for _, word := range c.RequiredWords {
			if strings.Contains(lower, strings.ToLower(word)) {
				found = true
				break
			}
		}
		if !found {
			return false, "missing required words"
		}
	}

	length := utf8.RuneCountInString(text)
	if c.MinLength > 0 && length < c.MinLength {
		return false, fmt.Sprintf("text too short: %d < %d", length, c.MinLength)
	}
	if c.MaxLength > 0 && length > c.MaxLength {
		return false, fmt.Sprintf("text too long: %d > %d", length, c.MaxLength)
	}

	for _, rule := range c.RegexPatterns {
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			continue
		}
		matched := re.MatchString(text)
		if rule.Action == model.RegexRequire && !matched {
			return false, fmt.Sprintf("required pattern missing: %s", rule.Pattern)
		}
		if rule.Action != model.RegexRequire && matched {
			return false, fmt.Sprintf("blocked pattern: %s", rule.Pattern)
		}
	}

	if c.MaxCharRepeat > 0 {
		counts := make(map[rune]int)
		for _, r := range text {
			counts[r]++
			if counts[r] > c.MaxCharRepeat {
				return false, fmt.Sprintf("excessive repetition of %q", r)
			}
		}
	}
	return true, ""
}

func (e *Engine) checkUserRestrictions(ctx context.Context, msg *model.Message, cfg *model.FilterConfig) (bool, string) {
	c := cfg.UserRestrictions
	if c == nil || !c.Enabled {
		return true, ""
	}
	if msg.Sender == nil {
		if c.BlockAnonymous {
			return false, "anonymous senders blocked"
		}
		return true, ""
	}

	if len(c.Whitelist) > 0 && !userInList(msg.Sender, c.Whitelist) {
		return false, "sender not in whitelist"
	}
	if userInList(msg.Sender, c.Blacklist) {
		return false, "sender in blacklist"
	}
	if c.BlockBots && msg.Sender.IsBot {
		return false, "bot senders blocked"
	}
	if c.RequireUsername && msg.Sender.Username == "" {
		return false, "username required"
	}
	if c.PremiumOnly {
		premium, err := e.dir.IsPremium(ctx, msg.Sender.ID)
		if err != nil {
			e.log.Error("premium lookup failed", "user_id", msg.Sender.ID, "error", err)
			return true, ""
		}
		if !premium {
			return false, "premium senders only"
		}
	}
	return true, ""
}

func (e *Engine) checkTimeBased(_ context.Context, msg *model.Message, cfg *model.FilterConfig) (bool, string) {
	c := cfg.TimeBased
	if c == nil || !c.Enabled {
		return true, ""
	}
	now := e.now()

	if c.EndHour > 0 || c.StartHour > 0 {
		hour := now.Hour()
		if hour < c.StartHour || hour > c.EndHour {
			return false, fmt.Sprintf("outside working hours: %02d:00", hour)
		}
	}
	if len(c.WorkingDays) > 0 {
		day := strings.ToLower(now.Weekday().String())
		found := false
		for _, d := range c.WorkingDays {
			if d == day {
				found = true
				break
			}
		}
		if !found {
			return false, fmt.Sprintf("day not allowed: %s", day)
		}
	}
	if c.CooldownSeconds > 0 && msg.Sender != nil {
		_, lastSeen, _ := e.senderStats(msg)
		if !lastSeen.IsZero() {
			elapsed := now.Sub(lastSeen)
			if cooldown := time.Duration(c.CooldownSeconds) * time.Second; elapsed < cooldown {
				return false, fmt.Sprintf("cooldown: %.0fs remaining", (cooldown - elapsed).Seconds())
			}
		}
	}
	return true, ""
}

func (e *Engine) checkSizeLimits(_ context.Context, msg *model.Message, cfg *model.FilterConfig) (bool, string) {
	c := cfg.SizeLimits
	if c == nil || !c.Enabled {
		return true, ""
	}

	if c.MaxTextLength > 0 {
		if length := utf8.RuneCountInString(msg.Content()); length > c.MaxTextLength {
			return false, fmt.Sprintf("text too long: %d > %d", length, c.MaxTextLength)
		}
	}
	if c.MaxFileSizeMB > 0 && msg.FileSize > c.MaxFileSizeMB*1024*1024 {
		return false, fmt.Sprintf("file too large: %.1fMB", float64(msg.FileSize)/(1024*1024))
	}
	if c.MaxWidth > 0 && msg.Width > c.MaxWidth {
		return false, fmt.Sprintf("width too large: %d > %d", msg.Width, c.MaxWidth)
	}
	if c.MaxHeight > 0 && msg.Height > c.MaxHeight {
		return false, fmt.Sprintf("height too large: %d > %d", msg.Height, c.MaxHeight)
	}
	return true, ""
}

func (e *Engine) checkLanguage(_ context.Context, msg *model.Message, cfg *model.FilterConfig) (bool, string) {
	c := cfg.Language
	if c == nil || !c.Enabled || c.RequiredLanguage == "" {
		return true, ""
	}
	text := msg.Content()
	if text == "" {
		return true, ""
	}
	if detected := detectLanguage(text); detected != c.RequiredLanguage {
		return false, fmt.Sprintf("language mismatch: %s != %s", detected, c.RequiredLanguage)
	}
	return true, ""
}

func (e *Engine) checkSentiment(_ context.Context, msg *model.Message, cfg *model.FilterConfig) (bool, string) {
	c := cfg.Sentiment
	if c == nil || !c.Enabled || len(c.AllowedSentiments) == 0 {
		return true, ""
	}
	text := msg.Content()
	if text == "" {
		return true, ""
	}
	sentiment := analyzeSentiment(text)
	for _, allowed := range c.AllowedSentiments {
		if sentiment == allowed {
			return true, ""
		}
	}
	return false, fmt.Sprintf("sentiment not allowed: %s", sentiment)
}

func (e *Engine) checkDuplicates(_ context.Context, msg *model.Message, cfg *model.FilterConfig) (bool, string) {
	c := cfg.Duplicates
	if c == nil || !c.Enabled {
		return true, ""
	}
	text := msg.Content()
	if text == "" {
		return true, ""
	}

	lookback := c.CheckLastN
	if lookback <= 0 {
		lookback = defaultDuplicateLookback
	}
	texts, _, _ := e.senderStats(msg)
	if len(texts) > lookback {
		texts = texts[len(texts)-lookback:]
	}

	if c.ExactMatch {
		for _, recent := range texts {
			if recent == text {
				return false, "duplicate message (exact)"
			}
		}
		return true, ""
	}

	threshold := c.SimilarityThreshold
	if threshold <= 0 {
		threshold = defaultSimilarityThreshold
	}
	for _, recent := range texts {
		if sim := similarity(text, recent); sim >= threshold {
			return false, fmt.Sprintf("duplicate message (similarity %.2f)", sim)
		}
	}
	return true, ""
}

func (e *Engine) checkLinks(_ context.Context, msg *model.Message, cfg *model.FilterConfig) (bool, string) {
	c := cfg.Links
	if c == nil || !c.Enabled {
		return true, ""
	}
	text := msg.Content()
	urls := extractURLs(text)

	if len(urls) == 0 {
		if c.RequireLinks {
			return false, "links required"
		}
		return true, ""
	}
	if c.BlockAllLinks {
		return false, "all links blocked"
	}

	for _, u := range urls {
		domain := extractDomain(u)
		for _, banned := range c.BannedDomains {
			if domain == banned {
				return false, fmt.Sprintf("banned domain: %s", domain)
			}
		}
	}
	if len(c.AllowedDomains) > 0 {
		for _, u := range urls {
			domain := extractDomain(u)
			allowed := false
			for _, d := range c.AllowedDomains {
				if domain == d {
					allowed = true
					break
				}
			}
			if !allowed {
				return false, fmt.Sprintf("domain not allowed: %s", domain)
			}
		}
	}
	if c.BlockShortened {
		for _, u := range urls {
			domain := extractDomain(u)
			for _, short := range shortenedDomains {
				if domain == short {
					return false, fmt.Sprintf("shortened link blocked: %s", domain)
				}
			}
		}
	}
	if c.CheckSafety {
		for _, u := range urls {
			if !urlSafe(u) {
				return false, fmt.Sprintf("unsafe link: %s", u)
			}
		}
	}
	return true, ""
}

func (e *Engine) checkForwarded(_ context.Context, msg *model.Message, cfg *model.FilterConfig) (bool, string) {
	c := cfg.Forwarded
	if c == nil || !c.Enabled {
		return true, ""
	}
	forwarded := msg.Forward != nil

	if c.BlockForwarded && forwarded {
		return false, "forwarded messages blocked"
	}
	if c.OnlyForwarded && !forwarded {
		return false, "only forwarded messages allowed"
	}
	if forwarded && c.CheckSource {
		source := msg.Forward.SourceID()
		for _, blocked := range c.BlockedSources {
			if source == blocked {
				return false, fmt.Sprintf("forward source blocked: %d", source)
			}
		}
		if len(c.AllowedSources) > 0 {
			allowed := false
			for _, s := range c.AllowedSources {
				if source == s {
					allowed = true
					break
				}
			}
			if !allowed {
				return false, fmt.Sprintf("forward source not allowed: %d", source)
			}
		}
	}
	return true, ""
}

// userInList matches a sender against a mixed list of numeric ids and
// (optionally @-prefixed) usernames.
func userInList(sender *model.Sender, list []string) bool {
	for _, entry := range list {
		if id, err := strconv.ParseInt(entry, 10, 64); err == nil && id == sender.ID {
			return true
		}
		if sender.Username != "" {
			if entry == sender.Username || entry == "@"+sender.Username {
				return true
			}
		}
	}
	return false
}

var urlRe = regexp.MustCompile(`https?://[^\s]+`)

func extractURLs(text string) []string {
	return urlRe.FindAllString(text, -1)
}

func extractDomain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

var shortenedDomains = []string{"bit.ly", "tinyurl.com", "t.co", "goo.gl", "ow.ly"}

// urlSafe is a static stand-in for an external URL reputation service.
var unsafeDomains = []string{"malware.com", "phishing.net", "spam.org", "virus.info", "scam.biz"}

func urlSafe(raw string) bool {
	domain := extractDomain(raw)
	for _, d := range unsafeDomains {
		if domain == d {
			return false
		}
	}
	return true
}

var arabicRe = regexp.MustCompile(`[\x{0600}-\x{06FF}]`)
var latinRe = regexp.MustCompile(`[a-zA-Z]`)

// detectLanguage classifies text by dominant script.
func detectLanguage(text string) string {
	arabic := len(arabicRe.FindAllString(text, -1))
	english := len(latinRe.FindAllString(text, -1))
	switch {
	case arabic > english:
		return "arabic"
	case english > arabic:
		return "english"
	default:
		return "mixed"
	}
}

var positiveWords = []string{"good", "great", "excellent", "جيد", "ممتاز", "رائع"}
var negativeWords = []string{"bad", "terrible", "awful", "سيء", "فظيع"}

// analyzeSentiment is a keyword-count heuristic.
func analyzeSentiment(text string) string {
	lower := strings.ToLower(text)
	positive, negative := 0, 0
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			positive++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			negative++
		}
	}
	switch {
	case positive > negative:
		return "positive"
	case negative > positive:
		return "negative"
	default:
		return "neutral"
	}
}

// similarity computes word-set Jaccard similarity between two texts.
// Two empty texts are defined as fully similar.
func similarity(a, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)
	if len(wordsA) == 0 && len(wordsB) == 0 {
		return 1.0
	}

	intersection := 0
	for w := range wordsA {
		if _, ok := wordsB[w]; ok {
			intersection++
		}
	}
	union := len(wordsA) + len(wordsB) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if w == "" {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}
