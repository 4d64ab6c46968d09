package filter

import (
	"regexp"
	"strings"

	"github.com/hidarfaqeeh/v0-hidarforward-uz/internal/model"
)

var spamPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(win|won|winner).*(prize|money|cash)`),
	regexp.MustCompile(`(?i)(click|visit).*(link|url)`),
	regexp.MustCompile(`(?i)(free|gratis).*(download|gift)`),
	regexp.MustCompile(`(?i)(urgent|hurry|limited time)`),
	regexp.MustCompile(`(\$|€|£|USD|EUR)\s*\d+`),
}

var spamKeywords = []string{
	"spam", "scam", "phishing", "malware",
	"free money", "easy money", "get rich quick",
}

// isSpam applies the built-in spam heuristics: known spam wording,
// a daily per-sender rate limit, repetition within the sender's last
// messages, and shortened-link abuse.
func (e *Engine) isSpam(msg *model.Message) (string, bool) {
	text := msg.Content()
	lower := strings.ToLower(text)

	for _, re := range spamPatterns {
		if re.MatchString(text) {
			return "matches spam pattern", true
		}
	}
	for _, kw := range spamKeywords {
		if strings.Contains(lower, kw) {
			return "contains spam keyword", true
		}
	}

	texts, _, countToday := e.senderStats(msg)
	if countToday > dailyMessageLimit {
		return "daily message limit exceeded", true
	}
	if text != "" {
		recent := texts
		if len(recent) > defaultDuplicateLookback {
			recent = recent[len(recent)-defaultDuplicateLookback:]
		}
		identical := 0
		for _, r := range recent {
			if r == text {
				identical++
			}
		}
		if identical >= 3 {
			return "message repeated too often", true
		}
	}

	for _, u := range extractURLs(text) {
		domain := extractDomain(u)
		for _, short := range shortenedDomains {
			if domain == short {
				return "shortened link", true
			}
		}
	}
	return "", false
}
