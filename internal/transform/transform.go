// Package transform implements copy-mode content transformation: text
// cleaning, header/footer framing, length capping and inline keyboard
// construction. All functions are pure; the forwarder applies them once
// per source message before delivery.
package transform

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/forPelevin/gomoji"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hidarfaqeeh/v0-hidarforward-uz/internal/model"
)

var (
	linkRe    = regexp.MustCompile(`https?://\S+|www\.\S+`)
	hashtagRe = regexp.MustCompile(`#\w+`)
)

// Result is the transformed content ready for delivery.
type Result struct {
	Text        string
	ReplyMarkup *tgbotapi.InlineKeyboardMarkup
}

// Apply runs the full transformation pipeline over the message's text
// (or caption) and returns the content to deliver.
func Apply(text string, p model.TextProcessing, adv model.Advanced) Result {
	out := Clean(text, p)

	if p.Header != "" {
		if out != "" {
			out = p.Header + "\n\n" + out
		} else {
			out = p.Header
		}
	}
	if p.Footer != "" {
		if out != "" {
			out = out + "\n\n" + p.Footer
		} else {
			out = p.Footer
		}
	}
	if adv.CharLimit > 0 {
		out = truncate(out, adv.CharLimit)
	}

	return Result{Text: out, ReplyMarkup: Keyboard(adv.CustomButtons)}
}

// Clean applies the configured text-cleaning steps in a fixed order:
// links, hashtags, emoji, line removal, replacements, then a final trim.
func Clean(text string, p model.TextProcessing) string {
	if text == "" {
		return ""
	}
	out := text

	if p.RemoveLinks {
		out = linkRe.ReplaceAllString(out, "")
	}
	if p.RemoveHashtags {
		out = hashtagRe.ReplaceAllString(out, "")
	}
	if p.RemoveEmojis {
		out = gomoji.RemoveEmojis(out)
	}

	if len(p.RemoveLinesWithWords) > 0 || p.RemoveEmptyLines {
		lines := strings.Split(out, "\n")
		kept := lines[:0]
		for _, line := range lines {
			if p.RemoveEmptyLines && strings.TrimSpace(line) == "" {
				continue
			}
			if lineContainsAny(line, p.RemoveLinesWithWords) {
				continue
			}
			kept = append(kept, line)
		}
		out = strings.Join(kept, "\n")
	}

	for _, r := range p.Replacements {
		if r.Old == "" {
			continue
		}
		out = strings.ReplaceAll(out, r.Old, r.New)
	}

	return strings.TrimSpace(out)
}

func lineContainsAny(line string, words []string) bool {
	if len(words) == 0 {
		return false
	}
	lower := strings.ToLower(line)
	for _, w := range words {
		if w != "" && strings.Contains(lower, strings.ToLower(w)) {
			return true
		}
	}
	return false
}

// truncate caps text at limit runes, marking the cut with an ellipsis.
func truncate(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// Keyboard builds an inline keyboard from declarative button rows.
// Buttons with neither a URL nor callback data are dropped; returns nil
// when nothing remains.
func Keyboard(rows [][]model.Button) *tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range rows {
		var built []tgbotapi.InlineKeyboardButton
		for _, b := range row {
			switch {
			case b.URL != "":
				built = append(built, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
			case b.CallbackData != "":
				built = append(built, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.CallbackData))
			}
		}
		if len(built) > 0 {
			keyboard = append(keyboard, built)
		}
	}
	if len(keyboard) == 0 {
		return nil
	}
	return &tgbotapi.InlineKeyboardMarkup{InlineKeyboard: keyboard}
}
