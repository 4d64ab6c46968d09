package transform

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hidarfaqeeh/v0-hidarforward-uz/internal/model"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		text string
		p    model.TextProcessing
		want string
	}{
		{
			name: "no processing",
			text: "hello world",
			p:    model.TextProcessing{},
			want: "hello world",
		},
		{
			name: "remove links keeps inner whitespace",
			text: "check http://x.example now",
			p:    model.TextProcessing{RemoveLinks: true},
			want: "check  now",
		},
		{
			name: "remove www links",
			text: "see www.example.com today",
			p:    model.TextProcessing{RemoveLinks: true},
			want: "see  today",
		},
		{
			name: "remove hashtags",
			text: "news #breaking update #now",
			p:    model.TextProcessing{RemoveHashtags: true},
			want: "news  update",
		},
		{
			name: "remove emojis",
			text: "great news 🎉 today",
			p:    model.TextProcessing{RemoveEmojis: true},
			want: "great news  today",
		},
		{
			name: "remove lines with words",
			text: "headline\nsubscribe to our channel\nbody",
			p:    model.TextProcessing{RemoveLinesWithWords: []string{"subscribe"}},
			want: "headline\nbody",
		},
		{
			name: "remove empty lines",
			text: "first\n\n  \nsecond",
			p:    model.TextProcessing{RemoveEmptyLines: true},
			want: "first\nsecond",
		},
		{
			name: "replacements in order",
			text: "alpha beta",
			p: model.TextProcessing{Replacements: []model.Replacement{
				{Old: "alpha", New: "beta"},
				{Old: "beta", New: "gamma"},
			}},
			want: "gamma gamma",
		},
		{
			name: "empty replacement old is skipped",
			text: "unchanged",
			p:    model.TextProcessing{Replacements: []model.Replacement{{Old: "", New: "x"}}},
			want: "unchanged",
		},
		{
			name: "empty input",
			text: "",
			p:    model.TextProcessing{RemoveLinks: true},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Clean(tt.text, tt.p)); diff != "" {
				t.Errorf("Clean() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	p := model.TextProcessing{
		RemoveLinks:      true,
		RemoveHashtags:   true,
		RemoveEmojis:     true,
		RemoveEmptyLines: true,
	}
	text := "promo 🎉 https://example.com #deal\n\nthe actual content"

	once := Clean(text, p)
	twice := Clean(once, p)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("Clean is not idempotent (-once +twice):\n%s", diff)
	}
}

func TestApplyHeaderFooter(t *testing.T) {
	tests := []struct {
		name string
		text string
		p    model.TextProcessing
		want string
	}{
		{
			name: "footer after cleaning",
			text: "check http://x.example now",
			p:    model.TextProcessing{RemoveLinks: true, Footer: "— bot"},
			want: "check  now\n\n— bot",
		},
		{
			name: "header before text",
			text: "body",
			p:    model.TextProcessing{Header: "NEWS"},
			want: "NEWS\n\nbody",
		},
		{
			name: "header and footer",
			text: "body",
			p:    model.TextProcessing{Header: "NEWS", Footer: "— bot"},
			want: "NEWS\n\nbody\n\n— bot",
		},
		{
			name: "footer alone on empty text",
			text: "",
			p:    model.TextProcessing{Footer: "— bot"},
			want: "— bot",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(tt.text, tt.p, model.Advanced{})
			if diff := cmp.Diff(tt.want, got.Text); diff != "" {
				t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApplyCharLimit(t *testing.T) {
	got := Apply("abcdefghij", model.TextProcessing{}, model.Advanced{CharLimit: 8})
	if diff := cmp.Diff("abcde...", got.Text); diff != "" {
		t.Errorf("truncation mismatch (-want +got):\n%s", diff)
	}

	got = Apply("short", model.TextProcessing{}, model.Advanced{CharLimit: 8})
	if diff := cmp.Diff("short", got.Text); diff != "" {
		t.Errorf("no-op truncation mismatch (-want +got):\n%s", diff)
	}
}

func TestKeyboard(t *testing.T) {
	rows := [][]model.Button{
		{
			{Text: "Open", URL: "https://example.com"},
			{Text: "More", CallbackData: "more"},
		},
		{
			{Text: "ignored"},
		},
	}

	kb := Keyboard(rows)
	if kb == nil {
		t.Fatal("expected a keyboard")
	}
	if len(kb.InlineKeyboard) != 1 {
		t.Fatalf("expected 1 row, got %d", len(kb.InlineKeyboard))
	}
	row := kb.InlineKeyboard[0]
	if len(row) != 2 {
		t.Fatalf("expected 2 buttons, got %d", len(row))
	}
	if row[0].URL == nil || *row[0].URL != "https://example.com" {
		t.Errorf("unexpected url button: %+v", row[0])
	}
	if row[1].CallbackData == nil || *row[1].CallbackData != "more" {
		t.Errorf("unexpected callback button: %+v", row[1])
	}

	if Keyboard(nil) != nil {
		t.Error("expected nil keyboard for no rows")
	}
}
