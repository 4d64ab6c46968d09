package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/go-cmp/cmp"

	"github.com/hidarfaqeeh/v0-hidarforward-uz/internal/model"
)

func TestIngest(t *testing.T) {
	chat := &tgbotapi.Chat{ID: -100123}
	from := &tgbotapi.User{ID: 7, UserName: "alice"}

	tests := []struct {
		name string
		in   *tgbotapi.Message
		want *model.Message
	}{
		{
			name: "text message",
			in: &tgbotapi.Message{
				MessageID: 50,
				Chat:      chat,
				From:      from,
				Text:      "hello",
			},
			want: &model.Message{
				ChatID: -100123,
				ID:     50,
				Kind:   model.KindText,
				Text:   "hello",
				Sender: &model.Sender{ID: 7, Username: "alice"},
			},
		},
		{
			name: "photo picks largest rendition",
			in: &tgbotapi.Message{
				MessageID: 51,
				Chat:      chat,
				From:      from,
				Caption:   "sunset",
				Photo: []tgbotapi.PhotoSize{
					{FileID: "small", FileSize: 100, Width: 90, Height: 60},
					{FileID: "large", FileSize: 900, Width: 1280, Height: 720},
				},
			},
			want: &model.Message{
				ChatID:   -100123,
				ID:       51,
				Kind:     model.KindPhoto,
				Caption:  "sunset",
				FileID:   "large",
				FileSize: 900,
				Width:    1280,
				Height:   720,
				Sender:   &model.Sender{ID: 7, Username: "alice"},
			},
		},
		{
			name: "video",
			in: &tgbotapi.Message{
				MessageID: 52,
				Chat:      chat,
				From:      from,
				Video:     &tgbotapi.Video{FileID: "vid", FileSize: 5000, Duration: 30, Width: 640, Height: 480},
			},
			want: &model.Message{
				ChatID:   -100123,
				ID:       52,
				Kind:     model.KindVideo,
				FileID:   "vid",
				FileSize: 5000,
				Duration: 30,
				Width:    640,
				Height:   480,
				Sender:   &model.Sender{ID: 7, Username: "alice"},
			},
		},
		{
			name: "location",
			in: &tgbotapi.Message{
				MessageID: 53,
				Chat:      chat,
				From:      from,
				Location:  &tgbotapi.Location{Latitude: 41.3, Longitude: 69.2},
			},
			want: &model.Message{
				ChatID:   -100123,
				ID:       53,
				Kind:     model.KindLocation,
				Location: &model.Location{Latitude: 41.3, Longitude: 69.2},
				Sender:   &model.Sender{ID: 7, Username: "alice"},
			},
		},
		{
			name: "channel post has no sender",
			in: &tgbotapi.Message{
				MessageID: 54,
				Chat:      chat,
				Text:      "announcement",
			},
			want: &model.Message{
				ChatID: -100123,
				ID:     54,
				Kind:   model.KindText,
				Text:   "announcement",
			},
		},
		{
			name: "forwarded from channel",
			in: &tgbotapi.Message{
				MessageID:       55,
				Chat:            chat,
				From:            from,
				Text:            "fwd",
				ForwardFromChat: &tgbotapi.Chat{ID: -100555},
			},
			want: &model.Message{
				ChatID:  -100123,
				ID:      55,
				Kind:    model.KindText,
				Text:    "fwd",
				Sender:  &model.Sender{ID: 7, Username: "alice"},
				Forward: &model.ForwardOrigin{FromChatID: -100555},
			},
		},
		{
			name: "poll",
			in: &tgbotapi.Message{
				MessageID: 56,
				Chat:      chat,
				From:      from,
				Poll:      &tgbotapi.Poll{Question: "?"},
			},
			want: &model.Message{
				ChatID: -100123,
				ID:     56,
				Kind:   model.KindPoll,
				Sender: &model.Sender{ID: 7, Username: "alice"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Ingest(tt.in)); diff != "" {
				t.Errorf("Ingest() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
