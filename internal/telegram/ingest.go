package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hidarfaqeeh/v0-hidarforward-uz/internal/model"
)

// Ingest converts a raw Bot API message into the domain message the
// pipeline operates on. The content kind is classified exactly once
// here; later stages trust Kind instead of re-inspecting fields.
func Ingest(m *tgbotapi.Message) *model.Message {
	msg := &model.Message{
		ChatID:  m.Chat.ID,
		ID:      m.MessageID,
		Text:    m.Text,
		Caption: m.Caption,
	}

	if m.From != nil {
		msg.Sender = &model.Sender{
			ID:       m.From.ID,
			Username: m.From.UserName,
			IsBot:    m.From.IsBot,
		}
	}

	switch {
	case m.Text != "":
		msg.Kind = model.KindText
	case len(m.Photo) > 0:
		msg.Kind = model.KindPhoto
		// The last size is the largest rendition.
		p := m.Photo[len(m.Photo)-1]
		msg.FileID = p.FileID
		msg.FileSize = int64(p.FileSize)
		msg.Width = p.Width
		msg.Height = p.Height
	case m.Video != nil:
		msg.Kind = model.KindVideo
		msg.FileID = m.Video.FileID
		msg.FileSize = int64(m.Video.FileSize)
		msg.Duration = m.Video.Duration
		msg.Width = m.Video.Width
		msg.Height = m.Video.Height
	case m.Audio != nil:
		msg.Kind = model.KindAudio
		msg.FileID = m.Audio.FileID
		msg.FileSize = int64(m.Audio.FileSize)
		msg.Duration = m.Audio.Duration
	case m.Voice != nil:
		msg.Kind = model.KindVoice
		msg.FileID = m.Voice.FileID
		msg.FileSize = int64(m.Voice.FileSize)
		msg.Duration = m.Voice.Duration
	case m.Document != nil:
		msg.Kind = model.KindDocument
		msg.FileID = m.Document.FileID
		msg.FileSize = int64(m.Document.FileSize)
	case m.Sticker != nil:
		msg.Kind = model.KindSticker
		msg.FileID = m.Sticker.FileID
		msg.FileSize = int64(m.Sticker.FileSize)
	case m.Animation != nil:
		msg.Kind = model.KindAnimation
		msg.FileID = m.Animation.FileID
		msg.FileSize = int64(m.Animation.FileSize)
		msg.Duration = m.Animation.Duration
		msg.Width = m.Animation.Width
		msg.Height = m.Animation.Height
	case m.Location != nil:
		msg.Kind = model.KindLocation
		msg.Location = &model.Location{
			Latitude:  m.Location.Latitude,
			Longitude: m.Location.Longitude,
		}
	case m.Contact != nil:
		msg.Kind = model.KindContact
		msg.Contact = &model.Contact{
			PhoneNumber: m.Contact.PhoneNumber,
			FirstName:   m.Contact.FirstName,
			LastName:    m.Contact.LastName,
		}
	case m.Poll != nil:
		msg.Kind = model.KindPoll
	default:
		msg.Kind = model.KindOther
	}

	switch {
	case m.ForwardFromChat != nil:
		msg.Forward = &model.ForwardOrigin{FromChatID: m.ForwardFromChat.ID}
	case m.ForwardFrom != nil:
		msg.Forward = &model.ForwardOrigin{FromUserID: m.ForwardFrom.ID}
	}

	return msg
}
