package model

// MessageKind classifies an inbound message into exactly one content
// type. The kind is decided once at ingestion and carried through the
// pipeline instead of re-inspecting content fields at each stage.
type MessageKind string

// Supported message kinds, in classification priority order.
const (
	KindText      MessageKind = "text"
	KindPhoto     MessageKind = "photo"
	KindVideo     MessageKind = "video"
	KindAudio     MessageKind = "audio"
	KindVoice     MessageKind = "voice"
	KindDocument  MessageKind = "document"
	KindSticker   MessageKind = "sticker"
	KindAnimation MessageKind = "animation"
	KindLocation  MessageKind = "location"
	KindContact   MessageKind = "contact"
	KindPoll      MessageKind = "poll"
	KindOther     MessageKind = "other"
)

// Message is a platform-agnostic view of one inbound chat message.
// Only the fields relevant to the classified Kind are populated.
type Message struct {
	ChatID    int64
	ID        int
	Sender    *Sender
	Kind      MessageKind
	Text      string
	Caption   string
	FileID    string
	FileSize  int64
	Duration  int // seconds, media kinds only
	Width     int
	Height    int
	Location  *Location
	Contact   *Contact
	Forward   *ForwardOrigin // nil unless the message was itself forwarded
}

// Content returns the message text, falling back to the media caption.
func (m *Message) Content() string {
	if m.Text != "" {
		return m.Text
	}
	return m.Caption
}

// Sender identifies the author of a message. Channel posts have no
// sender and carry a nil *Sender through the pipeline.
type Sender struct {
	ID       int64
	Username string
	IsBot    bool
}

// Location is a geographic point attached to a location message.
type Location struct {
	Latitude  float64
	Longitude float64
}

// Contact is a shared phone contact.
type Contact struct {
	PhoneNumber string
	FirstName   string
	LastName    string
}

// ForwardOrigin records where an already-forwarded message came from.
// Exactly one of FromUserID or FromChatID is non-zero.
type ForwardOrigin struct {
	FromUserID int64
	FromChatID int64
}

// SourceID returns whichever origin identifier is set.
func (f *ForwardOrigin) SourceID() int64 {
	if f.FromUserID != 0 {
		return f.FromUserID
	}
	return f.FromChatID
}
