package bus

// InboundMessage is a user message arriving from a channel adapter.
type InboundMessage struct {
	Channel   string // "telegram", "discord", "slack"
	ChatID    string
	SenderID  string
	MessageID string
	Text      string
	IsVoice   bool // the user sent audio; feeds the inbound auto-TTS mode
}

// OutboundMessage is a reply heading back to a channel adapter. Audio is
// optional; when set the adapter sends it alongside (or instead of) Text.
type OutboundMessage struct {
	Channel   string
	ChatID    string
	ReplyToID string
	Text      string
	Kind      string // "final", "tool", "block"

	Audio     []byte
	AudioMime string
	AudioExt  string // includes the leading dot
}

// MessageHandler delivers one outbound message to a channel adapter.
type MessageHandler func(msg OutboundMessage) error

// Event is a gateway-visible notification (client broadcast).
type Event struct {
	Name    string
	Payload map[string]interface{}
}

// EventHandler receives broadcast events. Must not block.
type EventHandler func(event Event)
