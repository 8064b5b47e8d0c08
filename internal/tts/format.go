package tts

// OutputFormat is the audio container/codec for a destination channel.
type OutputFormat struct {
	Name             string // "opus" or "mp3"
	ElevenLabsFormat string // ElevenLabs output_format query value
	Extension        string // file extension with dot
	MimeType         string
	VoiceCompatible  bool // channel can render this as a native voice bubble
}

var (
	formatOpus = OutputFormat{
		Name:             "opus",
		ElevenLabsFormat: "opus_48000_64",
		Extension:        ".opus",
		MimeType:         "audio/ogg",
		VoiceCompatible:  true,
	}
	formatMP3 = OutputFormat{
		Name:             "mp3",
		ElevenLabsFormat: "mp3_44100_128",
		Extension:        ".mp3",
		MimeType:         "audio/mpeg",
		VoiceCompatible:  false,
	}
)

// ResolveOutputFormat maps a destination channel name to its audio format.
// Telegram voice bubbles need opus; every other channel gets mp3.
// Total function, no error cases.
func ResolveOutputFormat(channel string) OutputFormat {
	if channel == "telegram" {
		return formatOpus
	}
	return formatMP3
}
