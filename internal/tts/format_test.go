package tts

import "testing"

func TestResolveOutputFormat(t *testing.T) {
	tests := []struct {
		channel   string
		wantExt   string
		wantVoice bool
	}{
		{"telegram", ".opus", true},
		{"discord", ".mp3", false},
		{"slack", ".mp3", false},
		{"", ".mp3", false},
		{"Telegram", ".mp3", false}, // channel names are lowercase by convention
		{"whatsapp", ".mp3", false},
	}

	for _, tt := range tests {
		got := ResolveOutputFormat(tt.channel)
		if got.Extension != tt.wantExt {
			t.Errorf("ResolveOutputFormat(%q).Extension = %q, want %q", tt.channel, got.Extension, tt.wantExt)
		}
		if got.VoiceCompatible != tt.wantVoice {
			t.Errorf("ResolveOutputFormat(%q).VoiceCompatible = %v, want %v", tt.channel, got.VoiceCompatible, tt.wantVoice)
		}
	}
}

func TestResolveOutputFormat_CodecValues(t *testing.T) {
	opus := ResolveOutputFormat("telegram")
	if opus.ElevenLabsFormat != "opus_48000_64" || opus.Name != "opus" {
		t.Errorf("opus spec: %+v", opus)
	}
	mp3 := ResolveOutputFormat("discord")
	if mp3.ElevenLabsFormat != "mp3_44100_128" || mp3.Name != "mp3" {
		t.Errorf("mp3 spec: %+v", mp3)
	}
}
