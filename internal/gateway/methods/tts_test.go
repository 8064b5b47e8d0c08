package methods

import (
	"encoding/json"
	"testing"
)

func TestParseConvertParams(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		text    string
		channel string
	}{
		{"valid", `{"text":"hello world","channel":"telegram"}`, false, "hello world", "telegram"},
		{"padded text trimmed", `{"text":"  hello  "}`, false, "hello", ""},
		{"empty text", `{"text":""}`, true, "", ""},
		{"whitespace only", `{"text":" \t\n "}`, true, "", ""},
		{"no params", ``, true, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw json.RawMessage
			if tt.raw != "" {
				raw = json.RawMessage(tt.raw)
			}
			p, err := parseConvertParams(raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got params %+v", p)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Text != tt.text || p.Channel != tt.channel {
				t.Errorf("parsed %q/%q, want %q/%q", p.Text, p.Channel, tt.text, tt.channel)
			}
		})
	}
}
