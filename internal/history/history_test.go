package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/clawdbot/clawdbot/internal/tts"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "tts-history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	s.Record(ctx, tts.SynthRecord{
		At: time.Now(), Channel: "telegram", Provider: "openai",
		Decision: "within_limit", InputChars: 42, AudioBytes: 1024,
		LatencyMs: 310, Outcome: "ok",
	})
	s.Record(ctx, tts.SynthRecord{
		At: time.Now().Add(time.Second), Channel: "discord", Provider: "elevenlabs",
		Decision: "over_limit_summarize", InputChars: 2100, Summarized: true,
		Outcome: "error", Error: "quota",
	})

	entries, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Channel != "discord" {
		t.Errorf("newest first: got %s", entries[0].Channel)
	}
	if !entries[0].Summarized || entries[0].Error != "quota" {
		t.Errorf("entry = %+v", entries[0])
	}
	if entries[1].AudioBytes != 1024 || entries[1].Outcome != "ok" {
		t.Errorf("entry = %+v", entries[1])
	}
}

func TestRecentLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		s.Record(ctx, tts.SynthRecord{At: time.Now(), Outcome: "ok"})
	}
	entries, err := s.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("got %d entries, want 3", len(entries))
	}
}

func TestPrune(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	s.Record(ctx, tts.SynthRecord{At: time.Now().Add(-48 * time.Hour), Outcome: "ok"})
	s.Record(ctx, tts.SynthRecord{At: time.Now(), Outcome: "ok"})

	n, err := s.Prune(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d, want 1", n)
	}
	entries, _ := s.Recent(ctx, 10)
	if len(entries) != 1 {
		t.Errorf("%d entries remain, want 1", len(entries))
	}
}
