package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestVoiceCatalogOpenAI(t *testing.T) {
	c := NewVoiceCatalog("", "")
	voices := c.Voices(context.Background(), "openai")
	if len(voices) == 0 {
		t.Fatal("expected openai voices")
	}
	seen := map[string]bool{}
	for _, v := range voices {
		if v.Provider != "openai" {
			t.Errorf("voice %s has provider %s", v.ID, v.Provider)
		}
		seen[v.ID] = true
	}
	for _, want := range []string{"alloy", "nova", "onyx"} {
		if !seen[want] {
			t.Errorf("missing voice %s", want)
		}
	}
}

func TestVoiceCatalogElevenLabsPresetsWithoutKey(t *testing.T) {
	c := NewVoiceCatalog("", "")
	voices := c.Voices(context.Background(), "elevenlabs")
	if len(voices) == 0 {
		t.Fatal("expected preset voices without an API key")
	}
	if voices[0].ID != "pMsXgVXv3BLzUgSXRplE" {
		t.Errorf("first preset = %s, want the default voice", voices[0].ID)
	}
}

func TestVoiceCatalogRemoteListingCached(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Header.Get("xi-api-key") != "k" {
			t.Errorf("missing api key header")
		}
		json.NewEncoder(w).Encode(map[string]any{
			"voices": []map[string]string{
				{"voice_id": "v1", "name": "One", "category": "cloned"},
			},
		})
	}))
	defer srv.Close()

	c := NewVoiceCatalog("k", srv.URL)
	for i := 0; i < 3; i++ {
		voices := c.Voices(context.Background(), "elevenlabs")
		if len(voices) != 1 || voices[0].ID != "v1" {
			t.Fatalf("voices = %+v", voices)
		}
	}
	if calls != 1 {
		t.Errorf("remote fetched %d times, want 1 (cached)", calls)
	}
}

func TestVoiceCatalogRemoteFailureFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewVoiceCatalog("bad", srv.URL)
	voices := c.Voices(context.Background(), "elevenlabs")
	if len(voices) != len(ElevenLabsPresets()) {
		t.Errorf("expected preset fallback, got %d voices", len(voices))
	}
}

func TestVoiceCatalogUnknownProvider(t *testing.T) {
	c := NewVoiceCatalog("", "")
	if voices := c.Voices(context.Background(), "edge"); voices != nil {
		t.Errorf("unknown provider should return nil, got %+v", voices)
	}
}
