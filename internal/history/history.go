// Package history persists a log of synthesis outcomes to SQLite.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/clawdbot/clawdbot/internal/tts"
)

const schema = `
CREATE TABLE IF NOT EXISTS synth_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	at INTEGER NOT NULL,
	channel TEXT NOT NULL DEFAULT '',
	provider TEXT NOT NULL DEFAULT '',
	decision TEXT NOT NULL DEFAULT '',
	input_chars INTEGER NOT NULL DEFAULT 0,
	audio_bytes INTEGER NOT NULL DEFAULT 0,
	summarized INTEGER NOT NULL DEFAULT 0,
	latency_ms INTEGER NOT NULL DEFAULT 0,
	outcome TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_synth_log_at ON synth_log(at);
CREATE INDEX IF NOT EXISTS idx_synth_log_channel ON synth_log(channel);
`

// Entry is one persisted synthesis record.
type Entry struct {
	ID         int64  `db:"id" json:"id"`
	At         int64  `db:"at" json:"at"`
	Channel    string `db:"channel" json:"channel"`
	Provider   string `db:"provider" json:"provider"`
	Decision   string `db:"decision" json:"decision"`
	InputChars int    `db:"input_chars" json:"inputChars"`
	AudioBytes int    `db:"audio_bytes" json:"audioBytes"`
	Summarized bool   `db:"summarized" json:"summarized"`
	LatencyMs  int64  `db:"latency_ms" json:"latencyMs"`
	Outcome    string `db:"outcome" json:"outcome"`
	Error      string `db:"error" json:"error,omitempty"`
}

// Store is a SQLite-backed synthesis log. Implements tts.Recorder.
type Store struct {
	db *sqlx.DB
}

// Open opens (or creates) the log database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history: %w", err)
	}
	slog.Info("tts history opened", "path", path)
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Record implements tts.Recorder. Write failures are logged, never
// propagated into the synthesis pipeline.
func (s *Store) Record(ctx context.Context, rec tts.SynthRecord) {
	e := Entry{
		At:         rec.At.Unix(),
		Channel:    rec.Channel,
		Provider:   rec.Provider,
		Decision:   rec.Decision,
		InputChars: rec.InputChars,
		AudioBytes: rec.AudioBytes,
		Summarized: rec.Summarized,
		LatencyMs:  rec.LatencyMs,
		Outcome:    rec.Outcome,
		Error:      rec.Error,
	}
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO synth_log
		(at, channel, provider, decision, input_chars, audio_bytes, summarized, latency_ms, outcome, error)
		VALUES (:at, :channel, :provider, :decision, :input_chars, :audio_bytes, :summarized, :latency_ms, :outcome, :error)`, e)
	if err != nil {
		slog.Warn("tts history write failed", "error", err)
	}
}

// Recent returns the newest entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []Entry
	err := s.db.SelectContext(ctx, &out,
		`SELECT * FROM synth_log ORDER BY at DESC, id DESC LIMIT ?`, limit)
	return out, err
}

// Prune deletes entries older than the retention window.
func (s *Store) Prune(ctx context.Context, keep time.Duration) (int64, error) {
	cutoff := time.Now().Add(-keep).Unix()
	res, err := s.db.ExecContext(ctx, `DELETE FROM synth_log WHERE at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
