// Package channels defines the chat channel adapter surface and the
// shared /tts slash command.
package channels

import "context"

// Channel is a chat platform adapter. Start blocks until ctx is canceled.
type Channel interface {
	Name() string
	Start(ctx context.Context) error
}
