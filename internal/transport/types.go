// Package transport defines the messaging surface the dispatcher talks to.
// The Telegram implementation lives in transport/telegram/adapter.
package transport

import "context"

// Parse modes understood by the Bot API.
const (
	ParseModeNone     = ""
	ParseModeMarkdown = "Markdown"
	ParseModeHTML     = "HTML"
)

type ChatTarget struct {
	ChatID   int64
	ThreadID int // telegram forum topic thread id (0 if none)
}

type MessageRef struct {
	ChatID    int64
	ThreadID  int
	MessageID int
}

type SendOptions struct {
	ParseMode      string
	DisablePreview bool
}

// Poll is a quiz-style poll: exactly one option is correct.
type Poll struct {
	Question      string
	Options       []string
	CorrectOption int
	Anonymous     bool
}

// Messenger sends messages to chats. Implementations return an error for
// any delivery failure (bad recipient, malformed poll, network).
type Messenger interface {
	SendText(ctx context.Context, to ChatTarget, text string, opt *SendOptions) (MessageRef, error)
	SendPoll(ctx context.Context, to ChatTarget, poll Poll) (MessageRef, error)
}
