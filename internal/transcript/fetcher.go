package transcript

import (
	"context"
	"fmt"
	"html"
	"iter"
	"strings"
	"sync/atomic"

	"github.com/spec-kit/ticket-canvas/internal/domain"
	apperrors "github.com/spec-kit/ticket-canvas/pkg/util/errorutil"
)

const timestampLayout = "2006-01-02 15:04 MST"

// ConversationGetter loads a conversation's history.
type ConversationGetter interface {
	Get(ctx context.Context, conversationID string) (*domain.Conversation, error)
}

// Fetcher turns a conversation into a transcript fragment for ticket descriptions.
type Fetcher struct {
	conversations ConversationGetter
}

// NewFetcher constructs a Fetcher.
func NewFetcher(conversations ConversationGetter) *Fetcher {
	return &Fetcher{conversations: conversations}
}

// Fetch loads the conversation in one round trip. Any failure is TRANSCRIPT_UNAVAILABLE.
func (f *Fetcher) Fetch(ctx context.Context, conversationID string) (*Transcript, error) {
	if conversationID == "" {
		return nil, apperrors.NewTranscriptUnavailable(conversationID, fmt.Errorf("no conversation id"))
	}
	conv, err := f.conversations.Get(ctx, conversationID)
	if err != nil {
		return nil, apperrors.NewTranscriptUnavailable(conversationID, err)
	}
	return &Transcript{messages: conv.Messages}, nil
}

// Transcript renders its messages on demand. It can be consumed once; later
// consumers see an empty sequence.
type Transcript struct {
	messages []domain.Message
	consumed atomic.Bool
}

// Len is the number of messages.
func (t *Transcript) Len() int {
	if t == nil {
		return 0
	}
	return len(t.messages)
}

// Blocks yields one rendered HTML block per message, oldest first.
func (t *Transcript) Blocks() iter.Seq[string] {
	return func(yield func(string) bool) {
		if t == nil || !t.consumed.CompareAndSwap(false, true) {
			return
		}
		for _, m := range t.messages {
			if !yield(renderBlock(m)) {
				return
			}
		}
	}
}

// Markup drains Blocks into one fragment; empty when there is nothing to show.
func (t *Transcript) Markup() string {
	var b strings.Builder
	for block := range t.Blocks() {
		if b.Len() == 0 {
			b.WriteString("<p><strong>Conversation transcript</strong></p>\n")
		}
		b.WriteString(block)
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func renderBlock(m domain.Message) string {
	stamp := ""
	if !m.CreatedAt.IsZero() {
		stamp = " <em>" + m.CreatedAt.UTC().Format(timestampLayout) + "</em>"
	}
	return fmt.Sprintf("<div><p><strong>%s</strong>%s</p><p>%s</p></div>",
		html.EscapeString(m.Author.DisplayName()), stamp, escapeBody(m.Body))
}

// escapeBody renders a plaintext message body as HTML, keeping line breaks.
func escapeBody(body string) string {
	body = strings.ReplaceAll(strings.TrimSpace(body), "\r\n", "\n")
	return strings.ReplaceAll(html.EscapeString(body), "\n", "<br>")
}
