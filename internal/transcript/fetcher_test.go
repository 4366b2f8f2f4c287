package transcript

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-canvas/internal/domain"
	apperrors "github.com/spec-kit/ticket-canvas/pkg/util/errorutil"
)

type stubGetter struct {
	conv  *domain.Conversation
	err   error
	calls int
}

func (s *stubGetter) Get(context.Context, string) (*domain.Conversation, error) {
	s.calls++
	return s.conv, s.err
}

func TestFetchRendersInOrderOnce(t *testing.T) {
	at := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	getter := &stubGetter{conv: &domain.Conversation{ID: "1", Messages: []domain.Message{
		{Author: domain.Author{Name: "Ada <admin>"}, Body: "hello", CreatedAt: at},
		{Author: domain.Author{Email: "bo@example.com"}, Body: "hi\nthere", CreatedAt: at.Add(time.Minute)},
	}}}

	tr, err := NewFetcher(getter).Fetch(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, 1, getter.calls)
	assert.Equal(t, 2, tr.Len())

	markup := tr.Markup()
	assert.True(t, strings.HasPrefix(markup, "<p><strong>Conversation transcript</strong></p>"))
	assert.Contains(t, markup, "<strong>Ada &lt;admin&gt;</strong> <em>2026-10-14 09:30 UTC</em></p><p>hello</p></div>")
	assert.Contains(t, markup, "<p>hi<br>there</p>")
	assert.Less(t, strings.Index(markup, "hello"), strings.Index(markup, "hi<br>"))

	assert.Empty(t, tr.Markup(), "transcript is not restartable")
}

func TestBodiesAreEscaped(t *testing.T) {
	getter := &stubGetter{conv: &domain.Conversation{ID: "1", Messages: []domain.Message{
		{Author: domain.Author{Name: "Eve"}, Body: "hi <img src=x onerror=alert(1)>"},
	}}}

	tr, err := NewFetcher(getter).Fetch(context.Background(), "1")
	require.NoError(t, err)
	markup := tr.Markup()
	assert.Contains(t, markup, "<div><p><strong>Eve</strong></p><p>hi &lt;img src=x onerror=alert(1)&gt;</p></div>")
	assert.NotContains(t, markup, "<img")
}

func TestFetchFailureIsTranscriptUnavailable(t *testing.T) {
	_, err := NewFetcher(&stubGetter{err: errors.New("503")}).Fetch(context.Background(), "1")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeTranscriptUnavailable))

	_, err = NewFetcher(&stubGetter{}).Fetch(context.Background(), "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeTranscriptUnavailable))
}

func TestEmptyTranscriptMarkup(t *testing.T) {
	tr, err := NewFetcher(&stubGetter{conv: &domain.Conversation{}}).Fetch(context.Background(), "1")
	require.NoError(t, err)
	assert.Empty(t, tr.Markup())

	var nilTranscript *Transcript
	assert.Empty(t, nilTranscript.Markup())
}
