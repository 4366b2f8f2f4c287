package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-canvas/internal/canvas"
	"github.com/spec-kit/ticket-canvas/internal/domain"
	"github.com/spec-kit/ticket-canvas/internal/events"
	"github.com/spec-kit/ticket-canvas/internal/observability"
	"github.com/spec-kit/ticket-canvas/internal/ticketing"
	"github.com/spec-kit/ticket-canvas/internal/tracker"
	"github.com/spec-kit/ticket-canvas/internal/transcript"
	"github.com/spec-kit/ticket-canvas/internal/worker"
	apperrors "github.com/spec-kit/ticket-canvas/pkg/util/errorutil"
)

// TicketLookup is the read side of the ticketing API.
type TicketLookup interface {
	RecentTickets(ctx context.Context, email string, limit int) ([]domain.TicketSummary, error)
	Mailboxes(ctx context.Context) ([]domain.Mailbox, error)
	Statuses(ctx context.Context) (domain.Choices, error)
	Priorities(ctx context.Context) (domain.Choices, error)
	TicketURL(id int64) string
}

// TicketCreator files a ticket.
type TicketCreator interface {
	CreateTicket(ctx context.Context, in ticketing.TicketInput) (int64, error)
}

// TranscriptFetcher loads a conversation transcript.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, conversationID string) (*transcript.Transcript, error)
}

// CanvasContext is the per-request context sent by the inbox. It is never cached.
type CanvasContext struct {
	ConversationID string
	ContactEmail   string
	AdminID        string
}

// Submission is one canvas submit call.
type Submission struct {
	ActionID string
	Inputs   map[string]string
	Context  CanvasContext
}

// CanvasSettings tunes the response race and initializer.
type CanvasSettings struct {
	ResponseDeadline time.Duration
	DeadlineMargin   time.Duration
	FallbackBudget   time.Duration
	StaleAfter       time.Duration
	RecentLimit      int
}

// CanvasDependencies bundles collaborators for the canvas service.
type CanvasDependencies struct {
	Tickets     TicketLookup
	Creator     TicketCreator
	Transcripts TranscriptFetcher
	Tracker     *tracker.Tracker
	Dispatcher  events.Dispatcher
	Runner      *worker.Runner
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	Settings    CanvasSettings
}

// CanvasService owns the canvas lifecycle: initialize, form navigation and the
// deadline-raced ticket submission with its background creation task.
type CanvasService struct {
	tickets     TicketLookup
	creator     TicketCreator
	transcripts TranscriptFetcher
	tracker     *tracker.Tracker
	dispatcher  events.Dispatcher
	runner      *worker.Runner
	metrics     *observability.Metrics
	logger      *zap.Logger
	settings    CanvasSettings
	newID       func() string
}

// NewCanvasService constructs the service.
func NewCanvasService(deps CanvasDependencies) *CanvasService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	runner := deps.Runner
	if runner == nil {
		runner = worker.NewRunner(logger)
	}
	dispatcher := deps.Dispatcher
	if dispatcher == nil {
		dispatcher = events.NewInMemoryDispatcher()
	}
	tr := deps.Tracker
	if tr == nil {
		tr = tracker.New()
	}
	return &CanvasService{
		tickets:     deps.Tickets,
		creator:     deps.Creator,
		transcripts: deps.Transcripts,
		tracker:     tr,
		dispatcher:  dispatcher,
		runner:      runner,
		metrics:     deps.Metrics,
		logger:      logger,
		settings:    normalizeSettings(deps.Settings),
		newID:       uuid.NewString,
	}
}

func normalizeSettings(s CanvasSettings) CanvasSettings {
	if s.ResponseDeadline <= 0 {
		s.ResponseDeadline = 9 * time.Second
	}
	if s.DeadlineMargin < 0 || s.DeadlineMargin >= s.ResponseDeadline {
		s.DeadlineMargin = s.ResponseDeadline / 9
	}
	if s.FallbackBudget <= 0 || s.FallbackBudget > s.DeadlineMargin {
		s.FallbackBudget = s.DeadlineMargin / 2
	}
	if s.StaleAfter <= 0 {
		s.StaleAfter = 2 * time.Minute
	}
	if s.RecentLimit <= 0 {
		s.RecentLimit = 5
	}
	return s
}

// Tracker exposes the operation tracker for the admin surface.
func (s *CanvasService) Tracker() *tracker.Tracker {
	return s.tracker
}

// Wait blocks until background tasks finish or ctx ends.
func (s *CanvasService) Wait(ctx context.Context) bool {
	return s.runner.Wait(ctx)
}

// Initialize renders the first view for a conversation with the outcome of the latest
// submission. Only an abandoned InProgress record is cleared; terminal records stay
// until the next submission replaces them.
func (s *CanvasService) Initialize(ctx context.Context, cc CanvasContext) canvas.View {
	identity := cc.ContactEmail
	var notice *canvas.Notice

	if rec, ok := s.tracker.Get(identity); ok && identity != "" {
		switch rec.State {
		case domain.OperationInProgress:
			if time.Since(rec.StartedAt) < s.settings.StaleAfter {
				notice = &canvas.Notice{Text: "A ticket is being created. Refresh in a moment.", Style: "muted"}
			} else {
				s.tracker.ClearIf(identity, rec.Sequence)
				s.logger.Info("cleared stale in-progress operation",
					zap.String("identity", rec.Identity),
					zap.String("submission_id", rec.SubmissionID),
					zap.Time("started_at", rec.StartedAt))
			}
		case domain.OperationCompleted:
			if rec.TicketID != nil {
				notice = &canvas.Notice{
					Text:  fmt.Sprintf("Ticket #%d was created: %s", *rec.TicketID, s.tickets.TicketURL(*rec.TicketID)),
					Style: "paragraph",
				}
			}
		case domain.OperationFailed:
			notice = &canvas.Notice{Text: "Ticket creation failed: " + rec.ErrorMessage, Style: "error"}
		}
	}

	return s.defaultView(ctx, identity, notice)
}

// Submit dispatches a canvas action. Unknown actions fall back to the default view.
func (s *CanvasService) Submit(ctx context.Context, sub Submission) canvas.View {
	switch sub.ActionID {
	case canvas.ActionOpenForm:
		return s.formView(ctx, canvas.FormValues{Email: sub.Context.ContactEmail}, nil)
	case canvas.ActionSubmit:
		return s.submitTicket(ctx, sub)
	case canvas.ActionCancel, canvas.ActionRefresh:
		return s.defaultView(ctx, sub.Context.ContactEmail, nil)
	default:
		s.logger.Debug("unrecognized canvas action; rendering default view", zap.String("action", sub.ActionID))
		return s.defaultView(ctx, sub.Context.ContactEmail, nil)
	}
}

// submitTicket validates synchronously, records InProgress, starts the background task
// and races the accepted view against the response deadline. Exactly one view is
// returned: whichever of the normal and fallback paths claims the cell first.
func (s *CanvasService) submitTicket(ctx context.Context, sub Submission) canvas.View {
	values := formValuesFrom(sub.Inputs)
	req, fieldErrs := validateSubmission(values)
	if len(fieldErrs) > 0 {
		s.metrics.RecordSubmission(observability.OutcomeInvalid)
		s.logger.Info("ticket submission rejected",
			zap.Strings("fields", fieldErrs.Fields()),
			zap.String("conversation_id", sub.Context.ConversationID))
		return s.formView(ctx, values, fieldErrs)
	}

	req.SubmissionID = s.newID()
	req.ConversationID = sub.Context.ConversationID
	log := s.logger.With(
		zap.String("submission_id", req.SubmissionID),
		zap.String("identity", tracker.Key(req.Email)),
		zap.String("conversation_id", req.ConversationID))

	var startOnce sync.Once
	start := func() {
		startOnce.Do(func() {
			seq := s.tracker.MarkInProgress(req.Email, req.SubmissionID)
			s.runner.Go(ctx, "create_ticket", func(bg context.Context) {
				s.runBackground(bg, req, seq, log)
			})
		})
	}
	start()

	fallbackAfter := s.settings.ResponseDeadline - s.settings.DeadlineMargin
	cell := newViewCell()
	notice := &canvas.Notice{
		Text:  fmt.Sprintf("Creating a ticket for %s. A note will be added to this conversation when it is ready.", req.Email),
		Style: "muted",
	}

	raceCtx, cancel := context.WithTimeout(ctx, fallbackAfter)
	defer cancel()
	go func() {
		view := s.defaultView(raceCtx, req.Email, notice)
		if cell.offer(view) {
			s.metrics.RecordSubmission(observability.OutcomeAccepted)
		}
	}()

	timer := time.NewTimer(fallbackAfter)
	defer timer.Stop()
	select {
	case view := <-cell.views:
		return view
	case <-timer.C:
	}

	start()
	fallbackCtx, fallbackCancel := context.WithTimeout(context.WithoutCancel(ctx), s.settings.FallbackBudget)
	defer fallbackCancel()
	if cell.offer(s.defaultView(fallbackCtx, req.Email, notice)) {
		s.metrics.RecordSubmission(observability.OutcomeFallback)
		log.Warn("accepted view not ready before deadline; sent fallback", zap.Duration("after", fallbackAfter))
	}
	return <-cell.views
}

// runBackground is transcript → create → notify → track, strictly in that order.
func (s *CanvasService) runBackground(ctx context.Context, req domain.SubmissionRequest, seq uint64, log *zap.Logger) {
	started := time.Now()

	var markup string
	if req.ConversationID != "" && s.transcripts != nil {
		tr, err := s.transcripts.Fetch(ctx, req.ConversationID)
		if err != nil {
			log.Warn("transcript unavailable; creating ticket without it", zap.Error(err))
		} else {
			markup = tr.Markup()
		}
	}

	ticketID, err := s.creator.CreateTicket(ctx, ticketing.TicketInput{Request: req, Transcript: markup})
	if err != nil {
		domainErr := apperrors.ToDomainError(err)
		if domainErr.Code == apperrors.CodePreconditionViolation {
			log.Error("ticket input violated a precondition", zap.Error(err))
		} else {
			log.Warn("ticket creation failed", zap.Error(err))
		}
		s.publish(ctx, log, events.Event{
			Type:           events.EventTicketCreationFailed,
			SubmissionID:   req.SubmissionID,
			Identity:       req.Email,
			ConversationID: req.ConversationID,
			Payload:        events.TicketCreationFailedPayload{Code: domainErr.Code, Message: err.Error()},
		})
		if !s.tracker.MarkFailed(req.Email, seq, err.Error()) {
			log.Info("newer submission owns the tracker; failure not recorded")
		}
		s.metrics.RecordBackground(observability.OutcomeFailed, time.Since(started))
		s.metrics.RecordSubmission(observability.OutcomeFailed)
		return
	}

	s.publish(ctx, log, events.Event{
		Type:           events.EventTicketCreated,
		SubmissionID:   req.SubmissionID,
		Identity:       req.Email,
		ConversationID: req.ConversationID,
		Payload:        events.TicketCreatedPayload{TicketID: ticketID, TicketURL: s.tickets.TicketURL(ticketID)},
	})
	if !s.tracker.MarkCompleted(req.Email, seq, ticketID) {
		log.Info("newer submission owns the tracker; completion not recorded", zap.Int64("ticket_id", ticketID))
	}
	s.metrics.RecordBackground(observability.OutcomeCompleted, time.Since(started))
	s.metrics.RecordSubmission(observability.OutcomeCompleted)
}

func (s *CanvasService) publish(ctx context.Context, log *zap.Logger, event events.Event) {
	event.ID = s.newID()
	event.Timestamp = time.Now().UTC()
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		log.Warn("outcome notification failed", zap.String("event", string(event.Type)), zap.Error(err))
	}
}

// defaultView lists recent tickets for identity; a failed lookup renders an empty list.
func (s *CanvasService) defaultView(ctx context.Context, identity string, notice *canvas.Notice) canvas.View {
	data := canvas.DefaultData{Identity: identity, Notice: notice}
	if identity != "" {
		tickets, err := s.tickets.RecentTickets(ctx, identity, s.settings.RecentLimit)
		if err != nil {
			s.logger.Warn("recent tickets unavailable", zap.String("identity", tracker.Key(identity)), zap.Error(err))
		}
		for _, t := range tickets {
			data.Recent = append(data.Recent, canvas.TicketSummary{
				ID:        t.ID,
				Subject:   t.Subject,
				Status:    domain.StatusLabel(t.Status),
				URL:       s.tickets.TicketURL(t.ID),
				CreatedAt: t.CreatedAt,
			})
		}
	}
	return canvas.DefaultView(data)
}

// formView loads dropdown metadata; any failure renders the retry error view.
func (s *CanvasService) formView(ctx context.Context, values canvas.FormValues, errs apperrors.FieldErrors) canvas.View {
	mailboxes, err := s.tickets.Mailboxes(ctx)
	if err != nil {
		return s.metadataError(err, "mailboxes")
	}
	statuses, err := s.tickets.Statuses(ctx)
	if err != nil {
		return s.metadataError(err, "statuses")
	}
	priorities, err := s.tickets.Priorities(ctx)
	if err != nil {
		return s.metadataError(err, "priorities")
	}

	data := canvas.FormData{Values: values, Errors: errs}
	for _, m := range mailboxes {
		label := m.Name
		if m.SupportEmail != "" {
			label = fmt.Sprintf("%s (%s)", m.Name, m.SupportEmail)
		}
		data.Mailboxes = append(data.Mailboxes, canvas.NewOption(strconv.FormatInt(m.ID, 10), label))
	}
	data.Statuses = choiceOptions(statuses)
	data.Priorities = choiceOptions(priorities)
	return canvas.FormView(data)
}

func (s *CanvasService) metadataError(err error, what string) canvas.View {
	s.logger.Warn("ticket metadata unavailable", zap.String("lookup", what), zap.Error(err))
	return canvas.ErrorView("Couldn't load ticket options from the ticketing system.", canvas.ActionOpenForm)
}

func choiceOptions(choices domain.Choices) []canvas.Option {
	out := make([]canvas.Option, 0, len(choices))
	for _, c := range choices {
		out = append(out, canvas.NewOption(strconv.FormatInt(c.Value, 10), c.Label))
	}
	return out
}

// viewCell is a single-assignment slot: the first offer wins, later offers are dropped.
type viewCell struct {
	claimed atomic.Bool
	views   chan canvas.View
}

func newViewCell() *viewCell {
	return &viewCell{views: make(chan canvas.View, 1)}
}

func (c *viewCell) offer(v canvas.View) bool {
	if !c.claimed.CompareAndSwap(false, true) {
		return false
	}
	c.views <- v
	return true
}
