package ticketing

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-canvas/internal/config"
	"github.com/spec-kit/ticket-canvas/internal/domain"
	apperrors "github.com/spec-kit/ticket-canvas/pkg/util/errorutil"
)

// TicketInput is everything needed to file one ticket.
type TicketInput struct {
	Request    domain.SubmissionRequest
	Transcript string
}

// Creator builds ticket payloads and submits them.
type Creator struct {
	client   *Client
	cfg      config.TicketingConfig
	inboxURL string
	logger   *zap.Logger
}

// NewCreator constructs a Creator. inboxURL is used for the banner link.
func NewCreator(client *Client, cfg config.TicketingConfig, inboxURL string, logger *zap.Logger) *Creator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Creator{client: client, cfg: cfg, inboxURL: inboxURL, logger: logger}
}

// BuildPayload applies defaults, merges the banner and appends the transcript.
func (c *Creator) BuildPayload(in TicketInput) (domain.TicketPayload, error) {
	req := in.Request
	email := strings.TrimSpace(req.Email)
	subject := strings.TrimSpace(req.Subject)
	if email == "" {
		return domain.TicketPayload{}, apperrors.NewPreconditionViolation("ticket email missing")
	}
	if subject == "" {
		return domain.TicketPayload{}, apperrors.NewPreconditionViolation("ticket subject missing")
	}
	mailbox := valueOr(req.MailboxID, c.cfg.DefaultMailboxID)
	if mailbox <= 0 {
		return domain.TicketPayload{}, apperrors.NewPreconditionViolation("ticket mailbox missing")
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = domain.DefaultDescription
	}
	if req.ConversationID != "" {
		description = MergeBanner(description, Banner(req.ConversationID, c.inboxURL))
	}
	if in.Transcript != "" {
		description += "\n<hr>\n" + in.Transcript
	}

	return domain.TicketPayload{
		Email:         email,
		Subject:       subject,
		Description:   description,
		Source:        c.cfg.SourceCode,
		Status:        valueOr(req.StatusID, c.cfg.DefaultStatusID),
		Priority:      valueOr(req.PriorityID, c.cfg.DefaultPriorityID),
		EmailConfigID: mailbox,
		ProductID:     c.cfg.ProductID,
	}, nil
}

// CreateTicket files the ticket and returns its id.
func (c *Creator) CreateTicket(ctx context.Context, in TicketInput) (int64, error) {
	payload, err := c.BuildPayload(in)
	if err != nil {
		return 0, err
	}
	id, err := c.client.Create(ctx, payload, in.Request.SubmissionID)
	if err != nil {
		return 0, err
	}
	c.logger.Info("ticket created",
		zap.Int64("ticket_id", id),
		zap.String("submission_id", in.Request.SubmissionID),
		zap.Int64("mailbox_id", payload.EmailConfigID))
	return id, nil
}

// TicketURL links to a created ticket.
func (c *Creator) TicketURL(id int64) string {
	return c.client.TicketURL(id)
}

func valueOr(v *int64, fallback int64) int64 {
	if v != nil && *v > 0 {
		return *v
	}
	return fallback
}
