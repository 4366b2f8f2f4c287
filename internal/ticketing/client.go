package ticketing

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-canvas/internal/cache"
	"github.com/spec-kit/ticket-canvas/internal/config"
	"github.com/spec-kit/ticket-canvas/internal/domain"
	"github.com/spec-kit/ticket-canvas/internal/httpclient"
)

// Doer is the retrying transport the client runs on.
type Doer interface {
	Do(ctx context.Context, req httpclient.Request) (*httpclient.Response, error)
}

// Client talks to the ticketing REST API.
type Client struct {
	http     Doer
	cache    cache.Cache
	cacheTTL time.Duration
	portal   string
	logger   *zap.Logger
}

// ClientDependencies bundles the collaborators of Client.
type ClientDependencies struct {
	HTTP     Doer
	Cache    cache.Cache
	CacheTTL time.Duration
	Config   config.TicketingConfig
	Logger   *zap.Logger
}

// NewClient constructs the client.
func NewClient(deps ClientDependencies) *Client {
	c := deps.Cache
	if c == nil {
		c = cache.Noop{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	portal := deps.Config.PortalURL
	if portal == "" {
		portal = deps.Config.BaseURL
	}
	return &Client{
		http:     deps.HTTP,
		cache:    c,
		cacheTTL: deps.CacheTTL,
		portal:   strings.TrimRight(portal, "/"),
		logger:   logger,
	}
}

// RecentTickets returns the newest tickets filed by email.
func (c *Client) RecentTickets(ctx context.Context, email string, limit int) ([]domain.TicketSummary, error) {
	if limit <= 0 {
		limit = 5
	}
	var out []domain.TicketSummary
	_, err := c.http.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   "/tickets",
		Query: map[string]string{
			"email":      email,
			"order_by":   "created_at",
			"order_type": "desc",
			"per_page":   strconv.Itoa(limit),
		},
		Result: &out,
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Mailboxes lists mailboxes, cached.
func (c *Client) Mailboxes(ctx context.Context) ([]domain.Mailbox, error) {
	return cache.Remember(ctx, c.cache, c.logger, "mailboxes", c.cacheTTL, func(ctx context.Context) ([]domain.Mailbox, error) {
		var out []domain.Mailbox
		if _, err := c.http.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/mailboxes", Result: &out}); err != nil {
			return nil, err
		}
		return out, nil
	})
}

// TicketFields lists ticket field definitions, cached.
func (c *Client) TicketFields(ctx context.Context) ([]domain.TicketField, error) {
	return cache.Remember(ctx, c.cache, c.logger, "ticket_fields", c.cacheTTL, func(ctx context.Context) ([]domain.TicketField, error) {
		var out []domain.TicketField
		if _, err := c.http.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: "/ticket_fields", Result: &out}); err != nil {
			return nil, err
		}
		return out, nil
	})
}

// FieldChoices loads the choices of one field, cached.
func (c *Client) FieldChoices(ctx context.Context, fieldID int64) (domain.Choices, error) {
	key := fmt.Sprintf("ticket_fields:%d", fieldID)
	return cache.Remember(ctx, c.cache, c.logger, key, c.cacheTTL, func(ctx context.Context) (domain.Choices, error) {
		var field domain.TicketField
		if _, err := c.http.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: fmt.Sprintf("/ticket_fields/%d", fieldID), Result: &field}); err != nil {
			return nil, err
		}
		return field.Choices, nil
	})
}

// Statuses returns the choices of the built-in status field.
func (c *Client) Statuses(ctx context.Context) (domain.Choices, error) {
	return c.namedFieldChoices(ctx, "status")
}

// Priorities returns the choices of the built-in priority field.
func (c *Client) Priorities(ctx context.Context) (domain.Choices, error) {
	return c.namedFieldChoices(ctx, "priority")
}

func (c *Client) namedFieldChoices(ctx context.Context, name string) (domain.Choices, error) {
	fields, err := c.TicketFields(ctx)
	if err != nil {
		return nil, err
	}
	for _, f := range fields {
		if f.Name == name {
			return c.FieldChoices(ctx, f.ID)
		}
	}
	return nil, nil
}

// Create posts a ticket and returns its id. idempotencyKey is sent as a header; the
// ticketing API may ignore it, so a retried POST can still create a duplicate.
func (c *Client) Create(ctx context.Context, payload domain.TicketPayload, idempotencyKey string) (int64, error) {
	var created struct {
		ID int64 `json:"id"`
	}
	headers := map[string]string{}
	if idempotencyKey != "" {
		headers["Idempotency-Key"] = idempotencyKey
	}
	if _, err := c.http.Do(ctx, httpclient.Request{
		Method:  http.MethodPost,
		Path:    "/tickets",
		Headers: headers,
		Body:    payload,
		Result:  &created,
	}); err != nil {
		return 0, err
	}
	if created.ID == 0 {
		return 0, fmt.Errorf("create ticket: response carried no id")
	}
	return created.ID, nil
}

// TicketURL links to a ticket in the agent portal.
func (c *Client) TicketURL(id int64) string {
	return fmt.Sprintf("%s/a/tickets/%d", c.portal, id)
}
