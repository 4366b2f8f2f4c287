package canvas

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Action identifiers carried as component_id on submit.
const (
	ActionOpenForm = "open_ticket_form"
	ActionSubmit   = "submit_ticket"
	ActionCancel   = "cancel"
	ActionRefresh  = "refresh"
)

// Form input ids.
const (
	FieldEmail       = "email"
	FieldSubject     = "subject"
	FieldDescription = "description"
	FieldMailbox     = "mailbox_id"
	FieldStatus      = "status_id"
	FieldPriority    = "priority_id"
)

const errorSuffix = "_error"

// TicketSummary is one row of the recent tickets list.
type TicketSummary struct {
	ID        int64
	Subject   string
	Status    string
	URL       string
	CreatedAt time.Time
}

// Notice is a one-line banner shown at the top of the default view.
type Notice struct {
	Text  string
	Style string
}

// DefaultData feeds DefaultView.
type DefaultData struct {
	Identity string
	Recent   []TicketSummary
	Notice   *Notice
}

// FormValues are the raw strings of the ticket form.
type FormValues struct {
	Email       string
	Subject     string
	Description string
	MailboxID   string
	StatusID    string
	PriorityID  string
}

// FormData feeds FormView.
type FormData struct {
	Values     FormValues
	Errors     map[string]string
	Mailboxes  []Option
	Statuses   []Option
	Priorities []Option
}

// NewOption builds a dropdown option.
func NewOption(id, text string) Option {
	return Option{Type: "option", ID: id, Text: text}
}

// DefaultView lists recent tickets and offers to create one.
func DefaultView(data DefaultData) View {
	components := make([]Component, 0, 8+len(data.Recent))
	if data.Notice != nil {
		components = append(components, Text(data.Notice.Text, data.Notice.Style), Spacer("s"))
	}
	components = append(components, Text("Tickets", "header"))
	if len(data.Recent) == 0 {
		components = append(components, Text("No recent tickets.", "muted"))
	}
	for _, t := range data.Recent {
		line := fmt.Sprintf("#%d %s", t.ID, t.Subject)
		if t.Status != "" {
			line += " (" + t.Status + ")"
		}
		if t.URL != "" {
			components = append(components, URLButton(fmt.Sprintf("ticket_%d", t.ID), line, t.URL))
			continue
		}
		components = append(components, Text(line, "paragraph"))
	}
	components = append(components,
		Divider(),
		SubmitButton(ActionOpenForm, "Create ticket", "primary"),
		SubmitButton(ActionRefresh, "Refresh", "secondary"),
	)
	return View{Kind: KindDefault, Response: newResponse(components)}
}

// FormView renders the ticket form, with inline errors for flagged fields.
func FormView(data FormData) View {
	v := data.Values
	components := []Component{Text("Create ticket", "header")}
	components = appendField(components, data.Errors, FieldEmail, Input(FieldEmail, "Requester email", "name@example.com", v.Email))
	components = appendField(components, data.Errors, FieldSubject, Input(FieldSubject, "Subject", "Short summary", v.Subject))
	components = appendField(components, data.Errors, FieldDescription, Textarea(FieldDescription, "Description", "Optional details", v.Description))
	components = appendDropdown(components, data.Errors, FieldMailbox, "Mailbox", data.Mailboxes, v.MailboxID)
	components = appendDropdown(components, data.Errors, FieldStatus, "Status", data.Statuses, v.StatusID)
	components = appendDropdown(components, data.Errors, FieldPriority, "Priority", data.Priorities, v.PriorityID)
	components = append(components,
		Spacer("m"),
		SubmitButton(ActionSubmit, "Create", "primary"),
		SubmitButton(ActionCancel, "Cancel", "secondary"),
	)
	return View{Kind: KindForm, Response: newResponse(components)}
}

// ErrorView is the retry affordance shown when a synchronous path cannot be served.
func ErrorView(message, retryAction string) View {
	if strings.TrimSpace(message) == "" {
		message = "Something went wrong. Please try again."
	}
	components := []Component{
		Text("Unable to load", "header"),
		Text(message, "error"),
		Spacer("s"),
	}
	if retryAction != "" {
		components = append(components, SubmitButton(retryAction, "Try again", "primary"))
	}
	components = append(components, SubmitButton(ActionCancel, "Back", "secondary"))
	return View{Kind: KindError, Response: newResponse(components)}
}

// FlaggedFields returns the ids of inputs that carry an inline error, sorted.
func FlaggedFields(resp Response) []string {
	var out []string
	for _, c := range resp.Canvas.Content.Components {
		if c.Style == "error" && strings.HasSuffix(c.ID, errorSuffix) {
			out = append(out, strings.TrimSuffix(c.ID, errorSuffix))
		}
	}
	sort.Strings(out)
	return out
}

// FieldError returns the inline error text for field, if any.
func FieldError(resp Response, field string) (string, bool) {
	for _, c := range resp.Canvas.Content.Components {
		if c.ID == field+errorSuffix {
			return c.Text, true
		}
	}
	return "", false
}

func appendField(components []Component, errs map[string]string, field string, c Component) []Component {
	components = append(components, c)
	if msg, ok := errs[field]; ok {
		components = append(components, Component{Type: "text", ID: field + errorSuffix, Text: msg, Style: "error"})
	}
	return components
}

// appendDropdown omits a dropdown without options but still shows its error.
func appendDropdown(components []Component, errs map[string]string, field, label string, options []Option, value string) []Component {
	if len(options) > 0 {
		return appendField(components, errs, field, Dropdown(field, label, options, selected(options, value)))
	}
	if msg, ok := errs[field]; ok {
		components = append(components, Component{Type: "text", ID: field + errorSuffix, Text: label + ": " + msg, Style: "error"})
	}
	return components
}

func selected(options []Option, value string) string {
	for _, o := range options {
		if o.ID == value {
			return value
		}
	}
	return ""
}
