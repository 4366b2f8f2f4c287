package service

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/spec-kit/ticket-canvas/internal/canvas"
	"github.com/spec-kit/ticket-canvas/internal/domain"
	apperrors "github.com/spec-kit/ticket-canvas/pkg/util/errorutil"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func formValuesFrom(inputs map[string]string) canvas.FormValues {
	return canvas.FormValues{
		Email:       strings.TrimSpace(inputs[canvas.FieldEmail]),
		Subject:     strings.TrimSpace(inputs[canvas.FieldSubject]),
		Description: inputs[canvas.FieldDescription],
		MailboxID:   strings.TrimSpace(inputs[canvas.FieldMailbox]),
		StatusID:    strings.TrimSpace(inputs[canvas.FieldStatus]),
		PriorityID:  strings.TrimSpace(inputs[canvas.FieldPriority]),
	}
}

// validateSubmission checks the form. Every violated field gets exactly one message.
func validateSubmission(v canvas.FormValues) (domain.SubmissionRequest, apperrors.FieldErrors) {
	errs := apperrors.FieldErrors{}
	switch {
	case v.Email == "":
		errs[canvas.FieldEmail] = "Email is required"
	case !emailPattern.MatchString(v.Email):
		errs[canvas.FieldEmail] = "Enter a valid email address"
	}
	if v.Subject == "" {
		errs[canvas.FieldSubject] = "Subject is required"
	}

	req := domain.SubmissionRequest{
		Email:       v.Email,
		Subject:     v.Subject,
		Description: strings.TrimSpace(v.Description),
	}
	req.MailboxID = optionalID(v.MailboxID, canvas.FieldMailbox, errs)
	req.StatusID = optionalID(v.StatusID, canvas.FieldStatus, errs)
	req.PriorityID = optionalID(v.PriorityID, canvas.FieldPriority, errs)
	return req, errs
}

func optionalID(raw, field string, errs apperrors.FieldErrors) *int64 {
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		errs[field] = "Select a valid option"
		return nil
	}
	return &id
}
