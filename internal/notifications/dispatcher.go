package notifications

import (
	"context"

	"github.com/finleap/scf-onboarding-backend/pkg/db/models"
	"github.com/finleap/scf-onboarding-backend/pkg/enums"
	pkgerrors "github.com/finleap/scf-onboarding-backend/pkg/errors"
	"github.com/finleap/scf-onboarding-backend/pkg/logger"
	"github.com/google/uuid"
)

// MilestoneParams describes a milestone notification: an in-app row for the
// recipient plus an optional email when an address is known.
type MilestoneParams struct {
	UserID  uuid.UUID
	Kind    enums.NotificationKind
	Title   string
	Message string
	Email   string
	Role    enums.UserRole
	Subject string
	Body    []string
}

// RowWriter is the subset of the repository the dispatcher needs.
type RowWriter interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Dispatcher fans milestone events out to the in-app feed and the mail sink.
// Every send is best-effort: failures are logged and never propagated.
type Dispatcher struct {
	repo   RowWriter
	mailer Mailer
	urls   *URLResolver
	log    *logger.Logger
}

// DispatcherParams bundles dispatcher dependencies.
type DispatcherParams struct {
	Repo     RowWriter
	Mailer   Mailer
	Resolver *URLResolver
	Logger   *logger.Logger
}

// NewDispatcher wires the notification dispatcher.
func NewDispatcher(params DispatcherParams) (*Dispatcher, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if params.Mailer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mailer required")
	}
	if params.Resolver == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "url resolver required")
	}
	return &Dispatcher{
		repo:   params.Repo,
		mailer: params.Mailer,
		urls:   params.Resolver,
		log:    params.Logger,
	}, nil
}

// Milestone records the notification and fires the email sink.
func (d *Dispatcher) Milestone(ctx context.Context, params MilestoneParams) {
	cta := d.urls.DashboardURL(params.Role)

	if params.UserID != uuid.Nil {
		row := &models.Notification{
			UserID:  params.UserID,
			Kind:    params.Kind,
			Title:   params.Title,
			Message: params.Message,
			Link:    &cta,
		}
		if err := d.repo.Create(ctx, row); err != nil {
			d.logError(ctx, "persist notification", err)
		}
	}

	// No resolvable address means the email leg is skipped, not failed.
	if params.Email == "" {
		return
	}
	subject := params.Subject
	if subject == "" {
		subject = params.Title
	}
	body := params.Body
	if len(body) == 0 {
		body = []string{params.Message}
	}
	milestone := Milestone{
		Heading:    params.Title,
		Paragraphs: body,
		CTAHref:    cta,
	}
	if err := d.mailer.SendMilestoneEmail(ctx, params.Email, subject, milestone); err != nil {
		d.logError(ctx, "send milestone email", err)
	}
}

func (d *Dispatcher) logError(ctx context.Context, msg string, err error) {
	if d.log == nil {
		return
	}
	d.log.Error(ctx, msg, err)
}
