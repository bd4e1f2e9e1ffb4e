package notifications

import (
	"context"
	"strings"

	"github.com/finleap/scf-onboarding-backend/pkg/config"
	"github.com/finleap/scf-onboarding-backend/pkg/enums"
	"github.com/finleap/scf-onboarding-backend/pkg/logger"
)

// Milestone is the content block for an onboarding milestone email.
type Milestone struct {
	Heading    string
	Paragraphs []string
	CTAHref    string
}

// Mailer is the outbound email sink. Delivery is an external concern; the
// default implementation just records the send.
type Mailer interface {
	SendMilestoneEmail(ctx context.Context, to, subject string, milestone Milestone) error
}

// LogMailer writes milestone emails to the structured log instead of an
// SMTP/API provider. Used in dev and as the default sink.
type LogMailer struct {
	log  *logger.Logger
	from string
}

// NewLogMailer builds the logging mail sink.
func NewLogMailer(log *logger.Logger, cfg config.MailConfig) *LogMailer {
	return &LogMailer{log: log, from: cfg.DefaultFrom}
}

func (m *LogMailer) SendMilestoneEmail(ctx context.Context, to, subject string, milestone Milestone) error {
	if m.log == nil {
		return nil
	}
	ctx = m.log.WithFields(ctx, map[string]any{
		"mail_from":    m.from,
		"mail_to":      to,
		"mail_subject": subject,
		"mail_cta":     milestone.CTAHref,
		"mail_body":    strings.Join(milestone.Paragraphs, " "),
	})
	m.log.Info(ctx, "milestone email dispatched")
	return nil
}

// URLResolver builds dashboard links for notification CTAs.
type URLResolver struct {
	portal config.PortalConfig
}

// NewURLResolver constructs a resolver from the portal configuration.
func NewURLResolver(portal config.PortalConfig) *URLResolver {
	return &URLResolver{portal: portal}
}

// DashboardURL returns the landing page for the given role.
func (r *URLResolver) DashboardURL(role enums.UserRole) string {
	if role.IsAdmin() {
		return r.portal.AdminBaseURL
	}
	return r.portal.DashboardBaseURL
}
