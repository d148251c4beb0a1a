package notifier

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// testTokenPlaceholder is embedded in test sends so the rendered link is
// recognizably inert.
const testTokenPlaceholder = "test-token-example"

// Mailer composes the template catalog with a Delivery implementation
type Mailer struct {
	delivery Delivery
	baseURL  string
}

// NewMailer creates a mailer building action links against baseURL
func NewMailer(delivery Delivery, baseURL string) *Mailer {
	return &Mailer{
		delivery: delivery,
		baseURL:  baseURL,
	}
}

// SendConfirmation dispatches the subscription confirmation email
func (m *Mailer) SendConfirmation(ctx context.Context, email, token string) error {
	return m.send(ctx, TemplateConfirmation, email, token)
}

// SendMagicLink dispatches the profile access email
func (m *Mailer) SendMagicLink(ctx context.Context, email, token string) error {
	return m.send(ctx, TemplateMagicLink, email, token)
}

// SendEmailChange dispatches the email change confirmation to the new address
func (m *Mailer) SendEmailChange(ctx context.Context, email, token string) error {
	return m.send(ctx, TemplateEmailChange, email, token)
}

// SendTemplate dispatches any cataloged template by name
func (m *Mailer) SendTemplate(ctx context.Context, name, email, token string) error {
	return m.send(ctx, name, email, token)
}

// SendTest dispatches a template to an arbitrary recipient with a placeholder
// token and a marked subject, for verifying delivery configuration.
func (m *Mailer) SendTest(ctx context.Context, name, to string) error {
	if err := validation.Validate(to, validation.Required, is.Email); err != nil {
		return goerrors.New("invalid test recipient address", goerrors.CategoryValidation).
			WithMetadata(map[string]any{"to": to})
	}

	tmpl, ok := Templates[name]
	if !ok {
		return unknownTemplate(name)
	}

	return m.delivery.Send(ctx, to, "[TEST] "+tmpl.Subject, tmpl.Content(m.baseURL, testTokenPlaceholder))
}

func (m *Mailer) send(ctx context.Context, name, email, token string) error {
	tmpl, ok := Templates[name]
	if !ok {
		return unknownTemplate(name)
	}

	return m.delivery.Send(ctx, email, tmpl.Subject, tmpl.Content(m.baseURL, token))
}

func unknownTemplate(name string) error {
	return goerrors.New("unknown email template", goerrors.CategoryBadInput).
		WithMetadata(map[string]any{
			"template": name,
			"valid":    TemplateNames(),
		})
}
