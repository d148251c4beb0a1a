// Package notifier renders and dispatches the transactional emails that
// carry subscription, magic link, and email change tokens. Flows in the
// parent package only return tokens; dispatch is always a separate step so
// subscriber state never depends on delivery succeeding.
package notifier

import "context"

// EmailContent is the rendered body handed to a Delivery implementation
type EmailContent struct {
	PreviewText string
	Heading     string
	BodyText    string
	ActionURL   string
	ActionText  string
}

// Delivery sends one email. Implementations must not be consulted about
// subscriber state; a failed send only affects receipt of the link.
type Delivery interface {
	Send(ctx context.Context, to, subject string, content EmailContent) error
}
