package subscribe

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// ConfirmKind discriminates what a confirmation token turned out to drive
type ConfirmKind = string

const (
	// ConfirmSubscription means the token activated a pending subscriber
	ConfirmSubscription ConfirmKind = "subscription"
	// ConfirmEmailChange means the token committed a pending email change
	ConfirmEmailChange ConfirmKind = "email_change"
	// ConfirmInvalid covers absent, consumed, and expired tokens. The cases
	// are deliberately indistinguishable so callers learn nothing about
	// token state they do not hold.
	ConfirmInvalid ConfirmKind = "invalid"
)

type ConfirmMessage struct {
	Token string `json:"token" example:"350399bc-c095-4bdc-a59c-3352d44848e4" doc:"Confirmation token."`
}

func (m ConfirmMessage) Type() string { return "subscriber.confirm" }

type ConfirmResponse struct {
	Kind       ConfirmKind
	Subscriber *Subscriber
}

// ConfirmHandler is the single entry point for confirmation tokens. The
// token column is shared between subscription and email change flows;
// dispatch goes directly off the PendingAction tag stored at issuance.
type ConfirmHandler struct {
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
}

// NewConfirmHandler creates a handler with sane defaults.
func NewConfirmHandler(repo RepositoryManager) *ConfirmHandler {
	return &ConfirmHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithActivitySink sets the sink used to emit confirmation events.
func (h *ConfirmHandler) WithActivitySink(sink ActivitySink) *ConfirmHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *ConfirmHandler) WithLogger(logger Logger) *ConfirmHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ConfirmHandler) Execute(ctx context.Context, event ConfirmMessage) (*ConfirmResponse, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during confirmation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ConfirmHandler) execute(ctx context.Context, event ConfirmMessage) (*ConfirmResponse, error) {
	resp := &ConfirmResponse{Kind: ConfirmInvalid}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		sub, err := h.repo.Subscribers().GetByConfirmationTokenTx(ctx, tx, event.Token)
		if err != nil {
			// unknown or already consumed token, part of the expected flow
			if repository.IsRecordNotFound(err) {
				return nil
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve confirmation token")
		}

		if sub.IsConfirmationExpired() {
			// lazy cleanup: expiry detection consumes the token
			if err := h.repo.Subscribers().ClearConfirmationTx(ctx, tx, sub.ID); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to clear expired confirmation token")
			}
			return nil
		}

		switch sub.PendingAction {
		case PendingSubscriptionConfirmation:
			return h.confirmSubscription(ctx, tx, sub, resp)
		case PendingEmailChange:
			return h.confirmEmailChange(ctx, tx, sub, resp)
		default:
			return nil
		}
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "confirmation transaction failed")
	}

	h.recordActivity(ctx, resp)

	return resp, nil
}

func (h *ConfirmHandler) confirmSubscription(ctx context.Context, tx bun.Tx, sub *Subscriber, resp *ConfirmResponse) error {
	if sub.IsActivated() {
		return nil
	}

	now := time.Now()
	if err := h.repo.Subscribers().ActivateTx(ctx, tx, sub.ID, now); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to activate subscriber")
	}

	sub.ActivatedAt = &now
	sub.ConfirmationToken = ""
	sub.ConfirmationExpiresAt = nil
	sub.PendingAction = ""

	resp.Kind = ConfirmSubscription
	resp.Subscriber = sub
	return nil
}

// confirmEmailChange re-checks target uniqueness at commit time: another
// subscriber may have claimed the address between issuance and now. A lost
// race reads as invalid, never as a silently different address.
func (h *ConfirmHandler) confirmEmailChange(ctx context.Context, tx bun.Tx, sub *Subscriber, resp *ConfirmResponse) error {
	if !sub.IsActivated() || sub.PendingEmail == "" {
		return nil
	}

	newEmail := sub.PendingEmail

	taken, err := h.repo.Subscribers().ExistsByEmailTx(ctx, tx, newEmail)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email availability")
	}
	if taken {
		return nil
	}

	if err := h.repo.Subscribers().CommitEmailChangeTx(ctx, tx, sub.ID, newEmail); err != nil {
		// the unique constraint is the final arbiter under races
		if isUniqueViolation(err) {
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to commit email change")
	}

	sub.Email = newEmail
	sub.PendingEmail = ""
	sub.ConfirmationToken = ""
	sub.ConfirmationExpiresAt = nil
	sub.PendingAction = ""

	resp.Kind = ConfirmEmailChange
	resp.Subscriber = sub
	return nil
}

func (h *ConfirmHandler) recordActivity(ctx context.Context, resp *ConfirmResponse) {
	if resp == nil || resp.Subscriber == nil || resp.Kind == ConfirmInvalid {
		return
	}

	eventType := ActivityEventSubscriberActivated
	if resp.Kind == ConfirmEmailChange {
		eventType = ActivityEventEmailChangeCommitted
	}

	event := ActivityEvent{
		EventType: eventType,
		Actor: ActorRef{
			ID:   resp.Subscriber.ID.String(),
			Type: "subscriber",
		},
		SubscriberID: resp.Subscriber.ID.String(),
		Email:        resp.Subscriber.Email,
		OccurredAt:   time.Now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.getLogger().Warn("activity sink error during confirmation: %v", err)
	}
}

func (h *ConfirmHandler) getLogger() Logger {
	if h.logger != nil {
		return h.logger
	}
	return defLogger{}
}
