package subscribe

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// UpdateProfileError discriminates expected business outcomes
type UpdateProfileError = string

const (
	// UpdateProfileInvalidToken means the magic link was missing or expired
	UpdateProfileInvalidToken UpdateProfileError = "invalid_token"
	// UpdateProfileEmailTaken means the requested address belongs to someone else
	UpdateProfileEmailTaken UpdateProfileError = "email_taken"
)

type UpdateProfileMessage struct {
	Token string `json:"token" example:"350399bc-c095-4bdc-a59c-3352d44848e4" doc:"Magic link token."`
	// Nickname is a pointer so an empty string reads as "clear nickname"
	// while nil reads as "field omitted".
	Nickname *string `json:"nickname,omitempty" doc:"Optional display name update."`
	Email    string  `json:"email,omitempty" doc:"Optional new email address."`
}

func (m UpdateProfileMessage) Type() string { return "subscriber.profile.update" }

// Validate will run validation rules
func (m UpdateProfileMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Token, validation.Required),
		validation.Field(&m.Email, is.Email),
	)
}

type UpdateProfileResponse struct {
	// Error is empty on success, or one of the UpdateProfile* discriminants
	Error UpdateProfileError
	// EmailChangeToken is set when an email change was initiated. The caller
	// dispatches the confirmation message; this flow never sends mail.
	EmailChangeToken string
	Subscriber       *Subscriber
}

// UpdateProfileHandler composes magic link validation with nickname and
// email change updates. The uniqueness check runs before any mutation so a
// conflict leaves every field, and the magic link itself, untouched.
type UpdateProfileHandler struct {
	repo      RepositoryManager
	config    Config
	validator MagicLinkValidator
	activity  ActivitySink
	logger    Logger
}

// NewUpdateProfileHandler creates a handler with sane defaults.
func NewUpdateProfileHandler(repo RepositoryManager) *UpdateProfileHandler {
	return &UpdateProfileHandler{
		repo:      repo,
		validator: NewValidateMagicLinkHandler(repo),
		activity:  noopActivitySink{},
		logger:    defLogger{},
	}
}

// WithConfig overrides the default token TTL policy.
func (h *UpdateProfileHandler) WithConfig(cfg Config) *UpdateProfileHandler {
	h.config = cfg
	return h
}

// WithValidator overrides the magic link validator.
func (h *UpdateProfileHandler) WithValidator(v MagicLinkValidator) *UpdateProfileHandler {
	if v != nil {
		h.validator = v
	}
	return h
}

// WithActivitySink sets the sink used to emit profile events.
func (h *UpdateProfileHandler) WithActivitySink(sink ActivitySink) *UpdateProfileHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *UpdateProfileHandler) WithLogger(logger Logger) *UpdateProfileHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *UpdateProfileHandler) Execute(ctx context.Context, event UpdateProfileMessage) (*UpdateProfileResponse, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during profile update",
		)
	default:
		return h.execute(ctx, event)
	}
}

// execute deliberately does not run in a single transaction: once validation
// passes the magic link is consumed for good, even if a later store write
// fails. Rolling the consumption back would reopen the replay window the
// consume step exists to close.
func (h *UpdateProfileHandler) execute(ctx context.Context, event UpdateProfileMessage) (*UpdateProfileResponse, error) {
	if err := event.Validate(); err != nil {
		if event.Token == "" {
			return nil, goerrors.New("missing magic link token", goerrors.CategoryValidation).
				WithTextCode(TextCodeInvalidToken)
		}
		return nil, goerrors.New("invalid profile update payload", goerrors.CategoryValidation).
			WithTextCode(TextCodeInvalidEmail).
			WithMetadata(map[string]any{"email": event.Email})
	}

	resp := &UpdateProfileResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	sub, err := h.validator.Execute(ctx, ValidateMagicLinkMessage{Token: event.Token})
	if err != nil {
		return nil, err
	}
	if sub == nil {
		resp.Error = UpdateProfileInvalidToken
		return resp, nil
	}

	wantsEmailChange := event.Email != "" && event.Email != sub.Email

	// conflict check before any mutation, so email_taken has no side effects
	// and the magic link survives for a retry without the email change
	if wantsEmailChange {
		taken, err := h.repo.Subscribers().ExistsByEmail(ctx, event.Email)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email availability")
		}
		if taken {
			resp.Error = UpdateProfileEmailTaken
			return resp, nil
		}
	}

	// one-shot use regardless of which sub-updates follow
	if err := h.validator.Consume(ctx, event.Token); err != nil {
		return nil, err
	}

	if event.Nickname != nil {
		if _, err := h.repo.Subscribers().UpdateNickname(ctx, sub.Email, *event.Nickname); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update nickname")
		}
		sub.Nickname = *event.Nickname
	}

	if wantsEmailChange && sub.IsActivated() {
		token := NewToken()
		expiresAt := ExpiresAt(h.confirmationTTL())

		if err := h.repo.Subscribers().SetPendingEmail(ctx, sub.ID, event.Email, token, expiresAt); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to initiate email change")
		}

		sub.PendingEmail = event.Email
		sub.PendingAction = PendingEmailChange
		sub.ConfirmationToken = token
		sub.ConfirmationExpiresAt = &expiresAt

		resp.EmailChangeToken = token
	}

	resp.Subscriber = sub

	h.recordActivity(ctx, resp)

	return resp, nil
}

func (h *UpdateProfileHandler) confirmationTTL() time.Duration {
	if h.config != nil && h.config.GetConfirmationTTL() > 0 {
		return h.config.GetConfirmationTTL()
	}
	return ConfirmationTokenTTL
}

func (h *UpdateProfileHandler) recordActivity(ctx context.Context, resp *UpdateProfileResponse) {
	if resp == nil || resp.Subscriber == nil || resp.EmailChangeToken == "" {
		return
	}

	event := ActivityEvent{
		EventType: ActivityEventEmailChangeRequested,
		Actor: ActorRef{
			ID:   resp.Subscriber.ID.String(),
			Type: "subscriber",
		},
		SubscriberID: resp.Subscriber.ID.String(),
		Email:        resp.Subscriber.Email,
		Metadata: map[string]any{
			"pending_email": resp.Subscriber.PendingEmail,
		},
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.getLogger().Warn("activity sink error during profile update: %v", err)
	}
}

func (h *UpdateProfileHandler) getLogger() Logger {
	if h.logger != nil {
		return h.logger
	}
	return defLogger{}
}
