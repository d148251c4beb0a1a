package subscribe

import (
	"context"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// SubscribeAction describes what the subscribe flow did
type SubscribeAction = string

const (
	// SubscribeCreated means a new pending subscriber row was inserted
	SubscribeCreated SubscribeAction = "created"
	// SubscribeResend means a fresh confirmation token superseded a previous one
	SubscribeResend SubscribeAction = "resend"
	// SubscribeNone means the address is already activated, nothing changed
	SubscribeNone SubscribeAction = "none"
)

type SubscribeMessage struct {
	Email     string `json:"email" example:"pepe.rone@example.com" doc:"Subscriber email."`
	Nickname  string `json:"nickname" example:"Pepe" doc:"Optional display name."`
	UseHashid bool
}

func (m SubscribeMessage) Type() string { return "subscriber.subscribe" }

// Validate will run validation rules
func (m SubscribeMessage) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(
			&m.Email,
			validation.Required,
			is.Email,
		),
	)
}

type SubscribeResponse struct {
	Subscriber *Subscriber
	Action     SubscribeAction
	// ConfirmationToken is set for created/resend. The caller is responsible
	// for dispatching the confirmation email; this flow never sends mail.
	ConfirmationToken string
}

type SubscribeHandler struct {
	repo     RepositoryManager
	config   Config
	activity ActivitySink
	logger   Logger
	debug    bool
}

// NewSubscribeHandler creates a handler with sane defaults.
func NewSubscribeHandler(repo RepositoryManager) *SubscribeHandler {
	return &SubscribeHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithConfig overrides the default token TTL policy.
func (h *SubscribeHandler) WithConfig(cfg Config) *SubscribeHandler {
	h.config = cfg
	return h
}

// WithActivitySink sets the sink used to emit subscription events.
func (h *SubscribeHandler) WithActivitySink(sink ActivitySink) *SubscribeHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *SubscribeHandler) WithLogger(logger Logger) *SubscribeHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithDebug enables payload dumps.
func (h *SubscribeHandler) WithDebug(debug bool) *SubscribeHandler {
	h.debug = debug
	return h
}

func (h *SubscribeHandler) Execute(ctx context.Context, event SubscribeMessage) (*SubscribeResponse, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during subscribe",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SubscribeHandler) execute(ctx context.Context, event SubscribeMessage) (*SubscribeResponse, error) {
	// no store access on syntax failure
	if err := event.Validate(); err != nil {
		return nil, goerrors.New("invalid email address", goerrors.CategoryValidation).
			WithTextCode(TextCodeInvalidEmail).
			WithMetadata(map[string]any{"email": event.Email})
	}

	if h.debug {
		fmt.Println("======= SUBSCRIBE =======")
		fmt.Println(print.MaybePrettyJSON(event))
		fmt.Println("=========================")
	}

	resp := &SubscribeResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := h.repo.Subscribers().GetByEmailTx(ctx, tx, event.Email)
		if err != nil && !repository.IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve subscriber")
		}

		if err == nil {
			if existing.IsActivated() {
				resp.Subscriber = existing
				resp.Action = SubscribeNone
				return nil
			}
			return h.resendConfirmation(ctx, tx, existing, resp)
		}

		return h.createSubscriber(ctx, tx, event, resp)
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "subscribe transaction failed")
	}

	h.recordActivity(ctx, resp)

	return resp, nil
}

// resendConfirmation issues a fresh token for a still pending subscriber,
// making the previous token permanently unusable.
func (h *SubscribeHandler) resendConfirmation(ctx context.Context, tx bun.Tx, existing *Subscriber, resp *SubscribeResponse) error {
	token := NewToken()
	expiresAt := ExpiresAt(h.confirmationTTL())

	if err := h.repo.Subscribers().UpdateConfirmationTokenTx(ctx, tx, existing.Email, token, PendingSubscriptionConfirmation, expiresAt); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to refresh confirmation token")
	}

	existing.ConfirmationToken = token
	existing.ConfirmationExpiresAt = &expiresAt
	existing.PendingAction = PendingSubscriptionConfirmation

	resp.Subscriber = existing
	resp.Action = SubscribeResend
	resp.ConfirmationToken = token
	return nil
}

func (h *SubscribeHandler) createSubscriber(ctx context.Context, tx bun.Tx, event SubscribeMessage, resp *SubscribeResponse) error {
	expiresAt := ExpiresAt(h.confirmationTTL())

	record := &Subscriber{
		Email:                 event.Email,
		Nickname:              event.Nickname,
		UnsubscribeToken:      NewToken(),
		ConfirmationToken:     NewToken(),
		ConfirmationExpiresAt: &expiresAt,
		PendingAction:         PendingSubscriptionConfirmation,
	}

	if event.UseHashid {
		if id, err := hashid.NewUUID(event.Email); err == nil {
			record.ID = id
		}
	}

	created, err := h.repo.Subscribers().CreateTx(ctx, tx, record)
	if err != nil {
		if isUniqueViolation(err) {
			return goerrors.New("email address already subscribed", goerrors.CategoryConflict).
				WithTextCode(TextCodeEmailTaken).
				WithMetadata(map[string]any{"email": event.Email})
		}
		return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create subscriber")
	}

	resp.Subscriber = created
	resp.Action = SubscribeCreated
	resp.ConfirmationToken = created.ConfirmationToken
	return nil
}

func (h *SubscribeHandler) confirmationTTL() time.Duration {
	if h.config != nil && h.config.GetConfirmationTTL() > 0 {
		return h.config.GetConfirmationTTL()
	}
	return ConfirmationTokenTTL
}

func (h *SubscribeHandler) recordActivity(ctx context.Context, resp *SubscribeResponse) {
	if resp == nil || resp.Subscriber == nil || resp.Action == SubscribeNone {
		return
	}

	eventType := ActivityEventSubscriberCreated
	if resp.Action == SubscribeResend {
		eventType = ActivityEventConfirmationResent
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
		h.getLogger().Warn("activity sink error during subscribe: %v", err)
	}
}

func (h *SubscribeHandler) getLogger() Logger {
	if h.logger != nil {
		return h.logger
	}
	return defLogger{}
}
