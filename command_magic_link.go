package subscribe

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type RequestMagicLinkMessage struct {
	Email string `json:"email" example:"pepe.rone@example.com" doc:"Subscriber email."`
}

func (m RequestMagicLinkMessage) Type() string { return "subscriber.magic_link.request" }

type RequestMagicLinkResponse struct {
	// Token is empty when no link was issued. Unknown addresses and pending
	// subscribers both come back empty so callers cannot probe the list.
	Token      string
	Subscriber *Subscriber
}

type RequestMagicLinkHandler struct {
	repo     RepositoryManager
	config   Config
	activity ActivitySink
	logger   Logger
}

// NewRequestMagicLinkHandler creates a handler with sane defaults.
func NewRequestMagicLinkHandler(repo RepositoryManager) *RequestMagicLinkHandler {
	return &RequestMagicLinkHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithConfig overrides the default token TTL policy.
func (h *RequestMagicLinkHandler) WithConfig(cfg Config) *RequestMagicLinkHandler {
	h.config = cfg
	return h
}

// WithActivitySink sets the sink used to emit magic link events.
func (h *RequestMagicLinkHandler) WithActivitySink(sink ActivitySink) *RequestMagicLinkHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *RequestMagicLinkHandler) WithLogger(logger Logger) *RequestMagicLinkHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RequestMagicLinkHandler) Execute(ctx context.Context, event RequestMagicLinkMessage) (*RequestMagicLinkResponse, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during magic link request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RequestMagicLinkHandler) execute(ctx context.Context, event RequestMagicLinkMessage) (*RequestMagicLinkResponse, error) {
	resp := &RequestMagicLinkResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		sub, err := h.repo.Subscribers().GetByEmailTx(ctx, tx, event.Email)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return nil
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve subscriber")
		}

		// only a confirmed identity can be granted profile access
		if !sub.IsActivated() {
			return nil
		}

		token := NewToken()
		expiresAt := ExpiresAt(h.magicLinkTTL())

		// overwrites any previous link: at most one live link per subscriber
		if err := h.repo.Subscribers().UpdateMagicLinkTx(ctx, tx, sub.ID, token, expiresAt); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue magic link")
		}

		sub.MagicLinkToken = token
		sub.MagicLinkExpiresAt = &expiresAt

		resp.Token = token
		resp.Subscriber = sub
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "magic link transaction failed")
	}

	h.recordActivity(ctx, resp)

	return resp, nil
}

func (h *RequestMagicLinkHandler) magicLinkTTL() time.Duration {
	if h.config != nil && h.config.GetMagicLinkTTL() > 0 {
		return h.config.GetMagicLinkTTL()
	}
	return MagicLinkTokenTTL
}

func (h *RequestMagicLinkHandler) recordActivity(ctx context.Context, resp *RequestMagicLinkResponse) {
	if resp == nil || resp.Subscriber == nil || resp.Token == "" {
		return
	}

	event := ActivityEvent{
		EventType: ActivityEventMagicLinkIssued,
		Actor: ActorRef{
			ID:   resp.Subscriber.ID.String(),
			Type: "subscriber",
		},
		SubscriberID: resp.Subscriber.ID.String(),
		Email:        resp.Subscriber.Email,
		OccurredAt:   time.Now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.getLogger().Warn("activity sink error during magic link request: %v", err)
	}
}

func (h *RequestMagicLinkHandler) getLogger() Logger {
	if h.logger != nil {
		return h.logger
	}
	return defLogger{}
}

type ValidateMagicLinkMessage struct {
	Token string `json:"token" example:"350399bc-c095-4bdc-a59c-3352d44848e4" doc:"Magic link token."`
}

func (m ValidateMagicLinkMessage) Type() string { return "subscriber.magic_link.validate" }

// ValidateMagicLinkHandler checks magic link tokens without consuming them.
// Expired tokens are cleared at lookup time rather than by a background sweep.
type ValidateMagicLinkHandler struct {
	repo   RepositoryManager
	logger Logger
}

var _ MagicLinkValidator = (*ValidateMagicLinkHandler)(nil)

// NewValidateMagicLinkHandler creates a handler with sane defaults.
func NewValidateMagicLinkHandler(repo RepositoryManager) *ValidateMagicLinkHandler {
	return &ValidateMagicLinkHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *ValidateMagicLinkHandler) WithLogger(logger Logger) *ValidateMagicLinkHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// Execute returns the subscriber holding an unexpired token, or nil for an
// unknown or expired one. The token fields are left intact on success.
func (h *ValidateMagicLinkHandler) Execute(ctx context.Context, event ValidateMagicLinkMessage) (*Subscriber, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during magic link validation",
		)
	default:
	}

	sub, err := h.repo.Subscribers().GetByMagicLinkToken(ctx, event.Token)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve magic link token")
	}

	if sub.IsMagicLinkExpired() {
		if err := h.repo.Subscribers().ClearMagicLinkByID(ctx, sub.ID); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to clear expired magic link")
		}
		return nil, nil
	}

	return sub, nil
}

// Consume clears the magic link unconditionally by token value. Flows that
// need one-shot semantics call this after validation succeeds and before
// committing other changes.
func (h *ValidateMagicLinkHandler) Consume(ctx context.Context, token string) error {
	if err := h.repo.Subscribers().ClearMagicLinkByToken(ctx, token); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to consume magic link")
	}
	return nil
}
