package subscribe

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type UnsubscribeMessage struct {
	Token string `json:"token" doc:"Unsubscribe token."`
}

func (m UnsubscribeMessage) Type() string { return "subscriber.unsubscribe" }

// UnsubscribeHandler deletes by unsubscribe token. An unknown token is a
// no-op, not an error, so the endpoint leaks nothing about membership.
type UnsubscribeHandler struct {
	repo   RepositoryManager
	logger Logger
}

// NewUnsubscribeHandler creates a handler with sane defaults.
func NewUnsubscribeHandler(repo RepositoryManager) *UnsubscribeHandler {
	return &UnsubscribeHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *UnsubscribeHandler) WithLogger(logger Logger) *UnsubscribeHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *UnsubscribeHandler) Execute(ctx context.Context, event UnsubscribeMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during unsubscribe",
		)
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := h.repo.Subscribers().DeleteByUnsubscribeToken(ctx, event.Token); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to unsubscribe")
	}

	return nil
}

type RemoveSubscriberMessage struct {
	Email string `json:"email" example:"pepe.rone@example.com" doc:"Subscriber email."`
}

func (m RemoveSubscriberMessage) Type() string { return "subscriber.remove" }

// RemoveSubscriberHandler is the administrative delete-by-email. Unlike
// unsubscribe, the caller is authenticated, so reporting whether a row
// existed is acceptable.
type RemoveSubscriberHandler struct {
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
}

// NewRemoveSubscriberHandler creates a handler with sane defaults.
func NewRemoveSubscriberHandler(repo RepositoryManager) *RemoveSubscriberHandler {
	return &RemoveSubscriberHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithActivitySink sets the sink used to emit removal events.
func (h *RemoveSubscriberHandler) WithActivitySink(sink ActivitySink) *RemoveSubscriberHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *RemoveSubscriberHandler) WithLogger(logger Logger) *RemoveSubscriberHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RemoveSubscriberHandler) Execute(ctx context.Context, event RemoveSubscriberMessage) (bool, error) {
	select {
	case <-ctx.Done():
		return false, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during subscriber removal",
		)
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var existed bool

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		existed, err = h.repo.Subscribers().DeleteByEmailTx(ctx, tx, event.Email)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove subscriber")
		}
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return false, richErr
		}
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "removal transaction failed")
	}

	if existed {
		h.recordActivity(ctx, event.Email)
	}

	return existed, nil
}

func (h *RemoveSubscriberHandler) recordActivity(ctx context.Context, email string) {
	event := ActivityEvent{
		EventType: ActivityEventSubscriberRemoved,
		Actor: ActorRef{
			ID:   "admin",
			Type: "admin",
		},
		Email:      email,
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.getLogger().Warn("activity sink error during removal: %v", err)
	}
}

func (h *RemoveSubscriberHandler) getLogger() Logger {
	if h.logger != nil {
		return h.logger
	}
	return defLogger{}
}
