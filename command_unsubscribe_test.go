package subscribe_test

import (
	"context"
	"database/sql"
	"testing"

	subscribe "github.com/goliatone/go-subscribe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUnsubscribeHandlerDeletesByToken(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepositoryManager{}
	subs := &MockSubscribers{}

	handler := subscribe.NewUnsubscribeHandler(repo).WithLogger(testLogger{})

	repo.On("Subscribers").Return(subs).Once()
	subs.On("DeleteByUnsubscribeToken", mock.Anything, "unsub-token").
		Return(nil).Once()

	err := handler.Execute(ctx, subscribe.UnsubscribeMessage{Token: "unsub-token"})
	require.NoError(t, err)

	repo.AssertExpectations(t)
	subs.AssertExpectations(t)
}

func TestUnsubscribeHandlerUnknownTokenIsNoOp(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepositoryManager{}
	subs := &MockSubscribers{}

	handler := subscribe.NewUnsubscribeHandler(repo).WithLogger(testLogger{})

	repo.On("Subscribers").Return(subs).Once()
	subs.On("DeleteByUnsubscribeToken", mock.Anything, "never-issued").
		Return(nil).Once()

	// the store reports nothing about matched rows and neither do we
	err := handler.Execute(ctx, subscribe.UnsubscribeMessage{Token: "never-issued"})
	require.NoError(t, err)

	repo.AssertExpectations(t)
	subs.AssertExpectations(t)
}

func TestRemoveSubscriberHandlerReportsExistence(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepositoryManager{}
	subs := &MockSubscribers{}
	sink := &MockActivitySink{}

	handler := subscribe.NewRemoveSubscriberHandler(repo).
		WithActivitySink(sink).
		WithLogger(testLogger{})

	repo.On("Subscribers").Return(subs).Once()
	repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).
		Return(nil).Once()

	subs.On("DeleteByEmailTx", mock.Anything, mock.Anything, "pepe.rone@example.com").
		Return(true, nil).Once()

	sink.On("Record", mock.Anything, mock.MatchedBy(func(evt subscribe.ActivityEvent) bool {
		return evt.EventType == subscribe.ActivityEventSubscriberRemoved &&
			evt.Actor.Type == "admin" &&
			evt.Email == "pepe.rone@example.com"
	})).Return(nil).Once()

	existed, err := handler.Execute(ctx, subscribe.RemoveSubscriberMessage{Email: "pepe.rone@example.com"})
	require.NoError(t, err)
	assert.True(t, existed)

	repo.AssertExpectations(t)
	subs.AssertExpectations(t)
	sink.AssertExpectations(t)
}

func TestRemoveSubscriberHandlerMissingRowIsFalse(t *testing.T) {
	ctx := context.Background()
	repo := &MockRepositoryManager{}
	subs := &MockSubscribers{}
	sink := &MockActivitySink{}

	handler := subscribe.NewRemoveSubscriberHandler(repo).
		WithActivitySink(sink).
		WithLogger(testLogger{})

	repo.On("Subscribers").Return(subs).Once()
	repo.On("RunInTx", mock.Anything, (*sql.TxOptions)(nil), mock.Anything).
		Return(nil).Once()

	subs.On("DeleteByEmailTx", mock.Anything, mock.Anything, "ghost@example.com").
		Return(false, nil).Once()

	existed, err := handler.Execute(ctx, subscribe.RemoveSubscriberMessage{Email: "ghost@example.com"})
	require.NoError(t, err)
	assert.False(t, existed)

	sink.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)

	repo.AssertExpectations(t)
	subs.AssertExpectations(t)
}
