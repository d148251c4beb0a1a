package subscribe

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// ListSubscribersQuery returns every subscriber, for admin listings
type ListSubscribersQuery struct {
	repo RepositoryManager
}

func NewListSubscribersQuery(repo RepositoryManager) *ListSubscribersQuery {
	return &ListSubscribersQuery{repo: repo}
}

func (q *ListSubscribersQuery) Execute(ctx context.Context) ([]*Subscriber, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during subscriber listing",
		)
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	records, err := q.repo.Subscribers().ListAll(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list subscribers")
	}

	return records, nil
}
