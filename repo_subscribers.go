package subscribe

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Subscribers is the store contract the flows depend on. All operations are
// keyed by stable identifiers or unique tokens, never by row position.
type Subscribers interface {
	GetByEmail(ctx context.Context, email string) (*Subscriber, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Subscriber, error)
	GetByConfirmationToken(ctx context.Context, token string) (*Subscriber, error)
	GetByConfirmationTokenTx(ctx context.Context, tx bun.IDB, token string) (*Subscriber, error)
	GetByMagicLinkToken(ctx context.Context, token string) (*Subscriber, error)
	GetByMagicLinkTokenTx(ctx context.Context, tx bun.IDB, token string) (*Subscriber, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByEmailTx(ctx context.Context, tx bun.IDB, email string) (bool, error)
	ListAll(ctx context.Context) ([]*Subscriber, error)
	ListAllTx(ctx context.Context, tx bun.IDB) ([]*Subscriber, error)

	Create(ctx context.Context, record *Subscriber, criteria ...repository.InsertCriteria) (*Subscriber, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Subscriber, criteria ...repository.InsertCriteria) (*Subscriber, error)

	UpdateConfirmationToken(ctx context.Context, email, token string, action PendingAction, expiresAt time.Time) error
	UpdateConfirmationTokenTx(ctx context.Context, tx bun.IDB, email, token string, action PendingAction, expiresAt time.Time) error
	ClearConfirmation(ctx context.Context, id uuid.UUID) error
	ClearConfirmationTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
	Activate(ctx context.Context, id uuid.UUID, activatedAt time.Time) error
	ActivateTx(ctx context.Context, tx bun.IDB, id uuid.UUID, activatedAt time.Time) error

	UpdateMagicLink(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error
	UpdateMagicLinkTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string, expiresAt time.Time) error
	ClearMagicLinkByID(ctx context.Context, id uuid.UUID) error
	ClearMagicLinkByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
	ClearMagicLinkByToken(ctx context.Context, token string) error
	ClearMagicLinkByTokenTx(ctx context.Context, tx bun.IDB, token string) error

	UpdateNickname(ctx context.Context, email, nickname string) (bool, error)
	UpdateNicknameTx(ctx context.Context, tx bun.IDB, email, nickname string) (bool, error)
	SetPendingEmail(ctx context.Context, id uuid.UUID, pendingEmail, token string, expiresAt time.Time) error
	SetPendingEmailTx(ctx context.Context, tx bun.IDB, id uuid.UUID, pendingEmail, token string, expiresAt time.Time) error
	CommitEmailChange(ctx context.Context, id uuid.UUID, newEmail string) error
	CommitEmailChangeTx(ctx context.Context, tx bun.IDB, id uuid.UUID, newEmail string) error

	DeleteByEmail(ctx context.Context, email string) (bool, error)
	DeleteByEmailTx(ctx context.Context, tx bun.IDB, email string) (bool, error)
	DeleteByUnsubscribeToken(ctx context.Context, token string) error
	DeleteByUnsubscribeTokenTx(ctx context.Context, tx bun.IDB, token string) error
}

type subscribers struct {
	repository.Repository[*Subscriber]
	db *bun.DB
}

var _ Subscribers = (*subscribers)(nil)

// NewSubscribersRepository creates the bun backed store
func NewSubscribersRepository(db *bun.DB) Subscribers {
	repo := repository.NewRepository[*Subscriber](db, repository.ModelHandlers[*Subscriber]{
		NewRecord: func() *Subscriber { return &Subscriber{} },
		GetID: func(s *Subscriber) uuid.UUID {
			if s == nil {
				return uuid.Nil
			}
			return s.ID
		},
		SetID: func(s *Subscriber, id uuid.UUID) {
			if s != nil {
				s.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &subscribers{
		Repository: repo,
		db:         db,
	}
}

func (a *subscribers) GetByEmail(ctx context.Context, email string) (*Subscriber, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *subscribers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Subscriber, error) {
	return a.getByColumnTx(ctx, tx, "email", email)
}

func (a *subscribers) GetByConfirmationToken(ctx context.Context, token string) (*Subscriber, error) {
	return a.GetByConfirmationTokenTx(ctx, a.db, token)
}

func (a *subscribers) GetByConfirmationTokenTx(ctx context.Context, tx bun.IDB, token string) (*Subscriber, error) {
	return a.getByColumnTx(ctx, tx, "confirmation_token", token)
}

func (a *subscribers) GetByMagicLinkToken(ctx context.Context, token string) (*Subscriber, error) {
	return a.GetByMagicLinkTokenTx(ctx, a.db, token)
}

func (a *subscribers) GetByMagicLinkTokenTx(ctx context.Context, tx bun.IDB, token string) (*Subscriber, error) {
	return a.getByColumnTx(ctx, tx, "magic_link_token", token)
}

func (a *subscribers) getByColumnTx(ctx context.Context, tx bun.IDB, column, value string) (*Subscriber, error) {
	record := &Subscriber{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias."+column+" = ?", value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					column: value,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *subscribers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return a.ExistsByEmailTx(ctx, a.db, email)
}

func (a *subscribers) ExistsByEmailTx(ctx context.Context, tx bun.IDB, email string) (bool, error) {
	return tx.NewSelect().
		Model((*Subscriber)(nil)).
		Where("?TableAlias.email = ?", email).
		Exists(ctx)
}

func (a *subscribers) ListAll(ctx context.Context) ([]*Subscriber, error) {
	return a.ListAllTx(ctx, a.db)
}

func (a *subscribers) ListAllTx(ctx context.Context, tx bun.IDB) ([]*Subscriber, error) {
	var records []*Subscriber
	err := tx.NewSelect().
		Model(&records).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (a *subscribers) Create(ctx context.Context, record *Subscriber, criteria ...repository.InsertCriteria) (*Subscriber, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *subscribers) CreateTx(ctx context.Context, tx bun.IDB, record *Subscriber, criteria ...repository.InsertCriteria) (*Subscriber, error) {
	prepareSubscriberDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *subscribers) UpdateConfirmationToken(ctx context.Context, email, token string, action PendingAction, expiresAt time.Time) error {
	return a.UpdateConfirmationTokenTx(ctx, a.db, email, token, action, expiresAt)
}

// UpdateConfirmationTokenTx overwrites any outstanding confirmation token,
// which makes the previous one permanently unusable.
func (a *subscribers) UpdateConfirmationTokenTx(ctx context.Context, tx bun.IDB, email, token string, action PendingAction, expiresAt time.Time) error {
	_, err := tx.NewUpdate().
		Model((*Subscriber)(nil)).
		Set("confirmation_token = ?", token).
		Set("confirmation_expires_at = ?", expiresAt).
		Set("pending_action = ?", action).
		Set("updated_at = ?", time.Now()).
		Where("email = ?", email).
		Exec(ctx)
	return err
}

func (a *subscribers) ClearConfirmation(ctx context.Context, id uuid.UUID) error {
	return a.ClearConfirmationTx(ctx, a.db, id)
}

// ClearConfirmationTx drops the confirmation token together with any pending
// email change it was driving. Used for lazy cleanup on expiry detection.
func (a *subscribers) ClearConfirmationTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	_, err := tx.NewUpdate().
		Model((*Subscriber)(nil)).
		Set("confirmation_token = NULL").
		Set("confirmation_expires_at = NULL").
		Set("pending_action = NULL").
		Set("pending_email = NULL").
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (a *subscribers) Activate(ctx context.Context, id uuid.UUID, activatedAt time.Time) error {
	return a.ActivateTx(ctx, a.db, id, activatedAt)
}

// ActivateTx sets activated_at once and consumes the confirmation token in the
// same statement. The activated_at IS NULL guard keeps the transition one way.
func (a *subscribers) ActivateTx(ctx context.Context, tx bun.IDB, id uuid.UUID, activatedAt time.Time) error {
	_, err := tx.NewUpdate().
		Model((*Subscriber)(nil)).
		Set("activated_at = ?", activatedAt).
		Set("confirmation_token = NULL").
		Set("confirmation_expires_at = NULL").
		Set("pending_action = NULL").
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Where("activated_at IS NULL").
		Exec(ctx)
	return err
}

func (a *subscribers) UpdateMagicLink(ctx context.Context, id uuid.UUID, token string, expiresAt time.Time) error {
	return a.UpdateMagicLinkTx(ctx, a.db, id, token, expiresAt)
}

// UpdateMagicLinkTx overwrites any previous link so at most one is live
func (a *subscribers) UpdateMagicLinkTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string, expiresAt time.Time) error {
	_, err := tx.NewUpdate().
		Model((*Subscriber)(nil)).
		Set("magic_link_token = ?", token).
		Set("magic_link_expires_at = ?", expiresAt).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (a *subscribers) ClearMagicLinkByID(ctx context.Context, id uuid.UUID) error {
	return a.ClearMagicLinkByIDTx(ctx, a.db, id)
}

func (a *subscribers) ClearMagicLinkByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	_, err := tx.NewUpdate().
		Model((*Subscriber)(nil)).
		Set("magic_link_token = NULL").
		Set("magic_link_expires_at = NULL").
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (a *subscribers) ClearMagicLinkByToken(ctx context.Context, token string) error {
	return a.ClearMagicLinkByTokenTx(ctx, a.db, token)
}

func (a *subscribers) ClearMagicLinkByTokenTx(ctx context.Context, tx bun.IDB, token string) error {
	_, err := tx.NewUpdate().
		Model((*Subscriber)(nil)).
		Set("magic_link_token = NULL").
		Set("magic_link_expires_at = NULL").
		Set("updated_at = ?", time.Now()).
		Where("magic_link_token = ?", token).
		Exec(ctx)
	return err
}

func (a *subscribers) UpdateNickname(ctx context.Context, email, nickname string) (bool, error) {
	return a.UpdateNicknameTx(ctx, a.db, email, nickname)
}

func (a *subscribers) UpdateNicknameTx(ctx context.Context, tx bun.IDB, email, nickname string) (bool, error) {
	res, err := tx.NewUpdate().
		Model((*Subscriber)(nil)).
		Set("nickname = ?", nickname).
		Set("updated_at = ?", time.Now()).
		Where("email = ?", email).
		Exec(ctx)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (a *subscribers) SetPendingEmail(ctx context.Context, id uuid.UUID, pendingEmail, token string, expiresAt time.Time) error {
	return a.SetPendingEmailTx(ctx, a.db, id, pendingEmail, token, expiresAt)
}

// SetPendingEmailTx is the only writer of pending_email. The confirmation
// token it issues is tagged as an email change.
func (a *subscribers) SetPendingEmailTx(ctx context.Context, tx bun.IDB, id uuid.UUID, pendingEmail, token string, expiresAt time.Time) error {
	_, err := tx.NewUpdate().
		Model((*Subscriber)(nil)).
		Set("pending_email = ?", pendingEmail).
		Set("pending_action = ?", PendingEmailChange).
		Set("confirmation_token = ?", token).
		Set("confirmation_expires_at = ?", expiresAt).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (a *subscribers) CommitEmailChange(ctx context.Context, id uuid.UUID, newEmail string) error {
	return a.CommitEmailChangeTx(ctx, a.db, id, newEmail)
}

// CommitEmailChangeTx swaps the address and consumes the change token. The
// unique constraint on email makes this the authoritative uniqueness check.
func (a *subscribers) CommitEmailChangeTx(ctx context.Context, tx bun.IDB, id uuid.UUID, newEmail string) error {
	_, err := tx.NewUpdate().
		Model((*Subscriber)(nil)).
		Set("email = ?", newEmail).
		Set("pending_email = NULL").
		Set("pending_action = NULL").
		Set("confirmation_token = NULL").
		Set("confirmation_expires_at = NULL").
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (a *subscribers) DeleteByEmail(ctx context.Context, email string) (bool, error) {
	return a.DeleteByEmailTx(ctx, a.db, email)
}

func (a *subscribers) DeleteByEmailTx(ctx context.Context, tx bun.IDB, email string) (bool, error) {
	res, err := tx.NewDelete().
		Model((*Subscriber)(nil)).
		Where("email = ?", email).
		Exec(ctx)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (a *subscribers) DeleteByUnsubscribeToken(ctx context.Context, token string) error {
	return a.DeleteByUnsubscribeTokenTx(ctx, a.db, token)
}

// DeleteByUnsubscribeTokenTx is a no-op when the token matches nothing, so
// callers cannot tell "already unsubscribed" from "never subscribed".
func (a *subscribers) DeleteByUnsubscribeTokenTx(ctx context.Context, tx bun.IDB, token string) error {
	_, err := tx.NewDelete().
		Model((*Subscriber)(nil)).
		Where("unsubscribe_token = ?", token).
		Exec(ctx)
	return err
}

func prepareSubscriberDefaults(record *Subscriber) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if record.CreatedAt == nil {
		now := time.Now()
		record.CreatedAt = &now
	}
}
