package subscribe

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SubscriberStatus is the subscriber lifecycle status
type SubscriberStatus = string

const (
	// StatusPending means the subscriber has not confirmed their address yet
	StatusPending SubscriberStatus = "pending"
	// StatusActivated means the subscriber confirmed their address
	StatusActivated SubscriberStatus = "activated"
)

// PendingAction tags an outstanding confirmation token with the flow that
// issued it, so confirmation dispatch is a direct match instead of being
// inferred from which other columns happen to be set.
type PendingAction = string

const (
	// PendingSubscriptionConfirmation marks a token issued by the subscribe flow
	PendingSubscriptionConfirmation PendingAction = "subscription"
	// PendingEmailChange marks a token issued by an email change request
	PendingEmailChange PendingAction = "email_change"
)

// Subscriber is the subscriber model. One row per distinct email address;
// identity is preserved by ID across email changes.
type Subscriber struct {
	bun.BaseModel         `bun:"table:subscribers,alias:sub"`
	ID                    uuid.UUID     `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email                 string        `bun:"email,notnull,unique" json:"email,omitempty"`
	Nickname              string        `bun:"nickname" json:"nickname,omitempty"`
	UnsubscribeToken      string        `bun:"unsubscribe_token,notnull,unique" json:"-"`
	PendingEmail          string        `bun:"pending_email,nullzero" json:"pending_email,omitempty"`
	PendingAction         PendingAction `bun:"pending_action,nullzero" json:"pending_action,omitempty"`
	ConfirmationToken     string        `bun:"confirmation_token,nullzero,unique" json:"-"`
	ConfirmationExpiresAt *time.Time    `bun:"confirmation_expires_at,nullzero" json:"confirmation_expires_at,omitempty"`
	MagicLinkToken        string        `bun:"magic_link_token,nullzero,unique" json:"-"`
	MagicLinkExpiresAt    *time.Time    `bun:"magic_link_expires_at,nullzero" json:"magic_link_expires_at,omitempty"`
	ActivatedAt           *time.Time    `bun:"activated_at,nullzero" json:"activated_at,omitempty"`
	CreatedAt             *time.Time    `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt             *time.Time    `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Status derives the lifecycle status from ActivatedAt
func (s *Subscriber) Status() SubscriberStatus {
	if s.ActivatedAt != nil {
		return StatusActivated
	}
	return StatusPending
}

// IsActivated reports whether the subscriber confirmed their address
func (s *Subscriber) IsActivated() bool {
	return s.Status() == StatusActivated
}

// IsPending reports whether the subscriber is awaiting confirmation
func (s *Subscriber) IsPending() bool {
	return s.Status() == StatusPending
}

// IsConfirmationExpired reports whether the outstanding confirmation token,
// if any, can no longer be redeemed. A missing expiry counts as expired.
func (s *Subscriber) IsConfirmationExpired() bool {
	return isTokenExpired(s.ConfirmationExpiresAt)
}

// IsMagicLinkExpired reports whether the outstanding magic link, if any,
// can no longer be redeemed. A missing expiry counts as expired.
func (s *Subscriber) IsMagicLinkExpired() bool {
	return isTokenExpired(s.MagicLinkExpiresAt)
}
