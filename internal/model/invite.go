package model

import (
	"errors"
	"time"
)

// InviteTTL is how long a generated invite stays redeemable.
const InviteTTL = 7 * 24 * time.Hour

// InviteCodeLength is the length of generated invite codes.
const InviteCodeLength = 10

// Invite is a single-use, time-limited code that creates a mutual follow on signup.
type Invite struct {
	ID        int64     `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	InviterID int64     `db:"inviter_id" json:"inviter_id"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	Used      bool      `db:"used" json:"used"`
	UsedBy    *int64    `db:"used_by" json:"used_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// IsRedeemable reports whether the invite is unused and not yet expired at now.
func (i *Invite) IsRedeemable(now time.Time) bool {
	return !i.Used && now.Before(i.ExpiresAt)
}

// ValidateInviteRequest is the body of POST /invites/validate.
type ValidateInviteRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

// GeneratedInvite is the response of POST /invites/generate.
type GeneratedInvite struct {
	InviteURL string `json:"inviteUrl"`
}

// InviteValidation is the response of POST /invites/validate.
type InviteValidation struct {
	Valid   bool        `json:"valid"`
	Inviter UserSummary `json:"inviter"`
}

var (
	// ErrInviteInvalid covers unknown, used and expired codes alike.
	ErrInviteInvalid = errors.New("invalid or expired invite code")

	// ErrInviteCodeTaken is returned when a generated code collides with an existing one.
	ErrInviteCodeTaken = errors.New("invite code already exists")
)
