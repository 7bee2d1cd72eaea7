package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AccountState is the activation lifecycle of an account.
type AccountState string

const (
	AccountUnactivated AccountState = "unactivated"
	// AccountActivated is terminal.
	AccountActivated AccountState = "activated"
)

// ResetState is the password reset lifecycle of an account.
type ResetState string

const (
	ResetNone      ResetState = "none"
	ResetRequested ResetState = "requested"
	ResetExpired   ResetState = "expired"
	ResetConsumed  ResetState = "consumed"
)

// Account is a registered identity. Digest columns only ever hold one-way
// hashes; plaintext tokens live in the transient fields for the single
// request that issued them.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`

	ID               uuid.UUID  `bun:"id,pk,type:uuid" json:"id"`
	Name             string     `bun:"name,notnull" json:"name"`
	Email            string     `bun:"email,notnull,unique" json:"email"`
	PasswordDigest   string     `bun:"password_digest,notnull" json:"-"`
	Activated        bool       `bun:"activated,notnull" json:"activated"`
	ActivatedAt      *time.Time `bun:"activated_at,nullzero" json:"activated_at,omitempty"`
	ActivationDigest string     `bun:"activation_digest,nullzero" json:"-"`
	ActivationSentAt *time.Time `bun:"activation_sent_at,nullzero" json:"-"`
	RememberDigest   string     `bun:"remember_digest,nullzero" json:"-"`
	ResetDigest      string     `bun:"reset_digest,nullzero" json:"-"`
	ResetSentAt      *time.Time `bun:"reset_sent_at,nullzero" json:"-"`
	CreatedAt        time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt        time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`

	Password             string `bun:"-" json:"-"`
	PasswordConfirmation string `bun:"-" json:"-"`
	// ChangePassword turns password validation on for this write.
	ChangePassword  bool   `bun:"-" json:"-"`
	RememberToken   string `bun:"-" json:"-"`
	ActivationToken string `bun:"-" json:"-"`
	ResetToken      string `bun:"-" json:"-"`
}

// State returns the activation state.
func (a *Account) State() AccountState {
	if a != nil && a.Activated {
		return AccountActivated
	}
	return AccountUnactivated
}

// ResetState reports where the account sits in the reset flow at now.
func (a *Account) ResetState(now time.Time, window time.Duration) ResetState {
	if a == nil || a.ResetDigest == "" || a.ResetSentAt == nil {
		return ResetNone
	}
	if IsOutsideThresholdPeriod(now, *a.ResetSentAt, window) {
		return ResetExpired
	}
	return ResetRequested
}

// IsRememberable reports whether a remember digest is on file.
func (a *Account) IsRememberable() bool {
	return a != nil && a.RememberDigest != ""
}

func (a *Account) clearTransient() {
	a.Password = ""
	a.PasswordConfirmation = ""
	a.ChangePassword = false
}

// Relationship is a follower -> followed edge.
type Relationship struct {
	bun.BaseModel `bun:"table:relationships,alias:rel"`

	ID         uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	FollowerID uuid.UUID `bun:"follower_id,notnull,type:uuid,unique:follower_followed" json:"follower_id"`
	FollowedID uuid.UUID `bun:"followed_id,notnull,type:uuid,unique:follower_followed" json:"followed_id"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// Micropost is a feed entry owned by one account.
type Micropost struct {
	bun.BaseModel `bun:"table:microposts,alias:mp"`

	ID        uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	AccountID uuid.UUID `bun:"account_id,notnull,type:uuid" json:"account_id"`
	Content   string    `bun:"content,notnull" json:"content"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// NormalizeEmail is the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
