package credentials

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is the identity record backing every credential. The core reads
// the email and password hash and writes only the password hash and email;
// the directory owns everything else.
type Account struct {
	bun.BaseModel     `bun:"table:accounts,alias:acct"`
	ID                uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email             string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone             string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash      string     `bun:"password_hash,notnull" json:"-"`
	Active            bool       `bun:"is_active,notnull,default:true" json:"is_active"`
	PasswordChangedAt *time.Time `bun:"password_changed_at,nullzero" json:"password_changed_at,omitempty"`
	CreatedAt         *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt         *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt         *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Identifier returns the value tokens carry as their subject.
func (a *Account) Identifier() string {
	return a.Email
}

// CanAuthenticate reports whether the account may receive or redeem
// credentials. Inactive and soft-deleted accounts are never trusted.
func (a *Account) CanAuthenticate() bool {
	if a == nil {
		return false
	}
	return a.Active && a.DeletedAt == nil
}
