package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User represents a station user who can log in to the scanning UI.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Username     string    `bun:"username,unique,notnull"`
	PasswordHash string    `bun:"password_hash,notnull"`
	Role         string    `bun:"role,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Session is used by middleware and auth handlers.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:s"`

	ID        string    `bun:"id,pk"`
	UserID    int64     `bun:"user_id,notnull"`
	User      User      `bun:"rel:belongs-to,join:user_id=id"`
	UserRoles []string  `bun:"-"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Expired returns true when the session expiry time has passed.
func (s Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// ActionLog captures one bulk-action or reconciliation outcome, including the
// per-box success/failure partition, for later review.
type ActionLog struct {
	bun.BaseModel `bun:"table:action_logs,alias:al"`

	ID            int64     `bun:"id,pk,autoincrement"`
	UserID        int64     `bun:"user_id,notnull"`
	Action        string    `bun:"action,notnull"`
	TargetID      string    `bun:"target_id"`
	RequestedJSON string    `bun:"requested_json"`
	SucceededJSON string    `bun:"succeeded_json"`
	FailedJSON    string    `bun:"failed_json"`
	ErrorText     string    `bun:"error_text"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
