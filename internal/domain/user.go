package domain

import (
	"context"
	"slices"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleModerator || r == RoleAdmin
}

// In reports whether r is one of allowed.
func (r Role) In(allowed ...Role) bool { return slices.Contains(allowed, r) }

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:191;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"column:hashed_password;size:255;not null" json:"-"`
	Confirmed    bool      `gorm:"not null;default:false" json:"confirmed"`
	Avatar       *string   `gorm:"size:255" json:"avatar"`
	Role         Role      `gorm:"size:16;not null;default:user" json:"role"`
	RefreshToken *string   `gorm:"size:512" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserRepository returns (nil, nil) from finders when no row matches.
type UserRepository interface {
	FindByID(ctx context.Context, id uint) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, u *User) error
	Confirm(ctx context.Context, email string) error
	SetAvatar(ctx context.Context, email, url string) (*User, error)
	SetPasswordHash(ctx context.Context, email, hash string) error
	SetRefreshToken(ctx context.Context, email string, token *string) error
	List(ctx context.Context, q string, offset, limit int) ([]User, int64, error)
	SetRole(ctx context.Context, id uint, role Role) (*User, error)
}
