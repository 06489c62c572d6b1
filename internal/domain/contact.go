package domain

import (
	"context"
	"time"
)

type Contact struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FirstName   string    `gorm:"size:100;not null;index" json:"first_name"`
	LastName    string    `gorm:"size:100;not null;index" json:"last_name"`
	Email       string    `gorm:"size:191;not null;index" json:"email"`
	Phone       string    `gorm:"size:20;not null" json:"phone"`
	Birthday    Date      `gorm:"not null" json:"birthday"`
	Description *string   `gorm:"size:200" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	UserID      uint      `gorm:"not null;index" json:"-"`
	User        *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// ContactFields is the writable part of a contact, used for create and
// full-overwrite update.
type ContactFields struct {
	FirstName   string  `json:"first_name"  binding:"required,min=2,max=100"`
	LastName    string  `json:"last_name"   binding:"required,min=2,max=100"`
	Email       string  `json:"email"       binding:"required,email,max=191"`
	Phone       string  `json:"phone"       binding:"required,min=5,max=20"`
	Birthday    Date    `json:"birthday"    binding:"required,pastdate"`
	Description *string `json:"description" binding:"omitempty,max=200"`
}

func (f ContactFields) apply(c *Contact) {
	c.FirstName = f.FirstName
	c.LastName = f.LastName
	c.Email = f.Email
	c.Phone = f.Phone
	c.Birthday = f.Birthday
	c.Description = f.Description
}

// NewContact builds an unsaved contact owned by owner.
func NewContact(owner uint, f ContactFields) *Contact {
	c := &Contact{UserID: owner}
	f.apply(c)
	return c
}

// Overwrite replaces every writable field of c with f.
func (c *Contact) Overwrite(f ContactFields) { f.apply(c) }

// ContactRepository scopes every call to owner. Get, Update and Delete
// return (nil, nil) when the id does not exist or belongs to someone else.
type ContactRepository interface {
	List(ctx context.Context, owner uint, offset, limit int) ([]Contact, error)
	Get(ctx context.Context, id, owner uint) (*Contact, error)
	Create(ctx context.Context, owner uint, f ContactFields) (*Contact, error)
	Update(ctx context.Context, id, owner uint, f ContactFields) (*Contact, error)
	Delete(ctx context.Context, id, owner uint) (*Contact, error)
	Search(ctx context.Context, owner uint, text string, offset, limit int) ([]Contact, error)
	BirthdaysWithin(ctx context.Context, owner uint, days int, today time.Time) ([]Contact, error)
}
