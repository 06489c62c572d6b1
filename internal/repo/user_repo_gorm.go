package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"go-contacts-api/internal/domain"
)

type UserRepo struct{ db *gorm.DB }

// NewUserRepo binds the repo to db, which may be a request-scoped session
// or an open transaction.
func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

var _ domain.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) first(ctx context.Context, query string, arg any) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).Where(query, arg).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (r *UserRepo) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if isDupKey(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *UserRepo) Confirm(ctx context.Context, email string) error {
	return r.update(ctx, email, map[string]any{"confirmed": true})
}

func (r *UserRepo) SetPasswordHash(ctx context.Context, email, hash string) error {
	return r.update(ctx, email, map[string]any{"hashed_password": hash})
}

func (r *UserRepo) SetRefreshToken(ctx context.Context, email string, token *string) error {
	return r.update(ctx, email, map[string]any{"refresh_token": token})
}

func (r *UserRepo) SetAvatar(ctx context.Context, email, url string) (*domain.User, error) {
	if err := r.update(ctx, email, map[string]any{"avatar": url}); err != nil {
		return nil, err
	}
	return r.FindByEmail(ctx, email)
}

func (r *UserRepo) update(ctx context.Context, email string, cols map[string]any) error {
	err := r.db.WithContext(ctx).Model(&domain.User{}).Where("email = ?", email).Updates(cols).Error
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// List pages through users matching q (substring of username or email),
// newest first, and returns the total match count.
func (r *UserRepo) List(ctx context.Context, q string, offset, limit int) ([]domain.User, int64, error) {
	tx := r.db.WithContext(ctx).Model(&domain.User{})
	if q = strings.TrimSpace(q); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		tx = tx.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	var users []domain.User
	if err := tx.Order("id desc").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

func (r *UserRepo) SetRole(ctx context.Context, id uint, role domain.Role) (*domain.User, error) {
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return nil, fmt.Errorf("set role: %w", res.Error)
	}
	return r.FindByID(ctx, id)
}

func isDupKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// drivers that skip gorm's error translation
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
