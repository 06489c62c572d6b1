package service

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"go-contacts-api/internal/core/storage"
	"go-contacts-api/internal/domain"
)

type UserService struct {
	users    domain.UserRepository
	uploader storage.Uploader
	log      *zap.Logger
}

func NewUserService(users domain.UserRepository, up storage.Uploader, l *zap.Logger) *UserService {
	return &UserService{users: users, uploader: up, log: l}
}

// UpdateAvatar uploads an image for u and stores its public URL.
func (s *UserService) UpdateAvatar(ctx context.Context, u *domain.User, file io.Reader) (*domain.User, error) {
	contentType, body, err := storage.SniffImage(file)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) {
			return nil, domain.Validation("avatar must be an image")
		}
		return nil, domain.BadRequest("could not read uploaded file")
	}

	url, err := s.uploader.Upload(ctx, storage.AvatarKey(u.ID), contentType, body)
	if err != nil {
		s.log.Error("avatar upload failed", zap.String("user", u.Username), zap.Error(err))
		return nil, domain.BadGateway(MsgAvatarUploadFailure, err)
	}

	updated, err := s.users.SetAvatar(ctx, u.Email, url)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, domain.NotFound(MsgUserNotFound)
	}
	return updated, nil
}

type UserPage struct {
	Items []domain.User `json:"items"`
	Total int64         `json:"total"`
}

func (s *UserService) List(ctx context.Context, q string, offset, limit int) (*UserPage, error) {
	items, total, err := s.users.List(ctx, q, offset, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.User{}
	}
	return &UserPage{Items: items, Total: total}, nil
}

// SetRole is the only path that changes a user's role.
func (s *UserService) SetRole(ctx context.Context, id uint, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, domain.Validation("role must be one of user, moderator, admin")
	}
	u, err := s.users.SetRole(ctx, id, role)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.NotFound(MsgUserNotFound)
	}
	s.log.Info("role changed", zap.Uint("user_id", id), zap.String("role", string(role)))
	return u, nil
}
