package service

import (
	"context"
	"time"

	"go-contacts-api/internal/domain"
)

const (
	MinBirthdayDays = 1
	MaxBirthdayDays = 31
)

// ContactService binds every store call to the authenticated owner.
type ContactService struct {
	repo domain.ContactRepository
	now  func() time.Time
}

func NewContactService(r domain.ContactRepository) *ContactService {
	return &ContactService{repo: r, now: time.Now}
}

func (s *ContactService) List(ctx context.Context, owner *domain.User, offset, limit int) ([]domain.Contact, error) {
	return s.repo.List(ctx, owner.ID, offset, limit)
}

func (s *ContactService) Get(ctx context.Context, owner *domain.User, id uint) (*domain.Contact, error) {
	c, err := s.repo.Get(ctx, id, owner.ID)
	return found(c, err)
}

func (s *ContactService) Create(ctx context.Context, owner *domain.User, f domain.ContactFields) (*domain.Contact, error) {
	return s.repo.Create(ctx, owner.ID, f)
}

func (s *ContactService) Update(ctx context.Context, owner *domain.User, id uint, f domain.ContactFields) (*domain.Contact, error) {
	c, err := s.repo.Update(ctx, id, owner.ID, f)
	return found(c, err)
}

func (s *ContactService) Delete(ctx context.Context, owner *domain.User, id uint) (*domain.Contact, error) {
	c, err := s.repo.Delete(ctx, id, owner.ID)
	return found(c, err)
}

func (s *ContactService) Search(ctx context.Context, owner *domain.User, text string, offset, limit int) ([]domain.Contact, error) {
	return s.repo.Search(ctx, owner.ID, text, offset, limit)
}

func (s *ContactService) Birthdays(ctx context.Context, owner *domain.User, days int) ([]domain.Contact, error) {
	if days < MinBirthdayDays || days > MaxBirthdayDays {
		return nil, domain.Validation("days must be between 1 and 31")
	}
	return s.repo.BirthdaysWithin(ctx, owner.ID, days, s.now())
}

func found(c *domain.Contact, err error) (*domain.Contact, error) {
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.NotFound(MsgContactNotFound)
	}
	return c, nil
}
