package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"go-contacts-api/internal/domain"
)

type ContactRepo struct{ db *gorm.DB }

func NewContactRepo(db *gorm.DB) *ContactRepo { return &ContactRepo{db: db} }

var _ domain.ContactRepository = (*ContactRepo)(nil)

func (r *ContactRepo) owned(ctx context.Context, owner uint) *gorm.DB {
	return r.db.WithContext(ctx).Model(&domain.Contact{}).Where("user_id = ?", owner)
}

func (r *ContactRepo) List(ctx context.Context, owner uint, offset, limit int) ([]domain.Contact, error) {
	var out []domain.Contact
	err := r.owned(ctx, owner).Order("id").Offset(offset).Limit(limit).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return out, nil
}

func (r *ContactRepo) Get(ctx context.Context, id, owner uint) (*domain.Contact, error) {
	return getOwned(r.owned(ctx, owner), id)
}

func getOwned(q *gorm.DB, id uint) (*domain.Contact, error) {
	var c domain.Contact
	err := q.Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get contact: %w", err)
	}
	return &c, nil
}

func (r *ContactRepo) Create(ctx context.Context, owner uint, f domain.ContactFields) (*domain.Contact, error) {
	var out *domain.Contact
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c := domain.NewContact(owner, f)
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		got, err := getOwned(tx.Model(&domain.Contact{}).Where("user_id = ?", owner), c.ID)
		out = got
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return out, nil
}

func (r *ContactRepo) Update(ctx context.Context, id, owner uint, f domain.ContactFields) (*domain.Contact, error) {
	var out *domain.Contact
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := getOwned(tx.Model(&domain.Contact{}).Where("user_id = ?", owner), id)
		if err != nil || c == nil {
			return err
		}
		c.Overwrite(f)
		if err := tx.Save(c).Error; err != nil {
			return err
		}
		out, err = getOwned(tx.Model(&domain.Contact{}).Where("user_id = ?", owner), id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update contact: %w", err)
	}
	return out, nil
}

func (r *ContactRepo) Delete(ctx context.Context, id, owner uint) (*domain.Contact, error) {
	c, err := r.Get(ctx, id, owner)
	if err != nil || c == nil {
		return nil, err
	}
	err = r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, owner).Delete(&domain.Contact{}).Error
	if err != nil {
		return nil, fmt.Errorf("delete contact: %w", err)
	}
	return c, nil
}

// Search matches text case-insensitively anywhere in first name, last name
// or email.
func (r *ContactRepo) Search(ctx context.Context, owner uint, text string, offset, limit int) ([]domain.Contact, error) {
	like := "%" + escapeLike(strings.ToLower(text)) + "%"
	var out []domain.Contact
	err := r.owned(ctx, owner).
		Where("(LOWER(first_name) LIKE ? ESCAPE '!' OR LOWER(last_name) LIKE ? ESCAPE '!' OR LOWER(email) LIKE ? ESCAPE '!')", like, like, like).
		Order("id").Offset(offset).Limit(limit).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("search contacts: %w", err)
	}
	return out, nil
}

// BirthdaysWithin returns contacts whose birthday, ignoring the year, falls
// in [today, today+days]. A window running past Dec 31 continues in January.
func (r *ContactRepo) BirthdaysWithin(ctx context.Context, owner uint, days int, today time.Time) ([]domain.Contact, error) {
	start := domain.DateOf(today)
	end := domain.DateOf(start.AddDate(0, 0, days))
	expr := mmddExpr(r.db.Dialector.Name())

	q := r.owned(ctx, owner)
	if start.MMDD() <= end.MMDD() {
		q = q.Where(expr+" BETWEEN ? AND ?", start.MMDD(), end.MMDD())
	} else {
		q = q.Where("("+expr+" >= ? OR "+expr+" <= ?)", start.MMDD(), end.MMDD())
	}
	var out []domain.Contact
	if err := q.Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("birthdays: %w", err)
	}
	return out, nil
}

// mmddExpr renders month*100+day of the birthday column for the dialect.
func mmddExpr(dialect string) string {
	switch dialect {
	case "postgres":
		return "CAST(EXTRACT(MONTH FROM birthday) * 100 + EXTRACT(DAY FROM birthday) AS INTEGER)"
	case "mysql":
		return "(MONTH(birthday) * 100 + DAYOFMONTH(birthday))"
	default:
		return "CAST(strftime('%m%d', birthday) AS INTEGER)"
	}
}

// escapeLike neutralises LIKE wildcards using '!' as the escape character,
// which needs no quoting in any supported dialect.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}
