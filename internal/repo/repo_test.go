package repo

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"go-contacts-api/internal/core/database"
	"go-contacts-api/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.NewGorm(database.Opts{
		Driver:       "sqlite",
		DSN:          "file:" + name + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedUser(t *testing.T, r *UserRepo, name string) *domain.User {
	t.Helper()
	u := &domain.User{Username: name, Email: name + "@example.com", PasswordHash: "x", Role: domain.RoleUser}
	require.NoError(t, r.Create(context.Background(), u))
	return u
}

func fields(first string, bday domain.Date) domain.ContactFields {
	return domain.ContactFields{
		FirstName: first,
		LastName:  "Doe",
		Email:     strings.ToLower(first) + "@mail.test",
		Phone:     "555-0100",
		Birthday:  bday,
	}
}

func TestUserRepo_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepo(newTestDB(t))

	u := seedUser(t, r, "ann")
	assert.NotZero(t, u.ID)
	assert.False(t, u.Confirmed)

	byEmail, err := r.FindByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.Equal(t, domain.RoleUser, byEmail.Role)

	byName, err := r.FindByUsername(ctx, "ann")
	require.NoError(t, err)
	require.NotNil(t, byName)

	missing, err := r.FindByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	dup := &domain.User{Username: "ann2", Email: "ann@example.com", PasswordHash: "x", Role: domain.RoleUser}
	assert.ErrorIs(t, r.Create(ctx, dup), domain.ErrDuplicate)
}

func TestUserRepo_Mutations(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepo(newTestDB(t))
	u := seedUser(t, r, "bob")

	require.NoError(t, r.Confirm(ctx, u.Email))
	tok := "refresh-1"
	require.NoError(t, r.SetRefreshToken(ctx, u.Email, &tok))
	require.NoError(t, r.SetPasswordHash(ctx, u.Email, "new-hash"))
	got, err := r.SetAvatar(ctx, u.Email, "https://cdn.test/a.png")
	require.NoError(t, err)

	assert.True(t, got.Confirmed)
	require.NotNil(t, got.RefreshToken)
	assert.Equal(t, "refresh-1", *got.RefreshToken)
	assert.Equal(t, "new-hash", got.PasswordHash)
	require.NotNil(t, got.Avatar)
	assert.Equal(t, "https://cdn.test/a.png", *got.Avatar)

	promoted, err := r.SetRole(ctx, u.ID, domain.RoleModerator)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleModerator, promoted.Role)
}

func TestUserRepo_List(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepo(newTestDB(t))
	seedUser(t, r, "carol")
	seedUser(t, r, "dave")
	seedUser(t, r, "caroline")

	all, total, err := r.List(ctx, "", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, all, 3)

	some, total, err := r.List(ctx, "CAROL", 0, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, some, 1)
}

func TestContactRepo_CRUDIsOwnerScoped(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepo(db)
	r := NewContactRepo(db)
	ann := seedUser(t, users, "ann")
	bob := seedUser(t, users, "bob")

	c, err := r.Create(ctx, ann.ID, fields("Alice", domain.NewDate(1990, time.March, 4)))
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "1990-03-04", c.Birthday.String())

	got, err := r.Get(ctx, c.ID, ann.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	foreign, err := r.Get(ctx, c.ID, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, foreign)

	desc := "met at work"
	upd := fields("Alicia", domain.NewDate(1991, time.April, 5))
	upd.Description = &desc
	none, err := r.Update(ctx, c.ID, bob.ID, upd)
	require.NoError(t, err)
	assert.Nil(t, none)

	updated, err := r.Update(ctx, c.ID, ann.ID, upd)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Alicia", updated.FirstName)
	assert.Equal(t, "1991-04-05", updated.Birthday.String())
	require.NotNil(t, updated.Description)
	assert.Equal(t, desc, *updated.Description)

	gone, err := r.Delete(ctx, c.ID, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	gone, err = r.Delete(ctx, c.ID, ann.ID)
	require.NoError(t, err)
	require.NotNil(t, gone)
	assert.Equal(t, c.ID, gone.ID)

	again, err := r.Get(ctx, c.ID, ann.ID)
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestContactRepo_ListAndSearch(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepo(db)
	r := NewContactRepo(db)
	ann := seedUser(t, users, "ann")
	bob := seedUser(t, users, "bob")

	for _, n := range []string{"Anna", "Bert", "Johanna"} {
		_, err := r.Create(ctx, ann.ID, fields(n, domain.NewDate(1980, time.May, 1)))
		require.NoError(t, err)
	}
	_, err := r.Create(ctx, bob.ID, fields("Hannah", domain.NewDate(1980, time.May, 1)))
	require.NoError(t, err)

	list, err := r.List(ctx, ann.ID, 0, 100)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Anna", list[0].FirstName)

	page, err := r.List(ctx, ann.ID, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Bert", page[0].FirstName)

	found, err := r.Search(ctx, ann.ID, "ANN", 0, 100)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Anna", found[0].FirstName)
	assert.Equal(t, "Johanna", found[1].FirstName)

	byEmail, err := r.Search(ctx, ann.ID, "bert@mail", 0, 100)
	require.NoError(t, err)
	assert.Len(t, byEmail, 1)

	wildcard, err := r.Search(ctx, ann.ID, "%", 0, 100)
	require.NoError(t, err)
	assert.Empty(t, wildcard)
}

func TestContactRepo_BirthdaysWithin(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepo(db)
	r := NewContactRepo(db)
	ann := seedUser(t, users, "ann")
	bob := seedUser(t, users, "bob")

	seed := map[string]domain.Date{
		"Janthird":  domain.NewDate(1990, time.January, 3),
		"Dectwenty": domain.NewDate(1985, time.December, 20),
		"Today":     domain.NewDate(2000, time.December, 28),
		"Janeighth": domain.NewDate(1970, time.January, 8),
		"Mid":       domain.NewDate(1999, time.June, 15),
	}
	for name, d := range seed {
		_, err := r.Create(ctx, ann.ID, fields(name, d))
		require.NoError(t, err)
	}
	_, err := r.Create(ctx, bob.ID, fields("Foreign", domain.NewDate(1990, time.December, 30)))
	require.NoError(t, err)

	names := func(cs []domain.Contact) []string {
		out := make([]string, 0, len(cs))
		for _, c := range cs {
			out = append(out, c.FirstName)
		}
		return out
	}

	tests := []struct {
		name  string
		today time.Time
		days  int
		want  []string
	}{
		{
			name:  "wraps into january",
			today: time.Date(2024, time.December, 28, 9, 0, 0, 0, time.UTC),
			days:  10,
			want:  []string{"Janthird", "Today"},
		},
		{
			name:  "inside one month",
			today: time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC),
			days:  5,
			want:  []string{"Mid"},
		},
		{
			name:  "window edge is inclusive",
			today: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
			days:  7,
			want:  []string{"Janthird", "Janeighth"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.BirthdaysWithin(ctx, ann.ID, tt.days, tt.today)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, names(got))
		})
	}
}
