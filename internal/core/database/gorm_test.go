package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeMySQLDSN(t *testing.T) {
	tests := []struct {
		name, in, user, pass, want string
	}{
		{
			name: "native dsn untouched",
			in:   "root:pw@tcp(127.0.0.1:3306)/contacts?parseTime=true",
			want: "root:pw@tcp(127.0.0.1:3306)/contacts?parseTime=true",
		},
		{
			name: "url form",
			in:   "mysql://root:pw@db:3306/contacts",
			want: "root:pw@tcp(db:3306)/contacts?charset=utf8mb4&parseTime=true",
		},
		{
			name: "jdbc with override",
			in:   "jdbc:mysql://db:3306/contacts?user=a&password=b",
			user: "svc", pass: "secret",
			want: "svc:secret@tcp(db:3306)/contacts?charset=utf8mb4&parseTime=true",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeMySQLDSN(tt.in, tt.user, tt.pass))
		})
	}
}

func TestNewGorm_UnsupportedDriver(t *testing.T) {
	_, err := NewGorm(Opts{Driver: "oracle"})
	assert.True(t, errors.Is(err, ErrUnsupportedDriver))
}

func TestNewGorm_SQLiteMigrateAndPing(t *testing.T) {
	db, err := NewGorm(Opts{
		Driver:       "sqlite",
		DSN:          "file:gorm_test?mode=memory&cache=shared",
		MaxOpenConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	require.NoError(t, Ping(context.Background(), db))

	assert.True(t, db.Migrator().HasTable("users"))
	assert.True(t, db.Migrator().HasTable("contacts"))
}
