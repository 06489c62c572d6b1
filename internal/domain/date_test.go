package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_JSON(t *testing.T) {
	var in struct {
		B Date `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"b":"1990-01-03"}`), &in))
	assert.Equal(t, "1990-01-03", in.B.String())

	out, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"b":"1990-01-03"}`, string(out))

	require.NoError(t, json.Unmarshal([]byte(`{"b":"1990-01-03T15:04:05Z"}`), &in))
	assert.Equal(t, "1990-01-03", in.B.String())

	assert.Error(t, json.Unmarshal([]byte(`{"b":"03/01/1990"}`), &in))
	assert.Error(t, json.Unmarshal([]byte(`{"b":19900103}`), &in))
}

func TestDate_Scan(t *testing.T) {
	tests := []struct {
		name string
		src  any
		want string
	}{
		{"time", time.Date(2001, 2, 3, 10, 0, 0, 0, time.UTC), "2001-02-03"},
		{"string", "2001-02-03", "2001-02-03"},
		{"sqlite datetime", "2001-02-03 00:00:00+00:00", "2001-02-03"},
		{"bytes", []byte("2001-02-03"), "2001-02-03"},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			require.NoError(t, d.Scan(tt.src))
			assert.Equal(t, tt.want, d.String())
		})
	}

	var d Date
	assert.Error(t, d.Scan(42))
}

func TestDate_ValueAndMMDD(t *testing.T) {
	d := NewDate(1985, time.December, 28)
	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "1985-12-28", v)
	assert.Equal(t, 1228, d.MMDD())

	v, err = Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestRole(t *testing.T) {
	assert.True(t, RoleModerator.Valid())
	assert.False(t, Role("root").Valid())
	assert.True(t, RoleAdmin.In(RoleModerator, RoleAdmin))
	assert.False(t, RoleUser.In(RoleModerator, RoleAdmin))
}
