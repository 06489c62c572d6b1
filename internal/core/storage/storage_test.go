package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallest valid PNG: signature plus IHDR chunk
var pngHeader = []byte{
	0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A,
	0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4, 0x89,
}

func TestSniffImage(t *testing.T) {
	payload := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0x42}, 5000)...)
	ct, r, err := SniffImage(bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)

	all, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, payload, all, "stream is replayed in full")
}

func TestSniffImage_RejectsNonImages(t *testing.T) {
	_, _, err := SniffImage(strings.NewReader("just some text, definitely not a picture"))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, _, err = SniffImage(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestAvatarKey(t *testing.T) {
	k := AvatarKey(42)
	assert.True(t, strings.HasPrefix(k, "avatars/42-"))
	assert.Len(t, k, len("avatars/42-")+10)
	assert.Regexp(t, `^avatars/42-[0-9a-z]{10}$`, k)
}

func TestDisabled(t *testing.T) {
	_, err := Disabled{}.Upload(context.Background(), "k", "image/png", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrDisabled)
}
