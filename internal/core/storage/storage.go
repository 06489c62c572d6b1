package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"go-contacts-api/pkg/utils"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrDisabled        = errors.New("object storage is not configured")
)

// Uploader stores an object and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// sniffLen matches mimetype's default read limit.
const sniffLen = 3072

// SniffImage detects the content type from the leading bytes of r and
// rejects anything that is not an image. The returned reader yields the
// full original stream.
func SniffImage(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, err
	}
	head = head[:n]
	mt := mimetype.Detect(head)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", nil, ErrUnsupportedType
	}
	return mt.String(), io.MultiReader(bytes.NewReader(head), r), nil
}

// AvatarKey is the object key for a new avatar of user id. Keys never carry
// user input, so they are safe in both the bucket and the public URL.
func AvatarKey(userID uint) string {
	return "avatars/" + strconv.FormatUint(uint64(userID), 10) + "-" + utils.ShortID(10)
}

// Disabled rejects every upload; used when storage.driver is none.
type Disabled struct{}

func (Disabled) Upload(context.Context, string, string, io.Reader) (string, error) {
	return "", ErrDisabled
}
