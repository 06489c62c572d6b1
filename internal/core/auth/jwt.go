package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("token is invalid")
	ErrExpiredToken = errors.New("token has expired")
)

// Kind separates access, refresh and email-verification tokens. A token is
// only accepted where its own kind is expected.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
	KindEmail   Kind = "email"
)

type Claims struct {
	TokenType Kind `json:"token_type"`
	jwt.RegisteredClaims
}

type Options struct {
	Secret     string
	Algorithm  string // HS256 | HS384 | HS512
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	EmailTTL   time.Duration
	Leeway     time.Duration
}

type JWTer struct {
	secret []byte
	method jwt.SigningMethod
	issuer string
	ttl    map[Kind]time.Duration
	leeway time.Duration
	now    func() time.Time
}

func NewJWTer(o Options) (*JWTer, error) {
	if o.Secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	var m jwt.SigningMethod
	switch o.Algorithm {
	case "", "HS256":
		m = jwt.SigningMethodHS256
	case "HS384":
		m = jwt.SigningMethodHS384
	case "HS512":
		m = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported jwt algorithm %q", o.Algorithm)
	}
	return &JWTer{
		secret: []byte(o.Secret),
		method: m,
		issuer: o.Issuer,
		ttl: map[Kind]time.Duration{
			KindAccess:  o.AccessTTL,
			KindRefresh: o.RefreshTTL,
			KindEmail:   o.EmailTTL,
		},
		leeway: o.Leeway,
		now:    time.Now,
	}, nil
}

// Issue signs a token of the given kind for subject (the user's email).
// The lifetime defaults to the configured one for that kind.
func (j *JWTer) Issue(subject string, kind Kind, ttl ...time.Duration) (string, error) {
	d := j.ttl[kind]
	if len(ttl) > 0 {
		d = ttl[0]
	}
	if d <= 0 {
		return "", fmt.Errorf("no lifetime configured for %s tokens", kind)
	}
	now := j.now()
	claims := Claims{
		TokenType: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
		},
	}
	return jwt.NewWithClaims(j.method, claims).SignedString(j.secret)
}

// Verify checks signature, expiry, issuer and kind, and returns the subject.
func (j *JWTer) Verify(tokenStr string, kind Kind) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{j.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
		jwt.WithLeeway(j.leeway),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return j.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}
	c, ok := t.Claims.(*Claims)
	if !ok || !t.Valid || c.TokenType != kind || c.Subject == "" {
		return "", ErrInvalidToken
	}
	return c.Subject, nil
}
