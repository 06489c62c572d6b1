package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"go-contacts-api/internal/core/auth"
	"go-contacts-api/internal/core/mail"
	"go-contacts-api/internal/domain"
	"go-contacts-api/pkg/utils"
)

const (
	MsgEmailTaken          = "user with this email already exists"
	MsgUsernameTaken       = "user with this username already exists"
	MsgBadCredentials      = "invalid email or password"
	MsgNotConfirmed        = "email address not confirmed"
	MsgBadRefresh          = "invalid or expired refresh token"
	MsgBadEmailToken       = "invalid email verification token"
	MsgVerificationError   = "verification error"
	MsgAlreadyConfirmed    = "email already confirmed"
	MsgEmailConfirmed      = "email confirmed"
	MsgCheckEmail          = "check your email for confirmation"
	MsgCheckResetEmail     = "check your email to reset your password"
	MsgUserNotFound        = "user not found"
	MsgBadResetToken       = "invalid or expired token"
	MsgPasswordChanged     = "password changed successfully"
	MsgPasswordTooLong     = "password must be at most 72 bytes"
	MsgCouldNotValidate    = "could not validate credentials"
	MsgTooManyRequests     = "too many requests, please try again later"
	MsgInsufficientRole    = "not enough permissions"
	MsgContactNotFound     = "contact not found"
	MsgAvatarUploadFailure = "avatar upload failed"
)

// Mailer queues a message for background delivery.
type Mailer interface {
	Enqueue(m mail.Message) bool
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type AuthService struct {
	users  domain.UserRepository
	tokens *auth.JWTer
	hasher *utils.Hasher
	mailer Mailer
	log    *zap.Logger
}

func NewAuthService(users domain.UserRepository, tokens *auth.JWTer, hasher *utils.Hasher, mailer Mailer, l *zap.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, hasher: hasher, mailer: mailer, log: l}
}

// Register creates an unconfirmed account and queues the confirmation mail.
// Self-registration cannot grant more than the user role.
func (s *AuthService) Register(ctx context.Context, username, email, password string, role domain.Role, baseURL string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if u, err := s.users.FindByEmail(ctx, email); err != nil {
		return nil, err
	} else if u != nil {
		return nil, domain.Conflict(MsgEmailTaken)
	}
	if u, err := s.users.FindByUsername(ctx, username); err != nil {
		return nil, err
	} else if u != nil {
		return nil, domain.Conflict(MsgUsernameTaken)
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}
	if role != domain.RoleUser {
		s.log.Info("elevated role requested at registration, using user", zap.String("email", email), zap.String("role", string(role)))
	}

	u := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.Conflict(MsgEmailTaken)
		}
		return nil, err
	}

	s.sendConfirmation(u, baseURL)
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	u, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	if u == nil || !s.hasher.Verify(password, u.PasswordHash) {
		return nil, domain.Unauthorized(MsgBadCredentials)
	}
	if !u.Confirmed {
		return nil, domain.Unauthorized(MsgNotConfirmed)
	}

	access, err := s.tokens.Issue(u.Email, auth.KindAccess)
	if err != nil {
		return nil, domain.Internal("issue token failed", err)
	}
	refresh, err := s.tokens.Issue(u.Email, auth.KindRefresh)
	if err != nil {
		return nil, domain.Internal("issue token failed", err)
	}
	if err := s.users.SetRefreshToken(ctx, u.Email, &refresh); err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}

// Refresh issues a new access token. The refresh token itself is returned
// unchanged; older refresh tokens stay valid until they expire.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	email, err := s.tokens.Verify(refreshToken, auth.KindRefresh)
	if err != nil {
		return nil, domain.Unauthorized(MsgBadRefresh)
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.Unauthorized(MsgBadRefresh)
	}
	access, err := s.tokens.Issue(u.Email, auth.KindAccess)
	if err != nil {
		return nil, domain.Internal("issue token failed", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refreshToken, TokenType: "bearer"}, nil
}

func (s *AuthService) ConfirmEmail(ctx context.Context, token string) error {
	email, err := s.tokens.Verify(token, auth.KindEmail)
	if err != nil {
		return domain.Validation(MsgBadEmailToken)
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		return domain.BadRequest(MsgVerificationError)
	}
	if u.Confirmed {
		return domain.BadRequest(MsgAlreadyConfirmed)
	}
	return s.users.Confirm(ctx, email)
}

// RequestConfirmation re-sends the confirmation mail. Unknown addresses get
// the same answer as known ones.
func (s *AuthService) RequestConfirmation(ctx context.Context, email, baseURL string) (string, error) {
	u, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return "", err
	}
	if u != nil && u.Confirmed {
		return MsgAlreadyConfirmed, nil
	}
	if u != nil {
		s.sendConfirmation(u, baseURL)
	}
	return MsgCheckEmail, nil
}

func (s *AuthService) RequestPasswordReset(ctx context.Context, email, baseURL string) error {
	u, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return err
	}
	if u == nil {
		return domain.NotFound(MsgUserNotFound)
	}

	token, err := s.tokens.Issue(u.Email, auth.KindEmail)
	if err != nil {
		s.log.Error("issue reset token failed", zap.String("email", u.Email), zap.Error(err))
		return nil
	}
	link := ensureSlash(baseURL) + "api/auth/reset_password_form?token=" + url.QueryEscape(token)
	msg, err := mail.ResetPassword(u.Email, u.Username, link, token)
	if err != nil {
		s.log.Error("render reset mail failed", zap.Error(err))
		return nil
	}
	s.mailer.Enqueue(msg)
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, token, newPassword string) error {
	email, err := s.tokens.Verify(token, auth.KindEmail)
	if err != nil {
		return domain.Validation(MsgBadEmailToken)
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		return domain.BadRequest(MsgBadResetToken)
	}
	hash, err := s.hashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.SetPasswordHash(ctx, email, hash)
}

func (s *AuthService) hashPassword(pw string) (string, error) {
	hash, err := s.hasher.Hash(pw)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		return "", domain.Validation(MsgPasswordTooLong)
	}
	if err != nil {
		return "", domain.Internal("could not hash password", err)
	}
	return hash, nil
}

// sendConfirmation never fails the caller; problems are only logged.
func (s *AuthService) sendConfirmation(u *domain.User, baseURL string) {
	token, err := s.tokens.Issue(u.Email, auth.KindEmail)
	if err != nil {
		s.log.Error("issue email token failed", zap.String("email", u.Email), zap.Error(err))
		return
	}
	msg, err := mail.ConfirmEmail(u.Email, u.Username, ensureSlash(baseURL)+"api/auth/confirmed_email/"+token)
	if err != nil {
		s.log.Error("render confirmation mail failed", zap.Error(err))
		return
	}
	s.mailer.Enqueue(msg)
}

func ensureSlash(s string) string {
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}
