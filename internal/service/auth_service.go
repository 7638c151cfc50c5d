package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"ecommerce-backend/internal/apperr"
	"ecommerce-backend/internal/config"
	"ecommerce-backend/internal/model"
	"ecommerce-backend/internal/repository"
	"ecommerce-backend/internal/token"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type PasswordResetRepository interface {
	Insert(ctx context.Context, r *model.PasswordResetRequest) error
	FindLatestByUser(ctx context.Context, userID primitive.ObjectID) (*model.PasswordResetRequest, error)
	FindByCode(ctx context.Context, code string) (*model.PasswordResetRequest, error)
	MarkActivated(ctx context.Context, id primitive.ObjectID) error
}

var (
	ErrInvalidCredentials = apperr.New(apperr.CodeUnauthorized, "InvalidCredentials", "invalid credentials")
	ErrInvalidToken       = apperr.New(apperr.CodeUnauthorized, "InvalidToken", "invalid or expired token")
	ErrAccountDisabled    = apperr.New(apperr.CodeUnauthorized, "AccountDisabled", "account is disabled")
	ErrWrongPassword      = apperr.New(apperr.CodeInvalidInput, "WrongPassword", "current password is incorrect")
	ErrPasswordUnchanged  = apperr.New(apperr.CodeInvalidInput, "PasswordUnchanged", "new password cannot be the same as the old password")
	ErrUnknownEmail       = apperr.New(apperr.CodeForbidden, "UnknownEmail", "invalid email address")
	ErrResetAlreadySent   = apperr.New(apperr.CodeConflict, "ResetAlreadySent", "reset password link has already been sent to your email")
	ErrInvalidResetCode   = apperr.New(apperr.CodeForbidden, "InvalidResetCode", "invalid reset password code")
	ErrResetCodeExpired   = apperr.New(apperr.CodeForbidden, "ResetCodeExpired", "reset password code is already expired")
	ErrResetCodeUsed      = apperr.New(apperr.CodeForbidden, "ResetCodeUsed", "reset password code has already been used")
)

type LoginResult struct {
	AccessToken string      `json:"accessToken"`
	User        *model.User `json:"user"`
}

// AuthService issues and validates access tokens and runs the password
// flows.
type AuthService struct {
	users    UserRepository
	resets   PasswordResetRepository
	events   EventPublisher
	jwt      config.JWTConfig
	password config.PasswordConfig
	log      *zap.Logger
	now      func() time.Time
}

func NewAuthService(users UserRepository, resets PasswordResetRepository, events EventPublisher, jwt config.JWTConfig, password config.PasswordConfig, log *zap.Logger) *AuthService {
	if events == nil {
		events = noopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		users:    users,
		resets:   resets,
		events:   events,
		jwt:      jwt,
		password: password,
		log:      log,
		now:      time.Now,
	}
}

func (a *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := a.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, apperr.Unexpected(err, "loading user")
	}
	if u.IsDeleted || !passwordMatches(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	signed, err := token.Mint(a.jwt, a.now(), u)
	if err != nil {
		return nil, apperr.Unexpected(err, "signing token")
	}
	return &LoginResult{AccessToken: signed, User: u}, nil
}

// ValidateToken resolves a bearer token to the caller. The account is
// reloaded so deleted users lose access before their token expires.
func (a *AuthService) ValidateToken(ctx context.Context, raw string) (*model.Actor, error) {
	claims, err := token.Parse(a.jwt, raw)
	if err != nil {
		return nil, ErrInvalidToken
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	u, err := a.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, apperr.Unexpected(err, "loading user")
	}
	if u.IsDeleted {
		return nil, ErrAccountDisabled
	}
	return &model.Actor{ID: u.ID, FullName: u.FullName, Role: u.Role}, nil
}

func (a *AuthService) ChangePassword(ctx context.Context, actor *model.Actor, current, next string) error {
	if actor == nil {
		return ErrActorRequired
	}
	u, err := a.users.FindByID(ctx, actor.ID)
	if err != nil {
		return notFoundAs(err, ErrUserNotFound, "loading user")
	}
	if !passwordMatches(u.PasswordHash, current) {
		return ErrWrongPassword
	}
	if current == next {
		return ErrPasswordUnchanged
	}
	return a.setPassword(ctx, u, next)
}

// ForgotPassword starts a reset for the account. Only one request can be
// active per user until it expires. The link is delivered by whoever
// consumes the password_reset.requested event.
func (a *AuthService) ForgotPassword(ctx context.Context, email string) (*model.PasswordResetRequest, error) {
	u, err := a.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, notFoundAs(err, ErrUnknownEmail, "loading user")
	}

	now := a.now().UTC()
	latest, err := a.resets.FindLatestByUser(ctx, u.ID)
	switch {
	case err == nil && now.Before(latest.ExpiresAt):
		return nil, ErrResetAlreadySent
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return nil, apperr.Unexpected(err, "loading reset request")
	}

	base := strings.TrimRight(a.password.ResetURL, "/")
	if base == "" {
		return nil, apperr.Unexpected(errors.New("FRONTEND_RESET_PASSWORD_URL is empty"), "no reset-password base URL configured")
	}

	req := &model.PasswordResetRequest{
		UserID:    u.ID,
		Code:      uuid.NewString(),
		ExpiresAt: now.Add(a.password.ResetTTL),
		CreatedAt: now,
	}
	if err := a.resets.Insert(ctx, req); err != nil {
		return nil, apperr.Unexpected(err, "saving reset request")
	}

	ev := PasswordResetRequestedEvent{
		UserID:    u.ID.Hex(),
		Email:     u.Email,
		FullName:  u.FullName,
		ResetLink: base + "/" + req.Code,
		ExpiresAt: req.ExpiresAt,
	}
	if err := a.events.Publish(ctx, EventPasswordResetRequested, ev); err != nil {
		return nil, apperr.Unexpected(err, "sending reset link")
	}
	a.log.Info("password reset requested", zap.String("user_id", u.ID.Hex()))
	return req, nil
}

func (a *AuthService) ResetPassword(ctx context.Context, code, password string) error {
	req, err := a.resets.FindByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return notFoundAs(err, ErrInvalidResetCode, "loading reset request")
	}
	if !a.now().Before(req.ExpiresAt) {
		return ErrResetCodeExpired
	}
	if req.Activated {
		return ErrResetCodeUsed
	}

	u, err := a.users.FindByID(ctx, req.UserID)
	if err != nil {
		return notFoundAs(err, ErrUserNotFound, "loading user")
	}
	if passwordMatches(u.PasswordHash, password) {
		return ErrPasswordUnchanged
	}

	if err := a.resets.MarkActivated(ctx, req.ID); err != nil {
		return notFoundAs(err, ErrResetCodeUsed, "consuming reset code")
	}
	return a.setPassword(ctx, u, password)
}

func (a *AuthService) setPassword(ctx context.Context, u *model.User, password string) error {
	hash, err := hashPassword(password, a.password.BcryptCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	if err := a.users.Replace(ctx, u); err != nil {
		return notFoundAs(err, ErrUserNotFound, "saving user")
	}
	return nil
}
