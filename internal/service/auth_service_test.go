package service

import (
	"context"
	"testing"
	"time"

	"ecommerce-backend/internal/apperr"
	"ecommerce-backend/internal/config"
	"ecommerce-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

var testJWT = config.JWTConfig{Secret: "test-secret", Issuer: "ecommerce-backend", ExpirationMinutes: 60}

func newAuth(t *testing.T) (*AuthService, *UserService, *fakeUsers, *fakeResets, *recordingPublisher) {
	t.Helper()
	users := newFakeUsers()
	resets := &fakeResets{}
	events := &recordingPublisher{}
	pw := config.PasswordConfig{BcryptCost: bcrypt.MinCost, ResetTTL: time.Hour, ResetURL: "https://shop.example/reset/"}
	return NewAuthService(users, resets, events, testJWT, pw, nil), NewUserService(users, bcrypt.MinCost, nil), users, resets, events
}

func TestUserLifecycle(t *testing.T) {
	ctx := context.Background()
	_, svc, _, _, _ := newAuth(t)

	u, err := svc.Create(ctx, model.RoleStaff, CreateUserInput{FullName: "Sam Staff", Email: "Sam@Shop.example", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "sam@shop.example", u.Email)
	assert.NotEqual(t, "secret1", u.PasswordHash)

	_, err = svc.Create(ctx, model.RoleCustomer, CreateUserInput{FullName: "Other", Email: "sam@shop.example", Password: "secret2"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	admin := &model.Actor{ID: primitive.NewObjectID(), Role: model.RoleAdmin}
	_, err = svc.Get(ctx, admin, model.RoleCustomer, u.ID.Hex())
	assert.ErrorIs(t, err, ErrUserNotFound)

	name := "Samantha Staff"
	updated, err := svc.Update(ctx, admin, model.RoleStaff, u.ID.Hex(), UpdateUserInput{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.FullName)

	deleted, err := svc.SoftDelete(ctx, model.RoleStaff, u.ID.Hex())
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted)
	assert.NotNil(t, deleted.DeletedAt)
	_, err = svc.SoftDelete(ctx, model.RoleStaff, u.ID.Hex())
	assert.ErrorIs(t, err, ErrUserDeleted)

	active, err := svc.List(ctx, model.RoleStaff, false)
	require.NoError(t, err)
	assert.Empty(t, active)

	restored, err := svc.Restore(ctx, model.RoleStaff, u.ID.Hex())
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted)
	assert.Nil(t, restored.DeletedAt)

	require.NoError(t, svc.Delete(ctx, model.RoleStaff, u.ID.Hex()))
	assert.ErrorIs(t, svc.Delete(ctx, model.RoleStaff, u.ID.Hex()), ErrUserNotFound)
}

func TestCustomersReachOnlyTheirOwnAccount(t *testing.T) {
	ctx := context.Background()
	_, svc, _, _, _ := newAuth(t)

	alice, err := svc.Create(ctx, model.RoleCustomer, CreateUserInput{FullName: "Alice", Email: "alice@shop.example", Password: "secret1"})
	require.NoError(t, err)
	bob, err := svc.Create(ctx, model.RoleCustomer, CreateUserInput{FullName: "Bob", Email: "bob@shop.example", Password: "secret2"})
	require.NoError(t, err)
	asBob := &model.Actor{ID: bob.ID, FullName: bob.FullName, Role: model.RoleCustomer}
	password := "hijacked1"

	_, err = svc.Update(ctx, asBob, model.RoleCustomer, alice.ID.Hex(), UpdateUserInput{Password: &password})
	assert.ErrorIs(t, err, ErrNotOwnAccount)
	_, err = svc.Get(ctx, asBob, model.RoleCustomer, alice.ID.Hex())
	assert.ErrorIs(t, err, ErrNotOwnAccount)
	_, err = svc.Get(ctx, nil, model.RoleCustomer, alice.ID.Hex())
	assert.ErrorIs(t, err, ErrActorRequired)

	stored, err := svc.Get(ctx, &model.Actor{ID: primitive.NewObjectID(), Role: model.RoleStaff}, model.RoleCustomer, alice.ID.Hex())
	require.NoError(t, err)
	assert.True(t, passwordMatches(stored.PasswordHash, "secret1"))

	phone := "0722222222"
	self, err := svc.Update(ctx, asBob, model.RoleCustomer, bob.ID.Hex(), UpdateUserInput{PhoneNumber: &phone})
	require.NoError(t, err)
	assert.Equal(t, phone, self.PhoneNumber)
}

func TestLoginAndValidateToken(t *testing.T) {
	ctx := context.Background()
	auth, users, _, _, _ := newAuth(t)
	u, err := users.Create(ctx, model.RoleCustomer, CreateUserInput{FullName: "Ada", Email: "ada@shop.example", Password: "pa55word"})
	require.NoError(t, err)

	_, err = auth.Login(ctx, "ada@shop.example", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Login(ctx, "nobody@shop.example", "pa55word")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	res, err := auth.Login(ctx, "ADA@shop.example", "pa55word")
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	assert.Equal(t, u.ID, res.User.ID)

	actor, err := auth.ValidateToken(ctx, res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, actor.ID)
	assert.Equal(t, model.RoleCustomer, actor.Role)

	_, err = auth.ValidateToken(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = users.SoftDelete(ctx, model.RoleCustomer, u.ID.Hex())
	require.NoError(t, err)
	_, err = auth.ValidateToken(ctx, res.AccessToken)
	assert.ErrorIs(t, err, ErrAccountDisabled)
	_, err = auth.Login(ctx, "ada@shop.example", "pa55word")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	auth, users, _, _, _ := newAuth(t)
	u, err := users.Create(ctx, model.RoleCustomer, CreateUserInput{FullName: "Ada", Email: "ada@shop.example", Password: "old-pass"})
	require.NoError(t, err)
	actor := &model.Actor{ID: u.ID, Role: u.Role}

	assert.ErrorIs(t, auth.ChangePassword(ctx, actor, "nope", "new-pass"), ErrWrongPassword)
	assert.ErrorIs(t, auth.ChangePassword(ctx, actor, "old-pass", "old-pass"), ErrPasswordUnchanged)
	assertCode(t, auth.ChangePassword(ctx, nil, "old-pass", "new-pass"), apperr.CodeUnauthorized)

	require.NoError(t, auth.ChangePassword(ctx, actor, "old-pass", "new-pass"))
	_, err = auth.Login(ctx, "ada@shop.example", "new-pass")
	assert.NoError(t, err)
}

func TestPasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	auth, users, _, _, events := newAuth(t)
	_, err := users.Create(ctx, model.RoleCustomer, CreateUserInput{FullName: "Ada", Email: "ada@shop.example", Password: "old-pass"})
	require.NoError(t, err)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	auth.now = func() time.Time { return base }

	_, err = auth.ForgotPassword(ctx, "missing@shop.example")
	assert.ErrorIs(t, err, ErrUnknownEmail)

	req, err := auth.ForgotPassword(ctx, "ada@shop.example")
	require.NoError(t, err)
	assert.Equal(t, base.Add(time.Hour), req.ExpiresAt)
	require.Len(t, events.events, 1)
	ev := events.events[0].event.(PasswordResetRequestedEvent)
	assert.Equal(t, EventPasswordResetRequested, events.events[0].key)
	assert.Equal(t, "https://shop.example/reset/"+req.Code, ev.ResetLink)

	_, err = auth.ForgotPassword(ctx, "ada@shop.example")
	assert.ErrorIs(t, err, ErrResetAlreadySent)

	assert.ErrorIs(t, auth.ResetPassword(ctx, "bogus", "new-pass"), ErrInvalidResetCode)
	assert.ErrorIs(t, auth.ResetPassword(ctx, req.Code, "old-pass"), ErrPasswordUnchanged)

	require.NoError(t, auth.ResetPassword(ctx, req.Code, "new-pass"))
	assert.ErrorIs(t, auth.ResetPassword(ctx, req.Code, "newer-pass"), ErrResetCodeUsed)
	_, err = auth.Login(ctx, "ada@shop.example", "new-pass")
	assert.NoError(t, err)

	auth.now = func() time.Time { return base.Add(2 * time.Hour) }
	next, err := auth.ForgotPassword(ctx, "ada@shop.example")
	require.NoError(t, err)
	auth.now = func() time.Time { return base.Add(4 * time.Hour) }
	assert.ErrorIs(t, auth.ResetPassword(ctx, next.Code, "another-pass"), ErrResetCodeExpired)
}
