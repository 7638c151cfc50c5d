package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"ecommerce-backend/internal/apperr"
	"ecommerce-backend/internal/model"
	"ecommerce-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type UserRepository interface {
	UserReader
	Insert(ctx context.Context, u *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByRole(ctx context.Context, role model.Role, includeDeleted bool) ([]*model.User, error)
	Replace(ctx context.Context, u *model.User) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

var (
	ErrUserNotFound  = apperr.New(apperr.CodeNotFound, "UserNotFound", "user not found")
	ErrEmailTaken    = apperr.New(apperr.CodeConflict, "EmailTaken", "a user with this email already exists")
	ErrUserDeleted   = apperr.New(apperr.CodeConflict, "UserDeleted", "user has already been deleted")
	ErrUserActive    = apperr.New(apperr.CodeConflict, "UserActive", "user is not deleted")
	ErrNotOwnAccount = apperr.New(apperr.CodeForbidden, "NotOwnAccount", "you can only view or change your own account")
)

type CreateUserInput struct {
	FullName    string
	Email       string
	PhoneNumber string
	Password    string
}

// UpdateUserInput holds optional changes; nil fields are left untouched.
type UpdateUserInput struct {
	FullName    *string
	Email       *string
	PhoneNumber *string
	Password    *string
}

// UserService manages customer and staff accounts. Every call is scoped to
// one role so customer routes cannot reach staff records.
type UserService struct {
	users      UserRepository
	bcryptCost int
	log        *zap.Logger
	now        func() time.Time
}

func NewUserService(users UserRepository, bcryptCost int, log *zap.Logger) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{users: users, bcryptCost: bcryptCost, log: log, now: time.Now}
}

func (s *UserService) Create(ctx context.Context, role model.Role, in CreateUserInput) (*model.User, error) {
	if !role.IsValid() {
		return nil, apperr.InvalidInput("invalid role")
	}
	hash, err := hashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		FullName:     strings.TrimSpace(in.FullName),
		Email:        in.Email,
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Insert(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, apperr.Unexpected(err, "saving user")
	}
	s.log.Info("user created", zap.String("user_id", u.ID.Hex()), zap.String("role", string(role)))
	return u, nil
}

func (s *UserService) List(ctx context.Context, role model.Role, includeDeleted bool) ([]*model.User, error) {
	users, err := s.users.FindByRole(ctx, role, includeDeleted)
	if err != nil {
		return nil, apperr.Unexpected(err, "listing users")
	}
	if users == nil {
		users = []*model.User{}
	}
	return users, nil
}

// Get returns one account. Customers may only read their own; admin and
// staff may read any.
func (s *UserService) Get(ctx context.Context, actor *model.Actor, role model.Role, id string) (*model.User, error) {
	if err := checkAccountAccess(actor, id); err != nil {
		return nil, err
	}
	return s.load(ctx, role, id)
}

// Update applies the non-nil fields. The same ownership rule as Get applies.
func (s *UserService) Update(ctx context.Context, actor *model.Actor, role model.Role, id string, in UpdateUserInput) (*model.User, error) {
	if err := checkAccountAccess(actor, id); err != nil {
		return nil, err
	}
	u, err := s.load(ctx, role, id)
	if err != nil {
		return nil, err
	}
	if in.FullName != nil {
		u.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Email != nil {
		u.Email = strings.ToLower(strings.TrimSpace(*in.Email))
	}
	if in.PhoneNumber != nil {
		u.PhoneNumber = strings.TrimSpace(*in.PhoneNumber)
	}
	if in.Password != nil {
		if u.PasswordHash, err = hashPassword(*in.Password, s.bcryptCost); err != nil {
			return nil, err
		}
	}
	if err := s.save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) load(ctx context.Context, role model.Role, id string) (*model.User, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	u, err := s.users.FindByID(ctx, oid)
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound, "loading user")
	}
	if u.Role != role {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func checkAccountAccess(actor *model.Actor, id string) error {
	if actor == nil {
		return ErrActorRequired
	}
	if actor.Role == model.RoleAdmin || actor.Role == model.RoleStaff {
		return nil
	}
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	if oid != actor.ID {
		return ErrNotOwnAccount
	}
	return nil
}

func (s *UserService) SoftDelete(ctx context.Context, role model.Role, id string) (*model.User, error) {
	u, err := s.load(ctx, role, id)
	if err != nil {
		return nil, err
	}
	if u.IsDeleted {
		return nil, ErrUserDeleted
	}
	now := s.now().UTC()
	u.IsDeleted = true
	u.DeletedAt = &now
	if err := s.save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) Restore(ctx context.Context, role model.Role, id string) (*model.User, error) {
	u, err := s.load(ctx, role, id)
	if err != nil {
		return nil, err
	}
	if !u.IsDeleted {
		return nil, ErrUserActive
	}
	u.IsDeleted = false
	u.DeletedAt = nil
	if err := s.save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, role model.Role, id string) error {
	u, err := s.load(ctx, role, id)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, u.ID); err != nil {
		return notFoundAs(err, ErrUserNotFound, "deleting user")
	}
	s.log.Info("user deleted", zap.String("user_id", u.ID.Hex()))
	return nil
}

func (s *UserService) save(ctx context.Context, u *model.User) error {
	err := s.users.Replace(ctx, u)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrUserNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return ErrEmailTaken
	default:
		return apperr.Unexpected(err, "saving user")
	}
}

func hashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apperr.InvalidInput("password is too long")
		}
		return "", apperr.Unexpected(err, "hashing password")
	}
	return string(hash), nil
}

func passwordMatches(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
