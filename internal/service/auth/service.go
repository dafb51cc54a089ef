package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/you-humble/gearguard/internal/model"
	"github.com/you-humble/gearguard/internal/platform/logger"
)

type UserRepository interface {
	Create(ctx context.Context, u *model.User) (uuid.UUID, error)
	ByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	ByEmail(ctx context.Context, email string) (*model.User, error)
}

type service struct {
	repo     UserRepository
	secret   []byte
	tokenTTL time.Duration
}

func NewAuthService(repo UserRepository, secret []byte, tokenTTL time.Duration) *service {
	return &service{
		repo:     repo,
		secret:   secret,
		tokenTTL: tokenTTL,
	}
}

// Register creates an account. The requested role is honored only when the
// caller is an administrator; self-registration always yields a requester.
func (svc *service) Register(ctx context.Context, params model.RegisterParams, actor *model.Actor) (*model.User, error) {
	const op = "auth.service.Register"
	log := logger.With(logger.String("email", params.Email))

	if params.Email == "" || params.Name == "" || len(params.Password) < 8 {
		log.Error(ctx, "wrong params")
		return nil, fmt.Errorf("%s: %w", op,
			errors.Join(model.ErrValidation, errors.New("email, name, and a password of at least 8 characters are required")))
	}

	role := model.RoleUser
	if params.Role != nil && *params.Role != model.RoleUser {
		if actor == nil || actor.Role != model.RoleAdmin {
			log.Error(ctx, "role assignment forbidden")
			return nil, fmt.Errorf("%s: %w", op, model.ErrForbidden)
		}
		if !params.Role.Valid() {
			return nil, fmt.Errorf("%s: %w", op,
				errors.Join(model.ErrValidation, fmt.Errorf("unknown role %q", *params.Role)))
		}
		role = *params.Role
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error(ctx, "hash password", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user := &model.User{
		Email:        params.Email,
		PasswordHash: string(hash),
		Name:         params.Name,
		Role:         role,
		IsActive:     true,
	}

	id, err := svc.repo.Create(ctx, user)
	if err != nil {
		log.Error(ctx, "repository create user", logger.ErrorF(err))
		if errors.Is(err, model.ErrConflict) {
			return nil, fmt.Errorf("%s: %w", op,
				errors.Join(model.ErrConflict, errors.New("email is already registered")))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	created, err := svc.repo.ByID(ctx, id)
	if err != nil {
		log.Error(ctx, "repository user by id", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return created, nil
}

func (svc *service) Login(ctx context.Context, params model.LoginParams) (*model.LoginResult, error) {
	const op = "auth.service.Login"
	log := logger.With(logger.String("email", params.Email))

	user, err := svc.repo.ByEmail(ctx, params.Email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			log.Warn(ctx, "unknown email")
			return nil, fmt.Errorf("%s: %w", op, model.ErrUnauthorized)
		}
		log.Error(ctx, "repository user by email", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(params.Password)); err != nil {
		log.Warn(ctx, "password mismatch")
		return nil, fmt.Errorf("%s: %w", op, model.ErrUnauthorized)
	}

	if !user.IsActive {
		log.Warn(ctx, "inactive account")
		return nil, fmt.Errorf("%s: %w", op, model.ErrUnauthorized)
	}

	token, err := svc.issueToken(user)
	if err != nil {
		log.Error(ctx, "issue token", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &model.LoginResult{Token: token, User: *user}, nil
}

func (svc *service) Me(ctx context.Context, actor model.Actor) (*model.User, error) {
	const op = "auth.service.Me"

	user, err := svc.repo.ByID(ctx, actor.ID)
	if err != nil {
		logger.Error(ctx, "repository user by id",
			logger.String("user_id", actor.ID.String()), logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// VerifyToken validates a bearer token and resolves the actor it identifies.
func (svc *service) VerifyToken(tokenStr string) (model.Actor, error) {
	const op = "auth.service.VerifyToken"

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return svc.secret, nil
	})
	if err != nil || !token.Valid {
		return model.Actor{}, fmt.Errorf("%s: %w", op, model.ErrUnauthorized)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return model.Actor{}, fmt.Errorf("%s: %w", op, model.ErrUnauthorized)
	}

	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return model.Actor{}, fmt.Errorf("%s: %w", op, model.ErrUnauthorized)
	}

	roleStr, _ := claims["role"].(string)
	role := model.Role(roleStr)
	if !role.Valid() {
		return model.Actor{}, fmt.Errorf("%s: %w", op, model.ErrUnauthorized)
	}

	return model.Actor{ID: id, Role: role}, nil
}

func (svc *service) issueToken(user *model.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(svc.tokenTTL).Unix(),
	})

	return token.SignedString(svc.secret)
}
