package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/violetear/api/internal/common"
	"github.com/violetear/api/internal/dbx"
	"github.com/violetear/api/internal/logging"
	"github.com/violetear/api/internal/server/models"
	"github.com/violetear/api/internal/workpool"
	"golang.org/x/crypto/bcrypt"
)

// TokenPolicy decides how long an issued token stays valid. The zero value
// keeps tokens valid until logout.
type TokenPolicy struct {
	TTL time.Duration
}

// Expired reports whether a token created at created is no longer valid at now.
func (p TokenPolicy) Expired(created, now time.Time) bool {
	return p.TTL > 0 && !now.Before(created.Add(p.TTL))
}

// tokenLength is the rendered length of a token: two hex digits per byte.
const tokenLength = 2 * common.TokenBytes

// UserService handles registration, login, logout and token resolution.
type UserService struct {
	deps       Deps
	log        logging.Logger
	policy     TokenPolicy
	bcryptCost int
	now        func() time.Time
	dummyHash  func() []byte
}

func NewUserService(d Deps, policy TokenPolicy, bcryptCost int) *UserService {
	d = d.withDefaults()
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	s := &UserService{
		deps:       d,
		log:        d.Logger.With("module", "users"),
		policy:     policy,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
	// Unknown users are compared against this hash so that a login attempt
	// takes the same time whether or not the account exists.
	s.dummyHash = sync.OnceValue(func() []byte {
		h, err := bcrypt.GenerateFromPassword([]byte("violetear-absent-user"), bcryptCost)
		if err != nil {
			panic(err)
		}
		return h
	})
	return s
}

// Register creates the user and its first token in one transaction.
func (s *UserService) Register(ctx context.Context, username, password string) (string, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return "", common.ErrorValidation
	}

	hash, err := workpool.DoValue(ctx, s.deps.Pool, func(context.Context) ([]byte, error) {
		return bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	})
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", common.ErrorValidation
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", internal(ctx, s.log, "hash password", err)
	}

	token, err := common.MakeRandHexString(common.TokenBytes)
	if err != nil {
		return "", internal(ctx, s.log, "generate token", err)
	}

	err = s.deps.Tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		user, err := s.deps.Repos.Users(tx).Create(ctx, &models.User{
			UserName:       username,
			HashedPassword: string(hash),
		})
		if err != nil {
			return err
		}
		return s.deps.Repos.Tokens(tx).Create(ctx, user.ID, token)
	})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return "", common.ErrorConflict
		}
		return "", internal(ctx, s.log, "register", err)
	}

	s.log.Info(ctx, "user registered", "username", username)
	return token, nil
}

// Login verifies the password and issues a new token. Unknown users and wrong
// passwords both yield common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.deps.Repos.Users(s.deps.DB).GetUserByLogin(ctx, username)
	hash := s.dummyHash()
	switch {
	case err == nil:
		hash = []byte(user.HashedPassword)
	case !errors.Is(err, common.ErrorNotFound):
		return "", internal(ctx, s.log, "lookup user", err)
	}

	cmpErr := s.deps.Pool.Do(ctx, func(context.Context) error {
		return bcrypt.CompareHashAndPassword(hash, []byte(password))
	})
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if user == nil || cmpErr != nil {
		s.deps.Metrics.AuthFailures.WithLabelValues("login").Inc()
		return "", common.ErrorUnauthorized
	}

	token, err := common.MakeRandHexString(common.TokenBytes)
	if err != nil {
		return "", internal(ctx, s.log, "generate token", err)
	}
	if err := s.deps.Repos.Tokens(s.deps.DB).Create(ctx, user.ID, token); err != nil {
		return "", internal(ctx, s.log, "store token", err)
	}
	return token, nil
}

// Logout revokes exactly the given token.
func (s *UserService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return common.ErrorUnauthorized
	}
	err := s.deps.Repos.Tokens(s.deps.DB).Delete(ctx, token)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, common.ErrorNotFound):
		return common.ErrorUnauthorized
	default:
		return internal(ctx, s.log, "logout", err)
	}
}

// Resolve turns a bearer token into its user.
func (s *UserService) Resolve(ctx context.Context, token string) (*models.User, error) {
	if !common.IsLowerHex(token, tokenLength) {
		s.deps.Metrics.AuthFailures.WithLabelValues("resolve").Inc()
		return nil, common.ErrorUnauthenticated
	}

	tok, user, err := s.deps.Repos.Tokens(s.deps.DB).FindWithUser(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.deps.Metrics.AuthFailures.WithLabelValues("resolve").Inc()
			return nil, common.ErrorUnauthenticated
		}
		return nil, internal(ctx, s.log, "resolve token", err)
	}

	if s.policy.Expired(tok.CreatedWhen, s.now()) {
		if err := s.deps.Repos.Tokens(s.deps.DB).Delete(ctx, token); err != nil && !errors.Is(err, common.ErrorNotFound) {
			s.log.Warn(ctx, "expired token cleanup failed", "user_id", user.ID, "error", err)
		}
		s.deps.Metrics.AuthFailures.WithLabelValues("expired").Inc()
		return nil, common.ErrorUnauthenticated
	}

	return user, nil
}
