package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/strideworks/fittrack/internal/api/domain"
	"github.com/strideworks/fittrack/internal/api/store"
	"github.com/strideworks/fittrack/pkg/cryptox"
	"github.com/strideworks/fittrack/pkg/idx"
	"github.com/strideworks/fittrack/pkg/jwtx"
	"github.com/strideworks/fittrack/pkg/slogx"
)

const minPasswordLength = 8

// AuthService handles registration, login, and profile lookup. Tokens
// are self-contained HS256 JWTs; verifying one never touches the store.
type AuthService struct {
	Store  store.Store
	Signer *jwtx.HS256Signer
	Issuer string

	// Throttle is optional. When nil, failed logins are not rate
	// limited.
	Throttle *LoginThrottle

	decoyOnce sync.Once
	decoyHash string
}

// RegisterRequest carries the raw registration inputs before validation.
type RegisterRequest struct {
	Fullname string
	Email    string
	Password string
}

// Register creates a user and immediately issues an access token, so a
// fresh signup does not need a second round trip to log in.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (string, domain.User, error) {
	if err := validateRegister(req); err != nil {
		return "", domain.User{}, err
	}

	hash, err := cryptox.HashPassword(req.Password)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           idx.New(),
		Fullname:     strings.TrimSpace(req.Fullname),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		DateJoined:   now,
		UpdatedAt:    now,
	}

	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyExists):
			return "", domain.User{}, ErrDuplicateEmail
		case errors.Is(err, store.ErrUnavailable):
			return "", domain.User{}, ErrStoreUnavailable
		}
		return "", domain.User{}, err
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return "", domain.User{}, err
	}

	slogx.FromContext(ctx).Info("user registered", "user_id", user.ID)
	return token, user, nil
}

// Login verifies the email/password pair and issues an access token.
// Unknown email and wrong password are indistinguishable to the caller,
// both in the returned error and in elapsed time.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", domain.User{}, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	if s.Throttle != nil {
		if err := s.Throttle.Allow(ctx, email); err != nil {
			return "", domain.User{}, err
		}
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			// Burn the same hashing cost as a real verification so a
			// fast rejection does not reveal that the email is unknown.
			_ = cryptox.VerifyPassword(password, s.decoy())
			s.recordFailure(ctx, email)
			return "", domain.User{}, ErrInvalidCredentials
		case errors.Is(err, store.ErrUnavailable):
			return "", domain.User{}, ErrStoreUnavailable
		}
		return "", domain.User{}, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		s.recordFailure(ctx, email)
		return "", domain.User{}, ErrInvalidCredentials
	}

	if s.Throttle != nil {
		s.Throttle.Reset(ctx, email)
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return "", domain.User{}, err
	}

	slogx.FromContext(ctx).Info("user logged in", "user_id", user.ID)
	return token, user, nil
}

// Profile returns the user identified by an authenticated token subject.
func (s *AuthService) Profile(ctx context.Context, userID idx.ID) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return domain.User{}, ErrNotFound
		case errors.Is(err, store.ErrUnavailable):
			return domain.User{}, ErrStoreUnavailable
		}
		return domain.User{}, err
	}
	return user, nil
}

func (s *AuthService) issueToken(userID idx.ID) (string, error) {
	claims := jwtx.NewAccessClaims(userID.String(), s.Issuer, jwtx.AccessTokenTTL, time.Now().UTC())
	return s.Signer.Sign(claims)
}

func (s *AuthService) recordFailure(ctx context.Context, email string) {
	if s.Throttle != nil {
		s.Throttle.RecordFailure(ctx, email)
	}
}

// decoy returns a fixed hash of an unguessable value, used to equalize
// verification cost when the email does not resolve to a user.
func (s *AuthService) decoy() string {
	s.decoyOnce.Do(func() {
		hash, err := cryptox.HashPassword(idx.New().String())
		if err != nil {
			// Fall back to a well-formed hash of a constant; timing
			// equalization degrades but login still works.
			hash = "$argon2id$v=19$m=19456,t=2,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
		}
		s.decoyHash = hash
	})
	return s.decoyHash
}

func validateRegister(req RegisterRequest) error {
	if strings.TrimSpace(req.Fullname) == "" {
		return fmt.Errorf("%w: fullname is required", ErrValidation)
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return fmt.Errorf("%w: email is malformed", ErrValidation)
	}

	if len(req.Password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	return nil
}
