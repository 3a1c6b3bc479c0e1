package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"bookstore/internal/platform/validation"
	"bookstore/internal/token"
	"bookstore/internal/user"
)

const emailTakenMessage = "email has already been taken"

type Service struct {
	users  user.Repository
	tokens token.Repository
	hasher PasswordHasher
	issuer TokenIssuer
	logger *slog.Logger
}

func NewService(users user.Repository, tokens token.Repository, hasher PasswordHasher, issuer TokenIssuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:  users,
		tokens: tokens,
		hasher: hasher,
		issuer: issuer,
		logger: logger,
	}
}

// Register creates a user and issues its first token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Result, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if verr := validation.Struct(in); verr != nil {
		return Result{}, verr
	}

	taken, err := s.users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return Result{}, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return Result{}, validation.NewError("email", emailTakenMessage)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return Result{}, fmt.Errorf("hash password: %w", err)
	}

	u := &user.User{Name: in.Name, Email: in.Email, PasswordHash: hash}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			return Result{}, validation.NewError("email", emailTakenMessage)
		}
		return Result{}, fmt.Errorf("create user: %w", err)
	}

	tok, err := s.issue(ctx, u.ID)
	if err != nil {
		// Drop the account so the email can register again.
		if derr := s.users.Delete(context.WithoutCancel(ctx), u.ID); derr != nil {
			s.logger.Error("remove user after failed token issue", "user_id", u.ID, "error", derr)
		}
		return Result{}, err
	}

	s.logger.Info("user registered", "user_id", u.ID)
	return Result{User: *u, Token: tok}, nil
}

// Login checks the credentials and issues a new token. Earlier tokens of the
// same user stay valid.
func (s *Service) Login(ctx context.Context, in LoginInput) (Result, error) {
	in.Email = strings.TrimSpace(in.Email)
	if verr := validation.Struct(in); verr != nil {
		return Result{}, verr
	}

	u, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Result{}, ErrInvalidCredentials
		}
		return Result{}, fmt.Errorf("get user: %w", err)
	}
	if !s.hasher.Verify(u.PasswordHash, in.Password) {
		return Result{}, ErrInvalidCredentials
	}

	tok, err := s.issue(ctx, u.ID)
	if err != nil {
		return Result{}, err
	}
	return Result{User: u, Token: tok}, nil
}

// Logout revokes the token with the given id and nothing else.
func (s *Service) Logout(ctx context.Context, tokenID string) error {
	if err := s.tokens.Delete(ctx, tokenID); err != nil {
		if errors.Is(err, token.ErrNotFound) {
			return ErrUnauthorized
		}
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// Authenticate resolves a bearer token to its user id and token id.
func (s *Service) Authenticate(ctx context.Context, bearer string) (int64, string, error) {
	claims, err := s.issuer.Parse(bearer)
	if err != nil {
		return 0, "", ErrUnauthorized
	}
	userID, err := claims.UserID()
	if err != nil {
		return 0, "", ErrUnauthorized
	}

	record, err := s.tokens.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, token.ErrNotFound) {
			return 0, "", ErrUnauthorized
		}
		return 0, "", fmt.Errorf("get token: %w", err)
	}
	if record.UserID != userID {
		return 0, "", ErrUnauthorized
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return 0, "", ErrUnauthorized
		}
		return 0, "", fmt.Errorf("get user: %w", err)
	}

	if err := s.tokens.Touch(ctx, record.ID); err != nil {
		s.logger.Warn("touch token", "token_id", record.ID, "error", err)
	}
	return userID, record.ID, nil
}

func (s *Service) issue(ctx context.Context, userID int64) (string, error) {
	tok, tokenID, err := s.issuer.Issue(userID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	if err := s.tokens.Create(ctx, &token.AccessToken{ID: tokenID, UserID: userID, Name: token.DefaultName}); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return tok, nil
}
