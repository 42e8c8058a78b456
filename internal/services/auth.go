package services

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/profiledesk/apiserver/internal/store"
	"github.com/profiledesk/apiserver/types"
)

// AuthService encapsulates registration and login.
type AuthService struct {
	repo   AccountRepository
	hasher PasswordHasher
	tokens TokenIssuer
	events EventPublisher
	logger *slog.Logger
}

func NewAuthService(repo AccountRepository, hasher PasswordHasher, tokens TokenIssuer, events EventPublisher, logger *slog.Logger) *AuthService {
	return &AuthService{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		events: events,
		logger: loggerOrDefault(logger),
	}
}

// RegisterInput is the raw registration form.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Session is an authenticated account together with its signed token.
type Session struct {
	Account types.Account
	Token   string
}

// Register creates an account and signs a token for it. A blank username
// is derived from the local part of the email.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (Session, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.ToLower(strings.TrimSpace(in.Username))

	if email == "" || in.Password == "" || in.ConfirmPassword == "" {
		return Session{}, validationError("Email, password and confirm password are required")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return Session{}, validationError("Please provide a valid email address")
	}
	if username == "" {
		username = email[:strings.Index(email, "@")]
	}
	if strings.ContainsAny(username, "@ \t") {
		return Session{}, validationError("Username cannot contain spaces or @")
	}
	if in.Password != in.ConfirmPassword {
		return Session{}, validationError("Passwords do not match")
	}
	if len(in.Password) > maxPasswordBytes {
		return Session{}, validationError("Password is too long")
	}

	// Advisory checks for friendlier messages; the unique indexes decide.
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return Session{}, conflictError("Email already in use")
	} else if !errors.Is(err, store.ErrNotFound) {
		return Session{}, err
	}
	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return Session{}, conflictError("Username already taken")
	} else if !errors.Is(err, store.ErrNotFound) {
		return Session{}, err
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return Session{}, err
	}

	account, err := s.repo.Create(ctx, types.Account{
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return Session{}, conflictError("User with this email or username already exists")
		}
		return Session{}, err
	}

	token, err := s.tokens.Issue(account.ID, account.Email)
	if err != nil {
		return Session{}, err
	}

	publishEvent(ctx, s.events, s.logger, types.AccountRegistered, account)
	return Session{Account: account, Token: token}, nil
}

// Login verifies credentials. The identifier matches either the email or
// the username. Unknown identifiers and wrong passwords fail identically.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (Session, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" || password == "" {
		return Session{}, validationError("Username/email and password are required")
	}

	account, err := s.repo.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Session{}, invalidCredentials
		}
		return Session{}, err
	}

	if !s.hasher.Compare(account.PasswordHash, password) {
		return Session{}, invalidCredentials
	}

	token, err := s.tokens.Issue(account.ID, account.Email)
	if err != nil {
		return Session{}, err
	}
	return Session{Account: account, Token: token}, nil
}

// Current loads the account a session token refers to.
func (s *AuthService) Current(ctx context.Context, subjectID string) (types.Account, error) {
	account, err := s.repo.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Account{}, notFoundError("User not found")
		}
		return types.Account{}, err
	}
	return account, nil
}
