package services

import (
	"context"
	"log/slog"

	"github.com/profiledesk/apiserver/types"
)

// AccountRepository defines persistence operations for accounts.
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (types.Account, error)
	GetByIdentifier(ctx context.Context, identifier string) (types.Account, error)
	GetByEmail(ctx context.Context, email string) (types.Account, error)
	GetByUsername(ctx context.Context, username string) (types.Account, error)
	Create(ctx context.Context, account types.Account) (types.Account, error)
	Update(ctx context.Context, account types.Account) (types.Account, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// TokenIssuer signs session tokens for a subject.
type TokenIssuer interface {
	Issue(subjectID, email string) (string, error)
}

// EventPublisher delivers account events to other services.
type EventPublisher interface {
	PublishAccountEvent(ctx context.Context, event types.AccountEvent) error
}

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// publishEvent sends an account event. Delivery is best-effort: a failure
// is logged and never fails the caller.
func publishEvent(ctx context.Context, events EventPublisher, logger *slog.Logger, eventType types.AccountEventType, account types.Account) {
	if events == nil {
		return
	}
	if err := events.PublishAccountEvent(ctx, types.NewAccountEvent(eventType, account)); err != nil {
		logger.WarnContext(ctx, "publish account event failed",
			"type", eventType,
			"account_id", account.ID,
			"error", err,
		)
	}
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
