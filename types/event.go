package types

import "time"

// AccountEventType names a change to an account.
type AccountEventType string

const (
	AccountRegistered      AccountEventType = "account.registered"
	AccountProfileUpdated  AccountEventType = "account.profile_updated"
	AccountPasswordChanged AccountEventType = "account.password_changed"
	AccountAvatarUpdated   AccountEventType = "account.avatar_updated"
	AccountBannerUpdated   AccountEventType = "account.banner_updated"
)

// AccountEvent is published to the account events channel after a
// successful account mutation. It never carries credentials.
type AccountEvent struct {
	Type       AccountEventType `json:"type"`
	AccountID  string           `json:"account_id"`
	Username   string           `json:"username"`
	Email      string           `json:"email"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// NewAccountEvent builds an event of the given type for the account.
func NewAccountEvent(eventType AccountEventType, account Account) AccountEvent {
	return AccountEvent{
		Type:       eventType,
		AccountID:  account.ID,
		Username:   account.Username,
		Email:      account.Email,
		OccurredAt: time.Now().UTC(),
	}
}
