package core

import (
	"context"
	"time"
)

// UserProfile is what the external identity provider hands over after sign-in.
// Only Handle is guaranteed; it is stable across sessions.
type UserProfile struct {
	Handle           string
	DisplayName      *string
	EmailAddress     *string
	AvatarURL        *string
	AccountCreatedAt *time.Time
}

// IdentityProvider is implemented outside this module.
type IdentityProvider interface {
	CurrentUser(ctx context.Context) (UserProfile, error)
}

// Greeting picks the best available name for the user.
func (u UserProfile) Greeting() string {
	if u.DisplayName != nil && *u.DisplayName != "" {
		return *u.DisplayName
	}
	if u.EmailAddress != nil && *u.EmailAddress != "" {
		return *u.EmailAddress
	}
	return u.Handle
}
