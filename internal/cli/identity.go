package cli

import (
	"context"
	"fmt"

	"lancamentos/internal/config"
	"lancamentos/internal/core"
)

// ConfigIdentity hands out the user profile carried in configuration. It
// stands in for a real sign-in provider on the command line.
type ConfigIdentity struct {
	cfg *config.Config
}

var _ core.IdentityProvider = (*ConfigIdentity)(nil)

func NewConfigIdentity(cfg *config.Config) *ConfigIdentity {
	return &ConfigIdentity{cfg: cfg}
}

func (c *ConfigIdentity) CurrentUser(_ context.Context) (core.UserProfile, error) {
	if c.cfg.UserHandle == "" {
		return core.UserProfile{}, fmt.Errorf("%w: no signed-in user", core.ErrNotFound)
	}
	p := core.UserProfile{Handle: c.cfg.UserHandle}
	if c.cfg.UserName != "" {
		name := c.cfg.UserName
		p.DisplayName = &name
	}
	if c.cfg.UserEmail != "" {
		email := c.cfg.UserEmail
		p.EmailAddress = &email
	}
	return p, nil
}
