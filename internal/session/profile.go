package session

import (
	"context"
	"strings"

	"github.com/spendline/spendline/internal/apierr"
	"github.com/spendline/spendline/internal/lifetime"
	"github.com/spendline/spendline/internal/model"
)

func (c *Controller) requireUser() (string, error) {
	tok := c.tokens.Token()
	if _, ok := c.User(); !ok || tok == "" {
		return "", apierr.Auth("not signed in")
	}
	return tok, nil
}

// replaceUser installs u if the session is still the one the request was made for.
func (c *Controller) replaceUser(tok string, u model.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil || c.tokens.Token() != tok {
		return lifetime.ErrStale
	}
	c.user = &u
	return nil
}

// UpdateProfile validates and saves the editable profile fields.
func (c *Controller) UpdateProfile(ctx context.Context, p model.ProfileUpdate) (model.User, error) {
	tok, err := c.requireUser()
	if err != nil {
		return model.User{}, err
	}
	p.Username = strings.TrimSpace(p.Username)
	p.Email = strings.TrimSpace(p.Email)
	if err := c.rules.ValidateProfile(p); err != nil {
		return model.User{}, err
	}

	u, err := c.gw.UpdateMe(ctx, p)
	if err != nil {
		return model.User{}, err
	}
	if err := c.replaceUser(tok, u); err != nil {
		return model.User{}, err
	}
	return u, nil
}

// ChangePassword validates the form and submits it.
func (c *Controller) ChangePassword(ctx context.Context, pc model.PasswordChange) error {
	if _, err := c.requireUser(); err != nil {
		return err
	}
	if err := c.rules.ValidatePasswordChange(pc); err != nil {
		return err
	}
	return c.gw.ChangePassword(ctx, pc.Current, pc.New)
}

// EmailNotifications reports the server-side email notification preference.
func (c *Controller) EmailNotifications(ctx context.Context) (bool, error) {
	if _, err := c.requireUser(); err != nil {
		return false, err
	}
	return c.gw.NotificationSettings(ctx)
}

// SetEmailNotifications stores the preference and mirrors it onto the user.
func (c *Controller) SetEmailNotifications(ctx context.Context, enabled bool) (bool, error) {
	tok, err := c.requireUser()
	if err != nil {
		return false, err
	}
	got, err := c.gw.SetNotificationSettings(ctx, enabled)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil || c.tokens.Token() != tok {
		return false, lifetime.ErrStale
	}
	updated := *c.user
	updated.EmailNotificationsEnabled = got
	c.user = &updated
	return got, nil
}
