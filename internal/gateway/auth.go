package gateway

import (
	"context"
	"net/http"
	"net/url"

	"github.com/spendline/spendline/internal/apierr"
	"github.com/spendline/spendline/internal/model"
)

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var tr tokenResponse
	err := c.call(ctx, request{
		method: http.MethodPost,
		path:   "/auth/login",
		form:   url.Values{"username": {username}, "password": {password}},
	}, &tr)
	if err != nil {
		return "", err
	}
	if tr.AccessToken == "" {
		return "", &apierr.Error{Kind: apierr.ErrUnexpected, Detail: "login response carried no token"}
	}
	return tr.AccessToken, nil
}

// Me resolves the identity behind the current token.
func (c *Client) Me(ctx context.Context) (model.User, error) {
	var u model.User
	err := c.call(ctx, request{method: http.MethodGet, path: "/auth/me", authed: true}, &u)
	return u, err
}

// UpdateMe saves profile fields and returns the updated user.
func (c *Client) UpdateMe(ctx context.Context, p model.ProfileUpdate) (model.User, error) {
	var u model.User
	err := c.call(ctx, request{
		method: http.MethodPut,
		path:   "/auth/me",
		body: profileRequest{
			Username:      p.Username,
			Email:         p.Email,
			MonthlyBudget: number(p.MonthlyBudget),
		},
		authed: true,
	}, &u)
	return u, err
}

// Register creates an account. It does not authenticate.
func (c *Client) Register(ctx context.Context, r model.Registration) (model.User, error) {
	var u model.User
	err := c.call(ctx, request{
		method: http.MethodPost,
		path:   "/auth/register",
		body:   registerRequest{Username: r.Username, Email: r.Email, Password: r.Password},
	}, &u)
	return u, err
}

// ChangePassword submits the change-password form.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	return c.call(ctx, request{
		method: http.MethodPost,
		path:   "/auth/change-password",
		form:   url.Values{"current_password": {current}, "new_password": {next}},
		authed: true,
	}, nil)
}

// NotificationSettings reports whether email notifications are enabled.
func (c *Client) NotificationSettings(ctx context.Context) (bool, error) {
	var r notificationSettingResponse
	err := c.call(ctx, request{method: http.MethodGet, path: "/auth/notifications", authed: true}, &r)
	return r.EmailNotificationsEnabled, err
}

// SetNotificationSettings toggles email notifications and returns the stored value.
func (c *Client) SetNotificationSettings(ctx context.Context, enabled bool) (bool, error) {
	var r notificationSettingResponse
	err := c.call(ctx, request{
		method: http.MethodPut,
		path:   "/auth/notifications",
		body:   notificationSettingRequest{Enabled: enabled},
		authed: true,
	}, &r)
	return r.EmailNotificationsEnabled, err
}
