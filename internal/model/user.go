package model

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/spendline/spendline/internal/apierr"
)

// User is the authenticated account.
type User struct {
	ID                        int64           `json:"id"`
	Email                     string          `json:"email"`
	Username                  string          `json:"username"`
	MonthlyBudget             decimal.Decimal `json:"monthly_budget"`
	EmailNotificationsEnabled bool            `json:"email_notifications_enabled"`
}

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	Username      string
	Email         string
	MonthlyBudget decimal.Decimal
}

// Registration is the sign-up payload.
type Registration struct {
	Username string
	Email    string
	Password string
}

// PasswordChange is the change-password form.
type PasswordChange struct {
	Current string
	New     string
	Confirm string
}

// ProfileRules holds the client-side validation policy for account forms.
type ProfileRules struct {
	MaxMonthlyBudget  decimal.Decimal
	MinPasswordLength int
}

// DefaultProfileRules mirrors the limits the web client enforced.
func DefaultProfileRules() ProfileRules {
	return ProfileRules{
		MaxMonthlyBudget:  decimal.NewFromInt(5000),
		MinPasswordLength: 8,
	}
}

var (
	emailPattern        = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	profileNamePattern  = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	registerNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,20}$`)
)

// ValidateProfile checks a profile update against r.
func (r ProfileRules) ValidateProfile(u ProfileUpdate) error {
	name := strings.TrimSpace(u.Username)
	switch {
	case name == "":
		return apierr.Validation("username", "username is required")
	case len(name) < 3:
		return apierr.Validation("username", "username must be at least 3 characters")
	case !profileNamePattern.MatchString(name):
		return apierr.Validation("username", "username can only contain letters, numbers, and underscores")
	}
	if err := validateEmail(u.Email); err != nil {
		return err
	}
	if u.MonthlyBudget.IsNegative() {
		return apierr.Validation("monthly_budget", "monthly budget cannot be negative")
	}
	if r.MaxMonthlyBudget.IsPositive() && u.MonthlyBudget.GreaterThan(r.MaxMonthlyBudget) {
		return apierr.Validation("monthly_budget", "monthly budget cannot exceed %s", r.MaxMonthlyBudget.StringFixed(0))
	}
	return nil
}

// ValidateRegistration checks a sign-up form against r.
func (r ProfileRules) ValidateRegistration(reg Registration) error {
	if !registerNamePattern.MatchString(reg.Username) {
		return apierr.Validation("username", "username must be 3-20 letters, numbers, underscores or dashes")
	}
	if err := validateEmail(reg.Email); err != nil {
		return err
	}
	if len(reg.Password) < r.MinPasswordLength {
		return apierr.Validation("password", "password must be at least %d characters", r.MinPasswordLength)
	}
	return nil
}

// ValidatePasswordChange checks a change-password form against r.
func (r ProfileRules) ValidatePasswordChange(pc PasswordChange) error {
	if pc.Current == "" {
		return apierr.Validation("current_password", "current password is required")
	}
	if pc.New == "" {
		return apierr.Validation("new_password", "new password is required")
	}
	if len(pc.New) < r.MinPasswordLength {
		return apierr.Validation("new_password", "new password must be at least %d characters", r.MinPasswordLength)
	}
	if pc.Confirm == "" {
		return apierr.Validation("confirm_password", "confirm your new password")
	}
	if pc.New != pc.Confirm {
		return apierr.Validation("confirm_password", "passwords do not match")
	}
	return nil
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apierr.Validation("email", "email is required")
	}
	if !emailPattern.MatchString(email) {
		return apierr.Validation("email", "email is invalid")
	}
	return nil
}
