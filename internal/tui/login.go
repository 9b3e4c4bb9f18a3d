package tui

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/spendline/spendline/internal/tui/theme"
	"github.com/spendline/spendline/internal/workspace"
)

// loginValues holds the login form's bound fields. The form writes through
// pointers, so it lives outside the (copied) App value.
type loginValues struct {
	username string
	password string
}

func newLoginForm(vals *loginValues) *huh.Form {
	vals.password = ""
	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Sign in to spendline").
				Description("Use your expense tracker account."),
			huh.NewInput().
				Title("Username").
				Value(&vals.username).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("username is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&vals.password).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("password is required")
					}
					return nil
				}),
		),
	).WithShowHelp(true)
}

func (a App) showLogin() (tea.Model, tea.Cmd) {
	a.login = newLoginForm(a.loginVals)
	if a.width > 0 {
		a.login = a.login.WithWidth(a.width).WithHeight(a.height)
	}
	return a, a.login.Init()
}

func (a App) updateLoginForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.login.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.login = f
	}

	switch a.login.State {
	case huh.StateCompleted:
		a.login = nil
		a.busy = true
		a.setStatus("signing in…")
		return a, loginCmd(a.ws, a.loginVals.username, a.loginVals.password)
	case huh.StateAborted:
		return a, tea.Quit
	}
	return a, cmd
}

func loginCmd(ws *workspace.Workspace, username, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := ws.Session.Login(ctx, username, password)
		return loginDoneMsg{err: err}
	}
}

func (a App) viewLogin() string {
	t := theme.Active

	body := a.login.View()
	if a.statusErr && a.status != "" {
		body = lipgloss.NewStyle().Foreground(t.Red).Render(a.status) + "\n\n" + body
	}

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 3).
		Width(56).
		Render(body)
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}
