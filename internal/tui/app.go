// Package tui provides the interactive Bubble Tea dashboard for spendline.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/spendline/spendline/internal/lifetime"
	"github.com/spendline/spendline/internal/model"
	"github.com/spendline/spendline/internal/query"
	"github.com/spendline/spendline/internal/tui/components"
	"github.com/spendline/spendline/internal/tui/theme"
	"github.com/spendline/spendline/internal/workspace"
)

const (
	tabExpenses = iota
	tabReport
	tabNotifications
)

const (
	minTerminalWidth = 80
	maxContentWidth  = 160
	minContentHeight = 5

	requestTimeout = 30 * time.Second
)

// startedMsg is sent once the persisted session has been restored (or not).
type startedMsg struct{}

// loginDoneMsg carries the result of a login attempt.
type loginDoneMsg struct{ err error }

// reloadedMsg is sent when expenses and notifications finished reloading.
type reloadedMsg struct {
	err error
	at  time.Time
}

// reportMsg carries a month selection result.
type reportMsg struct {
	report model.MonthlyReport
	err    error
}

// mutationMsg reports the outcome of a delete/mark-read/export.
type mutationMsg struct {
	status string
	err    error
}

type tickMsg struct{}

// App is the root Bubble Tea model.
type App struct {
	ws *workspace.Workspace

	started    bool
	signedIn   bool
	lastReload time.Time

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	// Expenses tab
	q         query.Query
	expCursor int
	catCursor int // index into the filter cycle, 0 = all categories

	// Report tab
	year   int
	month  time.Month
	report *model.MonthlyReport

	// Notifications tab
	noteCursor int

	// In-flight requests. Mutation keys are ignored while busy.
	busy         bool
	reloading    bool
	refreshEvery time.Duration

	status    string
	statusErr bool

	login     *huh.Form
	loginVals *loginValues

	spinner spinner.Model
}

// NewApp creates the dashboard over an opened workspace.
func NewApp(ws *workspace.Workspace) App {
	theme.SetActive(ws.Config.Appearance.Theme)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	now := time.Now()
	return App{
		ws:           ws,
		q:            ws.DefaultQuery(),
		year:         now.Year(),
		month:        now.Month(),
		refreshEvery: 30 * time.Second,
		spinner:      sp,
		loginVals:    &loginValues{},
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.spinner.Tick,
		startCmd(a.ws),
		tickCmd(),
	)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.login != nil {
			a.login = a.login.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if !a.started {
			return a, nil
		}
		if a.login != nil {
			return a.updateLoginForm(msg)
		}
		return a.handleKey(msg.String())

	case startedMsg:
		a.started = true
		return a.afterIdentityChange()

	case loginDoneMsg:
		a.busy = false
		if msg.err != nil {
			a.setError(msg.err)
			return a.showLogin()
		}
		a.setStatus("signed in")
		return a.afterIdentityChange()

	case reloadedMsg:
		a.reloading = false
		a.lastReload = msg.at
		if msg.err != nil {
			a.setError(msg.err)
			return a.checkSignedOut()
		}
		a.clampCursors()
		return a, nil

	case reportMsg:
		if errors.Is(msg.err, lifetime.ErrStale) {
			return a, nil
		}
		if msg.err != nil {
			a.setError(msg.err)
			return a.checkSignedOut()
		}
		r := msg.report
		a.report = &r
		return a, nil

	case mutationMsg:
		a.busy = false
		if msg.err != nil {
			a.setError(msg.err)
			return a.checkSignedOut()
		}
		a.setStatus(msg.status)
		a.clampCursors()
		return a, nil

	case spinner.TickMsg:
		if !a.started || a.reloading {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if a.signedIn && !a.reloading && time.Since(a.lastReload) >= a.refreshEvery {
			a.reloading = true
			cmds = append(cmds, reloadCmd(a.ws), a.spinner.Tick)
		}
		return a, tea.Batch(cmds...)
	}

	// Forward everything else (cursor blinks etc.) to the login form.
	if a.login != nil {
		return a.updateLoginForm(msg)
	}
	return a, nil
}

// afterIdentityChange shows the login form when signed out, otherwise loads
// the dashboard data for the new identity.
func (a App) afterIdentityChange() (tea.Model, tea.Cmd) {
	if _, ok := a.ws.Session.User(); !ok {
		a.signedIn = false
		return a.showLogin()
	}
	a.signedIn = true
	a.report = nil
	a.expCursor, a.noteCursor = 0, 0
	a.reloading = true
	return a, tea.Batch(reloadCmd(a.ws), a.selectMonth(), a.spinner.Tick)
}

// checkSignedOut returns to the login form once a failed request tore the
// session down.
func (a App) checkSignedOut() (tea.Model, tea.Cmd) {
	if _, ok := a.ws.Session.User(); ok || !a.signedIn {
		return a, nil
	}
	a.signedIn = false
	a.report = nil
	return a.showLogin()
}

func (a App) handleKey(key string) (tea.Model, tea.Cmd) {
	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "left", "shift+tab":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		return a, nil
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	case "r":
		if a.reloading {
			return a, nil
		}
		a.reloading = true
		return a, tea.Batch(reloadCmd(a.ws), a.selectMonth(), a.spinner.Tick)
	case "L":
		if a.busy {
			return a, nil
		}
		a.ws.Session.Logout()
		a.signedIn = false
		a.report = nil
		a.setStatus("signed out")
		return a.showLogin()
	}
	if idx := components.TabIdxByKey(key); idx >= 0 {
		a.activeTab = idx
		return a, nil
	}

	switch a.activeTab {
	case tabExpenses:
		return a.updateExpenses(key)
	case tabReport:
		return a.updateReport(key)
	case tabNotifications:
		return a.updateNotifications(key)
	}
	return a, nil
}

func (a *App) setStatus(s string) {
	a.status = s
	a.statusErr = false
}

func (a *App) setError(err error) {
	a.status = err.Error()
	a.statusErr = true
	log.Debug().Err(err).Str("component", "tui").Msg("request failed")
}

func (a *App) clampCursors() {
	clamp := func(c, n int) int {
		if c >= n {
			c = n - 1
		}
		if c < 0 {
			c = 0
		}
		return c
	}
	a.expCursor = clamp(a.expCursor, len(a.visibleExpenses()))
	a.noteCursor = clamp(a.noteCursor, len(a.ws.Feed.Items()))
}

func (a App) contentWidth() int {
	if a.width > maxContentWidth {
		return maxContentWidth
	}
	return a.width
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  spendline needs at least %d columns.\n",
			a.width, minTerminalWidth)
	}
	if !a.started {
		return a.viewLoading()
	}
	if a.login != nil {
		return a.viewLogin()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewLoading() string {
	t := theme.Active
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4).
		Render(
			lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true).Render("◈ spendline") +
				"\n\n" + a.spinner.View() +
				lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render(" Restoring session..."),
		)
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	sections := []struct {
		title    string
		bindings [][2]string
	}{
		{"Navigation", [][2]string{
			{"1 2 3", "Jump to tab"},
			{"← → tab", "Previous / Next tab"},
			{"j k", "Move selection"},
		}},
		{"Expenses", [][2]string{
			{"d a c", "Sort by date / amount / category (again flips)"},
			{"f", "Cycle category filter"},
			{"x", "Delete selected expense"},
		}},
		{"Report", [][2]string{
			{"[ ]", "Previous / Next month"},
			{"e", "Export month as CSV"},
		}},
		{"Notifications", [][2]string{
			{"m", "Mark selected read"},
			{"M", "Mark all read"},
			{"x", "Delete selected"},
		}},
		{"General", [][2]string{
			{"r", "Reload"},
			{"L", "Sign out"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true).Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, s := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(s.title))
		b.WriteString("\n")
		for _, kb := range s.bindings {
			fmt.Fprintf(&b, "  %s  %s\n", keyStyle.Render(fmt.Sprintf("%-8s", kb[0])), descStyle.Render(kb[1]))
		}
	}

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3).
		Render(strings.TrimRight(b.String(), "\n"))
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w, h, cw := a.width, a.height, a.contentWidth()

	header := components.RenderTabBar(a.activeTab, a.ws.Feed.UnreadCount(), w)

	st := components.Status{
		Message: a.status,
		IsError: a.statusErr,
		Busy:    a.busy || a.reloading,
	}
	if u, ok := a.ws.Session.User(); ok {
		st.User = u.Username
	}
	if !a.lastReload.IsZero() {
		st.Age = "reloaded " + a.lastReload.Format("15:04:05")
	}
	statusBar := components.RenderStatusBar(w, st)

	contentH := h - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	var content string
	switch a.activeTab {
	case tabExpenses:
		content = a.renderExpensesTab(cw, contentH)
	case tabReport:
		content = a.renderReportTab(cw)
	case tabNotifications:
		content = a.renderNotificationsTab(cw, contentH)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

// ─── Commands ───────────────────────────────────────────────────

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func startCmd(ws *workspace.Workspace) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		ws.Start(ctx)
		return startedMsg{}
	}
}

func reloadCmd(ws *workspace.Workspace) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return reloadedMsg{err: ws.Reload(ctx), at: time.Now()}
	}
}

func (a App) selectMonth() tea.Cmd {
	ws, year, month := a.ws, a.year, a.month
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		r, err := ws.Reports.Select(ctx, year, month)
		return reportMsg{report: r, err: err}
	}
}

// mutate runs fn in the background and marks the app busy until it reports back.
func (a App) mutate(fn func(ctx context.Context) (string, error)) (tea.Model, tea.Cmd) {
	if a.busy {
		return a, nil
	}
	a.busy = true
	return a, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		status, err := fn(ctx)
		return mutationMsg{status: status, err: err}
	}
}

// ─── Helpers ────────────────────────────────────────────────────

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// window returns the [start, end) range of a list of n rows that keeps
// cursor visible in height rows.
func window(cursor, n, height int) (int, int) {
	if height <= 0 || n <= height {
		return 0, n
	}
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	if start+height > n {
		start = n - height
	}
	return start, start + height
}

// monthLabel renders "March 2024".
func monthLabel(year int, month time.Month) string {
	return fmt.Sprintf("%s %d", month, year)
}
