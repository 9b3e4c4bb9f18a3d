package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/spendline/spendline/internal/cli"
	"github.com/spendline/spendline/internal/model"
)

var (
	flagLoginUsername string
	flagPasswordStdin bool
	flagLoginToken    string

	flagRegisterUsername string
	flagRegisterEmail    string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and remember the session",
	Long: "Sign in with a username and password, or hand over a token issued by an\n" +
		"external sign-in (--token). Prompts interactively when run in a terminal.",
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE:  runRegister,
}

func init() {
	loginCmd.Flags().StringVarP(&flagLoginUsername, "username", "u", "", "Username")
	loginCmd.Flags().BoolVar(&flagPasswordStdin, "password-stdin", false, "Read the password from stdin")
	loginCmd.Flags().StringVar(&flagLoginToken, "token", "", "Complete an external sign-in with this token")
	loginCmd.MarkFlagsMutuallyExclusive("token", "username")
	loginCmd.MarkFlagsMutuallyExclusive("token", "password-stdin")

	registerCmd.Flags().StringVarP(&flagRegisterUsername, "username", "u", "", "Username (3-20 letters, digits, _ or -)")
	registerCmd.Flags().StringVar(&flagRegisterEmail, "email", "", "Email address")
	registerCmd.Flags().BoolVar(&flagPasswordStdin, "password-stdin", false, "Read the password from stdin")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, registerCmd)
}

func runLogin(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	var u model.User
	if cmd.Flags().Changed("token") {
		u, err = ws.Session.CompleteExternalLogin(ctx, strings.TrimSpace(flagLoginToken))
	} else {
		username, password, perr := loginCredentials()
		if perr != nil {
			return perr
		}
		u, err = ws.Session.Login(ctx, username, password)
	}
	if err != nil {
		return err
	}

	fmt.Printf("  Signed in as %s\n", u.Username)
	if flagEphemeral {
		progress("Session not saved (--ephemeral)")
	}
	return nil
}

func loginCredentials() (string, string, error) {
	username := flagLoginUsername
	var password string

	switch {
	case flagPasswordStdin:
		p, err := readSecret("Password: ")
		if err != nil {
			return "", "", fmt.Errorf("reading password: %w", err)
		}
		password = p
	case stdinIsTerminal():
		fields := []huh.Field{}
		if username == "" {
			fields = append(fields, huh.NewInput().Title("Username").Value(&username).Validate(required("username")))
		}
		fields = append(fields, huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).
			Value(&password).Validate(required("password")))
		if err := runForm(fields...); err != nil {
			return "", "", err
		}
	default:
		return "", "", errors.New("no terminal: pass --username and --password-stdin")
	}

	if strings.TrimSpace(username) == "" {
		return "", "", errors.New("username is required")
	}
	return username, password, nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	ws, err := openWorkspace(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	ws.Session.Logout()
	fmt.Println("  Signed out")
	return nil
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	ws, u, err := signedIn(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	fmt.Print(cli.RenderTable(userTable(u)))
	return nil
}

func userTable(u model.User) cli.Table {
	email := "off"
	if u.EmailNotificationsEnabled {
		email = "on"
	}
	return cli.Table{
		Headers: []string{"Account", ""},
		Rows: [][]string{
			{"Username", u.Username},
			{"Email", u.Email},
			{"Monthly budget", cli.FormatMoney(u.MonthlyBudget)},
			{"Email notifications", email},
		},
		Right: []int{},
	}
}

func runRegister(cmd *cobra.Command, _ []string) error {
	reg := model.Registration{Username: flagRegisterUsername, Email: flagRegisterEmail}

	switch {
	case flagPasswordStdin:
		p, err := readSecret("Password: ")
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}
		reg.Password = p
	case stdinIsTerminal():
		var confirm string
		err := runForm(
			huh.NewInput().Title("Username").Value(&reg.Username).Validate(required("username")),
			huh.NewInput().Title("Email").Value(&reg.Email).Validate(required("email")),
			huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&reg.Password),
			huh.NewInput().Title("Confirm password").EchoMode(huh.EchoModePassword).Value(&confirm).
				Validate(func(s string) error {
					if s != reg.Password {
						return errors.New("passwords do not match")
					}
					return nil
				}),
		)
		if err != nil {
			return err
		}
	default:
		return errors.New("no terminal: pass --username, --email and --password-stdin")
	}

	ws, err := openWorkspace(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	u, err := ws.Session.Register(cmd.Context(), reg)
	if err != nil {
		return err
	}
	fmt.Printf("  Account %s created. Run `spendline login` to sign in.\n", u.Username)
	return nil
}
