package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/spendline/spendline/internal/cli"
	"github.com/spendline/spendline/internal/model"
)

var (
	flagProfileUsername string
	flagProfileEmail    string
	flagProfileBudget   string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or edit the account profile",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Change username, email or monthly budget",
	Args:  cobra.NoArgs,
	RunE:  runProfileUpdate,
}

var profilePasswordCmd = &cobra.Command{
	Use:   "password",
	Short: "Change the account password",
	Args:  cobra.NoArgs,
	RunE:  runProfilePassword,
}

func init() {
	profileUpdateCmd.Flags().StringVarP(&flagProfileUsername, "username", "u", "", "New username")
	profileUpdateCmd.Flags().StringVar(&flagProfileEmail, "email", "", "New email address")
	profileUpdateCmd.Flags().StringVar(&flagProfileBudget, "budget", "", "Monthly budget, e.g. 1500")

	profileCmd.AddCommand(profileUpdateCmd, profilePasswordCmd)
	rootCmd.AddCommand(profileCmd)
}

func runProfileUpdate(cmd *cobra.Command, _ []string) error {
	fl := cmd.Flags()
	if !fl.Changed("username") && !fl.Changed("email") && !fl.Changed("budget") {
		return errors.New("nothing to change: pass --username, --email or --budget")
	}

	ctx := cmd.Context()
	ws, u, err := signedIn(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	p := model.ProfileUpdate{
		Username:      u.Username,
		Email:         u.Email,
		MonthlyBudget: u.MonthlyBudget,
	}
	if fl.Changed("username") {
		p.Username = flagProfileUsername
	}
	if fl.Changed("email") {
		p.Email = flagProfileEmail
	}
	if fl.Changed("budget") {
		b, err := decimal.NewFromString(flagProfileBudget)
		if err != nil {
			return fmt.Errorf("--budget: %q is not a number", flagProfileBudget)
		}
		p.MonthlyBudget = b
	}

	updated, err := ws.Session.UpdateProfile(ctx, p)
	if err != nil {
		return err
	}
	fmt.Println("  Profile updated")
	fmt.Print(cli.RenderTable(userTable(updated)))
	return nil
}

func runProfilePassword(cmd *cobra.Command, _ []string) error {
	var pc model.PasswordChange
	if stdinIsTerminal() {
		err := runForm(
			huh.NewInput().Title("Current password").EchoMode(huh.EchoModePassword).Value(&pc.Current),
			huh.NewInput().Title("New password").EchoMode(huh.EchoModePassword).Value(&pc.New),
			huh.NewInput().Title("Confirm new password").EchoMode(huh.EchoModePassword).Value(&pc.Confirm),
		)
		if err != nil {
			return err
		}
	} else {
		// One secret per line: current, new, confirmation.
		for _, dst := range []*string{&pc.Current, &pc.New, &pc.Confirm} {
			s, err := readSecret("")
			if err != nil {
				return fmt.Errorf("reading passwords: %w", err)
			}
			*dst = s
		}
	}

	ctx := cmd.Context()
	ws, _, err := signedIn(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	if err := ws.Session.ChangePassword(ctx, pc); err != nil {
		return err
	}
	fmt.Println("  Password changed")
	return nil
}
