package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"golang.org/x/term"

	"learnapp/internal/observability"
	"learnapp/internal/services"
	contextutils "learnapp/internal/utils"

	"github.com/spf13/cobra"
)

// PasswordReader prompts for a secret without echoing it
type PasswordReader func(prompt string) (string, error)

// terminalPassword reads from the controlling terminal
func terminalPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// UserCommands returns the user management commands
func UserCommands(userService services.UserServiceInterface, logger *observability.Logger, out io.Writer) *cobra.Command {
	return newUserCommands(userService, logger, out, terminalPassword)
}

func newUserCommands(userService services.UserServiceInterface, logger *observability.Logger, out io.Writer, readPassword PasswordReader) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
		Long: `User management commands for the learning platform.

Available commands:
  list           - List users
  reset-password - Reset password for a specific user
  deactivate     - Deactivate a user account`,
	}

	userCmd.AddCommand(listCmd(userService, logger, out))
	userCmd.AddCommand(resetPasswordCmd(userService, logger, out, readPassword))
	userCmd.AddCommand(deactivateCmd(userService, logger, out))

	return userCmd
}

func listCmd(userService services.UserServiceInterface, logger *observability.Logger, out io.Writer) *cobra.Command {
	var (
		limit      int
		offset     int
		activeOnly bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Long:  `List users in the database with their basic information.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)

			users, total, err := userService.ListUsers(ctx, services.Page{Limit: limit, Offset: offset}, activeOnly)
			if err != nil {
				logger.Error(ctx, "Failed to list users", err)
				return contextutils.WrapError(err, "failed to list users")
			}

			if len(users) == 0 {
				fmt.Fprintln(out, "No users found")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tACTIVE\tSTREAK\tCREATED")
			for _, u := range users {
				fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%d\t%s\n",
					u.ID, u.Username, u.Email, u.IsActive, u.StreakDays, u.CreatedAt.Format("2006-01-02"))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nShowing %d of %d users\n", len(users), total)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", services.DefaultPageLimit, "Maximum number of users to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of users to skip")
	cmd.Flags().BoolVar(&activeOnly, "active", false, "Only show active users")

	return cmd
}

func resetPasswordCmd(userService services.UserServiceInterface, logger *observability.Logger, out io.Writer, readPassword PasswordReader) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password <username>",
		Short: "Reset password for a user",
		Long:  `Reset the password for a specific user. The new password is read from the terminal.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			username := args[0]

			user, err := userService.GetUserByUsername(ctx, username)
			if err != nil {
				return contextutils.WrapErrorf(err, "failed to get user '%s'", username)
			}

			newPassword, err := readPassword("Enter new password: ")
			if err != nil {
				return contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to read password: %v", err)
			}
			if newPassword == "" {
				return contextutils.ErrorWithContextf("password cannot be empty")
			}
			confirm, err := readPassword("Confirm new password: ")
			if err != nil {
				return contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to read password confirmation: %v", err)
			}
			if newPassword != confirm {
				return contextutils.ErrorWithContextf("passwords do not match")
			}

			if err := userService.ResetPassword(ctx, user.ID, newPassword); err != nil {
				logger.Error(ctx, "Failed to reset password", err, map[string]interface{}{"username": username, "user_id": user.ID})
				return contextutils.WrapErrorf(err, "failed to reset password for user '%s'", username)
			}

			fmt.Fprintf(out, "Password reset for user '%s' (ID: %d)\n", username, user.ID)
			logger.Info(ctx, "Password reset successful", map[string]interface{}{"username": username, "user_id": user.ID})
			return nil
		},
	}
}

func deactivateCmd(userService services.UserServiceInterface, logger *observability.Logger, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate <username>",
		Short: "Deactivate a user account",
		Long:  `Deactivate a user account. Outstanding tokens stop working immediately.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			username := args[0]

			user, err := userService.GetUserByUsername(ctx, username)
			if err != nil {
				return contextutils.WrapErrorf(err, "failed to get user '%s'", username)
			}
			if !user.IsActive {
				fmt.Fprintf(out, "User '%s' is already inactive\n", username)
				return nil
			}

			if err := userService.DeactivateUser(ctx, user.ID); err != nil {
				return contextutils.WrapErrorf(err, "failed to deactivate user '%s'", username)
			}

			fmt.Fprintf(out, "User '%s' (ID: %d) deactivated\n", username, user.ID)
			logger.Info(ctx, "User deactivated", map[string]interface{}{"username": username, "user_id": user.ID})
			return nil
		},
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
