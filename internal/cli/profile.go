package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// profileFlags maps flag names to the profile fields they update.
var profileFlags = map[string]string{
	"first-name":       "first_name",
	"middle-name":      "middle_name",
	"last-name":        "last_name",
	"contact":          "contact_number",
	"address":          "address",
	"guardian-name":    "guardian_name",
	"guardian-contact": "guardian_contact",
}

// NewProfileCmd creates the "profile" subcommand.
func NewProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update your profile",
		Args:  cobra.NoArgs,
		RunE:  runWithEnv(runProfile),
	}
	for name := range profileFlags {
		cmd.Flags().String(name, "", "New "+name)
	}
	return cmd
}

func runProfile(cmd *cobra.Command, _ []string, e *env) error {
	fields := make(map[string]string)
	for name, field := range profileFlags {
		if cmd.Flags().Changed(name) {
			fields[field], _ = cmd.Flags().GetString(name)
		}
	}
	if len(fields) == 0 {
		return exitError(exitFailure, "nothing to update")
	}
	if _, err := e.requireSession(); err != nil {
		return err
	}
	e.manager.Wait()

	res := e.manager.UpdateProfile(cmd.Context(), fields)
	if !res.Success {
		return exitError(exitFailure, "profile update failed: %s", res.Error)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Profile updated for %s\n", displayName(res.User))
	return nil
}

// NewPasswdCmd creates the "passwd" subcommand.
func NewPasswdCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change your password",
		Args:  cobra.NoArgs,
		RunE: runWithEnv(func(cmd *cobra.Command, _ []string, e *env) error {
			current, _ := cmd.Flags().GetString("current")
			next, _ := cmd.Flags().GetString("new")
			if _, err := e.requireSession(); err != nil {
				return err
			}
			res := e.manager.ChangePassword(cmd.Context(), current, next)
			if !res.Success {
				return exitError(exitFailure, "password change failed: %s", res.Error)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password updated")
			return nil
		}),
	}
	cmd.Flags().String("current", "", "Current password")
	cmd.Flags().String("new", "", "New password")
	_ = cmd.MarkFlagRequired("current")
	_ = cmd.MarkFlagRequired("new")
	return cmd
}
