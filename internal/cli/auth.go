package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ahmetcoskunkizilkaya/crms/internal/session"
)

// NewLoginCmd creates the "login" subcommand.
func NewLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE:  runWithEnv(runLogin),
	}
	cmd.Flags().String("email", "", "Account email")
	cmd.Flags().String("password", "", "Account password (env CRMS_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func runLogin(cmd *cobra.Command, _ []string, e *env) error {
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		password = os.Getenv("CRMS_PASSWORD")
	}
	if password == "" {
		return exitError(exitFailure, "password is required (--password or CRMS_PASSWORD)")
	}

	res := e.manager.Login(cmd.Context(), email, password)
	if !res.Success {
		return exitError(exitAuth, "login failed: %s", res.Error)
	}
	e.manager.Wait()

	st := e.manager.State()
	next := e.guard.Decide(st, "/login")
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Signed in as %s (%s)\n", displayName(st.User), st.User.Role)
	fmt.Fprintf(out, "Continue to %s\n", next.To)
	return nil
}

// NewLogoutCmd creates the "logout" subcommand.
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the stored session",
		Args:  cobra.NoArgs,
		RunE: runWithEnv(func(cmd *cobra.Command, _ []string, e *env) error {
			e.manager.Rehydrate()
			e.manager.Logout(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "Signed out. Continue to %s\n", e.guard.AfterLogout().To)
			return nil
		}),
	}
}

// NewRegisterCmd creates the "register" subcommand.
func NewRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account that waits for approval",
		Args:  cobra.NoArgs,
		RunE:  runWithEnv(runRegister),
	}
	f := cmd.Flags()
	f.String("email", "", "Account email")
	f.String("password", "", "Account password (env CRMS_PASSWORD)")
	f.String("first-name", "", "First name")
	f.String("middle-name", "", "Middle name")
	f.String("last-name", "", "Last name")
	f.String("role", "faculty", "Requested role for staff accounts")
	f.String("student-number", "", "Student number; registers a student account")
	f.String("department", "", "Department id")
	f.String("program", "", "Program id (students)")
	f.Int("year-level", 0, "Year level (students)")
	f.String("contact", "", "Contact number")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("first-name")
	_ = cmd.MarkFlagRequired("last-name")
	return cmd
}

func runRegister(cmd *cobra.Command, _ []string, e *env) error {
	f := cmd.Flags()
	var r session.Registration
	r.Email, _ = f.GetString("email")
	r.Password, _ = f.GetString("password")
	r.FirstName, _ = f.GetString("first-name")
	r.MiddleName, _ = f.GetString("middle-name")
	r.LastName, _ = f.GetString("last-name")
	r.Role, _ = f.GetString("role")
	r.StudentNumber, _ = f.GetString("student-number")
	r.DepartmentID, _ = f.GetString("department")
	r.ProgramID, _ = f.GetString("program")
	r.YearLevel, _ = f.GetInt("year-level")
	r.ContactNumber, _ = f.GetString("contact")
	if r.Password == "" {
		r.Password = os.Getenv("CRMS_PASSWORD")
	}

	res := e.manager.Register(cmd.Context(), r)
	if !res.Success {
		return exitError(exitFailure, "registration failed: %s", res.Error)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Account created. An administrator must approve it before you can sign in.")
	return nil
}

// NewWhoamiCmd creates the "whoami" subcommand.
func NewWhoamiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: runWithEnv(func(cmd *cobra.Command, _ []string, e *env) error {
			st, err := e.requireSession()
			if err != nil {
				return err
			}
			asJSON, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(st.User)
			}
			fmt.Fprintf(out, "%s <%s>\n", displayName(st.User), st.User.Email)
			fmt.Fprintf(out, "role: %s\n", st.User.Role)
			fmt.Fprintf(out, "dashboard: %s\n", e.manager.DashboardPath())
			return nil
		}),
	}
	cmd.Flags().Bool("json", false, "Print the cached user record as JSON")
	return cmd
}

// NewRefreshCmd creates the "refresh" subcommand.
func NewRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Fetch the latest profile from the server",
		Args:  cobra.NoArgs,
		RunE: runWithEnv(func(cmd *cobra.Command, _ []string, e *env) error {
			if _, err := e.requireSession(); err != nil {
				return err
			}
			e.manager.Wait()
			if err := e.manager.RefreshUser(cmd.Context()); err != nil {
				return fmt.Errorf("refreshing profile: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Profile updated for %s\n", displayName(e.manager.State().User))
			return nil
		}),
	}
}

func displayName(u *session.UserRecord) string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
