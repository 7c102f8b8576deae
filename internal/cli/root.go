// Package cli implements the crms command line client. Session state is
// kept in a local SQLite file so consecutive invocations share a login.
package cli

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ahmetcoskunkizilkaya/crms/internal/client"
	"github.com/ahmetcoskunkizilkaya/crms/internal/guard"
	"github.com/ahmetcoskunkizilkaya/crms/internal/roles"
	"github.com/ahmetcoskunkizilkaya/crms/internal/session"
)

const (
	defaultAPI   = "http://localhost:8080/api"
	localTable   = "local_storage"
	sessionTable = "session_storage"
)

// NewRootCmd builds the crms command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "crms",
		Short:        "Command line client for the Class Record Management System",
		SilenceUsage: true,
	}

	api := os.Getenv("CRMS_API_URL")
	if api == "" {
		api = defaultAPI
	}
	root.PersistentFlags().String("api", api, "API base URL (env CRMS_API_URL)")
	root.PersistentFlags().String("state", "", "Session state file (default ~/.crms/state.db)")
	root.PersistentFlags().String("roles", os.Getenv("ROLES_CONFIG_PATH"), "Role table override (yaml)")
	root.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	root.AddCommand(NewLoginCmd())
	root.AddCommand(NewLogoutCmd())
	root.AddCommand(NewRegisterCmd())
	root.AddCommand(NewWhoamiCmd())
	root.AddCommand(NewRefreshCmd())
	root.AddCommand(NewPasswdCmd())
	root.AddCommand(NewProfileCmd())
	root.AddCommand(NewRouteCmd())
	return root
}

// env is everything a command needs to talk to the API with a session.
type env struct {
	db      *sql.DB
	manager *session.Manager
	guard   *guard.Guard
}

func openEnv(cmd *cobra.Command) (*env, error) {
	apiURL, _ := cmd.Flags().GetString("api")
	statePath, _ := cmd.Flags().GetString("state")
	rolesPath, _ := cmd.Flags().GetString("roles")
	verbose, _ := cmd.Flags().GetBool("verbose")

	if statePath == "" {
		p, err := session.DefaultStatePath()
		if err != nil {
			return nil, err
		}
		statePath = p
	}

	registry := roles.Default()
	if rolesPath != "" {
		r, err := roles.LoadFromFile(rolesPath)
		if err != nil {
			return nil, fmt.Errorf("loading roles: %w", err)
		}
		registry = r
	}

	db, err := session.OpenStateDB(statePath)
	if err != nil {
		return nil, err
	}
	local, err := session.NewSQLiteStorage(db, localTable)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	sess, err := session.NewSQLiteStorage(db, sessionTable)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	mgr := session.NewManager(client.New(apiURL), local, sess,
		session.WithLogger(logger),
		session.WithTimeout(10*time.Second),
	)
	return &env{db: db, manager: mgr, guard: guard.New(registry, sess)}, nil
}

// Close waits for background refreshes and closes the state file.
func (e *env) Close() {
	e.manager.Wait()
	e.manager.Close()
	_ = e.db.Close()
}

// requireSession restores the stored session or fails with exitNotSignedIn.
func (e *env) requireSession() (session.State, error) {
	st := e.manager.Rehydrate()
	if !st.IsAuthenticated {
		return st, exitError(exitNotSignedIn, "not signed in; run crms login")
	}
	return st, nil
}

// runWithEnv opens the environment around fn.
func runWithEnv(fn func(cmd *cobra.Command, args []string, e *env) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		return fn(cmd, args, e)
	}
}
