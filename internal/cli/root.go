// Package cli implements the tdl command line: the TUI launcher plus
// scriptable commands over the same task store.
package cli

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/tgienger/tdl/internal/config"
	"github.com/tgienger/tdl/internal/di"
	"github.com/tgienger/tdl/internal/di/providers"
	"github.com/tgienger/tdl/internal/logger"
	"github.com/tgienger/tdl/internal/store"
	"github.com/tgienger/tdl/internal/ui"
	"github.com/tgienger/tdl/internal/updater"
)

// app carries state shared by all commands. The container is created on
// first use so that `tdl version` and `--help` never touch the database.
type app struct {
	build    providers.BuildInfo
	opts     config.Options
	injector *do.RootScope
}

func (a *app) container() *do.RootScope {
	if a.injector == nil {
		a.injector = di.NewContainer(a.opts, a.build)
	}
	return a.injector
}

func (a *app) store() (*store.Store, error) {
	return do.Invoke[*store.Store](a.container())
}

func (a *app) database() (*providers.DatabaseHandle, error) {
	return do.Invoke[*providers.DatabaseHandle](a.container())
}

func (a *app) updater() (*updater.Updater, error) {
	return do.Invoke[*updater.Updater](a.container())
}

func (a *app) logger() *logger.Logger {
	if log, err := do.Invoke[*logger.Logger](a.container()); err == nil {
		return log
	}
	return logger.NewNop()
}

// close flushes pending snapshots and closes the database
func (a *app) close() {
	if a.injector == nil {
		return
	}
	if err := a.injector.Shutdown(); err != nil {
		fmt.Fprintln(os.Stderr, "Error: shutdown:", err)
	}
	a.injector = nil
}

// Execute runs the root command
func Execute(build providers.BuildInfo) error {
	cmd, a := newRootCommand(build)
	defer a.close()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func newRootCommand(build providers.BuildInfo) (*cobra.Command, *app) {
	a := &app{build: build}

	root := &cobra.Command{
		Use:   "tdl",
		Short: "A to-do list for the terminal",
		Long: `tdl keeps a local to-do list with tags, search and scheduled dates.

Run without arguments to open the full-screen interface. Bulk-add lines may
carry a date such as "2024/12/03 10:00" or "12/3", which becomes the task's
scheduled time.`,
		Args:          cobra.NoArgs,
		RunE:          a.runTUI,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&a.opts.File, "config", "", "config file (default $XDG_CONFIG_HOME/tdl/config.yaml)")
	root.PersistentFlags().StringVar(&a.opts.EnvFile, "env-file", "", "dotenv file to load (default .env)")

	root.AddCommand(
		newAddCommand(a),
		newListCommand(a),
		newDoneCommand(a),
		newEditCommand(a),
		newRemoveCommand(a),
		newTagCommand(a),
		newUpdateCommand(a),
		newExportCommand(a),
		newImportCommand(a),
		newVersionCommand(a),
	)

	return root, a
}

func (a *app) runTUI(cmd *cobra.Command, args []string) error {
	injector := a.container()
	s, err := a.store()
	if err != nil {
		return err
	}
	cfg, err := do.Invoke[*config.Config](injector)
	if err != nil {
		return err
	}
	database, err := a.database()
	if err != nil {
		return err
	}
	u, err := a.updater()
	if err != nil {
		return err
	}

	model := ui.NewApp(ui.Deps{
		Store:    s,
		Updater:  u,
		Settings: database.DB,
		Config:   cfg,
		Log:      a.logger().Named("ui"),
	})
	defer model.Close()
	p := tea.NewProgram(model, tea.WithAltScreen())

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("run interface: %w", err)
	}
	if m, ok := final.(*ui.App); ok && m.InstallRequested() {
		fmt.Fprintln(cmd.OutOrStdout(), "Update installed. Restart tdl to use the new version.")
	}
	return nil
}

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print tdl version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "tdl %s (commit: %s, built: %s)\n", a.build.Version, a.build.Commit, a.build.Date)
		},
	}
}

// Errors reported when a command argument does not identify exactly one item
var (
	ErrTaskNotFound = errors.New("task not found")
	ErrTagNotFound  = errors.New("tag not found")
	ErrAmbiguous    = errors.New("ambiguous reference")
)
