package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tgienger/tdl/internal/db"
	"github.com/tgienger/tdl/internal/updater"
)

// newUpdateCommand creates the update command with subcommands
func newUpdateCommand(a *app) *cobra.Command {
	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Check for and install new releases",
	}

	updateCmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Check the release feed for a newer version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := a.check(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !info.Available {
				fmt.Fprintf(out, "tdl %s is up to date\n", a.build.Version)
				return nil
			}
			fmt.Fprintf(out, "tdl %s is available (running %s)\n", info.Version, a.build.Version)
			if info.Notes != "" {
				fmt.Fprintf(out, "\n%s\n", info.Notes)
			}
			return nil
		},
	})

	updateCmd.AddCommand(&cobra.Command{
		Use:   "download",
		Short: "Download the newest version without installing it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _, err := a.download(cmd)
			if err != nil || path == "" {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Downloaded to %s\n", path)
			return nil
		},
	})

	updateCmd.AddCommand(&cobra.Command{
		Use:   "install",
		Short: "Download and install the newest version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, info, err := a.download(cmd)
			if err != nil || path == "" {
				return err
			}
			u, err := a.updater()
			if err != nil {
				return err
			}
			if err := u.Install(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Installed tdl %s\n", info.Version)
			return nil
		},
	})

	updateCmd.AddCommand(&cobra.Command{
		Use:   "skip <version>",
		Short: "Stop offering a specific version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := a.database()
			if err != nil {
				return err
			}
			if err := database.SetSetting(db.SettingUpdateSkippedVersion, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Skipping %s\n", args[0])
			return nil
		},
	})

	return updateCmd
}

// check runs a feed check and records when it happened
func (a *app) check(cmd *cobra.Command) (updater.Info, error) {
	u, err := a.updater()
	if err != nil {
		return updater.Info{}, err
	}
	info, err := u.Check(cmd.Context())
	if err != nil {
		return updater.Info{}, err
	}
	if database, err := a.database(); err == nil {
		if err := database.SetSetting(db.SettingUpdateLastChecked, time.Now().UTC().Format(time.RFC3339)); err != nil {
			a.logger().Warnw("Failed to record update check", "error", err)
		}
	}
	return info, nil
}

// download checks and fetches the newest build, printing progress. path is
// empty when already up to date.
func (a *app) download(cmd *cobra.Command) (string, updater.Info, error) {
	info, err := a.check(cmd)
	if err != nil {
		return "", info, err
	}
	out := cmd.OutOrStdout()
	if !info.Available {
		fmt.Fprintf(out, "tdl %s is up to date\n", a.build.Version)
		return "", info, nil
	}

	u, err := a.updater()
	if err != nil {
		return "", info, err
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case e := <-u.Events():
				if e.Kind == updater.EventProgress {
					fmt.Fprintf(cmd.ErrOrStderr(), "\r%s", e.Progress)
				}
			case <-stop:
				return
			}
		}
	}()

	path, err := u.Download(cmd.Context(), info)
	close(stop)
	<-done
	fmt.Fprintln(cmd.ErrOrStderr())
	return path, info, err
}
