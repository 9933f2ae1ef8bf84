package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tgienger/tdl/internal/store"
)

func newExportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the whole task list as a JSON snapshot",
		Long:  "Write tasks, tags and the current filter as a versioned JSON snapshot, to a file or stdout.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.store()
			if err != nil {
				return err
			}
			data, err := store.Marshal(s.State())
			if err != nil {
				return err
			}
			data = append(data, '\n')

			if len(args) == 0 || args[0] == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(args[0], data, 0644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			st := s.State()
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d tasks and %d tags to %s\n", len(st.Tasks), len(st.Tags), args[0])
			return nil
		},
	}
}

func newImportCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the task list with a JSON snapshot",
		Long:  "Replace all tasks and tags with the contents of a snapshot written by export. Use - to read stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read import: %w", err)
			}

			st, err := store.Unmarshal(data)
			if err != nil {
				return err
			}
			s, err := a.store()
			if err != nil {
				return err
			}
			s.Replace(st)
			if err := s.LastSaveError(); err != nil {
				return fmt.Errorf("save import: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tasks and %d tags\n", len(st.Tasks), len(st.Tags))
			return nil
		},
	}
}
