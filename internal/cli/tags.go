package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/tgienger/tdl/internal/models"
	"github.com/tgienger/tdl/internal/validation"
)

// newTagCommand creates the tag command with subcommands
func newTagCommand(a *app) *cobra.Command {
	tagCmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage tags",
	}

	var color string
	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.store()
			if err != nil {
				return err
			}
			name := strings.TrimSpace(args[0])
			if color == "" {
				color = models.NextTagColor(len(s.Tags()))
			}
			if err := validation.New().Tag(name, color); err != nil {
				return err
			}
			tag := s.AddTag(name, color)
			fmt.Fprintf(cmd.OutOrStdout(), "Added tag %s  %s  %s\n", tag.ID, tag.Name, tag.Color)
			return nil
		},
	}
	addCmd.Flags().StringVar(&color, "color", "", "hex color (default: next palette color)")

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tags with task counts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.store()
			if err != nil {
				return err
			}
			tags := s.Tags()
			if len(tags) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tags")
				return nil
			}
			counts := s.Counts()

			rows := make([][]string, len(tags))
			for i, t := range tags {
				rows[i] = []string{t.ID, t.Name, t.Color, fmt.Sprint(counts.ByTag[t.ID])}
			}
			out := table.New().
				Border(lipgloss.HiddenBorder()).
				BorderTop(false).
				BorderBottom(false).
				Headers("ID", "NAME", "COLOR", "TASKS").
				Rows(rows...).
				StyleFunc(func(row, col int) lipgloss.Style {
					if row >= 0 && col == 1 && row < len(tags) {
						return lipgloss.NewStyle().Foreground(lipgloss.Color(tags[row].Color))
					}
					return lipgloss.NewStyle()
				}).
				String()
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	var (
		newName  string
		newColor string
	)
	editCmd := &cobra.Command{
		Use:   "edit <tag>",
		Short: "Rename or recolor a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.store()
			if err != nil {
				return err
			}
			tag, err := resolveTag(s, args[0])
			if err != nil {
				return err
			}

			var patch models.TagPatch
			if cmd.Flags().Changed("name") {
				n := strings.TrimSpace(newName)
				patch.Name = &n
			}
			if cmd.Flags().Changed("color") {
				patch.Color = &newColor
			}
			if patch == (models.TagPatch{}) {
				return fmt.Errorf("nothing to change; use --name or --color")
			}

			next := tag
			patch.Apply(&next)
			if err := validation.New().Tag(next.Name, next.Color); err != nil {
				return err
			}
			s.UpdateTag(tag.ID, patch)
			fmt.Fprintf(cmd.OutOrStdout(), "Updated tag %s  %s  %s\n", tag.ID, next.Name, next.Color)
			return nil
		},
	}
	editCmd.Flags().StringVar(&newName, "name", "", "new name")
	editCmd.Flags().StringVar(&newColor, "color", "", "new hex color")

	rmCmd := &cobra.Command{
		Use:   "rm <tag>",
		Short: "Delete a tag and remove it from every task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.store()
			if err != nil {
				return err
			}
			tag, err := resolveTag(s, args[0])
			if err != nil {
				return err
			}
			s.DeleteTag(tag.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted tag %s  %s\n", tag.ID, tag.Name)
			return nil
		},
	}

	tagCmd.AddCommand(addCmd, listCmd, editCmd, rmCmd)
	return tagCmd
}
