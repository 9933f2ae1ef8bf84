package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tgienger/tdl/internal/models"
	"github.com/tgienger/tdl/internal/quickadd"
	"github.com/tgienger/tdl/internal/store"
	"github.com/tgienger/tdl/internal/validation"
)

// newAddCommand creates the add command
func newAddCommand(a *app) *cobra.Command {
	var (
		tags []string
		at   string
		each bool
	)

	cmd := &cobra.Command{
		Use:   "add <words>... | -",
		Short: "Add a task (--each for one per argument, - for one per stdin line)",
		Long: `Add a task. The arguments form one line, so tdl add Buy milk adds "Buy milk".
With --each every argument is its own task, and "-" reads one task per line of stdin.

Each line may contain a date, "2024/12/03 10:00" or "12/3", which is removed
from the title and becomes the scheduled time. With --at the arguments form a
single title and no date parsing happens.`,
		Example: `  tdl add Buy milk 12/3
  tdl add --each "Buy milk" "Call mom 2024/12/03 10:00"
  tdl add --tag work --at "2024-12-03 10:00" Quarterly review
  pbpaste | tdl add -`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.store()
			if err != nil {
				return err
			}
			tagIDs, err := resolveTags(s, tags)
			if err != nil {
				return err
			}

			if at != "" {
				title := strings.Join(args, " ")
				if err := validation.New().Task(title); err != nil {
					return err
				}
				when, err := quickadd.ParseSchedule(at)
				if err != nil {
					return err
				}
				task := s.AddTask(title, tagIDs, models.ScheduledAtPtr(when))
				printAdded(cmd.OutOrStdout(), []models.Task{task})
				return nil
			}

			content := strings.Join(args, " ")
			if each {
				content = strings.Join(args, "\n")
			}
			if len(args) == 1 && args[0] == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				content = string(data)
			}

			added := s.AddTasksFromText(content, tagIDs)
			if len(added) == 0 {
				return validation.New().Task("")
			}
			printAdded(cmd.OutOrStdout(), added)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&tags, "tag", "t", nil, "tag name or ID (repeatable)")
	cmd.Flags().StringVar(&at, "at", "", `scheduled time, e.g. "2024-12-03 10:00"`)
	cmd.Flags().BoolVarP(&each, "each", "e", false, "add each argument as a separate task")
	cmd.MarkFlagsMutuallyExclusive("each", "at")
	return cmd
}

func printAdded(w io.Writer, tasks []models.Task) {
	for _, t := range tasks {
		if t.ScheduledAt != nil {
			fmt.Fprintf(w, "Added %s  %s  (scheduled %s)\n", t.ID, t.Title, t.ScheduledAt.Format("Mon 2 Jan 2006 15:04"))
		} else {
			fmt.Fprintf(w, "Added %s  %s\n", t.ID, t.Title)
		}
	}
}

func newListCommand(a *app) *cobra.Command {
	var (
		tag       string
		completed bool
		search    string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Long:    "List tasks in display order: open tasks first, scheduled ones by date, the rest most recently updated first.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if tag != "" && completed {
				return fmt.Errorf("--tag and --completed are mutually exclusive")
			}
			s, err := a.store()
			if err != nil {
				return err
			}

			var selected *string
			switch {
			case completed:
				selected = models.Ptr(models.CompletedFilter)
			case tag != "":
				t, err := resolveTag(s, tag)
				if err != nil {
					return err
				}
				selected = &t.ID
			}

			st := s.State()
			tasks := store.Filter(st.Tasks, st.Tags, selected, search)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(tasks)
			}
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTasks(tasks, st.Tags, time.Now()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&tag, "tag", "t", "", "only tasks with this tag")
	cmd.Flags().BoolVarP(&completed, "completed", "c", false, "only completed tasks")
	cmd.Flags().StringVarP(&search, "search", "s", "", "match title or tag name")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func renderTasks(tasks []models.Task, tags []models.Tag, now time.Time) string {
	rows := make([][]string, len(tasks))
	for i, t := range tasks {
		done := " "
		if t.Completed {
			done = "x"
		}
		scheduled := ""
		if t.ScheduledAt != nil {
			scheduled = t.ScheduledAt.Format("2006-01-02 15:04")
		}
		rows[i] = []string{
			t.ID,
			"[" + done + "]",
			t.Title,
			scheduled,
			strings.Join(tagNames(tags, t.Tags), ", "),
			humanize.RelTime(t.LastUpdatedAt.Time, now, "ago", "from now"),
		}
	}

	return table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		Headers("ID", "", "TITLE", "SCHEDULED", "TAGS", "UPDATED").
		Rows(rows...).
		String()
}

func newDoneCommand(a *app) *cobra.Command {
	var undo bool

	cmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.store()
			if err != nil {
				return err
			}
			t, err := resolveTask(s, args[0])
			if err != nil {
				return err
			}
			if t.Completed == !undo {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already %s\n", t.ID, doneWord(t.Completed))
				return nil
			}
			s.ToggleTask(t.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", t.ID, doneWord(!undo))
			return nil
		},
	}

	cmd.Flags().BoolVar(&undo, "undo", false, "mark the task open again")
	return cmd
}

func doneWord(completed bool) string {
	if completed {
		return "completed"
	}
	return "reopened"
}

func newEditCommand(a *app) *cobra.Command {
	var (
		title   string
		at      string
		clearAt bool
		tags    []string
		noTags  bool
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.store()
			if err != nil {
				return err
			}
			t, err := resolveTask(s, args[0])
			if err != nil {
				return err
			}

			var patch models.TaskPatch
			flags := cmd.Flags()
			if flags.Changed("title") {
				if err := validation.New().Task(title); err != nil {
					return err
				}
				patch.Title = &title
			}
			switch {
			case clearAt:
				patch.ClearSchedule = true
			case at != "":
				when, err := quickadd.ParseSchedule(at)
				if err != nil {
					return err
				}
				patch.ScheduledAt = models.ScheduledAtPtr(when)
			}
			switch {
			case noTags:
				patch.Tags = &[]string{}
			case flags.Changed("tag"):
				ids, err := resolveTags(s, tags)
				if err != nil {
					return err
				}
				patch.Tags = &ids
			}

			if patch == (models.TaskPatch{}) {
				return fmt.Errorf("nothing to change; use --title, --at, --clear-at, --tag or --no-tags")
			}
			s.UpdateTask(t.ID, patch)
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", t.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&at, "at", "", "new scheduled time")
	cmd.Flags().BoolVar(&clearAt, "clear-at", false, "remove the scheduled time")
	cmd.Flags().StringArrayVarP(&tags, "tag", "t", nil, "replace tags (repeatable)")
	cmd.Flags().BoolVar(&noTags, "no-tags", false, "remove all tags")
	cmd.MarkFlagsMutuallyExclusive("at", "clear-at")
	cmd.MarkFlagsMutuallyExclusive("tag", "no-tags")
	return cmd
}

func newRemoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"delete"},
		Short:   "Delete tasks",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.store()
			if err != nil {
				return err
			}
			for _, ref := range args {
				t, err := resolveTask(s, ref)
				if err != nil {
					return err
				}
				s.DeleteTask(t.ID)
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s  %s\n", t.ID, t.Title)
			}
			return nil
		},
	}
}
