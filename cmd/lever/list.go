// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"lever-cli/pkg/task"
	"lever-cli/pkg/types"

	"github.com/charmbracelet/lipgloss"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
	formatTOML = "toml"
)

// ErrUnknownFormat is returned for an unsupported --format value.
var ErrUnknownFormat = errors.New("unknown output format")

type (
	// taskEntry is one task in a machine-readable listing.
	taskEntry struct {
		Name        string   `json:"name" yaml:"name" toml:"name"`
		Description string   `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
		DependsOn   []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty" toml:"depends_on,omitempty"`
		Private     bool     `json:"private,omitempty" yaml:"private,omitempty" toml:"private,omitempty"`
		Ignored     bool     `json:"ignored,omitempty" yaml:"ignored,omitempty" toml:"ignored,omitempty"`
		Default     bool     `json:"default,omitempty" yaml:"default,omitempty" toml:"default,omitempty"`
	}

	// taskListing is the document written by lever list.
	taskListing struct {
		Build string      `json:"build" yaml:"build" toml:"build"`
		Path  string      `json:"path" yaml:"path" toml:"path"`
		Tasks []taskEntry `json:"tasks" yaml:"tasks" toml:"tasks"`
	}
)

func newListCommand(app *App, opts *globalOptions) *cobra.Command {
	var (
		format string
		all    bool
	)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the tasks of the build script",
		Long: `List the tasks of the build script, sorted by name.

Private tasks are hidden unless --all is given. The json, yaml and toml
formats include dependencies and flags for use by other tools.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.openProject(cmd.Context(), opts)
			if err != nil {
				return app.fail(cmd, types.ExitUsage, err, opts.verbose, p)
			}
			if err := writeListing(app.stdout, newTaskListing(p, all), format); err != nil {
				return app.fail(cmd, types.ExitUsage, err, p.verbose, p)
			}
			return nil
		},
	}

	listCmd.Flags().StringVarP(&format, "format", "o", formatText, "output format (text, json, yaml, toml)")
	listCmd.Flags().BoolVarP(&all, "all", "a", false, "include private tasks")

	return listCmd
}

// printTaskList writes the text listing of the visible tasks.
func (a *App) printTaskList(p *project, all bool) error {
	return writeListing(a.stdout, newTaskListing(p, all), formatText)
}

func newTaskListing(p *project, all bool) taskListing {
	reg := p.registry

	tasks := reg.Visible()
	if all {
		tasks = reg.Tasks()
		slices.SortFunc(tasks, func(a, b *task.Task) int {
			return cmp.Compare(a.Name(), b.Name())
		})
	}

	listing := taskListing{
		Build: reg.Name(),
		Path:  p.scriptPath,
		Tasks: make([]taskEntry, len(tasks)),
	}
	for i, t := range tasks {
		listing.Tasks[i] = newTaskEntry(t, reg.Default())
	}
	return listing
}

func newTaskEntry(t, defaultTask *task.Task) taskEntry {
	deps := t.Dependencies()
	names := make([]string, len(deps))
	for i, dep := range deps {
		names[i] = dep.Name()
	}

	return taskEntry{
		Name:        t.Name(),
		Description: t.Doc(),
		DependsOn:   names,
		Private:     t.IsPrivate(),
		Ignored:     t.IsIgnored(),
		Default:     t == defaultTask,
	}
}

func writeListing(w io.Writer, listing taskListing, format string) error {
	switch format {
	case formatText:
		writeTextListing(w, listing)
		return nil
	case formatJSON:
		data, err := json.MarshalIndent(listing, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode listing: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case formatYAML:
		data, err := yaml.Marshal(listing)
		if err != nil {
			return fmt.Errorf("failed to encode listing: %w", err)
		}
		_, err = w.Write(data)
		return err
	case formatTOML:
		data, err := toml.Marshal(listing)
		if err != nil {
			return fmt.Errorf("failed to encode listing: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("%w %q (want %s, %s, %s or %s)", ErrUnknownFormat, format, formatText, formatJSON, formatYAML, formatTOML)
	}
}

// writeTextListing prints one task per line: the name, then the first line of
// its documentation and its flags.
func writeTextListing(w io.Writer, listing taskListing) {
	if len(listing.Tasks) == 0 {
		fmt.Fprintln(w, SubtitleStyle.Render("No tasks declared in "+listing.Build+"."))
		return
	}

	fmt.Fprintln(w, TitleStyle.Render("Tasks in "+listing.Build+":"))

	width := 0
	for _, t := range listing.Tasks {
		width = max(width, lipgloss.Width(t.Name))
	}
	nameStyle := taskNameStyle.Width(width + taskNameStyle.GetPaddingRight())

	for _, t := range listing.Tasks {
		line := "  " + nameStyle.Render(t.Name)
		if doc := firstLine(t.Description); doc != "" {
			line += doc
		}
		if flags := entryFlags(t); flags != "" {
			line += " " + flagStyle.Render("("+flags+")")
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

func entryFlags(t taskEntry) string {
	var flags []string
	if t.Default {
		flags = append(flags, "default")
	}
	if t.Private {
		flags = append(flags, "private")
	}
	if t.Ignored {
		flags = append(flags, "ignored")
	}
	return strings.Join(flags, ", ")
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}
