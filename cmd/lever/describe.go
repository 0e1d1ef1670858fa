// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"lever-cli/internal/config"
	"lever-cli/internal/resolve"
	"lever-cli/pkg/task"
	"lever-cli/pkg/types"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

// describeWordWrap is the column at which rendered descriptions wrap.
const describeWordWrap = 80

func newDescribeCommand(app *App, opts *globalOptions) *cobra.Command {
	var raw bool

	describeCmd := &cobra.Command{
		Use:   "describe <task>",
		Short: "Show the documentation and dependencies of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.openProject(cmd.Context(), opts)
			if err != nil {
				return app.fail(cmd, types.ExitUsage, err, opts.verbose, p)
			}

			t, ok := p.registry.Lookup(args[0])
			if !ok {
				notFound := &resolve.TaskNotFoundError{Name: args[0], Available: visibleNames(p.registry)}
				return app.fail(cmd, types.ExitUsage, resolutionError(notFound), p.verbose, p)
			}

			md := describeMarkdown(t, p.registry.Default())
			if raw {
				fmt.Fprint(app.stdout, md)
				return nil
			}

			out, err := renderMarkdown(md, p.cfg.UI.ColorScheme)
			if err != nil {
				return app.fail(cmd, types.ExitUsage, err, p.verbose, p)
			}
			fmt.Fprint(app.stdout, out)
			return nil
		},
	}

	describeCmd.Flags().BoolVar(&raw, "raw", false, "print the markdown source instead of rendering it")

	return describeCmd
}

// describeMarkdown documents t as a markdown page.
func describeMarkdown(t, defaultTask *task.Task) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", t.Name())
	if doc := strings.TrimSpace(t.Doc()); doc != "" {
		sb.WriteString(doc)
		sb.WriteString("\n\n")
	}

	fmt.Fprintf(&sb, "- **Default:** %s\n", yesNo(t == defaultTask))
	fmt.Fprintf(&sb, "- **Private:** %s\n", yesNo(t.IsPrivate()))
	fmt.Fprintf(&sb, "- **Ignored:** %s\n", yesNo(t.IsIgnored()))

	deps := t.Dependencies()
	if len(deps) == 0 {
		sb.WriteString("- **Depends on:** nothing\n")
		return sb.String()
	}
	sb.WriteString("- **Depends on:**\n")
	for _, dep := range deps {
		fmt.Fprintf(&sb, "  - `%s`\n", dep.Name())
	}
	return sb.String()
}

func renderMarkdown(md string, scheme config.ColorScheme) (string, error) {
	style := glamour.WithAutoStyle()
	if name := glamourStyle(scheme); name != "auto" {
		style = glamour.WithStandardStyle(name)
	}

	renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(describeWordWrap))
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return renderer.Render(md)
}

func visibleNames(reg *task.Registry) []string {
	visible := reg.Visible()
	names := make([]string, len(visible))
	for i, t := range visible {
		names[i] = t.Name()
	}
	return names
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
