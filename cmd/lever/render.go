// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"strings"

	"lever-cli/internal/config"
	"lever-cli/internal/issue"
	"lever-cli/internal/resolve"
	"lever-cli/pkg/types"

	"github.com/spf13/cobra"
)

// fail reports err on stderr and returns the ExitError that makes Execute exit
// with code. The help page linked to the error is added in verbose mode.
func (a *App) fail(cmd *cobra.Command, code types.ExitCode, err error, verbose bool, p *project) error {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	fmt.Fprintln(a.stderr, ErrorStyle.Render("Error:")+" "+formatErrorForDisplay(err, verbose))

	if verbose {
		scheme := config.ColorSchemeAuto
		if p != nil && p.cfg != nil {
			scheme = p.cfg.UI.ColorScheme
		}
		if page := issuePage(err, scheme); page != "" {
			fmt.Fprint(a.stderr, page)
		}
	}

	return &ExitError{Code: code}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verbose bool) string {
	if ae, ok := issue.AsActionable(err); ok {
		return ae.Format(verbose)
	}
	return err.Error()
}

// issuePage renders the help page linked to err, or returns "".
func issuePage(err error, scheme config.ColorScheme) string {
	ae, ok := issue.AsActionable(err)
	if !ok || ae.Issue() == nil {
		return ""
	}
	page, renderErr := ae.Issue().Render(glamourStyle(scheme))
	if renderErr != nil {
		return ""
	}
	return page
}

// glamourStyle maps a color scheme to a glamour standard style name.
func glamourStyle(scheme config.ColorScheme) string {
	switch scheme {
	case config.ColorSchemeDark:
		return "dark"
	case config.ColorSchemeLight:
		return "light"
	default:
		return "auto"
	}
}

// resolutionError attaches help to an error returned by resolve.Resolve.
func resolutionError(err error) error {
	var notFound *resolve.TaskNotFoundError
	if errors.As(err, &notFound) {
		ctx := issue.NewErrorContext().
			WithOperation("resolve tasks").
			WithIssue(issue.TaskNotFoundId).
			Wrap(err)
		if len(notFound.Available) > 0 {
			ctx.WithSuggestion("Task should be one of: " + strings.Join(notFound.Available, ", "))
		}
		return ctx.WithSuggestion("Run 'lever list --all' to see every task").BuildError()
	}

	return issue.NewErrorContext().
		WithOperation("resolve tasks").
		WithIssue(issue.MalformedArgumentsId).
		WithSuggestion("Write arguments as task[positional, key=value], positional values first").
		Wrap(err).
		BuildError()
}
