// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"lever-cli/internal/config"
	"lever-cli/pkg/types"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `lever config` command tree.
func newConfigCommand(app *App, opts *globalOptions) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage lever configuration",
		Long: `Manage lever configuration.

Configuration is stored in:
  - Linux: ~/.config/lever/config.cue
  - macOS: ~/Library/Application Support/lever/config.cue
  - Windows: %APPDATA%\lever\config.cue

A config.cue in the working directory is used when the user file does not
exist. LEVER_* environment variables override both (LEVER_BUILD_FILE,
LEVER_UI_VERBOSE, ...).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := app.loadConfig(cmd.Context(), opts)
			if err != nil {
				return app.fail(cmd, types.ExitUsage, err, opts.verbose, nil)
			}
			app.showConfig(loaded)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir, err := config.ConfigDir()
			if err != nil {
				return app.fail(cmd, types.ExitUsage, err, opts.verbose, nil)
			}
			cfgFile, err := config.ConfigFile(cfgDir)
			if err != nil {
				return app.fail(cmd, types.ExitUsage, err, opts.verbose, nil)
			}
			fmt.Fprintf(app.stdout, "Config directory: %s\n", cfgDir)
			fmt.Fprintf(app.stdout, "Config file: %s\n", cfgFile)
			return nil
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateDefaultConfig("", force)
			if errors.Is(err, config.ErrConfigExists) {
				fmt.Fprintf(app.stdout, "%s %s already exists. Use --force to overwrite\n", WarningStyle.Render("!"), path)
				return nil
			}
			if err != nil {
				return app.fail(cmd, types.ExitUsage, err, opts.verbose, nil)
			}
			fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := app.loadConfig(cmd.Context(), opts)
			if err != nil {
				return app.fail(cmd, types.ExitUsage, err, opts.verbose, nil)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(loaded.Config))
			return nil
		},
	})

	return cfgCmd
}

func (a *App) showConfig(loaded *config.Loaded) {
	cfg := loaded.Config
	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	fmt.Fprintln(a.stdout, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(a.stdout)

	if loaded.Path != "" {
		fmt.Fprintf(a.stdout, "%s: %s\n", keyStyle.Render("Config file"), loaded.Path)
	} else {
		fmt.Fprintf(a.stdout, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(a.stdout)

	fmt.Fprintf(a.stdout, "%s: %s\n", keyStyle.Render("build_file"), valueStyle.Render(cfg.BuildFile))
	fmt.Fprintf(a.stdout, "%s: %s\n", keyStyle.Render("default_runtime"), valueStyle.Render(string(cfg.DefaultRuntime)))

	fmt.Fprintln(a.stdout)
	fmt.Fprintf(a.stdout, "%s:\n", keyStyle.Render("ui"))
	fmt.Fprintf(a.stdout, "  verbose: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.Verbose)))
	fmt.Fprintf(a.stdout, "  color_scheme: %s\n", valueStyle.Render(string(cfg.UI.ColorScheme)))
	fmt.Fprintf(a.stdout, "  timestamps: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.UI.Timestamps)))
}
