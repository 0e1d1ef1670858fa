// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"lever-cli/internal/config"
	"lever-cli/pkg/types"

	"github.com/spf13/cobra"
)

// starterBuildScript is written by lever init.
const starterBuildScript = `// lever build script
// Run 'lever list' to see the tasks and 'lever <task>' to run one.

default: "build"

tasks: [
	{
		name:        "clean"
		description: "Remove the build directory"
		script:      "rm -rf build"
	},
	{
		name:        "build"
		description: "Build the project into the build directory"
		depends_on: ["clean"]
		script: """
			mkdir -p build
			echo "building into build/"
			"""
	},
	{
		name:        "greet"
		description: "Print a greeting, as in: lever 'greet[world, punctuation=!]'"
		script:      "echo \"Hello, ${1:-there}${punctuation:-.}\""
	},
]
`

func newInitCommand(app *App) *cobra.Command {
	var force bool

	initCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Create a starter build script in the current directory",
		Long: `Create a starter build script with a few example tasks.

The file name defaults to build_file from the configuration (build.cue).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := config.DefaultBuildFile
			if len(args) > 0 {
				filename = args[0]
			}

			path, err := app.writeStarter(filename, force)
			if err != nil {
				return app.fail(cmd, types.ExitUsage, err, false, nil)
			}

			fmt.Fprintf(app.stdout, "%s Created %s\n\n", SuccessStyle.Render("✓"), path)
			fmt.Fprintln(app.stdout, SubtitleStyle.Render("Next steps:"))
			fmt.Fprintln(app.stdout, "  1. Edit the build script to declare your tasks")
			fmt.Fprintln(app.stdout, "  2. Run 'lever list' to see them")
			fmt.Fprintln(app.stdout, "  3. Run 'lever <task>' to run one")
			return nil
		},
	}

	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing build script")

	return initCmd
}

func (a *App) writeStarter(filename string, force bool) (string, error) {
	path := filename
	if !filepath.IsAbs(path) {
		wd, err := a.workingDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(wd, path)
	}

	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("file '%s' already exists. Use --force to overwrite", path)
	}

	if err := os.WriteFile(path, []byte(starterBuildScript), 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return path, nil
}
