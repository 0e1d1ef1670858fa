// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"lever-cli/internal/buildscript"
	"lever-cli/internal/config"
	"lever-cli/internal/testutil"
	"lever-cli/pkg/types"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const webBuild = `
name: "web"
default: "html"
tasks: [
	{
		name: "clean"
		description: "Remove build output"
		script: "echo clean"
	},
	{
		name: "html"
		description: """
			Generate HTML

			Writes every page.
			"""
		depends_on: ["clean"]
		script: "echo html"
	},
	{
		name: "deploy"
		depends_on: ["html", "check"]
		script: "echo deploy $1 $region"
	},
	{
		name: "check"
		ignore: true
		script: "exit 9"
	},
	{
		name: "_setup"
		script: "echo setup"
	},
	{
		name: "broken"
		depends_on: ["clean"]
		script: "exit 3"
	},
]
`

type (
	stubConfig struct {
		cfg  *config.Config
		path string
		err  error
	}

	result struct {
		stdout string
		stderr string
		err    error
	}
)

func (s stubConfig) Load(context.Context, config.LoadOptions) (*config.Loaded, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &config.Loaded{Config: s.cfg, Path: s.path}, nil
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.UI.Timestamps = false
	return cfg
}

// newProjectDir returns a directory holding a repository marker and, when
// content is not empty, a build.cue.
func newProjectDir(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	testutil.MustMkdirAll(t, filepath.Join(dir, ".git"))
	if content != "" {
		testutil.MustWriteFile(t, filepath.Join(dir, config.DefaultBuildFile), content)
	}
	return dir
}

func runLever(t *testing.T, dir string, args ...string) result {
	t.Helper()

	var stdout, stderr bytes.Buffer
	app := NewApp(Dependencies{
		Config:  stubConfig{cfg: testConfig()},
		Stdin:   strings.NewReader(""),
		Stdout:  &stdout,
		Stderr:  &stderr,
		WorkDir: dir,
	})

	root := NewRootCommand(app)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())

	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func exitCode(err error) types.ExitCode {
	if err == nil {
		return types.ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}

func TestRoot_RunsTasks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"dependencies first", []string{"html"}, "clean\nhtml\n"},
		{"shared dependency once", []string{"html", "deploy"}, "clean\nhtml\ndeploy\n"},
		{"explicit rerun", []string{"clean", "html", "clean"}, "clean\nhtml\nclean\n"},
		{"default task", nil, "clean\nhtml\n"},
		{"arguments", []string{"deploy[prod, region=eu]"}, "clean\nhtml\ndeploy prod eu\n"},
		{"private task", []string{"_setup"}, "setup\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := runLever(t, newProjectDir(t, webBuild), tt.args...)
			if res.err != nil {
				t.Fatalf("lever %v error = %v\nstderr:\n%s", tt.args, res.err, res.stderr)
			}
			if res.stdout != tt.want {
				t.Errorf("stdout = %q, want %q", res.stdout, tt.want)
			}
		})
	}
}

func TestRoot_LogsLifecycle(t *testing.T) {
	t.Parallel()

	res := runLever(t, newProjectDir(t, webBuild), "deploy")
	if res.err != nil {
		t.Fatalf("error = %v", res.err)
	}
	for _, want := range []string{"Starting task", "task=clean", "Skipping task", "task=check", "Completed task", "web"} {
		if !strings.Contains(res.stderr, want) {
			t.Errorf("stderr missing %q:\n%s", want, res.stderr)
		}
	}
}

func TestRoot_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		content    string
		args       []string
		wantCode   types.ExitCode
		wantStderr []string
		notStderr  []string
		noStdout   bool
	}{
		{
			name:       "task failure",
			content:    webBuild,
			args:       []string{"broken", "html"},
			wantCode:   types.ExitTaskFailed,
			wantStderr: []string{"Error in task", "task=broken", "Aborting run"},
		},
		{
			name:       "unknown task",
			content:    webBuild,
			args:       []string{"nope"},
			wantCode:   types.ExitUsage,
			wantStderr: []string{"unrecognized task `nope`", "Task should be one of: broken, check, clean, deploy, html"},
		},
		{
			name:       "unknown task after a known one",
			content:    webBuild,
			args:       []string{"clean", "nope"},
			wantCode:   types.ExitUsage,
			wantStderr: []string{"unrecognized task `nope`"},
			notStderr:  []string{"Starting task"},
			noStdout:   true,
		},
		{
			name:       "keyword argument is not a variable name",
			content:    webBuild,
			args:       []string{"deploy[dry-run=1]"},
			wantCode:   types.ExitTaskFailed,
			wantStderr: []string{"not a valid variable name", "task=deploy"},
		},
		{
			name:       "malformed token",
			content:    webBuild,
			args:       []string{"html[oops"},
			wantCode:   types.ExitUsage,
			wantStderr: []string{"malformed task argument in `html[oops`"},
		},
		{
			name:       "malformed argument list",
			content:    webBuild,
			args:       []string{"deploy[region=eu, prod]"},
			wantCode:   types.ExitUsage,
			wantStderr: []string{"deploy"},
		},
		{
			name:       "missing build script",
			args:       []string{"html"},
			wantCode:   types.ExitUsage,
			wantStderr: []string{"Run 'lever init'"},
		},
		{
			name:       "invalid build script",
			content:    `tasks: [{name: "a"}]`,
			wantCode:   types.ExitUsage,
			wantStderr: []string{"failed to load build script"},
		},
		{
			name:       "invalid field value",
			content:    `tasks: [{name: "a", script: ""}]`,
			wantCode:   types.ExitUsage,
			wantStderr: []string{"tasks[0].script: invalid value"},
			notStderr:  []string{"#Build", "tasks.0.script"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := runLever(t, newProjectDir(t, tt.content), tt.args...)
			if got := exitCode(res.err); got != tt.wantCode {
				t.Fatalf("exit code = %d, want %d (err = %v)", got, tt.wantCode, res.err)
			}
			for _, want := range tt.wantStderr {
				if !strings.Contains(res.stderr, want) {
					t.Errorf("stderr missing %q:\n%s", want, res.stderr)
				}
			}
			for _, unwanted := range tt.notStderr {
				if strings.Contains(res.stderr, unwanted) {
					t.Errorf("stderr contains %q:\n%s", unwanted, res.stderr)
				}
			}
			if tt.noStdout && res.stdout != "" {
				t.Errorf("stdout = %q, want nothing", res.stdout)
			}
		})
	}
}

func TestRoot_InvalidBuildScriptNamesFileOnce(t *testing.T) {
	t.Parallel()

	dir := newProjectDir(t, `tasks: [{name: "a", script: ""}]`)
	res := runLever(t, dir, "a")
	path := filepath.Join(dir, "build.cue")
	if n := strings.Count(res.stderr, path); n != 1 {
		t.Errorf("stderr names %s %d times, want once:\n%s", path, n, res.stderr)
	}
}

func TestRoot_FailureStopsRun(t *testing.T) {
	t.Parallel()

	res := runLever(t, newProjectDir(t, webBuild), "broken", "html")
	if res.stdout != "clean\n" {
		t.Errorf("stdout = %q, want only the dependency of the failed task", res.stdout)
	}
}

func TestRoot_NoDefaultListsTasks(t *testing.T) {
	t.Parallel()

	content := strings.Replace(webBuild, `default: "html"`, "", 1)
	res := runLever(t, newProjectDir(t, content))
	if res.err != nil {
		t.Fatalf("error = %v", res.err)
	}
	if !strings.Contains(res.stdout, "Tasks in web:") {
		t.Errorf("stdout = %q, want a task listing", res.stdout)
	}
	if strings.Contains(res.stdout, "_setup") {
		t.Error("listing shows a private task")
	}
}

func TestRoot_DryRun(t *testing.T) {
	t.Parallel()

	res := runLever(t, newProjectDir(t, webBuild), "-n", "deploy[prod]")
	if res.err != nil {
		t.Fatalf("error = %v", res.err)
	}

	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	want := [][2]string{{"run", "clean"}, {"run", "html"}, {"skip", "check"}, {"run", "deploy[prod]"}}
	if len(lines) != len(want) {
		t.Fatalf("plan = %q, want %d steps", res.stdout, len(want))
	}
	for i, line := range lines {
		fields := strings.Fields(line)
		if len(fields) != 2 || fields[0] != want[i][0] || fields[1] != want[i][1] {
			t.Errorf("step %d = %q, want %v", i, line, want[i])
		}
	}
}

func TestRoot_FileFlag(t *testing.T) {
	t.Parallel()

	dir := newProjectDir(t, "")
	testutil.MustWriteFile(t, filepath.Join(dir, "ci", "pipeline.cue"), `tasks: [{name: "ci", script: "echo ci"}]`)

	res := runLever(t, dir, "--file", filepath.Join("ci", "pipeline.cue"), "ci")
	if res.err != nil {
		t.Fatalf("error = %v\n%s", res.err, res.stderr)
	}
	if res.stdout != "ci\n" {
		t.Errorf("stdout = %q, want %q", res.stdout, "ci\n")
	}
}

func TestRoot_FindsScriptInParent(t *testing.T) {
	t.Parallel()

	dir := newProjectDir(t, webBuild)
	nested := filepath.Join(dir, "src", "pages")
	testutil.MustMkdirAll(t, nested)

	res := runLever(t, nested, "clean")
	if res.err != nil {
		t.Fatalf("error = %v", res.err)
	}
	if res.stdout != "clean\n" {
		t.Errorf("stdout = %q", res.stdout)
	}
}

func TestList(t *testing.T) {
	t.Parallel()

	t.Run("text", func(t *testing.T) {
		t.Parallel()

		res := runLever(t, newProjectDir(t, webBuild), "list")
		if res.err != nil {
			t.Fatalf("error = %v", res.err)
		}
		for _, want := range []string{"clean", "Remove build output", "Generate HTML", "(default)", "(ignored)"} {
			if !strings.Contains(res.stdout, want) {
				t.Errorf("listing missing %q:\n%s", want, res.stdout)
			}
		}
		if strings.Contains(res.stdout, "Writes every page") {
			t.Error("listing shows more than the first documentation line")
		}
		if strings.Contains(res.stdout, "_setup") {
			t.Error("listing shows a private task without --all")
		}
	})

	t.Run("json all", func(t *testing.T) {
		t.Parallel()

		res := runLever(t, newProjectDir(t, webBuild), "list", "--format", "json", "--all")
		if res.err != nil {
			t.Fatalf("error = %v", res.err)
		}
		var listing taskListing
		if err := json.Unmarshal([]byte(res.stdout), &listing); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, res.stdout)
		}
		if listing.Build != "web" || len(listing.Tasks) != 6 {
			t.Fatalf("listing = %+v", listing)
		}
		if listing.Tasks[0].Name != "_setup" || !listing.Tasks[0].Private {
			t.Errorf("first task = %+v, want private _setup", listing.Tasks[0])
		}
		deploy := listing.Tasks[4]
		if deploy.Name != "deploy" || strings.Join(deploy.DependsOn, ",") != "html,check" {
			t.Errorf("deploy = %+v", deploy)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()

		res := runLever(t, newProjectDir(t, webBuild), "list", "-o", "yaml")
		if res.err != nil {
			t.Fatalf("error = %v", res.err)
		}
		var listing taskListing
		if err := yaml.Unmarshal([]byte(res.stdout), &listing); err != nil {
			t.Fatalf("invalid YAML: %v\n%s", err, res.stdout)
		}
		if len(listing.Tasks) != 5 {
			t.Errorf("got %d tasks, want 5 visible", len(listing.Tasks))
		}
	})

	t.Run("toml", func(t *testing.T) {
		t.Parallel()

		res := runLever(t, newProjectDir(t, webBuild), "list", "-o", "toml")
		if res.err != nil {
			t.Fatalf("error = %v", res.err)
		}
		var listing taskListing
		if err := toml.Unmarshal([]byte(res.stdout), &listing); err != nil {
			t.Fatalf("invalid TOML: %v\n%s", err, res.stdout)
		}
		if len(listing.Tasks) != 5 || listing.Tasks[3].Name != "deploy" {
			t.Errorf("tasks = %+v", listing.Tasks)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		t.Parallel()

		res := runLever(t, newProjectDir(t, webBuild), "list", "-o", "xml")
		if exitCode(res.err) != types.ExitUsage {
			t.Errorf("exit code = %d, want %d", exitCode(res.err), types.ExitUsage)
		}
	})
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	res := runLever(t, newProjectDir(t, webBuild), "describe", "html", "--raw")
	if res.err != nil {
		t.Fatalf("error = %v", res.err)
	}
	for _, want := range []string{"# html", "Generate HTML", "**Default:** yes", "`clean`"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("description missing %q:\n%s", want, res.stdout)
		}
	}

	res = runLever(t, newProjectDir(t, webBuild), "describe", "deploy")
	if res.err != nil {
		t.Fatalf("error = %v", res.err)
	}
	if !strings.Contains(res.stdout, "deploy") || !strings.Contains(res.stdout, "check") {
		t.Errorf("rendered description = %q", res.stdout)
	}

	res = runLever(t, newProjectDir(t, webBuild), "describe", "nope")
	if exitCode(res.err) != types.ExitUsage {
		t.Errorf("exit code = %d, want %d", exitCode(res.err), types.ExitUsage)
	}
}

func TestInit(t *testing.T) {
	t.Parallel()

	dir := newProjectDir(t, "")
	res := runLever(t, dir, "init")
	if res.err != nil {
		t.Fatalf("error = %v", res.err)
	}
	path := filepath.Join(dir, config.DefaultBuildFile)
	if got := testutil.MustReadFile(t, path); got != starterBuildScript {
		t.Errorf("written file differs from the starter script")
	}

	if _, err := buildscript.Load(context.Background(), path, buildscript.LoadOptions{}); err != nil {
		t.Fatalf("starter script does not load: %v", err)
	}

	res = runLever(t, dir, "greet[world, punctuation=!]")
	if res.err != nil {
		t.Fatalf("greet error = %v\n%s", res.err, res.stderr)
	}
	if res.stdout != "Hello, world!\n" {
		t.Errorf("greet stdout = %q", res.stdout)
	}

	res = runLever(t, dir, "init")
	if exitCode(res.err) != types.ExitUsage || !strings.Contains(res.stderr, "--force") {
		t.Errorf("second init: code %d, stderr %q", exitCode(res.err), res.stderr)
	}
	if res = runLever(t, dir, "init", "--force"); res.err != nil {
		t.Errorf("init --force error = %v", res.err)
	}
}

func TestConfigShowAndDump(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	cfg := testConfig()
	cfg.BuildFile = "tasks.cue"
	app := NewApp(Dependencies{
		Config: stubConfig{cfg: cfg, path: "/etc/lever/config.cue"},
		Stdout: &stdout,
		Stderr: &stderr,
	})

	root := NewRootCommand(app)
	root.SetArgs([]string{"config", "show"})
	if err := root.Execute(); err != nil {
		t.Fatalf("config show error = %v", err)
	}
	for _, want := range []string{"/etc/lever/config.cue", "tasks.cue", "virtual", "timestamps: false"} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("config show missing %q:\n%s", want, stdout.String())
		}
	}

	stdout.Reset()
	root = NewRootCommand(app)
	root.SetArgs([]string{"config", "dump"})
	if err := root.Execute(); err != nil {
		t.Fatalf("config dump error = %v", err)
	}
	if stdout.String() != config.GenerateCUE(cfg) {
		t.Errorf("config dump = %q", stdout.String())
	}
}

func TestConfigLoadError(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	app := NewApp(Dependencies{
		Config: stubConfig{err: errors.New("broken config")},
		Stdout: &stdout,
		Stderr: &stderr,
	})

	root := NewRootCommand(app)
	root.SetArgs([]string{"html"})
	err := root.Execute()
	if exitCode(err) != types.ExitUsage {
		t.Fatalf("exit code = %d, want %d", exitCode(err), types.ExitUsage)
	}
	if !strings.Contains(stderr.String(), "broken config") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestExitError(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	withCause := &ExitError{Code: types.ExitTaskFailed, Err: cause}
	if withCause.Error() != "boom" || !errors.Is(withCause, cause) {
		t.Errorf("ExitError with cause = %q", withCause.Error())
	}
	if got := (&ExitError{Code: types.ExitUsage}).Error(); got != "exit status 2" {
		t.Errorf("Error() = %q, want %q", got, "exit status 2")
	}
}
