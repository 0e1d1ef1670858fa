// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"slices"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
)

type Id int

const (
	BuildScriptNotFoundId Id = iota + 1
	BuildScriptParseErrorId
	TaskNotFoundId
	MalformedArgumentsId
	TaskFailedId
	DependencyCycleId
	InvalidDependencyId
	ConfigLoadFailedId
	InvalidRuntimeModeId
	ShellNotFoundId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the page with the named glamour style ("dark", "light", "notty", ...).
func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also\n"
		for _, link := range i.docLinks {
			extraMd += "\n- <" + string(link) + ">"
		}
		for _, link := range i.extLinks {
			extraMd += "\n- <" + string(link) + ">"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	buildScriptNotFoundIssue = &Issue{
		id: BuildScriptNotFoundId,
		mdMsg: `
# No build script found!

lever looks for the build script in the current directory and then in every
parent directory, stopping at the root of the git repository.

## Things you can try:
- Create a build script in your project root:
~~~
$ lever init
~~~

- Or point lever at a file explicitly:
~~~
$ lever -f path/to/build.cue
~~~

## Example build script:
~~~cue
name:    "website"
default: "html"

tasks: [
  {name: "clean", description: "Remove build output", script: "rm -rf build"},
  {name: "html", depends_on: ["clean"], script: "make html"},
]
~~~`,
		docLinks: []HttpLink{"https://cuelang.org/docs/tour/"},
	}

	buildScriptParseErrorIssue = &Issue{
		id: BuildScriptParseErrorId,
		mdMsg: `
# Failed to load the build script!

The build script is not valid CUE, does not match the build schema, or one of
its task scripts is not valid shell.

## Things you can try:
- Check the line reported above
- Make sure every task has a ` + "`name`" + ` and a ` + "`script`" + `
- Check that ` + "`default`" + ` names a declared task
- Format the file to spot syntax errors:
~~~
$ cue fmt build.cue
~~~`,
		extLinks: []HttpLink{"https://cuelang.org/docs/reference/spec/"},
	}

	taskNotFoundIssue = &Issue{
		id: TaskNotFoundId,
		mdMsg: `
# Task not found!

The task you asked for is not declared in the build script.

## Things you can try:
- List the available tasks:
~~~
$ lever --list
~~~

- Private tasks (names starting with ` + "`_`" + `) are hidden from the list but can still be run:
~~~
$ lever list --all
~~~`,
	}

	malformedArgumentsIssue = &Issue{
		id: MalformedArgumentsId,
		mdMsg: `
# Malformed task arguments!

Arguments are passed in square brackets right after the task name:

~~~
$ lever 'deploy[prod, retries=3]'
~~~

## Rules:
- Positional values come first, keyword values (` + "`key=value`" + `) after them
- A keyword may appear only once per task
- Quote the whole token so the shell does not expand the brackets`,
	}

	taskFailedIssue = &Issue{
		id: TaskFailedId,
		mdMsg: `
# A task failed!

The run was aborted at the first failing task; the tasks after it did not run.

## Things you can try:
- Re-run with ` + "`--verbose`" + ` to see durations and stack traces
- Run the failing task on its own to reproduce the error
- Preview the run without executing anything:
~~~
$ lever --dry-run deploy
~~~`,
	}

	dependencyCycleIssue = &Issue{
		id: DependencyCycleId,
		mdMsg: `
# Dependency cycle detected!

Some tasks depend on each other in a loop, so no order can satisfy them all.

## Things you can try:
- Follow the cycle printed above and remove one of its ` + "`depends_on`" + ` edges
- Move the shared work into a separate task both can depend on`,
	}

	invalidDependencyIssue = &Issue{
		id: InvalidDependencyId,
		mdMsg: `
# Invalid task dependency!

A task lists a dependency that is not a declared task.

## Things you can try:
- Check the spelling of every entry in ` + "`depends_on`" + `
- Declare the missing task in the build script`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The lever configuration file could not be read or does not match the schema.

## Things you can try:
- Show where lever looks for its configuration:
~~~
$ lever config path
~~~

- Write a fresh default configuration:
~~~
$ lever config init
~~~`,
	}

	invalidRuntimeModeIssue = &Issue{
		id: InvalidRuntimeModeId,
		mdMsg: `
# Invalid runtime!

Task scripts run either in the built-in shell or in the host shell.

## Valid values:
- ` + "`virtual`" + `: the built-in POSIX shell interpreter (default)
- ` + "`native`" + `: the host ` + "`sh`" + ``,
	}

	shellNotFoundIssue = &Issue{
		id: ShellNotFoundId,
		mdMsg: `
# Shell not found!

The native runtime needs ` + "`sh`" + ` on your PATH.

## Things you can try:
- Install a POSIX shell
- Use the built-in shell instead:
~~~cue
default_runtime: "virtual"
~~~`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

You don't have permission to perform this operation.

## Things you can try:
- Check file and directory permissions
- Run lever from a directory you own`,
	}

	issues = map[Id]*Issue{
		buildScriptNotFoundIssue.Id():   buildScriptNotFoundIssue,
		buildScriptParseErrorIssue.Id(): buildScriptParseErrorIssue,
		taskNotFoundIssue.Id():          taskNotFoundIssue,
		malformedArgumentsIssue.Id():    malformedArgumentsIssue,
		taskFailedIssue.Id():            taskFailedIssue,
		dependencyCycleIssue.Id():       dependencyCycleIssue,
		invalidDependencyIssue.Id():     invalidDependencyIssue,
		configLoadFailedIssue.Id():      configLoadFailedIssue,
		invalidRuntimeModeIssue.Id():    invalidRuntimeModeIssue,
		shellNotFoundIssue.Id():         shellNotFoundIssue,
		permissionDeniedIssue.Id():      permissionDeniedIssue,
	}
)

// Values returns every issue ordered by id.
func Values() []*Issue {
	ids := maps.Keys(issues)
	slices.Sort(ids)
	out := make([]*Issue, len(ids))
	for i, id := range ids {
		out[i] = issues[id]
	}
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
