// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"context"
	"errors"
	"slices"
	"testing"

	"lever-cli/pkg/arglist"
	"lever-cli/pkg/task"
)

func body(context.Context, arglist.Arguments) error { return nil }

func testRegistry(t *testing.T) *task.Registry {
	t.Helper()

	clean := task.MustNew("clean", body)
	html := task.MustNew("html", body, task.DependsOn(clean))
	deploy := task.MustNew("deploy", body, task.DependsOn(html))
	helper := task.MustNew("_helper", body)

	reg, err := task.NewRegistry("build.cue", []*task.Task{clean, html, deploy, helper}, nil)
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}
	return reg
}

func TestResolve(t *testing.T) {
	t.Parallel()

	reg := testRegistry(t)
	invs, err := Resolve(reg, []string{"deploy[prod, region = eu]", "clean", "_helper[]", "html"})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	var names []string
	for _, inv := range invs {
		names = append(names, inv.Task.Name())
	}
	if !slices.Equal(names, []string{"deploy", "clean", "_helper", "html"}) {
		t.Errorf("names = %v, want user order", names)
	}

	deployArgs := invs[0].Args
	if !slices.Equal(deployArgs.Positional, []string{"prod"}) || deployArgs.Keyword["region"] != "eu" {
		t.Errorf("deploy args = %+v", deployArgs)
	}
	if invs[1].Args.Len() != 0 || invs[2].Args.Len() != 0 {
		t.Errorf("tasks without arguments got %+v and %+v", invs[1].Args, invs[2].Args)
	}
}

func TestResolve_Empty(t *testing.T) {
	t.Parallel()

	invs, err := Resolve(testRegistry(t), nil)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if len(invs) != 0 {
		t.Errorf("Resolve(nil) = %v, want none", invs)
	}
}

func TestResolve_Malformed(t *testing.T) {
	t.Parallel()

	reg := testRegistry(t)
	for _, token := range []string{"foo[bar", "clean]", "two words", "a,b", "[x]", "clean[a]b", ""} {
		_, err := Resolve(reg, []string{"clean", token})
		var malformed *MalformedTaskArgumentError
		if !errors.As(err, &malformed) {
			t.Errorf("Resolve(%q) error = %v, want *MalformedTaskArgumentError", token, err)
			continue
		}
		if malformed.Token != token {
			t.Errorf("Resolve(%q) reported token %q", token, malformed.Token)
		}
	}

	_, err := Resolve(reg, []string{"foo[bar"})
	if err == nil || err.Error() != "malformed task argument in `foo[bar`" {
		t.Errorf("error message = %v", err)
	}
}

func TestResolve_NotFound(t *testing.T) {
	t.Parallel()

	_, err := Resolve(testRegistry(t), []string{"clean", "Deploy"})
	var notFound *TaskNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v, want *TaskNotFoundError", err)
	}
	if notFound.Name != "Deploy" {
		t.Errorf("Name = %q", notFound.Name)
	}
	if !slices.Equal(notFound.Available, []string{"clean", "deploy", "html"}) {
		t.Errorf("Available = %v, want visible tasks sorted", notFound.Available)
	}
	if !errors.Is(err, ErrTaskNotFound) {
		t.Error("error does not wrap ErrTaskNotFound")
	}

	// No prefix matching.
	if _, err := Resolve(testRegistry(t), []string{"dep"}); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("prefix lookup: error = %v", err)
	}
}

func TestResolve_ArgumentErrorsNameTheTask(t *testing.T) {
	t.Parallel()

	reg := testRegistry(t)

	_, err := Resolve(reg, []string{"deploy[k=1, x]"})
	var orderErr *arglist.InvalidArgumentOrderError
	if !errors.As(err, &orderErr) {
		t.Fatalf("error = %v, want *arglist.InvalidArgumentOrderError", err)
	}
	if orderErr.Task != "deploy" || orderErr.Argument != "x" {
		t.Errorf("got %+v", orderErr)
	}

	_, err = Resolve(reg, []string{"html[k=1,k=2]"})
	var dupErr *arglist.DuplicateKeywordArgumentError
	if !errors.As(err, &dupErr) {
		t.Fatalf("error = %v, want *arglist.DuplicateKeywordArgumentError", err)
	}
	if dupErr.Task != "html" || dupErr.Key != "k" {
		t.Errorf("got %+v", dupErr)
	}
}

func TestSplitToken(t *testing.T) {
	t.Parallel()

	name, args, err := SplitToken("deploy[a, b=c]")
	if err != nil || name != "deploy" || args != "a, b=c" {
		t.Errorf("SplitToken() = %q, %q, %v", name, args, err)
	}
	name, args, err = SplitToken("deploy")
	if err != nil || name != "deploy" || args != "" {
		t.Errorf("SplitToken() = %q, %q, %v", name, args, err)
	}
}
