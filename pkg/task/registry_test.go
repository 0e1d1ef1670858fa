// SPDX-License-Identifier: MPL-2.0

package task

import (
	"errors"
	"slices"
	"testing"
)

func TestNewRegistry(t *testing.T) {
	t.Parallel()

	clean := MustNew("clean", noop)
	html := MustNew("html", noop, DependsOn(clean))
	helper := MustNew("_helper", noop)

	reg, err := NewRegistry("build.cue", []*Task{html, clean, helper, html}, html)
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}

	if reg.Name() != "build.cue" {
		t.Errorf("Name() = %q", reg.Name())
	}
	if !slices.Equal(reg.Names(), []string{"html", "clean", "_helper"}) {
		t.Errorf("Names() = %v, want declaration order without duplicates", reg.Names())
	}
	if reg.Default() != html {
		t.Errorf("Default() = %v, want html", reg.Default())
	}
	if got, ok := reg.Lookup("clean"); !ok || got != clean {
		t.Errorf("Lookup(clean) = %v, %v", got, ok)
	}
	if _, ok := reg.Lookup("Clean"); ok {
		t.Error("Lookup is not case-sensitive")
	}
	if _, ok := reg.Lookup("cl"); ok {
		t.Error("Lookup matched a prefix")
	}

	var visible []string
	for _, tk := range reg.Visible() {
		visible = append(visible, tk.Name())
	}
	if !slices.Equal(visible, []string{"clean", "html"}) {
		t.Errorf("Visible() = %v, want sorted non-private tasks", visible)
	}
}

func TestNewRegistry_DefaultAppended(t *testing.T) {
	t.Parallel()

	a := MustNew("a", noop)
	def := MustNew("def", noop)
	reg, err := NewRegistry("build.cue", []*Task{a}, def)
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}
	if reg.Len() != 2 || reg.Tasks()[1] != def {
		t.Errorf("default task was not appended: %v", reg.Names())
	}
}

func TestNewRegistry_DuplicateName(t *testing.T) {
	t.Parallel()

	first := MustNew("build", noop)
	second := MustNew("build", noop)
	_, err := NewRegistry("build.cue", []*Task{first, second}, nil)
	var dup *DuplicateTaskError
	if !errors.As(err, &dup) || dup.Name != "build" {
		t.Fatalf("error = %v, want *DuplicateTaskError for build", err)
	}
	if !errors.Is(err, ErrDuplicateTask) {
		t.Error("error does not wrap ErrDuplicateTask")
	}
}

func TestEmptyRegistry(t *testing.T) {
	t.Parallel()

	reg := EmptyRegistry("build.cue")
	if reg.Len() != 0 || reg.Default() != nil || len(reg.Visible()) != 0 {
		t.Errorf("EmptyRegistry is not empty: %+v", reg)
	}
	if _, ok := reg.Lookup("anything"); ok {
		t.Error("Lookup succeeded on an empty registry")
	}
}
