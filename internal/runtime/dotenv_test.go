// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lever-cli/internal/testutil"
)

func TestParseEnvFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    map[string]string
	}{
		{name: "plain", content: "FOO=bar\nBAZ=qux", want: map[string]string{"FOO": "bar", "BAZ": "qux"}},
		{name: "empty value", content: "EMPTY=", want: map[string]string{"EMPTY": ""}},
		{name: "equals in value", content: "URL=https://x.test?a=b", want: map[string]string{"URL": "https://x.test?a=b"}},
		{name: "comments and blanks", content: "# top\n\nA=1 # trailing\n", want: map[string]string{"A": "1"}},
		{name: "export prefix", content: "export GOOS=linux", want: map[string]string{"GOOS": "linux"}},
		{name: "double quotes unescape", content: `MSG="a\tb\n\"c\" \$HOME"`, want: map[string]string{"MSG": "a\tb\n\"c\" $HOME"}},
		{name: "single quotes are literal", content: `RAW='a\nb # not a comment'`, want: map[string]string{"RAW": `a\nb # not a comment`}},
		{name: "unknown escape kept", content: `P="C:\x"`, want: map[string]string{"P": `C:\x`}},
		{name: "windows line endings", content: "A=1\r\nB=2\r\n", want: map[string]string{"A": "1", "B": "2"}},
		{name: "later key wins", content: "A=1\nA=2", want: map[string]string{"A": "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := make(map[string]string)
			if err := ParseEnvFile(env, []byte(tt.content), "test.env"); err != nil {
				t.Fatalf("ParseEnvFile() error: %v", err)
			}
			if !maps.Equal(env, tt.want) {
				t.Errorf("env = %v, want %v", env, tt.want)
			}
		})
	}
}

func TestParseEnvFile_Errors(t *testing.T) {
	t.Parallel()

	for _, content := range []string{
		"NOEQUALS",
		"=value",
		`A="open`,
		`A='open`,
	} {
		err := ParseEnvFile(make(map[string]string), []byte("OK=1\n"+content), "test.env")
		if !errors.Is(err, ErrInvalidEnvFile) {
			t.Errorf("%q: expected ErrInvalidEnvFile, got %v", content, err)
		}
		if err != nil && !strings.HasPrefix(err.Error(), "test.env:2:") {
			t.Errorf("%q: error should name line 2, got %v", content, err)
		}
	}
}

func TestLoadEnvFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	abs := testutil.MustWriteFile(t, filepath.Join(dir, "conf", "app.env"), "A=1")

	t.Run("relative to base dir", func(t *testing.T) {
		t.Parallel()
		env := make(map[string]string)
		if err := LoadEnvFile(env, "conf/app.env", dir); err != nil {
			t.Fatalf("LoadEnvFile() error: %v", err)
		}
		if env["A"] != "1" {
			t.Errorf("A = %q, want 1", env["A"])
		}
	})

	t.Run("absolute path ignores base dir", func(t *testing.T) {
		t.Parallel()
		env := make(map[string]string)
		if err := LoadEnvFile(env, abs, "/somewhere/else"); err != nil {
			t.Fatalf("LoadEnvFile() error: %v", err)
		}
	})

	t.Run("optional missing file", func(t *testing.T) {
		t.Parallel()
		if err := LoadEnvFile(make(map[string]string), "missing.env?", dir); err != nil {
			t.Errorf("optional file: unexpected error %v", err)
		}
	})

	t.Run("required missing file", func(t *testing.T) {
		t.Parallel()
		err := LoadEnvFile(make(map[string]string), "missing.env", dir)
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected os.ErrNotExist, got %v", err)
		}
	})
}
