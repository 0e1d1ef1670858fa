// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// optionalSuffix marks an env file that may be missing.
const optionalSuffix = "?"

// ErrInvalidEnvFile is wrapped by every dotenv syntax error.
var ErrInvalidEnvFile = errors.New("invalid env file")

// LoadEnvFile reads a dotenv file and merges it into env, later keys winning.
// Relative paths resolve against baseDir. A path ending in '?' is optional:
// when the file does not exist nothing happens.
func LoadEnvFile(env map[string]string, path, baseDir string) error {
	path, optional := strings.CutSuffix(path, optionalSuffix)

	fullPath := filepath.FromSlash(path)
	if !filepath.IsAbs(fullPath) {
		fullPath = filepath.Join(baseDir, fullPath)
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read env file '%s': %w", path, err)
	}

	return ParseEnvFile(env, content, path)
}

// ParseEnvFile parses dotenv content into env. It accepts:
//   - blank lines and lines starting with #
//   - KEY=value, with " #" starting a trailing comment
//   - KEY="value" with the escapes \n \r \t \\ \" \$
//   - KEY='value' taken literally
//   - an optional leading "export "
//
// filename is only used in error messages.
func ParseEnvFile(env map[string]string, content []byte, filename string) error {
	for i, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))

		key, raw, found := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !found {
			return fmt.Errorf("%s:%d: %w: missing '='", filename, i+1, ErrInvalidEnvFile)
		}
		if key == "" {
			return fmt.Errorf("%s:%d: %w: empty variable name", filename, i+1, ErrInvalidEnvFile)
		}

		value, err := envValue(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%s:%d: %w: %w", filename, i+1, ErrInvalidEnvFile, err)
		}
		env[key] = value
	}
	return nil
}

func envValue(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}

	switch quote := raw[0]; quote {
	case '"', '\'':
		if len(raw) < 2 || raw[len(raw)-1] != quote {
			return "", fmt.Errorf("unterminated %c quote", quote)
		}
		inner := raw[1 : len(raw)-1]
		if quote == '\'' {
			return inner, nil
		}
		return unescape(inner), nil
	}

	if idx := strings.Index(raw, " #"); idx != -1 {
		raw = strings.TrimSpace(raw[:idx])
	}
	return raw, nil
}

var escapes = strings.NewReplacer(
	`\n`, "\n",
	`\r`, "\r",
	`\t`, "\t",
	`\\`, `\`,
	`\"`, `"`,
	`\$`, `$`,
)

// unescape processes the escapes of a double-quoted value. Unknown escapes
// are kept as written.
func unescape(s string) string {
	return escapes.Replace(s)
}
