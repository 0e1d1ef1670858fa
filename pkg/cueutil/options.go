// SPDX-License-Identifier: MPL-2.0

package cueutil

// DefaultMaxFileSize bounds the size of user files accepted by ParseAndDecode.
const DefaultMaxFileSize int64 = 4 << 20

type (
	// Option configures ParseAndDecode.
	Option func(*options)

	options struct {
		filename    string
		maxFileSize int64
		concrete    bool
	}
)

func defaultOptions() options {
	return options{
		maxFileSize: DefaultMaxFileSize,
		concrete:    true,
	}
}

// WithFilename sets the file name used in positions and error messages.
func WithFilename(name string) Option {
	return func(o *options) {
		o.filename = name
	}
}

// WithMaxFileSize overrides DefaultMaxFileSize. Non-positive values are ignored.
func WithMaxFileSize(size int64) Option {
	return func(o *options) {
		if size > 0 {
			o.maxFileSize = size
		}
	}
}

// WithConcrete controls whether every field must be concrete after unification.
// It is on by default.
func WithConcrete(concrete bool) Option {
	return func(o *options) {
		o.concrete = concrete
	}
}
