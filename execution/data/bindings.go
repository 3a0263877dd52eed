package data

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"sort"

	"github.com/phtml-go/phtml/internal/helpers"
)

// Bindings is the validated name-to-value store that seeds the sandbox
// scope. Names must be identifiers (first character a letter or underscore,
// the rest letters, digits or underscores) and must not be all digits, so a
// positional value passed where a name belongs is caught before it ever
// reaches the executor. Values are carried through as untyped payload, with
// one exception: raw I/O handles are rejected.
//
// Bindings performs no locking. Concurrent mutation by multiple callers is
// the caller's responsibility.
type Bindings struct {
	vars map[string]any

	logHandler slog.Handler
	logger     *slog.Logger
}

// NewBindings creates an empty binding set.
func NewBindings(handler slog.Handler) *Bindings {
	handler, logger := helpers.SetupLogger(handler, "data", "Bindings")

	return &Bindings{
		vars:       make(map[string]any),
		logHandler: handler,
		logger:     logger,
	}
}

func (b *Bindings) String() string {
	return fmt.Sprintf("data.Bindings{Len: %d}", len(b.vars))
}

// Set stores or overwrites a single binding after validating the name and
// value. On rejection the binding set is left unchanged.
func (b *Bindings) Set(name string, value any) error {
	if err := validateKey(name); err != nil {
		b.logger.Warn("rejected binding", "name", name, "error", err)
		return fmt.Errorf("%w: %q", err, name)
	}

	if err := validateValue(value); err != nil {
		b.logger.Warn("rejected binding", "name", name, "error", err)
		return fmt.Errorf("%w: %q", err, name)
	}

	b.vars[name] = value
	return nil
}

// SetAll stores every entry of the given map as an overwrite into the
// binding set. The call is atomic: every entry is validated first, and if
// any key or value is rejected nothing is applied. The returned error names
// the first offending key.
func (b *Bindings) SetAll(m map[string]any) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := validateKey(k); err != nil {
			b.logger.Warn("rejected bulk assign", "name", k, "error", err)
			return fmt.Errorf("%w: %q", err, k)
		}
		if err := validateValue(m[k]); err != nil {
			b.logger.Warn("rejected bulk assign", "name", k, "error", err)
			return fmt.Errorf("%w: %q", err, k)
		}
	}

	maps.Copy(b.vars, m)
	return nil
}

// Len returns the number of stored bindings.
func (b *Bindings) Len() int {
	return len(b.vars)
}

// GetData implements Provider. It returns a clone of the binding map so the
// executor's scope construction cannot modify the stored bindings.
func (b *Bindings) GetData(_ context.Context) (map[string]any, error) {
	return maps.Clone(b.vars), nil
}

// validateKey checks the identifier shape of a binding name. All-digit
// names get their own error because they signal a specific caller mistake.
func validateKey(name string) error {
	if name == "" {
		return ErrKeyEmpty
	}

	allDigits := true
	for i, r := range name {
		switch {
		case r >= '0' && r <= '9':
			if i == 0 {
				// Digits may not lead an identifier. Fall through to the
				// all-digit check so the caller gets the sharper error.
				continue
			}
		case r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			allDigits = false
		default:
			return ErrKeyInvalid
		}
	}

	if allDigits {
		return ErrKeyAllDigits
	}
	if c := name[0]; c >= '0' && c <= '9' {
		return ErrKeyInvalid
	}
	return nil
}

// validateValue rejects values holding open I/O handles. Anything with
// close semantics (files, connections) does not belong in a binding set;
// readers and buffers without a Close method pass through as opaque payload.
func validateValue(v any) error {
	if _, ok := v.(io.Closer); ok {
		return ErrValueIsHandle
	}
	return nil
}
