package envoverlay

import (
	"fmt"
	"os"
	"reflect"
	"strings"
)

// DefaultPrefix is the environment name prefix assumed by Load when the
// caller does not choose one with LoadPrefix.
const DefaultPrefix = "ENV"

// LookupFunc resolves one environment variable. The second return value
// reports whether the variable is set; an unset variable leaves the field
// untouched.
type LookupFunc func(key string) (string, bool)

// Logger is the diagnostic sink for per-field lookup traces.
// *zap.SugaredLogger satisfies it.
type Logger interface {
	Debugf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}

// Option configures a single Load or LoadPrefix call.
type Option func(*loader)

// WithLookup replaces the environment store, primarily for tests. The
// default is os.LookupEnv.
func WithLookup(fn LookupFunc) Option {
	return func(l *loader) {
		if fn != nil {
			l.lookup = fn
		}
	}
}

// WithLogger installs a diagnostic sink. The default discards everything.
func WithLogger(log Logger) Option {
	return func(l *loader) {
		if log != nil {
			l.log = log
		}
	}
}

// Loader is the capability interface for config types that expose the
// overlay as a method. Implementations are one-liners delegating to
// LoadPrefix, which turns "is overlay-capable" into a compile-time
// conformance check:
//
//	func (c *Config) LoadEnv(prefix string) error {
//		return envoverlay.LoadPrefix(c, prefix)
//	}
type Loader interface {
	LoadEnv(prefix string) error
}

type loader struct {
	lookup LookupFunc
	log    Logger
}

// Load overrides the fields of target in place with values decoded from
// environment variables, using DefaultPrefix. target must be a non-nil
// pointer to a struct previously registered with Register.
//
// A variable that is not set leaves its field unchanged. A variable that is
// set but does not decode to the field's type aborts the call with an error;
// fields already overridden by the same call keep their new values.
func Load(target any, opts ...Option) error {
	return LoadPrefix(target, DefaultPrefix, opts...)
}

// LoadPrefix is Load with an explicit prefix. An empty prefix means bare
// uppercased field names are looked up directly: a field I resolves the
// variable I rather than ENV_I.
func LoadPrefix(target any, prefix string, opts ...Option) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w, got %T", ErrTarget, target)
	}
	rv = rv.Elem()

	registryMu.RLock()
	sc, ok := classes[rv.Type()]
	registryMu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, rv.Type())
	}

	l := &loader{lookup: os.LookupEnv, log: nopLogger{}}
	for _, opt := range opts {
		opt(l)
	}
	return l.loadStruct(rv, sc, prefix)
}

// envKey joins a prefix and an upper-cased name segment. The separator is
// inserted only when the prefix is non-empty and does not already end with
// one, so prefix "A" resolves A_I while prefix "AB_" resolves AB_I. Child
// prefixes for nested configs compose with the same rule and never carry a
// trailing separator of their own.
func envKey(prefix, segment string) string {
	p := strings.ToUpper(prefix)
	if p == "" {
		return segment
	}
	if strings.HasSuffix(p, "_") {
		return p + segment
	}
	return p + "_" + segment
}
