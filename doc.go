// Package envoverlay overrides the fields of an existing configuration
// struct with values decoded from environment variables.
//
// A struct type becomes overlay-capable by registering it once, which builds
// and validates a field schema up front:
//
//	type Server struct {
//		Port    int
//		Tags    []string
//		Labels  map[string]string
//		Timeout time.Duration
//	}
//
//	envoverlay.MustRegister[Server]()
//
//	srv := Server{Port: 8080}
//	err := envoverlay.LoadPrefix(&srv, "APP")
//
// With APP_PORT=9090, APP_TAGS="[edge, eu-west]" and
// APP_LABELS="{team: core, tier: 1}" set, the call rewrites those three
// fields in place and leaves Timeout alone. Variables that are not set never
// touch their fields; variables that are set but malformed abort the call
// with an error.
//
// Environment names are UPPER(prefix) + "_" + UPPER(field name), with the
// separator omitted when the prefix is empty or already ends in an
// underscore. Nested registered structs are walked recursively with the
// field name appended to the prefix, so a Fuga field inside a struct loaded
// with prefix ENV resolves its I field from ENV_FUGA_I.
//
// Compound values use a small literal grammar inside a single variable:
// "[1, 2, 3]" for slices, fixed-length sequences for arrays, and
// "{key: value}" for maps, nested to any depth. Booleans accept true/1/yes
// and false/0/no in any case. String fields take the raw variable verbatim,
// untouched by the grammar. Enumerations are declared with RegisterEnum and
// decode only to a registered member; an unmatched value is skipped rather
// than rejected.
package envoverlay
