package envoverlay

import (
	"errors"
	"testing"
)

func TestUpperSnake(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"I", "I"},
		{"Port", "PORT"},
		{"LstInt", "LST_INT"},
		{"DctStrFloat", "DCT_STR_FLOAT"},
		{"HTTPAddr", "HTTP_ADDR"},
		{"ParseURL", "PARSE_URL"},
		{"S3Bucket", "S3_BUCKET"},
		{"TLSCert", "TLS_CERT"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := upperSnake(tt.in); got != tt.want {
				t.Fatalf("upperSnake(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

type taggedConfig struct {
	Addr   string `env:"LISTEN"`
	Secret string `env:"-"`
	hidden int
	Port   int
}

func TestStructTags(t *testing.T) {
	MustRegister[taggedConfig]()

	cfg := taggedConfig{Secret: "keep", hidden: 1}
	lookup := mapLookup(map[string]string{
		"ENV_LISTEN": "0.0.0.0",
		"ENV_ADDR":   "ignored",
		"ENV_SECRET": "leaked",
		"ENV_HIDDEN": "2",
		"ENV_PORT":   "8080",
	})
	if err := Load(&cfg, WithLookup(lookup)); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Addr != "0.0.0.0" {
		t.Fatalf("tagged field not resolved via its tag name: %q", cfg.Addr)
	}
	if cfg.Secret != "keep" {
		t.Fatalf("env:\"-\" field was overridden: %q", cfg.Secret)
	}
	if cfg.hidden != 1 {
		t.Fatalf("unexported field was overridden: %d", cfg.hidden)
	}
	if cfg.Port != 8080 {
		t.Fatalf("expected 8080, got %d", cfg.Port)
	}
}

func TestRegisterRejectsNonStruct(t *testing.T) {
	if err := Register[int](); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestRegisterRejectsUnsupportedFields(t *testing.T) {
	t.Run("channel field", func(t *testing.T) {
		type bad struct{ C chan int }
		if err := Register[bad](); !errors.Is(err, ErrUnsupportedType) {
			t.Fatalf("expected ErrUnsupportedType, got %v", err)
		}
	})

	t.Run("func field", func(t *testing.T) {
		type bad struct{ F func() }
		if err := Register[bad](); !errors.Is(err, ErrUnsupportedType) {
			t.Fatalf("expected ErrUnsupportedType, got %v", err)
		}
	})

	t.Run("interface field", func(t *testing.T) {
		type bad struct{ V any }
		if err := Register[bad](); !errors.Is(err, ErrUnsupportedType) {
			t.Fatalf("expected ErrUnsupportedType, got %v", err)
		}
	})

	t.Run("pointer to pointer", func(t *testing.T) {
		type bad struct{ P **int }
		if err := Register[bad](); !errors.Is(err, ErrUnsupportedType) {
			t.Fatalf("expected ErrUnsupportedType, got %v", err)
		}
	})

	t.Run("unregistered nested struct", func(t *testing.T) {
		type inner struct{ I int }
		type bad struct{ In inner }
		if err := Register[bad](); !errors.Is(err, ErrNotRegistered) {
			t.Fatalf("expected ErrNotRegistered, got %v", err)
		}
	})

	t.Run("config type inside a container", func(t *testing.T) {
		MustRegister[fugaConfig]()
		type bad struct{ L []fugaConfig }
		if err := Register[bad](); !errors.Is(err, ErrUnsupportedType) {
			t.Fatalf("expected ErrUnsupportedType, got %v", err)
		}
	})

	t.Run("pointer mapping key", func(t *testing.T) {
		type bad struct{ M map[*int]string }
		if err := Register[bad](); !errors.Is(err, ErrUnsupportedType) {
			t.Fatalf("expected ErrUnsupportedType, got %v", err)
		}
	})

	t.Run("sequence mapping key", func(t *testing.T) {
		type bad struct{ M map[[2]int]string }
		if err := Register[bad](); !errors.Is(err, ErrUnsupportedType) {
			t.Fatalf("expected ErrUnsupportedType, got %v", err)
		}
	})
}

func TestRegisterIdempotent(t *testing.T) {
	if err := Register[prefixConfig](); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	if err := Register[prefixConfig](); err != nil {
		t.Fatalf("repeated registration failed: %v", err)
	}
}

func TestRegisterEnumValidation(t *testing.T) {
	t.Run("predeclared type rejected", func(t *testing.T) {
		if err := RegisterEnum("a", "b"); !errors.Is(err, ErrUnsupportedType) {
			t.Fatalf("expected ErrUnsupportedType, got %v", err)
		}
	})

	t.Run("bool underlying type rejected", func(t *testing.T) {
		type flag bool
		if err := RegisterEnum(flag(true)); !errors.Is(err, ErrUnsupportedType) {
			t.Fatalf("expected ErrUnsupportedType, got %v", err)
		}
	})

	t.Run("empty member set rejected", func(t *testing.T) {
		if err := RegisterEnum[colorName](); !errors.Is(err, ErrUnsupportedType) {
			t.Fatalf("expected ErrUnsupportedType, got %v", err)
		}
	})
}

func TestEnumClassifiesBeforeString(t *testing.T) {
	// A string-backed enum field must dispatch as an enum, so an unmatched
	// value is skipped instead of assigned verbatim.
	MustRegisterEnum(colorRed, colorGreen, colorBlue)
	type palette struct{ Color colorName }
	MustRegister[palette]()

	cfg := palette{Color: colorRed}
	lookup := mapLookup(map[string]string{"ENV_COLOR": "purple"})
	if err := Load(&cfg, WithLookup(lookup)); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Color != colorRed {
		t.Fatalf("unmatched enum value was assigned: %q", cfg.Color)
	}
}
