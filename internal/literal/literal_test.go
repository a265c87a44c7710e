package literal

import (
	"errors"
	"reflect"
	"testing"
)

func intVal(n int64) Value      { return Value{Kind: Int, Int: n} }
func floatVal(f float64) Value  { return Value{Kind: Float, Float: f} }
func strVal(s string) Value     { return Value{Kind: String, Str: s} }
func listVal(vs ...Value) Value { return Value{Kind: List, List: vs} }
func mapVal(ps ...Pair) Value   { return Value{Kind: Map, Map: ps} }

func TestParseScalars(t *testing.T) {
	tests := []struct {
		in   string
		want Value
	}{
		{"10", intVal(10)},
		{"-3", intVal(-3)},
		{"+4", intVal(4)},
		{"0", intVal(0)},
		{"1.5", floatVal(1.5)},
		{"-0.25", floatVal(-0.25)},
		{"1e3", floatVal(1000)},
		{"2.5E-2", floatVal(0.025)},
		{"hoge", strVal("hoge")},
		{"hoge fuga", strVal("hoge fuga")},
		{"  10  ", intVal(10)},
		{"2021-01-01", strVal("2021-01-01")},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.in, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNumericLookalikesStayStrings(t *testing.T) {
	// Forms strconv would happily parse but the grammar treats as text.
	for _, in := range []string{"1e", "e3", "0x10", "1_000", "Inf", "-Inf", "NaN", "1.2.3", "--1", "1-2"} {
		t.Run(in, func(t *testing.T) {
			got, err := Parse(in)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", in, err)
			}
			if got.Kind != String || got.Str != in {
				t.Fatalf("Parse(%q) = %+v, want string %q", in, got, in)
			}
		})
	}
}

func TestParseQuoted(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"double quotes", `"hoge"`, "hoge"},
		{"single quotes", `'fuga'`, "fuga"},
		{"empty", `""`, ""},
		{"newline escape", `"a\nb"`, "a\nb"},
		{"tab escape", `'a\tb'`, "a\tb"},
		{"escaped quote", `"say \"hi\""`, `say "hi"`},
		{"escaped backslash", `"back\\slash"`, `back\slash`},
		{"digits stay text when quoted", `"10"`, "10"},
		{"delimiters stay text when quoted", `"[1, 2]"`, "[1, 2]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.in, err)
			}
			if got.Kind != String || got.Str != tt.want {
				t.Fatalf("Parse(%q) = %+v, want string %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseList(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Value
	}{
		{"flat", "[1, 2, 3]", listVal(intVal(1), intVal(2), intVal(3))},
		{"empty", "[]", listVal()},
		{"single", "[fuga]", listVal(strVal("fuga"))},
		{"trailing comma", "[1, 2,]", listVal(intVal(1), intVal(2))},
		{"loose whitespace", "[ 1 ,2 ]", listVal(intVal(1), intVal(2))},
		{"mixed scalars", "[a, 'b c', 3]", listVal(strVal("a"), strVal("b c"), intVal(3))},
		{"nested", "[[1], [2, 3]]", listVal(listVal(intVal(1)), listVal(intVal(2), intVal(3)))},
		{"mapping element", "[{a: 1}]", listVal(mapVal(Pair{strVal("a"), intVal(1)}))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.in, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseMap(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Value
	}{
		{"flat", "{a: 1}", mapVal(Pair{strVal("a"), intVal(1)})},
		{"empty", "{}", mapVal()},
		{"integer key", "{1: 2}", mapVal(Pair{intVal(1), intVal(2)})},
		{"quoted key", "{'k k': v}", mapVal(Pair{strVal("k k"), strVal("v")})},
		{"trailing comma", "{a: 1,}", mapVal(Pair{strVal("a"), intVal(1)})},
		{"nested mapping", "{a: {b: 1}}", mapVal(Pair{strVal("a"), mapVal(Pair{strVal("b"), intVal(1)})})},
		{"sequence value", "{a: [1, 2]}", mapVal(Pair{strVal("a"), listVal(intVal(1), intVal(2))})},
		{
			"duplicate keys keep source order",
			"{a: 1, a: 2}",
			mapVal(Pair{strVal("a"), intVal(1)}, Pair{strVal("a"), intVal(2)}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.in, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty input", ""},
		{"whitespace only", "   "},
		{"unterminated sequence", "[1, 2"},
		{"unterminated mapping", "{a: 1"},
		{"missing colon", "{a}"},
		{"missing element", "[1,,2]"},
		{"missing mapping value", "{a: }"},
		{"unterminated quote", "'abc"},
		{"unterminated escape", `"abc\`},
		{"unsupported escape", `"a\qb"`},
		{"sequence key", "{[1]: 2}"},
		{"mapping key", "{{a: 1}: 2}"},
		{"trailing garbage after sequence", "[] junk"},
		{"trailing garbage after quote", `"a" b`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.in); !errors.Is(err, ErrSyntax) {
				t.Fatalf("Parse(%q): expected ErrSyntax, got %v", tt.in, err)
			}
		})
	}
}
