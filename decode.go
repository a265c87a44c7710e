package envoverlay

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/eugenenazirov/envoverlay/internal/literal"
)

// loadStruct walks the schema's fields in declaration order. Misses skip to
// the next field; a decode failure aborts the remaining fields.
func (l *loader) loadStruct(v reflect.Value, sc *schema, prefix string) error {
	for i := range sc.fields {
		f := &sc.fields[i]
		fv := v.Field(f.index)

		var err error
		switch f.typ.kind {
		case kindNested:
			err = l.loadNested(fv, f, prefix)
		case kindEnum:
			err = l.loadEnum(fv, f, prefix)
		case kindString:
			err = l.loadString(fv, f, prefix)
		default:
			err = l.loadLiteral(fv, f, prefix)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// loadNested descends into an already-constructed nested config with the
// child prefix. A nil optional nested config is skipped, never allocated:
// the overlay mutates existing instances only.
func (l *loader) loadNested(fv reflect.Value, f *fieldDesc, prefix string) error {
	child := envKey(prefix, f.name)
	if f.typ.optional {
		if fv.IsNil() {
			l.log.Debugf("envoverlay: skipping nested %s: nil instance", child)
			return nil
		}
		fv = fv.Elem()
	}

	registryMu.RLock()
	sc, ok := classes[f.typ.rt]
	registryMu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, f.typ.rt)
	}
	return l.loadStruct(fv, sc, child)
}

// loadString assigns the raw environment string verbatim. String fields never
// pass through the literal grammar, so newlines, quotes, and colons survive.
func (l *loader) loadString(fv reflect.Value, f *fieldDesc, prefix string) error {
	key := envKey(prefix, f.name)
	raw, ok := l.lookup(key)
	if !ok {
		return nil
	}
	l.log.Debugf("envoverlay: %s=%q", key, raw)
	fv.Set(wrapOptional(reflect.ValueOf(raw).Convert(f.typ.rt), f.typ))
	return nil
}

// loadEnum tries the raw value against every registered member. No match is
// a deliberate no-op, not an error.
func (l *loader) loadEnum(fv reflect.Value, f *fieldDesc, prefix string) error {
	key := envKey(prefix, f.name)
	raw, ok := l.lookup(key)
	if !ok {
		return nil
	}
	l.log.Debugf("envoverlay: %s=%q", key, raw)

	v, ok := matchEnum(strings.TrimSpace(raw), f.typ)
	if !ok {
		l.log.Debugf("envoverlay: %s: %q matches no %s member, field unchanged", key, raw, f.typ.rt)
		return nil
	}
	fv.Set(wrapOptional(v, f.typ))
	return nil
}

// loadLiteral handles every literal-decoded classification: primitives,
// lists, tuples, and mappings.
func (l *loader) loadLiteral(fv reflect.Value, f *fieldDesc, prefix string) error {
	key := envKey(prefix, f.name)
	raw, ok := l.lookup(key)
	if !ok {
		return nil
	}
	l.log.Debugf("envoverlay: %s=%q", key, raw)

	lit, err := literal.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%s: %w: %v", key, ErrMalformedLiteral, err)
	}
	v, err := convert(lit, f.typ)
	if err != nil {
		return fmt.Errorf("%s (raw %q): %w", key, raw, err)
	}
	fv.Set(v)
	return nil
}

// convert materialises a parsed literal as a value of the declared type,
// recursing through containers. The result includes the optional pointer
// wrapper when the type was declared as a pointer.
func convert(lit literal.Value, t *fieldType) (reflect.Value, error) {
	v, err := convertBase(lit, t)
	if err != nil {
		return reflect.Value{}, err
	}
	return wrapOptional(v, t), nil
}

func convertBase(lit literal.Value, t *fieldType) (reflect.Value, error) {
	switch t.kind {
	case kindList:
		return convertList(lit, t)
	case kindTuple:
		return convertTuple(lit, t)
	case kindMap:
		return convertMap(lit, t)
	case kindEnum:
		raw, err := scalarString(lit)
		if err != nil {
			return reflect.Value{}, err
		}
		v, ok := matchEnum(raw, t)
		if !ok {
			return reflect.Value{}, fmt.Errorf("%w: %q is not a member of %s", ErrMalformedLiteral, raw, t.rt)
		}
		return v, nil
	case kindString:
		s, err := scalarString(lit)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(s).Convert(t.rt), nil
	default:
		return convertPrimitive(lit, t)
	}
}

func convertList(lit literal.Value, t *fieldType) (reflect.Value, error) {
	if lit.Kind != literal.List {
		return reflect.Value{}, fmt.Errorf("%w: list field requires a sequence, got %s", ErrMalformedLiteral, lit.Kind)
	}
	out := reflect.MakeSlice(t.rt, 0, len(lit.List))
	for i, e := range lit.List {
		ev, err := convert(e, t.elem)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
		}
		out = reflect.Append(out, ev)
	}
	return out, nil
}

func convertTuple(lit literal.Value, t *fieldType) (reflect.Value, error) {
	if lit.Kind != literal.List {
		return reflect.Value{}, fmt.Errorf("%w: tuple field requires a sequence, got %s", ErrMalformedLiteral, lit.Kind)
	}
	if len(lit.List) != len(t.elems) {
		return reflect.Value{}, fmt.Errorf("%w: expected=%d actual=%d", ErrElementCount, len(t.elems), len(lit.List))
	}
	out := reflect.New(t.rt).Elem()
	for i, e := range lit.List {
		ev, err := convert(e, t.elems[i])
		if err != nil {
			return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
		}
		out.Index(i).Set(ev)
	}
	return out, nil
}

func convertMap(lit literal.Value, t *fieldType) (reflect.Value, error) {
	if lit.Kind != literal.Map {
		return reflect.Value{}, fmt.Errorf("%w: mapping field requires a mapping, got %s", ErrMalformedLiteral, lit.Kind)
	}
	out := reflect.MakeMapWithSize(t.rt, len(lit.Map))
	// Pairs arrive in source order, so a duplicate key resolves to its last
	// occurrence.
	for _, pair := range lit.Map {
		kv, err := convert(pair.Key, t.key)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("key: %w", err)
		}
		vv, err := convert(pair.Value, t.value)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("key %v: %w", kv.Interface(), err)
		}
		out.SetMapIndex(kv, vv)
	}
	return out, nil
}

func convertPrimitive(lit literal.Value, t *fieldType) (reflect.Value, error) {
	if t.duration {
		return convertDuration(lit)
	}

	out := reflect.New(t.rt).Elem()
	switch t.rt.Kind() {
	case reflect.Bool:
		b, err := toBool(lit)
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := toInt(lit)
		if err != nil {
			return reflect.Value{}, err
		}
		if out.OverflowInt(n) {
			return reflect.Value{}, fmt.Errorf("%w: %d overflows %s", ErrMalformedLiteral, n, t.rt)
		}
		out.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := toInt(lit)
		if err != nil {
			return reflect.Value{}, err
		}
		if n < 0 || out.OverflowUint(uint64(n)) {
			return reflect.Value{}, fmt.Errorf("%w: %d overflows %s", ErrMalformedLiteral, n, t.rt)
		}
		out.SetUint(uint64(n))
	case reflect.Float32, reflect.Float64:
		fl, err := toFloat(lit)
		if err != nil {
			return reflect.Value{}, err
		}
		if out.OverflowFloat(fl) {
			return reflect.Value{}, fmt.Errorf("%w: %g overflows %s", ErrMalformedLiteral, fl, t.rt)
		}
		out.SetFloat(fl)
	default:
		return reflect.Value{}, fmt.Errorf("%w: %s", ErrUnsupportedType, t.rt)
	}
	return out, nil
}

func convertDuration(lit literal.Value) (reflect.Value, error) {
	switch lit.Kind {
	case literal.String:
		d, err := time.ParseDuration(lit.Str)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %q is not a duration", ErrMalformedLiteral, lit.Str)
		}
		return reflect.ValueOf(d), nil
	case literal.Int:
		// A bare integer is taken as nanoseconds, time.Duration's own unit.
		return reflect.ValueOf(time.Duration(lit.Int)), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: duration field requires a duration string, got %s", ErrMalformedLiteral, lit.Kind)
}

// toBool applies the boolean token rules: true/1/yes decode true and
// false/0/no decode false, case-insensitively. Anything else is an invalid
// token.
func toBool(lit literal.Value) (bool, error) {
	switch lit.Kind {
	case literal.Int:
		switch lit.Int {
		case 1:
			return true, nil
		case 0:
			return false, nil
		}
		return false, fmt.Errorf("%w: %d", ErrInvalidBoolean, lit.Int)
	case literal.String:
		switch strings.ToLower(lit.Str) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		}
		return false, fmt.Errorf("%w: %q", ErrInvalidBoolean, lit.Str)
	}
	return false, fmt.Errorf("%w: got %s", ErrInvalidBoolean, lit.Kind)
}

func toInt(lit literal.Value) (int64, error) {
	switch lit.Kind {
	case literal.Int:
		return lit.Int, nil
	case literal.String:
		n, err := strconv.ParseInt(strings.TrimSpace(lit.Str), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", ErrMalformedLiteral, lit.Str)
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: expected an integer, got %s", ErrMalformedLiteral, lit.Kind)
}

func toFloat(lit literal.Value) (float64, error) {
	switch lit.Kind {
	case literal.Float:
		return lit.Float, nil
	case literal.Int:
		return float64(lit.Int), nil
	case literal.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(lit.Str), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrMalformedLiteral, lit.Str)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%w: expected a number, got %s", ErrMalformedLiteral, lit.Kind)
}

// scalarString renders a scalar literal as its textual form, for string and
// enum targets.
func scalarString(lit literal.Value) (string, error) {
	switch lit.Kind {
	case literal.String:
		return lit.Str, nil
	case literal.Int:
		return strconv.FormatInt(lit.Int, 10), nil
	case literal.Float:
		return strconv.FormatFloat(lit.Float, 'g', -1, 64), nil
	}
	return "", fmt.Errorf("%w: expected a scalar, got %s", ErrMalformedLiteral, lit.Kind)
}

// matchEnum converts raw through the enum's underlying primitive and accepts
// it only if the result equals a registered member.
func matchEnum(raw string, t *fieldType) (reflect.Value, bool) {
	cand, err := enumCandidate(raw, t.rt)
	if err != nil {
		return reflect.Value{}, false
	}
	for _, m := range t.enum.members {
		if m.Interface() == cand.Interface() {
			return cand, true
		}
	}
	return reflect.Value{}, false
}

func enumCandidate(raw string, rt reflect.Type) (reflect.Value, error) {
	v := reflect.New(rt).Elem()
	switch rt.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v.OverflowInt(n) {
			return reflect.Value{}, fmt.Errorf("not an %s: %q", rt, raw)
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || v.OverflowUint(n) {
			return reflect.Value{}, fmt.Errorf("not a %s: %q", rt, raw)
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || v.OverflowFloat(f) {
			return reflect.Value{}, fmt.Errorf("not a %s: %q", rt, raw)
		}
		v.SetFloat(f)
	}
	return v, nil
}

// wrapOptional boxes v in a freshly allocated pointer when the declared type
// was optional. Optional scalar and compound fields are allocated on a
// successful decode; only nested configs are never allocated.
func wrapOptional(v reflect.Value, t *fieldType) reflect.Value {
	if !t.optional {
		return v
	}
	p := reflect.New(t.rt)
	p.Elem().Set(v)
	return p
}
