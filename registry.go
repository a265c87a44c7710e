package envoverlay

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"
	"unicode"
)

// kind is the closed classification a declared field type resolves to.
// Dispatch during a load never inspects reflect.Type again; everything it
// needs is captured in fieldType at registration time.
type kind uint8

const (
	kindNested kind = iota
	kindList
	kindTuple
	kindMap
	kindEnum
	kindString
	kindPrimitive
)

func (k kind) String() string {
	switch k {
	case kindNested:
		return "nested config"
	case kindList:
		return "list"
	case kindTuple:
		return "tuple"
	case kindMap:
		return "mapping"
	case kindEnum:
		return "enum"
	case kindString:
		return "string"
	default:
		return "primitive"
	}
}

// fieldType describes one declared type as a tagged variant. rt is the
// concrete type to produce with the optional pointer wrapper stripped.
type fieldType struct {
	kind     kind
	rt       reflect.Type
	optional bool         // declared as a pointer
	elem     *fieldType   // list element type
	elems    []*fieldType // tuple element types, one per position
	key      *fieldType   // mapping key type
	value    *fieldType   // mapping value type
	enum     *enumSet
	duration bool // time.Duration, decoded with time.ParseDuration
}

// fieldDesc is the per-field slice of a schema: the environment name segment
// plus the classified type.
type fieldDesc struct {
	name   string // upper-cased env name segment
	goName string
	index  int
	typ    *fieldType
}

type schema struct {
	rt     reflect.Type
	fields []fieldDesc
}

type enumSet struct {
	rt      reflect.Type
	members []reflect.Value
}

var (
	registryMu sync.RWMutex
	classes    = map[reflect.Type]*schema{}
	enumSets   = map[reflect.Type]*enumSet{}
)

var durationType = reflect.TypeOf(time.Duration(0))

// Register builds and caches the field schema for the struct type T, making
// values of T loadable by Load and LoadPrefix. Classification happens once
// here, so an unsupported field type fails registration instead of surfacing
// mid-load. Nested config types must be registered before the types that
// contain them. Registering the same type again is a no-op.
//
// Field name segments come from the `env` struct tag when present, otherwise
// from the field name converted to UPPER_SNAKE (LstInt -> LST_INT). A tag of
// "-" excludes the field, as do unexported fields.
func Register[T any]() error {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	if rt.Kind() != reflect.Struct {
		return fmt.Errorf("%w: %s is not a struct", ErrUnsupportedType, rt)
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, ok := classes[rt]; ok {
		return nil
	}

	sc := &schema{rt: rt}
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := sf.Tag.Get("env")
		if name == "-" {
			continue
		}
		if name == "" {
			name = upperSnake(sf.Name)
		} else {
			name = strings.ToUpper(name)
		}

		ft, err := classify(sf.Type, false)
		if err != nil {
			return fmt.Errorf("register %s: field %s: %w", rt, sf.Name, err)
		}
		sc.fields = append(sc.fields, fieldDesc{name: name, goName: sf.Name, index: i, typ: ft})
	}
	classes[rt] = sc
	return nil
}

// MustRegister is Register that panics on error, for package-level setup.
func MustRegister[T any]() {
	if err := Register[T](); err != nil {
		panic(err)
	}
}

// RegisterEnum declares the member set of the enumeration type T. T must be a
// defined type with a string or numeric underlying type; Go reflection cannot
// enumerate constants, so the members are supplied explicitly. Decoding
// accepts only values present in members and leaves the field unchanged for
// anything else.
func RegisterEnum[T comparable](members ...T) error {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	if rt.PkgPath() == "" {
		return fmt.Errorf("%w: enum must be a defined type, got %s", ErrUnsupportedType, rt)
	}
	switch rt.Kind() {
	case reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
	default:
		return fmt.Errorf("%w: enum underlying type %s", ErrUnsupportedType, rt)
	}
	if len(members) == 0 {
		return fmt.Errorf("%w: enum %s declared with no members", ErrUnsupportedType, rt)
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	es := &enumSet{rt: rt}
	for _, m := range members {
		es.members = append(es.members, reflect.ValueOf(m))
	}
	enumSets[rt] = es
	return nil
}

// MustRegisterEnum is RegisterEnum that panics on error.
func MustRegisterEnum[T comparable](members ...T) {
	if err := RegisterEnum(members...); err != nil {
		panic(err)
	}
}

// IsRegistered reports whether the type of target (a value, or a pointer to
// one) has been registered as a config type.
func IsRegistered(target any) bool {
	rt := reflect.TypeOf(target)
	if rt == nil {
		return false
	}
	if rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := classes[rt]
	return ok
}

// classify resolves one declared type to its tagged variant. The dispatch
// priority is fixed: nested config, list, tuple, mapping, enum, string,
// primitive. A single pointer wrapper marks the type optional and is
// classified by the wrapped type. Called with registryMu held.
func classify(rt reflect.Type, inContainer bool) (*fieldType, error) {
	optional := false
	if rt.Kind() == reflect.Pointer {
		optional = true
		rt = rt.Elem()
		if rt.Kind() == reflect.Pointer {
			return nil, fmt.Errorf("%w: pointer to pointer %s", ErrUnsupportedType, rt)
		}
	}

	if rt.Kind() == reflect.Struct {
		if _, ok := classes[rt]; !ok {
			return nil, fmt.Errorf("%w: struct %s (nested config types must be registered first)", ErrNotRegistered, rt)
		}
		if inContainer {
			return nil, fmt.Errorf("%w: config type %s inside a container", ErrUnsupportedType, rt)
		}
		return &fieldType{kind: kindNested, rt: rt, optional: optional}, nil
	}

	switch rt.Kind() {
	case reflect.Slice:
		elem, err := classify(rt.Elem(), true)
		if err != nil {
			return nil, err
		}
		return &fieldType{kind: kindList, rt: rt, optional: optional, elem: elem}, nil
	case reflect.Array:
		elem, err := classify(rt.Elem(), true)
		if err != nil {
			return nil, err
		}
		elems := make([]*fieldType, rt.Len())
		for i := range elems {
			elems[i] = elem
		}
		return &fieldType{kind: kindTuple, rt: rt, optional: optional, elems: elems}, nil
	case reflect.Map:
		if rt.Key().Kind() == reflect.Pointer {
			return nil, fmt.Errorf("%w: pointer mapping key %s", ErrUnsupportedType, rt.Key())
		}
		key, err := classify(rt.Key(), true)
		if err != nil {
			return nil, err
		}
		switch key.kind {
		case kindString, kindPrimitive, kindEnum:
		default:
			return nil, fmt.Errorf("%w: mapping key type %s", ErrUnsupportedType, rt.Key())
		}
		value, err := classify(rt.Elem(), true)
		if err != nil {
			return nil, err
		}
		return &fieldType{kind: kindMap, rt: rt, optional: optional, key: key, value: value}, nil
	}

	// Enum lookup comes before the string/primitive fallthrough so a
	// string-backed enum classifies as an enum.
	if es, ok := enumSets[rt]; ok {
		return &fieldType{kind: kindEnum, rt: rt, optional: optional, enum: es}, nil
	}

	switch rt.Kind() {
	case reflect.String:
		return &fieldType{kind: kindString, rt: rt, optional: optional}, nil
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return &fieldType{kind: kindPrimitive, rt: rt, optional: optional, duration: rt == durationType}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, rt)
}

// upperSnake converts a Go field name to the UPPER_SNAKE form used in
// environment variable names: LstInt -> LST_INT, HTTPAddr -> HTTP_ADDR,
// S3Bucket -> S3_BUCKET.
func upperSnake(name string) string {
	runes := []rune(name)
	var b strings.Builder
	b.Grow(len(runes) + 4)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
