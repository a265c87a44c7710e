package envoverlay

import "errors"

var (
	// ErrTarget is returned by Load and LoadPrefix when the target is not a
	// non-nil pointer to a struct.
	ErrTarget = errors.New("target must be a non-nil pointer to a struct")
	// ErrNotRegistered is returned when the target type (or a nested config
	// type) has not been registered with Register.
	ErrNotRegistered = errors.New("type is not registered")
	// ErrUnsupportedType is returned at registration time when a field's
	// declared type cannot be classified.
	ErrUnsupportedType = errors.New("unsupported field type")
	// ErrMalformedLiteral is returned when an environment value is present but
	// does not parse into the shape the field requires.
	ErrMalformedLiteral = errors.New("malformed literal")
	// ErrElementCount is returned when a tuple literal's length differs from
	// the declared arity. The wrapping error carries expected and actual counts.
	ErrElementCount = errors.New("invalid number of elements")
	// ErrInvalidBoolean is returned when a boolean value is neither truthy
	// (true/1/yes) nor falsy (false/0/no), compared case-insensitively.
	ErrInvalidBoolean = errors.New("invalid boolean token")
)
