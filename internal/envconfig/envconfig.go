// Package envconfig reads harness defaults from the TSTRUN_CONFIG environment
// variable. Command line flags take precedence over these values.
package envconfig

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Variable is the name of the environment variable holding the configuration.
const Variable = "TSTRUN_CONFIG"

var (
	// ErrInvalidDest is a kind of error returned by parse() when the dest
	// argument does not meet the requirements.
	ErrInvalidDest = errors.New("invalid config struct")
	// ErrInvalidFormat is a kind of error returned by parse() when the raw
	// configuration string is not valid.
	ErrInvalidFormat = errors.New("invalid config string format")
)

// Config holds the values settable through TSTRUN_CONFIG.
type Config struct {
	Timeout  time.Duration `flag:"timeout"`
	NoWrite  bool          `flag:"no_write"`
	Registry string        `flag:"registry"`
}

// FromEnv parses TSTRUN_CONFIG.
func FromEnv() (Config, error) {
	var c Config
	if err := parse(os.Getenv(Variable), &c); err != nil {
		return Config{}, fmt.Errorf("failed to parse %s: %w", Variable, err)
	}
	return c, nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// parse parses the `raw` string and populates field values in `dest`.
//
// `raw` is a comma-separated list: `<key1>,<key2>=<value>,...`. A key without
// a value is equivalent to "<key>=true" and is only valid for boolean fields.
// Spaces around keys and values are trimmed. Keys can't be empty. If the same
// key is given several times, the last one takes effect.
//
// `dest` must be a pointer to a struct. Keys map to fields through the `flag`
// field tag. Supported field types are bool (strconv.ParseBool), string and
// time.Duration (time.ParseDuration).
//
// Unknown keys are ignored, so that a stale environment doesn't break runs.
func parse(raw string, dest any) error {
	ptr := reflect.ValueOf(dest)
	if ptr.Kind() != reflect.Pointer || ptr.Type().Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: must be a pointer to a struct", ErrInvalidDest)
	}
	if ptr.IsNil() {
		return fmt.Errorf("%w: must not be nil", ErrInvalidDest)
	}
	fields := fieldMap(ptr.Elem())

	if strings.TrimSpace(raw) == "" {
		return nil
	}

	for _, entry := range strings.Split(raw, ",") {
		key, val, hasVal := strings.Cut(entry, "=")
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		if key == "" {
			return fmt.Errorf("%w: empty key", ErrInvalidFormat)
		}

		field, ok := fields[key]
		if !ok {
			continue
		}
		if err := set(field, key, val, hasVal); err != nil {
			return err
		}
	}
	return nil
}

func set(field reflect.Value, key, val string, hasVal bool) error {
	switch {
	case field.Type() == durationType:
		if !hasVal {
			return fmt.Errorf("%w: %q needs a value", ErrInvalidFormat, key)
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("%w: can't parse %q as duration for %q", ErrInvalidFormat, val, key)
		}
		field.SetInt(int64(d))
	case field.Kind() == reflect.Bool:
		if !hasVal {
			val = "true"
		}
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("%w: can't parse %q as boolean for %q", ErrInvalidFormat, val, key)
		}
		field.SetBool(b)
	case field.Kind() == reflect.String:
		if !hasVal {
			return fmt.Errorf("%w: %q needs a value", ErrInvalidFormat, key)
		}
		field.SetString(val)
	default:
		return fmt.Errorf("%w: unsupported type %v for %q", ErrInvalidDest, field.Type(), key)
	}
	return nil
}

// fieldMap returns the fields of struct `s` keyed by the value of their "flag"
// tag. Fields without the tag are ignored.
func fieldMap(s reflect.Value) map[string]reflect.Value {
	typ := s.Type()
	result := map[string]reflect.Value{}
	for i := 0; i < typ.NumField(); i++ {
		if val, ok := typ.Field(i).Tag.Lookup("flag"); ok {
			result[val] = s.Field(i)
		}
	}
	return result
}
