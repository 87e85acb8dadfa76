package sanitizer

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// ErrUnknownSanitizer is returned for a tag naming an unregistered sanitizer.
var ErrUnknownSanitizer = errors.New("sanitizer: unknown sanitizer")

var (
	registryMu sync.RWMutex
	registry   = map[string]func(string) string{
		"trim":        Trim,
		"lower":       ToLower,
		"single_line": SingleLine,
		"whitespace":  NormalizeWhitespace,
		"strip_html":  StripHTML,
		"no_control":  RemoveControlChars,

		// Free text typed by a user: no markup, no control bytes, tidy spacing.
		"user_text": func(s string) string {
			return NormalizeWhitespace(StripHTML(RemoveControlChars(s)))
		},
	}
)

// RegisterSanitizer adds a custom sanitizer function to the registry.
func RegisterSanitizer(name string, fn func(string) string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = fn
}

// SanitizeStruct rewrites string fields of the struct pointed to by v
// according to their `sanitize` tags, applied left to right:
//
//	type askRequest struct {
//		Question string `json:"question" sanitize:"user_text"`
//	}
//
// Nested structs are processed recursively. "max:N" truncates to N runes.
func SanitizeStruct(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return errors.New("sanitizer: must pass a pointer to struct")
	}
	return sanitizeStruct(rv.Elem())
}

func sanitizeStruct(rv reflect.Value) error {
	rt := rv.Type()

	for i := range rv.NumField() {
		field := rv.Field(i)
		if !field.CanSet() {
			continue
		}
		tag := rt.Field(i).Tag.Get("sanitize")
		if tag == "-" {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			if tag == "" {
				continue
			}
			s, err := apply(field.String(), tag)
			if err != nil {
				return fmt.Errorf("%s: %w", rt.Field(i).Name, err)
			}
			field.SetString(s)

		case reflect.Pointer:
			if field.IsNil() {
				continue
			}
			elem := field.Elem()
			switch {
			case elem.Kind() == reflect.String && tag != "":
				s, err := apply(elem.String(), tag)
				if err != nil {
					return fmt.Errorf("%s: %w", rt.Field(i).Name, err)
				}
				elem.SetString(s)
			case elem.Kind() == reflect.Struct:
				if err := sanitizeStruct(elem); err != nil {
					return err
				}
			}

		case reflect.Struct:
			if err := sanitizeStruct(field); err != nil {
				return err
			}

		case reflect.Slice:
			if tag == "" || field.Type().Elem().Kind() != reflect.String {
				continue
			}
			for j := range field.Len() {
				elem := field.Index(j)
				s, err := apply(elem.String(), tag)
				if err != nil {
					return fmt.Errorf("%s[%d]: %w", rt.Field(i).Name, j, err)
				}
				elem.SetString(s)
			}
		}
	}

	return nil
}

func apply(value, tag string) (string, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for name := range strings.SplitSeq(tag, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		if n, ok := strings.CutPrefix(name, "max:"); ok {
			maxLen, err := strconv.Atoi(n)
			if err != nil {
				return "", fmt.Errorf("%w: %q", ErrUnknownSanitizer, name)
			}
			value = MaxLength(value, maxLen)
			continue
		}

		fn, ok := registry[name]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrUnknownSanitizer, name)
		}
		value = fn(value)
	}

	return value, nil
}
