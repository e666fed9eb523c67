package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/wapmhq/wapm/internal/errs"
)

// Store wraps a Config bound to a file path, exposing the dotted get/set
// operations spec.md §4.A describes.
type Store struct {
	path string
	cfg  *Config
}

// Open loads (or defaults) the config at path into a Store.
func Open(path string) (*Store, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, errs.Wrap(errs.Config, err)
	}
	return &Store{path: path, cfg: cfg}, nil
}

// Config returns the underlying parsed config.
func (s *Store) Config() *Config {
	return s.cfg
}

// Get returns the string value at dotted key (e.g. "registry.url").
func (s *Store) Get(key string) (string, error) {
	fv, err := fieldByDottedKey(reflect.ValueOf(s.cfg).Elem(), strings.Split(key, "."))
	if err != nil {
		return "", errs.Wrap(errs.Config, err)
	}
	return formatValue(fv), nil
}

// Set assigns value to the dotted key and persists the config. Setting
// "registry.url" implicitly clears "registry.token", per spec.md §4.A.
func (s *Store) Set(key, value string) error {
	fv, err := fieldByDottedKey(reflect.ValueOf(s.cfg).Elem(), strings.Split(key, "."))
	if err != nil {
		return errs.Wrap(errs.Config, err)
	}
	if err := assignValue(fv, value); err != nil {
		return errs.Wrap(errs.Config, fmt.Errorf("key %q: %w", key, err))
	}

	if key == "registry.url" {
		s.cfg.Registry.Token = ""
	}

	if err := Save(s.path, s.cfg); err != nil {
		return errs.Wrap(errs.Config, err)
	}
	return nil
}

// fieldByDottedKey resolves a dotted path of `toml` tags to a struct field.
func fieldByDottedKey(v reflect.Value, parts []string) (reflect.Value, error) {
	if len(parts) == 0 {
		return reflect.Value{}, fmt.Errorf("empty key")
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := tomlFieldName(field)
		if tag != parts[0] {
			continue
		}

		fv := v.Field(i)
		if len(parts) == 1 {
			if fv.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("key %q refers to a section, not a value", parts[0])
			}
			return fv, nil
		}

		if fv.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("unknown key %q", strings.Join(parts, "."))
		}
		return fieldByDottedKey(fv, parts[1:])
	}

	return reflect.Value{}, fmt.Errorf("unknown key %q", strings.Join(parts, "."))
}

func tomlFieldName(f reflect.StructField) string {
	tag := f.Tag.Get("toml")
	if tag == "" {
		return f.Name
	}
	if idx := strings.IndexByte(tag, ','); idx >= 0 {
		tag = tag[:idx]
	}
	return tag
}

func formatValue(fv reflect.Value) string {
	switch fv.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(fv.Bool())
	default:
		return fmt.Sprintf("%v", fv.Interface())
	}
}

func assignValue(fv reflect.Value, value string) error {
	switch fv.Kind() {
	case reflect.String:
		fv.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("expected a boolean, got %q", value)
		}
		fv.SetBool(b)
	default:
		return fmt.Errorf("unsupported field type %s", fv.Kind())
	}
	return nil
}
