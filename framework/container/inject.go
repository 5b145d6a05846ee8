package container

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// PropertySetter lets an object take its properties itself instead of having
// them assigned to struct fields.
type PropertySetter interface {
	SetProperty(name string, value any) error
}

// assignProperty sets the named property on obj. Struct fields are matched by
// `ioc:"name"` tag, then by exact field name, then by name ignoring case and
// separators, so movie_finder finds MovieFinder.
func assignProperty(obj any, name string, value any) error {
	switch target := obj.(type) {
	case PropertySetter:
		return target.SetProperty(name, value)
	case map[string]any:
		target[name] = value
		return nil
	}

	rv := reflect.ValueOf(obj)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("cannot set properties on %T", obj)
	}
	field, ok := findField(rv.Elem(), name)
	if !ok {
		return fmt.Errorf("%T has no field for property %q", obj, name)
	}
	return setField(field, value)
}

func findField(sv reflect.Value, name string) (reflect.Value, bool) {
	st := sv.Type()
	want := normalizeName(name)
	fallback := -1
	for i := range st.NumField() {
		f := st.Field(i)
		if !f.IsExported() {
			continue
		}
		if tag, ok := f.Tag.Lookup("ioc"); ok {
			tag, _, _ = strings.Cut(tag, ",")
			if tag == name {
				return sv.Field(i), true
			}
			continue
		}
		if f.Name == name {
			return sv.Field(i), true
		}
		if fallback < 0 && normalizeName(f.Name) == want {
			fallback = i
		}
	}
	if fallback >= 0 {
		return sv.Field(fallback), true
	}
	return reflect.Value{}, false
}

func normalizeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', '.', ' ':
			return -1
		}
		return r
	}, strings.ToLower(s))
}

func setField(field reflect.Value, value any) error {
	if !field.CanSet() {
		return fmt.Errorf("field of type %s cannot be set", field.Type())
	}
	v, err := convertTo(value, field.Type())
	if err != nil {
		return err
	}
	field.Set(v)
	return nil
}

// convertTo returns value as a reflect.Value of type t. Values that are not
// directly assignable are decoded with mapstructure in weak mode, so "42"
// fills an int and a *Set fills a slice.
func convertTo(value any, t reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}

	out := reflect.New(t)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       collectionHook,
		WeaklyTypedInput: true,
		Result:           out.Interface(),
	})
	if err != nil {
		return reflect.Value{}, err
	}
	if err := dec.Decode(value); err != nil {
		return reflect.Value{}, fmt.Errorf("cannot convert %T to %s: %w", value, t, err)
	}
	return out.Elem(), nil
}

func collectionHook(_ reflect.Type, _ reflect.Type, data any) (any, error) {
	switch v := data.(type) {
	case *Set:
		return v.Items(), nil
	case FrozenSet:
		return v.Items(), nil
	case Tuple:
		return []any(v), nil
	}
	return data, nil
}
