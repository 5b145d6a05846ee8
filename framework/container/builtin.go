package container

import (
	"fmt"
	"maps"
	"math/big"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
	"github.com/spf13/cast"
)

// BuiltinPrefix is prepended to the shorthand names (str, int, ...) to form
// the class names RegisterBuiltins installs.
const BuiltinPrefix = "builtin."

// RegisterBuiltins installs the targets of the configuration shorthands:
//
//	builtin.str, builtin.unicode → string
//	builtin.int                  → int
//	builtin.long                 → *big.Int
//	builtin.float                → float64
//	builtin.decimal              → *apd.Decimal
//	builtin.bool                 → bool
//	builtin.complex              → complex128
//	builtin.list                 → []any
//	builtin.tuple                → Tuple
//	builtin.dict                 → map[string]any
//
// Each takes exactly one positional argument.
func RegisterBuiltins(t *TypeRegistry) error {
	builtins := map[string]func(v any) (any, error){
		"str":     toString,
		"unicode": toString,
		"int":     func(v any) (any, error) { return cast.ToIntE(v) },
		"long":    toBigInt,
		"float":   func(v any) (any, error) { return cast.ToFloat64E(v) },
		"decimal": toDecimal,
		"bool":    func(v any) (any, error) { return cast.ToBoolE(v) },
		"complex": toComplex,
		"list":    func(v any) (any, error) { return toSlice(v), nil },
		"tuple":   func(v any) (any, error) { return Tuple(toSlice(v)), nil },
		"dict":    toDict,
	}
	for _, name := range []string{"str", "unicode", "int", "long", "float", "decimal", "bool", "complex", "list", "tuple", "dict"} {
		convert := builtins[name]
		err := t.Register(BuiltinPrefix+name, func(args Args) (any, error) {
			if args.Len() != 1 || len(args.Named) > 0 {
				return nil, fmt.Errorf("%s%s takes exactly one argument, got %d", BuiltinPrefix, name, args.Len()+len(args.Named))
			}
			return convert(args.Positional[0])
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func toString(v any) (any, error) { return cast.ToStringE(v) }

func toBigInt(v any) (any, error) {
	switch x := v.(type) {
	case *big.Int:
		return new(big.Int).Set(x), nil
	case string:
		n, ok := new(big.Int).SetString(strings.TrimSpace(x), 10)
		if !ok {
			return nil, fmt.Errorf("invalid long %q", x)
		}
		return n, nil
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return nil, err
	}
	return big.NewInt(n), nil
}

func toDecimal(v any) (any, error) {
	s, err := cast.ToStringE(v)
	if err != nil {
		return nil, err
	}
	d, _, err := apd.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	return d, nil
}

func toComplex(v any) (any, error) {
	switch x := v.(type) {
	case complex128:
		return x, nil
	case complex64:
		return complex128(x), nil
	case string:
		c, err := strconv.ParseComplex(strings.TrimSpace(x), 128)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return nil, err
	}
	return complex(f, 0), nil
}

func toSlice(v any) []any {
	switch x := v.(type) {
	case nil:
		return []any{}
	case []any:
		return append([]any(nil), x...)
	case Tuple:
		return append([]any(nil), x...)
	case *Set:
		return x.Items()
	case FrozenSet:
		return x.Items()
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	}
	return []any{v}
}

func toDict(v any) (any, error) {
	switch x := v.(type) {
	case map[string]any:
		return maps.Clone(x), nil
	case map[string]string:
		out := make(map[string]any, len(x))
		for k, s := range x {
			out[k] = s
		}
		return out, nil
	}
	return cast.ToStringMapE(v)
}
