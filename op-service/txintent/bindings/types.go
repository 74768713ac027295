package bindings

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	addressType = reflect.TypeFor[common.Address]()
	hashType    = reflect.TypeFor[common.Hash]()
	bigIntType  = reflect.TypeFor[big.Int]()
	uint256Type = reflect.TypeFor[uint256.Int]()
)

// isABIScalar reports whether a Go struct or array type encodes as a single abi word.
func isABIScalar(typ reflect.Type) bool {
	return typ == bigIntType || typ == uint256Type
}

// structArguments lists the fields of a struct as abi arguments, for multi-value returns.
func structArguments(t reflect.Type) (abi.Arguments, error) {
	_, components, err := goStructTypeToABIType(t)
	if err != nil {
		return nil, err
	}
	args := make(abi.Arguments, 0, len(components))
	for _, component := range components {
		typ, err := abi.NewType(component.Type, "", component.Components)
		if err != nil {
			return nil, fmt.Errorf("failed to create type: %w", err)
		}
		args = append(args, abi.Argument{Name: component.Name, Type: typ})
	}
	return args, nil
}

func goStructTypeToABIType(t reflect.Type) (abi.Type, []abi.ArgumentMarshaling, error) {
	if t.Kind() != reflect.Struct {
		return abi.Type{}, nil, errors.New("input must be a struct type")
	}
	components := make([]abi.ArgumentMarshaling, 0, t.NumField())
	for i := range t.NumField() {
		field := t.Field(i)
		innerABIType, innerComponents, err := goTypeToABIType0(field.Type)
		if err != nil {
			return abi.Type{}, nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		elemTyp := innerABIType.String()
		if innerComponents != nil {
			// tuples are named by their components; keep any array suffix
			suffix := ""
			if idx := strings.LastIndex(elemTyp, ")"); idx >= 0 {
				suffix = elemTyp[idx+1:]
			}
			elemTyp = "tuple" + suffix
		}
		components = append(components, abi.ArgumentMarshaling{
			Name: field.Name, Type: elemTyp, Components: innerComponents,
		})
	}
	tuple, err := abi.NewType("tuple", "", components)
	if err != nil {
		return abi.Type{}, nil, fmt.Errorf("failed to construct tuple: %w", err)
	}
	return tuple, components, nil
}

func goTypeToABIType(typ reflect.Type) (abi.Type, error) {
	if typ == nil {
		return abi.Type{}, errors.New("untyped nil")
	}
	t, _, err := goTypeToABIType0(typ)
	return t, err
}

// goTypeToABIType0 maps a Go type to its abi type, and the tuple components if it is, or contains, a struct.
func goTypeToABIType0(typ reflect.Type) (abi.Type, []abi.ArgumentMarshaling, error) {
	newType := func(s string) (abi.Type, []abi.ArgumentMarshaling, error) {
		t, err := abi.NewType(s, "", nil)
		return t, nil, err
	}
	switch {
	case typ == addressType:
		return newType("address")
	case typ == hashType:
		return newType("bytes32")
	case isABIScalar(typ):
		return newType("uint256")
	}
	switch typ.Kind() {
	case reflect.Int, reflect.Uint:
		return abi.Type{}, nil, fmt.Errorf("ints must have explicit size, type not valid: %s", typ)
	case reflect.Bool, reflect.String, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return newType(strings.ToLower(typ.Kind().String()))
	case reflect.Pointer:
		return goTypeToABIType0(typ.Elem())
	case reflect.Struct:
		t, components, err := goStructTypeToABIType(typ)
		if err != nil {
			return abi.Type{}, nil, fmt.Errorf("struct conversion failure: type %s: %w", typ, err)
		}
		return t, components, nil
	case reflect.Array, reflect.Slice:
		suffix := "[]"
		if typ.Kind() == reflect.Array {
			if typ.Elem().Kind() == reflect.Uint8 {
				if typ.Len() > 32 {
					return abi.Type{}, nil, fmt.Errorf("byte array too large: %d", typ.Len())
				}
				return newType(fmt.Sprintf("bytes%d", typ.Len()))
			}
			suffix = fmt.Sprintf("[%d]", typ.Len())
		} else if typ.Elem().Kind() == reflect.Uint8 {
			return newType("bytes")
		}
		inner, innerComponents, err := goTypeToABIType0(typ.Elem())
		if err != nil {
			return abi.Type{}, nil, fmt.Errorf("unrecognized %s-elem type: %w", typ.Kind(), err)
		}
		elemType := inner.String()
		if innerComponents != nil {
			elemType = "tuple"
		}
		t, err := abi.NewType(elemType+suffix, "", innerComponents)
		return t, innerComponents, err
	default:
		return abi.Type{}, nil, fmt.Errorf("unrecognized typ: %s", typ)
	}
}
