package bindings

import (
	"fmt"
	"reflect"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/mantlenetworkio/upgrade-check/op-service/apis"
)

// function fields(lambdas) corresponding to solidity functions must be tagged with sol
// tag value is used for initializing solidity function selector
const MethodTagName string = "sol"

// Bindings field is a user supplied struct which has lambdas as a field
const BindingsFieldName string = "Bindings"

// BaseCallFactory holds the contract address, the sender, and the client
// that every call built from a binding is bound to.
// Intended to be embedded while adding contract binding factory.
type BaseCallFactory struct {
	target common.Address
	from   common.Address
	client apis.ContractClient
}

func (c *BaseCallFactory) To() (*common.Address, error) {
	return &c.target, nil
}

// From is the account calls are made from.
func (c *BaseCallFactory) From() common.Address {
	return c.from
}

func (c *BaseCallFactory) Client() apis.ContractClient {
	return c.client
}

// Options to populate the factory
type CallFactoryOption func(*BaseCallFactory)

func WithTo(target common.Address) CallFactoryOption {
	return func(f *BaseCallFactory) {
		f.target = target
	}
}

// WithFrom connects the binding to a sender.
func WithFrom(from common.Address) CallFactoryOption {
	return func(f *BaseCallFactory) {
		f.from = from
	}
}

func WithClient(client apis.ContractClient) CallFactoryOption {
	return func(f *BaseCallFactory) {
		f.client = client
	}
}

func NewBaseCallFactory(opts ...CallFactoryOption) *BaseCallFactory {
	b := &BaseCallFactory{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// CheckImpl validates that the given struct satisfies the form BindingsWrapper:
// an embedded BaseCallFactory, and a Bindings struct of function fields.
// Each function field must have a `sol` tag (MethodTagName) and return a single TypedCall.
func CheckImpl(v reflect.Value) (reflect.Value, reflect.Value) {
	if v.Kind() != reflect.Struct {
		panic("expected struct")
	}
	baseCallFactory := v.FieldByName("BaseCallFactory")
	if !baseCallFactory.IsValid() || baseCallFactory.Type() != reflect.TypeOf(BaseCallFactory{}) {
		panic("BaseCallFactory not found in embedded fields")
	}
	bindings := v.FieldByName(BindingsFieldName)
	if !bindings.IsValid() || bindings.Kind() != reflect.Struct {
		panic("Bindings not found in embedded fields")
	}
	bindingType := bindings.Type()
	for i := range bindingType.NumField() {
		field := bindingType.Field(i)
		if field.Type.Kind() != reflect.Func {
			continue
		}
		if len(field.Tag.Get(MethodTagName)) == 0 {
			panic(fmt.Sprintf("all methods must have `%s` tags for calldata", MethodTagName))
		}
		if field.Type.NumOut() != 1 {
			panic("all methods must have single return type")
		}
	}
	return baseCallFactory, bindings
}

// InitImpl assigns an implementation to every function field of the wrapped bindings.
// Each implementation captures its arguments in a lazily evaluated calldata encoder.
func InitImpl[T any](impl *BindingsWrapper[T]) {
	v := reflect.ValueOf(impl).Elem()
	baseCallFactory, bindings := CheckImpl(v)
	bindingsType := bindings.Type()
	encodeType := reflect.TypeFor[func() ([]byte, error)]()
	for i := range bindingsType.NumField() {
		field := bindingsType.Field(i)
		fieldType := field.Type
		if fieldType.Kind() != reflect.Func {
			continue
		}
		methodName := field.Tag.Get(MethodTagName)
		outputType := fieldType.Out(0)
		lambda := reflect.MakeFunc(fieldType, func(args []reflect.Value) []reflect.Value {
			callArgs := make([]any, len(args))
			for j, a := range args {
				callArgs[j] = a.Interface()
			}
			encode := func() ([]byte, error) {
				return ABIEncoder(methodName, callArgs...)
			}
			typedCall := reflect.New(outputType).Elem()
			typedCall.FieldByName("MethodName").Set(reflect.ValueOf(methodName))
			typedCall.FieldByName("EncodeInputLambda").Set(reflect.ValueOf(encode).Convert(encodeType))
			typedCall.FieldByName("BaseCallFactory").Set(baseCallFactory.Addr())
			return []reflect.Value{typedCall}
		})
		bindings.Field(i).Set(lambda)
	}
}

// Call is a contract call with lazily encoded calldata.
type Call struct {
	*BaseCallFactory

	MethodName        string
	EncodeInputLambda func() ([]byte, error)
}

func (c Call) EncodeInput() ([]byte, error) {
	return c.EncodeInputLambda()
}

// TypedCall is a Call whose return data decodes into ReturnType.
type TypedCall[ReturnType any] struct {
	Call
}

// DecodeOutput abi decodes the return data of the call into ReturnType.
// A ReturnType of any decodes nothing.
func (c TypedCall[ReturnType]) DecodeOutput(data []byte) (ReturnType, error) {
	var zero ReturnType
	retTyp := reflect.TypeOf(zero)
	if retTyp == nil {
		return zero, nil
	}
	if retTyp.Kind() == reflect.Struct && !isABIScalar(retTyp) {
		args, err := structArguments(retTyp)
		if err != nil {
			return zero, err
		}
		decoded, err := args.Unpack(data)
		if err != nil {
			return zero, fmt.Errorf("failed to unpack %s: %w", c.MethodName, err)
		}
		var val ReturnType
		if err := args.Copy(&val, decoded); err != nil {
			return zero, fmt.Errorf("failed to convert go format to provided struct: %w", err)
		}
		return val, nil
	}
	abiType, err := goTypeToABIType(retTyp)
	if err != nil {
		return zero, fmt.Errorf("failed to convert go type to abi type: %w", err)
	}
	decoded, err := abi.Arguments{{Type: abiType}}.Unpack(data)
	if err != nil {
		return zero, fmt.Errorf("failed to unpack %s: %w", c.MethodName, err)
	}
	return *abi.ConvertType(decoded[0], new(ReturnType)).(*ReturnType), nil
}

// ABIEncoder abi encodes arguments with function name
func ABIEncoder(name string, args ...any) ([]byte, error) {
	inputs := make(abi.Arguments, len(args))
	for i, arg := range args {
		abiType, err := goTypeToABIType(reflect.TypeOf(arg))
		if err != nil {
			return nil, fmt.Errorf("argument %d of %s: %w", i, name, err)
		}
		inputs[i] = abi.Argument{Type: abiType}
	}
	// the method ID only depends on the name and input types
	method := abi.NewMethod(name, name, abi.Function, "nonpayable", false, false, inputs, abi.Arguments{})
	arguments, err := method.Inputs.Pack(args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s arguments: %w", name, err)
	}
	return append(method.ID, arguments...), nil
}

type BindingsWrapper[T any] struct {
	BaseCallFactory
	Bindings T
}

// NewBindings is a helper function to inject base call factory and initialize the contract bindings implementation
func NewBindings[T any](opts ...CallFactoryOption) T {
	bindingsWrapper := BindingsWrapper[T]{
		BaseCallFactory: *NewBaseCallFactory(opts...),
	}
	InitImpl(&bindingsWrapper)
	return bindingsWrapper.Bindings
}
