package bindings

import (
	"math/big"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

//nolint:unused
type TestSimpleStructA struct {
	a *big.Int
	b []byte
	c common.Address
}

//nolint:unused
type TestSimpleStructB struct {
	a [3]byte
	b [32]byte
	c *uint256.Int
}

//nolint:unused
type TestNestedStruct struct {
	a TestSimpleStructA
	b TestSimpleStructB
	c [3]TestSimpleStructA
}

//nolint:unused
type TestNestedStructVarLen struct {
	a []TestNestedStruct
}

func TestTypeConversion(t *testing.T) {
	tests := []struct {
		value    any
		want     string
		testName string
	}{
		{value: common.Address{}, want: "address", testName: "address (value)"},
		{value: &common.Address{}, want: "address", testName: "address (pointer)"},
		{value: common.Hash{}, want: "bytes32", testName: "hash"},
		{value: big.NewInt(0), want: "uint256", testName: "big.Int"},
		{value: uint256.NewInt(0), want: "uint256", testName: "uint256.Int"},
		{value: uint64(0), want: "uint64", testName: "uint64"},
		{value: int32(0), want: "int32", testName: "int32"},
		{value: true, want: "bool", testName: "bool"},
		{value: "", want: "string", testName: "string"},
		{value: []byte{0x13}, want: "bytes", testName: "bytes"},
		{value: [3]byte{0x13, 0x33, 0x37}, want: "bytes3", testName: "fixed size bytes"},
		{value: []common.Address{}, want: "address[]", testName: "address slice"},
		{value: [2]uint64{}, want: "uint64[2]", testName: "uint64 array"},
		{value: TestSimpleStructA{}, want: "(uint256,bytes,address)", testName: "SimpleStructA (value)"},
		{value: &TestSimpleStructA{}, want: "(uint256,bytes,address)", testName: "SimpleStructA (pointer)"},
		{value: TestSimpleStructB{}, want: "(bytes3,bytes32,uint256)", testName: "SimpleStructB"},
		{
			value:    TestNestedStruct{},
			want:     "((uint256,bytes,address),(bytes3,bytes32,uint256),(uint256,bytes,address)[3])",
			testName: "NestedStruct",
		},
		{
			value:    TestNestedStructVarLen{},
			want:     "(((uint256,bytes,address),(bytes3,bytes32,uint256),(uint256,bytes,address)[3])[])",
			testName: "NestedStructVarLen",
		},
	}
	for _, tc := range tests {
		t.Run(tc.testName, func(t *testing.T) {
			typ, err := goTypeToABIType(reflect.TypeOf(tc.value))
			require.NoError(t, err)
			require.Equal(t, tc.want, typ.String())
		})
	}
}

func TestTypeConversionErrors(t *testing.T) {
	for _, v := range []any{int(0), uint(0), [33]byte{}, map[string]int{}} {
		_, err := goTypeToABIType(reflect.TypeOf(v))
		require.Error(t, err, "%T", v)
	}
	_, err := goTypeToABIType(nil)
	require.Error(t, err)
}
