package addresses

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/ethereum/go-ethereum/common"
)

var ErrZeroAddress = errors.New("found zero address")
var ErrNilPointer = errors.New("nil pointer provided")
var ErrNotAddressType = errors.New("field is not of type common.Address")

var addressType = reflect.TypeOf(common.Address{})

// CheckNoZeroAddresses checks that all fields in a struct are of type common.Address
// and that none of them are zero addresses. Embedded structs are checked the same way.
// Works with both struct values and pointers to structs.
func CheckNoZeroAddresses(s interface{}) error {
	val := reflect.ValueOf(s)

	// If we have a pointer, dereference it to get the struct
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return ErrNilPointer
		}
		val = val.Elem()
	}

	// Ensure we're working with a struct
	if val.Kind() != reflect.Struct {
		return fmt.Errorf("can only check structs, but got %s", val.Kind())
	}
	return checkFields(val)
}

func checkFields(val reflect.Value) error {
	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		fieldValue := val.Field(i)

		if field.Anonymous && fieldValue.Kind() == reflect.Struct && field.Type != addressType {
			if err := checkFields(fieldValue); err != nil {
				return err
			}
			continue
		}
		if fieldValue.Type() != addressType {
			return fmt.Errorf("%w: %s (type: %s)", ErrNotAddressType, field.Name, fieldValue.Type())
		}
		if fieldValue.Interface() == (common.Address{}) {
			return fmt.Errorf("%w: %s", ErrZeroAddress, field.Name)
		}
	}
	return nil
}
