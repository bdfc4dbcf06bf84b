// Copyright 2025 The Canopy Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package serde

import (
	"fmt"
	"reflect"
)

// Converter turns decoded journal values (whose concrete types depend on
// the codec: map[string]any from JSON, typed values from MessagePack) into
// the parameter types a registered function expects. Complex shapes are
// converted by round-tripping through the codec so the rules stay the
// codec's own, not JSON's.
type Converter struct {
	codec Codec
}

func NewConverter(c Codec) *Converter {
	return &Converter{codec: c}
}

// ToType converts value to targetType. nil maps to the type's zero value.
func (c *Converter) ToType(value any, targetType reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(targetType), nil
	}

	valueType := reflect.TypeOf(value)
	if valueType == targetType {
		return reflect.ValueOf(value), nil
	}

	if valueType.ConvertibleTo(targetType) {
		if isNumeric(valueType.Kind()) && isNumeric(targetType.Kind()) {
			return convertNumeric(value, valueType, targetType)
		}
		return reflect.ValueOf(value).Convert(targetType), nil
	}

	return c.roundTrip(value, targetType)
}

// ToTypes converts a decoded argument list element-wise.
func (c *Converter) ToTypes(values []any, targetTypes []reflect.Type) ([]reflect.Value, error) {
	if len(values) != len(targetTypes) {
		return nil, fmt.Errorf("argument count mismatch: have %d, want %d", len(values), len(targetTypes))
	}
	out := make([]reflect.Value, len(values))
	for i, v := range values {
		converted, err := c.ToType(v, targetTypes[i])
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		out[i] = converted
	}
	return out, nil
}

// convertNumeric guards lossy float-to-integer conversions; everything else
// follows Go conversion rules.
func convertNumeric(value any, valueType, targetType reflect.Type) (reflect.Value, error) {
	switch valueType.Kind() {
	case reflect.Float32, reflect.Float64:
		if isInteger(targetType.Kind()) {
			f := reflect.ValueOf(value).Float()
			n := int64(f)
			if float64(n) != f {
				return reflect.Value{}, fmt.Errorf("cannot convert %v to %v without losing precision", f, targetType)
			}
			return reflect.ValueOf(n).Convert(targetType), nil
		}
	}
	return reflect.ValueOf(value).Convert(targetType), nil
}

// roundTrip encodes the value and decodes it into a fresh instance of the
// target type.
func (c *Converter) roundTrip(value any, targetType reflect.Type) (reflect.Value, error) {
	data, err := c.codec.Encode(value)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("convert %T to %v: %w", value, targetType, err)
	}

	var target reflect.Value
	if targetType.Kind() == reflect.Ptr {
		target = reflect.New(targetType.Elem())
	} else {
		target = reflect.New(targetType)
	}

	if err := c.codec.Decode(data, target.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("convert %T to %v: %w", value, targetType, err)
	}

	if targetType.Kind() != reflect.Ptr {
		return target.Elem(), nil
	}
	return target, nil
}

func isNumeric(k reflect.Kind) bool {
	return isInteger(k) || k == reflect.Float32 || k == reflect.Float64
}

func isInteger(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}
