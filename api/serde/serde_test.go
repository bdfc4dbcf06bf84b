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

package serde_test

import (
	"reflect"
	"testing"

	"github.com/canopy-run/canopy/api/serde"
)

type greetingInput struct {
	Greeting string   `json:"greeting" msgpack:"greeting"`
	Name     string   `json:"name" msgpack:"name"`
	Attempts int      `json:"attempts" msgpack:"attempts"`
	Score    float64  `json:"score" msgpack:"score"`
	Tags     []string `json:"tags" msgpack:"tags"`
	Extra    *extra   `json:"extra,omitempty" msgpack:"extra,omitempty"`
}

type extra struct {
	Note  string `json:"note" msgpack:"note"`
	Count int    `json:"count" msgpack:"count"`
}

var codecs = []struct {
	name  string
	codec serde.Codec
}{
	{"JSON", serde.JSON{}},
	{"MessagePack", serde.Msgpack{}},
}

func TestCodecRoundTrip(t *testing.T) {
	original := greetingInput{
		Greeting: "Hello",
		Name:     "World",
		Attempts: 3,
		Score:    95.5,
		Tags:     []string{"a", "b"},
		Extra:    &extra{Note: "n", Count: 42},
	}

	for _, tc := range codecs {
		t.Run(tc.name, func(t *testing.T) {
			data, err := tc.codec.Encode(original)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}

			var got greetingInput
			if err := tc.codec.Decode(data, &got); err != nil {
				t.Fatalf("decode: %v", err)
			}

			if !reflect.DeepEqual(got, original) {
				t.Errorf("round trip mismatch: got %+v, want %+v", got, original)
			}
		})
	}
}

// Converter must work no matter whether the codec turned integers into
// float64 (JSON) or kept them typed (MessagePack).
func TestConverterToType(t *testing.T) {
	for _, tc := range codecs {
		t.Run(tc.name, func(t *testing.T) {
			conv := serde.NewConverter(tc.codec)

			t.Run("Int", func(t *testing.T) {
				data, _ := tc.codec.Encode(42)
				var decoded any
				if err := tc.codec.Decode(data, &decoded); err != nil {
					t.Fatalf("decode: %v", err)
				}

				got, err := conv.ToType(decoded, reflect.TypeOf(0))
				if err != nil {
					t.Fatalf("ToType: %v", err)
				}
				if got.Interface() != 42 {
					t.Errorf("got %v (%T), want 42 (int)", got.Interface(), got.Interface())
				}
			})

			t.Run("Struct", func(t *testing.T) {
				original := extra{Note: "test", Count: 99}
				data, _ := tc.codec.Encode(original)
				var decoded map[string]any
				if err := tc.codec.Decode(data, &decoded); err != nil {
					t.Fatalf("decode: %v", err)
				}

				got, err := conv.ToType(decoded, reflect.TypeOf(extra{}))
				if err != nil {
					t.Fatalf("ToType: %v", err)
				}
				if got.Interface().(extra) != original {
					t.Errorf("got %+v, want %+v", got.Interface(), original)
				}
			})

			t.Run("Nil", func(t *testing.T) {
				got, err := conv.ToType(nil, reflect.TypeOf(""))
				if err != nil {
					t.Fatalf("ToType: %v", err)
				}
				if got.Interface() != "" {
					t.Errorf("nil should map to zero value, got %q", got.Interface())
				}
			})
		})
	}
}

func TestConverterToTypes(t *testing.T) {
	conv := serde.NewConverter(serde.Msgpack{})

	values := []any{"Hello", "World"}
	types := []reflect.Type{reflect.TypeOf(""), reflect.TypeOf("")}

	got, err := conv.ToTypes(values, types)
	if err != nil {
		t.Fatalf("ToTypes: %v", err)
	}
	if len(got) != 2 || got[0].Interface() != "Hello" || got[1].Interface() != "World" {
		t.Errorf("unexpected conversion result: %v", got)
	}

	if _, err := conv.ToTypes([]any{"only"}, types); err == nil {
		t.Error("expected argument count mismatch error")
	}
}

func TestConverterPrecisionLoss(t *testing.T) {
	conv := serde.NewConverter(serde.JSON{})

	if _, err := conv.ToType(3.5, reflect.TypeOf(0)); err == nil {
		t.Error("expected precision loss error converting 3.5 to int")
	}

	got, err := conv.ToType(3.0, reflect.TypeOf(0))
	if err != nil {
		t.Fatalf("ToType: %v", err)
	}
	if got.Interface() != 3 {
		t.Errorf("got %v, want 3", got.Interface())
	}
}
