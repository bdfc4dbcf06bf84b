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

// Package serde holds the wire codecs used for journal records, commands
// and results. MessagePack is the default; JSON exists for human-readable
// surfaces and tests.
package serde

import (
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/protobuf/proto"
)

// Codec encodes and decodes values for transport and storage. Decode takes
// a pointer to the target value.
type Codec interface {
	Encode(value any) ([]byte, error)
	Decode(data []byte, into any) error
}

var _ Codec = (*Msgpack)(nil)
var _ Codec = (*JSON)(nil)
var _ Codec = (*Proto)(nil)

// Msgpack is the default wire codec. MessagePack keeps more type
// information than JSON (ints stay ints) which matters for the reflection
// call path.
type Msgpack struct{}

func (Msgpack) Encode(value any) ([]byte, error) {
	data, err := msgpack.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("msgpack encode: %w", err)
	}
	return data, nil
}

func (Msgpack) Decode(data []byte, into any) error {
	if err := msgpack.Unmarshal(data, into); err != nil {
		return fmt.Errorf("msgpack decode: %w", err)
	}
	return nil
}

// JSON codec.
type JSON struct{}

func (JSON) Encode(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("json encode: %w", err)
	}
	return data, nil
}

func (JSON) Decode(data []byte, into any) error {
	if err := json.Unmarshal(data, into); err != nil {
		return fmt.Errorf("json decode: %w", err)
	}
	return nil
}

// Proto codec for values that are proto.Message. Used by deployments that
// exchange protobuf payloads with activity workers.
type Proto struct{}

func (Proto) Encode(value any) ([]byte, error) {
	msg, ok := value.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("proto encode: value is not a proto.Message")
	}
	data, err := proto.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("proto encode: %w", err)
	}
	return data, nil
}

func (Proto) Decode(data []byte, into any) error {
	msg, ok := into.(proto.Message)
	if !ok {
		return fmt.Errorf("proto decode: target is not a proto.Message")
	}
	if err := proto.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("proto decode: %w", err)
	}
	return nil
}
