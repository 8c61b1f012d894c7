// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

// Package codec provides the versioned wire encoding bidding messages are
// sent over.
package codec

import (
	"encoding/json"
	"fmt"
)

// Version identifies the wire encoding a message was written with.
type Version uint16

// CurrentVersion is the only version this codec currently emits or accepts.
const CurrentVersion Version = 0

// Codec is the package-level JSON codec every transport uses.
var Codec = &JSONCodec{}

// JSONCodec implements Marshal/Unmarshal over encoding/json, versioned so
// the wire format can change without touching call sites.
type JSONCodec struct{}

// Marshal encodes v at the given version.
func (c *JSONCodec) Marshal(version Version, v interface{}) ([]byte, error) {
	if version != CurrentVersion {
		return nil, fmt.Errorf("codec: unsupported version %d", version)
	}
	return json.Marshal(v)
}

// Unmarshal decodes data into v, returning the version it was encoded
// with (always CurrentVersion for now, but kept so the signature never
// needs to change).
func (c *JSONCodec) Unmarshal(data []byte, v interface{}) (Version, error) {
	if err := json.Unmarshal(data, v); err != nil {
		return 0, err
	}
	return CurrentVersion, nil
}
