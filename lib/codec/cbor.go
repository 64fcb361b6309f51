// Copyright 2026 The Waypoint Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding used for every opaque
// payload the core persists: entity payloads in the local cache,
// notification actions, and the mirrored records handed to the
// reconciliation worker.
//
// Encoding is Core Deterministic (RFC 8949 §4.2): sorted map keys,
// smallest integer forms, no indefinite-length items. The same
// logical payload always produces identical bytes, which keeps
// change detection and test fixtures stable. Decoding ignores
// unknown fields for forward compatibility with payloads written by
// newer app versions.
package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Payloads only ever use string map keys. When decoding into
		// an any-typed target, produce map[string]any instead of the
		// CBOR default map[any]any so the result interoperates with
		// encoding/json and ordinary Go code.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v deterministically.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// RawMessage is a pre-encoded CBOR value, aliased so callers import
// only this package and not fxamacker/cbor directly.
type RawMessage = cbor.RawMessage
