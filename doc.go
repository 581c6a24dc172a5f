// SPDX-FileCopyrightText: © 2024 Donald Hoelle. All rights reserved.
// SPDX-License-Identifier: MIT
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package [avenum] marshals and unmarshals a closed sum type whose cases carry
// associated values of different shapes, using the Go JSON V2 experiment
// ([github.com/go-json-experiment/json]).
//
// The sum type is the [Variant] interface. Its six implementations are:
//
//	NoValue{}                        // no associated value
//	IntValue(5)                      // an int
//	StringValue("five")              // a string
//	StructValue{Name: "a", Count: 1} // a nested Record
//	ArrayValue{1.5, 2.5}             // a []float64
//	CompositeValue{                  // all of the above at once
//	  Int:    1,
//	  Text:   "2",
//	  Record: Record{Name: "3", Count: 4},
//	  Floats: []float64{5, 6, 7},
//	}
//
// # Encoding
//
// Each variant encodes to a JSON object with exactly one key. The key names
// the case and its value is the associated data:
//
//	{"noAvKey": true}
//	{"intAvKey": 5}
//	{"stringAvKey": "five"}
//	{"codableAvKey": {"name": "a", "count": 1}}
//	{"doubleArrayAvKey": [1.5, 2.5]}
//	{"assortedAvKey": {
//	  "someInt": 1,
//	  "someString": "2",
//	  "someCodableValue": {"name": "3", "count": 4},
//	  "someDoubleArrayValue": [5, 6, 7]
//	}}
//
// The value under "noAvKey" is a placeholder; only the key's presence
// matters.
//
// # Decoding
//
// [Decode] checks the reserved keys in a fixed order: noAvKey, intAvKey,
// stringAvKey, codableAvKey, doubleArrayAvKey, assortedAvKey. A key selects
// its variant when its value has the right shape; a key whose value has the
// wrong shape is skipped and the next key is tried. So
//
//	{"intAvKey": "oops", "stringAvKey": "hello"}
//
// decodes to StringValue("hello").
//
// When nothing matches, [Decode] returns [ErrNoMatchingVariant]. Input that is
// not a keyed document at all (malformed JSON, a JSON array, ...) produces
// [ErrInvalidDocument] instead.
//
// Set Exclusive in [Config] to disable the fallback and require exactly one
// reserved key.
//
// # Nested values
//
// [MarshalFunc] and [UnmarshalFunc] (or both at once via [JSONOptions]) let
// Variant values appear anywhere inside larger Go values:
//
//	type Event struct {
//	  Name  string         `json:"name"`
//	  Value avenum.Variant `json:"value"`
//	}
//
//	b, _ := json.Marshal(ev, avenum.JSONOptions(nil))
//
// # Other text formats
//
// [MarshalYAML], [UnmarshalYAML], [MarshalTOML] and [UnmarshalTOML] carry the
// same document through YAML and TOML text. Decoding follows the same rules
// as JSON.
//
// [github.com/go-json-experiment/json]: https://github.com/go-json-experiment/json
package avenum
