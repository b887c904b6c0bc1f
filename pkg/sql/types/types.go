// Copyright 2024 The Silo Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

// Package types defines the column types understood by the plan
// transformation core. Name and type resolution happen upstream, so only a
// small closed set of resolved types is needed here.
package types

import "github.com/cockroachdb/redact"

// T identifies a resolved column type.
type T uint8

const (
	// Unknown is the type of the SQL NULL literal before coercion.
	Unknown T = iota
	Bool
	Int
	Float
	Decimal
	String
	Bytes
	Timestamp
	Interval

	// NumTypes must be last.
	NumTypes
)

var typeNames = [NumTypes]string{
	Unknown:   "unknown",
	Bool:      "bool",
	Int:       "int",
	Float:     "float",
	Decimal:   "decimal",
	String:    "string",
	Bytes:     "bytes",
	Timestamp: "timestamp",
	Interval:  "interval",
}

func (t T) String() string {
	if t >= NumTypes {
		return "invalid"
	}
	return typeNames[t]
}

// IsNumeric returns true for types that support arithmetic.
func (t T) IsNumeric() bool {
	switch t {
	case Int, Float, Decimal, Interval:
		return true
	}
	return false
}

// SafeValue implements the redact.SafeValue interface.
func (t T) SafeValue() {}

var _ redact.SafeValue = T(0)
