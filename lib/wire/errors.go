// Copyright 2026 The Pitwall Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import "errors"

// Decode failures fall into four kinds. Returned errors wrap one of
// these sentinels with offset and field context; match with errors.Is.
var (
	// ErrBufferUnderflow reports that the buffer ended inside a value
	// that declared more bytes than remain.
	ErrBufferUnderflow = errors.New("wire: buffer underflow")

	// ErrUnknownMarker reports a marker byte outside the supported
	// MessagePack subset.
	ErrUnknownMarker = errors.New("wire: unknown marker")

	// ErrTypeMismatch reports a value whose wire class or range does
	// not fit the field's declared type.
	ErrTypeMismatch = errors.New("wire: type mismatch")

	// ErrFieldNotFound reports an addressed key absent from the record
	// map. Fatal for every field except priority, which defaults to
	// high when the key is missing.
	ErrFieldNotFound = errors.New("wire: field not found")
)
