// Copyright 2018 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dicom

import (
	"errors"
	"fmt"
)

// Sentinel errors reported by the decoder and the query functions. Errors returned by this
// package wrap one of these and can be tested with errors.Is.
var (
	// ErrEndOfStream is returned when the input ends in the middle of a read.
	ErrEndOfStream = errors.New("end of stream")

	// ErrTruncatedElement is returned when a Data Element declares more value bytes than remain.
	ErrTruncatedElement = errors.New("truncated data element")

	// ErrUnknownTransferSyntax is returned for a Transfer Syntax UID that is not in the table.
	ErrUnknownTransferSyntax = errors.New("unknown transfer syntax")

	// ErrMaxDepthExceeded is returned when sequences nest deeper than the configured maximum.
	ErrMaxDepthExceeded = errors.New("maximum sequence depth exceeded")

	// ErrCancelled is returned when the context of a decode is done.
	ErrCancelled = errors.New("decode cancelled")

	// ErrTypeMismatch is returned when the stored VR cannot satisfy the requested type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrNotFound is returned when a tag is absent from a DataSet.
	ErrNotFound = errors.New("data element not found")

	// ErrNotDICOM is returned when the input does not carry the DICM signature.
	ErrNotDICOM = errors.New("not a DICOM file")

	// ErrUnexpectedTag is returned when a sequence contains something other than items.
	ErrUnexpectedTag = errors.New("unexpected tag")

	// ErrUndefinedLength is returned for an undefined length on a VR that must have a defined one.
	ErrUndefinedLength = errors.New("undefined length not allowed")
)

// DecodeError describes where in the stream a structural error happened. It is also the type of
// the entries in File.Diagnostics.
type DecodeError struct {
	// Tag of the element being decoded, zero when the tag itself could not be read.
	Tag Tag
	// Offset of the element in the decoded stream.
	Offset int64
	// Depth is the sequence nesting level, 0 for the top level data set.
	Depth int
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v at offset %d (depth %d): %v", e.Tag, e.Offset, e.Depth, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// decodeError wraps err into a *DecodeError unless it already is one. Nested errors keep the
// position of the innermost element.
func decodeError(tag Tag, offset int64, depth int, err error) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}
	return &DecodeError{Tag: tag, Offset: offset, Depth: depth, Err: err}
}
