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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

const (
	preambleSize = 128
	magic        = "DICM"
)

// File is a decoded DICOM file as specified in
// http://dicom.nema.org/medical/dicom/current/output/html/part10.html#chapter_7
type File struct {
	// Preamble is nil when the file starts with the DICM prefix
	Preamble []byte

	// Meta holds the File Meta Information (group 0002)
	Meta *DataSet

	// DataSet holds everything after the File Meta Information
	DataSet *DataSet

	// TransferSyntaxUID is the value of (0002,0010), empty when it is missing
	TransferSyntaxUID string

	// TransferSyntax is the encoding DataSet was decoded with
	TransferSyntax TransferSyntax

	// FallbackUsed is true when TransferSyntaxUID was missing or unknown and the fallback of
	// WithFallbackSyntax was used instead
	FallbackUsed bool

	// Diagnostics lists the structural errors met while decoding, in stream order. The file is
	// partial when it is not empty.
	Diagnostics []*DecodeError
}

// Status tells how much of a file could be decoded.
type Status int

const (
	// Complete means the whole file was decoded
	Complete Status = iota
	// Partial means decoding ended early and File.Diagnostics says why
	Partial
	// Failed means nothing usable was decoded
	Failed
)

func (s Status) String() string {
	switch s {
	case Complete:
		return "complete"
	case Partial:
		return "partial"
	default:
		return "failed"
	}
}

// Classify returns the Status of the results of Parse.
func Classify(f *File, err error) Status {
	if f == nil {
		return Failed
	}
	if err != nil || len(f.Diagnostics) > 0 {
		return Partial
	}
	return Complete
}

// Parse parses a DICOM file represented as an io.Reader, returning the File defined by applying
// options sequentially in the order given to DataElements in the file.
//
// The results follow one contract for every Parse function:
//   - (nil, err): nothing could be decoded, e.g. the input is not DICOM, the transfer syntax is
//     unknown, a transform failed or the context is done.
//   - (file, nil): the file was decoded completely.
//   - (file, err): decoding met structural errors. A damaged sequence of defined length is
//     skipped and decoding goes on after it. Any other error ends decoding. file holds
//     everything decoded and err is file.Diagnostics[0].
func Parse(r io.Reader, opts ...ParseOption) (*File, error) {
	return ParseContext(context.Background(), r, opts...)
}

// ParseContext is Parse with a context checked before each element is decoded. When the context
// is done decoding fails with an error wrapping ErrCancelled.
func ParseContext(ctx context.Context, r io.Reader, opts ...ParseOption) (*File, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %v", err)
	}
	return ParseBytesContext(ctx, b, opts...)
}

// ParseBytes parses a DICOM file held in memory. Opaque values of the result share memory with b.
func ParseBytes(b []byte, opts ...ParseOption) (*File, error) {
	return ParseBytesContext(context.Background(), b, opts...)
}

// ParseBytesContext is ParseBytes with a context, see ParseContext.
func ParseBytesContext(ctx context.Context, b []byte, opts ...ParseOption) (*File, error) {
	d := newDecoder(ctx, opts)
	c := NewCursor(b, LittleEndian)

	preamble, err := readSignature(c)
	if err != nil {
		return nil, err
	}
	f := &File{Preamble: preamble}

	// File meta elements are always in explicit VR little endian as specified in the standard
	// http://dicom.nema.org/medical/dicom/current/output/html/part10.html#sect_7.1
	f.Meta, err = d.readMeta(c)
	f.TransferSyntaxUID, _ = f.Meta.StringValue(TransferSyntaxUIDTag)
	if err != nil {
		// the stream ended inside the File Meta Information, there is no data set to decode
		f.TransferSyntax, _ = LookupTransferSyntax(f.TransferSyntaxUID)
		f.DataSet = &DataSet{Length: UndefinedLength}
		f.Diagnostics, err = d.result(err)
		d.cfg.logger.Warn().Err(err).Int("elements", f.Meta.Len()).Msg("partial file meta information")
		return f, err
	}

	f.TransferSyntax, err = LookupTransferSyntax(f.TransferSyntaxUID)
	if err != nil {
		if d.cfg.fallback == nil {
			return nil, err
		}
		d.cfg.logger.Warn().Str("transfer_syntax_uid", f.TransferSyntaxUID).
			Stringer("fallback", *d.cfg.fallback).Msg("unknown transfer syntax, decoding with fallback")
		f.TransferSyntax = *d.cfg.fallback
		f.FallbackUsed = true
	}

	ds, err := d.decodeBody(c, f.TransferSyntax)
	if d.fatal != nil {
		return nil, d.fatal
	}
	f.DataSet = ds
	f.Diagnostics, err = d.result(err)
	if err != nil {
		d.cfg.logger.Warn().Err(err).Int("elements", ds.Len()).Int("diagnostics", len(f.Diagnostics)).
			Msg("partial decode")
		return f, err
	}
	return f, nil
}

// ParseDataSet decodes a bare data set, with no preamble or File Meta Information, encoded in the
// given transfer syntax. Results follow the contract of Parse.
func ParseDataSet(b []byte, syntax TransferSyntax, opts ...ParseOption) (*DataSet, error) {
	return ParseDataSetContext(context.Background(), b, syntax, opts...)
}

// ParseDataSetContext is ParseDataSet with a context, see ParseContext.
func ParseDataSetContext(ctx context.Context, b []byte, syntax TransferSyntax, opts ...ParseOption) (*DataSet, error) {
	d := newDecoder(ctx, opts)
	ds, err := d.decodeBody(NewCursor(b, syntax.ByteOrder), syntax)
	if d.fatal != nil {
		return nil, d.fatal
	}
	_, err = d.result(err)
	return ds, err
}

// decodeBody decodes the data set following the File Meta Information, inflating it first for
// the deflated transfer syntax. Offsets of a deflated data set are positions in the inflated
// stream.
func (d *decoder) decodeBody(c *Cursor, syntax TransferSyntax) (*DataSet, error) {
	var inflateErr error
	if syntax.Deflated {
		// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_A.5
		inflated, err := io.ReadAll(flate.NewReader(bytes.NewReader(c.rest())))
		if err != nil {
			if len(inflated) == 0 {
				return &DataSet{Length: UndefinedLength}, decodeError(0, c.Offset(), 0,
					fmt.Errorf("inflating data set: %v: %w", err, ErrEndOfStream))
			}
			inflateErr = decodeError(0, int64(len(inflated)), 0,
				fmt.Errorf("inflating data set: %v: %w", err, ErrEndOfStream))
		}
		c = NewCursor(inflated, syntax.ByteOrder)
	}

	c.SetByteOrder(syntax.ByteOrder)
	ds, err := d.buildDataSet(c, syntax, 0, defaultCharacterRepertoire, false)
	if err == nil {
		err = inflateErr
	}
	return ds, err
}

// readMeta reads elements while the next tag belongs to group 0002. On error the elements read so
// far are returned with it, a truncated one included.
func (d *decoder) readMeta(c *Cursor) (*DataSet, error) {
	meta := &DataSet{Length: UndefinedLength}
	for {
		tag, err := c.PeekTag()
		if err != nil || !tag.IsMetaElement() {
			return meta, nil
		}
		elem, err := d.readElement(c, ExplicitVRLittleEndian, 0, nil)
		if elem != nil {
			meta.Set(elem)
		}
		if err != nil {
			return meta, err
		}
	}
}

// readSignature skips the preamble, if any, and the DICM prefix. The preamble is returned.
func readSignature(c *Cursor) ([]byte, error) {
	if b, err := c.Peek(preambleSize + len(magic)); err == nil && string(b[preambleSize:]) == magic {
		preamble, _ := c.Read(preambleSize)
		return preamble, c.Skip(len(magic))
	}
	if b, err := c.Peek(len(magic)); err == nil && string(b) == magic {
		return nil, c.Skip(len(magic))
	}
	return nil, ErrNotDICOM
}

func asDecodeError(err error) *DecodeError {
	var de *DecodeError
	if errors.As(err, &de) {
		return de
	}
	return &DecodeError{Err: err}
}
