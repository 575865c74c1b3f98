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
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"golang.org/x/text/encoding"
)

// DataElementWriter writes DataElements one at a time
type DataElementWriter interface {
	WriteElement(element *DataElement) error

	// Close flushes the data set. It does not close the underlying io.Writer.
	Close() error
}

var errExpectedMetaHeader = errors.New("expected header to only contain file meta elements, " +
	"use DataSet.MetaElements to filter DataSet")

// NewDataElementWriter writes the DICOM preamble, signature, and meta header to w and returns a
// DataElementWriter that writes DataElements in the transfer syntax specified by the header.
// Elements are written in the order given. The options apply to data set elements only.
func NewDataElementWriter(w io.Writer, header *DataSet, opts ...WriteOption) (DataElementWriter, error) {
	for _, t := range header.Tags() {
		if !t.IsMetaElement() {
			return nil, errExpectedMetaHeader
		}
	}

	uid, err := header.StringValue(TransferSyntaxUIDTag)
	if err != nil {
		return nil, fmt.Errorf("getting transfer syntax from header: %w", err)
	}
	syntax, err := LookupTransferSyntax(uid)
	if err != nil {
		return nil, fmt.Errorf("getting transfer syntax from header: %w", err)
	}

	dw := &dcmWriter{w}
	if err := writeSignature(dw, nil); err != nil {
		return nil, err
	}
	if err := writeMeta(dw, header); err != nil {
		return nil, fmt.Errorf("writing file meta information: %v", err)
	}
	return newDataElementWriter(w, syntax, opts)
}

func newDataElementWriter(w io.Writer, syntax TransferSyntax, opts []WriteOption) (*dataElementWriter, error) {
	dew := &dataElementWriter{
		dw:     &dcmWriter{w},
		syntax: syntax,
		enc:    &encoder{cfg: newWriteConfig(opts)},
		cs:     defaultCharacterRepertoire,
	}
	if syntax.Deflated {
		// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_A.5
		fw, err := flate.NewWriter(w, flate.DefaultCompression)
		if err != nil {
			return nil, fmt.Errorf("creating deflate writer: %v", err)
		}
		dew.dw = &dcmWriter{fw}
		dew.flate = fw
	}
	return dew, nil
}

type dataElementWriter struct {
	dw     *dcmWriter
	syntax TransferSyntax
	enc    *encoder
	cs     encoding.Encoding
	flate  *flate.Writer
}

func (dew *dataElementWriter) WriteElement(element *DataElement) error {
	if element.Tag == SpecificCharacterSetTag {
		if terms, err := element.Strings(); err == nil {
			if cs, err := characterSet(terms); err == nil {
				dew.cs = cs
			}
		}
	}
	return dew.enc.writeElement(dew.dw, dew.syntax, element, dew.cs)
}

func (dew *dataElementWriter) Close() error {
	if dew.flate == nil {
		return nil
	}
	return dew.flate.Close()
}

// writeSignature writes the preamble, zeroed when it does not hold 128 bytes, and the DICM prefix.
func writeSignature(dw *dcmWriter, preamble []byte) error {
	if len(preamble) != preambleSize {
		preamble = make([]byte, preambleSize)
	}
	if err := dw.Bytes(preamble); err != nil {
		return fmt.Errorf("writing DICOM preamble: %v", err)
	}

	if err := dw.String(magic); err != nil {
		return fmt.Errorf("writing DICOM signature: %v", err)
	}

	return nil
}

// writeMeta writes the File Meta Information in the Explicit VR Little Endian syntax in ascending
// order. The File Meta Information Group Length is re-calculated, it excludes itself.
// http://dicom.nema.org/medical/dicom/current/output/html/part10.html#sect_7.1
func writeMeta(dw *dcmWriter, meta *DataSet) error {
	e := &encoder{cfg: &writeConfig{}}
	var buf bytes.Buffer
	for _, elem := range meta.SortedElements() {
		if elem.Tag == FileMetaInformationGroupLengthTag {
			continue
		}
		if err := e.writeElement(&dcmWriter{&buf}, ExplicitVRLittleEndian, elem, nil); err != nil {
			return err
		}
	}

	groupLength := &DataElement{
		Tag:        FileMetaInformationGroupLengthTag,
		VR:         ULVR,
		ValueField: []uint32{uint32(buf.Len())},
	}
	if err := e.writeElement(dw, ExplicitVRLittleEndian, groupLength, nil); err != nil {
		return err
	}
	return dw.Bytes(buf.Bytes())
}
