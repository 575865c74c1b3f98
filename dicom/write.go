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
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"

	"golang.org/x/text/encoding"
)

const (
	// ImplementationClassUID identifies this package in the File Meta Information of written files
	ImplementationClassUID = "2.25.302117785372830119445062125474154335751"
	// ImplementationVersionName accompanies ImplementationClassUID
	ImplementationVersionName = "AIPAC_DICOM_1"
)

// NewFile returns a File holding ds with the File Meta Information of a new SOP instance stored
// in the given transfer syntax.
func NewFile(sopClassUID, sopInstanceUID string, syntax TransferSyntax, ds *DataSet) *File {
	meta := NewDataSet(map[Tag]interface{}{
		FileMetaInformationVersionTag: []byte{0, 1},
		MediaStorageSOPClassUIDTag:    []string{sopClassUID},
		MediaStorageSOPInstanceUIDTag: []string{sopInstanceUID},
		TransferSyntaxUIDTag:          []string{syntax.UID()},
		ImplementationClassUIDTag:     []string{ImplementationClassUID},
		ImplementationVersionNameTag:  []string{ImplementationVersionName},
	})
	return &File{
		Preamble:          make([]byte, preambleSize),
		Meta:              meta,
		DataSet:           ds,
		TransferSyntaxUID: syntax.UID(),
		TransferSyntax:    syntax,
	}
}

// Write writes f as a DICOM file: preamble, DICM prefix, File Meta Information and the data set
// in the transfer syntax named by the meta information, f.TransferSyntax when it names none.
// Elements are written in ascending tag order. The File Meta Information Group Length is
// re-calculated and VRs are filled in from the data dictionary for elements with a nil VR.
func Write(w io.Writer, f *File, opts ...WriteOption) error {
	meta := &DataSet{Length: UndefinedLength}
	if f.Meta != nil {
		meta.Merge(f.Meta.MetaElements())
	}
	syntax := f.TransferSyntax
	if uid, err := meta.StringValue(TransferSyntaxUIDTag); err == nil {
		if ts, err := LookupTransferSyntax(uid); err == nil {
			syntax = ts
		}
	} else {
		meta.Set(NewElement(TransferSyntaxUIDTag, []string{syntax.UID()}))
	}

	dw := &dcmWriter{w}
	if err := writeSignature(dw, f.Preamble); err != nil {
		return err
	}
	if err := writeMeta(dw, meta); err != nil {
		return fmt.Errorf("writing file meta information: %v", err)
	}

	dew, err := newDataElementWriter(w, syntax, opts)
	if err != nil {
		return err
	}
	for _, elem := range f.DataSet.SortedElements() {
		if err := dew.WriteElement(elem); err != nil {
			return err
		}
	}
	return dew.Close()
}

// EncodeDataSet encodes ds in the given transfer syntax without compression. Elements are written
// in ascending tag order.
func EncodeDataSet(ds *DataSet, syntax TransferSyntax, opts ...WriteOption) ([]byte, error) {
	e := &encoder{cfg: newWriteConfig(opts)}
	var buf bytes.Buffer
	if err := e.writeDataSet(&dcmWriter{&buf}, syntax, ds, defaultCharacterRepertoire); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type encoder struct {
	cfg *writeConfig
}

func (e *encoder) writeDataSet(dw *dcmWriter, syntax TransferSyntax, ds *DataSet, cs encoding.Encoding) error {
	if elem, ok := ds.Get(SpecificCharacterSetTag); ok {
		if terms, err := elem.Strings(); err == nil {
			if c, err := characterSet(terms); err == nil {
				cs = c
			}
		}
	}
	for _, elem := range ds.SortedElements() {
		if err := e.writeElement(dw, syntax, elem, cs); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) writeElement(dw *dcmWriter, syntax TransferSyntax, element *DataElement, cs encoding.Encoding) error {
	element, err := e.processedElement(element)
	if err != nil {
		return fmt.Errorf("processing element: %v", err)
	}
	if element == nil {
		return nil
	}

	switch v := element.ValueField.(type) {
	case *Sequence:
		return e.writeSequence(dw, syntax, element, v, cs)
	case *EncapsulatedPixelData:
		return writeEncapsulatedFormat(dw, syntax, element, v)
	}

	value, err := encodeValue(syntax, element.VR, element.ValueField, cs)
	if err != nil {
		return fmt.Errorf("writing value of %v: %v", element.Tag, err)
	}
	if int64(len(value)) >= math.MaxUint32 {
		return fmt.Errorf("value of %v is too long: %d bytes", element.Tag, len(value))
	}
	if err := dw.Header(syntax, element.Tag, element.VR, uint32(len(value))); err != nil {
		return fmt.Errorf("writing header of %v: %v", element.Tag, err)
	}
	return dw.Bytes(value)
}

// processedElement applies the transforms to a copy of element and fills in a missing VR.
func (e *encoder) processedElement(element *DataElement) (*DataElement, error) {
	cp := *element
	out := &cp
	for i, t := range e.cfg.transforms {
		var err error
		out, err = t(out)
		if err != nil {
			return nil, fmt.Errorf("applying option %v: %v", i, err)
		}
		if out == nil {
			return nil, nil
		}
	}
	if out.VR == nil {
		out.VR = out.Tag.DictionaryVR()
	}
	return out, nil
}

func (e *encoder) writeSequence(dw *dcmWriter, syntax TransferSyntax, element *DataElement, seq *Sequence, cs encoding.Encoding) error {
	order := syntax.ByteOrder.Binary()

	var items bytes.Buffer
	iw := &dcmWriter{&items}
	for _, item := range seq.Items {
		var content bytes.Buffer
		if err := e.writeDataSet(&dcmWriter{&content}, syntax, item, cs); err != nil {
			return fmt.Errorf("writing sequence item: %v", err)
		}

		undefined := e.cfg.undefined(item.Length)
		length := uint32(content.Len())
		if undefined {
			length = UndefinedLength
		}
		if err := iw.Tag(order, ItemTag); err != nil {
			return fmt.Errorf("writing item tag: %v", err)
		}
		if err := iw.UInt32(order, length); err != nil {
			return fmt.Errorf("writing item length: %v", err)
		}
		if err := iw.Bytes(content.Bytes()); err != nil {
			return err
		}
		if undefined {
			if err := iw.Delimiter(order, ItemDelimitationItemTag); err != nil {
				return fmt.Errorf("writing item delimitation item: %v", err)
			}
		}
	}

	undefined := e.cfg.undefined(element.ValueLength)
	length := uint32(items.Len())
	if undefined {
		length = UndefinedLength
	}
	vr := element.VR
	if vr.kind != sequenceVR {
		vr = SQVR
	}
	if err := dw.Header(syntax, element.Tag, vr, length); err != nil {
		return fmt.Errorf("writing header of %v: %v", element.Tag, err)
	}
	if err := dw.Bytes(items.Bytes()); err != nil {
		return err
	}
	if undefined {
		// write sequence delimitation item
		if err := dw.Delimiter(order, SequenceDelimitationItemTag); err != nil {
			return fmt.Errorf("writing sequence delimitation item: %v", err)
		}
	}
	return nil
}

// writeEncapsulatedFormat writes the fragments of encapsulated pixel data. The first fragment is
// the basic offset table.
func writeEncapsulatedFormat(dw *dcmWriter, syntax TransferSyntax, element *DataElement, px *EncapsulatedPixelData) error {
	order := syntax.ByteOrder.Binary()
	vr := element.VR
	if vr != OBVR && vr != OWVR {
		vr = OBVR
	}
	if err := dw.Header(syntax, element.Tag, vr, UndefinedLength); err != nil {
		return fmt.Errorf("writing header of %v: %v", element.Tag, err)
	}

	fragments := px.Fragments
	if len(fragments) == 0 {
		fragments = []Fragment{{Data: []byte{}}}
	}
	for _, fragment := range fragments {
		if err := dw.Tag(order, ItemTag); err != nil {
			return fmt.Errorf("writing fragment tag: %v", err)
		}
		if err := dw.UInt32(order, uint32(len(fragment.Data))); err != nil {
			return fmt.Errorf("writing fragment length: %v", err)
		}
		if err := dw.Bytes(fragment.Data); err != nil {
			return fmt.Errorf("writing fragment: %v", err)
		}
	}

	if err := dw.Delimiter(order, SequenceDelimitationItemTag); err != nil {
		return fmt.Errorf("writing fragment delimitation tag: %v", err)
	}
	return nil
}

// encodeValue returns the value field of an element. Text is padded to an even length with the
// padding of the VR. Opaque bytes are written as they are.
func encodeValue(syntax TransferSyntax, vr *VR, valueField interface{}, cs encoding.Encoding) ([]byte, error) {
	order := syntax.ByteOrder.Binary()

	switch v := valueField.(type) {
	case nil:
		return []byte{}, nil
	case []string:
		return encodeText(vr, v, cs)
	case []byte:
		return v, nil
	case []int16, []uint16, []int32, []uint32, []int64, []uint64, []float32, []float64:
		var buf bytes.Buffer
		if err := binary.Write(&buf, order, v); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case []Tag:
		b := make([]byte, len(v)*4)
		for i, t := range v {
			order.PutUint16(b[i*4:], t.Group())
			order.PutUint16(b[i*4+2:], t.Element())
		}
		return b, nil
	case []BulkDataReference:
		return nil, fmt.Errorf("bulk data references cannot be written, the data is not in memory")
	default:
		return nil, fmt.Errorf("unexpected ValueField type %T", valueField)
	}
}

func encodeText(vr *VR, strs []string, cs encoding.Encoding) ([]byte, error) {
	s := strings.Join(strs, "\\")
	if vr.charsetDependent {
		var err error
		if s, err = encodeCharacters(cs, s); err != nil {
			return nil, err
		}
	}

	padding := vr.padding
	if vr.kind != textVR && vr.kind != uniqueIdentifierVR {
		padding = ' '
	}
	if len(s)%2 != 0 {
		s += string(padding)
	}
	return []byte(s), nil
}
