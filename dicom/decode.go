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
	"strings"

	"golang.org/x/text/encoding"
)

// readElement decodes the element at the cursor and advances past it. When the stream ends
// inside the value, the element is returned flagged Incomplete together with an error wrapping
// ErrTruncatedElement.
func (d *decoder) readElement(c *Cursor, syntax TransferSyntax, depth int, cs encoding.Encoding) (*DataElement, error) {
	start := c.Offset()
	tag, err := c.Tag()
	if err != nil {
		return nil, decodeError(0, start, depth, fmt.Errorf("reading tag: %w", err))
	}

	vr, known, err := syntax.readVR(c, tag)
	if err != nil {
		return nil, decodeError(tag, start, depth, err)
	}
	if !known {
		d.cfg.logger.Debug().Stringer("tag", tag).Str("vr", vr.Name).Int64("offset", start).
			Msg("unknown VR, reading value as opaque bytes")
	}

	length, err := syntax.readValueLength(c, vr)
	if err != nil {
		return nil, decodeError(tag, start, depth, err)
	}

	elem := &DataElement{Tag: tag, VR: vr, ValueLength: length, Offset: c.Offset()}
	if length == UndefinedLength {
		return d.readUndefinedLength(c, syntax, elem, depth, cs)
	}

	if vr.kind == sequenceVR {
		return d.readDefinedLengthSequence(c, syntax, elem, depth, cs)
	}

	b, err := c.Read(int(length))
	if err != nil {
		b = c.rest()
		elem.Incomplete = true
		elem.ValueField, _ = decodeValue(b, vr, c.ByteOrder(), cs)
		d.cfg.logger.Warn().Stringer("tag", tag).Uint32("length", length).Int("available", len(b)).
			Msg("truncated data element")
		return elem, decodeError(tag, elem.Offset, depth,
			fmt.Errorf("value needs %d bytes, %d available: %w", length, len(b), ErrTruncatedElement))
	}

	if vr.width > 1 && len(b)%vr.width != 0 {
		d.cfg.logger.Debug().Stringer("tag", tag).Stringer("vr", vr).Uint32("length", length).
			Msg("value length is not a multiple of the value width, keeping opaque bytes")
		elem.ValueField = b
		return elem, nil
	}
	elem.ValueField, err = decodeValue(b, vr, c.ByteOrder(), cs)
	if err != nil {
		return nil, decodeError(tag, elem.Offset, depth, err)
	}
	return elem, nil
}

func (d *decoder) readDefinedLengthSequence(c *Cursor, syntax TransferSyntax, elem *DataElement, depth int, cs encoding.Encoding) (*DataElement, error) {
	sub, subErr := c.Sub(int(elem.ValueLength))
	seq, err := d.readItems(sub, syntax, depth, cs, false)
	elem.ValueField = seq
	if subErr != nil && d.fatal == nil {
		// the sequence declares more bytes than the stream holds, whatever failed inside it
		elem.Incomplete = true
		return elem, &DecodeError{Tag: elem.Tag, Offset: elem.Offset, Depth: depth,
			Err: fmt.Errorf("sequence needs %d bytes, %d available: %w", elem.ValueLength, len(sub.buf), ErrTruncatedElement)}
	}
	if err != nil {
		elem.Incomplete = true
		if d.fatal == nil {
			// c is already past the sequence, so the enclosing data set goes on after it
			d.diagnose(err)
			return elem, nil
		}
	}
	return elem, err
}

func (d *decoder) readUndefinedLength(c *Cursor, syntax TransferSyntax, elem *DataElement, depth int, cs encoding.Encoding) (*DataElement, error) {
	var err error
	switch {
	case elem.VR.kind == sequenceVR:
		elem.ValueField, err = d.readItems(c, syntax, depth, cs, true)
	case elem.Tag == PixelDataTag && elem.VR.kind == bulkDataVR:
		// Specified in http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_A.4
		// (7FE0,0010) and undefined length means pixel data in encapsulated (compressed) format
		elem.ValueField, err = d.readFragments(c, elem.Tag, depth)
	case elem.VR == UNVR:
		// UN of undefined length holds a sequence encoded in Implicit VR Little Endian
		// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.2.2
		d.cfg.logger.Debug().Stringer("tag", elem.Tag).Msg("reading undefined length UN as a sequence")
		order := c.order
		c.SetByteOrder(LittleEndian)
		elem.VR = SQVR
		elem.ValueField, err = d.readItems(c, ImplicitVRLittleEndian, depth, cs, true)
		c.order = order
	default:
		return nil, decodeError(elem.Tag, elem.Offset, depth, fmt.Errorf("VR %v: %w", elem.VR, ErrUndefinedLength))
	}
	if err != nil {
		elem.Incomplete = true
	}
	return elem, err
}

// readItems reads the items of a sequence. A delimited sequence ends with a Sequence
// Delimitation Item, otherwise the sequence ends with the cursor.
func (d *decoder) readItems(c *Cursor, syntax TransferSyntax, depth int, cs encoding.Encoding, delimited bool) (*Sequence, error) {
	seq := &Sequence{Items: []*DataSet{}}
	for delimited || c.Remaining() > 0 {
		start := c.Offset()
		tag, err := c.Tag()
		if err != nil {
			return seq, decodeError(0, start, depth+1, fmt.Errorf("reading item tag: %w", err))
		}
		length, err := c.UInt32()
		if err != nil {
			return seq, decodeError(tag, start, depth+1, fmt.Errorf("reading item length: %w", err))
		}

		switch tag {
		case ItemTag:
		case SequenceDelimitationItemTag:
			if !delimited {
				d.cfg.logger.Debug().Int64("offset", start).Msg("sequence delimiter in defined length sequence")
			}
			return seq, nil
		default:
			return seq, decodeError(tag, start, depth+1, fmt.Errorf("want item tag %v: %w", ItemTag, ErrUnexpectedTag))
		}
		if depth+1 > d.cfg.maxDepth {
			return seq, decodeError(tag, start, depth+1,
				fmt.Errorf("nesting %d with maximum %d: %w", depth+1, d.cfg.maxDepth, ErrMaxDepthExceeded))
		}

		item, err := d.readItem(c, syntax, depth+1, cs, length)
		seq.append(item)
		if err != nil {
			return seq, err
		}
	}
	return seq, nil
}

func (d *decoder) readItem(c *Cursor, syntax TransferSyntax, depth int, cs encoding.Encoding, length uint32) (*DataSet, error) {
	if length == UndefinedLength {
		ds, err := d.buildDataSet(c, syntax, depth, cs, true)
		ds.Length = length
		return ds, err
	}

	sub, subErr := c.Sub(int(length))
	ds, err := d.buildDataSet(sub, syntax, depth, cs, false)
	ds.Length = length
	if err == nil && subErr != nil {
		err = decodeError(ItemTag, sub.base, depth,
			fmt.Errorf("item needs %d bytes, %d available: %w", length, len(sub.buf), ErrTruncatedElement))
	}
	return ds, err
}

// readFragments reads the items of encapsulated pixel data up to the Sequence Delimitation Item.
func (d *decoder) readFragments(c *Cursor, tag Tag, depth int) (*EncapsulatedPixelData, error) {
	px := &EncapsulatedPixelData{Fragments: []Fragment{}}
	for {
		start := c.Offset()
		itemTag, err := c.Tag()
		if err != nil {
			return px, decodeError(tag, start, depth, fmt.Errorf("reading fragment tag: %w", err))
		}
		length, err := c.UInt32()
		if err != nil {
			return px, decodeError(tag, start, depth, fmt.Errorf("reading fragment length: %w", err))
		}
		if itemTag == SequenceDelimitationItemTag {
			return px, nil
		}
		if itemTag != ItemTag {
			return px, decodeError(itemTag, start, depth, fmt.Errorf("want fragment item tag: %w", ErrUnexpectedTag))
		}
		if length == UndefinedLength {
			return px, decodeError(tag, start, depth, fmt.Errorf("fragment: %w", ErrUndefinedLength))
		}

		offset := c.Offset()
		b, err := c.Read(int(length))
		if err != nil {
			b = c.rest()
			px.Fragments = append(px.Fragments, Fragment{Data: b, Offset: offset})
			return px, decodeError(tag, offset, depth,
				fmt.Errorf("fragment needs %d bytes, %d available: %w", length, len(b), ErrTruncatedElement))
		}
		px.Fragments = append(px.Fragments, Fragment{Data: b, Offset: offset})
	}
}

// decodeValue interprets the bytes of a value field according to the kind of VR.
func decodeValue(b []byte, vr *VR, order binary.ByteOrder, cs encoding.Encoding) (interface{}, error) {
	switch vr.kind {
	case textVR, uniqueIdentifierVR:
		return decodeStrings(b, vr, cs), nil
	case numberBinaryVR:
		return decodeNumbers(b, vr, order)
	case bulkDataVR:
		switch vr {
		case OFVR, ODVR, OLVR, OVVR:
			return decodeNumbers(b, vr, order)
		}
		return b, nil
	case tagVR:
		return decodeTags(b, order), nil
	default:
		return nil, fmt.Errorf("unexpected vr kind %v for %v", vr.kind, vr)
	}
}

func decodeStrings(b []byte, vr *VR, cs encoding.Encoding) []string {
	if len(b) == 0 {
		return []string{}
	}

	s := string(b)
	if vr.charsetDependent {
		s = decodeCharacters(cs, b)
	}

	// deal with value multiplicity
	strs := []string{s}
	if vr.multiValued {
		strs = strings.Split(s, "\\")
	}
	for i, str := range strs {
		str = strings.TrimRight(str, " \x00")
		if vr.trimLeading || vr.kind == uniqueIdentifierVR {
			str = strings.TrimLeft(str, " ")
		}
		strs[i] = str
	}
	return strs
}

func decodeNumbers(b []byte, vr *VR, order binary.ByteOrder) (interface{}, error) {
	n := len(b) / vr.width

	var data interface{}
	switch vr {
	case SSVR:
		data = make([]int16, n)
	case USVR:
		data = make([]uint16, n)
	case SLVR:
		data = make([]int32, n)
	case ULVR, OLVR:
		data = make([]uint32, n)
	case SVVR:
		data = make([]int64, n)
	case UVVR, OVVR:
		data = make([]uint64, n)
	case FLVR, OFVR:
		data = make([]float32, n)
	case FDVR, ODVR:
		data = make([]float64, n)
	default:
		return nil, fmt.Errorf("unknown vr: %v", vr)
	}

	if err := binary.Read(bytes.NewReader(b[:n*vr.width]), order, data); err != nil {
		return nil, fmt.Errorf("binary.Read(_, _, _) => %v", err)
	}
	return data, nil
}

func decodeTags(b []byte, order binary.ByteOrder) []Tag {
	ret := make([]Tag, len(b)/4) // 4 bytes per tag
	for i := range ret {
		ret[i] = NewTag(order.Uint16(b[i*4:]), order.Uint16(b[i*4+2:]))
	}
	return ret
}
