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
	"reflect"
	"testing"
)

// Helpers producing encoded streams. Values given to them must already have an even length
// unless the helper pads them.

func concat(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

// textValue pads s to an even length with a space.
func textValue(s string) []byte {
	if len(s)%2 != 0 {
		s += " "
	}
	return []byte(s)
}

// uidValue pads s to an even length with a NUL.
func uidValue(s string) []byte {
	if len(s)%2 != 0 {
		s += "\x00"
	}
	return []byte(s)
}

func u16(order binary.ByteOrder, vs ...uint16) []byte {
	b := make([]byte, 2*len(vs))
	for i, v := range vs {
		order.PutUint16(b[2*i:], v)
	}
	return b
}

func u32(order binary.ByteOrder, vs ...uint32) []byte {
	b := make([]byte, 4*len(vs))
	for i, v := range vs {
		order.PutUint32(b[4*i:], v)
	}
	return b
}

func tagBytes(order binary.ByteOrder, tag Tag) []byte {
	return u16(order, tag.Group(), tag.Element())
}

// explicitHeader encodes a tag, VR and length in an explicit VR syntax.
func explicitHeader(order binary.ByteOrder, tag Tag, vr string, length uint32) []byte {
	h := concat(tagBytes(order, tag), []byte(vr))
	if v, _ := lookupVRByName(vr); v.longLength {
		return concat(h, []byte{0, 0}, u32(order, length))
	}
	return concat(h, u16(order, uint16(length)))
}

// explicitLE encodes an element in the Explicit VR Little Endian syntax.
func explicitLE(tag Tag, vr string, value []byte) []byte {
	return concat(explicitHeader(binary.LittleEndian, tag, vr, uint32(len(value))), value)
}

// explicitBE encodes an element in the Explicit VR Big Endian syntax.
func explicitBE(tag Tag, vr string, value []byte) []byte {
	return concat(explicitHeader(binary.BigEndian, tag, vr, uint32(len(value))), value)
}

// implicitLE encodes an element in the Implicit VR Little Endian syntax.
func implicitLE(tag Tag, value []byte) []byte {
	return concat(tagBytes(binary.LittleEndian, tag), u32(binary.LittleEndian, uint32(len(value))), value)
}

// undefinedLE encodes the header of an undefined length element in Explicit VR Little Endian.
func undefinedLE(tag Tag, vr string) []byte {
	return explicitHeader(binary.LittleEndian, tag, vr, UndefinedLength)
}

// itemLE encodes an item of the given content, with undefined length and an Item Delimitation
// Item when delimited is true.
func itemLE(delimited bool, content ...[]byte) []byte {
	body := concat(content...)
	if delimited {
		return concat(tagBytes(binary.LittleEndian, ItemTag), u32(binary.LittleEndian, UndefinedLength),
			body, delimiterLE(ItemDelimitationItemTag))
	}
	return concat(tagBytes(binary.LittleEndian, ItemTag), u32(binary.LittleEndian, uint32(len(body))), body)
}

func delimiterLE(tag Tag) []byte {
	return concat(tagBytes(binary.LittleEndian, tag), []byte{0, 0, 0, 0})
}

// sequenceLE encodes a sequence of the given items in Explicit VR Little Endian.
func sequenceLE(tag Tag, delimited bool, items ...[]byte) []byte {
	body := concat(items...)
	if delimited {
		return concat(undefinedLE(tag, "SQ"), body, delimiterLE(SequenceDelimitationItemTag))
	}
	return explicitLE(tag, "SQ", body)
}

// metaLE encodes a File Meta Information group with the given transfer syntax, its group length
// included.
func metaLE(transferSyntaxUID string) []byte {
	elems := concat(
		explicitLE(FileMetaInformationVersionTag, "OB", []byte{0, 1}),
		explicitLE(MediaStorageSOPClassUIDTag, "UI", uidValue("1.2.840.10008.5.1.4.1.1.7")),
		explicitLE(MediaStorageSOPInstanceUIDTag, "UI", uidValue("1.2.3.4.5.6")),
		explicitLE(TransferSyntaxUIDTag, "UI", uidValue(transferSyntaxUID)),
	)
	return concat(explicitLE(FileMetaInformationGroupLengthTag, "UL", u32(binary.LittleEndian, uint32(len(elems)))), elems)
}

// fileBytes returns a complete file with a zeroed preamble.
func fileBytes(transferSyntaxUID string, body ...[]byte) []byte {
	return concat(make([]byte, preambleSize), []byte(magic), metaLE(transferSyntaxUID), concat(body...))
}

// nestedSequences returns depth sequences of undefined length nested in each other, each holding
// one delimited item.
func nestedSequences(depth int) []byte {
	inner := explicitLE(PatientIDTag, "LO", textValue("leaf"))
	for i := 0; i < depth; i++ {
		inner = sequenceLE(ReferencedImageSequenceTag, true, itemLE(true, inner))
	}
	return inner
}

func mustParse(t *testing.T, b []byte, opts ...ParseOption) *File {
	t.Helper()
	f, err := ParseBytes(b, opts...)
	if err != nil {
		t.Fatalf("ParseBytes(_) => %v, want nil error", err)
	}
	return f
}

func mustGet(t *testing.T, ds *DataSet, tag Tag) *DataElement {
	t.Helper()
	elem, ok := ds.Get(tag)
	if !ok {
		t.Fatalf("expected %v in the data set", tag)
	}
	return elem
}

func compareDataElements(e1 *DataElement, e2 *DataElement, t *testing.T) {
	t.Helper()
	if e1 == nil || e2 == nil {
		if e1 != e2 {
			t.Fatalf("expected both elements to be nil: got %v, want %v", e1, e2)
		}
		return
	}
	if e1.Tag != e2.Tag {
		t.Fatalf("expected tags to be equal: got %v, want %v", e1.Tag, e2.Tag)
	}
	if e1.VR.Name != e2.VR.Name {
		t.Fatalf("expected VRs of %v to be equal: got %v, want %v", e1.Tag, e1.VR, e2.VR)
	}

	if seq, ok := e1.ValueField.(*Sequence); ok {
		other, ok := e2.ValueField.(*Sequence)
		if !ok {
			t.Fatalf("expected %v to hold a sequence, got %T", e2.Tag, e2.ValueField)
		}
		compareSequences(seq, other, t)
		return
	}
	if !reflect.DeepEqual(e1.ValueField, e2.ValueField) {
		t.Fatalf("expected ValueFields of %v to be equal: got %v, want %v", e1.Tag, e1.ValueField, e2.ValueField)
	}
}

func compareSequences(s1 *Sequence, s2 *Sequence, t *testing.T) {
	t.Helper()
	if len(s1.Items) != len(s2.Items) {
		t.Fatalf("expected sequences to have same length: got %v, want %v", len(s1.Items), len(s2.Items))
	}
	for i := range s1.Items {
		compareDataSets(s1.Items[i], s2.Items[i], t)
	}
}

func compareDataSets(d1 *DataSet, d2 *DataSet, t *testing.T) {
	t.Helper()
	k1, k2 := d1.SortedTags(), d2.SortedTags()
	if !reflect.DeepEqual(k1, k2) {
		t.Fatalf("expected datasets to have same keys: got %v, want %v", k1, k2)
	}
	for _, tag := range k1 {
		e1, _ := d1.Get(tag)
		e2, _ := d2.Get(tag)
		compareDataElements(e1, e2, t)
	}
}
