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
	"encoding/binary"
	"errors"
	"reflect"
	"testing"

	"github.com/klauspost/compress/flate"
)

// sampleBody holds elements of every kind of VR, in Explicit VR Little Endian.
func sampleBody() []byte {
	return concat(
		explicitLE(SpecificCharacterSetTag, "CS", textValue("ISO_IR 100")),
		explicitLE(SOPClassUIDTag, "UI", uidValue("1.2.840.10008.5.1.4.1.1.7")),
		explicitLE(SOPInstanceUIDTag, "UI", uidValue("1.2.3.4.5.6")),
		explicitLE(StudyDateTag, "DA", textValue("20180102")),
		explicitLE(ModalityTag, "CS", textValue("OT")),
		sequenceLE(ReferencedStudySequenceTag, false,
			itemLE(false, explicitLE(ReferencedSOPInstanceUIDTag, "UI", uidValue("1.2.3")))),
		sequenceLE(ReferencedImageSequenceTag, true,
			itemLE(true, explicitLE(ReferencedSOPInstanceUIDTag, "UI", uidValue("1.2.3.4"))),
			itemLE(false, explicitLE(ReferencedFrameNumberTag, "IS", textValue("1\\2")))),
		explicitLE(0x00090010, "LO", textValue("ACME")),
		explicitLE(0x00091001, "ZZ", []byte{0x01, 0x02, 0x03, 0x04}),
		explicitLE(PatientNameTag, "PN", textValue("Doe^John")),
		explicitLE(PatientIDTag, "LO", textValue("12345")),
		explicitLE(PatientWeightTag, "DS", textValue("71.5")),
		explicitLE(SliceThicknessTag, "DS", textValue("2.5")),
		explicitLE(EchoTimeTag, "FD", u32(binary.LittleEndian, 0, 0x40240000)),
		explicitLE(SeriesNumberTag, "IS", textValue("3")),
		explicitLE(SamplesPerPixelTag, "US", u16(binary.LittleEndian, 1)),
		explicitLE(RowsTag, "US", u16(binary.LittleEndian, 2)),
		explicitLE(ColumnsTag, "US", u16(binary.LittleEndian, 2)),
		explicitLE(BitsAllocatedTag, "US", u16(binary.LittleEndian, 8)),
		explicitLE(PixelDataTag, "OB", []byte{0x01, 0x02, 0x03, 0x04}),
	)
}

func TestParse(t *testing.T) {
	in := fileBytes(ExplicitVRLittleEndianUID, sampleBody())

	f, err := Parse(bytes.NewReader(in))
	if err != nil {
		t.Fatalf("Parse(_) => %v, want nil error", err)
	}
	if got := Classify(f, err); got != Complete {
		t.Fatalf("Classify(_) => %v, want %v", got, Complete)
	}
	if len(f.Preamble) != preambleSize {
		t.Fatalf("len(Preamble) => %v, want %v", len(f.Preamble), preambleSize)
	}
	if f.TransferSyntaxUID != ExplicitVRLittleEndianUID || f.TransferSyntax != ExplicitVRLittleEndian {
		t.Fatalf("transfer syntax => (%q, %v), want (%q, %v)", f.TransferSyntaxUID, f.TransferSyntax,
			ExplicitVRLittleEndianUID, ExplicitVRLittleEndian)
	}
	if got := f.Meta.Len(); got != 5 {
		t.Fatalf("Meta.Len() => %v, want 5", got)
	}
	if got := f.DataSet.Len(); got != 20 {
		t.Fatalf("DataSet.Len() => %v, want 20", got)
	}
	for _, tag := range f.DataSet.Tags() {
		if tag.IsMetaElement() {
			t.Fatalf("meta element %v in the data set", tag)
		}
	}
	if name, _ := f.DataSet.StringValue(PatientNameTag); name != "Doe^John" {
		t.Fatalf("StringValue(PatientName) => %q, want Doe^John", name)
	}
	items, err := f.DataSet.Items(ReferencedImageSequenceTag)
	if err != nil || len(items) != 2 {
		t.Fatalf("Items(ReferencedImageSequence) => (%v, %v), want 2 items", items, err)
	}
	if frames, _ := items[1].Ints(ReferencedFrameNumberTag); !reflect.DeepEqual(frames, []int64{1, 2}) {
		t.Fatalf("Ints(ReferencedFrameNumber) => %v, want [1 2]", frames)
	}
}

func TestParse_deterministic(t *testing.T) {
	in := fileBytes(ExplicitVRLittleEndianUID, sampleBody())
	f1, f2 := mustParse(t, in), mustParse(t, in)
	if !reflect.DeepEqual(f1, f2) {
		t.Fatalf("parsing the same input twice gave different results")
	}
	if f1.DataSet.String() != f2.DataSet.String() {
		t.Fatalf("parsing the same input twice gave different dumps")
	}
}

func TestParse_noPreamble(t *testing.T) {
	in := concat([]byte(magic), metaLE(ExplicitVRLittleEndianUID), explicitLE(PatientIDTag, "LO", textValue("ID")))

	f := mustParse(t, in)
	if f.Preamble != nil {
		t.Fatalf("Preamble => %v, want nil", f.Preamble)
	}
	if id, _ := f.DataSet.StringValue(PatientIDTag); id != "ID" {
		t.Fatalf("StringValue(PatientID) => %q, want ID", id)
	}
}

func TestParse_failures(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want error
	}{
		{"empty input", nil, ErrNotDICOM},
		{"no signature", make([]byte, 200), ErrNotDICOM},
		{"unknown transfer syntax", fileBytes("1.2.3.4", explicitLE(PatientIDTag, "LO", textValue("ID"))), ErrUnknownTransferSyntax},
		{
			"missing transfer syntax",
			concat(make([]byte, preambleSize), []byte(magic), explicitLE(MediaStorageSOPInstanceUIDTag, "UI", uidValue("1.2")),
				explicitLE(PatientIDTag, "LO", textValue("ID"))),
			ErrUnknownTransferSyntax,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f, err := ParseBytes(tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("ParseBytes(_) => %v, want %v", err, tc.want)
			}
			if f != nil {
				t.Fatalf("ParseBytes(_) => %v, want nil file", f)
			}
			if got := Classify(f, err); got != Failed {
				t.Fatalf("Classify(_) => %v, want %v", got, Failed)
			}
		})
	}
}

func TestParse_fallbackSyntax(t *testing.T) {
	in := fileBytes("1.2.3.4", implicitLE(PatientIDTag, textValue("ID")))

	f := mustParse(t, in, WithFallbackSyntax(ImplicitVRLittleEndian))
	if !f.FallbackUsed {
		t.Fatalf("FallbackUsed => false, want true")
	}
	if f.TransferSyntaxUID != "1.2.3.4" || f.TransferSyntax != ImplicitVRLittleEndian {
		t.Fatalf("transfer syntax => (%q, %v), want (\"1.2.3.4\", %v)", f.TransferSyntaxUID, f.TransferSyntax, ImplicitVRLittleEndian)
	}
	if id, _ := f.DataSet.StringValue(PatientIDTag); id != "ID" {
		t.Fatalf("StringValue(PatientID) => %q, want ID", id)
	}
}

func TestParse_syntaxes(t *testing.T) {
	var deflated bytes.Buffer
	fw, err := flate.NewWriter(&deflated, flate.BestCompression)
	if err != nil {
		t.Fatalf("flate.NewWriter => %v", err)
	}
	if _, err := fw.Write(sampleBody()); err != nil {
		t.Fatalf("deflating: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("deflating: %v", err)
	}

	bigEndian := concat(
		explicitBE(PatientNameTag, "PN", textValue("Doe^John")),
		explicitBE(PatientIDTag, "LO", textValue("12345")),
		explicitBE(RowsTag, "US", u16(binary.BigEndian, 2)),
		explicitBE(ColumnsTag, "US", u16(binary.BigEndian, 2)),
	)
	implicit := concat(
		implicitLE(PatientNameTag, textValue("Doe^John")),
		implicitLE(PatientIDTag, textValue("12345")),
		implicitLE(RowsTag, u16(binary.LittleEndian, 2)),
		implicitLE(ColumnsTag, u16(binary.LittleEndian, 2)),
	)

	tests := []struct {
		name string
		in   []byte
	}{
		{"Explicit VR Little Endian", fileBytes(ExplicitVRLittleEndianUID, sampleBody())},
		{"Implicit VR Little Endian", fileBytes(ImplicitVRLittleEndianUID, implicit)},
		{"Explicit VR Big Endian", fileBytes(ExplicitVRBigEndianUID, bigEndian)},
		{"Deflated Explicit VR Little Endian", fileBytes(DeflatedExplicitVRLittleEndianUID, deflated.Bytes())},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := mustParse(t, tc.in)
			if name, err := f.DataSet.StringValue(PatientNameTag); err != nil || name != "Doe^John" {
				t.Fatalf("StringValue(PatientName) => (%q, %v), want (\"Doe^John\", nil)", name, err)
			}
			if id, err := f.DataSet.StringValue(PatientIDTag); err != nil || id != "12345" {
				t.Fatalf("StringValue(PatientID) => (%q, %v), want (\"12345\", nil)", id, err)
			}
			if rows, err := f.DataSet.IntValue(RowsTag); err != nil || rows != 2 {
				t.Fatalf("IntValue(Rows) => (%v, %v), want (2, nil)", rows, err)
			}
		})
	}
}

func TestParse_deflatedOffsets(t *testing.T) {
	body := explicitLE(PatientIDTag, "LO", textValue("ID"))
	var deflated bytes.Buffer
	fw, _ := flate.NewWriter(&deflated, flate.DefaultCompression)
	fw.Write(body)
	fw.Close()

	f := mustParse(t, fileBytes(DeflatedExplicitVRLittleEndianUID, deflated.Bytes()))
	// offsets are positions in the inflated stream
	if got := mustGet(t, f.DataSet, PatientIDTag).Offset; got != 8 {
		t.Fatalf("Offset => %v, want 8", got)
	}
}

func TestParse_truncatedLeafValues(t *testing.T) {
	in := fileBytes(ExplicitVRLittleEndianUID, sampleBody())
	f := mustParse(t, in)

	for _, elem := range f.DataSet.Elements() {
		if _, ok := elem.ValueField.(*Sequence); ok || elem.ValueLength == 0 {
			continue
		}
		for cut := elem.Offset; cut < elem.Offset+int64(elem.ValueLength); cut++ {
			partial, err := ParseBytes(in[:cut])
			if !errors.Is(err, ErrTruncatedElement) {
				t.Fatalf("cutting %v at %d: ParseBytes(_) => %v, want %v", elem.Tag, cut, err, ErrTruncatedElement)
			}
			if got := Classify(partial, err); got != Partial {
				t.Fatalf("cutting %v at %d: Classify(_) => %v, want %v", elem.Tag, cut, got, Partial)
			}
			if len(partial.Diagnostics) != 1 || partial.Diagnostics[0] != err {
				t.Fatalf("cutting %v at %d: Diagnostics => %v, want [%v]", elem.Tag, cut, partial.Diagnostics, err)
			}
			got := mustGet(t, partial.DataSet, elem.Tag)
			if !got.Incomplete {
				t.Fatalf("cutting %v at %d: element not flagged incomplete", elem.Tag, cut)
			}
			tags := partial.DataSet.Tags()
			if tags[len(tags)-1] != elem.Tag {
				t.Fatalf("cutting %v at %d: last tag => %v, want the truncated element", elem.Tag, cut, tags[len(tags)-1])
			}
		}
	}
}

func TestParse_truncatedMetaValues(t *testing.T) {
	in := fileBytes(ExplicitVRLittleEndianUID, sampleBody())
	f := mustParse(t, in)

	for _, elem := range f.Meta.Elements() {
		for cut := elem.Offset; cut < elem.Offset+int64(elem.ValueLength); cut++ {
			partial, err := ParseBytes(in[:cut])
			if !errors.Is(err, ErrTruncatedElement) {
				t.Fatalf("cutting %v at %d: ParseBytes(_) => %v, want %v", elem.Tag, cut, err, ErrTruncatedElement)
			}
			if got := Classify(partial, err); got != Partial {
				t.Fatalf("cutting %v at %d: Classify(_) => %v, want %v", elem.Tag, cut, got, Partial)
			}
			if len(partial.Diagnostics) != 1 || partial.Diagnostics[0] != err {
				t.Fatalf("cutting %v at %d: Diagnostics => %v, want [%v]", elem.Tag, cut, partial.Diagnostics, err)
			}
			if got := mustGet(t, partial.Meta, elem.Tag); !got.Incomplete {
				t.Fatalf("cutting %v at %d: element not flagged incomplete", elem.Tag, cut)
			}
			for _, before := range f.Meta.Elements() {
				if before.Offset >= elem.Offset {
					continue
				}
				got := mustGet(t, partial.Meta, before.Tag)
				if got.Incomplete || !reflect.DeepEqual(got.ValueField, before.ValueField) {
					t.Fatalf("cutting %v at %d: %v => %v, want %v", elem.Tag, cut, before.Tag, got, before)
				}
			}
			if partial.DataSet == nil || partial.DataSet.Len() != 0 {
				t.Fatalf("cutting %v at %d: DataSet => %v, want an empty data set", elem.Tag, cut, partial.DataSet)
			}
		}
	}
}

func TestParse_damagedDefinedLengthSequence(t *testing.T) {
	// the item declares 10 bytes, its Patient ID declares 20 of them
	item := concat(tagBytes(binary.LittleEndian, ItemTag), u32(binary.LittleEndian, 10),
		explicitHeader(binary.LittleEndian, PatientIDTag, "LO", 20), []byte("AB"))
	in := fileBytes(ExplicitVRLittleEndianUID,
		concat(explicitHeader(binary.LittleEndian, ReferencedImageSequenceTag, "SQ", uint32(len(item))), item),
		explicitLE(PatientNameTag, "PN", textValue("Doe^John")),
		explicitLE(StudyInstanceUIDTag, "UI", uidValue("1.2.3.1")),
		explicitLE(SeriesInstanceUIDTag, "UI", uidValue("1.2.3.2")),
	)

	f, err := ParseBytes(in)
	if !errors.Is(err, ErrTruncatedElement) {
		t.Fatalf("ParseBytes(_) => %v, want %v", err, ErrTruncatedElement)
	}
	if got := Classify(f, err); got != Partial {
		t.Fatalf("Classify(_) => %v, want %v", got, Partial)
	}
	var de *DecodeError
	if !errors.As(err, &de) || de.Tag != PatientIDTag || de.Depth != 1 {
		t.Fatalf("ParseBytes(_) => %v, want a *DecodeError for %v at depth 1", err, PatientIDTag)
	}
	if len(f.Diagnostics) != 1 || f.Diagnostics[0] != err {
		t.Fatalf("Diagnostics => %v, want [%v]", f.Diagnostics, err)
	}

	want := []Tag{ReferencedImageSequenceTag, PatientNameTag, StudyInstanceUIDTag, SeriesInstanceUIDTag}
	if got := f.DataSet.Tags(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Tags() => %v, want %v", got, want)
	}
	if uid, _ := f.DataSet.StringValue(SeriesInstanceUIDTag); uid != "1.2.3.2" {
		t.Fatalf("StringValue(SeriesInstanceUID) => %q, want 1.2.3.2", uid)
	}
	seq := mustGet(t, f.DataSet, ReferencedImageSequenceTag)
	if !seq.Incomplete {
		t.Fatalf("damaged sequence not flagged incomplete")
	}
	items, err := seq.Items()
	if err != nil || len(items) != 1 {
		t.Fatalf("Items() => (%v, %v), want 1 item", items, err)
	}
	if got := mustGet(t, items[0], PatientIDTag); !got.Incomplete {
		t.Fatalf("truncated nested element not flagged incomplete")
	}
}

func TestParse_diagnosticsInStreamOrder(t *testing.T) {
	damaged := func(tag Tag) []byte {
		item := concat(tagBytes(binary.LittleEndian, ItemTag), u32(binary.LittleEndian, 10),
			explicitHeader(binary.LittleEndian, PatientIDTag, "LO", 20), []byte("AB"))
		return concat(explicitHeader(binary.LittleEndian, tag, "SQ", uint32(len(item))), item)
	}
	in := fileBytes(ExplicitVRLittleEndianUID,
		damaged(ReferencedStudySequenceTag),
		damaged(ReferencedImageSequenceTag),
		explicitLE(PatientNameTag, "PN", textValue("Doe^John")),
		[]byte{0x10, 0x00, 0x20, 0x00, 'L', 'O', 0x10, 0x00, 'I', 'D'},
	)

	f, err := ParseBytes(in)
	if len(f.Diagnostics) != 3 || f.Diagnostics[0] != err {
		t.Fatalf("ParseBytes(_) => %v with diagnostics %v, want 3 diagnostics, the first returned", err, f.Diagnostics)
	}
	for i := 1; i < len(f.Diagnostics); i++ {
		if f.Diagnostics[i-1].Offset >= f.Diagnostics[i].Offset {
			t.Fatalf("Diagnostics => %v, want increasing offsets", f.Diagnostics)
		}
	}
	if last := f.Diagnostics[2]; last.Depth != 0 || last.Tag != PatientIDTag {
		t.Fatalf("last diagnostic => %v, want the top level %v", last, PatientIDTag)
	}
	if name, _ := f.DataSet.StringValue(PatientNameTag); name != "Doe^John" {
		t.Fatalf("StringValue(PatientName) => %q, want Doe^John", name)
	}
}

func TestParse_maxDepth(t *testing.T) {
	in := fileBytes(ExplicitVRLittleEndianUID,
		explicitLE(PatientIDTag, "LO", textValue("ID")), nestedSequences(100))

	f, err := ParseBytes(in)
	if !errors.Is(err, ErrMaxDepthExceeded) {
		t.Fatalf("ParseBytes(_) => %v, want %v", err, ErrMaxDepthExceeded)
	}
	if got := Classify(f, err); got != Partial {
		t.Fatalf("Classify(_) => %v, want %v", got, Partial)
	}
	if id, _ := f.DataSet.StringValue(PatientIDTag); id != "ID" {
		t.Fatalf("StringValue(PatientID) => %q, want ID", id)
	}
	var de *DecodeError
	if !errors.As(err, &de) || de.Depth != DefaultMaxDepth+1 {
		t.Fatalf("ParseBytes(_) => %v, want a *DecodeError at depth %d", err, DefaultMaxDepth+1)
	}

	if _, err := ParseBytes(in, WithMaxDepth(100)); err != nil {
		t.Fatalf("ParseBytes(_, WithMaxDepth(100)) => %v, want nil error", err)
	}
	if _, err := ParseBytes(in, WithMaxDepth(99)); !errors.Is(err, ErrMaxDepthExceeded) {
		t.Fatalf("ParseBytes(_, WithMaxDepth(99)) => %v, want %v", err, ErrMaxDepthExceeded)
	}
}

func TestParse_cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f, err := ParseBytesContext(ctx, fileBytes(ExplicitVRLittleEndianUID, sampleBody()))
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("ParseBytesContext(_) => %v, want %v", err, ErrCancelled)
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("ParseBytesContext(_) => %v, want it to carry %v", err, context.Canceled)
	}
	if f != nil {
		t.Fatalf("ParseBytesContext(_) => %v, want nil file", f)
	}
}

func TestParse_duplicateTags(t *testing.T) {
	in := fileBytes(ExplicitVRLittleEndianUID,
		explicitLE(PatientNameTag, "PN", textValue("Doe")),
		explicitLE(PatientIDTag, "LO", textValue("first")),
		explicitLE(PatientSexTag, "CS", textValue("F")),
		explicitLE(PatientIDTag, "LO", textValue("second")),
	)

	f := mustParse(t, in)
	if id, _ := f.DataSet.StringValue(PatientIDTag); id != "second" {
		t.Fatalf("StringValue(PatientID) => %q, want the last occurrence", id)
	}
	want := []Tag{PatientNameTag, PatientSexTag, PatientIDTag}
	if got := f.DataSet.Tags(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Tags() => %v, want %v", got, want)
	}
}

func TestParse_strayDelimiters(t *testing.T) {
	in := fileBytes(ExplicitVRLittleEndianUID,
		explicitLE(PatientNameTag, "PN", textValue("Doe")),
		delimiterLE(ItemDelimitationItemTag),
		delimiterLE(SequenceDelimitationItemTag),
		explicitLE(PatientIDTag, "LO", textValue("ID")),
	)

	f := mustParse(t, in)
	if got := f.DataSet.Len(); got != 2 {
		t.Fatalf("Len() => %v, want 2", got)
	}
}

func TestParseDataSet_contract(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if ds, err := ParseDataSetContext(ctx, explicitLE(PatientIDTag, "LO", textValue("ID")), ExplicitVRLittleEndian); ds != nil || !errors.Is(err, ErrCancelled) {
		t.Fatalf("ParseDataSetContext(cancelled) => (%v, %v), want (nil, %v)", ds, err, ErrCancelled)
	}

	ds, err := ParseDataSet(nil, ExplicitVRLittleEndian)
	if err != nil || ds.Len() != 0 {
		t.Fatalf("ParseDataSet(nil) => (%v, %v), want an empty data set", ds, err)
	}
}
