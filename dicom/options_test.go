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
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func encapsulatedPixelData() []byte {
	return concat(
		undefinedLE(PixelDataTag, "OB"),
		itemLE(false, u32(binary.LittleEndian, 0)),
		itemLE(false, []byte{0x12, 0x23}),
		delimiterLE(SequenceDelimitationItemTag),
	)
}

func TestParseOptions_filters(t *testing.T) {
	in := fileBytes(ExplicitVRLittleEndianUID,
		explicitLE(0x00080000, "UL", u32(binary.LittleEndian, 10)),
		explicitLE(SOPInstanceUIDTag, "UI", uidValue("1.2.3")),
		explicitLE(0x00090010, "LO", textValue("ACME")),
		explicitLE(0x00091001, "OB", []byte{1, 2}),
		sequenceLE(ReferencedImageSequenceTag, true, itemLE(true,
			explicitLE(0x00090010, "LO", textValue("ACME")),
			explicitLE(ReferencedSOPInstanceUIDTag, "UI", uidValue("1.2")))),
		explicitLE(PatientIDTag, "LO", textValue("ID")),
	)

	tests := []struct {
		name   string
		opts   []ParseOption
		tags   []Tag
		nested []Tag
	}{
		{
			"no option",
			nil,
			[]Tag{0x00080000, SOPInstanceUIDTag, 0x00090010, 0x00091001, ReferencedImageSequenceTag, PatientIDTag},
			[]Tag{0x00090010, ReferencedSOPInstanceUIDTag},
		},
		{
			"drop group lengths",
			[]ParseOption{DropGroupLengths},
			[]Tag{SOPInstanceUIDTag, 0x00090010, 0x00091001, ReferencedImageSequenceTag, PatientIDTag},
			[]Tag{0x00090010, ReferencedSOPInstanceUIDTag},
		},
		{
			"drop private elements at every level",
			[]ParseOption{DropPrivateElements},
			[]Tag{0x00080000, SOPInstanceUIDTag, ReferencedImageSequenceTag, PatientIDTag},
			[]Tag{ReferencedSOPInstanceUIDTag},
		},
		{
			"both",
			[]ParseOption{DropPrivateElements, DropGroupLengths},
			[]Tag{SOPInstanceUIDTag, ReferencedImageSequenceTag, PatientIDTag},
			[]Tag{ReferencedSOPInstanceUIDTag},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := mustParse(t, in, tc.opts...)
			if got := f.DataSet.Tags(); !reflect.DeepEqual(got, tc.tags) {
				t.Fatalf("Tags() => %v, want %v", got, tc.tags)
			}
			items, _ := f.DataSet.Items(ReferencedImageSequenceTag)
			if got := items[0].Tags(); !reflect.DeepEqual(got, tc.nested) {
				t.Fatalf("nested Tags() => %v, want %v", got, tc.nested)
			}
			if _, ok := f.Meta.Get(FileMetaInformationGroupLengthTag); !ok {
				t.Fatalf("meta group length was filtered, want meta elements left alone")
			}
		})
	}
}

func TestWithTransform_postOrder(t *testing.T) {
	in := fileBytes(ExplicitVRLittleEndianUID,
		sequenceLE(ReferencedImageSequenceTag, true, itemLE(true,
			explicitLE(ReferencedSOPInstanceUIDTag, "UI", uidValue("1.2")))),
		explicitLE(PatientIDTag, "LO", textValue("ID")),
	)

	var visited []Tag
	mustParse(t, in, WithTransform(func(elem *DataElement) (*DataElement, error) {
		visited = append(visited, elem.Tag)
		return elem, nil
	}))

	want := []Tag{ReferencedSOPInstanceUIDTag, ReferencedImageSequenceTag, PatientIDTag}
	if !reflect.DeepEqual(visited, want) {
		t.Fatalf("transform visited %v, want %v", visited, want)
	}
}

func TestWithTransform_error(t *testing.T) {
	in := fileBytes(ExplicitVRLittleEndianUID, explicitLE(PatientIDTag, "LO", textValue("ID")))
	failure := errors.New("rejected")

	f, err := ParseBytes(in, WithTransform(func(elem *DataElement) (*DataElement, error) {
		return nil, failure
	}))
	if err == nil || !strings.Contains(err.Error(), "rejected") {
		t.Fatalf("ParseBytes(_) => %v, want the transform error", err)
	}
	if f != nil {
		t.Fatalf("ParseBytes(_) => %v, want nil file", f)
	}
}

func TestStopAtTag(t *testing.T) {
	in := fileBytes(ExplicitVRLittleEndianUID,
		sequenceLE(ReferencedImageSequenceTag, true, itemLE(true,
			explicitLE(ReferencedSOPInstanceUIDTag, "UI", uidValue("1.2")),
			explicitLE(PixelDataTag, "OB", []byte{1, 2}))),
		explicitLE(PatientIDTag, "LO", textValue("ID")),
		explicitLE(RowsTag, "US", u16(binary.LittleEndian, 2)),
		explicitLE(PixelDataTag, "OB", []byte{1, 2, 3, 4}),
	)

	tests := []struct {
		name string
		opt  ParseOption
		tags []Tag
	}{
		{"skip pixel data", SkipPixelData, []Tag{ReferencedImageSequenceTag, PatientIDTag, RowsTag}},
		{"stop at an absent tag", StopAtTag(PatientBirthDateTag), []Tag{ReferencedImageSequenceTag, PatientIDTag}},
		{"stop at the first tag", StopAtTag(0), []Tag{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := mustParse(t, in, tc.opt)
			if got := f.DataSet.Tags(); !reflect.DeepEqual(got, tc.tags) {
				t.Fatalf("Tags() => %v, want %v", got, tc.tags)
			}
			if items, err := f.DataSet.Items(ReferencedImageSequenceTag); err == nil && items[0].Len() != 2 {
				t.Fatalf("nested data set was cut: %v", items[0])
			}
		})
	}
}

func TestReferenceBulkData(t *testing.T) {
	in := fileBytes(ExplicitVRLittleEndianUID,
		explicitLE(PatientIDTag, "LO", textValue("ID")),
		explicitLE(PixelDataTag, "OW", []byte{1, 2, 3, 4}),
	)
	f := mustParse(t, in, ReferenceBulkData(DefaultBulkDataDefinition))
	elem := mustGet(t, f.DataSet, PixelDataTag)
	want := []BulkDataReference{{ByteRegion{Offset: int64(len(in) - 4), Length: 4}}}
	if !reflect.DeepEqual(elem.ValueField, want) {
		t.Fatalf("ValueField => %v, want %v", elem.ValueField, want)
	}
	region, err := PixelDataRegion(f.DataSet)
	if err != nil || region != want[0].Reference {
		t.Fatalf("PixelDataRegion(_) => (%v, %v), want (%v, nil)", region, err, want[0].Reference)
	}
	if id, _ := f.DataSet.StringValue(PatientIDTag); id != "ID" {
		t.Fatalf("non bulk element was changed: %q", id)
	}
}

func TestReferenceBulkData_encapsulated(t *testing.T) {
	in := fileBytes(JPEGBaselineUID, encapsulatedPixelData())
	start := int64(len(in) - len(encapsulatedPixelData()))

	f := mustParse(t, in, ReferenceBulkData(DefaultBulkDataDefinition))
	elem := mustGet(t, f.DataSet, PixelDataTag)
	want := []BulkDataReference{
		{ByteRegion{Offset: start + 20, Length: 4}},
		{ByteRegion{Offset: start + 32, Length: 2}},
	}
	if !reflect.DeepEqual(elem.ValueField, want) {
		t.Fatalf("ValueField => %v, want %v", elem.ValueField, want)
	}
}

func TestDropBasicOffsetTable(t *testing.T) {
	f := mustParse(t, fileBytes(JPEGBaselineUID, encapsulatedPixelData()), DropBasicOffsetTable)
	px := mustGet(t, f.DataSet, PixelDataTag).ValueField.(*EncapsulatedPixelData)
	if len(px.Fragments) != 2 || len(px.Fragments[0].Data) != 0 {
		t.Fatalf("Fragments => %v, want an empty offset table and one image fragment", px.Fragments)
	}
	if px.OffsetTable() != nil {
		t.Fatalf("OffsetTable() => %v, want nil", px.OffsetTable())
	}
}

func TestWithLogger(t *testing.T) {
	in := fileBytes(ExplicitVRLittleEndianUID,
		explicitLE(PatientIDTag, "LO", textValue("first")),
		explicitLE(PatientIDTag, "LO", textValue("second")),
		explicitLE(0x00091001, "ZZ", []byte{1, 2}),
	)

	var buf bytes.Buffer
	mustParse(t, in, WithLogger(zerolog.New(&buf).Level(zerolog.DebugLevel)))
	for _, msg := range []string{"duplicate tag", "unknown VR"} {
		if !strings.Contains(buf.String(), msg) {
			t.Fatalf("log %q does not mention %q", buf.String(), msg)
		}
	}
}

func TestDefaultBulkDataDefinition(t *testing.T) {
	tests := []struct {
		tag  Tag
		want bool
	}{
		{PixelDataTag, true},
		{FloatPixelDataTag, true},
		{0x60023000, true},
		{0x50043000, true},
		{EncapsulatedDocumentTag, true},
		{PatientNameTag, false},
		{0x60020010, false},
	}
	for _, tc := range tests {
		t.Run(tc.tag.String(), func(t *testing.T) {
			if got := DefaultBulkDataDefinition(&DataElement{Tag: tc.tag}); got != tc.want {
				t.Fatalf("DefaultBulkDataDefinition(%v) => %v, want %v", tc.tag, got, tc.want)
			}
		})
	}
}
