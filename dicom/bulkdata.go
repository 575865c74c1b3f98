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
	"encoding/binary"
	"fmt"
)

// BulkDataReference describes the location of a contiguous sequence of bytes in a file
type BulkDataReference struct {
	Reference ByteRegion
}

// ByteRegion is a contiguous sequence of bytes in a file described by an Offset and a length
type ByteRegion struct {
	Offset int64
	Length int64
}

// Fragment is one item of encapsulated pixel data.
type Fragment struct {
	Data []byte

	// Offset is the position of Data in the decoded stream
	Offset int64
}

// EncapsulatedPixelData represents image pixel data (7FE0,0010) in encapsulated format as
// described in http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_A.4.
// The first fragment is the Basic Offset Table, which may be empty.
type EncapsulatedPixelData struct {
	Fragments []Fragment
}

// OffsetTable decodes the Basic Offset Table. It is nil when the table is empty.
func (p *EncapsulatedPixelData) OffsetTable() []uint32 {
	if len(p.Fragments) == 0 || len(p.Fragments[0].Data) < 4 {
		return nil
	}
	b := p.Fragments[0].Data
	offsets := make([]uint32, len(b)/4)
	for i := range offsets {
		offsets[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return offsets
}

// ImageFragments returns the fragments following the Basic Offset Table.
func (p *EncapsulatedPixelData) ImageFragments() []Fragment {
	if len(p.Fragments) == 0 {
		return nil
	}
	return p.Fragments[1:]
}

// References returns the location of every fragment, the Basic Offset Table included.
func (p *EncapsulatedPixelData) References() []BulkDataReference {
	refs := make([]BulkDataReference, len(p.Fragments))
	for i, f := range p.Fragments {
		refs[i] = BulkDataReference{ByteRegion{f.Offset, int64(len(f.Data))}}
	}
	return refs
}

// DefaultBulkDataDefinition returns true if and only if the tag corresponds to a data element
// that contains large non-metadata fields
func DefaultBulkDataDefinition(elem *DataElement) bool {
	// Tags in the DICOM data dictionary have wildcards (e.g. tags like (gggg,eexx), (ggxx,eeee))
	// The tag constants store the value of the tag with the x's set to '0' in hex.
	// For example the Curve Data tag is defined as (50xx,3000). The variable
	// CurveDataTag = 0x50003000. So we can check if a given tag is of the form (50xx,3000) from
	// the condition (tag & 0xFF00FFFF) == CurveDataTag.
	//
	// The value 0xFFFFFFFF is included in the list of masks for convenience since
	// (tag & 0xFFFFFFFF) == tag
	for _, m := range []uint32{0xFF00FFFF, 0xFFFFFFFF} {
		switch Tag(uint32(elem.Tag) & m) {
		case PixelDataProviderURLTag, AudioSampleDataTag, CurveDataTag, SpectroscopyDataTag,
			OverlayDataTag, EncapsulatedDocumentTag, FloatPixelDataTag, DoubleFloatPixelDataTag,
			PixelDataTag, WaveformDataTag:
			return true
		}
	}
	return false
}

// referenceBulkData replaces the value of opaque bulk elements by their location in the stream.
func referenceBulkData(element *DataElement, isBulkData func(*DataElement) bool) (*DataElement, error) {
	if !isBulkData(element) {
		return element, nil
	}
	switch v := element.ValueField.(type) {
	case *EncapsulatedPixelData:
		element.ValueField = v.References()
	case []byte:
		element.ValueField = []BulkDataReference{{ByteRegion{element.Offset, int64(len(v))}}}
	case []BulkDataReference:
	case []string:
		// PixelDataProviderURL holds the location of the data, not the data
	default:
		if element.VR == nil || element.VR.kind != bulkDataVR {
			return element, nil
		}
		element.ValueField = []BulkDataReference{{ByteRegion{element.Offset, int64(element.ValueLength)}}}
	}
	return element, nil
}

// PixelDataRegion returns the location of the Pixel Data value in the decoded stream. For
// encapsulated pixel data the region spans every fragment including item headers.
func PixelDataRegion(ds *DataSet) (ByteRegion, error) {
	elem, ok := ds.Get(PixelDataTag)
	if !ok {
		return ByteRegion{}, fmt.Errorf("%v: %w", PixelDataTag, ErrNotFound)
	}
	switch v := elem.ValueField.(type) {
	case *EncapsulatedPixelData:
		if len(v.Fragments) == 0 {
			return ByteRegion{elem.Offset, 0}, nil
		}
		last := v.Fragments[len(v.Fragments)-1]
		return ByteRegion{elem.Offset, last.Offset + int64(len(last.Data)) - elem.Offset}, nil
	case []BulkDataReference:
		if len(v) == 0 {
			return ByteRegion{elem.Offset, 0}, nil
		}
		last := v[len(v)-1].Reference
		return ByteRegion{elem.Offset, last.Offset + last.Length - elem.Offset}, nil
	case []byte:
		return ByteRegion{elem.Offset, int64(len(v))}, nil
	}
	return ByteRegion{elem.Offset, int64(elem.ValueLength)}, nil
}
