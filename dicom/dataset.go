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
	"fmt"
	"sort"
	"strings"
)

// DataElement models a DICOM Data Element as defined in
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_3.10
type DataElement struct {
	Tag Tag

	// Value Representation
	VR *VR

	// ValueField represents the field within a Data Element that contains its value(s)
	// Can be any of of the following types:
	// []string,
	// []byte
	// []int16,
	// []uint16,
	// []int32,
	// []uint32,
	// []int64,
	// []uint64,
	// []float32,
	// []float64
	// []Tag
	// []BulkDataReference
	// *EncapsulatedPixelData
	// *Sequence
	ValueField interface{}

	// ValueLength is equal to the length of the ValueField in bytes as read from the stream.
	// Can be equal to 0xFFFFFFFF to represent an undefined length:
	// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.1
	ValueLength uint32

	// Offset is the position of the value field in the decoded stream
	Offset int64

	// Incomplete is true when the stream ended before the whole value could be read. ValueField
	// then holds whatever could be decoded.
	Incomplete bool
}

func (e *DataElement) String() string {
	return e.string(0)
}

func (e *DataElement) string(indentLvl int) string {
	prefix := strings.Repeat(">", indentLvl)
	vr := "??"
	if e.VR != nil {
		vr = e.VR.Name
	}
	s := fmt.Sprintf("%s%v %s #%v ", prefix, e.Tag, vr, int64(e.ValueLength))
	if e.ValueLength == UndefinedLength {
		s = fmt.Sprintf("%s%v %s #u/l ", prefix, e.Tag, vr)
	}
	if e.Incomplete {
		s += "(incomplete) "
	}

	switch v := e.ValueField.(type) {
	case *Sequence:
		return s + v.string(indentLvl)
	case *EncapsulatedPixelData:
		return s + fmt.Sprintf("[%d fragments]", len(v.Fragments))
	case []byte:
		if len(v) > 16 {
			return s + fmt.Sprintf("[%d bytes]", len(v))
		}
		return s + fmt.Sprintf("%v", v)
	default:
		return s + fmt.Sprintf("%v", v)
	}
}

// DataSet models a DICOM Data Set as defined
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_3.10
//
// Elements are kept in the order they were added, which for decoded data sets is stream order.
// Each tag appears at most once.
type DataSet struct {
	elements map[Tag]*DataElement
	order    []Tag

	// Length is the item length read from the stream, UndefinedLength for delimited items and
	// for data sets that were not read from an item.
	Length uint32
}

// NewDataSet returns a DataSet with the given tag to value field mapping. VRs are filled in
// from the data dictionary and elements are ordered by tag.
func NewDataSet(elements map[Tag]interface{}) *DataSet {
	ds := &DataSet{Length: UndefinedLength}
	tags := make([]Tag, 0, len(elements))
	for t := range elements {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })

	for _, t := range tags {
		ds.Set(NewElement(t, elements[t]))
	}
	return ds
}

// NewElement returns a DataElement with the VR of the tag in the data dictionary. Sequences and
// encapsulated pixel data get an undefined length.
func NewElement(tag Tag, value interface{}) *DataElement {
	elem := &DataElement{Tag: tag, VR: tag.DictionaryVR(), ValueField: value}
	switch value.(type) {
	case *Sequence:
		elem.VR = SQVR
		elem.ValueLength = UndefinedLength
	case *EncapsulatedPixelData:
		elem.ValueLength = UndefinedLength
	}
	return elem
}

// Set adds the element to the data set. An element already present with the same tag is
// replaced and the tag moves to the end of the data set order.
func (ds *DataSet) Set(elem *DataElement) {
	if ds.elements == nil {
		ds.elements = map[Tag]*DataElement{}
	}
	if _, ok := ds.elements[elem.Tag]; ok {
		ds.removeFromOrder(elem.Tag)
	}
	ds.elements[elem.Tag] = elem
	ds.order = append(ds.order, elem.Tag)
}

// Delete removes the element with the given tag, if any.
func (ds *DataSet) Delete(tag Tag) {
	if _, ok := ds.elements[tag]; !ok {
		return
	}
	delete(ds.elements, tag)
	ds.removeFromOrder(tag)
}

func (ds *DataSet) removeFromOrder(tag Tag) {
	for i, t := range ds.order {
		if t == tag {
			ds.order = append(ds.order[:i:i], ds.order[i+1:]...)
			return
		}
	}
}

// Get returns the element with the given tag.
func (ds *DataSet) Get(tag Tag) (*DataElement, bool) {
	if ds == nil {
		return nil, false
	}
	e, ok := ds.elements[tag]
	return e, ok
}

// Len returns the number of elements in the data set.
func (ds *DataSet) Len() int {
	if ds == nil {
		return 0
	}
	return len(ds.order)
}

// Tags returns the tags of the data set in insertion order.
func (ds *DataSet) Tags() []Tag {
	if ds == nil {
		return []Tag{}
	}
	return append([]Tag{}, ds.order...)
}

// SortedTags returns the tags of the data set in ascending order.
func (ds *DataSet) SortedTags() []Tag {
	tags := ds.Tags()
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// Elements returns the elements of the data set in insertion order.
func (ds *DataSet) Elements() []*DataElement {
	tags := ds.Tags()
	elems := make([]*DataElement, len(tags))
	for i, t := range tags {
		elems[i] = ds.elements[t]
	}
	return elems
}

// SortedElements returns the elements of the data set ordered by tag.
func (ds *DataSet) SortedElements() []*DataElement {
	tags := ds.SortedTags()
	elems := make([]*DataElement, len(tags))
	for i, t := range tags {
		elems[i] = ds.elements[t]
	}
	return elems
}

// MetaElements returns a DataSet holding the File Meta Information elements (group 0002) of ds.
func (ds *DataSet) MetaElements() *DataSet {
	meta := &DataSet{Length: UndefinedLength}
	for _, e := range ds.Elements() {
		if e.Tag.IsMetaElement() {
			meta.Set(e)
		}
	}
	return meta
}

// Merge adds every element of other to ds, replacing elements with the same tag, and returns ds.
func (ds *DataSet) Merge(other *DataSet) *DataSet {
	for _, e := range other.Elements() {
		ds.Set(e)
	}
	return ds
}

func (ds *DataSet) String() string {
	return ds.string(0)
}

func (ds *DataSet) string(indentLvl int) string {
	lines := make([]string, 0, ds.Len())
	for _, e := range ds.Elements() {
		lines = append(lines, e.string(indentLvl))
	}
	return strings.Join(lines, "\n")
}
