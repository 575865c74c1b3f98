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
	"strconv"
	"strings"
)

// Tag is a unique identifier for a Data Element composed of an ordered pair of numbers called the
// group number and the element number as specified in
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_3.10.
//
// The least significant 16 bits is the element number. The most significant 16 bits is the group
// number, so comparing two Tags as integers orders them by (group, element).
type Tag uint32

// NewTag returns the Tag for the given group and element numbers.
func NewTag(group, element uint16) Tag {
	return Tag(uint32(group)<<16 | uint32(element))
}

// Group returns the group number component of the Tag
func (t Tag) Group() uint16 {
	return uint16(t >> 16)
}

// Element returns the element number component of the Tag
func (t Tag) Element() uint16 {
	return uint16(t & 0xFFFF)
}

// IsMetaElement is true if and only if the tag belongs to the File Meta Information group (0002)
func (t Tag) IsMetaElement() bool {
	return t.Group() == 0x0002
}

// IsPrivate is true if the group number is odd
func (t Tag) IsPrivate() bool {
	return t.Group()%2 == 1
}

// IsPrivateCreator is true for (gggg,0010-00FF) where gggg is odd
func (t Tag) IsPrivateCreator() bool {
	return t.IsPrivate() && t.Element() >= 0x0010 && t.Element() <= 0x00FF
}

// IsGroupLength is true for (gggg,0000)
func (t Tag) IsGroupLength() bool {
	return t.Element() == 0
}

// isDelimiter is true for the item and delimitation tags of group FFFE. They are never stored in
// a DataSet.
func (t Tag) isDelimiter() bool {
	return t == ItemTag || t == ItemDelimitationItemTag || t == SequenceDelimitationItemTag
}

func (t Tag) String() string {
	return fmt.Sprintf("(%04X,%04X)", t.Group(), t.Element())
}

// ParseTag parses "gggg,eeee", "(gggg,eeee)" or "ggggeeee" in hexadecimal, or a dictionary
// keyword such as "PatientName".
func ParseTag(s string) (Tag, error) {
	s = strings.TrimSpace(s)
	if t, ok := LookupKeyword(s); ok {
		return t, nil
	}

	hex := strings.Trim(s, "()")
	hex = strings.ReplaceAll(hex, ",", "")
	if len(hex) != 8 {
		return 0, fmt.Errorf("invalid tag %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid tag %q: %v", s, err)
	}
	return Tag(v), nil
}
