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

// vrKind is to group common encodings together. Every VR belongs to exactly one kind and the
// decoder and encoder dispatch on it.
type vrKind int

const (
	// textVR is for value fields that will be interpreted as text with space padding
	textVR vrKind = iota

	// uniqueIdentifierVR is for VR: UI. It has null padding
	uniqueIdentifierVR

	// numberBinaryVR is for value fields that are parsed as fixed width binary numbers
	numberBinaryVR

	// bulkDataVR groups opaque byte sequences (OB, OW, UN) and the "other" number arrays
	bulkDataVR

	// tagVR is for VR: AT
	tagVR

	// sequenceVR is for VR: SQ
	sequenceVR
)

// UndefinedLength as specified
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.1
const UndefinedLength = 0xffffffff

// VR models the DICOM Value representations (VR)
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.2
type VR struct {
	// Name represents the 2-character VR Code
	Name string

	kind vrKind

	// width is the size in bytes of one value for binary VRs, 0 otherwise
	width int

	// longLength is true for VRs with a 2 byte reserved field and a 32 bit length in the
	// explicit VR syntaxes
	longLength bool

	// multiValued is true when values may be separated by a backslash
	multiValued bool

	// charsetDependent is true for text VRs affected by Specific Character Set (0008,0005)
	charsetDependent bool

	// trimLeading is true when leading spaces are insignificant
	trimLeading bool

	padding byte
}

func (vr *VR) String() string {
	return vr.Name
}

var vrLookupMap = map[string]*VR{}

func newVR(vr *VR) *VR {
	vrLookupMap[vr.Name] = vr
	return vr
}

func text(name string, multiValued, charsetDependent, trimLeading bool) *VR {
	return newVR(&VR{Name: name, kind: textVR, multiValued: multiValued,
		charsetDependent: charsetDependent, trimLeading: trimLeading, padding: ' '})
}

func longText(name string, multiValued, charsetDependent bool) *VR {
	return newVR(&VR{Name: name, kind: textVR, longLength: true, multiValued: multiValued,
		charsetDependent: charsetDependent, padding: ' '})
}

func number(name string, width int) *VR {
	return newVR(&VR{Name: name, kind: numberBinaryVR, width: width})
}

func bulk(name string, width int) *VR {
	return newVR(&VR{Name: name, kind: bulkDataVR, width: width, longLength: true})
}

// lookupVRByName returns the VR for a 2 character code. Codes outside the standard list yield a
// new opaque long form VR carrying the code so the element survives re-encoding.
func lookupVRByName(name string) (*VR, bool) {
	if vr, ok := vrLookupMap[name]; ok {
		return vr, true
	}
	return &VR{Name: name, kind: bulkDataVR, width: 1, longLength: true}, false
}

// VR list obtained from
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_6.2
var (
	// textual VRs
	CSVR = text("CS", true, false, true)
	SHVR = text("SH", true, true, true)
	LOVR = text("LO", true, true, true)
	STVR = text("ST", false, true, false)
	LTVR = text("LT", false, true, false)
	ASVR = text("AS", true, false, true)

	// person name
	PNVR = text("PN", true, true, true)

	// application entity
	AEVR = text("AE", true, false, true)

	// dates/time VR
	DAVR = text("DA", true, false, true)
	TMVR = text("TM", true, false, true)
	DTVR = text("DT", true, false, true)

	// textual numbers
	ISVR = text("IS", true, false, true)
	DSVR = text("DS", true, false, true)

	// unlimited char, URL and unlimited text use a 32 bit length
	UCVR = longText("UC", true, true)
	URVR = longText("UR", false, false)
	UTVR = longText("UT", false, true)

	// binary numbers
	SSVR = number("SS", 2)
	USVR = number("US", 2)
	SLVR = number("SL", 4)
	ULVR = number("UL", 4)
	FLVR = number("FL", 4)
	FDVR = number("FD", 8)

	// 64 bit binary numbers use a 32 bit length
	SVVR = newVR(&VR{Name: "SV", kind: numberBinaryVR, width: 8, longLength: true})
	UVVR = newVR(&VR{Name: "UV", kind: numberBinaryVR, width: 8, longLength: true})

	// large binary sequences
	OBVR = bulk("OB", 1)
	OWVR = bulk("OW", 2)
	OFVR = bulk("OF", 4)
	ODVR = bulk("OD", 8)
	OLVR = bulk("OL", 4)
	OVVR = bulk("OV", 8)

	// unknown
	UNVR = bulk("UN", 1)

	// attribute tag
	ATVR = newVR(&VR{Name: "AT", kind: tagVR, width: 4})

	// unique identifier
	UIVR = newVR(&VR{Name: "UI", kind: uniqueIdentifierVR, multiValued: true, padding: 0x00})

	// sequence
	SQVR = newVR(&VR{Name: "SQ", kind: sequenceVR, longLength: true})
)
