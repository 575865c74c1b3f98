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

// list of transfer syntaxes obtained from
// http://dicom.nema.org/medical/dicom/current/output/html/part06.html#chapter_A
const (
	// ImplicitVRLittleEndianUID is the Implicit VR Little Endian UID
	ImplicitVRLittleEndianUID = "1.2.840.10008.1.2"
	// ExplicitVRLittleEndianUID is the Explicit VR Little Endian UID
	ExplicitVRLittleEndianUID = "1.2.840.10008.1.2.1"
	// ExplicitVRBigEndianUID is the Explicit VR Big Endian UID
	ExplicitVRBigEndianUID = "1.2.840.10008.1.2.2"
	// DeflatedExplicitVRLittleEndianUID is the Deflated Explicit VR Little Endian UID
	DeflatedExplicitVRLittleEndianUID = "1.2.840.10008.1.2.1.99"
	// JPEGBaselineUID is the JPEG Baseline (Process 1) transfer syntax UID
	JPEGBaselineUID = "1.2.840.10008.1.2.4.50"
	// JPEGLosslessSV1UID is the JPEG Lossless, Non-Hierarchical, First-Order Prediction UID
	JPEGLosslessSV1UID = "1.2.840.10008.1.2.4.70"
	// JPEG2000LosslessUID is the JPEG 2000 Image Compression (Lossless Only) UID
	JPEG2000LosslessUID = "1.2.840.10008.1.2.4.90"
	// RLELosslessUID is the RLE Lossless UID
	RLELosslessUID = "1.2.840.10008.1.2.5"
)

// ByteOrder is the byte order of multi-byte numbers in a stream.
type ByteOrder int

const (
	// LittleEndian is the byte order of every standard syntax except Explicit VR Big Endian
	LittleEndian ByteOrder = iota
	// BigEndian is the byte order of the retired Explicit VR Big Endian syntax
	BigEndian
)

// Binary returns the encoding/binary implementation of the byte order.
func (o ByteOrder) Binary() binary.ByteOrder {
	if o == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (o ByteOrder) String() string {
	if o == BigEndian {
		return "BigEndian"
	}
	return "LittleEndian"
}

// VRStyle tells whether VRs are written in the stream or looked up in the data dictionary.
type VRStyle int

const (
	// ExplicitVR streams carry a 2 character VR after each tag
	ExplicitVR VRStyle = iota
	// ImplicitVR streams omit the VR, which comes from the data dictionary
	ImplicitVR
)

func (s VRStyle) String() string {
	if s == ImplicitVR {
		return "ImplicitVR"
	}
	return "ExplicitVR"
}

// TransferSyntax is the encoding of the data set that follows the File Meta Information.
type TransferSyntax struct {
	VRStyle   VRStyle
	ByteOrder ByteOrder

	// Deflated is true when the data set is compressed with the deflate algorithm
	Deflated bool

	// Encapsulated is true when the pixel data is compressed into fragments
	Encapsulated bool
}

func (ts TransferSyntax) String() string {
	s := fmt.Sprintf("%v %v", ts.VRStyle, ts.ByteOrder)
	if ts.Deflated {
		s += " (deflated)"
	}
	if ts.Encapsulated {
		s += " (encapsulated)"
	}
	return s
}

var (
	// ImplicitVRLittleEndian is the default transfer syntax of DICOM
	ImplicitVRLittleEndian = TransferSyntax{VRStyle: ImplicitVR, ByteOrder: LittleEndian}
	// ExplicitVRLittleEndian is also the syntax of every File Meta Information group
	ExplicitVRLittleEndian = TransferSyntax{VRStyle: ExplicitVR, ByteOrder: LittleEndian}
	// ExplicitVRBigEndian is retired but still found in archives
	ExplicitVRBigEndian = TransferSyntax{VRStyle: ExplicitVR, ByteOrder: BigEndian}
	// DeflatedExplicitVRLittleEndian compresses everything after the File Meta Information
	DeflatedExplicitVRLittleEndian = TransferSyntax{VRStyle: ExplicitVR, ByteOrder: LittleEndian, Deflated: true}

	encapsulatedExplicitVRLittleEndian = TransferSyntax{VRStyle: ExplicitVR, ByteOrder: LittleEndian, Encapsulated: true}
)

var transferSyntaxes = map[string]TransferSyntax{
	ImplicitVRLittleEndianUID:         ImplicitVRLittleEndian,
	ExplicitVRLittleEndianUID:         ExplicitVRLittleEndian,
	ExplicitVRBigEndianUID:            ExplicitVRBigEndian,
	DeflatedExplicitVRLittleEndianUID: DeflatedExplicitVRLittleEndian,
	"1.2.840.10008.1.2.1.98":          ExplicitVRLittleEndian, // Encapsulated Uncompressed Explicit VR Little Endian

	// Any compressed syntax is explicit VR little endian according to PS3.5 A.4
	// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_A.4
	JPEGBaselineUID:             encapsulatedExplicitVRLittleEndian,
	"1.2.840.10008.1.2.4.51":    encapsulatedExplicitVRLittleEndian, // JPEG Extended
	"1.2.840.10008.1.2.4.57":    encapsulatedExplicitVRLittleEndian, // JPEG Lossless
	JPEGLosslessSV1UID:          encapsulatedExplicitVRLittleEndian,
	"1.2.840.10008.1.2.4.80":    encapsulatedExplicitVRLittleEndian, // JPEG-LS Lossless
	"1.2.840.10008.1.2.4.81":    encapsulatedExplicitVRLittleEndian, // JPEG-LS Near-Lossless
	JPEG2000LosslessUID:         encapsulatedExplicitVRLittleEndian,
	"1.2.840.10008.1.2.4.91":    encapsulatedExplicitVRLittleEndian, // JPEG 2000
	"1.2.840.10008.1.2.4.92":    encapsulatedExplicitVRLittleEndian, // JPEG 2000 Part 2 Lossless
	"1.2.840.10008.1.2.4.93":    encapsulatedExplicitVRLittleEndian, // JPEG 2000 Part 2
	"1.2.840.10008.1.2.4.100":   encapsulatedExplicitVRLittleEndian, // MPEG2 MP@ML
	"1.2.840.10008.1.2.4.101":   encapsulatedExplicitVRLittleEndian, // MPEG2 MP@HL
	"1.2.840.10008.1.2.4.102":   encapsulatedExplicitVRLittleEndian, // MPEG-4 AVC/H.264
	"1.2.840.10008.1.2.4.103":   encapsulatedExplicitVRLittleEndian, // MPEG-4 AVC/H.264 BD
	"1.2.840.10008.1.2.4.107":   encapsulatedExplicitVRLittleEndian, // HEVC/H.265 Main
	"1.2.840.10008.1.2.4.108":   encapsulatedExplicitVRLittleEndian, // HEVC/H.265 Main 10
	"1.2.840.10008.1.2.4.201":   encapsulatedExplicitVRLittleEndian, // HTJ2K Lossless
	"1.2.840.10008.1.2.4.202":   encapsulatedExplicitVRLittleEndian, // HTJ2K Lossless RPCL
	"1.2.840.10008.1.2.4.203":   encapsulatedExplicitVRLittleEndian, // HTJ2K
	RLELosslessUID:              encapsulatedExplicitVRLittleEndian,
	"1.2.840.10008.1.2.4.100.1": encapsulatedExplicitVRLittleEndian, // fragmentable MPEG2 MP@ML
}

// LookupTransferSyntax maps a Transfer Syntax UID to its encoding. UIDs outside the table fail
// with ErrUnknownTransferSyntax; choosing a fallback is left to the caller.
func LookupTransferSyntax(uid string) (TransferSyntax, error) {
	ts, ok := transferSyntaxes[uid]
	if !ok {
		return TransferSyntax{}, fmt.Errorf("%q: %w", uid, ErrUnknownTransferSyntax)
	}
	return ts, nil
}

// UID returns the Transfer Syntax UID that encodes ts without compression. It is used when
// writing files.
func (ts TransferSyntax) UID() string {
	switch {
	case ts.Deflated:
		return DeflatedExplicitVRLittleEndianUID
	case ts.VRStyle == ImplicitVR:
		return ImplicitVRLittleEndianUID
	case ts.ByteOrder == BigEndian:
		return ExplicitVRBigEndianUID
	default:
		return ExplicitVRLittleEndianUID
	}
}

const (
	vrSize  = 2
	tagSize = 4
)

// headerSize is the number of bytes preceding the value field of an element.
func (ts TransferSyntax) headerSize(vr *VR) uint32 {
	if ts.VRStyle == ImplicitVR {
		return tagSize + 4 /*length*/
	}
	if vr.longLength {
		return tagSize + vrSize + 2 /*reserved*/ + 4 /*32-bit length*/
	}
	return tagSize + vrSize + 2 /*16-bit length*/
}

// readVR returns the VR of the element with the given tag. In the implicit syntax the VR comes
// from the data dictionary. The boolean is false when an explicit VR code is not a standard VR.
func (ts TransferSyntax) readVR(c *Cursor, tag Tag) (*VR, bool, error) {
	if ts.VRStyle == ImplicitVR {
		return tag.DictionaryVR(), true, nil
	}
	code, err := c.String(vrSize)
	if err != nil {
		return nil, false, fmt.Errorf("reading vr: %w", err)
	}
	vr, known := lookupVRByName(code)
	return vr, known, nil
}

// readValueLength reads the length field that follows the VR. For explicit VR, lengths are
// stored in a 32 bit field or a 16 bit field depending on the VR, as defined in
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.2
func (ts TransferSyntax) readValueLength(c *Cursor, vr *VR) (uint32, error) {
	if ts.VRStyle == ImplicitVR {
		return c.UInt32()
	}
	if vr.longLength {
		if err := c.Skip(2); err != nil {
			return 0, fmt.Errorf("reading reserved field: %w", err)
		}
		length, err := c.UInt32()
		if err != nil {
			return 0, fmt.Errorf("reading 32 bit length: %w", err)
		}
		return length, nil
	}

	length, err := c.UInt16()
	if err != nil {
		return 0, fmt.Errorf("reading 16 bit length: %w", err)
	}
	return uint32(length), nil
}
