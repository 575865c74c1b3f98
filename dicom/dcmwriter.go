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
	"io"
	"math"
)

type dcmWriter struct {
	io.Writer
}

func (dw *dcmWriter) Tag(order binary.ByteOrder, tag Tag) error {
	if err := dw.UInt16(order, tag.Group()); err != nil {
		return err
	}
	return dw.UInt16(order, tag.Element())
}

func (dw *dcmWriter) Delimiter(order binary.ByteOrder, tag Tag) error {
	if err := dw.Tag(order, tag); err != nil {
		return fmt.Errorf("writing delimiter tag: %v", err)
	}
	if err := dw.UInt32(order, 0); err != nil {
		return fmt.Errorf("writing item length of delimiter: %v", err)
	}
	return nil
}

// Header writes the tag, VR and length of an element. The VR is omitted in the implicit syntax.
func (dw *dcmWriter) Header(syntax TransferSyntax, tag Tag, vr *VR, length uint32) error {
	order := syntax.ByteOrder.Binary()
	if err := dw.Tag(order, tag); err != nil {
		return fmt.Errorf("writing tag: %v", err)
	}
	if syntax.VRStyle == ImplicitVR {
		return dw.UInt32(order, length)
	}

	if err := dw.String(vr.Name); err != nil {
		return fmt.Errorf("writing VR: %v", err)
	}

	// For explicit VR, lengths can be stored in a 32 bit field or a 16 bit field
	// depending on the VR type. The 2 cases are defined at the link:
	// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_7.1.2
	if vr.longLength {
		// case 1: 32-bit length
		if err := dw.UInt16(order, 0); err != nil {
			return fmt.Errorf("writing reserved field: %v", err)
		}
		return dw.UInt32(order, length)
	}

	// case 2: 16-bit length
	if length > math.MaxUint16 {
		return fmt.Errorf("%v value length %d exceeds unsigned 16-bit length", tag, length)
	}
	return dw.UInt16(order, uint16(length))
}

func (dw *dcmWriter) UInt16(order binary.ByteOrder, v uint16) error {
	buf := make([]byte, 2)
	order.PutUint16(buf, v)
	return dw.Bytes(buf)
}

func (dw *dcmWriter) UInt32(order binary.ByteOrder, v uint32) error {
	buf := make([]byte, 4)
	order.PutUint32(buf, v)
	return dw.Bytes(buf)
}

func (dw *dcmWriter) String(s string) error {
	_, err := dw.Write([]byte(s))
	return err
}

func (dw *dcmWriter) Bytes(b []byte) error {
	_, err := dw.Write(b)
	return err
}
