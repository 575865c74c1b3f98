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

// Cursor is a sequential, bounds checked reader over a byte buffer. Multi-byte integers are read
// in the cursor's current byte order, which may change mid-stream since the File Meta Information
// is always little endian while the rest of the file may not be. A Cursor only moves forward.
type Cursor struct {
	buf   []byte
	pos   int
	base  int64 // offset of buf[0] within the decoded stream
	order binary.ByteOrder
}

// NewCursor returns a Cursor positioned at the start of b.
func NewCursor(b []byte, order ByteOrder) *Cursor {
	return &Cursor{buf: b, order: order.Binary()}
}

// Read returns the next n bytes and advances past them. The returned slice aliases the
// underlying buffer. If fewer than n bytes remain, ErrEndOfStream is returned and the cursor
// does not move.
func (c *Cursor) Read(n int) ([]byte, error) {
	b, err := c.Peek(n)
	if err != nil {
		return nil, err
	}
	c.pos += n
	return b, nil
}

// Peek returns the next n bytes without advancing.
func (c *Cursor) Peek(n int) ([]byte, error) {
	if n < 0 || n > c.Remaining() {
		return nil, fmt.Errorf("reading %d bytes with %d remaining: %w", n, c.Remaining(), ErrEndOfStream)
	}
	return c.buf[c.pos : c.pos+n], nil
}

// Skip advances the cursor by n bytes.
func (c *Cursor) Skip(n int) error {
	_, err := c.Read(n)
	return err
}

// Remaining reports the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.pos
}

// Offset returns the position of the cursor within the decoded stream.
func (c *Cursor) Offset() int64 {
	return c.base + int64(c.pos)
}

// SetByteOrder changes how subsequent multi-byte integers are read.
func (c *Cursor) SetByteOrder(order ByteOrder) {
	c.order = order.Binary()
}

// ByteOrder returns the byte order used for multi-byte integers.
func (c *Cursor) ByteOrder() binary.ByteOrder {
	return c.order
}

// UInt16 returns a uint16 from the input stream
func (c *Cursor) UInt16() (uint16, error) {
	b, err := c.Read(2)
	if err != nil {
		return 0, err
	}
	return c.order.Uint16(b), nil
}

// UInt32 returns a uint32 from the input stream
func (c *Cursor) UInt32() (uint32, error) {
	b, err := c.Read(4)
	if err != nil {
		return 0, err
	}
	return c.order.Uint32(b), nil
}

// Tag returns a group and element pair from the input stream
func (c *Cursor) Tag() (Tag, error) {
	b, err := c.Read(4)
	if err != nil {
		return 0, err
	}
	return NewTag(c.order.Uint16(b), c.order.Uint16(b[2:])), nil
}

// PeekTag returns the next tag without advancing.
func (c *Cursor) PeekTag() (Tag, error) {
	b, err := c.Peek(4)
	if err != nil {
		return 0, err
	}
	return NewTag(c.order.Uint16(b), c.order.Uint16(b[2:])), nil
}

// String returns a string of length n from the input stream
func (c *Cursor) String(n int) (string, error) {
	b, err := c.Read(n)
	return string(b), err
}

// Sub returns a Cursor bounded to the next n bytes sharing the same buffer and byte order, and
// advances c past them. When fewer than n bytes remain, the returned Cursor covers the remainder
// and ErrEndOfStream is returned with it.
func (c *Cursor) Sub(n int) (*Cursor, error) {
	var err error
	if n < 0 || n > c.Remaining() {
		err = fmt.Errorf("bounding %d bytes with %d remaining: %w", n, c.Remaining(), ErrEndOfStream)
		n = c.Remaining()
	}
	sub := &Cursor{buf: c.buf[c.pos : c.pos+n], base: c.Offset(), order: c.order}
	c.pos += n
	return sub, err
}

// rest returns every unread byte and exhausts the cursor.
func (c *Cursor) rest() []byte {
	b := c.buf[c.pos:]
	c.pos = len(c.buf)
	return b
}
