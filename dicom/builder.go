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
	"context"
	"fmt"

	"golang.org/x/text/encoding"
)

// decoder holds the state of one decode. It is not safe for concurrent use, but any number of
// decoders may run at the same time since the dictionary and VR tables are read-only.
type decoder struct {
	ctx context.Context
	cfg *parseConfig

	// fatal is set when decoding must end at every level: the context is done or a transform
	// failed. Such decodes produce no partial result.
	fatal error

	// diagnostics holds the errors that ended a data set nested in a defined length sequence.
	// Decoding resumed after the sequence.
	diagnostics []*DecodeError
}

func newDecoder(ctx context.Context, opts []ParseOption) *decoder {
	if ctx == nil {
		ctx = context.Background()
	}
	return &decoder{ctx: ctx, cfg: newParseConfig(opts)}
}

// buildDataSet decodes elements until the cursor is exhausted. A delimited data set, the content
// of an item of undefined length, ends with an Item Delimitation Item instead. The top level data
// set (depth 0) also ends before the stop tag, if any. On error the elements decoded so far are
// returned with it.
func (d *decoder) buildDataSet(c *Cursor, syntax TransferSyntax, depth int, cs encoding.Encoding, delimited bool) (*DataSet, error) {
	ds := &DataSet{Length: UndefinedLength}

	for c.Remaining() > 0 {
		if err := d.ctx.Err(); err != nil {
			d.fatal = decodeError(0, c.Offset(), depth, fmt.Errorf("%w: %w", ErrCancelled, err))
			return ds, d.fatal
		}

		start := c.Offset()
		tag, err := c.PeekTag()
		if err != nil {
			return ds, decodeError(0, start, depth, fmt.Errorf("reading tag: %w", err))
		}

		if tag.isDelimiter() {
			if err := d.readDelimiter(c, depth); err != nil {
				return ds, err
			}
			if tag == ItemDelimitationItemTag && delimited {
				return ds, nil
			}
			d.cfg.logger.Debug().Stringer("tag", tag).Int64("offset", start).Int("depth", depth).
				Msg("skipping stray delimiter")
			continue
		}

		if depth == 0 && d.cfg.stopAt && tag >= d.cfg.stopAtTag {
			return ds, nil
		}

		elem, err := d.readElement(c, syntax, depth, cs)
		if d.fatal != nil {
			return ds, d.fatal
		}
		if elem != nil {
			if elem.Tag == SpecificCharacterSetTag {
				cs = d.characterSet(elem, cs)
			}
			if ferr := d.add(ds, elem, depth); ferr != nil {
				return ds, ferr
			}
		}
		if err != nil {
			return ds, err
		}
	}

	if delimited {
		return ds, decodeError(0, c.Offset(), depth, fmt.Errorf("missing item delimitation: %w", ErrEndOfStream))
	}
	return ds, nil
}

// add applies the transforms to elem and stores the result. Duplicate tags keep the last
// occurrence.
func (d *decoder) add(ds *DataSet, elem *DataElement, depth int) error {
	for i, t := range d.cfg.transforms {
		var err error
		elem, err = t(elem)
		if err != nil {
			d.fatal = fmt.Errorf("applying option %v: %v", i, err)
			return d.fatal
		}
		if elem == nil { // option wants to filter this element out
			return nil
		}
	}

	if _, dup := ds.Get(elem.Tag); dup {
		d.cfg.logger.Debug().Stringer("tag", elem.Tag).Int64("offset", elem.Offset).Int("depth", depth).
			Msg("duplicate tag, keeping last occurrence")
	}
	ds.Set(elem)
	return nil
}

func (d *decoder) diagnose(err error) {
	de := asDecodeError(err)
	d.cfg.logger.Warn().Err(de).Msg("damaged sequence, resuming after it")
	d.diagnostics = append(d.diagnostics, de)
}

// result returns the diagnostics of the decode, err last, and the error to report with them.
func (d *decoder) result(err error) ([]*DecodeError, error) {
	diagnostics := d.diagnostics
	if err != nil {
		diagnostics = append(diagnostics, asDecodeError(err))
	}
	if len(diagnostics) == 0 {
		return nil, nil
	}
	return diagnostics, diagnostics[0]
}

func (d *decoder) readDelimiter(c *Cursor, depth int) error {
	start := c.Offset()
	tag, err := c.Tag()
	if err != nil {
		return decodeError(0, start, depth, err)
	}
	length, err := c.UInt32()
	if err != nil {
		return decodeError(tag, start, depth, fmt.Errorf("reading delimiter length: %w", err))
	}
	if length != 0 {
		d.cfg.logger.Debug().Stringer("tag", tag).Uint32("length", length).Msg("non zero delimiter length")
	}
	return nil
}

// characterSet returns the encoding selected by a Specific Character Set element, or current
// when the element names an unsupported character set.
func (d *decoder) characterSet(elem *DataElement, current encoding.Encoding) encoding.Encoding {
	terms, ok := elem.ValueField.([]string)
	if !ok {
		return current
	}
	cs, err := characterSet(terms)
	if err != nil {
		d.cfg.logger.Debug().Err(err).Msg("unsupported specific character set")
		return current
	}
	return cs
}
