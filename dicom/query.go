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
	"math"
	"strconv"
	"strings"
)

// Typed accessors. Every accessor fails with an error wrapping ErrNotFound when the element
// holds no value, and ErrTypeMismatch when its value cannot be converted to the requested type.

// StringValue returns the first value of a textual element.
func (e *DataElement) StringValue() (string, error) {
	strs, err := e.Strings()
	if err != nil {
		return "", err
	}
	if len(strs) == 0 {
		return "", e.noValue()
	}
	return strs[0], nil
}

// Strings returns every value of a textual element.
func (e *DataElement) Strings() ([]string, error) {
	strs, ok := e.ValueField.([]string)
	if !ok {
		return nil, e.mismatch("string")
	}
	return strs, nil
}

// IntValue returns the first value of a binary integer element or of an Integer String (IS).
func (e *DataElement) IntValue() (int64, error) {
	ints, err := e.Ints()
	if err != nil {
		return 0, err
	}
	if len(ints) == 0 {
		return 0, e.noValue()
	}
	return ints[0], nil
}

// Ints returns every value of a binary integer element or of an Integer String (IS).
func (e *DataElement) Ints() ([]int64, error) {
	var ret []int64
	switch v := e.ValueField.(type) {
	case []int16:
		for _, i := range v {
			ret = append(ret, int64(i))
		}
	case []uint16:
		for _, i := range v {
			ret = append(ret, int64(i))
		}
	case []int32:
		for _, i := range v {
			ret = append(ret, int64(i))
		}
	case []uint32:
		for _, i := range v {
			ret = append(ret, int64(i))
		}
	case []int64:
		ret = append(ret, v...)
	case []uint64:
		for _, i := range v {
			if i > math.MaxInt64 {
				return nil, fmt.Errorf("%v value %d overflows int64: %w", e.Tag, i, ErrTypeMismatch)
			}
			ret = append(ret, int64(i))
		}
	case []string:
		if e.VR != nil && e.VR != ISVR {
			return nil, e.mismatch("integer")
		}
		for _, s := range v {
			i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%v: %v: %w", e.Tag, err, ErrTypeMismatch)
			}
			ret = append(ret, i)
		}
	default:
		return nil, e.mismatch("integer")
	}
	if ret == nil {
		ret = []int64{}
	}
	return ret, nil
}

// FloatValue returns the first value of a binary floating point or integer element, or of a
// Decimal String (DS) or Integer String (IS).
func (e *DataElement) FloatValue() (float64, error) {
	floats, err := e.Floats()
	if err != nil {
		return 0, err
	}
	if len(floats) == 0 {
		return 0, e.noValue()
	}
	return floats[0], nil
}

// Floats returns every value of a binary floating point or integer element, or of a Decimal
// String (DS) or Integer String (IS).
func (e *DataElement) Floats() ([]float64, error) {
	ret := []float64{}
	switch v := e.ValueField.(type) {
	case []float32:
		for _, f := range v {
			ret = append(ret, float64(f))
		}
	case []float64:
		ret = append(ret, v...)
	case []string:
		if e.VR != nil && e.VR != DSVR && e.VR != ISVR {
			return nil, e.mismatch("float")
		}
		for _, s := range v {
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, fmt.Errorf("%v: %v: %w", e.Tag, err, ErrTypeMismatch)
			}
			ret = append(ret, f)
		}
	default:
		ints, err := e.Ints()
		if err != nil {
			return nil, e.mismatch("float")
		}
		for _, i := range ints {
			ret = append(ret, float64(i))
		}
	}
	return ret, nil
}

// BytesValue returns the value of an opaque binary element such as OB, OW or UN.
func (e *DataElement) BytesValue() ([]byte, error) {
	b, ok := e.ValueField.([]byte)
	if !ok {
		return nil, e.mismatch("bytes")
	}
	return b, nil
}

// Items returns the items of a sequence element.
func (e *DataElement) Items() ([]*DataSet, error) {
	seq, ok := e.ValueField.(*Sequence)
	if !ok {
		return nil, e.mismatch("sequence")
	}
	return seq.Items, nil
}

// TagValue returns the first value of an attribute tag (AT) element.
func (e *DataElement) TagValue() (Tag, error) {
	tags, ok := e.ValueField.([]Tag)
	if !ok {
		return 0, e.mismatch("tag")
	}
	if len(tags) == 0 {
		return 0, e.noValue()
	}
	return tags[0], nil
}

func (e *DataElement) mismatch(want string) error {
	return fmt.Errorf("%v with VR %v and value %T is not a %s: %w", e.Tag, e.VR, e.ValueField, want, ErrTypeMismatch)
}

func (e *DataElement) noValue() error {
	return fmt.Errorf("%v has no value: %w", e.Tag, ErrNotFound)
}

func (ds *DataSet) element(tag Tag) (*DataElement, error) {
	e, ok := ds.Get(tag)
	if !ok {
		return nil, fmt.Errorf("%v: %w", tag, ErrNotFound)
	}
	return e, nil
}

// StringValue returns the first value of the textual element with the given tag.
func (ds *DataSet) StringValue(tag Tag) (string, error) {
	e, err := ds.element(tag)
	if err != nil {
		return "", err
	}
	return e.StringValue()
}

// Strings returns every value of the textual element with the given tag.
func (ds *DataSet) Strings(tag Tag) ([]string, error) {
	e, err := ds.element(tag)
	if err != nil {
		return nil, err
	}
	return e.Strings()
}

// IntValue returns the first value of the integer element with the given tag.
func (ds *DataSet) IntValue(tag Tag) (int64, error) {
	e, err := ds.element(tag)
	if err != nil {
		return 0, err
	}
	return e.IntValue()
}

// Ints returns every value of the integer element with the given tag.
func (ds *DataSet) Ints(tag Tag) ([]int64, error) {
	e, err := ds.element(tag)
	if err != nil {
		return nil, err
	}
	return e.Ints()
}

// FloatValue returns the first value of the numeric element with the given tag.
func (ds *DataSet) FloatValue(tag Tag) (float64, error) {
	e, err := ds.element(tag)
	if err != nil {
		return 0, err
	}
	return e.FloatValue()
}

// BytesValue returns the value of the opaque binary element with the given tag.
func (ds *DataSet) BytesValue(tag Tag) ([]byte, error) {
	e, err := ds.element(tag)
	if err != nil {
		return nil, err
	}
	return e.BytesValue()
}

// Items returns the items of the sequence element with the given tag.
func (ds *DataSet) Items(tag Tag) ([]*DataSet, error) {
	e, err := ds.element(tag)
	if err != nil {
		return nil, err
	}
	return e.Items()
}

// TagValue returns the first value of the attribute tag element with the given tag.
func (ds *DataSet) TagValue(tag Tag) (Tag, error) {
	e, err := ds.element(tag)
	if err != nil {
		return 0, err
	}
	return e.TagValue()
}
