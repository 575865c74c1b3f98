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
	"errors"
	"io"
)

// DataElementIterator represents an iterator over a DataSet's DataElements
type DataElementIterator interface {
	// NextElement returns the next DataElement in the DataSet. If there is no next DataElement, the
	// error io.EOF is returned.
	NextElement() (*DataElement, error)

	// Depth returns the nesting level of the element last returned by NextElement, 0 for top level
	// elements.
	Depth() int
}

// NewDataElementIterator returns an iterator visiting the elements of ds in data set order,
// descending into the items of each sequence right after the sequence element.
func NewDataElementIterator(ds *DataSet) DataElementIterator {
	return &dataElementIterator{stack: []iteratorFrame{{elements: ds.Elements()}}}
}

type iteratorFrame struct {
	elements []*DataElement
	depth    int
}

type dataElementIterator struct {
	stack []iteratorFrame
	depth int
}

func (it *dataElementIterator) NextElement() (*DataElement, error) {
	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]
		if len(top.elements) == 0 {
			it.stack = it.stack[:len(it.stack)-1]
			continue
		}
		elem := top.elements[0]
		top.elements = top.elements[1:]
		it.depth = top.depth

		if seq, ok := elem.ValueField.(*Sequence); ok {
			// items are pushed in reverse so the first item is visited first
			for i := len(seq.Items) - 1; i >= 0; i-- {
				it.stack = append(it.stack, iteratorFrame{seq.Items[i].Elements(), top.depth + 1})
			}
		}
		return elem, nil
	}
	return nil, io.EOF
}

func (it *dataElementIterator) Depth() int {
	return it.depth
}

// ErrSkipSequence can be returned by a WalkFunc to skip the items of the sequence element it was
// called with.
var ErrSkipSequence = errors.New("skip sequence")

// WalkFunc is called by Walk for every element, with the tags of the enclosing sequences in path.
type WalkFunc func(path []Tag, elem *DataElement) error

// Walk calls fn for every element of ds in data set order, depth first. Walk stops at the first
// error returned by fn other than ErrSkipSequence and returns it.
func Walk(ds *DataSet, fn WalkFunc) error {
	return walk(nil, ds, fn)
}

func walk(path []Tag, ds *DataSet, fn WalkFunc) error {
	for _, elem := range ds.Elements() {
		err := fn(path, elem)
		if err == ErrSkipSequence {
			continue
		}
		if err != nil {
			return err
		}

		seq, ok := elem.ValueField.(*Sequence)
		if !ok {
			continue
		}
		inner := append(append([]Tag{}, path...), elem.Tag)
		for _, item := range seq.Items {
			if err := walk(inner, item, fn); err != nil {
				return err
			}
		}
	}
	return nil
}
