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

type lengthStyle int

const (
	// keepLengths writes sequences and items with undefined length if and only if they were read
	// that way
	keepLengths lengthStyle = iota
	explicitLengths
	undefinedLengths
)

// WriteOption configures how Write and EncodeDataSet behave
type WriteOption struct {
	apply func(*writeConfig)
}

type writeConfig struct {
	transforms []Transform
	lengths    lengthStyle
}

func newWriteConfig(opts []WriteOption) *writeConfig {
	cfg := &writeConfig{}
	for _, opt := range opts {
		if opt.apply != nil {
			opt.apply(cfg)
		}
	}
	return cfg
}

// WriteOptionWithTransform returns a write option that applies the given transformation to
// each DataElement before it is written. For sequence DataElements, the transform is applied to
// the parent DataElement first before being applied to its children (i.e. the transform is
// applied to DataElements in pre-order). The transform receives a copy of the element, so it may
// modify its argument without changing the DataSet being written. Returning nil drops the element.
//
// File Meta Information elements are not transformed and their group length is always
// re-calculated.
func WriteOptionWithTransform(transform Transform) WriteOption {
	return WriteOption{func(cfg *writeConfig) {
		cfg.transforms = append(cfg.transforms, transform)
	}}
}

// ExplicitLengths ensures all sequences and sequence items are written with explicit length. The
// behaviour when used in conjunction with UndefinedLengths is that the last one given wins.
var ExplicitLengths = WriteOption{func(cfg *writeConfig) {
	cfg.lengths = explicitLengths
}}

// UndefinedLengths ensures all sequences and sequence items are written with undefined length.
// The behaviour when used in conjunction with ExplicitLengths is that the last one given wins.
var UndefinedLengths = WriteOption{func(cfg *writeConfig) {
	cfg.lengths = undefinedLengths
}}

func (cfg *writeConfig) undefined(length uint32) bool {
	switch cfg.lengths {
	case explicitLengths:
		return false
	case undefinedLengths:
		return true
	default:
		return length == UndefinedLength
	}
}
