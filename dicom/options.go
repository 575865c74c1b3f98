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
	"github.com/rs/zerolog"
)

// DefaultMaxDepth is the deepest sequence nesting accepted by default. The file format does not
// bound nesting, so this is a policy limit that keeps hostile input from exhausting the stack.
const DefaultMaxDepth = 64

// Transform describes a transformation applied to a DataElement
type Transform func(*DataElement) (*DataElement, error)

// ParseOption configures the behavior of the Parse function.
type ParseOption struct {
	apply func(*parseConfig)
}

type parseConfig struct {
	transforms []Transform
	maxDepth   int
	stopAtTag  Tag
	stopAt     bool
	fallback   *TransferSyntax
	logger     zerolog.Logger
}

func newParseConfig(opts []ParseOption) *parseConfig {
	cfg := &parseConfig{maxDepth: DefaultMaxDepth, logger: zerolog.Nop()}
	for _, opt := range opts {
		if opt.apply != nil {
			opt.apply(cfg)
		}
	}
	return cfg
}

// WithTransform returns a ParseOption that applies the given transformation to each DataElement in
// the data set in the order encountered. File Meta Information elements are not transformed.
// For DataElements that contain a sequence, the transform is applied to nested DataElements first
// (i.e. transform is called on DataElements in post-order).
// If the transform returns an error, Parse will stop parsing and return an error.
// If no error is returned and a non-nil DataElement is returned, this DataElement will be added to
// the returned DataSet of Parse. If a nil DataElement is returned, this DataElement will be
// excluded from the DataSet returned from Parse.
func WithTransform(t Transform) ParseOption {
	return ParseOption{func(cfg *parseConfig) {
		cfg.transforms = append(cfg.transforms, t)
	}}
}

// StopAtTag ends decoding of the top level data set before the first element whose tag is
// greater than or equal to tag. Nested data sets are not affected.
func StopAtTag(tag Tag) ParseOption {
	return ParseOption{func(cfg *parseConfig) {
		cfg.stopAtTag = tag
		cfg.stopAt = true
	}}
}

// SkipPixelData stops decoding before the Pixel Data element, for callers that only need
// metadata.
var SkipPixelData = StopAtTag(PixelDataTag)

// WithMaxDepth sets the deepest sequence nesting accepted before decoding fails with
// ErrMaxDepthExceeded. Values below 1 select DefaultMaxDepth.
func WithMaxDepth(depth int) ParseOption {
	return ParseOption{func(cfg *parseConfig) {
		if depth < 1 {
			depth = DefaultMaxDepth
		}
		cfg.maxDepth = depth
	}}
}

// WithFallbackSyntax decodes files whose Transfer Syntax UID is missing or unknown with ts
// instead of failing with ErrUnknownTransferSyntax. File.FallbackUsed records that it happened.
func WithFallbackSyntax(ts TransferSyntax) ParseOption {
	return ParseOption{func(cfg *parseConfig) {
		cfg.fallback = &ts
	}}
}

// WithLogger sets the logger used to report recoverable anomalies such as unknown VRs, duplicate
// tags and stray delimiters. Nothing is logged by default.
func WithLogger(logger zerolog.Logger) ParseOption {
	return ParseOption{func(cfg *parseConfig) {
		cfg.logger = logger
	}}
}

// ReferenceBulkData ensures that all DataElements holding opaque bulk data are transformed to
// []BulkDataReference when bulkDataDefinition returns true.
func ReferenceBulkData(bulkDataDefinition func(*DataElement) bool) ParseOption {
	return WithTransform(func(element *DataElement) (*DataElement, error) {
		return referenceBulkData(element, bulkDataDefinition)
	})
}

// DropGroupLengths will exclude all group length elements (gggg,0000) from the returned DataSet
var DropGroupLengths = WithTransform(func(element *DataElement) (*DataElement, error) {
	if element.Tag.IsGroupLength() {
		return nil, nil
	}
	return element, nil
})

// DropPrivateElements will exclude all elements with an odd group number from the returned DataSet
var DropPrivateElements = WithTransform(func(element *DataElement) (*DataElement, error) {
	if element.Tag.IsPrivate() {
		return nil, nil
	}
	return element, nil
})

// DropBasicOffsetTable will empty the basic offset table fragment of pixel data encoded using
// the encapsulated (compressed) format. For more information on the offset table and encapsulated
// formats please see http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_A.4
var DropBasicOffsetTable = WithTransform(func(element *DataElement) (*DataElement, error) {
	if p, ok := element.ValueField.(*EncapsulatedPixelData); ok && len(p.Fragments) > 0 {
		p.Fragments[0].Data = []byte{}
	}
	return element, nil
})
