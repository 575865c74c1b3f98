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

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mtuann/aipac-dicom/dicom"
)

const secondaryCaptureImageStorage = "1.2.840.10008.5.1.4.1.1.7"

var syntaxes = map[string]dicom.TransferSyntax{
	"implicit": dicom.ImplicitVRLittleEndian,
	"explicit": dicom.ExplicitVRLittleEndian,
	"big":      dicom.ExplicitVRBigEndian,
	"deflated": dicom.DeflatedExplicitVRLittleEndian,
}

// SynthCmd writes a synthetic secondary capture image.
type SynthCmd struct {
	Out      string `arg:"" help:"Output file" type:"path"`
	Syntax   string `help:"Transfer syntax: implicit, explicit, big, deflated" enum:"implicit,explicit,big,deflated" default:"explicit"`
	Depth    int    `help:"Nesting depth of the Referenced Image Sequence, 0 for none" default:"1"`
	Lengths  string `help:"Sequence lengths: keep, explicit, undefined" enum:"keep,explicit,undefined" default:"keep"`
	Patient  string `help:"Patient Name" default:"Doe^Jane"`
	Modality string `help:"Modality" default:"OT"`
	Size     int    `help:"Rows and columns of the 8 bit image" default:"8"`
}

func (c *SynthCmd) Run(env *Env) error {
	if c.Depth < 0 || c.Size < 1 || c.Size > 4096 {
		return fmt.Errorf("depth must not be negative and size must be within 1 and 4096")
	}
	syntax := syntaxes[c.Syntax]
	sopInstanceUID := dicom.NewUID()

	ds := dicom.NewDataSet(map[dicom.Tag]interface{}{
		dicom.SpecificCharacterSetTag:      []string{"ISO_IR 192"},
		dicom.SOPClassUIDTag:               []string{secondaryCaptureImageStorage},
		dicom.SOPInstanceUIDTag:            []string{sopInstanceUID},
		dicom.StudyDateTag:                 []string{time.Now().Format("20060102")},
		dicom.ModalityTag:                  []string{c.Modality},
		dicom.PatientNameTag:               []string{c.Patient},
		dicom.PatientIDTag:                 []string{"SYNTH"},
		dicom.StudyInstanceUIDTag:          []string{dicom.NewUID()},
		dicom.SeriesInstanceUIDTag:         []string{dicom.NewUID()},
		dicom.SamplesPerPixelTag:           []uint16{1},
		dicom.PhotometricInterpretationTag: []string{"MONOCHROME2"},
		dicom.RowsTag:                      []uint16{uint16(c.Size)},
		dicom.ColumnsTag:                   []uint16{uint16(c.Size)},
		dicom.BitsAllocatedTag:             []uint16{8},
		dicom.BitsStoredTag:                []uint16{8},
		dicom.HighBitTag:                   []uint16{7},
		dicom.PixelRepresentationTag:       []uint16{0},
		dicom.PixelDataTag:                 gradient(c.Size),
	})
	if c.Depth > 0 {
		ds.Set(dicom.NewElement(dicom.ReferencedImageSequenceTag, referencedImages(c.Depth)))
	}

	var opts []dicom.WriteOption
	switch c.Lengths {
	case "explicit":
		opts = append(opts, dicom.ExplicitLengths)
	case "undefined":
		opts = append(opts, dicom.UndefinedLengths)
	}

	w, err := os.Create(c.Out)
	if err != nil {
		return err
	}
	f := dicom.NewFile(secondaryCaptureImageStorage, sopInstanceUID, syntax, ds)
	if err := dicom.Write(w, f, opts...); err != nil {
		w.Close()
		return fmt.Errorf("writing %s: %w", c.Out, err)
	}
	if err := w.Close(); err != nil {
		return err
	}
	env.Logger.Debug().Str("path", c.Out).Str("syntax", c.Syntax).Msg("synthesized")
	fmt.Fprintf(env.Stdout, "%s %s\n", sopInstanceUID, c.Out)
	return nil
}

// referencedImages nests depth Referenced Image Sequences, one item each.
func referencedImages(depth int) *dicom.Sequence {
	item := dicom.NewDataSet(map[dicom.Tag]interface{}{
		dicom.ReferencedSOPClassUIDTag:    []string{secondaryCaptureImageStorage},
		dicom.ReferencedSOPInstanceUIDTag: []string{dicom.NewUID()},
	})
	if depth > 1 {
		item.Set(dicom.NewElement(dicom.ReferencedImageSequenceTag, referencedImages(depth-1)))
	}
	return dicom.NewSequence(item)
}

// gradient returns an 8 bit image of size by size pixels, padded to an even length.
func gradient(size int) []byte {
	n := size * size
	px := make([]byte, n+n%2)
	for i := 0; i < n; i++ {
		px[i] = byte((i%size + i/size) * 255 / (2 * size))
	}
	return px
}
