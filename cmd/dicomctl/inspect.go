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
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mtuann/aipac-dicom/dicom"
)

// DumpCmd decodes a file and prints its elements.
type DumpCmd struct {
	Path       string `arg:"" help:"DICOM file" type:"existingfile"`
	Meta       bool   `help:"Print the File Meta Information too"`
	Paths      bool   `help:"Print the sequence path of each element instead of indenting"`
	PixelData  bool   `name:"pixel-data" help:"Decode through Pixel Data even when the configuration stops before it"`
	References bool   `help:"Replace bulk data values by references to their location"`
}

func (c *DumpCmd) Run(env *Env) error {
	cfg := *env.Config
	if c.PixelData {
		cfg.Decode.StopAtPixelData = false
	}
	opts := cfg.ParseOptions()
	if c.References {
		opts = append(opts, dicom.ReferenceBulkData(dicom.DefaultBulkDataDefinition))
	}
	f, err := decodeFile(env, c.Path, opts)
	status := dicom.Classify(f, err)
	if status == dicom.Failed {
		return &exitError{code: 1, err: err}
	}

	w := env.Stdout
	fmt.Fprintf(w, "# %s\n", c.Path)
	fmt.Fprintf(w, "# transfer syntax: %s (%v)", f.TransferSyntaxUID, f.TransferSyntax)
	if f.FallbackUsed {
		fmt.Fprint(w, " fallback")
	}
	fmt.Fprintf(w, "\n# status: %v\n", status)
	for _, d := range f.Diagnostics {
		fmt.Fprintf(w, "# diagnostic: %v\n", d)
	}

	if c.Meta {
		if err := c.print(w, f.Meta); err != nil {
			return err
		}
	}
	if err := c.print(w, f.DataSet); err != nil {
		return err
	}
	if status == dicom.Partial {
		return &exitError{code: 2}
	}
	return nil
}

func (c *DumpCmd) print(w io.Writer, ds *dicom.DataSet) error {
	if c.Paths {
		return dicom.Walk(ds, func(path []dicom.Tag, elem *dicom.DataElement) error {
			prefix := ""
			for _, t := range path {
				prefix += t.String() + "/"
			}
			_, err := fmt.Fprintln(w, prefix+describe(elem))
			return err
		})
	}

	it := dicom.NewDataElementIterator(ds)
	for {
		elem, err := it.NextElement()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, strings.Repeat(">", it.Depth())+describe(elem)); err != nil {
			return err
		}
	}
}

// describe renders one element on a line: tag, VR, keyword and a value summary.
func describe(elem *dicom.DataElement) string {
	vr := "??"
	if elem.VR != nil {
		vr = elem.VR.Name
	}
	keyword := elem.Tag.Keyword()
	if keyword == "" {
		keyword = "?"
	}

	var value string
	switch v := elem.ValueField.(type) {
	case *dicom.Sequence:
		value = fmt.Sprintf("[%d items]", len(v.Items))
	case *dicom.EncapsulatedPixelData:
		value = fmt.Sprintf("[%d fragments]", len(v.Fragments))
	case []dicom.BulkDataReference:
		if len(v) == 1 {
			value = fmt.Sprintf("[bulk data at %d, %d bytes]", v[0].Reference.Offset, v[0].Reference.Length)
		} else {
			value = fmt.Sprintf("[%d bulk data references]", len(v))
		}
	case []byte:
		if len(v) > 16 {
			value = fmt.Sprintf("[%d bytes]", len(v))
		} else {
			value = fmt.Sprintf("%v", v)
		}
	case []string:
		value = "[" + strings.Join(v, "\\") + "]"
	default:
		value = fmt.Sprintf("%v", v)
	}
	if elem.Incomplete {
		value += " (incomplete)"
	}
	return fmt.Sprintf("%v %s %s %s", elem.Tag, vr, keyword, value)
}

// GetCmd prints one attribute of a file.
type GetCmd struct {
	Path string `arg:"" help:"DICOM file" type:"existingfile"`
	Tag  string `arg:"" help:"Keyword such as PatientName or a tag such as 0010,0010"`
	As   string `help:"Value type: string, int, float, bytes, tag" enum:"string,int,float,bytes,tag" default:"string"`
}

func (c *GetCmd) Run(env *Env) error {
	tag, err := dicom.ParseTag(c.Tag)
	if err != nil {
		return err
	}
	cfg := *env.Config
	if tag >= dicom.PixelDataTag {
		cfg.Decode.StopAtPixelData = false
	}
	f, err := decodeFile(env, c.Path, cfg.ParseOptions())
	status := dicom.Classify(f, err)
	if status == dicom.Failed {
		return &exitError{code: 1, err: err}
	}
	if status == dicom.Partial {
		for _, d := range f.Diagnostics {
			fmt.Fprintf(env.Stderr, "# diagnostic: %v\n", d)
		}
	}

	ds := f.DataSet
	if tag.IsMetaElement() {
		ds = f.Meta
	}
	value, err := c.format(ds, tag)
	if err != nil {
		if status == dicom.Partial {
			return &exitError{code: 2, err: err}
		}
		return err
	}
	fmt.Fprintln(env.Stdout, value)
	if status == dicom.Partial {
		return &exitError{code: 2}
	}
	return nil
}

func (c *GetCmd) format(ds *dicom.DataSet, tag dicom.Tag) (string, error) {
	elem, ok := ds.Get(tag)
	if !ok {
		return "", fmt.Errorf("%v: %w", tag, dicom.ErrNotFound)
	}
	switch c.As {
	case "int":
		ints, err := elem.Ints()
		if err != nil {
			return "", err
		}
		return join(ints), nil
	case "float":
		floats, err := elem.Floats()
		if err != nil {
			return "", err
		}
		return join(floats), nil
	case "bytes":
		b, err := elem.BytesValue()
		if err != nil {
			return "", err
		}
		return hex.EncodeToString(b), nil
	case "tag":
		t, err := elem.TagValue()
		if err != nil {
			return "", err
		}
		return t.String(), nil
	default:
		strs, err := elem.Strings()
		if err != nil {
			return "", err
		}
		return strings.Join(strs, "\\"), nil
	}
}

func join[T any](values []T) string {
	strs := make([]string, len(values))
	for i, v := range values {
		strs[i] = fmt.Sprint(v)
	}
	return strings.Join(strs, "\\")
}

func decodeFile(env *Env, path string, opts []dicom.ParseOption) (*dicom.File, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	opts = append(opts, dicom.WithLogger(env.Logger))
	return dicom.ParseContext(env.Ctx, r, opts...)
}
