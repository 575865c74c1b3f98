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
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mtuann/aipac-dicom/dicom"
	"github.com/mtuann/aipac-dicom/internal/catalog"
	"github.com/mtuann/aipac-dicom/internal/scan"
)

// IndexCmd decodes files and records them in the catalog.
type IndexCmd struct {
	Paths   []string      `arg:"" help:"Files or directories to scan" type:"path"`
	Catalog string        `help:"Catalog database, overrides catalog.path" type:"path"`
	Workers int           `help:"Files decoded at once, overrides scan.workers"`
	Timeout time.Duration `help:"Per-file decode timeout, overrides scan.timeout"`
	Verbose bool          `short:"v" help:"Print the outcome of every file"`
}

func (c *IndexCmd) Run(env *Env) error {
	cfg := env.Config
	if c.Catalog != "" {
		cfg.Catalog.Path = c.Catalog
	}
	if c.Workers > 0 {
		cfg.Scan.Workers = c.Workers
	}
	if c.Timeout > 0 {
		cfg.Scan.Timeout = c.Timeout
	}

	store, err := catalog.Open(env.Ctx, cfg.Catalog.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	metrics, err := scan.NewMetrics(prometheus.NewRegistry())
	if err != nil {
		return err
	}
	s := &scan.Scanner{
		Workers:      cfg.Scan.Workers,
		Timeout:      cfg.Scan.Timeout,
		ParseOptions: cfg.ParseOptions(),
		Store:        store,
		Metrics:      metrics,
		Logger:       env.Logger,
	}
	summary, err := s.Run(env.Ctx, c.Paths...)
	if err != nil {
		return err
	}

	w := env.Stdout
	if c.Verbose {
		for _, r := range summary.Results {
			line := fmt.Sprintf("%-8v %s", r.Status, r.Path)
			if r.Err != nil {
				line += ": " + r.Err.Error()
			}
			fmt.Fprintln(w, line)
		}
	}
	fmt.Fprintf(w, "%d files: %d complete, %d partial, %d failed, %d indexed\n",
		summary.Files(), summary.Complete, summary.Partial, summary.Failed, summary.Indexed)
	return nil
}

// LookupCmd prints the catalog record of a SOP instance.
type LookupCmd struct {
	UID     string `arg:"" help:"SOP Instance UID"`
	Catalog string `help:"Catalog database, overrides catalog.path" type:"path"`
}

func (c *LookupCmd) Run(env *Env) error {
	store, err := openCatalog(env, c.Catalog)
	if err != nil {
		return err
	}
	defer store.Close()

	r, err := store.Lookup(env.Ctx, c.UID)
	if errors.Is(err, catalog.ErrNotFound) {
		fmt.Fprintf(env.Stdout, "%s: not found\n", c.UID)
		return &exitError{code: 1}
	}
	if err != nil {
		return err
	}
	printRecord(env.Stdout, r)
	return nil
}

// ListCmd lists catalog records.
type ListCmd struct {
	Catalog  string `help:"Catalog database, overrides catalog.path" type:"path"`
	Patient  string `help:"Only records of this Patient ID"`
	Study    string `help:"Only records of this Study Instance UID"`
	Modality string `help:"Only records of this modality"`
	Status   string `help:"Only complete or partial records"`
	Limit    int    `help:"Maximum number of records, 0 for all"`
}

func (c *ListCmd) Run(env *Env) error {
	store, err := openCatalog(env, c.Catalog)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(env.Ctx, catalog.Filter{
		PatientID:        c.Patient,
		StudyInstanceUID: c.Study,
		Modality:         c.Modality,
		Status:           c.Status,
		Limit:            c.Limit,
	})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(env.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOP INSTANCE UID\tPATIENT\tMODALITY\tSTUDY DATE\tSTATUS\tPATH")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.SOPInstanceUID, r.PatientID, r.Modality, r.StudyDate, r.Status, r.Path)
	}
	return tw.Flush()
}

func openCatalog(env *Env, path string) (*catalog.Store, error) {
	if path == "" {
		path = env.Config.Catalog.Path
	}
	return catalog.Open(env.Ctx, path)
}

func printRecord(w io.Writer, r catalog.Record) {
	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)
	fields := []struct {
		name, value string
	}{
		{"SOPInstanceUID", r.SOPInstanceUID},
		{"SOPClassUID", r.SOPClassUID},
		{"StudyInstanceUID", r.StudyInstanceUID},
		{"SeriesInstanceUID", r.SeriesInstanceUID},
		{"PatientID", r.PatientID},
		{"PatientName", r.PatientName},
		{"Modality", r.Modality},
		{"StudyDate", r.StudyDate},
		{"InstitutionName", r.InstitutionName},
		{"AccessionNumber", r.AccessionNumber},
		{"TransferSyntaxUID", r.TransferSyntaxUID},
		{"Path", r.Path},
		{"StoragePath", catalog.StoragePath(r)},
		{"Digest", r.Digest},
		{"Status", r.Status},
		{"PixelData", pixelData(r.PixelData)},
		{"IndexedAt", r.IndexedAt.Format(time.RFC3339)},
	}
	for _, f := range fields {
		fmt.Fprintf(tw, "%s:\t%s\n", f.name, f.value)
	}
	for _, d := range r.Diagnostics {
		fmt.Fprintf(tw, "Diagnostic:\t%s\n", d)
	}
	_ = tw.Flush()
}

func pixelData(region dicom.ByteRegion) string {
	if region.Length == 0 {
		return "-"
	}
	return fmt.Sprintf("%d bytes at offset %d", region.Length, region.Offset)
}
