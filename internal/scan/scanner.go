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

// Package scan decodes DICOM files concurrently and indexes them in the catalog.
package scan

import (
	"context"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/zeebo/blake3"
	"golang.org/x/sync/errgroup"

	"github.com/mtuann/aipac-dicom/dicom"
	"github.com/mtuann/aipac-dicom/internal/catalog"
)

// Indexer stores catalog records. *catalog.Store implements it.
type Indexer interface {
	Put(ctx context.Context, r catalog.Record) error
}

// Scanner decodes every file below a set of roots. A file that fails to decode is reported in
// the Summary and never stops the scan.
type Scanner struct {
	// Workers bounds the number of files decoded at once, 1 when not positive
	Workers int

	// Timeout bounds the decoding of one file, no limit when zero
	Timeout time.Duration

	ParseOptions []dicom.ParseOption

	// Store receives a record for every decoded instance with a SOP Instance UID. Nothing is
	// indexed when it is nil.
	Store Indexer

	Metrics *Metrics
	Logger  zerolog.Logger
}

// Result is the outcome of one file
type Result struct {
	Path           string
	Status         dicom.Status
	SOPInstanceUID string
	Digest         string
	Indexed        bool

	// Err is the decode error of a partial or failed file
	Err error
}

// Summary counts the outcomes of a scan. Results are ordered by path.
type Summary struct {
	Complete int
	Partial  int
	Failed   int
	Indexed  int
	Results  []Result
}

// Files returns the number of files scanned
func (s Summary) Files() int {
	return len(s.Results)
}

func (s *Summary) add(r Result) {
	switch r.Status {
	case dicom.Complete:
		s.Complete++
	case dicom.Partial:
		s.Partial++
	default:
		s.Failed++
	}
	if r.Indexed {
		s.Indexed++
	}
	s.Results = append(s.Results, r)
}

// Run scans the regular files below roots. A root may also be a file. Run returns early with an
// error when ctx is done, a root cannot be walked or the Store fails.
func (s *Scanner) Run(ctx context.Context, roots ...string) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	paths, err := collect(roots)
	if err != nil {
		return Summary{}, err
	}
	s.Logger.Debug().Int("files", len(paths)).Int("workers", s.workers()).Msg("scan started")

	var (
		mu      sync.Mutex
		summary Summary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers())
	for _, path := range paths {
		g.Go(func() error {
			r, err := s.ScanFile(gctx, path)
			if err != nil {
				return err
			}
			mu.Lock()
			summary.add(r)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}

	sort.Slice(summary.Results, func(i, j int) bool {
		return summary.Results[i].Path < summary.Results[j].Path
	})
	s.Logger.Info().
		Int("files", summary.Files()).
		Int("complete", summary.Complete).
		Int("partial", summary.Partial).
		Int("failed", summary.Failed).
		Int("indexed", summary.Indexed).
		Msg("scan finished")
	return summary, nil
}

// ScanFile reads, hashes and decodes one file and indexes it. Decode errors are reported in the
// Result. The error is only set when the file cannot be read or the Store fails.
func (s *Scanner) ScanFile(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	res := Result{Path: path, Status: dicom.Failed}

	data, err := os.ReadFile(path)
	if err != nil {
		return res, fmt.Errorf("reading %s: %w", path, err)
	}
	sum := blake3.Sum256(data)
	res.Digest = hex.EncodeToString(sum[:])

	decodeCtx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		decodeCtx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	opts := append([]dicom.ParseOption{dicom.WithLogger(s.Logger)}, s.ParseOptions...)
	f, err := dicom.ParseBytesContext(decodeCtx, data, opts...)
	res.Status = dicom.Classify(f, err)
	res.Err = err
	s.observe(res.Status, time.Since(start))

	logger := s.Logger.With().Str("path", path).Str("status", res.Status.String()).Logger()
	if res.Status == dicom.Failed {
		logger.Warn().Err(err).Msg("decode failed")
		return res, nil
	}
	if err != nil {
		logger.Warn().Err(err).Msg("decode incomplete")
	}

	r, err := catalog.RecordFromFile(path, f, res.Digest)
	if err != nil {
		logger.Debug().Err(err).Msg("not indexed")
		return res, nil
	}
	res.SOPInstanceUID = r.SOPInstanceUID
	if s.Store == nil {
		return res, nil
	}
	if err := s.Store.Put(ctx, r); err != nil {
		return res, fmt.Errorf("indexing %s: %w", path, err)
	}
	res.Indexed = true
	if s.Metrics != nil {
		s.Metrics.indexed.Inc()
	}
	logger.Debug().Str("sop_instance_uid", r.SOPInstanceUID).Msg("indexed")
	return res, nil
}

func (s *Scanner) observe(status dicom.Status, elapsed time.Duration) {
	if s.Metrics == nil {
		return
	}
	s.Metrics.decoded.WithLabelValues(status.String()).Inc()
	s.Metrics.duration.Observe(elapsed.Seconds())
}

func (s *Scanner) workers() int {
	if s.Workers < 1 {
		return 1
	}
	return s.Workers
}

// collect returns the regular files below roots in lexical order.
func collect(roots []string) ([]string, error) {
	var paths []string
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.Type().IsRegular() {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", root, err)
		}
	}
	return paths, nil
}
