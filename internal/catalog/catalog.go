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

// Package catalog keeps an index of decoded DICOM instances in SQLite.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mtuann/aipac-dicom/dicom"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no record has the requested SOP Instance UID.
var ErrNotFound = errors.New("record not found")

// Record describes one indexed SOP instance
type Record struct {
	SOPInstanceUID    string
	SOPClassUID       string
	StudyInstanceUID  string
	SeriesInstanceUID string
	PatientID         string
	PatientName       string
	Modality          string
	StudyDate         string
	InstitutionName   string
	AccessionNumber   string
	TransferSyntaxUID string

	// Path is where the file was read from and Digest is the BLAKE3 hash of its bytes
	Path   string
	Digest string

	// Status is "complete" or "partial" and Diagnostics holds the errors of a partial decode
	Status      string
	Diagnostics []string

	// PixelData locates the Pixel Data value in the decoded stream, zero when it was not decoded
	PixelData dicom.ByteRegion

	IndexedAt time.Time
}

// RecordFromFile extracts the catalog attributes of a decoded file. The SOP Instance UID comes
// from the data set, or from the File Meta Information when the data set has none.
func RecordFromFile(path string, f *dicom.File, digest string) (Record, error) {
	ds := f.DataSet
	r := Record{
		SOPInstanceUID:    stringValue(ds, dicom.SOPInstanceUIDTag),
		SOPClassUID:       stringValue(ds, dicom.SOPClassUIDTag),
		StudyInstanceUID:  stringValue(ds, dicom.StudyInstanceUIDTag),
		SeriesInstanceUID: stringValue(ds, dicom.SeriesInstanceUIDTag),
		PatientID:         stringValue(ds, dicom.PatientIDTag),
		PatientName:       stringValue(ds, dicom.PatientNameTag),
		Modality:          stringValue(ds, dicom.ModalityTag),
		StudyDate:         stringValue(ds, dicom.StudyDateTag),
		InstitutionName:   stringValue(ds, dicom.InstitutionNameTag),
		AccessionNumber:   stringValue(ds, dicom.AccessionNumberTag),
		TransferSyntaxUID: f.TransferSyntaxUID,
		Path:              path,
		Digest:            digest,
		Status:            dicom.Classify(f, nil).String(),
	}
	if r.SOPInstanceUID == "" {
		r.SOPInstanceUID = stringValue(f.Meta, dicom.MediaStorageSOPInstanceUIDTag)
	}
	if r.SOPClassUID == "" {
		r.SOPClassUID = stringValue(f.Meta, dicom.MediaStorageSOPClassUIDTag)
	}
	if r.SOPInstanceUID == "" {
		return Record{}, fmt.Errorf("%s: SOP Instance UID: %w", path, dicom.ErrNotFound)
	}
	for _, d := range f.Diagnostics {
		r.Diagnostics = append(r.Diagnostics, d.Error())
	}
	if region, err := dicom.PixelDataRegion(ds); err == nil {
		r.PixelData = region
	}
	return r, nil
}

func stringValue(ds *dicom.DataSet, tag dicom.Tag) string {
	s, err := ds.StringValue(tag)
	if err != nil {
		return ""
	}
	return s
}

// Filter selects records in List. Empty fields match everything.
type Filter struct {
	PatientID        string
	StudyInstanceUID string
	Modality         string
	Status           string
	// Limit caps the number of records, 0 for no limit
	Limit int
}

// Store is a catalog backed by a SQLite database
type Store struct {
	db *sql.DB
}

// Open opens the SQLite database at dsn and creates the schema when it is missing.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog %q: %w", dsn, err)
	}
	// SQLite allows a single writer; scans share one connection.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate catalog %q: %w", dsn, err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS instances (
		sop_instance_uid TEXT PRIMARY KEY,
		sop_class_uid TEXT NOT NULL DEFAULT '',
		study_instance_uid TEXT NOT NULL DEFAULT '',
		series_instance_uid TEXT NOT NULL DEFAULT '',
		patient_id TEXT NOT NULL DEFAULT '',
		patient_name TEXT NOT NULL DEFAULT '',
		modality TEXT NOT NULL DEFAULT '',
		study_date TEXT NOT NULL DEFAULT '',
		institution_name TEXT NOT NULL DEFAULT '',
		accession_number TEXT NOT NULL DEFAULT '',
		transfer_syntax_uid TEXT NOT NULL DEFAULT '',
		path TEXT NOT NULL,
		digest TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		diagnostics JSON,
		pixel_offset INTEGER NOT NULL DEFAULT 0,
		pixel_length INTEGER NOT NULL DEFAULT 0,
		indexed_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_instances_study ON instances(study_instance_uid);
	CREATE INDEX IF NOT EXISTS idx_instances_patient ON instances(patient_id);`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

const columns = `sop_instance_uid, sop_class_uid, study_instance_uid, series_instance_uid,
	patient_id, patient_name, modality, study_date, institution_name, accession_number,
	transfer_syntax_uid, path, digest, status, diagnostics, pixel_offset, pixel_length, indexed_at`

// Put inserts r or replaces the record with the same SOP Instance UID.
func (s *Store) Put(ctx context.Context, r Record) error {
	if r.SOPInstanceUID == "" {
		return errors.New("record without SOP Instance UID")
	}
	if r.IndexedAt.IsZero() {
		r.IndexedAt = time.Now()
	}
	diagnostics, err := json.Marshal(r.Diagnostics)
	if err != nil {
		return fmt.Errorf("encode diagnostics: %w", err)
	}

	query := `INSERT INTO instances (` + columns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(sop_instance_uid) DO UPDATE SET
		sop_class_uid = excluded.sop_class_uid,
		study_instance_uid = excluded.study_instance_uid,
		series_instance_uid = excluded.series_instance_uid,
		patient_id = excluded.patient_id,
		patient_name = excluded.patient_name,
		modality = excluded.modality,
		study_date = excluded.study_date,
		institution_name = excluded.institution_name,
		accession_number = excluded.accession_number,
		transfer_syntax_uid = excluded.transfer_syntax_uid,
		path = excluded.path,
		digest = excluded.digest,
		status = excluded.status,
		diagnostics = excluded.diagnostics,
		pixel_offset = excluded.pixel_offset,
		pixel_length = excluded.pixel_length,
		indexed_at = excluded.indexed_at`

	_, err = s.db.ExecContext(ctx, query,
		r.SOPInstanceUID, r.SOPClassUID, r.StudyInstanceUID, r.SeriesInstanceUID,
		r.PatientID, r.PatientName, r.Modality, r.StudyDate, r.InstitutionName, r.AccessionNumber,
		r.TransferSyntaxUID, r.Path, r.Digest, r.Status, string(diagnostics),
		r.PixelData.Offset, r.PixelData.Length, r.IndexedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert %s: %w", r.SOPInstanceUID, err)
	}
	return nil
}

// Lookup returns the record of a SOP instance or ErrNotFound.
func (s *Store) Lookup(ctx context.Context, sopInstanceUID string) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+columns+` FROM instances WHERE sop_instance_uid = ?`, sopInstanceUID)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%s: %w", sopInstanceUID, ErrNotFound)
	}
	return r, err
}

// List returns the records matching f ordered by study date and SOP Instance UID.
func (s *Store) List(ctx context.Context, f Filter) ([]Record, error) {
	var (
		where []string
		args  []any
	)
	for _, c := range []struct {
		column, value string
	}{
		{"patient_id", f.PatientID},
		{"study_instance_uid", f.StudyInstanceUID},
		{"modality", f.Modality},
		{"status", f.Status},
	} {
		if c.value != "" {
			where = append(where, c.column+" = ?")
			args = append(args, c.value)
		}
	}

	query := `SELECT ` + columns + ` FROM instances`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY study_date, sop_instance_uid`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Delete removes the record of a SOP instance, ErrNotFound when there is none.
func (s *Store) Delete(ctx context.Context, sopInstanceUID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM instances WHERE sop_instance_uid = ?`, sopInstanceUID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", sopInstanceUID, ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		r           Record
		diagnostics sql.NullString
		indexedAt   string
	)
	err := row.Scan(&r.SOPInstanceUID, &r.SOPClassUID, &r.StudyInstanceUID, &r.SeriesInstanceUID,
		&r.PatientID, &r.PatientName, &r.Modality, &r.StudyDate, &r.InstitutionName,
		&r.AccessionNumber, &r.TransferSyntaxUID, &r.Path, &r.Digest, &r.Status, &diagnostics,
		&r.PixelData.Offset, &r.PixelData.Length, &indexedAt)
	if err != nil {
		return Record{}, err
	}
	if diagnostics.Valid && diagnostics.String != "" {
		if err := json.Unmarshal([]byte(diagnostics.String), &r.Diagnostics); err != nil {
			return Record{}, fmt.Errorf("decode diagnostics of %s: %w", r.SOPInstanceUID, err)
		}
	}
	if r.IndexedAt, err = time.Parse(time.RFC3339Nano, indexedAt); err != nil {
		return Record{}, fmt.Errorf("decode indexed_at of %s: %w", r.SOPInstanceUID, err)
	}
	return r, nil
}
