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

package catalog

import (
	"path/filepath"
	"strings"
)

const (
	unknownInstitution = "UN_IN"
	unknownModality    = "UN_MODALITY"
	unknownDate        = "UN_DATE"
	unknownAccession   = "UN_ACC"
)

// StoragePath returns the relative path a record is archived under:
// institution/modality/yyyy/mm/dd/accession/<SOP Instance UID>.dcm. Missing attributes are
// replaced by placeholders. A missing accession number falls back to the patient name, then to
// the Study Instance UID.
func StoragePath(r Record) string {
	institution := sanitize(r.InstitutionName)
	if institution == "" {
		institution = unknownInstitution
	}

	modality := strings.TrimSpace(r.Modality)
	if modality == "" {
		modality = unknownModality
	}

	date := []string{unknownDate}
	if d := strings.TrimSpace(r.StudyDate); len(d) >= 8 {
		date = []string{d[0:4], d[4:6], d[6:8]}
	}

	accession := strings.TrimSpace(r.AccessionNumber)
	if accession == "" {
		accession = sanitize(r.PatientName)
	}
	if accession == "" {
		accession = strings.TrimSpace(r.StudyInstanceUID)
	}
	if accession == "" {
		accession = unknownAccession
	}

	elems := []string{institution, modality}
	elems = append(elems, date...)
	elems = append(elems, accession, r.SOPInstanceUID+".dcm")
	return filepath.Join(elems...)
}

var stripped = strings.NewReplacer(" ", "", ".", "", "&", "")

func sanitize(s string) string {
	return stripped.Replace(strings.TrimSpace(s))
}
