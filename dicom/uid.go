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
	"math/big"

	"github.com/google/uuid"
)

// uuidRoot is the UID root for UIDs derived from a UUID
// http://dicom.nema.org/medical/dicom/current/output/html/part05.html#sect_B.2
const uuidRoot = "2.25."

// NewUID returns a new globally unique UID derived from a random UUID.
func NewUID() string {
	u := uuid.New()
	return uuidRoot + new(big.Int).SetBytes(u[:]).String()
}
