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

// Package dicom decodes and encodes the DICOM file format.
//
// Parse and ParseBytes decode a whole file into memory: the preamble, the File Meta Information
// and the data set, which is decoded in the transfer syntax named by the meta information.
// Decoding tolerates damaged input: when the stream ends inside an element or the structure
// cannot be followed, the elements decoded so far are returned together with a *DecodeError.
// Use Classify to tell complete, partial and failed decodes apart.
//
// The values of a DataSet are read through typed accessors such as StringValue and IntValue,
// which fail with ErrNotFound or ErrTypeMismatch instead of panicking.
//
// Write and the streaming DataElementWriter encode a DataSet back into a file.
package dicom
