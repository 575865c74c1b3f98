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
	standard "github.com/suyashkumar/dicom/pkg/tag"
)

// DictionaryEntry is one attribute of the DICOM data dictionary
// http://dicom.nema.org/medical/dicom/current/output/html/part06.html#chapter_6
type DictionaryEntry struct {
	Tag Tag
	VR  *VR

	// VM is the value multiplicity, e.g. "1", "2", "1-n"
	VM      string
	Keyword string
}

// Attributes whose VR depends on context (e.g. "US or SS", "OB or OW") are listed with the VR
// used when the stream does not say otherwise.
var dictionaryEntries = []DictionaryEntry{
	{FileMetaInformationGroupLengthTag, ULVR, "1", "FileMetaInformationGroupLength"},
	{FileMetaInformationVersionTag, OBVR, "1", "FileMetaInformationVersion"},
	{MediaStorageSOPClassUIDTag, UIVR, "1", "MediaStorageSOPClassUID"},
	{MediaStorageSOPInstanceUIDTag, UIVR, "1", "MediaStorageSOPInstanceUID"},
	{TransferSyntaxUIDTag, UIVR, "1", "TransferSyntaxUID"},
	{ImplementationClassUIDTag, UIVR, "1", "ImplementationClassUID"},
	{ImplementationVersionNameTag, SHVR, "1", "ImplementationVersionName"},
	{SourceApplicationEntityTitleTag, AEVR, "1", "SourceApplicationEntityTitle"},
	{PrivateInformationCreatorUIDTag, UIVR, "1", "PrivateInformationCreatorUID"},
	{PrivateInformationTag, OBVR, "1", "PrivateInformation"},

	{SpecificCharacterSetTag, CSVR, "1-n", "SpecificCharacterSet"},
	{ImageTypeTag, CSVR, "2-n", "ImageType"},
	{InstanceCreationDateTag, DAVR, "1", "InstanceCreationDate"},
	{InstanceCreationTimeTag, TMVR, "1", "InstanceCreationTime"},
	{InstanceCreatorUIDTag, UIVR, "1", "InstanceCreatorUID"},
	{SOPClassUIDTag, UIVR, "1", "SOPClassUID"},
	{SOPInstanceUIDTag, UIVR, "1", "SOPInstanceUID"},
	{StudyDateTag, DAVR, "1", "StudyDate"},
	{SeriesDateTag, DAVR, "1", "SeriesDate"},
	{AcquisitionDateTag, DAVR, "1", "AcquisitionDate"},
	{ContentDateTag, DAVR, "1", "ContentDate"},
	{AcquisitionDateTimeTag, DTVR, "1", "AcquisitionDateTime"},
	{StudyTimeTag, TMVR, "1", "StudyTime"},
	{SeriesTimeTag, TMVR, "1", "SeriesTime"},
	{AcquisitionTimeTag, TMVR, "1", "AcquisitionTime"},
	{ContentTimeTag, TMVR, "1", "ContentTime"},
	{AccessionNumberTag, SHVR, "1", "AccessionNumber"},
	{QueryRetrieveLevelTag, CSVR, "1", "QueryRetrieveLevel"},
	{RetrieveAETitleTag, AEVR, "1-n", "RetrieveAETitle"},
	{InstanceAvailabilityTag, CSVR, "1", "InstanceAvailability"},
	{ModalityTag, CSVR, "1", "Modality"},
	{ModalitiesInStudyTag, CSVR, "1-n", "ModalitiesInStudy"},
	{ConversionTypeTag, CSVR, "1", "ConversionType"},
	{ManufacturerTag, LOVR, "1", "Manufacturer"},
	{InstitutionNameTag, LOVR, "1", "InstitutionName"},
	{InstitutionAddressTag, STVR, "1", "InstitutionAddress"},
	{ReferringPhysicianNameTag, PNVR, "1", "ReferringPhysicianName"},
	{CodeValueTag, SHVR, "1", "CodeValue"},
	{CodingSchemeDesignatorTag, SHVR, "1", "CodingSchemeDesignator"},
	{CodeMeaningTag, LOVR, "1", "CodeMeaning"},
	{TimezoneOffsetFromUTCTag, SHVR, "1", "TimezoneOffsetFromUTC"},
	{StationNameTag, SHVR, "1", "StationName"},
	{StudyDescriptionTag, LOVR, "1", "StudyDescription"},
	{ProcedureCodeSequenceTag, SQVR, "1", "ProcedureCodeSequence"},
	{SeriesDescriptionTag, LOVR, "1", "SeriesDescription"},
	{InstitutionalDepartmentNameTag, LOVR, "1", "InstitutionalDepartmentName"},
	{PerformingPhysicianNameTag, PNVR, "1-n", "PerformingPhysicianName"},
	{OperatorsNameTag, PNVR, "1-n", "OperatorsName"},
	{ManufacturerModelNameTag, LOVR, "1", "ManufacturerModelName"},
	{ReferencedStudySequenceTag, SQVR, "1", "ReferencedStudySequence"},
	{ReferencedSeriesSequenceTag, SQVR, "1", "ReferencedSeriesSequence"},
	{ReferencedPatientSequenceTag, SQVR, "1", "ReferencedPatientSequence"},
	{ReferencedImageSequenceTag, SQVR, "1", "ReferencedImageSequence"},
	{ReferencedSOPClassUIDTag, UIVR, "1", "ReferencedSOPClassUID"},
	{ReferencedSOPInstanceUIDTag, UIVR, "1", "ReferencedSOPInstanceUID"},
	{ReferencedFrameNumberTag, ISVR, "1-n", "ReferencedFrameNumber"},
	{DerivationDescriptionTag, STVR, "1", "DerivationDescription"},
	{SourceImageSequenceTag, SQVR, "1", "SourceImageSequence"},
	{IrradiationEventUIDTag, UIVR, "1-n", "IrradiationEventUID"},
	{DerivationCodeSequenceTag, SQVR, "1", "DerivationCodeSequence"},

	{PatientNameTag, PNVR, "1", "PatientName"},
	{PatientIDTag, LOVR, "1", "PatientID"},
	{IssuerOfPatientIDTag, LOVR, "1", "IssuerOfPatientID"},
	{PatientBirthDateTag, DAVR, "1", "PatientBirthDate"},
	{PatientSexTag, CSVR, "1", "PatientSex"},
	{OtherPatientIDsSequenceTag, SQVR, "1", "OtherPatientIDsSequence"},
	{PatientAgeTag, ASVR, "1", "PatientAge"},
	{PatientSizeTag, DSVR, "1", "PatientSize"},
	{PatientWeightTag, DSVR, "1", "PatientWeight"},
	{EthnicGroupTag, SHVR, "1", "EthnicGroup"},
	{PatientCommentsTag, LTVR, "1", "PatientComments"},

	{ContrastBolusAgentTag, LOVR, "1", "ContrastBolusAgent"},
	{BodyPartExaminedTag, CSVR, "1", "BodyPartExamined"},
	{ScanningSequenceTag, CSVR, "1-n", "ScanningSequence"},
	{SliceThicknessTag, DSVR, "1", "SliceThickness"},
	{KVPTag, DSVR, "1", "KVP"},
	{RepetitionTimeTag, DSVR, "1", "RepetitionTime"},
	{EchoTimeTag, DSVR, "1", "EchoTime"},
	{MagneticFieldStrengthTag, DSVR, "1", "MagneticFieldStrength"},
	{SpacingBetweenSlicesTag, DSVR, "1", "SpacingBetweenSlices"},
	{DeviceSerialNumberTag, LOVR, "1", "DeviceSerialNumber"},
	{SoftwareVersionsTag, LOVR, "1-n", "SoftwareVersions"},
	{ProtocolNameTag, LOVR, "1", "ProtocolName"},
	{ExposureTimeTag, ISVR, "1", "ExposureTime"},
	{XRayTubeCurrentTag, ISVR, "1", "XRayTubeCurrent"},
	{ExposureTag, ISVR, "1", "Exposure"},
	{ConvolutionKernelTag, SHVR, "1-n", "ConvolutionKernel"},
	{PatientPositionTag, CSVR, "1", "PatientPosition"},
	{ViewPositionTag, CSVR, "1", "ViewPosition"},

	{StudyInstanceUIDTag, UIVR, "1", "StudyInstanceUID"},
	{SeriesInstanceUIDTag, UIVR, "1", "SeriesInstanceUID"},
	{StudyIDTag, SHVR, "1", "StudyID"},
	{SeriesNumberTag, ISVR, "1", "SeriesNumber"},
	{AcquisitionNumberTag, ISVR, "1", "AcquisitionNumber"},
	{InstanceNumberTag, ISVR, "1", "InstanceNumber"},
	{PatientOrientationTag, CSVR, "2", "PatientOrientation"},
	{ImagePositionPatientTag, DSVR, "3", "ImagePositionPatient"},
	{ImageOrientationPatientTag, DSVR, "6", "ImageOrientationPatient"},
	{FrameOfReferenceUIDTag, UIVR, "1", "FrameOfReferenceUID"},
	{LateralityTag, CSVR, "1", "Laterality"},
	{PositionReferenceIndicatorTag, LOVR, "1", "PositionReferenceIndicator"},
	{SliceLocationTag, DSVR, "1", "SliceLocation"},
	{NumberOfStudyRelatedSeriesTag, ISVR, "1", "NumberOfStudyRelatedSeries"},
	{NumberOfStudyRelatedInstancesTag, ISVR, "1", "NumberOfStudyRelatedInstances"},
	{ImageCommentsTag, LTVR, "1", "ImageComments"},

	{SamplesPerPixelTag, USVR, "1", "SamplesPerPixel"},
	{PhotometricInterpretationTag, CSVR, "1", "PhotometricInterpretation"},
	{PlanarConfigurationTag, USVR, "1", "PlanarConfiguration"},
	{NumberOfFramesTag, ISVR, "1", "NumberOfFrames"},
	{FrameIncrementPointerTag, ATVR, "1-n", "FrameIncrementPointer"},
	{RowsTag, USVR, "1", "Rows"},
	{ColumnsTag, USVR, "1", "Columns"},
	{PixelSpacingTag, DSVR, "2", "PixelSpacing"},
	{BitsAllocatedTag, USVR, "1", "BitsAllocated"},
	{BitsStoredTag, USVR, "1", "BitsStored"},
	{HighBitTag, USVR, "1", "HighBit"},
	{PixelRepresentationTag, USVR, "1", "PixelRepresentation"},
	{SmallestImagePixelValueTag, USVR, "1", "SmallestImagePixelValue"},
	{LargestImagePixelValueTag, USVR, "1", "LargestImagePixelValue"},
	{WindowCenterTag, DSVR, "1-n", "WindowCenter"},
	{WindowWidthTag, DSVR, "1-n", "WindowWidth"},
	{RescaleInterceptTag, DSVR, "1", "RescaleIntercept"},
	{RescaleSlopeTag, DSVR, "1", "RescaleSlope"},
	{RescaleTypeTag, LOVR, "1", "RescaleType"},
	{RedPaletteColorLookupTableDataTag, OWVR, "1", "RedPaletteColorLookupTableData"},
	{LossyImageCompressionTag, CSVR, "1", "LossyImageCompression"},
	{ModalityLUTSequenceTag, SQVR, "1", "ModalityLUTSequence"},
	{VOILUTSequenceTag, SQVR, "1", "VOILUTSequence"},
	{PixelDataProviderURLTag, URVR, "1", "PixelDataProviderURL"},

	{RequestedProcedureDescriptionTag, LOVR, "1", "RequestedProcedureDescription"},
	{ScheduledProcedureStepIDTag, SHVR, "1", "ScheduledProcedureStepID"},
	{RequestAttributesSequenceTag, SQVR, "1", "RequestAttributesSequence"},
	{RequestedProcedureIDTag, SHVR, "1", "RequestedProcedureID"},
	{RelationshipTypeTag, CSVR, "1", "RelationshipType"},
	{ValueTypeTag, CSVR, "1", "ValueType"},
	{ConceptNameCodeSequenceTag, SQVR, "1", "ConceptNameCodeSequence"},
	{TextValueTag, UTVR, "1", "TextValue"},
	{ContentSequenceTag, SQVR, "1", "ContentSequence"},

	{EncapsulatedDocumentTag, OBVR, "1", "EncapsulatedDocument"},
	{MIMETypeOfEncapsulatedDocumentTag, LOVR, "1", "MIMETypeOfEncapsulatedDocument"},

	{AudioSampleDataTag, OWVR, "1", "AudioSampleData"},
	{CurveDataTag, OWVR, "1", "CurveData"},
	{SharedFunctionalGroupsSequenceTag, SQVR, "1", "SharedFunctionalGroupsSequence"},
	{PerFrameFunctionalGroupsSequenceTag, SQVR, "1", "PerFrameFunctionalGroupsSequence"},
	{WaveformSequenceTag, SQVR, "1", "WaveformSequence"},
	{WaveformDataTag, OWVR, "1", "WaveformData"},
	{SpectroscopyDataTag, OFVR, "1", "SpectroscopyData"},
	{OverlayRowsTag, USVR, "1", "OverlayRows"},
	{OverlayColumnsTag, USVR, "1", "OverlayColumns"},
	{OverlayTypeTag, CSVR, "1", "OverlayType"},
	{OverlayOriginTag, SSVR, "2", "OverlayOrigin"},
	{OverlayBitsAllocatedTag, USVR, "1", "OverlayBitsAllocated"},
	{OverlayBitPositionTag, USVR, "1", "OverlayBitPosition"},
	{OverlayDataTag, OWVR, "1", "OverlayData"},
	{VariablePixelDataTag, OWVR, "1", "VariablePixelData"},
	{FloatPixelDataTag, OFVR, "1", "FloatPixelData"},
	{DoubleFloatPixelDataTag, ODVR, "1", "DoubleFloatPixelData"},
	{PixelDataTag, OWVR, "1", "PixelData"},
	{DataSetTrailingPaddingTag, OBVR, "1", "DataSetTrailingPadding"},
}

var (
	dictionary = indexByTag(dictionaryEntries)
	keywords   = indexByKeyword(dictionaryEntries)
)

func indexByTag(entries []DictionaryEntry) map[Tag]DictionaryEntry {
	m := make(map[Tag]DictionaryEntry, len(entries))
	for _, e := range entries {
		m[e.Tag] = e
	}
	return m
}

func indexByKeyword(entries []DictionaryEntry) map[string]Tag {
	m := make(map[string]Tag, len(entries))
	for _, e := range entries {
		m[e.Keyword] = e.Tag
	}
	return m
}

// repeatingGroupMasks clear the xx digits of (50xx,eeee), (60xx,eeee) and (7Fxx,eeee) tags.
var repeatingGroupMasks = map[uint16]uint32{
	0x5000: 0xFF00FFFF,
	0x6000: 0xFF00FFFF,
	0x7F00: 0xFF00FFFF,
}

// LookupTag returns the data dictionary entry of tag. Standard attributes are found directly,
// through the repeating group masks or in the full registry. Group lengths and private creators are resolved by rule.
// For every other tag the boolean is false and the entry has VR UN and VM "1", which is how
// unknown and private attributes are decoded.
func LookupTag(tag Tag) (DictionaryEntry, bool) {
	if e, ok := dictionary[tag]; ok {
		return e, true
	}
	if tag.IsGroupLength() {
		return DictionaryEntry{Tag: tag, VR: ULVR, VM: "1", Keyword: "GenericGroupLength"}, true
	}
	if tag.IsPrivateCreator() {
		return DictionaryEntry{Tag: tag, VR: LOVR, VM: "1", Keyword: "PrivateCreator"}, true
	}
	if !tag.IsPrivate() {
		if mask, ok := repeatingGroupMasks[tag.Group()&0xFF00]; ok {
			if e, ok := dictionary[Tag(uint32(tag)&mask)]; ok {
				e.Tag = tag
				return e, true
			}
		}
		if e, ok := standardEntry(tag); ok {
			return e, true
		}
	}
	return DictionaryEntry{Tag: tag, VR: UNVR, VM: "1"}, false
}

// standardEntry resolves a public attribute outside dictionaryEntries against the complete PS3.6
// registry. Attributes listed with several VRs take the first one this package knows.
func standardEntry(tag Tag) (DictionaryEntry, bool) {
	info, err := standard.Find(standard.Tag{Group: tag.Group(), Element: tag.Element()})
	if err != nil || info.Name == "" {
		return DictionaryEntry{}, false
	}
	return DictionaryEntry{Tag: tag, VR: firstKnownVR(info.VRs), VM: info.VM, Keyword: info.Name}, true
}

func firstKnownVR(names []string) *VR {
	for _, name := range names {
		if vr, ok := lookupVRByName(name); ok {
			return vr
		}
	}
	return UNVR
}

// DictionaryVR returns the VR of the tag in the data dictionary, UN for unknown tags.
func (t Tag) DictionaryVR() *VR {
	e, _ := LookupTag(t)
	return e.VR
}

// Keyword returns the dictionary keyword of the tag or an empty string.
func (t Tag) Keyword() string {
	e, _ := LookupTag(t)
	return e.Keyword
}

// LookupKeyword returns the tag of a dictionary keyword such as "PatientName".
func LookupKeyword(keyword string) (Tag, bool) {
	if t, ok := keywords[keyword]; ok {
		return t, true
	}
	info, err := standard.FindByName(keyword)
	if err != nil || info.Tag.Group%2 == 1 {
		return 0, false
	}
	return NewTag(info.Tag.Group, info.Tag.Element), true
}
