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

// Tags of the standard data dictionary used by this package. Tags of repeating groups such as
// (60xx,3000) are declared with the xx digits set to 0.
// http://dicom.nema.org/medical/dicom/current/output/html/part06.html
const (
	// File Meta Information
	FileMetaInformationGroupLengthTag Tag = 0x00020000
	FileMetaInformationVersionTag     Tag = 0x00020001
	MediaStorageSOPClassUIDTag        Tag = 0x00020002
	MediaStorageSOPInstanceUIDTag     Tag = 0x00020003
	TransferSyntaxUIDTag              Tag = 0x00020010
	ImplementationClassUIDTag         Tag = 0x00020012
	ImplementationVersionNameTag      Tag = 0x00020013
	SourceApplicationEntityTitleTag   Tag = 0x00020016
	PrivateInformationCreatorUIDTag   Tag = 0x00020100
	PrivateInformationTag             Tag = 0x00020102

	// SOP Common, General Study, General Series, General Equipment
	SpecificCharacterSetTag        Tag = 0x00080005
	ImageTypeTag                   Tag = 0x00080008
	InstanceCreationDateTag        Tag = 0x00080012
	InstanceCreationTimeTag        Tag = 0x00080013
	InstanceCreatorUIDTag          Tag = 0x00080014
	SOPClassUIDTag                 Tag = 0x00080016
	SOPInstanceUIDTag              Tag = 0x00080018
	StudyDateTag                   Tag = 0x00080020
	SeriesDateTag                  Tag = 0x00080021
	AcquisitionDateTag             Tag = 0x00080022
	ContentDateTag                 Tag = 0x00080023
	AcquisitionDateTimeTag         Tag = 0x0008002A
	StudyTimeTag                   Tag = 0x00080030
	SeriesTimeTag                  Tag = 0x00080031
	AcquisitionTimeTag             Tag = 0x00080032
	ContentTimeTag                 Tag = 0x00080033
	AccessionNumberTag             Tag = 0x00080050
	QueryRetrieveLevelTag          Tag = 0x00080052
	RetrieveAETitleTag             Tag = 0x00080054
	InstanceAvailabilityTag        Tag = 0x00080056
	ModalityTag                    Tag = 0x00080060
	ModalitiesInStudyTag           Tag = 0x00080061
	ConversionTypeTag              Tag = 0x00080064
	ManufacturerTag                Tag = 0x00080070
	InstitutionNameTag             Tag = 0x00080080
	InstitutionAddressTag          Tag = 0x00080081
	ReferringPhysicianNameTag      Tag = 0x00080090
	CodeValueTag                   Tag = 0x00080100
	CodingSchemeDesignatorTag      Tag = 0x00080102
	CodeMeaningTag                 Tag = 0x00080104
	TimezoneOffsetFromUTCTag       Tag = 0x00080201
	StationNameTag                 Tag = 0x00081010
	StudyDescriptionTag            Tag = 0x00081030
	ProcedureCodeSequenceTag       Tag = 0x00081032
	SeriesDescriptionTag           Tag = 0x0008103E
	InstitutionalDepartmentNameTag Tag = 0x00081040
	PerformingPhysicianNameTag     Tag = 0x00081050
	OperatorsNameTag               Tag = 0x00081070
	ManufacturerModelNameTag       Tag = 0x00081090
	ReferencedStudySequenceTag     Tag = 0x00081110
	ReferencedSeriesSequenceTag    Tag = 0x00081115
	ReferencedPatientSequenceTag   Tag = 0x00081120
	ReferencedImageSequenceTag     Tag = 0x00081140
	ReferencedSOPClassUIDTag       Tag = 0x00081150
	ReferencedSOPInstanceUIDTag    Tag = 0x00081155
	ReferencedFrameNumberTag       Tag = 0x00081160
	DerivationDescriptionTag       Tag = 0x00082111
	SourceImageSequenceTag         Tag = 0x00082112
	IrradiationEventUIDTag         Tag = 0x00083010
	DerivationCodeSequenceTag      Tag = 0x00089215

	// Patient
	PatientNameTag             Tag = 0x00100010
	PatientIDTag               Tag = 0x00100020
	IssuerOfPatientIDTag       Tag = 0x00100021
	PatientBirthDateTag        Tag = 0x00100030
	PatientSexTag              Tag = 0x00100040
	OtherPatientIDsSequenceTag Tag = 0x00101002
	PatientAgeTag              Tag = 0x00101010
	PatientSizeTag             Tag = 0x00101020
	PatientWeightTag           Tag = 0x00101030
	EthnicGroupTag             Tag = 0x00102160
	PatientCommentsTag         Tag = 0x00104000

	// Acquisition
	ContrastBolusAgentTag    Tag = 0x00180010
	BodyPartExaminedTag      Tag = 0x00180015
	ScanningSequenceTag      Tag = 0x00180020
	SliceThicknessTag        Tag = 0x00180050
	KVPTag                   Tag = 0x00180060
	RepetitionTimeTag        Tag = 0x00180080
	EchoTimeTag              Tag = 0x00180081
	MagneticFieldStrengthTag Tag = 0x00180087
	SpacingBetweenSlicesTag  Tag = 0x00180088
	DeviceSerialNumberTag    Tag = 0x00181000
	SoftwareVersionsTag      Tag = 0x00181020
	ProtocolNameTag          Tag = 0x00181030
	ExposureTimeTag          Tag = 0x00181150
	XRayTubeCurrentTag       Tag = 0x00181151
	ExposureTag              Tag = 0x00181152
	ConvolutionKernelTag     Tag = 0x00181210
	PatientPositionTag       Tag = 0x00185100
	ViewPositionTag          Tag = 0x00185101

	// Relationship, Frame of Reference, Image Plane
	StudyInstanceUIDTag              Tag = 0x0020000D
	SeriesInstanceUIDTag             Tag = 0x0020000E
	StudyIDTag                       Tag = 0x00200010
	SeriesNumberTag                  Tag = 0x00200011
	AcquisitionNumberTag             Tag = 0x00200012
	InstanceNumberTag                Tag = 0x00200013
	PatientOrientationTag            Tag = 0x00200020
	ImagePositionPatientTag          Tag = 0x00200032
	ImageOrientationPatientTag       Tag = 0x00200037
	FrameOfReferenceUIDTag           Tag = 0x00200052
	LateralityTag                    Tag = 0x00200060
	PositionReferenceIndicatorTag    Tag = 0x00201040
	SliceLocationTag                 Tag = 0x00201041
	NumberOfStudyRelatedSeriesTag    Tag = 0x00201206
	NumberOfStudyRelatedInstancesTag Tag = 0x00201208
	ImageCommentsTag                 Tag = 0x00204000

	// Image Pixel
	SamplesPerPixelTag                Tag = 0x00280002
	PhotometricInterpretationTag      Tag = 0x00280004
	PlanarConfigurationTag            Tag = 0x00280006
	NumberOfFramesTag                 Tag = 0x00280008
	FrameIncrementPointerTag          Tag = 0x00280009
	RowsTag                           Tag = 0x00280010
	ColumnsTag                        Tag = 0x00280011
	PixelSpacingTag                   Tag = 0x00280030
	BitsAllocatedTag                  Tag = 0x00280100
	BitsStoredTag                     Tag = 0x00280101
	HighBitTag                        Tag = 0x00280102
	PixelRepresentationTag            Tag = 0x00280103
	SmallestImagePixelValueTag        Tag = 0x00280106
	LargestImagePixelValueTag         Tag = 0x00280107
	WindowCenterTag                   Tag = 0x00281050
	WindowWidthTag                    Tag = 0x00281051
	RescaleInterceptTag               Tag = 0x00281052
	RescaleSlopeTag                   Tag = 0x00281053
	RescaleTypeTag                    Tag = 0x00281054
	RedPaletteColorLookupTableDataTag Tag = 0x00281201
	LossyImageCompressionTag          Tag = 0x00282110
	ModalityLUTSequenceTag            Tag = 0x00283000
	VOILUTSequenceTag                 Tag = 0x00283010
	PixelDataProviderURLTag           Tag = 0x00287FE0

	// Procedure, Structured Reporting
	RequestedProcedureDescriptionTag Tag = 0x00321060
	ScheduledProcedureStepIDTag      Tag = 0x00400009
	RequestAttributesSequenceTag     Tag = 0x00400275
	RequestedProcedureIDTag          Tag = 0x00401001
	RelationshipTypeTag              Tag = 0x0040A010
	ValueTypeTag                     Tag = 0x0040A040
	ConceptNameCodeSequenceTag       Tag = 0x0040A043
	TextValueTag                     Tag = 0x0040A160
	ContentSequenceTag               Tag = 0x0040A730

	// Encapsulated Document
	EncapsulatedDocumentTag           Tag = 0x00420011
	MIMETypeOfEncapsulatedDocumentTag Tag = 0x00420012

	// Bulk data and repeating groups
	AudioSampleDataTag                  Tag = 0x5000200C
	CurveDataTag                        Tag = 0x50003000
	WaveformSequenceTag                 Tag = 0x54000100
	WaveformDataTag                     Tag = 0x54001010
	SpectroscopyDataTag                 Tag = 0x56003020
	SharedFunctionalGroupsSequenceTag   Tag = 0x52009229
	PerFrameFunctionalGroupsSequenceTag Tag = 0x52009230
	OverlayRowsTag                      Tag = 0x60000010
	OverlayColumnsTag                   Tag = 0x60000011
	OverlayTypeTag                      Tag = 0x60000040
	OverlayOriginTag                    Tag = 0x60000050
	OverlayBitsAllocatedTag             Tag = 0x60000100
	OverlayBitPositionTag               Tag = 0x60000102
	OverlayDataTag                      Tag = 0x60003000
	VariablePixelDataTag                Tag = 0x7F000010
	FloatPixelDataTag                   Tag = 0x7FE00008
	DoubleFloatPixelDataTag             Tag = 0x7FE00009
	PixelDataTag                        Tag = 0x7FE00010
	DataSetTrailingPaddingTag           Tag = 0xFFFCFFFC

	// Delimiters
	ItemTag                     Tag = 0xFFFEE000
	ItemDelimitationItemTag     Tag = 0xFFFEE00D
	SequenceDelimitationItemTag Tag = 0xFFFEE0DD
)
