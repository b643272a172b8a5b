// Package tag defines DICOM data element tags
package tag

import "fmt"

// Tag represents a DICOM tag with Group and Element
type Tag struct {
	Group   uint16
	Element uint16
}

// New creates a new Tag
func New(group, element uint16) Tag {
	return Tag{Group: group, Element: element}
}

// Equals compares two tags
func (t Tag) Equals(other Tag) bool {
	return t.Group == other.Group && t.Element == other.Element
}

// Less orders tags by (group, element)
func (t Tag) Less(other Tag) bool {
	if t.Group != other.Group {
		return t.Group < other.Group
	}
	return t.Element < other.Element
}

// IsPrivate returns true if this is a private tag (odd group number)
func (t Tag) IsPrivate() bool {
	return t.Group%2 == 1
}

// IsFileMeta returns true if this tag is in the File Meta Information group
func (t Tag) IsFileMeta() bool {
	return t.Group == 0x0002
}

// IsPixelData returns true for the Pixel Data element
func (t Tag) IsPixelData() bool {
	return t == PixelData
}

func (t Tag) String() string {
	return fmt.Sprintf("(%04X,%04X)", t.Group, t.Element)
}

// Parse parses a "GGGG,EEEE" tag string
func Parse(s string) (Tag, error) {
	var group, element uint16
	if _, err := fmt.Sscanf(s, "%04x,%04x", &group, &element); err != nil {
		return Tag{}, fmt.Errorf("invalid tag %q: %w", s, err)
	}
	return Tag{Group: group, Element: element}, nil
}

// File Meta Information (Group 0002)
var (
	FileMetaInformationGroupLength = Tag{0x0002, 0x0000}
	FileMetaInformationVersion     = Tag{0x0002, 0x0001}
	MediaStorageSOPClassUID        = Tag{0x0002, 0x0002}
	MediaStorageSOPInstanceUID     = Tag{0x0002, 0x0003}
	TransferSyntaxUID              = Tag{0x0002, 0x0010}
	ImplementationClassUID         = Tag{0x0002, 0x0012}
	ImplementationVersionName      = Tag{0x0002, 0x0013}
	SpecificCharacterSet           = Tag{0x0008, 0x0005}
)

// Patient Module (Group 0010)
var (
	PatientName      = Tag{0x0010, 0x0010}
	PatientID        = Tag{0x0010, 0x0020}
	PatientBirthDate = Tag{0x0010, 0x0030}
	PatientSex       = Tag{0x0010, 0x0040}
	PatientAge       = Tag{0x0010, 0x1010}
	PatientComments  = Tag{0x0010, 0x4000}
)

// General Study Module
var (
	StudyDate        = Tag{0x0008, 0x0020}
	StudyTime        = Tag{0x0008, 0x0030}
	AccessionNumber  = Tag{0x0008, 0x0050}
	StudyDescription = Tag{0x0008, 0x1030}
	StudyInstanceUID = Tag{0x0020, 0x000D}
	StudyID          = Tag{0x0020, 0x0010}
)

// General Series Module
var (
	Modality               = Tag{0x0008, 0x0060}
	SeriesInstanceUID      = Tag{0x0020, 0x000E}
	SeriesNumber           = Tag{0x0020, 0x0011}
	InstanceNumber         = Tag{0x0020, 0x0013}
	SeriesDescription      = Tag{0x0008, 0x103E}
	SeriesDate             = Tag{0x0008, 0x0021}
	SeriesTime             = Tag{0x0008, 0x0031}
	PresentationIntentType = Tag{0x0008, 0x0068}
)

// General Equipment Module
var (
	Manufacturer          = Tag{0x0008, 0x0070}
	InstitutionName       = Tag{0x0008, 0x0080}
	StationName           = Tag{0x0008, 0x1010}
	ManufacturerModelName = Tag{0x0008, 0x1090}
	DeviceSerialNumber    = Tag{0x0018, 0x1000}
	SoftwareVersions      = Tag{0x0018, 0x1020}
)

// SOP Common Module
var (
	SOPClassUID          = Tag{0x0008, 0x0016}
	SOPInstanceUID       = Tag{0x0008, 0x0018}
	InstanceCreationDate = Tag{0x0008, 0x0012}
	InstanceCreationTime = Tag{0x0008, 0x0013}
	ImageType            = Tag{0x0008, 0x0008}
)

// Image Pixel Module (Group 0028)
var (
	SamplesPerPixel           = Tag{0x0028, 0x0002}
	PhotometricInterpretation = Tag{0x0028, 0x0004}
	PlanarConfiguration       = Tag{0x0028, 0x0006}
	NumberOfFrames            = Tag{0x0028, 0x0008}
	Rows                      = Tag{0x0028, 0x0010}
	Columns                   = Tag{0x0028, 0x0011}
	PixelSpacing              = Tag{0x0028, 0x0030}
	BitsAllocated             = Tag{0x0028, 0x0100}
	BitsStored                = Tag{0x0028, 0x0101}
	HighBit                   = Tag{0x0028, 0x0102}
	PixelRepresentation       = Tag{0x0028, 0x0103}
	SmallestImagePixelValue   = Tag{0x0028, 0x0106}
	LargestImagePixelValue    = Tag{0x0028, 0x0107}
	PixelData                 = Tag{0x7FE0, 0x0010}
)

// VOI LUT / Modality LUT Module
var (
	WindowCenter     = Tag{0x0028, 0x1050}
	WindowWidth      = Tag{0x0028, 0x1051}
	RescaleIntercept = Tag{0x0028, 0x1052}
	RescaleSlope     = Tag{0x0028, 0x1053}
	RescaleType      = Tag{0x0028, 0x1054}
	VOILUTFunction   = Tag{0x0028, 0x1056}
)

// X-Ray acquisition
var (
	KVP              = Tag{0x0018, 0x0060}
	ExposureTime     = Tag{0x0018, 0x1150}
	ImageComments    = Tag{0x0020, 0x4000}
	BodyPartExamined = Tag{0x0018, 0x0015}
)

// Content Date/Time
var (
	ContentDate = Tag{0x0008, 0x0023}
	ContentTime = Tag{0x0008, 0x0033}
)

// Referenced instances
var (
	ReferencedSOPClassUID    = Tag{0x0008, 0x1150}
	ReferencedSOPInstanceUID = Tag{0x0008, 0x1155}
	ReferencedImageSequence  = Tag{0x0008, 0x1140}
	ReferencedSeriesSequence = Tag{0x0008, 0x1115}
)

// Sequence delimiters
var (
	Item                     = Tag{0xFFFE, 0xE000}
	ItemDelimitationItem     = Tag{0xFFFE, 0xE00D}
	SequenceDelimitationItem = Tag{0xFFFE, 0xE0DD}
)
