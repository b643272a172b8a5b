package tag

// Info describes a dictionary entry for a standard tag
type Info struct {
	VR   string
	Name string
	VM   string
}

// Lookup returns dictionary information for a tag. The dictionary is built
// once at init and never mutated; callers get copies of the Info values.
func Lookup(t Tag) (Info, bool) {
	info, ok := dict[t]
	return info, ok
}

// Name returns the dictionary name for a tag, or "" when unknown
func Name(t Tag) string {
	if info, ok := dict[t]; ok {
		return info.Name
	}
	return ""
}

var dict = map[Tag]Info{
	FileMetaInformationGroupLength: {VR: "UL", Name: "FileMetaInformationGroupLength", VM: "1"},
	FileMetaInformationVersion:     {VR: "OB", Name: "FileMetaInformationVersion", VM: "1"},
	MediaStorageSOPClassUID:        {VR: "UI", Name: "MediaStorageSOPClassUID", VM: "1"},
	MediaStorageSOPInstanceUID:     {VR: "UI", Name: "MediaStorageSOPInstanceUID", VM: "1"},
	TransferSyntaxUID:              {VR: "UI", Name: "TransferSyntaxUID", VM: "1"},
	ImplementationClassUID:         {VR: "UI", Name: "ImplementationClassUID", VM: "1"},
	ImplementationVersionName:      {VR: "SH", Name: "ImplementationVersionName", VM: "1"},
	SpecificCharacterSet:           {VR: "CS", Name: "SpecificCharacterSet", VM: "1-n"},

	ImageType:            {VR: "CS", Name: "ImageType", VM: "2-n"},
	InstanceCreationDate: {VR: "DA", Name: "InstanceCreationDate", VM: "1"},
	InstanceCreationTime: {VR: "TM", Name: "InstanceCreationTime", VM: "1"},
	SOPClassUID:          {VR: "UI", Name: "SOPClassUID", VM: "1"},
	SOPInstanceUID:       {VR: "UI", Name: "SOPInstanceUID", VM: "1"},
	StudyDate:            {VR: "DA", Name: "StudyDate", VM: "1"},
	SeriesDate:           {VR: "DA", Name: "SeriesDate", VM: "1"},
	ContentDate:          {VR: "DA", Name: "ContentDate", VM: "1"},
	StudyTime:            {VR: "TM", Name: "StudyTime", VM: "1"},
	SeriesTime:           {VR: "TM", Name: "SeriesTime", VM: "1"},
	ContentTime:          {VR: "TM", Name: "ContentTime", VM: "1"},
	AccessionNumber:      {VR: "SH", Name: "AccessionNumber", VM: "1"},
	Modality:             {VR: "CS", Name: "Modality", VM: "1"},
	PresentationIntentType: {VR: "CS", Name: "PresentationIntentType", VM: "1"},
	Manufacturer:         {VR: "LO", Name: "Manufacturer", VM: "1"},
	InstitutionName:      {VR: "LO", Name: "InstitutionName", VM: "1"},
	StationName:          {VR: "SH", Name: "StationName", VM: "1"},
	StudyDescription:     {VR: "LO", Name: "StudyDescription", VM: "1"},
	SeriesDescription:    {VR: "LO", Name: "SeriesDescription", VM: "1"},
	ManufacturerModelName: {VR: "LO", Name: "ManufacturerModelName", VM: "1"},
	ReferencedSeriesSequence: {VR: "SQ", Name: "ReferencedSeriesSequence", VM: "1"},
	ReferencedImageSequence:  {VR: "SQ", Name: "ReferencedImageSequence", VM: "1"},
	ReferencedSOPClassUID:    {VR: "UI", Name: "ReferencedSOPClassUID", VM: "1"},
	ReferencedSOPInstanceUID: {VR: "UI", Name: "ReferencedSOPInstanceUID", VM: "1"},

	PatientName:      {VR: "PN", Name: "PatientName", VM: "1"},
	PatientID:        {VR: "LO", Name: "PatientID", VM: "1"},
	PatientBirthDate: {VR: "DA", Name: "PatientBirthDate", VM: "1"},
	PatientSex:       {VR: "CS", Name: "PatientSex", VM: "1"},
	PatientAge:       {VR: "AS", Name: "PatientAge", VM: "1"},
	PatientComments:  {VR: "LT", Name: "PatientComments", VM: "1"},

	BodyPartExamined:   {VR: "CS", Name: "BodyPartExamined", VM: "1"},
	KVP:                {VR: "DS", Name: "KVP", VM: "1"},
	DeviceSerialNumber: {VR: "LO", Name: "DeviceSerialNumber", VM: "1"},
	SoftwareVersions:   {VR: "LO", Name: "SoftwareVersions", VM: "1-n"},
	ExposureTime:       {VR: "IS", Name: "ExposureTime", VM: "1"},

	StudyInstanceUID:  {VR: "UI", Name: "StudyInstanceUID", VM: "1"},
	SeriesInstanceUID: {VR: "UI", Name: "SeriesInstanceUID", VM: "1"},
	StudyID:           {VR: "SH", Name: "StudyID", VM: "1"},
	SeriesNumber:      {VR: "IS", Name: "SeriesNumber", VM: "1"},
	InstanceNumber:    {VR: "IS", Name: "InstanceNumber", VM: "1"},
	ImageComments:     {VR: "LT", Name: "ImageComments", VM: "1"},

	SamplesPerPixel:           {VR: "US", Name: "SamplesPerPixel", VM: "1"},
	PhotometricInterpretation: {VR: "CS", Name: "PhotometricInterpretation", VM: "1"},
	PlanarConfiguration:       {VR: "US", Name: "PlanarConfiguration", VM: "1"},
	NumberOfFrames:            {VR: "IS", Name: "NumberOfFrames", VM: "1"},
	Rows:                      {VR: "US", Name: "Rows", VM: "1"},
	Columns:                   {VR: "US", Name: "Columns", VM: "1"},
	PixelSpacing:              {VR: "DS", Name: "PixelSpacing", VM: "2"},
	BitsAllocated:             {VR: "US", Name: "BitsAllocated", VM: "1"},
	BitsStored:                {VR: "US", Name: "BitsStored", VM: "1"},
	HighBit:                   {VR: "US", Name: "HighBit", VM: "1"},
	PixelRepresentation:       {VR: "US", Name: "PixelRepresentation", VM: "1"},
	SmallestImagePixelValue:   {VR: "US", Name: "SmallestImagePixelValue", VM: "1"},
	LargestImagePixelValue:    {VR: "US", Name: "LargestImagePixelValue", VM: "1"},
	WindowCenter:              {VR: "DS", Name: "WindowCenter", VM: "1-n"},
	WindowWidth:               {VR: "DS", Name: "WindowWidth", VM: "1-n"},
	RescaleIntercept:          {VR: "DS", Name: "RescaleIntercept", VM: "1"},
	RescaleSlope:              {VR: "DS", Name: "RescaleSlope", VM: "1"},
	RescaleType:               {VR: "LO", Name: "RescaleType", VM: "1"},
	VOILUTFunction:            {VR: "CS", Name: "VOILUTFunction", VM: "1"},

	PixelData: {VR: "OW", Name: "PixelData", VM: "1"},
}
