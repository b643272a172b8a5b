package dicom

import (
	"strings"

	"github.com/dicomdesk/dicomdesk/pkg/dicom/tag"
)

// GetModality returns the modality string from the dataset
func GetModality(ds *DataSet) string {
	return getTrimmed(ds, tag.Modality)
}

// GetStudyInstanceUID returns the study UID, or "" when absent
func GetStudyInstanceUID(ds *DataSet) string {
	return getTrimmed(ds, tag.StudyInstanceUID)
}

// GetSeriesInstanceUID returns the series UID, or "" when absent
func GetSeriesInstanceUID(ds *DataSet) string {
	return getTrimmed(ds, tag.SeriesInstanceUID)
}

// GetSOPInstanceUID returns the SOP instance UID, or "" when absent
func GetSOPInstanceUID(ds *DataSet) string {
	return getTrimmed(ds, tag.SOPInstanceUID)
}

// GetStudyDate returns the study date string (YYYYMMDD), or "" when absent
func GetStudyDate(ds *DataSet) string {
	return getTrimmed(ds, tag.StudyDate)
}

// FormatStudyDate converts a DICOM date (YYYYMMDD) into DD.MM.YYYY for
// gallery labels; anything malformed is returned unchanged.
func FormatStudyDate(date string) string {
	if len(date) != 8 {
		return date
	}
	return date[6:8] + "." + date[4:6] + "." + date[0:4]
}

// GetInstanceNumber returns the instance number (0020,0013). The second
// return distinguishes a missing number so ordering can fall back to
// load order.
func GetInstanceNumber(ds *DataSet) (int, bool) {
	if e, ok := ds.Get(tag.InstanceNumber); ok {
		if v, ok := e.GetInt(); ok {
			return v, true
		}
	}
	return 0, false
}

// GetSeriesNumber returns the series number (0020,0011), 0 when absent
func GetSeriesNumber(ds *DataSet) int {
	return getInt(ds, tag.SeriesNumber, 0)
}

// GetRows returns the number of rows in the image
func GetRows(ds *DataSet) int {
	return getInt(ds, tag.Rows, 0)
}

// GetColumns returns the number of columns in the image
func GetColumns(ds *DataSet) int {
	return getInt(ds, tag.Columns, 0)
}

// GetBitsAllocated returns the bits allocated per sample
func GetBitsAllocated(ds *DataSet) int {
	return getInt(ds, tag.BitsAllocated, 16)
}

// GetBitsStored returns the bits stored per sample
func GetBitsStored(ds *DataSet) int {
	return getInt(ds, tag.BitsStored, GetBitsAllocated(ds))
}

// GetSamplesPerPixel returns samples per pixel, defaulting to grayscale
func GetSamplesPerPixel(ds *DataSet) int {
	return getInt(ds, tag.SamplesPerPixel, 1)
}

// GetPixelRepresentation returns 0 for unsigned, 1 for signed samples
func GetPixelRepresentation(ds *DataSet) int {
	return getInt(ds, tag.PixelRepresentation, 0)
}

// GetNumberOfFrames returns the declared frame count, defaulting to 1
func GetNumberOfFrames(ds *DataSet) int {
	n := getInt(ds, tag.NumberOfFrames, 1)
	if n < 1 {
		return 1
	}
	return n
}

// GetPhotometricInterpretation returns the photometric interpretation,
// defaulting to MONOCHROME2
func GetPhotometricInterpretation(ds *DataSet) string {
	s := strings.ToUpper(getTrimmed(ds, tag.PhotometricInterpretation))
	if s == "" {
		return "MONOCHROME2"
	}
	return s
}

// GetWindow returns the WindowCenter/WindowWidth pair if both are present.
// Multi-valued windows use the first preset.
func GetWindow(ds *DataSet) (center, width float64, ok bool) {
	ce, haveC := ds.Get(tag.WindowCenter)
	we, haveW := ds.Get(tag.WindowWidth)
	if !haveC || !haveW {
		return 0, 0, false
	}
	c, okC := ce.GetFloat()
	w, okW := we.GetFloat()
	if !okC || !okW || w <= 0 {
		return 0, 0, false
	}
	return c, w, true
}

// GetRescale returns the rescale intercept and slope, defaulting to 0 and 1
func GetRescale(ds *DataSet) (intercept, slope float64) {
	intercept, slope = 0, 1
	if e, ok := ds.Get(tag.RescaleIntercept); ok {
		if f, ok := e.GetFloat(); ok {
			intercept = f
		}
	}
	if e, ok := ds.Get(tag.RescaleSlope); ok {
		if f, ok := e.GetFloat(); ok && f != 0 {
			slope = f
		}
	}
	return
}

func getTrimmed(ds *DataSet, t tag.Tag) string {
	if e, ok := ds.Get(t); ok {
		if s, ok := e.GetString(); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func getInt(ds *DataSet, t tag.Tag, def int) int {
	if e, ok := ds.Get(t); ok {
		if v, ok := e.GetInt(); ok {
			return v
		}
	}
	return def
}
