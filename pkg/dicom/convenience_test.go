package dicom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dicomdesk/dicomdesk/pkg/dicom/tag"
	"github.com/dicomdesk/dicomdesk/pkg/dicom/transfer"
	"github.com/dicomdesk/dicomdesk/pkg/dicom/vr"
)

func TestFormatStudyDate(t *testing.T) {
	assert.Equal(t, "15.01.2024", FormatStudyDate("20240115"))
	// malformed dates pass through untouched
	assert.Equal(t, "2024", FormatStudyDate("2024"))
	assert.Equal(t, "", FormatStudyDate(""))
}

func TestGetWindow(t *testing.T) {
	ds := NewDataSet(transfer.ExplicitVRLittleEndian)

	_, _, ok := GetWindow(ds)
	assert.False(t, ok, "both window tags are required")

	ds.Add(NewElement(tag.WindowCenter, vr.DS, "128"))
	_, _, ok = GetWindow(ds)
	assert.False(t, ok)

	ds.Add(NewElement(tag.WindowWidth, vr.DS, "256"))
	c, w, ok := GetWindow(ds)
	require.True(t, ok)
	assert.Equal(t, 128.0, c)
	assert.Equal(t, 256.0, w)

	// multi-valued presets use the first pair
	ds.Add(NewElement(tag.WindowCenter, vr.DS, "40\\400"))
	ds.Add(NewElement(tag.WindowWidth, vr.DS, "80\\2000"))
	c, w, ok = GetWindow(ds)
	require.True(t, ok)
	assert.Equal(t, 40.0, c)
	assert.Equal(t, 80.0, w)

	// a zero width is unusable
	ds.Add(NewElement(tag.WindowWidth, vr.DS, "0"))
	_, _, ok = GetWindow(ds)
	assert.False(t, ok)
}

func TestGetDefaults(t *testing.T) {
	ds := NewDataSet(transfer.ExplicitVRLittleEndian)

	assert.Equal(t, 16, GetBitsAllocated(ds))
	assert.Equal(t, 1, GetSamplesPerPixel(ds))
	assert.Equal(t, 0, GetPixelRepresentation(ds))
	assert.Equal(t, 1, GetNumberOfFrames(ds))
	assert.Equal(t, "MONOCHROME2", GetPhotometricInterpretation(ds))

	intercept, slope := GetRescale(ds)
	assert.Equal(t, 0.0, intercept)
	assert.Equal(t, 1.0, slope)

	_, ok := GetInstanceNumber(ds)
	assert.False(t, ok)
}

func TestMetadataRows(t *testing.T) {
	item := NewDataSet(transfer.ExplicitVRLittleEndian)
	item.Add(NewElement(tag.ReferencedSOPInstanceUID, vr.UI, "1.2.3"))

	ds := NewDataSet(transfer.ExplicitVRLittleEndian)
	ds.Add(NewElement(tag.Modality, vr.CS, "CT"))
	ds.Add(NewElement(tag.ReferencedImageSequence, vr.SQ, []*DataSet{item}))
	ds.Add(NewElement(tag.PixelData, vr.OW, make([]byte, 32)))

	rows := MetadataRows(ds)

	// pixel data is omitted from the metadata view
	require.Len(t, rows, 2)
	assert.Equal(t, "Modality", rows[0].Name)
	assert.Equal(t, "CT", rows[0].Value)

	require.Len(t, rows[1].Items, 1)
	assert.Equal(t, "1.2.3", rows[1].Items[0].Value)
}
