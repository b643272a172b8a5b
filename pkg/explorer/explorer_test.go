package explorer

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dicomdesk/dicomdesk/pkg/dicom"
	"github.com/dicomdesk/dicomdesk/pkg/dicom/tag"
	"github.com/dicomdesk/dicomdesk/pkg/dicom/transfer"
	"github.com/dicomdesk/dicomdesk/pkg/dicom/vr"
)

// writeTestFile builds a minimal CR image on disk
func writeTestFile(t *testing.T, dir, name, studyUID, seriesUID string, instance int) string {
	t.Helper()
	ds := dicom.NewDataSet(transfer.ExplicitVRLittleEndian)
	ds.Add(dicom.NewElement(tag.TransferSyntaxUID, vr.UI, string(transfer.ExplicitVRLittleEndian)))
	ds.Add(dicom.NewElement(tag.Modality, vr.CS, "CR"))
	if studyUID != "" {
		ds.Add(dicom.NewElement(tag.StudyInstanceUID, vr.UI, studyUID))
	}
	if seriesUID != "" {
		ds.Add(dicom.NewElement(tag.SeriesInstanceUID, vr.UI, seriesUID))
	}
	if instance > 0 {
		ds.Add(dicom.NewElement(tag.InstanceNumber, vr.IS, strconv.Itoa(instance)))
	}
	ds.Add(dicom.NewElement(tag.Rows, vr.US, uint16(4)))
	ds.Add(dicom.NewElement(tag.Columns, vr.US, uint16(4)))
	ds.Add(dicom.NewElement(tag.BitsAllocated, vr.US, uint16(8)))
	ds.Add(dicom.NewElement(tag.BitsStored, vr.US, uint16(8)))
	ds.Add(dicom.NewElement(tag.SamplesPerPixel, vr.US, uint16(1)))
	ds.Add(dicom.NewElement(tag.PhotometricInterpretation, vr.CS, "MONOCHROME2"))
	pixels := make([]byte, 16)
	for i := range pixels {
		pixels[i] = byte(i * 16)
	}
	ds.Add(dicom.NewElement(tag.PixelData, vr.OW, pixels))

	path := filepath.Join(dir, name)
	require.NoError(t, dicom.SaveFile(ds, path))
	return path
}

func TestStudyIndex_Grouping(t *testing.T) {
	dir := t.TempDir()
	exp := New()
	ctx := context.Background()

	// three files in study 1.1 across two series, two in study 2.1
	paths := []string{
		writeTestFile(t, dir, "a.dcm", "1.1", "1.1.2", 1),
		writeTestFile(t, dir, "b.dcm", "1.1", "1.1.1", 2),
		writeTestFile(t, dir, "c.dcm", "1.1", "1.1.1", 1),
		writeTestFile(t, dir, "d.dcm", "2.1", "2.1.1", 1),
		writeTestFile(t, dir, "e.dcm", "2.1", "2.1.1", 2),
	}
	for _, p := range paths {
		_, err := exp.Load(ctx, p)
		require.NoError(t, err)
	}

	studies := exp.Index.Studies()
	require.Equal(t, []string{"1.1", "2.1"}, studies, "studies appear in first-load order")

	s1 := exp.Index.Files("1.1")
	require.Len(t, s1, 3)
	// series UID sorts before instance number
	assert.Equal(t, filepath.Join(dir, "c.dcm"), s1[0].Path)
	assert.Equal(t, filepath.Join(dir, "b.dcm"), s1[1].Path)
	assert.Equal(t, filepath.Join(dir, "a.dcm"), s1[2].Path)

	assert.Len(t, exp.Index.Files("2.1"), 2)
	assert.Nil(t, exp.Index.Files("unknown"))
	assert.Equal(t, 5, exp.Index.Len())
}

func TestStudyIndex_UngroupedFallback(t *testing.T) {
	dir := t.TempDir()
	exp := New()

	path := writeTestFile(t, dir, "orphan.dcm", "", "", 0)
	_, err := exp.Load(context.Background(), path)
	require.NoError(t, err)

	studies := exp.Index.Studies()
	require.Equal(t, []string{UngroupedStudyKey}, studies)
	assert.Len(t, exp.Index.Files(UngroupedStudyKey), 1)
}

func TestStudyIndex_RemoveDropsEmptyStudy(t *testing.T) {
	dir := t.TempDir()
	exp := New()

	path := writeTestFile(t, dir, "a.dcm", "1.1", "1.1.1", 1)
	f, err := exp.Load(context.Background(), path)
	require.NoError(t, err)

	exp.Unload(f)
	assert.Empty(t, exp.Index.Studies())
	assert.Equal(t, 0, exp.Index.Len())
}

func TestLoadBatch_BadFileSkipped(t *testing.T) {
	dir := t.TempDir()
	exp := New()

	good := writeTestFile(t, dir, "good.dcm", "1.1", "1.1.1", 1)
	bad := filepath.Join(dir, "broken.dcm")
	require.NoError(t, os.WriteFile(bad, []byte("not a dicom file"), 0o644))

	results := exp.LoadBatch(context.Background(), []string{good, bad}, 2)
	require.Len(t, results, 2)

	require.NoError(t, results[0].Err)
	assert.NotNil(t, results[0].File)

	var pe *dicom.ParseError
	require.ErrorAs(t, results[1].Err, &pe)
	assert.Equal(t, dicom.ReasonMissingPreamble, pe.Reason)

	// the good file stays loaded
	assert.Equal(t, 1, exp.Index.Len())
}

func TestLoadBatch_Cancelled(t *testing.T) {
	dir := t.TempDir()
	exp := New()
	path := writeTestFile(t, dir, "a.dcm", "1.1", "1.1.1", 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := exp.LoadBatch(ctx, []string{path, path}, 1)
	for _, res := range results {
		assert.ErrorIs(t, res.Err, context.Canceled)
	}
}

func TestEditSession_CommitAppliesAll(t *testing.T) {
	dir := t.TempDir()
	exp := New()
	path := writeTestFile(t, dir, "a.dcm", "1.1", "1.1.1", 1)
	f, err := exp.Load(context.Background(), path)
	require.NoError(t, err)

	assert.False(t, f.Session.IsDirty())
	f.Session.Propose(tag.Modality, "DX")
	f.Session.Propose(tag.StudyInstanceUID, "9.8.7")
	assert.True(t, f.Session.IsDirty())
	assert.Len(t, f.Session.Pending(), 2)

	require.NoError(t, exp.Commit(f))
	assert.False(t, f.Session.IsDirty())
	assert.Equal(t, "DX", dicom.GetModality(f.DataSet))
	assert.Equal(t, "9.8.7", dicom.GetStudyInstanceUID(f.DataSet))
}

// TestEditSession_AtomicRollback verifies all-or-nothing commit: one bad
// record leaves every value untouched, including the valid ones proposed
// before it.
func TestEditSession_AtomicRollback(t *testing.T) {
	dir := t.TempDir()
	exp := New()
	path := writeTestFile(t, dir, "a.dcm", "1.1", "1.1.1", 1)
	f, err := exp.Load(context.Background(), path)
	require.NoError(t, err)

	f.Session.Propose(tag.Modality, "DX")
	f.Session.Propose(tag.StudyInstanceUID, "not-a-uid")

	err = exp.Commit(f)
	var ve *dicom.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, dicom.ReasonVRMismatch, ve.Reason)

	// nothing was applied
	assert.Equal(t, "CR", dicom.GetModality(f.DataSet))
	assert.Equal(t, "1.1", dicom.GetStudyInstanceUID(f.DataSet))
	// the session stays dirty until discarded
	assert.True(t, f.Session.IsDirty())

	f.Session.Discard()
	assert.False(t, f.Session.IsDirty())
}

func TestCommit_InvalidatesPixelCacheOnImageEdit(t *testing.T) {
	dir := t.TempDir()
	exp := New()
	ctx := context.Background()
	path := writeTestFile(t, dir, "a.dcm", "1.1", "1.1.1", 1)
	f, err := exp.Load(ctx, path)
	require.NoError(t, err)

	// populate the cache
	_, err = exp.Thumbnail(ctx, f, image.Point{X: 4, Y: 4})
	require.NoError(t, err)

	require.NoError(t, exp.SetTag(f, tag.PhotometricInterpretation, "MONOCHROME1"))

	// a fresh decode picks up the new photometric interpretation
	_, err = exp.Thumbnail(ctx, f, image.Point{X: 4, Y: 4})
	require.NoError(t, err)
}

func TestSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	exp := New()
	ctx := context.Background()
	path := writeTestFile(t, dir, "a.dcm", "1.1", "1.1.1", 1)
	f, err := exp.Load(ctx, path)
	require.NoError(t, err)

	require.NoError(t, exp.SetTag(f, tag.Modality, "DX"))
	out := filepath.Join(dir, "edited.dcm")
	require.NoError(t, exp.Save(ctx, f, out))

	reparsed, err := dicom.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "DX", dicom.GetModality(reparsed))
}

func TestSave_RejectsDirtySession(t *testing.T) {
	dir := t.TempDir()
	exp := New()
	ctx := context.Background()
	path := writeTestFile(t, dir, "a.dcm", "1.1", "1.1.1", 1)
	f, err := exp.Load(ctx, path)
	require.NoError(t, err)

	f.Session.Propose(tag.Modality, "DX")
	assert.Error(t, exp.Save(ctx, f, path))
}

func TestThumbnailBatch(t *testing.T) {
	dir := t.TempDir()
	exp := New()
	ctx := context.Background()

	var files []*File
	for _, name := range []string{"a.dcm", "b.dcm", "c.dcm"} {
		path := writeTestFile(t, dir, name, "1.1", "1.1.1", 0)
		f, err := exp.Load(ctx, path)
		require.NoError(t, err)
		files = append(files, f)
	}

	errs := exp.ThumbnailBatch(ctx, files, image.Point{X: 8, Y: 8}, 2)
	for i, err := range errs {
		assert.NoError(t, err, "file %d", i)
	}
}

func TestTouchesPixels(t *testing.T) {
	assert.True(t, TouchesPixels([]tag.Tag{tag.PixelData}))
	assert.True(t, TouchesPixels([]tag.Tag{tag.WindowCenter}))
	assert.True(t, TouchesPixels([]tag.Tag{tag.Modality, tag.Rows}))
	assert.False(t, TouchesPixels([]tag.Tag{tag.PatientName, tag.Modality}))
	assert.False(t, TouchesPixels(nil))
}
