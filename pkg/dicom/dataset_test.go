package dicom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dicomdesk/dicomdesk/pkg/dicom/tag"
	"github.com/dicomdesk/dicomdesk/pkg/dicom/transfer"
	"github.com/dicomdesk/dicomdesk/pkg/dicom/vr"
)

func TestDataSet_SetValidatesVR(t *testing.T) {
	ds := NewDataSet(transfer.ExplicitVRLittleEndian)
	ds.Add(NewElement(tag.StudyInstanceUID, vr.UI, "1.2.3"))

	// invalid character for a UID
	err := ds.Set(tag.StudyInstanceUID, "1.2.x.3")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ReasonVRMismatch, ve.Reason)

	// the original value is retained
	e, _ := ds.Get(tag.StudyInstanceUID)
	s, _ := e.GetString()
	assert.Equal(t, "1.2.3", s)

	// a legal value goes through
	require.NoError(t, ds.Set(tag.StudyInstanceUID, "1.2.3.4"))
	e, _ = ds.Get(tag.StudyInstanceUID)
	s, _ = e.GetString()
	assert.Equal(t, "1.2.3.4", s)
	assert.False(t, e.Pristine(), "editing drops the original bytes")
}

func TestDataSet_SetMultiplicity(t *testing.T) {
	ds := NewDataSet(transfer.ExplicitVRLittleEndian)
	ds.Add(NewElement(tag.ImageComments, vr.LT, "fine"))

	// LT is single-valued
	err := ds.Set(tag.ImageComments, []string{"a", "b"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ReasonMultiplicityViolation, ve.Reason)

	// WindowCenter allows a value list
	ds.Add(NewElement(tag.WindowCenter, vr.DS, "40"))
	require.NoError(t, ds.Set(tag.WindowCenter, []string{"40", "400"}))
}

func TestDataSet_SetNewTagUsesDictionary(t *testing.T) {
	ds := NewDataSet(transfer.ExplicitVRLittleEndian)

	require.NoError(t, ds.Set(tag.Modality, "US"))
	e, ok := ds.Get(tag.Modality)
	require.True(t, ok)
	assert.Equal(t, vr.CS, e.VR)

	// unknown tags cannot be created without a dictionary entry
	err := ds.Set(tag.New(0x0009, 0x0010), "private")
	var nf *ErrTagNotFound
	assert.ErrorAs(t, err, &nf)
}

func TestDataSet_OrderPreserved(t *testing.T) {
	ds := NewDataSet(transfer.ExplicitVRLittleEndian)
	ds.Add(NewElement(tag.Modality, vr.CS, "CT"))
	ds.Add(NewElement(tag.PatientName, vr.PN, "DOE^JANE"))
	ds.Add(NewElement(tag.Rows, vr.US, uint16(64)))

	var first []tag.Tag
	for tg := range ds.All() {
		first = append(first, tg)
	}
	assert.Equal(t, []tag.Tag{tag.Modality, tag.PatientName, tag.Rows}, first)

	// the iterator restarts; a second pass sees the same order
	var second []tag.Tag
	for tg := range ds.All() {
		second = append(second, tg)
	}
	assert.Equal(t, first, second)

	// replacing an element keeps its slot
	ds.Add(NewElement(tag.PatientName, vr.PN, "ROE^RICHARD"))
	var third []tag.Tag
	for tg := range ds.All() {
		third = append(third, tg)
	}
	assert.Equal(t, first, third)
}

func TestDataSet_TagsSorted(t *testing.T) {
	ds := NewDataSet(transfer.ExplicitVRLittleEndian)
	ds.Add(NewElement(tag.Rows, vr.US, uint16(1)))
	ds.Add(NewElement(tag.Modality, vr.CS, "CT"))

	sorted := ds.Tags()
	assert.Equal(t, []tag.Tag{tag.Modality, tag.Rows}, sorted)
}

func TestDataSet_Delete(t *testing.T) {
	ds := NewDataSet(transfer.ExplicitVRLittleEndian)
	ds.Add(NewElement(tag.Modality, vr.CS, "CT"))
	ds.Add(NewElement(tag.Rows, vr.US, uint16(64)))

	ds.Delete(tag.Modality)
	assert.False(t, ds.Has(tag.Modality))
	assert.Equal(t, 1, ds.Len())

	// deleting a missing tag is a no-op
	ds.Delete(tag.Modality)
	assert.Equal(t, 1, ds.Len())
}

func TestDataSet_CloneIsIndependent(t *testing.T) {
	ds := NewDataSet(transfer.ExplicitVRLittleEndian)
	ds.Add(NewElement(tag.StudyInstanceUID, vr.UI, "1.2.3"))

	clone := ds.Clone()
	require.NoError(t, clone.Set(tag.StudyInstanceUID, "9.8.7"))

	orig, _ := ds.Get(tag.StudyInstanceUID)
	s, _ := orig.GetString()
	assert.Equal(t, "1.2.3", s, "editing a clone must not touch the source")
}

func TestDataSet_SetNested(t *testing.T) {
	item := NewDataSet(transfer.ExplicitVRLittleEndian)
	item.Add(NewElement(tag.ReferencedSOPInstanceUID, vr.UI, "1.2.3"))

	ds := NewDataSet(transfer.ExplicitVRLittleEndian)
	ds.Add(NewElement(tag.Modality, vr.CS, "CT"))
	ds.Add(NewElement(tag.ReferencedImageSequence, vr.SQ, []*DataSet{item}))

	// the tag lives only inside the sequence item
	require.NoError(t, ds.SetNested(tag.ReferencedSOPInstanceUID, "4.5.6"))
	e, ok := ds.FindNested(tag.ReferencedSOPInstanceUID)
	require.True(t, ok)
	s, _ := e.GetString()
	assert.Equal(t, "4.5.6", s)
	assert.False(t, ds.Has(tag.ReferencedSOPInstanceUID), "top level gains no element")

	// a top-level occurrence shadows nested ones
	require.NoError(t, ds.SetNested(tag.Modality, "MR"))
	e, _ = ds.Get(tag.Modality)
	s, _ = e.GetString()
	assert.Equal(t, "MR", s)

	// unlike Set, an absent tag is never created
	err := ds.SetNested(tag.PatientName, "DOE^JOHN")
	var nf *ErrTagNotFound
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, tag.PatientName, nf.Tag)

	// nested validation failures surface the same taxonomy
	err = ds.SetNested(tag.ReferencedSOPInstanceUID, "not a uid")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ReasonVRMismatch, ve.Reason)
}
