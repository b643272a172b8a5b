package explorer

import (
	"github.com/dicomdesk/dicomdesk/pkg/dicom"
	"github.com/dicomdesk/dicomdesk/pkg/dicom/tag"
)

// EditRecord is a pending change held by a session until commit.
type EditRecord struct {
	Tag tag.Tag
	Old interface{}
	New interface{}
	// Nested records edit the first occurrence of the tag anywhere in the
	// dataset tree, including sequence items.
	Nested bool
}

// EditSession tracks proposed mutations to one file's dataset. Proposals
// never touch the dataset; Commit validates every pending record first and
// applies all of them or none.
type EditSession struct {
	ds      *dicom.DataSet
	pending []EditRecord
}

func NewEditSession(ds *dicom.DataSet) *EditSession {
	return &EditSession{ds: ds}
}

// Propose records an edit. The same tag may be proposed more than once;
// the last proposal wins at commit.
func (s *EditSession) Propose(t tag.Tag, value interface{}) {
	var old interface{}
	if elem, ok := s.ds.Get(t); ok {
		old = elem.Value
	}
	s.pending = append(s.pending, EditRecord{Tag: t, Old: old, New: value})
}

// ProposeNested records an edit against the first occurrence of the tag,
// searching nested sequence items when the top level lacks it. The tag
// must already exist somewhere in the tree.
func (s *EditSession) ProposeNested(t tag.Tag, value interface{}) {
	var old interface{}
	if elem, ok := s.ds.FindNested(t); ok {
		old = elem.Value
	}
	s.pending = append(s.pending, EditRecord{Tag: t, Old: old, New: value, Nested: true})
}

// Pending returns a copy of the records awaiting commit.
func (s *EditSession) Pending() []EditRecord {
	out := make([]EditRecord, len(s.pending))
	copy(out, s.pending)
	return out
}

func (s *EditSession) IsDirty() bool {
	return len(s.pending) > 0
}

// Commit validates and applies every pending record. Any invalid record
// aborts the whole commit and leaves the dataset untouched. It returns the
// tags that were modified so callers can invalidate derived state.
func (s *EditSession) Commit() ([]tag.Tag, error) {
	// dry run against a clone so a late failure cannot leave a
	// partially mutated dataset
	probe := s.ds.Clone()
	for _, rec := range s.pending {
		if err := apply(probe, rec); err != nil {
			return nil, err
		}
	}

	changed := make([]tag.Tag, 0, len(s.pending))
	for _, rec := range s.pending {
		if err := apply(s.ds, rec); err != nil {
			// the dry run accepted this record, so this is a bug
			return changed, err
		}
		changed = append(changed, rec.Tag)
	}
	s.pending = nil
	return changed, nil
}

func apply(ds *dicom.DataSet, rec EditRecord) error {
	if rec.Nested {
		return ds.SetNested(rec.Tag, rec.New)
	}
	return ds.Set(rec.Tag, rec.New)
}

// Discard drops all pending records without touching the dataset.
func (s *EditSession) Discard() {
	s.pending = nil
}

// TouchesPixels reports whether any of the given tags affect rendered
// pixel output, either the pixel data itself or the image-description
// and display attributes derived from it.
func TouchesPixels(tags []tag.Tag) bool {
	for _, t := range tags {
		switch t {
		case tag.PixelData, tag.Rows, tag.Columns, tag.BitsAllocated,
			tag.BitsStored, tag.HighBit, tag.PixelRepresentation,
			tag.SamplesPerPixel, tag.PhotometricInterpretation,
			tag.WindowCenter, tag.WindowWidth,
			tag.RescaleIntercept, tag.RescaleSlope:
			return true
		}
		if t.Group == tag.PixelData.Group {
			return true
		}
	}
	return false
}
