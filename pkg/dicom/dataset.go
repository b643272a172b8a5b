package dicom

import (
	"errors"
	"iter"
	"slices"

	"github.com/dicomdesk/dicomdesk/pkg/dicom/tag"
	"github.com/dicomdesk/dicomdesk/pkg/dicom/transfer"
	"github.com/dicomdesk/dicomdesk/pkg/dicom/vr"
)

// DataSet is an ordered mapping from Tag to Element. Insertion order is
// preserved so an unedited dataset round-trips byte for byte. Sequence
// elements nest further DataSets through the same interface.
type DataSet struct {
	syntax transfer.Syntax
	order  []tag.Tag
	elems  map[tag.Tag]*Element
}

// NewDataSet creates an empty dataset with the given transfer syntax
func NewDataSet(syntax transfer.Syntax) *DataSet {
	return &DataSet{
		syntax: syntax,
		elems:  make(map[tag.Tag]*Element),
	}
}

// TransferSyntax returns the syntax the dataset was decoded with, and the
// one it will be encoded with again.
func (ds *DataSet) TransferSyntax() transfer.Syntax {
	return ds.syntax
}

// Len returns the number of elements
func (ds *DataSet) Len() int {
	return len(ds.order)
}

// Add inserts or replaces an element, preserving the position of a
// replaced tag.
func (ds *DataSet) Add(e *Element) {
	if _, exists := ds.elems[e.Tag]; !exists {
		ds.order = append(ds.order, e.Tag)
	}
	ds.elems[e.Tag] = e
}

// Get returns an element by tag
func (ds *DataSet) Get(t tag.Tag) (*Element, bool) {
	e, ok := ds.elems[t]
	return e, ok
}

// Has returns true if the dataset contains the tag
func (ds *DataSet) Has(t tag.Tag) bool {
	_, ok := ds.elems[t]
	return ok
}

// Delete removes an element from the dataset
func (ds *DataSet) Delete(t tag.Tag) {
	if _, ok := ds.elems[t]; !ok {
		return
	}
	delete(ds.elems, t)
	ds.order = slices.DeleteFunc(ds.order, func(o tag.Tag) bool { return o == t })
}

// Set validates value against the element's VR and multiplicity rules and
// stores it. The element's original bytes are dropped so the next
// serialization re-encodes it. For a tag not yet in the dataset the VR is
// taken from the standard dictionary.
func (ds *DataSet) Set(t tag.Tag, value interface{}) error {
	if e, ok := ds.elems[t]; ok {
		if err := checkValue(e.VR, t, value); err != nil {
			return err
		}
		e.Value = value
		e.raw = nil
		e.undefLen = false
		return nil
	}
	info, known := tag.Lookup(t)
	if !known {
		return &ErrTagNotFound{Tag: t}
	}
	v := vr.VR(info.VR)
	if err := checkValue(v, t, value); err != nil {
		return err
	}
	ds.Add(NewElement(t, v, value))
	return nil
}

// FindNested returns the first occurrence of a tag, searching the dataset
// itself before descending into sequence items depth first.
func (ds *DataSet) FindNested(t tag.Tag) (*Element, bool) {
	holder, ok := ds.findHolder(t)
	if !ok {
		return nil, false
	}
	return holder.Get(t)
}

// SetNested edits the first occurrence of a tag wherever it lives, top
// level or inside a nested sequence item. Unlike Set it never creates a
// new element; a tag absent from the whole tree is ErrTagNotFound.
func (ds *DataSet) SetNested(t tag.Tag, value interface{}) error {
	holder, ok := ds.findHolder(t)
	if !ok {
		return &ErrTagNotFound{Tag: t}
	}
	return holder.Set(t, value)
}

func (ds *DataSet) findHolder(t tag.Tag) (*DataSet, bool) {
	if ds.Has(t) {
		return ds, true
	}
	for _, ot := range ds.order {
		items, ok := ds.elems[ot].Items()
		if !ok {
			continue
		}
		for _, item := range items {
			if holder, ok := item.findHolder(t); ok {
				return holder, true
			}
		}
	}
	return nil, false
}

// All iterates elements in insertion order. The sequence is restartable:
// each range statement walks the dataset from the start.
func (ds *DataSet) All() iter.Seq2[tag.Tag, *Element] {
	return func(yield func(tag.Tag, *Element) bool) {
		for _, t := range ds.order {
			if !yield(t, ds.elems[t]) {
				return
			}
		}
	}
}

// Tags returns the tags in canonical (group, element) order
func (ds *DataSet) Tags() []tag.Tag {
	sorted := slices.Clone(ds.order)
	slices.SortFunc(sorted, func(a, b tag.Tag) int {
		if a.Less(b) {
			return -1
		}
		if b.Less(a) {
			return 1
		}
		return 0
	})
	return sorted
}

// checkValue maps vr validation failures onto the edit error taxonomy
func checkValue(v vr.VR, t tag.Tag, value interface{}) error {
	err := vr.Validate(v, value)
	if err == nil {
		return nil
	}
	reason := ReasonVRMismatch
	if errors.Is(err, vr.ErrMultiplicity) {
		reason = ReasonMultiplicityViolation
	}
	return &ValidationError{Reason: reason, Tag: t, Err: err}
}

// Clone creates a deep copy of the dataset. Pristine elements keep their
// backing bytes so a clone still round-trips verbatim. Encapsulated frame
// bytes are shared, not copied.
func (ds *DataSet) Clone() *DataSet {
	clone := &DataSet{
		syntax: ds.syntax,
		order:  slices.Clone(ds.order),
		elems:  make(map[tag.Tag]*Element, len(ds.elems)),
	}
	for t, e := range ds.elems {
		ce := &Element{Tag: e.Tag, VR: e.VR, undefLen: e.undefLen}
		if e.raw != nil {
			ce.raw = slices.Clone(e.raw)
		}
		switch v := e.Value.(type) {
		case []byte:
			ce.Value = slices.Clone(v)
		case []*DataSet:
			items := make([]*DataSet, len(v))
			for i, item := range v {
				items[i] = item.Clone()
			}
			ce.Value = items
		default:
			ce.Value = v
		}
		clone.elems[t] = ce
	}
	return clone
}
