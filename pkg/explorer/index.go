package explorer

import (
	"sort"
	"sync"

	"github.com/dicomdesk/dicomdesk/pkg/dicom"
)

// UngroupedStudyKey collects files whose dataset carries no
// StudyInstanceUID. It uses a character UI values cannot contain, so it
// can never collide with a real study.
const UngroupedStudyKey = "~ungrouped"

// StudyIndex groups loaded files by StudyInstanceUID. Studies appear in
// the order their first file was loaded; files within a study sort by
// SeriesInstanceUID, then InstanceNumber, then load order.
type StudyIndex struct {
	mu      sync.RWMutex
	order   []string
	studies map[string][]*File
}

func NewStudyIndex() *StudyIndex {
	return &StudyIndex{studies: map[string][]*File{}}
}

// Insert registers a file under its study. Files without a
// StudyInstanceUID land under UngroupedStudyKey.
func (x *StudyIndex) Insert(f *File) {
	uid := dicom.GetStudyInstanceUID(f.DataSet)
	if uid == "" {
		uid = UngroupedStudyKey
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if _, ok := x.studies[uid]; !ok {
		x.order = append(x.order, uid)
	}
	x.studies[uid] = append(x.studies[uid], f)
	sortFiles(x.studies[uid])
}

// Remove drops a file from the index; an emptied study disappears from
// Studies().
func (x *StudyIndex) Remove(f *File) {
	x.mu.Lock()
	defer x.mu.Unlock()
	for uid, files := range x.studies {
		for i, existing := range files {
			if existing != f {
				continue
			}
			x.studies[uid] = append(files[:i], files[i+1:]...)
			if len(x.studies[uid]) == 0 {
				delete(x.studies, uid)
				for j, o := range x.order {
					if o == uid {
						x.order = append(x.order[:j], x.order[j+1:]...)
						break
					}
				}
			}
			return
		}
	}
}

// Studies returns study UIDs in first-load order.
func (x *StudyIndex) Studies() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make([]string, len(x.order))
	copy(out, x.order)
	return out
}

// Files returns the ordered files of a study, or nil if unknown.
func (x *StudyIndex) Files(studyUID string) []*File {
	x.mu.RLock()
	defer x.mu.RUnlock()
	files, ok := x.studies[studyUID]
	if !ok {
		return nil
	}
	out := make([]*File, len(files))
	copy(out, files)
	return out
}

// Len reports the total number of indexed files.
func (x *StudyIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	n := 0
	for _, files := range x.studies {
		n += len(files)
	}
	return n
}

func sortFiles(files []*File) {
	sort.SliceStable(files, func(i, j int) bool {
		si := dicom.GetSeriesInstanceUID(files[i].DataSet)
		sj := dicom.GetSeriesInstanceUID(files[j].DataSet)
		if si != sj {
			return si < sj
		}
		ni, iok := dicom.GetInstanceNumber(files[i].DataSet)
		nj, jok := dicom.GetInstanceNumber(files[j].DataSet)
		switch {
		case iok && jok && ni != nj:
			return ni < nj
		case iok != jok:
			return iok
		}
		return files[i].Seq < files[j].Seq
	})
}
