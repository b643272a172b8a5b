package explorer

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dicomdesk/dicomdesk/pkg/dicom"
	"github.com/dicomdesk/dicomdesk/pkg/dicom/tag"
	"github.com/dicomdesk/dicomdesk/pkg/imaging"
	"github.com/dicomdesk/dicomdesk/pkg/util"
)

// File is one loaded DICOM object: the parsed dataset, its edit session,
// and bookkeeping for ordering and caching.
type File struct {
	ID      string
	Path    string
	Seq     uint64
	DataSet *dicom.DataSet
	Session *EditSession
}

// LoadResult reports the outcome for one path in a batch load. Err is a
// typed parse or I/O error; Err == nil means File is set.
type LoadResult struct {
	Path string
	File *File
	Err  error
}

// Explorer is the outward surface of the core: it loads files, groups
// them into studies, renders thumbnails through a shared pixel cache,
// and saves committed edits. Each loaded file owns its dataset and edit
// session exclusively; the explorer only coordinates.
type Explorer struct {
	Index *StudyIndex

	cache *imaging.Cache
	seq   atomic.Uint64

	mu    sync.Mutex
	files map[string]*File
	saveL map[string]*sync.Mutex
}

func New() *Explorer {
	return &Explorer{
		Index: NewStudyIndex(),
		cache: imaging.NewCache(),
		files: map[string]*File{},
		saveL: map[string]*sync.Mutex{},
	}
}

// Load parses one file and inserts it into the study index.
func (e *Explorer) Load(ctx context.Context, path string) (*File, error) {
	ds, err := dicom.ReadFile(path)
	if err != nil {
		slog.WarnContext(ctx, "load failed", "path", path, "error", err)
		return nil, err
	}

	f := &File{
		ID:      util.HashUUID(path),
		Path:    path,
		Seq:     e.seq.Add(1),
		DataSet: ds,
		Session: NewEditSession(ds),
	}

	e.mu.Lock()
	e.files[f.ID] = f
	e.mu.Unlock()
	e.Index.Insert(f)

	slog.DebugContext(ctx, "loaded",
		"path", path,
		"study", dicom.GetStudyInstanceUID(ds),
		"modality", dicom.GetModality(ds))
	return f, nil
}

// LoadBatch parses paths on a bounded worker pool. A failed path yields a
// LoadResult with its error and the batch continues; cancelling ctx stops
// the batch between files, keeping everything already loaded. Results
// arrive in path order.
func (e *Explorer) LoadBatch(ctx context.Context, paths []string, workers int) []LoadResult {
	if workers < 1 {
		workers = 1
	}
	results := make([]LoadResult, len(paths))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, path := range paths {
		if ctx.Err() != nil {
			results[i] = LoadResult{Path: path, Err: ctx.Err()}
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, path string) {
			defer wg.Done()
			defer func() { <-sem }()
			f, err := e.Load(ctx, path)
			results[i] = LoadResult{Path: path, File: f, Err: err}
		}(i, path)
	}
	wg.Wait()
	return results
}

// Unload removes a file from the explorer and drops its cached pixels.
func (e *Explorer) Unload(f *File) {
	e.mu.Lock()
	delete(e.files, f.ID)
	delete(e.saveL, f.Path)
	e.mu.Unlock()
	e.Index.Remove(f)
	e.cache.Invalidate(f.ID)
}

// File looks up a loaded file by ID.
func (e *Explorer) File(id string) (*File, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	f, ok := e.files[id]
	return f, ok
}

// Thumbnail decodes the file's pixel data (through the cache) and renders
// a preview no larger than target. Decode and generation failures come
// back as errors so the caller can show a placeholder; metadata access is
// unaffected.
func (e *Explorer) Thumbnail(ctx context.Context, f *File, target image.Point) (image.Image, error) {
	buf, ok := e.cache.Get(f.ID)
	if !ok {
		var err error
		buf, err = imaging.Decode(f.DataSet)
		if err != nil {
			slog.DebugContext(ctx, "pixel decode failed", "path", f.Path, "error", err)
			return nil, err
		}
		e.cache.Put(f.ID, buf)
	}
	return imaging.Generate(buf, target)
}

// ThumbnailBatch renders previews for files in parallel, one result per
// file, honoring ctx between per-file units.
func (e *Explorer) ThumbnailBatch(ctx context.Context, files []*File, target image.Point, workers int) []error {
	if workers < 1 {
		workers = 1
	}
	errs := make([]error, len(files))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, f := range files {
		if ctx.Err() != nil {
			errs[i] = ctx.Err()
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, f *File) {
			defer wg.Done()
			defer func() { <-sem }()
			_, errs[i] = e.Thumbnail(ctx, f, target)
		}(i, f)
	}
	wg.Wait()
	return errs
}

// Commit applies the file's pending edits and invalidates the pixel cache
// when an edit touched pixel data or its display attributes.
func (e *Explorer) Commit(f *File) error {
	changed, err := f.Session.Commit()
	if err != nil {
		return err
	}
	if TouchesPixels(changed) {
		e.cache.Invalidate(f.ID)
	}
	return nil
}

// Save serializes the file's dataset to path atomically. Pending edits
// must be committed or discarded first. Concurrent saves to the same path
// serialize on a per-path lock.
func (e *Explorer) Save(ctx context.Context, f *File, path string) error {
	if f.Session.IsDirty() {
		return fmt.Errorf("file %s has uncommitted edits", f.Path)
	}

	e.mu.Lock()
	lock, ok := e.saveL[path]
	if !ok {
		lock = &sync.Mutex{}
		e.saveL[path] = lock
	}
	e.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()

	if err := dicom.SaveFile(f.DataSet, path); err != nil {
		slog.WarnContext(ctx, "save failed", "path", path, "error", err)
		return err
	}
	slog.InfoContext(ctx, "saved",
		"path", path,
		"sop", dicom.GetSOPInstanceUID(f.DataSet))
	return nil
}

// SetTag proposes and immediately commits one edit on a clean session,
// the single-field edit path the metadata view uses.
func (e *Explorer) SetTag(f *File, t tag.Tag, value interface{}) error {
	f.Session.Propose(t, value)
	if err := e.Commit(f); err != nil {
		f.Session.Discard()
		return err
	}
	return nil
}
