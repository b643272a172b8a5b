package dicom

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/dicomdesk/dicomdesk/pkg/dicom/tag"
	"github.com/dicomdesk/dicomdesk/pkg/dicom/vr"
)

// Serialize writes the meta header followed by elements in tag order.
// Elements that still carry their original bytes are copied verbatim;
// only edited elements are re-encoded. An unedited dataset therefore
// serializes back to its exact source bytes.
func Serialize(w io.Writer, ds *DataSet) error {
	data, err := SerializeBytes(ds)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// SerializeBytes serializes a dataset into memory
func SerializeBytes(ds *DataSet) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(make([]byte, 128))
	buf.WriteString("DICM")

	var meta, body []*Element
	for _, t := range ds.Tags() {
		e, _ := ds.Get(t)
		if t.IsFileMeta() {
			if t != tag.FileMetaInformationGroupLength {
				meta = append(meta, e)
			}
			continue
		}
		body = append(body, e)
	}

	var metaBuf bytes.Buffer
	metaEdited := false
	for _, e := range meta {
		if !e.Pristine() {
			metaEdited = true
		}
		if err := writeElement(&metaBuf, e, true); err != nil {
			return nil, err
		}
	}

	if err := writeGroupLength(&buf, ds, metaEdited, uint32(metaBuf.Len())); err != nil {
		return nil, err
	}
	buf.Write(metaBuf.Bytes())

	explicit := ds.syntax.IsExplicitVR()
	for _, e := range body {
		if err := writeElement(&buf, e, explicit); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// writeGroupLength writes the (0002,0000) element. The original bytes are
// kept unless any meta element was edited, in which case the length is
// recomputed over the re-encoded group.
func writeGroupLength(buf *bytes.Buffer, ds *DataSet, metaEdited bool, computed uint32) error {
	e, ok := ds.Get(tag.FileMetaInformationGroupLength)
	if ok && e.Pristine() && !metaEdited {
		return writeElement(buf, e, true)
	}
	gl := NewElement(tag.FileMetaInformationGroupLength, vr.UL, computed)
	return writeElement(buf, gl, true)
}

// SaveFile serializes to a temporary file in the target directory and
// atomically renames it over path. A failed save never leaves a
// half-written file behind.
func SaveFile(ds *DataSet, path string) error {
	data, err := SerializeBytes(ds)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".dcm-save-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

func writeElement(buf *bytes.Buffer, e *Element, explicit bool) error {
	value, undefLen, err := elementValueBytes(e, explicit)
	if err != nil {
		return err
	}

	binary.Write(buf, binary.LittleEndian, e.Tag.Group)
	binary.Write(buf, binary.LittleEndian, e.Tag.Element)

	length := uint32(len(value))
	if undefLen {
		length = 0xFFFFFFFF
	}

	if explicit {
		v := e.VR
		if len(v) != 2 {
			v = vr.UN
		}
		buf.WriteString(string(v))
		if v.IsExplicitLength() {
			if undefLen {
				return &SerializeError{Reason: ReasonEncodingOverflow, Tag: e.Tag,
					Err: errors.New("undefined length not allowed for short VR")}
			}
			if length > math.MaxUint16 {
				return &SerializeError{Reason: ReasonEncodingOverflow, Tag: e.Tag,
					Err: fmt.Errorf("value of %d bytes exceeds 2-byte length field", length)}
			}
			binary.Write(buf, binary.LittleEndian, uint16(length))
		} else {
			buf.Write([]byte{0, 0})
			binary.Write(buf, binary.LittleEndian, length)
		}
	} else {
		binary.Write(buf, binary.LittleEndian, length)
	}

	buf.Write(value)
	return nil
}

// elementValueBytes returns the encoded value payload for an element,
// preferring original bytes when the element (and for sequences, its
// entire subtree) is untouched.
func elementValueBytes(e *Element, explicit bool) ([]byte, bool, error) {
	if e.Pristine() && pristineDeep(e) {
		return e.raw, e.undefLen, nil
	}

	if items, ok := e.Items(); ok {
		b, err := encodeSequence(items, explicit)
		return b, true, err
	}
	if pd, ok := e.GetPixelData(); ok {
		return encodeEncapsulated(pd), true, nil
	}

	b, err := vr.Encode(e.VR, e.Value)
	if err != nil {
		reason := ReasonInvalidValueForVR
		if errors.Is(err, vr.ErrOverflow) {
			reason = ReasonEncodingOverflow
		}
		return nil, false, &SerializeError{Reason: reason, Tag: e.Tag, Err: err}
	}
	return b, false, nil
}

// pristineDeep reports whether an element and every element nested under
// it still carry their original bytes.
func pristineDeep(e *Element) bool {
	if !e.Pristine() {
		return false
	}
	items, ok := e.Items()
	if !ok {
		return true
	}
	for _, item := range items {
		for _, nested := range item.elems {
			if !pristineDeep(nested) {
				return false
			}
		}
	}
	return true
}

// encodeSequence re-encodes sequence items with undefined length and a
// closing delimiter, the robust form for edited sequences.
func encodeSequence(items []*DataSet, explicit bool) ([]byte, error) {
	var buf bytes.Buffer
	for _, item := range items {
		var itemBuf bytes.Buffer
		for _, t := range item.Tags() {
			e, _ := item.Get(t)
			if err := writeElement(&itemBuf, e, explicit); err != nil {
				return nil, err
			}
		}
		writeDelimiter(&buf, tag.Item, uint32(itemBuf.Len()))
		buf.Write(itemBuf.Bytes())
	}
	writeDelimiter(&buf, tag.SequenceDelimitationItem, 0)
	return buf.Bytes(), nil
}

func encodeEncapsulated(pd *PixelData) []byte {
	var buf bytes.Buffer
	writeDelimiter(&buf, tag.Item, uint32(len(pd.Offsets)*4))
	for _, off := range pd.Offsets {
		binary.Write(&buf, binary.LittleEndian, off)
	}
	for _, frame := range pd.Frames {
		writeDelimiter(&buf, tag.Item, uint32(len(frame)))
		buf.Write(frame)
	}
	writeDelimiter(&buf, tag.SequenceDelimitationItem, 0)
	return buf.Bytes()
}

func writeDelimiter(buf *bytes.Buffer, t tag.Tag, length uint32) {
	binary.Write(buf, binary.LittleEndian, t.Group)
	binary.Write(buf, binary.LittleEndian, t.Element)
	binary.Write(buf, binary.LittleEndian, length)
}
