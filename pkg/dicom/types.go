package dicom

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/dicomdesk/dicomdesk/pkg/dicom/tag"
	"github.com/dicomdesk/dicomdesk/pkg/dicom/vr"
)

// Tag alias to avoid duplication
type Tag = tag.Tag

// Element represents a single DICOM data element.
//
// Elements parsed from a stream keep the original value bytes so that an
// unedited element is written back verbatim. Mutating the value drops the
// original bytes and forces re-encoding on the next serialize.
type Element struct {
	Tag   tag.Tag
	VR    vr.VR
	Value interface{}

	raw      []byte // value bytes exactly as read, nil once mutated
	undefLen bool   // element was read with undefined (0xFFFFFFFF) length
}

// NewElement creates an element with no backing bytes; it will be encoded
// from Value when written.
func NewElement(t tag.Tag, v vr.VR, value interface{}) *Element {
	return &Element{Tag: t, VR: v, Value: value}
}

// Pristine reports whether the element still carries its original encoded
// bytes and can be copied verbatim on serialization.
func (e *Element) Pristine() bool {
	return e.raw != nil
}

// RawBytes returns the original value bytes, or nil for edited or
// programmatically built elements.
func (e *Element) RawBytes() []byte {
	return e.raw
}

// GetString returns a string value from an element
func (e *Element) GetString() (string, bool) {
	if s, ok := e.Value.(string); ok {
		return s, true
	}
	return "", false
}

// GetStrings splits a multi-valued string element into its values
func (e *Element) GetStrings() ([]string, bool) {
	s, ok := e.GetString()
	if !ok {
		return nil, false
	}
	return strings.Split(s, "\\"), true
}

// GetUint16 returns a uint16 value from an element
func (e *Element) GetUint16() (uint16, bool) {
	if u, ok := e.Value.(uint16); ok {
		return u, true
	}
	return 0, false
}

// GetInt returns an int value from an element, converting from the
// binary and numeric-string types an element may hold
func (e *Element) GetInt() (int, bool) {
	switch v := e.Value.(type) {
	case uint16:
		return int(v), true
	case uint32:
		return int(v), true
	case int16:
		return int(v), true
	case int32:
		return int(v), true
	case int:
		return v, true
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i, true
		}
	case []byte:
		if len(v) == 2 {
			return int(binary.LittleEndian.Uint16(v)), true
		}
		if len(v) == 4 {
			return int(binary.LittleEndian.Uint32(v)), true
		}
	}
	return 0, false
}

// GetFloat returns a float64 value, parsing decimal strings for DS elements
func (e *Element) GetFloat() (float64, bool) {
	switch v := e.Value.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case string:
		// multi-valued DS uses the first value, matching how viewers pick
		// the first window preset
		first := strings.TrimSpace(strings.Split(v, "\\")[0])
		if f, err := strconv.ParseFloat(first, 64); err == nil {
			return f, true
		}
	default:
		if i, ok := e.GetInt(); ok {
			return float64(i), true
		}
	}
	return 0, false
}

// GetBytes returns the raw binary payload of an OB/OW/UN element
func (e *Element) GetBytes() ([]byte, bool) {
	if b, ok := e.Value.([]byte); ok {
		return b, true
	}
	return nil, false
}

// Items returns the nested datasets of a sequence element
func (e *Element) Items() ([]*DataSet, bool) {
	if items, ok := e.Value.([]*DataSet); ok {
		return items, true
	}
	return nil, false
}

// GetPixelData returns encapsulated pixel data from an element
func (e *Element) GetPixelData() (*PixelData, bool) {
	if pd, ok := e.Value.(*PixelData); ok {
		return pd, true
	}
	return nil, false
}

func (e *Element) String() string {
	return fmt.Sprintf("%s %s %s", e.Tag, e.VR, ValueString(e))
}

// PixelData represents encapsulated (compressed) pixel data: the basic
// offset table plus one compressed byte run per frame.
type PixelData struct {
	Offsets []uint32
	Frames  [][]byte
}

// NumFrames returns the number of encapsulated frames
func (pd *PixelData) NumFrames() int {
	return len(pd.Frames)
}

// GetFrame returns the compressed bytes of one frame
func (pd *PixelData) GetFrame(i int) ([]byte, error) {
	if i < 0 || i >= len(pd.Frames) {
		return nil, fmt.Errorf("frame index %d out of range (0-%d)", i, len(pd.Frames)-1)
	}
	return pd.Frames[i], nil
}
