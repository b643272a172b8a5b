package dicom

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/dicomdesk/dicomdesk/pkg/dicom/tag"
	"github.com/dicomdesk/dicomdesk/pkg/dicom/transfer"
	"github.com/dicomdesk/dicomdesk/pkg/dicom/vr"
)

// ReadFile reads a DICOM file from disk
func ReadFile(path string) (*DataSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a complete DICOM stream: 128-byte preamble, "DICM" marker,
// file meta group (always explicit VR little endian), then the dataset
// encoded per the declared transfer syntax. Elements the parser does not
// understand are preserved as opaque bytes so serialization reproduces
// them exactly.
func Parse(r io.Reader) (*DataSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, parseErr(ReasonTruncatedStream, 0, "reading stream: %w", err)
	}
	return ParseBytes(data)
}

// ParseBytes parses a DICOM byte stream held in memory
func ParseBytes(data []byte) (*DataSet, error) {
	if len(data) < 132 || string(data[128:132]) != "DICM" {
		return nil, parseErr(ReasonMissingPreamble, 0, "no DICM marker after 128-byte preamble")
	}

	d := &decoder{data: data, pos: 132, explicit: true}
	ds := NewDataSet(transfer.ExplicitVRLittleEndian)

	// File meta group, always explicit VR little endian
	for d.pos < len(d.data) && d.peekGroup() == 0x0002 {
		e, err := d.readElement()
		if err != nil {
			return nil, err
		}
		ds.Add(e)
	}

	syntax := transfer.ImplicitVRLittleEndian
	if e, ok := ds.Get(tag.TransferSyntaxUID); ok {
		if s, ok := e.GetString(); ok {
			syntax = transfer.FromUID(s)
		}
	}
	if !syntax.IsKnown() || !syntax.IsLittleEndian() {
		return nil, parseErr(ReasonUnsupportedTransferSyntax, int64(d.pos), "transfer syntax %q", string(syntax))
	}

	ds.syntax = syntax
	d.explicit = syntax.IsExplicitVR()

	for d.pos < len(d.data) {
		e, err := d.readElement()
		if err != nil {
			return nil, err
		}
		ds.Add(e)
	}

	return ds, nil
}

// decoder walks a byte buffer, so undefined-length structures can be
// captured as raw slices while still being parsed into values.
type decoder struct {
	data     []byte
	pos      int
	explicit bool
}

func (d *decoder) remaining() int {
	return len(d.data) - d.pos
}

func (d *decoder) peekGroup() uint16 {
	if d.remaining() < 2 {
		return 0
	}
	return binary.LittleEndian.Uint16(d.data[d.pos:])
}

func (d *decoder) readTag() (tag.Tag, error) {
	if d.remaining() < 4 {
		return tag.Tag{}, parseErr(ReasonTruncatedStream, int64(d.pos), "stream ends inside a tag")
	}
	t := tag.Tag{
		Group:   binary.LittleEndian.Uint16(d.data[d.pos:]),
		Element: binary.LittleEndian.Uint16(d.data[d.pos+2:]),
	}
	d.pos += 4
	return t, nil
}

func (d *decoder) readUint16() (uint16, error) {
	if d.remaining() < 2 {
		return 0, parseErr(ReasonTruncatedStream, int64(d.pos), "stream ends inside a length field")
	}
	v := binary.LittleEndian.Uint16(d.data[d.pos:])
	d.pos += 2
	return v, nil
}

func (d *decoder) readUint32() (uint32, error) {
	if d.remaining() < 4 {
		return 0, parseErr(ReasonTruncatedStream, int64(d.pos), "stream ends inside a length field")
	}
	v := binary.LittleEndian.Uint32(d.data[d.pos:])
	d.pos += 4
	return v, nil
}

// readElement reads one complete element at the current position. File meta
// elements are always explicit VR; the rest follow the transfer syntax.
func (d *decoder) readElement() (*Element, error) {
	t, err := d.readTag()
	if err != nil {
		return nil, err
	}

	var v vr.VR
	var vl uint32
	explicit := d.explicit || t.IsFileMeta()

	if explicit {
		if d.remaining() < 2 {
			return nil, parseErr(ReasonTruncatedStream, int64(d.pos), "stream ends inside VR of %s", t)
		}
		code := string(d.data[d.pos : d.pos+2])
		d.pos += 2
		parsed, ok := vr.Parse(code)
		if !ok {
			return nil, parseErr(ReasonInvalidVR, int64(d.pos-2), "unknown VR %q for %s", code, t)
		}
		v = parsed
		if v.IsExplicitLength() {
			vl16, err := d.readUint16()
			if err != nil {
				return nil, err
			}
			vl = uint32(vl16)
		} else {
			d.pos += 2 // reserved
			if vl, err = d.readUint32(); err != nil {
				return nil, err
			}
		}
	} else {
		if vl, err = d.readUint32(); err != nil {
			return nil, err
		}
		v = implicitVR(t)
		if vl == 0xFFFFFFFF && !t.IsPixelData() {
			v = vr.SQ
		}
	}

	if vl == 0xFFFFFFFF {
		return d.readUndefinedLength(t, v)
	}

	if uint32(d.remaining()) < vl {
		return nil, parseErr(ReasonTruncatedStream, int64(d.pos), "%s declares %d value bytes, %d remain", t, vl, d.remaining())
	}
	raw := d.data[d.pos : d.pos+int(vl)]
	d.pos += int(vl)

	e := &Element{Tag: t, VR: v, raw: raw}
	if v.IsSequence() {
		items, err := parseItems(raw, d.explicit)
		if err != nil {
			return nil, err
		}
		e.Value = items
	} else {
		value, err := vr.Decode(v, raw)
		if err != nil {
			return nil, parseErr(ReasonInvalidVR, int64(d.pos), "decoding %s: %w", t, err)
		}
		e.Value = value
	}
	return e, nil
}

// readUndefinedLength handles the two undefined-length forms: encapsulated
// pixel data and sequences. The full content including the closing
// delimiter is captured as the element's raw bytes.
func (d *decoder) readUndefinedLength(t tag.Tag, v vr.VR) (*Element, error) {
	start := d.pos

	if t.IsPixelData() {
		pd, err := d.readEncapsulated()
		if err != nil {
			return nil, err
		}
		return &Element{Tag: t, VR: v, Value: pd, raw: d.data[start:d.pos], undefLen: true}, nil
	}

	end, err := d.scanSequenceEnd()
	if err != nil {
		return nil, err
	}
	raw := d.data[start:d.pos]
	items, err := parseItems(d.data[start:end], d.explicit)
	if err != nil {
		return nil, err
	}
	return &Element{Tag: t, VR: vr.SQ, Value: items, raw: raw, undefLen: true}, nil
}

// scanSequenceEnd advances past an undefined-length sequence and returns
// the offset of its Sequence Delimitation Item.
func (d *decoder) scanSequenceEnd() (int, error) {
	depth := 0
	for {
		t, err := d.readTag()
		if err != nil {
			return 0, err
		}
		if t.Group == 0xFFFE {
			vl, err := d.readUint32()
			if err != nil {
				return 0, err
			}
			switch t.Element {
			case 0xE0DD: // sequence delimitation
				if depth == 0 {
					return d.pos - 8, nil
				}
				depth--
			case 0xE00D: // item delimitation
			case 0xE000: // item start
				if vl != 0xFFFFFFFF {
					if uint32(d.remaining()) < vl {
						return 0, parseErr(ReasonTruncatedStream, int64(d.pos), "item declares %d bytes, %d remain", vl, d.remaining())
					}
					d.pos += int(vl)
				}
			}
			continue
		}

		// regular element inside an undefined-length item
		var vl uint32
		if d.explicit {
			if d.remaining() < 2 {
				return 0, parseErr(ReasonTruncatedStream, int64(d.pos), "stream ends inside VR of %s", t)
			}
			code := string(d.data[d.pos : d.pos+2])
			d.pos += 2
			v, ok := vr.Parse(code)
			if !ok {
				return 0, parseErr(ReasonInvalidVR, int64(d.pos-2), "unknown VR %q for %s", code, t)
			}
			if v.IsExplicitLength() {
				vl16, err := d.readUint16()
				if err != nil {
					return 0, err
				}
				vl = uint32(vl16)
			} else {
				d.pos += 2
				if vl, err = d.readUint32(); err != nil {
					return 0, err
				}
			}
		} else {
			if vl, err = d.readUint32(); err != nil {
				return 0, err
			}
		}
		if vl == 0xFFFFFFFF {
			depth++
			continue
		}
		if uint32(d.remaining()) < vl {
			return 0, parseErr(ReasonTruncatedStream, int64(d.pos), "%s declares %d value bytes, %d remain", t, vl, d.remaining())
		}
		d.pos += int(vl)
	}
}

// readEncapsulated reads the basic offset table and the per-frame items of
// encapsulated pixel data, up to and including the sequence delimiter.
func (d *decoder) readEncapsulated() (*PixelData, error) {
	pd := &PixelData{}

	first := true
	for {
		t, err := d.readTag()
		if err != nil {
			return nil, err
		}
		vl, err := d.readUint32()
		if err != nil {
			return nil, err
		}
		if t == tag.SequenceDelimitationItem {
			return pd, nil
		}
		if t != tag.Item {
			return nil, parseErr(ReasonTruncatedStream, int64(d.pos-8), "expected pixel data item, got %s", t)
		}
		if uint32(d.remaining()) < vl {
			return nil, parseErr(ReasonTruncatedStream, int64(d.pos), "pixel item declares %d bytes, %d remain", vl, d.remaining())
		}
		item := d.data[d.pos : d.pos+int(vl)]
		d.pos += int(vl)

		if first {
			first = false
			// first item is the basic offset table, possibly empty
			pd.Offsets = make([]uint32, 0, vl/4)
			for i := 0; i+4 <= len(item); i += 4 {
				pd.Offsets = append(pd.Offsets, binary.LittleEndian.Uint32(item[i:]))
			}
			continue
		}
		pd.Frames = append(pd.Frames, item)
	}
}

// parseItems parses the items of a sequence value region into datasets
func parseItems(data []byte, explicit bool) ([]*DataSet, error) {
	d := &decoder{data: data, explicit: explicit}
	var items []*DataSet

	for d.pos < len(d.data) {
		t, err := d.readTag()
		if err != nil {
			return nil, err
		}
		vl, err := d.readUint32()
		if err != nil {
			return nil, err
		}
		if t == tag.SequenceDelimitationItem {
			break
		}
		if t != tag.Item {
			return nil, parseErr(ReasonTruncatedStream, int64(d.pos-8), "expected sequence item, got %s", t)
		}

		item := NewDataSet(transfer.ExplicitVRLittleEndian)
		if !explicit {
			item.syntax = transfer.ImplicitVRLittleEndian
		}
		if vl == 0xFFFFFFFF {
			for {
				next, err := d.peekTag()
				if err != nil {
					return nil, err
				}
				if next == tag.ItemDelimitationItem {
					d.pos += 8 // delimiter tag + zero length
					break
				}
				e, err := d.readElement()
				if err != nil {
					return nil, err
				}
				item.Add(e)
			}
		} else {
			if uint32(d.remaining()) < vl {
				return nil, parseErr(ReasonTruncatedStream, int64(d.pos), "item declares %d bytes, %d remain", vl, d.remaining())
			}
			end := d.pos + int(vl)
			for d.pos < end {
				e, err := d.readElement()
				if err != nil {
					return nil, err
				}
				item.Add(e)
			}
		}
		items = append(items, item)
	}
	return items, nil
}

func (d *decoder) peekTag() (tag.Tag, error) {
	if d.remaining() < 4 {
		return tag.Tag{}, parseErr(ReasonTruncatedStream, int64(d.pos), "stream ends inside a tag")
	}
	return tag.Tag{
		Group:   binary.LittleEndian.Uint16(d.data[d.pos:]),
		Element: binary.LittleEndian.Uint16(d.data[d.pos+2:]),
	}, nil
}

// implicitVR resolves the VR for a tag under implicit VR encoding from the
// standard dictionary. Unknown and private tags stay opaque as UN.
func implicitVR(t tag.Tag) vr.VR {
	if info, ok := tag.Lookup(t); ok {
		return vr.VR(info.VR)
	}
	return vr.UN
}
