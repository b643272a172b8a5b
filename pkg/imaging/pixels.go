package imaging

import (
	"encoding/binary"
	"fmt"

	"github.com/dicomdesk/dicomdesk/pkg/dicom"
	"github.com/dicomdesk/dicomdesk/pkg/dicom/tag"
	"github.com/dicomdesk/dicomdesk/pkg/dicom/transfer"
)

// PixelBuffer holds decoded raster samples for one frame together with
// the image-description attributes needed to render it.
type PixelBuffer struct {
	Rows            int
	Cols            int
	BitsAllocated   int
	BitsStored      int
	SamplesPerPixel int
	Photometric     string
	Signed          bool

	RescaleSlope     float64
	RescaleIntercept float64
	WindowCenter     float64
	WindowWidth      float64
	HasWindow        bool

	// Data holds one sample per entry: row-major grayscale samples, or
	// interleaved R,G,B for SamplesPerPixel == 3.
	Data []uint16
}

// Decode produces a PixelBuffer from a dataset's PixelData element.
// Uncompressed data is decoded in-process from bits-allocated and
// samples-per-pixel metadata; compressed frames are dispatched to the
// codec registered for the transfer syntax. Multi-frame objects decode
// their first frame, which is all a preview needs.
func Decode(ds *dicom.DataSet) (*PixelBuffer, error) {
	elem, ok := ds.Get(tag.PixelData)
	if !ok {
		return nil, &DecodeError{Reason: ReasonMissingPixelData, Err: fmt.Errorf("no (7FE0,0010) element")}
	}

	buf := &PixelBuffer{
		Rows:            dicom.GetRows(ds),
		Cols:            dicom.GetColumns(ds),
		BitsAllocated:   dicom.GetBitsAllocated(ds),
		BitsStored:      dicom.GetBitsStored(ds),
		SamplesPerPixel: dicom.GetSamplesPerPixel(ds),
		Photometric:     dicom.GetPhotometricInterpretation(ds),
		Signed:          dicom.GetPixelRepresentation(ds) == 1,
	}
	buf.RescaleIntercept, buf.RescaleSlope = dicom.GetRescale(ds)
	if c, w, ok := dicom.GetWindow(ds); ok {
		buf.WindowCenter, buf.WindowWidth, buf.HasWindow = c, w, true
	}
	if buf.Rows <= 0 || buf.Cols <= 0 {
		return nil, &DecodeError{Reason: ReasonMissingPixelData,
			Err: fmt.Errorf("invalid dimensions %dx%d", buf.Cols, buf.Rows)}
	}

	syntax := ds.TransferSyntax()
	if !syntax.IsEncapsulated() {
		raw, ok := elem.GetBytes()
		if !ok {
			return nil, &DecodeError{Reason: ReasonMissingPixelData,
				Err: fmt.Errorf("native pixel data has unexpected type %T", elem.Value)}
		}
		if err := decodeNative(buf, raw); err != nil {
			return nil, err
		}
		return buf, nil
	}

	switch syntax.Scheme() {
	case transfer.CompressionRLE, transfer.CompressionJPEG, transfer.CompressionJPEGLossless,
		transfer.CompressionJPEGLS, transfer.CompressionJPEG2000:
	default:
		return nil, &DecodeError{Reason: ReasonUnsupportedTransferSyntax,
			Err: fmt.Errorf("transfer syntax %s", syntax.Name())}
	}

	codec := CodecFor(syntax)
	if codec == nil {
		return nil, &DecodeError{Reason: ReasonCodecUnavailable,
			Err: fmt.Errorf("no codec registered for %s", syntax.Name())}
	}

	pd, ok := elem.GetPixelData()
	if !ok || pd.NumFrames() == 0 {
		return nil, &DecodeError{Reason: ReasonMissingPixelData,
			Err: fmt.Errorf("encapsulated pixel data has no frames")}
	}
	frame, err := pd.GetFrame(0)
	if err != nil {
		return nil, &DecodeError{Reason: ReasonMissingPixelData, Err: err}
	}

	img, err := codec.Decode(frame, buf.Cols, buf.Rows)
	if err != nil {
		return nil, &DecodeError{Reason: ReasonCodecUnavailable,
			Err: fmt.Errorf("%s codec: %w", codec.Name(), err)}
	}

	bounds := img.Bounds()
	buf.Data = make([]uint16, buf.Rows*buf.Cols)
	for y := 0; y < bounds.Dy() && y < buf.Rows; y++ {
		for x := 0; x < bounds.Dx() && x < buf.Cols; x++ {
			r, _, _, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			buf.Data[y*buf.Cols+x] = uint16(r)
		}
	}
	buf.SamplesPerPixel = 1
	return buf, nil
}

// decodeNative converts a little-endian native pixel payload into samples
func decodeNative(buf *PixelBuffer, raw []byte) error {
	samples := buf.Rows * buf.Cols * buf.SamplesPerPixel
	switch buf.BitsAllocated {
	case 8:
		if len(raw) < samples {
			return &DecodeError{Reason: ReasonMissingPixelData,
				Err: fmt.Errorf("pixel data truncated: need %d bytes, got %d", samples, len(raw))}
		}
		buf.Data = make([]uint16, samples)
		for i := 0; i < samples; i++ {
			buf.Data[i] = uint16(raw[i])
		}
	case 16:
		if len(raw) < samples*2 {
			return &DecodeError{Reason: ReasonMissingPixelData,
				Err: fmt.Errorf("pixel data truncated: need %d bytes, got %d", samples*2, len(raw))}
		}
		buf.Data = make([]uint16, samples)
		for i := 0; i < samples; i++ {
			buf.Data[i] = binary.LittleEndian.Uint16(raw[i*2:])
		}
	default:
		return &DecodeError{Reason: ReasonUnsupportedTransferSyntax,
			Err: fmt.Errorf("bits allocated %d not supported", buf.BitsAllocated)}
	}
	return nil
}
