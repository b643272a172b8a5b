package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
)

// Generate renders a buffer into an 8-bit thumbnail no larger than target,
// preserving aspect ratio. Grayscale buffers go through the standard
// display pipeline: modality rescale, MONOCHROME1 inversion, VOI window
// clipping, then min/max normalization to the 8-bit range. RGB buffers are
// passed through as true color. The result is deterministic for a given
// buffer and target.
func Generate(buf *PixelBuffer, target image.Point) (image.Image, error) {
	if buf == nil || len(buf.Data) == 0 {
		return nil, &GenerationError{Reason: ReasonEmptyBuffer, Err: fmt.Errorf("no samples to render")}
	}
	if target.X <= 0 || target.Y <= 0 {
		return nil, &GenerationError{Reason: ReasonEmptyBuffer,
			Err: fmt.Errorf("invalid target size %dx%d", target.X, target.Y)}
	}

	var full image.Image
	switch buf.Photometric {
	case "MONOCHROME1", "MONOCHROME2", "":
		full = renderGrayscale(buf)
	case "RGB":
		img, err := renderRGB(buf)
		if err != nil {
			return nil, err
		}
		full = img
	default:
		return nil, &GenerationError{Reason: ReasonUnsupportedPhotometric,
			Err: fmt.Errorf("photometric interpretation %q", buf.Photometric)}
	}

	return downscale(full, target), nil
}

func renderGrayscale(buf *PixelBuffer) *image.Gray {
	n := buf.Rows * buf.Cols
	values := make([]float64, n)

	maxRaw := float64(int64(1)<<uint(buf.BitsStored)) - 1
	if buf.BitsStored <= 0 {
		maxRaw = math.MaxUint16
	}
	for i := 0; i < n && i < len(buf.Data); i++ {
		v := float64(buf.Data[i])
		if buf.Signed {
			v = float64(int16(buf.Data[i]))
		}
		v = v*buf.RescaleSlope + buf.RescaleIntercept
		if buf.Photometric == "MONOCHROME1" {
			v = maxRaw*buf.RescaleSlope + buf.RescaleIntercept - v
		}
		values[i] = v
	}

	if buf.HasWindow {
		lo := buf.WindowCenter - buf.WindowWidth/2
		hi := buf.WindowCenter + buf.WindowWidth/2
		for i, v := range values {
			values[i] = math.Min(math.Max(v, lo), hi)
		}
	}

	minV, maxV := values[0], values[0]
	for _, v := range values[1:] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	span := maxV - minV
	if span == 0 {
		span = 1
	}

	img := image.NewGray(image.Rect(0, 0, buf.Cols, buf.Rows))
	for i, v := range values {
		img.Pix[i] = uint8((v - minV) / span * 255)
	}
	return img
}

func renderRGB(buf *PixelBuffer) (*image.RGBA, error) {
	n := buf.Rows * buf.Cols
	if len(buf.Data) < n*3 {
		return nil, &GenerationError{Reason: ReasonEmptyBuffer,
			Err: fmt.Errorf("RGB buffer needs %d samples, got %d", n*3, len(buf.Data))}
	}
	img := image.NewRGBA(image.Rect(0, 0, buf.Cols, buf.Rows))
	for i := 0; i < n; i++ {
		img.SetRGBA(i%buf.Cols, i/buf.Cols, color.RGBA{
			R: uint8(buf.Data[i*3] >> sampleShift(buf)),
			G: uint8(buf.Data[i*3+1] >> sampleShift(buf)),
			B: uint8(buf.Data[i*3+2] >> sampleShift(buf)),
			A: 0xFF,
		})
	}
	return img, nil
}

// sampleShift maps stored sample widths down to 8 bits per channel.
func sampleShift(buf *PixelBuffer) uint {
	if buf.BitsStored > 8 {
		return uint(buf.BitsStored - 8)
	}
	return 0
}

func downscale(src image.Image, target image.Point) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= target.X && h <= target.Y {
		return src
	}

	scale := math.Min(float64(target.X)/float64(w), float64(target.Y)/float64(h))
	dw := int(math.Max(1, math.Round(float64(w)*scale)))
	dh := int(math.Max(1, math.Round(float64(h)*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}
