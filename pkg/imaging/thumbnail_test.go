package imaging

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gradientBuffer(rows, cols int) *PixelBuffer {
	buf := &PixelBuffer{
		Rows:            rows,
		Cols:            cols,
		BitsAllocated:   16,
		BitsStored:      12,
		SamplesPerPixel: 1,
		Photometric:     "MONOCHROME2",
		RescaleSlope:    1,
		Data:            make([]uint16, rows*cols),
	}
	for i := range buf.Data {
		buf.Data[i] = uint16(i % 4096)
	}
	return buf
}

// TestGenerate_WindowedScan covers the standard radiograph preview: a
// 512x512 frame with an explicit window, downscaled to a bounded target.
func TestGenerate_WindowedScan(t *testing.T) {
	buf := gradientBuffer(512, 512)
	buf.WindowCenter = 128
	buf.WindowWidth = 256
	buf.HasWindow = true

	img, err := Generate(buf, image.Point{X: 128, Y: 128})
	require.NoError(t, err)

	b := img.Bounds()
	assert.LessOrEqual(t, b.Dx(), 128)
	assert.LessOrEqual(t, b.Dy(), 128)
	assert.Positive(t, b.Dx())
}

func TestGenerate_Deterministic(t *testing.T) {
	buf := gradientBuffer(64, 64)

	a, err := Generate(buf, image.Point{X: 32, Y: 32})
	require.NoError(t, err)
	b, err := Generate(buf, image.Point{X: 32, Y: 32})
	require.NoError(t, err)

	ra := a.Bounds()
	require.Equal(t, ra, b.Bounds())
	for y := ra.Min.Y; y < ra.Max.Y; y++ {
		for x := ra.Min.X; x < ra.Max.X; x++ {
			require.Equal(t, a.At(x, y), b.At(x, y), "pixel (%d,%d) differs between runs", x, y)
		}
	}
}

func TestGenerate_PreservesAspectRatio(t *testing.T) {
	buf := gradientBuffer(100, 200)

	img, err := Generate(buf, image.Point{X: 50, Y: 50})
	require.NoError(t, err)

	b := img.Bounds()
	assert.Equal(t, 50, b.Dx())
	assert.Equal(t, 25, b.Dy())
}

func TestGenerate_SmallImagePassesThrough(t *testing.T) {
	buf := gradientBuffer(16, 16)
	img, err := Generate(buf, image.Point{X: 64, Y: 64})
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx(), "images already under the target are not upscaled")
}

func TestGenerate_Monochrome1Inverts(t *testing.T) {
	mk := func(photometric string) *PixelBuffer {
		return &PixelBuffer{
			Rows: 1, Cols: 2,
			BitsAllocated: 8, BitsStored: 8, SamplesPerPixel: 1,
			Photometric:  photometric,
			RescaleSlope: 1,
			Data:         []uint16{0, 255},
		}
	}

	m2, err := Generate(mk("MONOCHROME2"), image.Point{X: 2, Y: 1})
	require.NoError(t, err)
	m1, err := Generate(mk("MONOCHROME1"), image.Point{X: 2, Y: 1})
	require.NoError(t, err)

	g2 := m2.(*image.Gray)
	g1 := m1.(*image.Gray)
	assert.Equal(t, uint8(0), g2.Pix[0])
	assert.Equal(t, uint8(255), g2.Pix[1])
	// MONOCHROME1 renders low values bright
	assert.Equal(t, uint8(255), g1.Pix[0])
	assert.Equal(t, uint8(0), g1.Pix[1])
}

func TestGenerate_FlatBufferDoesNotDivideByZero(t *testing.T) {
	buf := gradientBuffer(8, 8)
	for i := range buf.Data {
		buf.Data[i] = 1000
	}
	img, err := Generate(buf, image.Point{X: 8, Y: 8})
	require.NoError(t, err)
	assert.NotNil(t, img)
}

func TestGenerate_EmptyBuffer(t *testing.T) {
	_, err := Generate(nil, image.Point{X: 32, Y: 32})
	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, ReasonEmptyBuffer, ge.Reason)

	_, err = Generate(&PixelBuffer{Rows: 4, Cols: 4}, image.Point{X: 32, Y: 32})
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, ReasonEmptyBuffer, ge.Reason)
}

func TestGenerate_UnsupportedPhotometric(t *testing.T) {
	buf := gradientBuffer(4, 4)
	buf.Photometric = "YBR_FULL_422"

	_, err := Generate(buf, image.Point{X: 4, Y: 4})
	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, ReasonUnsupportedPhotometric, ge.Reason)
}

func TestGenerate_RGB(t *testing.T) {
	buf := &PixelBuffer{
		Rows: 2, Cols: 2,
		BitsAllocated: 8, BitsStored: 8, SamplesPerPixel: 3,
		Photometric: "RGB",
		Data: []uint16{
			255, 0, 0, 0, 255, 0,
			0, 0, 255, 255, 255, 255,
		},
	}
	img, err := Generate(buf, image.Point{X: 2, Y: 2})
	require.NoError(t, err)

	r, g, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xFFFF), r)
	assert.Zero(t, g)
	assert.Zero(t, b)
}
