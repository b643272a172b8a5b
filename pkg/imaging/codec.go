// Package imaging decodes pixel data into raster buffers and renders
// preview thumbnails. Compressed transfer syntaxes are delegated to
// external codec implementations registered by transfer syntax UID.
package imaging

import (
	"bytes"
	"image"
	"sync"

	"github.com/dicomdesk/dicomdesk/pkg/compress/jpeg2k"
	"github.com/dicomdesk/dicomdesk/pkg/compress/jpegli"
	"github.com/dicomdesk/dicomdesk/pkg/compress/jpegls"
	"github.com/dicomdesk/dicomdesk/pkg/compress/rle"

	"github.com/dicomdesk/dicomdesk/pkg/dicom/transfer"
)

// Codec decompresses one frame of encapsulated pixel data.
// width/height are provided for codecs that need them (RLE).
type Codec interface {
	Decode(data []byte, width, height int) (image.Image, error)
	Name() string
}

type jpegLSCodec struct{}

func (c *jpegLSCodec) Decode(data []byte, width, height int) (image.Image, error) {
	return jpegls.Decode(bytes.NewReader(data))
}

func (c *jpegLSCodec) Name() string { return "jpeg-ls" }

type jpegLiCodec struct{}

func (c *jpegLiCodec) Decode(data []byte, width, height int) (image.Image, error) {
	return jpegli.Decode(bytes.NewReader(data))
}

func (c *jpegLiCodec) Name() string { return "jpeg-lossless" }

type rleCodec struct{}

func (c *rleCodec) Decode(data []byte, width, height int) (image.Image, error) {
	return rle.Decode(data, width, height)
}

func (c *rleCodec) Name() string { return "rle" }

type jpeg2kCodec struct{}

func (c *jpeg2kCodec) Decode(data []byte, width, height int) (image.Image, error) {
	return jpeg2k.Decode(bytes.NewReader(data))
}

func (c *jpeg2kCodec) Name() string { return "jpeg-2000" }

var (
	codecMu sync.RWMutex
	codecs  = map[transfer.Syntax]Codec{
		transfer.JPEGLSLossless:         &jpegLSCodec{},
		transfer.JPEGLSNearLossless:     &jpegLSCodec{},
		transfer.JPEGLossless:           &jpegLiCodec{},
		transfer.JPEGLosslessFirstOrder: &jpegLiCodec{},
		transfer.RLELossless:            &rleCodec{},
		transfer.JPEG2000Lossless:       &jpeg2kCodec{},
		transfer.JPEG2000:               &jpeg2kCodec{},
	}
)

// RegisterCodec installs a codec for a transfer syntax, replacing any
// existing registration.
func RegisterCodec(s transfer.Syntax, c Codec) {
	codecMu.Lock()
	defer codecMu.Unlock()
	codecs[s] = c
}

// DeregisterCodec removes the codec for a transfer syntax. Decoding that
// syntax then fails with a recoverable codec-unavailable error.
func DeregisterCodec(s transfer.Syntax) {
	codecMu.Lock()
	defer codecMu.Unlock()
	delete(codecs, s)
}

// CodecFor returns the registered codec for a transfer syntax, or nil
func CodecFor(s transfer.Syntax) Codec {
	codecMu.RLock()
	defer codecMu.RUnlock()
	return codecs[s]
}
