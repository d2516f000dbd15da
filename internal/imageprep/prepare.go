/*
PURPOSE:
  Turns an image file into a transfer-ready payload (base64 + media type).
  Two variants: Raw sends the file verbatim, Optimizing shrinks it first.

REQUIREMENTS:
  User-specified:
  - Baseline: read bytes, base64-encode verbatim, declare original media type.
  - Optimizing: decode, convert to 3-channel color, scale the longer edge
    down to 800 px if larger, re-encode JPEG at quality 85.

  Implementation-discovered:
  - Phone photos carry EXIF orientation; without applying it the model sees
    sideways text.
  - Transparent PNG pixels must be flattened onto white, not black.

ARCHITECTURE INTEGRATION:
  - Called by: internal/engine (per image, inside a worker)
  - Uses: internal/model, golang.org/x/image/draw, rwcarlsen/goexif

ERROR HANDLING:
  - Every failure is returned as *model.PreparationError with the stage.
  - Never panics; the caller turns the error into a per-image failure.

IMPLEMENTATION RULES:
  - Preparers must be safe for concurrent use (no shared buffers).
  - Images within the limit are never upscaled.

USAGE:
  p := imageprep.New(true, 800, 85)
  payload, err := p.Prepare(task)

SELF-HEALING INSTRUCTIONS:
  - If a new input format is added to discovery, register its decoder here.

RELATED FILES:
  - internal/imageprep/transform.go
  - internal/discovery/discover.go

MAINTENANCE:
  - Update when the transfer format changes.
*/

package imageprep

import (
	"bytes"
	"encoding/base64"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/daryltucker/ocr-runner/internal/model"
)

// Preparer produces the payload for one image.
type Preparer interface {
	Prepare(task model.ImageTask) (model.Payload, error)
}

// New returns Optimizing when optimize is set, Raw otherwise.
func New(optimize bool, maxDimension, quality int) Preparer {
	if optimize {
		return Optimizing{MaxDimension: maxDimension, Quality: quality}
	}
	return Raw{}
}

var mediaTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
}

// MediaTypeFor maps a filename extension to its image media type.
func MediaTypeFor(name string) string {
	if mt, ok := mediaTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return mt
	}
	return "application/octet-stream"
}

// Raw sends the file bytes unchanged.
type Raw struct{}

func (Raw) Prepare(task model.ImageTask) (model.Payload, error) {
	data, err := os.ReadFile(task.Path)
	if err != nil {
		return model.Payload{}, &model.PreparationError{Filename: task.Filename, Stage: "read", Err: err}
	}
	return model.Payload{
		Data:      base64.StdEncoding.EncodeToString(data),
		MediaType: MediaTypeFor(task.Filename),
	}, nil
}

// Optimizing decodes, orients, flattens, shrinks and re-encodes as JPEG.
type Optimizing struct {
	MaxDimension int
	Quality      int
}

func (o Optimizing) Prepare(task model.ImageTask) (model.Payload, error) {
	data, err := os.ReadFile(task.Path)
	if err != nil {
		return model.Payload{}, &model.PreparationError{Filename: task.Filename, Stage: "read", Err: err}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return model.Payload{}, &model.PreparationError{Filename: task.Filename, Stage: "decode", Err: err}
	}

	img = Orient(img, Orientation(data))
	img = Fit(ToRGB(img), o.MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: o.Quality}); err != nil {
		return model.Payload{}, &model.PreparationError{Filename: task.Filename, Stage: "encode", Err: err}
	}

	return model.Payload{
		Data:      base64.StdEncoding.EncodeToString(buf.Bytes()),
		MediaType: "image/jpeg",
	}, nil
}
