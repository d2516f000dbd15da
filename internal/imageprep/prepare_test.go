package imageprep

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/ocr-runner/internal/model"
)

// writePNG writes a patterned test image and returns its task.
func writePNG(t *testing.T, img image.Image, name string) model.ImageTask {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return model.ImageTask{Filename: name, Path: path}
}

func patterned(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8((x + y) % 256), G: uint8((x * 2) % 256), B: uint8((y * 2) % 256), A: 255})
		}
	}
	return img
}

func decodePayload(t *testing.T, p model.Payload) image.Image {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(p.Data)
	require.NoError(t, err)
	img, _, err := image.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return img
}

func TestMediaTypeFor(t *testing.T) {
	assert.Equal(t, "image/png", MediaTypeFor("a.PNG"))
	assert.Equal(t, "image/jpeg", MediaTypeFor("a.jpg"))
	assert.Equal(t, "image/jpeg", MediaTypeFor("a.JPEG"))
	assert.Equal(t, "image/gif", MediaTypeFor("a.gif"))
	assert.Equal(t, "application/octet-stream", MediaTypeFor("a.tiff"))
}

func TestRaw_Verbatim(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.gif")
	content := []byte("GIF89a-not-really")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	p, err := Raw{}.Prepare(model.ImageTask{Filename: "x.gif", Path: path})
	require.NoError(t, err)
	assert.Equal(t, "image/gif", p.MediaType)
	assert.Equal(t, base64.StdEncoding.EncodeToString(content), p.Data)
	assert.Equal(t, "data:image/gif;base64,"+p.Data, p.DataURI())
}

func TestRaw_MissingFile(t *testing.T) {
	_, err := Raw{}.Prepare(model.ImageTask{Filename: "gone.png", Path: filepath.Join(t.TempDir(), "gone.png")})

	var pe *model.PreparationError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "read", pe.Stage)
	assert.Equal(t, "gone.png", pe.Filename)
}

func TestOptimizing_WithinLimitKeepsResolution(t *testing.T) {
	task := writePNG(t, patterned(640, 480), "small.png")

	p, err := Optimizing{MaxDimension: 800, Quality: 85}.Prepare(task)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", p.MediaType)

	img := decodePayload(t, p)
	assert.Equal(t, 640, img.Bounds().Dx())
	assert.Equal(t, 480, img.Bounds().Dy())
}

func TestOptimizing_ShrinksLongerEdge(t *testing.T) {
	cases := []struct {
		w, h         int
		wantW, wantH int
	}{
		{1600, 1200, 800, 600},
		{1000, 3000, 267, 800},
		{801, 10, 800, 10},
		{5000, 2, 800, 1},
	}
	for _, tc := range cases {
		task := writePNG(t, patterned(tc.w, tc.h), "big.png")

		p, err := Optimizing{MaxDimension: 800, Quality: 85}.Prepare(task)
		require.NoError(t, err)

		b := decodePayload(t, p).Bounds()
		assert.Equal(t, tc.wantW, b.Dx(), "%dx%d width", tc.w, tc.h)
		assert.Equal(t, tc.wantH, b.Dy(), "%dx%d height", tc.w, tc.h)

		origRatio := float64(tc.w) / float64(tc.h)
		gotRatio := float64(b.Dx()) / float64(b.Dy())
		if tc.h > 10 && tc.w > 10 {
			assert.InDelta(t, origRatio, gotRatio, 0.01)
		}
	}
}

func TestOptimizing_GrayBecomesThreeChannel(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 50, 40))
	for i := range gray.Pix {
		gray.Pix[i] = uint8(i % 256)
	}
	task := writePNG(t, gray, "gray.png")

	p, err := Optimizing{MaxDimension: 800, Quality: 85}.Prepare(task)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(p.Data)
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	_, isYCbCr := img.(*image.YCbCr)
	assert.True(t, isYCbCr, "want 3-channel JPEG, got %T", img)
}

func TestOptimizing_TransparentFlattensToWhite(t *testing.T) {
	transparent := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	task := writePNG(t, transparent, "clear.png")

	p, err := Optimizing{MaxDimension: 800, Quality: 85}.Prepare(task)
	require.NoError(t, err)

	r, g, b, _ := decodePayload(t, p).At(8, 8).RGBA()
	assert.Greater(t, r>>8, uint32(245))
	assert.Greater(t, g>>8, uint32(245))
	assert.Greater(t, b>>8, uint32(245))
}

func TestOptimizing_CorruptImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.jpg")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a jpeg"), 0o644))

	_, err := Optimizing{MaxDimension: 800, Quality: 85}.Prepare(model.ImageTask{Filename: "broken.jpg", Path: path})

	var pe *model.PreparationError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "decode", pe.Stage)
}

func TestScaledSize(t *testing.T) {
	w, h := ScaledSize(800, 800, 800)
	assert.Equal(t, [2]int{800, 800}, [2]int{w, h})
	w, h = ScaledSize(1200, 1200, 800)
	assert.Equal(t, [2]int{800, 800}, [2]int{w, h})
	w, h = ScaledSize(900, 1800, 800)
	assert.Equal(t, [2]int{400, 800}, [2]int{w, h})
}

func TestOrient_Rotate90Clockwise(t *testing.T) {
	// 2x1: red, blue -> rotated to 1x2: red on top, blue below.
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.Set(0, 0, color.RGBA{R: 255, A: 255})
	src.Set(1, 0, color.RGBA{B: 255, A: 255})

	out := Orient(src, 6)
	require.Equal(t, 1, out.Bounds().Dx())
	require.Equal(t, 2, out.Bounds().Dy())
	assert.Equal(t, color.RGBA{R: 255, A: 255}, out.At(0, 0))
	assert.Equal(t, color.RGBA{B: 255, A: 255}, out.At(0, 1))
}

func TestOrient_Rotate180(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.Set(0, 0, color.RGBA{R: 255, A: 255})
	src.Set(1, 0, color.RGBA{B: 255, A: 255})

	out := Orient(src, 3)
	assert.Equal(t, color.RGBA{B: 255, A: 255}, out.At(0, 0))
	assert.Equal(t, color.RGBA{R: 255, A: 255}, out.At(1, 0))
}

func TestOrient_IdentityAndNoExif(t *testing.T) {
	src := patterned(3, 2)
	assert.Same(t, image.Image(src), Orient(src, 1))
	assert.Equal(t, 1, Orientation([]byte("no exif here")))
}

func TestNew(t *testing.T) {
	assert.IsType(t, Raw{}, New(false, 800, 85))
	assert.Equal(t, Optimizing{MaxDimension: 800, Quality: 85}, New(true, 800, 85))
}
