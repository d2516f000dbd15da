package imageprep

import (
	"bytes"
	"image"
	"image/color"
	"math"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/draw"
)

// Orientation reads the EXIF orientation tag. Anything unreadable is 1.
func Orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil || v < 1 || v > 8 {
		return 1
	}
	return v
}

// Orient applies an EXIF orientation so the image is upright.
func Orient(img image.Image, orientation int) image.Image {
	if orientation <= 1 || orientation > 8 {
		return img
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	// dst maps a source offset to its destination coordinate.
	var dst func(x, y int) (int, int)
	outW, outH := w, h
	switch orientation {
	case 2: // flip horizontal
		dst = func(x, y int) (int, int) { return w - 1 - x, y }
	case 3: // rotate 180
		dst = func(x, y int) (int, int) { return w - 1 - x, h - 1 - y }
	case 4: // flip vertical
		dst = func(x, y int) (int, int) { return x, h - 1 - y }
	case 5: // transpose
		outW, outH = h, w
		dst = func(x, y int) (int, int) { return y, x }
	case 6: // rotate 90 clockwise
		outW, outH = h, w
		dst = func(x, y int) (int, int) { return h - 1 - y, x }
	case 7: // transverse
		outW, outH = h, w
		dst = func(x, y int) (int, int) { return h - 1 - y, w - 1 - x }
	case 8: // rotate 90 counter-clockwise
		outW, outH = h, w
		dst = func(x, y int) (int, int) { return y, w - 1 - x }
	}

	out := image.NewRGBA(image.Rect(0, 0, outW, outH))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := dst(x, y)
			out.Set(dx, dy, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}

// ToRGB returns img unchanged when it is already opaque 3-channel color,
// otherwise flattens it onto a white canvas.
func ToRGB(img image.Image) image.Image {
	switch m := img.(type) {
	case *image.YCbCr:
		return m
	case *image.RGBA:
		if m.Opaque() {
			return m
		}
	}

	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Over)
	return out
}

// ScaledSize returns the dimensions after fitting the longer edge to limit.
// Sizes already within limit are returned unchanged.
func ScaledSize(w, h, limit int) (int, int) {
	long := w
	if h > long {
		long = h
	}
	if long <= limit {
		return w, h
	}
	scale := float64(limit) / float64(long)
	if w >= h {
		return limit, clampMin1(int(math.Round(float64(h) * scale)))
	}
	return clampMin1(int(math.Round(float64(w) * scale))), limit
}

func clampMin1(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

// Fit shrinks img with Catmull-Rom resampling so its longer edge equals limit.
func Fit(img image.Image, limit int) image.Image {
	b := img.Bounds()
	w, h := ScaledSize(b.Dx(), b.Dy(), limit)
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(out, out.Bounds(), img, b, draw.Src, nil)
	return out
}
