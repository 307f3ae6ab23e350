package diagram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
)

// Bitmap is an encoded PNG plus its pixel size.
type Bitmap struct {
	PNG    []byte
	Width  int
	Height int
}

// Limits on the rasterized canvas, checked before any pixels are allocated.
const (
	MaxBitmapSide   = 16384
	MaxBitmapPixels = 64 << 20
)

// Rasterizer converts vector images to PNG at their intrinsic size.
type Rasterizer struct {
	// Supersample draws at this multiple of the output size and scales
	// down, for smoother edges. Values below 2 draw at 1x.
	Supersample int
}

// Rasterize draws img onto a white canvas of its intrinsic pixel size and
// encodes it as PNG. Any failure is a *RasterError.
func (r Rasterizer) Rasterize(ctx context.Context, img VectorImage) (Bitmap, error) {
	if err := ctx.Err(); err != nil {
		return Bitmap{}, &RasterError{Err: err}
	}
	if len(img.SVG) == 0 {
		return Bitmap{}, &RasterError{Err: errors.New("empty vector image")}
	}

	if _, err := readSVGRoot(img.SVG); err != nil {
		return Bitmap{}, &RasterError{Err: err}
	}

	w, h := img.Width, img.Height
	if !usableLength(w) || !usableLength(h) {
		var err error
		if w, h, err = intrinsicSize(img.SVG); err != nil {
			return Bitmap{}, &RasterError{Err: err}
		}
	}
	if w > MaxBitmapSide || h > MaxBitmapSide {
		return Bitmap{}, &RasterError{Err: fmt.Errorf("image too large: %gx%g", w, h)}
	}
	width, height := int(math.Ceil(w)), int(math.Ceil(h))
	if width*height > MaxBitmapPixels {
		return Bitmap{}, &RasterError{Err: fmt.Errorf("image too large: %dx%d exceeds %d pixels", width, height, MaxBitmapPixels)}
	}

	scale := supersampleScale(width, height, r.Supersample)
	sw, sh := width*scale, height*scale

	icon, err := oksvg.ReadIconStream(bytes.NewReader(img.SVG), oksvg.IgnoreErrorMode)
	if err != nil {
		return Bitmap{}, &RasterError{Err: err}
	}
	if !usableLength(icon.ViewBox.W) || !usableLength(icon.ViewBox.H) || math.IsNaN(icon.ViewBox.X) || math.IsNaN(icon.ViewBox.Y) {
		icon.ViewBox.X, icon.ViewBox.Y = 0, 0
		icon.ViewBox.W, icon.ViewBox.H = w, h
	}
	icon.SetTarget(0, 0, float64(sw), float64(sh))

	canvas := image.NewRGBA(image.Rect(0, 0, sw, sh))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(sw, sh, canvas, canvas.Bounds())
	icon.Draw(rasterx.NewDasher(sw, sh, scanner), 1)

	if err := ctx.Err(); err != nil {
		return Bitmap{}, &RasterError{Err: err}
	}

	view := viewBoxTransform(icon.ViewBox.X, icon.ViewBox.Y, icon.ViewBox.W, icon.ViewBox.H, float64(sw), float64(sh))
	if err := drawText(canvas, img.SVG, view); err != nil {
		return Bitmap{}, &RasterError{Err: err}
	}

	out := canvas
	if scale > 1 {
		out = image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(out, out.Bounds(), canvas, canvas.Bounds(), draw.Src, nil)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return Bitmap{}, &RasterError{Err: err}
	}
	return Bitmap{PNG: buf.Bytes(), Width: width, Height: height}, nil
}

// supersampleScale lowers the requested factor until the drawing canvas fits
// within the bitmap limits.
func supersampleScale(width, height, requested int) int {
	scale := requested
	if scale < 2 {
		return 1
	}
	for scale > 1 && (width*scale > MaxBitmapSide || height*scale > MaxBitmapSide || width*height*scale*scale > MaxBitmapPixels) {
		scale--
	}
	return scale
}

// viewBoxTransform maps user space to the target canvas the same way the
// geometry pass does: viewBox origin to (0,0), scaled per axis.
func viewBoxTransform(vx, vy, vw, vh, tw, th float64) affine {
	sx, sy := tw/vw, th/vh
	return affine{sx, 0, 0, sy, -vx * sx, -vy * sy}
}
