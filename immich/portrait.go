package immich

import (
	"image"
	"image/draw"
)

/*Portrait fits a photo onto the 480x1920 panel.

Landscape inputs are rotated a quarter turn clockwise first, so the long
edge runs down the panel.  The result is then scaled to the panel width
and cropped vertically to the panel height, centering the crop on the
face center when one is known and on the image middle otherwise.  Images
shorter than the panel are letterboxed on a transparent canvas.
*/
func Portrait(src image.Image, face image.Point, haveFace bool) *image.RGBA {
	b := src.Bounds()
	if b.Dx() > b.Dy() {
		src = rotate90(src)
		if haveFace {
			// (x, y) maps to (h-1-y, x) under a clockwise quarter turn
			face = image.Pt(b.Dy()-1-face.Y, face.X)
		}
		b = src.Bounds()
	}

	scale := float64(OutWidth) / float64(b.Dx())
	scaledH := int(float64(b.Dy()) * scale)
	scaled := resizeNearest(src, OutWidth, scaledH)

	out := image.NewRGBA(image.Rect(0, 0, OutWidth, OutHeight))
	if scaledH <= OutHeight {
		top := (OutHeight - scaledH) / 2
		draw.Draw(out, image.Rect(0, top, OutWidth, top+scaledH), scaled, image.Point{}, draw.Src)
		return out
	}

	center := scaledH / 2
	if haveFace {
		center = int(float64(face.Y-b.Min.Y) * scale)
	}
	top := center - OutHeight/2
	if top < 0 {
		top = 0
	}
	if top+OutHeight > scaledH {
		top = scaledH - OutHeight
	}
	draw.Draw(out, out.Bounds(), scaled, image.Pt(0, top), draw.Src)
	return out
}

// resizeNearest is a nearest-neighbor rescale.  Output quality on a
// 480 pixel wide panel does not warrant an interpolating resampler.
func resizeNearest(src image.Image, w, h int) *image.RGBA {
	b := src.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		sy := b.Min.Y + y*b.Dy()/h
		for x := 0; x < w; x++ {
			sx := b.Min.X + x*b.Dx()/w
			out.Set(x, y, src.At(sx, sy))
		}
	}
	return out
}

// rotate90 turns an image a quarter turn clockwise.
func rotate90(src image.Image) *image.RGBA {
	b := src.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(b.Max.Y-1-y, x-b.Min.X, src.At(x, y))
		}
	}
	return out
}
