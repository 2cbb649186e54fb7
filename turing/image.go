package turing

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"log"
	"os"

	// the CLI promises PNG stills but decode whatever the registry knows
	_ "image/gif"
	_ "image/jpeg"
)

// Native panel resolution, portrait.
const (
	ScreenWidth  = 480
	ScreenHeight = 1920
)

// DefaultImageChunk is the default cap on a single image transfer.
const DefaultImageChunk = 524288

// layer is one band of the bottom-up split: a canvas of Height rows on
// which only the rows at and below YStart are populated.
type layer struct {
	YStart int
	Height int
}

// splitLayers computes the layer geometry for an image of height h split
// into count bands.  Layers come back bottom-most first, on
// progressively taller canvases, which is the order the device expects.
func splitLayers(h, count int) []layer {
	bandH := h / count
	out := make([]layer, 0, count)
	for i := 0; i < count; i++ {
		y := h - (i+1)*bandH
		if y < 0 {
			y = 0
		}
		out = append(out, layer{YStart: y, Height: h - i*bandH})
	}
	return out
}

// encodePNG renders an image to optimized PNG bytes.
func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// sendImageBytes wraps encoded PNG bytes in an image-chunk command.
func (s *Screen) sendImageBytes(data []byte) []byte {
	hdr := buildHeader(CmdImageChunk)
	binary.BigEndian.PutUint32(hdr[8:12], uint32(len(data)))
	return s.send(hdr, data)
}

// SendImage displays a still image.  Large images are split bottom-up
// into layers so no single transfer exceeds maxChunk bytes; each layer
// is a transparent canvas holding one band of the source, re-encoded as
// PNG.  Pass maxChunk <= 0 for the default cap.
func (s *Screen) SendImage(path string, maxChunk int) error {
	if maxChunk <= 0 {
		maxChunk = DefaultImageChunk
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	src, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("turing: decoding %s: %w", path, err)
	}
	return s.sendDecodedImage(src, maxChunk)
}

func (s *Screen) sendDecodedImage(src image.Image, maxChunk int) error {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w != ScreenWidth || h != ScreenHeight {
		log.Printf("image is %dx%d, device panel is %dx%d", w, h, ScreenWidth, ScreenHeight)
	}

	// normalize to an RGBA raster with a zero origin
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)

	full, err := encodePNG(rgba)
	if err != nil {
		return err
	}
	count := (len(full) + maxChunk - 1) / maxChunk
	log.Printf("image is %d bytes, splitting into %d layers", len(full), count)

	ok := true
	for i, ly := range splitLayers(h, count) {
		canvas := image.NewRGBA(image.Rect(0, 0, w, ly.Height))
		band := image.Rect(0, ly.YStart, w, ly.Height)
		draw.Draw(canvas, band, rgba, image.Pt(0, ly.YStart), draw.Src)
		data, err := encodePNG(canvas)
		if err != nil {
			return err
		}
		log.Printf("sending layer %d/%d (%dx%d, rows %d..%d, %d bytes)",
			i+1, count, w, ly.Height, ly.YStart, ly.Height, len(data))
		if s.sendImageBytes(data) == nil {
			ok = false
		}
	}
	if !ok {
		return ErrNoReply
	}
	return nil
}
