package turing

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestSplitLayersGeometry(t *testing.T) {
	layers := splitLayers(1920, 3)
	want := []layer{
		{YStart: 1280, Height: 1920},
		{YStart: 640, Height: 1280},
		{YStart: 0, Height: 640},
	}
	if len(layers) != len(want) {
		t.Fatalf("got %d layers, want %d", len(layers), len(want))
	}
	for i := range want {
		if layers[i] != want[i] {
			t.Errorf("layer %d is %+v, want %+v", i, layers[i], want[i])
		}
	}
}

func TestSplitLayersUnevenDivision(t *testing.T) {
	// 1000 rows over 3 bands of 333: the topmost band stops at the
	// remainder row, matching the device-side expectation
	layers := splitLayers(1000, 3)
	want := []layer{
		{YStart: 667, Height: 1000},
		{YStart: 334, Height: 667},
		{YStart: 1, Height: 334},
	}
	for i := range want {
		if layers[i] != want[i] {
			t.Errorf("layer %d is %+v, want %+v", i, layers[i], want[i])
		}
	}
}

// noisyImage produces an image that compresses poorly so layer counts
// are predictable from the encoded size.
func noisyImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	state := uint32(2463534242)
	for i := range img.Pix {
		// xorshift keeps the PNG filter from flattening anything
		state ^= state << 13
		state ^= state >> 17
		state ^= state << 5
		img.Pix[i] = byte(state)
	}
	return img
}

func TestSendImageLayerCount(t *testing.T) {
	img := noisyImage(48, 192)
	full, err := encodePNG(img)
	if err != nil {
		t.Fatal(err)
	}
	maxChunk := len(full)/3 + 1
	wantLayers := (len(full) + maxChunk - 1) / maxChunk

	mock := &MockTransport{}
	if err := NewScreen(mock).sendDecodedImage(img, maxChunk); err != nil {
		t.Fatal(err)
	}
	if len(mock.Ops) != wantLayers {
		t.Fatalf("sent %d layers, want %d", len(mock.Ops), wantLayers)
	}
	for i, op := range mock.Ops {
		if op != CmdImageChunk {
			t.Errorf("transaction %d has opcode %d, want %d", i, op, CmdImageChunk)
		}
	}
}

func TestSendImageLayerContent(t *testing.T) {
	// a 4-row image with distinct row colors: after a 2-way split the
	// first layer must show only the bottom rows and keep the top
	// transparent
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	rowColors := []color.RGBA{
		{255, 0, 0, 255}, {0, 255, 0, 255}, {0, 0, 255, 255}, {255, 255, 0, 255},
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, rowColors[y])
		}
	}
	full, err := encodePNG(img)
	if err != nil {
		t.Fatal(err)
	}

	mock := &MockTransport{}
	// force exactly two layers
	if err := NewScreen(mock).sendDecodedImage(img, len(full)/2+1); err != nil {
		t.Fatal(err)
	}
	if len(mock.Payloads) != 2 {
		t.Fatalf("sent %d layers, want 2", len(mock.Payloads))
	}

	first, err := png.Decode(bytes.NewReader(mock.Payloads[0]))
	if err != nil {
		t.Fatal(err)
	}
	if first.Bounds().Dy() != 4 {
		t.Fatalf("first layer canvas height %d, want 4", first.Bounds().Dy())
	}
	if _, _, _, a := first.At(0, 0).RGBA(); a != 0 {
		t.Error("row 0 of the first layer should be transparent")
	}
	if r, _, _, a := first.At(0, 2).RGBA(); a == 0 || r != 0 {
		t.Error("row 2 of the first layer should hold the blue source row")
	}

	second, err := png.Decode(bytes.NewReader(mock.Payloads[1]))
	if err != nil {
		t.Fatal(err)
	}
	if second.Bounds().Dy() != 2 {
		t.Fatalf("second layer canvas height %d, want 2", second.Bounds().Dy())
	}
}

func TestImageChunkHeaderDeclaresPayloadLength(t *testing.T) {
	mock := &MockTransport{}
	s := NewScreen(mock)
	data := []byte{1, 2, 3, 4, 5}
	s.sendImageBytes(data)
	hdr := mock.Headers[0]
	if got := binary.BigEndian.Uint32(hdr[8:12]); got != 5 {
		t.Errorf("declared %d payload bytes, want 5", got)
	}
	if !bytes.Equal(mock.Payloads[0], data) {
		t.Error("payload bytes were not forwarded verbatim")
	}
}

func TestClearImageConstant(t *testing.T) {
	if len(clearImagePNG) != 3703 {
		t.Fatalf("built-in PNG is %d bytes, want 3703", len(clearImagePNG))
	}
	sig := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}
	if !bytes.Equal(clearImagePNG[:8], sig) {
		t.Error("built-in PNG lacks the PNG signature")
	}
	w := binary.BigEndian.Uint32(clearImagePNG[16:20])
	h := binary.BigEndian.Uint32(clearImagePNG[20:24])
	if w != 480 || h != 1920 {
		t.Errorf("IHDR is %dx%d, want 480x1920", w, h)
	}
}

func TestClearImageCommand(t *testing.T) {
	mock := &MockTransport{}
	if err := NewScreen(mock).ClearImage(); err != nil {
		t.Fatal(err)
	}
	hdr := mock.Headers[0]
	if hdr[0] != CmdImageChunk {
		t.Fatalf("opcode %d, want %d", hdr[0], CmdImageChunk)
	}
	if got := binary.BigEndian.Uint32(hdr[8:12]); got != 3703 {
		t.Errorf("declared %d bytes, want 3703", got)
	}
	if !bytes.Equal(mock.Payloads[0], clearImagePNG) {
		t.Error("payload is not the built-in PNG")
	}
}
