package turing

// clearImagePNG is the built-in 480x1920 fully transparent PNG the
// firmware expects for a blank frame: signature, IHDR, sRGB, gAMA and
// pHYs chunks, one IDAT whose deflate stream is a short header, a run of
// zeros and a short tail, then IEND.  3703 bytes, byte for byte what the
// vendor tool ships.
var clearImagePNG = buildClearImagePNG()

func buildClearImagePNG() []byte {
	head := []byte{
		0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
		0x00, 0x00, 0x01, 0xe0, 0x00, 0x00, 0x07, 0x80, 0x08, 0x06, 0x00, 0x00, 0x00, 0x16, 0xf0, 0x84,
		0xf5, 0x00, 0x00, 0x00, 0x01, 0x73, 0x52, 0x47, 0x42, 0x00, 0xae, 0xce, 0x1c, 0xe9, 0x00, 0x00,
		0x00, 0x04, 0x67, 0x41, 0x4d, 0x41, 0x00, 0x00, 0xb1, 0x8f, 0x0b, 0xfc, 0x61, 0x05, 0x00, 0x00,
		0x00, 0x09, 0x70, 0x48, 0x59, 0x73, 0x00, 0x00, 0x0e, 0xc3, 0x00, 0x00, 0x0e, 0xc3, 0x01, 0xc7,
		0x6f, 0xa8, 0x64, 0x00, 0x00, 0x0e, 0x0c, 0x49, 0x44, 0x41, 0x54, 0x78, 0x5e, 0xed, 0xc1, 0x01,
		0x0d, 0x00, 0x00, 0x00, 0xc2, 0xa0, 0xf7, 0x4f, 0x6d, 0x0f, 0x07, 0x14, 0x00, 0x00, 0x00, 0x00,
	}
	tail := []byte{
		0x00, 0xf0, 0x66, 0x4a, 0xc8, 0x00, 0x01, 0x11, 0x9d, 0x82, 0x0a, 0x00, 0x00, 0x00, 0x00, 0x49,
		0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
	}
	out := make([]byte, 0, len(head)+3568+len(tail))
	out = append(out, head...)
	out = append(out, make([]byte, 3568)...)
	return append(out, tail...)
}

// ClearImage blanks the panel by sending the built-in transparent PNG.
func (s *Screen) ClearImage() error {
	if s.sendImageBytes(clearImagePNG) == nil {
		return ErrNoReply
	}
	return nil
}
