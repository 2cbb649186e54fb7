/*Package turing drives the Turing Smart Screen, a USB-attached 480x1920
auxiliary display speaking a proprietary command protocol over a single
bulk interface.

Every host->device transfer starts with one 512 byte envelope: a 500 byte
plaintext command header, zero padded to 504 bytes and run through DES-CBC
with a fixed key, followed by a constant two byte trailer.  Bulk payloads
(PNG layers, H.264 chunks, remote-file buffers) ride directly behind the
envelope in the same write.

The DES layer is obfuscation, not security.  The key is public and equals
the IV; interop with the device firmware is the only correctness
criterion, so do not swap in a stronger cipher.

To talk to real hardware, pair a Screen with a usbbulk.Device.  Tests use
the MockTransport in this package instead.
*/
package turing

import (
	"crypto/cipher"
	"crypto/des"
	"encoding/binary"
	"errors"
	"time"
)

const (
	// headerLen is the plaintext command header length
	headerLen = 500

	// paddedLen is the header length after zero padding to the DES block size
	paddedLen = 504

	// envelopeLen is the on-wire frame length
	envelopeLen = 512
)

const (
	// magic bytes at header offsets 2 and 3, constant across all commands
	magic0 = 0x1A
	magic1 = 0x6D

	// trailer bytes at envelope offsets 510 and 511
	trailer0 = 0xA1
	trailer1 = 0x1A
)

// desKey is both the DES key and the CBC initialization vector.
var desKey = []byte("slv3tuzx")

// ErrBadEnvelope is generated when a frame fails the trailer check during decode
var ErrBadEnvelope = errors.New("turing: frame is not a 512 byte command envelope")

// buildHeader allocates a zeroed command header and stamps the opcode,
// the magic bytes, and the current timestamp.
func buildHeader(op byte) []byte {
	return buildHeaderAt(op, time.Now())
}

// buildHeaderAt is buildHeader with an explicit clock reading.
func buildHeaderAt(op byte, now time.Time) []byte {
	hdr := make([]byte, headerLen)
	hdr[0] = op
	hdr[2] = magic0
	hdr[3] = magic1
	binary.LittleEndian.PutUint32(hdr[4:8], msSinceMidnight(now))
	return hdr
}

// msSinceMidnight returns the milliseconds elapsed since local midnight,
// truncated to 32 bits.  The device ignores the value on most firmware
// revisions but the field must be populated.
func msSinceMidnight(now time.Time) uint32 {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return uint32(now.Sub(midnight).Milliseconds())
}

// encryptPacket seals a plaintext header into a 512 byte envelope.  The
// header is zero padded to a multiple of the DES block size, encrypted in
// CBC mode, and the constant trailer is written at the tail.  Bytes
// between ciphertext end and trailer stay zero.
func encryptPacket(plain []byte) []byte {
	padded := plain
	if r := len(plain) % des.BlockSize; r != 0 {
		padded = make([]byte, len(plain)+des.BlockSize-r)
		copy(padded, plain)
	}
	block, err := des.NewCipher(desKey)
	if err != nil {
		// the key is a compile-time constant of the correct size
		panic(err)
	}
	out := make([]byte, envelopeLen)
	cipher.NewCBCEncrypter(block, desKey).CryptBlocks(out[:len(padded)], padded)
	out[510] = trailer0
	out[511] = trailer1
	return out
}

// decryptEnvelope reverses encryptPacket, returning the padded plaintext.
// The device never sends envelopes back; this exists for the mock
// transport and round-trip verification.
func decryptEnvelope(env []byte) ([]byte, error) {
	if len(env) != envelopeLen || env[510] != trailer0 || env[511] != trailer1 {
		return nil, ErrBadEnvelope
	}
	block, err := des.NewCipher(desKey)
	if err != nil {
		panic(err)
	}
	plain := make([]byte, paddedLen)
	cipher.NewCBCDecrypter(block, desKey).CryptBlocks(plain, env[:paddedLen])
	return plain, nil
}
