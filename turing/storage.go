package turing

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// On-device storage layout.
const (
	RemoteImageDir = "/tmp/sdcard/mmcblk0p1/img/"
	RemoteVideoDir = "/tmp/sdcard/mmcblk0p1/video/"
)

// uploadBufLen is the fixed remote-file write buffer.  Every write-chunk
// transfer carries exactly this many payload bytes; the header declares
// how many of them are real.
const uploadBufLen = 1 << 20

// remoteDirFor maps a stored-file name to its on-device directory.
func remoteDirFor(name string) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return RemoteImageDir, nil
	case ".h264":
		return RemoteVideoDir, nil
	}
	log.Printf("no remote directory for %s: want .png or .h264", name)
	return "", ErrUnsupportedFile
}

// Upload copies a local file into on-device storage.  PNG stills land in
// the image directory; MP4 videos are adapted to .h264 first and land in
// the video directory under the adapted basename.
func (s *Screen) Upload(localPath string) error {
	var remote string
	switch strings.ToLower(filepath.Ext(localPath)) {
	case ".png":
		remote = RemoteImageDir + filepath.Base(localPath)
	case ".mp4":
		if s.Extractor == nil {
			return fmt.Errorf("%w: no MP4 extractor configured", ErrUnsupportedFile)
		}
		h264, err := s.Extractor.Extract(localPath)
		if err != nil {
			return err
		}
		localPath = h264
		remote = RemoteVideoDir + filepath.Base(h264)
	default:
		log.Printf("cannot upload %s: want .png or .mp4", localPath)
		return ErrUnsupportedFile
	}

	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return err
	}

	hdr, err := pathHeader(CmdOpenFile, remote)
	if err != nil {
		return err
	}
	if s.send(hdr, nil) == nil {
		return fmt.Errorf("turing: open %s: %w", remote, ErrNoReply)
	}

	size := fi.Size()
	chunks := int((size + uploadBufLen - 1) / uploadBufLen)
	log.Printf("uploading %s -> %s (%d bytes, %d chunks)", localPath, remote, size, chunks)
	buf := make([]byte, uploadBufLen)
	for i := 0; i < chunks; i++ {
		n, err := io.ReadFull(f, buf)
		if err != nil && err != io.ErrUnexpectedEOF {
			return err
		}
		// the buffer is transmitted in full every time; zero the slack
		for j := n; j < uploadBufLen; j++ {
			buf[j] = 0
		}
		hdr := buildHeader(CmdWriteFileChunk)
		binary.BigEndian.PutUint32(hdr[8:12], uploadBufLen)
		binary.BigEndian.PutUint32(hdr[12:16], uint32(n))
		if i == chunks-1 {
			hdr[16] = 1
		}
		if s.send(hdr, buf) == nil {
			return fmt.Errorf("turing: write chunk %d/%d: %w", i+1, chunks, ErrNoReply)
		}
	}
	return nil
}

// Delete removes a stored file, inferring its directory from the
// extension.
func (s *Screen) Delete(name string) error {
	dir, err := remoteDirFor(name)
	if err != nil {
		return err
	}
	hdr, err := pathHeader(CmdDeleteFile, dir+name)
	if err != nil {
		return err
	}
	if s.send(hdr, nil) == nil {
		return ErrNoReply
	}
	return nil
}

// StopPlay halts playback of a stored file.
func (s *Screen) StopPlay() error {
	r1 := s.sendBare(CmdStopPlay)
	r2 := s.sendBare(CmdStopPlay2)
	if r1 == nil || r2 == nil {
		return ErrNoReply
	}
	return nil
}

// playCmd sends one of the three play opcodes with a full remote path.
func (s *Screen) playCmd(op byte, name string) error {
	dir, err := remoteDirFor(name)
	if err != nil {
		return err
	}
	hdr, err := pathHeader(op, dir+name)
	if err != nil {
		return err
	}
	if s.send(hdr, nil) == nil {
		return ErrNoReply
	}
	return nil
}

// Play issues the first-form play command for a stored file.
func (s *Screen) Play(name string) error { return s.playCmd(CmdPlayFile, name) }

// Play2 issues the second-form play command for a stored file.
func (s *Screen) Play2(name string) error { return s.playCmd(CmdPlayFile2, name) }

// Play3 issues the third-form play command for a stored file.
func (s *Screen) Play3(name string) error { return s.playCmd(CmdPlayFile3, name) }

// PlaySelect runs the fixed handshake that starts playback of a file
// already in on-device storage.  The opcode order is a firmware
// contract; reordering it wedges the player.
func (s *Screen) PlaySelect(name string) error {
	dir, err := remoteDirFor(name)
	if err != nil {
		return err
	}
	video := dir == RemoteVideoDir

	s.DelaySync()
	s.sendBare(CmdStopPlay)
	s.sendBare(CmdStopPlay2)
	s.Brightness(videoBrightness)
	if video {
		if err := s.Play(name); err != nil {
			return err
		}
	}
	s.sendBare(CmdStopPlay)
	s.sendBare(CmdPrePlayReset)
	s.ClearImage()
	if video {
		return s.Play2(name)
	}
	return s.Play3(name)
}
