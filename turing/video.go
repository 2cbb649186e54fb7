package turing

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// videoChunkLen is the read size for the H.264 elementary stream;
	// the firmware ingest buffer is sized to it
	videoChunkLen = 202752

	// chunkPace is the inter-chunk send spacing
	chunkPace = 30 * time.Millisecond

	// videoBrightness is the brightness the prelude programs
	videoBrightness = 32

	// videoFrameRate is the playback rate the prelude programs
	videoFrameRate = 25

	// busyFloor: a chunk reply at or below this busy level (or a
	// missing reply) means the device wants a backpressure pause
	busyFloor = 3

	// probeThreshold is the ready level the probe loop waits for
	// between video chunks
	probeThreshold = 2
)

// SendVideo streams a video to the panel.  An .mp4 path is first adapted
// to an Annex-B elementary stream via the Extractor; an .h264 path is
// streamed as-is.  When loop is true the stream restarts at EOF until
// the context is cancelled.  The post-video reset is sent on every exit
// path, cancellation included.
func (s *Screen) SendVideo(ctx context.Context, path string, loop bool) error {
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".h264":
	case ".mp4":
		if s.Extractor == nil {
			return fmt.Errorf("%w: no MP4 extractor configured", ErrUnsupportedFile)
		}
		path, err = s.Extractor.Extract(path)
		if err != nil {
			return err
		}
	default:
		log.Printf("cannot stream %s: want .mp4 or .h264", path)
		return ErrUnsupportedFile
	}

	// warmup ritual; replies are not inspected
	s.sendBare(CmdStopPlay)
	s.sendBare(CmdPrePlayReset)
	s.sendBare(CmdPreVideoReset)
	s.Brightness(videoBrightness)
	s.sendBare(CmdPreVideoReset2)
	s.ClearImage()
	s.FrameRate(videoFrameRate)
	defer s.sendBare(CmdPostVideoReset)

	lim := rate.NewLimiter(rate.Every(chunkPace), 1)
	for {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		err = s.streamH264(ctx, f, lim)
		f.Close()
		if err != nil {
			return err
		}
		if !loop {
			return nil
		}
	}
}

// streamH264 pushes one pass over an elementary stream, pacing chunks
// and yielding to the device busy counter.
func (s *Screen) streamH264(ctx context.Context, r io.Reader, lim *rate.Limiter) error {
	buf := make([]byte, videoChunkLen)
	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			hdr := buildHeader(CmdVideoChunk)
			binary.BigEndian.PutUint32(hdr[8:12], uint32(n))
			resp := s.send(hdr, buf[:n])
			if werr := lim.Wait(ctx); werr != nil {
				return werr
			}
			if resp == nil || len(resp) < 9 || resp[8] <= busyFloor {
				s.delay(probeThreshold)
			}
		}
		switch err {
		case nil:
			if cerr := ctx.Err(); cerr != nil {
				return cerr
			}
		case io.EOF, io.ErrUnexpectedEOF:
			return nil
		default:
			return err
		}
	}
}
