package ffmpeg

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExtractReusesCachedOutput(t *testing.T) {
	dir := t.TempDir()
	mp4 := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(mp4, []byte("not really an mp4"), 0644); err != nil {
		t.Fatal(err)
	}
	cached := mp4 + ".h264"
	if err := os.WriteFile(cached, []byte("cached stream"), 0644); err != nil {
		t.Fatal(err)
	}

	// a binary that cannot exist proves the tool never ran
	e := Extractor{Bin: filepath.Join(dir, "no-such-ffmpeg")}
	out, err := e.Extract(mp4)
	if err != nil {
		t.Fatal(err)
	}
	if out != cached {
		t.Errorf("got %q, want the cached %q", out, cached)
	}
}

func TestExtractOutputNaming(t *testing.T) {
	// the suffix stacks on the full name so clip.h264 next to clip.mp4
	// is never the extraction target
	dir := t.TempDir()
	mp4 := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(mp4, nil, 0644); err != nil {
		t.Fatal(err)
	}
	sibling := filepath.Join(dir, "clip.h264")
	if err := os.WriteFile(sibling, []byte("pre-existing"), 0644); err != nil {
		t.Fatal(err)
	}

	e := Extractor{Bin: filepath.Join(dir, "no-such-ffmpeg")}
	if _, err := e.Extract(mp4); err == nil {
		t.Fatal("expected the missing binary to fail the extraction")
	}
	data, err := os.ReadFile(sibling)
	if err != nil || string(data) != "pre-existing" {
		t.Error("sibling clip.h264 was disturbed")
	}
}

func TestExtractMissingInput(t *testing.T) {
	e := Extractor{}
	if _, err := e.Extract(filepath.Join(t.TempDir(), "absent.mp4")); err == nil {
		t.Error("expected an error for a missing input")
	}
}
