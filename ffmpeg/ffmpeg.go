/*Package ffmpeg adapts MP4 containers into the raw Annex-B H.264
elementary streams the screen's video path requires, by shelling out to
an ffmpeg-class binary.
*/
package ffmpeg

import (
	"fmt"
	"log"
	"os"
	"os/exec"
)

// Extractor runs the conversion.  Bin overrides the binary name, which
// defaults to "ffmpeg" on PATH.
type Extractor struct {
	Bin string
}

/*Extract produces <input>.h264 next to the input MP4 and returns its
path.  The suffix stacks on the full input name (video.mp4 becomes
video.mp4.h264) so a source file already named video.h264 is never
clobbered.  An existing output is reused without re-running the tool,
which makes repeat streams of the same video start instantly.
*/
func (e Extractor) Extract(mp4Path string) (string, error) {
	if _, err := os.Stat(mp4Path); err != nil {
		return "", fmt.Errorf("ffmpeg: input: %w", err)
	}
	out := mp4Path + ".h264"
	if _, err := os.Stat(out); err == nil {
		log.Printf("%s already exists, skipping extraction", out)
		return out, nil
	}

	bin := e.Bin
	if bin == "" {
		bin = "ffmpeg"
	}
	cmd := exec.Command(bin,
		"-y",
		"-i", mp4Path,
		"-c:v", "copy",
		"-bsf:v", "h264_mp4toannexb",
		"-an",
		"-f", "h264",
		out,
	)
	log.Printf("extracting H.264 from %s", mp4Path)
	if output, err := cmd.CombinedOutput(); err != nil {
		os.Remove(out) // do not leave a truncated stream for the cache check
		return "", fmt.Errorf("ffmpeg: %w: %s", err, output)
	}
	return out, nil
}
