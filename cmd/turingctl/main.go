package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/theckman/yacspin"

	yml "github.com/go-yaml/yaml"

	"github.com/phstudy/turing-smart-screen-cli/ffmpeg"
	"github.com/phstudy/turing-smart-screen-cli/turing"
	"github.com/phstudy/turing-smart-screen-cli/usbbulk"
)

var (
	// Version is the version number.  Typically injected via ldflags with git build
	Version = "dev"

	// ConfigFileName is what it sounds like
	ConfigFileName = "turingctl.yml"
	k              = koanf.New(".")
)

// Config holds the host-side tunables.  Protocol constants (video chunk
// and upload buffer sizes, opcodes, timing) are not configurable; they
// are device contracts.
type Config struct {
	// Brightness is the default for the save subcommand
	Brightness int `koanf:"brightness"`

	// ImageChunk caps the bytes of one image layer transfer
	ImageChunk int `koanf:"imagechunk"`

	// FFmpeg is the binary used for MP4 adaptation
	FFmpeg string `koanf:"ffmpeg"`

	// Addr is a bind address for screensrv.  screensrv does not read
	// this file; it takes its address from its own -addr flag.
	Addr string `koanf:"addr"`
}

func defaults() Config {
	return Config{
		Brightness: 102,
		ImageChunk: turing.DefaultImageChunk,
		FFmpeg:     "ffmpeg",
		Addr:       ":8777",
	}
}

func setupconfig() {
	k.Load(structs.Provider(defaults(), "koanf"), nil)
	if err := k.Load(file.Provider(ConfigFileName), yaml.Parser()); err != nil {
		errtxt := err.Error()
		if !strings.Contains(errtxt, "no such") { // file missing, who cares
			log.Fatalf("error loading config: %v", err)
		}
	}
}

func root() {
	str := `turingctl drives a Turing Smart Screen over USB

Usage:
	turingctl <command> [flags]

Device commands:
	sync
	restart
	refresh-storage
	clear-image
	stop-play
	brightness --value 0..102
	save [--brightness] [--startup 0|1|2] [--rotation 0|2] [--sleep 0..255] [--offline 0|1]
	list-storage --type image|video
	send-image --path file.png
	send-video --path file.mp4 [--loop]
	upload --path file.png|file.mp4
	delete --filename name.png|name.h264
	play-select --filename name.png|name.h264

Other commands:
	help
	mkconf
	conf
	version`
	fmt.Println(str)
}

func help() {
	str := `turingctl is amenable to configuration via its .yaml file.  For a primer on YAML, see
https://yaml.org/start.html

When no configuration is provided, the defaults are used.  The command
mkconf generates the configuration file with the default values; conf
prints the effective configuration.

All device commands expect exactly one screen attached (VID 0x1CBE,
PID 0x0088).  Interrupting a running video stream is safe: the device
is reset on the way out.`
	fmt.Println(str)
}

func mkconf() {
	c := Config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Fatal(err)
	}
	f, err := os.Create(ConfigFileName)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	err = yml.NewEncoder(f).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func printconf() {
	c := Config{}
	k.Unmarshal("", &c)
	err := yml.NewEncoder(os.Stdout).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func pversion() {
	fmt.Printf("turingctl version %v\n", Version)
}

// spinner starts a progress spinner for the long transfers.  A terminal
// that can't render one is not an error.
func spinner(msg string) *yacspin.Spinner {
	s, err := yacspin.New(yacspin.Config{
		Frequency:     100 * time.Millisecond,
		CharSet:       yacspin.CharSets[59],
		Suffix:        " " + msg,
		StopCharacter: "done",
		StopColors:    []string{"fgGreen"},
	})
	if err != nil {
		return nil
	}
	if s.Start() != nil {
		return nil
	}
	return s
}

func stopSpinner(s *yacspin.Spinner) {
	if s != nil {
		s.Stop()
	}
}

func main() {
	args := os.Args
	if len(args) == 1 {
		root()
		return
	}
	setupconfig()
	cmd := strings.ToLower(args[1])
	switch cmd {
	case "help":
		help()
		return
	case "mkconf":
		mkconf()
		return
	case "conf":
		printconf()
		return
	case "version":
		pversion()
		return
	}

	c := Config{}
	if err := k.Unmarshal("", &c); err != nil {
		log.Fatal(err)
	}
	if err := device(cmd, args[2:], c); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Println("interrupted by user")
			return
		}
		log.Fatal(err)
	}
}

// device dispatches one device command.  The USB handle is held for the
// duration of the command and released on all exit paths.
func device(cmd string, args []string, c Config) error {
	dev, err := usbbulk.Open()
	if err != nil {
		return err
	}
	defer dev.Close()
	scr := turing.NewScreen(dev)
	scr.Extractor = ffmpeg.Extractor{Bin: c.FFmpeg}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "sync":
		return scr.Sync()

	case "restart":
		scr.DelaySync()
		return scr.Restart()

	case "refresh-storage":
		scr.DelaySync()
		si, err := scr.StorageInfo()
		if err != nil {
			// a short reply degrades to a warning, not a failure
			log.Printf("could not read storage counters: %v", err)
			return nil
		}
		fmt.Println(si)
		return nil

	case "clear-image":
		scr.DelaySync()
		return scr.ClearImage()

	case "stop-play":
		scr.DelaySync()
		return scr.StopPlay()

	case "brightness":
		fs := flag.NewFlagSet("brightness", flag.ExitOnError)
		value := fs.Int("value", -1, "brightness value, 0..102")
		fs.Parse(args)
		scr.DelaySync()
		return scr.Brightness(*value)

	case "save":
		fs := flag.NewFlagSet("save", flag.ExitOnError)
		s := turing.Settings{}
		fs.IntVar(&s.Brightness, "brightness", c.Brightness, "brightness, 0..102")
		fs.IntVar(&s.Startup, "startup", 0, "0 default, 1 play image, 2 play video")
		fs.IntVar(&s.Rotation, "rotation", 0, "0 or 2 (180 degrees)")
		fs.IntVar(&s.Sleep, "sleep", 0, "sleep timeout, 0..255")
		fs.IntVar(&s.Offline, "offline", 0, "0 disabled, 1 enabled")
		fs.Parse(args)
		scr.DelaySync()
		return scr.SaveSettings(s)

	case "list-storage":
		fs := flag.NewFlagSet("list-storage", flag.ExitOnError)
		typ := fs.String("type", "image", "image or video")
		fs.Parse(args)
		dir := turing.RemoteImageDir
		if *typ == "video" {
			dir = turing.RemoteVideoDir
		}
		scr.DelaySync()
		names, err := scr.ListStorage(dir)
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil

	case "send-image":
		fs := flag.NewFlagSet("send-image", flag.ExitOnError)
		path := fs.String("path", "", "path to a 480x1920 PNG")
		fs.Parse(args)
		scr.DelaySync()
		sp := spinner("sending image")
		err := scr.SendImage(*path, c.ImageChunk)
		stopSpinner(sp)
		return err

	case "send-video":
		fs := flag.NewFlagSet("send-video", flag.ExitOnError)
		path := fs.String("path", "", "path to an MP4 video")
		loop := fs.Bool("loop", false, "loop playback until interrupted")
		fs.Parse(args)
		scr.DelaySync()
		sp := spinner("streaming video")
		err := scr.SendVideo(ctx, *path, *loop)
		stopSpinner(sp)
		return err

	case "upload":
		fs := flag.NewFlagSet("upload", flag.ExitOnError)
		path := fs.String("path", "", "local PNG or MP4 to store on the device")
		fs.Parse(args)
		scr.DelaySync()
		sp := spinner("uploading")
		err := scr.Upload(*path)
		stopSpinner(sp)
		return err

	case "delete":
		fs := flag.NewFlagSet("delete", flag.ExitOnError)
		name := fs.String("filename", "", "stored file name, *.png or *.h264")
		fs.Parse(args)
		scr.DelaySync()
		return scr.Delete(*name)

	case "play-select":
		fs := flag.NewFlagSet("play-select", flag.ExitOnError)
		name := fs.String("filename", "", "stored file name, *.png or *.h264")
		fs.Parse(args)
		// play-select runs its own sync preamble
		return scr.PlaySelect(*name)
	}

	root()
	return fmt.Errorf("unknown command %q", cmd)
}
