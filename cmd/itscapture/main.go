// Command itscapture takes captures from a camera through the test service,
// writes them as PNG and prints the channel means of the center patch,
// smoothed over the last captures.
//
// Examples:
//
//	# One auto capture at the size closest to VGA.
//	itscapture -serial emulator-5554 -o /tmp/its
//
//	# Ten of the fastest manual captures, averaging means over 5 captures.
//	itscapture -mode manual -n 10 -window 5 -o /tmp/its
//
//	# A flash-assisted jpeg still capture.
//	itscapture -mode flash -format jpeg -size largest -o /tmp/its
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	its "github.com/camerasuite/its-go"
	"github.com/camerasuite/its-go/capture"
	"github.com/camerasuite/its-go/image"
)

var (
	configPath string
	address    string
	serial     string
	cameraID   string
	mode       string
	format     string
	size       string
	count      int
	window     int
	outDir     string
	verbose    bool
)

func init() {
	flag.StringVar(&configPath, "config", "", "if set, yaml file with configuration, flags override its values")
	flag.StringVar(&address, "addr", "", "address of the test service, host:port")
	flag.StringVar(&serial, "serial", "", "if set, device serial for adb port forwarding")
	flag.StringVar(&cameraID, "camera", "", "camera id")
	flag.StringVar(&mode, "mode", "auto", "capture mode: auto, manual (fastest manual settings) or flash")
	flag.StringVar(&format, "format", "yuv", "output format: yuv, y8 or jpeg")
	flag.StringVar(&size, "size", "vga", "output size: vga (closest to vga), largest or smallest")
	flag.IntVar(&count, "n", 1, "number of captures, not for flash mode")
	flag.IntVar(&window, "window", 3, "number of captures the printed means are averaged over")
	flag.StringVar(&outDir, "o", "", "if set, directory to write captures to as PNG")
	flag.BoolVar(&verbose, "verbose", false, "print verbose output")
}

func usage() {
	log.Println("usage: itscapture [flags]")
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	log.SetFlags(0)
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 0 || count < 1 || window < 1 {
		usage()
	}
	os.Exit(main0())
}

func loadConfig() (its.Config, error) {
	cfg := its.DefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = its.LoadConfig(configPath)
		if err != nil {
			return cfg, err
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Address = address
		case "serial":
			cfg.DeviceSerial = serial
		case "camera":
			cfg.CameraID = cameraID
		case "verbose":
			cfg.Verbose = verbose
		}
	})
	return cfg, cfg.Validate()
}

// outputSpec returns the output for the requested format and size.
func outputSpec(props *capture.Properties) (capture.OutputSpec, error) {
	kind, err := capture.ParseFormatKind(format)
	if err != nil {
		return capture.OutputSpec{}, err
	}
	switch {
	case kind == capture.FormatYUV && size == "vga":
		return capture.NearVGAYUVFormat(props, nil)
	case kind == capture.FormatYUV && size == "largest":
		return capture.LargestYUVFormat(props, nil)
	case kind == capture.FormatYUV && size == "smallest":
		return capture.SmallestYUVFormat(props, nil)
	case kind == capture.FormatJPEG && size == "largest":
		return capture.LargestJPEGFormat(props, nil)
	}

	sizes, err := capture.AvailableOutputSizes(kind, props, nil)
	if err != nil {
		return capture.OutputSpec{}, err
	}
	if len(sizes) == 0 {
		return capture.OutputSpec{}, fmt.Errorf("%w: format %s", capture.ErrNoOutputSize, kind)
	}
	var s capture.Size
	switch size {
	case "largest":
		s = sizes[0]
	case "smallest":
		s = sizes[len(sizes)-1]
	case "vga":
		s = sizes[len(sizes)-1]
		for _, e := range sizes {
			if e.Width <= 640 && e.Height <= 480 {
				s = e
				break
			}
		}
	default:
		return capture.OutputSpec{}, fmt.Errorf("unknown size %q", size)
	}
	return capture.OutputSpec{Format: kind, Width: s.Width, Height: s.Height}, nil
}

func main0() int {
	cfg, err := loadConfig()
	if err != nil {
		log.Printf("config: %v", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, err := cfg.OpenSession(ctx)
	if err != nil {
		log.Printf("open session: %v", err)
		return 1
	}
	defer session.Close()

	props, err := session.Properties(ctx)
	if err != nil {
		log.Printf("camera properties: %v", err)
		return 1
	}
	out, err := outputSpec(props)
	if err != nil {
		log.Printf("output: %v", err)
		return 1
	}
	if cfg.Verbose {
		log.Printf("output %s", out)
	}

	maf, err := its.NewMAF(window, []string{"r", "g", "b"})
	if err != nil {
		log.Printf("%v", err)
		return 1
	}
	report := func(seq int, ev image.Event) error {
		patch, err := image.Patch(ev.Image, 0.45, 0.45, 0.1, 0.1)
		if err != nil {
			return err
		}
		m := image.ChannelMeans(patch)
		avg, err := maf.Update(map[string]float64{"r": m[0], "g": m[1], "b": m[2]})
		if err != nil {
			return err
		}
		md := ev.Capture.Metadata
		fmt.Printf("%d: %s %dx%d, exposure %dns, sensitivity %d, center means r %.4f g %.4f b %.4f (avg r %.4f g %.4f b %.4f)\n",
			seq, ev.Capture.Format, ev.Capture.Width, ev.Capture.Height, md.ExposureTime, md.Sensitivity,
			m[0], m[1], m[2], avg["r"], avg["g"], avg["b"])
		return nil
	}

	if mode == "flash" {
		c, err := session.DoCaptureWithFlash(ctx, capture.FlashCaptureSequence(), out)
		if err != nil {
			log.Printf("flash capture: %v", err)
			return 1
		}
		img, err := image.DecodeCapture(c)
		if err != nil {
			log.Printf("%v", err)
			return 1
		}
		if outDir != "" {
			if err := image.WriteImage(img, filepath.Join(outDir, "flash.png")); err != nil {
				log.Printf("%v", err)
				return 1
			}
		}
		if err := report(0, image.Event{Image: img, Capture: c}); err != nil {
			log.Printf("%v", err)
			return 1
		}
		return 0
	}

	var req capture.Request
	switch mode {
	case "auto":
		req, err = capture.FastestAutoRequest(props)
	case "manual":
		req, _, err = capture.FastestManualSettings(props)
	default:
		log.Printf("unknown mode %q", mode)
		return 2
	}
	if err != nil {
		log.Printf("request: %v", err)
		return 1
	}

	ropts := &image.SessionRecorderOpts{
		Count:    count,
		TraceDir: outDir,
		Verbose:  cfg.Verbose,
	}
	recorder, err := image.NewSessionRecorder(ctx, session, req, out, ropts)
	if err != nil {
		log.Printf("new recorder: %v", err)
		return 1
	}
	defer recorder.Close()

	seq := 0
	for ev := range recorder.Events() {
		if ev.Err != nil {
			log.Printf("%v", ev.Err)
			return 1
		}
		if err := report(seq, ev); err != nil {
			log.Printf("%v", err)
			return 1
		}
		seq++
	}
	if ctx.Err() != nil {
		return 1
	}
	return 0
}
