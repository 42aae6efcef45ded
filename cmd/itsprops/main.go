// Command itsprops reads camera properties from a JSON file, as returned by
// the test service, and prints what capture requests and output formats would
// be chosen for the camera.
//
// Examples:
//
//	itsprops camera0.json
//
//	# Print again every time the file changes.
//	itsprops -watch camera0.json
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/camerasuite/its-go/capture"
)

var (
	watch   bool
	verbose bool
)

func init() {
	flag.BoolVar(&watch, "watch", false, "keep running, printing again when the file changes")
	flag.BoolVar(&verbose, "verbose", false, "print verbose output")
}

func usage() {
	log.Println("usage: itsprops [flags] properties.json")
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	log.SetFlags(0)
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	if len(args) != 1 {
		usage()
	}
	os.Exit(main0(args[0]))
}

func main0(path string) int {
	if err := describe(os.Stdout, path); err != nil {
		log.Printf("%v", err)
		if !watch {
			return 1
		}
	}
	if !watch {
		return 0
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("new file change watcher: %v", err)
		return 1
	}
	defer watcher.Close()

	// Editors often replace the file, so watch the directory.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		log.Printf("watching %s: %v", path, err)
		return 1
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		log.Printf("%v", err)
		return 1
	}
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return 1
			}
			name, err := filepath.Abs(ev.Name)
			if err != nil || name != abs || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if verbose {
				log.Printf("%s changed", path)
			}
			fmt.Println()
			if err := describe(os.Stdout, path); err != nil {
				log.Printf("%v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return 1
			}
			log.Printf("watcher: %v", err)
		}
	}
}

// describe prints the output sizes and requests chosen for the properties in
// file path.
func describe(w io.Writer, path string) error {
	props, err := capture.ReadProperties(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "capabilities: manual sensor %v, raw16 %v, per-frame control %v, mono %v, sensor fusion %v\n",
		props.ManualSensor(), props.Raw16(), props.PerFrameControl(), props.MonoCamera(), props.SensorFusion())
	fmt.Fprintf(w, "max digital zoom: %g\n", capture.MaxDigitalZoom(props))

	for _, kind := range capture.FormatKinds {
		sizes, err := capture.AvailableOutputSizes(kind, props, nil)
		if err != nil {
			return err
		}
		if len(sizes) == 0 {
			continue
		}
		l := []string{}
		for _, s := range sizes {
			e := s.String()
			if capture.IsCommonAspectRatio(s) {
				e += "*"
			}
			l = append(l, e)
		}
		fmt.Fprintf(w, "%s: %s\n", kind, strings.Join(l, " "))
	}

	formats := []struct {
		name string
		fn   func(*capture.Properties, *capture.Size) (capture.OutputSpec, error)
	}{
		{"largest yuv", capture.LargestYUVFormat},
		{"smallest yuv", capture.SmallestYUVFormat},
		{"near-vga yuv", capture.NearVGAYUVFormat},
		{"largest jpeg", capture.LargestJPEGFormat},
	}
	for _, f := range formats {
		out, err := f.fn(props, nil)
		switch {
		case errors.Is(err, capture.ErrNoOutputSize):
			fmt.Fprintf(w, "%s: none\n", f.name)
		case err != nil:
			return err
		default:
			fmt.Fprintf(w, "%s: %s\n", f.name, out)
		}
	}

	if len(props.ExposureTimeRange) == 2 {
		exps, err := capture.ExposureSweep(props.ExposureTimeRange[0], props.ExposureTimeRange[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "exposure sweep (ns): %v\n", exps)
	}

	req, out, err := capture.FastestManualSettings(props)
	if err != nil {
		fmt.Fprintf(w, "fastest manual: %v\n", err)
	} else {
		buf, err := json.MarshalIndent(req, "", "\t")
		if err != nil {
			return fmt.Errorf("encoding request: %v", err)
		}
		fmt.Fprintf(w, "fastest manual, %s:\n%s\n", out, buf)
	}
	return nil
}
