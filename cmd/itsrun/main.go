// Command itsrun connects to the camera test service on a device and runs
// conformance checks against one camera, printing a line per check.
//
// Examples:
//
//	# Run all checks on camera 0 of the device attached over adb.
//	itsrun -serial emulator-5554
//
//	# Run only the gyro bias check, with settings from a config file.
//	itsrun -config its.yaml -checks gyro_bias -verbose
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"

	its "github.com/camerasuite/its-go"
	"github.com/camerasuite/its-go/check"
	"github.com/camerasuite/its-go/check/gyrobias"
	"github.com/camerasuite/its-go/check/rawexposure"
)

var (
	configPath string
	address    string
	network    string
	serial     string
	cameraID   string
	checkNames string
	logDir     string
	traceDir   string
	verbose    bool
)

func init() {
	flag.StringVar(&configPath, "config", "", "if set, yaml file with configuration, flags override its values")
	flag.StringVar(&address, "addr", "", "address of the test service, host:port or socket path")
	flag.StringVar(&network, "network", "", "network of the test service, tcp or unix")
	flag.StringVar(&serial, "serial", "", "if set, device serial for adb port forwarding")
	flag.StringVar(&cameraID, "camera", "", "camera id")
	flag.StringVar(&checkNames, "checks", "", "comma-separated checks to run, all by default: "+strings.Join(names(), ","))
	flag.StringVar(&logDir, "logdir", "", "directory for check output, a per-run directory is created in it")
	flag.StringVar(&traceDir, "tracedir", "", "if set, store the session requests and responses to the named directory")
	flag.BoolVar(&verbose, "verbose", false, "print verbose output")
}

func usage() {
	log.Println("usage: itsrun [flags]")
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	log.SetFlags(0)
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 0 {
		usage()
	}
	os.Exit(main0())
}

func names() []string {
	return []string{gyrobias.Name, rawexposure.Name}
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
		case "network":
			cfg.Network = network
		case "serial":
			cfg.DeviceSerial = serial
		case "camera":
			cfg.CameraID = cameraID
		case "checks":
			cfg.Checks = parseCheckNames(checkNames)
		case "logdir":
			cfg.LogDir = logDir
		case "tracedir":
			cfg.TraceDir = traceDir
		case "verbose":
			cfg.Verbose = verbose
		}
	})
	return cfg, cfg.Validate()
}

// parseCheckNames splits a comma-separated list, dropping empty names.
func parseCheckNames(s string) []string {
	var l []string
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			l = append(l, name)
		}
	}
	return l
}

func selectChecks(cfg its.Config) ([]check.Check, error) {
	all := map[string]check.Check{
		gyrobias.Name: gyrobias.New(&gyrobias.Opts{
			Duration:          cfg.Gyro.Duration,
			Window:            cfg.Gyro.Window,
			MeanThreshold:     cfg.Gyro.MeanThreshold,
			VarianceThreshold: cfg.Gyro.VarianceThreshold,
		}),
		rawexposure.Name: rawexposure.New(&rawexposure.Opts{
			BurstLength:      cfg.Raw.BurstLength,
			SensitivitySteps: cfg.Raw.SensitivitySteps,
			Grid:             cfg.Raw.Grid,
		}),
	}
	if len(cfg.Checks) == 0 {
		cfg.Checks = names()
	}
	var l []check.Check
	for _, name := range cfg.Checks {
		c, ok := all[strings.TrimSpace(name)]
		if !ok {
			return nil, fmt.Errorf("unknown check %q", name)
		}
		l = append(l, c)
	}
	return l, nil
}

func main0() int {
	cfg, err := loadConfig()
	if err != nil {
		log.Printf("config: %v", err)
		return 2
	}
	checks, err := selectChecks(cfg)
	if err != nil {
		log.Printf("%v", err)
		return 2
	}

	if cfg.LogDir == "" {
		cfg.LogDir, err = its.TempDir("logs")
		if err != nil {
			log.Printf("making log dir: %v", err)
			return 1
		}
	}
	runDir := filepath.Join(cfg.LogDir, uuid.New().String())
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		log.Printf("making run dir: %v", err)
		return 1
	}
	log.Printf("logging to %s", runDir)

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

	env := &check.Env{
		Session: session,
		Props:   props,
		LogDir:  runDir,
		Verbose: cfg.Verbose,
	}
	code := 0
	for _, r := range check.Run(ctx, env, checks) {
		fmt.Println(r)
		if !r.Passed && !r.Skipped {
			code = 1
		}
	}
	if ctx.Err() != nil {
		log.Printf("interrupted")
		return 1
	}
	return code
}
