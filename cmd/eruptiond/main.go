// Command eruptiond is the frame pipeline daemon: it owns every
// configured device's raw HID channel, runs the configured profile's
// script stack against each at a fixed tick rate, and composites and
// writes the resulting frames back to the hardware.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/poldi1405/eruption/internal/adapter"
	"github.com/poldi1405/eruption/internal/adapter/hidraw"
	"github.com/poldi1405/eruption/internal/ipc"
	"github.com/poldi1405/eruption/internal/logx"
	"github.com/poldi1405/eruption/internal/profile"
	"github.com/poldi1405/eruption/internal/scheduler"
)

func main() {
	var (
		configPath   = pflag.StringP("device-config", "c", "devices.yaml", "Path to the device/sensor configuration file.")
		profilePath  = pflag.StringP("profile", "p", "profile.yaml", "Path to the profile descriptor to bind on startup.")
		socketPath   = pflag.StringP("control-socket", "s", "/run/eruption/eruptiond.sock", "Path to the Unix-domain control socket.")
		dnssdName    = pflag.String("dnssd-name", "", "Service name to announce via mDNS/DNS-SD (defaults to hostname).")
		dnssdPort    = pflag.Int("dnssd-port", 0, "TCP port to advertise alongside the dnssd announcement (0 disables announcement).")
		logLevel     = pflag.StringP("log-level", "l", "info", "Log level: debug, info, warn, error.")
		tickPeriodMS = pflag.Int("tick-period-ms", 16, "Nominal per-device tick period in milliseconds, overridden by a bound profile's own tick_period_ms.")
		help         = pflag.BoolP("help", "h", false, "Display help text.")
	)

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "eruptiond - realtime per-key RGB effects daemon.\n\n")
		fmt.Fprintf(os.Stderr, "Usage: eruptiond [options]\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "eruptiond: invalid log level %q: %v\n", *logLevel, err)
		os.Exit(1)
	}
	logx.SetLevel(level)
	topLog := logx.For("main")

	cfg, err := loadDaemonConfig(*configPath)
	if err != nil {
		topLog.Fatal("failed to load device config", "err", err)
	}

	hub := buildSensorHub(cfg.Sensors)
	hub.Start()
	defer hub.Stop()

	coord := scheduler.NewCoordinator(hub)

	nominalPeriod := time.Duration(*tickPeriodMS) * time.Millisecond
	for _, dc := range cfg.Devices {
		if err := addDevice(coord, dc, nominalPeriod); err != nil {
			topLog.Error("failed to add device, skipping", "device", dc.Name, "err", err)
		}
	}

	desc, err := profile.LoadDescriptor(*profilePath)
	if err != nil {
		topLog.Fatal("failed to load profile descriptor", "err", err)
	}
	if _, err := coord.Publish(desc); err != nil {
		topLog.Fatal("failed to bind initial profile", "err", err)
	}

	reloads := profile.Watch(*profilePath, coord.ReloadTrigger())
	go func() {
		for d := range reloads {
			if _, err := coord.Publish(d); err != nil {
				topLog.Error("profile reload rejected, keeping running profile", "err", err)
			}
		}
	}()

	if *dnssdPort > 0 {
		name := *dnssdName
		if name == "" {
			if host, err := os.Hostname(); err == nil {
				name = "eruption@" + host
			} else {
				name = "eruption"
			}
		}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if err := ipc.Announce(ctx, name, *dnssdPort); err != nil {
			topLog.Warn("dnssd announce failed, continuing without it", "err", err)
		}
	}

	srv, err := ipc.Listen(*socketPath,
		func() string { return fmt.Sprintf("profile generation %d", generationOf(coord)) },
		func() { coord.RequestReload() },
		func() { coord.Shutdown(); os.Exit(0) },
	)
	if err != nil {
		topLog.Warn("control socket unavailable, continuing without it", "err", err)
	} else {
		go srv.Serve()
		defer srv.Close()
	}

	topLog.Info("eruptiond running", "devices", len(cfg.Devices))
	coord.Run()
}

func generationOf(coord *scheduler.Coordinator) uint64 {
	if p := coord.CurrentProfile(); p != nil {
		return p.Generation
	}
	return 0
}

// addDevice opens one configured device as a hidraw adapter speaking the
// generic grid protocol and registers it with the coordinator, plus an
// optional evdev supplemental input source.
func addDevice(coord *scheduler.Coordinator, dc DeviceConfig, nominalPeriod time.Duration) error {
	desc := adapter.Descriptor{
		Name:      dc.Name,
		VendorID:  dc.VendorID,
		ProductID: dc.ProductID,
		Interface: dc.Interface,
		Usage:     dc.Usage,
		UsagePage: dc.UsagePage,
		LEDCount:  dc.Rows * dc.Columns,
	}
	codec := &hidraw.GenericGridCodec{Rows: dc.Rows, Columns: dc.Columns, ReportID: dc.ReportID}

	dev, err := hidraw.New(desc, codec)
	if err != nil {
		return err
	}

	if err := coord.AddDevice(dev, nominalPeriod); err != nil {
		return err
	}

	if dc.EvdevPath != "" {
		if err := addSupplementalEvdev(coord, dev.ID(), dc.EvdevPath); err != nil {
			logx.For("main").Warn("supplemental evdev input unavailable", "device", dc.Name, "err", err)
		}
	}
	return nil
}

