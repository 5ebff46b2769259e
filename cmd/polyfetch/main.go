package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	pfconfig "github.com/NikitaDmitryuk/polyfetch/internal/config"
	"github.com/NikitaDmitryuk/polyfetch/internal/downloader/manager"
	"github.com/NikitaDmitryuk/polyfetch/internal/lang"
	"github.com/NikitaDmitryuk/polyfetch/internal/logutils"
	"github.com/NikitaDmitryuk/polyfetch/internal/plan"
	"github.com/NikitaDmitryuk/polyfetch/internal/probe"
	"github.com/NikitaDmitryuk/polyfetch/internal/progress"
	"github.com/NikitaDmitryuk/polyfetch/internal/target"
	"github.com/NikitaDmitryuk/polyfetch/internal/ui"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Printf("polyfetch %s (built %s)\n", Version, BuildTime)
		return
	}

	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}

	cfg, err := pfconfig.NewConfig()
	if err != nil {
		logutils.Log.WithError(err).Fatal("Failed to initialize configuration")
	}

	logutils.InitLogger(cfg.LogLevel)
	logutils.Log.WithFields(map[string]any{
		"version":    Version,
		"build_time": BuildTime,
	}).Debug("Starting polyfetch")

	if langErr := lang.SetupLang(cfg); langErr != nil {
		logutils.Log.WithError(langErr).Fatal("Failed to initialize language")
	}

	rawTarget := flag.Arg(0)
	tgt, err := target.Resolve(rawTarget)
	if err != nil {
		fmt.Fprintln(os.Stderr, ui.ErrorStyle.Render(lang.GetMessage(lang.InvalidTargetMsgID, rawTarget, err)))
		logutils.Log.WithError(err).Error("Invalid target")
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The probe phase runs before the progress display owns the
	// terminal, so Ctrl-C is handled through the context here.
	probeCtx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	prober := probe.NewProber(cfg, probe.NewConsoleReporter())
	caps := prober.Probe(probeCtx, tgt.Hostname)
	interrupted := probeCtx.Err() != nil
	stopSignals()

	if interrupted {
		fmt.Println(ui.WarnStyle.Render(lang.GetMessage(lang.CancelledByUserMsgID)))
		return
	}

	entries := plan.Build(tgt, caps)

	fmt.Println()
	fmt.Println(ui.HeaderStyle.Render(lang.GetMessage(lang.StartingDownloadsMsgID)))

	if len(entries) == 0 {
		fmt.Println(ui.ErrorStyle.Render(lang.GetMessage(lang.NoViableProtocolsMsgID)))
		return
	}

	display := progress.NewDisplay(cfg)
	dm := manager.NewDownloadManager(cfg, display)

	runDone := make(chan struct{})
	go func() {
		dm.RunPlan(ctx, entries)
		display.Finish()
		close(runDone)
	}()

	// Ctrl-C now arrives as a key event inside the display; SIGTERM
	// still needs its own route.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			logutils.Log.Info("Received shutdown signal")
			display.Cancel()
		case <-ctx.Done():
		}
	}()

	cancelled, err := display.Run()
	if err != nil {
		logutils.Log.WithError(err).Fatal("Progress display failed")
	}

	if cancelled {
		cancel()
		dm.StopAllDownloads()
	}
	<-runDone

	if cancelled {
		fmt.Println(ui.WarnStyle.Render(lang.GetMessage(lang.CancelledByUserMsgID)))
	}

	logutils.Log.Debug("polyfetch finished")
}

func usage() {
	name := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] <url-or-hostname>\n\n", name)
	fmt.Fprintf(os.Stderr, "Probes a host for HTTP protocol support and runs one short test\n")
	fmt.Fprintf(os.Stderr, "download per supported protocol, with live progress per variant.\n\n")
	fmt.Fprintln(os.Stderr, "Flags:")
	flag.PrintDefaults()
}
