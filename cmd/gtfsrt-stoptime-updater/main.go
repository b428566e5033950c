package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/spf13/pflag"

	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/config"
	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/converter"
	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/formatter"
	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/gtfs"
	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/gtfsrt"
	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/internal"
	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/server"
	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/timetable"
	"github.com/theoremus-urban-solutions/gtfsrt-stoptime-updater/updater"
)

type options struct {
	configPath  string
	feed        string
	mode        string
	format      string
	tripUpdates string
}

func main() {
	var opts options
	pflag.StringVarP(&opts.configPath, "config", "c", "", "config file (default: config.yml, ./config/config.yml)")
	pflag.StringVar(&opts.feed, "feed", "", "feed name from config.feeds[]")
	pflag.StringVar(&opts.mode, "mode", "serve", "serve|oneshot")
	pflag.StringVar(&opts.format, "format", "json", "oneshot output: json|xml")
	pflag.StringVar(&opts.tripUpdates, "tripUpdates", "", "GTFS-RT TripUpdates URL or file (overrides config)")
	pflag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "gtfsrt-stoptime-updater: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	var paths []string
	if opts.configPath != "" {
		paths = append(paths, opts.configPath)
	}
	cfg, err := config.LoadAppConfig(paths...)
	if err != nil {
		return errors.Annotate(err, "loading config")
	}
	logger := internal.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	gtfsCfg, rtCfg, err := cfg.SelectFeed(opts.feed)
	if err != nil {
		return errors.Trace(err)
	}
	if opts.tripUpdates != "" {
		rtCfg.TripUpdatesURL = opts.tripUpdates
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	index, err := gtfs.NewIndexFromConfig(ctx, gtfsCfg, logger)
	if err != nil {
		return errors.Annotate(err, "loading static GTFS")
	}

	buffer := timetable.NewBuffer(timetable.WithLocation(index.Location()))
	publisher, err := updater.NewPublisher(updater.PublisherConfig{
		Buffer:      buffer,
		Clock:       clock.WallClock,
		MinInterval: cfg.Updater.MinPublishInterval(),
	})
	if err != nil {
		return errors.Trace(err)
	}
	client := gtfsrt.NewClient(rtCfg.Timeout(), rtCfg.Headers)
	conv := converter.NewConverter(index, converter.ConverterOptions{AgencyID: gtfsCfg.AgencyID})

	workerConfig := updater.Config{
		Resolver:            index,
		Publisher:           publisher,
		Filter:              cfg.Updater.Filter,
		Logger:              logger,
		ProgressLogInterval: cfg.Updater.ProgressLogInterval,
		EmptyRetryDelay:     cfg.Updater.EmptyRetryDelay(),
		ErrorRetryDelay:     cfg.Updater.ErrorRetryDelay(),
	}

	switch opts.mode {
	case "oneshot":
		return oneshot(ctx, opts.format, client, rtCfg.TripUpdatesURL, workerConfig, conv)
	case "serve":
		workerConfig.Streamer = gtfsrt.NewPollingStreamer(client, rtCfg.TripUpdatesURL, rtCfg.ReadInterval(), clock.WallClock)
		return serve(ctx, cfg.Server.Port, index, workerConfig, conv, logger)
	default:
		return errors.NotValidf("mode %q", opts.mode)
	}
}

// oneshot applies a single fetch of the feed and prints the resulting
// Estimated Timetable.
func oneshot(ctx context.Context, format string, client *gtfsrt.Client, source string, workerConfig updater.Config, conv *converter.Converter) error {
	data, err := client.Fetch(ctx, source)
	if err != nil {
		return errors.Trace(err)
	}
	batch, err := gtfsrt.DecodeFeed(data)
	if err != nil {
		return errors.Trace(err)
	}
	batches := make(chan *gtfsrt.Batch, 1)
	batches <- batch
	close(batches)
	workerConfig.Streamer = gtfsrt.NewChanStreamer(batches)

	w, err := updater.NewWorker(workerConfig)
	if err != nil {
		return errors.Trace(err)
	}
	if err := w.Wait(); err != nil {
		return errors.Trace(err)
	}

	snap := workerConfig.Publisher.GetSnapshot()
	res := formatter.WrapEstimatedTimetableResponse(conv.BuildEstimatedTimetable(snap, time.Now()), conv.Codespace())
	rb := formatter.NewResponseBuilder()
	var out []byte
	if format == "xml" {
		out = rb.BuildXML(res)
	} else if out, err = rb.BuildJSON(res); err != nil {
		return errors.Trace(err)
	}
	fmt.Println(string(out))
	return nil
}

// serve runs the updater and the HTTP server until a shutdown signal arrives
// or the updater stops on its own.
func serve(ctx context.Context, port int, index *gtfs.Index, workerConfig updater.Config, conv *converter.Converter, logger *slog.Logger) error {
	w, err := updater.NewWorker(workerConfig)
	if err != nil {
		return errors.Trace(err)
	}
	srv, err := server.New(server.Config{
		Port:      port,
		Snapshots: workerConfig.Publisher,
		Index:     index,
		Converter: conv,
		Reporter:  w,
		Logger:    logger,
	})
	if err != nil {
		w.Kill()
		return errors.Trace(err)
	}
	if err := srv.Start(); err != nil {
		w.Kill()
		return errors.Trace(err)
	}

	done := make(chan error, 1)
	go func() { done <- w.Wait() }()

	var workerErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		w.Kill()
		workerErr = <-done
	case workerErr = <-done:
		if workerErr != nil {
			logger.Error("updater stopped", "error", workerErr)
		} else {
			logger.Warn("update stream ended")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	} else {
		logger.Info("server shut down successfully")
	}
	return workerErr
}
