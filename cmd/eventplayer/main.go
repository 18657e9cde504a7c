// Package main provides the eventplayer entry point.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/eventplayer/internal/app/hooks"
	"github.com/osa030/eventplayer/internal/app/playback"
	"github.com/osa030/eventplayer/internal/app/stream"
	"github.com/osa030/eventplayer/internal/infra/config"
	"github.com/osa030/eventplayer/internal/infra/logger"
	"github.com/osa030/eventplayer/internal/infra/source"
)

var (
	app        = kingpin.New("eventplayer", "Plays audio as 20ms PCM frames and reports when playback stops")
	configPath = app.Flag("config", "Path to config file").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stderr)").String()

	playCmd      = app.Command("play", "Play a source (default)").Default()
	playPath     = playCmd.Arg("path", "Audio file to play (overrides the configured source)").String()
	playOutput   = playCmd.Flag("output", "Where to write PCM frames (- for stdout)").Short('o').String()
	playRealtime = playCmd.Flag("realtime", "Pace output at one frame per 20ms").Bool()

	infoCmd  = app.Command("info", "Print tag metadata of an audio file and exit")
	infoPath = infoCmd.Arg("path", "Audio file").Required().String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == infoCmd.FullCommand() {
		if err := printInfo(*infoPath); err != nil {
			fmt.Fprintf(os.Stderr, "eventplayer: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "eventplayer: failed to load config: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg)

	if err := logger.Init(logger.Config{Output: cfg.Log.Output, Level: cfg.Log.Level}); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Playback error: %v", err)
		os.Exit(1)
	}
}

// loadConfig loads the config file, or the defaults when no file is given.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default()
	}
	return config.Load(path)
}

// applyFlags overrides config values with command-line flags.
func applyFlags(cfg *config.Config) {
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logfile != "" {
		cfg.Log.Output = *logfile
	}
	if *playPath != "" {
		cfg.Source.Type = source.KindFile
		cfg.SetSourcePath(*playPath)
	}
	if *playOutput != "" {
		cfg.Output.Path = *playOutput
	}
	if *playRealtime {
		cfg.Output.Realtime = true
	}
}

// run plays the configured source until it is exhausted or a signal arrives.
// Using a separate function ensures deferred closes run before exit.
func run(cfg *config.Config) error {
	src, err := source.New(cfg.Source.Type, cfg.Source.Settings, os.Stdin)
	if err != nil {
		return errors.Wrap(err, "failed to create source")
	}

	sink, closeSink, err := openSink(cfg.Output.Path)
	if err != nil {
		return err
	}
	defer closeSink()

	tracker := playback.NewTracker(src)

	// The tracker does not stop itself at end-of-stream; the owner does.
	tracker.AddStoppedListener(tracker.Stop)
	tracker.AddStoppedListener(func() {
		zlog.Info().Msg("Playback finished")
	})
	onStopped := hooks.NewRunner("on_stopped", cfg.Hooks.OnStopped)
	tracker.AddStoppedListener(onStopped.Listener())

	if err := tracker.Play(); err != nil {
		return errors.Wrap(err, "failed to start playback")
	}
	zlog.Info().Msgf("Playing %s source: output=%s realtime=%v", cfg.Source.Type, cfg.Output.Path, cfg.Output.Realtime)

	pump := stream.NewPump(tracker, sink, stream.Config{Realtime: cfg.Output.Realtime})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pumpErrCh := make(chan error, 1)
	go func() {
		pumpErrCh <- pump.Run(ctx)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	err = awaitPlayback(tracker, cancel, pumpErrCh, sigCh, onStopped)

	zlog.Info().Msgf("Playback stopped: state=%s frames=%d", tracker.State(), pump.Frames())
	return err
}

// shutdownTimeout bounds how long a signal stop waits for the pump, which
// may be blocked writing to a full pipe.
var shutdownTimeout = 5 * time.Second

// awaitPlayback waits for the pump to finish or for a signal. On a signal it
// stops the tracker, cancels the pump and runs the on_stopped hooks, which
// the end-of-stream path already ran as a stopped listener.
func awaitPlayback(tracker *playback.Tracker, cancel context.CancelFunc, pumpErrCh <-chan error, sigCh <-chan os.Signal, onStopped *hooks.Runner) error {
	select {
	case err := <-pumpErrCh:
		return err
	case sig := <-sigCh:
		zlog.Info().Msgf("Received %s, stopping playback...", sig)
		tracker.Stop()
		cancel()

		var err error
		select {
		case err = <-pumpErrCh:
		case <-time.After(shutdownTimeout):
			zlog.Warn().Msgf("Pump did not stop within %v, abandoning output", shutdownTimeout)
		}

		onStopped.Run()

		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
}

// openSink opens the frame output. "-" writes to stdout.
func openSink(path string) (io.Writer, func(), error) {
	if path == "-" || path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create output file")
	}
	return f, func() {
		if err := f.Close(); err != nil {
			zlog.Error().Err(err).Msg("Failed to close output file")
		}
	}, nil
}

// printInfo prints tag metadata of an audio file.
func printInfo(path string) error {
	info, err := source.ReadTrackInfo(path)
	if err != nil {
		return err
	}
	fmt.Printf("Title:  %s\n", info.Title)
	fmt.Printf("Artist: %s\n", info.Artist)
	fmt.Printf("Album:  %s\n", info.Album)
	fmt.Printf("Format: %s\n", info.Format)
	fmt.Printf("Playable: %v\n", source.IsSupported(path))
	return nil
}
