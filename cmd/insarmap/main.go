package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"insarmap/internal/anim"
	"insarmap/internal/cache"
	"insarmap/internal/config"
	"insarmap/internal/logging"
	"insarmap/internal/pipeline"
	"insarmap/internal/source"
	"insarmap/internal/tui"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "insarmap:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("insarmap", pflag.ContinueOnError)
	configDir := fs.String("config-dir", ".", "directory holding "+config.FileName)
	fs.String("log-level", "", "log level (trace, debug, info, warn, error)")
	fs.String("logs-dir", "", "directory for session log files")
	fs.String("preset", "", "animation preset to start with")
	fs.Uint64("seed", 0, "sampling and jitter seed, 0 picks one from the clock")
	fs.Duration("min-frame", 0, "minimum time between frames")
	fs.Bool("cache", false, "cache downloaded sources in a local database")
	headless := fs.Bool("headless", false, "log frames instead of drawing them")
	frames := fs.Int("frames", 0, "with --headless, stop after this many frames (0 runs until interrupted)")
	listPresets := fs.Bool("list-presets", false, "print the configured presets and exit")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: insarmap [flags] [location ...]\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if err := config.Load(*configDir, fs); err != nil {
		return err
	}
	presets, err := config.GetPresets()
	if err != nil {
		return err
	}
	if *listPresets {
		for _, p := range presets {
			fmt.Printf("%-24s %-9s sample=%-7d %v\n", p.Name, p.Mode, p.SampleSize, p.Locations)
		}
		return nil
	}

	logger, closer, err := logging.New(logging.Options{
		Level:   viper.GetString("logLevel"),
		LogsDir: viper.GetString("logsDir"),
		Console: *headless,
	})
	if err != nil {
		return err
	}
	defer closer.Close()
	logger.Info().Str("loglevel", logger.GetLevel().String()).Msg("Logging set up")

	loader, closeCache, err := newLoader(logger)
	if err != nil {
		return err
	}
	defer closeCache()

	ac := config.GetAnimationConfig()
	locations := fs.Args()

	if *headless {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runHeadless(ctx, loader, presets, ac, locations, *frames, logger)
	}

	m := tui.New(tui.Deps{
		Loader:    loader,
		Presets:   presets,
		Animation: ac,
		Logger:    logging.Component(logger, "tui"),
		ExportDir: viper.GetString("export.dir"),
		Locations: locations,
	})
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion()).Run(); err != nil {
		logger.Error().Err(err).Msg("program exited")
		return err
	}
	return nil
}

func newLoader(logger zerolog.Logger) (*source.Loader, func(), error) {
	lc := config.GetLoadConfig()
	opts := []source.Option{source.WithConcurrency(lc.Concurrency)}
	closeCache := func() {}

	cc := config.GetCacheConfig()
	if cc.Enabled {
		store, err := cache.Open(cc.Path, cc.TTL)
		if err != nil {
			return nil, nil, err
		}
		if n, err := store.Prune(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("pruning source cache")
		} else if n > 0 {
			logger.Info().Int64("entries", n).Msg("pruned source cache")
		}
		opts = append(opts, source.WithCache(store))
		closeCache = func() {
			if err := store.Close(); err != nil {
				logger.Warn().Err(err).Msg("closing source cache")
			}
		}
	}

	l, err := source.NewLoader(source.NewClient(lc.Timeout), logging.Component(logger, "source"), opts...)
	if err != nil {
		closeCache()
		return nil, nil, err
	}
	return l, closeCache, nil
}

func runHeadless(ctx context.Context, loader pipeline.Loader, presets []config.Preset, ac config.AnimationConfig, locations []string, frames int, logger zerolog.Logger) error {
	preset, ok := config.FindPreset(presets, ac.Preset)
	if !ok {
		return fmt.Errorf("unknown preset %q", ac.Preset)
	}
	settings, err := pipeline.FromPreset(preset, ac, locations)
	if err != nil {
		return err
	}
	out, err := pipeline.Run(ctx, loader, settings)
	if err != nil {
		return err
	}
	logger.Info().
		Str("preset", settings.Name).
		Int("points", len(out.State.Points)).
		Int("frames", out.State.FrameCount).
		Int("failedSources", out.Load.Failed()).
		Int("mismatched", out.Report.Mismatched).
		Msg("pipeline finished")
	if out.State.Empty() {
		logger.Warn().Msg("nothing to animate")
		return nil
	}

	adv, err := settings.NewAdvancer(out.State)
	if err != nil {
		return err
	}
	sink := anim.Sink(anim.LogSink{Logger: logging.Component(logger, "frames")})
	if frames > 0 {
		sink = stopAfter(sink, adv, frames)
	}
	err = adv.Run(ctx, sink, adv.Cadence())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// stopAfter forwards frames to next and stops adv once n were rendered.
func stopAfter(next anim.Sink, adv *anim.Advancer, n int) anim.Sink {
	seen := 0
	return anim.SinkFunc(func(f anim.Frame) {
		next.Render(f)
		seen++
		if seen >= n {
			adv.Stop()
		}
	})
}
