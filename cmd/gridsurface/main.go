// Command gridsurface shows a configurable 3D grid and surface mesh in a
// gogpu window. Settings are edited from the console, persisted to a YAML
// file and reloaded when the file changes. With -snapshot it renders one
// frame offscreen and writes it to an image file instead.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/gridsurface"
	"github.com/gogpu/gridsurface/internal/control"
	"github.com/gogpu/gridsurface/internal/gpu"
	"github.com/gogpu/gridsurface/internal/notice"
	"github.com/gogpu/gridsurface/internal/viewer"
	"github.com/gogpu/gridsurface/settings"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "gridsurface:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		settingsPath = flag.String("settings", "", "settings file (default <config dir>/gridsurface/settings.yaml)")
		shaderDir    = flag.String("shaders", "", "directory with mesh/ and grid/ WGSL sources (default built-in)")
		count        = flag.String("count", "", "cells along each axis, 2-100")
		size         = flag.String("size", "", "cell edge length, 0.02-1.0")
		wireframe    = flag.String("wireframe", "", "show the wireframe overlay: on|off")
		reset        = flag.Bool("reset", false, "restore default settings before starting")
		snapshot     = flag.String("snapshot", "", "render one frame to this .png, .bmp or .tiff file and exit")
		width        = flag.Int("width", 800, "window width")
		height       = flag.Int("height", 600, "window height")
		scale        = flag.Float64("scale", 1, "device pixel ratio for snapshots")
		lang         = flag.String("lang", "", "notice language (default from the system locale)")
		triangle     = flag.Bool("triangle", false, "draw a single triangle instead of the filled surface")
		title        = flag.String("title", "Grid Surface", "window title")
		verbose      = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	gridsurface.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	notes := notice.New(os.Stdout, *lang)

	store, err := openStore(*settingsPath, notes)
	if err != nil {
		return err
	}
	if *reset {
		// Persistence failures are logged by the store.
		_, _ = store.Reset()
	}
	if err := applyOverrides(store, *count, *size, *wireframe); err != nil {
		return err
	}

	shaders, err := loadShaders(*shaderDir)
	if err != nil {
		return err
	}

	cfg := viewer.Config{
		Title:    *title,
		Width:    *width,
		Height:   *height,
		Scale:    *scale,
		Triangle: *triangle,
		Shaders:  shaders,
		Store:    store,
		Notes:    notes,
	}

	if *snapshot != "" {
		return viewer.Snapshot(cfg, *snapshot)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return interactive(ctx, cfg, os.Stdin, viewer.Run)
}

// interactive runs the console panel and the settings watcher in the
// background and the window on the calling goroutine, which must be the main
// goroutine. Quitting from the console closes the window; closing the window
// stops the background work.
func interactive(ctx context.Context, cfg viewer.Config, in io.Reader, window func(context.Context, viewer.Config) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := control.New(cfg.Store, cfg.Notes).Run(gctx, in)
		if errors.Is(err, control.ErrQuit) {
			cancel()
			return nil
		}
		return err
	})
	if cfg.Store.Path() != "" {
		g.Go(func() error {
			if err := cfg.Store.Watch(gctx); err != nil {
				gridsurface.Logger().Warn("settings will not be reloaded from disk", "err", err)
			}
			return nil
		})
	}
	cfg.Notes.Notify(notice.Help)

	runErr := window(gctx, cfg)
	cancel()
	return errors.Join(runErr, g.Wait())
}

// openStore opens the settings file. An unreadable file is reported and
// replaced by defaults on the next change.
func openStore(path string, notes *notice.Notifier) (*settings.Store, error) {
	var err error
	if path == "" {
		if path, err = settings.DefaultPath(); err != nil {
			gridsurface.Logger().Debug("no config dir, settings are not persisted", "err", err)
			return settings.NewStore("", settings.Defaults()), nil
		}
	} else if path, err = settings.ExpandPath(path); err != nil {
		return nil, err
	}

	store, err := settings.Open(path)
	if err != nil {
		notes.Notify(notice.SettingsInvalid, path, err)
		return settings.NewStore(path, settings.Defaults()), nil
	}
	return store, nil
}

// applyOverrides stores command line values that were given. Invalid values
// are rejected rather than ignored so typos do not go unnoticed.
func applyOverrides(store *settings.Store, count, size, wireframe string) error {
	next := store.Get()
	if count != "" {
		n, err := settings.ParseCellCount(count)
		if err != nil {
			return err
		}
		next.CellCount = n
	}
	if size != "" {
		f, err := settings.ParseCellSize(size)
		if err != nil {
			return err
		}
		next.CellSize = f
	}
	if wireframe != "" {
		b, err := settings.ParseBool(wireframe)
		if err != nil {
			return err
		}
		next.ShowWireframe = b
	}
	_, _ = store.Set(next)
	return nil
}

func loadShaders(dir string) (*gpu.ShaderSet, error) {
	if dir == "" {
		return gpu.DefaultShaders()
	}
	return gpu.LoadShaders(os.DirFS(dir))
}
